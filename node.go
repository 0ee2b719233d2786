package gmns2graph

/* Nodes stuff */

type NodeID int64

// Node is a canonical network node, independent of source format. Centroid
// nodes are traffic-analysis-zone endpoints; everything else is ordinary
// topology.
type Node struct {
	ID         NodeID
	IsCentroid bool
	Geom       GeoPoint
	Notes      string
}
