package gmns2graph

import (
	"math"
	"strings"

	"github.com/LdDl/ch"
	"github.com/pkg/errors"
)

// Identity fields every synthesized graph must carry, regardless of any
// user supplied field subset.
var graphIdentityFields = []string{"link_id", "a_node", "b_node", "direction", "modes"}

// Columns never handed to the synthesizer
var graphIgnoredFields = map[string]struct{}{"ogc_fid": {}, "geometry": {}}

// ModeGraph is the routable graph of one travel mode: an independent copy
// of the link table with links outside the mode collapsed to zero-length
// self-loops, the shared centroid list, and the path engine graph built
// from them. The link table copy keeps the store's row count and order, so
// positional indexing against it stays valid downstream.
type ModeGraph struct {
	Mode               byte
	Data               *LinkData
	Centroids          []NodeID
	CostField          string
	BlockCentroidFlows bool
	CH                 *ch.Graph
}

// synthesizeGraphs produces one ModeGraph per requested mode code from the
// persisted link table. Every mode gets a full independent copy of the
// numeric link data; rows whose mode string lacks the mode keep their
// position but have b_node overwritten with a_node, removing the edge from
// that mode's topology without disturbing row identity.
func synthesizeGraphs(store Store, fields []string, modeCodes []byte, blockCentroidFlows bool) (map[byte]*ModeGraph, error) {
	allFields, err := discoverGraphFields(store, fields)
	if err != nil {
		return nil, err
	}
	data, err := store.SelectLinkData(allFields)
	if err != nil {
		return nil, err
	}
	for _, f := range []string{"a_node", "b_node", "direction"} {
		if data.FieldIndex(f) < 0 {
			return nil, errors.Errorf("links table misses identity field '%s'", f)
		}
	}
	centroids, err := store.Centroids()
	if err != nil {
		return nil, err
	}

	costField := ""
	if data.FieldIndex("distance") >= 0 {
		costField = "distance"
	}

	graphs := make(map[byte]*ModeGraph, len(modeCodes))
	for _, m := range modeCodes {
		mg := &ModeGraph{
			Mode:               m,
			Data:               copyForMode(data, m),
			Centroids:          centroids,
			CostField:          costField,
			BlockCentroidFlows: blockCentroidFlows,
		}
		if err := mg.prepare(); err != nil {
			return nil, errors.Wrapf(err, "can not prepare graph for mode '%c'", m)
		}
		graphs[m] = mg
	}
	return graphs, nil
}

// discoverGraphFields resolves the column set for graph synthesis: either
// every link column except the internal row id and geometry, or the user
// subset extended with the identity fields.
func discoverGraphFields(store Store, fields []string) ([]string, error) {
	if fields == nil {
		columns, err := store.LinkColumns()
		if err != nil {
			return nil, err
		}
		all := make([]string, 0, len(columns))
		for _, c := range columns {
			if _, skip := graphIgnoredFields[c.Name]; skip {
				continue
			}
			all = append(all, c.Name)
		}
		return all, nil
	}
	seen := make(map[string]struct{}, len(fields)+len(graphIdentityFields))
	all := make([]string, 0, len(fields)+len(graphIdentityFields))
	for _, f := range append(append([]string{}, fields...), graphIdentityFields...) {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		all = append(all, f)
	}
	return all, nil
}

// copyForMode takes a deep copy of the link data and collapses every row
// whose mode string does not contain the mode code
func copyForMode(data *LinkData, mode byte) *LinkData {
	aIdx := data.FieldIndex("a_node")
	bIdx := data.FieldIndex("b_node")
	out := &LinkData{
		Fields: append([]string{}, data.Fields...),
		Rows:   make([][]float64, len(data.Rows)),
		Modes:  append([]string{}, data.Modes...),
	}
	for i, row := range data.Rows {
		copied := append([]float64{}, row...)
		if !strings.Contains(data.Modes[i], string(mode)) {
			copied[bIdx] = copied[aIdx]
		}
		out.Rows[i] = copied
	}
	return out
}

// SetCostField rebuilds the path engine graph with edge costs taken from
// the named field. The field must be present in the graph's column set.
func (mg *ModeGraph) SetCostField(field string) error {
	if mg.Data.FieldIndex(field) < 0 {
		return errors.Errorf("field '%s' not available for mode '%c': check if you have NULL values in the database", field, mg.Mode)
	}
	mg.CostField = field
	return mg.prepare()
}

// prepare builds the ch.Graph from the mode's link table. Centroid
// through-flow is blocked by splitting each centroid into a source vertex
// (outgoing connectors) and a sink vertex (incoming connectors), so no
// shortest path can traverse a centroid.
func (mg *ModeGraph) prepare() error {
	costIdx := -1
	if mg.CostField != "" {
		costIdx = mg.Data.FieldIndex(mg.CostField)
	}
	aIdx := mg.Data.FieldIndex("a_node")
	bIdx := mg.Data.FieldIndex("b_node")
	dirIdx := mg.Data.FieldIndex("direction")

	centroids := make(map[int64]struct{}, len(mg.Centroids))
	if mg.BlockCentroidFlows {
		for _, c := range mg.Centroids {
			centroids[int64(c)] = struct{}{}
		}
	}

	graph := &ch.Graph{}
	addEdge := func(from, to int64, cost float64) error {
		if from == to {
			// Collapsed rows stay in the table but never become edges
			return nil
		}
		// Centroids emit trips under their own id but receive them on a
		// dedicated sink label, so nothing routes onward through them
		to = centroidSinkVertex(to, centroids)
		if err := graph.CreateVertex(from); err != nil {
			return errors.Wrap(err, "can not create source vertex")
		}
		if err := graph.CreateVertex(to); err != nil {
			return errors.Wrap(err, "can not create target vertex")
		}
		if err := graph.AddEdge(from, to, cost); err != nil {
			return errors.Wrap(err, "can not add edge")
		}
		return nil
	}

	for _, row := range mg.Data.Rows {
		a := int64(row[aIdx])
		b := int64(row[bIdx])
		cost := 0.0
		if costIdx >= 0 && !math.IsNaN(row[costIdx]) {
			cost = row[costIdx]
		}
		switch Direction(row[dirIdx]) {
		case DIRECTION_AB:
			if err := addEdge(a, b, cost); err != nil {
				return err
			}
		case DIRECTION_BA:
			if err := addEdge(b, a, cost); err != nil {
				return err
			}
		default:
			if err := addEdge(a, b, cost); err != nil {
				return err
			}
			if err := addEdge(b, a, cost); err != nil {
				return err
			}
		}
	}
	mg.CH = graph
	return nil
}

// centroidSinkVertex returns the vertex label edges arrive at. Centroids
// receive trips on a dedicated sink label, so nothing routes onward.
func centroidSinkVertex(id int64, centroids map[int64]struct{}) int64 {
	if _, ok := centroids[id]; ok {
		return -id - 1
	}
	return id
}
