package gmns2graph

import (
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geo"
)

/* Links stuff */

type LinkID int64

type Direction int8

const (
	DIRECTION_BA   = Direction(-1) // B -> A only
	DIRECTION_BOTH = Direction(0)  // both directions
	DIRECTION_AB   = Direction(1)  // A -> B only
)

func (d Direction) String() string {
	switch d {
	case DIRECTION_BA:
		return "ba"
	case DIRECTION_BOTH:
		return "both"
	case DIRECTION_AB:
		return "ab"
	}
	return "undefined"
}

// Link is a canonical network link. Per-direction attributes live in the
// _ab/_ba slot pair: a one-way link fills only the slot matching its
// direction, a bidirectional link fills both. Nil means the source table
// carried no value for that slot.
type Link struct {
	ID         LinkID
	ANode      NodeID
	BNode      NodeID
	Direction  Direction
	Distance   *float64
	Modes      string
	LinkType   byte
	Name       string
	SpeedAB    *float64
	SpeedBA    *float64
	CapacityAB *float64
	CapacityBA *float64
	LanesAB    *float64
	LanesBA    *float64
	GeomWKT    string
	Notes      string
}

// LengthMeters returns the stored distance when present, otherwise the
// haversine length of the link geometry.
func (l *Link) LengthMeters() float64 {
	if l.Distance != nil {
		return *l.Distance
	}
	line, err := wkt.UnmarshalLineString(l.GeomWKT)
	if err != nil {
		return 0
	}
	return geo.LengthHaversign(line)
}
