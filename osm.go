package gmns2graph

import (
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// ErrPlaceNotFound is returned when a place name can not be resolved to a
// bounding box. It marks a "nothing to do" outcome, distinct from a caller
// error: importers log it as a warning instead of failing the project.
var ErrPlaceNotFound = errors.New("place name could not be resolved")

// ModesArg is the modes argument of an OSM import. It has exactly two
// shapes, a single mode name or a list of them, and is normalized to a
// list before any work starts.
type ModesArg struct {
	modes []string
}

// SingleMode wraps one mode name
func SingleMode(mode string) ModesArg {
	return ModesArg{modes: []string{mode}}
}

// ModeList wraps a list of mode names
func ModeList(modes ...string) ModesArg {
	return ModesArg{modes: modes}
}

// List returns the normalized mode name list
func (a ModesArg) List() []string {
	return a.modes
}

// Validate rejects an empty argument or blank mode names
func (a ModesArg) Validate() error {
	if len(a.modes) == 0 {
		return errors.New("'modes' needs one mode name or a list of them")
	}
	for _, m := range a.modes {
		if m == "" {
			return errors.New("'modes' can not hold an empty mode name")
		}
	}
	return nil
}

// PlaceResolver turns a place name into a bounding box. Implementations
// talk to an external geocoding service; a miss is reported as
// ErrPlaceNotFound.
type PlaceResolver interface {
	Resolve(placeName string) (BoundingBox, error)
}

// OSMDownloader fetches raw OSM data for an ordered tile sequence. The
// contract is sequential fetching with an inter-request delay; this core
// only hands over the tiles and the normalized mode list.
type OSMDownloader interface {
	Download(tiles []BoundingBox, modes []string) (*osm.OSM, error)
}

// OSMBuilder turns downloaded OSM data into canonical records inside the
// given store.
type OSMBuilder interface {
	Build(data *osm.OSM, store Store) error
}
