package gmns2graph

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Parameters carries the import configuration: OSM download limits and the
// GMNS column mapping with its mode tables. DefaultParameters covers common
// GMNS exports; a YAML file can override any part of it.
type Parameters struct {
	OSM  OSMParameters  `yaml:"osm"`
	GMNS GMNSParameters `yaml:"gmns"`
}

// OSMParameters limits handed to the external tile downloader
type OSMParameters struct {
	MaxQueryAreaSize float64 `yaml:"max_query_area_size" validate:"gt=0"`
	SleepTimeSeconds int     `yaml:"sleeptime" validate:"gte=0"`
}

// GMNSParameters describes how to read a GMNS link/node file pair
type GMNSParameters struct {
	LinkFields         LinkFieldNames `yaml:"link_fields"`
	NodeFields         NodeFieldNames `yaml:"node_fields"`
	RequiredLinkFields []string       `yaml:"required_link_fields" validate:"min=1"`
	RequiredNodeFields []string       `yaml:"required_node_fields" validate:"min=1"`
	Modes              GMNSModes      `yaml:"modes"`
}

// LinkFieldNames maps the canonical link columns to the column names used
// by the source GMNS links table
type LinkFieldNames struct {
	LinkID    string `yaml:"link_id" validate:"required"`
	ANode     string `yaml:"a_node" validate:"required"`
	BNode     string `yaml:"b_node" validate:"required"`
	Distance  string `yaml:"distance" validate:"required"`
	Direction string `yaml:"direction" validate:"required"`
	Speed     string `yaml:"speed" validate:"required"`
	Capacity  string `yaml:"capacity" validate:"required"`
	Lanes     string `yaml:"lanes" validate:"required"`
	Name      string `yaml:"name" validate:"required"`
	LinkType  string `yaml:"link_type" validate:"required"`
	Modes     string `yaml:"modes" validate:"required"`
	Geometry  string `yaml:"geometry" validate:"required"`
}

// NodeFieldNames maps the canonical node columns to the column names used
// by the source GMNS nodes table. Coordinate columns are fixed by the GMNS
// standard (x_coord/y_coord), only the id column is configurable.
type NodeFieldNames struct {
	NodeID string `yaml:"node_id" validate:"required"`
}

// GMNSModes configures the two mode resolution strategies: the explicit
// user-class lookup used when the links table carries a modes column, and
// the per-mode link type allow-lists used when it does not.
type GMNSModes struct {
	UserClasses []GMNSUserClass   `yaml:"gmns_users"`
	LinkTypes   ModeLinkTypeLists `yaml:"link_types_per_mode"`
	ModeNames   map[string]string `yaml:"mode_names"`
}

// GMNSUserClass associates one raw user-class value from the GMNS modes
// column with the mode letters it enables
type GMNSUserClass struct {
	Name        string `yaml:"name"`
	Letters     string `yaml:"letters"`
	Description string `yaml:"description"`
}

// ModeLinkTypeLists is the per-mode link type allow-lists for the inferred
// strategy
type ModeLinkTypeLists struct {
	Bicycle []string `yaml:"bicycle"`
	Car     []string `yaml:"car"`
	Transit []string `yaml:"transit"`
	Walk    []string `yaml:"walk"`
}

// DefaultParameters mirrors the stock parameter file
func DefaultParameters() *Parameters {
	return &Parameters{
		OSM: OSMParameters{
			MaxQueryAreaSize: 4000000000,
			SleepTimeSeconds: 5,
		},
		GMNS: GMNSParameters{
			LinkFields: LinkFieldNames{
				LinkID:    "link_id",
				ANode:     "from_node_id",
				BNode:     "to_node_id",
				Distance:  "length",
				Direction: "directed",
				Speed:     "free_speed",
				Capacity:  "capacity",
				Lanes:     "lanes",
				Name:      "name",
				LinkType:  "facility_type",
				Modes:     "allowed_uses",
				Geometry:  "geometry",
			},
			NodeFields: NodeFieldNames{
				NodeID: "node_id",
			},
			RequiredLinkFields: []string{"link_id", "from_node_id", "to_node_id", "directed"},
			RequiredNodeFields: []string{"node_id", "x_coord", "y_coord"},
			Modes: GMNSModes{
				UserClasses: []GMNSUserClass{
					{Name: "AUTO", Letters: "c", Description: "automobile"},
					{Name: "HOV", Letters: "c", Description: "high-occupancy vehicle"},
					{Name: "BIKE", Letters: "b", Description: "bicycle"},
					{Name: "WALK", Letters: "w", Description: "walk"},
					{Name: "TRANSIT", Letters: "t", Description: "transit"},
					{Name: "TRUCK", Letters: "c", Description: "truck"},
				},
				LinkTypes: ModeLinkTypeLists{
					Bicycle: []string{"bike", "bicycle", "cycleway"},
					Car:     []string{"freeway", "highway", "arterial", "collector", "local", "primary", "secondary", "tertiary", "residential", "unclassified"},
					Transit: []string{"rail", "bus", "transit"},
					Walk:    []string{"footway", "sidewalk", "walkway", "path"},
				},
				ModeNames: map[string]string{
					"b": "bicycle",
					"c": "car",
					"t": "transit",
					"w": "walk",
				},
			},
		},
	}
}

// LoadParameters reads a YAML parameter file on top of the defaults
func LoadParameters(path string) (*Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "can not read parameters file")
	}
	par := DefaultParameters()
	if err := yaml.Unmarshal(data, par); err != nil {
		return nil, errors.Wrap(err, "can not parse parameters file")
	}
	if err := par.Validate(); err != nil {
		return nil, err
	}
	return par, nil
}

// Validate checks structural constraints on the parameter set
func (p *Parameters) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return errors.Wrap(err, "invalid parameters")
	}
	return nil
}
