package gmns2graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareWKT(t *testing.T) {
	line := []GeoPoint{{Lon: 10.0, Lat: 50.0}, {Lon: 10.1, Lat: 50.1}}
	assert.Equal(t, "LINESTRING(10.000000 50.000000,10.100000 50.100000)", PrepareWKTLinestring(line))
	assert.Equal(t, "POINT(10.000000 50.000000)", PrepareWKTPoint(line[0]))
	assert.JSONEq(t, `{"type":"Point","coordinates":[10,50]}`, PrepareGeoJSONPoint(line[0]))
}

func TestLinksToGeoJSON(t *testing.T) {
	links := []Link{
		{ID: 1, ANode: 1, BNode: 2, Direction: DIRECTION_AB, Modes: "c", LinkType: 'a', Name: "Main St", Distance: float(120.5), GeomWKT: testGeom},
		{ID: 2, ANode: 2, BNode: 3, Direction: DIRECTION_BOTH, Modes: "cw", LinkType: 'a', GeomWKT: testGeom},
	}
	b, err := LinksToGeoJSON(links)
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string      `json:"type"`
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(b, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "LineString", fc.Features[0].Geometry.Type)
	assert.Equal(t, "Main St", fc.Features[0].Properties["name"])
	assert.Equal(t, "c", fc.Features[0].Properties["modes"])
	assert.Equal(t, 120.5, fc.Features[0].Properties["distance"])
	_, hasDistance := fc.Features[1].Properties["distance"]
	assert.False(t, hasDistance)
}

func TestLinksToGeoJSONRejectsBadGeometry(t *testing.T) {
	links := []Link{{ID: 1, GeomWKT: "not a linestring"}}
	_, err := LinksToGeoJSON(links)
	require.Error(t, err)
}

func TestLinkLengthMeters(t *testing.T) {
	withDistance := Link{Distance: float(500), GeomWKT: testGeom}
	assert.Equal(t, 500.0, withDistance.LengthMeters())

	fromGeom := Link{GeomWKT: "LINESTRING(10.0 50.0,10.1 50.0)"}
	length := fromGeom.LengthMeters()
	assert.Greater(t, length, 6000.0)
	assert.Less(t, length, 8000.0)

	broken := Link{GeomWKT: "oops"}
	assert.Equal(t, 0.0, broken.LengthMeters())
}
