package gmns2graph

import (
	"fmt"
	"strings"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
)

// PrepareWKTLinestring returns WKT representation of LineString
func PrepareWKTLinestring(pts []GeoPoint) string {
	ptsStr := make([]string, len(pts))
	for i := range pts {
		ptsStr[i] = fmt.Sprintf("%f %f", pts[i].Lon, pts[i].Lat)
	}
	return fmt.Sprintf("LINESTRING(%s)", strings.Join(ptsStr, ","))
}

// PrepareWKTPoint returns WKT representation of Point
func PrepareWKTPoint(pt GeoPoint) string {
	return fmt.Sprintf("POINT(%f %f)", pt.Lon, pt.Lat)
}

// PrepareGeoJSONPoint returns GeoJSON representation of Point
func PrepareGeoJSONPoint(pt GeoPoint) string {
	b, err := geojson.NewPointGeometry([]float64{pt.Lon, pt.Lat}).MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}

// LinksToGeoJSON renders canonical links as a GeoJSON feature collection,
// one LineString feature per link with its attributes as properties.
func LinksToGeoJSON(links []Link) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for i := range links {
		link := &links[i]
		line, err := wkt.UnmarshalLineString(link.GeomWKT)
		if err != nil {
			return nil, errors.Wrapf(err, "link %d carries malformed geometry", link.ID)
		}
		coords := make([][]float64, len(line))
		for j, pt := range line {
			coords[j] = []float64{pt.X(), pt.Y()}
		}
		feature := geojson.NewLineStringFeature(coords)
		feature.SetProperty("link_id", int64(link.ID))
		feature.SetProperty("a_node", int64(link.ANode))
		feature.SetProperty("b_node", int64(link.BNode))
		feature.SetProperty("direction", int(link.Direction))
		feature.SetProperty("modes", link.Modes)
		feature.SetProperty("link_type", string(link.LinkType))
		feature.SetProperty("name", link.Name)
		if link.Distance != nil {
			feature.SetProperty("distance", *link.Distance)
		}
		fc.AddFeature(feature)
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "can not marshal feature collection")
	}
	return b, nil
}
