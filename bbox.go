package gmns2graph

import (
	"math"

	"github.com/pkg/errors"
)

// BoundingBox is a geographic rectangle in WGS84 degrees.
type BoundingBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// ErrCoordinatesOutOfBounds is returned when a bounding box exceeds the
// valid longitude/latitude range.
var ErrCoordinatesOutOfBounds = errors.New("coordinates out of bounds")

// Validate checks that the box lies inside [-180, 180] x [-90, 90]
func (b BoundingBox) Validate() error {
	if math.Min(b.East, b.West) < -180 || math.Max(b.East, b.West) > 180 {
		return errors.Wrapf(ErrCoordinatesOutOfBounds, "longitude range [%f, %f]", b.West, b.East)
	}
	if math.Min(b.North, b.South) < -90 || math.Max(b.North, b.South) > 90 {
		return errors.Wrapf(ErrCoordinatesOutOfBounds, "latitude range [%f, %f]", b.South, b.North)
	}
	return nil
}

// ApproxAreaSqMeters estimates the area of the box as great-circle height
// times great-circle width, each measured along the box mid-line. It is not
// a geodesic area: the under/over-estimation at high latitudes is accepted
// on purpose, since remote endpoints budget queries with the same formula.
func (b BoundingBox) ApproxAreaSqMeters() float64 {
	midLon := (b.East + b.West) / 2
	midLat := (b.North + b.South) / 2
	height := haversineMeters(GeoPoint{Lon: midLon, Lat: b.South}, GeoPoint{Lon: midLon, Lat: b.North})
	width := haversineMeters(GeoPoint{Lon: b.East, Lat: midLat}, GeoPoint{Lon: b.West, Lat: midLat})
	return height * width
}

// SplitTiles partitions the box into tiles not exceeding maxQueryAreaSize
// (square meters). A box already within the budget comes back as the single
// original rectangle. Otherwise the extents are divided into an
// horizontal x vertical grid of equal cells in degree space; the grid may
// hold more cells than strictly needed, never fewer. Cells are clamped to
// the valid coordinate range.
func (b BoundingBox) SplitTiles(maxQueryAreaSize float64) ([]BoundingBox, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	area := b.ApproxAreaSqMeters()
	if area <= maxQueryAreaSize {
		return []BoundingBox{b}, nil
	}
	parts := math.Ceil(area / maxQueryAreaSize)
	horizontal := math.Ceil(math.Sqrt(parts))
	vertical := math.Ceil(parts / horizontal)
	dx := (b.East - b.West) / horizontal
	dy := (b.North - b.South) / vertical

	tiles := make([]BoundingBox, 0, int(horizontal)*int(vertical))
	for i := 0.0; i < horizontal; i++ {
		xmin := math.Max(-180, b.West+i*dx)
		xmax := math.Min(180, b.West+(i+1)*dx)
		for j := 0.0; j < vertical; j++ {
			ymin := math.Max(-90, b.South+j*dy)
			ymax := math.Min(90, b.South+(j+1)*dy)
			tiles = append(tiles, BoundingBox{West: xmin, South: ymin, East: xmax, North: ymax})
		}
	}
	return tiles, nil
}
