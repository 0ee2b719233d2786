package gmns2graph

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundingBoxValidate(t *testing.T) {
	valid := BoundingBox{West: -43.3, South: -23.1, East: -43.1, North: -22.9}
	assert.NoError(t, valid.Validate())

	cases := []BoundingBox{
		{West: -181, South: 0, East: 10, North: 1},
		{West: 0, South: 0, East: 180.5, North: 1},
		{West: 0, South: -91, East: 1, North: 0},
		{West: 0, South: 0, East: 1, North: 90.01},
	}
	for _, bad := range cases {
		err := bad.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCoordinatesOutOfBounds))
	}
}

func TestSplitTilesSingle(t *testing.T) {
	box := BoundingBox{West: -43.3, South: -23.1, East: -43.1, North: -22.9}
	area := box.ApproxAreaSqMeters()

	tiles, err := box.SplitTiles(area * 1.01)
	require.NoError(t, err)
	require.Len(t, tiles, 1)
	assert.Equal(t, box, tiles[0])
}

func TestSplitTilesGrid(t *testing.T) {
	box := BoundingBox{West: 10.0, South: 50.0, East: 11.0, North: 51.0}
	area := box.ApproxAreaSqMeters()

	// area = 2.4x budget => parts=3, horizontal=2, vertical=2 => 4 tiles
	tiles, err := box.SplitTiles(area / 2.4)
	require.NoError(t, err)
	require.Len(t, tiles, 4)

	west, south := math.Inf(1), math.Inf(1)
	east, north := math.Inf(-1), math.Inf(-1)
	for _, tile := range tiles {
		west = math.Min(west, tile.West)
		south = math.Min(south, tile.South)
		east = math.Max(east, tile.East)
		north = math.Max(north, tile.North)
		assert.NoError(t, tile.Validate())
	}
	assert.InDelta(t, box.West, west, 1e-9)
	assert.InDelta(t, box.South, south, 1e-9)
	assert.InDelta(t, box.East, east, 1e-9)
	assert.InDelta(t, box.North, north, 1e-9)
}

func TestSplitTilesNeverFewerThanParts(t *testing.T) {
	box := BoundingBox{West: -10.0, South: -10.0, East: 10.0, North: 10.0}
	area := box.ApproxAreaSqMeters()

	for _, ratio := range []float64{1.5, 2.4, 5.0, 9.9, 17.3} {
		tiles, err := box.SplitTiles(area / ratio)
		require.NoError(t, err)
		parts := int(math.Ceil(ratio))
		assert.GreaterOrEqual(t, len(tiles), parts, "ratio %f", ratio)
	}
}

func TestSplitTilesClampsToValidRange(t *testing.T) {
	box := BoundingBox{West: -180.0, South: -90.0, East: 180.0, North: 90.0}
	tiles, err := box.SplitTiles(1e9)
	require.NoError(t, err)
	for _, tile := range tiles {
		assert.GreaterOrEqual(t, tile.West, -180.0)
		assert.LessOrEqual(t, tile.East, 180.0)
		assert.GreaterOrEqual(t, tile.South, -90.0)
		assert.LessOrEqual(t, tile.North, 90.0)
	}
}

func TestSplitTilesRejectsBadBox(t *testing.T) {
	box := BoundingBox{West: -200, South: 0, East: 0, North: 1}
	_, err := box.SplitTiles(1e6)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCoordinatesOutOfBounds))
}
