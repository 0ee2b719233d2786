package gmns2graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float(v float64) *float64 {
	return &v
}

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedTestNetwork(t *testing.T, store *SQLiteStore) {
	t.Helper()
	require.NoError(t, store.SaveModes([]Mode{
		{Code: 'c', Name: "car"},
		{Code: 'w', Name: "walk"},
	}))
	require.NoError(t, store.SaveLinkTypes([]LinkType{
		{Code: 'a', LinkType: "arterial"},
	}))
	require.NoError(t, store.SaveNodes([]Node{
		{ID: 1, Geom: GeoPoint{Lon: 10.0, Lat: 50.0}},
		{ID: 2, Geom: GeoPoint{Lon: 10.1, Lat: 50.1}},
		{ID: 3, Geom: GeoPoint{Lon: 10.2, Lat: 50.2}},
		{ID: 9, IsCentroid: true, Geom: GeoPoint{Lon: 10.05, Lat: 50.05}},
		{ID: 4, IsCentroid: true, Geom: GeoPoint{Lon: 10.15, Lat: 50.15}},
	}))
	require.NoError(t, store.SaveLinks([]Link{
		{ID: 1, ANode: 1, BNode: 2, Direction: DIRECTION_AB, Distance: float(100), Modes: "cw", LinkType: 'a', SpeedAB: float(60), GeomWKT: testGeom},
		{ID: 2, ANode: 2, BNode: 3, Direction: DIRECTION_BOTH, Distance: float(200), Modes: "c", LinkType: 'a', SpeedAB: float(50), SpeedBA: float(50), GeomWKT: testGeom},
		{ID: 3, ANode: 3, BNode: 1, Direction: DIRECTION_BA, Modes: "w", LinkType: 'a', GeomWKT: testGeom},
	}))
}

func TestSQLiteStoreCounts(t *testing.T) {
	store := openTestStore(t)
	seedTestNetwork(t, store)

	links, err := store.CountLinks()
	require.NoError(t, err)
	assert.Equal(t, 3, links)

	nodes, err := store.CountNodes()
	require.NoError(t, err)
	assert.Equal(t, 5, nodes)

	centroids, err := store.CountCentroids()
	require.NoError(t, err)
	assert.Equal(t, 2, centroids)
}

func TestSQLiteStoreCentroidsSorted(t *testing.T) {
	store := openTestStore(t)
	seedTestNetwork(t, store)

	centroids, err := store.Centroids()
	require.NoError(t, err)
	assert.Equal(t, []NodeID{4, 9}, centroids)
}

func TestSQLiteStoreLinkColumns(t *testing.T) {
	store := openTestStore(t)

	columns, err := store.LinkColumns()
	require.NoError(t, err)

	byName := map[string]string{}
	for _, c := range columns {
		byName[c.Name] = c.DeclType
	}
	assert.Contains(t, byName, "link_id")
	assert.Contains(t, byName, "speed_ab")
	assert.Contains(t, byName, "geometry")
	assert.True(t, isNumericColumn(byName["speed_ab"]))
	assert.True(t, isNumericColumn(byName["a_node"]))
	assert.False(t, isNumericColumn(byName["modes"]))
}

func TestSQLiteStoreSelectLinkData(t *testing.T) {
	store := openTestStore(t)
	seedTestNetwork(t, store)

	data, err := store.SelectLinkData([]string{"link_id", "a_node", "b_node", "direction", "distance", "modes", "speed_ab"})
	require.NoError(t, err)

	// modes is not numeric: carried separately, not as a column
	assert.Equal(t, []string{"link_id", "a_node", "b_node", "direction", "distance", "speed_ab"}, data.Fields)
	require.Len(t, data.Rows, 3)
	assert.Equal(t, []string{"cw", "c", "w"}, data.Modes)

	distIdx := data.FieldIndex("distance")
	assert.Equal(t, 100.0, data.Rows[0][distIdx])
	// NULL distance surfaces as NaN
	assert.True(t, data.Rows[2][distIdx] != data.Rows[2][distIdx])
}

func TestSQLiteStoreListModes(t *testing.T) {
	store := openTestStore(t)
	seedTestNetwork(t, store)

	modes, err := store.ListModes()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "w"}, modes)
}

func TestSQLiteStoreLoadLinks(t *testing.T) {
	store := openTestStore(t)
	seedTestNetwork(t, store)

	links, err := store.LoadLinks()
	require.NoError(t, err)
	require.Len(t, links, 3)

	assert.Equal(t, LinkID(1), links[0].ID)
	assert.Equal(t, NodeID(1), links[0].ANode)
	assert.Equal(t, DIRECTION_AB, links[0].Direction)
	assert.Equal(t, "cw", links[0].Modes)
	assert.Equal(t, byte('a'), links[0].LinkType)
	require.NotNil(t, links[0].SpeedAB)
	assert.Equal(t, 60.0, *links[0].SpeedAB)
	assert.Nil(t, links[0].SpeedBA)
	assert.Nil(t, links[2].Distance)
	assert.Equal(t, testGeom, links[0].GeomWKT)
}
