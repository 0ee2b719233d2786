package gmns2graph

import "strings"

// LinkColumn is one column of the persisted links table, described by its
// declared storage type.
type LinkColumn struct {
	Name     string
	DeclType string
}

// LinkData is the slice of the links table a graph is synthesized from:
// the numeric columns in a fixed order plus the modes string per row. Row
// order matches the store's row order and is preserved all the way into
// the routable graph, since the path engine indexes by array position.
type LinkData struct {
	Fields []string
	Rows   [][]float64
	Modes  []string
}

// FieldIndex returns the position of the named field, or -1
func (d *LinkData) FieldIndex(name string) int {
	for i, f := range d.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

// Store is the persistent home of a canonical network. Persistence is
// committed in discrete phases: all node inserts, then all link inserts,
// each as its own batch. There is no cross-phase rollback; a failure
// between phases leaves whatever the prior phase committed.
type Store interface {
	SaveNodes(nodes []Node) error
	SaveLinks(links []Link) error
	SaveModes(modes []Mode) error
	SaveLinkTypes(linkTypes []LinkType) error

	CountLinks() (int, error)
	CountNodes() (int, error)
	CountCentroids() (int, error)

	// Centroids returns the node ids flagged as centroids, sorted ascending
	Centroids() ([]NodeID, error)

	// LinkColumns introspects the links table schema
	LinkColumns() ([]LinkColumn, error)

	// SelectLinkData fetches the numeric subset of the requested fields plus
	// the modes string, keeping the store's row order
	SelectLinkData(fields []string) (*LinkData, error)

	// ListModes returns the persisted mode codes
	ListModes() ([]string, error)
}

// Declared column types eligible for skimming and graph building. Matches
// the storage classes a spatial store reports for numeric columns.
var numericDeclTypes = []string{
	"INT", "INTEGER", "TINYINT", "SMALLINT", "MEDIUMINT", "BIGINT",
	"UNSIGNED BIG INT", "INT2", "INT8",
	"REAL", "DOUBLE", "DOUBLE PRECISION", "FLOAT", "DECIMAL", "NUMERIC",
}

// isNumericColumn classifies a declared type as numeric-skimmable
func isNumericColumn(declType string) bool {
	upper := strings.ToUpper(declType)
	for _, t := range numericDeclTypes {
		if strings.Contains(upper, t) {
			return true
		}
	}
	return false
}
