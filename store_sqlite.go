package gmns2graph

import (
	"database/sql"
	"fmt"
	"math"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SQLiteStore is the reference Store implementation. Geometry is kept as
// WKT text in SRID 4326; a spatial store would swap the insert expressions
// for MakePoint/GeomFromTEXT without touching the callers.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS links (
	ogc_fid     INTEGER PRIMARY KEY AUTOINCREMENT,
	link_id     INTEGER UNIQUE NOT NULL,
	a_node      INTEGER,
	b_node      INTEGER,
	direction   INTEGER,
	distance    NUMERIC,
	modes       TEXT,
	link_type   TEXT,
	name        TEXT,
	speed_ab    NUMERIC,
	speed_ba    NUMERIC,
	capacity_ab NUMERIC,
	capacity_ba NUMERIC,
	lanes_ab    NUMERIC,
	lanes_ba    NUMERIC,
	geometry    TEXT,
	notes       TEXT
);
CREATE TABLE IF NOT EXISTS nodes (
	ogc_fid     INTEGER PRIMARY KEY AUTOINCREMENT,
	node_id     INTEGER UNIQUE NOT NULL,
	is_centroid INTEGER NOT NULL DEFAULT 0,
	geometry    TEXT,
	notes       TEXT
);
CREATE TABLE IF NOT EXISTS modes (
	mode_id     TEXT PRIMARY KEY,
	mode_name   TEXT,
	description TEXT
);
CREATE TABLE IF NOT EXISTS link_types (
	link_type_id TEXT PRIMARY KEY,
	link_type    TEXT,
	description  TEXT
);
`

// OpenSQLiteStore opens (or creates) a network database file. Use
// ":memory:" for an ephemeral store.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "can not open network database")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "can not create network schema")
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveNodes inserts all nodes as one committed batch
func (s *SQLiteStore) SaveNodes(nodes []Node) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "can not begin nodes batch")
	}
	stmt, err := tx.Prepare(`INSERT INTO nodes(node_id, is_centroid, geometry, notes) VALUES(?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "can not prepare nodes insert")
	}
	defer stmt.Close()
	for i := range nodes {
		n := &nodes[i]
		centroid := 0
		if n.IsCentroid {
			centroid = 1
		}
		if _, err := stmt.Exec(int64(n.ID), centroid, PrepareWKTPoint(n.Geom), n.Notes); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "can not insert node %d", n.ID)
		}
	}
	return errors.Wrap(tx.Commit(), "can not commit nodes batch")
}

// SaveLinks inserts all links as one committed batch. Runs after SaveNodes
// has committed; a failure here leaves the nodes in place.
func (s *SQLiteStore) SaveLinks(links []Link) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "can not begin links batch")
	}
	stmt, err := tx.Prepare(`INSERT INTO links(
		link_id, a_node, b_node, direction, distance, modes, link_type, name,
		speed_ab, speed_ba, capacity_ab, capacity_ba, lanes_ab, lanes_ba, geometry, notes)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "can not prepare links insert")
	}
	defer stmt.Close()
	for i := range links {
		l := &links[i]
		if _, err := stmt.Exec(
			int64(l.ID), int64(l.ANode), int64(l.BNode), int64(l.Direction),
			nullableFloat(l.Distance), l.Modes, string(l.LinkType), l.Name,
			nullableFloat(l.SpeedAB), nullableFloat(l.SpeedBA),
			nullableFloat(l.CapacityAB), nullableFloat(l.CapacityBA),
			nullableFloat(l.LanesAB), nullableFloat(l.LanesBA),
			l.GeomWKT, l.Notes,
		); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "can not insert link %d", l.ID)
		}
	}
	return errors.Wrap(tx.Commit(), "can not commit links batch")
}

// SaveModes upserts the mode catalog
func (s *SQLiteStore) SaveModes(modes []Mode) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "can not begin modes batch")
	}
	for _, m := range modes {
		if _, err := tx.Exec(
			`INSERT INTO modes(mode_id, mode_name, description) VALUES(?,?,?)
			 ON CONFLICT(mode_id) DO UPDATE SET mode_name=excluded.mode_name, description=excluded.description`,
			string(m.Code), m.Name, m.Description,
		); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "can not insert mode '%c'", m.Code)
		}
	}
	return errors.Wrap(tx.Commit(), "can not commit modes batch")
}

// SaveLinkTypes upserts the link type catalog
func (s *SQLiteStore) SaveLinkTypes(linkTypes []LinkType) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "can not begin link types batch")
	}
	for _, lt := range linkTypes {
		if _, err := tx.Exec(
			`INSERT INTO link_types(link_type_id, link_type, description) VALUES(?,?,?)
			 ON CONFLICT(link_type_id) DO UPDATE SET link_type=excluded.link_type`,
			string(lt.Code), lt.LinkType, "Link type from GMNS file",
		); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "can not insert link type '%c'", lt.Code)
		}
	}
	return errors.Wrap(tx.Commit(), "can not commit link types batch")
}

// CountLinks returns the number of links in the model
func (s *SQLiteStore) CountLinks() (int, error) {
	return s.countItems("link_id", "links", "link_id>=0")
}

// CountNodes returns the number of nodes in the model
func (s *SQLiteStore) CountNodes() (int, error) {
	return s.countItems("node_id", "nodes", "node_id>=0")
}

// CountCentroids returns the number of centroid nodes in the model
func (s *SQLiteStore) CountCentroids() (int, error) {
	return s.countItems("node_id", "nodes", "is_centroid=1")
}

func (s *SQLiteStore) countItems(field, table, condition string) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT count(%s) FROM %s WHERE %s", field, table, condition)
	if err := s.db.QueryRow(query).Scan(&count); err != nil {
		return 0, errors.Wrapf(err, "can not count %s", table)
	}
	return count, nil
}

// Centroids returns centroid node ids sorted ascending
func (s *SQLiteStore) Centroids() ([]NodeID, error) {
	rows, err := s.db.Query("SELECT node_id FROM nodes WHERE is_centroid=1 ORDER BY node_id")
	if err != nil {
		return nil, errors.Wrap(err, "can not query centroids")
	}
	defer rows.Close()
	var centroids []NodeID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "can not scan centroid id")
		}
		centroids = append(centroids, NodeID(id))
	}
	return centroids, errors.Wrap(rows.Err(), "centroids iteration failed")
}

// LinkColumns introspects the links table schema
func (s *SQLiteStore) LinkColumns() ([]LinkColumn, error) {
	rows, err := s.db.Query("PRAGMA table_info(links)")
	if err != nil {
		return nil, errors.Wrap(err, "can not introspect links table")
	}
	defer rows.Close()
	var columns []LinkColumn
	for rows.Next() {
		var (
			cid        int
			name       string
			declType   string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &defaultVal, &pk); err != nil {
			return nil, errors.Wrap(err, "can not scan column info")
		}
		columns = append(columns, LinkColumn{Name: name, DeclType: declType})
	}
	return columns, errors.Wrap(rows.Err(), "column introspection failed")
}

// SelectLinkData fetches the numeric subset of the requested fields plus
// the modes string, in table row order. NULL numeric cells come back as NaN.
func (s *SQLiteStore) SelectLinkData(fields []string) (*LinkData, error) {
	columns, err := s.LinkColumns()
	if err != nil {
		return nil, err
	}
	numeric := make(map[string]bool, len(columns))
	for _, c := range columns {
		numeric[c.Name] = isNumericColumn(c.DeclType)
	}

	selected := make([]string, 0, len(fields))
	for _, f := range fields {
		if numeric[f] {
			selected = append(selected, f)
		}
	}
	if len(selected) == 0 {
		return nil, errors.New("no numeric link fields to select")
	}

	query := fmt.Sprintf("SELECT %s, modes FROM links ORDER BY ogc_fid", strings.Join(selected, ", "))
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, errors.Wrap(err, "can not select link data")
	}
	defer rows.Close()

	data := &LinkData{Fields: selected}
	for rows.Next() {
		cells := make([]sql.NullFloat64, len(selected))
		dest := make([]interface{}, 0, len(selected)+1)
		for i := range cells {
			dest = append(dest, &cells[i])
		}
		var modes string
		dest = append(dest, &modes)
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "can not scan link row")
		}
		rowValues := make([]float64, len(selected))
		for i, c := range cells {
			if c.Valid {
				rowValues[i] = c.Float64
			} else {
				rowValues[i] = math.NaN()
			}
		}
		data.Rows = append(data.Rows, rowValues)
		data.Modes = append(data.Modes, modes)
	}
	return data, errors.Wrap(rows.Err(), "link data iteration failed")
}

// LoadLinks reads the canonical link set back, in table row order
func (s *SQLiteStore) LoadLinks() ([]Link, error) {
	rows, err := s.db.Query(`SELECT link_id, a_node, b_node, direction, distance, modes, link_type, name,
		speed_ab, speed_ba, capacity_ab, capacity_ba, lanes_ab, lanes_ba, geometry, notes
		FROM links ORDER BY ogc_fid`)
	if err != nil {
		return nil, errors.Wrap(err, "can not load links")
	}
	defer rows.Close()
	var links []Link
	for rows.Next() {
		var (
			id, aNode, bNode, direction                      int64
			distance                                         sql.NullFloat64
			modes, linkType, name, geom, notes               string
			speedAB, speedBA, capAB, capBA, lanesAB, lanesBA sql.NullFloat64
		)
		if err := rows.Scan(&id, &aNode, &bNode, &direction, &distance, &modes, &linkType, &name,
			&speedAB, &speedBA, &capAB, &capBA, &lanesAB, &lanesBA, &geom, &notes); err != nil {
			return nil, errors.Wrap(err, "can not scan link row")
		}
		link := Link{
			ID:         LinkID(id),
			ANode:      NodeID(aNode),
			BNode:      NodeID(bNode),
			Direction:  Direction(direction),
			Modes:      modes,
			Name:       name,
			GeomWKT:    geom,
			Notes:      notes,
			Distance:   optFloat(distance),
			SpeedAB:    optFloat(speedAB),
			SpeedBA:    optFloat(speedBA),
			CapacityAB: optFloat(capAB),
			CapacityBA: optFloat(capBA),
			LanesAB:    optFloat(lanesAB),
			LanesBA:    optFloat(lanesBA),
		}
		if len(linkType) > 0 {
			link.LinkType = linkType[0]
		}
		links = append(links, link)
	}
	return links, errors.Wrap(rows.Err(), "links iteration failed")
}

func optFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// ListModes returns the persisted mode codes
func (s *SQLiteStore) ListModes() ([]string, error) {
	rows, err := s.db.Query("SELECT mode_id FROM modes ORDER BY mode_id")
	if err != nil {
		return nil, errors.Wrap(err, "can not list modes")
	}
	defer rows.Close()
	var modes []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, errors.Wrap(err, "can not scan mode id")
		}
		modes = append(modes, m)
	}
	return modes, errors.Wrap(rows.Err(), "modes iteration failed")
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
