package gmns2graph

import (
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
)

const gmnsNotes = "from GMNS file"

// Facility values that grant an extra mode letter on top of whatever the
// base resolution strategy produced.
var (
	gmnsBikeFacilities = map[string]struct{}{"wcl": {}, "bikelane": {}, "cycletrack": {}}
	gmnsPedFacilities  = map[string]struct{}{"shoulder": {}, "sidewalk": {}}
)

// ReconcileGMNS transforms a raw GMNS links/nodes table pair into canonical
// record sets ready for bulk insertion. Mode and link type codes are
// allocated on the given catalogs as new raw values are observed; both
// catalogs only ever grow. Persistence is left to the caller.
func ReconcileGMNS(links, nodes *Table, par *GMNSParameters, modes *Modes, linkTypes *LinkTypes) ([]Node, []Link, error) {
	directedDefaulted, err := checkRequiredFields(links, nodes, par)
	if err != nil {
		return nil, nil, err
	}

	fields := par.LinkFields
	if !links.HasColumn(fields.Geometry) {
		return nil, nil, errors.Errorf("a '%s' field must be provided: geometry field not found in GMNS links file", fields.Geometry)
	}

	rows, twoWay := collapseTwoWayRows(links, fields)

	directions := resolveDirections(links, rows, twoWay, fields.Direction, directedDefaulted)

	rawTypes, typesInferredOnly, err := resolveRawLinkTypes(links, rows, fields.LinkType)
	if err != nil {
		return nil, nil, err
	}

	typeCodes := make([]byte, len(rawTypes))
	for i, raw := range rawTypes {
		code, err := linkTypes.FindOrAllocate(raw)
		if err != nil {
			return nil, nil, err
		}
		typeCodes[i] = code
	}

	modeStrings, err := resolveModes(links, rows, rawTypes, typesInferredOnly, par, modes)
	if err != nil {
		return nil, nil, err
	}

	outLinks := make([]Link, 0, len(rows))
	for i, row := range rows {
		link, err := buildCanonicalLink(links, row, fields, directions[i], typeCodes[i], modeStrings[i])
		if err != nil {
			return nil, nil, err
		}
		outLinks = append(outLinks, link)
	}

	outNodes, err := buildCanonicalNodes(nodes, par.NodeFields)
	if err != nil {
		return nil, nil, err
	}
	return outNodes, outLinks, nil
}

// checkRequiredFields verifies the configured required field lists. The
// 'directed' link field is the only one allowed to be absent: it defaults
// to false, which marks every link as bidirectional.
func checkRequiredFields(links, nodes *Table, par *GMNSParameters) (bool, error) {
	for _, field := range par.RequiredNodeFields {
		if !nodes.HasColumn(field) {
			return false, errors.Errorf("in GMNS nodes file: field '%s' required, but not found", field)
		}
	}
	directedDefaulted := false
	for _, field := range par.RequiredLinkFields {
		if links.HasColumn(field) {
			continue
		}
		if field == "directed" {
			directedDefaulted = true
			continue
		}
		return false, errors.Errorf("in GMNS links file: field '%s' required, but not found", field)
	}
	return directedDefaulted, nil
}

// collapseTwoWayRows detects both-direction traffic recorded as separate
// rows: rows grouped by the ordered (from, to) node pair. Groups of two or
// more keep only the row with the highest link_id, which becomes the
// canonical bidirectional record. When any such group exists, surviving
// rows come back sorted by link_id, matching the de-duplication order.
func collapseTwoWayRows(links *Table, fields LinkFieldNames) ([]int, map[int]struct{}) {
	type nodePair struct {
		from string
		to   string
	}
	counts := make(map[nodePair]int)
	for row := 0; row < links.NumRows(); row++ {
		pair := nodePair{from: links.Value(row, fields.ANode), to: links.Value(row, fields.BNode)}
		counts[pair]++
	}

	hasTwoWay := false
	for _, c := range counts {
		if c >= 2 {
			hasTwoWay = true
			break
		}
	}

	rows := make([]int, 0, links.NumRows())
	twoWay := make(map[int]struct{})
	if !hasTwoWay {
		for row := 0; row < links.NumRows(); row++ {
			rows = append(rows, row)
		}
		return rows, twoWay
	}

	byLinkID := make([]int, links.NumRows())
	for i := range byLinkID {
		byLinkID[i] = i
	}
	sort.SliceStable(byLinkID, func(i, j int) bool {
		a, _ := strconv.ParseInt(links.Value(byLinkID[i], fields.LinkID), 10, 64)
		b, _ := strconv.ParseInt(links.Value(byLinkID[j], fields.LinkID), 10, 64)
		return a < b
	})

	lastPerPair := make(map[nodePair]int)
	for _, row := range byLinkID {
		pair := nodePair{from: links.Value(row, fields.ANode), to: links.Value(row, fields.BNode)}
		lastPerPair[pair] = row
	}
	for _, row := range byLinkID {
		pair := nodePair{from: links.Value(row, fields.ANode), to: links.Value(row, fields.BNode)}
		if lastPerPair[pair] != row {
			continue
		}
		rows = append(rows, row)
		if counts[pair] >= 2 {
			twoWay[row] = struct{}{}
		}
	}
	return rows, twoWay
}

// resolveDirections builds the direction value per surviving row. Collapsed
// two-way rows are forced to bidirectional; any other value outside
// {-1, 0, 1} falls back to A -> B. A missing direction column means one-way
// A -> B, unless the column is the defaulted 'directed' field, which reads
// as false and therefore bidirectional.
func resolveDirections(links *Table, rows []int, twoWay map[int]struct{}, directionColumn string, directedDefaulted bool) []Direction {
	directions := make([]Direction, len(rows))
	hasColumn := links.HasColumn(directionColumn)
	for i, row := range rows {
		if _, ok := twoWay[row]; ok {
			directions[i] = DIRECTION_BOTH
			continue
		}
		if !hasColumn {
			if directedDefaulted && directionColumn == "directed" {
				directions[i] = DIRECTION_BOTH
			} else {
				directions[i] = DIRECTION_AB
			}
			continue
		}
		directions[i] = parseDirection(links.Value(row, directionColumn))
	}
	return directions
}

func parseDirection(raw string) Direction {
	switch strings.ToLower(raw) {
	case "-1":
		return DIRECTION_BA
	case "0", "false":
		return DIRECTION_BOTH
	case "1", "true":
		return DIRECTION_AB
	}
	// Explicit fallback policy: assume A -> B
	return DIRECTION_AB
}

// resolveRawLinkTypes returns the raw link type string per surviving row.
// When the configured column is absent it falls back to 'link_type_name',
// and failing that to 'unclassified' for every row. The second return
// value reports that neither column existed, which forbids the inferred
// mode strategy.
func resolveRawLinkTypes(links *Table, rows []int, linkTypeColumn string) ([]string, bool, error) {
	column := linkTypeColumn
	if !links.HasColumn(column) {
		column = "link_type_name"
	}
	rawTypes := make([]string, len(rows))
	if !links.HasColumn(column) {
		for i := range rawTypes {
			rawTypes[i] = "unclassified"
		}
		return rawTypes, true, nil
	}
	for i, row := range rows {
		rawTypes[i] = links.Value(row, column)
	}
	return rawTypes, false, nil
}

// resolveModes produces the mode string per surviving row, registering any
// newly observed mode code. With a modes column present, raw user classes
// go through the configured lookup table; without one, each row is
// classified by its link type membership in the per-mode allow-lists.
// Optional facility columns append their mode letter in either case.
func resolveModes(links *Table, rows []int, rawTypes []string, typesInferredOnly bool, par *GMNSParameters, modes *Modes) ([]string, error) {
	modeStrings := make([]string, len(rows))
	cfg := par.Modes

	if links.HasColumn(par.LinkFields.Modes) {
		classByName := make(map[string]GMNSUserClass, len(cfg.UserClasses))
		for _, uc := range cfg.UserClasses {
			classByName[uc.Name] = uc
		}
		for i, row := range rows {
			uc, ok := classByName[links.Value(row, par.LinkFields.Modes)]
			if !ok {
				continue
			}
			modeStrings[i] = uc.Letters
			for k := 0; k < len(uc.Letters); k++ {
				if err := registerMode(modes, uc.Letters[k], uc.Description); err != nil {
					return nil, err
				}
			}
		}
	} else {
		if typesInferredOnly {
			return nil, errors.New("GMNS table does not have information about modes or link types")
		}
		for i := range rows {
			letter, err := inferModeLetter(rawTypes[i], cfg.LinkTypes)
			if err != nil {
				return nil, err
			}
			modeStrings[i] = string(letter)
			if err := registerMode(modes, letter, cfg.ModeNames[string(letter)]); err != nil {
				return nil, err
			}
		}
	}

	if links.HasColumn("bike_facility") {
		for i, row := range rows {
			if _, ok := gmnsBikeFacilities[links.Value(row, "bike_facility")]; ok && !strings.Contains(modeStrings[i], "b") {
				modeStrings[i] += "b"
				if err := registerMode(modes, 'b', cfg.ModeNames["b"]); err != nil {
					return nil, err
				}
			}
		}
	}
	if links.HasColumn("ped_facility") {
		for i, row := range rows {
			if _, ok := gmnsPedFacilities[links.Value(row, "ped_facility")]; ok && !strings.Contains(modeStrings[i], "w") {
				modeStrings[i] += "w"
				if err := registerMode(modes, 'w', cfg.ModeNames["w"]); err != nil {
					return nil, err
				}
			}
		}
	}
	return modeStrings, nil
}

func inferModeLetter(rawType string, lists ModeLinkTypeLists) (byte, error) {
	switch {
	case containsString(lists.Bicycle, rawType):
		return 'b', nil
	case containsString(lists.Car, rawType):
		return 'c', nil
	case containsString(lists.Transit, rawType):
		return 't', nil
	case containsString(lists.Walk, rawType):
		return 'w', nil
	}
	return 0, errors.Errorf("link type '%s' does not match any mode allow-list and the GMNS table has no modes column", rawType)
}

func registerMode(modes *Modes, code byte, name string) error {
	if modes.Contains(code) {
		return nil
	}
	return modes.Add(Mode{Code: code, Name: name, Description: "Mode from GMNS link table"})
}

func containsString(list []string, v string) bool {
	for i := range list {
		if list[i] == v {
			return true
		}
	}
	return false
}

// buildCanonicalLink assembles one canonical link row: per-direction
// attribute slots filled according to the resolved direction, geometry
// passed through as validated WKT text.
func buildCanonicalLink(links *Table, row int, fields LinkFieldNames, direction Direction, typeCode byte, modeString string) (Link, error) {
	id, err := links.IntValue(row, fields.LinkID)
	if err != nil {
		return Link{}, errors.Wrap(err, "bad link id")
	}
	aNode, err := links.IntValue(row, fields.ANode)
	if err != nil {
		return Link{}, errors.Wrapf(err, "bad a_node on link %d", id)
	}
	bNode, err := links.IntValue(row, fields.BNode)
	if err != nil {
		return Link{}, errors.Wrapf(err, "bad b_node on link %d", id)
	}

	geomWKT := links.Value(row, fields.Geometry)
	if _, err := wkt.UnmarshalLineString(geomWKT); err != nil {
		return Link{}, errors.Wrapf(err, "link %d carries malformed line geometry", id)
	}

	link := Link{
		ID:        LinkID(id),
		ANode:     NodeID(aNode),
		BNode:     NodeID(bNode),
		Direction: direction,
		Modes:     modeString,
		LinkType:  typeCode,
		Name:      links.Value(row, fields.Name),
		GeomWKT:   geomWKT,
		Notes:     gmnsNotes,
	}

	if links.HasColumn(fields.Distance) {
		link.Distance, err = links.FloatValue(row, fields.Distance)
		if err != nil {
			return Link{}, errors.Wrapf(err, "bad distance on link %d", id)
		}
	}

	type slotPair struct {
		column string
		ab     **float64
		ba     **float64
	}
	pairs := []slotPair{
		{fields.Speed, &link.SpeedAB, &link.SpeedBA},
		{fields.Capacity, &link.CapacityAB, &link.CapacityBA},
		{fields.Lanes, &link.LanesAB, &link.LanesBA},
	}
	for _, p := range pairs {
		if !links.HasColumn(p.column) {
			continue
		}
		value, err := links.FloatValue(row, p.column)
		if err != nil {
			return Link{}, errors.Wrapf(err, "bad '%s' on link %d", p.column, id)
		}
		switch direction {
		case DIRECTION_AB:
			*p.ab = value
		case DIRECTION_BA:
			*p.ba = value
		case DIRECTION_BOTH:
			*p.ab = value
			*p.ba = copyFloat(value)
		}
	}
	return link, nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// buildCanonicalNodes assembles the canonical node set. Centroid flags are
// forced to false: a GMNS file carries topology nodes only.
func buildCanonicalNodes(nodes *Table, fields NodeFieldNames) ([]Node, error) {
	out := make([]Node, 0, nodes.NumRows())
	for row := 0; row < nodes.NumRows(); row++ {
		id, err := nodes.IntValue(row, fields.NodeID)
		if err != nil {
			return nil, errors.Wrap(err, "bad node id")
		}
		x, err := nodes.FloatValue(row, "x_coord")
		if err != nil || x == nil {
			return nil, errors.Errorf("node %d carries no usable x_coord", id)
		}
		y, err := nodes.FloatValue(row, "y_coord")
		if err != nil || y == nil {
			return nil, errors.Errorf("node %d carries no usable y_coord", id)
		}
		out = append(out, Node{
			ID:         NodeID(id),
			IsCentroid: false,
			Geom:       GeoPoint{Lon: *x, Lat: *y},
			Notes:      gmnsNotes,
		})
	}
	return out, nil
}
