package gmns2graph

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Fields of the links table that belong to the canonical schema itself and
// are therefore never offered for skimming.
var protectedLinkFields = []string{"link_id", "a_node", "b_node", "direction", "distance", "modes", "link_type"}

// Network is the aggregate owning one canonical network: its store, the
// mode and link type catalogs, and the per-mode routable graphs. All
// mutation is single-writer; nothing here is safe for concurrent use.
type Network struct {
	store     Store
	par       *Parameters
	logger    *zap.Logger
	modes     *Modes
	linkTypes *LinkTypes
	graphs    map[byte]*ModeGraph

	placeResolver PlaceResolver
	downloader    OSMDownloader
	builder       OSMBuilder
}

// NewNetwork wires a network around a store. A nil parameter set falls
// back to the defaults, a nil logger to a no-op one.
func NewNetwork(store Store, par *Parameters, logger *zap.Logger) *Network {
	if par == nil {
		par = DefaultParameters()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Network{
		store:     store,
		par:       par,
		logger:    logger,
		modes:     NewModes(),
		linkTypes: NewLinkTypes(),
		graphs:    make(map[byte]*ModeGraph),
	}
}

// UseOSMServices plugs in the external collaborators of the OSM import
// path: geocoding, tile download and network building.
func (n *Network) UseOSMServices(resolver PlaceResolver, downloader OSMDownloader, builder OSMBuilder) {
	n.placeResolver = resolver
	n.downloader = downloader
	n.builder = builder
}

// Modes returns the mode catalog of this network
func (n *Network) Modes() *Modes {
	return n.modes
}

// LinkTypes returns the link type catalog of this network
func (n *Network) LinkTypes() *LinkTypes {
	return n.linkTypes
}

// CreateFromGMNS imports a GMNS link/node file pair into a brand new
// network. Persistence runs in discrete phases (catalogs, nodes, links);
// a failure mid-way leaves the phases already committed in place.
func (n *Network) CreateFromGMNS(linkFilePath, nodeFilePath string) error {
	if err := n.requireEmptyNetwork(); err != nil {
		return err
	}
	linksTable, err := ReadCSVTable(linkFilePath)
	if err != nil {
		return errors.Wrap(err, "can not read GMNS links file")
	}
	nodesTable, err := ReadCSVTable(nodeFilePath)
	if err != nil {
		return errors.Wrap(err, "can not read GMNS nodes file")
	}

	nodes, links, err := ReconcileGMNS(linksTable, nodesTable, &n.par.GMNS, n.modes, n.linkTypes)
	if err != nil {
		return err
	}

	if err := n.store.SaveModes(n.modes.All()); err != nil {
		return err
	}
	if err := n.store.SaveLinkTypes(n.linkTypes.All()); err != nil {
		return err
	}
	if err := n.store.SaveNodes(nodes); err != nil {
		return err
	}
	if err := n.store.SaveLinks(links); err != nil {
		return err
	}
	n.logger.Info("network built successfully",
		zap.Int("nodes", len(nodes)),
		zap.Int("links", len(links)),
	)
	return nil
}

// CreateFromOSM imports a network from OpenStreetMap, either for an
// explicit bounding box or for a place name resolved externally. This core
// validates inputs, tiles the region and hands the tiles to the configured
// downloader/builder pair. An unresolvable place name returns
// ErrPlaceNotFound after a warning, so callers can tell "nothing to do"
// from a bad request.
func (n *Network) CreateFromOSM(bbox *BoundingBox, placeName string, modesArg ModesArg) error {
	if err := n.requireEmptyNetwork(); err != nil {
		return err
	}
	if err := modesArg.Validate(); err != nil {
		return err
	}

	var region BoundingBox
	if placeName == "" {
		if bbox == nil {
			return errors.New("either a bounding box or a place name is required")
		}
		if err := bbox.Validate(); err != nil {
			return err
		}
		region = *bbox
	} else {
		if n.placeResolver == nil {
			return errors.New("no place resolver configured")
		}
		resolved, err := n.placeResolver.Resolve(placeName)
		if errors.Is(err, ErrPlaceNotFound) {
			n.logger.Warn("could not find a reference for place name", zap.String("place_name", placeName))
			return errors.Wrapf(ErrPlaceNotFound, "place name '%s'", placeName)
		}
		if err != nil {
			return errors.Wrap(err, "place resolution failed")
		}
		n.logger.Info("place found", zap.String("place_name", placeName))
		region = resolved
	}

	tiles, err := region.SplitTiles(n.par.OSM.MaxQueryAreaSize)
	if err != nil {
		return err
	}

	if n.downloader == nil || n.builder == nil {
		return errors.New("no OSM downloader/builder configured")
	}
	n.logger.Info("downloading data", zap.Int("tiles", len(tiles)))
	data, err := n.downloader.Download(tiles, modesArg.List())
	if err != nil {
		return errors.Wrap(err, "OSM download failed")
	}
	n.logger.Info("building network")
	if err := n.builder.Build(data, n.store); err != nil {
		return errors.Wrap(err, "OSM network build failed")
	}
	n.logger.Info("network built successfully")
	return nil
}

// BuildGraphs synthesizes one routable graph per mode and replaces the
// stored graph map wholesale. With no field subset every link column except
// the internal row id and geometry is used; with no mode subset every
// persisted mode code is. Centroids block through-flow by default.
func (n *Network) BuildGraphs(fields []string, modeCodes []byte) error {
	if modeCodes == nil {
		persisted, err := n.store.ListModes()
		if err != nil {
			return err
		}
		for _, m := range persisted {
			if len(m) > 0 {
				modeCodes = append(modeCodes, m[0])
			}
		}
	}
	graphs, err := synthesizeGraphs(n.store, fields, modeCodes, true)
	if err != nil {
		return err
	}
	n.graphs = graphs
	return nil
}

// SetTimeField re-derives the cost of every stored graph from the named
// field. Fails when any stored mode misses the field.
func (n *Network) SetTimeField(timeField string) error {
	for _, m := range n.GraphModes() {
		if err := n.graphs[m].SetCostField(timeField); err != nil {
			return err
		}
	}
	return nil
}

// Graphs returns the mode to graph mapping built by the last BuildGraphs
func (n *Network) Graphs() map[byte]*ModeGraph {
	return n.graphs
}

// Graph returns the stored graph of one mode
func (n *Network) Graph(mode byte) (*ModeGraph, bool) {
	g, ok := n.graphs[mode]
	return g, ok
}

// GraphModes returns the mode codes with a stored graph, sorted
func (n *Network) GraphModes() []byte {
	codes := make([]byte, 0, len(n.graphs))
	for m := range n.graphs {
		codes = append(codes, m)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// ListModes returns the persisted mode codes
func (n *Network) ListModes() ([]string, error) {
	return n.store.ListModes()
}

// CountLinks returns the number of links in the model
func (n *Network) CountLinks() (int, error) {
	return n.store.CountLinks()
}

// CountNodes returns the number of nodes in the model
func (n *Network) CountNodes() (int, error) {
	return n.store.CountNodes()
}

// CountCentroids returns the number of centroid nodes in the model
func (n *Network) CountCentroids() (int, error) {
	return n.store.CountCentroids()
}

// SkimmableFields lists the numeric link fields available for skimming.
// Directional _ab/_ba pairs collapse to their stem; a field with only one
// directional slot is dropped.
func (n *Network) SkimmableFields() ([]string, error) {
	columns, err := n.store.LinkColumns()
	if err != nil {
		return nil, err
	}
	ignore := map[string]struct{}{"ogc_fid": {}, "geometry": {}}
	for _, f := range protectedLinkFields {
		ignore[f] = struct{}{}
	}

	all := []string{}
	for _, c := range columns {
		if _, skip := ignore[c.Name]; skip {
			continue
		}
		if isNumericColumn(c.DeclType) {
			all = append(all, c.Name)
		}
	}
	all = append(all, "distance")

	present := make(map[string]struct{}, len(all))
	for _, f := range all {
		present[f] = struct{}{}
	}
	fields := []string{}
	for _, f := range all {
		switch {
		case strings.HasSuffix(f, "_ab"):
			stem := strings.TrimSuffix(f, "_ab")
			if _, ok := present[stem+"_ba"]; ok {
				fields = append(fields, stem)
			}
		case strings.HasSuffix(f, "_ba"):
			// counted through its _ab twin
		default:
			fields = append(fields, f)
		}
	}
	return fields, nil
}

func (n *Network) requireEmptyNetwork() error {
	count, err := n.store.CountLinks()
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("you can only import a network into a brand new model file")
	}
	return nil
}
