package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/routekit/gmns2graph"
	"go.uber.org/zap"
)

var (
	linksFile  = flag.String("links", "links.csv", "GMNS links file (CSV)")
	nodesFile  = flag.String("nodes", "nodes.csv", "GMNS nodes file (CSV)")
	dbFile     = flag.String("db", "network.sqlite", "Network database file to create")
	paramsFile = flag.String("params", "", "Optional YAML parameters file (field mapping, mode tables)")
	timeField  = flag.String("time", "", "Optional field to derive travel time costs from after building graphs")
	geojsonOut = flag.String("geojson", "", "Optional file to export the canonical links as GeoJSON")
)

func main() {
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer logger.Sync()

	par := gmns2graph.DefaultParameters()
	if *paramsFile != "" {
		par, err = gmns2graph.LoadParameters(*paramsFile)
		if err != nil {
			logger.Error("bad parameters file", zap.Error(err))
			os.Exit(1)
		}
	}

	store, err := gmns2graph.OpenSQLiteStore(*dbFile)
	if err != nil {
		logger.Error("can not open store", zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	network := gmns2graph.NewNetwork(store, par, logger)
	if err := network.CreateFromGMNS(*linksFile, *nodesFile); err != nil {
		logger.Error("GMNS import failed", zap.Error(err))
		os.Exit(1)
	}

	if err := network.BuildGraphs(nil, nil); err != nil {
		logger.Error("graph synthesis failed", zap.Error(err))
		os.Exit(1)
	}
	if *timeField != "" {
		if err := network.SetTimeField(*timeField); err != nil {
			logger.Error("can not set time field", zap.Error(err))
			os.Exit(1)
		}
	}

	links, _ := network.CountLinks()
	nodes, _ := network.CountNodes()
	logger.Info("done",
		zap.Int("links", links),
		zap.Int("nodes", nodes),
		zap.Int("graphs", len(network.Graphs())),
	)

	if *geojsonOut != "" {
		if err := exportGeoJSON(store, *geojsonOut); err != nil {
			logger.Error("GeoJSON export failed", zap.Error(err))
			os.Exit(1)
		}
	}
}

func exportGeoJSON(store *gmns2graph.SQLiteStore, path string) error {
	links, err := store.LoadLinks()
	if err != nil {
		return err
	}
	b, err := gmns2graph.LinksToGeoJSON(links)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
