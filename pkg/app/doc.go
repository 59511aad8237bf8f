// Package app assembles the search engine, schema registry, suggestion cache and
// index manager from a loaded configuration. It is shared by the API server and
// the indexer CLI so both talk to the engine the same way.
//
//	cfg, _ := config.LoadConfig()
//	registry, _ := app.NewRegistry(cfg.Engine.SchemaDir)
//	eng, closeEngine, _ := app.NewEngine(cfg.Engine, registry, log)
//	defer closeEngine()
//	mgr := app.NewManager(cfg, eng, registry, metrics, nil, log)
package app
