// Package cli implements the yangsearch-indexer command line tool.
//
// The indexer talks to the engine selected by the YANGSEARCH_* environment
// (see package config). Connection settings can be overridden per invocation:
//
//	yangsearch-indexer create-index autocomplete drafts
//	yangsearch-indexer load autocomplete modules.json --concurrency 8
//	yangsearch-indexer autocomplete autocomplete name ietf-int
//	yangsearch-indexer delete autocomplete ietf-interfaces 2018-02-20 ietf
//	yangsearch-indexer --engine opensearch --addresses https://os:9200 match-all autocomplete
//
// Results are written to stdout as JSON.
package cli
