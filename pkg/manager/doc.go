// Package manager implements the operations on the YANG search indices.
//
// A Manager sits between application code and an engine.Engine. It loads
// index bodies from the schema registry, shapes requests with the query
// builder and turns engine responses into domain values:
//
//	m := manager.New(eng, indices.NewRegistry(nil), query.NewBuilder(query.DefaultPolicy()), log)
//	if _, err := m.CreateIndex(ctx, indices.KindAutocomplete); err != nil {
//		return err
//	}
//	res, err := m.IndexModule(ctx, indices.KindAutocomplete, modules.Module{
//		Name: "ietf-rip", Revision: "2020-02-20", Organization: "ietf",
//	})
//
// Documents are always addressed by their name, revision and organization,
// never by the engine document id. A missing index or document is reported
// as an empty value rather than an error. Creating an index that already
// exists is reported in the returned CreateIndexResult.
//
// The Collector periodically publishes per-index document counts as
// Prometheus gauges.
package manager
