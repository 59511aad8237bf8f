// Package indices holds the closed set of index kinds and their schemas.
//
// Each kind has exactly one schema resource, schemas/<kind>.yaml, holding the
// OpenSearch create-index body (settings and mappings) in YAML. The resources
// are embedded in the binary; a directory with the same layout can be used
// instead to override them.
//
// Schemas are loaded on first use and cached for the lifetime of the
// Registry. A loaded Schema is never modified.
//
// # Usage Example
//
//	reg := indices.NewRegistry(nil)
//	schema, err := reg.Get(indices.KindAutocomplete)
//	if err != nil {
//		return err // *indices.ConfigurationError
//	}
//	_, err = client.CreateIndex(ctx, indices.KindAutocomplete.IndexName(), schema.Body)
//
// Adding a kind requires a new Kind constant and a schema file.
package indices
