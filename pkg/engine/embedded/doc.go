// Package embedded implements engine.Engine with in-memory bleve indexes.
//
// It understands the same create-index bodies as OpenSearch: keyword fields
// are indexed verbatim, keyword sub-fields with a normalizer are indexed
// lower-cased under "<field>.<sub>", text fields go through the standard
// analyzer and disabled objects are only kept in the stored source.
//
// Failures mirror the remote engine: creating an existing index returns a
// 400 resource_already_exists_exception, operations on a missing index a
// 404 index_not_found_exception. Writing to a missing index creates it from
// the matching template, if any, as OpenSearch does with index templates.
//
// Documents are single-shard and visible to searches as soon as the write
// returns, so the refresh flag has no effect.
package embedded
