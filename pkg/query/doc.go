// Package query builds search requests for the YANG indices.
//
// Queries are small value types (Term, Contains, Bool, MatchAll,
// MatchNone) that render themselves to the OpenSearch query DSL through
// Source. Engines that do not speak the DSL can switch on the concrete types
// instead.
//
// Builder applies the search policy:
//
//   - identity lookups are exact term filters on name, revision and organization
//   - autocomplete matches a case-insensitive substring anywhere in the value
//     and ignores terms shorter than Policy.MinTermLength
//   - revision lists are fetched in insertion order and sorted client side
//     with CompareRevisions, newest first
//   - match-all requests are capped at Policy.MaxPageSize hits, anything
//     beyond that is silently dropped
//
// Building a request performs no I/O.
package query
