package query

import (
	"strings"
	"unicode/utf8"

	"github.com/platinummonkey/yangsearch/pkg/modules"
)

const (
	// DefaultMinTermLength is the shortest autocomplete term that is searched.
	DefaultMinTermLength = 3
	// DefaultSuggestionLimit caps the number of autocomplete suggestions.
	DefaultSuggestionLimit = 10
	// DefaultMaxPageSize matches the engine's default index.max_result_window.
	DefaultMaxPageSize = 10000

	// SuggestionsAggregation names the terms aggregation of autocomplete requests.
	SuggestionsAggregation = "suggestions"
	// LowercaseSubfield is the normalized keyword sub-field used for case-insensitive matches.
	LowercaseSubfield = "lowercase"
)

// Policy holds the tunables of the query builder.
type Policy struct {
	MinTermLength   int
	SuggestionLimit int
	MaxPageSize     int
}

// DefaultPolicy returns the default policy.
func DefaultPolicy() Policy {
	return Policy{
		MinTermLength:   DefaultMinTermLength,
		SuggestionLimit: DefaultSuggestionLimit,
		MaxPageSize:     DefaultMaxPageSize,
	}
}

// Builder creates search requests. It is stateless and safe for concurrent use.
type Builder struct {
	policy Policy
}

// NewBuilder creates a builder. Zero policy values fall back to the defaults.
func NewBuilder(p Policy) *Builder {
	d := DefaultPolicy()
	if p.MinTermLength <= 0 {
		p.MinTermLength = d.MinTermLength
	}
	if p.SuggestionLimit <= 0 {
		p.SuggestionLimit = d.SuggestionLimit
	}
	if p.MaxPageSize <= 0 {
		p.MaxPageSize = d.MaxPageSize
	}
	return &Builder{policy: p}
}

// Policy returns the effective policy.
func (b *Builder) Policy() Policy {
	return b.policy
}

// ExactIdentity matches the document with the given name, revision and organization.
func (b *Builder) ExactIdentity(id modules.Identity) Query {
	return Bool{Filter: []Query{
		Term{Field: modules.FieldName.String(), Value: id.Name},
		Term{Field: modules.FieldRevision.String(), Value: id.Revision},
		Term{Field: modules.FieldOrganization.String(), Value: id.Organization},
	}}
}

// Exists counts the documents matching the identity without fetching them.
func (b *Builder) Exists(id modules.Identity) *Request {
	return &Request{Query: b.ExactIdentity(id), Size: 0, TrackTotalHits: true}
}

// NameRevision matches on name and revision, ignoring organization.
func (b *Builder) NameRevision(name, revision string) *Request {
	return &Request{
		Query: Bool{Filter: []Query{
			Term{Field: modules.FieldName.String(), Value: name},
			Term{Field: modules.FieldRevision.String(), Value: revision},
		}},
		Size: b.policy.MaxPageSize,
	}
}

// Autocomplete suggests distinct lower-cased values of field containing term.
// A term shorter than the policy minimum produces a request that matches nothing.
func (b *Builder) Autocomplete(field modules.Field, term string) *Request {
	term = strings.ToLower(strings.TrimSpace(term))
	sub := field.String() + "." + LowercaseSubfield

	var q Query = Contains{Field: sub, Value: term}
	if utf8.RuneCountInString(term) < b.policy.MinTermLength {
		q = MatchNone{}
	}

	return &Request{
		Query: q,
		Size:  0,
		Aggregation: &TermsAggregation{
			Name:  SuggestionsAggregation,
			Field: sub,
			Size:  b.policy.SuggestionLimit,
			Order: Asc,
		},
	}
}

// AcceptsTerm reports whether term is long enough to be searched.
func (b *Builder) AcceptsTerm(term string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(term)) >= b.policy.MinTermLength
}

// SortedRevisions returns every revision document of a module in insertion
// order. Callers order the hits with SortByRevision.
func (b *Builder) SortedRevisions(name string) *Request {
	return &Request{
		Query: Bool{Filter: []Query{Term{Field: modules.FieldName.String(), Value: name}}},
		Size:  b.policy.MaxPageSize,
		Sort:  []SortField{{Field: FieldDoc, Order: Asc}},
	}
}

// MatchAll returns every document up to the policy page size.
func (b *Builder) MatchAll() *Request {
	return &Request{Query: MatchAll{}, Size: b.policy.MaxPageSize, TrackTotalHits: true}
}

// Count counts every document of an index.
func (b *Builder) Count() *Request {
	return &Request{Query: MatchAll{}, Size: 0, TrackTotalHits: true}
}

// Node looks up a schema node by module name, revision and path.
func (b *Builder) Node(name, revision, path string) *Request {
	return &Request{
		Query: Bool{Filter: []Query{
			Term{Field: modules.FieldModule.String(), Value: name},
			Term{Field: modules.FieldRevision.String(), Value: revision},
			Term{Field: modules.FieldPath.String(), Value: path},
		}},
		Size: b.policy.MaxPageSize,
	}
}
