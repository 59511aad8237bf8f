package query

import "strings"

// Query is a node of a search query tree.
type Query interface {
	// Source renders the query in the OpenSearch query DSL.
	Source() map[string]any
}

// Term matches documents whose field equals Value exactly.
type Term struct {
	Field string
	Value string
}

func (q Term) Source() map[string]any {
	return map[string]any{"term": map[string]any{q.Field: map[string]any{"value": q.Value}}}
}

// Contains matches documents whose field contains Value anywhere.
type Contains struct {
	Field string
	Value string
}

func (q Contains) Source() map[string]any {
	return map[string]any{"wildcard": map[string]any{q.Field: map[string]any{"value": "*" + EscapeWildcard(q.Value) + "*"}}}
}

// Bool requires every Filter clause to match. Filter clauses do not score.
type Bool struct {
	Filter []Query
}

func (q Bool) Source() map[string]any {
	b := map[string]any{}
	if len(q.Filter) > 0 {
		b["filter"] = sources(q.Filter)
	}
	return map[string]any{"bool": b}
}

// MatchAll matches every document.
type MatchAll struct{}

func (MatchAll) Source() map[string]any {
	return map[string]any{"match_all": map[string]any{}}
}

// MatchNone matches no document.
type MatchNone struct{}

func (MatchNone) Source() map[string]any {
	return map[string]any{"match_none": map[string]any{}}
}

func sources(qs []Query) []any {
	out := make([]any, len(qs))
	for i, q := range qs {
		out[i] = q.Source()
	}
	return out
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// EscapeWildcard escapes the wildcard metacharacters of s.
func EscapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}
