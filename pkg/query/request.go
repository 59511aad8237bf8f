package query

import "encoding/json"

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// FieldDoc sorts by index order, which is insertion order for a single shard.
const FieldDoc = "_doc"

// SortField is one sort key of a request.
type SortField struct {
	Field string
	Order Order
}

// TermsAggregation collects the distinct values of a keyword field.
type TermsAggregation struct {
	Name  string
	Field string
	Size  int
	// Order sorts buckets by key instead of by document count.
	Order Order
}

// Request is a complete search request.
type Request struct {
	Query          Query
	Size           int
	Sort           []SortField
	Aggregation    *TermsAggregation
	TrackTotalHits bool
}

// Source renders the request body in the OpenSearch search DSL.
func (r *Request) Source() map[string]any {
	q := r.Query
	if q == nil {
		q = MatchAll{}
	}
	body := map[string]any{
		"query": q.Source(),
		"size":  r.Size,
	}
	if len(r.Sort) > 0 {
		sorts := make([]any, len(r.Sort))
		for i, s := range r.Sort {
			order := s.Order
			if order == "" {
				order = Asc
			}
			sorts[i] = map[string]any{s.Field: map[string]any{"order": string(order)}}
		}
		body["sort"] = sorts
	}
	if a := r.Aggregation; a != nil {
		terms := map[string]any{"field": a.Field, "size": a.Size}
		if a.Order != "" {
			terms["order"] = map[string]any{"_key": string(a.Order)}
		}
		body["aggs"] = map[string]any{a.Name: map[string]any{"terms": terms}}
	}
	if r.TrackTotalHits {
		body["track_total_hits"] = true
	}
	return body
}

// Body returns the JSON encoded request body.
func (r *Request) Body() ([]byte, error) {
	return json.Marshal(r.Source())
}
