package engine

import (
	"context"
	"encoding/json"

	"github.com/platinummonkey/yangsearch/pkg/query"
)

// Engine is a document search engine.
type Engine interface {
	// CreateIndex creates an index from a create-index body.
	CreateIndex(ctx context.Context, index string, body []byte) (*CreateIndexResult, error)
	// DeleteIndex removes an index. Response errors whose status is listed in
	// ignore are swallowed and reported as not acknowledged.
	DeleteIndex(ctx context.Context, index string, ignore ...int) (bool, error)
	// IndexExists reports whether an index exists.
	IndexExists(ctx context.Context, index string) (bool, error)
	// IndexDocument stores a document. An empty id lets the engine assign one.
	IndexDocument(ctx context.Context, index string, id string, doc any, refresh bool) (*IndexResult, error)
	// DeleteByQuery removes every document matching q.
	DeleteByQuery(ctx context.Context, index string, q query.Query, refresh bool) (*DeleteByQueryResult, error)
	// Search runs a search request.
	Search(ctx context.Context, index string, req *query.Request) (*SearchResult, error)
	// Ping checks that the engine is reachable.
	Ping(ctx context.Context) error
}

// ErrorCause is the error object of an engine response.
type ErrorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
	Index  string `json:"index,omitempty"`
}

// CreateIndexResult is the outcome of a create-index call.
// A request for an index that already exists yields Status 400 and an Error
// of type ResourceAlreadyExists.
type CreateIndexResult struct {
	Acknowledged       bool        `json:"acknowledged,omitempty"`
	ShardsAcknowledged bool        `json:"shards_acknowledged,omitempty"`
	Index              string      `json:"index,omitempty"`
	Status             int         `json:"status,omitempty"`
	Error              *ErrorCause `json:"error,omitempty"`
}

// ShardInfo reports how many shard copies took part in a write.
type ShardInfo struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// IndexResult is the outcome of indexing one document.
type IndexResult struct {
	Index   string    `json:"_index"`
	ID      string    `json:"_id"`
	Version int64     `json:"_version,omitempty"`
	Result  string    `json:"result"`
	Shards  ShardInfo `json:"_shards"`
}

// DeleteByQueryResult is the outcome of a delete-by-query call.
type DeleteByQueryResult struct {
	Deleted  int64             `json:"deleted"`
	Total    int64             `json:"total"`
	Failures []json.RawMessage `json:"failures,omitempty"`
}

// Hit is one matching document.
type Hit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Score  float64         `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

// Bucket is one value of a terms aggregation.
type Bucket struct {
	Key      string `json:"key"`
	DocCount int64  `json:"doc_count"`
}

// SearchResult is the outcome of a search.
type SearchResult struct {
	Total   int64    `json:"total"`
	Hits    []Hit    `json:"hits"`
	Buckets []Bucket `json:"buckets,omitempty"`
}
