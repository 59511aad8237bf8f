package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	opensearch "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/yangsearch/pkg/engine"
	"github.com/platinummonkey/yangsearch/pkg/query"
)

// Config holds connection settings for an OpenSearch cluster.
type Config struct {
	Addresses          []string
	Username           string
	Password           string
	InsecureSkipVerify bool
	// Timeout bounds every request. Zero disables the bound.
	Timeout time.Duration
}

// Client is an engine.Engine backed by OpenSearch.
type Client struct {
	transport opensearchapi.Transport
	timeout   time.Duration
	log       logrus.FieldLogger
}

var _ engine.Engine = (*Client)(nil)

// New connects to the cluster described by cfg. No request is made until the first call.
func New(cfg Config, log logrus.FieldLogger) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New("opensearch: at least one address is required")
	}

	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in for local clusters
		},
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:    cfg.Addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		Transport:    otelhttp.NewTransport(base),
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	c := NewWithTransport(client, log)
	c.timeout = cfg.Timeout
	return c, nil
}

// NewWithTransport wraps an existing transport, such as an *opensearch.Client.
func NewWithTransport(t opensearchapi.Transport, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.New()
	}
	return &Client{transport: t, log: log}
}

type doer interface {
	Do(ctx context.Context, t opensearchapi.Transport) (*opensearchapi.Response, error)
}

// perform runs req and returns the raw response body of a successful call.
func (c *Client) perform(ctx context.Context, op string, req doer) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := req.Do(ctx, c.transport)
	if err != nil {
		c.log.WithFields(logrus.Fields{"op": op, "error": err}).Debug("opensearch request failed")
		return nil, &engine.ConnectivityError{Op: op, Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &engine.ConnectivityError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	c.log.WithFields(logrus.Fields{
		"op":          op,
		"status":      res.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("opensearch request")

	if res.IsError() {
		return body, decodeError(op, res.StatusCode, body)
	}
	return body, nil
}

type errorBody struct {
	Error  json.RawMessage `json:"error"`
	Status int             `json:"status"`
}

// decodeError turns an error response into a *engine.ResponseError.
func decodeError(op string, status int, body []byte) error {
	re := &engine.ResponseError{Op: op, Status: status}
	if len(bytes.TrimSpace(body)) == 0 {
		re.Type = http.StatusText(status)
		return re
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return &engine.ProtocolError{Op: op, Err: fmt.Errorf("status %d: %w", status, err)}
	}

	var cause engine.ErrorCause
	if err := json.Unmarshal(eb.Error, &cause); err == nil {
		re.Type, re.Reason, re.Index = cause.Type, cause.Reason, cause.Index
	} else {
		var msg string
		if err := json.Unmarshal(eb.Error, &msg); err != nil {
			return &engine.ProtocolError{Op: op, Err: fmt.Errorf("status %d: undecodable error %s", status, string(eb.Error))}
		}
		re.Reason = msg
	}
	if re.Type == "" {
		re.Type = http.StatusText(status)
	}
	return re
}

func decode(op string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &engine.ProtocolError{Op: op, Err: err}
	}
	return nil
}

func encode(doc any) ([]byte, error) {
	switch d := doc.(type) {
	case json.RawMessage:
		return d, nil
	case []byte:
		return d, nil
	default:
		return json.Marshal(d)
	}
}

// CreateIndex creates index with the given settings and mappings.
func (c *Client) CreateIndex(ctx context.Context, index string, body []byte) (*engine.CreateIndexResult, error) {
	const op = "create index"
	raw, err := c.perform(ctx, op, opensearchapi.IndicesCreateRequest{
		Index: index,
		Body:  bytes.NewReader(body),
	})
	if err != nil {
		return nil, err
	}
	var res engine.CreateIndexResult
	if err := decode(op, raw, &res); err != nil {
		return nil, err
	}
	if !res.Acknowledged && res.Index == "" {
		return nil, &engine.ProtocolError{Op: op, Err: errors.New("response has neither acknowledged nor index")}
	}
	return &res, nil
}

// DeleteIndex deletes index, treating the listed statuses as a no-op.
func (c *Client) DeleteIndex(ctx context.Context, index string, ignore ...int) (bool, error) {
	const op = "delete index"
	raw, err := c.perform(ctx, op, opensearchapi.IndicesDeleteRequest{Index: []string{index}})
	if err != nil {
		if engine.HasStatus(err, ignore...) {
			return false, nil
		}
		return false, err
	}
	var res struct {
		Acknowledged bool `json:"acknowledged"`
	}
	if err := decode(op, raw, &res); err != nil {
		return false, err
	}
	return res.Acknowledged, nil
}

// IndexExists reports whether index exists.
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	_, err := c.perform(ctx, "index exists", opensearchapi.IndicesExistsRequest{Index: []string{index}})
	if err != nil {
		if engine.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IndexDocument stores doc in index.
func (c *Client) IndexDocument(ctx context.Context, index string, id string, doc any, refresh bool) (*engine.IndexResult, error) {
	const op = "index document"
	data, err := encode(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode document: %w", op, err)
	}

	req := opensearchapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(data),
	}
	if refresh {
		req.Refresh = "true"
	}

	raw, err := c.perform(ctx, op, req)
	if err != nil {
		return nil, err
	}
	var res engine.IndexResult
	if err := decode(op, raw, &res); err != nil {
		return nil, err
	}
	if res.Result == "" {
		return nil, &engine.ProtocolError{Op: op, Err: errors.New("response has no result")}
	}
	return &res, nil
}

// DeleteByQuery removes every document of index matching q.
func (c *Client) DeleteByQuery(ctx context.Context, index string, q query.Query, refresh bool) (*engine.DeleteByQueryResult, error) {
	const op = "delete by query"
	body, err := json.Marshal(map[string]any{"query": q.Source()})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode query: %w", op, err)
	}

	raw, err := c.perform(ctx, op, opensearchapi.DeleteByQueryRequest{
		Index:   []string{index},
		Body:    bytes.NewReader(body),
		Refresh: &refresh,
	})
	if err != nil {
		return nil, err
	}
	var res struct {
		engine.DeleteByQueryResult
		Deleted *int64 `json:"deleted"`
	}
	if err := decode(op, raw, &res); err != nil {
		return nil, err
	}
	if res.Deleted == nil {
		return nil, &engine.ProtocolError{Op: op, Err: errors.New("response has no deleted count")}
	}
	out := res.DeleteByQueryResult
	out.Deleted = *res.Deleted
	return &out, nil
}

type searchResponse struct {
	Hits *struct {
		Total *struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits *[]struct {
			Index  string          `json:"_index"`
			ID     string          `json:"_id"`
			Score  *float64        `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]struct {
		Buckets []engine.Bucket `json:"buckets"`
	} `json:"aggregations"`
}

// Search runs req against index.
func (c *Client) Search(ctx context.Context, index string, req *query.Request) (*engine.SearchResult, error) {
	const op = "search"
	body, err := req.Body()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
	}

	raw, err := c.perform(ctx, op, opensearchapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
	})
	if err != nil {
		return nil, err
	}

	var sr searchResponse
	if err := decode(op, raw, &sr); err != nil {
		return nil, err
	}

	if sr.Hits == nil || sr.Hits.Hits == nil {
		return nil, &engine.ProtocolError{Op: op, Err: errors.New("response has no hits")}
	}
	hits := *sr.Hits.Hits

	res := &engine.SearchResult{Hits: make([]engine.Hit, 0, len(hits))}
	if sr.Hits.Total != nil {
		res.Total = sr.Hits.Total.Value
	}
	for _, h := range hits {
		hit := engine.Hit{Index: h.Index, ID: h.ID, Source: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		res.Hits = append(res.Hits, hit)
	}
	if req.Aggregation != nil {
		agg, ok := sr.Aggregations[req.Aggregation.Name]
		if !ok {
			return nil, &engine.ProtocolError{Op: op, Err: fmt.Errorf("response has no %q aggregation", req.Aggregation.Name)}
		}
		res.Buckets = agg.Buckets
	}
	return res, nil
}

// Ping requests the cluster info.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.perform(ctx, "ping", opensearchapi.InfoRequest{})
	return err
}
