package embedded

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/yangsearch/pkg/engine"
	"github.com/platinummonkey/yangsearch/pkg/indices"
	"github.com/platinummonkey/yangsearch/pkg/query"
)

// TemplateFunc returns the create-index body applied when a write targets a
// missing index.
type TemplateFunc func(index string) ([]byte, bool)

// Option configures an Engine.
type Option func(*Engine)

// WithTemplates sets the template lookup used for implicit index creation.
func WithTemplates(fn TemplateFunc) Option {
	return func(e *Engine) { e.templates = fn }
}

// Engine keeps every index in memory.
type Engine struct {
	mu        sync.RWMutex
	indexes   map[string]*index
	templates TemplateFunc
	log       logrus.FieldLogger
}

var _ engine.Engine = (*Engine)(nil)

type document struct {
	seq     uint64
	version int64
	source  json.RawMessage
	fields  map[string]any
}

type index struct {
	mu     sync.RWMutex
	name   string
	uuid   string
	bleve  bleve.Index
	fields map[string]indices.FieldDef
	docs   map[string]*document
	seq    uint64
}

// New creates an empty engine.
func New(log logrus.FieldLogger, opts ...Option) *Engine {
	if log == nil {
		log = logrus.New()
	}
	e := &Engine{
		indexes: make(map[string]*index),
		log:     log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func notFound(op, name string) error {
	return &engine.ResponseError{
		Op:     op,
		Status: http.StatusNotFound,
		Type:   engine.IndexNotFound,
		Reason: fmt.Sprintf("no such index [%s]", name),
		Index:  name,
	}
}

func checkContext(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return &engine.ConnectivityError{Op: op, Err: err}
	}
	return nil
}

func (e *Engine) lookup(name string) (*index, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	idx, ok := e.indexes[name]
	return idx, ok
}

func newIndex(name string, body []byte) (*index, error) {
	var fields map[string]indices.FieldDef
	if len(body) > 0 {
		if !json.Valid(body) {
			return nil, fmt.Errorf("request body is not valid JSON")
		}
		// a body without mappings gets dynamic mapping
		fields, _ = indices.ParseMapping(body)
	}

	im, err := buildMapping(fields)
	if err != nil {
		return nil, err
	}
	bi, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, err
	}

	return &index{
		name:   name,
		uuid:   uuid.NewString(),
		bleve:  bi,
		fields: fields,
		docs:   make(map[string]*document),
	}, nil
}

// CreateIndex creates an index from an OpenSearch create-index body.
func (e *Engine) CreateIndex(ctx context.Context, name string, body []byte) (*engine.CreateIndexResult, error) {
	const op = "create index"
	if err := checkContext(ctx, op); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.indexes[name]; ok {
		return nil, &engine.ResponseError{
			Op:     op,
			Status: http.StatusBadRequest,
			Type:   engine.ResourceAlreadyExists,
			Reason: fmt.Sprintf("index [%s/%s] already exists", name, existing.uuid),
			Index:  name,
		}
	}

	idx, err := newIndex(name, body)
	if err != nil {
		return nil, &engine.ResponseError{
			Op:     op,
			Status: http.StatusBadRequest,
			Type:   "mapper_parsing_exception",
			Reason: err.Error(),
			Index:  name,
		}
	}
	e.indexes[name] = idx

	e.log.WithFields(logrus.Fields{"index": name, "fields": len(idx.fields)}).Debug("created index")
	return &engine.CreateIndexResult{Acknowledged: true, ShardsAcknowledged: true, Index: name}, nil
}

// DeleteIndex removes an index.
func (e *Engine) DeleteIndex(ctx context.Context, name string, ignore ...int) (bool, error) {
	const op = "delete index"
	if err := checkContext(ctx, op); err != nil {
		return false, err
	}

	e.mu.Lock()
	idx, ok := e.indexes[name]
	delete(e.indexes, name)
	e.mu.Unlock()

	if !ok {
		err := notFound(op, name)
		if engine.HasStatus(err, ignore...) {
			return false, nil
		}
		return false, err
	}

	if err := idx.bleve.Close(); err != nil {
		e.log.WithFields(logrus.Fields{"index": name, "error": err}).Warn("failed to close index")
	}
	return true, nil
}

// IndexExists reports whether an index exists.
func (e *Engine) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := checkContext(ctx, "index exists"); err != nil {
		return false, err
	}
	_, ok := e.lookup(name)
	return ok, nil
}

// ensure returns the index, creating it from a template when missing.
func (e *Engine) ensure(name string) (*index, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if idx, ok := e.indexes[name]; ok {
		return idx, nil
	}

	var body []byte
	if e.templates != nil {
		if tmpl, ok := e.templates(name); ok {
			body = tmpl
		}
	}
	idx, err := newIndex(name, body)
	if err != nil {
		return nil, err
	}
	e.indexes[name] = idx
	e.log.WithField("index", name).Debug("created index on first write")
	return idx, nil
}

// IndexDocument stores doc. Documents without an id get a sequential one.
func (e *Engine) IndexDocument(ctx context.Context, name string, id string, doc any, _ bool) (*engine.IndexResult, error) {
	const op = "index document"
	if err := checkContext(ctx, op); err != nil {
		return nil, err
	}

	source, err := encode(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode document: %w", op, err)
	}
	var fields map[string]any
	if err := json.Unmarshal(source, &fields); err != nil {
		return nil, &engine.ResponseError{
			Op:     op,
			Status: http.StatusBadRequest,
			Type:   "mapper_parsing_exception",
			Reason: err.Error(),
			Index:  name,
		}
	}

	idx, err := e.ensure(name)
	if err != nil {
		return nil, &engine.ResponseError{Op: op, Status: http.StatusBadRequest, Type: "mapper_parsing_exception", Reason: err.Error(), Index: name}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.seq++
	if id == "" {
		id = fmt.Sprintf("%020d", idx.seq)
	}

	result := "created"
	var version int64 = 1
	if prev, ok := idx.docs[id]; ok {
		result = "updated"
		version = prev.version + 1
	}

	if err := idx.bleve.Index(id, fields); err != nil {
		return nil, &engine.ResponseError{Op: op, Status: http.StatusInternalServerError, Type: "engine_exception", Reason: err.Error(), Index: name}
	}
	idx.docs[id] = &document{seq: idx.seq, version: version, source: source, fields: fields}

	return &engine.IndexResult{
		Index:   name,
		ID:      id,
		Version: version,
		Result:  result,
		Shards:  engine.ShardInfo{Total: 1, Successful: 1, Failed: 0},
	}, nil
}

// DeleteByQuery removes every document matching q.
func (e *Engine) DeleteByQuery(ctx context.Context, name string, q query.Query, _ bool) (*engine.DeleteByQueryResult, error) {
	const op = "delete by query"
	if err := checkContext(ctx, op); err != nil {
		return nil, err
	}

	idx, ok := e.lookup(name)
	if !ok {
		return nil, notFound(op, name)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	ids, _, err := idx.match(ctx, q)
	if err != nil {
		return nil, wrapSearchError(ctx, op, name, err)
	}

	batch := idx.bleve.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := idx.bleve.Batch(batch); err != nil {
		return nil, &engine.ResponseError{Op: op, Status: http.StatusInternalServerError, Type: "engine_exception", Reason: err.Error(), Index: name}
	}
	for _, id := range ids {
		delete(idx.docs, id)
	}

	return &engine.DeleteByQueryResult{Deleted: int64(len(ids)), Total: int64(len(ids))}, nil
}

// Search runs req against an index.
func (e *Engine) Search(ctx context.Context, name string, req *query.Request) (*engine.SearchResult, error) {
	const op = "search"
	if err := checkContext(ctx, op); err != nil {
		return nil, err
	}

	idx, ok := e.lookup(name)
	if !ok {
		return nil, notFound(op, name)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ids, scores, err := idx.match(ctx, req.Query)
	if err != nil {
		return nil, wrapSearchError(ctx, op, name, err)
	}

	idx.sortIDs(ids, scores, req.Sort)

	res := &engine.SearchResult{Total: int64(len(ids)), Hits: []engine.Hit{}}
	if req.Aggregation != nil {
		res.Buckets = idx.aggregate(ids, req.Aggregation)
	}

	size := req.Size
	if size > len(ids) {
		size = len(ids)
	}
	for _, id := range ids[:size] {
		res.Hits = append(res.Hits, engine.Hit{
			Index:  name,
			ID:     id,
			Score:  scores[id],
			Source: idx.docs[id].source,
		})
	}
	return res, nil
}

// Ping always succeeds.
func (e *Engine) Ping(ctx context.Context) error {
	return checkContext(ctx, "ping")
}

// Close releases every index.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for name, idx := range e.indexes {
		if err := idx.bleve.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(e.indexes, name)
	}
	return firstErr
}

func wrapSearchError(ctx context.Context, op, name string, err error) error {
	if ctx.Err() != nil {
		return &engine.ConnectivityError{Op: op, Err: err}
	}
	return &engine.ResponseError{Op: op, Status: http.StatusBadRequest, Type: "search_phase_execution_exception", Reason: err.Error(), Index: name}
}

// match returns the ids of every document matching q with their scores.
// The caller holds idx.mu.
func (idx *index) match(ctx context.Context, q query.Query) ([]string, map[string]float64, error) {
	bq, err := translate(q)
	if err != nil {
		return nil, nil, err
	}

	total := len(idx.docs)
	scores := make(map[string]float64)
	if total == 0 {
		return []string{}, scores, nil
	}

	sr := bleve.NewSearchRequestOptions(bq, total, 0, false)
	res, err := idx.bleve.SearchInContext(ctx, sr)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		if _, ok := idx.docs[h.ID]; !ok {
			continue
		}
		ids = append(ids, h.ID)
		scores[h.ID] = h.Score
	}
	return ids, scores, nil
}

// sortIDs orders ids by the requested keys. Without keys the engine's
// relevance order is kept, ties broken by insertion order.
func (idx *index) sortIDs(ids []string, scores map[string]float64, keys []query.SortField) {
	if len(keys) == 0 {
		sort.SliceStable(ids, func(i, j int) bool {
			si, sj := scores[ids[i]], scores[ids[j]]
			if si != sj {
				return si > sj
			}
			return idx.docs[ids[i]].seq < idx.docs[ids[j]].seq
		})
		return
	}

	sort.SliceStable(ids, func(i, j int) bool {
		a, b := idx.docs[ids[i]], idx.docs[ids[j]]
		for _, k := range keys {
			var c int
			switch k.Field {
			case query.FieldDoc:
				c = cmp.Compare(a.seq, b.seq)
			case "_score":
				c = cmp.Compare(scores[ids[i]], scores[ids[j]])
			default:
				c = strings.Compare(stringValue(a.fields[k.Field]), stringValue(b.fields[k.Field]))
			}
			if k.Order == query.Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// aggregate computes a terms aggregation over the matched documents.
func (idx *index) aggregate(ids []string, agg *query.TermsAggregation) []engine.Bucket {
	base, _, _ := strings.Cut(agg.Field, ".")
	def, _ := lookupDef(idx.fields, agg.Field)

	counts := make(map[string]int64)
	for _, id := range ids {
		for _, v := range stringValues(idx.docs[id].fields[base]) {
			if def.Normalized() {
				v = strings.ToLower(v)
			}
			counts[v]++
		}
	}

	buckets := make([]engine.Bucket, 0, len(counts))
	for k, n := range counts {
		buckets = append(buckets, engine.Bucket{Key: k, DocCount: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		switch agg.Order {
		case query.Asc:
			return buckets[i].Key < buckets[j].Key
		case query.Desc:
			return buckets[i].Key > buckets[j].Key
		}
		if buckets[i].DocCount != buckets[j].DocCount {
			return buckets[i].DocCount > buckets[j].DocCount
		}
		return buckets[i].Key < buckets[j].Key
	})

	if agg.Size > 0 && len(buckets) > agg.Size {
		buckets = buckets[:agg.Size]
	}
	return buckets
}

func lookupDef(fields map[string]indices.FieldDef, path string) (indices.FieldDef, bool) {
	s := indices.Schema{Fields: fields}
	return s.Lookup(path)
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

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func stringValues(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if e != nil {
				out = append(out, stringValue(e))
			}
		}
		return out
	default:
		return []string{stringValue(t)}
	}
}
