package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/yangsearch/pkg/engine"
	"github.com/platinummonkey/yangsearch/pkg/indices"
	"github.com/platinummonkey/yangsearch/pkg/modules"
	"github.com/platinummonkey/yangsearch/pkg/observability"
	"github.com/platinummonkey/yangsearch/pkg/query"
)

var tracer = otel.Tracer("yangsearch/manager")

// SchemaSource provides the create-index body of a kind.
type SchemaSource interface {
	Get(kind indices.Kind) (*indices.Schema, error)
}

// DeleteReport is the outcome of removing a module.
type DeleteReport struct {
	Deleted  int64             `json:"deleted"`
	Total    int64             `json:"total"`
	Failures []json.RawMessage `json:"failures,omitempty"`
}

// Manager runs index operations against a search engine.
type Manager struct {
	engine      engine.Engine
	schemas     SchemaSource
	builder     *query.Builder
	log         logrus.FieldLogger
	metrics     *observability.Metrics
	otelMetrics *observability.OTelMetrics
	refresh     bool
}

// New creates a manager. Writes are refreshed immediately unless SetRefresh(false) is called.
func New(eng engine.Engine, schemas SchemaSource, builder *query.Builder, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.New()
	}
	if builder == nil {
		builder = query.NewBuilder(query.DefaultPolicy())
	}
	if schemas == nil {
		schemas = indices.NewRegistry(nil)
	}
	return &Manager{
		engine:  eng,
		schemas: schemas,
		builder: builder,
		log:     log,
		refresh: true,
	}
}

// SetMetrics attaches Prometheus and OpenTelemetry instruments. Either may be nil.
func (m *Manager) SetMetrics(metrics *observability.Metrics, otelMetrics *observability.OTelMetrics) {
	m.metrics = metrics
	m.otelMetrics = otelMetrics
}

// SetRefresh controls whether writes wait for the index to become searchable.
func (m *Manager) SetRefresh(refresh bool) {
	m.refresh = refresh
}

// Builder returns the query builder in use.
func (m *Manager) Builder() *query.Builder {
	return m.builder
}

// Ping checks the engine connection.
func (m *Manager) Ping(ctx context.Context) error {
	return m.engine.Ping(ctx)
}

func (m *Manager) start(ctx context.Context, name string, kind indices.Kind, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	attrs = append(attrs, attribute.String("index", kind.IndexName()))
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span, time.Now()
}

// finish ends the span and records the operation outcome.
func (m *Manager) finish(ctx context.Context, span trace.Span, op string, kind indices.Kind, start time.Time, err error) {
	defer span.End()

	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
		m.log.WithFields(logrus.Fields{
			"op":    op,
			"index": kind.IndexName(),
			"error": err,
		}).Warn("index operation failed")
		if m.metrics != nil {
			m.metrics.EngineErrorsTotal.WithLabelValues(op, ErrorType(err)).Inc()
		}
	}
	d := time.Since(start)
	m.metrics.ObserveEngineOperation(op, kind.IndexName(), status, d)
	m.otelMetrics.RecordEngineOperation(ctx, op, kind.IndexName(), status, d)
}

// CreateIndex creates the index of kind from its schema. An index that
// already exists is not an error: the result carries status 400 and a
// resource_already_exists_exception.
func (m *Manager) CreateIndex(ctx context.Context, kind indices.Kind) (res *engine.CreateIndexResult, err error) {
	ctx, span, start := m.start(ctx, "CreateIndex", kind)
	defer func() { m.finish(ctx, span, "create_index", kind, start, err) }()

	schema, err := m.schemas.Get(kind)
	if err != nil {
		return nil, err
	}

	name := kind.IndexName()
	res, err = m.engine.CreateIndex(ctx, name, schema.Body)
	if err != nil {
		var re *engine.ResponseError
		if engine.IsAlreadyExists(err) && errors.As(err, &re) {
			cause := re.Cause()
			if cause.Index == "" {
				cause.Index = name
			}
			status := re.Status
			if status == 0 {
				status = http.StatusBadRequest
			}
			m.log.WithField("index", name).Debug("index already exists")
			return &engine.CreateIndexResult{Index: name, Status: status, Error: cause}, nil
		}
		return nil, fmt.Errorf("failed to create index %s: %w", name, err)
	}

	if res.Index == "" {
		res.Index = name
	}
	m.log.WithField("index", name).Info("index created")
	return res, nil
}

// DeleteIndex removes the index of kind. It reports false when there was nothing to remove.
func (m *Manager) DeleteIndex(ctx context.Context, kind indices.Kind) (deleted bool, err error) {
	ctx, span, start := m.start(ctx, "DeleteIndex", kind)
	defer func() { m.finish(ctx, span, "delete_index", kind, start, err) }()

	deleted, err = m.engine.DeleteIndex(ctx, kind.IndexName(), http.StatusBadRequest, http.StatusNotFound)
	if err != nil {
		return false, fmt.Errorf("failed to delete index %s: %w", kind.IndexName(), err)
	}
	if deleted {
		m.log.WithField("index", kind.IndexName()).Info("index deleted")
	}
	return deleted, nil
}

// IndexExists reports whether the index of kind exists.
func (m *Manager) IndexExists(ctx context.Context, kind indices.Kind) (exists bool, err error) {
	ctx, span, start := m.start(ctx, "IndexExists", kind)
	defer func() { m.finish(ctx, span, "index_exists", kind, start, err) }()

	exists, err = m.engine.IndexExists(ctx, kind.IndexName())
	if err != nil {
		return false, fmt.Errorf("failed to check index %s: %w", kind.IndexName(), err)
	}
	return exists, nil
}

// search runs req and treats a missing index as an empty result.
func (m *Manager) search(ctx context.Context, kind indices.Kind, req *query.Request) (*engine.SearchResult, error) {
	res, err := m.engine.Search(ctx, kind.IndexName(), req)
	if err != nil {
		if engine.IsNotFound(err) {
			return &engine.SearchResult{Hits: []engine.Hit{}}, nil
		}
		return nil, fmt.Errorf("search in %s failed: %w", kind.IndexName(), err)
	}
	if res.Hits == nil {
		res.Hits = []engine.Hit{}
	}
	return res, nil
}

// DocumentExists reports whether a document with the module's identity is stored.
func (m *Manager) DocumentExists(ctx context.Context, kind indices.Kind, module modules.Module) (exists bool, err error) {
	id := module.Identity()
	ctx, span, start := m.start(ctx, "DocumentExists", kind, attribute.String("module", id.Key()))
	defer func() { m.finish(ctx, span, "document_exists", kind, start, err) }()

	if err = id.Validate(); err != nil {
		return false, err
	}

	res, err := m.search(ctx, kind, m.builder.Exists(id))
	if err != nil {
		return false, err
	}
	return res.Total > 0, nil
}

// Autocomplete suggests distinct lower-cased values of field that contain
// term. Short terms and a missing index yield an empty list.
func (m *Manager) Autocomplete(ctx context.Context, kind indices.Kind, field modules.Field, term string) (suggestions []string, err error) {
	ctx, span, start := m.start(ctx, "Autocomplete", kind,
		attribute.String("field", field.String()),
		attribute.String("term", term),
	)
	defer func() { m.finish(ctx, span, "autocomplete", kind, start, err) }()

	suggestions = []string{}
	if !m.builder.AcceptsTerm(term) {
		return suggestions, nil
	}

	res, err := m.search(ctx, kind, m.builder.Autocomplete(field, term))
	if err != nil {
		return nil, err
	}
	for _, b := range res.Buckets {
		suggestions = append(suggestions, b.Key)
	}
	m.otelMetrics.RecordSuggestions(ctx, kind.IndexName(), field.String(), len(suggestions))
	return suggestions, nil
}

// DeleteFromIndex removes every document with the module's identity.
func (m *Manager) DeleteFromIndex(ctx context.Context, kind indices.Kind, module modules.Module) (report *DeleteReport, err error) {
	id := module.Identity()
	ctx, span, start := m.start(ctx, "DeleteFromIndex", kind, attribute.String("module", id.Key()))
	defer func() { m.finish(ctx, span, "delete_by_query", kind, start, err) }()

	if err = id.Validate(); err != nil {
		return nil, err
	}

	res, err := m.engine.DeleteByQuery(ctx, kind.IndexName(), m.builder.ExactIdentity(id), m.refresh)
	if err != nil {
		if engine.IsNotFound(err) {
			return &DeleteReport{}, nil
		}
		return nil, fmt.Errorf("failed to delete %s from %s: %w", id.Key(), kind.IndexName(), err)
	}

	if m.metrics != nil && res.Deleted > 0 {
		m.metrics.DeletedDocumentsTotal.WithLabelValues(kind.IndexName()).Add(float64(res.Deleted))
	}
	m.log.WithFields(logrus.Fields{
		"index":   kind.IndexName(),
		"module":  id.Key(),
		"deleted": res.Deleted,
	}).Debug("deleted module documents")

	return &DeleteReport{Deleted: res.Deleted, Total: res.Total, Failures: res.Failures}, nil
}

// index stores one document and checks that at least one shard took it.
func (m *Manager) index(ctx context.Context, kind indices.Kind, doc any) (*engine.IndexResult, error) {
	name := kind.IndexName()
	res, err := m.engine.IndexDocument(ctx, name, "", doc, m.refresh)
	if err != nil {
		if m.metrics != nil {
			m.metrics.IndexingFailuresTotal.WithLabelValues(name).Inc()
		}
		return nil, fmt.Errorf("failed to index document in %s: %w", name, err)
	}

	if res.Shards.Successful == 0 {
		if m.metrics != nil {
			m.metrics.IndexingFailuresTotal.WithLabelValues(name).Inc()
		}
		return res, &IndexingError{Index: name, Result: res}
	}

	if m.metrics != nil {
		m.metrics.IndexedDocumentsTotal.WithLabelValues(name, res.Result).Inc()
	}
	m.otelMetrics.RecordIndexed(ctx, name, res.Result)
	return res, nil
}

// IndexModule stores a module document. A write that no shard stored is
// returned together with an *IndexingError.
func (m *Manager) IndexModule(ctx context.Context, kind indices.Kind, module modules.Module) (res *engine.IndexResult, err error) {
	id := module.Identity()
	ctx, span, start := m.start(ctx, "IndexModule", kind, attribute.String("module", id.Key()))
	defer func() { m.finish(ctx, span, "index", kind, start, err) }()

	if err = id.Validate(); err != nil {
		return nil, err
	}
	return m.index(ctx, kind, module)
}

// IndexDraft stores a draft document.
func (m *Manager) IndexDraft(ctx context.Context, kind indices.Kind, draft modules.Draft) (res *engine.IndexResult, err error) {
	ctx, span, start := m.start(ctx, "IndexDraft", kind, attribute.String("draft", draft.Name))
	defer func() { m.finish(ctx, span, "index", kind, start, err) }()

	if draft.Name == "" {
		return nil, fmt.Errorf("%w: missing draft name", modules.ErrInvalidIdentity)
	}
	return m.index(ctx, kind, draft)
}

// IndexNode stores a schema node in the yindex index.
func (m *Manager) IndexNode(ctx context.Context, node modules.Node) (res *engine.IndexResult, err error) {
	kind := indices.KindYIndex
	ctx, span, start := m.start(ctx, "IndexNode", kind,
		attribute.String("module", node.Name+"@"+node.Revision),
		attribute.String("path", node.Path),
	)
	defer func() { m.finish(ctx, span, "index", kind, start, err) }()

	if node.Name == "" || node.Revision == "" || node.Path == "" {
		return nil, fmt.Errorf("%w: node requires module, revision and path", modules.ErrInvalidIdentity)
	}
	return m.index(ctx, kind, node)
}

// IndexModules stores modules with at most concurrency writes in flight.
// Reports are returned in input order. The first failure cancels the
// remaining writes.
func (m *Manager) IndexModules(ctx context.Context, kind indices.Kind, mods []modules.Module, concurrency int) ([]*engine.IndexResult, error) {
	for _, mod := range mods {
		if err := mod.Identity().Validate(); err != nil {
			return nil, err
		}
	}
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*engine.IndexResult, len(mods))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, mod := range mods {
		g.Go(func() error {
			res, err := m.IndexModule(gctx, kind, mod)
			if err != nil {
				return fmt.Errorf("module %s: %w", mod.Identity().Key(), err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	m.log.WithFields(logrus.Fields{
		"index":   kind.IndexName(),
		"modules": len(mods),
	}).Info("bulk load complete")
	return results, nil
}

// GetModuleByNameRevision returns the documents with the module's name and
// revision, whatever their organization.
func (m *Manager) GetModuleByNameRevision(ctx context.Context, kind indices.Kind, module modules.Module) (hits []engine.Hit, err error) {
	ctx, span, start := m.start(ctx, "GetModuleByNameRevision", kind, attribute.String("module", module.Identity().String()))
	defer func() { m.finish(ctx, span, "search", kind, start, err) }()

	res, err := m.search(ctx, kind, m.builder.NameRevision(module.Name, module.Revision))
	if err != nil {
		return nil, err
	}
	return res.Hits, nil
}

type revisionHit struct {
	hit          engine.Hit
	revision     string
	organization string
}

func (m *Manager) sortedRevisions(ctx context.Context, kind indices.Kind, name string) ([]revisionHit, error) {
	res, err := m.search(ctx, kind, m.builder.SortedRevisions(name))
	if err != nil {
		return nil, err
	}
	return decodeRevisions(res.Hits, true)
}

func decodeRevisions(hits []engine.Hit, sorted bool) ([]revisionHit, error) {
	out := make([]revisionHit, 0, len(hits))
	for _, h := range hits {
		mod, err := modules.DecodeModule(h.Source)
		if err != nil {
			return nil, &engine.ProtocolError{Op: "search", Err: err}
		}
		out = append(out, revisionHit{hit: h, revision: mod.Revision, organization: mod.Organization})
	}
	if sorted {
		query.SortByRevision(out, func(r revisionHit) string { return r.revision })
	}
	return out, nil
}

// GetSortedModuleRevisions returns every document of the named module,
// newest revision first. Revisions compare numerically where they contain
// digits, so "10" sorts above "9".
func (m *Manager) GetSortedModuleRevisions(ctx context.Context, kind indices.Kind, name string) (hits []engine.Hit, err error) {
	ctx, span, start := m.start(ctx, "GetSortedModuleRevisions", kind, attribute.String("module", name))
	defer func() { m.finish(ctx, span, "search", kind, start, err) }()

	revs, err := m.sortedRevisions(ctx, kind, name)
	if err != nil {
		return nil, err
	}
	hits = make([]engine.Hit, len(revs))
	for i, r := range revs {
		hits[i] = r.hit
	}
	return hits, nil
}

// GetLatestRevision returns the newest revision of the named module.
func (m *Manager) GetLatestRevision(ctx context.Context, kind indices.Kind, name string) (revision string, found bool, err error) {
	ctx, span, start := m.start(ctx, "GetLatestRevision", kind, attribute.String("module", name))
	defer func() { m.finish(ctx, span, "search", kind, start, err) }()

	revs, err := m.sortedRevisions(ctx, kind, name)
	if err != nil {
		return "", false, err
	}
	if len(revs) == 0 {
		return "", false, nil
	}
	return revs[0].revision, true, nil
}

// GetRevisionsAndOrganization returns the distinct revisions of a module,
// newest first, and the organization of the first match. With a revision
// only documents of that revision are considered.
func (m *Manager) GetRevisionsAndOrganization(ctx context.Context, kind indices.Kind, name, revision string) (revisions []string, organization string, err error) {
	ctx, span, start := m.start(ctx, "GetRevisionsAndOrganization", kind, attribute.String("module", name))
	defer func() { m.finish(ctx, span, "search", kind, start, err) }()

	var revs []revisionHit
	if revision == "" {
		revs, err = m.sortedRevisions(ctx, kind, name)
	} else {
		var res *engine.SearchResult
		res, err = m.search(ctx, kind, m.builder.NameRevision(name, revision))
		if err == nil {
			revs, err = decodeRevisions(res.Hits, false)
		}
	}
	if err != nil {
		return nil, "", err
	}

	if len(revs) == 0 {
		if revision != "" {
			name += "@" + revision
		}
		return nil, "", fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}

	organization = revs[0].organization
	seen := make(map[string]struct{}, len(revs))
	for _, r := range revs {
		if _, ok := seen[r.revision]; ok {
			continue
		}
		seen[r.revision] = struct{}{}
		revisions = append(revisions, r.revision)
	}
	query.SortByRevision(revisions, func(s string) string { return s })
	return revisions, organization, nil
}

// GetNode returns the yindex documents of a schema node.
func (m *Manager) GetNode(ctx context.Context, name, revision, path string) (hits []engine.Hit, err error) {
	kind := indices.KindYIndex
	ctx, span, start := m.start(ctx, "GetNode", kind,
		attribute.String("module", name+"@"+revision),
		attribute.String("path", path),
	)
	defer func() { m.finish(ctx, span, "search", kind, start, err) }()

	res, err := m.search(ctx, kind, m.builder.Node(name, revision, path))
	if err != nil {
		return nil, err
	}
	return res.Hits, nil
}

// MatchAll returns the stored modules keyed by name@revision/organization.
// Only the first MaxPageSize documents are read.
func (m *Manager) MatchAll(ctx context.Context, kind indices.Kind) (all map[string]modules.Module, err error) {
	ctx, span, start := m.start(ctx, "MatchAll", kind)
	defer func() { m.finish(ctx, span, "search", kind, start, err) }()

	res, err := m.search(ctx, kind, m.builder.MatchAll())
	if err != nil {
		return nil, err
	}

	all = make(map[string]modules.Module, len(res.Hits))
	for _, h := range res.Hits {
		mod, err := modules.DecodeModule(h.Source)
		if err != nil {
			return nil, &engine.ProtocolError{Op: "search", Err: err}
		}
		all[mod.Identity().Key()] = mod
	}
	if res.Total > int64(len(res.Hits)) {
		m.log.WithFields(logrus.Fields{
			"index": kind.IndexName(),
			"total": res.Total,
			"read":  len(res.Hits),
		}).Warn("match all truncated")
	}
	return all, nil
}

// Count returns the number of documents in the index of kind.
func (m *Manager) Count(ctx context.Context, kind indices.Kind) (count int64, err error) {
	ctx, span, start := m.start(ctx, "Count", kind)
	defer func() { m.finish(ctx, span, "count", kind, start, err) }()

	res, err := m.search(ctx, kind, m.builder.Count())
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}
