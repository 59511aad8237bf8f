package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/yangsearch/pkg/async"
	"github.com/platinummonkey/yangsearch/pkg/cache"
	"github.com/platinummonkey/yangsearch/pkg/engine"
	"github.com/platinummonkey/yangsearch/pkg/httputil"
	"github.com/platinummonkey/yangsearch/pkg/indices"
	"github.com/platinummonkey/yangsearch/pkg/modules"
)

// PathPrefix is the mount point of every route.
const PathPrefix = "/api/yang-search/v2"

// revisionPattern matches YYYY-MM-DD revisions in show-node paths.
const revisionPattern = `[0-9]{4}-[0-9]{2}-[0-9]{2}`

// Searcher is the subset of the index manager used by the handlers.
type Searcher interface {
	Autocomplete(ctx context.Context, kind indices.Kind, field modules.Field, term string) ([]string, error)
	GetRevisionsAndOrganization(ctx context.Context, kind indices.Kind, name, revision string) ([]string, string, error)
	GetLatestRevision(ctx context.Context, kind indices.Kind, name string) (string, bool, error)
	GetNode(ctx context.Context, name, revision, path string) ([]engine.Hit, error)
}

// completion maps a completions keyword to the index and field it searches.
type completion struct {
	kind  indices.Kind
	field modules.Field
}

var completions = map[string]completion{
	"module":       {indices.KindAutocomplete, modules.FieldName},
	"organization": {indices.KindAutocomplete, modules.FieldOrganization},
	"draft":        {indices.KindDrafts, modules.FieldDraft},
}

// Handlers serves the public search endpoints.
type Handlers struct {
	searcher     Searcher
	cache        cache.Cache
	log          logrus.FieldLogger
	cacheTimeout time.Duration
}

// NewHandlers creates the search handlers. c may be nil to disable caching.
func NewHandlers(searcher Searcher, c cache.Cache, log logrus.FieldLogger) *Handlers {
	if log == nil {
		log = logrus.New()
	}
	return &Handlers{
		searcher:     searcher,
		cache:        c,
		log:          log,
		cacheTimeout: 2 * time.Second,
	}
}

// RegisterRoutes registers the search routes on router.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/completions/{keyword}/{pattern}", h.completions).Methods(http.MethodGet)
	router.HandleFunc("/modules/{name}/revisions", h.revisions).Methods(http.MethodGet)
	router.HandleFunc("/modules/{name}/latest-revision", h.latestRevision).Methods(http.MethodGet)
	router.HandleFunc("/show-node/{name}/{path:.+}/{revision:"+revisionPattern+"}", h.showNode).Methods(http.MethodGet)
	router.HandleFunc("/show-node/{name}/{path:.+}", h.showNode).Methods(http.MethodGet)
}

// completions handles GET /completions/{keyword}/{pattern}
// Unknown keywords and short patterns yield an empty list.
func (h *Handlers) completions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	target, ok := completions[vars["keyword"]]
	pattern := vars["pattern"]
	if !ok || strings.TrimSpace(pattern) == "" {
		_ = httputil.WriteSuccess(w, []string{})
		return
	}

	key := cache.Key{Kind: target.kind.String(), Field: target.field.String(), Term: pattern}
	if h.cache != nil {
		if cached, err := h.cache.Get(r.Context(), key); err == nil {
			_ = httputil.WriteSuccess(w, cached)
			return
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			h.log.WithError(err).Warn("completion cache lookup failed")
		}
	}

	suggestions, err := h.searcher.Autocomplete(r.Context(), target.kind, target.field, pattern)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if h.cache != nil {
		async.SafeGo(r.Context(), h.log, h.cacheTimeout, "cache completions", func(ctx context.Context) error {
			return h.cache.Set(ctx, key, suggestions)
		})
	}
	_ = httputil.WriteSuccess(w, suggestions)
}

// RevisionsResponse lists the revisions of a module.
type RevisionsResponse struct {
	Name         string   `json:"name"`
	Revisions    []string `json:"revisions"`
	Organization string   `json:"organization"`
}

// revisions handles GET /modules/{name}/revisions
// Query parameters:
//   - revision: only report this revision
func (h *Handlers) revisions(w http.ResponseWriter, r *http.Request) {
	name, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}
	revision := httputil.ParseQueryString(r, "revision", "")

	revs, org, err := h.searcher.GetRevisionsAndOrganization(r.Context(), indices.KindAutocomplete, name, revision)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, RevisionsResponse{Name: name, Revisions: revs, Organization: org})
}

// latestRevision handles GET /modules/{name}/latest-revision
func (h *Handlers) latestRevision(w http.ResponseWriter, r *http.Request) {
	name, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}

	revision, found, err := h.searcher.GetLatestRevision(r.Context(), indices.KindAutocomplete, name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		httputil.WriteNotFoundError(w, "module "+name+" not found")
		return
	}
	_ = httputil.WriteSuccess(w, map[string]string{"name": name, "revision": revision})
}

// showNode handles GET /show-node/{name}/{path}[/{revision}]
// Without a revision the latest revision of the module is used.
func (h *Handlers) showNode(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]
	path := "/" + strings.TrimPrefix(vars["path"], "/")
	revision := vars["revision"]

	if revision == "" {
		latest, found, err := h.searcher.GetLatestRevision(r.Context(), indices.KindAutocomplete, name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !found {
			httputil.WriteNotFoundError(w, "module "+name+" not found")
			return
		}
		revision = latest
	}

	hits, err := h.searcher.GetNode(r.Context(), name, revision, path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(hits) == 0 {
		httputil.WriteNotFoundError(w, "could not find data for "+name+"@"+revision+" at "+path)
		return
	}

	var node modules.Node
	if err := decodeSource(hits[0].Source, &node); err != nil {
		writeError(w, r, err)
		return
	}
	if len(node.Properties) == 0 {
		_ = httputil.WriteSuccess(w, []any{})
		return
	}
	httputil.WriteRawJSON(w, http.StatusOK, node.Properties)
}
