package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/yangsearch/pkg/cache"
	"github.com/platinummonkey/yangsearch/pkg/engine"
	"github.com/platinummonkey/yangsearch/pkg/httputil"
	"github.com/platinummonkey/yangsearch/pkg/indices"
	"github.com/platinummonkey/yangsearch/pkg/manager"
	"github.com/platinummonkey/yangsearch/pkg/modules"
)

// IndexManager is the subset of the index manager used by the admin handlers.
type IndexManager interface {
	CreateIndex(ctx context.Context, kind indices.Kind) (*engine.CreateIndexResult, error)
	DeleteIndex(ctx context.Context, kind indices.Kind) (bool, error)
	IndexExists(ctx context.Context, kind indices.Kind) (bool, error)
	Count(ctx context.Context, kind indices.Kind) (int64, error)
	DocumentExists(ctx context.Context, kind indices.Kind, module modules.Module) (bool, error)
	DeleteFromIndex(ctx context.Context, kind indices.Kind, module modules.Module) (*manager.DeleteReport, error)
	IndexModules(ctx context.Context, kind indices.Kind, mods []modules.Module, concurrency int) ([]*engine.IndexResult, error)
	GetModuleByNameRevision(ctx context.Context, kind indices.Kind, module modules.Module) ([]engine.Hit, error)
	GetSortedModuleRevisions(ctx context.Context, kind indices.Kind, name string) ([]engine.Hit, error)
	MatchAll(ctx context.Context, kind indices.Kind) (map[string]modules.Module, error)
}

// AdminHandlers serves index administration endpoints.
type AdminHandlers struct {
	manager     IndexManager
	cache       cache.Cache
	log         logrus.FieldLogger
	concurrency int
}

// NewAdminHandlers creates the admin handlers. Bulk loads write with at most
// concurrency requests in flight.
func NewAdminHandlers(m IndexManager, c cache.Cache, concurrency int, log logrus.FieldLogger) *AdminHandlers {
	if log == nil {
		log = logrus.New()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &AdminHandlers{manager: m, cache: c, log: log, concurrency: concurrency}
}

// RegisterRoutes registers the admin routes on router.
func (h *AdminHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/indices/{kind}", h.createIndex).Methods(http.MethodPut)
	router.HandleFunc("/indices/{kind}", h.getIndex).Methods(http.MethodGet)
	router.HandleFunc("/indices/{kind}", h.deleteIndex).Methods(http.MethodDelete)
	router.HandleFunc("/indices/{kind}/modules", h.matchAll).Methods(http.MethodGet)
	router.HandleFunc("/indices/{kind}/modules", h.loadModules).Methods(http.MethodPost)
	router.HandleFunc("/indices/{kind}/modules/{name}", h.moduleRevisions).Methods(http.MethodGet)
	router.HandleFunc("/indices/{kind}/modules/{name}/{revision}", h.moduleByNameRevision).Methods(http.MethodGet)
	router.HandleFunc("/indices/{kind}/modules/{name}/{revision}/{organization}", h.documentExists).Methods(http.MethodGet)
	router.HandleFunc("/indices/{kind}/modules/{name}/{revision}/{organization}", h.deleteModule).Methods(http.MethodDelete)
}

func (h *AdminHandlers) kind(w http.ResponseWriter, r *http.Request) (indices.Kind, bool) {
	kind, err := indices.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, r, err)
		return "", false
	}
	return kind, true
}

func moduleFromPath(r *http.Request) modules.Module {
	vars := mux.Vars(r)
	return modules.Module{Name: vars["name"], Revision: vars["revision"], Organization: vars["organization"]}
}

// invalidate drops cached completions of kind after a write.
func (h *AdminHandlers) invalidate(r *http.Request, kind indices.Kind) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(r.Context(), kind.String()); err != nil {
		h.log.WithError(err).WithField("index", kind.String()).Warn("failed to invalidate completion cache")
	}
}

// createIndex handles PUT /indices/{kind}
// An existing index is answered with 200 and the already-exists error in the body.
func (h *AdminHandlers) createIndex(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	res, err := h.manager.CreateIndex(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res.Error != nil {
		_ = httputil.WriteSuccess(w, res)
		return
	}
	_ = httputil.WriteCreated(w, res)
}

// IndexStatus describes one index.
type IndexStatus struct {
	Index     string `json:"index"`
	Exists    bool   `json:"exists"`
	Documents int64  `json:"documents"`
}

// getIndex handles GET /indices/{kind}
func (h *AdminHandlers) getIndex(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	exists, err := h.manager.IndexExists(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := IndexStatus{Index: kind.IndexName(), Exists: exists}
	if exists {
		if status.Documents, err = h.manager.Count(r.Context(), kind); err != nil {
			writeError(w, r, err)
			return
		}
	}
	_ = httputil.WriteSuccess(w, status)
}

// deleteIndex handles DELETE /indices/{kind}
func (h *AdminHandlers) deleteIndex(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	deleted, err := h.manager.DeleteIndex(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidate(r, kind)
	_ = httputil.WriteSuccess(w, map[string]bool{"deleted": deleted})
}

// matchAll handles GET /indices/{kind}/modules
func (h *AdminHandlers) matchAll(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	all, err := h.manager.MatchAll(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, all)
}

const maxLoadConcurrency = 64

// loadModules handles POST /indices/{kind}/modules
// The body is a JSON array of modules.
// Query parameters:
//   - concurrency: writes in flight, 1 to 64 (default from configuration)
func (h *AdminHandlers) loadModules(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	concurrency, err := httputil.ParseQueryIntRange(r, "concurrency", h.concurrency, 1, maxLoadConcurrency)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var mods []modules.Module
	if !httputil.ParseJSONOrError(w, r, &mods) {
		return
	}

	results, err := h.manager.IndexModules(r.Context(), kind, mods, concurrency)
	h.invalidate(r, kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, results)
}

// moduleRevisions handles GET /indices/{kind}/modules/{name}
// Hits are ordered newest revision first.
func (h *AdminHandlers) moduleRevisions(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	hits, err := h.manager.GetSortedModuleRevisions(r.Context(), kind, mux.Vars(r)["name"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, hits)
}

// moduleByNameRevision handles GET /indices/{kind}/modules/{name}/{revision}
func (h *AdminHandlers) moduleByNameRevision(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	hits, err := h.manager.GetModuleByNameRevision(r.Context(), kind, moduleFromPath(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, hits)
}

// documentExists handles GET /indices/{kind}/modules/{name}/{revision}/{organization}
func (h *AdminHandlers) documentExists(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	exists, err := h.manager.DocumentExists(r.Context(), kind, moduleFromPath(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, map[string]bool{"exists": exists})
}

// deleteModule handles DELETE /indices/{kind}/modules/{name}/{revision}/{organization}
func (h *AdminHandlers) deleteModule(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	report, err := h.manager.DeleteFromIndex(r.Context(), kind, moduleFromPath(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if report.Deleted > 0 {
		h.invalidate(r, kind)
	}
	_ = httputil.WriteSuccess(w, report)
}

func decodeSource(source json.RawMessage, dest any) error {
	if err := json.Unmarshal(source, dest); err != nil {
		return &engine.ProtocolError{Op: "decode document", Err: err}
	}
	return nil
}
