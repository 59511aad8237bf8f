package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/yangsearch/pkg/cache"
	"github.com/platinummonkey/yangsearch/pkg/engine"
	"github.com/platinummonkey/yangsearch/pkg/engine/embedded"
	"github.com/platinummonkey/yangsearch/pkg/indices"
	"github.com/platinummonkey/yangsearch/pkg/manager"
	"github.com/platinummonkey/yangsearch/pkg/modules"
	"github.com/platinummonkey/yangsearch/pkg/observability"
)

var catalog = []modules.Module{
	{Name: "ietf-rip", Revision: "2020-02-20", Organization: "ietf"},
	{Name: "ietf-rip", Revision: "2014-05-08", Organization: "ietf"},
	{Name: "ietf-routing", Revision: "2018-03-13", Organization: "ietf"},
	{Name: "openconfig-interfaces", Revision: "2021-04-06", Organization: "openconfig"},
}

type testServer struct {
	*httptest.Server
	manager *manager.Manager
	cache   *cache.MemoryCache
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger, _ := test.NewNullLogger()

	eng := embedded.New(logger)
	t.Cleanup(func() { _ = eng.Close() })
	m := manager.New(eng, indices.NewRegistry(nil), nil, logger)

	for _, kind := range []indices.Kind{indices.KindAutocomplete, indices.KindDrafts, indices.KindYIndex} {
		_, err := m.CreateIndex(ctx, kind)
		require.NoError(t, err)
	}
	_, err := m.IndexModules(ctx, indices.KindAutocomplete, catalog, 2)
	require.NoError(t, err)
	_, err = m.IndexDraft(ctx, indices.KindDrafts, modules.Draft{Name: "draft-ietf-netmod-rfc8407bis"})
	require.NoError(t, err)
	_, err = m.IndexNode(ctx, modules.Node{
		Name: "ietf-rip", Revision: "2020-02-20", Organization: "ietf",
		Path:       "/ietf-rip:rip/interfaces",
		Properties: json.RawMessage(`[{"config":{"value":"true"}}]`),
	})
	require.NoError(t, err)
	_, err = m.IndexNode(ctx, modules.Node{
		Name: "ietf-rip", Revision: "2014-05-08", Organization: "ietf",
		Path: "/ietf-rip:rip/interfaces",
	})
	require.NoError(t, err)

	c := cache.NewMemoryCache(100, time.Minute)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	handler := NewRouter(
		NewHandlers(m, cache.WithMetrics(c, metrics, "memory"), logger),
		NewAdminHandlers(m, c, 2, logger),
		metrics,
		logger,
	)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, manager: m, cache: c, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path string, body []byte) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+PathPrefix+path, bytes.NewReader(body))
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestCompletions(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		path     string
		expected string
	}{
		{"/completions/module/IETF-R", `["ietf-rip","ietf-routing"]`},
		{"/completions/organization/open", `["openconfig"]`},
		{"/completions/draft/netmod", `["draft-ietf-netmod-rfc8407bis"]`},
		{"/completions/module/ie", `[]`},
		{"/completions/module/ief-r", `[]`},
		{"/completions/unknown/ietf", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := s.do(t, http.MethodGet, tt.path, nil)
			assert.Equal(t, http.StatusOK, status)
			assert.JSONEq(t, tt.expected, string(body))
		})
	}
}

func TestCompletions_Cached(t *testing.T) {
	s := newTestServer(t)
	key := cache.Key{Kind: "autocomplete", Field: "name", Term: "ietf"}

	status, _ := s.do(t, http.MethodGet, "/completions/module/ietf", nil)
	require.Equal(t, http.StatusOK, status)

	assert.Eventually(t, func() bool {
		_, err := s.cache.Get(context.Background(), key)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	status, body := s.do(t, http.MethodGet, "/completions/module/IETF", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `["ietf-rip","ietf-routing"]`, string(body))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.CacheHitsTotal.WithLabelValues("memory")))

	// writes drop cached completions of the index
	status, _ = s.do(t, http.MethodPost, "/indices/autocomplete/modules",
		[]byte(`[{"name":"ietf-interfaces","revision":"2018-02-20","organization":"ietf"}]`))
	require.Equal(t, http.StatusOK, status)

	_, err := s.cache.Get(context.Background(), key)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	status, body = s.do(t, http.MethodGet, "/completions/module/ietf", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `["ietf-interfaces","ietf-rip","ietf-routing"]`, string(body))
}

func TestRevisions(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/modules/ietf-rip/revisions", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"name":"ietf-rip","revisions":["2020-02-20","2014-05-08"],"organization":"ietf"}`, string(body))

	status, body = s.do(t, http.MethodGet, "/modules/ietf-rip/revisions?revision=2014-05-08", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"name":"ietf-rip","revisions":["2014-05-08"],"organization":"ietf"}`, string(body))

	status, _ = s.do(t, http.MethodGet, "/modules/random/revisions", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(t, http.MethodGet, "/modules/ietf-rip/latest-revision", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"name":"ietf-rip","revision":"2020-02-20"}`, string(body))

	status, _ = s.do(t, http.MethodGet, "/modules/random/latest-revision", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestShowNode(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/show-node/ietf-rip/ietf-rip:rip/interfaces", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[{"config":{"value":"true"}}]`, string(body))

	status, body = s.do(t, http.MethodGet, "/show-node/ietf-rip/ietf-rip:rip/interfaces/2014-05-08", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	status, _ = s.do(t, http.MethodGet, "/show-node/ietf-rip/ietf-rip:rip/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodGet, "/show-node/random/ietf-rip:rip/interfaces", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAdmin(t *testing.T) {
	s := newTestServer(t)

	t.Run("unknown kind", func(t *testing.T) {
		status, body := s.do(t, http.MethodGet, "/indices/nope", nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, string(body), "unknown index kind")
	})

	t.Run("create", func(t *testing.T) {
		status, body := s.do(t, http.MethodPut, "/indices/test", nil)
		assert.Equal(t, http.StatusCreated, status)
		var res engine.CreateIndexResult
		require.NoError(t, json.Unmarshal(body, &res))
		assert.True(t, res.Acknowledged)
		assert.Equal(t, "test", res.Index)

		status, body = s.do(t, http.MethodPut, "/indices/test", nil)
		assert.Equal(t, http.StatusOK, status)
		require.NoError(t, json.Unmarshal(body, &res))
		assert.Equal(t, http.StatusBadRequest, res.Status)
		require.NotNil(t, res.Error)
		assert.Equal(t, engine.ResourceAlreadyExists, res.Error.Type)
	})

	t.Run("load and read", func(t *testing.T) {
		payload, err := json.Marshal(catalog)
		require.NoError(t, err)

		status, body := s.do(t, http.MethodPost, "/indices/test/modules?concurrency=3", payload)
		require.Equal(t, http.StatusOK, status)
		var results []engine.IndexResult
		require.NoError(t, json.Unmarshal(body, &results))
		require.Len(t, results, len(catalog))
		assert.Equal(t, "created", results[0].Result)

		status, body = s.do(t, http.MethodGet, "/indices/test", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"index":"test","exists":true,"documents":4}`, string(body))

		status, body = s.do(t, http.MethodGet, "/indices/test/modules", nil)
		assert.Equal(t, http.StatusOK, status)
		var all map[string]modules.Module
		require.NoError(t, json.Unmarshal(body, &all))
		assert.Len(t, all, len(catalog))
		assert.Contains(t, all, "ietf-rip@2020-02-20/ietf")

		status, body = s.do(t, http.MethodGet, "/indices/test/modules/ietf-rip", nil)
		assert.Equal(t, http.StatusOK, status)
		var hits []engine.Hit
		require.NoError(t, json.Unmarshal(body, &hits))
		require.Len(t, hits, 2)
		assert.JSONEq(t, `{"name":"ietf-rip","revision":"2020-02-20","organization":"ietf"}`, string(hits[0].Source))

		status, body = s.do(t, http.MethodGet, "/indices/test/modules/ietf-rip/2014-05-08", nil)
		assert.Equal(t, http.StatusOK, status)
		require.NoError(t, json.Unmarshal(body, &hits))
		assert.Len(t, hits, 1)
	})

	t.Run("exists and delete", func(t *testing.T) {
		status, body := s.do(t, http.MethodGet, "/indices/test/modules/ietf-rip/2020-02-20/ietf", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"exists":true}`, string(body))

		status, body = s.do(t, http.MethodDelete, "/indices/test/modules/ietf-rip/2020-02-20/ietf", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"deleted":1,"total":1}`, string(body))

		status, body = s.do(t, http.MethodGet, "/indices/test/modules/ietf-rip/2020-02-20/ietf", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"exists":false}`, string(body))
	})

	t.Run("bad body", func(t *testing.T) {
		status, _ := s.do(t, http.MethodPost, "/indices/test/modules", []byte(`{`))
		assert.Equal(t, http.StatusBadRequest, status)

		status, _ = s.do(t, http.MethodPost, "/indices/test/modules", []byte(`[{"name":"x"}]`))
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("delete index", func(t *testing.T) {
		status, body := s.do(t, http.MethodDelete, "/indices/test", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"deleted":true}`, string(body))

		status, body = s.do(t, http.MethodGet, "/indices/test", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"index":"test","exists":false,"documents":0}`, string(body))
	})

	t.Run("metrics by route", func(t *testing.T) {
		route := PathPrefix + "/indices/{kind}"
		assert.GreaterOrEqual(t, testutil.ToFloat64(s.metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPut, route, "201")), 1.0)
	})
}

func TestNotFoundRoute(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodGet, "/nothing/here/at/all", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "no route")
}

// failingSearcher fails every call with err.
type failingSearcher struct{ err error }

func (f failingSearcher) Autocomplete(context.Context, indices.Kind, modules.Field, string) ([]string, error) {
	return nil, f.err
}

func (f failingSearcher) GetRevisionsAndOrganization(context.Context, indices.Kind, string, string) ([]string, string, error) {
	return nil, "", f.err
}

func (f failingSearcher) GetLatestRevision(context.Context, indices.Kind, string) (string, bool, error) {
	return "", false, f.err
}

func (f failingSearcher) GetNode(context.Context, string, string, string) ([]engine.Hit, error) {
	return nil, f.err
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"connectivity", &engine.ConnectivityError{Op: "search", Err: errors.New("refused")}, http.StatusServiceUnavailable},
		{"protocol", &engine.ProtocolError{Op: "search", Err: errors.New("EOF")}, http.StatusBadGateway},
		{"response", &engine.ResponseError{Op: "search", Status: 500, Type: "search_phase_execution_exception"}, http.StatusBadGateway},
		{"indexing", &manager.IndexingError{Index: "test", Result: &engine.IndexResult{}}, http.StatusBadGateway},
		{"not found", manager.ErrModuleNotFound, http.StatusNotFound},
		{"invalid", modules.ErrInvalidIdentity, http.StatusBadRequest},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			srv := httptest.NewServer(NewRouter(NewHandlers(failingSearcher{err: tt.err}, nil, logger), nil, nil, logger))
			defer srv.Close()

			resp, err := srv.Client().Get(srv.URL + PathPrefix + "/completions/module/ietf")
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)

			resp2, err := srv.Client().Get(srv.URL + PathPrefix + "/modules/ietf-rip/revisions")
			require.NoError(t, err)
			defer resp2.Body.Close()
			assert.Equal(t, tt.status, resp2.StatusCode)
		})
	}
}

func TestErrorMapping_ResponseDetails(t *testing.T) {
	logger, _ := test.NewNullLogger()
	err := &engine.ResponseError{Op: "search", Status: 500, Type: "search_phase_execution_exception", Reason: "all shards failed"}
	srv := httptest.NewServer(NewRouter(NewHandlers(failingSearcher{err: err}, nil, logger), nil, nil, logger))
	defer srv.Close()

	resp, gerr := srv.Client().Get(srv.URL + PathPrefix + "/modules/ietf-rip/latest-revision")
	require.NoError(t, gerr)
	defer resp.Body.Close()

	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "search_phase_execution_exception", body.Details["type"])
	assert.Contains(t, body.Error, "all shards failed")
}
