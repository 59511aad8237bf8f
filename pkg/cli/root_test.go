package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/yangsearch/pkg/app"
	"github.com/platinummonkey/yangsearch/pkg/config"
	"github.com/platinummonkey/yangsearch/pkg/engine"
	"github.com/platinummonkey/yangsearch/pkg/indices"
	"github.com/platinummonkey/yangsearch/pkg/manager"
	"github.com/platinummonkey/yangsearch/pkg/modules"
)

// harness runs commands against one embedded engine shared across invocations.
type harness struct {
	mgr     *manager.Manager
	configs []*config.Config
	closed  int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	registry, err := app.NewRegistry("")
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	eng, closeEngine, err := app.NewEngine(config.EngineConfig{Type: config.EngineEmbedded}, registry, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeEngine() })

	return &harness{mgr: manager.New(eng, registry, nil, log)}
}

func (h *harness) open(_ context.Context, cfg *config.Config, _ logrus.FieldLogger) (*manager.Manager, app.CloseFunc, error) {
	h.configs = append(h.configs, cfg)
	return h.mgr, func() error { h.closed++; return nil }, nil
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(h.open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := h.run(t, "", args...)
	require.NoError(t, err)
	if v != nil {
		require.NoError(t, json.Unmarshal([]byte(out), v), out)
	}
}

func writeFile(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "docs.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

var catalog = []modules.Module{
	{Name: "ietf-interfaces", Revision: "2014-05-08", Organization: "ietf"},
	{Name: "ietf-interfaces", Revision: "2018-02-20", Organization: "ietf"},
	{Name: "ietf-ip", Revision: "2018-02-22", Organization: "ietf"},
	{Name: "openconfig-interfaces", Revision: "2021-04-06", Organization: "openconfig"},
}

func TestNewRootCmd_HasSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make(map[string]bool)
	for _, sc := range cmd.Commands() {
		names[sc.Name()] = true
	}
	for _, want := range []string{
		"create-index", "delete-index", "index-exists", "load", "delete",
		"match-all", "count", "autocomplete", "revisions",
	} {
		assert.True(t, names[want], "missing command %s", want)
	}

	for _, flag := range []string{"engine", "addresses", "username", "password", "insecure", "schema-dir", "log-level", "no-refresh"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing flag --%s", flag)
	}
}

func TestCLI_Workflow(t *testing.T) {
	h := newHarness(t)

	var created []engine.CreateIndexResult
	h.mustRun(t, &created, "create-index")
	require.Len(t, created, len(indices.Kinds()))
	for _, res := range created {
		assert.True(t, res.Acknowledged, res.Index)
	}

	h.mustRun(t, &created, "create-index", "autocomplete")
	require.Len(t, created, 1)
	assert.Equal(t, 400, created[0].Status)
	require.NotNil(t, created[0].Error)
	assert.Equal(t, engine.ResourceAlreadyExists, created[0].Error.Type)

	var status IndexStatus
	h.mustRun(t, &status, "index-exists", "autocomplete")
	require.NotNil(t, status.Exists)
	assert.True(t, *status.Exists)

	var report LoadReport
	h.mustRun(t, &report, "load", "autocomplete", writeFile(t, catalog), "--concurrency", "2")
	assert.Equal(t, LoadReport{Index: "autocomplete", Loaded: 4, Created: 4}, report)

	h.mustRun(t, &status, "count", "autocomplete")
	require.NotNil(t, status.Documents)
	assert.EqualValues(t, 4, *status.Documents)

	var suggestions []string
	h.mustRun(t, &suggestions, "autocomplete", "autocomplete", "name", "interf")
	assert.Equal(t, []string{"ietf-interfaces", "openconfig-interfaces"}, suggestions)

	h.mustRun(t, &suggestions, "autocomplete", "autocomplete", "name", "ie")
	assert.Empty(t, suggestions)

	var revs Revisions
	h.mustRun(t, &revs, "revisions", "autocomplete", "ietf-interfaces")
	assert.Equal(t, Revisions{Name: "ietf-interfaces", Revisions: []string{"2018-02-20", "2014-05-08"}, Organization: "ietf"}, revs)

	h.mustRun(t, &revs, "revisions", "autocomplete", "ietf-interfaces", "--revision", "2014-05-08")
	assert.Equal(t, []string{"2014-05-08"}, revs.Revisions)

	var all map[string]modules.Module
	h.mustRun(t, &all, "match-all", "autocomplete")
	assert.Len(t, all, 4)
	assert.Contains(t, all, "ietf-ip@2018-02-22/ietf")

	var deleted manager.DeleteReport
	h.mustRun(t, &deleted, "delete", "autocomplete", "ietf-ip", "2018-02-22", "ietf")
	assert.EqualValues(t, 1, deleted.Deleted)

	h.mustRun(t, &all, "match-all", "autocomplete")
	assert.Len(t, all, 3)

	var dropped []DeletedIndex
	h.mustRun(t, &dropped, "delete-index", "autocomplete", "test")
	assert.Equal(t, []DeletedIndex{{Index: "autocomplete", Deleted: true}, {Index: "test", Deleted: true}}, dropped)

	h.mustRun(t, &status, "index-exists", "autocomplete")
	assert.False(t, *status.Exists)

	assert.Equal(t, len(h.configs), h.closed)
}

func TestCLI_LoadDraftsFromStdin(t *testing.T) {
	h := newHarness(t)

	drafts := `[{"draft": "draft-ietf-netmod-yang-tree-diagrams"}, {"draft": "draft-ietf-netconf-restconf"}]`
	out, err := h.run(t, drafts, "load", "drafts", "-")
	require.NoError(t, err)

	var report LoadReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Loaded)

	var suggestions []string
	h.mustRun(t, &suggestions, "autocomplete", "drafts", "draft", "netconf")
	assert.Equal(t, []string{"draft-ietf-netconf-restconf"}, suggestions)
}

func TestCLI_LoadNodes(t *testing.T) {
	h := newHarness(t)

	nodes := []modules.Node{
		{Name: "ietf-interfaces", Revision: "2018-02-20", Organization: "ietf", Path: "/interfaces", Statement: "container"},
		{Name: "ietf-interfaces", Revision: "2018-02-20", Organization: "ietf", Path: "/interfaces/interface", Statement: "list"},
	}
	var report LoadReport
	h.mustRun(t, &report, "load", "yindex", writeFile(t, nodes))
	assert.Equal(t, LoadReport{Index: "yindex", Loaded: 2, Created: 2}, report)
}

func TestCLI_Errors(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, nil, "create-index", "autocomplete")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown kind", []string{"index-exists", "catalog"}, "unknown index kind"},
		{"unknown field", []string{"autocomplete", "autocomplete", "namespace", "ietf"}, "unknown"},
		{"missing args", []string{"delete", "autocomplete", "ietf-ip"}, "accepts 4 arg(s)"},
		{"delete-index needs kinds", []string{"delete-index"}, "requires at least 1 arg(s)"},
		{"missing file", []string{"load", "autocomplete", filepath.Join(t.TempDir(), "none.json")}, "failed to read"},
		{"bad json", []string{"load", "autocomplete", "-"}, "failed to decode modules"},
		{"unknown module", []string{"revisions", "autocomplete", "ietf-routing"}, "module not found"},
		{"invalid engine", []string{"--engine", "solr", "count", "autocomplete"}, "invalid engine type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(t, "{", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCLI_LoadRejectsInvalidIdentity(t *testing.T) {
	h := newHarness(t)
	path := writeFile(t, []modules.Module{{Name: "ietf-ip", Revision: "2018-02-22"}})

	_, err := h.run(t, "", "load", "autocomplete", path)
	assert.ErrorIs(t, err, modules.ErrInvalidIdentity)
}

func TestCLI_FlagOverrides(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t, nil,
		"--engine", "embedded",
		"--addresses", "https://a:9200,https://b:9200",
		"--username", "admin",
		"--no-refresh",
		"index-exists", "drafts",
	)
	require.Len(t, h.configs, 1)
	cfg := h.configs[0]
	assert.Equal(t, config.EngineEmbedded, cfg.Engine.Type)
	assert.Equal(t, []string{"https://a:9200", "https://b:9200"}, cfg.Engine.Addresses)
	assert.Equal(t, "admin", cfg.Engine.Username)
	assert.False(t, cfg.Engine.Refresh)
}

func TestCLI_EnvironmentConfig(t *testing.T) {
	t.Setenv("YANGSEARCH_ENGINE", "embedded")
	t.Setenv("YANGSEARCH_BULK_CONCURRENCY", "3")
	h := newHarness(t)

	h.mustRun(t, nil, "count", "drafts")
	require.Len(t, h.configs, 1)
	assert.Equal(t, config.EngineEmbedded, h.configs[0].Engine.Type)
	assert.Equal(t, 3, h.configs[0].Search.BulkConcurrency)
}
