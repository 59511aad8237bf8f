package indices

import (
	"encoding/json"
	"maps"
	"slices"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_EmbeddedSchemas(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Preload())

	for _, kind := range Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			s, err := reg.Get(kind)
			require.NoError(t, err)
			assert.Equal(t, kind, s.Kind)
			assert.True(t, json.Valid(s.Body))
			assert.NotEmpty(t, s.Fields)

			var body map[string]any
			require.NoError(t, json.Unmarshal(s.Body, &body))
			assert.Contains(t, body, "settings")
			assert.Contains(t, body, "mappings")
		})
	}
}

func TestRegistry_ModuleFields(t *testing.T) {
	reg := NewRegistry(nil)
	s, err := reg.Get(KindAutocomplete)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"abstract", "description", "maturity-level", "name", "namespace",
		"organization", "prefix", "revision", "title",
	}, slices.Sorted(maps.Keys(s.Fields)))

	name, ok := s.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, "keyword", name.Type)
	assert.True(t, name.Searchable())
	assert.False(t, name.Analyzed())

	lower, ok := s.Lookup("name.lowercase")
	require.True(t, ok)
	assert.True(t, lower.Normalized())

	title, ok := s.Lookup("title")
	require.True(t, ok)
	assert.True(t, title.Analyzed())

	_, ok = s.Lookup("revision.lowercase")
	assert.False(t, ok)
}

func TestRegistry_NodeProperties(t *testing.T) {
	reg := NewRegistry(nil)
	s, err := reg.Get(KindYIndex)
	require.NoError(t, err)

	props, ok := s.Lookup("properties")
	require.True(t, ok)
	assert.False(t, props.Searchable())
}

func TestRegistry_CachesSchemas(t *testing.T) {
	reg := NewRegistry(nil)

	var wg sync.WaitGroup
	results := make([]*Schema, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := reg.Get(KindDrafts)
			assert.NoError(t, err)
			results[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range results[1:] {
		assert.Same(t, results[0], s)
	}
}

func TestRegistry_Errors(t *testing.T) {
	fsys := fstest.MapFS{
		"test.yaml":   {Data: []byte("mappings: [unclosed")},
		"drafts.yaml": {Data: []byte("settings: {}\n")},
	}
	reg := NewRegistry(fsys)

	tests := []struct {
		name string
		kind Kind
		want error
	}{
		{name: "unknown kind", kind: Kind("modules"), want: ErrSchemaNotFound},
		{name: "missing resource", kind: KindAutocomplete, want: ErrSchemaNotFound},
		{name: "malformed yaml", kind: KindTest, want: ErrInvalidSchema},
		{name: "no mappings", kind: KindDrafts, want: ErrInvalidSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Get(tt.kind)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.kind, cfgErr.Kind)
		})
	}
}

func TestRegistry_OverrideDirectory(t *testing.T) {
	fsys := fstest.MapFS{
		"test.yaml": {Data: []byte(`
mappings:
  properties:
    name:
      type: keyword
`)},
	}
	reg := NewRegistry(fsys)

	s, err := reg.Get(KindTest)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mappings":{"properties":{"name":{"type":"keyword"}}}}`, string(s.Body))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("autocomplete")
	require.NoError(t, err)
	assert.Equal(t, KindAutocomplete, k)
	assert.Equal(t, "autocomplete", k.IndexName())

	_, err = ParseKind("AUTOCOMPLETE")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestParseMapping(t *testing.T) {
	_, err := ParseMapping([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidSchema)

	fields, err := ParseMapping([]byte(`{"mappings":{"properties":{"a":{"type":"keyword","index":false}}}}`))
	require.NoError(t, err)
	assert.False(t, fields["a"].Searchable())
}
