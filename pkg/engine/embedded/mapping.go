package embedded

import (
	"sort"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/platinummonkey/yangsearch/pkg/indices"
)

// lowercaseKeyword indexes the whole value as one lower-cased token.
const lowercaseKeyword = "lowercase_keyword"

// buildMapping translates parsed OpenSearch field definitions into a bleve mapping.
func buildMapping(fields map[string]indices.FieldDef) (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	if err := im.AddCustomAnalyzer(lowercaseKeyword, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     single.Name,
		"token_filters": []string{lowercase.Name},
	}); err != nil {
		return nil, err
	}
	im.DefaultAnalyzer = keyword.Name

	if len(fields) == 0 {
		// dynamic mapping, every string is a keyword
		return im, nil
	}

	dm := bleve.NewDocumentStaticMapping()

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := fields[name]
		if !def.Searchable() {
			continue
		}

		var fms []*mapping.FieldMapping
		fms = append(fms, fieldMapping(def, ""))
		for sub, subDef := range def.Fields {
			if !subDef.Searchable() {
				continue
			}
			fms = append(fms, fieldMapping(subDef, name+"."+sub))
		}
		dm.AddFieldMappingsAt(name, fms...)
	}

	im.DefaultMapping = dm
	return im, nil
}

func fieldMapping(def indices.FieldDef, rename string) *mapping.FieldMapping {
	var fm *mapping.FieldMapping
	switch {
	case def.Analyzed():
		fm = bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
	case def.Normalized():
		fm = bleve.NewTextFieldMapping()
		fm.Analyzer = lowercaseKeyword
	default:
		fm = bleve.NewKeywordFieldMapping()
	}
	fm.Name = rename
	fm.Store = false
	fm.IncludeInAll = false
	fm.IncludeTermVectors = false
	return fm
}
