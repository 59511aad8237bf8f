package embedded

import (
	"fmt"
	"regexp"

	"github.com/blevesearch/bleve/v2"
	bq "github.com/blevesearch/bleve/v2/search/query"

	"github.com/platinummonkey/yangsearch/pkg/query"
)

// translate converts a query tree into a bleve query.
func translate(q query.Query) (bq.Query, error) {
	switch q := q.(type) {
	case nil:
		return bleve.NewMatchAllQuery(), nil
	case query.MatchAll:
		return bleve.NewMatchAllQuery(), nil
	case query.MatchNone:
		return bleve.NewMatchNoneQuery(), nil
	case query.Term:
		tq := bleve.NewTermQuery(q.Value)
		tq.SetField(q.Field)
		return tq, nil
	case query.Contains:
		rq := bleve.NewRegexpQuery(".*" + regexp.QuoteMeta(q.Value) + ".*")
		rq.SetField(q.Field)
		return rq, nil
	case query.Bool:
		if len(q.Filter) == 0 {
			return bleve.NewMatchAllQuery(), nil
		}
		out := make([]bq.Query, 0, len(q.Filter))
		for _, c := range q.Filter {
			t, err := translate(c)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
		return bleve.NewConjunctionQuery(out...), nil
	default:
		return nil, fmt.Errorf("unsupported query %T", q)
	}
}
