// Package stats aggregates per-paper keyword data by publication year.
package stats

import (
	"context"
	"fmt"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/corpus"
	"github.com/gilchrisn/keyword-graph-evolution/pkg/store"
	"github.com/gilchrisn/keyword-graph-evolution/pkg/timeline"
)

// yearIndex maps each analysed year to its position.
type yearIndex struct {
	years []int
	pos   map[int]int
}

func newYearIndex(years []int) yearIndex {
	idx := yearIndex{years: years, pos: make(map[int]int, len(years))}
	for i, y := range years {
		idx.pos[y] = i
	}
	return idx
}

func (idx yearIndex) first() int {
	if len(idx.years) == 0 {
		return 0
	}
	return idx.years[0]
}

// eachPaperYear streams the rows of src that belong to a known paper and
// carry a readable year, with the year already parsed.
func eachPaperYear(ctx context.Context, src store.PaperYearSource, known func(id string) bool, fn func(id string, year int)) error {
	return src.PaperYears(ctx, func(id, raw string) error {
		if !known(id) {
			return nil
		}
		year, ok := corpus.ParseYear(raw, corpus.Exact)
		if !ok {
			return nil
		}
		fn(id, year)
		return nil
	})
}

func newSeries(categories []string, metric string, years []int) map[string]*timeline.Series {
	out := make(map[string]*timeline.Series, len(categories))
	for _, cat := range categories {
		out[cat] = &timeline.Series{
			Category: cat,
			Metric:   metric,
			Years:    years,
			Values:   make([]float64, len(years)),
		}
	}
	return out
}

func ordered(categories []string, m map[string]*timeline.Series) []timeline.Series {
	out := make([]timeline.Series, 0, len(categories))
	for _, cat := range categories {
		out = append(out, *m[cat])
	}
	return out
}

// PapersPerYear counts, per category, the subset papers published each
// year that have at least one keyword of that category.
func PapersPerYear(ctx context.Context, src store.PaperYearSource, paperCats map[string]map[string]bool, categories []string, years []int) ([]timeline.Series, int, error) {
	idx := newYearIndex(years)
	series := newSeries(categories, "papers_per_year", years)
	total := 0

	err := eachPaperYear(ctx, src,
		func(id string) bool { return paperCats[id] != nil },
		func(id string, year int) {
			i, ok := idx.pos[year]
			if !ok {
				return
			}
			total++
			for cat := range paperCats[id] {
				if s := series[cat]; s != nil {
					s.Values[i]++
				}
			}
		})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count papers per year: %w", err)
	}
	return ordered(categories, series), total, nil
}

// KeywordsPerPaper computes, per category and year, the mean number of
// keyword ids over the papers that have at least one keyword of the
// category. Years without such papers stay 0.
func KeywordsPerPaper(ctx context.Context, src store.PaperYearSource, counts map[string]map[string]int, categories []string, years []int) ([]timeline.Series, error) {
	idx := newYearIndex(years)
	series := newSeries(categories, "keywords_mean", years)
	papers := make(map[string][]int, len(categories))
	for _, cat := range categories {
		papers[cat] = make([]int, len(years))
	}

	err := eachPaperYear(ctx, src,
		func(id string) bool { return counts[id] != nil },
		func(id string, year int) {
			i, ok := idx.pos[year]
			if !ok {
				return
			}
			for cat, n := range counts[id] {
				s := series[cat]
				if s == nil || n <= 0 {
					continue
				}
				s.Values[i] += float64(n)
				papers[cat][i]++
			}
		})
	if err != nil {
		return nil, fmt.Errorf("failed to count keywords per paper: %w", err)
	}

	for cat, s := range series {
		for i, n := range papers[cat] {
			if n > 0 {
				s.Values[i] /= float64(n)
			}
		}
	}
	return ordered(categories, series), nil
}
