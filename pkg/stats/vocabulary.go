package stats

import (
	"context"
	"fmt"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/store"
)

// Usage records which keywords every category used in each year.
type Usage struct {
	Categories []string
	Years      []int
	// Unique holds the distinct keywords per category and year index.
	Unique map[string][]map[string]bool
	// Mentions counts keyword occurrences including duplicates.
	Mentions map[string][]int
	// Before holds the keywords of papers published before the first year.
	Before map[string]map[string]bool
}

// KeywordUsage collects keyword usage from the subset papers. Papers
// published after the last year are ignored.
func KeywordUsage(ctx context.Context, src store.PaperYearSource, paperKeywords map[string]map[string][]string, categories []string, years []int) (*Usage, error) {
	idx := newYearIndex(years)
	u := &Usage{
		Categories: categories,
		Years:      years,
		Unique:     make(map[string][]map[string]bool, len(categories)),
		Mentions:   make(map[string][]int, len(categories)),
		Before:     make(map[string]map[string]bool, len(categories)),
	}
	for _, cat := range categories {
		u.Unique[cat] = make([]map[string]bool, len(years))
		for i := range years {
			u.Unique[cat][i] = make(map[string]bool)
		}
		u.Mentions[cat] = make([]int, len(years))
		u.Before[cat] = make(map[string]bool)
	}

	err := eachPaperYear(ctx, src,
		func(id string) bool { return paperKeywords[id] != nil },
		func(id string, year int) {
			if year < idx.first() {
				for cat, kws := range paperKeywords[id] {
					if before := u.Before[cat]; before != nil {
						for _, kw := range kws {
							before[kw] = true
						}
					}
				}
				return
			}
			i, ok := idx.pos[year]
			if !ok {
				return
			}
			for cat, kws := range paperKeywords[id] {
				unique := u.Unique[cat]
				if unique == nil {
					continue
				}
				for _, kw := range kws {
					unique[i][kw] = true
				}
				u.Mentions[cat][i] += len(kws)
			}
		})
	if err != nil {
		return nil, fmt.Errorf("failed to collect keyword usage: %w", err)
	}
	return u, nil
}

// Vocabulary is the keyword discovery process of one category.
type Vocabulary struct {
	Category string    `json:"category"`
	Years    []int     `json:"years"`
	Mentions []float64 `json:"mentions"`
	// Known is the number of keywords seen up to and including each year.
	Known []float64 `json:"known"`
	// ActiveRate is the share of known keywords used in the year.
	ActiveRate []float64 `json:"active_rate"`
	// New counts keywords used for the first time.
	New []float64 `json:"new"`
	// NewRate relates new keywords to all mentions of the year.
	NewRate []float64 `json:"new_rate"`
	// Discovered is Known relative to its final value.
	Discovered []float64 `json:"discovered"`
}

// Vocabulary derives the discovery process of every category from u.
func (u *Usage) Vocabulary() []Vocabulary {
	out := make([]Vocabulary, 0, len(u.Categories))
	for _, cat := range u.Categories {
		n := len(u.Years)
		v := Vocabulary{
			Category:   cat,
			Years:      u.Years,
			Mentions:   make([]float64, n),
			Known:      make([]float64, n),
			ActiveRate: make([]float64, n),
			New:        make([]float64, n),
			NewRate:    make([]float64, n),
			Discovered: make([]float64, n),
		}

		known := make(map[string]bool, len(u.Before[cat]))
		for kw := range u.Before[cat] {
			known[kw] = true
		}
		prev := len(known)
		for i := range u.Years {
			unique := u.Unique[cat][i]
			for kw := range unique {
				known[kw] = true
			}
			total := len(known)
			mentions := u.Mentions[cat][i]

			v.Mentions[i] = float64(mentions)
			v.Known[i] = float64(total)
			v.New[i] = float64(total - prev)
			if total > 0 {
				v.ActiveRate[i] = float64(len(unique)) / float64(total)
			}
			if mentions > 0 {
				v.NewRate[i] = v.New[i] / float64(mentions)
			}
			prev = total
		}
		if n > 0 && v.Known[n-1] > 0 {
			for i := range v.Known {
				v.Discovered[i] = v.Known[i] / v.Known[n-1]
			}
		}
		out = append(out, v)
	}
	return out
}
