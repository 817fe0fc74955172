package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	rows [][2]string
	err  error
}

func (f fakeSource) PaperYears(ctx context.Context, fn func(docID, year string) error) error {
	for _, r := range f.rows {
		if err := fn(r[0], r[1]); err != nil {
			return err
		}
	}
	return f.err
}

var rows = fakeSource{rows: [][2]string{
	{"PM1", "2000"},
	{"PM2", "2001"},
	{"PM3", "1999-2001"},
	{"PM4", "1990"},
	{"PM5", "2010"},
	{"PM6", "unknown"},
	{"PM7", "2000"},
}}

var years = []int{2000, 2001, 2002}

func TestPapersPerYear(t *testing.T) {
	paperCats := map[string]map[string]bool{
		"PM1": {"chemical": true, "gene": true},
		"PM2": {"chemical": true},
		"PM3": {"disease": true},
		"PM4": {"chemical": true},
		"PM5": {"chemical": true},
		"PM6": {"chemical": true},
	}
	series, total, err := PapersPerYear(context.Background(), rows, paperCats, []string{"chemical", "disease", "gene"}, years)
	require.NoError(t, err)

	assert.Equal(t, 3, total)
	require.Len(t, series, 3)
	assert.Equal(t, "chemical", series[0].Category)
	assert.Equal(t, []float64{1, 1, 0}, series[0].Values)
	assert.Equal(t, []float64{0, 1, 0}, series[1].Values)
	assert.Equal(t, []float64{1, 0, 0}, series[2].Values)
	assert.Equal(t, years, series[0].Years)
}

func TestPapersPerYearSourceError(t *testing.T) {
	boom := errors.New("boom")
	_, _, err := PapersPerYear(context.Background(), fakeSource{err: boom}, nil, []string{"gene"}, years)
	assert.ErrorIs(t, err, boom)
}

func TestKeywordsPerPaper(t *testing.T) {
	counts := map[string]map[string]int{
		"PM1": {"chemical": 3, "gene": 0, "all_keys": 3},
		"PM7": {"chemical": 1, "gene": 2, "all_keys": 3},
		"PM2": {"chemical": 0, "gene": 4, "all_keys": 4},
	}
	series, err := KeywordsPerPaper(context.Background(), rows, counts, []string{"chemical", "gene", "all_keys"}, years)
	require.NoError(t, err)

	require.Len(t, series, 3)
	assert.Equal(t, []float64{2, 0, 0}, series[0].Values)
	assert.Equal(t, []float64{2, 4, 0}, series[1].Values)
	assert.Equal(t, []float64{3, 4, 0}, series[2].Values)
}

func TestVocabulary(t *testing.T) {
	paperKeywords := map[string]map[string][]string{
		"PM4": {"chemical": {"a"}},
		"PM1": {"chemical": {"a", "b", "b"}},
		"PM2": {"chemical": {"c"}},
		"PM7": {"chemical": {"b"}, "gene": {"g1"}},
		"PM5": {"chemical": {"z"}},
	}
	u, err := KeywordUsage(context.Background(), rows, paperKeywords, []string{"chemical", "gene"}, years)
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"a": true}, u.Before["chemical"])
	assert.Equal(t, []int{4, 1, 0}, u.Mentions["chemical"])
	assert.Len(t, u.Unique["chemical"][0], 2)

	vocab := u.Vocabulary()
	require.Len(t, vocab, 2)
	chem := vocab[0]
	assert.Equal(t, []float64{2, 3, 3}, chem.Known)
	// a is known before the first year, so only b counts as new there
	assert.Equal(t, []float64{1, 1, 0}, chem.New)
	assert.Equal(t, []float64{1, 1.0 / 3, 0}, chem.ActiveRate)
	assert.Equal(t, []float64{0.25, 1, 0}, chem.NewRate)
	assert.InDeltaSlice(t, []float64{2.0 / 3, 1, 1}, chem.Discovered, 1e-9)

	gene := vocab[1]
	assert.Equal(t, []float64{1, 1, 1}, gene.Known)
	assert.Equal(t, []float64{1, 0, 0}, gene.New)
	assert.Equal(t, []float64{1, 0, 0}, gene.ActiveRate)
}

func TestVocabularyEmpty(t *testing.T) {
	u, err := KeywordUsage(context.Background(), fakeSource{}, nil, []string{"gene"}, years)
	require.NoError(t, err)
	v := u.Vocabulary()[0]
	assert.Equal(t, []float64{0, 0, 0}, v.Known)
	assert.Equal(t, []float64{0, 0, 0}, v.Discovered)
	assert.Equal(t, []float64{0, 0, 0}, v.NewRate)
}
