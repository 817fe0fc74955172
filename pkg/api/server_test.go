package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/timeline"
)

type dirSource struct{ dir string }

func (d dirSource) GraphFile(category string, year int) string {
	return filepath.Join(d.dir, fmt.Sprintf("%s_%d.edgelist", category, year))
}

type countingSource struct {
	dirSource
	calls int
}

func (c *countingSource) GraphFile(category string, year int) string {
	c.calls++
	return c.dirSource.GraphFile(category, year)
}

func newTestServer(t *testing.T) (*Server, *countingSource, string) {
	t.Helper()
	dir := t.TempDir()
	src := &countingSource{dirSource: dirSource{dir: dir}}
	files := map[string]string{
		"gene_2000.edgelist":    "a b\n",
		"gene_2001.edgelist":    "b c\nd d\n",
		"disease_2000.edgelist": "x y\n",
		"disease_2001.edgelist": "",
		"plots/graph_size.png":  "png",
		"plots/.hidden":         "secret",
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "plots"), 0755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	s := NewServer(Options{
		Source:     src,
		Categories: []string{"gene", "disease"},
		Years:      []int{2000, 2001},
		PlotDir:    filepath.Join(dir, "plots"),
	}, zerolog.Nop())
	return s, src, dir
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) Response {
	t.Helper()
	var raw struct {
		Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.Response
}

func TestHealthAndMetrics(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Handler()

	rec := get(t, h, "/api/v1/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec, nil).Success)

	var names []string
	rec = get(t, h, "/api/v1/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &names)
	assert.Equal(t, timeline.MetricNames(), names)
}

func TestGetSeries(t *testing.T) {
	s, src, _ := newTestServer(t)
	h := s.Handler()

	var series []timeline.Series
	rec := get(t, h, "/api/v1/series/graph_size")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &series)

	require.Len(t, series, 2)
	assert.Equal(t, "gene", series[0].Category)
	assert.Equal(t, []float64{2, 4}, series[0].Values)
	assert.Equal(t, "disease", series[1].Category)
	assert.Equal(t, []float64{2, 2}, series[1].Values)

	calls := src.calls
	rec = get(t, h, "/api/v1/series/graph_size")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, calls, src.calls, "second request should be served from cache")
}

type slowSource struct {
	dirSource
	delay   time.Duration
	once    sync.Once
	started chan struct{}
}

func (s *slowSource) GraphFile(category string, year int) string {
	s.once.Do(func() { close(s.started) })
	time.Sleep(s.delay)
	return s.dirSource.GraphFile(category, year)
}

func TestSeriesSurvivesCancelledCaller(t *testing.T) {
	_, _, dir := newTestServer(t)
	src := &slowSource{dirSource: dirSource{dir: dir}, delay: 30 * time.Millisecond, started: make(chan struct{})}
	s := NewServer(Options{
		Source:     src,
		Categories: []string{"gene", "disease"},
		Years:      []int{2000, 2001},
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, err := s.series(ctx, timeline.NodeCount)
		firstErr <- err
	}()
	<-src.started

	type result struct {
		series []timeline.Series
		err    error
	}
	second := make(chan result, 1)
	go func() {
		series, err := s.series(context.Background(), timeline.NodeCount)
		second <- result{series, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	res := <-second
	require.NoError(t, res.err)
	require.Len(t, res.series, 2)
	assert.Equal(t, []float64{2, 4}, res.series[0].Values)

	s.mu.RLock()
	_, cached := s.cache[timeline.NodeCount.Name]
	s.mu.RUnlock()
	assert.True(t, cached)
}

func TestGetSeriesUnknownMetric(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := get(t, s.Handler(), "/api/v1/series/betweenness")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode(t, rec, nil)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "betweenness")
}

func TestGetSeriesMissingFile(t *testing.T) {
	s, _, dir := newTestServer(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "disease_2001.edgelist")))
	rec := get(t, s.Handler(), "/api/v1/series/density")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetLayout(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Handler()

	var l struct {
		Nodes []struct {
			Keyword string  `json:"keyword"`
			X       float64 `json:"x"`
		} `json:"nodes"`
		Edges [][2]string `json:"edges"`
	}
	rec := get(t, h, "/api/v1/layout/gene/2001")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &l)
	assert.Len(t, l.Nodes, 4)
	assert.Equal(t, "b", l.Nodes[0].Keyword)
	assert.Len(t, l.Edges, 2)

	rec = get(t, h, "/api/v1/layout/gene/2001?top=2")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &l)
	assert.Len(t, l.Nodes, 2)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/layout/gene/2001?top=x").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/layout/protein/2001").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/layout/gene/1990").Code)
}

func TestGetPlot(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Handler()

	rec := get(t, h, "/plots/graph_size.png")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, h, "/plots/density.png").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/plots/.hidden").Code)
}

func TestCORS(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := get(t, h, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, decode(t, rec, nil).Success)
}
