package timeline

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type dirSource struct{ dir string }

func (d dirSource) GraphFile(category string, year int) string {
	return filepath.Join(d.dir, fmt.Sprintf("KWgraph_%s_%d.edgelist", category, year))
}

func writeYears(t *testing.T, src dirSource, category string, files map[int]string) {
	t.Helper()
	for year, content := range files {
		if err := os.WriteFile(src.GraphFile(category, year), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}
	}
}

func newFixture(t *testing.T) dirSource {
	src := dirSource{dir: t.TempDir()}
	writeYears(t, src, "gene", map[int]string{
		2000: "a b\nc c\n",
		2001: "b c\n",
		2002: "a c\nd e\n",
	})
	writeYears(t, src, "disease", map[int]string{
		2000: "x y\n",
		2001: "",
		2002: "y z\n",
	})
	return src
}

func TestEvolveAccumulates(t *testing.T) {
	src := newFixture(t)
	series, err := Evolve(context.Background(), src, "gene", []int{2000, 2001, 2002},
		[]Metric{NodeCount, EdgeCount, Density, Clustering}, 1, zerolog.Nop())
	if err != nil {
		t.Fatalf("Evolve failed: %v", err)
	}
	if len(series) != 4 {
		t.Fatalf("got %d series, want 4", len(series))
	}

	want := map[string][]float64{
		"graph_size":       {3, 3, 5},
		"edges":            {1, 2, 4},
		"density":          {2.0 / 6.0, 4.0 / 6.0, 8.0 / 20.0},
		"edges_clustering": {0, 0, 3.0 / 5.0},
	}
	for _, s := range series {
		exp := want[s.Metric]
		if len(s.Values) != len(exp) {
			t.Fatalf("%s: got %d values, want %d", s.Metric, len(s.Values), len(exp))
		}
		for i := range exp {
			if math.Abs(s.Values[i]-exp[i]) > 1e-9 {
				t.Errorf("%s[%d] = %f, want %f", s.Metric, s.Years[i], s.Values[i], exp[i])
			}
		}
		if s.Category != "gene" {
			t.Errorf("Category = %s", s.Category)
		}
	}
}

func TestEvolveMissingYear(t *testing.T) {
	src := newFixture(t)
	_, err := Evolve(context.Background(), src, "gene", []int{2000, 2003}, []Metric{NodeCount}, 1, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for missing year file")
	}
}

func TestEvolveAllKeepsCategoryOrder(t *testing.T) {
	src := newFixture(t)
	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			all, err := EvolveAll(context.Background(), src, []string{"gene", "disease"},
				[]int{2000, 2001, 2002}, []Metric{NodeCount}, Options{Parallel: parallel, Workers: 2}, zerolog.Nop())
			if err != nil {
				t.Fatalf("EvolveAll failed: %v", err)
			}
			series := all[0]
			if series[0].Category != "gene" || series[1].Category != "disease" {
				t.Fatalf("unexpected order: %s, %s", series[0].Category, series[1].Category)
			}
			if got := series[1].Values; got[0] != 2 || got[1] != 2 || got[2] != 3 {
				t.Errorf("disease node counts = %v, want [2 2 3]", got)
			}
		})
	}
}

type countingSource struct {
	dirSource
	mu    sync.Mutex
	calls int
}

func (c *countingSource) GraphFile(category string, year int) string {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.dirSource.GraphFile(category, year)
}

func TestEvolveAllReadsOncePerYear(t *testing.T) {
	src := &countingSource{dirSource: newFixture(t)}
	years := []int{2000, 2001, 2002}
	all, err := EvolveAll(context.Background(), src, []string{"gene", "disease"}, years,
		[]Metric{CommunityCount, Modularity, NodeCount}, Options{Seed: 3}, zerolog.Nop())
	if err != nil {
		t.Fatalf("EvolveAll failed: %v", err)
	}
	if src.calls != 2*len(years) {
		t.Errorf("read %d edge lists, want %d", src.calls, 2*len(years))
	}
	if len(all) != 3 {
		t.Fatalf("got %d metrics, want 3", len(all))
	}
	for m, name := range []string{"communities", "modularity", "graph_size"} {
		if all[m][0].Metric != name || all[m][1].Category != "disease" {
			t.Errorf("result %d = %s/%s, want %s/disease", m, all[m][0].Metric, all[m][1].Category, name)
		}
	}
	// gene in 2002: {a,b,c} and {d,e}
	if got := all[0][0].Values[2]; got != 2 {
		t.Errorf("gene communities in 2002 = %v, want 2", got)
	}
}

func TestEvolveCommunitiesSeeded(t *testing.T) {
	src := dirSource{dir: t.TempDir()}
	var b strings.Builder
	for c := 0; c < 6; c++ {
		for i := 0; i < 5; i++ {
			for j := i + 1; j < 5; j++ {
				fmt.Fprintf(&b, "c%d_%d c%d_%d\n", c, i, c, j)
			}
		}
		fmt.Fprintf(&b, "c%d_0 c%d_4\n", c, (c+1)%6)
	}
	writeYears(t, src, "gene", map[int]string{2000: b.String()})

	first, err := Evolve(context.Background(), src, "gene", []int{2000}, []Metric{CommunityCount, Modularity}, 11, zerolog.Nop())
	if err != nil {
		t.Fatalf("Evolve failed: %v", err)
	}
	for run := 0; run < 5; run++ {
		again, err := Evolve(context.Background(), src, "gene", []int{2000}, []Metric{CommunityCount, Modularity}, 11, zerolog.Nop())
		if err != nil {
			t.Fatalf("Evolve failed: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d: same seed gave %v, want %v", run, again, first)
		}
	}
}

func TestEvolveCancelled(t *testing.T) {
	src := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Evolve(ctx, src, "gene", []int{2000}, []Metric{NodeCount}, 1, zerolog.Nop()); err == nil {
		t.Fatal("expected context error")
	}
}

func TestShortestPathSeries(t *testing.T) {
	src := dirSource{dir: t.TempDir()}
	writeYears(t, src, "gene", map[int]string{
		// empty year is skipped
		2000: "q q\n",
		// path a-b-c-d plus a separate edge: largest component is the path
		2001: "a b\nb c\nc d\nx y\n",
		// triangle only: no unconnected pair, skipped
		2002: "a b\nb c\nc a\n",
	})

	s, err := ShortestPathSeries(context.Background(), src, "gene", []int{2000, 2001, 2002}, 1000,
		rand.New(rand.NewSource(1)), zerolog.Nop())
	if err != nil {
		t.Fatalf("ShortestPathSeries failed: %v", err)
	}
	if len(s.Years) != 1 || s.Years[0] != 2001 {
		t.Fatalf("Years = %v, want [2001]", s.Years)
	}
	if math.Abs(s.Values[0]-7.0/3.0) > 1e-9 {
		t.Errorf("average = %f, want %f", s.Values[0], 7.0/3.0)
	}
}

func TestShortestPathAll(t *testing.T) {
	src := dirSource{dir: t.TempDir()}
	writeYears(t, src, "gene", map[int]string{2001: "a b\nb c\n"})
	writeYears(t, src, "disease", map[int]string{2001: "a b\nb c\nc d\n"})

	series, err := ShortestPathAll(context.Background(), src, []string{"gene", "disease"}, []int{2001}, 100, 1,
		Options{Parallel: true, Workers: 2}, zerolog.Nop())
	if err != nil {
		t.Fatalf("ShortestPathAll failed: %v", err)
	}
	if series[0].Values[0] != 2 {
		t.Errorf("gene average = %f, want 2", series[0].Values[0])
	}
	if math.Abs(series[1].Values[0]-7.0/3.0) > 1e-9 {
		t.Errorf("disease average = %f, want %f", series[1].Values[0], 7.0/3.0)
	}
}

func TestLookupMetric(t *testing.T) {
	for _, name := range MetricNames() {
		m, err := LookupMetric(name)
		if err != nil {
			t.Errorf("LookupMetric(%s) failed: %v", name, err)
		}
		if m.Label == "" {
			t.Errorf("metric %s has no label", name)
		}
	}
	if _, err := LookupMetric("betweenness"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestAccumulate(t *testing.T) {
	src := newFixture(t)
	g, err := Accumulate(context.Background(), src, "gene", []int{2000, 2001})
	if err != nil {
		t.Fatalf("Accumulate failed: %v", err)
	}
	if g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Errorf("got %d nodes and %d edges, want 3 and 2", g.NodeCount(), g.EdgeCount())
	}
	if _, err := Accumulate(context.Background(), src, "gene", []int{1999}); err == nil {
		t.Error("expected error for missing year")
	}
}
