package layout

import (
	"errors"
	"math"
	"testing"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/kwgraph"
)

func star(leaves ...string) *kwgraph.Graph {
	g := kwgraph.New()
	for _, l := range leaves {
		g.AddEdge("hub", l)
	}
	return g
}

func TestComputeRanksHubFirst(t *testing.T) {
	g := star("a", "b", "c", "d")
	l, err := Compute(g, DefaultOptions())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(l.Nodes) != 5 {
		t.Fatalf("expected 5 nodes, got %d", len(l.Nodes))
	}
	if l.Nodes[0].Keyword != "hub" {
		t.Errorf("expected hub first, got %s", l.Nodes[0].Keyword)
	}
	if l.Nodes[0].Radius != DefaultOptions().MaxRadius {
		t.Errorf("expected hub radius %v, got %v", DefaultOptions().MaxRadius, l.Nodes[0].Radius)
	}
	if len(l.Edges) != 4 {
		t.Errorf("expected 4 edges, got %d", len(l.Edges))
	}
}

func TestComputeTop(t *testing.T) {
	opts := DefaultOptions()
	opts.Top = 1
	l, err := Compute(star("a", "b"), opts)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(l.Nodes) != 1 || l.Nodes[0].Keyword != "hub" {
		t.Fatalf("expected only hub, got %+v", l.Nodes)
	}
	if l.Nodes[0].X != 0 || l.Nodes[0].Y != 0 {
		t.Errorf("single keyword should sit at the origin, got (%v, %v)", l.Nodes[0].X, l.Nodes[0].Y)
	}
	if len(l.Edges) != 0 {
		t.Errorf("expected no edges, got %v", l.Edges)
	}
}

func TestComputePathIsLine(t *testing.T) {
	g := kwgraph.New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")

	l, err := Compute(g, DefaultOptions())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	x := make(map[string]float64)
	for _, n := range l.Nodes {
		x[n.Keyword] = n.X
	}
	if math.Abs(x["b"]) > 1e-6 {
		t.Errorf("middle keyword should be centred, got x=%v", x["b"])
	}
	if math.Abs(math.Abs(x["a"]-x["c"])-200) > 1e-6 {
		t.Errorf("end keywords should span the extent, got %v and %v", x["a"], x["c"])
	}
}

func TestComputeDisconnected(t *testing.T) {
	g := kwgraph.New()
	g.AddEdge("a", "b")
	g.AddEdge("x", "y")
	l, err := Compute(g, DefaultOptions())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	for _, n := range l.Nodes {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) {
			t.Errorf("%s has no position", n.Keyword)
		}
	}
}

func TestComputeEmpty(t *testing.T) {
	if _, err := Compute(kwgraph.New(), DefaultOptions()); !errors.Is(err, ErrEmptyGraph) {
		t.Errorf("expected ErrEmptyGraph, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	got := normalize([]float64{2, 4, 6}, 0.5)
	want := []float64{0, 0.5, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("normalize[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if flat := normalize([]float64{3, 3}, 0.5); flat[0] != 0.5 || flat[1] != 0.5 {
		t.Errorf("constant input should map to 0.5, got %v", flat)
	}
}
