// Package layout places the most central keywords of a graph in the plane.
//
// Keywords are ranked by PageRank and the top ones are positioned with
// classical multidimensional scaling of their shortest path distances.
package layout

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/mds"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/kwgraph"
)

// ErrEmptyGraph is returned when there is nothing to lay out.
var ErrEmptyGraph = errors.New("graph has no keywords")

// Options control the layout.
type Options struct {
	Top         int     // keywords kept, by PageRank
	Damping     float64 // PageRank damping factor
	Tolerance   float64 // PageRank convergence tolerance
	MaxDistance float64 // distance used between unconnected keywords
	Extent      float64 // coordinates are scaled to [-Extent, Extent]
	MinRadius   float64
	MaxRadius   float64
}

// DefaultOptions returns the standard layout parameters.
func DefaultOptions() Options {
	return Options{
		Top:         50,
		Damping:     0.85,
		Tolerance:   1e-6,
		MaxDistance: 10,
		Extent:      100,
		MinRadius:   3,
		MaxRadius:   20,
	}
}

// Node is a placed keyword. Radius grows with PageRank.
type Node struct {
	Keyword  string  `json:"keyword"`
	PageRank float64 `json:"pagerank"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"radius"`
}

// Layout holds the placed keywords, highest PageRank first, and the edges
// between them.
type Layout struct {
	Nodes []Node      `json:"nodes"`
	Edges [][2]string `json:"edges"`
}

// Compute lays out the Top keywords of g.
func Compute(g *kwgraph.Graph, opts Options) (*Layout, error) {
	keywords := g.Nodes()
	if len(keywords) == 0 {
		return nil, ErrEmptyGraph
	}

	directed, index := toDirected(g, keywords)
	scores := network.PageRank(directed, opts.Damping, opts.Tolerance)

	top := make([]string, len(keywords))
	copy(top, keywords)
	sort.SliceStable(top, func(i, j int) bool {
		return scores[index[top[i]]] > scores[index[top[j]]]
	})
	if opts.Top > 0 && len(top) > opts.Top {
		top = top[:opts.Top]
	}

	coords, err := scale(directed, index, top, opts.MaxDistance)
	if err != nil {
		return nil, err
	}

	xs := make([]float64, len(top))
	ys := make([]float64, len(top))
	ranks := make([]float64, len(top))
	for i, kw := range top {
		xs[i], ys[i] = coords.At(i, 0), coords.At(i, 1)
		ranks[i] = scores[index[kw]]
	}
	xs = normalize(xs, 0.5)
	ys = normalize(ys, 0.5)
	radii := normalize(ranks, 1)

	l := &Layout{Nodes: make([]Node, len(top))}
	for i, kw := range top {
		l.Nodes[i] = Node{
			Keyword:  kw,
			PageRank: ranks[i],
			X:        -opts.Extent + 2*opts.Extent*xs[i],
			Y:        -opts.Extent + 2*opts.Extent*ys[i],
			Radius:   opts.MinRadius + radii[i]*(opts.MaxRadius-opts.MinRadius),
		}
	}
	for i := range top {
		for j := i + 1; j < len(top); j++ {
			if g.HasEdge(top[i], top[j]) {
				l.Edges = append(l.Edges, [2]string{top[i], top[j]})
			}
		}
	}
	return l, nil
}

// toDirected mirrors every undirected edge in both directions so that
// PageRank sees a symmetric walk.
func toDirected(g *kwgraph.Graph, keywords []string) (*simple.DirectedGraph, map[string]int64) {
	directed := simple.NewDirectedGraph()
	index := make(map[string]int64, len(keywords))
	for i, kw := range keywords {
		index[kw] = int64(i)
		directed.AddNode(simple.Node(i))
	}
	for _, kw := range keywords {
		for _, nb := range g.Neighbors(kw) {
			directed.SetEdge(simple.Edge{F: simple.Node(index[kw]), T: simple.Node(index[nb])})
		}
	}
	return directed, index
}

// scale returns an n×2 matrix of Torgerson coordinates for keywords.
func scale(g *simple.DirectedGraph, index map[string]int64, keywords []string, maxDistance float64) (*mat.Dense, error) {
	n := len(keywords)
	out := mat.NewDense(n, 2, nil)
	if n == 1 {
		return out, nil
	}

	dist := mat.NewSymDense(n, nil)
	for i, kw := range keywords {
		depth := make(map[int64]int)
		var bf traverse.BreadthFirst
		bf.Walk(g, simple.Node(index[kw]), func(v graph.Node, d int) bool {
			depth[v.ID()] = d
			return false
		})
		for j := i + 1; j < n; j++ {
			d, ok := depth[index[keywords[j]]]
			if ok {
				dist.SetSym(i, j, float64(d))
			} else {
				dist.SetSym(i, j, maxDistance)
			}
		}
	}

	var coords mat.Dense
	k, _ := mds.TorgersonScaling(&coords, make([]float64, n), dist)
	if k == 0 || coords.IsEmpty() {
		return nil, fmt.Errorf("multidimensional scaling of %d keywords failed", n)
	}
	_, cols := coords.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < cols && j < 2; j++ {
			out.Set(i, j, coords.At(i, j))
		}
	}
	return out, nil
}

// normalize maps values linearly onto [0,1]. Constant input maps to flat.
func normalize(values []float64, flat float64) []float64 {
	if len(values) == 0 {
		return values
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	out := make([]float64, len(values))
	for i, v := range values {
		if hi == lo {
			out[i] = flat
		} else {
			out[i] = (v - lo) / (hi - lo)
		}
	}
	return out
}
