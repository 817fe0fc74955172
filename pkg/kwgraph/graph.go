package kwgraph

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

var (
	// ErrUnknownNode is returned when a keyword is not part of the graph.
	ErrUnknownNode = errors.New("keyword not in graph")
	// ErrNoPath is returned when two keywords lie in different components.
	ErrNoPath = errors.New("no path between keywords")
)

// Graph is an undirected keyword co-occurrence graph. Nodes are keyword
// identifiers; gonum holds the structure and Graph keeps the id mapping.
type Graph struct {
	g     *simple.UndirectedGraph
	ids   map[string]int64
	names map[int64]string
	edges int
}

// New creates an empty keyword graph
func New() *Graph {
	return &Graph{
		g:     simple.NewUndirectedGraph(),
		ids:   make(map[string]int64),
		names: make(map[int64]string),
	}
}

// AddNode adds a keyword if it is not present and returns its internal id.
func (g *Graph) AddNode(keyword string) int64 {
	if id, ok := g.ids[keyword]; ok {
		return id
	}
	n := g.g.NewNode()
	g.g.AddNode(n)
	g.ids[keyword] = n.ID()
	g.names[n.ID()] = keyword
	return n.ID()
}

// AddEdge connects two keywords. A self-loop only adds the node.
func (g *Graph) AddEdge(a, b string) {
	u := g.AddNode(a)
	if a == b {
		return
	}
	v := g.AddNode(b)
	if g.g.HasEdgeBetween(u, v) {
		return
	}
	g.g.SetEdge(simple.Edge{F: simple.Node(u), T: simple.Node(v)})
	g.edges++
}

func (g *Graph) HasNode(keyword string) bool {
	_, ok := g.ids[keyword]
	return ok
}

func (g *Graph) HasEdge(a, b string) bool {
	u, ok := g.ids[a]
	if !ok {
		return false
	}
	v, ok := g.ids[b]
	if !ok {
		return false
	}
	return g.g.HasEdgeBetween(u, v)
}

func (g *Graph) NodeCount() int { return len(g.ids) }
func (g *Graph) EdgeCount() int { return g.edges }

// Nodes returns all keywords in lexical order.
func (g *Graph) Nodes() []string {
	nodes := make([]string, 0, len(g.ids))
	for k := range g.ids {
		nodes = append(nodes, k)
	}
	sort.Strings(nodes)
	return nodes
}

// Neighbors returns the keywords adjacent to keyword in lexical order.
func (g *Graph) Neighbors(keyword string) []string {
	id, ok := g.ids[keyword]
	if !ok {
		return nil
	}
	return g.keywords(graph.NodesOf(g.g.From(id)))
}

// Degree returns the number of neighbours of keyword.
func (g *Graph) Degree(keyword string) int {
	id, ok := g.ids[keyword]
	if !ok {
		return 0
	}
	return g.g.From(id).Len()
}

// Subgraph returns the graph induced by the given keywords.
func (g *Graph) Subgraph(keywords []string) *Graph {
	sub := New()
	keep := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		if g.HasNode(k) {
			keep[k] = true
			sub.AddNode(k)
		}
	}
	for k := range keep {
		for _, nb := range g.Neighbors(k) {
			if keep[nb] {
				sub.AddEdge(k, nb)
			}
		}
	}
	return sub
}

func (g *Graph) keywords(nodes []graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = g.names[n.ID()]
	}
	sort.Strings(out)
	return out
}
