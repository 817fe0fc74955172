package kwgraph

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// MaxEdges returns the number of edges of a complete graph on n nodes.
func MaxEdges(n int) int {
	return n * (n - 1) / 2
}

// Density is 2E / (N(N-1)): 0 without edges, 1 for a complete graph.
func Density(g *Graph) float64 {
	n := g.NodeCount()
	if n < 2 {
		return 0
	}
	return float64(2*g.EdgeCount()) / float64(n*(n-1))
}

// LocalClustering is the fraction of pairs of neighbours of keyword that are
// themselves connected. Keywords with fewer than two neighbours score 0.
func LocalClustering(g *Graph, keyword string) float64 {
	nbs := g.Neighbors(keyword)
	k := len(nbs)
	if k < 2 {
		return 0
	}
	links := 0
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			if g.HasEdge(nbs[i], nbs[j]) {
				links++
			}
		}
	}
	return float64(2*links) / float64(k*(k-1))
}

// AverageClustering is the mean local clustering coefficient over all nodes.
func AverageClustering(g *Graph) float64 {
	n := g.NodeCount()
	if n == 0 {
		return 0
	}
	sum := 0.0
	for k := range g.ids {
		sum += LocalClustering(g, k)
	}
	return sum / float64(n)
}

// ConnectedComponents returns the components largest first. Members are
// sorted; equally sized components are ordered by their first member.
func ConnectedComponents(g *Graph) [][]string {
	raw := topo.ConnectedComponents(g.g)
	comps := make([][]string, len(raw))
	for i, c := range raw {
		comps[i] = g.keywords(c)
	}
	sort.Slice(comps, func(i, j int) bool {
		if len(comps[i]) != len(comps[j]) {
			return len(comps[i]) > len(comps[j])
		}
		return comps[i][0] < comps[j][0]
	})
	return comps
}

// LargestComponent returns the members of the largest component, nil for an empty graph.
func LargestComponent(g *Graph) []string {
	comps := ConnectedComponents(g)
	if len(comps) == 0 {
		return nil
	}
	return comps[0]
}

// HasPath reports whether a and b are in the same component.
func HasPath(g *Graph, a, b string) bool {
	u, ok := g.ids[a]
	if !ok {
		return false
	}
	v, ok := g.ids[b]
	if !ok {
		return false
	}
	return topo.PathExistsIn(g.g, g.g.Node(u), g.g.Node(v))
}

// ShortestPathLength returns the number of hops between a and b.
func ShortestPathLength(g *Graph, a, b string) (int, error) {
	u, ok := g.ids[a]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownNode, a)
	}
	v, ok := g.ids[b]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownNode, b)
	}

	length := -1
	var bf traverse.BreadthFirst
	bf.Walk(g.g, g.g.Node(u), func(n graph.Node, d int) bool {
		if n.ID() == v {
			length = d
			return true
		}
		return false
	})
	if length < 0 {
		return 0, fmt.Errorf("%w: %s - %s", ErrNoPath, a, b)
	}
	return length, nil
}

// distancesFrom returns the hop distance from keyword to every reachable node.
func distancesFrom(g *Graph, keyword string) map[string]int {
	dist := make(map[string]int)
	u, ok := g.ids[keyword]
	if !ok {
		return dist
	}
	var bf traverse.BreadthFirst
	bf.Walk(g.g, g.g.Node(u), func(n graph.Node, d int) bool {
		dist[g.names[n.ID()]] = d
		return false
	})
	return dist
}

// CommunityResult summarises a Louvain partition of the keyword graph.
type CommunityResult struct {
	Communities [][]string
	Modularity  float64
}

// Communities partitions g with gonum's Louvain implementation, drawing
// node order from src. A nil src uses the global generator. Graphs without
// edges keep every keyword in its own community.
func Communities(g *Graph, src rand.Source) CommunityResult {
	if g.EdgeCount() == 0 {
		res := CommunityResult{}
		for _, k := range g.Nodes() {
			res.Communities = append(res.Communities, []string{k})
		}
		return res
	}

	reduced := community.Modularize(g.g, 1, src)
	raw := reduced.Communities()
	res := CommunityResult{
		Communities: make([][]string, 0, len(raw)),
		Modularity:  community.Q(g.g, raw, 1),
	}
	for _, c := range raw {
		if len(c) == 0 {
			continue
		}
		res.Communities = append(res.Communities, g.keywords(c))
	}
	sort.Slice(res.Communities, func(i, j int) bool {
		if len(res.Communities[i]) != len(res.Communities[j]) {
			return len(res.Communities[i]) > len(res.Communities[j])
		}
		return res.Communities[i][0] < res.Communities[j][0]
	})
	return res
}
