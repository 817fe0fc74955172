package timeline

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/kwgraph"
)

// Snapshot is the accumulated graph of a category after one merged year.
// Derived structures shared by several metrics are computed once.
type Snapshot struct {
	Graph *kwgraph.Graph
	Year  int

	src         rand.Source
	communities *kwgraph.CommunityResult
}

// NewSnapshot wraps g as the state after year. Community detection draws
// from a generator seeded by seed and year.
func NewSnapshot(g *kwgraph.Graph, year int, seed int64) *Snapshot {
	return &Snapshot{
		Graph: g,
		Year:  year,
		src:   rand.NewPCG(uint64(seed), uint64(year)),
	}
}

// Communities returns the Louvain partition of the snapshot graph.
func (s *Snapshot) Communities() kwgraph.CommunityResult {
	if s.communities == nil {
		res := kwgraph.Communities(s.Graph, s.src)
		s.communities = &res
	}
	return *s.communities
}

// Metric measures a keyword graph after each merged year.
type Metric struct {
	Name    string
	Label   string // y axis label
	Measure func(*Snapshot) float64
}

func graphMetric(f func(*kwgraph.Graph) float64) func(*Snapshot) float64 {
	return func(s *Snapshot) float64 { return f(s.Graph) }
}

var (
	NodeCount = Metric{
		Name:  "graph_size",
		Label: "Nodes in the keyword graph",
		Measure: func(s *Snapshot) float64 {
			return float64(s.Graph.NodeCount())
		},
	}

	EdgeCount = Metric{
		Name:  "edges",
		Label: "Edges in the keyword graph",
		Measure: func(s *Snapshot) float64 {
			return float64(s.Graph.EdgeCount())
		},
	}

	Density = Metric{
		Name:    "density",
		Label:   "Density",
		Measure: graphMetric(kwgraph.Density),
	}

	Clustering = Metric{
		Name:    "edges_clustering",
		Label:   "Average clustering coefficient",
		Measure: graphMetric(kwgraph.AverageClustering),
	}

	ComponentCount = Metric{
		Name:  "components",
		Label: "Connected components",
		Measure: graphMetric(func(g *kwgraph.Graph) float64 {
			return float64(len(kwgraph.ConnectedComponents(g)))
		}),
	}

	LargestComponentShare = Metric{
		Name:  "largest_component_share",
		Label: "Share of keywords in the largest component",
		Measure: graphMetric(func(g *kwgraph.Graph) float64 {
			if g.NodeCount() == 0 {
				return 0
			}
			return float64(len(kwgraph.LargestComponent(g))) / float64(g.NodeCount())
		}),
	}

	CommunityCount = Metric{
		Name:  "communities",
		Label: "Louvain communities",
		Measure: func(s *Snapshot) float64 {
			return float64(len(s.Communities().Communities))
		},
	}

	Modularity = Metric{
		Name:  "modularity",
		Label: "Modularity of the Louvain partition",
		Measure: func(s *Snapshot) float64 {
			return s.Communities().Modularity
		},
	}
)

// ErrUnknownMetric is returned by LookupMetric for unregistered names.
var ErrUnknownMetric = errors.New("unknown metric")

var registry = map[string]Metric{}

func init() {
	for _, m := range []Metric{NodeCount, EdgeCount, Density, Clustering, ComponentCount, LargestComponentShare, CommunityCount, Modularity} {
		registry[m.Name] = m
	}
}

// LookupMetric returns the metric registered under name.
func LookupMetric(name string) (Metric, error) {
	m, ok := registry[name]
	if !ok {
		return Metric{}, fmt.Errorf("%w %q", ErrUnknownMetric, name)
	}
	return m, nil
}

// MetricNames lists the registered metrics in lexical order.
func MetricNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
