package connection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/corpus"
	"github.com/gilchrisn/keyword-graph-evolution/pkg/kwgraph"
)

// Pair is an unordered keyword pair.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// GraphSource locates yearly edge lists and new connection lists.
type GraphSource interface {
	GraphFile(category string, year int) string
	NewConnectionFile(category string, year int) string
}

// ReadNewConnections reads lines "keyword t1,t2,..." into pairs. Lines
// starting with '#' are comments.
func ReadNewConnections(r io.Reader) ([]Pair, error) {
	var pairs []Pair
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		for _, target := range corpus.SplitKeywordIDs(fields[1]) {
			pairs = append(pairs, Pair{A: fields[0], B: target})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read new connections: %w", err)
	}
	return pairs, nil
}

// ReadNewConnectionFile reads the connections a category gains in year.
func ReadNewConnectionFile(src GraphSource, category string, year int) ([]Pair, error) {
	path := src.NewConnectionFile(category, year)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open new connection file: %w", err)
	}
	defer file.Close()
	return ReadNewConnections(file)
}

// SampleConnected picks n pairs without replacement. A negative n keeps all pairs.
func SampleConnected(pairs []Pair, n int, rng *rand.Rand) ([]Pair, error) {
	if n < 0 {
		return pairs, nil
	}
	if n > len(pairs) {
		return nil, fmt.Errorf("cannot sample %d of %d connections", n, len(pairs))
	}
	out := make([]Pair, n)
	for i, idx := range rng.Perm(len(pairs))[:n] {
		out[i] = pairs[idx]
	}
	return out, nil
}

// ErrNotEnoughPairs is returned when a graph has fewer candidate pairs than requested.
var ErrNotEnoughPairs = errors.New("not enough unconnected keyword pairs")

// SampleUnconnected draws n distinct unordered pairs of keywords of next
// that are not adjacent in next. next is the graph of the year after the
// observed one, so the pairs neither are nor become connected in that year.
func SampleUnconnected(next *kwgraph.Graph, n int, rng *rand.Rand) ([]Pair, error) {
	nodes := next.Nodes()
	available := kwgraph.MaxEdges(len(nodes)) - next.EdgeCount()
	if n > available {
		return nil, fmt.Errorf("%w: want %d, graph has %d", ErrNotEnoughPairs, n, available)
	}

	seen := make(map[Pair]bool, n)
	out := make([]Pair, 0, n)
	for len(out) < n {
		a := nodes[rng.Intn(len(nodes))]
		b := nodes[rng.Intn(len(nodes))]
		if a == b || seen[Pair{A: a, B: b}] || seen[Pair{A: b, B: a}] || next.HasEdge(a, b) {
			continue
		}
		seen[Pair{A: a, B: b}] = true
		out = append(out, Pair{A: a, B: b})
	}
	return out, nil
}

// Distance classes of a tracked pair within one year.
const (
	NotInGraph  = 0
	Unconnected = 1
	firstHop    = 2
)

// DistanceLabels names the states of every year: "not in graph",
// "unconnected", "0".."threshold-1", ">=threshold", each suffixed with the year.
// It also returns the number of states per year.
func DistanceLabels(years []int, threshold int) ([]string, int) {
	states := []string{"not in graph", "unconnected"}
	for i := 0; i < threshold; i++ {
		states = append(states, strconv.Itoa(i))
	}
	states = append(states, ">="+strconv.Itoa(threshold))

	labels := make([]string, 0, len(years)*len(states))
	for _, y := range years {
		for _, s := range states {
			labels = append(labels, fmt.Sprintf("%s : %d", s, y))
		}
	}
	return labels, len(states)
}

// Classify returns the distance class of a pair in g.
func Classify(g *kwgraph.Graph, p Pair, threshold int) int {
	if !g.HasNode(p.A) || !g.HasNode(p.B) {
		return NotInGraph
	}
	d, err := kwgraph.ShortestPathLength(g, p.A, p.B)
	if err != nil {
		return Unconnected
	}
	if d < threshold {
		return firstHop + d
	}
	return firstHop + threshold
}

// TrackPairs follows each pair through the yearly graphs. The result holds,
// per pair, the label index (see DistanceLabels) of its state in every year.
func TrackPairs(ctx context.Context, src GraphSource, category string, years []int, pairs []Pair, threshold int, logger zerolog.Logger) ([][]int, error) {
	_, perYear := DistanceLabels(nil, threshold)
	states := make([][]int, len(pairs))
	for i := range states {
		states[i] = make([]int, 0, len(years))
	}

	for yi, year := range years {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g, _, err := kwgraph.BuildGraph(src.GraphFile(category, year), nil, kwgraph.DefaultLoadOptions())
		if err != nil {
			return nil, fmt.Errorf("category %s, year %d: %w", category, year, err)
		}
		for pi, p := range pairs {
			states[pi] = append(states[pi], yi*perYear+Classify(g, p, threshold))
		}
		logger.Info().Int("year", year).Int("nodes", g.NodeCount()).Msg("pairs classified")
	}
	return states, nil
}

// Sankey is a flow diagram between labelled states.
type Sankey struct {
	Title  string   `json:"title"`
	Labels []string `json:"labels"`
	Source []int    `json:"source"`
	Target []int    `json:"target"`
	Value  []int    `json:"value"`
}

// BuildSankey counts the transitions between consecutive states of all
// pairs. Links appear in the order they are first seen.
func BuildSankey(states [][]int, labels []string) Sankey {
	s := Sankey{Labels: labels}
	index := make(map[[2]int]int)
	for _, path := range states {
		for i := 0; i+1 < len(path); i++ {
			key := [2]int{path[i], path[i+1]}
			pos, ok := index[key]
			if !ok {
				pos = len(s.Value)
				index[key] = pos
				s.Source = append(s.Source, key[0])
				s.Target = append(s.Target, key[1])
				s.Value = append(s.Value, 0)
			}
			s.Value[pos]++
		}
	}
	return s
}
