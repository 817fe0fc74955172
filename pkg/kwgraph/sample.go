package kwgraph

import (
	"errors"
	"fmt"
	"math/rand"
)

// SampleResult is the outcome of SampleShortestPaths.
type SampleResult struct {
	// Average shortest path length, -1 when no pair was measured.
	Average float64
	// Pairs is the number of keyword pairs measured.
	Pairs int
	// Exhaustive is set when every non-adjacent pair was used.
	Exhaustive bool
}

// SampleShortestPaths estimates the mean shortest path length between
// keywords that are not directly connected. g must be connected.
//
// When numSamples reaches the number of possible edges every ordered pair of
// distinct, non-adjacent keywords is measured instead of sampling.
func SampleShortestPaths(g *Graph, numSamples int, rng *rand.Rand) (SampleResult, error) {
	nodes := g.Nodes()
	n := len(nodes)

	var lengths []int
	res := SampleResult{Average: -1}

	if numSamples >= MaxEdges(n) {
		res.Exhaustive = true
		for _, n1 := range nodes {
			dist := distancesFrom(g, n1)
			for _, n2 := range nodes {
				if n1 == n2 || g.HasEdge(n1, n2) {
					continue
				}
				d, ok := dist[n2]
				if !ok {
					return res, fmt.Errorf("sampling requires a connected graph: %w: %s - %s", ErrNoPath, n1, n2)
				}
				lengths = append(lengths, d)
			}
		}
	} else if g.EdgeCount() < MaxEdges(n) {
		for i := 0; i < numSamples; i++ {
			n1, n2 := drawPair(nodes, rng)
			for g.HasEdge(n1, n2) {
				n1, n2 = drawPair(nodes, rng)
			}
			d, err := ShortestPathLength(g, n1, n2)
			if err != nil {
				if errors.Is(err, ErrNoPath) {
					return res, fmt.Errorf("sampling requires a connected graph: %w", err)
				}
				return res, err
			}
			lengths = append(lengths, d)
		}
	}

	res.Pairs = len(lengths)
	if len(lengths) == 0 {
		return res, nil
	}
	sum := 0
	for _, l := range lengths {
		sum += l
	}
	res.Average = float64(sum) / float64(len(lengths))
	return res, nil
}

// drawPair picks two distinct keywords uniformly without replacement.
func drawPair(nodes []string, rng *rand.Rand) (string, string) {
	i := rng.Intn(len(nodes))
	j := rng.Intn(len(nodes) - 1)
	if j >= i {
		j++
	}
	return nodes[i], nodes[j]
}
