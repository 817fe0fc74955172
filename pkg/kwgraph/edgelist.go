package kwgraph

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadOptions controls how an edge list is merged into a graph.
type LoadOptions struct {
	// AddIsolated adds the node of a self-loop line ("a a"). Edge list files
	// mark isolated keywords this way.
	AddIsolated bool
}

// DefaultLoadOptions includes isolated keywords.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{AddIsolated: true}
}

// LoadEdgeList merges whitespace separated keyword pairs from r into g.
// A nil g starts a new graph. Self-loops are never stored as edges; they are
// counted and returned as the number of isolated entries.
func LoadEdgeList(r io.Reader, g *Graph, opts LoadOptions) (*Graph, int, error) {
	if g == nil {
		g = New()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	isolated := 0
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if fields[0] == fields[1] {
			if opts.AddIsolated {
				g.AddNode(fields[0])
			}
			isolated++
			continue
		}
		g.AddEdge(fields[0], fields[1])
	}
	if err := scanner.Err(); err != nil {
		return g, isolated, fmt.Errorf("failed to read edge list: %w", err)
	}

	return g, isolated, nil
}

// BuildGraph merges the edge list file at path into g (or a new graph).
func BuildGraph(path string, g *Graph, opts LoadOptions) (*Graph, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return g, 0, fmt.Errorf("failed to open edge list: %w", err)
	}
	defer file.Close()

	g, isolated, err := LoadEdgeList(file, g, opts)
	if err != nil {
		return g, isolated, fmt.Errorf("%s: %w", path, err)
	}
	return g, isolated, nil
}

// WriteEdgeList writes g in the edge list format, isolated keywords as self-loops.
func WriteEdgeList(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	for _, k := range g.Nodes() {
		nbs := g.Neighbors(k)
		if len(nbs) == 0 {
			if _, err := fmt.Fprintf(bw, "%s %s\n", k, k); err != nil {
				return err
			}
			continue
		}
		for _, nb := range nbs {
			if nb < k {
				continue
			}
			if _, err := fmt.Fprintf(bw, "%s %s\n", k, nb); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
