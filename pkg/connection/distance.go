package connection

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Tiers are the pre-connection distances tracked per year. "inf" marks
// keywords that were in separate components before being linked.
var Tiers = []string{"2", "3", "4", "5", "inf"}

// DistanceStats holds the distance histogram of one year.
type DistanceStats struct {
	// Fractions maps each tier to its share of all recorded distances.
	Fractions map[string]float64
	// Connections is the number of new connections. Every connection is
	// listed from both ends, so this is half the number of distances.
	Connections float64
}

// DistanceSource locates the yearly distance files.
type DistanceSource interface {
	DistanceFile(category string, year int) string
}

// ReadDistanceStats reads lines of the form "keyword d1,d2,...".
// Distances outside Tiers count towards the total only.
func ReadDistanceStats(r io.Reader) (DistanceStats, error) {
	counts := make(map[string]int, len(Tiers))
	total := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		for _, d := range strings.Split(fields[1], ",") {
			counts[d]++
			total++
		}
	}
	if err := scanner.Err(); err != nil {
		return DistanceStats{}, fmt.Errorf("failed to read distances: %w", err)
	}

	denom := total
	if denom < 1 {
		denom = 1
	}
	stats := DistanceStats{
		Fractions:   make(map[string]float64, len(Tiers)),
		Connections: float64(total) / 2,
	}
	for _, tier := range Tiers {
		stats.Fractions[tier] = float64(counts[tier]) / float64(denom)
	}
	return stats, nil
}

// DistanceSeries is the evolution of the distance histogram of a category.
type DistanceSeries struct {
	Category    string               `json:"category"`
	Years       []int                `json:"years"`
	Fractions   map[string][]float64 `json:"fractions"`
	Connections []float64            `json:"connections"`
}

// ReadDistanceSeries reads the distance file of every year.
func ReadDistanceSeries(ctx context.Context, src DistanceSource, category string, years []int, logger zerolog.Logger) (DistanceSeries, error) {
	series := DistanceSeries{
		Category:  category,
		Years:     years,
		Fractions: make(map[string][]float64, len(Tiers)),
	}

	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return DistanceSeries{}, err
		}
		stats, err := readDistanceFile(src.DistanceFile(category, year))
		if err != nil {
			return DistanceSeries{}, fmt.Errorf("category %s, year %d: %w", category, year, err)
		}
		for _, tier := range Tiers {
			series.Fractions[tier] = append(series.Fractions[tier], stats.Fractions[tier])
		}
		series.Connections = append(series.Connections, stats.Connections)

		logger.Info().Int("year", year).Float64("connections", stats.Connections).Msg("year completed")
	}
	return series, nil
}

func readDistanceFile(path string) (DistanceStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return DistanceStats{}, fmt.Errorf("failed to open distance file: %w", err)
	}
	defer file.Close()
	return ReadDistanceStats(file)
}
