package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// AllKeys names the combined graph over every keyword category.
const AllKeys = "all_keys"

// ErrUnknownCategory is returned for a keyword category that is neither configured nor AllKeys.
var ErrUnknownCategory = errors.New("unknown keyword category")

// Config manages analysis configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Analysis window
	v.SetDefault("analysis.year_begin", 1947)
	v.SetDefault("analysis.year_end", 2017)
	v.SetDefault("analysis.chunk", 1)
	v.SetDefault("analysis.categories", []string{"chemical", "disease", "gene"})
	v.SetDefault("analysis.samples", 1000)
	v.SetDefault("analysis.random_seed", time.Now().UnixNano())
	v.SetDefault("analysis.distance_threshold", 4)

	// Keyword map
	v.SetDefault("layout.top", 50)
	v.SetDefault("layout.max_distance", 10.0)

	// Flat files. "{}" placeholders are filled positionally.
	v.SetDefault("data.subset_ids", "data/neuro_disease_ids.list")
	v.SetDefault("data.category_ids", "data/categories/{}")
	v.SetDefault("data.graph_files", "data/graph/KWgraph_{}_{}.edgelist")
	v.SetDefault("data.new_cnx_files", "data/new_cnx/new_cnx_{}_{}.list")
	v.SetDefault("data.dist_files", "data/dist/dist_{}_{}.list")
	v.SetDefault("data.plot_dir", "plots/{}")

	// MySQL
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.host", "localhost:3306")
	v.SetDefault("database.name", "")
	v.SetDefault("database.table", "")
	v.SetDefault("database.timeout", 10*time.Second)

	// Performance parameters
	v.SetDefault("performance.parallel", true)
	v.SetDefault("performance.num_workers", runtime.NumCPU())

	// Logging parameters
	v.SetDefault("logging.level", "info")

	v.SetDefault("server.address", ":8080")

	v.SetEnvPrefix("KWGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

func (c *Config) YearBegin() int { return c.v.GetInt("analysis.year_begin") }
func (c *Config) YearEnd() int { return c.v.GetInt("analysis.year_end") }
func (c *Config) Chunk() int { return c.v.GetInt("analysis.chunk") }
func (c *Config) Categories() []string { return c.v.GetStringSlice("analysis.categories") }
func (c *Config) Samples() int { return c.v.GetInt("analysis.samples") }
func (c *Config) RandomSeed() int64 { return c.v.GetInt64("analysis.random_seed") }
func (c *Config) DistanceThreshold() int { return c.v.GetInt("analysis.distance_threshold") }
func (c *Config) LayoutTop() int { return c.v.GetInt("layout.top") }
func (c *Config) LayoutMaxDistance() float64 { return c.v.GetFloat64("layout.max_distance") }
func (c *Config) SubsetIDsFile() string { return c.v.GetString("data.subset_ids") }
func (c *Config) DBUser() string { return c.v.GetString("database.user") }
func (c *Config) DBPassword() string { return c.v.GetString("database.password") }
func (c *Config) DBHost() string { return c.v.GetString("database.host") }
func (c *Config) DBName() string { return c.v.GetString("database.name") }
func (c *Config) DBTable() string { return c.v.GetString("database.table") }
func (c *Config) DBTimeout() time.Duration { return c.v.GetDuration("database.timeout") }
func (c *Config) Parallel() bool { return c.v.GetBool("performance.parallel") }
func (c *Config) NumWorkers() int { return c.v.GetInt("performance.num_workers") }
func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }
func (c *Config) ServerAddress() string { return c.v.GetString("server.address") }

// AllCategories returns the configured categories followed by AllKeys.
func (c *Config) AllCategories() []string {
	return append(c.Categories(), AllKeys)
}

// ValidateCategory accepts any configured category and AllKeys.
func (c *Config) ValidateCategory(cat string) error {
	if cat == AllKeys {
		return nil
	}
	for _, known := range c.Categories() {
		if known == cat {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (known: %s, %s)", ErrUnknownCategory, cat,
		strings.Join(c.Categories(), ", "), AllKeys)
}

// Years returns the configured analysis years, end inclusive.
func (c *Config) Years() []int {
	return YearRange(c.YearBegin(), c.YearEnd(), c.Chunk())
}

// YearRange returns begin, begin+chunk, ... up to and including end.
func YearRange(begin, end, chunk int) []int {
	if chunk <= 0 {
		chunk = 1
	}
	var years []int
	for y := begin; y <= end; y += chunk {
		years = append(years, y)
	}
	return years
}

// GraphFile is the edge list of a category graph in a given year.
func (c *Config) GraphFile(category string, year int) string {
	return FormatPath(c.v.GetString("data.graph_files"), category, year)
}

// NewConnectionFile lists the connections a category graph gains in a year.
func (c *Config) NewConnectionFile(category string, year int) string {
	return FormatPath(c.v.GetString("data.new_cnx_files"), category, year)
}

// DistanceFile holds the pre-connection distances matching NewConnectionFile.
func (c *Config) DistanceFile(category string, year int) string {
	return FormatPath(c.v.GetString("data.dist_files"), category, year)
}

// CategoryFile lists the keywords of one category per paper.
func (c *Config) CategoryFile(category string) string {
	return FormatPath(c.v.GetString("data.category_ids"), category)
}

// PlotPath resolves a plot file name inside the plot directory.
func (c *Config) PlotPath(name string) string {
	return FormatPath(c.v.GetString("data.plot_dir"), name)
}

// FormatPath fills each "{}" in tmpl with the next argument.
func FormatPath(tmpl string, args ...interface{}) string {
	var b strings.Builder
	rest := tmpl
	for _, arg := range args {
		i := strings.Index(rest, "{}")
		if i < 0 {
			break
		}
		b.WriteString(rest[:i])
		fmt.Fprint(&b, arg)
		rest = rest[i+2:]
	}
	b.WriteString(rest)
	return b.String()
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "kwgraph").Logger()
}
