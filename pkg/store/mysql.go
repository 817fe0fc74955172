package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/config"
)

// MySQL server error numbers handled explicitly.
const (
	erAccessDenied = 1045
	erBadDatabase  = 1049
)

var (
	// ErrAccessDenied means the user name or password was rejected.
	ErrAccessDenied = errors.New("access denied: check database user name and password")
	// ErrBadDatabase means the configured database does not exist.
	ErrBadDatabase = errors.New("database does not exist")
	// ErrBadTable is returned for table names that are not plain identifiers.
	ErrBadTable = errors.New("invalid table name")
)

var tableName = regexp.MustCompile(`^[A-Za-z0-9_$]+(\.[A-Za-z0-9_$]+)?$`)

// PaperYearSource streams the publication year of every paper.
type PaperYearSource interface {
	PaperYears(ctx context.Context, fn func(docID, year string) error) error
}

// Options are the connection parameters of the paper table.
type Options struct {
	User     string
	Password string
	Addr     string
	Database string
	Table    string
	Timeout  time.Duration
}

// OptionsFromConfig reads the database section of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		User:     cfg.DBUser(),
		Password: cfg.DBPassword(),
		Addr:     cfg.DBHost(),
		Database: cfg.DBName(),
		Table:    cfg.DBTable(),
		Timeout:  cfg.DBTimeout(),
	}
}

// DSN formats the options as a go-sql-driver data source name.
func (o Options) DSN() string {
	c := mysql.NewConfig()
	c.User = o.User
	c.Passwd = o.Password
	c.Net = "tcp"
	c.Addr = o.Addr
	c.DBName = o.Database
	c.Timeout = o.Timeout
	return c.FormatDSN()
}

// Store reads paper metadata from MySQL.
type Store struct {
	db     *sql.DB
	table  string
	logger zerolog.Logger
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, opts Options, logger zerolog.Logger) (*Store, error) {
	if !tableName.MatchString(opts.Table) {
		return nil, fmt.Errorf("%w: %q", ErrBadTable, opts.Table)
	}

	db, err := sql.Open("mysql", opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, classify(err)
	}

	logger.Info().Str("addr", opts.Addr).Str("database", opts.Database).Msg("connected to database")
	return &Store{db: db, table: opts.Table, logger: logger}, nil
}

// classify maps MySQL server errors to the package sentinels.
func classify(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case erAccessDenied:
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		case erBadDatabase:
			return fmt.Errorf("%w: %v", ErrBadDatabase, err)
		}
	}
	return fmt.Errorf("failed to ping database: %w", err)
}

// PaperYears calls fn with the DOC_ID and raw year column of every row.
func (s *Store) PaperYears(ctx context.Context, fn func(docID, year string) error) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT DOC_ID, year FROM %s", s.table))
	if err != nil {
		return fmt.Errorf("failed to query paper years: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var id, year sql.NullString
		if err := rows.Scan(&id, &year); err != nil {
			return fmt.Errorf("failed to scan paper year: %w", err)
		}
		if !id.Valid || !year.Valid {
			continue
		}
		if err := fn(id.String, year.String); err != nil {
			return err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read paper years: %w", err)
	}
	s.logger.Debug().Int("rows", n).Msg("paper years read")
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
