package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "modernc.org/sqlite"

	"prolly/internal/ident"
)

const (
	busyTimeoutMS   = 5000
	maxOpenConns    = 1
	maxIdleConns    = 1
	connMaxLifetime = 5 * time.Minute
)

// Store wraps the SQLite database that holds every record collection and
// the blob metadata table.
type Store struct {
	db *sql.DB

	// unit admits one Atomic or View at a time, matching the single pooled
	// connection. Atomic units therefore never interleave.
	unit     chan struct{}
	unitWait time.Duration

	now    func() time.Time
	ids    IDSource
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for created/updated/deleted timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIdentitySource overrides the identifier generator.
func WithIdentitySource(ids IDSource) Option {
	return func(s *Store) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// WithUnitWait bounds how long Atomic and View wait for the store before
// failing with a transient error.
func WithUnitWait(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.unitWait = d
		}
	}
}

// WithLogger sets the logger used for classified store failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens the SQLite database and applies pending migrations.
func Open(path string, opts ...Option) (*Store, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := configureDB(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db:       db,
		unit:     make(chan struct{}, maxOpenConns),
		unitWait: busyTimeoutMS * time.Millisecond,
		now:      time.Now,
		ids:      ident.Default(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Now returns the store clock reading in UTC.
func (s *Store) Now() time.Time {
	return s.now().UTC()
}

func configureDB(db *sql.DB) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode = WAL;").Scan(&mode); err != nil {
		return err
	}

	// Tune connection pool for local usage.
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return nil
}

// sqliteDSN carries the per-connection pragmas in the DSN so a recycled
// connection comes back with the same settings.
func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("db path is required")
	}
	q := url.Values{}
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS))
	u := url.URL{Scheme: "file", Path: path, RawQuery: q.Encode()}
	return u.String(), nil
}
