package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type Options struct {
	Driver          string
	DataSource      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration
	Migrate         func(db *sql.DB, dialect string) (int, error)
}

type Option func(*Options)

func WithDriver(driver string) Option {
	return func(o *Options) { o.Driver = driver }
}

func WithDataSource(dsn string) Option {
	return func(o *Options) { o.DataSource = dsn }
}

func WithMaxOpenConns(count int) Option {
	return func(o *Options) { o.MaxOpenConns = count }
}

func WithMaxIdleConns(count int) Option {
	return func(o *Options) { o.MaxIdleConns = count }
}

func WithConnMaxLifetime(duration time.Duration) Option {
	return func(o *Options) { o.ConnMaxLifetime = duration }
}

func WithConnMaxIdleTime(duration time.Duration) Option {
	return func(o *Options) { o.ConnMaxIdleTime = duration }
}

func WithRetry(attempts int, delay time.Duration) Option {
	return func(o *Options) {
		o.RetryAttempts = attempts
		o.RetryDelay = delay
	}
}

// WithMigrations runs migrate once the pool is reachable. The driver name is passed as dialect.
func WithMigrations(migrate func(db *sql.DB, dialect string) (int, error)) Option {
	return func(o *Options) { o.Migrate = migrate }
}

// SQLiteDSN enables foreign keys and a busy timeout on a sqlite3 path.
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func isInMemory(driver, dsn string) bool {
	return driver == "sqlite3" && (strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory"))
}

// New creates a new database connection pool using the provided options.
func New(ctx context.Context, opts ...Option) (*sql.DB, error) {
	// Set production-ready defaults
	options := &Options{
		Driver:          "sqlite3",
		DataSource:      ":memory:",
		MaxOpenConns:    25,              // Reasonable default for most apps
		MaxIdleConns:    5,               // Keep some connections ready
		ConnMaxLifetime: 5 * time.Minute, // Rotate connections regularly
		ConnMaxIdleTime: 2 * time.Minute, // Close idle connections
		RetryAttempts:   3,               // Retry connection attempts
		RetryDelay:      time.Second,     // Wait between retries
	}

	for _, opt := range opts {
		opt(options)
	}

	// Validate options
	if options.Driver == "" {
		return nil, fmt.Errorf("database driver cannot be empty")
	}
	if options.DataSource == "" {
		return nil, fmt.Errorf("database data source cannot be empty")
	}
	if options.RetryAttempts < 1 {
		options.RetryAttempts = 1
	}

	// Every connection to an in-memory sqlite database is a separate database.
	if isInMemory(options.Driver, options.DataSource) {
		options.MaxOpenConns = 1
		options.MaxIdleConns = 1
		options.ConnMaxLifetime = 0
		options.ConnMaxIdleTime = 0
	}

	var db *sql.DB
	var err error

	// Retry connection with linear backoff
	for i := 0; i < options.RetryAttempts; i++ {
		db, err = sql.Open(options.Driver, options.DataSource)
		if err == nil {
			// Configure connection pool
			db.SetMaxOpenConns(options.MaxOpenConns)
			db.SetMaxIdleConns(options.MaxIdleConns)
			db.SetConnMaxLifetime(options.ConnMaxLifetime)
			db.SetConnMaxIdleTime(options.ConnMaxIdleTime)

			// Test connection
			if err = db.PingContext(ctx); err == nil {
				return migrate(db, options)
			}

			// Close failed connection
			db.Close()
		}

		// Wait before retry
		if i < options.RetryAttempts-1 {
			select {
			case <-time.After(time.Duration(i+1) * options.RetryDelay):
			case <-ctx.Done():
				return nil, fmt.Errorf("database connect canceled: %w", ctx.Err())
			}
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", options.RetryAttempts, err)
}

func migrate(db *sql.DB, options *Options) (*sql.DB, error) {
	if options.Migrate == nil {
		return db, nil
	}
	if _, err := options.Migrate(db, options.Driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return db, nil
}
