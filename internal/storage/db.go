package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Supported database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Repository is the persistence gateway. It holds a *sql.DB pool but never
// shares a connection between calls: every statement runs on a dedicated
// *sql.Conn acquired for that call and released before it returns.
type Repository struct {
	db     *sql.DB
	driver string
}

// Open connects to the database described by driver and dsn. For SQLite the
// parent directory is created and the embedded migrations are applied; MySQL
// schemas are managed outside the application.
func Open(ctx context.Context, driver, dsn string) (*Repository, error) {
	switch driver {
	case DriverSQLite:
		return openSQLite(ctx, dsn)
	case DriverMySQL:
		return openMySQL(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// NewSQLiteRepository opens (and migrates) the SQLite database at dbPath.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	return openSQLite(context.Background(), dbPath)
}

func openSQLite(ctx context.Context, dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open(DriverSQLite, sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(sqliteDSN(dbPath)); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, driver: DriverSQLite}, nil
}

func openMySQL(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sql.Open(DriverMySQL, dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{db: db, driver: DriverMySQL}, nil
}

// sqliteDSN adds a busy timeout so concurrent per-call connections wait on
// the file lock instead of failing immediately.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)"
}

// Driver returns the name of the underlying database driver.
func (r *Repository) Driver() string {
	return r.driver
}

// Ping checks that a connection can be acquired.
func (r *Repository) Ping(ctx context.Context) error {
	return r.withConn(ctx, func(conn *sql.Conn) error {
		return conn.PingContext(ctx)
	})
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withConn runs fn on a connection scoped to this call.
func (r *Repository) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(conn)
}

// exec runs a single parameterized statement on its own connection.
func (r *Repository) exec(ctx context.Context, query string, args ...any) error {
	return r.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, query, args...)
		return err
	})
}

// query runs a single parameterized select on its own connection and hands
// every row to scan.
func (r *Repository) query(ctx context.Context, query string, scan func(*sql.Rows) error, args ...any) error {
	return r.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			if err := scan(rows); err != nil {
				return err
			}
		}
		return rows.Err()
	})
}
