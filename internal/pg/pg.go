package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Sentinel errors surfaced to the command layer.
var (
	// ErrUnavailable indicates the server could not be reached at all.
	ErrUnavailable = errors.New("database server unavailable")
	// ErrQueryFailed indicates a statement failed after a connection was
	// established.
	ErrQueryFailed = errors.New("query failed")
	// ErrAlreadyExists indicates a create of an existing database.
	ErrAlreadyExists = errors.New("database already exists")
)

// duplicate_database, https://www.postgresql.org/docs/current/errcodes-appendix.html
const codeDuplicateDatabase = "42P04"

// ConnParams holds connection settings, taken from the project env file and
// the global config.
type ConnParams struct {
	Host     string
	Port     string
	User     string
	Password string
	AdminDB  string // maintenance database, never dropped
}

// Admin issues administrative queries against the maintenance database.
type Admin struct {
	db     *sql.DB
	params ConnParams
}

// Connect opens a connection to the maintenance database and verifies it
// with a ping, so connection problems surface before any operation runs.
func Connect(ctx context.Context, params ConnParams) (*Admin, error) {
	db, err := sql.Open("pgx", dsn(params))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s@%s:%s/%s: %v",
			ErrUnavailable, params.User, params.Host, params.Port, params.AdminDB, err)
	}
	return &Admin{db: db, params: params}, nil
}

// Close releases the connection.
func (a *Admin) Close() error {
	return a.db.Close()
}

// ListDatabases returns the names of all branch databases of base, in
// ascending lexical order. The base itself is not included.
func (a *Admin) ListDatabases(ctx context.Context, base string) ([]string, error) {
	pattern := escapeLike(base) + `\_%`
	rows, err := a.db.QueryContext(ctx,
		`SELECT datname FROM pg_database WHERE datname LIKE $1 ORDER BY datname`, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: list databases: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: list databases: %v", ErrQueryFailed, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list databases: %v", ErrQueryFailed, err)
	}
	return names, nil
}

// Exists reports whether a database with the given name exists.
func (a *Admin) Exists(ctx context.Context, name string) (bool, error) {
	var one int
	err := a.db.QueryRowContext(ctx,
		`SELECT 1 FROM pg_database WHERE datname = $1`, name).Scan(&one)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("%w: check %s: %v", ErrQueryFailed, name, err)
	}
}

// Create creates a database owned by owner. Fails with [ErrAlreadyExists]
// if the database is already present; callers are expected to check first.
func (a *Admin) Create(ctx context.Context, name, owner string) error {
	stmt := fmt.Sprintf("CREATE DATABASE %s OWNER %s",
		pgx.Identifier{name}.Sanitize(), pgx.Identifier{owner}.Sanitize())
	if _, err := a.db.ExecContext(ctx, stmt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeDuplicateDatabase {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
		}
		return fmt.Errorf("%w: create %s: %v", ErrQueryFailed, name, err)
	}
	return nil
}

// Drop drops a database. Idempotent: dropping a database that does not
// exist is not an error.
func (a *Admin) Drop(ctx context.Context, name string) error {
	stmt := fmt.Sprintf("DROP DATABASE IF EXISTS %s", pgx.Identifier{name}.Sanitize())
	if _, err := a.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%w: drop %s: %v", ErrQueryFailed, name, err)
	}
	return nil
}

// dsn builds the connection URL for the maintenance database.
func dsn(p ConnParams) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   p.Host + ":" + p.Port,
		Path:   "/" + p.AdminDB,
	}
	if p.Password != "" {
		u.User = url.UserPassword(p.User, p.Password)
	} else {
		u.User = url.User(p.User)
	}
	q := url.Values{}
	q.Set("sslmode", "prefer")
	u.RawQuery = q.Encode()
	return u.String()
}

// escapeLike escapes LIKE metacharacters so a base name containing
// underscores matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
