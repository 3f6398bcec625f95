package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"

	_ "github.com/lib/pq"  // Postgres driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/tradegraph/tradegraph/pkg/market"
)

// SQL implements Store over database/sql. It serves both SQLite and
// Postgres; queries are written with ? placeholders and rebound per driver.
type SQL struct {
	db     *sql.DB
	driver string
	mu     sync.RWMutex
	closed bool
}

// OpenSQLite opens (and if needed bootstraps) a SQLite-backed store.
// The path should be a file path (e.g. "./market.db") or ":memory:" for testing.
func OpenSQLite(path string) (*SQL, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &SQL{db: db, driver: "sqlite"}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenPostgres opens a Postgres-backed store from a connection string
// (e.g. "host=... port=... user=... password=... dbname=... sslmode=disable").
func OpenPostgres(dsn string) (*SQL, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQL{db: db, driver: "postgres"}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the observations table and index when missing.
func (s *SQL) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS market_prices (
			hsn_code TEXT NOT NULL,
			country  TEXT NOT NULL,
			price    DOUBLE PRECISION NOT NULL,
			volume   DOUBLE PRECISION NOT NULL,
			date     TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_market_prices_code
		ON market_prices(hsn_code)
	`); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Observations implements Store.
func (s *SQL) Observations(ctx context.Context, code string) ([]market.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT hsn_code, country, price, volume, date
		FROM market_prices
		WHERE hsn_code = ?
		ORDER BY country, date
	`), code)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var observations []market.Observation
	for rows.Next() {
		var obs market.Observation
		if err := rows.Scan(&obs.Code, &obs.Country, &obs.Price, &obs.Volume, &obs.Date); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return observations, nil
}

// Codes implements Store.
func (s *SQL) Codes(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "hsn_code")
}

// Countries implements Store.
func (s *SQL) Countries(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "country")
}

// distinct lists distinct values of a fixed column in sorted order.
func (s *SQL) distinct(ctx context.Context, column string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	query := fmt.Sprintf("SELECT DISTINCT %s FROM market_prices ORDER BY %s", column, column)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query distinct %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", column, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", column, err)
	}
	return values, nil
}

// Insert adds observation rows. Used for seeding and tests.
func (s *SQL) Insert(ctx context.Context, observations ...market.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}

	query := s.rebind(`
		INSERT INTO market_prices (hsn_code, country, price, volume, date)
		VALUES (?, ?, ?, ?, ?)
	`)
	for _, obs := range observations {
		if _, err := tx.ExecContext(ctx, query, obs.Code, obs.Country, obs.Price, obs.Volume, obs.Date); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = fmt.Errorf("%w: %v", err, rerr)
			}
			return fmt.Errorf("insert observation: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// rebind converts ? placeholders to the driver's native form.
func (s *SQL) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
