package sqlx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"rankboard/core"
)

// Driver selects the SQL dialect.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
	DriverSQLite   Driver = "sqlite"
)

// Config holds SQL connection configuration
type Config struct {
	Driver          Driver        `json:"driver" env:"RANKBOARD_SQL_DRIVER"`
	DSN             string        `json:"dsn" env:"RANKBOARD_SQL_DSN"`
	MaxOpenConns    int           `json:"max_open_conns" env:"RANKBOARD_SQL_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `json:"max_idle_conns" env:"RANKBOARD_SQL_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" env:"RANKBOARD_SQL_CONN_MAX_LIFETIME"`
	AutoMigrate     bool          `json:"auto_migrate" env:"RANKBOARD_SQL_AUTO_MIGRATE"`
}

// DefaultConfig returns defaults for the given driver.
func DefaultConfig(driver Driver) Config {
	cfg := Config{
		Driver:          driver,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		AutoMigrate:     true,
	}
	switch driver {
	case DriverPostgres:
		cfg.DSN = "postgres://localhost:5432/rankboard?sslmode=disable"
	case DriverMySQL:
		cfg.DSN = "root@tcp(localhost:3306)/rankboard"
	case DriverSQLite:
		cfg.DSN = "file:rankboard.db?_pragma=busy_timeout(5000)"
		cfg.MaxOpenConns = 1
	}
	return cfg
}

// Validate checks the driver and DSN.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	if strings.TrimSpace(c.DSN) == "" {
		return errors.New("dsn cannot be empty")
	}
	return nil
}

// Store keeps ordered sets in ranking_entries and plain sets in
// registry_members, both keyed by (set_key, member).
type Store struct {
	db     *sqlx.DB
	driver Driver
}

// New opens the database, verifies the connection and optionally migrates.
func New(config Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	db, err := sqlx.Open(string(config.Driver), config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", config.Driver, err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", config.Driver, err)
	}

	s := NewWithDB(db, config.Driver)
	if config.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewWithDB wraps an existing connection (useful for testing)
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

// nameColumn is the type of set keys and member names. Names compare
// byte for byte; MySQL's default collation folds case and accents, so it
// gets a binary one.
func nameColumn(driver Driver) string {
	if driver == DriverMySQL {
		return "VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin"
	}
	return "VARCHAR(255)"
}

func schema(driver Driver) []string {
	col := nameColumn(driver)
	return []string{
		`CREATE TABLE IF NOT EXISTS ranking_entries (
			set_key ` + col + ` NOT NULL,
			member ` + col + ` NOT NULL,
			score BIGINT NOT NULL,
			PRIMARY KEY (set_key, member)
		)`,
		`CREATE TABLE IF NOT EXISTS registry_members (
			set_key ` + col + ` NOT NULL,
			member ` + col + ` NOT NULL,
			PRIMARY KEY (set_key, member)
		)`,
	}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema(s.driver) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) upsertScoreQuery() string {
	if s.driver == DriverMySQL {
		return s.db.Rebind(`INSERT INTO ranking_entries (set_key, member, score) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE score = VALUES(score)`)
	}
	return s.db.Rebind(`INSERT INTO ranking_entries (set_key, member, score) VALUES (?, ?, ?)
		ON CONFLICT (set_key, member) DO UPDATE SET score = excluded.score`)
}

func (s *Store) memberAddQuery() string {
	if s.driver == DriverMySQL {
		return s.db.Rebind(`INSERT IGNORE INTO registry_members (set_key, member) VALUES (?, ?)`)
	}
	return s.db.Rebind(`INSERT INTO registry_members (set_key, member) VALUES (?, ?)
		ON CONFLICT (set_key, member) DO NOTHING`)
}

// Exists matches Redis EXISTS: true if key holds entries of either kind.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	q := s.db.Rebind(`SELECT (SELECT COUNT(*) FROM ranking_entries WHERE set_key = ?)
		+ (SELECT COUNT(*) FROM registry_members WHERE set_key = ?)`)
	if err := s.db.GetContext(ctx, &n, q, key, key); err != nil {
		return false, fmt.Errorf("failed to check key: %w", err)
	}
	return n > 0, nil
}

func (s *Store) UpsertScore(ctx context.Context, key string, score int64, member string) error {
	if _, err := s.db.ExecContext(ctx, s.upsertScoreQuery(), key, member, score); err != nil {
		return fmt.Errorf("failed to set score: %w", err)
	}
	return nil
}

type entryRow struct {
	Member string `db:"member"`
	Score  int64  `db:"score"`
}

func (s *Store) RangeByScoreWithScores(ctx context.Context, key string, min, max int64) ([]core.Entry, error) {
	var rows []entryRow
	q := s.db.Rebind(`SELECT member, score FROM ranking_entries
		WHERE set_key = ? AND score >= ? AND score <= ? ORDER BY score, member`)
	if err := s.db.SelectContext(ctx, &rows, q, key, min, max); err != nil {
		return nil, fmt.Errorf("failed to range by score: %w", err)
	}
	out := make([]core.Entry, len(rows))
	for i, r := range rows {
		out[i] = core.Entry{Member: r.Member, Score: r.Score}
	}
	return out, nil
}

func (s *Store) RangeByScore(ctx context.Context, key string, min, max int64) ([]string, error) {
	var members []string
	q := s.db.Rebind(`SELECT member FROM ranking_entries
		WHERE set_key = ? AND score >= ? AND score <= ? ORDER BY score, member`)
	if err := s.db.SelectContext(ctx, &members, q, key, min, max); err != nil {
		return nil, fmt.Errorf("failed to range by score: %w", err)
	}
	return members, nil
}

func (s *Store) Remove(ctx context.Context, key string, member string) error {
	q := s.db.Rebind(`DELETE FROM ranking_entries WHERE set_key = ? AND member = ?`)
	if _, err := s.db.ExecContext(ctx, q, key, member); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// Delete drops every row stored under key, in one transaction.
func (s *Store) Delete(ctx context.Context, key string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM ranking_entries WHERE set_key = ?`), key); err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM registry_members WHERE set_key = ?`), key); err != nil {
		return fmt.Errorf("failed to delete members: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

func (s *Store) MemberAdd(ctx context.Context, key string, member string) error {
	if _, err := s.db.ExecContext(ctx, s.memberAddQuery(), key, member); err != nil {
		return fmt.Errorf("failed to add set member: %w", err)
	}
	return nil
}

func (s *Store) MemberRemove(ctx context.Context, key string, member string) error {
	q := s.db.Rebind(`DELETE FROM registry_members WHERE set_key = ? AND member = ?`)
	if _, err := s.db.ExecContext(ctx, q, key, member); err != nil {
		return fmt.Errorf("failed to remove set member: %w", err)
	}
	return nil
}

func (s *Store) Members(ctx context.Context, key string) ([]string, error) {
	var members []string
	q := s.db.Rebind(`SELECT member FROM registry_members WHERE set_key = ? ORDER BY member`)
	if err := s.db.SelectContext(ctx, &members, q, key); err != nil {
		return nil, fmt.Errorf("failed to list set members: %w", err)
	}
	return members, nil
}

// ReplaceScores rewrites all given scores inside one transaction.
func (s *Store) ReplaceScores(ctx context.Context, key string, entries []core.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, s.upsertScoreQuery())
	if err != nil {
		return fmt.Errorf("failed to prepare score update: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, key, e.Member, e.Score); err != nil {
			return fmt.Errorf("failed to update score of %s: %w", e.Member, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scores: %w", err)
	}
	return nil
}
