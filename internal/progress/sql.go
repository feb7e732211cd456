package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

// SQLMedium stores snapshots in a single key/value table. It runs on the
// pure-Go sqlite driver locally and on Postgres when a DSN is configured.
type SQLMedium struct {
	db       *sql.DB
	postgres bool
	now      func() time.Time
}

func NewSQLiteMedium(path string) (*SQLMedium, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &SQLMedium{db: db, now: time.Now}, nil
}

func NewPostgresMedium(dsn string) (*SQLMedium, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return &SQLMedium{db: db, postgres: true, now: time.Now}, nil
}

func (s *SQLMedium) EnsureSchema(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS progress_snapshots (
		snapshot_key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_ts TEXT NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *SQLMedium) Load(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT payload FROM progress_snapshots WHERE snapshot_key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *SQLMedium) Save(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.bind(`
		INSERT INTO progress_snapshots(snapshot_key, payload, updated_ts)
		VALUES(?, ?, ?)
		ON CONFLICT(snapshot_key) DO UPDATE SET
			payload = excluded.payload,
			updated_ts = excluded.updated_ts
	`), key, value, s.now().UTC().Format(timeLayout))
	return err
}

func (s *SQLMedium) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM progress_snapshots WHERE snapshot_key = ?`), key)
	return err
}

func (s *SQLMedium) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// bind rewrites ? placeholders to $n for lib/pq.
func (s *SQLMedium) bind(query string) string {
	if !s.postgres {
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
