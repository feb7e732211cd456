package progress

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseMedium(t *testing.T, m Medium) {
	t.Helper()
	ctx := context.Background()
	key := "medium-test-" + time.Now().UTC().Format("150405.000000000")

	_, err := m.Load(ctx, key)
	require.ErrorIs(t, err, ErrNotFound, "missing key")

	require.NoError(t, m.Save(ctx, key, `{"v":1}`))
	require.NoError(t, m.Save(ctx, key, `{"v":2}`), "overwrite")
	got, err := m.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, got)

	require.NoError(t, m.Remove(ctx, key))
	_, err = m.Load(ctx, key)
	require.ErrorIs(t, err, ErrNotFound, "after remove")
	assert.NoError(t, m.Remove(ctx, key), "remove missing key")
}

func TestMemoryMedium(t *testing.T) {
	exerciseMedium(t, NewMemoryMedium())
}

func TestSQLiteMedium(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "progress.db")
	m, err := NewSQLiteMedium(dbPath)
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	require.NoError(t, m.EnsureSchema(context.Background()))
	require.NoError(t, m.EnsureSchema(context.Background()), "idempotent on an existing database")
	exerciseMedium(t, m)
}

func TestSQLiteMediumBacksStore(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "progress.db")
	m, err := NewSQLiteMedium(dbPath)
	require.NoError(t, err)
	require.NoError(t, m.EnsureSchema(ctx))
	NewStore(m).Initialize(ctx, []string{"a", "b"})
	_ = m.Close()

	reopened, err := NewSQLiteMedium(dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	p, ok := NewStore(reopened).Load(ctx)
	require.True(t, ok, "progress should survive reopen")
	assert.Equal(t, "a", p.CurrentRoom())
}

func TestPostgresBindRewritesPlaceholders(t *testing.T) {
	m := &SQLMedium{postgres: true}
	assert.Equal(t, `INSERT INTO t(a, b) VALUES($1, $2)`, m.bind(`INSERT INTO t(a, b) VALUES(?, ?)`))
	sqlite := &SQLMedium{}
	assert.Equal(t, `?`, sqlite.bind(`?`))
}

func TestPostgresMedium(t *testing.T) {
	dsn := os.Getenv("ESCAPEROOM_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ESCAPEROOM_TEST_POSTGRES_DSN not set")
	}
	m, err := NewPostgresMedium(dsn)
	require.NoError(t, err)
	defer func() { _ = m.Close() }()
	require.NoError(t, m.EnsureSchema(context.Background()))
	exerciseMedium(t, m)
}

func TestRedisMedium(t *testing.T) {
	addr := os.Getenv("ESCAPEROOM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ESCAPEROOM_TEST_REDIS_ADDR not set")
	}
	m, err := NewRedisMedium(context.Background(), RedisConfig{Addr: addr, TTL: time.Minute})
	require.NoError(t, err)
	defer func() { _ = m.Close() }()
	exerciseMedium(t, m)
}

func TestRedisMediumUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisMedium(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
