package app

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrator_Close(t *testing.T) {
	// пул не подключается до первого запроса
	pool, err := pgxpool.New(context.Background(), "postgres://nobody@127.0.0.1:1/none?sslmode=disable")
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	mg, err := NewMigrator(pool, "migrations", zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, mg.Close())
	assert.EqualError(t, mg.db.Ping(), "sql: database is closed")

	assert.NoError(t, (&Migrator{}).Close())
}
