// Package testutil starts throwaway databases for repository integration tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"storefront/internal/db"
	"storefront/internal/migrate"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
)

// Postgres returns a migrated pool. TEST_DB_DSN points at an existing
// database; otherwise a container is started. Skipped with -short.
func Postgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	ctx := context.Background()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		container, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("storefront_test"),
			postgres.WithUsername("storefront"),
			postgres.WithPassword("storefront"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		require.NoError(t, err)
		t.Cleanup(func() {
			if err := container.Terminate(ctx); err != nil {
				t.Logf("terminate postgres container: %v", err)
			}
		})

		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	pool, err := db.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrate.Apply(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE order_items, orders, cart_lines, carts, products, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

// Mongo returns a fresh database on a mongo container. Skipped with -short.
func Mongo(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate mongo container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	database, err := db.ConnectMongo(ctx, uri, "storefront_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Client().Disconnect(ctx) })
	return database
}

// InsertUser creates a plain user row and returns its id.
func InsertUser(t *testing.T, pool *pgxpool.Pool, email string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(), `
INSERT INTO users (name, email, password_hash) VALUES ($1, $2, 'x') RETURNING id::text
`, "User "+email, email).Scan(&id)
	require.NoError(t, err)
	return id
}
