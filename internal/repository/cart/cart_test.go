package cart

import (
	"context"
	"math"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_CartLifecycle(t *testing.T) {
	pool := testutil.Postgres(t)
	ctx := context.Background()

	userID := testutil.InsertUser(t, pool, "cart@example.com")
	var a, b string
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO products (name, price, stock) VALUES ('A', 60, 5) RETURNING id::text`).Scan(&a))
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO products (name, price, stock) VALUES ('B', 2.5, 5) RETURNING id::text`).Scan(&b))

	exerciseRepository(t, NewPostgres(pool, nil), userID, a, b)
}

func TestMongo_CartLifecycle(t *testing.T) {
	database := testutil.Mongo(t)

	repo, err := NewMongo(context.Background(), database, nil)
	require.NoError(t, err)

	exerciseRepository(t, repo, "user-1", "product-a", "product-b")
}

func exerciseRepository(t *testing.T, repo Repository, userID, a, b string) {
	t.Helper()
	ctx := context.Background()

	_, err := repo.GetByUser(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cart, err := repo.AddLine(ctx, userID, domain.CartLine{ProductID: a, Quantity: 1, Price: decimal.NewFromInt(60)})
	require.NoError(t, err)
	assert.Equal(t, userID, cart.UserID)
	assert.Equal(t, "60", cart.Total.String())

	cart, err = repo.AddLine(ctx, userID, domain.CartLine{ProductID: b, Quantity: 2, Price: decimal.RequireFromString("2.50")})
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2)
	assert.Equal(t, a, cart.Lines[0].ProductID, "lines keep add order")
	assert.Equal(t, "65", cart.Total.String())

	cart, err = repo.AddLine(ctx, userID, domain.CartLine{ProductID: a, Quantity: 1, Price: decimal.NewFromInt(99)})
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2, "same product merges")
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.Equal(t, "60", cart.Lines[0].Price.String(), "merge keeps captured price")
	assert.Equal(t, "125", cart.Total.String())

	cart, err = repo.SetQuantity(ctx, userID, b, 4)
	require.NoError(t, err)
	assert.Equal(t, "130", cart.Total.String())

	_, err = repo.SetQuantity(ctx, userID, "00000000-0000-0000-0000-000000000000", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cart, err = repo.RemoveLine(ctx, userID, a)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "10", cart.Total.String())

	_, err = repo.RemoveLine(ctx, userID, a)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var verr *domain.ValidationError
	_, err = repo.AddLine(ctx, userID, domain.CartLine{ProductID: b, Quantity: domain.MaxLineQuantity, Price: decimal.RequireFromString("2.50")})
	require.ErrorAs(t, err, &verr, "merge past the line cap")
	_, err = repo.AddLine(ctx, userID, domain.CartLine{ProductID: b, Quantity: math.MaxInt, Price: decimal.RequireFromString("2.50")})
	require.ErrorAs(t, err, &verr)
	_, err = repo.SetQuantity(ctx, userID, b, domain.MaxLineQuantity+1)
	require.ErrorAs(t, err, &verr)
	before, err := repo.GetByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, before.Lines, 1)
	assert.Equal(t, 4, before.Lines[0].Quantity, "rejected writes leave the line alone")

	_, err = repo.AddLine(ctx, userID, domain.CartLine{ProductID: a, Quantity: 3, Price: decimal.NewFromInt(60)})
	require.NoError(t, err)
	cart, err = repo.RemoveOrdered(ctx, userID, []domain.CartLine{{ProductID: b, Quantity: 1}, {ProductID: a, Quantity: 3}})
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1, "fully ordered line is dropped")
	assert.Equal(t, b, cart.Lines[0].ProductID)
	assert.Equal(t, 3, cart.Lines[0].Quantity, "quantity added after the order survives")
	assert.Equal(t, "7.5", cart.Total.String())

	missing, err := repo.RemoveOrdered(ctx, "00000000-0000-0000-0000-00000000cafe", []domain.CartLine{{ProductID: a, Quantity: 1}})
	require.NoError(t, err)
	assert.True(t, missing.IsEmpty())

	cart, err = repo.Clear(ctx, userID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Total.IsZero())

	stored, err := repo.GetByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, stored.Lines)

	cleared, err := repo.Clear(ctx, "00000000-0000-0000-0000-00000000beef")
	require.NoError(t, err)
	assert.True(t, cleared.IsEmpty())
}
