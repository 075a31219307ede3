package cart

import (
	"context"
	"errors"
	"io"
	"log"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	return fetchCart(ctx, r.pool, userID)
}

func (r *postgresRepo) AddLine(ctx context.Context, userID string, line domain.CartLine) (*domain.Cart, error) {
	if err := domain.ValidateQuantity(line.Quantity); err != nil {
		return nil, err
	}
	return r.mutate(ctx, userID, true, func(tx pgx.Tx, cartID string) error {
		cmd, err := tx.Exec(ctx, `
INSERT INTO cart_lines (cart_id, product_id, quantity, price)
VALUES ($1, $2, $3, $4)
ON CONFLICT (cart_id, product_id) DO UPDATE
SET quantity = cart_lines.quantity + EXCLUDED.quantity
WHERE cart_lines.quantity + EXCLUDED.quantity <= $5
`, cartID, line.ProductID, line.Quantity, line.Price, domain.MaxLineQuantity)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.NewValidationError("quantity must be at most %d", domain.MaxLineQuantity)
		}
		return nil
	})
}

func (r *postgresRepo) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	return r.mutate(ctx, userID, false, func(tx pgx.Tx, cartID string) error {
		cmd, err := tx.Exec(ctx, `
UPDATE cart_lines
SET quantity = $3
WHERE cart_id = $1 AND product_id = $2
`, cartID, productID, quantity)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *postgresRepo) RemoveLine(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	return r.mutate(ctx, userID, false, func(tx pgx.Tx, cartID string) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *postgresRepo) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := r.mutate(ctx, userID, false, func(tx pgx.Tx, cartID string) error {
		_, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.EmptyCart(userID), nil
	}
	return cart, err
}

func (r *postgresRepo) RemoveOrdered(ctx context.Context, userID string, ordered []domain.CartLine) (*domain.Cart, error) {
	cart, err := r.mutate(ctx, userID, false, func(tx pgx.Tx, cartID string) error {
		batch := &pgx.Batch{}
		for _, l := range ordered {
			batch.Queue(`DELETE FROM cart_lines WHERE cart_id = $1 AND product_id = $2 AND quantity <= $3`,
				cartID, l.ProductID, l.Quantity)
			batch.Queue(`UPDATE cart_lines SET quantity = quantity - $3 WHERE cart_id = $1 AND product_id = $2 AND quantity > $3`,
				cartID, l.ProductID, l.Quantity)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.EmptyCart(userID), nil
	}
	return cart, err
}

// mutate runs fn against the user's cart row inside a transaction and
// recomputes the stored total before committing.
func (r *postgresRepo) mutate(ctx context.Context, userID string, create bool, fn func(tx pgx.Tx, cartID string) error) (*domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var cartID string
	if create {
		err = tx.QueryRow(ctx, `
INSERT INTO carts (user_id) VALUES ($1)
ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
RETURNING id::text
`, userID).Scan(&cartID)
	} else {
		err = tx.QueryRow(ctx, `SELECT id::text FROM carts WHERE user_id = $1 FOR UPDATE`, userID).Scan(&cartID)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("cart repo: lock cart user=%s error=%v", userID, err)
		return nil, err
	}

	if err := fn(tx, cartID); err != nil {
		return nil, r.mutateError(cartID, err)
	}
	if err := updateCartTotal(ctx, tx, cartID); err != nil {
		return nil, r.mutateError(cartID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return fetchCart(ctx, r.pool, userID)
}

// mutateError maps numeric overflow (22003) to a validation error.
func (r *postgresRepo) mutateError(cartID string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22003" {
		return domain.NewValidationError("cart total is too large")
	}
	var verr *domain.ValidationError
	if !errors.Is(err, domain.ErrNotFound) && !errors.As(err, &verr) {
		r.logger.Printf("cart repo: mutate cart=%s error=%v", cartID, err)
	}
	return err
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func fetchCart(ctx context.Context, q querier, userID string) (*domain.Cart, error) {
	cart := domain.Cart{Lines: []domain.CartLine{}}
	err := q.QueryRow(ctx, `
SELECT id::text, user_id::text, total, created_at, updated_at
FROM carts
WHERE user_id = $1
`, userID).Scan(&cart.ID, &cart.UserID, &cart.Total, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := q.Query(ctx, `
SELECT product_id::text, quantity, price, created_at
FROM cart_lines
WHERE cart_id = $1
ORDER BY created_at ASC, id
`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.Quantity, &line.Price, &line.AddedAt); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

func updateCartTotal(ctx context.Context, tx pgx.Tx, cartID string) error {
	_, err := tx.Exec(ctx, `
UPDATE carts
SET total = COALESCE((
	SELECT SUM(price * quantity)
	FROM cart_lines
	WHERE cart_id = $1
), 0),
    updated_at = now()
WHERE id = $1
`, cartID)
	return err
}
