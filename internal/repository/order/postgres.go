package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderSelect = `
SELECT o.id::text, o.user_id::text, u.name, u.email, o.shipping_address, o.payment_method, o.payment_result,
       o.items_price, o.tax_price, o.shipping_price, o.total_price,
       o.is_paid, o.paid_at, o.is_delivered, o.delivered_at, o.status, o.created_at, o.updated_at
FROM orders o
JOIN users u ON u.id = o.user_id
`

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

func (r *postgresRepo) Place(ctx context.Context, o domain.Order) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := reserveStock(ctx, tx, o.Items); err != nil {
		r.logger.Printf("order repo: reserve stock user=%s error=%v", o.UserID, err)
		return nil, err
	}

	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return nil, err
	}
	status := o.Status
	if status == "" {
		status = domain.OrderStatusPending
	}

	var id string
	err = tx.QueryRow(ctx, `
INSERT INTO orders (user_id, shipping_address, payment_method, items_price, tax_price, shipping_price, total_price, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id::text
`, o.UserID, address, o.PaymentMethod, o.ItemsPrice, o.TaxPrice, o.ShippingPrice, o.TotalPrice, string(status)).Scan(&id)
	if err != nil {
		r.logger.Printf("order repo: insert order user=%s error=%v", o.UserID, err)
		return nil, err
	}

	batch := &pgx.Batch{}
	for i, item := range o.Items {
		batch.Queue(`
INSERT INTO order_items (order_id, product_id, position, name, image, quantity, price)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, id, item.ProductID, i, item.Name, item.Image, item.Quantity, item.Price)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		r.logger.Printf("order repo: insert items order=%s error=%v", id, err)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: placed id=%s user=%s items=%d total=%s", id, o.UserID, len(o.Items), o.TotalPrice)
	return r.GetByID(ctx, id)
}

// reserveStock decrements stock line by line, in product id order so that
// concurrent checkouts lock rows in the same sequence.
func reserveStock(ctx context.Context, tx pgx.Tx, items []domain.OrderItem) error {
	sorted := make([]domain.OrderItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	for _, item := range sorted {
		cmd, err := tx.Exec(ctx, `
UPDATE products
SET stock = stock - $2, updated_at = now()
WHERE id = $1 AND is_active AND stock >= $2
`, item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 1 {
			continue
		}
		return classifyShortage(ctx, tx, item)
	}
	return nil
}

func classifyShortage(ctx context.Context, tx pgx.Tx, item domain.OrderItem) error {
	var (
		name     string
		stock    int
		isActive bool
	)
	err := tx.QueryRow(ctx, `SELECT name, stock, is_active FROM products WHERE id = $1`, item.ProductID).Scan(&name, &stock, &isActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.ProductUnavailableError{ProductID: item.ProductID, Name: item.Name}
	}
	if err != nil {
		return err
	}
	if !isActive {
		return &domain.ProductUnavailableError{ProductID: item.ProductID, Name: name}
	}
	return &domain.InsufficientStockError{ProductID: item.ProductID, Name: name, Requested: item.Quantity, Available: stock}
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	orders, err := r.list(ctx, orderSelect+`WHERE o.id = $1`, id)
	if err != nil {
		r.logger.Printf("order repo: get id=%s error=%v", id, err)
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.ErrNotFound
	}
	return &orders[0], nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, orderSelect+`WHERE o.user_id = $1 ORDER BY o.created_at DESC, o.id`, userID)
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, orderSelect+`ORDER BY o.created_at DESC, o.id`)
}

func (r *postgresRepo) MarkPaid(ctx context.Context, id string, result *domain.PaymentResult) (*domain.Order, error) {
	var payload []byte
	if result != nil {
		var err error
		if payload, err = json.Marshal(result); err != nil {
			return nil, err
		}
	}
	return r.update(ctx, id, `
UPDATE orders
SET is_paid = TRUE, paid_at = now(), payment_result = $2, updated_at = now()
WHERE id = $1
`, payload)
}

func (r *postgresRepo) MarkDelivered(ctx context.Context, id string) (*domain.Order, error) {
	return r.update(ctx, id, `
UPDATE orders
SET is_delivered = TRUE, delivered_at = now(), status = 'delivered', updated_at = now()
WHERE id = $1
`)
}

func (r *postgresRepo) update(ctx context.Context, id, q string, args ...interface{}) (*domain.Order, error) {
	cmd, err := r.pool.Exec(ctx, q, append([]interface{}{id}, args...)...)
	if err != nil {
		r.logger.Printf("order repo: update id=%s error=%v", id, err)
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	index := map[string]int{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		index[o.ID] = len(orders)
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	itemRows, err := r.pool.Query(ctx, `
SELECT order_id::text, COALESCE(product_id::text, ''), name, image, quantity, price
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, position
`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			orderID string
			item    domain.OrderItem
		)
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Name, &item.Image, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		i, ok := index[orderID]
		if !ok {
			return nil, fmt.Errorf("order item for unknown order %s", orderID)
		}
		orders[i].Items = append(orders[i].Items, item)
	}
	return orders, itemRows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o             domain.Order
		address, paid []byte
		status        string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.User.Name, &o.User.Email, &address, &o.PaymentMethod, &paid,
		&o.ItemsPrice, &o.TaxPrice, &o.ShippingPrice, &o.TotalPrice,
		&o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt, &status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	o.User.ID = o.UserID
	o.Status = domain.OrderStatus(status)
	o.Items = []domain.OrderItem{}
	if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address order=%s: %w", o.ID, err)
	}
	if len(paid) > 0 {
		o.PaymentResult = &domain.PaymentResult{}
		if err := json.Unmarshal(paid, o.PaymentResult); err != nil {
			return nil, fmt.Errorf("decode payment result order=%s: %w", o.ID, err)
		}
	}
	return &o, nil
}
