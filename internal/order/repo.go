package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrBadTransition = errors.New("invalid status transition")
)

type Repository interface {
	Place(ctx context.Context, userID string, lines []Line) (*Order, error)
	GetForUser(ctx context.Context, userID, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error)
	UpdateStatus(ctx context.Context, userID, orderID string, status Status) (*Order, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// Place validates, prices and persists an order and its items as one
// atomic unit. Product rows are locked with FOR UPDATE before the
// stock check and decremented in the same transaction, so concurrent
// placements on the same product cannot oversell.
func (r *PGRepo) Place(ctx context.Context, userID string, lines []Line) (*Order, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := buildPlan(lines, func(productID string) (stockLine, error) {
		var sl stockLine
		var price string
		err := tx.QueryRow(ctx, `
			SELECT id, price::text, stock_quantity
			FROM products
			WHERE id=$1 AND is_active
			FOR UPDATE
		`, productID).Scan(&sl.ProductID, &price, &sl.Stock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return sl, fmt.Errorf("%w: product %s", ErrProductNotFound, productID)
			}
			return sl, fmt.Errorf("read product %s: %w", productID, err)
		}
		sl.Price, err = decimal.NewFromString(price)
		if err != nil {
			return sl, fmt.Errorf("parse price: %w", err)
		}
		return sl, nil
	})
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		TotalAmount: p.Total,
		Status:      StatusPending,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, total_amount, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,NOW(),NOW())
		RETURNING created_at, updated_at
	`, o.ID, o.UserID, o.TotalAmount.String(), o.Status).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for i := range p.Items {
		it := &p.Items[i]
		it.OrderID = o.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price_per_item)
			VALUES ($1,$2,$3,$4,$5)
		`, it.ID, it.OrderID, it.ProductID, it.Quantity, it.PricePerItem.String()); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	for _, productID := range p.ProductIDs {
		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock_quantity = stock_quantity - $2, updated_at = NOW()
			WHERE id = $1
		`, productID, p.Decrements[productID]); err != nil {
			return nil, fmt.Errorf("decrement stock for %s: %w", productID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	o.Items = p.Items
	return o, nil
}

const orderColumns = `id, user_id, total_amount::text, status, payment_ref, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var total string
	err := row.Scan(&o.ID, &o.UserID, &total, &o.Status, &o.PaymentRef, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	o.TotalAmount, err = decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	return &o, nil
}

// GetForUser is ownership-scoped: a missing order and someone else's
// order are the same ErrNotFound.
func (r *PGRepo) GetForUser(ctx context.Context, userID, orderID string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id=$1 AND user_id=$2
	`, orderID, userID))
	if err != nil {
		return nil, err
	}
	o.Items, err = r.items(ctx, r.db, o.ID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *PGRepo) items(ctx context.Context, q querier, orderID string) ([]Item, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price_per_item::text
		FROM order_items WHERE order_id=$1
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var price string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &price); err != nil {
			return nil, err
		}
		if it.PricePerItem, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse item price: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE user_id=$1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// UpdateStatus allows pending->paid and pending->cancelled only.
// Cancelling restocks every item in the same transaction.
func (r *PGRepo) UpdateStatus(ctx context.Context, userID, orderID string, status Status) (*Order, error) {
	if status != StatusPaid && status != StatusCancelled {
		return nil, fmt.Errorf("%w: %q", ErrBadTransition, status)
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id=$1 AND user_id=$2 FOR UPDATE
	`, orderID, userID))
	if err != nil {
		return nil, err
	}
	if o.Status != StatusPending {
		return nil, fmt.Errorf("%w: %s -> %s", ErrBadTransition, o.Status, status)
	}

	o.Items, err = r.items(ctx, tx, o.ID)
	if err != nil {
		return nil, err
	}
	if status == StatusCancelled {
		for _, it := range o.Items {
			if _, err := tx.Exec(ctx, `
				UPDATE products SET stock_quantity = stock_quantity + $2, updated_at = NOW()
				WHERE id = $1
			`, it.ProductID, it.Quantity); err != nil {
				return nil, fmt.Errorf("restock %s: %w", it.ProductID, err)
			}
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, updated_at=NOW() WHERE id=$1
	`, o.ID, status); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	o.Status = status
	return o, nil
}
