package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("product not found")

type Query struct {
	Limit    int
	Offset   int
	Category Category // empty means all categories
}

// Update carries the mutable fields; nil means "leave unchanged".
type Update struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	StockQuantity *int
	Category      *Category
}

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, q Query) ([]Product, error)
	Update(ctx context.Context, id string, up Update) (*Product, error)
	Deactivate(ctx context.Context, id string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const productColumns = `id, name, description, price::text, stock_quantity, category, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	var price string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.StockQuantity,
		&p.Category, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}
	return &p, nil
}

func (r *PGRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO products (id, name, description, price, stock_quantity, category, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
	`, p.ID, p.Name, p.Description, p.Price.String(), p.StockQuantity, p.Category, p.IsActive, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID returns active products only; inactive collapses to ErrNotFound.
func (r *PGRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanProduct(r.db.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products WHERE id=$1 AND is_active
	`, id))
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE is_active AND ($1 = '' OR category = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, string(q.Category), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, id string, up Update) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var price *string
	if up.Price != nil {
		s := up.Price.String()
		price = &s
	}
	return scanProduct(r.db.QueryRow(ctx, `
		UPDATE products
		SET name           = COALESCE($2, name),
		    description    = COALESCE($3, description),
		    price          = COALESCE($4::numeric, price),
		    stock_quantity = COALESCE($5, stock_quantity),
		    category       = COALESCE($6, category),
		    updated_at     = NOW()
		WHERE id = $1 AND is_active
		RETURNING `+productColumns+`
	`, id, up.Name, up.Description, price, up.StockQuantity, up.Category))
}

func (r *PGRepo) Deactivate(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE products SET is_active=FALSE, updated_at=NOW() WHERE id=$1 AND is_active
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
