package order

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidLine       = errors.New("invalid line item")
)

// stockLine is one product as read (and locked) inside the placement
// transaction.
type stockLine struct {
	ProductID string
	Price     decimal.Decimal
	Stock     int
}

// plan is the validated, priced outcome of a placement request before
// anything is written.
type plan struct {
	Total decimal.Decimal
	Items []Item
	// distinct product ids in first-seen order, with aggregated quantities
	ProductIDs []string
	Decrements map[string]int
}

// buildPlan walks the requested lines in caller order. Each product is
// looked up once; repeated product ids stay independent items, but
// their quantities accumulate against that single stock reading so a
// duplicated line cannot pass validation twice on the same units. The
// first failing line aborts the whole plan.
func buildPlan(lines []Line, lookup func(productID string) (stockLine, error)) (*plan, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrInvalidLine)
	}

	seen := make(map[string]stockLine, len(lines))
	p := &plan{
		Total:      decimal.Zero,
		Decrements: make(map[string]int, len(lines)),
	}
	for _, ln := range lines {
		if ln.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidLine)
		}
		sl, ok := seen[ln.ProductID]
		if !ok {
			var err error
			sl, err = lookup(ln.ProductID)
			if err != nil {
				return nil, err
			}
			seen[ln.ProductID] = sl
			p.ProductIDs = append(p.ProductIDs, ln.ProductID)
		}
		p.Decrements[ln.ProductID] += ln.Quantity
		if p.Decrements[ln.ProductID] > sl.Stock {
			return nil, fmt.Errorf("%w: product %s", ErrInsufficientStock, ln.ProductID)
		}
		p.Total = p.Total.Add(sl.Price.Mul(decimal.NewFromInt(int64(ln.Quantity))))
		p.Items = append(p.Items, Item{
			ID:           uuid.NewString(),
			ProductID:    ln.ProductID,
			Quantity:     ln.Quantity,
			PricePerItem: sl.Price,
		})
	}
	return p, nil
}
