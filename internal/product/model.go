package product

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Category is a closed set; unknown values are rejected at the boundary.
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryBooks       Category = "books"
	CategoryHome        Category = "home"
	CategorySports      Category = "sports"
	CategoryOther       Category = "other"
)

func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryElectronics, CategoryClothing, CategoryBooks,
		CategoryHome, CategorySports, CategoryOther:
		return Category(s), nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// ValidateCategory is registered on gin's validator engine as "productcategory".
func ValidateCategory(fl validator.FieldLevel) bool {
	_, err := ParseCategory(fl.Field().String())
	return err == nil
}

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// NUMERIC in Postgres; decimal avoids float rounding on money
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Category      Category        `json:"category"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ListResponse is the paginated product listing.
type ListResponse struct {
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
	Items  []Product `json:"items"`
}
