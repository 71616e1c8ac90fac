package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProductID   string    `json:"product_id"`
	VariationID string    `json:"variation_id"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type NewCartItem struct {
	ProductID   string `json:"product_id" validate:"required"`
	VariationID string `json:"variation_id" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,min=1"`
}

// CartLine is a cart item joined with product and variation snapshots for
// display.
type CartLine struct {
	CartItem
	ProductName    string          `json:"product_name"`
	ProductPrice   decimal.Decimal `json:"product_price"`
	VariationType  string          `json:"variation_type"`
	VariationValue string          `json:"variation_value"`
}
