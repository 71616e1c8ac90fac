package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry. Variations is populated on reads that
// include them and is not stored on the product row itself.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	ImageURLs     []string        `json:"image_urls"`
	Variations    []Variation     `json:"variations,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type NewProduct struct {
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price" validate:"required"`
	StockQuantity int             `json:"stock_quantity" validate:"min=0"`
	ImageURLs     []string        `json:"image_urls"`
}

type Variation struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Type      string    `json:"type"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NewVariation struct {
	ProductID string `json:"product_id" validate:"required"`
	Type      string `json:"type" validate:"required"`
	Value     string `json:"value" validate:"required"`
}

// StockNotification configures the low stock alert for one product. IsNotified
// latches after the first threshold crossing until explicitly rearmed.
type StockNotification struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	Threshold  int       `json:"threshold"`
	IsNotified bool      `json:"is_notified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
