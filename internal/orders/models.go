package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order represents an order with its line items and its append-only event log.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	ShippingAddress string          `json:"shipping_address"`
	BillingAddress  string          `json:"billing_address"`
	Status          Status          `json:"status"`
	OrderProducts   []OrderProduct  `json:"order_products"`
	Events          []OrderEvent    `json:"events"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderProduct is an immutable snapshot of one cart line at order creation.
type OrderProduct struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	ProductID   string    `json:"product_id"`
	VariationID string    `json:"variation_id"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderEvent is one entry of the append-only status history. Events are never
// mutated; the current status is mirrored on the order row.
type OrderEvent struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type NewOrder struct {
	CartItemIDs     []string `json:"cart_item_ids" validate:"required,min=1"`
	ShippingAddress string   `json:"shipping_address" validate:"required"`
	BillingAddress  string   `json:"billing_address" validate:"required"`
}

// AddressPatch carries the only order fields the generic update path may
// touch. Status and identity fields have their own controlled paths.
type AddressPatch struct {
	ShippingAddress *string `json:"shipping_address"`
	BillingAddress  *string `json:"billing_address"`
}

// selectedItem is a cart line captured inside the create-order transaction,
// with the product price as of that moment.
type selectedItem struct {
	cartItemID  string
	productID   string
	variationID string
	quantity    int
	price       decimal.Decimal
}

// netAmount sums price times quantity over the selected cart lines.
func netAmount(items []selectedItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.price.Mul(decimal.NewFromInt(int64(item.quantity))))
	}
	return total
}
