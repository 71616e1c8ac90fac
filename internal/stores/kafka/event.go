package kafka

import "time"

const (
	TopicLowStock = `inventory.low-stock`
)

// LowStockEvent is published when a product's remaining stock crosses its
// configured threshold.
type LowStockEvent struct {
	ProductID      string    `json:"product_id"`
	ProductName    string    `json:"product_name"`
	RemainingStock int       `json:"remaining_stock"`
	CreatedAt      time.Time `json:"created_at"`
}
