// Package orders implements the order workflow: turning a selection of cart
// items into an order, the status state machine, and the stock reduction that
// runs when an order is delivered.
package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/LivingHopeDev/Inventory-system/pkg/logkey"
)

// ErrInsufficientStock is returned when a delivery would push a product's
// stock below zero. The whole status transition rolls back.
var ErrInsufficientStock = errors.New("insufficient stock")

// Notifier receives low stock events. Emission is fire and forget: failures
// are logged by the workflow, never propagated.
type Notifier interface {
	LowStock(ctx context.Context, productID, productName string, remainingStock int) error
}

type Conf struct {
	db       *sql.DB
	notifier Notifier
}

func NewConf(db *sql.DB, notifier Notifier) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is nil")
	}
	return &Conf{db: db, notifier: notifier}, nil
}

// lowStockAlert is queued during the delivery transaction and emitted only
// after the transaction commits.
type lowStockAlert struct {
	productID      string
	productName    string
	remainingStock int
}

// CreateFromCart converts the user's selected cart items into a PENDING order.
// Selecting the items, writing the order with its line items and initial
// event, and deleting the consumed cart items happen in one transaction.
// Cart item ids not owned by the user are silently excluded; an empty
// selection is NotFound.
func (c *Conf) CreateFromCart(ctx context.Context, userID string, newOrder NewOrder) (Order, error) {
	var order Order

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		querySelect := `
			SELECT ci.id, ci.product_id, ci.variation_id, ci.quantity, p.price
			FROM cart_items ci
			JOIN products p ON p.id = ci.product_id
			WHERE ci.id = ANY ($1) AND ci.user_id = $2
			FOR UPDATE OF ci
		`
		rows, err := tx.QueryContext(ctx, querySelect, newOrder.CartItemIDs, userID)
		if err != nil {
			return fmt.Errorf("failed to query cart items: %w", err)
		}
		defer rows.Close()

		var selected []selectedItem
		for rows.Next() {
			var item selectedItem
			if err := rows.Scan(&item.cartItemID, &item.productID, &item.variationID,
				&item.quantity, &item.price); err != nil {
				return fmt.Errorf("failed to scan cart item: %w", err)
			}
			selected = append(selected, item)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating cart items: %w", err)
		}

		if len(selected) == 0 {
			return fmt.Errorf("no valid cart items selected: %w", sql.ErrNoRows)
		}

		queryOrder := `
			INSERT INTO orders (id, user_id, net_amount, shipping_address, billing_address, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			RETURNING id, user_id, net_amount, shipping_address, billing_address, status, created_at, updated_at
		`
		err = tx.QueryRowContext(ctx, queryOrder, uuid.NewString(), userID,
			netAmount(selected), newOrder.ShippingAddress, newOrder.BillingAddress, StatusPending).
			Scan(&order.ID, &order.UserID, &order.NetAmount, &order.ShippingAddress,
				&order.BillingAddress, &order.Status, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		queryLine := `
			INSERT INTO order_products (id, order_id, product_id, variation_id, quantity, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			RETURNING id, order_id, product_id, variation_id, quantity, created_at
		`
		consumedIDs := make([]string, 0, len(selected))
		for _, item := range selected {
			var line OrderProduct
			err = tx.QueryRowContext(ctx, queryLine, uuid.NewString(), order.ID,
				item.productID, item.variationID, item.quantity).
				Scan(&line.ID, &line.OrderID, &line.ProductID, &line.VariationID,
					&line.Quantity, &line.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert order product: %w", err)
			}
			order.OrderProducts = append(order.OrderProducts, line)
			consumedIDs = append(consumedIDs, item.cartItemID)
		}

		event, err := appendEvent(ctx, tx, order.ID, StatusPending)
		if err != nil {
			return err
		}
		order.Events = append(order.Events, event)

		queryDelete := `
			DELETE FROM cart_items
			WHERE id = ANY ($1) AND user_id = $2
		`
		if _, err := tx.ExecContext(ctx, queryDelete, consumedIDs, userID); err != nil {
			return fmt.Errorf("failed to delete consumed cart items: %w", err)
		}

		return nil
	})
	if err != nil {
		return Order{}, err
	}

	return order, nil
}

// GetAll returns all orders for the user with line items and event history.
// An empty result is NotFound, unlike the cart's empty-list success.
func (c *Conf) GetAll(ctx context.Context, userID string) ([]Order, error) {
	query := `
		SELECT id, user_id, net_amount, shipping_address, billing_address, status, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var ordersList []Order
	for rows.Next() {
		var order Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.NetAmount, &order.ShippingAddress,
			&order.BillingAddress, &order.Status, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		ordersList = append(ordersList, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(ordersList) == 0 {
		return nil, fmt.Errorf("no orders for user %s: %w", userID, sql.ErrNoRows)
	}

	for i := range ordersList {
		if err := c.loadChildren(ctx, &ordersList[i]); err != nil {
			return nil, err
		}
	}

	return ordersList, nil
}

// GetByID returns a single order scoped to the owning user.
func (c *Conf) GetByID(ctx context.Context, orderID, userID string) (Order, error) {
	query := `
		SELECT id, user_id, net_amount, shipping_address, billing_address, status, created_at, updated_at
		FROM orders
		WHERE id = $1 AND user_id = $2
	`
	var order Order
	err := c.db.QueryRowContext(ctx, query, orderID, userID).
		Scan(&order.ID, &order.UserID, &order.NetAmount, &order.ShippingAddress,
			&order.BillingAddress, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, fmt.Errorf("order %s: %w", orderID, sql.ErrNoRows)
		}
		return Order{}, fmt.Errorf("failed to query order: %w", err)
	}

	if err := c.loadChildren(ctx, &order); err != nil {
		return Order{}, err
	}

	return order, nil
}

// Update patches the shipping and billing addresses of an owned order. Other
// fields are deliberately not patchable here.
func (c *Conf) Update(ctx context.Context, orderID, userID string, patch AddressPatch) (Order, error) {
	query := `
		UPDATE orders
		SET shipping_address = COALESCE($3, shipping_address),
		    billing_address = COALESCE($4, billing_address),
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, net_amount, shipping_address, billing_address, status, created_at, updated_at
	`
	var order Order
	err := c.db.QueryRowContext(ctx, query, orderID, userID,
		patch.ShippingAddress, patch.BillingAddress).
		Scan(&order.ID, &order.UserID, &order.NetAmount, &order.ShippingAddress,
			&order.BillingAddress, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, fmt.Errorf("order %s: %w", orderID, sql.ErrNoRows)
		}
		return Order{}, fmt.Errorf("failed to update order: %w", err)
	}

	if err := c.loadChildren(ctx, &order); err != nil {
		return Order{}, err
	}

	return order, nil
}

// Cancel moves an owned PENDING or ACCEPTED order to CANCELLED and appends the
// matching event. Not found and not cancellable are the same NotFound outcome.
func (c *Conf) Cancel(ctx context.Context, orderID, userID string) (Order, error) {
	var order Order

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE orders
			SET status = $3, updated_at = NOW()
			WHERE id = $1 AND user_id = $2 AND status = ANY ($4)
			RETURNING id, user_id, net_amount, shipping_address, billing_address, status, created_at, updated_at
		`
		cancellable := []string{StatusPending.String(), StatusAccepted.String()}
		err := tx.QueryRowContext(ctx, query, orderID, userID, StatusCancelled, cancellable).
			Scan(&order.ID, &order.UserID, &order.NetAmount, &order.ShippingAddress,
				&order.BillingAddress, &order.Status, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("order %s not found or not cancellable: %w", orderID, sql.ErrNoRows)
			}
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		if _, err := appendEvent(ctx, tx, order.ID, StatusCancelled); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	if err := c.loadChildren(ctx, &order); err != nil {
		return Order{}, err
	}

	return order, nil
}

// UpdateStatus moves an order to newStatus and appends the matching event.
// Orders already in a terminal status reject every further transition. A
// transition to DELIVERED additionally runs the stock reduction inside the
// same transaction; any stock failure rolls the whole transition back. Low
// stock notifications fire only after commit.
func (c *Conf) UpdateStatus(ctx context.Context, orderID string, newStatus Status) (Order, error) {
	if _, err := ParseStatus(newStatus.String()); err != nil {
		return Order{}, err
	}

	var order Order
	var alerts []lowStockAlert

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		// Lock the row so a concurrent transition cannot slip past the
		// terminal check.
		var current Status
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("order %s: %w", orderID, sql.ErrNoRows)
			}
			return fmt.Errorf("failed to query order status: %w", err)
		}
		if current.Terminal() {
			return fmt.Errorf("order %s is %s, no further transition: %w",
				orderID, current, ErrInvalidStatus)
		}

		query := `
			UPDATE orders
			SET status = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING id, user_id, net_amount, shipping_address, billing_address, status, created_at, updated_at
		`
		err = tx.QueryRowContext(ctx, query, orderID, newStatus).
			Scan(&order.ID, &order.UserID, &order.NetAmount, &order.ShippingAddress,
				&order.BillingAddress, &order.Status, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		if _, err := appendEvent(ctx, tx, order.ID, newStatus); err != nil {
			return err
		}

		if newStatus == StatusDelivered {
			alerts, err = reduceStock(ctx, tx, order.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	for _, alert := range alerts {
		if err := c.notifier.LowStock(ctx, alert.productID, alert.productName, alert.remainingStock); err != nil {
			slog.Error("failed to emit low stock notification",
				slog.String(logkey.ERROR, err.Error()), slog.String("ProductID", alert.productID))
		}
	}

	if err := c.loadChildren(ctx, &order); err != nil {
		return Order{}, err
	}

	return order, nil
}

// Delete hard-deletes an order; line items and events go with it via the
// schema cascade. Ownership is enforced at the boundary, not here.
func (c *Conf) Delete(ctx context.Context, orderID string) error {
	result, err := c.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("order %s: %w", orderID, sql.ErrNoRows)
	}
	return nil
}

// reduceStock decrements each referenced product's stock by its line quantity
// and queues a low stock alert per threshold crossing. The decrement is a
// single guarded statement, so concurrent deliveries cannot lose updates, and
// the notification latch flips with a conditional update, so at most one
// caller wins the right to notify.
func reduceStock(ctx context.Context, tx *sql.Tx, orderID string) ([]lowStockAlert, error) {
	queryLines := `
		SELECT product_id, quantity
		FROM order_products
		WHERE order_id = $1
	`
	rows, err := tx.QueryContext(ctx, queryLines, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order products: %w", err)
	}
	defer rows.Close()

	type line struct {
		productID string
		quantity  int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order product: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order products: %w", err)
	}

	var alerts []lowStockAlert
	for _, l := range lines {
		queryDecrement := `
			UPDATE products
			SET stock_quantity = stock_quantity - $2, updated_at = NOW()
			WHERE id = $1 AND stock_quantity >= $2
			RETURNING name, stock_quantity
		`
		var productName string
		var remaining int
		err := tx.QueryRowContext(ctx, queryDecrement, l.productID, l.quantity).
			Scan(&productName, &remaining)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				var exists bool
				if err := tx.QueryRowContext(ctx,
					`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, l.productID).Scan(&exists); err != nil {
					return nil, fmt.Errorf("failed to check product: %w", err)
				}
				if exists {
					return nil, fmt.Errorf("product %s short by stock for quantity %d: %w",
						l.productID, l.quantity, ErrInsufficientStock)
				}
				return nil, fmt.Errorf("product %s: %w", l.productID, sql.ErrNoRows)
			}
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}

		queryLatch := `
			UPDATE stock_notifications
			SET is_notified = TRUE, updated_at = NOW()
			WHERE product_id = $1 AND is_notified = FALSE AND threshold >= $2
		`
		result, err := tx.ExecContext(ctx, queryLatch, l.productID, remaining)
		if err != nil {
			return nil, fmt.Errorf("failed to latch stock notification: %w", err)
		}
		latched, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read rows affected: %w", err)
		}
		if latched == 1 {
			alerts = append(alerts, lowStockAlert{
				productID:      l.productID,
				productName:    productName,
				remainingStock: remaining,
			})
		}
	}

	return alerts, nil
}

func appendEvent(ctx context.Context, tx *sql.Tx, orderID string, status Status) (OrderEvent, error) {
	query := `
		INSERT INTO order_events (id, order_id, status, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, order_id, status, created_at
	`
	var event OrderEvent
	err := tx.QueryRowContext(ctx, query, uuid.NewString(), orderID, status).
		Scan(&event.ID, &event.OrderID, &event.Status, &event.CreatedAt)
	if err != nil {
		return OrderEvent{}, fmt.Errorf("failed to append order event: %w", err)
	}
	return event, nil
}

// loadChildren populates the line items and the event history of an order.
func (c *Conf) loadChildren(ctx context.Context, order *Order) error {
	queryLines := `
		SELECT id, order_id, product_id, variation_id, quantity, created_at
		FROM order_products
		WHERE order_id = $1
		ORDER BY created_at
	`
	rows, err := c.db.QueryContext(ctx, queryLines, order.ID)
	if err != nil {
		return fmt.Errorf("failed to query order products: %w", err)
	}
	defer rows.Close()

	order.OrderProducts = nil
	for rows.Next() {
		var line OrderProduct
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.VariationID,
			&line.Quantity, &line.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan order product: %w", err)
		}
		order.OrderProducts = append(order.OrderProducts, line)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order products: %w", err)
	}

	queryEvents := `
		SELECT id, order_id, status, created_at
		FROM order_events
		WHERE order_id = $1
		ORDER BY created_at
	`
	eventRows, err := c.db.QueryContext(ctx, queryEvents, order.ID)
	if err != nil {
		return fmt.Errorf("failed to query order events: %w", err)
	}
	defer eventRows.Close()

	order.Events = nil
	for eventRows.Next() {
		var event OrderEvent
		if err := eventRows.Scan(&event.ID, &event.OrderID, &event.Status, &event.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan order event: %w", err)
		}
		order.Events = append(order.Events, event)
	}
	if err := eventRows.Err(); err != nil {
		return fmt.Errorf("error iterating order events: %w", err)
	}

	return nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
