// Package cart is the per-user cart store. A user holds at most one live item
// per (product, variation) pair; adding the same pair again merges quantities.
package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (Conf, error) {
	if db == nil {
		return Conf{}, fmt.Errorf("db is nil")
	}
	return Conf{db: db}, nil
}

// AddToCart inserts the item or increments the quantity of the existing row
// for the same (user, product, variation) triple.
func (c *Conf) AddToCart(ctx context.Context, userID string, item NewCartItem) (CartItem, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, item.ProductID).Scan(&exists)
	if err != nil {
		return CartItem{}, fmt.Errorf("failed to check product: %w", err)
	}
	if !exists {
		return CartItem{}, fmt.Errorf("product %s: %w", item.ProductID, sql.ErrNoRows)
	}

	err = c.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM variations WHERE id = $1)`, item.VariationID).Scan(&exists)
	if err != nil {
		return CartItem{}, fmt.Errorf("failed to check variation: %w", err)
	}
	if !exists {
		return CartItem{}, fmt.Errorf("variation %s: %w", item.VariationID, sql.ErrNoRows)
	}

	// Single upsert so two concurrent adds of the same triple both land.
	query := `
		INSERT INTO cart_items (id, user_id, product_id, variation_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id, product_id, variation_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, user_id, product_id, variation_id, quantity, created_at, updated_at
	`
	var cartItem CartItem
	err = c.db.QueryRowContext(ctx, query, uuid.NewString(), userID, item.ProductID,
		item.VariationID, item.Quantity).
		Scan(&cartItem.ID, &cartItem.UserID, &cartItem.ProductID, &cartItem.VariationID,
			&cartItem.Quantity, &cartItem.CreatedAt, &cartItem.UpdatedAt)
	if err != nil {
		return CartItem{}, fmt.Errorf("failed to upsert cart item: %w", err)
	}

	return cartItem, nil
}

// AdjustQuantity applies a relative delta to a cart item owned by the user.
// When the new quantity drops to zero or below, the item is deleted and the
// second return value reports the removal.
func (c *Conf) AdjustQuantity(ctx context.Context, cartItemID, userID string, delta int) (CartItem, bool, error) {
	var cartItem CartItem
	var removed bool

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var quantity int
		queryItem := `
			SELECT quantity
			FROM cart_items
			WHERE id = $1 AND user_id = $2
			FOR UPDATE
		`
		err := tx.QueryRowContext(ctx, queryItem, cartItemID, userID).Scan(&quantity)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("cart item %s: %w", cartItemID, sql.ErrNoRows)
			}
			return fmt.Errorf("failed to query cart item: %w", err)
		}

		newQuantity := quantity + delta
		if newQuantity <= 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, cartItemID); err != nil {
				return fmt.Errorf("failed to delete cart item: %w", err)
			}
			removed = true
			return nil
		}

		queryUpdate := `
			UPDATE cart_items
			SET quantity = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING id, user_id, product_id, variation_id, quantity, created_at, updated_at
		`
		err = tx.QueryRowContext(ctx, queryUpdate, cartItemID, newQuantity).
			Scan(&cartItem.ID, &cartItem.UserID, &cartItem.ProductID, &cartItem.VariationID,
				&cartItem.Quantity, &cartItem.CreatedAt, &cartItem.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update cart item quantity: %w", err)
		}
		return nil
	})
	if err != nil {
		return CartItem{}, false, err
	}

	return cartItem, removed, nil
}

// GetCart returns the user's cart items joined with product and variation
// snapshots. An empty cart is a valid, non-error result.
func (c *Conf) GetCart(ctx context.Context, userID string) ([]CartLine, error) {
	query := `
		SELECT ci.id, ci.user_id, ci.product_id, ci.variation_id, ci.quantity,
		       ci.created_at, ci.updated_at,
		       p.name, p.price, v.type, v.value
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		JOIN variations v ON v.id = ci.variation_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at
	`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var lines []CartLine
	for rows.Next() {
		var line CartLine
		if err := rows.Scan(&line.ID, &line.UserID, &line.ProductID, &line.VariationID,
			&line.Quantity, &line.CreatedAt, &line.UpdatedAt,
			&line.ProductName, &line.ProductPrice, &line.VariationType, &line.VariationValue); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return lines, nil
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
