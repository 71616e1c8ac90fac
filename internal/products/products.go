// Package products is the catalog store: products, their variations and the
// per-product low stock notification config.
package products

import (
	"context"
	"database/sql"
	"encoding/json"
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

func (c *Conf) InsertProduct(ctx context.Context, newProduct NewProduct) (Product, error) {
	imageURLs, err := marshalImageURLs(newProduct.ImageURLs)
	if err != nil {
		return Product{}, err
	}

	query := `
		INSERT INTO products (id, name, description, price, stock_quantity, image_urls, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, name, description, price, stock_quantity, image_urls, created_at, updated_at
	`
	product, err := scanProduct(c.db.QueryRowContext(ctx, query, uuid.NewString(),
		newProduct.Name, newProduct.Description, newProduct.Price, newProduct.StockQuantity, imageURLs))
	if err != nil {
		return Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	return product, nil
}

func (c *Conf) GetProductByID(ctx context.Context, productID string) (Product, error) {
	query := `
		SELECT id, name, description, price, stock_quantity, image_urls, created_at, updated_at
		FROM products
		WHERE id = $1
	`
	product, err := scanProduct(c.db.QueryRowContext(ctx, query, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, fmt.Errorf("product %s: %w", productID, sql.ErrNoRows)
		}
		return Product{}, fmt.Errorf("failed to query product: %w", err)
	}

	variations, err := c.variationsForProducts(ctx, []string{product.ID})
	if err != nil {
		return Product{}, err
	}
	product.Variations = variations[product.ID]

	return product, nil
}

func (c *Conf) UpdateProductInDB(ctx context.Context, productID string, updated NewProduct) (Product, error) {
	imageURLs, err := marshalImageURLs(updated.ImageURLs)
	if err != nil {
		return Product{}, err
	}

	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock_quantity = $5, image_urls = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, description, price, stock_quantity, image_urls, created_at, updated_at
	`
	product, err := scanProduct(c.db.QueryRowContext(ctx, query, productID, updated.Name,
		updated.Description, updated.Price, updated.StockQuantity, imageURLs))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, fmt.Errorf("product %s: %w", productID, sql.ErrNoRows)
		}
		return Product{}, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (c *Conf) DeleteProductFromDB(ctx context.Context, productID string) error {
	result, err := c.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("product %s: %w", productID, sql.ErrNoRows)
	}
	return nil
}

// ListProductsFromDB returns a page of products with their variations.
func (c *Conf) ListProductsFromDB(ctx context.Context, skip, take int) ([]Product, error) {
	if take <= 0 {
		take = 10
	}
	query := `
		SELECT id, name, description, price, stock_quantity, image_urls, created_at, updated_at
		FROM products
		ORDER BY created_at
		OFFSET $1 LIMIT $2
	`
	return c.queryProducts(ctx, query, skip, take)
}

// SearchProducts matches the query against product name and description.
func (c *Conf) SearchProducts(ctx context.Context, search string, skip, take int) ([]Product, error) {
	if take <= 0 {
		take = 10
	}
	query := `
		SELECT id, name, description, price, stock_quantity, image_urls, created_at, updated_at
		FROM products
		WHERE name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
		ORDER BY created_at
		OFFSET $2 LIMIT $3
	`
	return c.queryProducts(ctx, query, search, skip, take)
}

func (c *Conf) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var productsList []Product
	var ids []string
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		productsList = append(productsList, product)
		ids = append(ids, product.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	variations, err := c.variationsForProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range productsList {
		productsList[i].Variations = variations[productsList[i].ID]
	}

	return productsList, nil
}

func (c *Conf) InsertVariation(ctx context.Context, newVariation NewVariation) (Variation, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, newVariation.ProductID).Scan(&exists)
	if err != nil {
		return Variation{}, fmt.Errorf("failed to check product: %w", err)
	}
	if !exists {
		return Variation{}, fmt.Errorf("product %s: %w", newVariation.ProductID, sql.ErrNoRows)
	}

	query := `
		INSERT INTO variations (id, product_id, type, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, product_id, type, value, created_at, updated_at
	`
	var variation Variation
	err = c.db.QueryRowContext(ctx, query, uuid.NewString(), newVariation.ProductID,
		newVariation.Type, newVariation.Value).
		Scan(&variation.ID, &variation.ProductID, &variation.Type, &variation.Value,
			&variation.CreatedAt, &variation.UpdatedAt)
	if err != nil {
		return Variation{}, fmt.Errorf("failed to insert variation: %w", err)
	}
	return variation, nil
}

func (c *Conf) UpdateVariation(ctx context.Context, variationID, vType, value string) (Variation, error) {
	query := `
		UPDATE variations
		SET type = $2, value = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, product_id, type, value, created_at, updated_at
	`
	var variation Variation
	err := c.db.QueryRowContext(ctx, query, variationID, vType, value).
		Scan(&variation.ID, &variation.ProductID, &variation.Type, &variation.Value,
			&variation.CreatedAt, &variation.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Variation{}, fmt.Errorf("variation %s: %w", variationID, sql.ErrNoRows)
		}
		return Variation{}, fmt.Errorf("failed to update variation: %w", err)
	}
	return variation, nil
}

func (c *Conf) DeleteVariation(ctx context.Context, variationID string) error {
	result, err := c.db.ExecContext(ctx, `DELETE FROM variations WHERE id = $1`, variationID)
	if err != nil {
		return fmt.Errorf("failed to delete variation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("variation %s: %w", variationID, sql.ErrNoRows)
	}
	return nil
}

func (c *Conf) ListVariations(ctx context.Context, skip, take int) ([]Variation, error) {
	if take <= 0 {
		take = 10
	}
	query := `
		SELECT id, product_id, type, value, created_at, updated_at
		FROM variations
		ORDER BY created_at
		OFFSET $1 LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, query, skip, take)
	if err != nil {
		return nil, fmt.Errorf("failed to query variations: %w", err)
	}
	defer rows.Close()

	var variations []Variation
	for rows.Next() {
		var variation Variation
		if err := rows.Scan(&variation.ID, &variation.ProductID, &variation.Type,
			&variation.Value, &variation.CreatedAt, &variation.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan variation: %w", err)
		}
		variations = append(variations, variation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variations: %w", err)
	}
	return variations, nil
}

// SetStockThreshold upserts the low stock config for a product. Changing the
// threshold rearms the notification latch.
func (c *Conf) SetStockThreshold(ctx context.Context, productID string, threshold int) (StockNotification, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	if err != nil {
		return StockNotification{}, fmt.Errorf("failed to check product: %w", err)
	}
	if !exists {
		return StockNotification{}, fmt.Errorf("product %s: %w", productID, sql.ErrNoRows)
	}

	query := `
		INSERT INTO stock_notifications (id, product_id, threshold, is_notified, created_at, updated_at)
		VALUES ($1, $2, $3, FALSE, NOW(), NOW())
		ON CONFLICT (product_id)
		DO UPDATE SET threshold = EXCLUDED.threshold, is_notified = FALSE, updated_at = NOW()
		RETURNING id, product_id, threshold, is_notified, created_at, updated_at
	`
	var notification StockNotification
	err = c.db.QueryRowContext(ctx, query, uuid.NewString(), productID, threshold).
		Scan(&notification.ID, &notification.ProductID, &notification.Threshold,
			&notification.IsNotified, &notification.CreatedAt, &notification.UpdatedAt)
	if err != nil {
		return StockNotification{}, fmt.Errorf("failed to upsert stock notification: %w", err)
	}
	return notification, nil
}

// RearmStockNotification resets the latch so the next threshold crossing
// notifies again.
func (c *Conf) RearmStockNotification(ctx context.Context, productID string) (StockNotification, error) {
	query := `
		UPDATE stock_notifications
		SET is_notified = FALSE, updated_at = NOW()
		WHERE product_id = $1
		RETURNING id, product_id, threshold, is_notified, created_at, updated_at
	`
	var notification StockNotification
	err := c.db.QueryRowContext(ctx, query, productID).
		Scan(&notification.ID, &notification.ProductID, &notification.Threshold,
			&notification.IsNotified, &notification.CreatedAt, &notification.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StockNotification{}, fmt.Errorf("stock notification for product %s: %w", productID, sql.ErrNoRows)
		}
		return StockNotification{}, fmt.Errorf("failed to rearm stock notification: %w", err)
	}
	return notification, nil
}

func (c *Conf) variationsForProducts(ctx context.Context, productIDs []string) (map[string][]Variation, error) {
	byProduct := make(map[string][]Variation)
	if len(productIDs) == 0 {
		return byProduct, nil
	}

	query := `
		SELECT id, product_id, type, value, created_at, updated_at
		FROM variations
		WHERE product_id = ANY ($1)
		ORDER BY created_at
	`
	rows, err := c.db.QueryContext(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query variations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var variation Variation
		if err := rows.Scan(&variation.ID, &variation.ProductID, &variation.Type,
			&variation.Value, &variation.CreatedAt, &variation.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan variation: %w", err)
		}
		byProduct[variation.ProductID] = append(byProduct[variation.ProductID], variation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variations: %w", err)
	}
	return byProduct, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var product Product
	var imageURLs []byte
	err := row.Scan(&product.ID, &product.Name, &product.Description, &product.Price,
		&product.StockQuantity, &imageURLs, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	if err := json.Unmarshal(imageURLs, &product.ImageURLs); err != nil {
		return Product{}, fmt.Errorf("failed to decode image urls: %w", err)
	}
	return product, nil
}

func marshalImageURLs(urls []string) ([]byte, error) {
	if urls == nil {
		urls = []string{}
	}
	data, err := json.Marshal(urls)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image urls: %w", err)
	}
	return data, nil
}
