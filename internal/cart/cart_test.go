package cart

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func mustExec(t *testing.T, query string, args ...any) {
	t.Helper()
	_, err := testDB.Exec(query, args...)
	require.NoError(t, err)
}

func createTestUser(t *testing.T) string {
	t.Helper()
	id := uuid.NewString()
	mustExec(t, `
		INSERT INTO users (id, first_name, last_name, email, password_hash, role)
		VALUES ($1, 'Test', 'User', $2, 'not-a-real-hash', 'USER')
	`, id, id+"@example.com")
	t.Cleanup(func() {
		testDB.Exec(`DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

func createTestProduct(t *testing.T, name, price string) string {
	t.Helper()
	id := uuid.NewString()
	mustExec(t, `
		INSERT INTO products (id, name, description, price, stock_quantity)
		VALUES ($1, $2, '', $3, 100)
	`, id, name, price)
	t.Cleanup(func() {
		testDB.Exec(`DELETE FROM cart_items WHERE product_id = $1`, id)
		testDB.Exec(`DELETE FROM products WHERE id = $1`, id)
	})
	return id
}

func createTestVariation(t *testing.T, productID, vType, value string) string {
	t.Helper()
	id := uuid.NewString()
	mustExec(t, `
		INSERT INTO variations (id, product_id, type, value)
		VALUES ($1, $2, $3, $4)
	`, id, productID, vType, value)
	return id
}

func TestAddToCartMergesQuantities(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured, skipping TestAddToCartMergesQuantities")
	}
	ctx := context.Background()

	userID := createTestUser(t)
	productID := createTestProduct(t, "Mug", "9.99")
	variationID := createTestVariation(t, productID, "color", "blue")

	conf, err := NewConf(testDB)
	require.NoError(t, err)

	first, err := conf.AddToCart(ctx, userID, NewCartItem{
		ProductID: productID, VariationID: variationID, Quantity: 2,
	})
	require.NoError(t, err)
	require.Equal(t, 2, first.Quantity)

	// Same (product, variation) pair merges into the existing row.
	second, err := conf.AddToCart(ctx, userID, NewCartItem{
		ProductID: productID, VariationID: variationID, Quantity: 3,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 5, second.Quantity)

	var count int
	require.NoError(t, testDB.QueryRow(
		`SELECT COUNT(*) FROM cart_items WHERE user_id = $1`, userID).Scan(&count))
	require.Equal(t, 1, count)
}

func TestAddToCartUnknownProduct(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured, skipping TestAddToCartUnknownProduct")
	}
	ctx := context.Background()

	userID := createTestUser(t)

	conf, err := NewConf(testDB)
	require.NoError(t, err)

	_, err = conf.AddToCart(ctx, userID, NewCartItem{
		ProductID: uuid.NewString(), VariationID: uuid.NewString(), Quantity: 1,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAdjustQuantity(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured, skipping TestAdjustQuantity")
	}
	ctx := context.Background()

	userID := createTestUser(t)
	productID := createTestProduct(t, "Mug", "9.99")
	variationID := createTestVariation(t, productID, "color", "blue")

	conf, err := NewConf(testDB)
	require.NoError(t, err)

	item, err := conf.AddToCart(ctx, userID, NewCartItem{
		ProductID: productID, VariationID: variationID, Quantity: 2,
	})
	require.NoError(t, err)

	grown, removed, err := conf.AdjustQuantity(ctx, item.ID, userID, 3)
	require.NoError(t, err)
	require.False(t, removed)
	require.Equal(t, 5, grown.Quantity)

	// Dropping to zero removes the row.
	_, removed, err = conf.AdjustQuantity(ctx, item.ID, userID, -5)
	require.NoError(t, err)
	require.True(t, removed)

	_, _, err = conf.AdjustQuantity(ctx, item.ID, userID, 1)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAdjustQuantityScopedToOwner(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured, skipping TestAdjustQuantityScopedToOwner")
	}
	ctx := context.Background()

	owner := createTestUser(t)
	intruder := createTestUser(t)
	productID := createTestProduct(t, "Mug", "9.99")
	variationID := createTestVariation(t, productID, "color", "blue")

	conf, err := NewConf(testDB)
	require.NoError(t, err)

	item, err := conf.AddToCart(ctx, owner, NewCartItem{
		ProductID: productID, VariationID: variationID, Quantity: 2,
	})
	require.NoError(t, err)

	_, _, err = conf.AdjustQuantity(ctx, item.ID, intruder, 1)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGetCart(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured, skipping TestGetCart")
	}
	ctx := context.Background()

	userID := createTestUser(t)
	productID := createTestProduct(t, "Mug", "9.99")
	variationID := createTestVariation(t, productID, "color", "blue")

	conf, err := NewConf(testDB)
	require.NoError(t, err)

	empty, err := conf.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = conf.AddToCart(ctx, userID, NewCartItem{
		ProductID: productID, VariationID: variationID, Quantity: 2,
	})
	require.NoError(t, err)

	lines, err := conf.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, "Mug", lines[0].ProductName)
	require.True(t, lines[0].ProductPrice.Equal(decimal.RequireFromString("9.99")))
	require.Equal(t, "color", lines[0].VariationType)
	require.Equal(t, "blue", lines[0].VariationValue)
}
