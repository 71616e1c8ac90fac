package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/LivingHopeDev/Inventory-system/internal/cart"
)

func cartHandler(c CartStore) *Handler {
	return NewHandler(nil, nil, c, nil, nil)
}

func TestAddToCart(t *testing.T) {
	store := &fakeCartStore{
		addToCart: func(ctx context.Context, userID string, item cart.NewCartItem) (cart.CartItem, error) {
			require.Equal(t, "user-1", userID)
			require.Equal(t, 2, item.Quantity)
			return cart.CartItem{ID: "ci-1", UserID: userID, ProductID: item.ProductID,
				VariationID: item.VariationID, Quantity: item.Quantity}, nil
		},
	}
	h := cartHandler(store)
	claims := userClaims("user-1", "USER")

	body := gin.H{"product_id": "p-1", "variation_id": "v-1", "quantity": 2}
	w := serve(t, h.AddToCart, http.MethodPost, body, nil, &claims)

	require.Equal(t, http.StatusCreated, w.Code)
	e := decodeEnvelope(t, w)
	require.Equal(t, "Item added to cart", e.Message)
}

func TestAddToCartValidation(t *testing.T) {
	h := cartHandler(&fakeCartStore{})
	claims := userClaims("user-1", "USER")

	// missing product_id
	body := gin.H{"variation_id": "v-1", "quantity": 2}
	w := serve(t, h.AddToCart, http.MethodPost, body, nil, &claims)

	require.Equal(t, http.StatusBadRequest, w.Code)
	e := decodeEnvelope(t, w)
	require.Equal(t, "ProductID value missing", e.Error)
}

func TestAddToCartUnknownProduct(t *testing.T) {
	store := &fakeCartStore{
		addToCart: func(ctx context.Context, userID string, item cart.NewCartItem) (cart.CartItem, error) {
			return cart.CartItem{}, fmt.Errorf("product not found: %w", sql.ErrNoRows)
		},
	}
	h := cartHandler(store)
	claims := userClaims("user-1", "USER")

	body := gin.H{"product_id": "p-missing", "variation_id": "v-1", "quantity": 1}
	w := serve(t, h.AddToCart, http.MethodPost, body, nil, &claims)

	require.Equal(t, http.StatusNotFound, w.Code)
	e := decodeEnvelope(t, w)
	require.Equal(t, "Product or variation not found", e.Error)
}

func TestAdjustCartItem(t *testing.T) {
	store := &fakeCartStore{
		adjustQuantity: func(ctx context.Context, cartItemID, userID string, delta int) (cart.CartItem, bool, error) {
			require.Equal(t, "ci-1", cartItemID)
			require.Equal(t, -1, delta)
			return cart.CartItem{ID: cartItemID, Quantity: 1}, false, nil
		},
	}
	h := cartHandler(store)
	claims := userClaims("user-1", "USER")

	w := serve(t, h.AdjustCartItem, http.MethodPatch, gin.H{"quantity": -1},
		gin.Params{{Key: "id", Value: "ci-1"}}, &claims)

	require.Equal(t, http.StatusOK, w.Code)
	e := decodeEnvelope(t, w)
	require.Equal(t, "Cart updated", e.Message)
}

func TestAdjustCartItemToZeroRemoves(t *testing.T) {
	store := &fakeCartStore{
		adjustQuantity: func(ctx context.Context, cartItemID, userID string, delta int) (cart.CartItem, bool, error) {
			return cart.CartItem{}, true, nil
		},
	}
	h := cartHandler(store)
	claims := userClaims("user-1", "USER")

	w := serve(t, h.AdjustCartItem, http.MethodPatch, gin.H{"quantity": -2},
		gin.Params{{Key: "id", Value: "ci-1"}}, &claims)

	require.Equal(t, http.StatusOK, w.Code)
	e := decodeEnvelope(t, w)
	require.Equal(t, "Item removed from cart", e.Message)
}

func TestAdjustCartItemZeroDelta(t *testing.T) {
	h := cartHandler(&fakeCartStore{})
	claims := userClaims("user-1", "USER")

	w := serve(t, h.AdjustCartItem, http.MethodPatch, gin.H{"quantity": 0},
		gin.Params{{Key: "id", Value: "ci-1"}}, &claims)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdjustCartItemNotFound(t *testing.T) {
	store := &fakeCartStore{
		adjustQuantity: func(ctx context.Context, cartItemID, userID string, delta int) (cart.CartItem, bool, error) {
			return cart.CartItem{}, false, fmt.Errorf("cart item not found: %w", sql.ErrNoRows)
		},
	}
	h := cartHandler(store)
	claims := userClaims("user-1", "USER")

	w := serve(t, h.AdjustCartItem, http.MethodPatch, gin.H{"quantity": 1},
		gin.Params{{Key: "id", Value: "ci-missing"}}, &claims)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetCart(t *testing.T) {
	store := &fakeCartStore{
		getCart: func(ctx context.Context, userID string) ([]cart.CartLine, error) {
			return []cart.CartLine{
				{
					CartItem:       cart.CartItem{ID: "ci-1", UserID: userID, Quantity: 2},
					ProductName:    "Mug",
					ProductPrice:   decimal.RequireFromString("9.99"),
					VariationType:  "color",
					VariationValue: "blue",
				},
			}, nil
		},
	}
	h := cartHandler(store)
	claims := userClaims("user-1", "USER")

	w := serve(t, h.GetCart, http.MethodGet, nil, nil, &claims)

	require.Equal(t, http.StatusOK, w.Code)
	e := decodeEnvelope(t, w)
	require.Equal(t, "Cart items retrieved", e.Message)

	var lines []cart.CartLine
	require.NoError(t, json.Unmarshal(e.Data, &lines))
	require.Len(t, lines, 1)
	require.Equal(t, "Mug", lines[0].ProductName)
}

func TestGetCartEmpty(t *testing.T) {
	store := &fakeCartStore{
		getCart: func(ctx context.Context, userID string) ([]cart.CartLine, error) {
			return []cart.CartLine{}, nil
		},
	}
	h := cartHandler(store)
	claims := userClaims("user-1", "USER")

	w := serve(t, h.GetCart, http.MethodGet, nil, nil, &claims)

	require.Equal(t, http.StatusOK, w.Code)
	e := decodeEnvelope(t, w)
	require.Equal(t, "Your cart is empty", e.Message)
}
