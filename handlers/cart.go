package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LivingHopeDev/Inventory-system/internal/auth"
	"github.com/LivingHopeDev/Inventory-system/internal/cart"
	"github.com/LivingHopeDev/Inventory-system/pkg/ctxmanage"
	"github.com/LivingHopeDev/Inventory-system/pkg/logkey"
)

func (h *Handler) AddToCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject

	var newItem cart.NewCartItem
	if err := c.ShouldBindJSON(&newItem); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validate.Struct(newItem); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	cartItem, err := h.c.AddToCart(c.Request.Context(), userId, newItem)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Error("product or variation not found", slog.String(logkey.TraceID, traceId),
				slog.String("ProductID", newItem.ProductID), slog.String("VariationID", newItem.VariationID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product or variation not found"})
			return
		}
		slog.Error("error adding product to cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String("ProductID", newItem.ProductID))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to add product to cart"})
		return
	}

	slog.Info("product added to cart", slog.String(logkey.TraceID, traceId),
		slog.String("ProductID", newItem.ProductID), slog.Int("Quantity", newItem.Quantity),
		slog.String("UserID", userId))
	c.JSON(http.StatusCreated, gin.H{"message": "Item added to cart", "data": cartItem})
}

func (h *Handler) AdjustCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject
	cartItemId := c.Param("id")

	// Quantity is a relative delta, not an absolute value. Negative deltas
	// shrink the item; reaching zero removes it.
	var request struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if request.Quantity == 0 {
		slog.Error("zero quantity delta", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Quantity must be a non-zero delta"})
		return
	}

	cartItem, removed, err := h.c.AdjustQuantity(c.Request.Context(), cartItemId, userId, request.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Error("cart item not found", slog.String(logkey.TraceID, traceId),
				slog.String("CartItemID", cartItemId))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}
		slog.Error("error updating cart item", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String("CartItemID", cartItemId))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart item"})
		return
	}

	if removed {
		c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart", "data": gin.H{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart updated", "data": cartItem})
}

func (h *Handler) GetCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject

	lines, err := h.c.GetCart(c.Request.Context(), userId)
	if err != nil {
		slog.Error("error fetching cart items", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String("UserID", userId))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart items"})
		return
	}

	if len(lines) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Your cart is empty", "data": []cart.CartLine{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart items retrieved", "data": lines})
}
