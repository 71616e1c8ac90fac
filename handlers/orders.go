package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LivingHopeDev/Inventory-system/internal/auth"
	"github.com/LivingHopeDev/Inventory-system/internal/orders"
	"github.com/LivingHopeDev/Inventory-system/pkg/ctxmanage"
	"github.com/LivingHopeDev/Inventory-system/pkg/logkey"
)

func (h *Handler) CreateOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject

	var newOrder orders.NewOrder
	if err := c.ShouldBindJSON(&newOrder); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validate.Struct(newOrder); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	order, err := h.o.CreateFromCart(c.Request.Context(), userId, newOrder)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Error("no valid cart items selected", slog.String(logkey.TraceID, traceId),
				slog.String("UserID", userId))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "No valid cart items selected"})
			return
		}
		slog.Error("error creating order", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String("UserID", userId))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	slog.Info("order created", slog.String(logkey.TraceID, traceId),
		slog.String("OrderID", order.ID), slog.String("UserID", userId))
	c.JSON(http.StatusCreated, gin.H{"message": "Order created successfully", "data": order})
}

func (h *Handler) GetAllOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject

	ordersList, err := h.o.GetAll(c.Request.Context(), userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Error("no orders found", slog.String(logkey.TraceID, traceId),
				slog.String("UserID", userId))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "No orders found for this user"})
			return
		}
		slog.Error("error fetching orders", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String("UserID", userId))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Orders retrieved successfully", "data": ordersList})
}

func (h *Handler) GetOrderById(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject
	orderId := c.Param("id")

	order, err := h.o.GetByID(c.Request.Context(), orderId, userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Error("order not found", slog.String(logkey.TraceID, traceId),
				slog.String("OrderID", orderId))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("error fetching order", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String("OrderID", orderId))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order retrieved successfully", "data": order})
}

func (h *Handler) UpdateOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject
	orderId := c.Param("id")

	var patch orders.AddressPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if patch.ShippingAddress == nil && patch.BillingAddress == nil {
		slog.Error("empty order patch", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	order, err := h.o.Update(c.Request.Context(), orderId, userId, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Error("order not found", slog.String(logkey.TraceID, traceId),
				slog.String("OrderID", orderId))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("error updating order", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String("OrderID", orderId))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order updated successfully", "data": order})
}

func (h *Handler) CancelOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject
	orderId := c.Param("id")

	order, err := h.o.Cancel(c.Request.Context(), orderId, userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Error("order not found or not cancellable", slog.String(logkey.TraceID, traceId),
				slog.String("OrderID", orderId))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found or out for delivery"})
			return
		}
		slog.Error("error cancelling order", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String("OrderID", orderId))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully", "data": order})
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject
	orderId := c.Param("id")

	var request struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	newStatus, err := orders.ParseStatus(request.Status)
	if err != nil {
		slog.Error("invalid order status", slog.String(logkey.TraceID, traceId),
			slog.String("Status", request.Status))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid order status: " + request.Status})
		return
	}

	// The claims may outlive the account; confirm the actor still exists.
	if _, err := h.u.GetUserByID(c.Request.Context(), userId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Error("actor not found", slog.String(logkey.TraceID, traceId),
				slog.String("UserID", userId))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		slog.Error("error in fetching the user", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String("UserID", userId))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		return
	}

	order, err := h.o.UpdateStatus(c.Request.Context(), orderId, newStatus)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			slog.Error("order or user not found", slog.String(logkey.TraceID, traceId),
				slog.String("OrderID", orderId))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, orders.ErrInsufficientStock):
			slog.Error("insufficient stock for delivery", slog.String(logkey.TraceID, traceId),
				slog.String("OrderID", orderId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Insufficient stock to deliver order"})
		case errors.Is(err, orders.ErrInvalidStatus):
			slog.Error("invalid order status", slog.String(logkey.TraceID, traceId),
				slog.String("Status", request.Status))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid order status: " + request.Status})
		default:
			slog.Error("error updating order status", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()), slog.String("OrderID", orderId))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		}
		return
	}

	slog.Info("order status updated", slog.String(logkey.TraceID, traceId),
		slog.String("OrderID", orderId), slog.String("Status", newStatus.String()))
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated to " + newStatus.String(), "data": order})
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	orderId := c.Param("id")

	err := h.o.Delete(c.Request.Context(), orderId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Error("order not found", slog.String(logkey.TraceID, traceId),
				slog.String("OrderID", orderId))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("error deleting order", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String("OrderID", orderId))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order and its related data deleted successfully"})
}
