package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LivingHopeDev/Inventory-system/internal/products"
	"github.com/LivingHopeDev/Inventory-system/pkg/ctxmanage"
	"github.com/LivingHopeDev/Inventory-system/pkg/logkey"
)

func (h *Handler) CreateVariation(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var newVariation products.NewVariation
	if err := c.ShouldBindJSON(&newVariation); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validate.Struct(newVariation); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	variation, err := h.p.InsertVariation(c.Request.Context(), newVariation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Error("product not found", slog.String(logkey.TraceID, traceId),
				slog.String("ProductID", newVariation.ProductID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			slog.Error("error in inserting the variation", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Variation creation failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Product variation created", "data": variation})
}

func (h *Handler) UpdateVariation(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	variationID := c.Param("id")

	var request struct {
		Type  string `json:"type" validate:"required"`
		Value string `json:"value" validate:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validate.Struct(request); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	variation, err := h.p.UpdateVariation(c.Request.Context(), variationID, request.Type, request.Value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Error("variation not found", slog.String(logkey.TraceID, traceId),
				slog.String("VariationID", variationID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Variation not found"})
		} else {
			slog.Error("error in updating the variation", slog.String(logkey.TraceID, traceId),
				slog.String("VariationID", variationID), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Variation update failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Variation updated successfully", "data": variation})
}

func (h *Handler) DeleteVariation(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	variationID := c.Param("id")

	err := h.p.DeleteVariation(c.Request.Context(), variationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Error("variation not found", slog.String(logkey.TraceID, traceId),
				slog.String("VariationID", variationID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Variation not found"})
		} else {
			slog.Error("error in deleting the variation", slog.String(logkey.TraceID, traceId),
				slog.String("VariationID", variationID), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Variation deletion failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Variation deleted"})
}

func (h *Handler) ListVariations(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	skip, ok := parseSkip(c)
	if !ok {
		return
	}

	variations, err := h.p.ListVariations(c.Request.Context(), skip, 10)
	if err != nil {
		slog.Error("error in fetching variations", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch variations"})
		return
	}

	message := "Variation info"
	if len(variations) == 0 {
		message = "No variation listed yet"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "data": variations})
}
