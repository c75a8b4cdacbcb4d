package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/davidgq/ecom-api/internal/httpx"
	"github.com/davidgq/ecom-api/internal/order"
)

// stockCache is what order handlers need from the product cache: stale
// stock must be dropped after placement, cancellation, or restock.
type stockCache interface {
	Invalidate(ctx context.Context, ids ...string)
}

type orderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type createOrderRequest struct {
	Items []orderItemRequest `json:"items" binding:"required,min=1,dive"`
}

func createOrderHandler(repo order.Repository, cache stockCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
			return
		}
		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		lines := make([]order.Line, 0, len(req.Items))
		for _, it := range req.Items {
			lines = append(lines, order.Line{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		o, err := repo.Place(c.Request.Context(), id.UserID, lines)
		if err != nil {
			switch {
			case errors.Is(err, order.ErrProductNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			case errors.Is(err, order.ErrInsufficientStock), errors.Is(err, order.ErrInvalidLine):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not place order"})
			}
			return
		}
		cache.Invalidate(c.Request.Context(), productIDs(o)...)
		c.JSON(http.StatusOK, o)
	}
}

func productIDs(o *order.Order) []string {
	seen := make(map[string]bool, len(o.Items))
	var ids []string
	for _, it := range o.Items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	return ids
}

func listOrdersHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
			return
		}
		skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		orders, err := repo.ListByUser(c.Request.Context(), id.UserID, limit, skip)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list orders"})
			return
		}
		if orders == nil {
			orders = []order.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"items": orders, "limit": limit, "offset": skip})
	}
}

func getOrderHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
			return
		}
		o, err := repo.GetForUser(c.Request.Context(), id.UserID, c.Param("id"))
		if err != nil {
			// missing and not-owned collapse: no existence leakage
			if errors.Is(err, order.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get order"})
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

type statusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

func updateOrderStatusHandler(repo order.Repository, cache stockCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
			return
		}
		var req statusUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		o, err := repo.UpdateStatus(c.Request.Context(), id.UserID, c.Param("id"), order.Status(req.Status))
		if err != nil {
			switch {
			case errors.Is(err, order.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			case errors.Is(err, order.ErrBadTransition):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update order"})
			}
			return
		}
		if o.Status == order.StatusCancelled {
			cache.Invalidate(c.Request.Context(), productIDs(o)...)
		}
		c.JSON(http.StatusOK, o)
	}
}
