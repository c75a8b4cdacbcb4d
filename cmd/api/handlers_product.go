package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidgq/ecom-api/internal/product"
)

type createProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	// decimal accepts both JSON numbers and strings
	Price         decimal.Decimal `json:"price" binding:"required"`
	StockQuantity int             `json:"stock_quantity" binding:"gte=0"`
	Category      string          `json:"category" binding:"required,productcategory"`
}

func createProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !req.Price.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price must be positive"})
			return
		}
		now := time.Now().UTC()
		p := &product.Product{
			ID:            uuid.NewString(),
			Name:          req.Name,
			Description:   req.Description,
			Price:         req.Price,
			StockQuantity: req.StockQuantity,
			Category:      product.Category(req.Category),
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := repo.Create(c.Request.Context(), p); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create product"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func listProductsHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

		var category product.Category
		if raw := c.Query("category"); raw != "" {
			var err error
			if category, err = product.ParseCategory(raw); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		items, err := repo.List(c.Request.Context(), product.Query{
			Limit:    limit,
			Offset:   skip,
			Category: category,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list products"})
			return
		}
		if items == nil {
			items = []product.Product{}
		}
		c.JSON(http.StatusOK, product.ListResponse{Limit: limit, Offset: skip, Items: items})
	}
}

func getProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get product"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

type updateProductRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity *int             `json:"stock_quantity"`
	Category      *string          `json:"category"`
}

func updateProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Price != nil && !req.Price.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price must be positive"})
			return
		}
		if req.StockQuantity != nil && *req.StockQuantity < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stock_quantity must be non-negative"})
			return
		}
		up := product.Update{
			Name:          req.Name,
			Description:   req.Description,
			Price:         req.Price,
			StockQuantity: req.StockQuantity,
		}
		if req.Category != nil {
			cat, err := product.ParseCategory(*req.Category)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			up.Category = &cat
		}
		p, err := repo.Update(c.Request.Context(), c.Param("id"), up)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update product"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func deleteProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := repo.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
			if errors.Is(err, product.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete product"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
