package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cakedaddy/storefront/internal/products"
)

// RegisterProductsRoutes registers routes for the catalog API. Reads are
// public (the shop front lists and searches the menu); writes are the
// admin console managing it.
func RegisterProductsRoutes(r *gin.Engine, cfg HandlerConfig) {
	store := products.NewStore(cfg.DynamoDBClient, cfg.ProductsTable)

	r.GET("/api/products", func(c *gin.Context) {
		list, err := store.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.GET("/api/products/:id", func(c *gin.Context) {
		p, err := store.Get(c.Request.Context(), c.Param("id"))
		if errors.Is(err, products.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, p)
	})

	r.GET("/api/products/category/:category", func(c *gin.Context) {
		list, err := store.ListByCategory(c.Request.Context(), c.Param("category"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.GET("/api/products/search", func(c *gin.Context) {
		query := c.Query("query")
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_query"})
			return
		}
		list, err := store.Search(c.Request.Context(), query)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.POST("/api/products", func(c *gin.Context) {
		var p products.Product
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
			return
		}
		if p.Name == "" || p.Price <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "msg": "name and positive price required"})
			return
		}
		if p.ProductID == "" {
			p.ProductID = uuid.NewString()
		}
		saved, err := store.Put(c.Request.Context(), p)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, saved)
	})

	r.PUT("/api/products/:id", func(c *gin.Context) {
		var p products.Product
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
			return
		}
		p.ProductID = c.Param("id")
		if p.Name == "" || p.Price <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "msg": "name and positive price required"})
			return
		}

		ctx := c.Request.Context()
		existing, err := store.Get(ctx, p.ProductID)
		if errors.Is(err, products.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch_failed", "detail": err.Error()})
			return
		}

		// Ratings and creation time survive a full update
		p.Ratings = existing.Ratings
		p.CreatedAt = existing.CreatedAt
		saved, err := store.Put(ctx, p)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, saved)
	})

	r.DELETE("/api/products/:id", func(c *gin.Context) {
		existed, err := store.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed", "detail": err.Error()})
			return
		}
		if !existed {
			c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.POST("/api/products/:id/ratings", func(c *gin.Context) {
		var rating products.Rating
		if err := c.ShouldBindJSON(&rating); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
			return
		}
		updated, err := store.AddRating(c.Request.Context(), c.Param("id"), rating)
		if errors.Is(err, products.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_rating", "msg": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, updated)
	})
}
