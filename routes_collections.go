package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func setupCollectionRoutes(api *gin.RouterGroup, collections collectionStore, exports exporter, log *zap.Logger) {
	rg := api.Group("/collections", requireUser())

	rg.GET("", func(c *gin.Context) {
		cols, err := collections.List(c.Request.Context(), currentUser(c).ID)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"collections": cols, "total": len(cols)})
	})

	rg.POST("", func(c *gin.Context) {
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		col, err := collections.Create(c.Request.Context(), currentUser(c).ID, req.Title, req.Description)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, col)
	})

	rg.GET("/:id", func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		col, err := collections.Get(c.Request.Context(), currentUser(c).ID, id)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, col)
	})

	rg.PUT("/:id", func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		var req struct {
			Title       *string `json:"title"`
			Description *string `json:"description"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		col, err := collections.Update(c.Request.Context(), currentUser(c).ID, id, req.Title, req.Description)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, col)
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		if err := collections.Delete(c.Request.Context(), currentUser(c).ID, id); err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	rg.POST("/:id/items", func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		var req struct {
			ItemType string `json:"item_type"`
			ItemIDs  []uint `json:"item_ids"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		col, err := collections.AddItems(c.Request.Context(), currentUser(c).ID, id, req.ItemType, req.ItemIDs)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, col)
	})

	rg.DELETE("/:id/items/:item_id", func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		itemID, ok := parseID(c, "item_id")
		if !ok {
			return
		}
		if err := collections.RemoveItem(c.Request.Context(), currentUser(c).ID, id, itemID); err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	rg.POST("/:id/export", func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		res, err := exports.Export(c.Request.Context(), currentUser(c).ID, id)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})
}
