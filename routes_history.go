package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"biomed-search/services"
)

type historyRequest struct {
	Name         string                 `json:"name"`
	Query        string                 `json:"query"`
	Category     string                 `json:"category"`
	Filters      map[string]interface{} `json:"filters"`
	ResultsCount int64                  `json:"results_count"`
}

func (r historyRequest) entry() services.HistoryEntry {
	return services.HistoryEntry{
		Name:         r.Name,
		Query:        r.Query,
		Category:     r.Category,
		Filters:      r.Filters,
		ResultsCount: r.ResultsCount,
	}
}

func setupHistoryRoutes(api *gin.RouterGroup, history historyStore, log *zap.Logger) {
	rg := api.Group("/search-history", requireUser())

	rg.GET("", func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}
		rows, err := history.List(c.Request.Context(), currentUser(c).ID, limit)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"history": rows, "total": len(rows)})
	})

	rg.POST("", func(c *gin.Context) {
		var req historyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		row, err := history.Record(c.Request.Context(), currentUser(c).ID, req.entry())
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, row)
	})

	rg.POST("/:id/save", func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		var req struct {
			Name string `json:"name"`
		}
		// Der Body ist optional.
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		row, err := history.Save(c.Request.Context(), currentUser(c).ID, id, req.Name)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, row)
	})
}

func setupSavedSearchRoutes(api *gin.RouterGroup, history historyStore, log *zap.Logger) {
	rg := api.Group("/saved-searches", requireUser())

	rg.GET("", func(c *gin.Context) {
		rows, err := history.ListSaved(c.Request.Context(), currentUser(c).ID)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"saved_searches": rows, "total": len(rows)})
	})

	rg.POST("", func(c *gin.Context) {
		var req historyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		row, err := history.CreateSaved(c.Request.Context(), currentUser(c).ID, req.entry())
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, row)
	})

	rg.POST("/:id/execute", func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		row, err := history.Execute(c.Request.Context(), currentUser(c).ID, id)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"query":    row.Query,
			"category": row.Category,
			"filters":  row.Filters,
		})
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		if err := history.DeleteSaved(c.Request.Context(), currentUser(c).ID, id); err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
}
