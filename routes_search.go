package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"biomed-search/services"
)

type searchRequest struct {
	Query          string                 `json:"query"`
	CollectionType string                 `json:"collection_type"`
	Filters        map[string]interface{} `json:"filters"`
	Page           *int                   `json:"page"`
	PerPage        *int                   `json:"per_page"`
	SchemaType     string                 `json:"schema_type"`
}

// bounds lehnt explizit gesetzte Werte außerhalb des Bereichs ab. Fehlende Werte nutzen die Service-Defaults.
func (r *searchRequest) bounds() string {
	if r.Page != nil && *r.Page < 1 {
		return "Page must be at least 1"
	}
	if r.PerPage != nil && (*r.PerPage < 1 || *r.PerPage > services.MaxPerPage) {
		return "Per page must be between 1 and 100"
	}
	return ""
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func setupHealthRoutes(api *gin.RouterGroup, ping func(ctx context.Context) error, log *zap.Logger) {
	api.GET("/health", func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				log.Error("Health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api.GET("/debug/transformers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"transformers": services.TransformerNames()})
	})
}

func setupSearchRoutes(api *gin.RouterGroup, search searcher, history historyStore, log *zap.Logger) {
	rg := api.Group("", requireUser())

	rg.POST("/search", func(c *gin.Context) {
		var req searchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if msg := req.bounds(); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}

		terms := services.ParseQuery(req.Query)
		user := userContext(c)
		resp, err := search.Search(c.Request.Context(), services.SearchRequest{
			CollectionType: req.CollectionType,
			Terms:          terms,
			Filters:        req.Filters,
			Page:           intOrZero(req.Page),
			PerPage:        intOrZero(req.PerPage),
			SchemaType:     req.SchemaType,
			User:           user,
		})
		if err != nil {
			respondError(c, log, err)
			return
		}

		category := req.CollectionType
		if category == "" {
			category = services.DefaultCollectionType
		}
		history.RecordSearch(c.Request.Context(), user.UserID, services.HistoryEntry{
			Query:        strings.Join(terms, " "),
			Category:     category,
			Filters:      req.Filters,
			ResultsCount: resp.Total,
		})
		c.JSON(http.StatusOK, resp.Payload)
	})

	rg.GET("/suggest", func(c *gin.Context) {
		suggestions, err := search.Suggest(c.Request.Context(), c.Query("q"), c.Query("collection_type"), userContext(c))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
	})

	// Filteroptionen sind öffentlich, die Suchseite lädt sie schon vor dem Login.
	api.GET("/filters", func(c *gin.Context) {
		collectionType := c.DefaultQuery("collection_type", services.DefaultCollectionType)
		filters, err := search.AvailableFilters(c.Request.Context(), collectionType)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, filters)
	})
}
