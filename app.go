package main

import (
	"context"
	"html/template"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"biomed-search/config"
	"biomed-search/models"
	"biomed-search/services"
)

// Die Routen hängen nur von diesen Interfaces ab, in Tests stehen Fakes dahinter.

type searcher interface {
	Search(ctx context.Context, req services.SearchRequest) (*services.SearchResponse, error)
	Suggest(ctx context.Context, query, collectionType string, user services.UserContext) ([]services.Suggestion, error)
	AvailableFilters(ctx context.Context, collectionType string) (map[string]interface{}, error)
}

type historyStore interface {
	Record(ctx context.Context, userID uint, e services.HistoryEntry) (*models.SearchHistory, error)
	RecordSearch(ctx context.Context, userID uint, e services.HistoryEntry)
	List(ctx context.Context, userID uint, limit int) ([]models.SearchHistory, error)
	ListSaved(ctx context.Context, userID uint) ([]models.SearchHistory, error)
	CreateSaved(ctx context.Context, userID uint, e services.HistoryEntry) (*models.SearchHistory, error)
	Save(ctx context.Context, userID, id uint, name string) (*models.SearchHistory, error)
	Execute(ctx context.Context, userID, id uint) (*models.SearchHistory, error)
	DeleteSaved(ctx context.Context, userID, id uint) error
}

type collectionStore interface {
	List(ctx context.Context, userID uint) ([]models.Collection, error)
	Create(ctx context.Context, userID uint, title, description string) (*models.Collection, error)
	Get(ctx context.Context, userID, id uint) (*models.Collection, error)
	Update(ctx context.Context, userID, id uint, title, description *string) (*models.Collection, error)
	Delete(ctx context.Context, userID, id uint) error
	AddItems(ctx context.Context, userID, id uint, itemType string, ids []uint) (*models.Collection, error)
	RemoveItem(ctx context.Context, userID, id, itemID uint) error
}

type exporter interface {
	Export(ctx context.Context, userID, collectionID uint) (*services.ExportResult, error)
}

type authenticator interface {
	Enabled() bool
	AuthCodeURL(ctx context.Context, state string) (string, error)
	Login(ctx context.Context, code string) (*models.User, error)
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserByToken(ctx context.Context, token string) (*models.User, error)
	EnsureAPIToken(ctx context.Context, userID uint) (string, error)
}

// application bündelt alles, was der Router braucht.
type application struct {
	cfg         *config.Config
	log         *zap.Logger
	search      searcher
	history     historyStore
	collections collectionStore
	exports     exporter
	auth        authenticator
	sessions    *services.SessionManager
	ping        func(ctx context.Context) error
	templates   *template.Template
}

func newRouter(app *application) *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(corsConfig(app.cfg.CORSOrigins)))
	if app.templates != nil {
		router.SetHTMLTemplate(app.templates)
	}

	router.GET("/metrics", apiKeyAuthMiddleware(app.cfg.MetricsAPIKey), gin.WrapH(promhttp.Handler()))

	router.Use(sessionMiddleware(app.sessions, app.log))
	router.Use(authMiddleware(app.auth, app.log))

	api := router.Group("/api")
	api.Use(rateLimitMiddleware(app.cfg.RateLimitRPS, app.cfg.RateLimitBurst))
	api.Use(csrfMiddleware())

	setupHealthRoutes(api, app.ping, app.log)
	setupSearchRoutes(api, app.search, app.history, app.log)
	setupHistoryRoutes(api, app.history, app.log)
	setupSavedSearchRoutes(api, app.history, app.log)
	setupCollectionRoutes(api, app.collections, app.exports, app.log)
	setupAuthRoutes(router, api, app)
	setupViewRoutes(router, app.log)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return router
}

func corsConfig(origins []string) cors.Config {
	conf := cors.DefaultConfig()
	conf.AllowHeaders = append(conf.AllowHeaders, "Authorization", csrfHeader)
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		conf.AllowAllOrigins = true
		return conf
	}
	conf.AllowOrigins = origins
	conf.AllowCredentials = true
	return conf
}
