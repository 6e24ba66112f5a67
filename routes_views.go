package main

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"biomed-search/services"
)

//go:embed web/templates/*.html
var templateFS embed.FS

func loadTemplates() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "web/templates/*.html")
}

type page struct {
	path           string
	template       string
	title          string
	collectionType string
	loginRequired  bool
}

var pages = []page{
	{path: "/", template: "search.html", title: "Search"},
	{path: "/clinical-studies", template: "search.html", title: "Clinical Studies", collectionType: "clinical_study"},
	{path: "/scientific-papers", template: "search.html", title: "Scientific Papers", collectionType: "scientific_paper"},
	{path: "/data-domains", template: "search.html", title: "Data Domains", collectionType: "data_domain"},
	{path: "/collections", template: "collections.html", title: "Collections", loginRequired: true},
	{path: "/saved-searches", template: "saved_searches.html", title: "Saved Searches", loginRequired: true},
	{path: "/search-history", template: "search_history.html", title: "Search History", loginRequired: true},
}

func setupViewRoutes(router *gin.Engine, log *zap.Logger) {
	for _, p := range pages {
		router.GET(p.path, func(c *gin.Context) {
			user := currentUser(c)
			if p.loginRequired && user == nil {
				c.Redirect(http.StatusFound, "/auth/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
				return
			}
			csrf := ""
			if s := currentSession(c); s != nil {
				csrf = s.CSRFToken
			}
			log.Debug("Rendering page", zap.String("template", p.template), zap.String("path", p.path))
			c.HTML(http.StatusOK, p.template, gin.H{
				"Title":           p.title,
				"Path":            p.path,
				"User":            user,
				"CSRFToken":       csrf,
				"Query":           c.Query("q"),
				"CollectionType":  p.collectionType,
				"CollectionTypes": services.CollectionTypes,
				"Schemas":         services.TransformerNames(),
			})
		})
	}
}
