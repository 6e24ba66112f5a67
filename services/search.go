package services

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"biomed-search/cache"
	"biomed-search/providers"
)

var tracer = otel.Tracer("search")

// CollectionTypes sind die durchsuchbaren Collections in Anzeigereihenfolge.
var CollectionTypes = []string{"clinical_study", "scientific_paper", "data_domain"}

const (
	DefaultCollectionType = "scientific_paper"
	DefaultSchemaType     = "default"
	DefaultPerPage        = 10
	MaxPerPage            = 100
	SuggestLimit          = 5

	restrictedFilter = "restricted_content"
)

// UserContext beschreibt, wer sucht.
type UserContext struct {
	UserID  uint
	IsAdmin bool
}

// SearchRequest ist eine Suche über eine Collection. Nullwerte von CollectionType, SchemaType,
// Page und PerPage wählen die Defaults.
type SearchRequest struct {
	CollectionType string
	Terms          []string
	Filters        map[string]interface{}
	Page           int
	PerPage        int
	SchemaType     string
	User           UserContext
}

// SearchResponse enthält den transformierten Payload und die Gesamtzahl der Treffer.
type SearchResponse struct {
	Payload map[string]interface{}
	Total   int64
}

// Suggestion ist ein einzelner Autocomplete-Eintrag.
type Suggestion struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// SearchService leitet Suchen an den Provider der angefragten Collection weiter und formatiert
// die Ergebnisse mit dem gewünschten Schema-Transformer.
type SearchService struct {
	providers map[string]providers.Provider
	store     cache.Store
	filterTTL time.Duration
	logger    *zap.Logger
}

// NewSearchService registriert die Provider unter ihrem Collection-Namen.
func NewSearchService(store cache.Store, filterTTL time.Duration, logger *zap.Logger, ps ...providers.Provider) *SearchService {
	byName := make(map[string]providers.Provider, len(ps))
	for _, p := range ps {
		byName[p.Name()] = p
	}
	return &SearchService{providers: byName, store: store, filterTTL: filterTTL, logger: logger}
}

// ParseQuery teilt eine Freitextsuche an " OR " in getrimmte, nicht leere Begriffe.
func ParseQuery(q string) []string {
	var terms []string
	for _, part := range strings.Split(q, " OR ") {
		if part = strings.TrimSpace(part); part != "" {
			terms = append(terms, part)
		}
	}
	return terms
}

// IsCollectionType meldet, ob name eine durchsuchbare Collection ist.
func IsCollectionType(name string) bool {
	for _, c := range CollectionTypes {
		if c == name {
			return true
		}
	}
	return false
}

func (s *SearchService) provider(collectionType string) (providers.Provider, error) {
	if !IsCollectionType(collectionType) {
		return nil, mustBeOneOf("collection_type", "Collection type", CollectionTypes)
	}
	p, ok := s.providers[collectionType]
	if !ok {
		return nil, errors.Errorf("no provider registered for %s", collectionType)
	}
	return p, nil
}

func (req *SearchRequest) normalize() error {
	if req.CollectionType == "" {
		req.CollectionType = DefaultCollectionType
	}
	if req.SchemaType == "" {
		req.SchemaType = DefaultSchemaType
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PerPage == 0 {
		req.PerPage = DefaultPerPage
	}
	if req.Page < 1 {
		return invalid("page", "Page must be at least 1")
	}
	if req.PerPage < 1 || req.PerPage > MaxPerPage {
		return invalid("per_page", "Per page must be between 1 and %d", MaxPerPage)
	}
	return nil
}

// visibleFilters entfernt Filter, die der User nicht setzen darf. Die Eingabe-Map bleibt unverändert.
func visibleFilters(filters map[string]interface{}, user UserContext) map[string]interface{} {
	out := make(map[string]interface{}, len(filters))
	for k, v := range filters {
		if k == restrictedFilter && !user.IsAdmin {
			continue
		}
		out[k] = v
	}
	return out
}

// Search validiert die Anfrage, fragt den Provider ab und transformiert die Ergebnisse.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	ctx, span := tracer.Start(ctx, "SearchService.Search")
	defer span.End()

	if err := req.normalize(); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("collection_type", req.CollectionType),
		attribute.String("schema_type", req.SchemaType),
		attribute.Int("page", req.Page),
		attribute.Int("per_page", req.PerPage),
	)

	p, err := s.provider(req.CollectionType)
	if err != nil {
		return nil, err
	}
	transformer, ok := LookupTransformer(req.SchemaType)
	if !ok {
		return nil, mustBeOneOf("schema_type", "Schema type", TransformerNames())
	}

	rs, err := s.run(ctx, p, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider search failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int64("total", rs.Total))

	return &SearchResponse{Payload: transformer.Transform(rs), Total: rs.Total}, nil
}

func (s *SearchService) run(ctx context.Context, p providers.Provider, req SearchRequest) (ResultSet, error) {
	start := time.Now()
	results, total, err := p.Search(ctx, providers.Query{
		Terms:   providers.NormalizeTerms(req.Terms),
		Filters: visibleFilters(req.Filters, req.User),
		Page:    req.Page,
		PerPage: req.PerPage,
	})
	searchDuration.WithLabelValues(req.CollectionType).Observe(time.Since(start).Seconds())
	if err != nil {
		if verr := asValidation(err); verr != err {
			return ResultSet{}, verr
		}
		return ResultSet{}, errors.Wrapf(err, "SearchService.Search: %s provider failed", req.CollectionType)
	}
	searchesTotal.WithLabelValues(req.CollectionType).Inc()
	s.logger.Debug("Search executed",
		zap.String("collection_type", req.CollectionType),
		zap.Int("terms", len(req.Terms)),
		zap.Int64("total", total))

	return ResultSet{Results: results, Total: total, Page: req.Page, PerPage: req.PerPage}, nil
}

// Suggest liefert bis zu SuggestLimit passende Titel aus der angegebenen Collection.
func (s *SearchService) Suggest(ctx context.Context, query, collectionType string, user UserContext) ([]Suggestion, error) {
	ctx, span := tracer.Start(ctx, "SearchService.Suggest")
	defer span.End()

	if len(strings.TrimSpace(query)) < 2 {
		return nil, invalid("q", "Query must be at least 2 characters")
	}
	if collectionType == "" {
		collectionType = DefaultCollectionType
	}
	p, err := s.provider(collectionType)
	if err != nil {
		return nil, err
	}

	rs, err := s.run(ctx, p, SearchRequest{
		CollectionType: collectionType,
		Terms:          []string{query},
		Page:           1,
		PerPage:        SuggestLimit,
		User:           user,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(rs.Results))
	for _, r := range rs.Results {
		suggestions = append(suggestions, Suggestion{Text: r.Title, Type: r.Type})
	}
	return suggestions, nil
}

// AvailableFilters liefert die Filteroptionen einer Collection. Ergebnisse werden gecacht,
// bei Cache-Fehlern wird geloggt und direkt der Provider gefragt.
func (s *SearchService) AvailableFilters(ctx context.Context, collectionType string) (map[string]interface{}, error) {
	p, err := s.provider(collectionType)
	if err != nil {
		return nil, err
	}

	key := "filters:" + collectionType
	var cached map[string]interface{}
	if s.store != nil {
		found, err := s.store.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("Filter cache read failed", zap.String("key", key), zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	filters, err := p.AvailableFilters(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "SearchService.AvailableFilters: %s", collectionType)
	}
	if s.store != nil && s.filterTTL > 0 {
		if err := s.store.SetJSON(ctx, key, filters, s.filterTTL); err != nil {
			s.logger.Warn("Filter cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return filters, nil
}
