// Package scientificpaper durchsucht wissenschaftliche Publikationen.
package scientificpaper

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"biomed-search/models"
	"biomed-search/providers"
)

const Name = "scientific_paper"

var searchColumns = []string{"title", "abstract", "journal", "CAST(keywords AS TEXT)"}

// DateRanges sind die erlaubten Werte für den Filter date_range.
var DateRanges = []string{"last_week", "last_month", "last_year"}

// CitationRanges sind die erlaubten Werte für den Filter citations.
var CitationRanges = []string{"0-10", "11-50", "51-100", "100+"}

// Provider implementiert providers.Provider für wissenschaftliche Paper.
type Provider struct {
	DB     *gorm.DB
	Logger *zap.Logger
	Now    func() time.Time
}

// NewProvider erstellt einen neuen Paper-Provider.
func NewProvider(db *gorm.DB, logger *zap.Logger) *Provider {
	return &Provider{DB: db, Logger: logger, Now: time.Now}
}

// Name gibt den Collection-Typ zurück.
func (p *Provider) Name() string {
	return Name
}

func (p *Provider) buildQuery(ctx context.Context, q providers.Query) (*gorm.DB, error) {
	tx := p.DB.WithContext(ctx).Model(&models.ScientificPaper{})
	tx = providers.MatchTerms(tx, q.Terms, searchColumns...)

	if v, ok := q.Filters["journal"]; ok {
		tx = providers.MatchValues(tx, "journal", v)
	}

	if v, ok := q.Filters["date_range"]; ok {
		if vals, ok := providers.StringValues(v); ok {
			since, err := p.since(vals[0])
			if err != nil {
				return nil, err
			}
			tx = tx.Where("publication_date >= ?", since)
		}
	}

	if v, ok := q.Filters["citations"]; ok {
		if vals, ok := providers.StringValues(v); ok {
			var err error
			tx, err = citationRange(tx, vals[0])
			if err != nil {
				return nil, err
			}
		}
	}
	return tx, nil
}

func (p *Provider) since(dateRange string) (time.Time, error) {
	now := p.Now()
	switch dateRange {
	case "last_week":
		return now.AddDate(0, 0, -7), nil
	case "last_month":
		return now.AddDate(0, -1, 0), nil
	case "last_year":
		return now.AddDate(-1, 0, 0), nil
	}
	return time.Time{}, &providers.InvalidFilterError{Filter: "date_range", Value: dateRange, Allowed: DateRanges}
}

func citationRange(tx *gorm.DB, r string) (*gorm.DB, error) {
	switch r {
	case "0-10":
		return tx.Where("citations_count BETWEEN ? AND ?", 0, 10), nil
	case "11-50":
		return tx.Where("citations_count BETWEEN ? AND ?", 11, 50), nil
	case "51-100":
		return tx.Where("citations_count BETWEEN ? AND ?", 51, 100), nil
	case "100+":
		return tx.Where("citations_count > ?", 100), nil
	}
	return nil, &providers.InvalidFilterError{Filter: "citations", Value: r, Allowed: CitationRanges}
}

// Search führt die Suche aus, neueste Publikationen zuerst.
func (p *Provider) Search(ctx context.Context, q providers.Query) ([]providers.Result, int64, error) {
	base, err := p.buildQuery(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []providers.Result{}, 0, nil
	}

	var papers []models.ScientificPaper
	err = base.Session(&gorm.Session{}).
		Order("publication_date DESC NULLS LAST").
		Order("id").
		Offset(q.Offset()).
		Limit(q.PerPage).
		Find(&papers).Error
	if err != nil {
		return nil, 0, err
	}

	results := make([]providers.Result, 0, len(papers))
	for i := range papers {
		results = append(results, toResult(&papers[i]))
	}
	return results, total, nil
}

// AvailableFilters liefert Journals sowie die festen Zeit- und Zitationsbereiche.
func (p *Provider) AvailableFilters(ctx context.Context) (map[string]interface{}, error) {
	var journals []string
	err := p.DB.WithContext(ctx).
		Model(&models.ScientificPaper{}).
		Where("journal IS NOT NULL AND journal <> ''").
		Distinct("journal").
		Order("journal").
		Pluck("journal", &journals).Error
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"journal":    journals,
		"date_range": DateRanges,
		"citations":  CitationRanges,
	}, nil
}

func toResult(p *models.ScientificPaper) providers.Result {
	authors := []string(p.Authors)
	if authors == nil {
		authors = []string{}
	}
	keywords := []string(p.Keywords)
	if keywords == nil {
		keywords = []string{}
	}
	references := []string(p.ReferenceList)
	if references == nil {
		references = []string{}
	}
	return providers.Result{
		ID:          p.ID,
		Type:        Name,
		Title:       p.Title,
		Description: p.Abstract,
		Data: map[string]interface{}{
			"authors":          authors,
			"publication_date": providers.DateValue(p.PublicationDate),
			"journal":          p.Journal,
			"doi":              p.DOIValue(),
			"pmid":             p.PMID,
			"keywords":         keywords,
			"citations_count":  p.CitationsCount,
			"references":       references,
			"source":           p.Source,
		},
	}
}
