// Package clinicalstudy durchsucht klinische Studien inklusive ihrer Data Products.
package clinicalstudy

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"biomed-search/models"
	"biomed-search/providers"
)

const Name = "clinical_study"

// filterColumns bildet Filternamen auf Spalten ab.
var filterColumns = map[string]string{
	"status":              "status",
	"phase":               "phase",
	"drug":                "drug",
	"institution":         "institution",
	"indication_category": "indication_category",
	"procedure_category":  "procedure_category",
	"severity":            "severity",
	"risk_level":          "risk_level",
}

// filterOrder bestimmt die Reihenfolge in AvailableFilters.
var filterOrder = []string{
	"status", "phase", "drug", "institution",
	"indication_category", "procedure_category", "severity", "risk_level",
}

var searchColumns = []string{
	"title", "description", "drug", "institution", "indication_category", "procedure_category",
}

// Provider implementiert providers.Provider für klinische Studien.
type Provider struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewProvider erstellt einen neuen Studien-Provider.
func NewProvider(db *gorm.DB, logger *zap.Logger) *Provider {
	return &Provider{DB: db, Logger: logger}
}

// Name gibt den Collection-Typ zurück.
func (p *Provider) Name() string {
	return Name
}

// buildQuery baut die gefilterte Basisabfrage ohne Sortierung und Paging.
func (p *Provider) buildQuery(ctx context.Context, q providers.Query) *gorm.DB {
	tx := p.DB.WithContext(ctx).Model(&models.ClinicalStudy{})
	tx = providers.MatchTerms(tx, q.Terms, searchColumns...)
	for _, name := range filterOrder {
		if v, ok := q.Filters[name]; ok {
			tx = providers.MatchValues(tx, filterColumns[name], v)
		}
	}
	return tx
}

// Search führt die Suche aus. Data Products, Indikationen und Prozeduren werden mitgeladen.
func (p *Provider) Search(ctx context.Context, q providers.Query) ([]providers.Result, int64, error) {
	var total int64
	if err := p.buildQuery(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []providers.Result{}, 0, nil
	}

	var studies []models.ClinicalStudy
	err := p.buildQuery(ctx, q).
		Preload("DataProducts").
		Preload("Indications.Indication").
		Preload("Procedures.Procedure").
		Order("relevance_score DESC").
		Order("last_updated DESC").
		Order("id").
		Offset(q.Offset()).
		Limit(q.PerPage).
		Find(&studies).Error
	if err != nil {
		return nil, 0, err
	}

	p.Logger.Debug("Studiensuche abgeschlossen",
		zap.Strings("terms", q.Terms), zap.Int64("total", total), zap.Int("page_size", len(studies)))

	results := make([]providers.Result, 0, len(studies))
	for i := range studies {
		results = append(results, toResult(&studies[i]))
	}
	return results, total, nil
}

// AvailableFilters liefert die vorhandenen Werte je Filterspalte.
func (p *Provider) AvailableFilters(ctx context.Context) (map[string]interface{}, error) {
	filters := make(map[string]interface{}, len(filterOrder))
	for _, name := range filterOrder {
		col := filterColumns[name]
		var values []string
		err := p.DB.WithContext(ctx).
			Model(&models.ClinicalStudy{}).
			Where(col+" IS NOT NULL AND "+col+" <> ''").
			Distinct(col).
			Order(col).
			Pluck(col, &values).Error
		if err != nil {
			return nil, err
		}
		filters[name] = values
	}
	return filters, nil
}

func toResult(s *models.ClinicalStudy) providers.Result {
	indications := make([]map[string]interface{}, 0, len(s.Indications))
	for _, si := range s.Indications {
		indications = append(indications, map[string]interface{}{
			"id":         si.Indication.ID,
			"name":       si.Indication.Name,
			"category":   si.Indication.Category,
			"severity":   si.Indication.Severity,
			"is_primary": si.IsPrimary,
		})
	}
	procedures := make([]map[string]interface{}, 0, len(s.Procedures))
	for _, sp := range s.Procedures {
		procedures = append(procedures, map[string]interface{}{
			"id":          sp.Procedure.ID,
			"name":        sp.Procedure.Name,
			"category":    sp.Procedure.Category,
			"risk_level":  sp.Procedure.RiskLevel,
			"is_required": sp.IsRequired,
		})
	}
	products := make([]providers.DataProductSummary, 0, len(s.DataProducts))
	for _, dp := range s.DataProducts {
		products = append(products, providers.DataProductSummary{
			ID:          dp.ID,
			Title:       dp.Title,
			Description: dp.Description,
			Type:        dp.Type,
			Format:      dp.Format,
			Size:        dp.Size,
			AccessLevel: dp.AccessLevel,
			CreatedAt:   dp.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	return providers.Result{
		ID:          s.ID,
		Type:        Name,
		Title:       s.Title,
		Description: s.Description,
		Data: map[string]interface{}{
			"status":              s.Status,
			"phase":               s.Phase,
			"drug":                s.Drug,
			"institution":         s.Institution,
			"participant_count":   s.ParticipantCount,
			"start_date":          providers.DateValue(s.StartDate),
			"end_date":            providers.DateValue(s.EndDate),
			"last_updated":        providers.TimestampValue(s.LastUpdated),
			"indication_category": s.IndicationCategory,
			"procedure_category":  s.ProcedureCategory,
			"severity":            s.Severity,
			"risk_level":          s.RiskLevel,
			"duration":            s.Duration,
			"indications":         indications,
			"procedures":          procedures,
		},
		DataProducts:   products,
		RelevanceScore: s.RelevanceScore,
	}
}
