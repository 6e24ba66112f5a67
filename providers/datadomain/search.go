// Package datadomain durchsucht die Metadaten der Datenbereiche.
package datadomain

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"biomed-search/models"
	"biomed-search/providers"
)

const Name = "data_domain"

var searchColumns = []string{"domain_name", "description", "owner"}

// Provider implementiert providers.Provider für Datenbereiche.
type Provider struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewProvider(db *gorm.DB, logger *zap.Logger) *Provider {
	return &Provider{DB: db, Logger: logger}
}

func (p *Provider) Name() string {
	return Name
}

func (p *Provider) buildQuery(ctx context.Context, q providers.Query) *gorm.DB {
	tx := p.DB.WithContext(ctx).Model(&models.DataDomain{})
	tx = providers.MatchTerms(tx, q.Terms, searchColumns...)
	if v, ok := q.Filters["data_format"]; ok {
		tx = providers.MatchValues(tx, "data_format", v)
	}
	if v, ok := q.Filters["owner"]; ok {
		tx = providers.MatchValues(tx, "owner", v)
	}
	return tx
}

func (p *Provider) Search(ctx context.Context, q providers.Query) ([]providers.Result, int64, error) {
	base := p.buildQuery(ctx, q).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []providers.Result{}, 0, nil
	}

	var domains []models.DataDomain
	if err := base.Order("domain_name").Offset(q.Offset()).Limit(q.PerPage).Find(&domains).Error; err != nil {
		return nil, 0, err
	}

	results := make([]providers.Result, 0, len(domains))
	for i := range domains {
		results = append(results, toResult(&domains[i]))
	}
	return results, total, nil
}

func (p *Provider) AvailableFilters(ctx context.Context) (map[string]interface{}, error) {
	filters := map[string]interface{}{}
	for _, col := range []string{"data_format", "owner"} {
		var values []string
		err := p.DB.WithContext(ctx).
			Model(&models.DataDomain{}).
			Where(col+" IS NOT NULL AND "+col+" <> ''").
			Distinct(col).
			Order(col).
			Pluck(col, &values).Error
		if err != nil {
			return nil, err
		}
		filters[col] = values
	}
	return filters, nil
}

// decodeJSON liefert den Inhalt einer JSON-Spalte als generischen Wert (nil bei leerer Spalte).
func decodeJSON(raw datatypes.JSON) interface{} {
	if len(raw) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func toResult(d *models.DataDomain) providers.Result {
	return providers.Result{
		ID:          d.ID,
		Type:        Name,
		Title:       d.DomainName,
		Description: d.Description,
		Data: map[string]interface{}{
			"data_format":       d.DataFormat,
			"schema_definition": decodeJSON(d.SchemaDefinition),
			"validation_rules":  decodeJSON(d.ValidationRules),
			"sample_data":       decodeJSON(d.SampleData),
			"owner":             d.Owner,
			"created_at":        providers.TimestampValue(d.CreatedAt),
			"updated_at":        providers.TimestampValue(d.UpdatedAt),
		},
	}
}
