package clinicalstudy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"biomed-search/models"
	"biomed-search/providers"
	"biomed-search/dbtest"
)

func TestBuildQuery(t *testing.T) {
	p := NewProvider(dbtest.DryRunDB(t), zap.NewNop())

	var rows []models.ClinicalStudy
	stmt := p.buildQuery(context.Background(), providers.Query{
		Terms: []string{"cancer", "50%"},
		Filters: map[string]interface{}{
			"status":  "Recruiting",
			"phase":   []interface{}{"Phase I", "Phase II"},
			"unknown": "ignored",
		},
	}).Find(&rows).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, `FROM "clinical_studies"`)
	assert.Contains(t, sql, "title ILIKE $1")
	assert.Contains(t, sql, "procedure_category ILIKE $12")
	assert.Contains(t, sql, "status = $13")
	assert.Contains(t, sql, "phase IN ($14,$15)")
	assert.NotContains(t, sql, "unknown")

	require.Len(t, stmt.Vars, 15)
	assert.Equal(t, "%cancer%", stmt.Vars[0])
	assert.Equal(t, `%50\%%`, stmt.Vars[6])
}

func TestBuildQueryWithoutTerms(t *testing.T) {
	p := NewProvider(dbtest.DryRunDB(t), zap.NewNop())

	var rows []models.ClinicalStudy
	stmt := p.buildQuery(context.Background(), providers.Query{}).Find(&rows).Statement

	assert.NotContains(t, stmt.SQL.String(), "WHERE")
}

func TestToResult(t *testing.T) {
	start := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	study := &models.ClinicalStudy{
		ID:               4,
		Title:            "Pembrolizumab in NSCLC",
		Description:      "Open-label study",
		Status:           "Recruiting",
		Phase:            "Phase II",
		StartDate:        &start,
		Drug:             "Pembrolizumab",
		ParticipantCount: 120,
		RelevanceScore:   0.8,
		DataProducts: []models.DataProduct{
			{ID: 9, Title: "Baseline labs", Type: "raw_data", Format: "CSV", AccessLevel: "Public"},
		},
		Indications: []models.StudyIndication{
			{IsPrimary: true, Indication: models.Indication{ID: 2, Name: "Lung Cancer", Category: "Oncology"}},
		},
	}

	r := toResult(study)
	assert.Equal(t, uint(4), r.ID)
	assert.Equal(t, Name, r.Type)
	assert.Equal(t, "Open-label study", r.Description)
	assert.Equal(t, 0.8, r.RelevanceScore)
	assert.Equal(t, "2023-01-15", r.Data["start_date"])
	assert.Nil(t, r.Data["end_date"])
	assert.Equal(t, 120, r.Data["participant_count"])
	require.Len(t, r.DataProducts, 1)
	assert.Equal(t, "Baseline labs", r.DataProducts[0].Title)

	indications := r.Data["indications"].([]map[string]interface{})
	require.Len(t, indications, 1)
	assert.Equal(t, "Lung Cancer", indications[0]["name"])
	assert.Equal(t, true, indications[0]["is_primary"])
}
