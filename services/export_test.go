package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"biomed-search/models"
)

func TestBuildWorkbook(t *testing.T) {
	added := time.Date(2024, 4, 2, 8, 15, 0, 0, time.UTC)
	c := &models.Collection{
		ID:          3,
		Title:       "Stroke prevention",
		Description: "Reading list",
		Items: []models.CollectionItem{
			{ItemType: "scientific_paper", ItemID: 11, Title: "Aspirin and stroke", AddedAt: added},
			{ItemType: "data_product", ItemID: 11, Title: "Outcomes table", AddedAt: added},
		},
	}
	refs := map[uint]string{11: "Smith J (2021). Aspirin and stroke. The Lancet."}

	data, err := buildWorkbook(c, refs, added)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		v, err := f.GetCellValue("Collection", cell)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Stroke prevention", get("B1"))
	assert.Equal(t, "Type", get("A5"))
	assert.Equal(t, "Reference", get("E5"))
	assert.Equal(t, "scientific_paper", get("A6"))
	assert.Equal(t, "11", get("B6"))
	assert.Equal(t, "2024-04-02 08:15", get("D6"))
	assert.Equal(t, refs[11], get("E6"))
	assert.Equal(t, "Outcomes table", get("C7"))
	assert.Equal(t, "", get("E7"))
}

func TestExportWithoutStorage(t *testing.T) {
	svc := NewExportService(nil, nil, nil, zap.NewNop())

	_, err := svc.Export(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrExportUnavailable)
}
