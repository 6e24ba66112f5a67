package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"biomed-search/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Uploader speichert eine exportierte Datei und liefert einen Link darauf.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ExportResult verweist auf einen hochgeladenen Export.
type ExportResult struct {
	URL   string `json:"url"`
	Key   string `json:"key"`
	Items int    `json:"items"`
}

// ExportService erzeugt XLSX-Arbeitsmappen aus Collections und lädt sie hoch.
type ExportService struct {
	db          *gorm.DB
	collections *CollectionService
	uploader    Uploader
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService erstellt den Exporter. Ohne Uploader sind Exporte deaktiviert.
func NewExportService(db *gorm.DB, collections *CollectionService, uploader Uploader, logger *zap.Logger) *ExportService {
	return &ExportService{db: db, collections: collections, uploader: uploader, logger: logger, now: time.Now}
}

// Export lädt die Collection des Users als Arbeitsmappe hoch.
func (s *ExportService) Export(ctx context.Context, userID, collectionID uint) (*ExportResult, error) {
	if s.uploader == nil {
		return nil, ErrExportUnavailable
	}
	c, err := s.collections.Get(ctx, userID, collectionID)
	if err != nil {
		return nil, err
	}
	refs, err := s.paperReferences(ctx, c.Items)
	if err != nil {
		return nil, err
	}

	data, err := buildWorkbook(c, refs, s.now().UTC())
	if err != nil {
		return nil, errors.Wrap(err, "ExportService.Export: build workbook")
	}

	key := fmt.Sprintf("exports/%d/collection-%d-%s.xlsx", userID, c.ID, uuid.NewString())
	url, err := s.uploader.Upload(ctx, key, data, xlsxContentType)
	if err != nil {
		return nil, errors.Wrap(err, "ExportService.Export: upload")
	}
	s.logger.Info("Collection exported",
		zap.Uint("collection_id", c.ID), zap.Int("items", len(c.Items)), zap.String("key", key))
	return &ExportResult{URL: url, Key: key, Items: len(c.Items)}, nil
}

// paperReferences formatiert für jedes Paper der Collection eine Literaturzeile.
func (s *ExportService) paperReferences(ctx context.Context, items []models.CollectionItem) (map[uint]string, error) {
	var ids []uint
	for _, it := range items {
		if it.ItemType == "scientific_paper" {
			ids = append(ids, it.ItemID)
		}
	}
	refs := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}
	var papers []models.ScientificPaper
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&papers).Error; err != nil {
		return nil, errors.Wrap(err, "ExportService.paperReferences")
	}
	for i := range papers {
		refs[papers[i].ID] = FormatReference(ReferenceFromPaper(&papers[i]))
	}
	return refs, nil
}

func buildWorkbook(c *models.Collection, refs map[uint]string, exportedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Collection"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	meta := [][]interface{}{
		{"Collection", c.Title},
		{"Description", c.Description},
		{"Exported at", exportedAt.Format(time.RFC3339)},
	}
	for i, row := range meta {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	const headerRow = 5
	header := []interface{}{"Type", "ID", "Title", "Added at", "Reference"}
	headerCell, _ := excelize.CoordinatesToCellName(1, headerRow)
	if err := f.SetSheetRow(sheet, headerCell, &header); err != nil {
		return nil, err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(header), headerRow)
	if err := f.SetCellStyle(sheet, "A1", "A3", bold); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, headerCell, lastHeader, bold); err != nil {
		return nil, err
	}

	for i, it := range c.Items {
		row := []interface{}{it.ItemType, it.ItemID, it.Title, it.AddedAt.UTC().Format("2006-01-02 15:04"), refs[it.ItemID]}
		if it.ItemType != "scientific_paper" {
			row[4] = ""
		}
		cell, _ := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	for col, width := range map[string]float64{"A": 18, "B": 8, "C": 60, "D": 18, "E": 80} {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
