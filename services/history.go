package services

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"biomed-search/models"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// HistoryEntry ist die Eingabe für einen neuen Verlaufseintrag oder eine gespeicherte Suche.
type HistoryEntry struct {
	Name         string
	Query        string
	Category     string
	Filters      map[string]interface{}
	ResultsCount int64
}

// HistoryService speichert ausgeführte und gespeicherte Suchen pro User.
type HistoryService struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewHistoryService(db *gorm.DB, logger *zap.Logger) *HistoryService {
	return &HistoryService{db: db, logger: logger, now: time.Now}
}

// validate prüft die Kategorie nur, wenn eine angegeben ist. Verlaufseinträge dürfen keine haben.
func (e HistoryEntry) validate() error {
	if e.Category != "" && !IsCollectionType(e.Category) {
		return mustBeOneOf("category", "Category", CollectionTypes)
	}
	if e.ResultsCount < 0 {
		return invalid("results_count", "Results count must not be negative")
	}
	return nil
}

func (s *HistoryService) newRow(userID uint, e HistoryEntry, saved bool) *models.SearchHistory {
	now := s.now().UTC()
	filters := datatypes.JSONMap{}
	for k, v := range e.Filters {
		filters[k] = v
	}
	return &models.SearchHistory{
		CreatedAt:    now,
		UserID:       userID,
		Name:         strings.TrimSpace(e.Name),
		Query:        strings.TrimSpace(e.Query),
		Category:     e.Category,
		Filters:      filters,
		ResultsCount: e.ResultsCount,
		IsSaved:      saved,
		UseCount:     1,
		LastUsed:     now,
	}
}

// Record fügt eine ausgeführte Suche dem Verlauf des Users hinzu.
func (s *HistoryService) Record(ctx context.Context, userID uint, e HistoryEntry) (*models.SearchHistory, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	row := s.newRow(userID, e, false)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, errors.Wrap(err, "HistoryService.Record")
	}
	return row, nil
}

// RecordSearch protokolliert eine Suche über die API. Fehler werden geloggt und gezählt, aber nie zurückgegeben.
func (s *HistoryService) RecordSearch(ctx context.Context, userID uint, e HistoryEntry) {
	if _, err := s.Record(ctx, userID, e); err != nil {
		historyFailures.Inc()
		s.logger.Error("Failed to record search history",
			zap.Uint("user_id", userID), zap.String("category", e.Category), zap.Error(err))
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

// List liefert den Verlauf des Users, neueste Einträge zuerst.
func (s *HistoryService) List(ctx context.Context, userID uint, limit int) ([]models.SearchHistory, error) {
	var rows []models.SearchHistory
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(clampLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "HistoryService.List")
	}
	return rows, nil
}

// ListSaved liefert die gespeicherten Suchen des Users, zuletzt genutzte zuerst.
func (s *HistoryService) ListSaved(ctx context.Context, userID uint) ([]models.SearchHistory, error) {
	var rows []models.SearchHistory
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_saved = ?", userID, true).
		Order("last_used DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "HistoryService.ListSaved")
	}
	return rows, nil
}

// CreateSaved legt eine gespeicherte Suche direkt an, ohne vorherige Ausführung.
func (s *HistoryService) CreateSaved(ctx context.Context, userID uint, e HistoryEntry) (*models.SearchHistory, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(e.Name) == "" {
		e.Name = e.Query
	}
	row := s.newRow(userID, e, true)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, errors.Wrap(err, "HistoryService.CreateSaved")
	}
	return row, nil
}

func (s *HistoryService) find(tx *gorm.DB, userID, id uint, savedOnly bool) (*models.SearchHistory, error) {
	q := tx.Where("id = ? AND user_id = ?", id, userID)
	if savedOnly {
		q = q.Where("is_saved = ?", true)
	}
	var row models.SearchHistory
	if err := q.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// Save markiert einen Verlaufseintrag als gespeichert. Ohne Namen bleibt der bisherige, sonst wird die Abfrage genutzt.
func (s *HistoryService) Save(ctx context.Context, userID, id uint, name string) (*models.SearchHistory, error) {
	var saved *models.SearchHistory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.find(tx, userID, id, false)
		if err != nil {
			return err
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = row.Name
		}
		if name == "" {
			name = row.Query
		}
		if err := tx.Model(row).Updates(map[string]interface{}{"is_saved": true, "name": name}).Error; err != nil {
			return err
		}
		row.IsSaved, row.Name = true, name
		saved = row
		return nil
	})
	if err != nil {
		return nil, wrapUnlessSentinel(err, "HistoryService.Save")
	}
	return saved, nil
}

// Execute markiert eine gespeicherte Suche als genutzt und gibt sie zum erneuten Ausführen zurück.
func (s *HistoryService) Execute(ctx context.Context, userID, id uint) (*models.SearchHistory, error) {
	var used *models.SearchHistory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.find(tx, userID, id, true)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		err = tx.Model(row).Updates(map[string]interface{}{
			"use_count": gorm.Expr("use_count + 1"),
			"last_used": now,
		}).Error
		if err != nil {
			return err
		}
		row.UseCount++
		row.LastUsed = now
		used = row
		return nil
	})
	if err != nil {
		return nil, wrapUnlessSentinel(err, "HistoryService.Execute")
	}
	return used, nil
}

// DeleteSaved entfernt eine gespeicherte Suche.
func (s *HistoryService) DeleteSaved(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_saved = ?", id, userID, true).
		Delete(&models.SearchHistory{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "HistoryService.DeleteSaved")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Prune löscht nicht gespeicherte Einträge älter als cutoff und liefert deren Anzahl.
func (s *HistoryService) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("is_saved = ? AND created_at < ?", false, cutoff).
		Delete(&models.SearchHistory{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "HistoryService.Prune")
	}
	return res.RowsAffected, nil
}

func wrapUnlessSentinel(err error, msg string) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return errors.Wrap(err, msg)
}
