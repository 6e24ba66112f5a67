package services

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"biomed-search/models"
)

// DefaultItemType gilt, wenn eine Anfrage keinen Typ für die Items angibt.
const DefaultItemType = "data_product"

// itemSource beschreibt, in welcher Tabelle die Items eines Typs liegen und welche Spalte der Titel ist.
type itemSource struct {
	model       interface{}
	titleColumn string
}

var itemSources = map[string]itemSource{
	"clinical_study":   {model: &models.ClinicalStudy{}, titleColumn: "title"},
	"scientific_paper": {model: &models.ScientificPaper{}, titleColumn: "title"},
	"data_domain":      {model: &models.DataDomain{}, titleColumn: "domain_name"},
	"data_product":     {model: &models.DataProduct{}, titleColumn: "title"},
}

// ItemTypes listet die Typen, die einer Collection hinzugefügt werden können.
func ItemTypes() []string {
	types := make([]string, 0, len(itemSources))
	for t := range itemSources {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// CollectionService verwaltet die Collections der User und ihre Items.
type CollectionService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewCollectionService(db *gorm.DB, logger *zap.Logger) *CollectionService {
	return &CollectionService{db: db, logger: logger}
}

func ownedCollection(tx *gorm.DB, userID, id uint) (*models.Collection, error) {
	var c models.Collection
	if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List liefert die Collections des Users ohne Items, zuletzt geänderte zuerst.
func (s *CollectionService) List(ctx context.Context, userID uint) ([]models.Collection, error) {
	var cols []models.Collection
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&cols).Error
	if err != nil {
		return nil, errors.Wrap(err, "CollectionService.List")
	}
	return cols, nil
}

// Create legt eine neue, leere Collection an.
func (s *CollectionService) Create(ctx context.Context, userID uint, title, description string) (*models.Collection, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("title", "Title is required")
	}
	c := &models.Collection{UserID: userID, Title: title, Description: strings.TrimSpace(description)}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, errors.Wrap(err, "CollectionService.Create")
	}
	c.Items = []models.CollectionItem{}
	return c, nil
}

// Get liefert eine Collection mit ihren Items, ältestes Item zuerst.
func (s *CollectionService) Get(ctx context.Context, userID, id uint) (*models.Collection, error) {
	c, err := ownedCollection(s.db.WithContext(ctx), userID, id)
	if err != nil {
		return nil, wrapUnlessSentinel(err, "CollectionService.Get")
	}
	err = s.db.WithContext(ctx).
		Where("collection_id = ?", c.ID).
		Order("added_at").
		Order("id").
		Find(&c.Items).Error
	if err != nil {
		return nil, errors.Wrap(err, "CollectionService.Get: items")
	}
	return c, nil
}

// Update ändert Titel und Beschreibung. Bei nil bleibt das Feld unverändert.
func (s *CollectionService) Update(ctx context.Context, userID, id uint, title, description *string) (*models.Collection, error) {
	updates := map[string]interface{}{}
	if title != nil {
		t := strings.TrimSpace(*title)
		if t == "" {
			return nil, invalid("title", "Title must not be empty")
		}
		updates["title"] = t
	}
	if description != nil {
		updates["description"] = strings.TrimSpace(*description)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := ownedCollection(tx, userID, id)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(c).Updates(updates).Error
	})
	if err != nil {
		return nil, wrapUnlessSentinel(err, "CollectionService.Update")
	}
	return s.Get(ctx, userID, id)
}

// Delete entfernt eine Collection samt Items.
func (s *CollectionService) Delete(ctx context.Context, userID, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := ownedCollection(tx, userID, id)
		if err != nil {
			return err
		}
		if err := tx.Where("collection_id = ?", c.ID).Delete(&models.CollectionItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(c).Error
	})
	return wrapUnlessSentinel(err, "CollectionService.Delete")
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// AddItems fügt einer Collection Datensätze eines Typs hinzu. Jede ID muss existieren, bereits enthaltene
// Items werden übersprungen. Ist eine ID unbekannt, wird nichts geschrieben.
func (s *CollectionService) AddItems(ctx context.Context, userID, id uint, itemType string, ids []uint) (*models.Collection, error) {
	if itemType == "" {
		itemType = DefaultItemType
	}
	src, ok := itemSources[itemType]
	if !ok {
		return nil, mustBeOneOf("item_type", "Item type", ItemTypes())
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, invalid("item_ids", "At least one item id is required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := ownedCollection(tx, userID, id)
		if err != nil {
			return err
		}

		var found []struct {
			ID    uint
			Title string
		}
		err = tx.Model(src.model).
			Select("id", src.titleColumn+" AS title").
			Where("id IN ?", ids).
			Find(&found).Error
		if err != nil {
			return err
		}
		if len(found) != len(ids) {
			return ErrNotFound
		}

		items := make([]models.CollectionItem, 0, len(found))
		for _, f := range found {
			items = append(items, models.CollectionItem{
				CollectionID: c.ID,
				ItemType:     itemType,
				ItemID:       f.ID,
				Title:        f.Title,
			})
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection_id"}, {Name: "item_type"}, {Name: "item_id"}},
			DoNothing: true,
		}).Create(&items).Error
		if err != nil {
			return err
		}
		return tx.Model(c).Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
	})
	if err != nil {
		return nil, wrapUnlessSentinel(err, "CollectionService.AddItems")
	}
	s.logger.Info("Items added to collection",
		zap.Uint("collection_id", id), zap.String("item_type", itemType), zap.Int("count", len(ids)))
	return s.Get(ctx, userID, id)
}

// RemoveItem löscht ein Item aus einer Collection.
func (s *CollectionService) RemoveItem(ctx context.Context, userID, id, itemID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := ownedCollection(tx, userID, id)
		if err != nil {
			return err
		}
		res := tx.Where("id = ? AND collection_id = ?", itemID, c.ID).Delete(&models.CollectionItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	return wrapUnlessSentinel(err, "CollectionService.RemoveItem")
}
