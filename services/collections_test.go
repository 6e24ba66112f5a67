package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"biomed-search/dbtest"
)

func TestCollectionCreate(t *testing.T) {
	db := dbtest.DryRunDB(t)
	rec := dbtest.Record(t, db)
	svc := NewCollectionService(db, zap.NewNop())

	c, err := svc.Create(context.Background(), 5, "  Cardiology  ", " trials I follow ")
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", c.Title)
	assert.Equal(t, "trials I follow", c.Description)
	assert.Equal(t, uint(5), c.UserID)
	assert.NotNil(t, c.Items)
	assert.Contains(t, rec.Last(), `INSERT INTO "collections"`)

	_, err = svc.Create(context.Background(), 5, "   ", "")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "title", verr.Field)
}

func TestCollectionList(t *testing.T) {
	db := dbtest.DryRunDB(t)
	rec := dbtest.Record(t, db)
	svc := NewCollectionService(db, zap.NewNop())

	_, err := svc.List(context.Background(), 9)
	require.NoError(t, err)
	assert.Contains(t, rec.Last(), `FROM "collections" WHERE user_id = $1 ORDER BY updated_at DESC,id DESC`)
}

func TestCollectionAddItemsValidation(t *testing.T) {
	db := dbtest.DryRunDB(t)
	rec := dbtest.Record(t, db)
	svc := NewCollectionService(db, zap.NewNop())

	var verr *ValidationError
	_, err := svc.AddItems(context.Background(), 1, 1, "patients", []uint{1})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "item_type", verr.Field)
	assert.Contains(t, verr.Message, "data_product")

	_, err = svc.AddItems(context.Background(), 1, 1, "", []uint{0, 0})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "item_ids", verr.Field)

	assert.Empty(t, rec.Statements())
}

func TestCollectionUpdateRejectsEmptyTitle(t *testing.T) {
	svc := NewCollectionService(dbtest.DryRunDB(t), zap.NewNop())

	empty := " "
	_, err := svc.Update(context.Background(), 1, 1, &empty, nil)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestItemTypes(t *testing.T) {
	assert.Equal(t, []string{"clinical_study", "data_domain", "data_product", "scientific_paper"}, ItemTypes())
}

func TestUniqueIDs(t *testing.T) {
	assert.Equal(t, []uint{3, 1, 7}, uniqueIDs([]uint{3, 0, 1, 3, 7, 1}))
	assert.Empty(t, uniqueIDs(nil))
}
