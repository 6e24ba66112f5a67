package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBucketURL(t *testing.T) {
	b := &Bucket{opts: Options{URL: "https://s3.example.org/", Bucket: "exports"}}
	assert.Equal(t, "https://s3.example.org/exports/collections/1/a.xlsx", b.URL("collections/1/a.xlsx"))
}

func TestRotation(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	objects := []Object{
		{Key: "backup-1", LastModified: base},
		{Key: "backup-3", LastModified: base.Add(48 * time.Hour)},
		{Key: "backup-2", LastModified: base.Add(24 * time.Hour)},
		{Key: "backup-4", LastModified: base.Add(72 * time.Hour)},
	}
	SortNewestFirst(objects)

	assert.Equal(t, "backup-4", objects[0].Key)
	assert.Equal(t, "backup-1", objects[3].Key)

	expired := Expired(objects, 2)
	assert.Equal(t, []Object{objects[2], objects[3]}, expired)
	assert.Nil(t, Expired(objects, 4))
	assert.Len(t, Expired(objects, -1), 4)
}
