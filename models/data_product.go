package models

import "time"

// Erlaubte Werte für DataProduct.Type und DataProduct.Format.
var (
	DataProductTypes   = []string{"raw_data", "processed_data", "analysis_results"}
	DataProductFormats = []string{"CSV", "JSON", "XML"}
)

// DataProduct ist ein Datensatz, der aus einer Studie hervorgegangen ist.
type DataProduct struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time `json:"created_at"`
	StudyID     uint      `json:"study_id" gorm:"index;not null"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	Type        string    `json:"type"`
	Format      string    `json:"format"`
	Size        string    `json:"size"`
	AccessLevel string    `json:"access_level" gorm:"default:'Public'"`
}

func (DataProduct) TableName() string {
	return "data_products"
}
