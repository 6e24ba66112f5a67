package models

import (
	"time"

	"gorm.io/datatypes"
)

// DataDomain beschreibt einen Datenbereich mit Schema, Validierungsregeln und Beispieldaten.
type DataDomain struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DomainName       string         `json:"domain_name" gorm:"uniqueIndex;not null"`
	Description      string         `json:"description" gorm:"type:text"`
	SchemaDefinition datatypes.JSON `json:"schema_definition" gorm:"type:jsonb"`
	ValidationRules  datatypes.JSON `json:"validation_rules" gorm:"type:jsonb"`
	DataFormat       string         `json:"data_format" gorm:"index"`
	SampleData       datatypes.JSON `json:"sample_data" gorm:"type:jsonb"`
	Owner            string         `json:"owner" gorm:"index"`
}

func (DataDomain) TableName() string {
	return "data_domains"
}
