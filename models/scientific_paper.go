package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScientificPaper repräsentiert eine wissenschaftliche Publikation und deren Metadaten.
type ScientificPaper struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title           string                      `json:"title" gorm:"not null"`
	Abstract        string                      `json:"abstract,omitempty" gorm:"type:text"`
	Authors         datatypes.JSONSlice[string] `json:"authors" gorm:"type:jsonb"`
	PublicationDate *time.Time                  `json:"publication_date,omitempty" gorm:"index"`
	Journal         string                      `json:"journal" gorm:"index"`
	// Leere DOIs werden als NULL gespeichert, damit der Unique-Index greift.
	DOI            *string                     `json:"doi,omitempty" gorm:"column:doi;uniqueIndex"`
	PMID           string                      `json:"pmid,omitempty" gorm:"column:pmid;index"`
	Keywords       datatypes.JSONSlice[string] `json:"keywords" gorm:"type:jsonb"`
	CitationsCount int                         `json:"citations_count" gorm:"not null;default:0"`
	ReferenceList  datatypes.JSONSlice[string] `json:"reference_list" gorm:"type:jsonb"`

	// Herkunft: seed, europepmc oder pubmed
	Source string `json:"source" gorm:"index;default:'seed'"`
}

// TableName gibt explizit den Tabellennamen an.
func (ScientificPaper) TableName() string {
	return "scientific_papers"
}

// DOIValue gibt die DOI oder einen leeren String zurück.
func (p *ScientificPaper) DOIValue() string {
	if p.DOI == nil {
		return ""
	}
	return *p.DOI
}
