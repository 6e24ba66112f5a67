package models

import (
	"time"

	"gorm.io/datatypes"
)

// SearchHistory speichert eine ausgeführte Suche. Gespeicherte Suchen sind Einträge mit IsSaved=true.
type SearchHistory struct {
	ID           uint              `json:"id" gorm:"primaryKey"`
	CreatedAt    time.Time         `json:"created_at" gorm:"index"`
	UserID       uint              `json:"user_id" gorm:"index;not null"`
	Name         string            `json:"name,omitempty"`
	Query        string            `json:"query"`
	Category     string            `json:"category" gorm:"index"`
	Filters      datatypes.JSONMap `json:"filters" gorm:"type:jsonb"`
	ResultsCount int64             `json:"results_count"`
	IsSaved      bool              `json:"is_saved" gorm:"index;default:false"`
	UseCount     int               `json:"use_count" gorm:"not null;default:1"`
	LastUsed     time.Time         `json:"last_used"`

	User *User `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (SearchHistory) TableName() string {
	return "search_history"
}
