package models

// ImportTopic ist eine wiederverwendbare Suchanfrage für den Paper-Import (z.B. "curcumin AND humans").
type ImportTopic struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Name  string `json:"name" gorm:"uniqueIndex;not null"`
	Query string `json:"query" gorm:"type:text;not null"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (ImportTopic) TableName() string {
	return "import_topics"
}
