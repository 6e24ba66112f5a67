package models

import "time"

// ClinicalStudy repräsentiert eine klinische Studie. Einige Kategorien (Indikation, Prozedur,
// Schweregrad) sind zusätzlich denormalisiert gespeichert, damit die Suche ohne Joins filtern kann.
type ClinicalStudy struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"not null;index"`
	Description string     `json:"description" gorm:"type:text"`
	Status      string     `json:"status" gorm:"index;default:'Active'"`
	Phase       string     `json:"phase" gorm:"index"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	LastUpdated time.Time  `json:"last_updated" gorm:"autoUpdateTime"`

	Institution        string `json:"institution"`
	ParticipantCount   int    `json:"participant_count"`
	Drug               string `json:"drug" gorm:"index"`
	IndicationCategory string `json:"indication_category" gorm:"index"`
	ProcedureCategory  string `json:"procedure_category" gorm:"index"`
	Severity           string `json:"severity"`
	RiskLevel          string `json:"risk_level"`
	Duration           string `json:"duration"`

	// Gespeicherter Relevanzwert, die Suche sortiert nur danach.
	RelevanceScore float64 `json:"relevance_score" gorm:"not null;default:0"`

	DataProducts []DataProduct     `json:"data_products,omitempty" gorm:"foreignKey:StudyID;constraint:OnDelete:CASCADE"`
	Indications  []StudyIndication `json:"indications,omitempty" gorm:"foreignKey:StudyID;constraint:OnDelete:CASCADE"`
	Procedures   []StudyProcedure  `json:"procedures,omitempty" gorm:"foreignKey:StudyID;constraint:OnDelete:CASCADE"`
}

func (ClinicalStudy) TableName() string {
	return "clinical_studies"
}

// Indication ist ein Anwendungsgebiet (z.B. eine Erkrankung).
type Indication struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
}

func (Indication) TableName() string {
	return "indications"
}

// Procedure ist ein medizinisches Verfahren, das in Studien angewendet wird.
type Procedure struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category"`
	RiskLevel   string `json:"risk_level"`
	Duration    string `json:"duration"`
}

func (Procedure) TableName() string {
	return "procedures"
}

// StudyIndication verknüpft Studien und Indikationen (n:m).
type StudyIndication struct {
	StudyID      uint       `json:"study_id" gorm:"primaryKey"`
	IndicationID uint       `json:"indication_id" gorm:"primaryKey"`
	IsPrimary    bool       `json:"is_primary" gorm:"default:false"`
	Indication   Indication `json:"indication" gorm:"foreignKey:IndicationID"`
}

func (StudyIndication) TableName() string {
	return "study_indications"
}

// StudyProcedure verknüpft Studien und Prozeduren (n:m).
type StudyProcedure struct {
	StudyID     uint      `json:"study_id" gorm:"primaryKey"`
	ProcedureID uint      `json:"procedure_id" gorm:"primaryKey"`
	IsRequired  bool      `json:"is_required" gorm:"default:true"`
	Procedure   Procedure `json:"procedure" gorm:"foreignKey:ProcedureID"`
}

func (StudyProcedure) TableName() string {
	return "study_procedures"
}
