package providers

import (
	"context"

	"biomed-search/models"
)

// Provider ist das Interface, das jede durchsuchbare Collection (Studien, Paper, Domains) implementiert.
type Provider interface {
	// Name gibt den Collection-Typ zurück (z.B. "clinical_study").
	Name() string

	// Search führt die Abfrage aus und liefert die Ergebnisse der angefragten Seite sowie die Gesamtanzahl.
	Search(ctx context.Context, q Query) ([]Result, int64, error)

	// AvailableFilters liefert die auswählbaren Filterwerte für die Oberfläche.
	AvailableFilters(ctx context.Context) (map[string]interface{}, error)
}

// PaperSource ist eine externe Literaturdatenbank (z.B. PubMed, EuropePMC), aus der Paper importiert werden.
type PaperSource interface {
	// Search führt eine Suche für einen gegebenen Term durch und gibt standardisierte Paper-Modelle zurück.
	Search(ctx context.Context, term string, limit int) ([]*models.ScientificPaper, error)

	// Name gibt den eindeutigen Namen der Quelle zurück (z.B. "pubmed").
	Name() string
}

// Query beschreibt eine Suchanfrage an einen Provider. Terms sind bereits normalisiert und werden ODER-verknüpft.
type Query struct {
	Terms   []string
	Filters map[string]interface{}
	Page    int
	PerPage int
}

// Offset berechnet den Offset für die angefragte Seite.
func (q Query) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PerPage
}

// Result ist ein einheitlicher Ergebnisdatensatz, unabhängig von der Collection.
type Result struct {
	ID             uint                   `json:"id"`
	Type           string                 `json:"type"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Data           map[string]interface{} `json:"data"`
	DataProducts   []DataProductSummary   `json:"data_products,omitempty"`
	RelevanceScore float64                `json:"relevance_score"`
}

// DataProductSummary ist die Kurzform eines DataProducts innerhalb eines Studienergebnisses.
type DataProductSummary struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Format      string `json:"format"`
	Size        string `json:"size"`
	AccessLevel string `json:"access_level"`
	CreatedAt   string `json:"created_at"`
}
