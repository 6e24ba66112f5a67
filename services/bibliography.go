package services

import (
	"fmt"
	"strings"

	"biomed-search/models"
)

// maxReferenceAuthors ist die Anzahl der Autoren vor "et al."
const maxReferenceAuthors = 6

// Reference enthält die Felder für eine Zeile im Literaturverzeichnis.
type Reference struct {
	Authors []string
	Year    int
	Title   string
	Journal string
	DOI     string
	PMID    string
}

// ReferenceFromPaper sammelt die Zitierfelder eines Papers.
func ReferenceFromPaper(p *models.ScientificPaper) Reference {
	ref := Reference{
		Authors: []string(p.Authors),
		Title:   p.Title,
		Journal: p.Journal,
		DOI:     p.DOIValue(),
		PMID:    p.PMID,
	}
	if p.PublicationDate != nil {
		ref.Year = p.PublicationDate.Year()
	}
	return ref
}

// FormatReference formatiert eine Quelle als kompakte Literaturangabe.
func FormatReference(r Reference) string {
	authors := r.Authors
	etAl := ""
	if len(authors) > maxReferenceAuthors {
		authors = authors[:maxReferenceAuthors]
		etAl = ", et al."
	}
	authorStr := strings.Join(authors, ", ") + etAl
	if authorStr == "" {
		authorStr = "Unknown Authors"
	}
	year := "n.d."
	if r.Year > 0 {
		year = fmt.Sprintf("%d", r.Year)
	}
	var tail []string
	if r.DOI != "" {
		tail = append(tail, "doi:"+r.DOI)
	}
	if r.PMID != "" {
		tail = append(tail, "pmid:"+r.PMID)
	}
	tailStr := strings.Join(tail, " ")
	if tailStr != "" {
		tailStr = " " + tailStr
	}
	title := strings.TrimRight(strings.TrimSpace(r.Title), ".")
	if title == "" {
		title = "Untitled"
	}
	if r.Journal != "" {
		return fmt.Sprintf("%s (%s). %s. %s.%s", authorStr, year, title, r.Journal, tailStr)
	}
	return fmt.Sprintf("%s (%s). %s.%s", authorStr, year, title, tailStr)
}
