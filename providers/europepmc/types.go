package europepmc

import (
	"strings"
	"time"
)

// SearchResponse ist die Top-Level-Struktur der Europe PMC API-Antwort.
type SearchResponse struct {
	HitCount   int `json:"hitCount"`
	ResultList struct {
		Result []Article `json:"result"`
	} `json:"resultList"`
}

// Article repräsentiert einen einzelnen Artikel in der API-Antwort (resultType=core).
type Article struct {
	ID                   string `json:"id"`
	Source               string `json:"source"`
	PMID                 string `json:"pmid"`
	DOI                  string `json:"doi"`
	Title                string `json:"title"`
	AuthorString         string `json:"authorString"`
	JournalTitle         string `json:"journalTitle"`
	FirstPublicationDate string `json:"firstPublicationDate"`
	AbstractText         string `json:"abstractText"`
	CitedByCount         int    `json:"citedByCount"`
	AuthorList           struct {
		Author []struct {
			FullName string `json:"fullName"`
		} `json:"author"`
	} `json:"authorList"`
	JournalInfo struct {
		Journal struct {
			Title string `json:"title"`
		} `json:"journal"`
	} `json:"journalInfo"`
	KeywordList struct {
		Keyword []string `json:"keyword"`
	} `json:"keywordList"`
}

// authors bevorzugt die strukturierte Autorenliste und fällt auf authorString zurück.
func (a *Article) authors() []string {
	var out []string
	for _, au := range a.AuthorList.Author {
		if name := strings.TrimSpace(au.FullName); name != "" {
			out = append(out, name)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, name := range strings.Split(strings.TrimSuffix(a.AuthorString, "."), ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func (a *Article) journal() string {
	if a.JournalInfo.Journal.Title != "" {
		return a.JournalInfo.Journal.Title
	}
	return a.JournalTitle
}

// Hilfsfunktion zum sicheren Parsen von Daten.
func parseEuroDate(dateStr string) *time.Time {
	layouts := []string{"2006-01-02", "2006-01", "2006"}
	for _, layout := range layouts {
		t, err := time.Parse(layout, dateStr)
		if err == nil {
			return &t
		}
	}
	return nil
}
