package europepmc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"biomed-search/config"
	"biomed-search/models"
)

// SourceName ist der Wert, der in ScientificPaper.Source gespeichert wird.
const SourceName = "europepmc"

// maxPageSize ist das Limit der Europe PMC REST API pro Anfrage.
const maxPageSize = 1000

// Fetcher implementiert providers.PaperSource für Europe PMC.
type Fetcher struct {
	BaseURL string
	Client  *http.Client
	Logger  *zap.Logger
}

// NewFetcher erstellt einen neuen Europe PMC Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		BaseURL: cfg.EuropePMCBaseURL,
		Client:  &http.Client{Timeout: 60 * time.Second},
		Logger:  logger,
	}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return SourceName
}

// Search führt die Suche auf Europe PMC aus und liefert höchstens limit Paper.
func (f *Fetcher) Search(ctx context.Context, term string, limit int) ([]*models.ScientificPaper, error) {
	log := f.Logger.With(zap.String("term", term))
	log.Info("Starte Suche auf Europe PMC.")

	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	params := url.Values{}
	params.Set("query", term)
	params.Set("format", "json")
	params.Set("resultType", "core")
	params.Set("pageSize", fmt.Sprint(limit))
	searchURL := f.BaseURL + "?" + params.Encode()
	log.Debug("Rufe Europe PMC API auf", zap.String("url", searchURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "europepmc search")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("europepmc search: status %d", resp.StatusCode)
	}

	var searchResponse SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResponse); err != nil {
		return nil, errors.Wrap(err, "europepmc search: decode")
	}

	var papers []*models.ScientificPaper
	for i := range searchResponse.ResultList.Result {
		if p := mapArticleToModel(&searchResponse.ResultList.Result[i]); p != nil {
			papers = append(papers, p)
		}
	}

	log.Info("Suche auf Europe PMC abgeschlossen",
		zap.Int("found_papers", len(papers)), zap.Int("hit_count", searchResponse.HitCount))
	return papers, nil
}

// mapArticleToModel konvertiert ein Europe PMC Article-Objekt in unser Paper-Modell.
// Artikel ohne Titel werden verworfen.
func mapArticleToModel(article *Article) *models.ScientificPaper {
	title := strings.TrimSpace(article.Title)
	if title == "" {
		return nil
	}
	paper := &models.ScientificPaper{
		Title:           strings.TrimSuffix(title, "."),
		Abstract:        article.AbstractText,
		Authors:         article.authors(),
		Journal:         article.journal(),
		PMID:            article.PMID,
		PublicationDate: parseEuroDate(article.FirstPublicationDate),
		Keywords:        article.KeywordList.Keyword,
		CitationsCount:  article.CitedByCount,
		Source:          SourceName,
	}
	if doi := strings.TrimSpace(article.DOI); doi != "" {
		paper.DOI = &doi
	}
	return paper
}
