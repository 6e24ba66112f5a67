package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"biomed-search/config"
	"biomed-search/models"
)

// SourceName ist der Wert, der in ScientificPaper.Source gespeichert wird.
const SourceName = "pubmed"

const (
	// efetchBatchSize begrenzt die Anzahl der PMIDs pro EFetch-Aufruf.
	efetchBatchSize = 50
	// maxParallel begrenzt parallele EFetch-Aufrufe (NCBI erlaubt 3 req/s ohne API-Key).
	maxParallel = 3
)

// Fetcher kapselt die Interaktion mit PubMed und implementiert providers.PaperSource.
type Fetcher struct {
	BaseURL string
	APIKey  string
	Email   string
	Tool    string
	Client  *http.Client
	Logger  *zap.Logger
}

// NewFetcher erstellt eine neue Instanz des PubMed-Fetchers.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		BaseURL: strings.TrimRight(cfg.PubMedBaseURL, "/"),
		APIKey:  cfg.PubMedAPIKey,
		Email:   cfg.PubMedEmail,
		Tool:    cfg.PubMedTool,
		Client:  &http.Client{Timeout: 60 * time.Second},
		Logger:  logger,
	}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return SourceName
}

// Search holt bis zu limit PMIDs via ESearch und danach die Details via EFetch.
func (f *Fetcher) Search(ctx context.Context, term string, limit int) ([]*models.ScientificPaper, error) {
	ids, err := f.searchIDs(ctx, term, limit)
	if err != nil {
		return nil, errors.Wrap(err, "pubmed esearch")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var (
		papers   []*models.ScientificPaper
		firstErr error
		wg       sync.WaitGroup
		mu       sync.Mutex
	)
	semaphore := make(chan struct{}, maxParallel)

	for start := 0; start < len(ids); start += efetchBatchSize {
		end := start + efetchBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		wg.Add(1)
		semaphore <- struct{}{}
		go func(batch []string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			found, err := f.fetchDetails(ctx, batch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				f.Logger.Warn("Konnte Details für PMIDs nicht abrufen", zap.Strings("pmids", batch), zap.Error(err))
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			papers = append(papers, found...)
		}(batch)
	}
	wg.Wait()

	// Nur wenn gar nichts geladen werden konnte, gilt die Suche als fehlgeschlagen.
	if len(papers) == 0 && firstErr != nil {
		return nil, errors.Wrap(firstErr, "pubmed efetch")
	}
	f.Logger.Info("PubMed-Suche abgeschlossen", zap.String("term", term), zap.Int("found_papers", len(papers)))
	return papers, nil
}

func (f *Fetcher) params() url.Values {
	v := url.Values{}
	v.Set("db", "pubmed")
	if f.APIKey != "" {
		v.Set("api_key", f.APIKey)
	}
	if f.Tool != "" {
		v.Set("tool", f.Tool)
	}
	if f.Email != "" {
		v.Set("email", f.Email)
	}
	return v
}

func (f *Fetcher) get(ctx context.Context, endpoint string, params url.Values) (*http.Response, error) {
	u := fmt.Sprintf("%s/%s?%s", f.BaseURL, endpoint, params.Encode())
	f.Logger.Debug("Rufe E-Utilities auf", zap.String("endpoint", endpoint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, errors.Errorf("%s failed: status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

// searchIDs führt eine ESearch-Abfrage durch und gibt eine Liste von PMIDs zurück.
func (f *Fetcher) searchIDs(ctx context.Context, term string, limit int) ([]string, error) {
	params := f.params()
	params.Set("term", term)
	params.Set("retmode", "json")
	params.Set("sort", "relevance")
	if limit > 0 {
		params.Set("retmax", fmt.Sprint(limit))
	}

	resp, err := f.get(ctx, "esearch.fcgi", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var esearchResp ESearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&esearchResp); err != nil {
		return nil, errors.Wrap(err, "decode esearch")
	}
	return esearchResp.ESearchResult.IdList, nil
}

// fetchDetails holt die Metadaten für mehrere PMIDs in einem EFetch-Aufruf.
func (f *Fetcher) fetchDetails(ctx context.Context, pmids []string) ([]*models.ScientificPaper, error) {
	params := f.params()
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")

	resp, err := f.get(ctx, "efetch.fcgi", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var articleSet PubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&articleSet); err != nil {
		return nil, errors.Wrap(err, "decode efetch")
	}

	papers := make([]*models.ScientificPaper, 0, len(articleSet.PubmedArticle))
	for i := range articleSet.PubmedArticle {
		if p := mapArticleToModel(&articleSet.PubmedArticle[i]); p != nil {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

// mapArticleToModel wandelt ein XML-Article-Objekt in unser Paper-Modell um.
func mapArticleToModel(article *PubmedArticle) *models.ScientificPaper {
	mc := &article.MedlineCitation
	title := strings.TrimSuffix(strings.TrimSpace(mc.Article.Title), ".")
	if title == "" {
		return nil
	}

	p := &models.ScientificPaper{
		PMID:     strings.TrimSpace(mc.PMID),
		Title:    title,
		Abstract: strings.Join(mc.Article.Abstract.Text, "\n"),
		Journal:  mc.Article.Journal.Title,
		Keywords: mc.Keywords,
		Source:   SourceName,
	}

	for _, author := range mc.Article.Authors {
		switch {
		case author.LastName != "":
			p.Authors = append(p.Authors, strings.TrimSpace(author.LastName+" "+author.Initials))
		case author.CollectiveName != "":
			p.Authors = append(p.Authors, author.CollectiveName)
		}
	}

	if doi := findDOI(article); doi != "" {
		p.DOI = &doi
	}
	p.PublicationDate = parsePubDate(mc.Article.Journal.PubDate.Year, mc.Article.Journal.PubDate.Month, mc.Article.Journal.PubDate.Day)
	if p.PublicationDate == nil && mc.Article.Journal.PubDate.MedlineDate != "" {
		// MedlineDate hat die Form "2019 Nov-Dec"; das Jahr reicht.
		year, _, _ := strings.Cut(mc.Article.Journal.PubDate.MedlineDate, " ")
		p.PublicationDate = parsePubDate(year, "", "")
	}
	return p
}

func findDOI(article *PubmedArticle) string {
	for _, id := range article.MedlineCitation.Article.ELocationID {
		if id.IDType == "doi" && id.ValidYN != "N" {
			return strings.TrimSpace(id.Value)
		}
	}
	for _, id := range article.PubmedData.ArticleIDs {
		if id.IDType == "doi" {
			return strings.TrimSpace(id.Value)
		}
	}
	return ""
}

// parsePubDate akzeptiert Monate als Kürzel ("Jan") oder Zahl ("1"). Fehlende Teile werden zu 01.
func parsePubDate(year, month, day string) *time.Time {
	if year == "" {
		return nil
	}
	m := 1
	if month != "" {
		if t, err := time.Parse("Jan", month); err == nil {
			m = int(t.Month())
		} else if t, err := time.Parse("1", month); err == nil {
			m = int(t.Month())
		}
	}
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return nil
	}
	d := 1
	if n, err := strconv.Atoi(strings.TrimSpace(day)); err == nil && n >= 1 && n <= 31 {
		d = n
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}
