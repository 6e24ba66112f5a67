package services

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"biomed-search/models"
	"biomed-search/providers"
)

// maxParallelSources begrenzt parallele Aufrufe externer Literaturdatenbanken.
const maxParallelSources = 4

// Importer holt Paper für die konfigurierten Import-Topics aus externen Quellen.
type Importer struct {
	db        *gorm.DB
	logger    *zap.Logger
	sources   []providers.PaperSource
	maxPerRun int
}

func NewImporter(db *gorm.DB, logger *zap.Logger, maxPerRun int, sources ...providers.PaperSource) *Importer {
	return &Importer{db: db, logger: logger, sources: sources, maxPerRun: maxPerRun}
}

// Sources liefert die Namen der aktiven Quellen.
func (im *Importer) Sources() []string {
	names := make([]string, 0, len(im.sources))
	for _, s := range im.sources {
		names = append(names, s.Name())
	}
	return names
}

// RunAllTopics importiert Paper für alle Topics. Ein fehlschlagendes Topic wird geloggt und übersprungen.
func (im *Importer) RunAllTopics(ctx context.Context) (int, error) {
	var topics []models.ImportTopic
	if err := im.db.WithContext(ctx).Order("id").Find(&topics).Error; err != nil {
		return 0, errors.Wrap(err, "Importer.RunAllTopics")
	}

	total := 0
	for _, topic := range topics {
		n, err := im.RunTopic(ctx, topic)
		if err != nil {
			im.logger.Error("Import for topic failed", zap.String("topic", topic.Name), zap.Error(err))
			continue
		}
		total += n
	}
	im.logger.Info("Paper import finished", zap.Int("topics", len(topics)), zap.Int("new_papers", total))
	return total, nil
}

// RunTopic fragt alle Quellen für ein Topic ab und speichert die noch unbekannten Paper.
func (im *Importer) RunTopic(ctx context.Context, topic models.ImportTopic) (int, error) {
	log := im.logger.With(zap.String("topic", topic.Name))
	if len(im.sources) == 0 {
		log.Warn("No paper sources enabled")
		return 0, nil
	}

	var (
		found []*models.ScientificPaper
		wg    sync.WaitGroup
		mu    sync.Mutex
	)
	semaphore := make(chan struct{}, maxParallelSources)
	for _, src := range im.sources {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(src providers.PaperSource) {
			defer wg.Done()
			defer func() { <-semaphore }()

			papers, err := src.Search(ctx, topic.Query, im.maxPerRun)
			if err != nil {
				log.Error("Source search failed", zap.String("source", src.Name()), zap.Error(err))
				return
			}
			log.Info("Source returned papers", zap.String("source", src.Name()), zap.Int("count", len(papers)))
			mu.Lock()
			found = append(found, papers...)
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	unique := dedupePapers(found)
	if len(unique) == 0 {
		return 0, nil
	}
	return im.store(ctx, unique)
}

// dedupePapers entfernt doppelte Paper, zuerst über die DOI, dann über die PMID. Paper ohne beide
// Kennungen fallen weg, da sie später nicht dedupliziert werden können.
func dedupePapers(papers []*models.ScientificPaper) []*models.ScientificPaper {
	seenDOI := map[string]bool{}
	seenPMID := map[string]bool{}
	out := make([]*models.ScientificPaper, 0, len(papers))
	for _, p := range papers {
		if p == nil {
			continue
		}
		doi := strings.ToLower(strings.TrimSpace(p.DOIValue()))
		pmid := strings.TrimSpace(p.PMID)
		if doi == "" && pmid == "" {
			continue
		}
		if (doi != "" && seenDOI[doi]) || (pmid != "" && seenPMID[pmid]) {
			continue
		}
		if doi != "" {
			seenDOI[doi] = true
			p.DOI = &doi
		} else {
			p.DOI = nil
		}
		if pmid != "" {
			seenPMID[pmid] = true
		}
		out = append(out, p)
	}
	return out
}

// store fügt Paper ein, deren DOI oder PMID noch nicht in der Datenbank steht.
func (im *Importer) store(ctx context.Context, papers []*models.ScientificPaper) (int, error) {
	db := im.db.WithContext(ctx)

	var dois, pmids []string
	for _, p := range papers {
		if p.DOI != nil {
			dois = append(dois, *p.DOI)
		}
		if p.PMID != "" {
			pmids = append(pmids, p.PMID)
		}
	}

	var existing []struct {
		DOI  *string
		PMID string
	}
	q := db.Model(&models.ScientificPaper{}).Select("doi", "pmid")
	switch {
	case len(dois) > 0 && len(pmids) > 0:
		q = q.Where("doi IN ? OR pmid IN ?", dois, pmids)
	case len(dois) > 0:
		q = q.Where("doi IN ?", dois)
	default:
		q = q.Where("pmid IN ?", pmids)
	}
	if err := q.Find(&existing).Error; err != nil {
		return 0, errors.Wrap(err, "Importer.store: lookup")
	}
	known := map[string]bool{}
	for _, e := range existing {
		if e.DOI != nil {
			known["doi:"+strings.ToLower(*e.DOI)] = true
		}
		if e.PMID != "" {
			known["pmid:"+e.PMID] = true
		}
	}

	bySource := map[string][]*models.ScientificPaper{}
	for _, p := range papers {
		if (p.DOI != nil && known["doi:"+*p.DOI]) || (p.PMID != "" && known["pmid:"+p.PMID]) {
			continue
		}
		bySource[p.Source] = append(bySource[p.Source], p)
	}

	inserted := 0
	for source, batch := range bySource {
		res := db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(batch, 100)
		if res.Error != nil {
			return inserted, errors.Wrapf(res.Error, "Importer.store: insert %s", source)
		}
		papersImported.WithLabelValues(source).Add(float64(res.RowsAffected))
		inserted += int(res.RowsAffected)
	}
	return inserted, nil
}
