package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"biomed-search/models"
)

var (
	seedStatuses         = []string{"Recruiting", "Active", "Completed", "Not yet recruiting"}
	seedPhases           = []string{"Phase I", "Phase II", "Phase III", "Phase IV"}
	seedIndicationGroups = []string{"Cardiovascular", "Neurological", "Oncology", "Respiratory"}
	seedSeverities       = []string{"Mild", "Moderate", "Severe"}
	seedProcedureGroups  = []string{"Diagnostic", "Therapeutic", "Surgical", "Monitoring"}
	seedRiskLevels       = []string{"Low", "Medium", "High"}
	seedJournals         = []string{"Nature Medicine", "The Lancet", "Science", "Cell", "JAMA"}
	seedKeywords         = []string{"genomics", "proteomics", "clinical trials", "biomarkers"}
	seedDomains          = []string{"Clinical Trials", "Patient Records", "Genomic Data", "Medical Imaging"}
	seedInstitutions     = []string{"Charité Berlin", "Karolinska Institutet", "Mayo Clinic", "UCL"}
	seedDrugs            = []string{"Metformin", "Atorvastatin", "Pembrolizumab", "Salbutamol"}
)

var defaultImportTopics = []models.ImportTopic{
	{Name: "Meta-Analysis (Human)", Query: `("meta-analysis"[Publication Type] OR "systematic review"[Publication Type]) AND "humans"[MeSH Terms]`},
	{Name: "RCT (Human)", Query: `"randomized controlled trial"[Publication Type] AND "humans"[MeSH Terms]`},
}

// Seeder füllt eine leere Datenbank mit Beispieldaten. Jede Tabelle wird nur befüllt, solange sie leer ist.
type Seeder struct {
	db     *gorm.DB
	logger *zap.Logger
	rnd    *rand.Rand
	now    time.Time
}

func NewSeeder(db *gorm.DB, logger *zap.Logger) *Seeder {
	return &Seeder{db: db, logger: logger, rnd: rand.New(rand.NewSource(42)), now: time.Now().UTC()}
}

func (s *Seeder) pick(values []string) string {
	return values[s.rnd.Intn(len(values))]
}

func (s *Seeder) empty(ctx context.Context, model interface{}) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

// SeedAll führt alle Seed-Schritte aus und bricht beim ersten Fehler ab.
func (s *Seeder) SeedAll(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"clinical studies", s.SeedClinicalStudies},
		{"scientific papers", s.SeedScientificPapers},
		{"data domains", s.SeedDataDomains},
		{"import topics", s.SeedImportTopics},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return errors.Wrapf(err, "seed %s", step.name)
		}
	}
	return nil
}

// SeedClinicalStudies legt Indikationen, Prozeduren und 30 Studien mit je ein bis drei Datenprodukten an.
func (s *Seeder) SeedClinicalStudies(ctx context.Context) error {
	ok, err := s.empty(ctx, &models.ClinicalStudy{})
	if err != nil || !ok {
		return err
	}
	db := s.db.WithContext(ctx)

	var indications []models.Indication
	for _, group := range seedIndicationGroups {
		for i := 1; i <= 3; i++ {
			indications = append(indications, models.Indication{
				Name:        fmt.Sprintf("%s Condition %d", group, i),
				Description: fmt.Sprintf("Sample %s condition", strings.ToLower(group)),
				Category:    group,
				Severity:    s.pick(seedSeverities),
			})
		}
	}
	if err := db.Create(&indications).Error; err != nil {
		return err
	}

	var procedures []models.Procedure
	for _, group := range seedProcedureGroups {
		for i := 1; i <= 3; i++ {
			procedures = append(procedures, models.Procedure{
				Name:        fmt.Sprintf("%s Procedure %d", group, i),
				Description: fmt.Sprintf("Sample %s procedure", strings.ToLower(group)),
				Category:    group,
				RiskLevel:   s.pick(seedRiskLevels),
				Duration:    fmt.Sprintf("%d minutes", 30+s.rnd.Intn(211)),
			})
		}
	}
	if err := db.Create(&procedures).Error; err != nil {
		return err
	}

	studies := make([]models.ClinicalStudy, 0, 30)
	for i := 1; i <= 30; i++ {
		ind := indications[s.rnd.Intn(len(indications))]
		proc := procedures[s.rnd.Intn(len(procedures))]
		start := s.now.AddDate(0, 0, -s.rnd.Intn(365))
		end := start.AddDate(0, 0, 180+s.rnd.Intn(551))

		title := fmt.Sprintf("Study %d: %s Research using %s", i, ind.Category, proc.Category)
		study := models.ClinicalStudy{
			Title:              title,
			Description:        fmt.Sprintf("Investigation of %s using %s", ind.Name, proc.Name),
			Status:             s.pick(seedStatuses),
			Phase:              s.pick(seedPhases),
			StartDate:          &start,
			EndDate:            &end,
			Institution:        s.pick(seedInstitutions),
			ParticipantCount:   20 + s.rnd.Intn(480),
			Drug:               s.pick(seedDrugs),
			IndicationCategory: ind.Category,
			ProcedureCategory:  proc.Category,
			Severity:           ind.Severity,
			RiskLevel:          proc.RiskLevel,
			Duration:           proc.Duration,
			RelevanceScore:     float64(s.rnd.Intn(100)) / 100,
			Indications:        []models.StudyIndication{{IndicationID: ind.ID, IsPrimary: true}},
			Procedures:         []models.StudyProcedure{{ProcedureID: proc.ID, IsRequired: true}},
		}
		for n := 1 + s.rnd.Intn(3); n > 0; n-- {
			study.DataProducts = append(study.DataProducts, models.DataProduct{
				Title:       "Data from " + title,
				Description: "Research data for " + title,
				Type:        s.pick(models.DataProductTypes),
				Format:      s.pick(models.DataProductFormats),
				Size:        fmt.Sprintf("%d MB", 1+s.rnd.Intn(500)),
				AccessLevel: "Public",
			})
		}
		studies = append(studies, study)
	}
	if err := db.Create(&studies).Error; err != nil {
		return err
	}
	s.logger.Info("Sample clinical studies seeded.", zap.Int("count", len(studies)))
	return nil
}

// SeedScientificPapers legt 20 Paper an.
func (s *Seeder) SeedScientificPapers(ctx context.Context) error {
	ok, err := s.empty(ctx, &models.ScientificPaper{})
	if err != nil || !ok {
		return err
	}

	papers := make([]models.ScientificPaper, 0, 20)
	for i := 1; i <= 20; i++ {
		pub := s.now.AddDate(0, 0, -(7 + s.rnd.Intn(724)))
		doi := fmt.Sprintf("10.1000/paper.%d", i)

		authors := make([]string, 1+s.rnd.Intn(5))
		for j := range authors {
			authors[j] = fmt.Sprintf("Author %d", j+1)
		}
		keywords := append([]string(nil), seedKeywords...)
		s.rnd.Shuffle(len(keywords), func(a, b int) { keywords[a], keywords[b] = keywords[b], keywords[a] })
		refs := make([]string, 5+s.rnd.Intn(11))
		for j := range refs {
			refs[j] = fmt.Sprintf("ref_%d", j)
		}

		papers = append(papers, models.ScientificPaper{
			Title:           fmt.Sprintf("Research Paper %d: Advances in %s", i, s.pick(seedIndicationGroups)),
			Abstract:        "A comprehensive study in " + s.pick(seedKeywords),
			Authors:         authors,
			PublicationDate: &pub,
			Journal:         s.pick(seedJournals),
			DOI:             &doi,
			Keywords:        keywords[:2+s.rnd.Intn(3)],
			CitationsCount:  s.rnd.Intn(501),
			ReferenceList:   refs,
			Source:          "seed",
		})
	}
	if err := s.db.WithContext(ctx).Create(&papers).Error; err != nil {
		return err
	}
	s.logger.Info("Sample scientific papers seeded.", zap.Int("count", len(papers)))
	return nil
}

// SeedDataDomains legt pro Beispieldomäne einen Metadatensatz an.
func (s *Seeder) SeedDataDomains(ctx context.Context) error {
	ok, err := s.empty(ctx, &models.DataDomain{})
	if err != nil || !ok {
		return err
	}

	const (
		schema = `{"type":"object","properties":{"id":{"type":"string"},"name":{"type":"string"},"timestamp":{"type":"string","format":"date-time"}}}`
		rules  = `{"required":["id","name"],"format_checks":["timestamp"]}`
	)
	sample := fmt.Sprintf(`{"id":"example_id","name":"example_name","timestamp":%q}`, s.now.Format(time.RFC3339))

	domains := make([]models.DataDomain, 0, len(seedDomains))
	for _, name := range seedDomains {
		domains = append(domains, models.DataDomain{
			DomainName:       name,
			Description:      fmt.Sprintf("Metadata schema for %s", strings.ToLower(name)),
			SchemaDefinition: datatypes.JSON(schema),
			ValidationRules:  datatypes.JSON(rules),
			DataFormat:       s.pick(models.DataProductFormats),
			SampleData:       datatypes.JSON(sample),
			Owner:            fmt.Sprintf("Department %d", 1+s.rnd.Intn(5)),
		})
	}
	if err := s.db.WithContext(ctx).Create(&domains).Error; err != nil {
		return err
	}
	s.logger.Info("Sample data domains seeded.", zap.Int("count", len(domains)))
	return nil
}

// SeedImportTopics legt die Standard-Topics für den Paper-Import an.
func (s *Seeder) SeedImportTopics(ctx context.Context) error {
	ok, err := s.empty(ctx, &models.ImportTopic{})
	if err != nil || !ok {
		return err
	}
	topics := append([]models.ImportTopic(nil), defaultImportTopics...)
	if err := s.db.WithContext(ctx).Create(&topics).Error; err != nil {
		return err
	}
	s.logger.Info("Default import topics seeded.", zap.Int("count", len(topics)))
	return nil
}
