package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"biomed-search/config"
	"biomed-search/models"
	"biomed-search/providers/sources"
	"biomed-search/services"
	"biomed-search/storage"
)

// env bündelt, was jedes Kommando braucht.
type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// setup lädt die Konfiguration und öffnet die Datenbank.
func setup(c *cli.Command) (*env, error) {
	logger, err := newLogger(c.Bool("debug"))
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	db, err := storage.OpenPostgres(cfg.DSN(), cfg.DBMaxConns)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return &env{cfg: cfg, log: logger, db: db}, nil
}

// MigrateCommand legt das Datenbankschema an oder aktualisiert es.
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the database schema",
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.log.Sync()
			if err := storage.Migrate(e.db); err != nil {
				return fmt.Errorf("migrating: %w", err)
			}
			e.log.Info("Database schema is up to date")
			return nil
		},
	}
}

// SeedCommand füllt leere Tabellen mit Beispieldaten.
func SeedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert sample studies, papers and data domains into empty tables",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "topics-only",
				Usage: "Only seed the default import topics",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.log.Sync()
			seeder := services.NewSeeder(e.db, e.log)
			if c.Bool("topics-only") {
				return seeder.SeedImportTopics(ctx)
			}
			if err := seeder.SeedAll(ctx); err != nil {
				return err
			}
			return seeder.SeedImportTopics(ctx)
		},
	}
}

// ImportCommand führt den Paper-Import einmal aus, für alle gespeicherten Topics oder eine Ad-hoc-Abfrage.
func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import papers from PubMed and Europe PMC",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "query",
				Usage: "Import a single query instead of all stored topics",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of papers per source (defaults to PAPER_IMPORT_MAX_RESULTS)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.log.Sync()

			limit := e.cfg.PaperImportMaxPerRun
			if c.Int("limit") > 0 {
				limit = c.Int("limit")
			}
			importer := services.NewImporter(e.db, e.log, limit, sources.FromConfig(e.cfg, e.log)...)

			var n int
			if q := strings.TrimSpace(c.String("query")); q != "" {
				n, err = importer.RunTopic(ctx, models.ImportTopic{Name: "adhoc", Query: q})
			} else {
				n, err = importer.RunAllTopics(ctx)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d new papers\n", n)
			return nil
		},
	}
}

// TokenCommand gibt den API-Token eines Users aus und erzeugt bei Bedarf einen.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Print (and create if missing) the API token of a user",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "email",
				Usage: "Email address of the user",
			},
			&cli.IntFlag{
				Name:  "id",
				Usage: "ID of the user",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.log.Sync()

			userID, err := resolveUserID(ctx, e.db, c.String("email"), c.Int("id"))
			if err != nil {
				return err
			}
			auth := services.NewAuthService(services.OAuthSettings{}, e.db, e.log)
			token, err := auth.EnsureAPIToken(ctx, userID)
			if err != nil {
				return fmt.Errorf("ensuring token for user %d: %w", userID, err)
			}
			fmt.Println(token)
			return nil
		},
	}
}

func resolveUserID(ctx context.Context, db *gorm.DB, email string, id int) (uint, error) {
	switch {
	case id > 0:
		return uint(id), nil
	case strings.TrimSpace(email) != "":
		var user models.User
		err := db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("no user with email %s", email)
		}
		if err != nil {
			return 0, errors.Wrap(err, "looking up user")
		}
		return user.ID, nil
	default:
		return 0, errors.New("either --email or --id is required")
	}
}
