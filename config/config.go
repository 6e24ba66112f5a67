package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	// DATABASE_URL hat Vorrang vor den einzelnen DB_*-Variablen.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      int    `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"biomed"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns  int    `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`

	AutoMigrate    bool `envconfig:"AUTO_MIGRATE" default:"true"`
	SeedSampleData bool `envconfig:"SEED_SAMPLE_DATA" default:"false"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"8001"`
	BaseURL  string `envconfig:"BASE_URL" default:"http://localhost:8001"`

	OAuthIssuer       string   `envconfig:"OAUTH_ISSUER" default:"https://accounts.google.com"`
	OAuthClientID     string   `envconfig:"OAUTH_CLIENT_ID"`
	OAuthClientSecret string   `envconfig:"OAUTH_CLIENT_SECRET"`
	OAuthScopes       []string `envconfig:"OAUTH_SCOPES" default:"openid,email,profile"`

	SessionTTL          time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	SessionCookieSecure bool          `envconfig:"SESSION_COOKIE_SECURE" default:"false"`

	// Ohne REDIS_ADDR laufen Sessions und Filter-Cache im Speicher.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	FilterCacheTTL time.Duration `envconfig:"FILTER_CACHE_TTL" default:"10m"`

	RateLimitRPS   float64  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst int      `envconfig:"RATE_LIMIT_BURST" default:"40"`
	CORSOrigins    []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Export von Collections nach S3. Ohne Bucket ist der Export deaktiviert.
	ExportS3URL    string `envconfig:"EXPORT_S3_URL"`
	ExportS3Key    string `envconfig:"EXPORT_S3_KEY"`
	ExportS3Secret string `envconfig:"EXPORT_S3_SECRET"`
	ExportS3Region string `envconfig:"EXPORT_S3_REGION" default:"us-east-1"`
	ExportS3Bucket string `envconfig:"EXPORT_S3_BUCKET"`

	HistoryRetentionDays int    `envconfig:"HISTORY_RETENTION_DAYS" default:"90"`
	HistoryPruneSchedule string `envconfig:"HISTORY_PRUNE_SCHEDULE" default:"0 3 * * *"`

	// Paper-Import; leerer Schedule deaktiviert den Cron-Job.
	PaperImportSchedule  string   `envconfig:"PAPER_IMPORT_SCHEDULE"`
	PaperImportProviders []string `envconfig:"PAPER_IMPORT_PROVIDERS" default:"europepmc,pubmed"`
	PaperImportMaxPerRun int      `envconfig:"PAPER_IMPORT_MAX_RESULTS" default:"25"`

	PubMedBaseURL    string `envconfig:"PUBMED_BASE_URL" default:"https://eutils.ncbi.nlm.nih.gov/entrez/eutils"`
	PubMedAPIKey     string `envconfig:"PUBMED_API_KEY"`
	PubMedEmail      string `envconfig:"PUBMED_EMAIL"`
	PubMedTool       string `envconfig:"PUBMED_TOOL" default:"biomed-search"`
	EuropePMCBaseURL string `envconfig:"EUROPEPMC_BASE_URL" default:"https://www.ebi.ac.uk/europepmc/webservices/rest/search"`

	TraceEndpoint string `envconfig:"TRACE_ENDPOINT"`
	MetricsAPIKey string `envconfig:"METRICS_API_KEY"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// OAuthEnabled meldet, ob Client-Credentials gesetzt sind.
func (c *Config) OAuthEnabled() bool {
	return c.OAuthClientID != "" && c.OAuthClientSecret != ""
}

// ExportEnabled meldet, ob ein Export-Bucket konfiguriert ist.
func (c *Config) ExportEnabled() bool {
	return c.ExportS3Bucket != "" && c.ExportS3URL != ""
}

// RedirectURL ist die Callback-URL, die beim OAuth-Provider registriert sein muss.
func (c *Config) RedirectURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/auth/callback"
}

// Validate prüft Werte, die envconfig nicht selbst prüfen kann.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" && c.DBName == "" {
		return errors.New("either DATABASE_URL or DB_NAME must be set")
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid BASE_URL %q: %w", c.BaseURL, err)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.HistoryRetentionDays < 0 {
		return errors.New("HISTORY_RETENTION_DAYS must not be negative")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
