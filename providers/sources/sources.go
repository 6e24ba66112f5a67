// Package sources baut die externen Paper-Quellen aus der Konfiguration.
package sources

import (
	"go.uber.org/zap"

	"biomed-search/config"
	"biomed-search/providers"
	"biomed-search/providers/europepmc"
	"biomed-search/providers/pubmed"
)

// FromConfig erstellt die in PAPER_IMPORT_PROVIDERS aktivierten Quellen. Unbekannte Namen werden geloggt und übersprungen.
func FromConfig(cfg *config.Config, logger *zap.Logger) []providers.PaperSource {
	var out []providers.PaperSource
	for _, name := range cfg.PaperImportProviders {
		switch name {
		case pubmed.SourceName:
			out = append(out, pubmed.NewFetcher(cfg, logger))
		case europepmc.SourceName:
			out = append(out, europepmc.NewFetcher(cfg, logger))
		default:
			logger.Warn("Unknown provider in config", zap.String("provider_name", name))
		}
	}
	return out
}
