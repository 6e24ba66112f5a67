package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"biomed-search/config"
)

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{PaperImportProviders: []string{"europepmc", "crossref", "pubmed"}}

	got := FromConfig(cfg, zap.NewNop())

	names := make([]string, 0, len(got))
	for _, s := range got {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"europepmc", "pubmed"}, names)
}

func TestFromConfigEmpty(t *testing.T) {
	assert.Empty(t, FromConfig(&config.Config{}, zap.NewNop()))
}
