package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"biomed-search/models"
)

func TestFormatReference(t *testing.T) {
	tests := []struct {
		name string
		ref  Reference
		want string
	}{
		{
			name: "full",
			ref:  Reference{Authors: []string{"Smith J", "Doe A"}, Year: 2021, Title: "Aspirin and stroke.", Journal: "The Lancet", DOI: "10.1/x", PMID: "123"},
			want: "Smith J, Doe A (2021). Aspirin and stroke. The Lancet. doi:10.1/x pmid:123",
		},
		{
			name: "no journal no ids",
			ref:  Reference{Authors: []string{"Lee K"}, Title: "Notes"},
			want: "Lee K (n.d.). Notes.",
		},
		{
			name: "empty",
			ref:  Reference{},
			want: "Unknown Authors (n.d.). Untitled.",
		},
		{
			name: "et al",
			ref:  Reference{Authors: []string{"A", "B", "C", "D", "E", "F", "G"}, Year: 2020, Title: "Big team"},
			want: "A, B, C, D, E, F, et al. (2020). Big team.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatReference(tt.ref))
		})
	}
}

func TestReferenceFromPaper(t *testing.T) {
	published := time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC)
	doi := "10.1000/j.cell.2019"
	ref := ReferenceFromPaper(&models.ScientificPaper{
		Title:           "Single-cell atlas",
		Authors:         []string{"Regev A"},
		Journal:         "Cell",
		DOI:             &doi,
		PublicationDate: &published,
	})
	assert.Equal(t, 2019, ref.Year)
	assert.Equal(t, "Regev A (2019). Single-cell atlas. Cell. doi:10.1000/j.cell.2019", FormatReference(ref))
}
