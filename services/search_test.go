package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"biomed-search/cache"
	"biomed-search/providers"
)

type fakeProvider struct {
	name        string
	results     []providers.Result
	total       int64
	err         error
	filters     map[string]interface{}
	filterCalls int
	lastQuery   providers.Query
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(_ context.Context, q providers.Query) ([]providers.Result, int64, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.results, f.total, nil
}

func (f *fakeProvider) AvailableFilters(context.Context) (map[string]interface{}, error) {
	f.filterCalls++
	return f.filters, nil
}

func newFakeProviders() map[string]*fakeProvider {
	out := map[string]*fakeProvider{}
	for _, name := range CollectionTypes {
		out[name] = &fakeProvider{
			name:    name,
			results: []providers.Result{{ID: 1, Type: name, Title: name + " one"}},
			total:   31,
		}
	}
	return out
}

func newTestSearchService(fakes map[string]*fakeProvider) *SearchService {
	var ps []providers.Provider
	for _, f := range fakes {
		ps = append(ps, f)
	}
	return NewSearchService(cache.NewMemoryStore(time.Minute, time.Minute), time.Minute, zap.NewNop(), ps...)
}

func TestParseQuery(t *testing.T) {
	assert.Equal(t, []string{"lung cancer", "melanoma"}, ParseQuery(" lung cancer OR melanoma "))
	assert.Equal(t, []string{"a or b"}, ParseQuery("a or b"))
	assert.Nil(t, ParseQuery("  "))
	assert.Equal(t, []string{"x"}, ParseQuery("OR x OR "))
}

func TestSearchDefaultsAndPagination(t *testing.T) {
	fakes := newFakeProviders()
	svc := newTestSearchService(fakes)

	for _, collection := range CollectionTypes {
		t.Run(collection, func(t *testing.T) {
			resp, err := svc.Search(context.Background(), SearchRequest{
				CollectionType: collection,
				Terms:          []string{"  Tumor "},
				Page:           3,
				PerPage:        5,
			})
			require.NoError(t, err)

			assert.Equal(t, int64(31), resp.Total)
			assert.Equal(t, 3, resp.Payload["page"])
			assert.Equal(t, 5, resp.Payload["per_page"])
			assert.Equal(t, int64(7), resp.Payload["total_pages"])
			assert.Len(t, resp.Payload["results"], 1)

			q := fakes[collection].lastQuery
			assert.Equal(t, []string{"Tumor"}, q.Terms)
			assert.Equal(t, 10, q.Offset())
		})
	}
}

func TestSearchAppliesDefaults(t *testing.T) {
	fakes := newFakeProviders()
	svc := newTestSearchService(fakes)

	resp, err := svc.Search(context.Background(), SearchRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Payload["page"])
	assert.Equal(t, DefaultPerPage, resp.Payload["per_page"])
	assert.Equal(t, DefaultPerPage, fakes[DefaultCollectionType].lastQuery.PerPage)
}

func TestSearchValidation(t *testing.T) {
	svc := newTestSearchService(newFakeProviders())

	tests := []struct {
		name    string
		req     SearchRequest
		message string
	}{
		{
			name:    "unknown collection",
			req:     SearchRequest{CollectionType: "patients"},
			message: "Collection type must be one of: clinical_study, scientific_paper, data_domain",
		},
		{
			name:    "unknown schema",
			req:     SearchRequest{SchemaType: "xml"},
			message: "Schema type must be one of: clinical_study_custom, compact, data_domain, default, detailed, scientific_paper",
		},
		{name: "negative page", req: SearchRequest{Page: -1}, message: "Page must be at least 1"},
		{name: "per page too large", req: SearchRequest{PerPage: 101}, message: "Per page must be between 1 and 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(context.Background(), tt.req)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestSearchRestrictedContentFilter(t *testing.T) {
	fakes := newFakeProviders()
	svc := newTestSearchService(fakes)
	filters := map[string]interface{}{"status": "Active", "restricted_content": true}

	_, err := svc.Search(context.Background(), SearchRequest{CollectionType: "clinical_study", Filters: filters})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"status": "Active"}, fakes["clinical_study"].lastQuery.Filters)
	assert.Contains(t, filters, "restricted_content", "caller's filters must not be modified")

	_, err = svc.Search(context.Background(), SearchRequest{
		CollectionType: "clinical_study",
		Filters:        filters,
		User:           UserContext{UserID: 1, IsAdmin: true},
	})
	require.NoError(t, err)
	assert.Contains(t, fakes["clinical_study"].lastQuery.Filters, "restricted_content")
}

func TestSearchProviderErrors(t *testing.T) {
	fakes := newFakeProviders()
	svc := newTestSearchService(fakes)

	fakes["scientific_paper"].err = &providers.InvalidFilterError{Filter: "citations", Value: "x"}
	_, err := svc.Search(context.Background(), SearchRequest{})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "citations", verr.Field)

	dbErr := errors.New("connection refused")
	fakes["scientific_paper"].err = dbErr
	_, err = svc.Search(context.Background(), SearchRequest{})
	assert.ErrorIs(t, err, dbErr)
	assert.False(t, errors.As(err, &verr))
}

func TestSuggest(t *testing.T) {
	fakes := newFakeProviders()
	svc := newTestSearchService(fakes)

	got, err := svc.Suggest(context.Background(), "diab", "clinical_study", UserContext{})
	require.NoError(t, err)
	assert.Equal(t, []Suggestion{{Text: "clinical_study one", Type: "clinical_study"}}, got)
	assert.Equal(t, SuggestLimit, fakes["clinical_study"].lastQuery.PerPage)

	_, err = svc.Suggest(context.Background(), "d", "clinical_study", UserContext{})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestSuggestKeepsQueryAsSingleTerm(t *testing.T) {
	fakes := newFakeProviders()
	svc := newTestSearchService(fakes)

	_, err := svc.Suggest(context.Background(), "lung OR liver", "scientific_paper", UserContext{})
	require.NoError(t, err)
	assert.Equal(t, []string{"lung OR liver"}, fakes["scientific_paper"].lastQuery.Terms)
}

func TestAvailableFiltersCached(t *testing.T) {
	fakes := newFakeProviders()
	fakes["data_domain"].filters = map[string]interface{}{"data_format": []interface{}{"CSV", "JSON"}}
	svc := newTestSearchService(fakes)

	for i := 0; i < 3; i++ {
		got, err := svc.AvailableFilters(context.Background(), "data_domain")
		require.NoError(t, err)
		assert.Equal(t, []interface{}{"CSV", "JSON"}, got["data_format"])
	}
	assert.Equal(t, 1, fakes["data_domain"].filterCalls)

	_, err := svc.AvailableFilters(context.Background(), "unknown")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}
