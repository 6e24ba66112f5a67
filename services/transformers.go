package services

import (
	"sort"

	"biomed-search/providers"
)

// ResultSet ist das Ergebnis eines Providers für eine Seite samt angefragter Paginierung.
type ResultSet struct {
	Results []providers.Result
	Total   int64
	Page    int
	PerPage int
}

// Transformer formt ein ResultSet in eine JSON-Antwort um.
type Transformer interface {
	Transform(rs ResultSet) map[string]interface{}
}

// TransformerFunc macht aus einer einfachen Funktion einen Transformer.
type TransformerFunc func(rs ResultSet) map[string]interface{}

func (f TransformerFunc) Transform(rs ResultSet) map[string]interface{} {
	return f(rs)
}

// registry ordnet schema_type-Namen Transformern zu. Nach init wird sie nicht mehr verändert.
var registry = map[string]Transformer{
	"default":               TransformerFunc(defaultSchema),
	"compact":               TransformerFunc(compactSchema),
	"detailed":              TransformerFunc(detailedSchema),
	"clinical_study_custom": TransformerFunc(clinicalStudyCustomSchema),
	"scientific_paper":      TransformerFunc(scientificPaperSchema),
	"data_domain":           TransformerFunc(dataDomainSchema),
}

// LookupTransformer liefert den unter name registrierten Transformer.
func LookupTransformer(name string) (Transformer, bool) {
	t, ok := registry[name]
	return t, ok
}

// TransformerNames listet die registrierten Schema-Typen sortiert auf.
func TransformerNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func totalPages(total int64, perPage int) int64 {
	if perPage <= 0 {
		return 0
	}
	return (total + int64(perPage) - 1) / int64(perPage)
}

func dataOf(r providers.Result) map[string]interface{} {
	if r.Data == nil {
		return map[string]interface{}{}
	}
	return r.Data
}

func valueOr(data map[string]interface{}, key string, fallback interface{}) interface{} {
	if v, ok := data[key]; ok && v != nil {
		return v
	}
	return fallback
}

func defaultSchema(rs ResultSet) map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(rs.Results))
	for _, r := range rs.Results {
		results = append(results, map[string]interface{}{
			"id":          r.ID,
			"type":        r.Type,
			"title":       r.Title,
			"description": r.Description,
			"data":        dataOf(r),
		})
	}
	return map[string]interface{}{
		"results":     results,
		"total":       rs.Total,
		"page":        rs.Page,
		"per_page":    rs.PerPage,
		"total_pages": totalPages(rs.Total, rs.PerPage),
	}
}

func compactSchema(rs ResultSet) map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(rs.Results))
	for _, r := range rs.Results {
		results = append(results, map[string]interface{}{
			"id":    r.ID,
			"title": r.Title,
			"type":  r.Type,
		})
	}
	return map[string]interface{}{"results": results}
}

// detailedSchema hebt jeden Data-Schlüssel auf die oberste Ebene. Ein Data-Schlüssel mit dem
// Namen eines Basisfelds ersetzt dieses.
func detailedSchema(rs ResultSet) map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(rs.Results))
	for _, r := range rs.Results {
		item := make(map[string]interface{}, len(r.Data)+4)
		item["id"] = r.ID
		item["type"] = r.Type
		item["title"] = r.Title
		item["description"] = r.Description
		for k, v := range r.Data {
			item[k] = v
		}
		results = append(results, item)
	}
	return map[string]interface{}{
		"results":      results,
		"result_count": len(results),
	}
}

var studyDetailKeys = []string{
	"status", "phase", "drug", "institution", "participant_count", "start_date", "end_date",
	"indication_category", "procedure_category", "severity", "risk_level", "duration",
}

func clinicalStudyCustomSchema(rs ResultSet) map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(rs.Results))
	for _, r := range rs.Results {
		data := dataOf(r)
		details := make(map[string]interface{}, len(studyDetailKeys))
		for _, k := range studyDetailKeys {
			details[k] = data[k]
		}
		products := r.DataProducts
		if products == nil {
			products = []providers.DataProductSummary{}
		}
		results = append(results, map[string]interface{}{
			"id":              r.ID,
			"title":           r.Title,
			"description":     r.Description,
			"relevance_score": r.RelevanceScore,
			"study_details":   details,
			"data_products":   products,
		})
	}
	return map[string]interface{}{
		"pagination": map[string]interface{}{
			"total":    rs.Total,
			"page":     rs.Page,
			"per_page": rs.PerPage,
		},
		"results": results,
	}
}

func scientificPaperSchema(rs ResultSet) map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(rs.Results))
	for _, r := range rs.Results {
		data := dataOf(r)
		results = append(results, map[string]interface{}{
			"id":          r.ID,
			"type":        r.Type,
			"title":       r.Title,
			"description": r.Description,
			"data": map[string]interface{}{
				"authors":          valueOr(data, "authors", []string{}),
				"publication_date": data["publication_date"],
				"journal":          data["journal"],
				"doi":              data["doi"],
				"keywords":         valueOr(data, "keywords", []string{}),
				"citations_count":  valueOr(data, "citations_count", 0),
				"references":       valueOr(data, "references", []string{}),
			},
		})
	}
	return map[string]interface{}{
		"results":      results,
		"result_count": len(results),
	}
}

func dataDomainSchema(rs ResultSet) map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(rs.Results))
	for _, r := range rs.Results {
		data := dataOf(r)
		results = append(results, map[string]interface{}{
			"id":          r.ID,
			"domain_name": r.Title,
			"description": r.Description,
			"schema": map[string]interface{}{
				"format":           data["data_format"],
				"definition":       data["schema_definition"],
				"validation_rules": data["validation_rules"],
			},
			"examples": map[string]interface{}{
				"sample_data": data["sample_data"],
			},
			"ownership": map[string]interface{}{
				"owner":      data["owner"],
				"created_at": data["created_at"],
				"updated_at": data["updated_at"],
			},
		})
	}
	return map[string]interface{}{"results": results}
}
