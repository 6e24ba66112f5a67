package providers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// InvalidFilterError wird zurückgegeben, wenn ein bekannter Filter einen ungültigen Wert hat.
type InvalidFilterError struct {
	Filter  string
	Value   string
	Allowed []string
}

func (e *InvalidFilterError) Error() string {
	if len(e.Allowed) > 0 {
		return fmt.Sprintf("invalid value %q for filter %s, must be one of: %s", e.Value, e.Filter, strings.Join(e.Allowed, ", "))
	}
	return fmt.Sprintf("invalid value %q for filter %s", e.Value, e.Filter)
}

// NormalizeTerms bringt Suchbegriffe in NFKC-Form, fasst Leerzeichen zusammen und entfernt leere Begriffe.
// Groß/Kleinschreibung bleibt erhalten, ILIKE vergleicht ohnehin ohne sie.
func NormalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(norm.NFKC.String(t))
		if t != "" {
			out = append(out, strings.Join(strings.Fields(t), " "))
		}
	}
	return out
}

// StringValues interpretiert einen Filterwert als Liste von Strings. Akzeptiert String, Zahl oder Liste davon.
func StringValues(v interface{}) ([]string, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, false
		}
		return []string{val}, true
	case []string:
		out := nonEmpty(val)
		return out, len(out) > 0
	case []interface{}:
		var out []string
		for _, item := range val {
			vals, ok := StringValues(item)
			if ok {
				out = append(out, vals...)
			}
		}
		return out, len(out) > 0
	case float64:
		return []string{strconv.FormatFloat(val, 'f', -1, 64)}, true
	case int:
		return []string{strconv.Itoa(val)}, true
	case bool:
		return []string{strconv.FormatBool(val)}, true
	default:
		return nil, false
	}
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// MatchTerms hängt eine ODER-Bedingung über alle Begriffe und Spalten an. Ohne Begriffe bleibt die Abfrage unverändert.
// Die Spaltennamen sind Konstanten der Provider, nie Benutzereingaben.
func MatchTerms(tx *gorm.DB, terms []string, columns ...string) *gorm.DB {
	if len(terms) == 0 || len(columns) == 0 {
		return tx
	}
	parts := make([]string, 0, len(terms)*len(columns))
	args := make([]interface{}, 0, len(terms)*len(columns))
	for _, term := range terms {
		pattern := "%" + likeEscaper.Replace(term) + "%"
		for _, col := range columns {
			parts = append(parts, col+" ILIKE ?")
			args = append(args, pattern)
		}
	}
	return tx.Where("("+strings.Join(parts, " OR ")+")", args...)
}

// MatchValues filtert eine Spalte auf einen Wert (=) oder mehrere Werte (IN).
func MatchValues(tx *gorm.DB, column string, value interface{}) *gorm.DB {
	vals, ok := StringValues(value)
	if !ok {
		return tx
	}
	if len(vals) == 1 {
		return tx.Where(column+" = ?", vals[0])
	}
	return tx.Where(column+" IN ?", vals)
}

// DateValue formatiert ein optionales Datum als ISO-Datum (JSON null, wenn nicht gesetzt).
func DateValue(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.Format("2006-01-02")
}

// TimestampValue formatiert einen Zeitstempel als RFC 3339.
func TimestampValue(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
