package services

import (
	"errors"
	"fmt"
	"strings"

	"biomed-search/providers"
)

var (
	// ErrNotFound wird zurückgegeben, wenn ein Datensatz fehlt oder einem anderen User gehört.
	ErrNotFound = errors.New("not found")
	// ErrExportUnavailable wird zurückgegeben, wenn kein Export-Bucket konfiguriert ist.
	ErrExportUnavailable = errors.New("export storage is not configured")
	// ErrUnauthenticated wird zurückgegeben, wenn Zugangsdaten fehlen, unbekannt oder inaktiv sind.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError ist ein Client-Fehler. Message darf an den Aufrufer zurückgegeben werden.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func mustBeOneOf(field, label string, allowed []string) *ValidationError {
	return invalid(field, "%s must be one of: %s", label, strings.Join(allowed, ", "))
}

// asValidation macht aus Filterfehlern der Provider Validierungsfehler und reicht alle anderen durch.
func asValidation(err error) error {
	var filterErr *providers.InvalidFilterError
	if errors.As(err, &filterErr) {
		return invalid(filterErr.Filter, "%s", filterErr.Error())
	}
	return err
}
