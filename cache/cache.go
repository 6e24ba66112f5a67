// Package cache stellt den Key/Value-Store für Sessions und gecachte Filteroptionen bereit.
// Werte werden als JSON abgelegt, damit sich Memory- und Redis-Store gleich verhalten.
package cache

import (
	"context"
	"time"
)

// Store ist ein JSON-Key/Value-Store mit Ablaufzeit pro Schlüssel.
type Store interface {
	// GetJSON dekodiert den Wert unter key nach dest. Fehlt der Schlüssel, kommt false zurück.
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
