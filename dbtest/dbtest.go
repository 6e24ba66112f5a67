// Package dbtest stellt gorm-Verbindungen im DryRun-Modus bereit, um erzeugtes SQL zu prüfen.
package dbtest

import (
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DryRunDB öffnet eine PostgreSQL-Session, die SQL nur erzeugt und nie ausführt.
// Transaktionen sind nicht möglich, da keine Verbindung aufgebaut wird.
func DryRunDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

// Recorder sammelt das SQL aller Statements einer DryRun-Verbindung.
type Recorder struct {
	mu    sync.Mutex
	stmts []string
}

// Record registriert Callbacks, die jedes erzeugte Statement mitschreiben.
func Record(t testing.TB, db *gorm.DB) *Recorder {
	t.Helper()
	r := &Recorder{}
	capture := func(tx *gorm.DB) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.stmts = append(r.stmts, tx.Statement.SQL.String())
	}
	cb := db.Callback()
	for _, err := range []error{
		cb.Query().After("gorm:query").Register("dbtest:query", capture),
		cb.Create().After("gorm:create").Register("dbtest:create", capture),
		cb.Update().After("gorm:update").Register("dbtest:update", capture),
		cb.Delete().After("gorm:delete").Register("dbtest:delete", capture),
	} {
		if err != nil {
			t.Fatalf("register callback: %v", err)
		}
	}
	return r
}

// Statements gibt eine Kopie der bisher erzeugten Statements zurück.
func (r *Recorder) Statements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.stmts...)
}

// Last gibt das zuletzt erzeugte Statement zurück.
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stmts) == 0 {
		return ""
	}
	return r.stmts[len(r.stmts)-1]
}
