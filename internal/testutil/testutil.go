// Package testutil provides shared test helpers for setting up stores and
// engines.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/dagaz/internal/dateparse"
	"github.com/starford/dagaz/internal/engine"
	"github.com/starford/dagaz/internal/intent"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/store"
	"github.com/starford/dagaz/internal/validate"
)

// TestStore creates a store backed by a temporary schedule file that is
// automatically cleaned up.
func TestStore(t *testing.T) *store.Store {
	t.Helper()
	f, err := storage.NewFile(filepath.Join(t.TempDir(), "schedules.json"))
	if err != nil {
		t.Fatal(err)
	}
	s, err := store.Open(f)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// TestEngine creates an engine with default resolver and validator
// settings over a temporary store.
func TestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	return engine.New(TestStore(t),
		&intent.Resolver{Dates: &dateparse.Normalizer{}, DefaultDuration: time.Hour},
		&validate.Validator{MaxDuration: 8 * time.Hour},
		engine.PolicyWarn, nil)
}
