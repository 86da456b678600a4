package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/stencil/internal/model"
	"github.com/roach88/stencil/internal/testutil"
)

// createTestStore creates a new store in a temp directory with a fixed clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(testutil.NewFixedClock()))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSection creates a section with the given name.
func createTestSection(t *testing.T, s *Store, name string) *model.Section {
	t.Helper()
	sec, err := s.FindOrCreateSection(context.Background(), name)
	if err != nil {
		t.Fatalf("FindOrCreateSection(%q) failed: %v", name, err)
	}
	return sec
}

// createTestRecord inserts a record with the given content and position.
func createTestRecord(t *testing.T, s *Store, sectionID int64, position int, content map[string]any) *model.Record {
	t.Helper()
	rec := &model.Record{SectionID: sectionID, Position: position, Content: content}
	if err := s.CreateRecord(context.Background(), rec); err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	return rec
}
