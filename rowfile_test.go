package histore

import (
	"os"
	"path/filepath"
	"testing"
)

func sampleState() *archiveState {
	schema := NewSchema(MatchByName)
	schema.addColumn(NewArchiveColumn(0, "id", 0, 0))
	row := NewArchiveRow(0, Key{Int(1)}, 0, map[ColumnID]Scalar{0: Int(1)}, 0)
	return &archiveState{
		Rows:        map[RowID]*ArchiveRow{0: row},
		RowOrder:    []RowID{0},
		Schema:      schema,
		Snapshots:   SnapshotListing{{Version: 0, Description: "init", Action: ActionCommit}},
		NextVersion: 1,
		NextRowID:   1,
		NextColID:   1,
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := openFileStore(dir)
	if err != nil {
		t.Fatalf("openFileStore: %v", err)
	}
	defer s.close()

	if err := s.stageCommit(sampleState()); err != nil {
		t.Fatalf("stageCommit: %v", err)
	}

	s2, err := openFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.close()
	state, err := s2.load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.NextVersion != 1 || state.NextRowID != 1 {
		t.Fatalf("state = %+v", state)
	}
	if len(state.Rows) != 1 || state.Rows[0].CellAt(0, 0).Int() != 1 {
		t.Fatalf("rows = %+v", state.Rows)
	}
}

func TestFileStoreLoadEmptyArchive(t *testing.T) {
	dir := t.TempDir()
	s, err := openFileStore(dir)
	if err != nil {
		t.Fatalf("openFileStore: %v", err)
	}
	defer s.close()
	state, err := s.load()
	if err != nil {
		t.Fatalf("load fresh archive: %v", err)
	}
	if state.NextVersion != 0 || len(state.Rows) != 0 {
		t.Fatalf("state = %+v, want empty", state)
	}
}

func TestFileStoreDetectsChecksumCorruption(t *testing.T) {
	dir := t.TempDir()
	s, err := openFileStore(dir)
	if err != nil {
		t.Fatalf("openFileStore: %v", err)
	}
	if err := s.stageCommit(sampleState()); err != nil {
		t.Fatalf("stageCommit: %v", err)
	}
	s.close()

	path := filepath.Join(dir, "rows.dat")
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		t.Fatalf("read rows.dat before corruption: %v", err)
	}
	corrupted := append([]byte(nil), data...)
	corrupted[0] ^= 0xFF
	if err := os.WriteFile(path, corrupted, 0o644); err != nil {
		t.Fatalf("write corrupted rows.dat: %v", err)
	}

	s2, err := openFileStore(dir)
	if err != nil {
		t.Fatalf("openFileStore: %v", err)
	}
	if _, err := s2.load(); err == nil {
		t.Fatalf("want error loading corrupted rows.dat")
	}
}

func TestFileStoreSizeReflectsWrittenBytes(t *testing.T) {
	dir := t.TempDir()
	s, err := openFileStore(dir)
	if err != nil {
		t.Fatalf("openFileStore: %v", err)
	}
	defer s.close()
	if s.size() != 0 {
		t.Fatalf("size before commit = %d, want 0", s.size())
	}
	if err := s.stageCommit(sampleState()); err != nil {
		t.Fatalf("stageCommit: %v", err)
	}
	if s.size() == 0 {
		t.Fatalf("size after commit = 0, want > 0")
	}
}
