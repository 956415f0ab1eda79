package histore

import (
	"path/filepath"
	"testing"
)

func testKVBackends(t *testing.T) map[string]kv {
	t.Helper()
	boltBackend, err := openBoltKV(filepath.Join(t.TempDir(), "archive.bolt"))
	if err != nil {
		t.Fatalf("openBoltKV: %v", err)
	}
	sqliteBackend, err := openSQLiteKV(filepath.Join(t.TempDir(), "archive.sqlite"))
	if err != nil {
		t.Fatalf("openSQLiteKV: %v", err)
	}
	return map[string]kv{
		"mem":    newMemKV(),
		"bolt":   boltBackend,
		"sqlite": sqliteBackend,
	}
}

func TestKVStoreRoundTripAcrossBackends(t *testing.T) {
	for name, backend := range testKVBackends(t) {
		t.Run(name, func(t *testing.T) {
			s := newKVStore(backend)
			defer s.close()

			if err := s.stageCommit(sampleState()); err != nil {
				t.Fatalf("stageCommit: %v", err)
			}
			state, err := s.load()
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if state.NextVersion != 1 || state.NextRowID != 1 {
				t.Fatalf("state = %+v", state)
			}
			if len(state.Rows) != 1 || state.Rows[0].CellAt(0, 0).Int() != 1 {
				t.Fatalf("rows = %+v", state.Rows)
			}
		})
	}
}

func TestKVStoreStageCommitReplacesPriorRows(t *testing.T) {
	for name, backend := range testKVBackends(t) {
		t.Run(name, func(t *testing.T) {
			s := newKVStore(backend)
			defer s.close()

			if err := s.stageCommit(sampleState()); err != nil {
				t.Fatalf("first stageCommit: %v", err)
			}

			schema := NewSchema(MatchByName)
			schema.addColumn(NewArchiveColumn(0, "id", 0, 0))
			row1 := NewArchiveRow(1, Key{Int(2)}, 0, map[ColumnID]Scalar{0: Int(2)}, 1)
			second := &archiveState{
				Rows:        map[RowID]*ArchiveRow{1: row1},
				RowOrder:    []RowID{1},
				Schema:      schema,
				Snapshots:   SnapshotListing{{Version: 1, Description: "next", Action: ActionCommit}},
				NextVersion: 2,
				NextRowID:   2,
				NextColID:   1,
			}
			if err := s.stageCommit(second); err != nil {
				t.Fatalf("second stageCommit: %v", err)
			}

			state, err := s.load()
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(state.Rows) != 1 {
				t.Fatalf("rows after replace = %d, want 1 (stale row from first commit must be gone)", len(state.Rows))
			}
			if _, ok := state.Rows[1]; !ok {
				t.Fatalf("expected row 1 to survive the replace")
			}
		})
	}
}
