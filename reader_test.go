package histore

import "testing"

func TestReaderListsAllRowsEverSeen(t *testing.T) {
	a := openTestArchive(t, []string{"id"})
	mustCommit(t, a, NewMemDocument([]string{"id"}, [][]Scalar{{Int(1)}, {Int(2)}}), "v0")
	mustCommit(t, a, NewMemDocument([]string{"id"}, [][]Scalar{{Int(2)}}), "v1")

	hist := a.Reader()
	if len(hist) != 2 {
		t.Fatalf("Reader() returned %d rows, want 2 (dropped row 1 should still appear)", len(hist))
	}
	if hist[0].ID != 0 || hist[1].ID != 1 {
		t.Fatalf("Reader() not ordered by RowID: %+v", hist)
	}
}

func TestRowHistoryAtTracksCellChanges(t *testing.T) {
	a := openTestArchive(t, []string{"id"})
	mustCommit(t, a, NewMemDocument([]string{"id", "v"}, [][]Scalar{{Int(1), Text("a")}}), "v0")
	mustCommit(t, a, NewMemDocument([]string{"id", "v"}, [][]Scalar{{Int(1), Text("b")}}), "v1")

	hist, ok := a.RowHistoryAt(0)
	if !ok {
		t.Fatalf("row 0 not found")
	}
	col := a.schema.ColumnNamedAt("v", 1)
	if col == nil {
		t.Fatalf("column v not found")
	}
	diff := hist.Cells[col.ID].Diff(0, 1)
	if diff == nil {
		t.Fatalf("want a cell diff between v0 and v1")
	}
	if diff.Old.Text() != "a" || diff.New.Text() != "b" {
		t.Fatalf("diff = %+v, want a -> b", diff)
	}
}

func TestRowHistoryAtUnknownRow(t *testing.T) {
	a := openTestArchive(t, []string{"id"})
	if _, ok := a.RowHistoryAt(999); ok {
		t.Fatalf("want ok=false for unknown row id")
	}
}
