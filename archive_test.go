package histore

import "testing"

func openTestArchive(t *testing.T, keyColumns []string) *Archive {
	t.Helper()
	a, err := Open(t.TempDir(), Options{Backend: BackendMemory, KeyColumns: keyColumns})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func mustCommit(t *testing.T, a *Archive, doc Document, desc string) int {
	t.Helper()
	v, err := a.Commit(doc, desc)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return v
}

func TestCommitCreatesNewRows(t *testing.T) {
	a := openTestArchive(t, []string{"id"})
	doc := NewMemDocument([]string{"id", "name"}, [][]Scalar{
		{Int(1), Text("alice")},
		{Int(2), Text("bob")},
	})
	v := mustCommit(t, a, doc, "initial")
	if v != 0 {
		t.Fatalf("version = %d, want 0", v)
	}
	table, err := a.Checkout(0)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
}

func TestCommitExtendsUnchangedRow(t *testing.T) {
	a := openTestArchive(t, []string{"id"})
	doc1 := NewMemDocument([]string{"id", "name"}, [][]Scalar{{Int(1), Text("alice")}})
	mustCommit(t, a, doc1, "v0")

	doc2 := NewMemDocument([]string{"id", "name"}, [][]Scalar{{Int(1), Text("alice")}})
	mustCommit(t, a, doc2, "v1")

	hist, ok := a.RowHistoryAt(0)
	if !ok {
		t.Fatalf("row 0 not found")
	}
	if !hist.Lifetime.IsEqual(NewTimestamp(TimeInterval{0, 1})) {
		t.Fatalf("lifetime = %s, want 0-1", hist.Lifetime)
	}
}

func TestCommitTerminatesDroppedRow(t *testing.T) {
	a := openTestArchive(t, []string{"id"})
	doc1 := NewMemDocument([]string{"id"}, [][]Scalar{{Int(1)}, {Int(2)}})
	mustCommit(t, a, doc1, "v0")

	doc2 := NewMemDocument([]string{"id"}, [][]Scalar{{Int(2)}})
	mustCommit(t, a, doc2, "v1")

	table, err := a.Checkout(1)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("rows at v1 = %d, want 1", len(table.Rows))
	}

	hist, ok := a.RowHistoryAt(0)
	if !ok {
		t.Fatalf("row 0 (dropped) should still be in history")
	}
	if !hist.Lifetime.IsEqual(TimestampOf(0)) {
		t.Fatalf("dropped row lifetime = %s, want just version 0", hist.Lifetime)
	}
}

func TestCommitRejectsDuplicateKey(t *testing.T) {
	a := openTestArchive(t, []string{"id"})
	doc := NewMemDocument([]string{"id"}, [][]Scalar{{Int(1)}, {Int(1)}})
	if _, err := a.Commit(doc, "dup"); err == nil {
		t.Fatalf("Commit with duplicate key: want error, got nil")
	}
}

func TestCommitUnkeyedTracksByRowIndex(t *testing.T) {
	a := openTestArchive(t, nil)
	doc1 := NewMemDocument([]string{"v"}, [][]Scalar{{Text("a")}, {Text("b")}})
	mustCommit(t, a, doc1, "v0")

	doc2 := NewMemDocument([]string{"v"}, [][]Scalar{{Text("a")}, {Text("b")}, {Text("c")}})
	mustCommit(t, a, doc2, "v1")

	table, err := a.Checkout(1)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(table.Rows))
	}
}

func TestRollbackOnArchive(t *testing.T) {
	a := openTestArchive(t, []string{"id"})
	mustCommit(t, a, NewMemDocument([]string{"id"}, [][]Scalar{{Int(1)}}), "v0")
	mustCommit(t, a, NewMemDocument([]string{"id"}, [][]Scalar{{Int(1)}, {Int(2)}}), "v1")

	if err := a.Rollback(0); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if a.Version() != 0 {
		t.Fatalf("Version after rollback = %d, want 0", a.Version())
	}
	table, err := a.Checkout(0)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("rows after rollback = %d, want 1", len(table.Rows))
	}
}
