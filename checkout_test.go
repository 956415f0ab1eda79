package histore

import "testing"

func TestCheckoutOrdersRowsByPosition(t *testing.T) {
	a := openTestArchive(t, []string{"id"})
	mustCommit(t, a, NewMemDocument([]string{"id", "name"}, [][]Scalar{
		{Int(3), Text("c")},
		{Int(1), Text("a")},
		{Int(2), Text("b")},
	}), "v0")

	table, err := a.Checkout(0)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if len(table.Columns) != 2 || table.Columns[0] != "id" || table.Columns[1] != "name" {
		t.Fatalf("columns = %v", table.Columns)
	}
	// Position tracks the order rows were submitted in, not merge-key
	// order, so id=3 (submitted first) must come back first even though
	// the merge-join walks the archive in ascending key order internally.
	want := []int64{3, 1, 2}
	if len(table.Rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(table.Rows), len(want))
	}
	for i, row := range table.Rows {
		if row.Values[0].Int() != want[i] {
			t.Fatalf("row %d id = %v, want %v", i, row.Values[0], want[i])
		}
	}
}

func TestCheckoutRejectsOutOfRangeVersion(t *testing.T) {
	a := openTestArchive(t, []string{"id"})
	mustCommit(t, a, NewMemDocument([]string{"id"}, [][]Scalar{{Int(1)}}), "v0")

	if _, err := a.Checkout(1); err == nil {
		t.Fatalf("want error for unknown version 1")
	}
	if _, err := a.Checkout(-1); err == nil {
		t.Fatalf("want error for negative version")
	}
}

func TestCheckoutReflectsColumnAdditions(t *testing.T) {
	a := openTestArchive(t, []string{"id"})
	mustCommit(t, a, NewMemDocument([]string{"id", "a"}, [][]Scalar{{Int(1), Text("x")}}), "v0")
	mustCommit(t, a, NewMemDocument([]string{"id", "a", "b"}, [][]Scalar{{Int(1), Text("x"), Text("y")}}), "v1")

	t0, err := a.Checkout(0)
	if err != nil {
		t.Fatalf("Checkout(0): %v", err)
	}
	if len(t0.Columns) != 2 {
		t.Fatalf("v0 columns = %v, want 2", t0.Columns)
	}

	t1, err := a.Checkout(1)
	if err != nil {
		t.Fatalf("Checkout(1): %v", err)
	}
	if len(t1.Columns) != 3 {
		t.Fatalf("v1 columns = %v, want 3", t1.Columns)
	}
}
