package histore

import "testing"

func TestAlignColumnsExtendsExistingByName(t *testing.T) {
	schema := NewSchema(MatchByName)
	col, nextColID, err := alignColumns(schema, []string{"id", "name"}, 0, 0)
	if err != nil {
		t.Fatalf("alignColumns v0: %v", err)
	}
	if nextColID != 2 {
		t.Fatalf("nextColID = %d, want 2", nextColID)
	}
	idCol := col["id"]

	col2, nextColID2, err := alignColumns(schema, []string{"id", "name"}, 1, nextColID)
	if err != nil {
		t.Fatalf("alignColumns v1: %v", err)
	}
	if nextColID2 != nextColID {
		t.Fatalf("nextColID should not grow on reuse, got %d want %d", nextColID2, nextColID)
	}
	if col2["id"] != idCol {
		t.Fatalf("expected same *ArchiveColumn reused across versions")
	}
	if !idCol.Timestamp().Contains(1) {
		t.Fatalf("id column should now be alive at version 1")
	}
}

func TestAlignColumnsRejectsDuplicateNames(t *testing.T) {
	schema := NewSchema(MatchByName)
	_, _, err := alignColumns(schema, []string{"id", "id"}, 0, 0)
	if err == nil {
		t.Fatalf("want error for duplicate column name")
	}
}

func TestMergeSnapshotCreatesExtendsAndTerminates(t *testing.T) {
	schema := NewSchema(MatchByName)
	rows := map[RowID]*ArchiveRow{}

	doc0 := NewMemDocument([]string{"id", "v"}, [][]Scalar{
		{Int(1), Text("a")},
		{Int(2), Text("b")},
	})
	extractor := ColumnKeyExtractor{KeyColumns: []string{"id"}}

	order, nextRowID, nextColID, err := mergeSnapshot(rows, nil, schema, doc0, extractor, 0, 0, 0)
	if err != nil {
		t.Fatalf("mergeSnapshot v0: %v", err)
	}
	if len(order) != 2 || nextRowID != 2 {
		t.Fatalf("order = %v, nextRowID = %d", order, nextRowID)
	}

	doc1 := NewMemDocument([]string{"id", "v"}, [][]Scalar{
		{Int(1), Text("a")},
		{Int(3), Text("c")},
	})
	order2, nextRowID2, _, err := mergeSnapshot(rows, order, schema, doc1, extractor, 1, nextRowID, nextColID)
	if err != nil {
		t.Fatalf("mergeSnapshot v1: %v", err)
	}
	if len(order2) != 2 {
		t.Fatalf("order2 = %v, want len 2 (row 2 dropped, row 3 added)", order2)
	}
	if nextRowID2 != 3 {
		t.Fatalf("nextRowID2 = %d, want 3", nextRowID2)
	}

	row2 := rows[1]
	if !row2.Timestamp().Contains(0) || row2.Timestamp().Contains(1) {
		t.Fatalf("row 2 (id=2) should be terminated, timestamp = %s", row2.Timestamp())
	}

	row1 := rows[0]
	if !row1.Timestamp().Contains(1) {
		t.Fatalf("row 1 (id=1) should still be live at version 1")
	}
}

// unsortedTestDocument hands mergeSnapshot a row stream out of key order
// without going through MemDocument's own sort, to exercise the
// monotonicity check mergeSnapshot must perform on an iterator it trusts
// to already be sorted.
type unsortedTestDocument struct {
	columns []string
	rows    [][]Scalar
}

func (d *unsortedTestDocument) Columns() []string { return d.columns }
func (d *unsortedTestDocument) Close() error      { return nil }

func (d *unsortedTestDocument) SortedBy(extractor KeyExtractor) (RowIterator, error) {
	rows := make([]DocumentRow, len(d.rows))
	for i, row := range d.rows {
		rows[i] = DocumentRow{Key: extractor.ExtractKey(d.columns, row, int64(i)), Values: row, Position: int64(i)}
	}
	return &unsortedTestIterator{rows: rows}, nil
}

type unsortedTestIterator struct {
	rows []DocumentRow
	pos  int
}

func (it *unsortedTestIterator) Next() (DocumentRow, bool, error) {
	if it.pos >= len(it.rows) {
		return DocumentRow{}, false, nil
	}
	row := it.rows[it.pos]
	it.pos++
	return row, true, nil
}

func (it *unsortedTestIterator) Close() error { return nil }

func TestMergeSnapshotRejectsUnsortedDocument(t *testing.T) {
	schema := NewSchema(MatchByName)
	rows := map[RowID]*ArchiveRow{}
	doc := &unsortedTestDocument{columns: []string{"id"}, rows: [][]Scalar{{Int(2)}, {Int(1)}}}
	extractor := ColumnKeyExtractor{KeyColumns: []string{"id"}}

	_, _, _, err := mergeSnapshot(rows, nil, schema, doc, extractor, 0, 0, 0)
	if err == nil {
		t.Fatalf("want error for an out-of-order document")
	}
	if _, ok := err.(*UnsortedInputError); !ok {
		t.Fatalf("err = %T, want *UnsortedInputError", err)
	}
}

func TestMergeSnapshotRejectsMissingKeyColumn(t *testing.T) {
	schema := NewSchema(MatchByName)
	rows := map[RowID]*ArchiveRow{}
	doc := NewMemDocument([]string{"name"}, [][]Scalar{{Text("alice")}, {Text("bob")}})
	extractor := ColumnKeyExtractor{KeyColumns: []string{"id"}}

	_, _, _, err := mergeSnapshot(rows, nil, schema, doc, extractor, 0, 0, 0)
	if err == nil {
		t.Fatalf("want error for missing key column")
	}
	if _, ok := err.(*SchemaError); !ok {
		t.Fatalf("err = %T, want *SchemaError", err)
	}
}

func TestMergeSnapshotRejectsDuplicateKeyInDocument(t *testing.T) {
	schema := NewSchema(MatchByName)
	rows := map[RowID]*ArchiveRow{}
	doc := NewMemDocument([]string{"id"}, [][]Scalar{{Int(1)}, {Int(1)}})
	extractor := ColumnKeyExtractor{KeyColumns: []string{"id"}}

	_, _, _, err := mergeSnapshot(rows, nil, schema, doc, extractor, 0, 0, 0)
	if err == nil {
		t.Fatalf("want error for duplicate key")
	}
	if _, ok := err.(*DuplicateKeyError); !ok {
		t.Fatalf("err = %T, want *DuplicateKeyError", err)
	}
}
