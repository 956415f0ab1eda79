package histore

// mergeSnapshot folds doc into rows/schema at version via the streaming
// two-way outer join described for commits: the archive's currently-live
// rows (rowOrder, already sorted by merge key) are walked in lockstep
// against doc's rows (sorted by extractor's key), matched, created or
// terminated by key comparison, exactly like a merge-join. rows and
// schema are mutated in place and must already be private copies the
// caller owns, so a failed commit never corrupts the live archive.
func mergeSnapshot(rows map[RowID]*ArchiveRow, rowOrder []RowID, schema *Schema, doc Document, extractor KeyExtractor, version int, nextRowID RowID, nextColID ColumnID) ([]RowID, RowID, ColumnID, error) {
	docColumns := doc.Columns()
	if v, ok := extractor.(interface{ validateColumns([]string) error }); ok {
		if err := v.validateColumns(docColumns); err != nil {
			return nil, 0, 0, err
		}
	}

	colByName, nextColID, err := alignColumns(schema, docColumns, version, nextColID)
	if err != nil {
		return nil, 0, 0, err
	}

	it, err := doc.SortedBy(extractor)
	if err != nil {
		return nil, 0, 0, documentErrf(err, "opening sorted row iterator")
	}
	defer it.Close()

	priorVersion := version - 1

	var newOrder []RowID

	archiveIdx := 0
	nextArchiveKey := func() (RowID, Scalar, bool) {
		if archiveIdx >= len(rowOrder) {
			return 0, Null, false
		}
		id := rowOrder[archiveIdx]
		k, _ := rows[id].Key.AtVersion(priorVersion)
		return id, k, true
	}

	docRow, docOK, err := it.Next()
	if err != nil {
		return nil, 0, 0, documentErrf(err, "reading first document row")
	}
	var prevDocKey Key
	havePrevDocKey := false

	for {
		archiveID, archiveKey, archiveOK := nextArchiveKey()
		if !archiveOK && !docOK {
			break
		}

		if docOK && havePrevDocKey {
			if docRow.Key.Equal(prevDocKey) {
				return nil, 0, 0, &DuplicateKeyError{Key: docRow.Key}
			}
			if docRow.Key.Less(prevDocKey) {
				return nil, 0, 0, &UnsortedInputError{Prev: prevDocKey, Cur: docRow.Key}
			}
		}

		switch {
		case archiveOK && (!docOK || archiveKey.Less(keyScalar(docRow.Key))):
			// Row present in the archive but absent from this snapshot:
			// it is terminated as of the previous version. Leave it
			// untouched and drop it from the live row order.
			archiveIdx++

		case docOK && (!archiveOK || keyScalar(docRow.Key).Less(archiveKey)):
			// New row, never seen before. Position reflects the row's
			// index in the submitted document, not its rank in this
			// key-sorted merge-join walk.
			cells := alignCells(docColumns, colByName, docRow.Values)
			row := NewArchiveRow(nextRowID, docRow.Key, int(docRow.Position), cells, version)
			rows[nextRowID] = row
			newOrder = append(newOrder, nextRowID)
			nextRowID++
			prevDocKey, havePrevDocKey = docRow.Key, true
			docRow, docOK, err = it.Next()
			if err != nil {
				return nil, 0, 0, documentErrf(err, "reading document row")
			}

		default:
			// Same key on both sides: extend the existing row.
			cells := alignCells(docColumns, colByName, docRow.Values)
			row := rows[archiveID]
			row.merge(docRow.Key, int(docRow.Position), cells, nil, version, priorVersion)
			newOrder = append(newOrder, archiveID)
			archiveIdx++
			prevDocKey, havePrevDocKey = docRow.Key, true
			docRow, docOK, err = it.Next()
			if err != nil {
				return nil, 0, 0, documentErrf(err, "reading document row")
			}
		}
	}

	return newOrder, nextRowID, nextColID, nil
}

// alignColumns matches doc's columns against schema by name, extending an
// existing column's name/position or creating a fresh one, and returns a
// lookup from column name to the (possibly new) ArchiveColumn.
func alignColumns(schema *Schema, docColumns []string, version int, nextColID ColumnID) (map[string]*ArchiveColumn, ColumnID, error) {
	result := make(map[string]*ArchiveColumn, len(docColumns))
	priorVersion := version - 1

	seen := make(map[string]bool, len(docColumns))
	for _, name := range docColumns {
		if seen[name] {
			return nil, 0, schemaErrf(name, nil, "duplicate column name in document")
		}
		seen[name] = true
	}

	for pos, name := range docColumns {
		var col *ArchiveColumn
		if priorVersion >= 0 {
			col = schema.ColumnNamedAt(name, priorVersion)
		}
		if col == nil {
			col = NewArchiveColumn(nextColID, name, pos, version)
			nextColID++
			schema.addColumn(col)
		} else {
			col.extend(version, name, pos)
		}
		result[name] = col
	}
	return result, nextColID, nil
}

func alignCells(columns []string, colByName map[string]*ArchiveColumn, values []Scalar) map[ColumnID]Scalar {
	cells := make(map[ColumnID]Scalar, len(columns))
	for i, name := range columns {
		cells[colByName[name].ID] = values[i]
	}
	return cells
}
