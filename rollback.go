package histore

// rollbackValue truncates an ArchiveValue's timestamp(s) to versions <=
// version. TimestampedValues that fall entirely above version are dropped;
// the last surviving one is truncated. Returns nil if nothing survives.
func rollbackValue(v ArchiveValue, version int) ArchiveValue {
	switch tv := v.(type) {
	case SingleVersionValue:
		ts := tv.ts.Rollback(version)
		if ts.IsEmpty() {
			return nil
		}
		return SingleVersionValue{Value: tv.Value, ts: ts}
	case MultiVersionValue:
		var out []TimestampedValue
		for _, entry := range tv.values {
			ts := entry.Timestamp.Rollback(version)
			if ts.IsEmpty() {
				continue
			}
			out = append(out, TimestampedValue{Value: entry.Value, Timestamp: ts})
		}
		if len(out) == 0 {
			return nil
		}
		if len(out) == 1 {
			return SingleVersionValue{Value: out[0].Value, ts: out[0].Timestamp}
		}
		return MultiVersionValue{values: out}
	default:
		panic("histore: unknown ArchiveValue implementation")
	}
}

// Rollback drops all versions after v from the archive: it truncates every
// row and column timestamp to [0,v], drops rows/columns whose timestamp
// becomes empty as a result, and discards snapshot descriptors for
// versions > v. next_version becomes v+1. Rollback is all-or-nothing: it
// either succeeds and commits the truncated state, or fails and leaves the
// archive untouched (spec.md §4.6, §7).
//
// Rolling back to v = -1 clears the archive entirely.
func (a *Archive) Rollback(v int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if v < -1 {
		return versionErrf(v, "invalid rollback target")
	}
	if v >= a.nextVersion {
		return versionErrf(v, "unknown version")
	}

	rows := make(map[RowID]*ArchiveRow, len(a.rows))
	for id, row := range a.rows {
		clone := cloneRow(row)
		if clone.rollback(v) {
			rows[id] = clone
		}
	}

	cols := make([]*ArchiveColumn, 0, len(a.schema.columns))
	for _, col := range a.schema.columns {
		clone := cloneColumn(col)
		if clone.rollback(v) {
			cols = append(cols, clone)
		}
	}

	var snaps []Snapshot
	for _, s := range a.snapshots {
		if s.Version <= v {
			snaps = append(snaps, s)
		}
	}

	newSchema := &Schema{columns: cols, policy: a.schema.policy}
	newSchema.reindex()
	rowOrder := keySortedRowOrder(rows, v)

	if err := a.store.stageRollback(rows, rowOrder, newSchema, snaps, a.keyColumns, v+1, a.nextRowID, a.nextColID); err != nil {
		return err
	}

	a.rows = rows
	a.rowOrder = rowOrder
	a.schema = newSchema
	a.snapshots = snaps
	a.nextVersion = v + 1

	a.logger.Info("rollback", "version", v)
	return nil
}

func cloneRow(r *ArchiveRow) *ArchiveRow {
	cells := make(map[ColumnID]ArchiveValue, len(r.Cells))
	for k, v := range r.Cells {
		cells[k] = v
	}
	return &ArchiveRow{ID: r.ID, Key: r.Key, Position: r.Position, Cells: cells, timestamp: r.timestamp}
}

func cloneColumn(c *ArchiveColumn) *ArchiveColumn {
	return &ArchiveColumn{ID: c.ID, Name: c.Name, Position: c.Position, timestamp: c.timestamp}
}
