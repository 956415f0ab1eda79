package histore

// Stats summarizes the size and shape of an archive at the time of the
// call. Used by the CLI's status output.
type Stats struct {
	Rows       int
	Columns    int
	Snapshots  int
	NextRowID  RowID
	NextColID  ColumnID
	StoreBytes int64
}

// Stats returns a snapshot of the archive's current size.
func (a *Archive) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Stats{
		Rows:       len(a.rows),
		Columns:    len(a.schema.columns),
		Snapshots:  len(a.snapshots),
		NextRowID:  a.nextRowID,
		NextColID:  a.nextColID,
		StoreBytes: a.store.size(),
	}
}
