package histore

// ColumnID is a stable integer identifier for an archive column. Never
// reused once assigned, even if the column is later dropped by rollback.
type ColumnID int

// ArchiveColumn is a column entity that persists across versions, carrying
// its name and position as MultiVersionValues and its own existence
// timestamp. Columns are identified by ColumnID; renames change Name,
// reorderings change Position.
type ArchiveColumn struct {
	ID        ColumnID
	Name      ArchiveValue // of KindText
	Position  ArchiveValue // of KindInt
	timestamp Timestamp
}

// NewArchiveColumn creates a column first appearing at version with the
// given name and position.
func NewArchiveColumn(id ColumnID, name string, position int, version int) *ArchiveColumn {
	ts := TimestampOf(version)
	return &ArchiveColumn{
		ID:        id,
		Name:      NewSingleVersionValue(Text(name), ts),
		Position:  NewSingleVersionValue(Int(int64(position)), ts),
		timestamp: ts,
	}
}

// Timestamp returns the versions in which the column exists.
func (c *ArchiveColumn) Timestamp() Timestamp { return c.timestamp }

// NameAt returns the column's name at version, or "" if the column did not
// exist at that version.
func (c *ArchiveColumn) NameAt(version int) (string, bool) {
	v, ok := c.Name.AtVersion(version)
	if !ok {
		return "", false
	}
	return v.Text(), true
}

// PositionAt returns the column's 0-based display position at version.
func (c *ArchiveColumn) PositionAt(version int) (int, bool) {
	v, ok := c.Position.AtVersion(version)
	if !ok {
		return 0, false
	}
	return int(v.Int()), true
}

// extend folds the presence of the column at version into its timestamp,
// name and position, given the values it held in the source snapshot.
func (c *ArchiveColumn) extend(version int, name string, position int) {
	c.timestamp = c.timestamp.Append(version)
	c.Name = c.Name.Merge(Text(name), version)
	c.Position = c.Position.Merge(Int(int64(position)), version)
}

// rollback truncates the column's timestamp and its MultiVersionValues to
// versions <= version. Returns false if the column's timestamp becomes
// empty, in which case the caller must drop the column entirely.
func (c *ArchiveColumn) rollback(version int) bool {
	c.timestamp = c.timestamp.Rollback(version)
	if c.timestamp.IsEmpty() {
		return false
	}
	c.Name = rollbackValue(c.Name, version)
	c.Position = rollbackValue(c.Position, version)
	return true
}
