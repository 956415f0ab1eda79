package histore

import "sort"

// ColumnMatchPolicy names how a new snapshot's columns are aligned with
// existing archive columns during merge (spec.md §4.3). The value is
// stored with the schema; alignColumns matches by name under either
// policy.
type ColumnMatchPolicy int

const (
	// MatchByID names alignment by external column identifiers. No
	// Document supplies such identifiers, and alignColumns does not
	// consult the policy, so a MatchByID schema is still aligned by name.
	MatchByID ColumnMatchPolicy = iota
	// MatchByName aligns snapshot columns to archive columns by name.
	MatchByName
)

// Schema is the ordered list of an archive's columns, addressed by stable
// ColumnID.
type Schema struct {
	columns []*ArchiveColumn
	byID    map[ColumnID]*ArchiveColumn
	policy  ColumnMatchPolicy
}

// NewSchema returns an empty schema using the given column match policy.
func NewSchema(policy ColumnMatchPolicy) *Schema {
	s := &Schema{policy: policy}
	s.reindex()
	return s
}

func (s *Schema) reindex() {
	s.byID = make(map[ColumnID]*ArchiveColumn, len(s.columns))
	for _, c := range s.columns {
		s.byID[c.ID] = c
	}
}

// Columns returns the schema's columns in no particular order; use
// ColumnsAt to get the display order for a given version.
func (s *Schema) Columns() []*ArchiveColumn {
	return append([]*ArchiveColumn(nil), s.columns...)
}

// ColumnByID looks up a column by its stable identifier.
func (s *Schema) ColumnByID(id ColumnID) *ArchiveColumn {
	return s.byID[id]
}

// ColumnNamedAt returns the column whose name at version equals name, or
// nil if no such column is alive at that version.
func (s *Schema) ColumnNamedAt(name string, version int) *ArchiveColumn {
	for _, c := range s.columns {
		if n, ok := c.NameAt(version); ok && n == name {
			return c
		}
	}
	return nil
}

// ColumnsAt returns the columns alive at version, ordered by their
// position at that version (spec.md §4.3: positions must be dense 0..n-1
// within any single version).
func (s *Schema) ColumnsAt(version int) []*ArchiveColumn {
	var live []*ArchiveColumn
	for _, c := range s.columns {
		if c.Timestamp().Contains(version) {
			live = append(live, c)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		pi, _ := live[i].PositionAt(version)
		pj, _ := live[j].PositionAt(version)
		return pi < pj
	})
	return live
}

// addColumn appends a freshly allocated column to the schema.
func (s *Schema) addColumn(c *ArchiveColumn) {
	s.columns = append(s.columns, c)
	s.byID[c.ID] = c
}
