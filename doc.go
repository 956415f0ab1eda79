/*
Package histore implements a compact archive of a temporal sequence of
tabular dataset snapshots, after the method of Buneman et al. (2004)
specialized to tabular data.

We implement:

1. A nested-merge data model: every row, column, cell, and position is
stamped with the set of versions in which it held that value.

2. A streaming merge engine that folds a new dataset snapshot (presented by
a Document) into the archive at a new version.

3. A streaming checkout that reconstructs any committed version as a table,
and a reader that exposes the raw row history for provenance inspection.

4. Rollback, truncating the archive to retain only versions up to a chosen
one.

# Technical Details

**Timestamps.** A Timestamp is a canonical, coalesced list of closed
integer intervals over version numbers. Every row, column, cell and
position carries one.

**Row identity.** Rows are identified by an opaque RowID assigned on first
appearance, never by key or position; this lets both keyed and un-keyed
archives track a row's history across permutations and reindexings.

**Values.** A cell, position, key, or column name is an ArchiveValue: either
a SingleVersionValue (the common case, no allocation beyond the value
itself) or a MultiVersionValue once the value has changed at least once.

## Persisted layout

**rows.dat**: one serialized ArchiveRow per row, in current merge-key
order. **metadata.dat**: the schema, snapshot listing, and id counters. See
serialize.go for the exact grammar.
*/
package histore
