package logbook

import (
	"sort"
	"time"
)

// The resolver computes "latest row per key" from a flat row set. Ordering
// semantics are the contract everything else leans on: rows sort ascending
// by parsed CreatedAt, a row with an unparseable timestamp sorts as the
// earliest possible value, and the stable sort means equal timestamps keep
// physical storage order, so the later-appended row wins every tie.

type indexedRow struct {
	cells []string
	index int // data row index: store position is index+2
	ts    time.Time
}

func orderRows(rows [][]string) []indexedRow {
	ordered := make([]indexedRow, 0, len(rows))
	for i, row := range rows {
		ordered = append(ordered, indexedRow{cells: row, index: i, ts: parseCreatedAt(row)})
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].ts.Before(ordered[b].ts)
	})
	return ordered
}

func parseCreatedAt(row []string) time.Time {
	if colCreatedAt >= len(row) {
		return time.Time{}
	}
	ts, err := time.Parse(createdAtLayout, row[colCreatedAt])
	if err != nil {
		return time.Time{}
	}
	return ts
}

func rowKey(row []string) string {
	if colKey >= len(row) {
		return ""
	}
	return EntryFromRow(row, 0).Key
}

// LatestByKey returns the authoritative entry for every distinct non-empty
// key: the row with the maximum CreatedAt, ties broken by later physical
// position. Rows with an empty key are excluded.
func LatestByKey(rows [][]string) map[string]Entry {
	latest := make(map[string]Entry)
	for _, row := range orderRows(rows) {
		key := rowKey(row.cells)
		if key == "" {
			continue
		}
		latest[key] = EntryFromRow(row.cells, row.index+2)
	}
	return latest
}

// History returns every entry for a key ordered ascending by CreatedAt,
// using the same parse and tie-break rules as LatestByKey.
func History(rows [][]string, key string) []Entry {
	var entries []Entry
	for _, row := range orderRows(rows) {
		if rowKey(row.cells) != key {
			continue
		}
		entries = append(entries, EntryFromRow(row.cells, row.index+2))
	}
	return entries
}

// FindRowPosition returns the 1-based store position of the latest physical
// row for a key, which is the row the direct-edit path overwrites. The second
// return is false when the key has no rows.
func FindRowPosition(rows [][]string, key string) (int, bool) {
	position := 0
	for _, row := range orderRows(rows) {
		if rowKey(row.cells) != key {
			continue
		}
		position = row.index + 2
	}
	return position, position != 0
}
