// Package logbook holds the turnover-log core: the table schemas for work
// orders and maintenance requests, the resolver that derives each logical
// entity's current state from its append-only rows, and the upsert engine
// that writes progress notes and direct edits.
package logbook

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Fixed column order shared by both sheets. Only the key and body column
// names differ between work orders and requests.
const (
	colKey = iota
	colTitle
	colBody
	colDate
	colLocation
	colStatus
	colAttachments
	colEntryID
	colCreatedAt
	columnCount
)

const (
	dateLayout      = "2006-01-02"
	createdAtLayout = time.RFC3339
)

// Schema describes one of the two structurally identical tables. The
// resolver and engine are parameterized by it instead of duplicating code
// per table.
type Schema struct {
	Name       string // sheet name in the backing store
	KeyColumn  string // "WO" or "RFM"; also the display prefix
	BodyColumn string // "Resolution" or "Description"

	Statuses      []string
	DefaultStatus string
	// Terminal statuses close the entity for display: excluded from open
	// views. There is no enforced transition graph; any status is reachable
	// from any other through either write path.
	Terminal []string
	// Waiting statuses get their own view (waiting on material).
	Waiting []string
	// Statuses that demand a non-blank body on the direct-edit path.
	RequireBodyOn []string
}

var WorkOrders = Schema{
	Name:          "work_orders",
	KeyColumn:     "WO",
	BodyColumn:    "Resolution",
	Statuses:      []string{"APPR", "WIP", "Completed", "RTS", "WMATL"},
	DefaultStatus: "WIP",
	Terminal:      []string{"Completed", "RTS"},
	Waiting:       []string{"WMATL"},
	RequireBodyOn: []string{"Completed", "RTS"},
}

var Requests = Schema{
	Name:          "requests",
	KeyColumn:     "RFM",
	BodyColumn:    "Description",
	Statuses:      []string{"Submitted", "In Progress", "Close"},
	DefaultStatus: "Submitted",
	Terminal:      []string{"Close"},
}

func (s Schema) Header() []string {
	return []string{s.KeyColumn, "Title", s.BodyColumn, "Date", "Location", "Status", "Attachments", "EntryID", "CreatedAt"}
}

func (s Schema) ValidStatus(status string) bool {
	for _, candidate := range s.Statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

func (s Schema) IsTerminal(status string) bool {
	return contains(s.Terminal, status)
}

func (s Schema) IsWaiting(status string) bool {
	return contains(s.Waiting, status)
}

func (s Schema) requiresBody(status string) bool {
	return contains(s.RequireBodyOn, status)
}

func contains(values []string, value string) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}

// Entry is one physical row. Position is its 1-based store position (0 when
// not yet written).
type Entry struct {
	Key         string
	Title       string
	Body        string
	Date        string
	Location    string
	Status      string
	Attachments []string
	EntryID     string
	CreatedAt   string
	Position    int
}

// EntryFromRow tolerates short rows: missing trailing cells read as empty.
func EntryFromRow(row []string, position int) Entry {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Entry{
		Key:         strings.TrimSpace(cell(colKey)),
		Title:       cell(colTitle),
		Body:        cell(colBody),
		Date:        cell(colDate),
		Location:    cell(colLocation),
		Status:      cell(colStatus),
		Attachments: SplitAttachments(cell(colAttachments)),
		EntryID:     cell(colEntryID),
		CreatedAt:   cell(colCreatedAt),
		Position:    position,
	}
}

func (e Entry) Row() []string {
	row := make([]string, columnCount)
	row[colKey] = e.Key
	row[colTitle] = e.Title
	row[colBody] = e.Body
	row[colDate] = e.Date
	row[colLocation] = e.Location
	row[colStatus] = e.Status
	row[colAttachments] = JoinAttachments(e.Attachments)
	row[colEntryID] = e.EntryID
	row[colCreatedAt] = e.CreatedAt
	return row
}

// SplitAttachments parses the comma-separated URL list stored in one cell.
func SplitAttachments(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func JoinAttachments(urls []string) string {
	return strings.Join(urls, ",")
}

// ShiftDate is the working date for a point in time: before the cutoff hour
// the date still belongs to the previous night shift.
func ShiftDate(now time.Time, loc *time.Location, cutoffHour int) string {
	local := now.In(loc)
	if local.Hour() < cutoffHour {
		local = local.AddDate(0, 0, -1)
	}
	return local.Format(dateLayout)
}

// SortEntriesByKey orders entries by the numeric part of their key, the way
// crews read a turnover sheet. Unparseable keys sort first, ties by string.
func SortEntriesByKey(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		left, right := keyNumber(entries[i].Key), keyNumber(entries[j].Key)
		if left != right {
			return left < right
		}
		return entries[i].Key < entries[j].Key
	})
}

func keyNumber(key string) int {
	digits := strings.TrimFunc(key, func(r rune) bool {
		return r < '0' || r > '9'
	})
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
