package logbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRow(key, title, createdAt string) []string {
	return Entry{Key: key, Title: title, Body: "note for " + key, CreatedAt: createdAt}.Row()
}

func TestLatestByKeyOneRowPerKey(t *testing.T) {
	rows := [][]string{
		testRow("2002", "Pump rebuild", "2024-05-16T22:10:00Z"),
		testRow("7", "Lighting check", "2024-05-17T01:00:00Z"),
		testRow("2002", "Pump rebuild", "2024-05-17T05:30:00Z"),
		testRow("", "orphan row", "2024-05-17T06:00:00Z"),
	}

	latest := LatestByKey(rows)

	require.Len(t, latest, 2)
	assert.Equal(t, "2024-05-17T05:30:00Z", latest["2002"].CreatedAt)
	assert.Equal(t, "2024-05-17T01:00:00Z", latest["7"].CreatedAt)
	_, ok := latest[""]
	assert.False(t, ok, "empty keys must be excluded")
}

func TestLatestByKeyStorePositions(t *testing.T) {
	rows := [][]string{
		testRow("2002", "first", "2024-05-16T22:10:00Z"),
		testRow("2002", "second", "2024-05-17T05:30:00Z"),
	}

	latest := LatestByKey(rows)

	// Header is store row 1, so the second data row lives at position 3.
	assert.Equal(t, 3, latest["2002"].Position)
}

func TestLatestByKeyTiedTimestampsLastPhysicalWins(t *testing.T) {
	rows := [][]string{
		testRow("2002", "earlier row", "2024-05-17T05:30:00Z"),
		testRow("2002", "later row", "2024-05-17T05:30:00Z"),
	}

	latest := LatestByKey(rows)

	assert.Equal(t, "later row", latest["2002"].Title)
	assert.Equal(t, 3, latest["2002"].Position)
}

func TestLatestByKeyUnparseableTimestampSortsEarliest(t *testing.T) {
	rows := [][]string{
		testRow("2002", "garbage timestamp", "yesterday-ish"),
		testRow("2002", "real timestamp", "2024-05-16T22:10:00Z"),
	}

	latest := LatestByKey(rows)

	assert.Equal(t, "real timestamp", latest["2002"].Title)
}

func TestHistoryAscendingByTimestamp(t *testing.T) {
	rows := [][]string{
		testRow("2002", "T2", "2024-05-17T05:30:00Z"),
		testRow("7", "other key", "2024-05-17T01:00:00Z"),
		testRow("2002", "T1", "2024-05-16T22:10:00Z"),
	}

	history := History(rows, "2002")

	require.Len(t, history, 2)
	assert.Equal(t, "T1", history[0].Title)
	assert.Equal(t, "T2", history[1].Title)
}

func TestFindRowPositionLatestWins(t *testing.T) {
	rows := [][]string{
		testRow("2002", "oldest", "2024-05-16T20:00:00Z"),
		testRow("2002", "newest", "2024-05-17T05:30:00Z"),
		testRow("2002", "middle", "2024-05-17T01:00:00Z"),
	}

	position, ok := FindRowPosition(rows, "2002")

	require.True(t, ok)
	assert.Equal(t, 3, position, "must return the store position of the latest-wins row")
}

func TestFindRowPositionMissingKey(t *testing.T) {
	rows := [][]string{
		testRow("2002", "only key", "2024-05-17T05:30:00Z"),
	}

	_, ok := FindRowPosition(rows, "9999")

	assert.False(t, ok)
}
