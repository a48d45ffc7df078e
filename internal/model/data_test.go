package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnName_RoundTrip(t *testing.T) {
	col := ColumnName("Laser", "Power")
	assert.Equal(t, "Laser — Power", col)

	group, variable, ok := SplitColumn(col)
	require.True(t, ok)
	assert.Equal(t, "Laser", group)
	assert.Equal(t, "Power", variable)

	_, _, ok = SplitColumn(TimestampColumn)
	assert.False(t, ok)
}

func TestNewLogRow_KeepsColumnOrder(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	row := NewLogRow(at)
	row.Set("B", "2")
	row.Set("A", "1")
	row.Set("B", "3")

	assert.Equal(t, []string{TimestampColumn, "B", "A"}, row.Columns)
	assert.Equal(t, "2024-03-09 14:05:07", row.Timestamp())
	assert.Equal(t, "3", row.Get("B"))
	assert.Equal(t, "", row.Get("missing"))
}

func TestNewTable_PadsAndSkipsBlankRows(t *testing.T) {
	table := NewTable([][]string{
		{"Timestamp", "A", "B"},
		{"t1", "1"},
		{"", "", ""},
		{"t2", "2", "x", "overflow"},
	})

	require.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"t1", "1", ""}, table.Rows[0])
	assert.Equal(t, []string{"t2", "2", "x"}, table.Rows[1])

	col, ok := table.Column("B")
	require.True(t, ok)
	assert.Equal(t, []string{"", "x"}, col)

	_, ok = table.Column("C")
	assert.False(t, ok)
}

func TestTable_TailNewestFirst(t *testing.T) {
	table := NewTable([][]string{{"n"}, {"1"}, {"2"}, {"3"}})

	assert.Equal(t, [][]string{{"3"}, {"2"}}, table.Tail(2).Rows)
	assert.Equal(t, 3, table.Tail(0).Len())
	assert.Equal(t, 3, table.Tail(50).Len())
}

func TestTable_EmptyInputs(t *testing.T) {
	var nilTable *Table
	assert.True(t, nilTable.Empty())
	assert.True(t, NewTable(nil).Empty())
	assert.True(t, NewTable([][]string{{"Timestamp"}}).Empty())
}
