package pipeline

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"experiment-logger/internal/model"
)

func exportTable() *model.Table {
	return model.NewTable([][]string{
		{"Timestamp", "General — Run ID", "Laser — Power", "General — Notes"},
		{"2024-05-01 09:30:00", "RUN-0001", "1.5", "first, try"},
		{"2024-05-01 10:00:00", "RUN-0002", "2", `says "hi"`},
		{"2024-05-02 08:00:00", "RUN-0003"},
	})
}

func TestWriteCSV_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, exportTable()))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "snapshot_csv", buf.Bytes())
}

func TestWriteCSV_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, &model.Table{}))
	assert.Empty(t, buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, exportTable()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ExportSheetName}, f.GetSheetList())
	rows, err := f.GetRows(ExportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, exportTable().Columns, rows[0])
	assert.Equal(t, []string{"2024-05-01 09:30:00", "RUN-0001", "1.5", "first, try"}, rows[1])

	// Numbers are stored as numbers
	typ, err := f.GetCellType(ExportSheetName, "C3")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)
}

func TestExportTable(t *testing.T) {
	at := time.Date(2024, 5, 3, 8, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	res, err := ExportTable(&buf, exportTable(), "CSV", at)
	require.NoError(t, err)
	assert.Equal(t, model.ExportResult{
		Format:      "csv",
		FileName:    "experiment_log_20240503.csv",
		RecordCount: 3,
		Timestamp:   at,
	}, res)

	buf.Reset()
	res, err = ExportTable(&buf, exportTable(), "xlsx", at)
	require.NoError(t, err)
	assert.Equal(t, "experiment_log_20240503.xlsx", res.FileName)
	assert.NotZero(t, buf.Len())

	_, err = ExportTable(&buf, exportTable(), "parquet", at)
	assert.Error(t, err)
}
