package report_test

import (
	"bytes"
	"testing"

	"fishledger-backend/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() report.Table {
	return report.Table{
		Title:   "Sales Summary",
		Columns: []string{"Sale ID", "Total"},
		Rows:    [][]string{{"1", "420.00"}, {"2", "215.00"}},
		Summary: []report.SummaryLine{{Label: "Total Revenue", Value: "635.00"}},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := report.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, report.FormatJSON, f)

	f, err = report.ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, report.FormatXLSX, f)

	_, err = report.ParseFormat("docx")
	assert.Error(t, err)
}

func TestTableFileName(t *testing.T) {
	assert.Equal(t, "sales-summary.csv", sampleTable().FileName(report.FormatCSV))
	assert.Equal(t, "report.pdf", report.Table{}.FileName(report.FormatPDF))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable().Write(&buf, report.FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Report")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sale ID", "Total"}, rows[0])
	assert.Equal(t, []string{"2", "215.00"}, rows[2])
	assert.Equal(t, []string{"Summary"}, rows[4])
	assert.Equal(t, []string{"Total Revenue", "635.00"}, rows[5])
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable().Write(&buf, report.FormatPDF))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWriteRejectsJSON(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, sampleTable().Write(&buf, report.FormatJSON))
}
