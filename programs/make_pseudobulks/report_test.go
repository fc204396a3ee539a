package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var (
	reportAnnotations = Annotations{"AAAA": "T1", "CCCC": "T2", "TTTT": "T1", "ACGT": "T3"}
	reportResult      = Result{
		Lines:    10,
		Routed:   6,
		Filtered: 3,
		Skipped:  1,
		Clusters: map[string]int64{"T1": 4, "T2": 2, "T3": 0},
	}
)

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.tsv")
	WriteSummary(path, reportAnnotations, reportResult)

	assert.Equal(t, "cluster\tbarcodes\tfragments\n"+
		"T1\t2\t4\n"+
		"T2\t1\t2\n"+
		"T3\t1\t0\n"+
		"#routed\t6\n"+
		"#filtered\t3\n"+
		"#skipped\t1\n"+
		"#lines\t10\n", readFile(t, path))
}

func TestWriteSummaryXlsx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	require.NoError(t, WriteSummaryXlsx(path, reportAnnotations, reportResult))

	xlsx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer xlsx.Close()

	rows, err := xlsx.GetRows(summarySheet)
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, []string{"cluster", "barcodes", "fragments"}, rows[0])
	assert.Equal(t, []string{"T1", "2", "4"}, rows[1])
	assert.Equal(t, []string{"T3", "1", "0"}, rows[3])
	assert.Equal(t, []string{"#lines", "", "10"}, rows[7])
}

func TestPlotClusterSizes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PlotClusterSizes(&buf, reportResult))

	html := buf.String()
	assert.Contains(t, html, "Fragments per pseudobulk")
	assert.Contains(t, html, `"T1"`)
	assert.Contains(t, html, `"T3"`)
}
