package main

import (
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/liserjrqlxue/goUtil/fmtUtil"
	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"github.com/xuri/excelize/v2"
)

const summarySheet = "summary"

var summaryTitle = []string{"cluster", "barcodes", "fragments"}

func sortedClusters(res Result) []string {
	clusters := make([]string, 0, len(res.Clusters))
	for cluster := range res.Clusters {
		clusters = append(clusters, cluster)
	}
	sort.Strings(clusters)
	return clusters
}

// WriteSummary writes per-cluster barcode and fragment counts as TSV,
// followed by the run totals.
func WriteSummary(path string, ann Annotations, res Result) {
	var (
		out      = osUtil.Create(path)
		barcodes = ann.BarcodeCounts()
	)
	defer simpleUtil.DeferClose(out)

	fmtUtil.Fprintf(out, "%s\t%s\t%s\n", summaryTitle[0], summaryTitle[1], summaryTitle[2])
	for _, cluster := range sortedClusters(res) {
		fmtUtil.Fprintf(out, "%s\t%d\t%d\n", cluster, barcodes[cluster], res.Clusters[cluster])
	}
	fmtUtil.Fprintf(out, "#routed\t%d\n", res.Routed)
	fmtUtil.Fprintf(out, "#filtered\t%d\n", res.Filtered)
	fmtUtil.Fprintf(out, "#skipped\t%d\n", res.Skipped)
	fmtUtil.Fprintf(out, "#lines\t%d\n", res.Lines)
}

// WriteSummaryXlsx writes the same table as WriteSummary to a workbook.
func WriteSummaryXlsx(path string, ann Annotations, res Result) error {
	xlsx := excelize.NewFile()
	defer xlsx.Close()

	if err := xlsx.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}

	barcodes := ann.BarcodeCounts()
	rows := [][]interface{}{{summaryTitle[0], summaryTitle[1], summaryTitle[2]}}
	for _, cluster := range sortedClusters(res) {
		rows = append(rows, []interface{}{cluster, barcodes[cluster], res.Clusters[cluster]})
	}
	rows = append(rows,
		[]interface{}{"#routed", "", res.Routed},
		[]interface{}{"#filtered", "", res.Filtered},
		[]interface{}{"#skipped", "", res.Skipped},
		[]interface{}{"#lines", "", res.Lines},
	)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := xlsx.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	return xlsx.SaveAs(path)
}

// PlotClusterSizes renders a bar chart of routed fragments per cluster.
func PlotClusterSizes(w io.Writer, res Result) error {
	var (
		bar      = charts.NewBar()
		clusters = sortedClusters(res)
		items    = make([]opts.BarData, 0, len(clusters))
	)
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Fragments per pseudobulk",
			Subtitle: "routed fragments by cluster",
		}))

	for _, cluster := range clusters {
		items = append(items, opts.BarData{Value: res.Clusters[cluster]})
	}
	bar.SetXAxis(clusters).AddSeries("fragments", items)
	return bar.Render(w)
}
