package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	annotations := filepath.Join(dir, "cell_metadata.csv")
	require.NoError(t, os.WriteFile(annotations, []byte(
		"cellBC_formatted,celltype\nAAAA,T1\nCCCC,T2\nGGTT,T3\n"), 0o644))
	fragments := filepath.Join(dir, "fragments.tsv.gz")
	in := fragment("chr1", 0, 100, "AAAA", 1) +
		fragment("chr1", 200, 300, "CCCC", 2) +
		fragment("chr1", 400, 500, "GGGG", 1) +
		fragment("chr1", 600, 700, "AACC", 1)
	writeGzipFile(t, fragments, in)

	out := filepath.Join(dir, "pseudobulks")
	summary := filepath.Join(dir, "summary.tsv")
	xlsx := filepath.Join(dir, "summary.xlsx")
	html := filepath.Join(dir, "clusters.html")

	var stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-annotations_in", annotations,
		"-cluster_col", "celltype",
		"-fragments_in", fragments,
		"-outpath", out,
		"-revcomp",
		"-summary", summary,
		"-xlsx", xlsx,
		"-html", html,
	}, &stderr)
	require.NoError(t, err, stderr.String())

	// matching is against reverse-complemented barcodes: CCCC -> GGGG, GGTT -> AACC
	assert.Equal(t, "", readFile(t, filepath.Join(out, "T1.tsv")))
	assert.Equal(t, fragment("chr1", 400, 500, "GGGG", 1), readFile(t, filepath.Join(out, "T2.tsv")))
	assert.Equal(t, fragment("chr1", 600, 700, "AACC", 1), readFile(t, filepath.Join(out, "T3.tsv")))
	assert.Contains(t, readFile(t, summary), "T3\t1\t1\n")
	assert.FileExists(t, xlsx)
	assert.FileExists(t, html)

	logs := stderr.String()
	assert.Contains(t, logs, "Total barcodes sent to pseudobulks: 2")
	assert.Contains(t, logs, "Total filtered barcodes: 2")
	assert.Contains(t, logs, "run=")
}

func TestRunMissingFlags(t *testing.T) {
	var stderr bytes.Buffer
	err := run(context.Background(), []string{"-cluster_col", "celltype"}, &stderr)
	require.Error(t, err)
	assert.Equal(t, "-annotations_in/-fragments_in/-outpath required", err.Error())
	assert.Contains(t, stderr.String(), "Usage of make_pseudobulks")
}

func TestRunHelp(t *testing.T) {
	var stderr bytes.Buffer
	err := run(context.Background(), []string{"-h"}, &stderr)
	assert.True(t, errors.Is(err, flag.ErrHelp))
	assert.Contains(t, stderr.String(), "Create pseudobulks")
	assert.Equal(t, 0, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 0, exitCode(fmt.Errorf("parse: %w", flag.ErrHelp)))
	assert.Equal(t, 1, exitCode(errors.New("-annotations_in/-fragments_in/-outpath required")))
}

func TestRunBadAnnotations(t *testing.T) {
	dir := t.TempDir()
	annotations := filepath.Join(dir, "cell_metadata.csv")
	require.NoError(t, os.WriteFile(annotations, []byte("barcode,celltype\nAAAA,T1\n"), 0o644))

	var stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-annotations_in", annotations,
		"-cluster_col", "celltype",
		"-fragments_in", filepath.Join(dir, "fragments.tsv.gz"),
		"-outpath", filepath.Join(dir, "out"),
	}, &stderr)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, DefaultBarcodeColumn, perr.Column)
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}

func TestConfigComma(t *testing.T) {
	type test struct {
		sep  string
		want rune
		ok   bool
	}

	tests := []test{
		{"", ',', true},
		{",", ',', true},
		{`\t`, '\t', true},
		{"tab", '\t', true},
		{";", ';', true},
		{"\t", '\t', true},
		{",,", 0, false},
		{`"`, 0, false},
	}

	for _, test := range tests {
		c := Config{Sep: test.sep}
		got, err := c.comma()
		if !test.ok {
			assert.Error(t, err, test.sep)
			continue
		}
		require.NoError(t, err, test.sep)
		assert.Equal(t, test.want, got, test.sep)
	}
}

func TestConfigValidate(t *testing.T) {
	c := Config{AnnotationsIn: "a.csv", ClusterCol: "celltype", FragmentsIn: "f.tsv.gz", Outpath: "out", Sep: ","}
	require.NoError(t, c.validate())

	c.Mismatches = -1
	assert.Error(t, c.validate())

	c.Mismatches = 0
	c.Sep = "ab"
	assert.True(t, strings.Contains(c.validate().Error(), "-sep"))
}
