package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Config is a specification of annotations + fragments -> pseudobulk files
type Config struct {
	AnnotationsIn string // Cell metadata table
	ClusterCol    string // Column used as pseudobulk name
	BarcodeCol    string
	Sep           string
	FragmentsIn   string
	Outpath       string // Top dir for saving pseudobulks

	Gzip       bool
	RevComp    bool
	Mismatches int

	Summary  string
	Xlsx     string
	HTML     string
	Progress int64
	Debug    bool

	CPUProfile string
	MemProfile string
}

func (c *Config) register(fs *flag.FlagSet) {
	fs.StringVar(&c.AnnotationsIn, "annotations_in", "", "path to cell metadata `table` (required)")
	fs.StringVar(&c.ClusterCol, "cluster_col", "", "column with cluster (e.g. cell type) info (required)")
	fs.StringVar(&c.FragmentsIn, "fragments_in", "", "path to fragments `file`, gzipped or plain (required)")
	fs.StringVar(&c.Outpath, "outpath", "", "top `dir` for saving pseudobulks (required)")
	fs.StringVar(&c.BarcodeCol, "barcode_col", DefaultBarcodeColumn, "column with bare ATGC barcodes")
	fs.StringVar(&c.Sep, "sep", ",", "annotation table delimiter; \\t for tab")
	fs.BoolVar(&c.Gzip, "gzip", false, "write <cluster>.tsv.gz pseudobulks")
	fs.BoolVar(&c.RevComp, "revcomp", false, "reverse-complement annotation barcodes before matching")
	fs.IntVar(&c.Mismatches, "mismatches", 0, "allow this many barcode mismatches")
	fs.StringVar(&c.Summary, "summary", "", "write per-cluster counts to `file` (tsv)")
	fs.StringVar(&c.Xlsx, "xlsx", "", "write per-cluster counts to `file` (xlsx)")
	fs.StringVar(&c.HTML, "html", "", "write a bar chart of per-cluster counts to `file`")
	fs.Int64Var(&c.Progress, "progress", DefaultProgressEvery, "log progress every `n` lines")
	fs.BoolVar(&c.Debug, "v", false, "debug logging")
	fs.StringVar(&c.CPUProfile, "cpuprofile", "", "write cpu profile to `file`")
	fs.StringVar(&c.MemProfile, "memprofile", "", "write memory profile to `file`")
}

func (c *Config) validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"-annotations_in", c.AnnotationsIn},
		{"-cluster_col", c.ClusterCol},
		{"-fragments_in", c.FragmentsIn},
		{"-outpath", c.Outpath},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s required", strings.Join(missing, "/"))
	}
	if c.Mismatches < 0 {
		return errors.New("-mismatches must not be negative")
	}
	if _, err := c.comma(); err != nil {
		return err
	}
	return nil
}

func (c *Config) comma() (rune, error) {
	switch c.Sep {
	case "":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(c.Sep)
	if size != len(c.Sep) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("-sep %q must be a single character", c.Sep)
	}
	return r, nil
}

func (c *Config) annotationOptions() AnnotationOptions {
	comma, _ := c.comma()
	return AnnotationOptions{
		Comma:         comma,
		BarcodeColumn: c.BarcodeCol,
		ClusterColumn: c.ClusterCol,
	}
}

func (c *Config) options() Options {
	return Options{
		Compress:      c.Gzip,
		ProgressEvery: c.Progress,
	}
}
