package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shenwei356/xopen"
)

// DefaultBarcodeColumn is the annotation column holding bare ATGC barcodes.
const DefaultBarcodeColumn = "cellBC_formatted"

// Annotations maps cell barcodes to cluster labels
type Annotations map[string]string

// AnnotationOptions selects the columns and delimiter of an annotation table.
type AnnotationOptions struct {
	Comma         rune
	BarcodeColumn string
	ClusterColumn string
}

// ParseError reports an annotation table that cannot be turned into a
// barcode -> cluster mapping.
type ParseError struct {
	Path   string
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("annotations")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %q", e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	errNoHeader      = errors.New("missing header row")
	errMissingColumn = errors.New("not found in header")
	errShortRow      = errors.New("row has too few fields")
	errNoCluster     = errors.New("cluster column not set")
)

// Clusters returns the distinct cluster labels, sorted.
func (a Annotations) Clusters() []string {
	set := make(map[string]struct{})
	for _, cluster := range a {
		set[cluster] = struct{}{}
	}
	clusters := make([]string, 0, len(set))
	for cluster := range set {
		clusters = append(clusters, cluster)
	}
	sort.Strings(clusters)
	return clusters
}

// BarcodeCounts returns how many barcodes belong to each cluster.
func (a Annotations) BarcodeCounts() map[string]int {
	counts := make(map[string]int)
	for _, cluster := range a {
		counts[cluster]++
	}
	return counts
}

// ReadAnnotationsFile loads an annotation table from path. Compressed tables
// and "-" for stdin are accepted.
func ReadAnnotationsFile(path string, opts AnnotationOptions) (Annotations, error) {
	r, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("open annotations: %w", err)
	}
	defer r.Close()

	ann, err := ReadAnnotations(r, opts)
	var perr *ParseError
	if errors.As(err, &perr) {
		perr.Path = path
	}
	return ann, err
}

// ReadAnnotations reads a delimited table with a header row and maps the
// barcode column to the cluster column for every data row. When a barcode
// repeats, the last row wins.
func ReadAnnotations(r io.Reader, opts AnnotationOptions) (Annotations, error) {
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	if opts.BarcodeColumn == "" {
		opts.BarcodeColumn = DefaultBarcodeColumn
	}
	if opts.ClusterColumn == "" {
		return nil, &ParseError{Err: errNoCluster}
	}

	cr := csv.NewReader(r)
	cr.Comma = opts.Comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &ParseError{Line: 1, Err: errNoHeader}
	}
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	// a repeated header name refers to its last column
	bcIdx, clIdx := -1, -1
	for i, name := range header {
		if name == opts.BarcodeColumn {
			bcIdx = i
		}
		if name == opts.ClusterColumn {
			clIdx = i
		}
	}
	if bcIdx < 0 {
		return nil, &ParseError{Line: 1, Column: opts.BarcodeColumn, Err: errMissingColumn}
	}
	if clIdx < 0 {
		return nil, &ParseError{Line: 1, Column: opts.ClusterColumn, Err: errMissingColumn}
	}
	need := bcIdx
	if clIdx > need {
		need = clIdx
	}

	ann := make(Annotations)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		line, _ := cr.FieldPos(0)
		if len(record) <= need {
			return nil, &ParseError{Line: line, Err: errShortRow}
		}
		ann[record[bcIdx]] = record[clIdx]
	}
	return ann, nil
}
