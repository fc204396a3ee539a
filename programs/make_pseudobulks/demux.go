package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultProgressEvery is how many lines pass between progress entries.
const DefaultProgressEvery = 10_000_000

// Options tune a demultiplexing run.
type Options struct {
	// Compress writes <cluster>.tsv.gz instead of <cluster>.tsv.
	Compress bool
	Logger   logrus.FieldLogger
	// ProgressEvery also sets how often cancellation is checked.
	ProgressEvery int64
}

// Result counts what happened to every line of the fragment stream.
// Lines == Routed + Filtered + Skipped.
type Result struct {
	Lines    int64
	Routed   int64
	Filtered int64
	Skipped  int64
	// Clusters holds routed lines per cluster, including empty clusters.
	Clusters map[string]int64
}

// clusterPath returns the output file for a cluster label.
func clusterPath(outpath, cluster string, compress bool) (string, error) {
	if cluster == "." || cluster == ".." || strings.ContainsAny(cluster, `/`+string(os.PathSeparator)) {
		return "", fmt.Errorf("cluster label %q cannot be used as a file name", cluster)
	}
	name := cluster + ".tsv"
	if compress {
		name += ".gz"
	}
	return filepath.Join(outpath, name), nil
}

// DemultiplexFile opens a (possibly gzipped) fragment file and demultiplexes it.
func DemultiplexFile(ctx context.Context, ann Annotations, path, outpath string, opts Options) (Result, error) {
	r, err := openFragments(path)
	if err != nil {
		return Result{}, err
	}
	defer r.Close()
	return Demultiplex(ctx, ann, r, outpath, opts)
}

// Demultiplex appends every fragment line whose barcode is annotated to the
// file of its cluster under outpath. One file per cluster is opened before
// the first line is read, and all of them are flushed and closed before
// Demultiplex returns, whatever the outcome. Lines are copied verbatim,
// except that a final line without a newline is written with one appended.
func Demultiplex(ctx context.Context, ann Annotations, fragments io.Reader, outpath string, opts Options) (res Result, err error) {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	every := opts.ProgressEvery
	if every <= 0 {
		every = DefaultProgressEvery
	}

	clusters := ann.Clusters()
	if err := os.MkdirAll(outpath, 0o755); err != nil {
		return res, err
	}

	// Open all outputs!
	destinations := make(map[string]*ClusterWriter, len(clusters))
	defer func() {
		for _, cluster := range clusters {
			w, opened := destinations[cluster]
			if !opened {
				continue
			}
			if cerr := w.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close %s: %w", w.Path(), cerr)
			}
		}
	}()
	for _, cluster := range clusters {
		path, err := clusterPath(outpath, cluster, opts.Compress)
		if err != nil {
			return res, err
		}
		w, err := NewClusterWriter(path, opts.Compress)
		if err != nil {
			return res, err
		}
		destinations[cluster] = w
		log.WithField("path", path).Debug("opened pseudobulk")
	}
	log.WithFields(logrus.Fields{
		"clusters": len(clusters),
		"barcodes": len(ann),
	}).Info("created pseudobulk files")

	res.Clusters = make(map[string]int64, len(clusters))
	for _, cluster := range clusters {
		res.Clusters[cluster] = 0
	}

	if cerr := ctx.Err(); cerr != nil {
		return res, cerr
	}

	t0 := time.Now()
	fr := NewFragmentReader(fragments)
	for {
		line, rerr := fr.Next()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return res, fmt.Errorf("read fragments at line %d: %w", fr.Lines()+1, rerr)
		}
		res.Lines++

		if barcode, ok := fragmentBarcode(line); !ok {
			res.Skipped++
		} else if cluster, annotated := ann[string(barcode)]; !annotated {
			res.Filtered++
		} else {
			w := destinations[cluster]
			if werr := w.Write(line); werr != nil {
				return res, fmt.Errorf("write %s: %w", w.Path(), werr)
			}
			res.Routed++
			res.Clusters[cluster]++
		}

		if res.Lines%every == 0 {
			log.WithFields(logrus.Fields{
				"lines":   res.Lines,
				"routed":  res.Routed,
				"elapsed": time.Since(t0).Round(time.Millisecond),
			}).Info("progress")
			if cerr := ctx.Err(); cerr != nil {
				return res, cerr
			}
		}
	}

	log.WithFields(logrus.Fields{
		"lines":    res.Lines,
		"routed":   res.Routed,
		"filtered": res.Filtered,
		"skipped":  res.Skipped,
		"elapsed":  time.Since(t0).Round(time.Millisecond),
	}).Info("fragments demultiplexed")
	return res, nil
}
