package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stderr)
	stop()
	if code := exitCode(err); code != 0 {
		newLogger(os.Stderr, false).Error(err)
		os.Exit(code)
	}
}

// exitCode maps the result of run to a process status. Asking for help is
// not a failure.
func exitCode(err error) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return 0
	}
	return 1
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	var cfg Config
	fs := flag.NewFlagSet("make_pseudobulks", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg.register(fs)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Create pseudobulks from fragment files and cell metadata\n\nUsage of %s:\n", fs.Name())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		fs.Usage()
		return err
	}

	t0 := time.Now()
	log := newLogger(stderr, cfg.Debug).WithField("run", xid.New().String())

	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	log.WithField("path", cfg.AnnotationsIn).Info("reading annotations")
	annotations, err := ReadAnnotationsFile(cfg.AnnotationsIn, cfg.annotationOptions())
	if err != nil {
		return err
	}
	ann := annotations
	if cfg.RevComp {
		ann = ann.ReverseComplemented()
		log.Debug("reverse-complemented annotation barcodes")
	}
	if cfg.Mismatches > 0 {
		var conflicts []string
		ann, conflicts = ann.WithMismatches(cfg.Mismatches)
		log.WithFields(logrus.Fields{
			"mismatches": cfg.Mismatches,
			"barcodes":   len(ann),
			"conflicts":  len(conflicts),
		}).Info("expanded barcodes")
	}

	opts := cfg.options()
	opts.Logger = log
	log.WithField("path", cfg.FragmentsIn).Info("starting demux")
	res, err := DemultiplexFile(ctx, ann, cfg.FragmentsIn, cfg.Outpath, opts)
	if err != nil {
		return err
	}
	log.Infof("Total barcodes sent to pseudobulks: %d", res.Routed)
	log.Infof("Total filtered barcodes: %d", res.Filtered)

	if cfg.Summary != "" {
		WriteSummary(cfg.Summary, annotations, res)
	}
	if cfg.Xlsx != "" {
		if err := WriteSummaryXlsx(cfg.Xlsx, annotations, res); err != nil {
			return fmt.Errorf("write %s: %w", cfg.Xlsx, err)
		}
	}
	if cfg.HTML != "" {
		out := osUtil.Create(cfg.HTML)
		defer simpleUtil.DeferClose(out)
		if err := PlotClusterSizes(out, res); err != nil {
			return fmt.Errorf("write %s: %w", cfg.HTML, err)
		}
	}

	if cfg.MemProfile != "" {
		f, err := os.Create(cfg.MemProfile)
		if err != nil {
			return fmt.Errorf("could not create memory profile: %w", err)
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("could not write memory profile: %w", err)
		}
	}

	log.WithField("elapsed", time.Since(t0).Round(time.Millisecond)).Info("done")
	return nil
}
