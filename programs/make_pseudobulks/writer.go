package main

import (
	"bufio"
	"io"
	"os"

	gzip "github.com/klauspost/pgzip"
)

// ClusterWriter appends fragment lines to one pseudobulk file.
// Call Close() when you're done!
type ClusterWriter struct {
	path  string
	file  *os.File
	gz    *gzip.Writer
	buf   *bufio.Writer
	lines int64
}

// NewClusterWriter opens path for appending, creating it if needed. With
// compress, every run appends a new gzip member to the file.
func NewClusterWriter(path string, compress bool) (*ClusterWriter, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	w := &ClusterWriter{
		path: path,
		file: file,
	}
	var dst io.Writer = file
	if compress {
		w.gz = gzip.NewWriter(file)
		dst = w.gz
	}
	w.buf = bufio.NewWriterSize(dst, 64<<10)
	return w, nil
}

func (w *ClusterWriter) Write(line []byte) error {
	if _, err := w.buf.Write(line); err != nil {
		return err
	}
	w.lines++
	return nil
}

// Flush pushes buffered lines down to the file.
func (w *ClusterWriter) Flush() error {
	if err := w.buf.Flush(); err != nil {
		return err
	}
	if w.gz != nil {
		return w.gz.Flush()
	}
	return nil
}

// Close flushes and releases the file. It is safe to call more than once;
// the first error encountered is returned.
func (w *ClusterWriter) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.buf.Flush()
	if w.gz != nil {
		if gerr := w.gz.Close(); err == nil {
			err = gerr
		}
		w.gz = nil
	}
	if ferr := w.file.Close(); err == nil {
		err = ferr
	}
	w.file = nil
	return err
}

func (w *ClusterWriter) Path() string { return w.path }

// Lines is the number of lines written during this run.
func (w *ClusterWriter) Lines() int64 { return w.lines }
