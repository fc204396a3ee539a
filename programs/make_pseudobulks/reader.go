package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shenwei356/xopen"
)

const fragmentFields = 5

// FragmentReader yields the lines of a fragment stream one at a time. The
// returned slice is reused by the next call.
type FragmentReader struct {
	br   *bufio.Reader
	line []byte
	n    int64
}

// NewFragmentReader wraps an already decompressed fragment stream.
func NewFragmentReader(r io.Reader) *FragmentReader {
	return &FragmentReader{
		br:   bufio.NewReaderSize(r, 1<<20),
		line: make([]byte, 0, 256),
	}
}

// Next returns the next line including its newline. A final line without
// one gets it appended. io.EOF marks the end of the stream.
func (fr *FragmentReader) Next() ([]byte, error) {
	fr.line = fr.line[:0]
	for {
		chunk, err := fr.br.ReadSlice('\n')
		fr.line = append(fr.line, chunk...)
		switch err {
		case nil:
			fr.n++
			return fr.line, nil
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			if len(fr.line) == 0 {
				return nil, io.EOF
			}
			fr.line = append(fr.line, '\n')
			fr.n++
			return fr.line, nil
		default:
			return nil, err
		}
	}
}

// Lines is the number of lines returned so far.
func (fr *FragmentReader) Lines() int64 { return fr.n }

// fragmentBarcode returns the barcode field of a fragment line. ok is false
// unless the line, without its newline, splits into exactly five
// tab-separated fields.
func fragmentBarcode(line []byte) (barcode []byte, ok bool) {
	body := bytes.TrimSuffix(line, []byte{'\n'})
	var tabs [fragmentFields]int
	n := 0
	for i, c := range body {
		if c != '\t' {
			continue
		}
		if n == fragmentFields-1 {
			return nil, false
		}
		tabs[n] = i
		n++
	}
	if n != fragmentFields-1 {
		return nil, false
	}
	return body[tabs[2]+1 : tabs[3]], true
}

// openFragments opens a fragment file, decompressing it if needed. A file
// with no content, compressed or not, is read as an empty stream.
func openFragments(path string) (io.ReadCloser, error) {
	r, err := xopen.Ropen(path)
	if errors.Is(err, xopen.ErrNoContent) {
		return io.NopCloser(strings.NewReader("")), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open fragments: %w", err)
	}
	return r, nil
}
