/*
Package lines provides the line-oriented plumbing shared by the record
filters: streaming a mapping file while dropping header lines, and writing
the lines that survive a predicate in their input order.
*/
package lines

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/exascience/pargo/pipeline"
)

// HeaderPrefix marks header lines in the mapping files handled by refalign.
// They are dropped whenever a file is filtered or consolidated.
const HeaderPrefix = "@"

// maxLineSize bounds a single record. minimap2 --cs lines for whole
// chromosome alignments get very long.
const maxLineSize = 1 << 30

// IsHeader reports whether line is a header line
func IsHeader(line string) bool {
	return strings.HasPrefix(line, HeaderPrefix)
}

// record returns line without a trailing '\r', and false for blank and
// header lines.
func record(line string) (string, bool) {
	line = strings.TrimRight(line, "\r")
	if len(line) == 0 || IsHeader(line) {
		return "", false
	}
	return line, true
}

// Each calls fn on every non-header, non-empty line of r, in order and
// without the trailing newline, stopping at the first error. It returns the
// number of lines passed to fn.
func Each(r io.Reader, fn func(line string) error) (int, error) {
	n := 0
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for s.Scan() {
		line, ok := record(s.Text())
		if !ok {
			continue
		}
		if err := fn(line); err != nil {
			return n, err
		}
		n++
	}
	return n, s.Err()
}

// CopyRecords copies every non-header line of r to w and returns the number
// of lines written.
func CopyRecords(r io.Reader, w io.Writer) (int, error) {
	return Each(r, func(line string) error {
		_, err := io.WriteString(w, line+"\n")
		return err
	})
}

// Predicate decides whether a record line is kept. An error aborts the
// whole filter.
type Predicate func(line string) (bool, error)

// Filter writes the record lines of r for which keep returns true to w,
// preserving input order and discarding header lines. r is read in batches
// that are tested in parallel and written back strictly in order.
func Filter(r io.Reader, w io.Writer, keep Predicate) (int, error) {
	bw := bufio.NewWriter(w)
	written := 0

	scanner := pipeline.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var p pipeline.Pipeline
	p.Source(scanner)
	p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			batch := data.([]string)
			kept := batch[:0]
			for _, line := range batch {
				line, ok := record(line)
				if !ok {
					continue
				}
				ok, err := keep(line)
				if err != nil {
					p.SetErr(err)
					return kept
				}
				if ok {
					kept = append(kept, line)
				}
			}
			return kept
		})),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			for _, line := range data.([]string) {
				if _, err := bw.WriteString(line); err != nil {
					p.SetErr(fmt.Errorf("%w, while writing filtered records", err))
					return data
				}
				if err := bw.WriteByte('\n'); err != nil {
					p.SetErr(fmt.Errorf("%w, while writing filtered records", err))
					return data
				}
				written++
			}
			return data
		})),
	)
	p.Run()
	if err := p.Err(); err != nil {
		return 0, err
	}

	return written, bw.Flush()
}
