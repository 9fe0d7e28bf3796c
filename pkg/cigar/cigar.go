/*
Package cigar handles pairwise alignments in lastz cigar notation:

	cigar: <query> <qstart> <qend> <qstrand> <target> <tstart> <tend> <tstrand> <score> <op> <len> ...

refalign writes the PAF mapping quality into the score slot, so the
dipcall-style quality and length filters can be applied to these records
directly.
*/
package cigar

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/ComparativeGenomicsToolkit/refalign/pkg/lines"
)

// ErrMalformedRecord is returned for a record whose operation list is not made
// of (type, length) pairs, or whose numeric fields do not parse.
var ErrMalformedRecord = errors.New("malformed cigar record")

// Tag is the first field of every record
const Tag = "cigar:"

const (
	scoreField = 9
	opsField   = 10
)

// spanOps are the operation types counted towards a record's edit span
var spanOps = []string{"M", "I", "D"}

// Record is one cigar line split on whitespace
type Record struct {
	Fields []string
}

// Parse splits one cigar line into a Record
func Parse(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) < opsField {
		return Record{}, fmt.Errorf("%w: expected at least %d fields, got %d", ErrMalformedRecord, opsField, len(fields))
	}
	return Record{Fields: fields}, nil
}

// Query is the name of the query sequence
func (rec Record) Query() string {
	return rec.Fields[1]
}

// Target is the name of the target sequence
func (rec Record) Target() string {
	return rec.Fields[5]
}

// Score is the score slot, which holds the mapping quality in refalign's
// output.
func (rec Record) Score() (int, error) {
	score, err := strconv.Atoi(rec.Fields[scoreField])
	if err != nil {
		return 0, fmt.Errorf("%w: score %q is not an integer", ErrMalformedRecord, rec.Fields[scoreField])
	}
	return score, nil
}

// Ops is the flattened (type, length) operation list
func (rec Record) Ops() []string {
	return rec.Fields[opsField:]
}

// String formats the record as a cigar line (without newline)
func (rec Record) String() string {
	return strings.Join(rec.Fields, " ")
}

// EditSpan sums the lengths of the match, insertion and deletion operations
// of a flattened (type, length) list. Lengths of other operation types are
// validated but not counted.
func EditSpan(ops []string) (int, error) {
	if len(ops)%2 != 0 {
		return 0, fmt.Errorf("%w: odd number of operation fields (%d)", ErrMalformedRecord, len(ops))
	}
	span := 0
	for i := 0; i < len(ops); i += 2 {
		length, err := strconv.Atoi(ops[i+1])
		if err != nil {
			return 0, fmt.Errorf("%w: operation length %q is not an integer", ErrMalformedRecord, ops[i+1])
		}
		if slices.Contains(spanOps, ops[i]) {
			span += length
		}
	}
	return span, nil
}

// PassesQuality reports whether the record's mapping quality is at least minMapQ
func PassesQuality(rec Record, minMapQ int) (bool, error) {
	mapq, err := rec.Score()
	if err != nil {
		return false, err
	}
	return mapq >= minMapQ, nil
}

// PassesLength reports whether the record's edit span is at least minSpan
func PassesLength(rec Record, minSpan int) (bool, error) {
	span, err := EditSpan(rec.Ops())
	if err != nil {
		return false, err
	}
	return span >= minSpan, nil
}

// Filter applies the dipcall vcf-style filter: it keeps the records of r
// whose edit span is at least minSpan and whose mapping quality is at least
// minMapQ, writing them to w in input order. Header lines are dropped. It
// assumes secondary mappings have already been removed. The number of
// records written is returned.
func Filter(r io.Reader, w io.Writer, minSpan, minMapQ int) (int, error) {
	return lines.Filter(r, w, func(line string) (bool, error) {
		rec, err := Parse(line)
		if err != nil {
			return false, err
		}
		ok, err := PassesLength(rec, minSpan)
		if err != nil || !ok {
			return false, err
		}
		return PassesQuality(rec, minMapQ)
	})
}
