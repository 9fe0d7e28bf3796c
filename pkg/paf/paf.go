/*
Package paf reads minimap2's Pairwise mApping Format records and separates
primary from secondary mappings.
*/
package paf

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ComparativeGenomicsToolkit/refalign/pkg/lines"
)

var errShortRecord = errors.New("paf record has fewer than 12 columns")

// Alignment type tags written by minimap2
const (
	TypePrimary   = "tp:A:P"
	TypeInversion = "tp:A:I"
	TypeSecondary = "tp:A:S"
)

// NMandatory is the number of mandatory PAF columns
const NMandatory = 12

// Record is one PAF line. Tags holds the optional TAG:TYPE:VALUE fields in
// the order they appear.
type Record struct {
	QueryName   string
	QueryLen    int
	QueryStart  int
	QueryEnd    int
	Strand      byte
	TargetName  string
	TargetLen   int
	TargetStart int
	TargetEnd   int
	Matches     int
	BlockLen    int
	MapQ        int
	Tags        []string
}

// Parse parses one PAF line
func Parse(line string) (Record, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) < NMandatory {
		// some tools write PAF with spaces
		fields = strings.Fields(line)
	}
	if len(fields) < NMandatory {
		return Record{}, fmt.Errorf("%w: %q", errShortRecord, line)
	}

	var (
		rec  Record
		ints [9]int
		err  error
	)
	for i, col := range []int{1, 2, 3, 6, 7, 8, 9, 10, 11} {
		ints[i], err = strconv.Atoi(fields[col])
		if err != nil {
			return Record{}, fmt.Errorf("paf column %d (%q) is not an integer: %w", col+1, fields[col], err)
		}
	}
	if fields[4] != "+" && fields[4] != "-" {
		return Record{}, fmt.Errorf("invalid strand in paf record: %q", fields[4])
	}

	rec.QueryName = fields[0]
	rec.QueryLen, rec.QueryStart, rec.QueryEnd = ints[0], ints[1], ints[2]
	rec.Strand = fields[4][0]
	rec.TargetName = fields[5]
	rec.TargetLen, rec.TargetStart, rec.TargetEnd = ints[3], ints[4], ints[5]
	rec.Matches, rec.BlockLen, rec.MapQ = ints[6], ints[7], ints[8]
	rec.Tags = fields[NMandatory:]

	return rec, nil
}

// Tag returns the value of the first tag with the given name (e.g. "cg"),
// without the TAG:TYPE: prefix.
func (rec Record) Tag(name string) (string, bool) {
	for _, tag := range rec.Tags {
		if len(tag) > len(name)+3 && tag[:len(name)] == name && tag[len(name)] == ':' && tag[len(name)+2] == ':' {
			return tag[len(name)+3:], true
		}
	}
	return "", false
}

// IsPrimaryOrInversion reports whether any tag of the record marks it as a
// primary mapping or a primary inversion. Records without an alignment type
// tag are not primary.
func IsPrimaryOrInversion(rec Record) bool {
	return hasPrimaryTag(rec.Tags)
}

func hasPrimaryTag(tags []string) bool {
	for _, tag := range tags {
		if strings.HasPrefix(tag, TypePrimary) || strings.HasPrefix(tag, TypeInversion) {
			return true
		}
	}
	return false
}

// StripSecondaries copies the primary and inversion mappings of r to w in
// input order, discarding secondaries. It returns the number of records kept.
func StripSecondaries(r io.Reader, w io.Writer) (int, error) {
	return lines.Filter(r, w, func(line string) (bool, error) {
		fields := strings.Fields(line)
		if len(fields) < NMandatory {
			return false, fmt.Errorf("%w: %q", errShortRecord, line)
		}
		return hasPrimaryTag(fields[NMandatory:]), nil
	})
}
