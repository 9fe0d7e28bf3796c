/*
Package convert turns minimap2 PAF output into lastz cigar records, routing
primary mappings and secondary mappings to separate outputs.
*/
package convert

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	biogosam "github.com/biogo/hts/sam"

	"github.com/ComparativeGenomicsToolkit/refalign/pkg/cigar"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/lines"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/paf"
)

var errNoCigar = errors.New("paf record has no cg:Z tag: was minimap2 run with -c?")

// lastzOp maps a SAM CIGAR operation onto the lastz operation alphabet. Clips,
// padding and skips have no lastz equivalent and are dropped.
func lastzOp(t biogosam.CigarOpType) (string, bool) {
	switch t {
	case biogosam.CigarMatch, biogosam.CigarEqual, biogosam.CigarMismatch:
		return "M", true
	case biogosam.CigarInsertion:
		return "I", true
	case biogosam.CigarDeletion:
		return "D", true
	default:
		return "", false
	}
}

// Ops flattens a SAM CIGAR into lastz (type, length) pairs, merging adjacent
// operations that map to the same lastz type.
func Ops(c biogosam.Cigar) []string {
	ops := make([]string, 0, 2*len(c))
	lastType := ""
	lastLen := 0
	for _, op := range c {
		t, ok := lastzOp(op.Type())
		if !ok {
			continue
		}
		if t == lastType {
			lastLen += op.Len()
			continue
		}
		if lastType != "" {
			ops = append(ops, lastType, strconv.Itoa(lastLen))
		}
		lastType = t
		lastLen = op.Len()
	}
	if lastType != "" {
		ops = append(ops, lastType, strconv.Itoa(lastLen))
	}
	return ops
}

// ToCigar converts one PAF record into a lastz cigar record. The mapping
// quality is written in the score slot. Reverse strand query coordinates are
// written end first.
func ToCigar(rec paf.Record) (cigar.Record, error) {
	cg, ok := rec.Tag("cg")
	if !ok {
		return cigar.Record{}, fmt.Errorf("%w (query %s)", errNoCigar, rec.QueryName)
	}
	c, err := biogosam.ParseCigar([]byte(cg))
	if err != nil {
		return cigar.Record{}, fmt.Errorf("bad cg:Z tag for query %s: %w", rec.QueryName, err)
	}

	qstart, qend := rec.QueryStart, rec.QueryEnd
	if rec.Strand == '-' {
		qstart, qend = qend, qstart
	}

	fields := []string{
		cigar.Tag,
		rec.QueryName, strconv.Itoa(qstart), strconv.Itoa(qend), string(rec.Strand),
		rec.TargetName, strconv.Itoa(rec.TargetStart), strconv.Itoa(rec.TargetEnd), "+",
		strconv.Itoa(rec.MapQ),
	}
	fields = append(fields, Ops(c)...)

	return cigar.Record{Fields: fields}, nil
}

// PafToCigar reads PAF records from r one line at a time and writes them as
// lastz cigar records, primary and inversion mappings to primary and
// everything else to secondary. Input order is kept within each output. It
// returns the number of records written to each.
func PafToCigar(r io.Reader, primary, secondary io.Writer) (int, int, error) {
	pw := bufio.NewWriter(primary)
	sw := bufio.NewWriter(secondary)
	nP, nS := 0, 0

	_, err := lines.Each(r, func(line string) error {
		rec, err := paf.Parse(line)
		if err != nil {
			return err
		}
		c, err := ToCigar(rec)
		if err != nil {
			return err
		}
		w := sw
		if paf.IsPrimaryOrInversion(rec) {
			w = pw
			nP++
		} else {
			nS++
		}
		if _, err := w.WriteString(strings.Join(c.Fields, " ") + "\n"); err != nil {
			return fmt.Errorf("%w, while writing cigar records", err)
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	if err := pw.Flush(); err != nil {
		return 0, 0, err
	}
	if err := sw.Flush(); err != nil {
		return 0, 0, err
	}

	return nP, nS, nil
}
