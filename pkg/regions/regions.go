/*
Package regions implements the dipcall-style region filter applied to
primary mappings before they are converted: mappings that are too short to
be trusted, or that fall into excluded regions of the reference, are dropped.
*/
package regions

import (
	"io"
	"os"

	"github.com/ComparativeGenomicsToolkit/refalign/pkg/lines"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/paf"
)

// DefaultMinAlignmentLength is dipcall's minimum alignment length (paftools
// call -l) for an alignment to contribute to the confident regions.
const DefaultMinAlignmentLength = 10000

// Filter holds the settings of one region filter
type Filter struct {
	// Excluded holds reference regions, keyed by target name, that
	// mappings must not overlap. Each slice is sorted and flattened.
	Excluded map[string][]Interval
	// MinAlignmentLength is the shortest alignment block kept
	MinAlignmentLength int
}

// NewFilter returns a Filter excluding the regions in bedFile. An empty
// bedFile excludes nothing.
func NewFilter(bedFile string, minAlignmentLength int) (*Filter, error) {
	f := &Filter{
		Excluded:           make(map[string][]Interval),
		MinAlignmentLength: minAlignmentLength,
	}
	if bedFile == "" {
		return f, nil
	}
	bed, err := os.Open(bedFile)
	if err != nil {
		return nil, err
	}
	defer bed.Close()
	f.Excluded, err = ParseBed(bed)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Keep reports whether a PAF record survives the filter
func (f *Filter) Keep(rec paf.Record) bool {
	if rec.BlockLen < f.MinAlignmentLength {
		return false
	}
	excluded, ok := f.Excluded[rec.TargetName]
	if !ok {
		return true
	}
	return !Overlap(excluded, rec.TargetStart, rec.TargetEnd)
}

// Apply copies the records of the PAF stream r that pass the filter to w, in
// input order, and returns how many were kept.
func (f *Filter) Apply(r io.Reader, w io.Writer) (int, error) {
	return lines.Filter(r, w, func(line string) (bool, error) {
		rec, err := paf.Parse(line)
		if err != nil {
			return false, err
		}
		return f.Keep(rec), nil
	})
}
