/*
Package refalign aligns a set of assemblies to one of them, the reference.

Every other assembly gets a branch of jobs: a minimap2 mapping against the
reference, optionally the dipcall region filter, and the conversion to lastz
cigar records. The branches' primary and secondary records are then
consolidated into one file each, optionally passed through the dipcall
variant filter, and published.
*/
package refalign

import (
	"errors"
	"fmt"

	"github.com/ComparativeGenomicsToolkit/refalign/pkg/blobstore"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/minimap2"
	"golang.org/x/exp/slices"
)

var (
	ErrMissingReference  = errors.New("reference is not in the assembly set")
	ErrDuplicateAssembly = errors.New("duplicate assembly name")
	ErrUnknownAssembly   = errors.New("unknown assembly")

	// ErrExternalTool is returned when the aligner exits with an error
	ErrExternalTool = minimap2.ErrExternalTool
)

// AssemblySet maps assembly names to their blobs. Names are iterated in the
// order they were added.
type AssemblySet struct {
	names []string
	ids   map[string]blobstore.ID
}

func NewAssemblySet() *AssemblySet {
	return &AssemblySet{ids: make(map[string]blobstore.ID)}
}

// Add appends an assembly to the set
func (s *AssemblySet) Add(name string, id blobstore.ID) error {
	if _, ok := s.ids[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAssembly, name)
	}
	s.names = append(s.names, name)
	s.ids[name] = id
	return nil
}

// Set replaces the blob of an assembly already in the set, keeping its place
func (s *AssemblySet) Set(name string, id blobstore.ID) error {
	if _, ok := s.ids[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAssembly, name)
	}
	s.ids[name] = id
	return nil
}

func (s *AssemblySet) Get(name string) (blobstore.ID, bool) {
	id, ok := s.ids[name]
	return id, ok
}

func (s *AssemblySet) Contains(name string) bool {
	_, ok := s.ids[name]
	return ok
}

// Names returns the assembly names in order
func (s *AssemblySet) Names() []string {
	return slices.Clone(s.names)
}

// Index is the position of name in the set, or -1
func (s *AssemblySet) Index(name string) int {
	return slices.Index(s.names, name)
}

func (s *AssemblySet) Len() int {
	return len(s.names)
}

// FilterConfig selects the optional stages of a run and their thresholds
type FilterConfig struct {
	// MinVariationLength is the shortest edit span (M+I+D) kept by the
	// variant filter
	MinVariationLength int
	// MinMappingQuality is the lowest mapping quality kept by the variant
	// filter
	MinMappingQuality int
	// RegionFilter runs the dipcall region filter on every branch
	RegionFilter bool
	// VariantFilter runs the dipcall variant filter on the consolidated
	// primary records
	VariantFilter bool
	// DebugExport keeps every branch's intermediate files
	DebugExport bool
}

// DefaultFilterConfig returns the thresholds dipcall uses, with both filters off
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinVariationLength: 50000,
		MinMappingQuality:  5,
	}
}

// strict reports whether mappings need the parameters the filters expect
func (cfg FilterConfig) strict() bool {
	return cfg.RegionFilter || cfg.VariantFilter
}
