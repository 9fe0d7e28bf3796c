package refalign

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ComparativeGenomicsToolkit/refalign/pkg/blobstore"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/cigar"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/convert"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/lines"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/minimap2"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/paf"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/regions"
	log "github.com/sirupsen/logrus"
)

// Mapper aligns query to target and returns the PAF mappings. An empty
// result is not an error.
type Mapper interface {
	Map(ctx context.Context, query, target blobstore.ID, strict bool) (blobstore.ID, error)
}

// Converter turns PAF mappings into lastz cigar records, split into primary
// (and inversion) records and secondary records.
type Converter interface {
	Convert(ctx context.Context, mappings blobstore.ID) (primary, secondary blobstore.ID, err error)
}

// RegionFilter drops primary PAF mappings that fall outside the regions
// dipcall trusts.
type RegionFilter interface {
	Filter(ctx context.Context, mappings blobstore.ID) (blobstore.ID, error)
}

// Stages are the pluggable steps of a branch
type Stages struct {
	Mapper       Mapper
	Converter    Converter
	RegionFilter RegionFilter
}

var errMissingStage = errors.New("missing pipeline stage")

func (s Stages) check(cfg FilterConfig) error {
	switch {
	case s.Mapper == nil:
		return fmt.Errorf("%w: mapper", errMissingStage)
	case s.Converter == nil:
		return fmt.Errorf("%w: converter", errMissingStage)
	case cfg.RegionFilter && s.RegionFilter == nil:
		return fmt.Errorf("%w: region filter", errMissingStage)
	}
	return nil
}

// Minimap2Mapper runs minimap2 on local copies of the blobs
type Minimap2Mapper struct {
	Store   blobstore.Store
	Path    string
	Threads int
	// WorkDir holds the per-call temporary directories; empty means the
	// system temporary directory
	WorkDir string
	Log     *log.Entry
}

func (m *Minimap2Mapper) Map(ctx context.Context, query, target blobstore.ID, strict bool) (blobstore.ID, error) {
	dir, err := os.MkdirTemp(m.WorkDir, "minimap2-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	var (
		queryPath  = filepath.Join(dir, "query.fa")
		targetPath = filepath.Join(dir, "target.fa")
		outPath    = filepath.Join(dir, "mappings.paf")
	)
	if err := m.Store.Export(query, queryPath); err != nil {
		return "", err
	}
	if err := m.Store.Export(target, targetPath); err != nil {
		return "", err
	}

	opts := minimap2.New(m.Path, queryPath, targetPath, outPath, m.Threads, strict)
	if m.Log != nil {
		if args, err := opts.Args(); err == nil {
			m.Log.WithField("query", query.Short()).Debugf("running %s", strings.Join(args, " "))
		}
	}
	if err := minimap2.Run(ctx, opts); err != nil {
		return "", err
	}

	if _, err := os.Stat(outPath); errors.Is(err, fs.ErrNotExist) {
		return emptyBlob(m.Store)
	}
	return m.Store.Import(outPath)
}

// CigarConverter converts PAF blobs with convert.PafToCigar
type CigarConverter struct {
	Store blobstore.Store
}

func (c *CigarConverter) Convert(_ context.Context, mappings blobstore.ID) (blobstore.ID, blobstore.ID, error) {
	r, err := c.Store.Open(mappings)
	if err != nil {
		return "", "", err
	}
	defer r.Close()

	pw, err := c.Store.Create()
	if err != nil {
		return "", "", err
	}
	sw, err := c.Store.Create()
	if err != nil {
		pw.Abort()
		return "", "", err
	}

	if _, _, err := convert.PafToCigar(r, pw, sw); err != nil {
		pw.Abort()
		sw.Abort()
		return "", "", err
	}

	primary, err := pw.Commit()
	if err != nil {
		sw.Abort()
		return "", "", err
	}
	secondary, err := sw.Commit()
	if err != nil {
		return "", "", err
	}
	return primary, secondary, nil
}

// BedRegionFilter applies a regions.Filter to PAF blobs
type BedRegionFilter struct {
	Store   blobstore.Store
	Regions *regions.Filter
}

func (f *BedRegionFilter) Filter(_ context.Context, mappings blobstore.ID) (blobstore.ID, error) {
	return blobstore.Transform(f.Store, mappings, func(r io.Reader, w io.Writer) error {
		_, err := f.Regions.Apply(r, w)
		return err
	})
}

// DefaultStages returns the minimap2, cigar conversion and BED region filter
// stages
func DefaultStages(store blobstore.Store, aligner string, threads int, workDir string, regionFilter *regions.Filter, logger *log.Entry) Stages {
	if regionFilter == nil {
		regionFilter = &regions.Filter{MinAlignmentLength: regions.DefaultMinAlignmentLength}
	}
	return Stages{
		Mapper:       &Minimap2Mapper{Store: store, Path: aligner, Threads: threads, WorkDir: workDir, Log: logger},
		Converter:    &CigarConverter{Store: store},
		RegionFilter: &BedRegionFilter{Store: store, Regions: regionFilter},
	}
}

// stripSecondaries keeps the primary and inversion records of a PAF blob
func stripSecondaries(store blobstore.Store, mappings blobstore.ID) (blobstore.ID, error) {
	return blobstore.Transform(store, mappings, func(r io.Reader, w io.Writer) error {
		_, err := paf.StripSecondaries(r, w)
		return err
	})
}

// variantFilter is the dipcall vcf filter on a cigar blob
func variantFilter(store blobstore.Store, records blobstore.ID, cfg FilterConfig) (blobstore.ID, error) {
	return blobstore.Transform(store, records, func(r io.Reader, w io.Writer) error {
		_, err := cigar.Filter(r, w, cfg.MinVariationLength, cfg.MinMappingQuality)
		return err
	})
}

// Consolidate concatenates the records of blobs, in order, dropping their
// header lines.
func Consolidate(store blobstore.Store, blobs []blobstore.ID) (blobstore.ID, error) {
	return blobstore.Write(store, func(w io.Writer) error {
		for _, id := range blobs {
			r, err := store.Open(id)
			if err != nil {
				return err
			}
			_, err = lines.CopyRecords(r, w)
			r.Close()
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// CountRecords is the number of non-header lines in a blob
func CountRecords(store blobstore.Store, id blobstore.ID) (int, error) {
	r, err := store.Open(id)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	return lines.CopyRecords(r, io.Discard)
}

func emptyBlob(store blobstore.Store) (blobstore.ID, error) {
	return blobstore.Write(store, func(io.Writer) error { return nil })
}
