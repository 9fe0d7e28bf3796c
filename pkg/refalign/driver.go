package refalign

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/ComparativeGenomicsToolkit/refalign/pkg/blobstore"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/fasta"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/workflow"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// State is the stage a Driver has reached
type State int32

const (
	Idle State = iota
	Importing
	Aligning
	Publishing
	Done
	Failed
)

var stateNames = [...]string{"idle", "importing", "aligning", "publishing", "done", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int32(s))
	}
	return stateNames[s]
}

// Options are the settings of a Driver
type Options struct {
	Filters FilterConfig
	// Output is where the primary records are published; the secondary
	// records go next to it (see SecondaryPath)
	Output string
	// DebugExportDir receives every branch's intermediate files when
	// Filters.DebugExport is set
	DebugExportDir string
	// Jobs bounds the number of jobs running at once; < 1 is unbounded
	Jobs int
}

// Outputs describes a finished run
type Outputs struct {
	RunID            string
	Primary          string
	Secondary        string
	Debug            []string
	Branches         int
	PrimaryRecords   int
	SecondaryRecords int
}

// SecondaryPath is where the secondary records of a run publishing its
// primary records to output go.
func SecondaryPath(output string, variantFiltered bool) string {
	if variantFiltered {
		return output + ".unfiltered.secondary"
	}
	return output + ".secondary"
}

// Debug export file names
func mappingsPath(dir, name string) string {
	return filepath.Join(dir, "mappings_for_"+name+".paf")
}

func primaryPath(dir, name string) string {
	return filepath.Join(dir, "mappings_for_"+name+".cigar")
}

func secondaryDebugPath(dir, name string) string {
	return filepath.Join(dir, "mappings_for_"+name+".cigar.secondry")
}

// Driver runs a whole alignment: it renames the assemblies' contigs, builds
// and runs the job graph, then publishes the results.
type Driver struct {
	Store   blobstore.Store
	Stages  Stages
	Options Options
	Log     *log.Entry

	state int32
}

func NewDriver(store blobstore.Store, stages Stages, opts Options, logger *log.Entry) *Driver {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Driver{Store: store, Stages: stages, Options: opts, Log: logger}
}

// State is the stage the driver has reached
func (d *Driver) State() State {
	return State(atomic.LoadInt32(&d.state))
}

func (d *Driver) setState(s State, logger *log.Entry) {
	atomic.StoreInt32(&d.state, int32(s))
	logger.WithField("state", s.String()).Info("refalign state")
}

// Run aligns every assembly of assemblies to reference and publishes the
// consolidated records. The blobs of assemblies are replaced by their
// renamed versions. Nothing is published unless every job succeeded.
func (d *Driver) Run(ctx context.Context, assemblies *AssemblySet, reference string) (out *Outputs, err error) {
	runID := uuid.NewString()
	logger := d.Log.WithField("run", runID)

	defer func() {
		if err != nil {
			d.setState(Failed, logger.WithError(err))
		} else {
			d.setState(Done, logger)
		}
	}()

	if !assemblies.Contains(reference) {
		return nil, fmt.Errorf("%w: %s", ErrMissingReference, reference)
	}
	if d.Options.Output == "" {
		return nil, errors.New("no output path")
	}
	cfg := d.Options.Filters

	d.setState(Importing, logger)
	if err := d.normalize(ctx, assemblies, logger); err != nil {
		return nil, err
	}

	d.setState(Aligning, logger)
	g := workflow.New(ctx, d.Options.Jobs, logger)
	aln, err := MapAllToRef(g, d.Store, assemblies, reference, cfg, d.Stages)
	if err != nil {
		return nil, err
	}
	primary := aln.Primary
	if cfg.VariantFilter {
		primary = workflow.Then(g, "variant filter", aln.Primary, func(_ context.Context, id blobstore.ID) (blobstore.ID, error) {
			return variantFilter(d.Store, id, cfg)
		})
	}
	logger.WithField("branches", len(aln.Branches)).Infof("waiting for %d jobs", g.Jobs())
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// every promise is resolved once the graph is done
	done := context.Background()
	primaryID, _ := primary.Get(done)
	secondaryID, _ := aln.Secondary.Get(done)

	d.setState(Publishing, logger)
	out = &Outputs{
		RunID:     runID,
		Primary:   d.Options.Output,
		Secondary: SecondaryPath(d.Options.Output, cfg.VariantFilter),
		Branches:  len(aln.Branches),
	}
	files := []exportFile{{primaryID, out.Primary}, {secondaryID, out.Secondary}}
	if cfg.DebugExport {
		debug, err := d.debugFiles(aln)
		if err != nil {
			return nil, err
		}
		files = append(files, debug...)
	}
	if err := d.publish(files); err != nil {
		return nil, err
	}
	for _, f := range files[2:] {
		out.Debug = append(out.Debug, f.path)
	}

	if out.PrimaryRecords, err = CountRecords(d.Store, primaryID); err != nil {
		return nil, err
	}
	if out.SecondaryRecords, err = CountRecords(d.Store, secondaryID); err != nil {
		return nil, err
	}
	logger.WithFields(log.Fields{
		"branches":          out.Branches,
		"primary_records":   out.PrimaryRecords,
		"secondary_records": out.SecondaryRecords,
	}).Infof("wrote %s and %s", out.Primary, out.Secondary)

	return out, nil
}

// normalize gives every contig a name that is unique across assemblies, by
// prefixing it with the index of its assembly.
func (d *Driver) normalize(ctx context.Context, assemblies *AssemblySet, logger *log.Entry) error {
	g := workflow.New(ctx, d.Options.Jobs, logger)
	names := assemblies.Names()
	renamed := make([]*workflow.Promise[blobstore.ID], len(names))

	for i, name := range names {
		event := i
		id, _ := assemblies.Get(name)
		renamed[i] = workflow.Spawn(g, "rename "+name, func(context.Context) (blobstore.ID, error) {
			return blobstore.Transform(d.Store, id, func(r io.Reader, w io.Writer) error {
				_, err := fasta.PrependUniqueIDs(r, w, event)
				return err
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, name := range names {
		id, _ := renamed[i].Get(context.Background())
		if err := assemblies.Set(name, id); err != nil {
			return err
		}
	}
	return nil
}

// exportFile is a blob to be published at path
type exportFile struct {
	id   blobstore.ID
	path string
}

// publish exports every file under a temporary name and renames them into
// place, in order, once all are written. On failure the temporary files and
// any file already renamed are removed, so a run publishes all of its files
// or none of them.
func (d *Driver) publish(files []exportFile) (err error) {
	tag := ".tmp-" + uuid.NewString()
	staged := make([]string, 0, len(files))
	renamed := make([]string, 0, len(files))
	defer func() {
		if err == nil {
			return
		}
		for _, tmp := range staged {
			os.Remove(tmp)
		}
		for _, path := range renamed {
			os.Remove(path)
		}
	}()

	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
			return err
		}
		tmp := f.path + tag
		staged = append(staged, tmp)
		if err := d.Store.Export(f.id, tmp); err != nil {
			return err
		}
	}
	for i, f := range files {
		if err := os.Rename(staged[i], f.path); err != nil {
			return fmt.Errorf("%w, while publishing %s", err, f.path)
		}
		renamed = append(renamed, f.path)
	}
	return nil
}

// debugFiles lists every branch's mappings and cigar records with their
// paths in the debug export directory.
func (d *Driver) debugFiles(aln *Alignments) ([]exportFile, error) {
	dir := d.Options.DebugExportDir
	if dir == "" {
		dir = "."
	}

	done := context.Background()
	files := make([]exportFile, 0, 3*len(aln.Branches))
	for _, b := range aln.Branches {
		for _, f := range []struct {
			path string
			p    *workflow.Promise[blobstore.ID]
		}{
			{mappingsPath(dir, b.Assembly), aln.Mappings[b.Assembly]},
			{primaryPath(dir, b.Assembly), aln.Primaries[b.Assembly]},
			{secondaryDebugPath(dir, b.Assembly), aln.Secondaries[b.Assembly]},
		} {
			id, err := f.p.Get(done)
			if err != nil {
				return nil, err
			}
			files = append(files, exportFile{id, f.path})
		}
	}
	return files, nil
}
