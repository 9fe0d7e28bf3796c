package refalign

import (
	"context"
	"fmt"

	"github.com/ComparativeGenomicsToolkit/refalign/pkg/blobstore"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/workflow"
)

// Alignments are the promised results of MapAllToRef
type Alignments struct {
	// Primary and Secondary are the consolidated cigar records of every
	// branch, in assembly order
	Primary   *workflow.Promise[blobstore.ID]
	Secondary *workflow.Promise[blobstore.ID]
	// Branches are in assembly order
	Branches []*Branch

	// Per assembly intermediate files, only kept when cfg.DebugExport is set
	Mappings    map[string]*workflow.Promise[blobstore.ID]
	Primaries   map[string]*workflow.Promise[blobstore.ID]
	Secondaries map[string]*workflow.Promise[blobstore.ID]
}

// MapAllToRef adds to g one branch per assembly other than reference, and
// the two jobs consolidating their primary and secondary records. It returns
// ErrMissingReference, without adding any job, if reference is not in
// assemblies.
func MapAllToRef(g *workflow.Graph, store blobstore.Store, assemblies *AssemblySet, reference string, cfg FilterConfig, stages Stages) (*Alignments, error) {
	target, ok := assemblies.Get(reference)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingReference, reference)
	}

	if err := stages.check(cfg); err != nil {
		return nil, err
	}

	var emptySecondary blobstore.ID
	if cfg.RegionFilter {
		var err error
		if emptySecondary, err = emptyBlob(store); err != nil {
			return nil, err
		}
	}

	a := &Alignments{}
	if cfg.DebugExport {
		a.Mappings = make(map[string]*workflow.Promise[blobstore.ID])
		a.Primaries = make(map[string]*workflow.Promise[blobstore.ID])
		a.Secondaries = make(map[string]*workflow.Promise[blobstore.ID])
	}

	primaries := make([]*workflow.Promise[blobstore.ID], 0, assemblies.Len())
	secondaries := make([]*workflow.Promise[blobstore.ID], 0, assemblies.Len())

	for _, name := range assemblies.Names() {
		if name == reference {
			continue
		}
		query, _ := assemblies.Get(name)
		b := newBranch(g, store, name, query, target, cfg, stages, emptySecondary)

		a.Branches = append(a.Branches, b)
		primaries = append(primaries, b.Primary)
		secondaries = append(secondaries, b.Secondary)

		if cfg.DebugExport {
			a.Mappings[name] = b.Mappings
			a.Primaries[name] = b.Primary
			a.Secondaries[name] = b.Secondary
		}
	}

	a.Primary = workflow.Join(g, "consolidate primary", primaries, func(_ context.Context, ids []blobstore.ID) (blobstore.ID, error) {
		return Consolidate(store, ids)
	})
	a.Secondary = workflow.Join(g, "consolidate secondary", secondaries, func(_ context.Context, ids []blobstore.ID) (blobstore.ID, error) {
		return Consolidate(store, ids)
	})

	return a, nil
}
