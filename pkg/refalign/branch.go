package refalign

import (
	"context"

	"github.com/ComparativeGenomicsToolkit/refalign/pkg/blobstore"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/workflow"
)

// Branch holds the jobs aligning one assembly to the reference
type Branch struct {
	Assembly string
	// Mappings is the raw minimap2 output
	Mappings *workflow.Promise[blobstore.ID]
	// Primary and Secondary are lastz cigar records
	Primary   *workflow.Promise[blobstore.ID]
	Secondary *workflow.Promise[blobstore.ID]
}

type cigarPair struct {
	primary, secondary blobstore.ID
}

// newBranch adds the jobs aligning query to target to g. The region filter
// jobs are only added when cfg asks for them; the branch's secondary records
// are then empty, since only primary mappings reach the converter.
// emptySecondary must be set in that case.
func newBranch(g *workflow.Graph, store blobstore.Store, name string, query, target blobstore.ID, cfg FilterConfig, stages Stages, emptySecondary blobstore.ID) *Branch {
	b := &Branch{Assembly: name}

	strict := cfg.strict()
	b.Mappings = workflow.Spawn(g, "map "+name, func(ctx context.Context) (blobstore.ID, error) {
		return stages.Mapper.Map(ctx, query, target, strict)
	})

	toConvert := b.Mappings
	if cfg.RegionFilter {
		primary := workflow.Then(g, "strip secondaries "+name, b.Mappings, func(_ context.Context, id blobstore.ID) (blobstore.ID, error) {
			return stripSecondaries(store, id)
		})
		toConvert = workflow.Then(g, "region filter "+name, primary, stages.RegionFilter.Filter)
	}

	converted := workflow.Then(g, "convert "+name, toConvert, func(ctx context.Context, id blobstore.ID) (cigarPair, error) {
		p, s, err := stages.Converter.Convert(ctx, id)
		return cigarPair{primary: p, secondary: s}, err
	})

	b.Primary = workflow.Map(g, "primary "+name, converted, func(c cigarPair) blobstore.ID {
		return c.primary
	})
	b.Secondary = workflow.Map(g, "secondary "+name, converted, func(c cigarPair) blobstore.ID {
		if cfg.RegionFilter {
			return emptySecondary
		}
		return c.secondary
	})

	return b
}
