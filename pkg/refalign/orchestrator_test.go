package refalign

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/ComparativeGenomicsToolkit/refalign/pkg/blobstore"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapAllToRefBranches(t *testing.T) {
	tr := newTestRun(t, "a", "ref", "b", "c")
	for _, contig := range []string{"chra", "chrb", "chrc"} {
		tr.mapper.records[contig] = []func(string) string{
			record(60, "1000M", "P"),
			record(60, "500M2I500M", "S"),
			record(60, "1000M", "I"),
		}
	}

	g := workflow.New(context.Background(), 2, nil)
	aln, err := MapAllToRef(g, tr.store, tr.assemblies, "ref", DefaultFilterConfig(), tr.stages)
	require.NoError(t, err)
	require.NoError(t, g.Wait())

	require.Len(t, aln.Branches, 3)
	for i, name := range []string{"a", "b", "c"} {
		assert.Equal(t, name, aln.Branches[i].Assembly)
	}
	assert.Nil(t, aln.Mappings)

	primaryID, err := aln.Primary.Get(context.Background())
	require.NoError(t, err)
	secondaryID, err := aln.Secondary.Get(context.Background())
	require.NoError(t, err)

	primary := strings.Split(strings.TrimSuffix(readBlob(t, tr.store, primaryID), "\n"), "\n")
	secondary := strings.Split(strings.TrimSuffix(readBlob(t, tr.store, secondaryID), "\n"), "\n")

	// consolidated counts are the sums of the branch counts, in assembly order
	require.Len(t, primary, 6)
	require.Len(t, secondary, 3)
	assert.True(t, strings.HasPrefix(primary[0], "cigar: chra "))
	assert.True(t, strings.HasPrefix(primary[2], "cigar: chrb "))
	assert.True(t, strings.HasPrefix(primary[5], "cigar: chrc "))
	assert.Equal(t, "cigar: chrb 0 60000 + chrR 1000 61000 + 60 M 500 I 2 M 500", secondary[1])

	for _, call := range tr.mapper.calls {
		assert.False(t, call.strict)
	}
}

func TestMapAllToRefMissingReference(t *testing.T) {
	tr := newTestRun(t, "a", "b")

	g := workflow.New(context.Background(), 0, nil)
	_, err := MapAllToRef(g, tr.store, tr.assemblies, "ref", DefaultFilterConfig(), tr.stages)
	assert.ErrorIs(t, err, ErrMissingReference)
	assert.Equal(t, 0, g.Jobs())
	assert.NoError(t, g.Wait())
}

func TestMapAllToRefReferenceOnly(t *testing.T) {
	tr := newTestRun(t, "ref")

	g := workflow.New(context.Background(), 0, nil)
	aln, err := MapAllToRef(g, tr.store, tr.assemblies, "ref", DefaultFilterConfig(), tr.stages)
	require.NoError(t, err)
	require.NoError(t, g.Wait())

	assert.Empty(t, aln.Branches)
	assert.Empty(t, tr.mapper.calls)

	primaryID, _ := aln.Primary.Get(context.Background())
	secondaryID, _ := aln.Secondary.Get(context.Background())
	assert.Equal(t, "", readBlob(t, tr.store, primaryID))
	assert.Equal(t, "", readBlob(t, tr.store, secondaryID))
}

func TestMapAllToRefRegionFilter(t *testing.T) {
	tr := newTestRun(t, "ref", "a")
	tr.mapper.records["chra"] = []func(string) string{
		record(60, "60000M", "P"),
		record(60, "60000M", "I"),
		record(60, "60000M", "S"),
	}

	cfg := DefaultFilterConfig()
	cfg.RegionFilter = true
	cfg.DebugExport = true

	g := workflow.New(context.Background(), 0, nil)
	aln, err := MapAllToRef(g, tr.store, tr.assemblies, "ref", cfg, tr.stages)
	require.NoError(t, err)
	require.NoError(t, g.Wait())

	require.Len(t, tr.mapper.calls, 1)
	assert.True(t, tr.mapper.calls[0].strict)

	primaryID, _ := aln.Primary.Get(context.Background())
	secondaryID, _ := aln.Secondary.Get(context.Background())
	assert.Equal(t, 2, countLines(readBlob(t, tr.store, primaryID)))
	assert.Equal(t, "", readBlob(t, tr.store, secondaryID))

	// the raw mappings still hold the secondary record
	mappingsID, err := aln.Mappings["a"].Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, countLines(readBlob(t, tr.store, mappingsID)))
}

func TestMapAllToRefMissingStage(t *testing.T) {
	tr := newTestRun(t, "ref", "a")
	tr.stages.RegionFilter = nil
	cfg := DefaultFilterConfig()
	cfg.RegionFilter = true

	g := workflow.New(context.Background(), 0, nil)
	_, err := MapAllToRef(g, tr.store, tr.assemblies, "ref", cfg, tr.stages)
	assert.ErrorIs(t, err, errMissingStage)
	assert.Equal(t, 0, g.Jobs())
}

func TestConsolidateDropsHeaders(t *testing.T) {
	tr := newTestRun(t)
	write := func(s string) blobstore.ID {
		id, err := blobstore.Write(tr.store, func(w io.Writer) error {
			_, err := io.WriteString(w, s)
			return err
		})
		require.NoError(t, err)
		return id
	}

	id, err := Consolidate(tr.store, []blobstore.ID{
		write("@header one\ncigar: x 0 1 + y 0 1 + 5 M 1\n"),
		write(""),
		write("@header two\ncigar: z 0 1 + y 0 1 + 5 M 1\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "cigar: x 0 1 + y 0 1 + 5 M 1\ncigar: z 0 1 + y 0 1 + 5 M 1\n", readBlob(t, tr.store, id))

	n, err := CountRecords(tr.store, id)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
