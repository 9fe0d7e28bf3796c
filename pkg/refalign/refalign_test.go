package refalign

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/ComparativeGenomicsToolkit/refalign/pkg/blobstore"
	"github.com/ComparativeGenomicsToolkit/refalign/pkg/fasta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pafLine returns one PAF record of query q on chrR
func pafLine(q string, mapq int, cg, tp string) string {
	return strings.Join([]string{
		q, "100000", "0", "60000", "+",
		"chrR", "200000", "1000", "61000",
		"59000", "60000", fmt.Sprint(mapq),
		"tp:A:" + tp, "cg:Z:" + cg,
	}, "\t")
}

type mapCall struct {
	contigs []string
	strict  bool
}

// fakeMapper returns canned PAF records for every contig of the query,
// keyed by the contig's name without its unique ID prefix.
type fakeMapper struct {
	store   blobstore.Store
	records map[string][]func(q string) string
	fail    map[string]bool

	mu    sync.Mutex
	calls []mapCall
}

func (m *fakeMapper) Map(_ context.Context, query, _ blobstore.ID, strict bool) (blobstore.ID, error) {
	r, err := m.store.Open(query)
	if err != nil {
		return "", err
	}
	defer r.Close()

	fr := fasta.NewReader(r)
	out := new(bytes.Buffer)
	call := mapCall{strict: strict}
	for {
		rec, err := fr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		call.contigs = append(call.contigs, rec.ID)
		contig := rec.ID
		if _, id, ok := fasta.SplitUniqueID(rec.ID); ok {
			contig = id
		}
		if m.fail[contig] {
			return "", fmt.Errorf("%w: minimap2: exit status 1", ErrExternalTool)
		}
		for _, line := range m.records[contig] {
			out.WriteString(line(rec.ID) + "\n")
		}
	}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	return blobstore.Write(m.store, func(w io.Writer) error {
		_, err := w.Write(out.Bytes())
		return err
	})
}

func record(mapq int, cg, tp string) func(q string) string {
	return func(q string) string { return pafLine(q, mapq, cg, tp) }
}

type testRun struct {
	store      *blobstore.Dir
	assemblies *AssemblySet
	mapper     *fakeMapper
	stages     Stages
}

// newTestRun stores one single-contig assembly per name; the contig of
// assembly x is chr<x>.
func newTestRun(t *testing.T, names ...string) *testRun {
	store, err := blobstore.NewDir(t.TempDir())
	require.NoError(t, err)

	tr := &testRun{
		store:      store,
		assemblies: NewAssemblySet(),
		mapper:     &fakeMapper{store: store, records: map[string][]func(string) string{}, fail: map[string]bool{}},
	}
	for _, name := range names {
		id, err := blobstore.Write(store, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, ">chr%s\nACGTACGT\n", name)
			return err
		})
		require.NoError(t, err)
		require.NoError(t, tr.assemblies.Add(name, id))
	}
	tr.stages = DefaultStages(store, "minimap2", 1, "", nil, nil)
	tr.stages.Mapper = tr.mapper
	return tr
}

func readBlob(t *testing.T, store blobstore.Store, id blobstore.ID) string {
	r, err := store.Open(id)
	require.NoError(t, err)
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func readFile(t *testing.T, path string) string {
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func countLines(s string) int {
	return strings.Count(s, "\n")
}

func TestAssemblySet(t *testing.T) {
	s := NewAssemblySet()
	require.NoError(t, s.Add("b", "1"))
	require.NoError(t, s.Add("a", "2"))
	require.NoError(t, s.Add("c", "3"))

	assert.ErrorIs(t, s.Add("a", "4"), ErrDuplicateAssembly)
	assert.ErrorIs(t, s.Set("d", "4"), ErrUnknownAssembly)

	require.NoError(t, s.Set("a", "5"))
	id, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, blobstore.ID("5"), id)

	assert.Equal(t, []string{"b", "a", "c"}, s.Names())
	assert.Equal(t, 1, s.Index("a"))
	assert.Equal(t, -1, s.Index("d"))
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains("c"))

	names := s.Names()
	names[0] = "changed"
	assert.Equal(t, "b", s.Names()[0])
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "aligning", Aligning.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "State(42)", State(42).String())
}

func TestSecondaryPath(t *testing.T) {
	assert.Equal(t, "out.cigar.secondary", SecondaryPath("out.cigar", false))
	assert.Equal(t, "out.cigar.unfiltered.secondary", SecondaryPath("out.cigar", true))
}
