package blobstore

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, s Store, id ID) string {
	t.Helper()
	r, err := s.Open(id)
	require.NoError(t, err)
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func TestWriteAndOpen(t *testing.T) {
	d, err := NewDir(t.TempDir())
	require.NoError(t, err)

	id, err := Write(d, func(w io.Writer) error {
		_, err := io.WriteString(w, ">seq1\nACGT\n")
		return err
	})
	require.NoError(t, err)
	assert.Len(t, string(id), 64)
	assert.Equal(t, ">seq1\nACGT\n", readAll(t, d, id))
}

func TestContentAddressing(t *testing.T) {
	d, err := NewDir(t.TempDir())
	require.NoError(t, err)

	write := func(s string) ID {
		id, err := Write(d, func(w io.Writer) error {
			_, err := io.WriteString(w, s)
			return err
		})
		require.NoError(t, err)
		return id
	}

	a := write("same content")
	b := write("same content")
	c := write("other content")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	empty := write("")
	assert.Equal(t, "", readAll(t, d, empty))

	tmp, err := os.ReadDir(filepath.Join(d.Root(), "tmp"))
	require.NoError(t, err)
	assert.Empty(t, tmp, "temporary files left behind")
}

func TestWriteError(t *testing.T) {
	d, err := NewDir(t.TempDir())
	require.NoError(t, err)

	errTest := errors.New("stage failed")
	_, err = Write(d, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return errTest
	})
	assert.ErrorIs(t, err, errTest)

	tmp, err := os.ReadDir(filepath.Join(d.Root(), "tmp"))
	require.NoError(t, err)
	assert.Empty(t, tmp, "aborted blob left behind")
}

func TestOpenMissing(t *testing.T) {
	d, err := NewDir(t.TempDir())
	require.NoError(t, err)
	_, err = d.Open(ID("0123456789abcdef"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImportExport(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDir(filepath.Join(dir, "store"))
	require.NoError(t, err)

	in := filepath.Join(dir, "in.fa")
	require.NoError(t, os.WriteFile(in, []byte(">a\nACGT\n"), 0644))

	id, err := d.Import(in)
	require.NoError(t, err)

	out := filepath.Join(dir, "out.fa")
	require.NoError(t, d.Export(id, out))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, ">a\nACGT\n", string(b))
}

func TestTransform(t *testing.T) {
	d, err := NewDir(t.TempDir())
	require.NoError(t, err)

	in, err := Write(d, func(w io.Writer) error {
		_, err := io.WriteString(w, "acgt")
		return err
	})
	require.NoError(t, err)

	out, err := Transform(d, in, func(r io.Reader, w io.Writer) error {
		b, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, strings.ToUpper(string(b)))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "ACGT", readAll(t, d, out))
	assert.Equal(t, "acgt", readAll(t, d, in))
}
