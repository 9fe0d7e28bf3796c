/*
Package blobstore is a content-addressed store for the intermediate files of
a run. Blobs are immutable: a stage reads its inputs by ID and writes its
output as a new blob, whose ID is the blake2b-256 digest of its content.
Blobs are kept snappy-compressed on disk.
*/
package blobstore

import (
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// ErrNotFound is returned when a blob is not in the store
var ErrNotFound = errors.New("blob not found")

// ID is the hex encoded digest of a blob's content
type ID string

// Short is an abbreviated ID for log messages
func (id ID) Short() string {
	if len(id) > 12 {
		return string(id[:12])
	}
	return string(id)
}

// Store is what the pipeline stages need from a blob store
type Store interface {
	// Create starts a new blob
	Create() (*Writer, error)
	// Open returns a reader over the content of a blob
	Open(id ID) (io.ReadCloser, error)
	// Import copies a local file into the store
	Import(path string) (ID, error)
	// Export writes the content of a blob to a local file
	Export(id ID, path string) error
}

// Dir is a Store kept in a local directory
type Dir struct {
	root string
}

const blobExt = ".sz"

// NewDir returns a Store rooted at root, creating the directory if needed
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(filepath.Join(root, "tmp"), 0755); err != nil {
		return nil, err
	}
	return &Dir{root: root}, nil
}

// Root is the directory the store lives in
func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) path(id ID) string {
	s := string(id)
	if len(s) < 2 {
		return filepath.Join(d.root, s+blobExt)
	}
	return filepath.Join(d.root, s[:2], s+blobExt)
}

// Writer writes one blob. Nothing is visible in the store until Commit.
type Writer struct {
	d    *Dir
	f    *os.File
	sz   *snappy.Writer
	h    hash.Hash
	w    io.Writer
	done bool
}

// Create starts a new blob
func (d *Dir) Create() (*Writer, error) {
	f, err := os.Create(filepath.Join(d.root, "tmp", uuid.New().String()))
	if err != nil {
		return nil, err
	}
	h, err := blake2b.New256(nil)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	sz := snappy.NewBufferedWriter(f)
	return &Writer{d: d, f: f, sz: sz, h: h, w: io.MultiWriter(h, sz)}, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	return w.w.Write(p)
}

// Commit closes the blob and makes it available under its content ID
func (w *Writer) Commit() (ID, error) {
	if w.done {
		return "", errors.New("blob already committed or aborted")
	}
	w.done = true

	if err := w.sz.Close(); err != nil {
		w.f.Close()
		os.Remove(w.f.Name())
		return "", err
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.f.Name())
		return "", err
	}

	id := ID(hex.EncodeToString(w.h.Sum(nil)))
	target := w.d.path(id)

	if _, err := os.Stat(target); err == nil {
		// identical content is already stored
		return id, os.Remove(w.f.Name())
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		os.Remove(w.f.Name())
		return "", err
	}
	if err := os.Rename(w.f.Name(), target); err != nil {
		os.Remove(w.f.Name())
		return "", err
	}

	return id, nil
}

// Abort discards the blob. It is safe to call after Commit.
func (w *Writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	w.sz.Close()
	w.f.Close()
	return os.Remove(w.f.Name())
}

type blobReader struct {
	*snappy.Reader
	f *os.File
}

func (r blobReader) Close() error {
	return r.f.Close()
}

// Open returns a reader over the content of a blob
func (d *Dir) Open(id ID) (io.ReadCloser, error) {
	f, err := os.Open(d.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return blobReader{Reader: snappy.NewReader(f), f: f}, nil
}

// Import copies a local file into the store
func (d *Dir) Import(path string) (ID, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()
	return Write(d, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

// Export writes the content of a blob to path
func (d *Dir) Export(id ID, path string) (err error) {
	r, err := d.Open(id)
	if err != nil {
		return err
	}
	defer r.Close()

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, r)
	return err
}

// Write creates a blob from whatever fn writes
func Write(s Store, fn func(w io.Writer) error) (ID, error) {
	w, err := s.Create()
	if err != nil {
		return "", err
	}
	if err := fn(w); err != nil {
		w.Abort()
		return "", err
	}
	return w.Commit()
}

// Transform reads blob in, passes it through fn and stores the result as a
// new blob.
func Transform(s Store, in ID, fn func(r io.Reader, w io.Writer) error) (ID, error) {
	r, err := s.Open(in)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return Write(s, func(w io.Writer) error {
		return fn(r, w)
	})
}
