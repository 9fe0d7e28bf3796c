package fasta

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

var (
	ErrBadlyFormedFasta = errors.New("badly formed fasta file")
	ErrEmptyHeader      = errors.New("fasta header with no ID")
)

type Reader struct {
	*bufio.Reader
}

func NewReader(f io.Reader) *Reader {
	return &Reader{bufio.NewReader(f)}
}

// trimNewline strips unix or dos newline characters from the end of line
func trimNewline(line []byte) []byte {
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return line
}

// Read reads one fasta record from the underlying reader. The final record is
// returned with error = nil, and the next call to Read() returns an empty Record
// struct and error = io.EOF. Blank lines before a header are skipped.
func (r *Reader) Read() (Record, error) {

	var (
		buffer, line, peek []byte
		err                error
		FR                 Record
	)

	// header
	for {
		line, err = r.ReadBytes('\n')
		line = trimNewline(line)
		if len(bytes.TrimSpace(line)) > 0 {
			break
		}
		if err != nil {
			return Record{}, err
		}
	}
	if line[0] != '>' {
		return Record{}, ErrBadlyFormedFasta
	}
	id, desc := bytes.TrimSpace(line[1:]), []byte(nil)
	if i := bytes.IndexAny(id, " \t"); i >= 0 {
		id, desc = id[:i], id[i:]
	}
	if len(id) == 0 {
		return Record{}, ErrEmptyHeader
	}
	// a file can end on a header line, which is then a record with no sequence
	if err == io.EOF {
		return Record{ID: string(id), Description: string(bytes.TrimSpace(desc))}, nil
	}
	FR.ID = string(id)
	FR.Description = string(bytes.TrimSpace(desc))

	for {
		// peek at the first next byte of the underlying reader, in order
		// to see if we've reached the end of this record (or the file)
		peek, err = r.Peek(1)

		// both these cases are fine, so we can exit the loop and return the fasta record
		if err == io.EOF || (err == nil && peek[0] == '>') {
			err = nil
			break

			// other errors are returned along with an empty fasta record
		} else if err != nil {
			return Record{}, err
		}

		// If we've got this far, this should be a sequence line.
		// The err from ReadBytes() may be io.EOF if the file ends before a newline character, but this is okay because it will
		// be caught when we peek in the next iteration of the loop.
		line, err = r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return Record{}, err
		}

		buffer = append(buffer, bytes.TrimSpace(line)...)
	}
	FR.Seq = string(buffer)

	return FR, err
}

// DefaultWrap is the sequence line width used when writing records
const DefaultWrap = 80

// Writer writes fasta records with sequence lines wrapped to a fixed width
type Writer struct {
	w    *bufio.Writer
	wrap int
}

// NewWriter returns a Writer wrapping sequence lines at wrap characters. A
// wrap <= 0 writes each sequence on one line.
func NewWriter(w io.Writer, wrap int) *Writer {
	return &Writer{w: bufio.NewWriter(w), wrap: wrap}
}

// Write writes one record
func (fw *Writer) Write(FR Record) error {
	if _, err := fw.w.WriteString(">" + FR.Header() + "\n"); err != nil {
		return err
	}
	if fw.wrap <= 0 {
		_, err := fw.w.WriteString(FR.Seq + "\n")
		return err
	}
	for written := 0; written < len(FR.Seq); written += fw.wrap {
		end := written + fw.wrap
		if end > len(FR.Seq) {
			end = len(FR.Seq)
		}
		if _, err := fw.w.WriteString(FR.Seq[written:end] + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes any buffered data to the underlying io.Writer
func (fw *Writer) Flush() error {
	return fw.w.Flush()
}

// PrependUniqueIDs copies the records in r to w, renaming each one with
// UniqueID(event, ID). It returns the number of records written.
func PrependUniqueIDs(r io.Reader, w io.Writer, event int) (int, error) {
	fr := NewReader(r)
	fw := NewWriter(w, DefaultWrap)
	n := 0
	for {
		record, err := fr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, err
		}
		record.ID = UniqueID(event, record.ID)
		if err = fw.Write(record); err != nil {
			return n, err
		}
		n++
	}
	return n, fw.Flush()
}
