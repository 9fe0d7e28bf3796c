// Package seqfile parses the seqFile manifest naming the assemblies of a run.
//
// A seqFile has an optional newick tree on its first line, then one
// "name path" pair per line. Lines starting with '#' and blank lines are
// ignored. A '*' before a name marks an outgroup; the marker is not part of
// the name.
package seqfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrDuplicateName = errors.New("duplicate assembly name in seqFile")
	ErrBadLine       = errors.New("badly formed seqFile line")
)

// Entry is one assembly of the manifest
type Entry struct {
	Name     string
	Path     string
	Outgroup bool
}

// Manifest is a parsed seqFile. Entries keep the order of the file.
type Manifest struct {
	Tree    string
	Entries []Entry
}

// Parse reads a seqFile from r
func Parse(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	seen := make(map[string]bool)

	s := bufio.NewScanner(r)
	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "(") {
			if m.Tree != "" || len(m.Entries) > 0 {
				return nil, fmt.Errorf("line %d: tree must come before the assemblies: %w", lineNo, ErrBadLine)
			}
			m.Tree = line
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: %q: %w", lineNo, line, ErrBadLine)
		}
		e := Entry{Name: fields[0], Path: fields[1]}
		if strings.HasPrefix(e.Name, "*") {
			e.Name = e.Name[1:]
			e.Outgroup = true
		}
		if e.Name == "" {
			return nil, fmt.Errorf("line %d: empty name: %w", lineNo, ErrBadLine)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("line %d: %s: %w", lineNo, e.Name, ErrDuplicateName)
		}
		seen[e.Name] = true
		m.Entries = append(m.Entries, e)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	return m, nil
}

// Read parses the seqFile at path
func Read(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Names returns the assembly names in file order
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		names[i] = e.Name
	}
	return names
}

// Path returns the path of the named assembly
func (m *Manifest) Path(name string) (string, bool) {
	for _, e := range m.Entries {
		if e.Name == name {
			return e.Path, true
		}
	}
	return "", false
}
