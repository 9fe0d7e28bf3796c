// Package fasta reads and writes fasta files and renames their records with
// the unique, event-prefixed contig names used throughout a run.
package fasta

import (
	"fmt"
	"strconv"
	"strings"
)

// A struct for one Fasta record
type Record struct {
	ID          string
	Description string // header text after the ID, if any
	Seq         string
	Idx         int
}

// Header returns the record's header line without the leading '>'
func (FR Record) Header() string {
	if FR.Description == "" {
		return FR.ID
	}
	return FR.ID + " " + FR.Description
}

// UniqueIDPrefix starts every renamed contig
const UniqueIDPrefix = "id="

// UniqueID returns the name of contig id once it has been prefixed with its
// event (assembly) number, e.g. "id=2|chr1".
func UniqueID(event int, id string) string {
	return fmt.Sprintf("%s%d|%s", UniqueIDPrefix, event, id)
}

// SplitUniqueID is the inverse of UniqueID. ok is false if name is not a
// renamed contig.
func SplitUniqueID(name string) (event int, id string, ok bool) {
	if !strings.HasPrefix(name, UniqueIDPrefix) {
		return 0, "", false
	}
	num, id, found := strings.Cut(name[len(UniqueIDPrefix):], "|")
	if !found {
		return 0, "", false
	}
	event, err := strconv.Atoi(num)
	if err != nil {
		return 0, "", false
	}
	return event, id, true
}
