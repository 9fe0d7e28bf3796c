// Package minimap2 runs the minimap2 pairwise aligner.
package minimap2

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/biogo/external"
)

var (
	// ErrMissingRequired is returned when query, target or output is not set
	ErrMissingRequired = errors.New("minimap2: missing required argument")
	// ErrExternalTool is returned when minimap2 exits with an error
	ErrExternalTool = errors.New("external tool failed")
)

// Options defines the minimap2 parameters refalign uses.
type Options struct {
	// Usage: minimap2 [options] <target.fa>|<target.idx> [query.fa] [...]
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}minimap2{{end}}"` // minimap2

	CIGAR     bool   `buildarg:"{{if .}}-c{{end}}"`               // -c: output CIGAR in PAF
	Preset    string `buildarg:"{{if .}}-x{{split}}{{.}}{{end}}"` // -x: preset
	CS        bool   `buildarg:"{{if .}}--cs{{end}}"`             // --cs: output the cs tag
	Bandwidth string `buildarg:"{{if .}}-r{{split}}{{.}}{{end}}"` // -r: chaining/alignment bandwidth
	Threads   int    `buildarg:"{{if .}}-t{{split}}{{.}}{{end}}"` // -t: number of threads
	Out       string `buildarg:"{{if .}}-o{{split}}{{.}}{{end}}"` // -o: output file

	Target string `buildarg:"{{.}}"` // target.fa
	Query  string `buildarg:"{{.}}"` // query.fa
}

// Preset is the assembly-to-reference preset used for every mapping
const Preset = "asm5"

// New returns the options for mapping query onto target, writing PAF to out.
// Strict mode adds the parameters dipcall uses: the cs tag and a 2kb
// bandwidth.
func New(cmd, query, target, out string, threads int, strict bool) Options {
	o := Options{
		Cmd:     cmd,
		CIGAR:   true,
		Preset:  Preset,
		Threads: threads,
		Out:     out,
		Target:  target,
		Query:   query,
	}
	if threads <= 1 {
		o.Threads = 0
	}
	if strict {
		o.CS = true
		o.Bandwidth = "2k"
	}
	return o
}

// Args returns the command line built from the parameters in o
func (o Options) Args() ([]string, error) {
	if o.Query == "" || o.Target == "" || o.Out == "" {
		return nil, ErrMissingRequired
	}
	return external.Build(o)
}

// BuildCommand returns an exec.Cmd built from the parameters in o.
func (o Options) BuildCommand() (*exec.Cmd, error) {
	cl, err := o.Args()
	if err != nil {
		return nil, err
	}
	return exec.Command(cl[0], cl[1:]...), nil
}

// stderrTail is how much of minimap2's stderr is kept in error messages
const stderrTail = 2048

// Run runs minimap2. A non-zero exit status is reported as ErrExternalTool,
// along with the end of minimap2's stderr.
func Run(ctx context.Context, o Options) error {
	cl, err := o.Args()
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, cl[0], cl[1:]...)
	stderr := new(bytes.Buffer)
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > stderrTail {
			msg = "..." + msg[len(msg)-stderrTail:]
		}
		return fmt.Errorf("%w: %s: %w: %s", ErrExternalTool, strings.Join(cmd.Args, " "), err, msg)
	}

	return nil
}
