package minimap2

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestArgsDefault(t *testing.T) {
	args, err := New("", "asm.fa", "ref.fa", "out.paf", 1, false).Args()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(args, " ") != "minimap2 -c -x asm5 -o out.paf ref.fa asm.fa" {
		t.Errorf("problem in TestArgsDefault(): %v", args)
	}
}

func TestArgsStrict(t *testing.T) {
	args, err := New("/opt/bin/minimap2", "asm.fa", "ref.fa", "out.paf", 8, true).Args()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(args, " ") != "/opt/bin/minimap2 -c -x asm5 --cs -r 2k -t 8 -o out.paf ref.fa asm.fa" {
		t.Errorf("problem in TestArgsStrict(): %v", args)
	}
}

func TestArgsMissing(t *testing.T) {
	_, err := New("", "", "ref.fa", "out.paf", 1, false).Args()
	if !errors.Is(err, ErrMissingRequired) {
		t.Errorf("missing query was not reported: %v", err)
	}
}

func TestRunFailure(t *testing.T) {
	// "false" exits non-zero whatever its arguments
	err := Run(context.Background(), New("false", "asm.fa", "ref.fa", "out.paf", 1, false))
	if !errors.Is(err, ErrExternalTool) {
		t.Errorf("non-zero exit was not reported as ErrExternalTool: %v", err)
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Errorf("exit status was not kept in the error chain: %v", err)
	}
}

func TestBuildCommand(t *testing.T) {
	cmd, err := New("", "asm.fa", "ref.fa", "out.paf", 1, true).BuildCommand()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(cmd.Args, " ") != "minimap2 -c -x asm5 --cs -r 2k -o out.paf ref.fa asm.fa" {
		t.Errorf("problem in TestBuildCommand(): %v", cmd.Args)
	}
}
