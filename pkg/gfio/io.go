/*
Package gfio opens the files named by command line flags, with "stdin" and
"stdout" (or "-") standing for the standard streams, and error messages that
name the offending flag.
*/
package gfio

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/pflag"
)

func flagString(flag pflag.Flag) string {
	switch len(flag.Shorthand) {
	case 0:
		return "--" + flag.Name
	default:
		return "--" + flag.Name + " / -" + flag.Shorthand
	}
}

func parseErr(err error, flag pflag.Flag) error {
	switch x := err.(type) {
	case *fs.PathError:
		return errors.New(x.Op + " " + flagString(flag) + " " + x.Path + ": " + x.Err.Error())
	default:
		return err
	}
}

// OpenIn opens the file named by flag for reading
func OpenIn(flag pflag.Flag) (*os.File, error) {
	inFile := flag.Value.String()
	if inFile == "stdin" || inFile == "-" {
		return os.Stdin, nil
	}

	f, err := os.Open(inFile)
	if err != nil {
		return nil, parseErr(err, flag)
	}
	return f, nil
}

// OpenOut creates the file named by flag
func OpenOut(flag pflag.Flag) (*os.File, error) {
	outFile := flag.Value.String()
	if outFile == "stdout" || outFile == "-" {
		return os.Stdout, nil
	}

	f, err := os.Create(outFile)
	if err != nil {
		return nil, parseErr(err, flag)
	}
	return f, nil
}

// Close closes f unless it is one of the standard streams
func Close(f *os.File) error {
	if f == nil || f == os.Stdin || f == os.Stdout || f == os.Stderr {
		return nil
	}
	return f.Close()
}
