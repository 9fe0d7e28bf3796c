package lines

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"
)

func TestEach(t *testing.T) {
	data := []byte("@HD header\nrecord 1\n\nrecord 2\r\n@another header\nrecord 3")
	records := make([]string, 0)
	n, err := Each(bytes.NewReader(data), func(line string) error {
		records = append(records, line)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || strings.Join(records, "|") != "record 1|record 2|record 3" {
		t.Errorf("problem in TestEach(): %v", records)
	}
}

func TestEachStops(t *testing.T) {
	errStop := errors.New("stop")
	n, err := Each(strings.NewReader("a\nb\nc\n"), func(line string) error {
		if line == "b" {
			return errStop
		}
		return nil
	})
	if !errors.Is(err, errStop) || n != 1 {
		t.Errorf("problem in TestEachStops(): %d %v", n, err)
	}
}

func TestCopyRecords(t *testing.T) {
	out := new(bytes.Buffer)
	n, err := CopyRecords(strings.NewReader("@h\na\nb\n@h\nc\n"), out)
	if err != nil {
		t.Error(err)
	}
	if n != 3 || out.String() != "a\nb\nc\n" {
		t.Errorf("problem in TestCopyRecords(): %q", out.String())
	}
}

func TestFilterKeepsOrder(t *testing.T) {
	var sb, want strings.Builder
	for i := 0; i < 20000; i++ {
		sb.WriteString(strconv.Itoa(i) + "\n")
		if i%7 == 0 {
			want.WriteString(strconv.Itoa(i) + "\n")
		}
	}
	out := new(bytes.Buffer)
	_, err := Filter(strings.NewReader(sb.String()), out, func(line string) (bool, error) {
		i, err := strconv.Atoi(line)
		return i%7 == 0, err
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.String() != want.String() {
		t.Errorf("problem in TestFilterKeepsOrder(): output order or content differs")
	}
}

func TestFilterError(t *testing.T) {
	errTest := errors.New("bad line")
	_, err := Filter(strings.NewReader("a\nb\nc\n"), new(bytes.Buffer), func(line string) (bool, error) {
		if line == "b" {
			return false, errTest
		}
		return true, nil
	})
	if !errors.Is(err, errTest) {
		t.Errorf("predicate error was not returned: %v", err)
	}
}

func TestFilterLongLines(t *testing.T) {
	// longer than bufio's default 64KiB token limit, as with --cs tags
	long := strings.Repeat("x", 200000)
	in := "@header\r\n" + long + "\r\n\nshort\n" + long + "y\n"

	out := new(bytes.Buffer)
	n, err := Filter(strings.NewReader(in), out, func(line string) (bool, error) {
		return line != "short", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || out.String() != long+"\n"+long+"y\n" {
		t.Errorf("problem in TestFilterLongLines(): %d lines, %d bytes", n, out.Len())
	}
}

func TestFilterEmpty(t *testing.T) {
	out := new(bytes.Buffer)
	n, err := Filter(strings.NewReader("@only a header\n"), out, func(string) (bool, error) {
		return true, nil
	})
	if err != nil || n != 0 || out.Len() != 0 {
		t.Errorf("problem in TestFilterEmpty(): %d %v %q", n, err, out.String())
	}
}

type failingWriter struct{}

var errWrite = errors.New("disk full")

func (failingWriter) Write([]byte) (int, error) {
	return 0, errWrite
}

func TestFilterWriteError(t *testing.T) {
	// larger than the bufio.Writer buffer so the failure surfaces while writing
	in := strings.Repeat(strings.Repeat("z", 1000)+"\n", 100)
	_, err := Filter(strings.NewReader(in), failingWriter{}, func(string) (bool, error) {
		return true, nil
	})
	if !errors.Is(err, errWrite) {
		t.Errorf("write error was not wrapped: %v", err)
	}
}
