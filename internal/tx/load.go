package tx

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/patomic/internal/errs"
)

// Extension is the only file extension accepted for loaded bodies.
// The comparison is exact and case-sensitive.
const Extension = ".edn"

// LoadFromFile replaces the body with the raw contents of path.
// The transaction stays read-only text until the next mutating call.
func (t *Transaction) LoadFromFile(path string) *Transaction {
	if err := checkName("tx.LoadFromFile", path); err != nil {
		return t.fail(err)
	}
	f, err := os.Open(path)
	if err != nil {
		return t.fail(unreadable("tx.LoadFromFile", path))
	}
	defer f.Close()

	if info, err := f.Stat(); err != nil || info.IsDir() {
		return t.fail(unreadable("tx.LoadFromFile", path))
	}
	lines, err := readLines(f)
	if err != nil {
		return t.fail(unreadable("tx.LoadFromFile", path))
	}
	t.body = loaded{name: path, lines: lines}
	return t
}

// LoadFromReader is LoadFromFile for an already opened source. name must
// carry the .edn extension; it is kept as the body's source name.
func (t *Transaction) LoadFromReader(name string, r io.Reader) *Transaction {
	if err := checkName("tx.LoadFromReader", name); err != nil {
		return t.fail(err)
	}
	if r == nil {
		return t.fail(unreadable("tx.LoadFromReader", name))
	}
	lines, err := readLines(r)
	if err != nil {
		return t.fail(unreadable("tx.LoadFromReader", name))
	}
	t.body = loaded{name: name, lines: lines}
	return t
}

func checkName(tag, name string) error {
	if strings.TrimSpace(name) == "" {
		return errs.Validation(tag, errs.ErrMissingArgument, "fileName argument must be a non-empty string")
	}
	if filepath.Ext(name) != Extension {
		return errs.Validation(tag, errs.ErrResource, "%s does not have the extension %s", name, Extension)
	}
	return nil
}

func unreadable(tag, name string) error {
	return errs.Validation(tag, errs.ErrResource, "%s was not found or cannot be read, please check the file permissions", name)
}

// readLines splits r into lines that keep their terminators, so that
// joining them reproduces the input byte for byte.
func readLines(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	var lines []string
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
