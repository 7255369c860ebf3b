package iojson

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// ErrNoInput is returned when neither a file nor piped input was given.
var ErrNoInput = errors.New("no input provided (stdin is a terminal); use --file or pipe JSON")

// FileReader decodes a T from the file named by its --file flag, falling
// back to stdin when the flag is empty or "-".
type FileReader[T any] struct {
	path string
}

// Flag returns the --file flag bound to this reader.
func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to a JSON file (reads stdin when omitted or \"-\")",
		Destination: &fr.path,
	}
}

// Read decodes the input. stdin is only consulted when no file was named and
// is rejected when it is an interactive terminal.
func (fr *FileReader[T]) Read(stdin io.Reader) (T, error) {
	if fr.path != "" && fr.path != "-" {
		f, err := os.Open(fr.path)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("open %s: %w", fr.path, err)
		}
		defer func() { _ = f.Close() }()
		return Decode[T](f)
	}

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		var zero T
		return zero, ErrNoInput
	}
	return Decode[T](stdin)
}
