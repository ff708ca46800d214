package shader

import (
	"errors"
	"os"

	"github.com/richinsley/goblackhole/graphics"
)

// Paths names the source files of a program. Empty entries fall back to the
// matching field of the defaults passed to ResolveSources.
type Paths struct {
	Vertex   string
	Fragment string
	Compute  string
}

// List returns the non-empty paths.
func (p Paths) List() []string {
	var out []string
	for _, path := range []string{p.Vertex, p.Fragment, p.Compute} {
		if path != "" {
			out = append(out, path)
		}
	}
	return out
}

// ReadSource reads a source file. A missing or unreadable file yields an
// empty source and a *MissingSourceError.
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &MissingSourceError{Path: path, Err: err}
	}
	return string(data), nil
}

// ResolveSources reads every configured path of paths, keeping defaults for
// the others. Read failures are logged and reported, and the affected stage
// is left empty so that compiling it fails.
func ResolveSources(paths Paths, defaults Sources) (Sources, error) {
	src := defaults
	var errs []error
	read := func(path string, dst *string) {
		if path == "" {
			return
		}
		text, err := ReadSource(path)
		if err != nil {
			graphics.Logger().Error("failed to read shader source", "path", path, "err", err)
			errs = append(errs, err)
		}
		*dst = text
	}
	read(paths.Vertex, &src.Vertex)
	read(paths.Fragment, &src.Fragment)
	read(paths.Compute, &src.Compute)
	return src, errors.Join(errs...)
}

// LoadProgram reads the sources named by paths and compiles them. A missing
// file still produces a program build, which fails on the empty stage; the
// returned error then joins the *MissingSourceError and the *CompileError.
func LoadProgram(d graphics.Driver, kind Kind, paths Paths, defaults Sources, opts ...Option) (*Program, error) {
	src, readErr := ResolveSources(paths, defaults)
	p, err := Compile(d, kind, src, opts...)
	if err != nil || readErr != nil {
		return p, errors.Join(readErr, err)
	}
	return p, nil
}
