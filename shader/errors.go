package shader

import (
	"errors"
	"fmt"

	"github.com/richinsley/goblackhole/graphics"
)

var (
	// ErrProgramFailed is returned when a program that failed to build is
	// bound, dispatched or written to.
	ErrProgramFailed = errors.New("shader: program is not linked")
	// ErrProgramDestroyed is returned for any use after Destroy.
	ErrProgramDestroyed = errors.New("shader: program has been destroyed")
	// ErrInvalidDispatch is returned by Dispatch on a raster program.
	ErrInvalidDispatch = errors.New("shader: dispatch called on a raster program")
	// ErrInvalidGroupCount is returned by Dispatch when a group count is zero.
	ErrInvalidGroupCount = errors.New("shader: dispatch group counts must be positive")
)

// CompileError carries the compiler log of the stage that failed.
type CompileError struct {
	Stage graphics.Stage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile %s shader: %s", e.Stage, e.Log)
}

// LinkError carries the linker log.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("failed to link program: %s", e.Log)
}

// MissingSourceError reports a source file that could not be read. The
// program is still built, from an empty source, so it surfaces as a
// CompileError as well.
type MissingSourceError struct {
	Path string
	Err  error
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("error opening shader source %s: %v", e.Path, e.Err)
}

func (e *MissingSourceError) Unwrap() error { return e.Err }
