//go:build !linux

package headless

import (
	"errors"

	"github.com/richinsley/goblackhole/graphics"
)

// ErrUnsupported is returned by NewHeadless where no EGL device is available.
var ErrUnsupported = errors.New("egl headless rendering is not supported on this platform")

func NewHeadless(width, height int, debug bool) (graphics.Context, error) {
	return nil, ErrUnsupported
}
