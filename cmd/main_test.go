package main

import (
	"errors"
	"testing"

	"github.com/richinsley/goblackhole/glfwcontext"
	"github.com/richinsley/goblackhole/graphics"
	"github.com/richinsley/goblackhole/graphics/graphicstest"
	"github.com/richinsley/goblackhole/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubHosts replaces the host constructors for the duration of the test and
// counts windowing setup and teardown.
func stubHosts(t *testing.T, headlessErr error) (inits, terms *int) {
	t.Helper()
	origHeadless, origInit, origTerm, origWindow := newHeadless, initWindowing, terminateWindowing, newWindow
	t.Cleanup(func() {
		newHeadless, initWindowing, terminateWindowing, newWindow = origHeadless, origInit, origTerm, origWindow
	})

	inits, terms = new(int), new(int)
	newHeadless = func(width, height int, debug bool) (graphics.Context, error) {
		if headlessErr != nil {
			return nil, headlessErr
		}
		return &graphicstest.Context{Width: width, Height: height}, nil
	}
	initWindowing = func() error {
		*inits++
		return errors.New("DISPLAY environment variable is missing")
	}
	terminateWindowing = func() { *terms++ }
	newWindow = func(*options.Options, bool) (*glfwcontext.Context, error) {
		return nil, errors.New("no window")
	}
	return inits, terms
}

func TestCreateHostHeadlessSkipsWindowing(t *testing.T) {
	for _, mode := range []string{options.ModeRecord, options.ModeSnapshot} {
		t.Run(mode, func(t *testing.T) {
			inits, terms := stubHosts(t, nil)
			opts := options.Default()
			opts.Mode = mode

			host, window, release, err := createHost(opts)
			require.NoError(t, err)
			assert.Nil(t, window)
			w, h := host.GetFramebufferSize()
			assert.Equal(t, [2]int{512, 512}, [2]int{w, h})

			release()
			assert.True(t, host.(*graphicstest.Context).Closed)
			assert.Zero(t, *inits)
			assert.Zero(t, *terms)
		})
	}
}

func TestCreateHostFallsBackToWindow(t *testing.T) {
	inits, terms := stubHosts(t, errors.New("no EGL device"))
	opts := options.Default()
	opts.Mode = options.ModeRecord

	_, _, _, err := createHost(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize GLFW")
	assert.Equal(t, 1, *inits)
	assert.Zero(t, *terms)
}

func TestCreateHostWindowFailureTerminates(t *testing.T) {
	inits, terms := stubHosts(t, nil)
	initWindowing = func() error {
		*inits++
		return nil
	}
	opts := options.Default()

	_, _, _, err := createHost(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create window")
	assert.Equal(t, 1, *inits)
	assert.Equal(t, 1, *terms)
}
