package glfwcontext

import (
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/goblackhole/graphics"
	options "github.com/richinsley/goblackhole/options"
	"github.com/richinsley/goblackhole/scene"
)

// Context is a GLFW window with a desktop GL 4.3 core context.
type Context struct {
	window *glfw.Window
	// A map to store functions to be called on key presses.
	keyCallbacks map[glfw.Key]func()
	cursor       func(x, y float64)
}

var _ graphics.Context = (*Context)(nil)

// movementKeys maps held keys to camera directions.
var movementKeys = map[glfw.Key]scene.Movement{
	glfw.KeyW:         scene.MoveForward,
	glfw.KeyS:         scene.MoveBackward,
	glfw.KeyA:         scene.MoveLeft,
	glfw.KeyD:         scene.MoveRight,
	glfw.KeySpace:     scene.MoveUp,
	glfw.KeyLeftShift: scene.MoveDown,
}

// New creates the window and makes its context current. Compute shaders need
// GL 4.3, so that is the version requested.
func New(opts *options.Options, visible bool) (*Context, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	if opts.GLDebug {
		glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	}

	if visible {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	win, err := glfw.CreateWindow(opts.WindowWidth, opts.WindowHeight, "goblackhole", nil, nil)
	if err != nil {
		return nil, err
	}

	c := &Context{
		window:       win,
		keyCallbacks: make(map[glfw.Key]func()),
	}
	win.MakeContextCurrent()
	glfw.SwapInterval(1)

	win.SetKeyCallback(c.glfwKeyCallback)
	win.SetCursorPosCallback(c.glfwCursorCallback)
	if visible {
		win.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	}
	return c, nil
}

// RegisterKeyCallback allows the main application to register a function to be
// called when a specific key is pressed.
func (c *Context) RegisterKeyCallback(key glfw.Key, f func()) {
	c.keyCallbacks[key] = f
}

// SetCursorHandler receives cursor positions, typically Camera.Look.
func (c *Context) SetCursorHandler(f func(x, y float64)) {
	c.cursor = f
}

func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
	if action == glfw.Press {
		if callback, ok := c.keyCallbacks[key]; ok {
			callback()
		}
	}
}

func (c *Context) glfwCursorCallback(w *glfw.Window, x, y float64) {
	if c.cursor != nil {
		c.cursor(x, y)
	}
}

// Movement reports the camera directions currently held down.
func (c *Context) Movement() scene.Movement {
	var m scene.Movement
	for key, dir := range movementKeys {
		if c.window.GetKey(key) == glfw.Press {
			m |= dir
		}
	}
	return m
}

// MakeCurrent makes the context current for the calling goroutine.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func (c *Context) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

func (c *Context) Time() float64 {
	return glfw.GetTime()
}

// InitGraphics initializes the main graphics subsystem (GLFW). Must be called from the main thread.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return err
	}
	graphics.Logger().Info("GLFW initialized", "version", glfw.GetVersionString())
	return nil
}

// TerminateGraphics shuts down the graphics subsystem. Must be called from the main thread.
func TerminateGraphics() {
	glfw.Terminate()
	graphics.Logger().Info("GLFW terminated")
}
