package graphicstest

import "github.com/richinsley/goblackhole/graphics"

// Context is a fake graphics.Context that closes after a fixed number of
// frames and advances its clock by a constant step per frame.
type Context struct {
	Width, Height int
	CloseAfter    int
	Step          float64

	Frames  int
	Current bool
	Closed  bool
}

var _ graphics.Context = (*Context)(nil)

func (c *Context) MakeCurrent()  { c.Current = true }
func (c *Context) Shutdown()     { c.Closed = true }
func (c *Context) EndFrame()     { c.Frames++ }
func (c *Context) Time() float64 { return float64(c.Frames) * c.Step }

func (c *Context) ShouldClose() bool { return c.Frames >= c.CloseAfter }

func (c *Context) GetFramebufferSize() (int, int) { return c.Width, c.Height }
