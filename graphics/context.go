package graphics

// Context defines the interface for an OpenGL context that the renderer
// presents into. It is implemented by a glfw window and by the headless EGL
// surface.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	// EndFrame presents the default framebuffer (buffer swap) and pumps events.
	EndFrame()
	GetFramebufferSize() (int, int)
	Time() float64
}
