package renderer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/richinsley/goblackhole/graphics"
	"github.com/richinsley/goblackhole/scene"
	"github.com/richinsley/goblackhole/shader"
)

// Config describes the programs and render target of a Renderer.
type Config struct {
	// Width and Height are the size of the compute output, independent of
	// the window.
	Width  int
	Height int

	// ComputePaths and ScreenPaths override the built-in sources per stage.
	ComputePaths shader.Paths
	ScreenPaths  shader.Paths

	// Screen replaces the built-in presentation sources, for instance with
	// translator output. ScreenAliases maps logical uniform names to the
	// names in Screen.
	Screen        shader.Sources
	ScreenAliases map[string]string

	// Watch reloads programs when their source files change.
	Watch bool

	ClearColor [4]float32
}

// Groups returns the work-group counts that cover a width x height image
// with groups of the given local size.
func Groups(width, height int, local [3]int32) (uint32, uint32, uint32) {
	lx, ly := int(local[0]), int(local[1])
	if lx <= 0 {
		lx = 1
	}
	if ly <= 0 {
		ly = 1
	}
	return uint32((width + lx - 1) / lx), uint32((height + ly - 1) / ly), 1
}

// Renderer runs the two-pass frame: the compute program ray-marches the scene
// into an Image, and the screen program samples that image onto a quad.
type Renderer struct {
	driver   graphics.Driver
	cfg      Config
	compute  *shader.Program
	screen   *shader.Program
	image    *Image
	quad     *ScreenQuad
	bindings []scene.Binding

	watcher      *shader.Watcher
	computeFiles map[string]struct{}
	screenFiles  map[string]struct{}

	lastErr string
}

// New builds both programs and the render target. The GL context must be
// current on the calling thread. Build errors are returned and nothing is
// left allocated.
func New(d graphics.Driver, cfg Config, bindings ...scene.Binding) (*Renderer, error) {
	r := &Renderer{
		driver:       d,
		cfg:          cfg,
		bindings:     bindings,
		computeFiles: absSet(cfg.ComputePaths.List()),
		screenFiles:  absSet(cfg.ScreenPaths.List()),
	}

	var err error
	r.compute, err = shader.LoadProgram(d, shader.Compute, cfg.ComputePaths, shader.ComputeSources())
	if err != nil {
		r.Shutdown()
		return nil, fmt.Errorf("failed to build compute program: %w", err)
	}
	if missing := shader.MissingUniforms(r.compute, shader.ComputeUniforms); len(missing) > 0 {
		graphics.Logger().Warn("compute program does not use some scene uniforms", "missing", missing)
	}

	r.screen, err = shader.LoadProgram(d, shader.Raster, cfg.ScreenPaths, r.screenDefaults(), shader.WithAliases(cfg.ScreenAliases))
	if err != nil {
		r.Shutdown()
		return nil, fmt.Errorf("failed to build screen program: %w", err)
	}

	r.image, err = NewImage(d, cfg.Width, cfg.Height)
	if err != nil {
		r.Shutdown()
		return nil, err
	}
	r.quad = NewScreenQuad(d)

	if cfg.Watch {
		if err := r.watch(); err != nil {
			r.Shutdown()
			return nil, err
		}
	}

	lx, ly, _ := Groups(cfg.Width, cfg.Height, r.compute.LocalSize())
	graphics.Logger().Info("renderer ready",
		"width", cfg.Width, "height", cfg.Height,
		"local_size", r.compute.LocalSize(), "groups", [2]uint32{lx, ly})
	return r, nil
}

func (r *Renderer) screenDefaults() shader.Sources {
	if r.cfg.Screen.Vertex != "" || r.cfg.Screen.Fragment != "" {
		return r.cfg.Screen
	}
	return shader.ScreenSources(false)
}

func (r *Renderer) watch() error {
	paths := append(r.cfg.ComputePaths.List(), r.cfg.ScreenPaths.List()...)
	if len(paths) == 0 {
		graphics.Logger().Info("no shader files configured, hot reload disabled")
		return nil
	}
	w, err := shader.NewWatcher(paths...)
	if err != nil {
		return err
	}
	r.watcher = w
	return nil
}

func absSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			set[abs] = struct{}{}
		}
	}
	return set
}

func (r *Renderer) Width() int                      { return r.cfg.Width }
func (r *Renderer) Height() int                     { return r.cfg.Height }
func (r *Renderer) Image() *Image                   { return r.image }
func (r *Renderer) ComputeProgram() *shader.Program { return r.compute }
func (r *Renderer) ScreenProgram() *shader.Program  { return r.screen }

// Reload rebuilds the programs whose files changed. A failed rebuild keeps
// the previous program running and is logged.
func (r *Renderer) Reload(changed []string) {
	var computeDirty, screenDirty bool
	for _, name := range changed {
		if _, ok := r.computeFiles[name]; ok {
			computeDirty = true
		}
		if _, ok := r.screenFiles[name]; ok {
			screenDirty = true
		}
	}
	if computeDirty {
		if err := r.rebuild(r.compute, r.cfg.ComputePaths, shader.ComputeSources()); err != nil {
			graphics.Logger().Warn("compute reload failed, keeping previous program", "err", err)
		} else {
			scene.Invalidate(r.bindings...)
			graphics.Logger().Info("compute program reloaded")
		}
	}
	if screenDirty {
		if err := r.rebuild(r.screen, r.cfg.ScreenPaths, r.screenDefaults()); err != nil {
			graphics.Logger().Warn("screen reload failed, keeping previous program", "err", err)
		} else {
			graphics.Logger().Info("screen program reloaded")
		}
	}
}

// ReloadAll rebuilds every program that has source files configured.
func (r *Renderer) ReloadAll() {
	var all []string
	for name := range r.computeFiles {
		all = append(all, name)
	}
	for name := range r.screenFiles {
		all = append(all, name)
	}
	r.Reload(all)
}

func (r *Renderer) rebuild(p *shader.Program, paths shader.Paths, defaults shader.Sources) error {
	src, err := shader.ResolveSources(paths, defaults)
	if err != nil {
		return err
	}
	return p.Recompile(src)
}

// RenderFrame runs one frame into the current framebuffer of the given size:
// push scene parameters, dispatch the compute program over the image, make
// its stores visible to sampling, and draw the image on the screen quad.
func (r *Renderer) RenderFrame(fbWidth, fbHeight int) error {
	if r.watcher != nil {
		if changed := r.watcher.Pending(); len(changed) > 0 {
			r.Reload(changed)
		}
	}

	if err := scene.PushAll(r.compute, r.bindings...); err != nil {
		return fmt.Errorf("failed to push scene parameters: %w", err)
	}

	if err := r.image.BindAsComputeTarget(0); err != nil {
		return err
	}
	gx, gy, gz := Groups(r.image.Width(), r.image.Height(), r.compute.LocalSize())
	if err := r.compute.Dispatch(gx, gy, gz); err != nil {
		return fmt.Errorf("compute dispatch failed: %w", err)
	}
	r.driver.MemoryBarrier(graphics.ShaderImageAccessBarrier | graphics.TextureFetchBarrier)

	c := r.cfg.ClearColor
	r.driver.Viewport(fbWidth, fbHeight)
	r.driver.Clear(c[0], c[1], c[2], c[3])
	if err := r.screen.Bind(); err != nil {
		return fmt.Errorf("screen program: %w", err)
	}
	if err := r.image.BindAsSamplerInput(0); err != nil {
		return err
	}
	if err := r.screen.SetInt(shader.UniformScreenTexture, 0); err != nil {
		return err
	}
	r.quad.Draw()
	return nil
}

// FrameFunc is called once per frame before rendering with the seconds
// elapsed since the previous frame.
type FrameFunc func(dt float32)

// Run drives the interactive loop until the window closes or ctx is done.
// Frame errors are logged and the loop keeps going; the same error is only
// logged once until it changes.
func (r *Renderer) Run(ctx context.Context, host graphics.Context, update FrameFunc) error {
	last := host.Time()
	frames := 0
	for !host.ShouldClose() {
		if err := ctx.Err(); err != nil {
			return err
		}
		now := host.Time()
		if update != nil {
			update(float32(now - last))
		}
		last = now

		w, h := host.GetFramebufferSize()
		r.report(r.RenderFrame(w, h))
		host.EndFrame()
		frames++
	}
	graphics.Logger().Info("render loop finished", "frames", frames)
	return nil
}

func (r *Renderer) report(err error) {
	if err == nil {
		r.lastErr = ""
		return
	}
	if msg := err.Error(); msg != r.lastErr {
		r.lastErr = msg
		graphics.Logger().Warn("frame failed", "err", err)
	}
}

// Shutdown releases every GPU object the renderer created. It is safe on a
// partially built renderer.
func (r *Renderer) Shutdown() {
	if r.watcher != nil {
		r.watcher.Close()
		r.watcher = nil
	}
	if r.quad != nil {
		r.quad.Destroy()
	}
	if r.image != nil {
		r.image.Destroy()
	}
	if r.screen != nil {
		r.screen.Destroy()
	}
	if r.compute != nil {
		r.compute.Destroy()
	}
}
