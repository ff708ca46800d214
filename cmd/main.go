package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mattn/go-isatty"
	"github.com/richinsley/goblackhole/gldriver"
	"github.com/richinsley/goblackhole/glfwcontext"
	"github.com/richinsley/goblackhole/graphics"
	"github.com/richinsley/goblackhole/headless"
	"github.com/richinsley/goblackhole/options"
	"github.com/richinsley/goblackhole/renderer"
	"github.com/richinsley/goblackhole/scene"
	"github.com/richinsley/goblackhole/shader"
	"github.com/richinsley/goblackhole/translator"
	"github.com/urfave/cli/v2"
)

var (
	sceneFlag = &cli.StringFlag{
		Name:  "scene",
		Usage: "TOML scene file; flags override its values",
	}
	saveSceneFlag = &cli.StringFlag{
		Name:  "save-scene",
		Usage: "Write the effective configuration as TOML and exit",
	}
	modeFlag = &cli.StringFlag{
		Name:  "mode",
		Usage: "window, record or snapshot",
		Value: options.ModeWindow,
	}
	widthFlag = &cli.IntFlag{
		Name:  "width",
		Usage: "Width of the compute image",
		Value: 512,
	}
	heightFlag = &cli.IntFlag{
		Name:  "height",
		Usage: "Height of the compute image",
		Value: 512,
	}
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output file for record and snapshot modes",
	}
	fpsFlag = &cli.IntFlag{
		Name:  "fps",
		Usage: "Frames per second for recording",
		Value: 30,
	}
	durationFlag = &cli.Float64Flag{
		Name:  "duration",
		Usage: "Duration to record in seconds",
		Value: 10,
	}
	codecFlag = &cli.StringFlag{
		Name:  "codec",
		Usage: "h264 or hevc",
		Value: "h264",
	}
	ffmpegFlag = &cli.StringFlag{
		Name:  "ffmpeg",
		Usage: "Path to ffmpeg executable",
	}
	computeFlag = &cli.StringFlag{
		Name:  "compute",
		Usage: "Compute shader file replacing the built-in one",
	}
	vertexFlag = &cli.StringFlag{
		Name:  "vertex",
		Usage: "Presentation vertex shader file",
	}
	fragmentFlag = &cli.StringFlag{
		Name:  "fragment",
		Usage: "Presentation fragment shader file",
	}
	translateFlag = &cli.BoolFlag{
		Name:  "translate",
		Usage: "Build the presentation pass from the ES shaders through the shader translator",
	}
	watchFlag = &cli.BoolFlag{
		Name:  "watch",
		Usage: "Reload shader files when they change",
	}
	glDebugFlag = &cli.BoolFlag{
		Name:  "gl-debug",
		Usage: "Request a debug context and log driver messages",
	}
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Log at debug level",
	}
)

func init() {
	runtime.LockOSThread()
}

func main() {
	app := &cli.App{
		Name:  "goblackhole",
		Usage: "Real-time black hole ray marcher",
		Flags: []cli.Flag{
			sceneFlag, saveSceneFlag, modeFlag, widthFlag, heightFlag, outputFlag,
			fpsFlag, durationFlag, codecFlag, ffmpegFlag,
			computeFlag, vertexFlag, fragmentFlag, translateFlag,
			watchFlag, glDebugFlag, verboseFlag,
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, hopts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, hopts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	graphics.SetLogger(logger)
}

// loadOptions layers the defaults, the scene file and the flags that were
// given explicitly.
func loadOptions(ctx *cli.Context) (*options.Options, error) {
	opts := options.Default()
	if path := ctx.String(sceneFlag.Name); path != "" {
		var err error
		if opts, err = options.Load(path); err != nil {
			return nil, err
		}
	}

	if ctx.IsSet(modeFlag.Name) {
		opts.Mode = ctx.String(modeFlag.Name)
	}
	if ctx.IsSet(widthFlag.Name) {
		opts.Width = ctx.Int(widthFlag.Name)
	}
	if ctx.IsSet(heightFlag.Name) {
		opts.Height = ctx.Int(heightFlag.Name)
	}
	if ctx.IsSet(outputFlag.Name) {
		opts.OutputFile = ctx.String(outputFlag.Name)
	} else if opts.Mode == options.ModeSnapshot && opts.OutputFile == options.Default().OutputFile {
		opts.OutputFile = "blackhole.png"
	}
	if ctx.IsSet(fpsFlag.Name) {
		opts.FPS = ctx.Int(fpsFlag.Name)
	}
	if ctx.IsSet(durationFlag.Name) {
		opts.Duration = ctx.Float64(durationFlag.Name)
	}
	if ctx.IsSet(codecFlag.Name) {
		opts.Codec = ctx.String(codecFlag.Name)
	}
	if ctx.IsSet(ffmpegFlag.Name) {
		opts.FFMPEGPath = ctx.String(ffmpegFlag.Name)
	}
	if ctx.IsSet(computeFlag.Name) {
		opts.Shaders.Compute = ctx.String(computeFlag.Name)
	}
	if ctx.IsSet(vertexFlag.Name) {
		opts.Shaders.Vertex = ctx.String(vertexFlag.Name)
	}
	if ctx.IsSet(fragmentFlag.Name) {
		opts.Shaders.Fragment = ctx.String(fragmentFlag.Name)
	}
	if ctx.IsSet(translateFlag.Name) {
		opts.Shaders.Translate = ctx.Bool(translateFlag.Name)
	}
	if ctx.IsSet(watchFlag.Name) {
		opts.Watch = ctx.Bool(watchFlag.Name)
	}
	if ctx.IsSet(glDebugFlag.Name) {
		opts.GLDebug = ctx.Bool(glDebugFlag.Name)
	}
	if ctx.IsSet(verboseFlag.Name) {
		opts.Verbose = ctx.Bool(verboseFlag.Name)
	}
	return opts, opts.Validate()
}

func run(ctx *cli.Context) error {
	setupLogger(ctx.Bool(verboseFlag.Name))

	opts, err := loadOptions(ctx)
	if err != nil {
		return err
	}
	setupLogger(opts.Verbose)

	if path := ctx.String(saveSceneFlag.Name); path != "" {
		return opts.Save(path)
	}

	sigctx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	host, window, release, err := createHost(opts)
	if err != nil {
		return err
	}
	defer release()

	driver, err := gldriver.New()
	if err != nil {
		return err
	}
	if opts.GLDebug && !gldriver.EnableDebugOutput() {
		graphics.Logger().Warn("debug output requested but the context has no debug flag")
	}

	bh, star, cam := buildScene(opts)
	bindings := []scene.Binding{bh, cam}
	if star != nil {
		bindings = append(bindings, star)
	}

	cfg := renderer.Config{
		Width:        opts.Width,
		Height:       opts.Height,
		ComputePaths: shader.Paths{Compute: opts.Shaders.Compute},
		ScreenPaths:  shader.Paths{Vertex: opts.Shaders.Vertex, Fragment: opts.Shaders.Fragment},
		Watch:        opts.Watch,
	}
	if opts.Shaders.Translate {
		cfg.Screen, cfg.ScreenAliases, err = translator.ScreenSources()
		if err != nil {
			return err
		}
	}

	r, err := renderer.New(driver, cfg, bindings...)
	if err != nil {
		return err
	}
	defer r.Shutdown()

	switch opts.Mode {
	case options.ModeSnapshot:
		return r.Snapshot(opts.OutputFile)
	case options.ModeRecord:
		target := bh.Position()
		orbit := func(frame int, t float32) {
			c := opts.Camera
			cam.Orbit(target, c.OrbitRadius, c.OrbitHeight, c.OrbitSpeed*t)
		}
		return r.Record(sigctx, host, renderer.RecordOptions{
			OutputFile: opts.OutputFile,
			FFMPEGPath: opts.FFMPEGPath,
			Codec:      opts.Codec,
			FPS:        opts.FPS,
			Frames:     opts.Frames(),
		}, orbit)
	default:
		window.SetCursorHandler(cam.Look)
		window.RegisterKeyCallback(glfw.KeyF5, r.ReloadAll)
		shots := 0
		window.RegisterKeyCallback(glfw.KeyP, func() {
			shots++
			path := fmt.Sprintf("snapshot-%03d.png", shots)
			if err := renderer.WritePNG(r.Image(), path); err != nil {
				graphics.Logger().Warn("snapshot failed", "err", err)
				return
			}
			graphics.Logger().Info("wrote snapshot", "path", path)
		})
		update := func(dt float32) {
			cam.Move(window.Movement(), dt)
		}
		if err := r.Run(sigctx, host, update); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

var (
	newHeadless = func(width, height int, debug bool) (graphics.Context, error) {
		return headless.NewHeadless(width, height, debug)
	}
	initWindowing      = glfwcontext.InitGraphics
	terminateWindowing = glfwcontext.TerminateGraphics
	newWindow          = glfwcontext.New
)

// createHost opens a window for interactive mode. Record and snapshot modes
// prefer an EGL pbuffer, which needs no display, and fall back to a hidden
// window. GLFW is only initialized when a window is created. release tears
// down whatever was set up.
func createHost(opts *options.Options) (graphics.Context, *glfwcontext.Context, func(), error) {
	if opts.Mode != options.ModeWindow {
		h, err := newHeadless(opts.Width, opts.Height, opts.GLDebug)
		if err == nil {
			return h, nil, h.Shutdown, nil
		}
		graphics.Logger().Warn("headless context unavailable, using a hidden window", "err", err)
	}

	if err := initWindowing(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	visible := opts.Mode == options.ModeWindow
	win, err := newWindow(opts, visible)
	if err != nil {
		terminateWindowing()
		return nil, nil, nil, fmt.Errorf("failed to create window: %w", err)
	}
	release := func() {
		win.Shutdown()
		terminateWindowing()
	}
	return win, win, release, nil
}

func buildScene(opts *options.Options) (*scene.BlackHole, *scene.Star, *scene.Camera) {
	b := opts.BlackHole
	bh := scene.NewBlackHole(mgl32.Vec3(b.Position), b.Radius)
	bh.SetDisk(mgl32.Vec3(b.DiskColor), b.DiskIntensity)
	bh.SetDiskNormal(mgl32.Vec3(b.DiskNormal))

	var star *scene.Star
	if s := opts.Star; s.Enabled {
		star = scene.NewStar(mgl32.Vec3(s.Position), s.Radius, mgl32.Vec3(s.Color), s.Intensity)
	}

	c := opts.Camera
	cam := scene.NewCamera(mgl32.Vec3(c.Position))
	cam.FOV, cam.Near, cam.Far = c.FOV, c.Near, c.Far
	cam.SetResolution(opts.Width, opts.Height)
	cam.SetAspect(float32(opts.Width) / float32(opts.Height))
	cam.LookAt(bh.Position())
	return bh, star, cam
}
