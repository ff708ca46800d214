// Package options holds the run configuration: render target, shader files,
// scene parameters and the output of record and snapshot modes. Values come
// from Default, then an optional TOML scene file, then command-line flags.
package options

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const (
	ModeWindow   = "window"
	ModeRecord   = "record"
	ModeSnapshot = "snapshot"
)

type ShaderPaths struct {
	Compute  string `toml:"compute"`
	Vertex   string `toml:"vertex"`
	Fragment string `toml:"fragment"`
	// Translate runs the built-in ES presentation shaders through the shader
	// translator instead of using the desktop ones.
	Translate bool `toml:"translate"`
}

type BlackHoleOptions struct {
	Position      [3]float32 `toml:"position"`
	Radius        float32    `toml:"radius"`
	DiskColor     [3]float32 `toml:"disk_color"`
	DiskIntensity float32    `toml:"disk_intensity"`
	DiskNormal    [3]float32 `toml:"disk_normal"`
}

type StarOptions struct {
	Enabled   bool       `toml:"enabled"`
	Position  [3]float32 `toml:"position"`
	Radius    float32    `toml:"radius"`
	Color     [3]float32 `toml:"color"`
	Intensity float32    `toml:"intensity"`
}

type CameraOptions struct {
	Position [3]float32 `toml:"position"`
	FOV      float32    `toml:"fov"`
	Near     float32    `toml:"near"`
	Far      float32    `toml:"far"`

	// Orbit parameters drive the camera in record mode.
	OrbitRadius float32 `toml:"orbit_radius"`
	OrbitHeight float32 `toml:"orbit_height"`
	OrbitSpeed  float32 `toml:"orbit_speed"` // radians per second
}

type Options struct {
	Mode         string `toml:"mode"`
	Width        int    `toml:"width"`
	Height       int    `toml:"height"`
	WindowWidth  int    `toml:"window_width"`
	WindowHeight int    `toml:"window_height"`

	OutputFile string  `toml:"output"`
	FFMPEGPath string  `toml:"ffmpeg"`
	Codec      string  `toml:"codec"`
	FPS        int     `toml:"fps"`
	Duration   float64 `toml:"duration"`

	Watch   bool `toml:"watch"`
	GLDebug bool `toml:"gl_debug"`
	Verbose bool `toml:"verbose"`

	Shaders   ShaderPaths      `toml:"shaders"`
	BlackHole BlackHoleOptions `toml:"black_hole"`
	Star      StarOptions      `toml:"star"`
	Camera    CameraOptions    `toml:"camera"`
}

// Default returns the configuration of the stock scene: a unit black hole at
// the origin seen from five units away, rendered at 512x512.
func Default() *Options {
	return &Options{
		Mode:         ModeWindow,
		Width:        512,
		Height:       512,
		WindowWidth:  1280,
		WindowHeight: 720,
		OutputFile:   "blackhole.mp4",
		Codec:        "h264",
		FPS:          30,
		Duration:     10,
		BlackHole: BlackHoleOptions{
			Radius:        1,
			DiskColor:     [3]float32{1.0, 0.55, 0.2},
			DiskIntensity: 1.5,
			DiskNormal:    [3]float32{0, 1, 0},
		},
		Star: StarOptions{
			Enabled:   true,
			Position:  [3]float32{4, 0.5, -6},
			Radius:    0.5,
			Color:     [3]float32{1.0, 0.9, 0.7},
			Intensity: 2,
		},
		Camera: CameraOptions{
			Position:    [3]float32{0, 0, 5},
			FOV:         45,
			Near:        0.1,
			Far:         100,
			OrbitRadius: 8,
			OrbitHeight: 1.5,
			OrbitSpeed:  0.2,
		},
	}
}

// Load reads a TOML scene file over the defaults. Keys the file does not set
// keep their default value; unknown keys are an error.
func Load(path string) (*Options, error) {
	opts := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(opts); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("scene file %s: %s", path, strict.String())
		}
		return nil, fmt.Errorf("scene file %s: %w", path, err)
	}
	return opts, nil
}

// Save writes opts as TOML.
func (o *Options) Save(path string) error {
	data, err := toml.Marshal(o)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the values a run cannot start without.
func (o *Options) Validate() error {
	var errs []error
	switch o.Mode {
	case ModeWindow, ModeRecord, ModeSnapshot:
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", o.Mode))
	}
	if o.Width <= 0 || o.Height <= 0 {
		errs = append(errs, fmt.Errorf("render size must be positive, got %dx%d", o.Width, o.Height))
	}
	if o.Mode == ModeWindow && (o.WindowWidth <= 0 || o.WindowHeight <= 0) {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", o.WindowWidth, o.WindowHeight))
	}
	if o.Mode == ModeRecord {
		if o.FPS <= 0 {
			errs = append(errs, fmt.Errorf("fps must be positive, got %d", o.FPS))
		}
		if o.Duration <= 0 {
			errs = append(errs, fmt.Errorf("duration must be positive, got %g", o.Duration))
		}
		if o.Codec != "h264" && o.Codec != "hevc" {
			errs = append(errs, fmt.Errorf("unsupported codec %q", o.Codec))
		}
	}
	if o.Mode != ModeWindow && o.OutputFile == "" {
		errs = append(errs, errors.New("output file is required"))
	}
	if o.BlackHole.Radius <= 0 {
		errs = append(errs, fmt.Errorf("black hole radius must be positive, got %g", o.BlackHole.Radius))
	}
	return errors.Join(errs...)
}

// Frames is the number of frames record mode renders.
func (o *Options) Frames() int {
	return int(o.Duration * float64(o.FPS))
}
