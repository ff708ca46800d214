package options

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScene(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	o := Default()
	require.NoError(t, o.Validate())
	assert.Equal(t, 512, o.Width)
	assert.Equal(t, 512, o.Height)
	assert.Equal(t, [3]float32{0, 0, 5}, o.Camera.Position)
	assert.Equal(t, float32(45), o.Camera.FOV)
	assert.Equal(t, float32(1), o.BlackHole.Radius)
	assert.Equal(t, 300, o.Frames())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeScene(t, `
mode = "record"
width = 1280
height = 720
fps = 60
duration = 2.5

[shaders]
compute = "shaders/hole.comp"

[black_hole]
radius = 0.75

[camera]
position = [0.0, 2.0, 10.0]
`)
	o, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, o.Validate())

	assert.Equal(t, ModeRecord, o.Mode)
	assert.Equal(t, 1280, o.Width)
	assert.Equal(t, 150, o.Frames())
	assert.Equal(t, "shaders/hole.comp", o.Shaders.Compute)
	assert.Equal(t, float32(0.75), o.BlackHole.Radius)
	assert.Equal(t, [3]float32{0, 2, 10}, o.Camera.Position)

	// untouched keys keep their defaults
	assert.Equal(t, float32(45), o.Camera.FOV)
	assert.Equal(t, Default().BlackHole.DiskColor, o.BlackHole.DiskColor)
	assert.True(t, o.Star.Enabled)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeScene(t, "widht = 10\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "widht")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveRoundTrip(t *testing.T) {
	o := Default()
	o.Mode = ModeSnapshot
	o.OutputFile = "frame.png"
	path := filepath.Join(t.TempDir(), "out.toml")
	require.NoError(t, o.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, o, loaded)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Options){
		"mode":     func(o *Options) { o.Mode = "stream" },
		"size":     func(o *Options) { o.Width = 0 },
		"fps":      func(o *Options) { o.Mode = ModeRecord; o.FPS = 0 },
		"codec":    func(o *Options) { o.Mode = ModeRecord; o.Codec = "vp9" },
		"output":   func(o *Options) { o.Mode = ModeSnapshot; o.OutputFile = "" },
		"radius":   func(o *Options) { o.BlackHole.Radius = -1 },
		"duration": func(o *Options) { o.Mode = ModeRecord; o.Duration = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			o := Default()
			mutate(o)
			assert.Error(t, o.Validate())
		})
	}
}
