package renderer

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/richinsley/goblackhole/graphics"
	"github.com/richinsley/goblackhole/graphics/graphicstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRGBAFlipsAndClamps(t *testing.T) {
	// 1x2 image, bottom row first
	pixels := []float32{
		1, 0, 0, 1, // bottom
		-1, 0.5, 2, 1, // top
	}
	img := ToRGBA(pixels, 1, 2)
	assert.Equal(t, color.RGBA{R: 0, G: 128, B: 255, A: 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 255, G: 0, B: 0, A: 255}, img.RGBAAt(0, 1))
}

func TestSnapshot(t *testing.T) {
	d := graphicstest.New()
	d.Kernel = func(x, y int, p *graphicstest.Program) [4]float32 { return [4]float32{0, 1, 0, 1} }
	r := newTestRenderer(t, d, 32, 16)

	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, r.Snapshot(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
	r8, g8, b8, _ := img.At(5, 5).RGBA()
	assert.Equal(t, []uint32{0, 0xffff, 0}, []uint32{r8, g8, b8})
}

func TestEncoderArgs(t *testing.T) {
	in, out := encoderArgs(RecordOptions{OutputFile: "out.mp4", Codec: "hevc", FPS: 30}, 640, 360)
	assert.Equal(t, "rawvideo", in["f"])
	assert.Equal(t, "rgba", in["pix_fmt"])
	assert.Equal(t, "640x360", in["s"])
	assert.Equal(t, 30, in["framerate"])
	assert.Equal(t, "hvc1", out["tag:v"])
	assert.Equal(t, "yuv420p", out["pix_fmt"])
}

func TestRecordRejectsBadOptions(t *testing.T) {
	d := graphicstest.New()
	r := newTestRenderer(t, d, 8, 8)
	err := r.Record(context.Background(), nil, RecordOptions{OutputFile: "x.mp4", FPS: 0, Frames: 10}, nil)
	assert.Error(t, err)
}

func TestRecord(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	encoders, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").Output()
	if err != nil || !strings.Contains(string(encoders), "libx264") {
		t.Skip("ffmpeg has no libx264")
	}
	orig := graphics.Logger()
	t.Cleanup(func() { graphics.SetLogger(orig) })
	var logs bytes.Buffer
	graphics.SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))

	d := graphicstest.New()
	d.Kernel = constantKernel
	r := newTestRenderer(t, d, 64, 64)

	out := filepath.Join(t.TempDir(), "orbit.mp4")
	var hooked []int
	host := &graphicstest.Context{Width: 64, Height: 64, CloseAfter: 1 << 30}
	err = r.Record(context.Background(), host, RecordOptions{OutputFile: out, FPS: 10, Frames: 10},
		func(frame int, _ float32) { hooked = append(hooked, frame) })
	require.NoError(t, err)
	assert.Len(t, hooked, 10)
	assert.Equal(t, 10, host.Frames)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.Equal(t, 1, strings.Count(logs.String(), "recording finished"))
}
