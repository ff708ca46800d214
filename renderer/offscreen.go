package renderer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/richinsley/goblackhole/graphics"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const numBuffers = 3 // frames in flight between the render loop and ffmpeg

// RecordOptions configures an offscreen recording.
type RecordOptions struct {
	OutputFile string
	FFMPEGPath string
	Codec      string // h264 or hevc
	FPS        int
	Frames     int
}

// FrameHook runs before each recorded frame, typically to move the camera.
type FrameHook func(frame int, t float32)

// ToRGBA converts RGBA float pixels, bottom row first as GL returns them, to
// an 8-bit image with the top row first. Values are clamped to [0, 1].
func ToRGBA(pixels []float32, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := pixels[(height-1-y)*width*4:]
		for x := 0; x < width; x++ {
			p := src[x*4 : x*4+4]
			img.SetRGBA(x, y, color.RGBA{R: to8(p[0]), G: to8(p[1]), B: to8(p[2]), A: to8(p[3])})
		}
	}
	return img
}

func to8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

// RGBA reads the image back as an 8-bit image.
func (img *Image) RGBA() (*image.RGBA, error) {
	pixels, err := img.Pixels()
	if err != nil {
		return nil, err
	}
	return ToRGBA(pixels, img.width, img.height), nil
}

// WritePNG saves the current contents of img to path.
func WritePNG(img *Image, path string) error {
	rgba, err := img.RGBA()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, rgba); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return f.Close()
}

// Snapshot renders one frame and writes the compute output to path.
func (r *Renderer) Snapshot(path string) error {
	if err := r.RenderFrame(r.Width(), r.Height()); err != nil {
		return err
	}
	if err := WritePNG(r.image, path); err != nil {
		return err
	}
	graphics.Logger().Info("wrote snapshot", "path", path, "width", r.Width(), "height", r.Height())
	return nil
}

func encoderArgs(opts RecordOptions, width, height int) (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", width, height),
		"framerate": opts.FPS,
	}

	outputArgs = ffmpeg.KwArgs{"pix_fmt": "yuv420p"}
	switch runtime.GOOS {
	case "darwin":
		if opts.Codec == "hevc" {
			outputArgs["c:v"] = "hevc_videotoolbox"
		} else {
			outputArgs["c:v"] = "h264_videotoolbox"
		}
	default:
		if opts.Codec == "hevc" {
			outputArgs["c:v"] = "libx265"
		} else {
			outputArgs["c:v"] = "libx264"
		}
	}
	outputArgs["b:v"] = "25M"
	if opts.Codec == "hevc" && strings.HasSuffix(opts.OutputFile, ".mp4") {
		outputArgs["tag:v"] = "hvc1"
	}
	return
}

// runEncoder is the consumer: it feeds raw frames to ffmpeg until frames is
// closed, then reports the ffmpeg exit status.
func runEncoder(opts RecordOptions, width, height int, frames <-chan []byte, done chan<- error) {
	pipeReader, pipeWriter := io.Pipe()
	inputArgs, outputArgs := encoderArgs(opts, width, height)

	cmd := ffmpeg.Input("pipe:", inputArgs).
		Output(opts.OutputFile, outputArgs).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()
	if opts.FFMPEGPath != "" {
		cmd = cmd.SetFfmpegPath(opts.FFMPEGPath)
	}

	errc := make(chan error, 1)
	go func() {
		err := cmd.Run()
		pipeReader.CloseWithError(io.ErrClosedPipe)
		errc <- err
	}()

	var writeErr error
	for frame := range frames {
		if writeErr != nil {
			continue // drain so the producer never blocks
		}
		if _, err := pipeWriter.Write(frame); err != nil {
			writeErr = fmt.Errorf("failed to write frame to ffmpeg: %w", err)
		}
	}
	pipeWriter.Close()
	if err := <-errc; err != nil {
		done <- fmt.Errorf("ffmpeg failed: %w", err)
		return
	}
	done <- writeErr
}

// Record renders opts.Frames frames at the image resolution and encodes them
// with ffmpeg. hook runs before every frame. Rendering stops early when ctx
// is cancelled; the frames so far are still finalized.
func (r *Renderer) Record(ctx context.Context, host graphics.Context, opts RecordOptions, hook FrameHook) error {
	if opts.FPS <= 0 || opts.Frames <= 0 {
		return fmt.Errorf("record needs positive fps and frame count, got %d and %d", opts.FPS, opts.Frames)
	}
	graphics.Logger().Info("starting record mode", "output", opts.OutputFile, "frames", opts.Frames, "fps", opts.FPS)

	frames := make(chan []byte, numBuffers)
	done := make(chan error, 1)
	go runEncoder(opts, r.Width(), r.Height(), frames, done)

	var renderErr error
	for i := 0; i < opts.Frames; i++ {
		if renderErr = ctx.Err(); renderErr != nil {
			break
		}
		t := float32(i) / float32(opts.FPS)
		if hook != nil {
			hook(i, t)
		}
		if renderErr = r.RenderFrame(r.Width(), r.Height()); renderErr != nil {
			renderErr = fmt.Errorf("frame %d: %w", i, renderErr)
			break
		}
		rgba, err := r.image.RGBA()
		if err != nil {
			renderErr = fmt.Errorf("frame %d: %w", i, err)
			break
		}
		if host != nil {
			host.EndFrame()
		}
		frames <- rgba.Pix
		if (i+1)%opts.FPS == 0 {
			graphics.Logger().Debug("recorded", "frames", i+1)
		}
	}
	close(frames)

	encErr := <-done
	if renderErr != nil {
		return renderErr
	}
	if encErr != nil {
		return encErr
	}
	graphics.Logger().Info("recording finished", "output", opts.OutputFile)
	return nil
}
