//go:build gpu

package renderer

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/richinsley/goblackhole/gldriver"
	"github.com/richinsley/goblackhole/headless"
	"github.com/richinsley/goblackhole/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const constantCompute = `#version 430
layout(local_size_x = 8, local_size_y = 8) in;
layout(rgba32f, binding = 0) writeonly uniform image2D outImage;
void main() {
    imageStore(outImage, ivec2(gl_GlobalInvocationID.xy), vec4(0.25, 0.5, 0.75, 1.0));
}
`

func TestGPUEndToEnd(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	const size = 512
	host, err := headless.NewHeadless(size, size, false)
	if err != nil {
		t.Skipf("no EGL device: %v", err)
	}
	defer host.Shutdown()

	d, err := gldriver.New()
	if err != nil {
		t.Skipf("no GL 4.3 context: %v", err)
	}

	path := filepath.Join(t.TempDir(), "constant.comp")
	require.NoError(t, os.WriteFile(path, []byte(constantCompute), 0o644))

	r, err := New(d, Config{Width: size, Height: size, ComputePaths: shader.Paths{Compute: path}})
	require.NoError(t, err)
	defer r.Shutdown()
	assert.Equal(t, [3]int32{8, 8, 1}, r.ComputeProgram().LocalSize())

	require.NoError(t, r.RenderFrame(size, size))

	pixels, err := r.Image().Pixels()
	require.NoError(t, err)
	require.Len(t, pixels, size*size*4)
	for i := 0; i < len(pixels); i += 4 {
		if !assert.InDeltaSlice(t, testColor[:], pixels[i:i+4], 1e-6, "image texel %d", i/4) {
			break
		}
	}

	fb := make([]uint8, size*size*4)
	gl.ReadPixels(0, 0, size, size, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(fb))
	want := []float64{64, 128, 191, 255}
	for i := 0; i < len(fb); i += 4 {
		got := []float64{float64(fb[i]), float64(fb[i+1]), float64(fb[i+2]), float64(fb[i+3])}
		if !assert.InDeltaSlice(t, want, got, 1, "framebuffer texel %d", i/4) {
			break
		}
	}
}
