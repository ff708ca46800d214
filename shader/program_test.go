package shader

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/goblackhole/graphics"
	"github.com/richinsley/goblackhole/graphics/graphicstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCompute = `#version 430 core
layout(local_size_x = 8, local_size_y = 8) in;
layout(rgba32f, binding = 0) uniform writeonly image2D imgOutput;
uniform vec3 bh_center;
uniform float Rs;
void main() {
    imageStore(imgOutput, ivec2(gl_GlobalInvocationID.xy), vec4(bh_center, Rs));
}
`

func TestCompileRasterProgram(t *testing.T) {
	d := graphicstest.New()
	p, err := Compile(d, Raster, ScreenSources(false))
	require.NoError(t, err)

	assert.Equal(t, Linked, p.State())
	assert.NotZero(t, p.Handle())
	assert.Equal(t, Raster, p.Kind())
	assert.NoError(t, p.Err())

	err = p.Dispatch(1, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidDispatch)
	assert.NotContains(t, d.CallNames(), "DispatchCompute")
}

func TestCompileComputeProgram(t *testing.T) {
	d := graphicstest.New()
	p, err := Compile(d, Compute, Sources{Compute: testCompute})
	require.NoError(t, err)
	assert.Equal(t, Linked, p.State())
	assert.Equal(t, [3]int32{8, 8, 1}, p.LocalSize())

	require.NoError(t, p.SetVec3(UniformBlackHoleCenter, mgl32.Vec3{1, 2, 3}))
	for _, groups := range [][3]uint32{{1, 1, 1}, {64, 64, 1}, {3, 5, 7}} {
		assert.NoError(t, p.Dispatch(groups[0], groups[1], groups[2]))
	}
	require.NoError(t, p.SetFloat(UniformSchwarzschild, 0.5))

	fake := d.Programs[p.Handle()]
	assert.Equal(t, []float32{1, 2, 3}, fake.Value("bh_center"))
	assert.Equal(t, []float32{0.5}, fake.Value("Rs"))
}

func TestBuiltinSourcesCompile(t *testing.T) {
	d := graphicstest.New()
	p, err := Compile(d, Compute, ComputeSources())
	require.NoError(t, err)
	assert.Equal(t, [3]int32{16, 16, 1}, p.LocalSize())
	assert.Empty(t, MissingUniforms(p, ComputeUniforms))

	screen, err := Compile(d, Raster, ScreenSources(false))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, screen.UniformLocation(UniformScreenTexture), int32(0))
}

func TestDispatchRejectsZeroGroups(t *testing.T) {
	d := graphicstest.New()
	p, err := Compile(d, Compute, Sources{Compute: testCompute})
	require.NoError(t, err)

	err = p.Dispatch(0, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidGroupCount)
	assert.NotContains(t, d.CallNames(), "DispatchCompute")
}

func TestCompileFailure(t *testing.T) {
	d := graphicstest.New()
	malformed := `#version 430 core
layout(local_size_x = 8, local_size_y = 8) in;
uniform float Rs
void main() {
}
`
	p, err := Compile(d, Compute, Sources{Compute: malformed})
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, graphics.ComputeStage, ce.Stage)
	assert.NotEmpty(t, ce.Log)
	assert.Contains(t, err.Error(), "compute")

	assert.Equal(t, Failed, p.State())
	assert.Zero(t, p.Handle())
	assert.ErrorIs(t, p.Bind(), ErrProgramFailed)
	assert.ErrorIs(t, p.Dispatch(1, 1, 1), ErrProgramFailed)
	assert.ErrorIs(t, p.SetFloat("Rs", 1), ErrProgramFailed)
	assert.Empty(t, d.Programs, "no program object is created when a stage fails")
}

func TestCompileFailsFastOnFirstStage(t *testing.T) {
	d := graphicstest.New()
	src := ScreenSources(false)
	src.Vertex = ""
	_, err := Compile(d, Raster, src)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, graphics.VertexStage, ce.Stage)
	assert.Len(t, d.Shaders, 1, "fragment stage is never compiled")
	for _, s := range d.Shaders {
		assert.True(t, s.Deleted)
	}
}

func TestLinkFailureReleasesProgram(t *testing.T) {
	d := graphicstest.New()
	d.LinkHook = func(*graphicstest.Program) (bool, string) {
		return false, "error: fragment output fragColor not written"
	}
	p, err := Compile(d, Raster, ScreenSources(false))

	var le *LinkError
	require.True(t, errors.As(err, &le))
	assert.Contains(t, le.Log, "fragColor")
	assert.Equal(t, Failed, p.State())
	assert.Zero(t, p.Handle())
	require.Len(t, d.Programs, 1)
	assert.Zero(t, d.LiveProgramCount())
}

func TestBindIsIdempotent(t *testing.T) {
	d := graphicstest.New()
	p, err := Compile(d, Raster, ScreenSources(false))
	require.NoError(t, err)

	require.NoError(t, p.Bind())
	require.NoError(t, p.Bind())
	assert.Equal(t, p.Handle(), d.Current)
}

func TestDestroyReleasesOnce(t *testing.T) {
	d := graphicstest.New()
	p, err := Compile(d, Compute, Sources{Compute: testCompute})
	require.NoError(t, err)
	handle := p.Handle()

	p.Destroy()
	p.Destroy()

	deletes := 0
	for _, c := range d.Calls {
		if c == fmt.Sprintf("DeleteProgram %d", handle) {
			deletes++
		}
	}
	assert.Equal(t, 1, deletes)
	assert.Equal(t, Destroyed, p.State())
	assert.ErrorIs(t, p.Dispatch(1, 1, 1), ErrProgramDestroyed)
	assert.ErrorIs(t, p.Recompile(Sources{Compute: testCompute}), ErrProgramDestroyed)
}

func TestRecompile(t *testing.T) {
	d := graphicstest.New()
	p, err := Compile(d, Compute, Sources{Compute: testCompute})
	require.NoError(t, err)
	old := p.Handle()
	p.UniformLocation("Rs")
	require.Equal(t, 1, d.LocationQueries["Rs"])

	t.Run("failure keeps the current program", func(t *testing.T) {
		err := p.Recompile(Sources{Compute: "void main() { float x = 1.0 }"})
		var ce *CompileError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, old, p.Handle())
		assert.Equal(t, Linked, p.State())
		p.UniformLocation("Rs")
		assert.Equal(t, 1, d.LocationQueries["Rs"], "cache survives a failed reload")
	})

	t.Run("success swaps handle and resets cache", func(t *testing.T) {
		src := Sources{Compute: testCompute + "\n// edited\n"}
		require.NoError(t, p.Recompile(src))
		assert.NotEqual(t, old, p.Handle())
		assert.True(t, d.Programs[old].Deleted)
		p.UniformLocation("Rs")
		assert.Equal(t, 2, d.LocationQueries["Rs"])
	})
}

func TestRecompileRecoversFailedProgram(t *testing.T) {
	d := graphicstest.New()
	p, err := Compile(d, Compute, Sources{})
	require.Error(t, err)
	require.Equal(t, Failed, p.State())

	require.NoError(t, p.Recompile(Sources{Compute: testCompute}))
	assert.Equal(t, Linked, p.State())
	assert.NoError(t, p.Dispatch(1, 1, 1))
}
