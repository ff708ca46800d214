package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/goblackhole/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	values map[string]any
	order  []string
	err    error
}

func newRecorder() *recorder { return &recorder{values: make(map[string]any)} }

func (r *recorder) set(name string, v any) error {
	if r.err != nil {
		return r.err
	}
	r.values[name] = v
	r.order = append(r.order, name)
	return nil
}

func (r *recorder) SetInt(name string, v int32) error       { return r.set(name, v) }
func (r *recorder) SetIVec2(name string, v [2]int32) error  { return r.set(name, v) }
func (r *recorder) SetFloat(name string, v float32) error   { return r.set(name, v) }
func (r *recorder) SetVec3(name string, v mgl32.Vec3) error { return r.set(name, v) }
func (r *recorder) SetMat4(name string, v mgl32.Mat4) error { return r.set(name, v) }

func TestBlackHoleDerivedRadii(t *testing.T) {
	bh := NewBlackHole(mgl32.Vec3{}, 1)
	assert.Equal(t, float32(3), bh.DiskInnerRadius())
	assert.Equal(t, float32(10), bh.DiskOuterRadius())

	bh.SetRadius(2)
	assert.Equal(t, float32(6), bh.DiskInnerRadius())
	assert.Equal(t, float32(20), bh.DiskOuterRadius())
}

func TestBlackHolePush(t *testing.T) {
	bh := NewBlackHole(mgl32.Vec3{1, 2, 3}, 0.5)
	require.True(t, bh.Dirty())

	r := newRecorder()
	require.NoError(t, bh.Push(r))
	assert.False(t, bh.Dirty())

	assert.Equal(t, mgl32.Vec3{1, 2, 3}, r.values[shader.UniformBlackHoleCenter])
	assert.Equal(t, float32(0.5), r.values[shader.UniformSchwarzschild])
	assert.Equal(t, float32(1.5), r.values[shader.UniformDiskInnerRadius])
	assert.Equal(t, float32(5), r.values[shader.UniformDiskOuterRadius])
	assert.Equal(t, defaultDiskNormal, r.values[shader.UniformDiskNormal])
	assert.Len(t, r.values, 7)

	bh.SetPosition(mgl32.Vec3{})
	assert.True(t, bh.Dirty())
}

func TestBlackHoleDiskNormal(t *testing.T) {
	bh := NewBlackHole(mgl32.Vec3{}, 1)
	bh.SetDiskNormal(mgl32.Vec3{0, 0, 2})
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, bh.DiskNormal())

	bh.SetDiskNormal(mgl32.Vec3{})
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, bh.DiskNormal())
}

func TestPushFailureKeepsDirty(t *testing.T) {
	star := NewStar(mgl32.Vec3{5, 0, 0}, 0.3, mgl32.Vec3{1, 1, 0.8}, 2)
	r := newRecorder()
	r.err = shader.ErrProgramFailed

	err := star.Push(r)
	assert.True(t, errors.Is(err, shader.ErrProgramFailed))
	assert.True(t, star.Dirty())

	r.err = nil
	require.NoError(t, star.Push(r))
	assert.False(t, star.Dirty())
	assert.Equal(t, []string{
		shader.UniformStarCenter,
		shader.UniformStarRadius,
		shader.UniformStarEmissionColor,
		shader.UniformStarIntensity,
	}, r.order)
}

func TestPushAllSkipsClean(t *testing.T) {
	bh := NewBlackHole(mgl32.Vec3{}, 1)
	star := NewStar(mgl32.Vec3{5, 0, 0}, 0.3, mgl32.Vec3{1, 1, 1}, 1)
	cam := NewCamera(mgl32.Vec3{0, 0, 5})

	r := newRecorder()
	require.NoError(t, PushAll(r, bh, star, cam))
	first := len(r.order)
	assert.Equal(t, 7+4+4, first)

	require.NoError(t, PushAll(r, bh, star, cam))
	assert.Equal(t, 4, len(r.order)-first, "only the camera pushes again")
}

func TestCameraDefaults(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{0, 0, 5})
	front := cam.Front()
	assert.InDeltaSlice(t, []float32{0, 0, -1}, front[:], 1e-6)
	assert.True(t, cam.Dirty())
}

func TestCameraLookClampsPitch(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{})
	cam.Look(100, 100)
	assert.Equal(t, float32(0), cam.Pitch(), "first sample only records the cursor")

	cam.Look(100, -10000)
	assert.Equal(t, float32(89), cam.Pitch())
	cam.Look(100, 10000)
	assert.Equal(t, float32(-89), cam.Pitch())

	cam.Look(110, 10000)
	assert.InDelta(t, -89.0, float64(cam.Yaw()), 1e-4)
}

func TestCameraMove(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{0, 0, 5})
	cam.Move(MoveForward, 2)
	assert.InDeltaSlice(t, []float32{0, 0, 0}, cam.Position[:], 1e-5)

	cam.Move(MoveRight|MoveUp, 1)
	assert.InDeltaSlice(t, []float32{2.5, 2.5, 0}, cam.Position[:], 1e-5)
}

func TestCameraOrbitLooksAtTarget(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{})
	target := mgl32.Vec3{0, 0, 0}
	cam.Orbit(target, 10, 2, 1.2)

	assert.InDelta(t, 10.0, float64(mgl32.Vec2{cam.Position[0], cam.Position[2]}.Len()), 1e-4)
	want := target.Sub(cam.Position).Normalize()
	front := cam.Front()
	assert.InDeltaSlice(t, want[:], front[:], 1e-4)
}

func TestCameraPush(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{0, 0, 5})
	cam.SetResolution(512, 512)
	cam.SetAspect(1280.0 / 720.0)

	r := newRecorder()
	require.NoError(t, cam.Push(r))
	assert.Equal(t, [2]int32{512, 512}, r.values[shader.UniformResolution])
	assert.Equal(t, mgl32.Vec3{0, 0, 5}, r.values[shader.UniformCameraPos])

	invView := r.values[shader.UniformInvView].(mgl32.Mat4)
	origin := invView.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDeltaSlice(t, []float32{0, 0, 5, 1}, origin[:], 1e-5)

	invProj := r.values[shader.UniformInvProjection].(mgl32.Mat4)
	assert.True(t, invProj.Mul4(cam.Projection()).ApproxEqualThreshold(mgl32.Ident4(), 1e-4))
}

func TestCameraProjectionUsesImageAspect(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{0, 0, 5})
	cam.SetResolution(512, 256)
	cam.SetAspect(512.0 / 256.0)
	cam.SetAspect(0)
	assert.Equal(t, float32(2), cam.Aspect(), "non-positive aspect is ignored")

	want := mgl32.Perspective(mgl32.DegToRad(cam.FOV), 2, cam.Near, cam.Far)
	assert.True(t, cam.Projection().ApproxEqualThreshold(want, 1e-6))
}
