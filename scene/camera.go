package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/goblackhole/shader"
)

// Movement is a set of directions held down during a frame.
type Movement uint8

const (
	MoveForward Movement = 1 << iota
	MoveBackward
	MoveLeft
	MoveRight
	MoveUp
	MoveDown
)

const (
	DefaultYaw         = -90.0
	DefaultSpeed       = 2.5
	DefaultSensitivity = 0.1
	DefaultFOV         = 45.0
	DefaultNear        = 0.1
	DefaultFar         = 100.0

	maxPitch = 89.0
)

var worldUp = mgl32.Vec3{0, 1, 0}

// Camera is a free-look camera. It is dynamic: Dirty always reports true and
// the camera pushes its matrices on every frame.
type Camera struct {
	Position    mgl32.Vec3
	Speed       float32
	Sensitivity float32
	FOV         float32 // vertical, degrees
	Near, Far   float32

	yaw, pitch float32
	front      mgl32.Vec3

	aspect     float32
	resolution [2]int32

	lastX, lastY float64
	firstMouse   bool
}

var _ Binding = (*Camera)(nil)

// NewCamera returns a camera at pos looking down -Z.
func NewCamera(pos mgl32.Vec3) *Camera {
	c := &Camera{
		Position:    pos,
		Speed:       DefaultSpeed,
		Sensitivity: DefaultSensitivity,
		FOV:         DefaultFOV,
		Near:        DefaultNear,
		Far:         DefaultFar,
		yaw:         DefaultYaw,
		aspect:      1,
		firstMouse:  true,
	}
	c.updateVectors()
	return c
}

func (c *Camera) updateVectors() {
	yaw := float64(mgl32.DegToRad(c.yaw))
	pitch := float64(mgl32.DegToRad(c.pitch))
	c.front = mgl32.Vec3{
		float32(math.Cos(yaw) * math.Cos(pitch)),
		float32(math.Sin(pitch)),
		float32(math.Sin(yaw) * math.Cos(pitch)),
	}.Normalize()
}

func (c *Camera) Front() mgl32.Vec3 { return c.front }
func (c *Camera) Yaw() float32      { return c.yaw }
func (c *Camera) Pitch() float32    { return c.pitch }

// SetOrientation sets yaw and pitch in degrees. Pitch is clamped to ±89°.
func (c *Camera) SetOrientation(yaw, pitch float32) {
	c.yaw = yaw
	c.pitch = mgl32.Clamp(pitch, -maxPitch, maxPitch)
	c.updateVectors()
}

// SetResolution sets the size of the render target the rays are cast for.
func (c *Camera) SetResolution(width, height int) {
	c.resolution = [2]int32{int32(width), int32(height)}
}

// SetAspect sets the projection aspect ratio, normally the render image's.
func (c *Camera) SetAspect(aspect float32) {
	if aspect > 0 {
		c.aspect = aspect
	}
}

func (c *Camera) Resolution() [2]int32 { return c.resolution }
func (c *Camera) Aspect() float32      { return c.aspect }

// Move integrates the held directions over dt seconds.
func (c *Camera) Move(m Movement, dt float32) {
	v := c.Speed * dt
	right := c.front.Cross(worldUp).Normalize()
	if m&MoveForward != 0 {
		c.Position = c.Position.Add(c.front.Mul(v))
	}
	if m&MoveBackward != 0 {
		c.Position = c.Position.Sub(c.front.Mul(v))
	}
	if m&MoveLeft != 0 {
		c.Position = c.Position.Sub(right.Mul(v))
	}
	if m&MoveRight != 0 {
		c.Position = c.Position.Add(right.Mul(v))
	}
	if m&MoveUp != 0 {
		c.Position = c.Position.Add(worldUp.Mul(v))
	}
	if m&MoveDown != 0 {
		c.Position = c.Position.Sub(worldUp.Mul(v))
	}
}

// Look turns the camera by the cursor motion since the previous call. The
// first call only records the cursor position.
func (c *Camera) Look(xpos, ypos float64) {
	if c.firstMouse {
		c.lastX, c.lastY = xpos, ypos
		c.firstMouse = false
		return
	}
	dx := float32(xpos-c.lastX) * c.Sensitivity
	dy := float32(c.lastY-ypos) * c.Sensitivity
	c.lastX, c.lastY = xpos, ypos
	c.SetOrientation(c.yaw+dx, c.pitch+dy)
}

// LookAt points the camera at target.
func (c *Camera) LookAt(target mgl32.Vec3) {
	dir := target.Sub(c.Position)
	if dir.Len() == 0 {
		return
	}
	dir = dir.Normalize()
	yaw := mgl32.RadToDeg(float32(math.Atan2(float64(dir[2]), float64(dir[0]))))
	pitch := mgl32.RadToDeg(float32(math.Asin(float64(dir[1]))))
	c.SetOrientation(yaw, pitch)
}

// Orbit places the camera on a horizontal circle of the given radius and
// height around target, at angle radians, looking at target.
func (c *Camera) Orbit(target mgl32.Vec3, radius, height, angle float32) {
	c.Position = target.Add(mgl32.Vec3{
		radius * float32(math.Cos(float64(angle))),
		height,
		radius * float32(math.Sin(float64(angle))),
	})
	c.LookAt(target)
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.front), worldUp)
}

func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.aspect, c.Near, c.Far)
}

func (c *Camera) Dirty() bool { return true }

func (c *Camera) Push(u shader.UniformSetter) error {
	return firstErr(
		func() error { return u.SetVec3(shader.UniformCameraPos, c.Position) },
		func() error { return u.SetMat4(shader.UniformInvView, c.View().Inv()) },
		func() error { return u.SetMat4(shader.UniformInvProjection, c.Projection().Inv()) },
		func() error { return u.SetIVec2(shader.UniformResolution, c.resolution) },
	)
}
