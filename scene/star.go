package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/goblackhole/shader"
)

// Star is an emissive sphere lensed by the black hole.
type Star struct {
	dirtyFlag

	position      mgl32.Vec3
	radius        float32
	emissionColor mgl32.Vec3
	intensity     float32
}

var _ Binding = (*Star)(nil)

func NewStar(pos mgl32.Vec3, r float32, color mgl32.Vec3, intensity float32) *Star {
	return &Star{
		dirtyFlag:     dirtyFlag{dirty: true},
		position:      pos,
		radius:        r,
		emissionColor: color,
		intensity:     intensity,
	}
}

func (s *Star) Position() mgl32.Vec3      { return s.position }
func (s *Star) Radius() float32           { return s.radius }
func (s *Star) EmissionColor() mgl32.Vec3 { return s.emissionColor }
func (s *Star) Intensity() float32        { return s.intensity }

func (s *Star) SetPosition(pos mgl32.Vec3) {
	s.position = pos
	s.MarkDirty()
}

func (s *Star) SetRadius(r float32) {
	s.radius = r
	s.MarkDirty()
}

func (s *Star) SetEmission(color mgl32.Vec3, intensity float32) {
	s.emissionColor = color
	s.intensity = intensity
	s.MarkDirty()
}

func (s *Star) Push(u shader.UniformSetter) error {
	err := firstErr(
		func() error { return u.SetVec3(shader.UniformStarCenter, s.position) },
		func() error { return u.SetFloat(shader.UniformStarRadius, s.radius) },
		func() error { return u.SetVec3(shader.UniformStarEmissionColor, s.emissionColor) },
		func() error { return u.SetFloat(shader.UniformStarIntensity, s.intensity) },
	)
	if err != nil {
		return err
	}
	s.clean()
	return nil
}
