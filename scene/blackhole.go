package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/goblackhole/shader"
)

const (
	// The accretion disk starts at the innermost stable circular orbit, three
	// Schwarzschild radii out.
	diskInnerFactor = 3.0
	diskOuterFactor = 10.0
)

var (
	defaultDiskColor  = mgl32.Vec3{1.0, 0.55, 0.2}
	defaultDiskNormal = mgl32.Vec3{0, 1, 0}
)

const defaultDiskIntensity = 1.5

// BlackHole is a Schwarzschild black hole with a thin accretion disk. The disk
// radii are derived from Radius and recomputed on every change.
type BlackHole struct {
	dirtyFlag

	position mgl32.Vec3
	radius   float32

	diskInner     float32
	diskOuter     float32
	diskColor     mgl32.Vec3
	diskIntensity float32
	diskNormal    mgl32.Vec3
}

var _ Binding = (*BlackHole)(nil)

// NewBlackHole returns a black hole at pos with Schwarzschild radius r.
func NewBlackHole(pos mgl32.Vec3, r float32) *BlackHole {
	bh := &BlackHole{
		position:      pos,
		diskColor:     defaultDiskColor,
		diskIntensity: defaultDiskIntensity,
		diskNormal:    defaultDiskNormal,
	}
	bh.SetRadius(r)
	return bh
}

func (b *BlackHole) Position() mgl32.Vec3     { return b.position }
func (b *BlackHole) Radius() float32          { return b.radius }
func (b *BlackHole) DiskInnerRadius() float32 { return b.diskInner }
func (b *BlackHole) DiskOuterRadius() float32 { return b.diskOuter }
func (b *BlackHole) DiskColor() mgl32.Vec3    { return b.diskColor }
func (b *BlackHole) DiskIntensity() float32   { return b.diskIntensity }
func (b *BlackHole) DiskNormal() mgl32.Vec3   { return b.diskNormal }

func (b *BlackHole) SetPosition(pos mgl32.Vec3) {
	b.position = pos
	b.MarkDirty()
}

// SetRadius changes the Schwarzschild radius and the disk geometry with it.
func (b *BlackHole) SetRadius(r float32) {
	b.radius = r
	b.diskInner = r * diskInnerFactor
	b.diskOuter = r * diskOuterFactor
	b.MarkDirty()
}

func (b *BlackHole) SetDisk(color mgl32.Vec3, intensity float32) {
	b.diskColor = color
	b.diskIntensity = intensity
	b.MarkDirty()
}

// SetDiskNormal tilts the disk. A zero vector is ignored.
func (b *BlackHole) SetDiskNormal(n mgl32.Vec3) {
	if n.Len() == 0 {
		return
	}
	b.diskNormal = n.Normalize()
	b.MarkDirty()
}

func (b *BlackHole) Push(u shader.UniformSetter) error {
	err := firstErr(
		func() error { return u.SetVec3(shader.UniformBlackHoleCenter, b.position) },
		func() error { return u.SetFloat(shader.UniformSchwarzschild, b.radius) },
		func() error { return u.SetFloat(shader.UniformDiskInnerRadius, b.diskInner) },
		func() error { return u.SetFloat(shader.UniformDiskOuterRadius, b.diskOuter) },
		func() error { return u.SetVec3(shader.UniformDiskColor, b.diskColor) },
		func() error { return u.SetFloat(shader.UniformDiskIntensity, b.diskIntensity) },
		func() error { return u.SetVec3(shader.UniformDiskNormal, b.diskNormal) },
	)
	if err != nil {
		return err
	}
	b.clean()
	return nil
}
