package shader

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/goblackhole/graphics"
)

// UniformCache memoizes uniform locations of one program. The driver is asked
// once per name; names that are not active in the program are cached as -1.
// Only the owning Program resets it, when its handle changes.
type UniformCache struct {
	driver    graphics.Driver
	program   uint32
	aliases   map[string]string
	locations map[string]int32
}

func newUniformCache(d graphics.Driver, program uint32, aliases map[string]string) *UniformCache {
	return &UniformCache{
		driver:    d,
		program:   program,
		aliases:   aliases,
		locations: make(map[string]int32),
	}
}

// Location returns the cached location for name.
func (c *UniformCache) Location(name string) int32 {
	if loc, ok := c.locations[name]; ok {
		return loc
	}
	if c.program == 0 {
		return -1
	}
	mapped := name
	if alias, ok := c.aliases[name]; ok {
		mapped = alias
	}
	loc := c.driver.UniformLocation(c.program, mapped)
	c.locations[name] = loc
	if loc < 0 {
		graphics.Logger().Debug("uniform is not active, writes will be dropped", "name", name, "program", c.program)
	}
	return loc
}

// Len returns the number of cached names.
func (c *UniformCache) Len() int { return len(c.locations) }

func (c *UniformCache) reset(program uint32) {
	c.program = program
	c.locations = make(map[string]int32)
}

// Value lists the uniform types the pipeline writes.
type Value interface {
	int32 | [2]int32 | float32 | mgl32.Vec2 | mgl32.Vec3 | mgl32.Vec4 | mgl32.Mat4
}

// UniformSetter is the surface scene bindings push their parameters into.
type UniformSetter interface {
	SetInt(name string, v int32) error
	SetIVec2(name string, v [2]int32) error
	SetFloat(name string, v float32) error
	SetVec3(name string, v mgl32.Vec3) error
	SetMat4(name string, v mgl32.Mat4) error
}

var _ UniformSetter = (*Program)(nil)

// SetUniform binds p and writes v to the uniform called name.
//
// A name that is not active in the linked program resolves to location -1
// and the write is dropped, which is how GL itself treats location -1. This
// is not reported as an error: a uniform the compiler optimized away is
// indistinguishable from a misspelled one. The only error is an unusable
// program.
func SetUniform[T Value](p *Program, name string, v T) error {
	if err := p.Bind(); err != nil {
		return err
	}
	loc := p.uniforms.Location(name)
	if loc < 0 {
		return nil
	}
	d := p.driver
	switch v := any(v).(type) {
	case int32:
		d.Uniform1i(loc, v)
	case [2]int32:
		d.Uniform2i(loc, v[0], v[1])
	case float32:
		d.Uniform1f(loc, v)
	case mgl32.Vec2:
		d.Uniform2f(loc, v[0], v[1])
	case mgl32.Vec3:
		d.Uniform3f(loc, v[0], v[1], v[2])
	case mgl32.Vec4:
		d.Uniform4f(loc, v[0], v[1], v[2], v[3])
	case mgl32.Mat4:
		d.UniformMatrix4f(loc, [16]float32(v))
	}
	return nil
}

func (p *Program) SetInt(name string, v int32) error       { return SetUniform(p, name, v) }
func (p *Program) SetIVec2(name string, v [2]int32) error  { return SetUniform(p, name, v) }
func (p *Program) SetFloat(name string, v float32) error   { return SetUniform(p, name, v) }
func (p *Program) SetVec2(name string, v mgl32.Vec2) error { return SetUniform(p, name, v) }
func (p *Program) SetVec3(name string, v mgl32.Vec3) error { return SetUniform(p, name, v) }
func (p *Program) SetVec4(name string, v mgl32.Vec4) error { return SetUniform(p, name, v) }
func (p *Program) SetMat4(name string, v mgl32.Mat4) error { return SetUniform(p, name, v) }
