package shader

import (
	"fmt"

	"github.com/richinsley/goblackhole/graphics"
)

// Kind selects the pipeline a program is built for.
type Kind int

const (
	// Raster programs pair a vertex and a fragment stage.
	Raster Kind = iota
	// Compute programs have a single compute stage.
	Compute
)

func (k Kind) String() string {
	if k == Compute {
		return "compute"
	}
	return "raster"
}

// State is the lifecycle state of a Program.
type State int

const (
	Failed State = iota
	Linked
	Destroyed
)

func (s State) String() string {
	switch s {
	case Linked:
		return "linked"
	case Destroyed:
		return "destroyed"
	default:
		return "failed"
	}
}

// Sources holds the stage sources of a program. Raster programs read Vertex
// and Fragment, compute programs read Compute.
type Sources struct {
	Vertex   string
	Fragment string
	Compute  string
}

type stageSource struct {
	stage  graphics.Stage
	source string
}

func (s Sources) stages(kind Kind) []stageSource {
	if kind == Compute {
		return []stageSource{{graphics.ComputeStage, s.Compute}}
	}
	return []stageSource{
		{graphics.VertexStage, s.Vertex},
		{graphics.FragmentStage, s.Fragment},
	}
}

// Program owns one linked GL program object and its uniform location cache.
//
// A Program is either Linked with a non-zero handle, Failed with handle 0, or
// Destroyed. Only a Linked program can be bound, dispatched or written to.
type Program struct {
	driver    graphics.Driver
	kind      Kind
	state     State
	handle    uint32
	uniforms  *UniformCache
	localSize [3]int32
	aliases   map[string]string
}

// Option configures a Program at compile time.
type Option func(*Program)

// WithAliases maps logical uniform names to the names present in the linked
// program, for sources that went through the shader translator.
func WithAliases(aliases map[string]string) Option {
	return func(p *Program) {
		p.aliases = aliases
	}
}

// Compile builds a program of the given kind. Every required stage is
// compiled in order and the first failure stops the build before linking.
//
// On failure Compile returns a Failed program together with a *CompileError
// or *LinkError carrying the driver log. The caller decides whether that is
// fatal; it must not use the Failed program.
func Compile(d graphics.Driver, kind Kind, src Sources, opts ...Option) (*Program, error) {
	p := &Program{
		driver: d,
		kind:   kind,
		state:  Failed,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.uniforms = newUniformCache(d, 0, p.aliases)

	handle, err := build(d, kind, src)
	if err != nil {
		graphics.Logger().Error("failed to create shader program", "kind", kind, "err", err)
		return p, err
	}
	p.adopt(handle)
	return p, nil
}

func build(d graphics.Driver, kind Kind, src Sources) (uint32, error) {
	stages := src.stages(kind)
	shaders := make([]uint32, 0, len(stages))
	defer func() {
		for _, s := range shaders {
			d.DeleteShader(s)
		}
	}()

	for _, st := range stages {
		id := d.CreateShader(st.stage)
		shaders = append(shaders, id)
		if ok, log := d.CompileShader(id, st.source); !ok {
			return 0, &CompileError{Stage: st.stage, Log: log}
		}
		graphics.Logger().Debug("compiled shader", "stage", st.stage)
	}

	program := d.CreateProgram()
	for _, s := range shaders {
		d.AttachShader(program, s)
	}
	if ok, log := d.LinkProgram(program); !ok {
		d.DeleteProgram(program)
		return 0, &LinkError{Log: log}
	}
	graphics.Logger().Debug("linked shader program", "kind", kind, "handle", program)
	return program, nil
}

func (p *Program) adopt(handle uint32) {
	p.handle = handle
	p.state = Linked
	p.uniforms.reset(handle)
	if p.kind == Compute {
		p.localSize = p.driver.WorkGroupSize(handle)
	}
}

func (p *Program) usable() error {
	switch p.state {
	case Linked:
		return nil
	case Destroyed:
		return ErrProgramDestroyed
	default:
		return ErrProgramFailed
	}
}

// Err reports why the program cannot be used, or nil if it is linked.
func (p *Program) Err() error { return p.usable() }

func (p *Program) Handle() uint32 { return p.handle }
func (p *Program) Kind() Kind     { return p.kind }
func (p *Program) State() State   { return p.state }

// LocalSize is the work-group size declared by a compute program.
func (p *Program) LocalSize() [3]int32 { return p.localSize }

// Bind makes the program current. Binding twice is harmless.
func (p *Program) Bind() error {
	if err := p.usable(); err != nil {
		return err
	}
	p.driver.UseProgram(p.handle)
	return nil
}

// Unbind clears the current program.
func (p *Program) Unbind() {
	p.driver.UseProgram(0)
}

// Dispatch binds the program and launches gx*gy*gz work groups.
func (p *Program) Dispatch(gx, gy, gz uint32) error {
	if err := p.usable(); err != nil {
		return err
	}
	if p.kind != Compute {
		return ErrInvalidDispatch
	}
	if gx == 0 || gy == 0 || gz == 0 {
		return fmt.Errorf("%w: (%d, %d, %d)", ErrInvalidGroupCount, gx, gy, gz)
	}
	p.driver.UseProgram(p.handle)
	p.driver.DispatchCompute(gx, gy, gz)
	return nil
}

// UniformLocation resolves name through the program's cache. Names that are
// not active in the program resolve to -1.
func (p *Program) UniformLocation(name string) int32 {
	return p.uniforms.Location(name)
}

// Recompile builds src into a new program object. On success the old handle is
// released and the uniform cache starts over; on failure the current program
// stays in place and the error is returned.
func (p *Program) Recompile(src Sources) error {
	if p.state == Destroyed {
		return ErrProgramDestroyed
	}
	handle, err := build(p.driver, p.kind, src)
	if err != nil {
		graphics.Logger().Error("failed to recompile shader program", "kind", p.kind, "err", err)
		return err
	}
	if p.handle != 0 {
		p.driver.DeleteProgram(p.handle)
	}
	p.adopt(handle)
	graphics.Logger().Info("reloaded shader program", "kind", p.kind, "handle", handle)
	return nil
}

// Destroy releases the GL program. Later calls do nothing.
func (p *Program) Destroy() {
	if p.state == Destroyed {
		return
	}
	if p.handle != 0 {
		p.driver.DeleteProgram(p.handle)
	}
	p.handle = 0
	p.state = Destroyed
	p.uniforms.reset(0)
}
