// Package graphicstest provides an in-memory graphics.Driver for tests.
//
// The fake models just enough of GL to check the pipeline's contracts: shader
// compile and link status with info logs, uniform declarations parsed from the
// sources, compute work-group sizes, image stores that only become visible to
// sampler fetches after a TextureFetch barrier, and a nearest-sample raster of
// the screen quad into a float framebuffer.
package graphicstest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/richinsley/goblackhole/graphics"
)

// Kernel computes the color of one invocation of a compute dispatch. It stands
// in for the compiled compute source.
type Kernel func(x, y int, p *Program) [4]float32

// Shader is a fake shader object.
type Shader struct {
	Stage    graphics.Stage
	Source   string
	Compiled bool
	Deleted  bool
}

// Program is a fake program object.
type Program struct {
	Shaders   []uint32
	Linked    bool
	Deleted   bool
	Compute   bool
	LocalSize [3]int32
	Uniforms  map[string]int32
	Values    map[int32][]float32
}

// Value returns the last value written to the named uniform.
func (p *Program) Value(name string) []float32 {
	loc, ok := p.Uniforms[name]
	if !ok {
		return nil
	}
	return p.Values[loc]
}

// Texture is a fake RGBA32F texture. Pending holds image stores that have not
// yet been made visible by a barrier.
type Texture struct {
	Width, Height int
	Pixels        []float32
	Pending       []float32
	Deleted       bool
}

// Driver is a fake graphics.Driver. The zero value is not usable; call New.
type Driver struct {
	Shaders  map[uint32]*Shader
	Programs map[uint32]*Program
	Textures map[uint32]*Texture
	Arrays   map[uint32][]float32

	// ImageUnits and SamplerUnits map a unit to the bound texture.
	ImageUnits   map[uint32]uint32
	SamplerUnits map[uint32]uint32
	Current      uint32

	// Kernel runs for every invocation of DispatchCompute against the image
	// bound to unit 0.
	Kernel Kernel

	// CompileHook and LinkHook replace the default status checks when set.
	CompileHook func(stage graphics.Stage, source string) (bool, string)
	LinkHook    func(p *Program) (bool, string)

	// LocationQueries counts UniformLocation calls per name.
	LocationQueries map[string]int
	// UniformWrites counts uniform writes of any type.
	UniformWrites int
	// Calls is an ordered log of state-changing calls.
	Calls []string

	FramebufferWidth  int
	FramebufferHeight int
	Framebuffer       []float32

	nextID uint32
}

var _ graphics.Driver = (*Driver)(nil)

// New returns an empty fake driver.
func New() *Driver {
	return &Driver{
		Shaders:         make(map[uint32]*Shader),
		Programs:        make(map[uint32]*Program),
		Textures:        make(map[uint32]*Texture),
		Arrays:          make(map[uint32][]float32),
		ImageUnits:      make(map[uint32]uint32),
		SamplerUnits:    make(map[uint32]uint32),
		LocationQueries: make(map[string]int),
	}
}

func (d *Driver) id() uint32 {
	d.nextID++
	return d.nextID
}

func (d *Driver) record(format string, args ...any) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

// CallNames returns the call log without arguments.
func (d *Driver) CallNames() []string {
	names := make([]string, len(d.Calls))
	for i, c := range d.Calls {
		names[i], _, _ = strings.Cut(c, " ")
	}
	return names
}

// ResetCalls clears the call log.
func (d *Driver) ResetCalls() { d.Calls = nil }

// LiveProgramCount returns the number of programs not yet deleted.
func (d *Driver) LiveProgramCount() int {
	n := 0
	for _, p := range d.Programs {
		if !p.Deleted {
			n++
		}
	}
	return n
}

var (
	uniformDecl = regexp.MustCompile(`(?m)^\s*(?:layout\s*\([^)]*\)\s*)?uniform\s+(?:(?:highp|mediump|lowp|writeonly|readonly)\s+)*\w+\s+(\w+)`)
	localSizeRe = regexp.MustCompile(`local_size_([xyz])\s*=\s*(\d+)`)
)

// defaultCompile rejects empty sources, sources without an entry point and
// declarations or assignments that are not terminated.
func defaultCompile(stage graphics.Stage, source string) (bool, string) {
	if strings.TrimSpace(source) == "" {
		return false, "0:0(0): error: empty source"
	}
	if !strings.Contains(source, "void main") {
		return false, "0:0(0): error: missing entry point main"
	}
	for i, line := range strings.Split(source, "\n") {
		l := strings.TrimSpace(line)
		if l == "" || strings.HasPrefix(l, "#") || strings.HasPrefix(l, "//") {
			continue
		}
		if strings.Contains(l, "=") || strings.HasPrefix(l, "uniform ") {
			if !strings.HasSuffix(l, ";") && !strings.HasSuffix(l, "{") && !strings.HasSuffix(l, ",") {
				return false, fmt.Sprintf("0:%d(1): error: syntax error, unexpected end of statement, expecting ';'", i+1)
			}
		}
	}
	return true, ""
}

func (d *Driver) CreateShader(stage graphics.Stage) uint32 {
	id := d.id()
	d.Shaders[id] = &Shader{Stage: stage}
	return id
}

func (d *Driver) CompileShader(shader uint32, source string) (bool, string) {
	s := d.Shaders[shader]
	s.Source = source
	check := defaultCompile
	if d.CompileHook != nil {
		check = d.CompileHook
	}
	ok, log := check(s.Stage, source)
	s.Compiled = ok
	return ok, log
}

func (d *Driver) DeleteShader(shader uint32) {
	if s, ok := d.Shaders[shader]; ok {
		s.Deleted = true
	}
}

func (d *Driver) CreateProgram() uint32 {
	id := d.id()
	d.Programs[id] = &Program{
		Uniforms: make(map[string]int32),
		Values:   make(map[int32][]float32),
	}
	return id
}

func (d *Driver) AttachShader(program, shader uint32) {
	p := d.Programs[program]
	p.Shaders = append(p.Shaders, shader)
}

func (d *Driver) LinkProgram(program uint32) (bool, string) {
	p := d.Programs[program]
	stages := make(map[graphics.Stage]*Shader)
	for _, id := range p.Shaders {
		s := d.Shaders[id]
		if !s.Compiled {
			return false, "error: attached shader is not compiled"
		}
		stages[s.Stage] = s
	}
	_, hasCompute := stages[graphics.ComputeStage]
	if hasCompute && len(stages) > 1 {
		return false, "error: compute shader cannot be linked with other stages"
	}
	if !hasCompute {
		if _, ok := stages[graphics.VertexStage]; !ok {
			return false, "error: program lacks a vertex shader"
		}
		if _, ok := stages[graphics.FragmentStage]; !ok {
			return false, "error: program lacks a fragment shader"
		}
	}
	if d.LinkHook != nil {
		if ok, log := d.LinkHook(p); !ok {
			return false, log
		}
	}

	p.Compute = hasCompute
	p.LocalSize = [3]int32{1, 1, 1}
	var loc int32
	for _, id := range p.Shaders {
		src := d.Shaders[id].Source
		for _, m := range uniformDecl.FindAllStringSubmatch(src, -1) {
			if _, seen := p.Uniforms[m[1]]; !seen {
				p.Uniforms[m[1]] = loc
				loc++
			}
		}
		if hasCompute {
			for _, m := range localSizeRe.FindAllStringSubmatch(src, -1) {
				n, _ := strconv.Atoi(m[2])
				p.LocalSize[m[1][0]-'x'] = int32(n)
			}
		}
	}
	p.Linked = true
	return true, ""
}

func (d *Driver) DeleteProgram(program uint32) {
	d.record("DeleteProgram %d", program)
	if p, ok := d.Programs[program]; ok {
		p.Deleted = true
	}
}

func (d *Driver) UseProgram(program uint32) {
	d.record("UseProgram %d", program)
	d.Current = program
}

func (d *Driver) WorkGroupSize(program uint32) [3]int32 {
	if p, ok := d.Programs[program]; ok && p.Compute {
		return p.LocalSize
	}
	return [3]int32{}
}

func (d *Driver) UniformLocation(program uint32, name string) int32 {
	d.LocationQueries[name]++
	p, ok := d.Programs[program]
	if !ok || !p.Linked {
		return -1
	}
	if loc, ok := p.Uniforms[name]; ok {
		return loc
	}
	return -1
}

func (d *Driver) write(location int32, v ...float32) {
	d.UniformWrites++
	d.record("Uniform %d", location)
	p, ok := d.Programs[d.Current]
	if !ok || location < 0 {
		return
	}
	p.Values[location] = v
}

func (d *Driver) Uniform1i(location int32, v int32)      { d.write(location, float32(v)) }
func (d *Driver) Uniform2i(location int32, x, y int32)   { d.write(location, float32(x), float32(y)) }
func (d *Driver) Uniform1f(location int32, v float32)    { d.write(location, v) }
func (d *Driver) Uniform2f(location int32, x, y float32) { d.write(location, x, y) }
func (d *Driver) Uniform3f(location int32, x, y, z float32) {
	d.write(location, x, y, z)
}
func (d *Driver) Uniform4f(location int32, x, y, z, w float32) {
	d.write(location, x, y, z, w)
}
func (d *Driver) UniformMatrix4f(location int32, m [16]float32) {
	d.write(location, m[:]...)
}

// DispatchCompute runs Kernel for every invocation that falls inside the
// image bound to unit 0. Results land in Pending until a barrier.
func (d *Driver) DispatchCompute(x, y, z uint32) {
	d.record("DispatchCompute %d %d %d", x, y, z)
	p, ok := d.Programs[d.Current]
	if !ok || !p.Compute || d.Kernel == nil {
		return
	}
	tex, ok := d.Textures[d.ImageUnits[0]]
	if !ok {
		return
	}
	if tex.Pending == nil {
		tex.Pending = append([]float32(nil), tex.Pixels...)
	}
	w := int(x) * int(p.LocalSize[0])
	h := int(y) * int(p.LocalSize[1])
	for py := 0; py < h && py < tex.Height; py++ {
		for px := 0; px < w && px < tex.Width; px++ {
			c := d.Kernel(px, py, p)
			copy(tex.Pending[(py*tex.Width+px)*4:], c[:])
		}
	}
}

func (d *Driver) MemoryBarrier(bits graphics.Barrier) {
	d.record("MemoryBarrier %d", bits)
	if bits&(graphics.TextureFetchBarrier|graphics.TextureUpdateBarrier) == 0 {
		return
	}
	for _, tex := range d.Textures {
		if tex.Pending != nil {
			tex.Pixels = tex.Pending
			tex.Pending = nil
		}
	}
}

func (d *Driver) CreateTexture2D(width, height int) uint32 {
	id := d.id()
	d.Textures[id] = &Texture{Width: width, Height: height, Pixels: make([]float32, width*height*4)}
	return id
}

func (d *Driver) DeleteTexture(texture uint32) {
	d.record("DeleteTexture %d", texture)
	if t, ok := d.Textures[texture]; ok {
		t.Deleted = true
	}
}

func (d *Driver) BindImageTexture(unit, texture uint32, access graphics.Access) {
	d.record("BindImageTexture %d %d", unit, texture)
	d.ImageUnits[unit] = texture
}

func (d *Driver) BindTexture(unit, texture uint32) {
	d.record("BindTexture %d %d", unit, texture)
	d.SamplerUnits[unit] = texture
}

func (d *Driver) ReadTexture(texture uint32, width, height int) []float32 {
	tex := d.Textures[texture]
	return append([]float32(nil), tex.Pixels[:width*height*4]...)
}

func (d *Driver) CreateVertexArray(vertices []float32) (uint32, uint32) {
	vao, vbo := d.id(), d.id()
	d.Arrays[vao] = append([]float32(nil), vertices...)
	return vao, vbo
}

func (d *Driver) DeleteVertexArray(vao, vbo uint32) {
	d.record("DeleteVertexArray %d", vao)
	delete(d.Arrays, vao)
}

// DrawTriangles rasterizes a full-screen quad by nearest-sampling the texture
// bound to sampler unit 0 into the framebuffer.
func (d *Driver) DrawTriangles(vao uint32, count int32) {
	d.record("DrawTriangles %d %d", vao, count)
	p, ok := d.Programs[d.Current]
	if !ok || p.Compute {
		return
	}
	tex, ok := d.Textures[d.SamplerUnits[0]]
	if !ok || d.FramebufferWidth == 0 || d.FramebufferHeight == 0 {
		return
	}
	for y := 0; y < d.FramebufferHeight; y++ {
		ty := y * tex.Height / d.FramebufferHeight
		for x := 0; x < d.FramebufferWidth; x++ {
			tx := x * tex.Width / d.FramebufferWidth
			src := tex.Pixels[(ty*tex.Width+tx)*4:]
			copy(d.Framebuffer[(y*d.FramebufferWidth+x)*4:], src[:4])
		}
	}
}

func (d *Driver) Viewport(width, height int) {
	d.record("Viewport %d %d", width, height)
	if width != d.FramebufferWidth || height != d.FramebufferHeight {
		d.FramebufferWidth, d.FramebufferHeight = width, height
		d.Framebuffer = make([]float32, width*height*4)
	}
}

func (d *Driver) Clear(r, g, b, a float32) {
	d.record("Clear")
	for i := 0; i < len(d.Framebuffer); i += 4 {
		d.Framebuffer[i], d.Framebuffer[i+1], d.Framebuffer[i+2], d.Framebuffer[i+3] = r, g, b, a
	}
}
