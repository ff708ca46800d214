package graphics

// Stage identifies a programmable pipeline stage.
type Stage int

const (
	VertexStage Stage = iota
	FragmentStage
	ComputeStage
)

func (s Stage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	case ComputeStage:
		return "compute"
	default:
		return "unknown"
	}
}

// Barrier is a set of memory barrier bits passed to MemoryBarrier.
type Barrier uint32

const (
	// ShaderImageAccessBarrier orders image load/store against later image access.
	ShaderImageAccessBarrier Barrier = 1 << iota
	// TextureFetchBarrier orders image stores against later sampler fetches.
	TextureFetchBarrier
	// TextureUpdateBarrier orders image stores against later texture readback.
	TextureUpdateBarrier
)

// Access is the access mode of an image unit binding.
type Access int

const (
	ReadOnly Access = iota
	WriteOnly
	ReadWrite
)

// Driver is the set of GL entry points used by the pipeline. It exists so the
// program, image and frame logic can run against gldriver on a real context
// and against graphicstest in unit tests. All methods must be called from the
// thread that owns the current context.
type Driver interface {
	// CreateShader returns a new shader object for the stage.
	CreateShader(stage Stage) uint32
	// CompileShader uploads source and compiles it, returning the compile
	// status and the info log.
	CompileShader(shader uint32, source string) (bool, string)
	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	// LinkProgram links the program, returning the link status and info log.
	LinkProgram(program uint32) (bool, string)
	DeleteProgram(program uint32)
	UseProgram(program uint32)
	// WorkGroupSize returns the local size declared by a linked compute program.
	WorkGroupSize(program uint32) [3]int32

	// UniformLocation returns the location of name in program, or -1.
	UniformLocation(program uint32, name string) int32
	Uniform1i(location int32, v int32)
	Uniform2i(location int32, x, y int32)
	Uniform1f(location int32, v float32)
	Uniform2f(location int32, x, y float32)
	Uniform3f(location int32, x, y, z float32)
	Uniform4f(location int32, x, y, z, w float32)
	// UniformMatrix4f writes a column-major 4x4 matrix.
	UniformMatrix4f(location int32, m [16]float32)

	DispatchCompute(x, y, z uint32)
	MemoryBarrier(bits Barrier)

	// CreateTexture2D allocates an RGBA32F texture with linear filtering and
	// clamp-to-edge wrapping.
	CreateTexture2D(width, height int) uint32
	DeleteTexture(texture uint32)
	// BindImageTexture binds level 0 of texture to an image unit as RGBA32F.
	BindImageTexture(unit, texture uint32, access Access)
	// BindTexture binds texture to a sampler (texture) unit.
	BindTexture(unit, texture uint32)
	// ReadTexture returns the RGBA32F contents of level 0 of texture.
	ReadTexture(texture uint32, width, height int) []float32

	// CreateVertexArray uploads interleaved vec2 position / vec2 uv vertices
	// and returns the vertex array and buffer objects.
	CreateVertexArray(vertices []float32) (vao, vbo uint32)
	DeleteVertexArray(vao, vbo uint32)
	DrawTriangles(vao uint32, count int32)

	Viewport(width, height int)
	Clear(r, g, b, a float32)
}
