// Package gldriver implements graphics.Driver on desktop OpenGL 4.3 core.
package gldriver

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	gl "github.com/go-gl/gl/v4.3-core/gl"
	"github.com/richinsley/goblackhole/graphics"
)

// glInitOnce ensures the OpenGL function pointers are loaded once.
var glInitOnce sync.Once

// Driver forwards graphics.Driver calls to go-gl. A context must be current on
// the calling thread.
type Driver struct{}

var _ graphics.Driver = (*Driver)(nil)

// New loads the GL function pointers for the current context and checks that
// compute shaders are available.
func New() (*Driver, error) {
	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}

	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	if major < 4 || (major == 4 && minor < 3) {
		return nil, fmt.Errorf("OpenGL 4.3 required for compute shaders, context is %d.%d", major, minor)
	}
	graphics.Logger().Info("OpenGL initialized",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))
	return &Driver{}, nil
}

func stageEnum(stage graphics.Stage) uint32 {
	switch stage {
	case graphics.VertexStage:
		return gl.VERTEX_SHADER
	case graphics.FragmentStage:
		return gl.FRAGMENT_SHADER
	default:
		return gl.COMPUTE_SHADER
	}
}

func accessEnum(access graphics.Access) uint32 {
	switch access {
	case graphics.ReadOnly:
		return gl.READ_ONLY
	case graphics.WriteOnly:
		return gl.WRITE_ONLY
	default:
		return gl.READ_WRITE
	}
}

func (d *Driver) CreateShader(stage graphics.Stage) uint32 {
	return gl.CreateShader(stageEnum(stage))
}

func (d *Driver) CompileShader(shader uint32, source string) (bool, string) {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}
	var logLength int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
	logText := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
	return false, strings.TrimRight(logText, "\x00")
}

func (d *Driver) DeleteShader(shader uint32) { gl.DeleteShader(shader) }

func (d *Driver) CreateProgram() uint32 { return gl.CreateProgram() }

func (d *Driver) AttachShader(program, shader uint32) { gl.AttachShader(program, shader) }

func (d *Driver) LinkProgram(program uint32) (bool, string) {
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	logText := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logText))
	return false, strings.TrimRight(logText, "\x00")
}

func (d *Driver) DeleteProgram(program uint32) { gl.DeleteProgram(program) }

func (d *Driver) UseProgram(program uint32) { gl.UseProgram(program) }

func (d *Driver) WorkGroupSize(program uint32) [3]int32 {
	var size [3]int32
	gl.GetProgramiv(program, gl.COMPUTE_WORK_GROUP_SIZE, &size[0])
	return size
}

func (d *Driver) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *Driver) Uniform1i(location int32, v int32)         { gl.Uniform1i(location, v) }
func (d *Driver) Uniform2i(location int32, x, y int32)      { gl.Uniform2i(location, x, y) }
func (d *Driver) Uniform1f(location int32, v float32)       { gl.Uniform1f(location, v) }
func (d *Driver) Uniform2f(location int32, x, y float32)    { gl.Uniform2f(location, x, y) }
func (d *Driver) Uniform3f(location int32, x, y, z float32) { gl.Uniform3f(location, x, y, z) }
func (d *Driver) Uniform4f(location int32, x, y, z, w float32) {
	gl.Uniform4f(location, x, y, z, w)
}

func (d *Driver) UniformMatrix4f(location int32, m [16]float32) {
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}

func (d *Driver) DispatchCompute(x, y, z uint32) { gl.DispatchCompute(x, y, z) }

func (d *Driver) MemoryBarrier(bits graphics.Barrier) {
	var glBits uint32
	if bits&graphics.ShaderImageAccessBarrier != 0 {
		glBits |= gl.SHADER_IMAGE_ACCESS_BARRIER_BIT
	}
	if bits&graphics.TextureFetchBarrier != 0 {
		glBits |= gl.TEXTURE_FETCH_BARRIER_BIT
	}
	if bits&graphics.TextureUpdateBarrier != 0 {
		glBits |= gl.TEXTURE_UPDATE_BARRIER_BIT
	}
	gl.MemoryBarrier(glBits)
}

func (d *Driver) CreateTexture2D(width, height int) uint32 {
	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, int32(width), int32(height), 0, gl.RGBA, gl.FLOAT, nil)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return texture
}

func (d *Driver) DeleteTexture(texture uint32) { gl.DeleteTextures(1, &texture) }

func (d *Driver) BindImageTexture(unit, texture uint32, access graphics.Access) {
	gl.BindImageTexture(unit, texture, 0, false, 0, accessEnum(access), gl.RGBA32F)
}

func (d *Driver) BindTexture(unit, texture uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, texture)
}

func (d *Driver) ReadTexture(texture uint32, width, height int) []float32 {
	pixels := make([]float32, width*height*4)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.GetTexImage(gl.TEXTURE_2D, 0, gl.RGBA, gl.FLOAT, unsafe.Pointer(&pixels[0]))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return pixels
}

func (d *Driver) CreateVertexArray(vertices []float32) (uint32, uint32) {
	var vao, vbo uint32
	gl.GenVertexArrays(1, &vao)
	gl.GenBuffers(1, &vbo)
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	// location 0: position, location 1: texcoord
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(2*4))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return vao, vbo
}

func (d *Driver) DeleteVertexArray(vao, vbo uint32) {
	gl.DeleteBuffers(1, &vbo)
	gl.DeleteVertexArrays(1, &vao)
}

func (d *Driver) DrawTriangles(vao uint32, count int32) {
	gl.BindVertexArray(vao)
	gl.DrawArrays(gl.TRIANGLES, 0, count)
	gl.BindVertexArray(0)
}

func (d *Driver) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (d *Driver) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}
