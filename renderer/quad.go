package renderer

import (
	"github.com/richinsley/goblackhole/graphics"
)

// quadVertices covers clip space with two triangles, interleaving vec2
// position and vec2 uv.
var quadVertices = []float32{
	// pos      uv
	-1.0, 1.0, 0.0, 1.0,
	-1.0, -1.0, 0.0, 0.0,
	1.0, -1.0, 1.0, 0.0,

	-1.0, 1.0, 0.0, 1.0,
	1.0, -1.0, 1.0, 0.0,
	1.0, 1.0, 1.0, 1.0,
}

const quadVertexCount = 6

// ScreenQuad is the static full-screen quad the compute output is drawn on.
type ScreenQuad struct {
	driver graphics.Driver
	vao    uint32
	vbo    uint32
}

func NewScreenQuad(d graphics.Driver) *ScreenQuad {
	vao, vbo := d.CreateVertexArray(quadVertices)
	return &ScreenQuad{driver: d, vao: vao, vbo: vbo}
}

// Draw issues the six-vertex draw. The caller binds the raster program and
// the texture beforehand.
func (q *ScreenQuad) Draw() {
	if q.vao == 0 {
		return
	}
	q.driver.DrawTriangles(q.vao, quadVertexCount)
}

func (q *ScreenQuad) Destroy() {
	if q.vao == 0 {
		return
	}
	q.driver.DeleteVertexArray(q.vao, q.vbo)
	q.vao, q.vbo = 0, 0
}
