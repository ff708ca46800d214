package shader

import (
	_ "embed"
)

// ────────────────────────────────── Desktop GL ──────────────────────────────────

//go:embed glsl/blackhole.comp
var computeShaderSourceGL string

//go:embed glsl/screen.vert
var screenVertexShaderSourceGL string

//go:embed glsl/screen.frag
var screenFragmentShaderSourceGL string

// ──────────────────────────────────── GLES ──────────────────────────────────────

// The ES variants of the presentation pair are fed through the shader
// translator, which rewrites them for the desktop context and renames the
// uniforms.

//go:embed glsl/screen_es.vert
var screenVertexShaderSourceGLES string

//go:embed glsl/screen_es.frag
var screenFragmentShaderSourceGLES string

// ────────────────────────────────── Public API ─────────────────────────────────

// ComputeSources returns the built-in black hole ray-march program.
func ComputeSources() Sources {
	return Sources{Compute: computeShaderSourceGL}
}

// ScreenSources returns the built-in presentation pair that samples the
// compute output onto the screen quad.
func ScreenSources(isGLES bool) Sources {
	if isGLES {
		return Sources{Vertex: screenVertexShaderSourceGLES, Fragment: screenFragmentShaderSourceGLES}
	}
	return Sources{Vertex: screenVertexShaderSourceGL, Fragment: screenFragmentShaderSourceGL}
}
