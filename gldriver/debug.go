package gldriver

import (
	"context"
	"log/slog"
	"unsafe"

	gl "github.com/go-gl/gl/v4.3-core/gl"
	"github.com/richinsley/goblackhole/graphics"
)

// Driver chatter about buffer placement and shader recompiles.
var ignoredDebugIDs = map[uint32]struct{}{
	131169: {},
	131185: {},
	131218: {},
	131204: {},
}

// EnableDebugOutput routes KHR_debug messages into the shared logger. The
// context must have been created with the debug flag, otherwise it reports
// false and does nothing.
func EnableDebugOutput() bool {
	var flags int32
	gl.GetIntegerv(gl.CONTEXT_FLAGS, &flags)
	if flags&gl.CONTEXT_FLAG_DEBUG_BIT == 0 {
		return false
	}
	gl.Enable(gl.DEBUG_OUTPUT)
	gl.Enable(gl.DEBUG_OUTPUT_SYNCHRONOUS)
	gl.DebugMessageCallback(debugCallback, nil)
	gl.DebugMessageControl(gl.DONT_CARE, gl.DONT_CARE, gl.DONT_CARE, 0, nil, true)
	graphics.Logger().Info("OpenGL debug output enabled")
	return true
}

func debugCallback(source, gltype, id, severity uint32, length int32, message string, userParam unsafe.Pointer) {
	if _, ok := ignoredDebugIDs[id]; ok {
		return
	}
	level := slog.LevelDebug
	if severity == gl.DEBUG_SEVERITY_HIGH || gltype == gl.DEBUG_TYPE_ERROR {
		level = slog.LevelError
	}
	graphics.Logger().Log(context.Background(), level, "OpenGL debug", "id", id, "message", message)
}
