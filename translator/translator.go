package translator

import (
	"context"
	"fmt"
	"sync"

	"github.com/richinsley/goblackhole/graphics"
	"github.com/richinsley/goblackhole/shader"
	gst "github.com/richinsley/goshadertranslator"
)

var (
	translator     *gst.ShaderTranslator
	translatorErr  error
	translatorOnce sync.Once
)

// GetTranslator returns the process-wide translator, creating it on first use.
func GetTranslator() (*gst.ShaderTranslator, error) {
	translatorOnce.Do(func() {
		translator, translatorErr = gst.NewShaderTranslator(context.Background())
	})
	return translator, translatorErr
}

// ScreenSources translates the built-in ES presentation shaders for a
// desktop core context. The returned map takes the uniform names used in the
// ES sources to the names the translator gave them, for shader.WithAliases.
func ScreenSources() (shader.Sources, map[string]string, error) {
	t, err := GetTranslator()
	if err != nil {
		return shader.Sources{}, nil, fmt.Errorf("failed to create shader translator: %w", err)
	}
	es := shader.ScreenSources(true)

	vsShader, err := t.TranslateShader(es.Vertex, "vertex", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL410)
	if err != nil {
		return shader.Sources{}, nil, fmt.Errorf("vertex shader translation failed: %w", err)
	}
	fsShader, err := t.TranslateShader(es.Fragment, "fragment", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL410)
	if err != nil {
		return shader.Sources{}, nil, fmt.Errorf("fragment shader translation failed: %w", err)
	}

	aliases := make(map[string]string)
	for name, v := range fsShader.Variables {
		if v.MappedName != "" && v.MappedName != name {
			aliases[name] = v.MappedName
		}
	}
	graphics.Logger().Debug("translated screen shaders", "aliases", aliases)

	return shader.Sources{Vertex: vsShader.Code, Fragment: fsShader.Code}, aliases, nil
}
