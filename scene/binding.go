// Package scene holds the entities whose parameters drive the black hole
// compute program and the protocol they use to push them as uniforms.
package scene

import (
	"github.com/richinsley/goblackhole/shader"
)

// Binding pushes an entity's parameters into a program's uniform surface.
//
// Push is called once at setup, again whenever Dirty reports a change, and on
// every frame for dynamic entities such as the camera. The program is passed
// in on each call and never retained. Unknown uniform names are dropped by
// the program; the only error is an unusable program.
type Binding interface {
	Push(u shader.UniformSetter) error
	Dirty() bool
}

// PushAll pushes every dirty binding and returns the first error.
func PushAll(u shader.UniformSetter, bindings ...Binding) error {
	for _, b := range bindings {
		if !b.Dirty() {
			continue
		}
		if err := b.Push(u); err != nil {
			return err
		}
	}
	return nil
}

// dirtyFlag is embedded by bindings that only change on mutation.
type dirtyFlag struct {
	dirty bool
}

func (d *dirtyFlag) Dirty() bool { return d.dirty }

// MarkDirty forces the next PushAll to push the binding again.
func (d *dirtyFlag) MarkDirty() { d.dirty = true }

func (d *dirtyFlag) clean() { d.dirty = false }

// Invalidate marks every binding dirty, for instance after the program they
// push into was rebuilt and lost its uniform state.
func Invalidate(bindings ...Binding) {
	for _, b := range bindings {
		if m, ok := b.(interface{ MarkDirty() }); ok {
			m.MarkDirty()
		}
	}
}

// firstErr runs each write in order and stops at the first failure.
func firstErr(writes ...func() error) error {
	for _, w := range writes {
		if err := w(); err != nil {
			return err
		}
	}
	return nil
}
