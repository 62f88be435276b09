package kinbody

import (
	"slices"
	"sync"
)

// Environment groups the bodies of one scene. Its mutex serializes
// mutations and collision-space calls.
type Environment struct {
	sync.Mutex

	bodies []*Body
}

func NewEnvironment() *Environment {
	return &Environment{}
}

// Add adds body to the environment. Adding a body twice is a no-op.
func (e *Environment) Add(body *Body) {
	if !slices.Contains(e.bodies, body) {
		e.bodies = append(e.bodies, body)
	}
}

// Remove removes body from the environment.
func (e *Environment) Remove(body *Body) {
	e.bodies = slices.DeleteFunc(e.bodies, func(b *Body) bool {
		return b == body
	})
}

// Bodies returns the bodies in insertion order.
func (e *Environment) Bodies() []*Body {
	return e.bodies
}

// BodyByName returns the body with the given name, or nil.
func (e *Environment) BodyByName(name string) *Body {
	i := slices.IndexFunc(e.bodies, func(b *Body) bool {
		return b.name == name
	})
	if i < 0 {
		return nil
	}
	return e.bodies[i]
}
