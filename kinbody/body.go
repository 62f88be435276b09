// Package kinbody is an in-memory kinematic model: bodies made of rigid
// links carrying geometry, with update stamps and change notifications.
package kinbody

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/setanarut/cspace"
)

// last environment id handed out
var bodyCur atomic.Int64

type handler struct {
	id uuid.UUID
	fn func()
}

// Body is a kinematic body. Its links are placed relative to the body
// transform.
type Body struct {
	// UserData is an object that this body is associated with.
	UserData any

	id          int
	name        string
	robot       bool
	transform   cspace.Transform
	links       []*Link
	stamp       int
	activeLinks []bool
	attached    []*Body
	handlers    map[cspace.ChangeKind][]handler
}

// NewBody allocates a body with the identity transform and a fresh
// environment id.
func NewBody(name string) *Body {
	body := &Body{
		id:        int(bodyCur.Add(1)),
		name:      name,
		transform: cspace.NewTransformIdentity(),
		handlers:  make(map[cspace.ChangeKind][]handler),
	}
	return body
}

// NewRobot allocates a body that manages its own collision manager.
func NewRobot(name string) *Body {
	body := NewBody(name)
	body.robot = true
	return body
}

// String returns body name and id
func (b *Body) String() string {
	return fmt.Sprint("Body ", b.name, "#", b.id, ", Links ", len(b.links))
}

func (b *Body) EnvironmentID() int { return b.id }

func (b *Body) Name() string { return b.name }

// IsRobot reports whether the body was created with NewRobot.
func (b *Body) IsRobot() bool { return b.robot }

// UpdateStamp increases on every pose change.
func (b *Body) UpdateStamp() int { return b.stamp }

func (b *Body) Links() []cspace.Link {
	out := make([]cspace.Link, len(b.links))
	for i, l := range b.links {
		out[i] = l
	}
	return out
}

// Link returns the link at index i.
func (b *Body) Link(i int) *Link {
	return b.links[i]
}

// LinkByName returns the link with the given name, or nil.
func (b *Body) LinkByName(name string) *Link {
	i := slices.IndexFunc(b.links, func(l *Link) bool {
		return l.name == name
	})
	if i < 0 {
		return nil
	}
	return b.links[i]
}

func (b *Body) LinkTransforms() []cspace.Transform {
	out := make([]cspace.Transform, len(b.links))
	for i, l := range b.links {
		out[i] = l.Transform()
	}
	return out
}

// AddLink appends a link with the given pose relative to the body and
// default geometries.
func (b *Body) AddLink(name string, local cspace.Transform, geoms ...cspace.GeometryInfo) *Link {
	l := &Link{
		body:    b,
		index:   len(b.links),
		name:    name,
		enabled: true,
		local:   local,
		geoms:   geoms,
		groups:  make(map[string][]cspace.GeometryInfo),
	}
	b.links = append(b.links, l)
	b.activeLinks = append(b.activeLinks, true)
	b.stamp++
	b.notify(cspace.ChangeLinkGeometry)
	return l
}

// Transform returns the body pose.
func (b *Body) Transform() cspace.Transform {
	return b.transform
}

// SetTransform moves the body.
func (b *Body) SetTransform(t cspace.Transform) {
	b.transform = t
	b.stamp++
}

// SetTranslation moves the body keeping its orientation.
func (b *Body) SetTranslation(p mgl64.Vec3) {
	b.SetTransform(cspace.NewTransform(b.transform.Rot, p))
}

// SetLinkTransform sets the pose of link i relative to the body.
func (b *Body) SetLinkTransform(i int, local cspace.Transform) {
	b.links[i].local = local
	b.stamp++
}

// ActiveLinks reports, per link, whether it moves with the active DOFs.
func (b *Body) ActiveLinks() []bool {
	return slices.Clone(b.activeLinks)
}

// SetActiveLinks changes the active DOF set.
func (b *Body) SetActiveLinks(active []bool) {
	b.activeLinks = slices.Clone(active)
	b.notify(cspace.ChangeActiveDOF)
}

// Attach grabs other.
func (b *Body) Attach(other *Body) {
	if slices.Contains(b.attached, other) {
		return
	}
	b.attached = append(b.attached, other)
	b.notify(cspace.ChangeBodyAttached)
}

// Detach releases other.
func (b *Body) Detach(other *Body) {
	i := slices.Index(b.attached, other)
	if i < 0 {
		return
	}
	b.attached = slices.Delete(b.attached, i, i+1)
	b.notify(cspace.ChangeBodyAttached)
}

// Attached returns the grabbed bodies.
func (b *Body) Attached() []*Body {
	return b.attached
}

// Subscribe calls fn after every change of the given kind until the
// returned subscription is closed.
func (b *Body) Subscribe(kind cspace.ChangeKind, fn func()) cspace.Subscription {
	h := handler{id: uuid.New(), fn: fn}
	b.handlers[kind] = append(b.handlers[kind], h)
	return &subscription{body: b, kind: kind, id: h.id}
}

// Subscribers returns the number of open subscriptions for kind.
func (b *Body) Subscribers(kind cspace.ChangeKind) int {
	return len(b.handlers[kind])
}

func (b *Body) subscribed(kind cspace.ChangeKind, id uuid.UUID) bool {
	return slices.ContainsFunc(b.handlers[kind], func(h handler) bool {
		return h.id == id
	})
}

// notify runs the handlers registered when the change happened. A handler
// closed by an earlier one in the same round is skipped.
func (b *Body) notify(kind cspace.ChangeKind) {
	for _, h := range slices.Clone(b.handlers[kind]) {
		if b.subscribed(kind, h.id) {
			h.fn()
		}
	}
}

type subscription struct {
	body *Body
	kind cspace.ChangeKind
	id   uuid.UUID
}

func (s *subscription) Close() {
	s.body.handlers[s.kind] = slices.DeleteFunc(s.body.handlers[s.kind], func(h handler) bool {
		return h.id == s.id
	})
}
