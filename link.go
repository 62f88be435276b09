package cspace

import (
	"weak"
)

// LinkRecord holds the collision objects built for one link.
type LinkRecord struct {
	link Link
	name string // body/link, for diagnostics

	geoms []*ShapeProxy
	// bv is the proxy registered into the environment manager. It aliases
	// geoms[0] when the link has a single geometry and is nil when the link
	// has none.
	bv    *ShapeProxy
	stamp int

	envManager  weak.Pointer[SpatialIndex]
	linkManager *SpatialIndex
}

func newLinkRecord(link Link, bodyName string) *LinkRecord {
	return &LinkRecord{
		link: link,
		name: bodyName + "/" + link.Name(),
	}
}

// Name returns "body/link".
func (l *LinkRecord) Name() string {
	return l.name
}

// Link returns the source link, or nil once the record was reset.
func (l *LinkRecord) Link() Link {
	return l.link
}

// Geometries returns the per-geometry proxies in geometry order.
func (l *LinkRecord) Geometries() []*ShapeProxy {
	return l.geoms
}

// BoundingProxy returns the proxy representing the whole link in the
// environment manager, or nil for a link without usable geometry.
func (l *LinkRecord) BoundingProxy() *ShapeProxy {
	return l.bv
}

// Stamp returns the update stamp the per-geometry proxies were last
// synchronized at.
func (l *LinkRecord) Stamp() int {
	return l.stamp
}

// RegisteredIndex returns the manager holding the bounding proxy, or nil.
func (l *LinkRecord) RegisteredIndex() *SpatialIndex {
	return l.envManager.Value()
}

// IsRegistered reports whether the bounding proxy is held by a live manager.
func (l *LinkRecord) IsRegistered() bool {
	return l.envManager.Value() != nil
}

// Reset unregisters the bounding proxy and releases every collision object.
func (l *LinkRecord) Reset() {
	l.resetLinkManager()

	if l.bv != nil {
		if m := l.envManager.Value(); m != nil {
			m.UnregisterObject(l.bv.Object)
		}
		l.envManager = weak.Pointer[SpatialIndex]{}
		l.bv.Object.UserData = nil
		l.bv = nil
	}

	for _, g := range l.geoms {
		g.Object.UserData = nil
	}
	l.geoms = nil
	l.link = nil
}

// PrepareEnvManagerRegistering records envManager as the owner of the
// bounding proxy and returns the proxy object; the caller inserts it.
func (l *LinkRecord) PrepareEnvManagerRegistering(envManager *SpatialIndex) *CollisionObject {
	if l.bv == nil {
		return nil
	}
	l.envManager = weak.Make(envManager)
	return l.bv.Object
}

// Register adds the bounding proxy to envManager. A link already held by a
// manager only gets its pose refreshed; that manager must be envManager.
func (l *LinkRecord) Register(envManager *SpatialIndex) {
	if l.bv == nil {
		return
	}
	current := l.envManager.Value()
	if current == nil {
		l.envManager = weak.Make(envManager)
		envManager.RegisterObject(l.bv.Object)
		return
	}
	assert(current == envManager, "Internal Error: link ", l.name, " is registered in manager ", current.Name(), ", not ", envManager.Name())
	envManager.Update(l.bv.Object)
}

// Unregister removes the bounding proxy from its manager. It is a no-op for
// a link that is not registered.
func (l *LinkRecord) Unregister() {
	if l.bv == nil {
		return
	}
	if current := l.envManager.Value(); current != nil {
		current.UnregisterObject(l.bv.Object)
		l.envManager = weak.Pointer[SpatialIndex]{}
	}
}

// LinkManager returns a manager holding every per-geometry proxy of the
// link, building it with factory on first use.
func (l *LinkRecord) LinkManager(factory IndexFactory) *SpatialIndex {
	if l.linkManager == nil {
		l.linkManager = factory()
		for _, g := range l.geoms {
			l.linkManager.RegisterObject(g.Object)
		}
	}
	return l.linkManager
}

// HasLinkManager reports whether a per-link manager is cached.
func (l *LinkRecord) HasLinkManager() bool {
	return l.linkManager != nil
}

func (l *LinkRecord) resetLinkManager() {
	if l.linkManager != nil {
		l.linkManager.Clear()
		l.linkManager = nil
	}
}

// synchronizeGeometries places every per-geometry proxy at linkPose.
func (l *LinkRecord) synchronizeGeometries(linkPose Transform) {
	for _, g := range l.geoms {
		g.place(linkPose)
	}
	if l.linkManager != nil {
		for _, g := range l.geoms {
			l.linkManager.Update(g.Object)
		}
	}
}

// forgetEnvManager drops the back-reference to a manager that is being
// discarded as a whole.
func (l *LinkRecord) forgetEnvManager() {
	l.envManager = weak.Pointer[SpatialIndex]{}
}
