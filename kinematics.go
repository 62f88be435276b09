package cspace

// ChangeKind names a class of kinematic-model mutation a body can notify
// subscribers about.
type ChangeKind uint32

const (
	// ChangeLinkGeometry fires when a link's geometry definition (default or
	// any named group) changes.
	ChangeLinkGeometry ChangeKind = 1 << iota
	// ChangeLinkEnable fires when any link is enabled or disabled.
	ChangeLinkEnable
	// ChangeBodyAttached fires when a sub-body is attached or detached.
	ChangeBodyAttached
	// ChangeActiveDOF fires when the active degree-of-freedom set changes.
	ChangeActiveDOF
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeLinkGeometry:
		return "link-geometry"
	case ChangeLinkEnable:
		return "link-enable"
	case ChangeBodyAttached:
		return "body-attached"
	case ChangeActiveDOF:
		return "active-dof"
	default:
		return "unknown"
	}
}

// Subscription is a scoped change-notification handle. Close unsubscribes;
// calling it more than once is harmless.
type Subscription interface {
	Close()
}

// Link is one rigid part of a Body as seen by the collision space.
type Link interface {
	Name() string
	Index() int
	IsEnabled() bool
	// Transform is the link's world pose.
	Transform() Transform
	// Geometries returns the default geometry set.
	Geometries() []GeometryInfo
	// GroupGeometries returns the geometry set of a named group. ok is false
	// when the link defines no such group; an empty, defined group returns
	// ok true.
	GroupGeometries(group string) (geoms []GeometryInfo, ok bool)
	Parent() Body
}

// Body is a kinematic object tracked by the collision space.
type Body interface {
	// EnvironmentID identifies the body within its environment. It keys the
	// per-body caches and the membership stamps.
	EnvironmentID() int
	Name() string
	Links() []Link
	// UpdateStamp increases on every pose-affecting mutation.
	UpdateStamp() int
	// LinkTransforms returns the world pose of every link, in link order.
	LinkTransforms() []Transform
	Subscribe(kind ChangeKind, fn func()) Subscription
}

// ActiveDOFBody is implemented by bodies with an active degree-of-freedom
// subset. ActiveLinks reports, per link, whether the link moves with the
// active DOFs.
type ActiveDOFBody interface {
	Body
	ActiveLinks() []bool
}

// robotBody is the category exempted from environment exclusion by default.
type robotBody interface {
	IsRobot() bool
}

// isRobot is the default self-managed predicate.
func isRobot(body Body) bool {
	r, ok := body.(robotBody)
	return ok && r.IsRobot()
}
