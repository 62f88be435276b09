package cspace

import (
	"log/slog"
)

// Option configures a CollisionSpace.
type Option func(*CollisionSpace)

// WithLogger sets the logger; the default is slog.Default() tagged with the
// component name.
func WithLogger(logger *slog.Logger) Option {
	return func(s *CollisionSpace) {
		s.logger = logger
	}
}

// WithMetrics records cache activity into m.
func WithMetrics(m *Metrics) Option {
	return func(s *CollisionSpace) {
		s.metrics = m
	}
}

// WithGeometryGroup sets the group new body records are built from.
func WithGeometryGroup(group string) Option {
	return func(s *CollisionSpace) {
		s.group = group
	}
}

// WithBoundingVolume selects the bounding-volume strategy by name. An
// unrecognized name logs a warning and keeps the default.
func WithBoundingVolume(name string) Option {
	return func(s *CollisionSpace) {
		s.SetBoundingVolume(name)
	}
}

// WithSelfManaged sets the predicate selecting the bodies that manage their
// own collision manager and are never excluded from the environment.
func WithSelfManaged(fn func(Body) bool) Option {
	return func(s *CollisionSpace) {
		s.selfManaged = fn
	}
}

// WithMeshBuilder sets the collaborator producing collision meshes for
// link bounding volumes.
func WithMeshBuilder(b MeshBuilder) Option {
	return func(s *CollisionSpace) {
		s.meshBuilder = b
	}
}
