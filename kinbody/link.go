package kinbody

import (
	"github.com/setanarut/cspace"
)

// Link is one rigid part of a Body.
type Link struct {
	body    *Body
	index   int
	name    string
	enabled bool
	local   cspace.Transform
	geoms   []cspace.GeometryInfo
	groups  map[string][]cspace.GeometryInfo
}

func (l *Link) Name() string { return l.name }

func (l *Link) Index() int { return l.index }

func (l *Link) IsEnabled() bool { return l.enabled }

func (l *Link) Parent() cspace.Body { return l.body }

// Body returns the owning body.
func (l *Link) Body() *Body { return l.body }

// Transform returns the world pose of the link.
func (l *Link) Transform() cspace.Transform {
	return l.body.transform.Mult(l.local)
}

// LocalTransform returns the pose of the link relative to its body.
func (l *Link) LocalTransform() cspace.Transform {
	return l.local
}

func (l *Link) Geometries() []cspace.GeometryInfo {
	return l.geoms
}

func (l *Link) GroupGeometries(group string) ([]cspace.GeometryInfo, bool) {
	geoms, ok := l.groups[group]
	return geoms, ok
}

// Enable enables or disables the link.
func (l *Link) Enable(enabled bool) {
	if l.enabled == enabled {
		return
	}
	l.enabled = enabled
	l.body.notify(cspace.ChangeLinkEnable)
}

// SetGeometries replaces the default geometries.
func (l *Link) SetGeometries(geoms ...cspace.GeometryInfo) {
	l.geoms = geoms
	l.body.stamp++
	l.body.notify(cspace.ChangeLinkGeometry)
}

// SetGroupGeometries defines the geometries of a named group. An empty list
// still defines the group.
func (l *Link) SetGroupGeometries(group string, geoms ...cspace.GeometryInfo) {
	if geoms == nil {
		geoms = []cspace.GeometryInfo{}
	}
	l.groups[group] = geoms
	l.body.notify(cspace.ChangeLinkGeometry)
}

// RemoveGroup deletes a named group.
func (l *Link) RemoveGroup(group string) {
	if _, ok := l.groups[group]; !ok {
		return
	}
	delete(l.groups, group)
	l.body.notify(cspace.ChangeLinkGeometry)
}
