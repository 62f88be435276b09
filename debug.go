package cspace

import (
	"fmt"
	"strings"

	"github.com/setanarut/vec"
)

// DebugInfo returns a textual dump of the space: tracked bodies, their live
// records and the environment manager membership.
func DebugInfo(space *CollisionSpace) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Bodies: %d (excluded %d) - Group: %q - BV: %s\n",
		len(space.bodies), len(space.excluded), space.group, space.bvKind)
	if mi := space.envManagerInstance; mi != nil {
		fmt.Fprintf(&sb, "Env manager %s: %d objects, %d members\n", mi.Index.Name(), mi.Index.Count(), len(mi.stamps))
	} else {
		sb.WriteString("Env manager: none\n")
	}

	for _, id := range space.bodyIDs() {
		body := space.bodies[id]
		rec := space.records[id]
		if rec == nil {
			fmt.Fprintf(&sb, "%s #%d: no record\n", body.Name(), id)
			continue
		}
		_, excluded := space.excluded[id]
		fmt.Fprintf(&sb, "%s #%d group=%q stamp=%d excluded=%t cached=%v\n",
			body.Name(), id, rec.group, rec.stamp, excluded, space.CachedGroups(body))
		for _, l := range rec.links {
			if l.bv == nil {
				fmt.Fprintf(&sb, "  %s: no geometry\n", l.name)
				continue
			}
			kind := l.bv.Kind().String()
			if len(l.geoms) > 1 {
				kind = "bv:" + kind
			}
			fmt.Fprintf(&sb, "  %s: geoms=%d %s registered=%t\n", l.name, len(l.geoms), kind, l.IsRegistered())
		}
	}
	return sb.String()
}

// LinkFootprint is the top-down extent of a link bounding proxy.
type LinkFootprint struct {
	Link       string
	Min, Max   vec.Vec2
	Registered bool
}

// Size returns the XY side lengths of the footprint.
func (f LinkFootprint) Size() vec.Vec2 {
	return f.Max.Sub(f.Min)
}

// Center returns the XY center of the footprint.
func (f LinkFootprint) Center() vec.Vec2 {
	return f.Min.Add(f.Max).Scale(0.5)
}

// Footprint projects the world bounds of every link of body onto the XY
// plane. Links without geometry are skipped.
func (s *CollisionSpace) Footprint(body Body) []LinkFootprint {
	rec := s.Record(body)
	if rec == nil {
		return nil
	}
	var out []LinkFootprint
	for _, l := range rec.links {
		if l.bv == nil {
			continue
		}
		bb := l.bv.Object.AABB()
		out = append(out, LinkFootprint{
			Link:       l.name,
			Min:        vec.Vec2{X: bb.Min[0], Y: bb.Min[1]},
			Max:        vec.Vec2{X: bb.Max[0], Y: bb.Max[1]},
			Registered: l.IsRegistered(),
		})
	}
	return out
}
