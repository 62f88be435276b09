package cspace

import (
	"slices"

	"github.com/samber/lo"
)

type bodyStamp struct {
	bodyID int
	stamp  int
}

// ManagerInstance is a broad-phase manager together with the update stamp
// every member body had when its links were last registered. A body whose
// entry is missing must be (re)added by the owner of the manager.
type ManagerInstance struct {
	Index  *SpatialIndex
	stamps []bodyStamp
}

func NewManagerInstance(index *SpatialIndex) *ManagerInstance {
	return &ManagerInstance{Index: index}
}

// Track records the current update stamp of body, replacing any previous
// entry.
func (mi *ManagerInstance) Track(body Body) {
	mi.SetStamp(body.EnvironmentID(), body.UpdateStamp())
}

// SetStamp records stamp for the body with the given id.
func (mi *ManagerInstance) SetStamp(bodyID, stamp int) {
	for i := range mi.stamps {
		if mi.stamps[i].bodyID == bodyID {
			mi.stamps[i].stamp = stamp
			return
		}
	}
	mi.stamps = append(mi.stamps, bodyStamp{bodyID: bodyID, stamp: stamp})
}

// Untrack removes the entry of the body with the given id and reports
// whether one was present.
func (mi *ManagerInstance) Untrack(bodyID int) bool {
	i := slices.IndexFunc(mi.stamps, func(s bodyStamp) bool {
		return s.bodyID == bodyID
	})
	if i < 0 {
		return false
	}
	mi.stamps = slices.Delete(mi.stamps, i, i+1)
	return true
}

// Stamp returns the recorded stamp of a body.
func (mi *ManagerInstance) Stamp(bodyID int) (int, bool) {
	s, ok := lo.Find(mi.stamps, func(s bodyStamp) bool {
		return s.bodyID == bodyID
	})
	return s.stamp, ok
}

// Members returns the ids of the tracked bodies in tracking order.
func (mi *ManagerInstance) Members() []int {
	return lo.Map(mi.stamps, func(s bodyStamp, _ int) int {
		return s.bodyID
	})
}
