package debugserver

import (
	"github.com/setanarut/cspace"
)

// LinkState is the JSON view of one link record.
type LinkState struct {
	Name       string     `json:"name"`
	Geometries int        `json:"geometries"`
	Kind       string     `json:"kind,omitempty"`
	Registered bool       `json:"registered"`
	Min        [3]float64 `json:"min"`
	Max        [3]float64 `json:"max"`
}

// BodyState is the JSON view of a tracked body and its live record.
type BodyState struct {
	ID           int         `json:"id"`
	Name         string      `json:"name"`
	Group        string      `json:"group"`
	Stamp        int         `json:"stamp"`
	Excluded     bool        `json:"excluded"`
	CachedGroups []string    `json:"cachedGroups"`
	Links        []LinkState `json:"links"`
	Footprint    []Footprint `json:"footprint"`
}

// Footprint is the JSON view of a top-down link extent.
type Footprint struct {
	Link string     `json:"link"`
	Min  [2]float64 `json:"min"`
	Max  [2]float64 `json:"max"`
}

// SyncEvent is streamed to websocket clients after every effective
// synchronization.
type SyncEvent struct {
	Event string      `json:"event"`
	Body  string      `json:"body"`
	ID    int         `json:"id"`
	Stamp int         `json:"stamp"`
	Links []LinkState `json:"links"`
}

func linkStates(rec *cspace.BodyRecord) []LinkState {
	out := make([]LinkState, 0, len(rec.Links()))
	for _, l := range rec.Links() {
		st := LinkState{
			Name:       l.Name(),
			Geometries: len(l.Geometries()),
			Registered: l.IsRegistered(),
		}
		if bv := l.BoundingProxy(); bv != nil {
			bb := bv.Object.AABB()
			st.Kind = bv.Kind().String()
			st.Min = [3]float64(bb.Min)
			st.Max = [3]float64(bb.Max)
		}
		out = append(out, st)
	}
	return out
}

// EventFromRecord builds the event published for a synchronized record.
func EventFromRecord(rec *cspace.BodyRecord) SyncEvent {
	body := rec.Body()
	return SyncEvent{
		Event: "sync",
		Body:  body.Name(),
		ID:    body.EnvironmentID(),
		Stamp: rec.Stamp(),
		Links: linkStates(rec),
	}
}

// Snapshot describes every tracked body of space. The caller holds the
// environment lock.
func Snapshot(space *cspace.CollisionSpace) []BodyState {
	bodies := space.Bodies()
	out := make([]BodyState, 0, len(bodies))
	for _, body := range bodies {
		st := BodyState{
			ID:           body.EnvironmentID(),
			Name:         body.Name(),
			Excluded:     space.IsExcluded(body),
			CachedGroups: space.CachedGroups(body),
		}
		if rec := space.Record(body); rec != nil {
			st.Group = rec.GeometryGroup()
			st.Stamp = rec.Stamp()
			st.Links = linkStates(rec)
		}
		for _, f := range space.Footprint(body) {
			st.Footprint = append(st.Footprint, Footprint{
				Link: f.Link,
				Min:  [2]float64{f.Min.X, f.Min.Y},
				Max:  [2]float64{f.Max.X, f.Max.Y},
			})
		}
		out = append(out, st)
	}
	return out
}
