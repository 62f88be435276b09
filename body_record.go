package cspace

import (
	"github.com/samber/lo"
)

// BodyRecord is the collision representation of one body built from one
// geometry group.
type BodyRecord struct {
	body  Body
	stamp int
	links []*LinkRecord
	group string

	// bodyManager holds the bounding proxies of every enabled link.
	bodyManager *ManagerInstance
	// activeDOFsManager holds the bounding proxies of the enabled links
	// moved by the active DOFs.
	activeDOFsManager *ManagerInstance
	activeDOFsDirty   bool
	// activeLinks is valid right after activeDOFsManager was rebuilt.
	activeLinks []bool

	geometrySub     Subscription
	excludeSub      Subscription
	attachedSub     Subscription
	activeDOFsSub   Subscription
	linkEnabledSubs []Subscription
}

func newBodyRecord(group string) *BodyRecord {
	return &BodyRecord{group: group, activeDOFsDirty: true}
}

// Body returns the source body, or nil once the record was reset.
func (r *BodyRecord) Body() Body {
	return r.body
}

// Stamp returns the body update stamp the record was last synchronized at.
func (r *BodyRecord) Stamp() int {
	return r.stamp
}

// GeometryGroup returns the group the record was built from; empty means the
// default geometries.
func (r *BodyRecord) GeometryGroup() string {
	return r.group
}

// Links returns the link records in link order.
func (r *BodyRecord) Links() []*LinkRecord {
	return r.links
}

// Link returns the record of the link with index i.
func (r *BodyRecord) Link(i int) *LinkRecord {
	return r.links[i]
}

// ActiveLinks returns, per link, whether it is moved by the active DOFs.
func (r *BodyRecord) ActiveLinks() []bool {
	return r.activeLinks
}

// Reset drops the managers, releases every link and closes the change
// subscriptions.
func (r *BodyRecord) Reset() {
	r.bodyManager = nil
	r.activeDOFsManager = nil
	r.activeDOFsDirty = true
	r.closeLinkEnabledSubs()

	// links no longer unregister from the body managers, those were dropped
	// above
	for _, l := range r.links {
		l.Reset()
	}
	r.links = nil

	r.closeSubscriptions()
	r.body = nil
}

// closeSubscriptions releases the change subscriptions taken when the record
// became live.
func (r *BodyRecord) closeSubscriptions() {
	for _, sub := range []*Subscription{&r.geometrySub, &r.excludeSub, &r.attachedSub, &r.activeDOFsSub} {
		if *sub != nil {
			(*sub).Close()
			*sub = nil
		}
	}
}

// UnregisterAllLinks removes every link from the environment manager.
func (r *BodyRecord) UnregisterAllLinks() {
	for _, l := range r.links {
		l.Unregister()
	}
}

// UpdateLinksRegisterStatus registers the enabled links into envManager and
// unregisters the disabled ones. It reports whether any link is registered.
func (r *BodyRecord) UpdateLinksRegisterStatus(envManager *SpatialIndex) bool {
	registered := false
	for _, l := range r.links {
		if l.bv == nil {
			continue
		}
		if l.link.IsEnabled() {
			registered = true
			l.Register(envManager)
		} else {
			l.Unregister()
		}
	}
	return registered
}

// HasRegisteredLink reports whether any link is held by a manager.
func (r *BodyRecord) HasRegisteredLink() bool {
	return lo.SomeBy(r.links, func(l *LinkRecord) bool {
		return l.IsRegistered()
	})
}

func (r *BodyRecord) closeLinkEnabledSubs() {
	for _, sub := range r.linkEnabledSubs {
		sub.Close()
	}
	r.linkEnabledSubs = nil
}

func (r *BodyRecord) resetBodyManagers() {
	r.bodyManager = nil
	r.activeDOFsManager = nil
	r.closeLinkEnabledSubs()
}

func (r *BodyRecord) changeActiveDOFsFlag() {
	r.activeDOFsDirty = true
	r.activeDOFsManager = nil
}

// BodyManager returns a manager holding the bounding proxies of every
// enabled link, building it with factory when missing. Poses are refreshed
// when the body moved since the manager last saw it.
func (r *BodyRecord) BodyManager(factory IndexFactory) *ManagerInstance {
	if r.bodyManager == nil {
		r.bodyManager = r.newManager(factory, nil)
	}
	r.refreshManager(r.bodyManager)
	return r.bodyManager
}

// ActiveDOFsManager is BodyManager restricted to the links moved by the
// active DOFs. Rebuilding it refreshes ActiveLinks.
func (r *BodyRecord) ActiveDOFsManager(factory IndexFactory) *ManagerInstance {
	if r.activeDOFsDirty || r.activeDOFsManager == nil {
		r.activeLinks = activeLinks(r.body)
		r.activeDOFsDirty = false
		r.activeDOFsManager = r.newManager(factory, r.activeLinks)
	}
	r.refreshManager(r.activeDOFsManager)
	return r.activeDOFsManager
}

func activeLinks(body Body) []bool {
	if b, ok := body.(ActiveDOFBody); ok {
		return b.ActiveLinks()
	}
	return lo.Map(body.Links(), func(_ Link, _ int) bool {
		return true
	})
}

func (r *BodyRecord) newManager(factory IndexFactory, mask []bool) *ManagerInstance {
	mi := NewManagerInstance(factory())
	for i, l := range r.links {
		if l.bv == nil || !l.link.IsEnabled() {
			continue
		}
		if mask != nil && (i >= len(mask) || !mask[i]) {
			continue
		}
		mi.Index.RegisterObject(l.bv.Object)
	}
	mi.Track(r.body)
	if len(r.linkEnabledSubs) == 0 {
		r.linkEnabledSubs = append(r.linkEnabledSubs, r.body.Subscribe(ChangeLinkEnable, r.resetBodyManagers))
	}
	return mi
}

func (r *BodyRecord) refreshManager(mi *ManagerInstance) {
	stamp, _ := mi.Stamp(r.body.EnvironmentID())
	if stamp == r.body.UpdateStamp() {
		return
	}
	mi.Index.Each(mi.Index.Update)
	mi.Track(r.body)
}
