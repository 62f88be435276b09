package cspace

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// SynchronizeCallback is invoked with a body record after its poses were
// recomputed.
type SynchronizeCallback func(rec *BodyRecord)

// CollisionSpace keeps the collision objects of a set of bodies in sync with
// their kinematic state.
//
// A CollisionSpace performs no locking. Callers serialize every call,
// typically under the lock of the environment owning the bodies.
type CollisionSpace struct {
	UserData any

	logger  *slog.Logger
	metrics *Metrics

	// bodies is the tracked set, by environment id.
	bodies map[int]Body
	// records holds the live record of every tracked body.
	records map[int]*BodyRecord
	// cache holds records built for other geometry groups than the live one,
	// by body id then group name. A live record is never cached.
	cache map[int]map[string]*BodyRecord

	group       string
	bvKind      BVKind
	meshFactory MeshFactory
	meshBuilder MeshBuilder

	envManagerInstance *ManagerInstance
	// excluded holds the bodies left out of the environment manager until
	// its owner adds them back.
	excluded    map[int]Body
	selfManaged func(Body) bool

	syncCallback SynchronizeCallback
}

// NewCollisionSpace allocates and initializes a CollisionSpace.
func NewCollisionSpace(opts ...Option) *CollisionSpace {
	s := &CollisionSpace{
		logger:      slog.Default().With(slog.String("component", "cspace")),
		bodies:      make(map[int]Body),
		records:     make(map[int]*BodyRecord),
		cache:       make(map[int]map[string]*BodyRecord),
		bvKind:      BVOBB,
		meshFactory: NewMeshFactory(BVOBB),
		excluded:    make(map[int]Body),
		selfManaged: isRobot,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.meshBuilder == nil {
		s.meshBuilder = NewSDFMeshBuilder(DefaultMeshCells)
	}
	return s
}

func assert(cond bool, msg ...any) {
	if !cond {
		panic(fmt.Sprint(msg...))
	}
}

// Logger returns the logger of the space.
func (s *CollisionSpace) Logger() *slog.Logger {
	return s.logger
}

func (s *CollisionSpace) bodyIDs() []int {
	ids := lo.Keys(s.bodies)
	slices.Sort(ids)
	return ids
}

func (s *CollisionSpace) updateGauges() {
	s.metrics.bodies(len(s.bodies), len(s.excluded))
}

// DestroyEnvironment resets the record of every tracked body and forgets
// them.
func (s *CollisionSpace) DestroyEnvironment() {
	s.logger.Debug("destroying collision environment", slog.Int("bodies", len(s.bodies)))
	for _, id := range s.bodyIDs() {
		if rec := s.records[id]; rec != nil {
			rec.Reset()
			delete(s.records, id)
		} else {
			s.logger.Warn("inconsistency detected with collision space records", slog.Int("body", id))
		}
		s.dropCache(id)
	}
	clear(s.bodies)
	s.updateGauges()
}

// InitBody (re)builds rec from the current links and geometries of body and
// makes it the live record of body. A nil rec builds a new record for the
// current geometry group.
func (s *CollisionSpace) InitBody(body Body, rec *BodyRecord) *BodyRecord {
	if rec == nil {
		rec = newBodyRecord(s.group)
	}

	id := body.EnvironmentID()
	// a replaced live record must drop its proxies and subscriptions
	if prev := s.records[id]; prev != nil && prev != rec {
		prev.Reset()
	}

	rec.Reset()
	rec.body = body
	// make sure the next synchronization does occur
	rec.stamp = body.UpdateStamp() - 1

	links := body.Links()
	rec.links = make([]*LinkRecord, 0, len(links))
	for _, link := range links {
		rec.links = append(rec.links, s.initLink(body, link, rec))
	}

	s.subscribe(rec)
	s.records[id] = rec
	s.ExcludeBodyFromEnv(body)
	if s.envManagerInstance != nil {
		rec.UpdateLinksRegisterStatus(s.envManagerInstance.Index)
	}
	s.bodies[id] = body
	s.metrics.recordBuilt()
	s.updateGauges()
	s.logger.Debug("built body record",
		slog.String("body", body.Name()),
		slog.String("group", rec.group),
		slog.Int("links", len(rec.links)))

	s.synchronize(rec)
	return rec
}

func (s *CollisionSpace) initLink(body Body, link Link, rec *BodyRecord) *LinkRecord {
	lr := newLinkRecord(link, body.Name())
	lr.stamp = rec.stamp

	var built []GeometryInfo
	for _, info := range linkGeometries(link, rec.group) {
		p := newShapeFromInfo(info, s.meshFactory, s.logger)
		if p == nil {
			continue
		}
		// poses are left to synchronization
		p.Object.UserData = lr
		lr.geoms = append(lr.geoms, p)
		built = append(built, info)
	}

	switch len(lr.geoms) {
	case 0:
		s.logger.Error("found a link with 0 geometries", slog.String("link", lr.name))
	case 1:
		// the unique geometry is its own bounding volume
		lr.bv = lr.geoms[0]
	default:
		lr.bv = newBoundingShape(built, s.meshBuilder, s.logger)
		if lr.bv == nil {
			lr.bv = boundingShapeFromProxies(lr.geoms)
		}
		lr.bv.Object.UserData = lr
	}
	return lr
}

// boundingShapeFromProxies fits an oriented box over the local bounds of
// every proxy.
func boundingShapeFromProxies(geoms []*ShapeProxy) *ShapeProxy {
	var points []mgl64.Vec3
	for _, g := range geoms {
		corners := g.Local.AABB(g.Object.Geometry().LocalAABB()).Corners()
		points = append(points, corners[:]...)
	}
	obb := FitOBB(points)
	return NewBoxShape(obb.Transform(), obb.Extents)
}

// linkGeometries returns the geometries of group when the link defines a
// non-empty set for it, else the default geometries.
func linkGeometries(link Link, group string) []GeometryInfo {
	if group != "" {
		if geoms, ok := link.GroupGeometries(group); ok && len(geoms) > 0 {
			return geoms
		}
	}
	return link.Geometries()
}

// subscribe hooks the change notifications of the record's body. Callbacks
// resolve the body through the tracked set, so a removed body is ignored.
func (s *CollisionSpace) subscribe(rec *BodyRecord) {
	body := rec.body
	id := body.EnvironmentID()
	rec.geometrySub = body.Subscribe(ChangeLinkGeometry, func() {
		s.resetBodyCallback(id)
	})
	rec.excludeSub = body.Subscribe(ChangeLinkEnable, func() {
		if b, ok := s.bodies[id]; ok {
			s.ExcludeBodyFromEnv(b)
		}
	})
	rec.attachedSub = body.Subscribe(ChangeBodyAttached, s.InvalidateCachedManagers)
	rec.activeDOFsSub = body.Subscribe(ChangeActiveDOF, rec.changeActiveDOFsFlag)
}

func (s *CollisionSpace) resetBodyCallback(id int) {
	body, ok := s.bodies[id]
	if !ok {
		return
	}
	rec, created := s.RecordOrCreate(body)
	if !created {
		assert(rec.body != nil && rec.body.EnvironmentID() == id, "Internal Error: live record is bound to another body")
		s.InitBody(body, rec)
	}
	s.dropCache(id)
}

// dropCache releases every cached group record of a body.
func (s *CollisionSpace) dropCache(id int) {
	for _, rec := range s.cache[id] {
		rec.Reset()
	}
	delete(s.cache, id)
}

// Record returns the live record of body, or nil.
func (s *CollisionSpace) Record(body Body) *BodyRecord {
	return s.records[body.EnvironmentID()]
}

// RecordOrCreate returns the live record of body, building it on first
// contact. created reports whether a record was built.
func (s *CollisionSpace) RecordOrCreate(body Body) (rec *BodyRecord, created bool) {
	if rec = s.Record(body); rec != nil {
		return rec, false
	}
	return s.InitBody(body, nil), true
}

// Synchronize refreshes the poses of every tracked body.
func (s *CollisionSpace) Synchronize() {
	for _, id := range s.bodyIDs() {
		s.SynchronizeBody(s.bodies[id])
	}
}

// SynchronizeBody refreshes the poses of body, building its record first
// when the body is new.
func (s *CollisionSpace) SynchronizeBody(body Body) {
	rec, _ := s.RecordOrCreate(body)
	assert(rec.body != nil && rec.body.EnvironmentID() == body.EnvironmentID(), "Internal Error: live record is bound to another body")
	s.synchronize(rec)
}

// SetSynchronizationCallback sets the function called after every effective
// synchronization. nil disables it.
func (s *CollisionSpace) SetSynchronizationCallback(fn SynchronizeCallback) {
	s.syncCallback = fn
}

// synchronize pushes the link poses into the collision objects when the
// body moved since the last call. It reports whether work was done.
func (s *CollisionSpace) synchronize(rec *BodyRecord) bool {
	body := rec.body
	stamp := body.UpdateStamp()
	if rec.stamp == stamp {
		s.metrics.synchronized(false)
		return false
	}

	transforms := body.LinkTransforms()
	rec.stamp = stamp
	assert(len(body.Links()) == len(rec.links), "Internal Error: body ", body.Name(), " has ", len(body.Links()), " links, record has ", len(rec.links))
	assert(len(transforms) == len(rec.links), "Internal Error: body ", body.Name(), " returned ", len(transforms), " link transforms for ", len(rec.links), " links")

	for i, lr := range rec.links {
		if lr.bv == nil {
			continue
		}
		lr.synchronizeGeometries(transforms[i])
		if len(lr.geoms) > 1 {
			lr.bv.place(transforms[i])
		}
		lr.stamp = stamp
		if m := lr.RegisteredIndex(); m != nil {
			m.Update(lr.bv.Object)
		}
	}

	s.metrics.synchronized(true)
	if s.syncCallback != nil {
		s.syncCallback(rec)
	}
	return true
}

// SynchronizeLinkGeometries refreshes the per-geometry proxies of one link
// when they lag behind the update stamp of its body.
func (s *CollisionSpace) SynchronizeLinkGeometries(link Link, lr *LinkRecord) {
	stamp := link.Parent().UpdateStamp()
	if lr.stamp < stamp {
		lr.stamp = stamp
		lr.synchronizeGeometries(link.Transform())
	}
}

// HasMultipleGeometries reports whether the live record of link holds more
// than one geometry proxy.
func (s *CollisionSpace) HasMultipleGeometries(link Link) bool {
	rec := s.records[link.Parent().EnvironmentID()]
	assert(rec != nil, "Internal Error: no record for body of link ", link.Name())
	return len(rec.links[link.Index()].geoms) > 1
}

// SetGeometryGroup makes group the default for new records and switches
// every tracked body to it.
func (s *CollisionSpace) SetGeometryGroup(group string) {
	if group == s.group {
		return
	}
	s.group = group
	for _, id := range s.bodyIDs() {
		s.SetBodyGeometryGroup(s.bodies[id], group)
	}
}

// GeometryGroup returns the default geometry group.
func (s *CollisionSpace) GeometryGroup() string {
	return s.group
}

// HasDifferentGeometry reports whether any link of body defines geometries
// for group.
func (s *CollisionSpace) HasDifferentGeometry(body Body, group string) bool {
	if group == "" {
		return false
	}
	return lo.SomeBy(body.Links(), func(l Link) bool {
		_, ok := l.GroupGeometries(group)
		return ok
	})
}

// SetBodyGeometryGroup switches the live record of body to the one built
// for group, reusing a cached record when one exists. It does nothing when
// body defines no geometry for group.
func (s *CollisionSpace) SetBodyGeometryGroup(body Body, group string) {
	if !s.HasDifferentGeometry(body, group) {
		return
	}
	id := body.EnvironmentID()
	old := s.records[id]
	if old == nil {
		s.InitBody(body, newBodyRecord(group))
		s.metrics.groupSwitched("built")
		return
	}
	if old.group == group {
		return
	}

	if s.envManagerInstance != nil {
		s.envManagerInstance.Untrack(id)
	}
	old.UnregisterAllLinks()
	old.closeSubscriptions()

	groups := s.cache[id]
	if groups == nil {
		groups = make(map[string]*BodyRecord)
		s.cache[id] = groups
	}
	groups[old.group] = old

	if rec, ok := groups[group]; ok {
		s.logger.Debug("switching geometry group",
			slog.String("body", body.Name()), slog.Int("id", id), slog.String("group", group))
		delete(groups, group)
		rec.resetBodyManagers()
		s.subscribe(rec)
		s.records[id] = rec
		s.metrics.groupSwitched("cached")
	} else {
		s.logger.Debug("creating geometry group",
			slog.String("body", body.Name()), slog.Int("id", id), slog.String("group", group))
		// old now lives in the cache
		delete(s.records, id)
		s.InitBody(body, newBodyRecord(group))
		s.metrics.groupSwitched("built")
	}

	// the owner of the environment manager adds the body back
	s.ExcludeBodyFromEnv(body)
}

// CachedGroups returns the geometry groups with a cached, non-live record
// for body.
func (s *CollisionSpace) CachedGroups(body Body) []string {
	groups := lo.Keys(s.cache[body.EnvironmentID()])
	slices.Sort(groups)
	return groups
}

// SetBoundingVolume selects the node volume of mesh models built from now
// on. Existing records are not rebuilt. An unknown name logs a warning and
// keeps the previous choice.
func (s *CollisionSpace) SetBoundingVolume(name string) {
	kind, ok := ParseBVKind(name)
	if !ok {
		s.logger.Warn("unknown BVH representation", slog.String("name", name), slog.String("current", s.bvKind.String()))
		return
	}
	s.bvKind = kind
	s.meshFactory = NewMeshFactory(kind)
}

// BoundingVolume returns the name of the current bounding-volume strategy.
func (s *CollisionSpace) BoundingVolume() string {
	return s.bvKind.String()
}

// RemoveBody releases the records of body and stops tracking it.
func (s *CollisionSpace) RemoveBody(body Body) {
	if body == nil {
		return
	}
	id := body.EnvironmentID()
	s.logger.Debug("removing body", slog.String("body", body.Name()), slog.Int("id", id))
	delete(s.bodies, id)
	rec := s.records[id]
	if rec != nil {
		rec.Reset()
	}
	s.ExcludeBodyFromEnv(body)
	delete(s.excluded, id)
	if rec == nil {
		s.logger.Warn("inconsistency detected with collision space records", slog.Int("body", id))
	}
	delete(s.records, id)
	s.dropCache(id)
	s.updateGauges()
}

// InvalidateCachedManagers drops every per-body and per-link manager and
// detaches the environment manager. Links then count as unregistered.
func (s *CollisionSpace) InvalidateCachedManagers() {
	for _, id := range s.bodyIDs() {
		rec := s.records[id]
		assert(rec != nil, "Internal Error: tracked body ", id, " has no record")
		rec.resetBodyManagers()
		for _, l := range rec.links {
			l.resetLinkManager()
			l.forgetEnvManager()
		}
	}
	s.envManagerInstance = nil
}

// Bodies returns the tracked bodies ordered by environment id.
func (s *CollisionSpace) Bodies() []Body {
	return lo.Map(s.bodyIDs(), func(id int, _ int) Body {
		return s.bodies[id]
	})
}

// SetEnvManagerInstance attaches the environment manager. Attaching while
// another one is attached is a programming error.
func (s *CollisionSpace) SetEnvManagerInstance(mi *ManagerInstance) {
	assert(s.envManagerInstance == nil, "Internal Error: an environment manager is already attached")
	s.envManagerInstance = mi
}

// EnvManagerInstance returns the attached environment manager, or nil.
func (s *CollisionSpace) EnvManagerInstance() *ManagerInstance {
	return s.envManagerInstance
}

// SetExcludedBodies replaces the set of bodies left out of the environment
// manager.
func (s *CollisionSpace) SetExcludedBodies(bodies []Body) {
	s.excluded = lo.SliceToMap(bodies, func(b Body) (int, Body) {
		return b.EnvironmentID(), b
	})
	s.updateGauges()
}

// ExcludedBodies returns the bodies left out of the environment manager,
// ordered by environment id.
func (s *CollisionSpace) ExcludedBodies() []Body {
	ids := lo.Keys(s.excluded)
	slices.Sort(ids)
	return lo.Map(ids, func(id int, _ int) Body {
		return s.excluded[id]
	})
}

// IsExcluded reports whether body is left out of the environment manager.
func (s *CollisionSpace) IsExcluded(body Body) bool {
	_, ok := s.excluded[body.EnvironmentID()]
	return ok
}

// ExcludeBodyFromEnv marks body as missing from the environment manager and
// drops its membership stamp. Self-managed bodies are never excluded.
func (s *CollisionSpace) ExcludeBodyFromEnv(body Body) {
	if s.selfManaged != nil && s.selfManaged(body) {
		return
	}
	id := body.EnvironmentID()
	s.excluded[id] = body
	if s.envManagerInstance != nil {
		s.envManagerInstance.Untrack(id)
	}
	s.updateGauges()
}

// EnvManager returns the environment manager, creating and attaching one
// with factory when none is attached, and brings it up to date with
// UpdateEnvManager.
func (s *CollisionSpace) EnvManager(factory IndexFactory, exclude ...Body) *ManagerInstance {
	if s.envManagerInstance == nil {
		s.SetEnvManagerInstance(NewManagerInstance(factory()))
		// every tracked body waits to be added
		for id, body := range s.bodies {
			s.excluded[id] = body
		}
	}
	s.UpdateEnvManager(exclude...)
	return s.envManagerInstance
}

// UpdateEnvManager adds the excluded bodies to the attached environment
// manager and refreshes members that moved since they were added. Bodies in
// exclude are taken out of the manager and stay excluded.
func (s *CollisionSpace) UpdateEnvManager(exclude ...Body) {
	mi := s.envManagerInstance
	if mi == nil {
		return
	}
	skip := lo.SliceToMap(exclude, func(b Body) (int, struct{}) {
		return b.EnvironmentID(), struct{}{}
	})

	for id := range skip {
		body, ok := s.bodies[id]
		if !ok {
			continue
		}
		if rec := s.records[id]; rec != nil {
			for _, l := range rec.links {
				if l.IsRegistered() {
					s.metrics.linkEvent("unregister")
				}
			}
			rec.UnregisterAllLinks()
		}
		mi.Untrack(id)
		s.excluded[id] = body
	}

	pending := lo.Keys(s.excluded)
	slices.Sort(pending)
	for _, id := range pending {
		if _, ok := skip[id]; ok {
			continue
		}
		body := s.excluded[id]
		delete(s.excluded, id)
		if _, ok := s.bodies[id]; !ok {
			continue
		}
		rec := s.records[id]
		s.synchronize(rec)
		if s.registerLinks(rec, mi.Index) {
			mi.Track(body)
		}
	}

	for _, id := range mi.Members() {
		body, ok := s.bodies[id]
		if !ok {
			mi.Untrack(id)
			continue
		}
		stamp, _ := mi.Stamp(id)
		if stamp == body.UpdateStamp() {
			continue
		}
		rec := s.records[id]
		s.synchronize(rec)
		if !s.registerLinks(rec, mi.Index) {
			mi.Untrack(id)
			continue
		}
		mi.Track(body)
	}
	s.updateGauges()
}

func (s *CollisionSpace) registerLinks(rec *BodyRecord, index *SpatialIndex) bool {
	for _, l := range rec.links {
		if l.bv == nil {
			continue
		}
		switch {
		case !l.link.IsEnabled():
			if l.IsRegistered() {
				s.metrics.linkEvent("unregister")
			}
		case l.IsRegistered():
			s.metrics.linkEvent("update")
		default:
			s.metrics.linkEvent("register")
		}
	}
	return rec.UpdateLinksRegisterStatus(index)
}

// BodyManager synchronizes body and returns its per-body manager: every
// enabled link, or only the links moved by the active DOFs.
func (s *CollisionSpace) BodyManager(body Body, factory IndexFactory, activeDOFs bool) *ManagerInstance {
	rec, _ := s.RecordOrCreate(body)
	s.synchronize(rec)
	if activeDOFs {
		return rec.ActiveDOFsManager(factory)
	}
	return rec.BodyManager(factory)
}

// LinkManager synchronizes the geometries of link and returns a manager
// holding them.
func (s *CollisionSpace) LinkManager(link Link, factory IndexFactory) *SpatialIndex {
	rec, _ := s.RecordOrCreate(link.Parent())
	lr := rec.links[link.Index()]
	s.SynchronizeLinkGeometries(link, lr)
	return lr.LinkManager(factory)
}
