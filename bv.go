package cspace

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// BVKind selects the bounding-volume type used when building mesh models.
type BVKind uint8

const (
	BVAABB BVKind = iota
	BVOBB
	BVRSS
	BVOBBRSS
	BVKDOP16
	BVKDOP18
	BVKDOP24
	BVKIOS
)

var bvNames = [...]string{"AABB", "OBB", "RSS", "OBBRSS", "kDOP16", "kDOP18", "kDOP24", "kIOS"}

func (k BVKind) String() string {
	if int(k) < len(bvNames) {
		return bvNames[k]
	}
	return "unknown"
}

// ParseBVKind returns the kind for a recognized strategy name.
func ParseBVKind(name string) (BVKind, bool) {
	for i, n := range bvNames {
		if n == name {
			return BVKind(i), true
		}
	}
	return BVOBB, false
}

// BoundingVolume is a convex bound fitted around a point set.
type BoundingVolume interface {
	Kind() BVKind
	Center() mgl64.Vec3
	// Bounds returns an axis-aligned box enclosing the volume.
	Bounds() AABB
	ContainsPoint(p mgl64.Vec3) bool
}

const bvEpsilon = 1e-9

// FitBV fits a bounding volume of the given kind around points.
func FitBV(kind BVKind, points []mgl64.Vec3) BoundingVolume {
	switch kind {
	case BVAABB:
		return NewAABBForPoints(points)
	case BVOBB:
		return FitOBB(points)
	case BVRSS:
		return FitRSS(points)
	case BVOBBRSS:
		return FitOBBRSS(points)
	case BVKDOP16:
		return FitKDOP(16, points)
	case BVKDOP18:
		return FitKDOP(18, points)
	case BVKDOP24:
		return FitKDOP(24, points)
	case BVKIOS:
		return FitKIOS(points)
	default:
		panic("Internal Error: unknown bounding volume kind")
	}
}

func (bb AABB) Kind() BVKind { return BVAABB }

func (bb AABB) Bounds() AABB { return bb }

// OBB is an oriented box. Axes form a right-handed orthonormal frame.
type OBB struct {
	Axes    [3]mgl64.Vec3
	Pos     mgl64.Vec3
	Extents mgl64.Vec3 // half lengths along Axes
}

func (o OBB) Kind() BVKind { return BVOBB }

func (o OBB) Center() mgl64.Vec3 { return o.Pos }

// Transform returns the frame of the box: its rotation maps local axes onto
// Axes and its translation is the box center.
func (o OBB) Transform() Transform {
	return NewTransformFromAxes(o.Axes, o.Pos)
}

func (o OBB) Bounds() AABB {
	return o.Transform().AABB(NewAABBForExtents(mgl64.Vec3{}, o.Extents))
}

func (o OBB) ContainsPoint(p mgl64.Vec3) bool {
	d := p.Sub(o.Pos)
	for i := 0; i < 3; i++ {
		if math.Abs(d.Dot(o.Axes[i])) > o.Extents[i]+bvEpsilon {
			return false
		}
	}
	return true
}

// Volume returns the box volume.
func (o OBB) Volume() float64 {
	return 8 * o.Extents[0] * o.Extents[1] * o.Extents[2]
}

// principalAxes returns the principal directions of points, major axis first.
func principalAxes(points []mgl64.Vec3) [3]mgl64.Vec3 {
	identity := [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	if len(points) < 2 {
		return identity
	}

	var mean mgl64.Vec3
	for _, p := range points {
		mean = mean.Add(p)
	}
	mean = mean.Mul(1 / float64(len(points)))

	cov := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			var s float64
			for _, p := range points {
				s += (p[i] - mean[i]) * (p[j] - mean[j])
			}
			cov.SetSym(i, j, s/float64(len(points)))
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return identity
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// eigenvalues come back in ascending order
	col := func(c int) mgl64.Vec3 {
		return mgl64.Vec3{vecs.At(0, c), vecs.At(1, c), vecs.At(2, c)}
	}
	a0 := col(2)
	a1 := col(1)
	if a0.Len() < bvEpsilon || a1.Len() < bvEpsilon {
		return identity
	}
	a0 = a0.Normalize()
	a1 = a1.Sub(a0.Mul(a1.Dot(a0))).Normalize()
	return [3]mgl64.Vec3{a0, a1, a0.Cross(a1)}
}

// FitOBB fits an oriented box aligned with the principal axes of points.
func FitOBB(points []mgl64.Vec3) OBB {
	axes := principalAxes(points)
	if len(points) == 0 {
		return OBB{Axes: axes}
	}
	lo := mgl64.Vec3{infinity, infinity, infinity}
	hi := mgl64.Vec3{-infinity, -infinity, -infinity}
	for _, p := range points {
		for i := 0; i < 3; i++ {
			d := p.Dot(axes[i])
			lo[i] = math.Min(lo[i], d)
			hi[i] = math.Max(hi[i], d)
		}
	}
	var center mgl64.Vec3
	for i := 0; i < 3; i++ {
		center = center.Add(axes[i].Mul((lo[i] + hi[i]) / 2))
	}
	return OBB{
		Axes:    axes,
		Pos:     center,
		Extents: hi.Sub(lo).Mul(0.5),
	}
}

// RSS is a rectangle swept sphere: the rectangle spans Axes[0] and Axes[1]
// from Origin with side lengths Length, and is inflated by Radius.
type RSS struct {
	Axes   [3]mgl64.Vec3
	Origin mgl64.Vec3
	Length [2]float64
	Radius float64
}

func (r RSS) Kind() BVKind { return BVRSS }

func (r RSS) Center() mgl64.Vec3 {
	return r.Origin.Add(r.Axes[0].Mul(r.Length[0] / 2)).Add(r.Axes[1].Mul(r.Length[1] / 2))
}

func (r RSS) Bounds() AABB {
	half := mgl64.Vec3{r.Length[0]/2 + r.Radius, r.Length[1]/2 + r.Radius, r.Radius}
	return NewTransformFromAxes(r.Axes, r.Center()).AABB(NewAABBForExtents(mgl64.Vec3{}, half))
}

func (r RSS) ContainsPoint(p mgl64.Vec3) bool {
	d := p.Sub(r.Origin)
	u := math.Max(0, math.Min(r.Length[0], d.Dot(r.Axes[0])))
	v := math.Max(0, math.Min(r.Length[1], d.Dot(r.Axes[1])))
	closest := r.Origin.Add(r.Axes[0].Mul(u)).Add(r.Axes[1].Mul(v))
	return p.Sub(closest).Len() <= r.Radius+bvEpsilon
}

// FitRSS fits a swept rectangle over the principal frame of points. The
// rectangle lies in the two major axes and the radius covers the minor one.
func FitRSS(points []mgl64.Vec3) RSS {
	obb := FitOBB(points)
	r := obb.Extents[2]
	rss := RSS{Axes: obb.Axes, Radius: r}
	for i := 0; i < 2; i++ {
		rss.Length[i] = 2 * obb.Extents[i]
	}
	rss.Origin = obb.Pos.Sub(obb.Axes[0].Mul(obb.Extents[0])).Sub(obb.Axes[1].Mul(obb.Extents[1]))
	return rss
}

// OBBRSS carries both an OBB and an RSS over the same points.
type OBBRSS struct {
	OBB OBB
	RSS RSS
}

func (o OBBRSS) Kind() BVKind { return BVOBBRSS }

func (o OBBRSS) Center() mgl64.Vec3 { return o.OBB.Pos }

func (o OBBRSS) Bounds() AABB { return o.OBB.Bounds() }

func (o OBBRSS) ContainsPoint(p mgl64.Vec3) bool {
	return o.OBB.ContainsPoint(p) && o.RSS.ContainsPoint(p)
}

func FitOBBRSS(points []mgl64.Vec3) OBBRSS {
	return OBBRSS{OBB: FitOBB(points), RSS: FitRSS(points)}
}

var (
	kdopAxes9 = []mgl64.Vec3{
		{1, 0, 0}, {0, 1, 0}, {0, 0, 1},
		{1, 1, 0}, {1, 0, 1}, {0, 1, 1},
		{1, -1, 0}, {1, 0, -1}, {0, 1, -1},
	}
	kdopAxes12 = append(append([]mgl64.Vec3(nil), kdopAxes9...),
		mgl64.Vec3{1, 1, 1}, mgl64.Vec3{1, -1, 1}, mgl64.Vec3{1, 1, -1},
	)
)

func kdopAxes(k int) []mgl64.Vec3 {
	switch k {
	case 16:
		return kdopAxes9[:8]
	case 18:
		return kdopAxes9
	case 24:
		return kdopAxes12
	default:
		panic("Internal Error: k-DOP supports 16, 18 or 24 faces")
	}
}

// KDOP is a discrete oriented polytope bounded by K/2 slabs. Dist holds the
// lower slab distances followed by the upper ones.
type KDOP struct {
	K    int
	Dist []float64
}

func (d KDOP) Kind() BVKind {
	switch d.K {
	case 16:
		return BVKDOP16
	case 18:
		return BVKDOP18
	default:
		return BVKDOP24
	}
}

func (d KDOP) Center() mgl64.Vec3 {
	return d.Bounds().Center()
}

// Bounds uses the three coordinate slabs.
func (d KDOP) Bounds() AABB {
	h := d.K / 2
	return NewAABB(
		mgl64.Vec3{d.Dist[0], d.Dist[1], d.Dist[2]},
		mgl64.Vec3{d.Dist[h], d.Dist[h+1], d.Dist[h+2]},
	)
}

func (d KDOP) ContainsPoint(p mgl64.Vec3) bool {
	h := d.K / 2
	for i, axis := range kdopAxes(d.K) {
		v := p.Dot(axis)
		if v < d.Dist[i]-bvEpsilon || v > d.Dist[h+i]+bvEpsilon {
			return false
		}
	}
	return true
}

// FitKDOP fits a k-DOP with k in {16, 18, 24}.
func FitKDOP(k int, points []mgl64.Vec3) KDOP {
	axes := kdopAxes(k)
	h := k / 2
	d := KDOP{K: k, Dist: make([]float64, k)}
	for i := 0; i < h; i++ {
		d.Dist[i] = infinity
		d.Dist[h+i] = -infinity
	}
	for _, p := range points {
		for i, axis := range axes {
			v := p.Dot(axis)
			d.Dist[i] = math.Min(d.Dist[i], v)
			d.Dist[h+i] = math.Max(d.Dist[h+i], v)
		}
	}
	return d
}

// BoundingSphere is one member of a KIOS.
type BoundingSphere struct {
	Pos    mgl64.Vec3
	Radius float64
}

// KIOS is the intersection of up to five spheres, each enclosing every
// fitted point, tightened by an OBB.
type KIOS struct {
	Spheres []BoundingSphere
	OBB     OBB
}

func (s KIOS) Kind() BVKind { return BVKIOS }

func (s KIOS) Center() mgl64.Vec3 { return s.OBB.Pos }

func (s KIOS) Bounds() AABB {
	bb := s.OBB.Bounds()
	for _, sp := range s.Spheres {
		sb := NewAABBForSphere(sp.Pos, sp.Radius)
		bb = NewAABB(
			mgl64.Vec3{math.Max(bb.Min[0], sb.Min[0]), math.Max(bb.Min[1], sb.Min[1]), math.Max(bb.Min[2], sb.Min[2])},
			mgl64.Vec3{math.Min(bb.Max[0], sb.Max[0]), math.Min(bb.Max[1], sb.Max[1]), math.Min(bb.Max[2], sb.Max[2])},
		)
	}
	return bb
}

func (s KIOS) ContainsPoint(p mgl64.Vec3) bool {
	for _, sp := range s.Spheres {
		if p.Sub(sp.Pos).Len() > sp.Radius+bvEpsilon {
			return false
		}
	}
	return s.OBB.ContainsPoint(p)
}

// kiosRatio is the extent ratio past which extra spheres are placed along an
// elongated axis.
const kiosRatio = 1.5

// FitKIOS fits one central sphere and, for elongated point sets, pairs of
// spheres offset along the major and middle axes.
func FitKIOS(points []mgl64.Vec3) KIOS {
	obb := FitOBB(points)
	enclose := func(c mgl64.Vec3) BoundingSphere {
		var r float64
		for _, p := range points {
			r = math.Max(r, p.Sub(c).Len())
		}
		return BoundingSphere{Pos: c, Radius: r}
	}

	s := KIOS{OBB: obb, Spheres: []BoundingSphere{enclose(obb.Pos)}}
	for axis := 0; axis < 2; axis++ {
		next := obb.Extents[axis+1]
		if next <= 0 || obb.Extents[axis]/next < kiosRatio {
			break
		}
		off := obb.Axes[axis].Mul(obb.Extents[axis] - next)
		s.Spheres = append(s.Spheres, enclose(obb.Pos.Add(off)), enclose(obb.Pos.Sub(off)))
	}
	return s
}
