package cspace

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// maxTrianglesPerLeaf is the threshold for splitting hierarchy nodes.
const maxTrianglesPerLeaf = 4

// bvhNode is one node of a BVHModel. Leaves reference the triangle range
// [first, first+count) of the model's triangle order.
type bvhNode struct {
	bv          BoundingVolume
	left, right int
	first       int
	count       int
}

func (n *bvhNode) isLeaf() bool {
	return n.count > 0
}

// BVHModel is a triangle mesh collision geometry with a bounding volume
// hierarchy whose node volumes are of a single BVKind.
type BVHModel struct {
	kind   BVKind
	mesh   TriMesh
	order  []int
	nodes  []bvhNode
	bounds AABB
}

// NewBVHModel builds a hierarchy over mesh by recursive median split along
// the longest axis of the triangle centroids.
func NewBVHModel(kind BVKind, mesh TriMesh) *BVHModel {
	m := &BVHModel{
		kind:   kind,
		mesh:   mesh,
		bounds: mesh.AABB(),
	}
	n := mesh.TriangleCount()
	if n == 0 {
		return m
	}
	m.order = make([]int, n)
	centroids := make([]mgl64.Vec3, n)
	for i := range m.order {
		m.order[i] = i
		tri := mesh.Triangle(i)
		centroids[i] = tri[0].Add(tri[1]).Add(tri[2]).Mul(1.0 / 3)
	}
	m.build(0, n, centroids)
	return m
}

func (m *BVHModel) build(first, count int, centroids []mgl64.Vec3) int {
	tris := m.order[first : first+count]
	points := make([]mgl64.Vec3, 0, 3*count)
	for _, t := range tris {
		tri := m.mesh.Triangle(t)
		points = append(points, tri[:]...)
	}

	idx := len(m.nodes)
	m.nodes = append(m.nodes, bvhNode{bv: FitBV(m.kind, points), left: -1, right: -1})
	if count <= maxTrianglesPerLeaf {
		m.nodes[idx].first = first
		m.nodes[idx].count = count
		return idx
	}

	cb := EmptyAABB()
	for _, t := range tris {
		cb = cb.Expand(centroids[t])
	}
	size := cb.Size()
	axis := 0
	if size[1] > size[axis] {
		axis = 1
	}
	if size[2] > size[axis] {
		axis = 2
	}
	sort.Slice(tris, func(i, j int) bool {
		return centroids[tris[i]][axis] < centroids[tris[j]][axis]
	})

	mid := count / 2
	left := m.build(first, mid, centroids)
	right := m.build(first+mid, count-mid, centroids)
	m.nodes[idx].left = left
	m.nodes[idx].right = right
	return idx
}

func (m *BVHModel) Kind() GeometryKind { return GeometryTriMesh }

func (m *BVHModel) LocalAABB() AABB { return m.bounds }

// BVKind returns the node volume type.
func (m *BVHModel) BVKind() BVKind { return m.kind }

// Mesh returns the source mesh.
func (m *BVHModel) Mesh() TriMesh { return m.mesh }

// NumBVs returns the number of hierarchy nodes.
func (m *BVHModel) NumBVs() int { return len(m.nodes) }

// RootBV returns the volume enclosing the whole mesh, or nil for an empty
// mesh.
func (m *BVHModel) RootBV() BoundingVolume {
	if len(m.nodes) == 0 {
		return nil
	}
	return m.nodes[0].bv
}

// Leaves calls f with the triangle indices of every leaf, depth first.
func (m *BVHModel) Leaves(f func(tris []int)) {
	if len(m.nodes) == 0 {
		return
	}
	var walk func(i int)
	walk = func(i int) {
		n := &m.nodes[i]
		if n.isLeaf() {
			f(m.order[n.first : n.first+n.count])
			return
		}
		walk(n.left)
		walk(n.right)
	}
	walk(0)
}
