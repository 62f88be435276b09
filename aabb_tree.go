package cspace

const pooledBufferSize = 64

// fatMargin is the fraction of a leaf's size its stored bounds are grown by,
// so small motions do not restructure the tree.
const fatMargin = 0.1

// AABBTree is a dynamic bounding box tree with fattened leaves.
type AABBTree struct {
	// leaves maps every stored object to its leaf node.
	leaves map[*CollisionObject]*Node
	// root is the root node of the bounding box tree.
	root *Node
	// pooledNodes is a reusable pool of nodes to avoid frequent allocations.
	pooledNodes *Node
}

// NewAABBTree returns a manager backed by an AABBTree.
func NewAABBTree(name string) *SpatialIndex {
	return NewSpatialIndex(NewAABBTreeIndexer(), name)
}

func NewAABBTreeIndexer() *AABBTree {
	return &AABBTree{leaves: make(map[*CollisionObject]*Node)}
}

// Node is a node of an AABBTree. Leaves carry an object, branches carry two
// children.
type Node struct {
	obj    *CollisionObject
	bb     AABB
	parent *Node
	a, b   *Node
}

func NodeSetA(node, value *Node) {
	node.a = value
	value.parent = node
}

func NodeSetB(node, value *Node) {
	node.b = value
	value.parent = node
}

func (node *Node) Other(child *Node) *Node {
	if node.a == child {
		return node.b
	}
	return node.a
}

func (node *Node) IsLeaf() bool {
	return node.obj != nil
}

func (tree *AABBTree) Count() int {
	return len(tree.leaves)
}

func (tree *AABBTree) Each(f SpatialIndexIterator) {
	for obj := range tree.leaves {
		f(obj)
	}
}

func (tree *AABBTree) Contains(obj *CollisionObject) bool {
	_, ok := tree.leaves[obj]
	return ok
}

func (tree *AABBTree) Insert(obj *CollisionObject) {
	leaf := tree.NewLeaf(obj)
	tree.leaves[obj] = leaf
	tree.root = tree.SubtreeInsert(tree.root, leaf)
}

func (tree *AABBTree) Remove(obj *CollisionObject) {
	leaf, ok := tree.leaves[obj]
	if !ok {
		return
	}
	delete(tree.leaves, obj)
	tree.root = tree.SubtreeRemove(tree.root, leaf)
	tree.RecycleNode(leaf)
}

func (tree *AABBTree) ReindexObject(obj *CollisionObject) {
	if leaf, ok := tree.leaves[obj]; ok {
		tree.LeafUpdate(leaf)
	}
}

func (tree *AABBTree) Query(bb AABB, f SpatialIndexIterator) {
	if tree.root != nil {
		tree.root.SubtreeQuery(bb, f)
	}
}

func (tree *AABBTree) Clear() {
	for _, leaf := range tree.leaves {
		tree.RecycleNode(leaf)
	}
	clear(tree.leaves)
	tree.root = nil
}

// Height returns the number of levels of the tree.
func (tree *AABBTree) Height() int {
	var height func(n *Node) int
	height = func(n *Node) int {
		if n == nil {
			return 0
		}
		if n.IsLeaf() {
			return 1
		}
		return 1 + max(height(n.a), height(n.b))
	}
	return height(tree.root)
}

func (tree *AABBTree) SubtreeInsert(subtree *Node, leaf *Node) *Node {
	if subtree == nil {
		return leaf
	}
	if subtree.IsLeaf() {
		return tree.NewNode(leaf, subtree)
	}

	costA := subtree.b.bb.SurfaceArea() + subtree.a.bb.MergedSurfaceArea(leaf.bb)
	costB := subtree.a.bb.SurfaceArea() + subtree.b.bb.MergedSurfaceArea(leaf.bb)

	if costA == costB {
		costA = subtree.a.bb.Proximity(leaf.bb)
		costB = subtree.b.bb.Proximity(leaf.bb)
	}

	if costB < costA {
		NodeSetB(subtree, tree.SubtreeInsert(subtree.b, leaf))
	} else {
		NodeSetA(subtree, tree.SubtreeInsert(subtree.a, leaf))
	}

	subtree.bb = subtree.bb.Merge(leaf.bb)
	return subtree
}

func (tree *AABBTree) SubtreeRemove(subtree *Node, leaf *Node) *Node {
	if leaf == subtree {
		return nil
	}

	parent := leaf.parent
	if parent == subtree {
		other := subtree.Other(leaf)
		other.parent = subtree.parent
		tree.RecycleNode(subtree)
		return other
	}

	tree.ReplaceChild(parent.parent, parent, parent.Other(leaf))
	return subtree
}

func (tree *AABBTree) ReplaceChild(parent, child, value *Node) {
	if parent.a == child {
		tree.RecycleNode(parent.a)
		NodeSetA(parent, value)
	} else {
		tree.RecycleNode(parent.b)
		NodeSetB(parent, value)
	}

	for node := parent; node != nil; node = node.parent {
		node.bb = node.a.bb.Merge(node.b.bb)
	}
}

// LeafUpdate reinserts leaf when the object's bounds escaped the fattened
// bounds stored in the tree. It reports whether the tree changed.
func (tree *AABBTree) LeafUpdate(leaf *Node) bool {
	if leaf.bb.Contains(leaf.obj.AABB()) {
		return false
	}
	root := tree.SubtreeRemove(tree.root, leaf)
	leaf.bb = tree.GetBB(leaf.obj)
	leaf.parent = nil
	tree.root = tree.SubtreeInsert(root, leaf)
	return true
}

// GetBB returns the fattened bounds stored for obj.
func (tree *AABBTree) GetBB(obj *CollisionObject) AABB {
	bb := obj.AABB()
	size := bb.Size()
	margin := fatMargin * max(size[0], size[1], size[2])
	return bb.Grow(margin)
}

func (tree *AABBTree) NewNode(a, b *Node) *Node {
	node := tree.NodeFromPool()
	node.obj = nil
	node.bb = a.bb.Merge(b.bb)
	node.parent = nil

	NodeSetA(node, a)
	NodeSetB(node, b)
	return node
}

func (tree *AABBTree) NewLeaf(obj *CollisionObject) *Node {
	node := tree.NodeFromPool()
	node.obj = obj
	node.bb = tree.GetBB(obj)
	node.parent = nil
	node.a, node.b = nil, nil
	return node
}

func (tree *AABBTree) NodeFromPool() *Node {
	node := tree.pooledNodes

	if node != nil {
		tree.pooledNodes = node.parent
		return node
	}

	// Pool is exhausted make more
	for i := 0; i < pooledBufferSize; i++ {
		tree.RecycleNode(&Node{})
	}

	return &Node{}
}

func (tree *AABBTree) RecycleNode(node *Node) {
	node.obj = nil
	node.a, node.b = nil, nil
	node.parent = tree.pooledNodes
	tree.pooledNodes = node
}

func (subtree *Node) SubtreeQuery(bb AABB, query SpatialIndexIterator) {
	if subtree.bb.Intersects(bb) {
		if subtree.IsLeaf() {
			query(subtree.obj)
		} else {
			subtree.a.SubtreeQuery(bb, query)
			subtree.b.SubtreeQuery(bb, query)
		}
	}
}
