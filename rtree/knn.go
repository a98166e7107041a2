package rtree

import (
	"container/heap"
)

// neighbor is one result of a nearest-neighbor search.
type neighbor struct {
	chord2   float64 // squared ECEF chord distance to the query
	pt       [3]float64
	lon, lat float64
	value    float64
	order    int
}

// searchEntry is a frontier element of the best-first traversal: either a
// subtree or a concrete item, keyed by its minimum possible distance.
type searchEntry struct {
	dist2 float64
	node  *node
	item  *item
}

type searchHeap []searchEntry

func (h searchHeap) Len() int { return len(h) }
func (h searchHeap) Less(i, j int) bool {
	if h[i].dist2 != h[j].dist2 {
		return h[i].dist2 < h[j].dist2
	}
	// Stable tie-breaking: concrete items by insertion order, items ahead
	// of subtrees at the same key.
	if h[i].item != nil && h[j].item != nil {
		return h[i].item.order < h[j].item.order
	}
	return h[i].item != nil
}
func (h searchHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *searchHeap) Push(x any)   { *h = append(*h, x.(searchEntry)) }
func (h *searchHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// nearest returns up to k stored items ordered by ascending distance to
// the ECEF point q, using best-first traversal with box pruning.
func (t *RTree) nearest(q [3]float64, k int) []neighbor {
	if t.count == 0 || k <= 0 {
		return nil
	}
	frontier := searchHeap{{dist2: t.root.boundingBox().minDistSquared(q), node: t.root}}
	out := make([]neighbor, 0, k)

	for frontier.Len() > 0 {
		head := heap.Pop(&frontier).(searchEntry)
		if head.item != nil {
			out = append(out, neighbor{
				chord2: head.dist2,
				pt:     head.item.pt,
				lon:    head.item.lon,
				lat:    head.item.lat,
				value:  head.item.value,
				order:  head.item.order,
			})
			if len(out) == k {
				return out
			}
			continue
		}
		for i := range head.node.entries {
			e := &head.node.entries[i]
			if e.child != nil {
				heap.Push(&frontier, searchEntry{dist2: e.box.minDistSquared(q), node: e.child})
			} else {
				d := pointDistSquared(e.item.pt, q)
				heap.Push(&frontier, searchEntry{dist2: d, item: &e.item})
			}
		}
	}
	return out
}

func pointDistSquared(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return dx*dx + dy*dy + dz*dz
}

// neighborBoxContains tests the query point against the ECEF bounding box
// of the neighbor set ("within" semantics): a query point outside this box
// would be extrapolated, not interpolated.
func neighborBoxContains(neighbors []neighbor, q [3]float64) bool {
	b := emptyBox()
	for i := range neighbors {
		b.extend(pointBox(neighbors[i].pt))
	}
	return b.contains(q)
}
