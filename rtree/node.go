package rtree

import (
	"math"
	"sort"
)

// Node fan-out bounds. minEntries at roughly 40% of the maximum follows
// the R*-tree paper's recommendation.
const (
	maxEntries = 16
	minEntries = 6
)

// box is an axis-aligned bounding box in ECEF space.
type box struct {
	min, max [3]float64
}

func emptyBox() box {
	inf := math.Inf(1)
	return box{
		min: [3]float64{inf, inf, inf},
		max: [3]float64{-inf, -inf, -inf},
	}
}

func pointBox(p [3]float64) box {
	return box{min: p, max: p}
}

func (b *box) extend(o box) {
	for i := 0; i < 3; i++ {
		b.min[i] = math.Min(b.min[i], o.min[i])
		b.max[i] = math.Max(b.max[i], o.max[i])
	}
}

func (b box) contains(p [3]float64) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.min[i] || p[i] > b.max[i] {
			return false
		}
	}
	return true
}

// volume of the box; zero for degenerate boxes.
func (b box) volume() float64 {
	v := 1.0
	for i := 0; i < 3; i++ {
		v *= b.max[i] - b.min[i]
	}
	return v
}

// margin is the sum of the edge lengths.
func (b box) margin() float64 {
	m := 0.0
	for i := 0; i < 3; i++ {
		m += b.max[i] - b.min[i]
	}
	return m
}

// overlap is the volume of the intersection of two boxes.
func (b box) overlap(o box) float64 {
	v := 1.0
	for i := 0; i < 3; i++ {
		lo := math.Max(b.min[i], o.min[i])
		hi := math.Min(b.max[i], o.max[i])
		if hi <= lo {
			return 0
		}
		v *= hi - lo
	}
	return v
}

// minDistSquared is the squared distance from p to the nearest face of
// the box, zero when p is inside.
func (b box) minDistSquared(p [3]float64) float64 {
	d := 0.0
	for i := 0; i < 3; i++ {
		if p[i] < b.min[i] {
			d += (b.min[i] - p[i]) * (b.min[i] - p[i])
		} else if p[i] > b.max[i] {
			d += (p[i] - b.max[i]) * (p[i] - b.max[i])
		}
	}
	return d
}

func (b box) center() [3]float64 {
	return [3]float64{
		(b.min[0] + b.max[0]) / 2,
		(b.min[1] + b.max[1]) / 2,
		(b.min[2] + b.max[2]) / 2,
	}
}

// item is one stored observation: its ECEF position, the geodetic
// coordinates it came from, the scalar value, and the insertion order used
// to break distance ties.
type item struct {
	pt       [3]float64
	lon, lat float64
	value    float64
	order    int
}

// entry is one slot of a node: either an item (leaf node) or a child
// subtree with its bounding box.
type entry struct {
	box   box
	child *node
	item  item
}

type node struct {
	leaf    bool
	entries []entry
}

func (n *node) boundingBox() box {
	b := emptyBox()
	for i := range n.entries {
		b.extend(n.entries[i].box)
	}
	return b
}

// chooseSubtree picks the child to descend into for an insertion, per the
// R*-tree heuristic: minimum overlap enlargement when the children are
// leaves, minimum volume enlargement otherwise, ties broken by volume.
func (n *node) chooseSubtree(b box) int {
	childrenAreLeaves := n.entries[0].child.leaf

	best := -1
	bestEnlargement := math.Inf(1)
	bestVolume := math.Inf(1)
	for i := range n.entries {
		e := &n.entries[i]
		enlarged := e.box
		enlarged.extend(b)

		var cost float64
		if childrenAreLeaves {
			for j := range n.entries {
				if j == i {
					continue
				}
				cost += enlarged.overlap(n.entries[j].box) - e.box.overlap(n.entries[j].box)
			}
		} else {
			cost = enlarged.volume() - e.box.volume()
		}
		vol := e.box.volume()
		if cost < bestEnlargement || (cost == bestEnlargement && vol < bestVolume) {
			best, bestEnlargement, bestVolume = i, cost, vol
		}
	}
	return best
}

// split divides an overfull node in two using the R*-tree split: the axis
// with the smallest margin sum over candidate distributions is chosen,
// then the distribution with the least overlap (volume as tie-break).
func (n *node) split() *node {
	entries := n.entries

	bestAxis, bestIndex := 0, minEntries
	bestMargin := math.Inf(1)
	for ax := 0; ax < 3; ax++ {
		sortEntriesByAxis(entries, ax)
		margin := 0.0
		for k := minEntries; k <= len(entries)-minEntries; k++ {
			lhs := boxOf(entries[:k])
			rhs := boxOf(entries[k:])
			margin += lhs.margin() + rhs.margin()
		}
		if margin < bestMargin {
			bestMargin = margin
			bestAxis = ax
		}
	}

	sortEntriesByAxis(entries, bestAxis)
	bestOverlap := math.Inf(1)
	bestVolume := math.Inf(1)
	for k := minEntries; k <= len(entries)-minEntries; k++ {
		lhs := boxOf(entries[:k])
		rhs := boxOf(entries[k:])
		overlap := lhs.overlap(rhs)
		volume := lhs.volume() + rhs.volume()
		if overlap < bestOverlap || (overlap == bestOverlap && volume < bestVolume) {
			bestOverlap, bestVolume, bestIndex = overlap, volume, k
		}
	}

	sibling := &node{leaf: n.leaf}
	sibling.entries = append(sibling.entries, entries[bestIndex:]...)
	n.entries = entries[:bestIndex]
	return sibling
}

func boxOf(entries []entry) box {
	b := emptyBox()
	for i := range entries {
		b.extend(entries[i].box)
	}
	return b
}

func sortEntriesByAxis(entries []entry, ax int) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].box.min[ax] != entries[j].box.min[ax] {
			return entries[i].box.min[ax] < entries[j].box.min[ax]
		}
		return entries[i].box.max[ax] < entries[j].box.max[ax]
	})
}
