// Package rtree implements an R*-tree spatial index over geodetic points.
// Geographic coordinates are projected to earth-centered earth-fixed
// (ECEF) space, so nearest-neighbor search reduces to Euclidean box
// pruning. The tree supports one-shot bulk loading (sort-tile-recursive
// packing), incremental insertion with R*-style splits, k-nearest-neighbor
// queries, and inverse-distance-weighting and radial-basis-function
// interpolation over the stored values.
//
// Queries are safe to run concurrently with each other. Packing, Insert
// and Clear mutate the tree and must not overlap with queries; build the
// tree first, query it after.
package rtree

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/paulmach/orb"

	"github.com/pangeo-go/geointerp/geodetic"
)

// ErrLengthMismatch is returned when the coordinate and value slices of a
// call do not share one length.
var ErrLengthMismatch = errors.New("rtree: coordinate and value arrays must have the same length")

// RTree is an R*-tree over geodetic points carrying a scalar value each.
type RTree struct {
	spheroid geodetic.Spheroid
	root     *node
	count    int
	geoBound orb.Bound
}

// New returns an empty tree measuring distances on the given spheroid.
func New(s geodetic.Spheroid) *RTree {
	t := &RTree{spheroid: s}
	t.Clear()
	return t
}

// NewWGS84 returns an empty tree on the WGS-84 spheroid.
func NewWGS84() *RTree {
	return New(geodetic.WGS84())
}

// Len returns the number of stored points.
func (t *RTree) Len() int { return t.count }

// Clear removes all stored points.
func (t *RTree) Clear() {
	t.root = &node{leaf: true}
	t.count = 0
	t.geoBound = orb.Bound{
		Min: orb.Point{math.Inf(1), math.Inf(1)},
		Max: orb.Point{math.Inf(-1), math.Inf(-1)},
	}
}

// Bounds returns the geographic bound covering all stored points.
// ok is false for an empty tree.
func (t *RTree) Bounds() (b orb.Bound, ok bool) {
	if t.count == 0 {
		return orb.Bound{}, false
	}
	return t.geoBound, true
}

func (t *RTree) extendGeoBound(lon, lat float64) {
	t.geoBound = t.geoBound.Extend(orb.Point{lon, lat})
}

// Insert adds one point to the tree, splitting nodes that exceed their
// fan-out bound on the way back up. O(log n) amortized.
func (t *RTree) Insert(lon, lat, value float64) {
	it := item{
		pt:    t.spheroid.ToECEF(lon, lat, 0),
		lon:   lon,
		lat:   lat,
		value: value,
		order: t.count,
	}
	t.insertItem(it)
	t.extendGeoBound(lon, lat)
	t.count++
}

func (t *RTree) insertItem(it item) {
	b := pointBox(it.pt)

	// Descend to a leaf, remembering the path so boxes can be fixed up and
	// splits propagated on the way back.
	path := make([]*node, 0, 8)
	slots := make([]int, 0, 8)
	n := t.root
	for !n.leaf {
		i := n.chooseSubtree(b)
		n.entries[i].box.extend(b)
		path = append(path, n)
		slots = append(slots, i)
		n = n.entries[i].child
	}
	n.entries = append(n.entries, entry{box: b, item: it})

	for n != nil && len(n.entries) > maxEntries {
		sibling := n.split()
		if len(path) == 0 {
			// Root split: grow the tree by one level.
			t.root = &node{
				leaf: false,
				entries: []entry{
					{box: n.boundingBox(), child: n},
					{box: sibling.boundingBox(), child: sibling},
				},
			}
			return
		}
		parent := path[len(path)-1]
		slot := slots[len(slots)-1]
		path = path[:len(path)-1]
		slots = slots[:len(slots)-1]

		parent.entries[slot].box = n.boundingBox()
		parent.entries = append(parent.entries, entry{box: sibling.boundingBox(), child: sibling})
		n = parent
	}
}

// Packing discards the current content and bulk-loads the tree from the
// full point set with the sort-tile-recursive algorithm, O(n log n).
// Preferred over repeated Insert for static datasets: the resulting
// leaves tile space with little overlap, which queries reward.
func (t *RTree) Packing(lons, lats, values []float64) error {
	if len(lons) != len(lats) || len(lons) != len(values) {
		return fmt.Errorf("%w: %d lon, %d lat, %d values",
			ErrLengthMismatch, len(lons), len(lats), len(values))
	}
	started := time.Now()
	t.Clear()
	if len(lons) == 0 {
		return nil
	}

	leaves := make([]entry, len(lons))
	for i := range lons {
		it := item{
			pt:    t.spheroid.ToECEF(lons[i], lats[i], 0),
			lon:   lons[i],
			lat:   lats[i],
			value: values[i],
			order: i,
		}
		leaves[i] = entry{box: pointBox(it.pt), item: it}
		t.extendGeoBound(lons[i], lats[i])
	}

	level := packLevel(leaves, true)
	for len(level) > 1 {
		up := make([]entry, len(level))
		for i := range level {
			up[i] = entry{box: level[i].boundingBox(), child: level[i]}
		}
		level = packLevel(up, false)
	}
	t.root = level[0]
	t.count = len(lons)

	slog.Debug("rtree: packed", "points", t.count, "elapsed", time.Since(started).Round(time.Microsecond))
	return nil
}

// packLevel groups entries into nodes of at most maxEntries each using
// sort-tile-recursive tiling: sort by x into slabs, by y into runs within
// each slab, by z into nodes within each run.
func packLevel(entries []entry, leaf bool) []*node {
	nodeCount := (len(entries) + maxEntries - 1) / maxEntries
	slabCount := int(math.Ceil(math.Cbrt(float64(nodeCount))))

	sortByCenter(entries, 0)
	slabSize := ceilDiv(len(entries), slabCount)

	nodes := make([]*node, 0, nodeCount)
	for s := 0; s < len(entries); s += slabSize {
		slab := entries[s:min(s+slabSize, len(entries))]
		sortByCenter(slab, 1)
		runSize := ceilDiv(len(slab), slabCount)
		for r := 0; r < len(slab); r += runSize {
			run := slab[r:min(r+runSize, len(slab))]
			sortByCenter(run, 2)
			for k := 0; k < len(run); k += maxEntries {
				chunk := run[k:min(k+maxEntries, len(run))]
				n := &node{leaf: leaf}
				n.entries = append(n.entries, chunk...)
				nodes = append(nodes, n)
			}
		}
	}
	return nodes
}

func sortByCenter(entries []entry, ax int) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].box.center()[ax] < entries[j].box.center()[ax]
	})
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
