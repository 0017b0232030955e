// Package dedupe merges near-duplicate detections that straddle adjacent
// tile boundaries, per spec.md §4.6: any two detections within
// dedupe_radius_m of each other are unioned into one cluster, and each
// cluster reports a single representative detection.
package dedupe

import (
	"sort"

	"github.com/rgdonohue/penguin-detection-pipeline/internal/spatialindex"
)

// Input is the minimal shape dedupe needs from a detection: a stable
// identity plus the geometry used for proximity and representative
// selection.
type Input struct {
	File string
	ID   string
	X, Y float64
}

// Cluster is one merged group of near-duplicate detections.
type Cluster struct {
	RepresentativeID string
	MemberIDs        []string
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// union merges by min-index, so the root of any set is always the lowest
// original index that ever joined it — independent of union call order.
func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}

// Dedupe clusters detections whose centers lie within radiusM of each
// other (transitively: A-B and B-C close merges A, B, and C into one
// cluster even if A and C are farther apart than radiusM). The
// representative of each cluster is chosen by the lexicographic minimum of
// (file, id, x, y), not by union-find root, so representative selection is
// independent of the arbitrary root bookkeeping and of tile processing
// order.
func Dedupe(inputs []Input, radiusM float64) []Cluster {
	if len(inputs) == 0 {
		return nil
	}
	pts := make([]spatialindex.Point, len(inputs))
	for i, in := range inputs {
		pts[i] = spatialindex.Point{X: in.X, Y: in.Y, ID: i}
	}
	cellSize := radiusM
	if cellSize <= 0 {
		cellSize = 1
	}
	idx := spatialindex.NewRadiusIndex(pts, cellSize)

	uf := newUnionFind(len(inputs))
	for i, in := range inputs {
		for _, nb := range idx.Query(in.X, in.Y, radiusM) {
			if nb.ID != i {
				uf.union(i, nb.ID)
			}
		}
	}

	groups := make(map[int][]int)
	for i := range inputs {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}

	roots := make([]int, 0, len(groups))
	for r := range groups {
		roots = append(roots, r)
	}
	sort.Ints(roots)

	out := make([]Cluster, 0, len(groups))
	for _, r := range roots {
		members := append([]int(nil), groups[r]...)
		sort.Slice(members, func(a, b int) bool {
			ia, ib := inputs[members[a]], inputs[members[b]]
			if ia.File != ib.File {
				return ia.File < ib.File
			}
			if ia.ID != ib.ID {
				return ia.ID < ib.ID
			}
			if ia.X != ib.X {
				return ia.X < ib.X
			}
			return ia.Y < ib.Y
		})
		memberIDs := make([]string, len(members))
		for i, m := range members {
			memberIDs[i] = inputs[m].ID
		}
		out = append(out, Cluster{RepresentativeID: memberIDs[0], MemberIDs: memberIDs})
	}
	return out
}
