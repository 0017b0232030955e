package candidates

import "sort"

// Watershed splits touching blobs within an existing Labels grid using
// h-maxima seeded flood-fill watershed on the HAG surface.
//
// Bug-for-bug history note (kept out of user-facing docs): the original
// implementation seeded each new watershed-split region's label by reading
// labeled.max() once before the splitting loop began, then incrementing
// from that cached value inside the loop — so two blobs split in the same
// pass could be assigned the *same* new label, silently merging them back
// together downstream. This implementation instead threads a single
// monotonically increasing counter through every split, seeded from the
// true maximum label across the whole grid, so newly split regions never
// collide with each other or with any pre-existing label.
func Watershed(labels Labels, hag []float64, hMaxima float64, minSplitAreaCells int, connectivity8 bool) Labels {
	out := Labels{Rows: labels.Rows, Cols: labels.Cols, Values: append([]int(nil), labels.Values...), NumLabels: labels.NumLabels}

	nextLabel := 0
	for _, l := range out.Values {
		if l > nextLabel {
			nextLabel = l
		}
	}
	nextLabel++ // global monotonic counter, never recomputed mid-loop

	byLabel := make(map[int][]int, labels.NumLabels)
	for i, l := range labels.Values {
		if l != 0 {
			byLabel[l] = append(byLabel[l], i)
		}
	}

	origLabels := make([]int, 0, len(byLabel))
	for l := range byLabel {
		origLabels = append(origLabels, l)
	}
	sort.Ints(origLabels)

	for _, l := range origLabels {
		cells := byLabel[l]
		if len(cells) < minSplitAreaCells {
			continue
		}
		seeds := hMaximaSeeds(cells, hag, out.Rows, out.Cols, hMaxima, connectivity8)
		if len(seeds) < 2 {
			continue
		}
		regionLabels := floodFromSeeds(cells, seeds, hag, out.Rows, out.Cols, connectivity8)
		// Assign one fresh global label per discovered seed region, in
		// ascending seed order, so splits are deterministic.
		seedToNewLabel := make(map[int]int, len(seeds))
		for _, s := range seeds {
			seedToNewLabel[s] = nextLabel
			nextLabel++
		}
		for _, cellIdx := range cells {
			seed := regionLabels[cellIdx]
			out.Values[cellIdx] = seedToNewLabel[seed]
		}
	}

	out.NumLabels = nextLabel - 1
	return out
}

// hMaximaSeeds finds local maxima of hag within the given cell set that are
// at least hMaxima above every neighbor within the region, serving as
// watershed markers. Seeds are returned as cell indices, sorted ascending
// for deterministic downstream ordering.
func hMaximaSeeds(cells []int, hag []float64, rows, cols int, hMaxima float64, connectivity8 bool) []int {
	inRegion := make(map[int]bool, len(cells))
	for _, c := range cells {
		inRegion[c] = true
	}
	var seeds []int
	for _, idx := range cells {
		r, c := idx/cols, idx%cols
		isMax := true
		for _, off := range neighborOffsets8(connectivity8) {
			nr, nc := r+off[0], c+off[1]
			if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
				continue
			}
			nIdx := nr*cols + nc
			if !inRegion[nIdx] {
				continue
			}
			if hag[nIdx] > hag[idx]-hMaxima {
				isMax = false
				break
			}
		}
		if isMax {
			seeds = append(seeds, idx)
		}
	}
	sort.Ints(seeds)
	return dedupeAdjacentSeeds(seeds, rows, cols, connectivity8)
}

// dedupeAdjacentSeeds merges seed cells that are themselves mutual neighbors
// into a single representative seed (the lowest index), so a flat plateau of
// equal-height cells doesn't produce one marker per cell.
func dedupeAdjacentSeeds(seeds []int, rows, cols int, connectivity8 bool) []int {
	if len(seeds) <= 1 {
		return seeds
	}
	seedSet := make(map[int]bool, len(seeds))
	for _, s := range seeds {
		seedSet[s] = true
	}
	uf := newUnionFind(maxOf(seeds) + 1)
	for _, s := range seeds {
		r, c := s/cols, s%cols
		for _, off := range neighborOffsets8(connectivity8) {
			nr, nc := r+off[0], c+off[1]
			if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
				continue
			}
			nIdx := nr*cols + nc
			if seedSet[nIdx] {
				uf.union(s, nIdx)
			}
		}
	}
	rootSeen := make(map[int]int)
	var out []int
	for _, s := range seeds {
		root := uf.find(s)
		if _, ok := rootSeen[root]; !ok {
			rootSeen[root] = s
			out = append(out, s)
		}
	}
	sort.Ints(out)
	return out
}

func maxOf(vals []int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func neighborOffsets8(connectivity8 bool) [][2]int {
	offs := [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	if connectivity8 {
		offs = append(offs, [2]int{-1, -1}, [2]int{-1, 1}, [2]int{1, -1}, [2]int{1, 1})
	}
	return offs
}

// floodFromSeeds assigns every cell in `cells` to the seed it is closest to
// by steepest-ascent flood fill on hag (a priority-flood watershed): cells
// are processed in descending HAG order, each pulling its label from an
// already-labeled neighbor when one exists.
func floodFromSeeds(cells []int, seeds []int, hag []float64, rows, cols int, connectivity8 bool) map[int]int {
	region := make(map[int]int, len(cells))
	order := append([]int(nil), cells...)
	sort.Slice(order, func(i, j int) bool {
		if hag[order[i]] != hag[order[j]] {
			return hag[order[i]] > hag[order[j]]
		}
		return order[i] < order[j]
	})

	assigned := make(map[int]int, len(cells))
	for _, s := range seeds {
		assigned[s] = s
	}

	offs := neighborOffsets8(connectivity8)
	changed := true
	for changed {
		changed = false
		for _, idx := range order {
			if _, ok := assigned[idx]; ok {
				continue
			}
			r, c := idx/cols, idx%cols
			var best = -1
			var bestHag float64
			for _, off := range offs {
				nr, nc := r+off[0], c+off[1]
				if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
					continue
				}
				nIdx := nr*cols + nc
				if seedLabel, ok := assigned[nIdx]; ok {
					if best == -1 || hag[nIdx] > bestHag {
						best = seedLabel
						bestHag = hag[nIdx]
					}
				}
			}
			if best != -1 {
				assigned[idx] = best
				changed = true
			}
		}
	}
	// Any cell never reached (disconnected under the chosen connectivity)
	// falls back to the nearest seed by plain index distance.
	for _, idx := range cells {
		if lbl, ok := assigned[idx]; ok {
			region[idx] = lbl
			continue
		}
		best := seeds[0]
		bestDist := cellDist(idx, best, cols)
		for _, s := range seeds[1:] {
			d := cellDist(idx, s, cols)
			if d < bestDist {
				best, bestDist = s, d
			}
		}
		region[idx] = best
	}
	return region
}

func cellDist(a, b, cols int) int {
	ar, ac := a/cols, a%cols
	br, bc := b/cols, b%cols
	dr, dc := ar-br, ac-bc
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}
