// Package spatialindex provides a grid-hash spatial index for radius
// queries over 2D points, shared by the cross-tile de-duplication and
// LiDAR/thermal fusion joiners. It is adapted from the teacher's
// clustering grid-hash (Szudzik pairing over integer cell coordinates)
// rather than a KD-tree, since both downstream consumers only ever need
// fixed-radius neighbor queries, never arbitrary k-NN.
package spatialindex

import "math"

// Point is a 2D coordinate tagged with the caller's own identifier.
type Point struct {
	X, Y float64
	ID   int
}

// RadiusIndex buckets points into cells of side CellSize, so a radius query
// only has to visit the 3x3 (or larger, if radius > CellSize) neighborhood
// of cells around the query point instead of scanning every point.
type RadiusIndex struct {
	CellSize float64
	cells    map[int64][]Point
	points   []Point
}

// NewRadiusIndex builds an index over pts with the given cell size. cellSize
// should be on the order of the largest radius callers intend to query with,
// so most queries touch only a handful of cells.
func NewRadiusIndex(pts []Point, cellSize float64) *RadiusIndex {
	if cellSize <= 0 {
		cellSize = 1
	}
	idx := &RadiusIndex{CellSize: cellSize, cells: make(map[int64][]Point, len(pts)), points: pts}
	for _, p := range pts {
		key := idx.cellKey(p.X, p.Y)
		idx.cells[key] = append(idx.cells[key], p)
	}
	return idx
}

func (idx *RadiusIndex) cellCoord(v float64) int64 {
	return int64(math.Floor(v / idx.CellSize))
}

// szudzik pairs two non-negative integers into one unique integer. Negative
// cell coordinates are shifted into the non-negative range first.
func szudzik(a, b int64) int64 {
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

func (idx *RadiusIndex) cellKey(x, y float64) int64 {
	cx := idx.cellCoord(x)
	cy := idx.cellCoord(y)
	// Shift into non-negative range; cell coordinates for any realistic
	// survey extent stay well within this offset.
	const shift = 1 << 30
	return szudzik(cx+shift, cy+shift)
}

// Query returns every indexed point within radius of (x, y), inclusive.
func (idx *RadiusIndex) Query(x, y, radius float64) []Point {
	cellSpan := int64(math.Ceil(radius / idx.CellSize))
	cx, cy := idx.cellCoord(x), idx.cellCoord(y)
	const shift = 1 << 30
	var out []Point
	r2 := radius * radius
	for dcx := -cellSpan; dcx <= cellSpan; dcx++ {
		for dcy := -cellSpan; dcy <= cellSpan; dcy++ {
			key := szudzik(cx+dcx+shift, cy+dcy+shift)
			for _, p := range idx.cells[key] {
				dx, dy := p.X-x, p.Y-y
				if dx*dx+dy*dy <= r2 {
					out = append(out, p)
				}
			}
		}
	}
	return out
}

// Nearest returns the closest indexed point to (x, y) within maxRadius, and
// whether any point was found.
func (idx *RadiusIndex) Nearest(x, y, maxRadius float64) (Point, bool) {
	candidates := idx.Query(x, y, maxRadius)
	if len(candidates) == 0 {
		return Point{}, false
	}
	best := candidates[0]
	bestDist := math.Hypot(best.X-x, best.Y-y)
	for _, c := range candidates[1:] {
		d := math.Hypot(c.X-x, c.Y-y)
		if d < bestDist || (d == bestDist && c.ID < best.ID) {
			best, bestDist = c, d
		}
	}
	return best, true
}
