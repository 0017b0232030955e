// Package geogrid provides the regular XY raster grid shared by the ground
// DEM and HAG passes: shape computation from bounds + resolution, point→cell
// binning, and the grid-memory budget check.
package geogrid

import (
	"math"

	"github.com/rgdonohue/penguin-detection-pipeline/internal/perrors"
)

// Bounds is an axis-aligned XY (and optionally Z) extent.
type Bounds struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// Degenerate reports whether the bounds fail to enclose any area on either
// axis — the trigger condition for the §4.1 streaming prepass.
func (b Bounds) Degenerate() bool {
	return b.MaxX <= b.MinX || b.MaxY <= b.MinY
}

// Grid is the per-tile regular raster: origin, resolution, and shape.
// Invariant (spec.md §3): Rows = ceil((MaxY-MinY)/Res)+1, Cols likewise.
type Grid struct {
	MinX, MinY float64
	Res        float64
	Rows, Cols int // Rows = ny, Cols = nx
}

// NewGrid computes the grid shape from bounds and cell resolution per the
// invariant in spec.md §3.
func NewGrid(b Bounds, res float64) (Grid, error) {
	if res <= 0 {
		return Grid{}, perrors.Newf(perrors.Validation, "cell_res must be positive, got %f", res)
	}
	if b.MaxX < b.MinX || b.MaxY < b.MinY {
		return Grid{}, perrors.Newf(perrors.Validation, "invalid bounds: max < min")
	}
	cols := int(math.Ceil((b.MaxX-b.MinX)/res)) + 1
	rows := int(math.Ceil((b.MaxY-b.MinY)/res)) + 1
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return Grid{MinX: b.MinX, MinY: b.MinY, Res: res, Rows: rows, Cols: cols}, nil
}

// NumCells returns Rows*Cols.
func (g Grid) NumCells() int { return g.Rows * g.Cols }

// CellOf returns the (row, col) a point falls into and whether it lies
// within the grid.
func (g Grid) CellOf(x, y float64) (row, col int, ok bool) {
	col = int(math.Floor((x - g.MinX) / g.Res))
	row = int(math.Floor((y - g.MinY) / g.Res))
	if col < 0 || row < 0 || col >= g.Cols || row >= g.Rows {
		return 0, 0, false
	}
	return row, col, true
}

// Index returns the flat row-major index for a (row, col) pair.
func (g Grid) Index(row, col int) int { return row*g.Cols + col }

// CellCenter returns the (x, y) center of cell (row, col), per invariant I2
// ("x,y are always the cell-center of the region centroid").
func (g Grid) CellCenter(row int, col float64) (x, y float64) {
	x = g.MinX + (col+0.5)*g.Res
	y = g.MinY + (float64(row)+0.5)*g.Res
	return x, y
}

// CellCenterXY is the general two-axis form used when both the row and
// column are fractional (sub-pixel centroid).
func (g Grid) CellCenterXY(row, col float64) (x, y float64) {
	x = g.MinX + (col+0.5)*g.Res
	y = g.MinY + (row+0.5)*g.Res
	return x, y
}

// BinChunk bins aligned x/y slices into flat cell indices, discarding points
// that fall outside the grid. Mirrors the `_bin_indices` helper in the
// original Python implementation.
func (g Grid) BinChunk(x, y []float64) (flat []int, kept []int) {
	flat = make([]int, 0, len(x))
	kept = make([]int, 0, len(x))
	for i := range x {
		row, col, ok := g.CellOf(x[i], y[i])
		if !ok {
			continue
		}
		flat = append(flat, g.Index(row, col))
		kept = append(kept, i)
	}
	return flat, kept
}

// EstimateBytes implements the §5 grid-memory budget check: estimated bytes
// = ny·nx · per-cell overhead, where per-cell overhead sums the contribution
// of every surface the caller intends to allocate. activeQuantileSurfaces
// counts how many online quantile trackers (ground p05, top p95) will be
// live simultaneously.
func (g Grid) EstimateBytes(activeQuantileSurfaces int) int64 {
	const (
		demBytes        = 4 // float32 DEM
		hagBytes        = 4 // float32 HAG
		quantileBytes   = 4 // float32 per active quantile surface
		maskBytes       = 1 // bool mask
		labelBytes      = 8 // int64-sized labels + scratch headroom
		scratchOverhead = 8 // CCL union-find scratch, watershed queues, etc.
	)
	perCell := int64(demBytes + hagBytes + quantileBytes*activeQuantileSurfaces + maskBytes + labelBytes + scratchOverhead)
	return perCell * int64(g.NumCells())
}

// CheckBudget returns a ResourceError (perrors.Resource) if the estimated
// grid memory exceeds maxMB.
func (g Grid) CheckBudget(activeQuantileSurfaces int, maxMB float64) error {
	estimated := g.EstimateBytes(activeQuantileSurfaces)
	budget := int64(maxMB * 1024 * 1024)
	if estimated > budget {
		return perrors.Newf(perrors.Resource, "grid too large: estimated %d bytes exceeds budget %d bytes (%dx%d cells)", estimated, budget, g.Rows, g.Cols)
	}
	return nil
}
