package demhag

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/rgdonohue/penguin-detection-pipeline/internal/config"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/geogrid"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/monitoring"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/pointsource"
)

// HAG is the height-above-ground surface: top surface minus ground DEM,
// plus the slope (degrees) of the ground DEM used for slope gating in the
// candidates package.
type HAG struct {
	Grid   geogrid.Grid
	Values []float64 // top - ground, >=0 after outlier capping
	SlopeDeg []float64
}

// BuildHAG runs the second streaming pass (spec.md §4.4): per-cell maximum Z
// (default) or an approximate running 95th percentile, then subtracts the
// ground DEM built in the first pass. Cells that received no points in this
// pass fall back to the ground elevation itself (HAG=0), matching the
// original's np.where(isnan, 0, top-ground).
func BuildHAG(ctx context.Context, src pointsource.Source, ground GroundDEM, chunkSize int, method config.TopMethod, lr float64, zscoreCap *float64) (HAG, error) {
	grid := ground.Grid
	n := grid.NumCells()
	top := make([]float64, n)
	for i := range top {
		top[i] = math.Inf(-1)
	}

	var tracker *geogrid.QuantileTracker
	if method == config.TopP95 {
		tracker = geogrid.NewQuantileTracker(0.95, lr, n)
	}

	seen := make([]bool, n)

	for chunk := range src.Stream(ctx, chunkSize) {
		flat, kept := grid.BinChunk(chunk.X, chunk.Y)
		if len(flat) == 0 {
			continue
		}
		zVals := make([]float64, len(flat))
		for i, srcIdx := range kept {
			zVals[i] = chunk.Z[srcIdx]
		}
		for i, idx := range flat {
			seen[idx] = true
			if zVals[i] > top[idx] {
				top[idx] = zVals[i]
			}
		}
		if tracker != nil {
			if err := tracker.Update(flat, zVals); err != nil {
				return HAG{}, err
			}
		}
	}

	monitoring.Logf("demhag: hag pass complete grid=%dx%d method=%s", grid.Rows, grid.Cols, method)

	hag := make([]float64, n)
	for i := 0; i < n; i++ {
		if !seen[i] {
			hag[i] = 0
			continue
		}
		topVal := top[i]
		if tracker != nil && tracker.Has(i) {
			topVal = tracker.Value(i)
		}
		h := topVal - ground.Values[i]
		if h < 0 {
			h = 0
		}
		hag[i] = h
	}

	if zscoreCap != nil && method == config.TopMax {
		capOutliers(hag, *zscoreCap)
	}

	slope := computeSlopeDeg(ground.Values, grid.Rows, grid.Cols, grid.Res)

	return HAG{Grid: grid, Values: hag, SlopeDeg: slope}, nil
}

// capOutliers clips HAG values more than `cap` standard deviations above the
// mean, using gonum's MeanStdDev over every cell of the grid, including
// cells that received no points (HAG 0). Mirrors the original's z-score capping pass on the HAG
// grid, which guards against spurious single-point spikes dominating later
// morphological filtering.
func capOutliers(hag []float64, cap float64) {
	if len(hag) == 0 {
		return
	}
	mean, std := stat.MeanStdDev(hag, nil)
	if std == 0 {
		return
	}
	limit := mean + cap*std
	for i, v := range hag {
		if v > limit {
			hag[i] = limit
		}
	}
}

// computeSlopeDeg estimates ground slope at each cell via a central-difference
// gradient (Sobel-free, matching the original's np.gradient based approach),
// converting the resulting rise/run ratio to degrees.
func computeSlopeDeg(ground []float64, rows, cols int, res float64) []float64 {
	slope := make([]float64, rows*cols)
	at := func(r, c int) float64 { return ground[r*cols+c] }
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var dzdx, dzdy float64
			switch {
			case cols == 1:
				dzdx = 0
			case c == 0:
				dzdx = (at(r, c+1) - at(r, c)) / res
			case c == cols-1:
				dzdx = (at(r, c) - at(r, c-1)) / res
			default:
				dzdx = (at(r, c+1) - at(r, c-1)) / (2 * res)
			}
			switch {
			case rows == 1:
				dzdy = 0
			case r == 0:
				dzdy = (at(r+1, c) - at(r, c)) / res
			case r == rows-1:
				dzdy = (at(r, c) - at(r-1, c)) / res
			default:
				dzdy = (at(r+1, c) - at(r-1, c)) / (2 * res)
			}
			gradMag := math.Sqrt(dzdx*dzdx + dzdy*dzdy)
			slope[r*cols+c] = math.Atan(gradMag) * 180 / math.Pi
		}
	}
	return slope
}
