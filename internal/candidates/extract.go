package candidates

import (
	"github.com/rgdonohue/penguin-detection-pipeline/internal/config"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/monitoring"
)

// Candidate is one accepted blob, carrying the geometry and summary stats
// needed to build a Detection in the lidarsummary package.
type Candidate struct {
	Blob
	Circularity float64
	Solidity    float64
	MeanHAG     float64
	MaxHAG      float64
	MeanSlopeDeg float64
}

// Extract runs the full §4.5 pipeline against one tile's HAG/slope surfaces:
// optional percentile refinement, thresholding, morphological open/close,
// connected-component labeling, optional watershed splitting, and shape/area
// filtering. Rejected blobs are dropped silently; accepted ones are returned
// in ascending final-label order for determinism.
func Extract(hag []float64, slopeDeg []float64, rows, cols int, p config.Params) []Candidate {
	thresholdMask := Threshold(hag, rows, cols, p.HagMin, p.HagMax)
	mask := thresholdMask
	if p.RefineGridPct != nil {
		keep := RefineGrid(hag, rows, cols, p.RefineSize, *p.RefineGridPct)
		mask = AndMask(thresholdMask, keep)
	}

	se := DiskSE(seRadiusCells(p.SeRadiusM, p.CellRes))
	mask = Open(mask, se)
	mask = Close(mask, se)
	// Morphology can grow the mask beyond the HAG band (dilation during
	// closing); re-AND with the threshold mask so accepted pixels always
	// satisfy [hag_min, hag_max], per spec.md §4.5 step 3.
	mask = AndMask(mask, thresholdMask.Bits)

	connectivity8 := p.Connectivity == config.Connectivity8
	labels := Label(mask, connectivity8)

	if p.Watershed {
		labels = Watershed(labels, hag, p.HMaxima, p.MinSplitAreaCells, connectivity8)
	}

	blobs := Blobs(labels)
	monitoring.Logf("candidates: extracted %d raw blobs before shape filtering", len(blobs))

	var out []Candidate
	for _, b := range blobs {
		if b.AreaCells < p.MinAreaCells || b.AreaCells > p.MaxAreaCells {
			continue
		}
		if TouchesBorder(b, rows, cols, p.BorderTrimPx) {
			continue
		}
		if BBoxFillRatio(b) < 0.10 {
			continue
		}
		circ := Circularity(b, cols, rows, p.CellRes)
		if circ < p.CircularityMin {
			continue
		}
		sol := Solidity(b)
		if sol < p.SolidityMin {
			continue
		}
		if p.SlopeMaxDeg != nil && MeanSlopeDeg(b, slopeDeg) > *p.SlopeMaxDeg {
			continue
		}
		meanHag, maxHag := hagStats(b, hag)
		out = append(out, Candidate{
			Blob:         b,
			Circularity:  circ,
			Solidity:     sol,
			MeanHAG:      meanHag,
			MaxHAG:       maxHag,
			MeanSlopeDeg: MeanSlopeDeg(b, slopeDeg),
		})
	}

	monitoring.Logf("candidates: %d candidates survived shape/area filtering", len(out))
	return out
}

func hagStats(b Blob, hag []float64) (mean, max float64) {
	if len(b.Cells) == 0 {
		return 0, 0
	}
	max = hag[b.Cells[0]]
	var sum float64
	for _, idx := range b.Cells {
		v := hag[idx]
		sum += v
		if v > max {
			max = v
		}
	}
	return sum / float64(len(b.Cells)), max
}
