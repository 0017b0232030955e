// Package lidarsummary defines the Detection/Tile data model and the
// exact JSON document shapes the pipeline emits (spec.md §3, §6): the
// LiDAR summary, deduped summary, AOI output, and fusion output documents.
package lidarsummary

import (
	"fmt"
	"sort"
)

// Detection is one accepted candidate blob, per spec.md §3.
type Detection struct {
	Tile              string  `json:"tile"`
	ID                string  `json:"id"`
	File              string  `json:"file"`
	X                 float64 `json:"x"`
	Y                 float64 `json:"y"`
	AreaCells         int     `json:"area_cells"`
	AreaM2            float64 `json:"area_m2"`
	HagMean           float64 `json:"hag_mean"`
	HagMax            float64 `json:"hag_max"`
	Circularity       float64 `json:"circularity"`
	Solidity          float64 `json:"solidity"`
	DedupeClusterID   string  `json:"dedupe_cluster_id,omitempty"`
	DedupeClusterSize int     `json:"dedupe_cluster_size,omitempty"`
}

// Tile is one named input's identity and geometry (spec.md §3).
type Tile struct {
	Stem   string
	CRS    string
	MinX, MinY, MaxX, MaxY float64
	Count  int64
}

// RawBlob is the minimal shape AssignIDs needs from an extracted candidate,
// decoupling lidarsummary from the candidates package's internal Blob type.
type RawBlob struct {
	X, Y        float64
	AreaCells   int
	AreaM2      float64
	HagMean     float64
	HagMax      float64
	Circularity float64
	Solidity    float64
}

// AssignIDs sorts blobs by (x, y, area_cells) per invariant I1 and assigns
// stable "{stem}:{NNNNN}" 1-based IDs, building the final Detection list.
func AssignIDs(stem, file string, blobs []RawBlob) []Detection {
	sorted := append([]RawBlob(nil), blobs...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].AreaCells < sorted[j].AreaCells
	})
	out := make([]Detection, len(sorted))
	for i, b := range sorted {
		out[i] = Detection{
			Tile:        stem,
			ID:          fmt.Sprintf("%s:%05d", stem, i+1),
			File:        file,
			X:           b.X,
			Y:           b.Y,
			AreaCells:   b.AreaCells,
			AreaM2:      b.AreaM2,
			HagMean:     b.HagMean,
			HagMax:      b.HagMax,
			Circularity: b.Circularity,
			Solidity:    b.Solidity,
		}
	}
	return out
}
