// Package config loads and validates the "recognized options" enumerated in
// the detection core's external interface contract. It follows the same
// pointer-field-with-Get-defaults idiom as the teacher's tuning config, so a
// JSON override file can omit any subset of fields and still produce a
// fully-resolved, validated parameter set.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rgdonohue/penguin-detection-pipeline/internal/perrors"
)

// GroundMethod selects the ground-DEM estimator.
type GroundMethod string

// TopMethod selects the HAG top-surface estimator.
type TopMethod string

const (
	GroundMin GroundMethod = "min"
	GroundP05 GroundMethod = "p05"

	TopMax TopMethod = "max"
	TopP95 TopMethod = "p95"
)

// Connectivity selects 4- or 8-connected labeling.
type Connectivity int

const (
	Connectivity4 Connectivity = 1
	Connectivity8 Connectivity = 2
)

// Overrides mirrors the JSON shape of a partial tuning file: every field is
// optional so a caller can override only what it needs to.
type Overrides struct {
	CellRes       *float64 `json:"cell_res,omitempty"`
	HagMin        *float64 `json:"hag_min,omitempty"`
	HagMax        *float64 `json:"hag_max,omitempty"`
	GroundMethod  *string  `json:"ground_method,omitempty"`
	TopMethod     *string  `json:"top_method,omitempty"`
	TopZscoreCap  *float64 `json:"top_zscore_cap,omitempty"`
	TopQuantileLR *float64 `json:"top_quantile_lr,omitempty"`
	Connectivity  *int     `json:"connectivity,omitempty"`
	MinAreaCells  *int     `json:"min_area_cells,omitempty"`
	MaxAreaCells  *int     `json:"max_area_cells,omitempty"`
	RefineGridPct *float64 `json:"refine_grid_pct,omitempty"`
	RefineSize    *int     `json:"refine_size,omitempty"`
	SeRadiusM     *float64 `json:"se_radius_m,omitempty"`
	CircularityMn *float64 `json:"circularity_min,omitempty"`
	SolidityMin   *float64 `json:"solidity_min,omitempty"`
	Watershed     *bool    `json:"watershed,omitempty"`
	HMaxima       *float64 `json:"h_maxima,omitempty"`
	MinSplitArea  *int     `json:"min_split_area_cells,omitempty"`
	BorderTrimPx  *int     `json:"border_trim_px,omitempty"`
	SlopeMaxDeg   *float64 `json:"slope_max_deg,omitempty"`
	DedupeRadiusM *float64 `json:"dedupe_radius_m,omitempty"`
	MaxGridMB     *float64 `json:"max_grid_mb,omitempty"`
	SkipOversized *bool    `json:"skip_oversized_tiles,omitempty"`
}

// Params is the fully-resolved, validated option set for one LiDAR stage
// invocation, matching spec.md §6's "Recognized options" enumeration.
type Params struct {
	CellRes       float64
	HagMin        float64
	HagMax        float64
	GroundMethod  GroundMethod
	TopMethod     TopMethod
	TopZscoreCap  *float64 // only meaningful with TopMethod == TopMax
	TopQuantileLR float64
	Connectivity  Connectivity
	MinAreaCells  int
	MaxAreaCells  int
	RefineGridPct *float64 // percentile 0..100; nil disables refinement
	RefineSize    int
	SeRadiusM     float64
	CircularityMin float64
	SolidityMin    float64
	Watershed      bool
	HMaxima        float64
	MinSplitAreaCells int
	BorderTrimPx      int
	SlopeMaxDeg       *float64
	DedupeRadiusM     *float64
	MaxGridMB         float64
	SkipOversizedTiles bool
}

// Default returns the teacher-documented defaults for a defensible (fully
// deterministic) run: ground_method=min, top_method=max.
func Default() Params {
	return Params{
		CellRes:            0.25,
		HagMin:             0.2,
		HagMax:             0.6,
		GroundMethod:       GroundMin,
		TopMethod:          TopMax,
		TopQuantileLR:      0.05,
		Connectivity:       Connectivity8,
		MinAreaCells:       2,
		MaxAreaCells:       80,
		RefineSize:         3,
		SeRadiusM:          0.15,
		CircularityMin:     0.2,
		SolidityMin:        0.7,
		Watershed:          false,
		HMaxima:            0.05,
		MinSplitAreaCells:  12,
		BorderTrimPx:       0,
		MaxGridMB:          512.0,
		SkipOversizedTiles: false,
	}
}

// Apply merges non-nil override fields onto a base Params (typically
// Default()) and validates the result.
func (o Overrides) Apply(base Params) (Params, error) {
	p := base
	if o.CellRes != nil {
		p.CellRes = *o.CellRes
	}
	if o.HagMin != nil {
		p.HagMin = *o.HagMin
	}
	if o.HagMax != nil {
		p.HagMax = *o.HagMax
	}
	if o.GroundMethod != nil {
		p.GroundMethod = GroundMethod(*o.GroundMethod)
	}
	if o.TopMethod != nil {
		p.TopMethod = TopMethod(*o.TopMethod)
	}
	if o.TopZscoreCap != nil {
		v := *o.TopZscoreCap
		p.TopZscoreCap = &v
	}
	if o.TopQuantileLR != nil {
		p.TopQuantileLR = *o.TopQuantileLR
	}
	if o.Connectivity != nil {
		p.Connectivity = Connectivity(*o.Connectivity)
	}
	if o.MinAreaCells != nil {
		p.MinAreaCells = *o.MinAreaCells
	}
	if o.MaxAreaCells != nil {
		p.MaxAreaCells = *o.MaxAreaCells
	}
	if o.RefineGridPct != nil {
		v := *o.RefineGridPct
		p.RefineGridPct = &v
	}
	if o.RefineSize != nil {
		p.RefineSize = *o.RefineSize
	}
	if o.SeRadiusM != nil {
		p.SeRadiusM = *o.SeRadiusM
	}
	if o.CircularityMn != nil {
		p.CircularityMin = *o.CircularityMn
	}
	if o.SolidityMin != nil {
		p.SolidityMin = *o.SolidityMin
	}
	if o.Watershed != nil {
		p.Watershed = *o.Watershed
	}
	if o.HMaxima != nil {
		p.HMaxima = *o.HMaxima
	}
	if o.MinSplitArea != nil {
		p.MinSplitAreaCells = *o.MinSplitArea
	}
	if o.BorderTrimPx != nil {
		p.BorderTrimPx = *o.BorderTrimPx
	}
	if o.SlopeMaxDeg != nil {
		v := *o.SlopeMaxDeg
		p.SlopeMaxDeg = &v
	}
	if o.DedupeRadiusM != nil {
		v := *o.DedupeRadiusM
		p.DedupeRadiusM = &v
	}
	if o.MaxGridMB != nil {
		p.MaxGridMB = *o.MaxGridMB
	}
	if o.SkipOversized != nil {
		p.SkipOversizedTiles = *o.SkipOversized
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate enforces the §4.5 InvalidThresholds failure mode plus basic
// sanity on every numeric field.
func (p Params) Validate() error {
	if p.CellRes <= 0 {
		return perrors.Newf(perrors.Validation, "cell_res must be positive, got %f", p.CellRes)
	}
	if p.HagMin >= p.HagMax {
		return perrors.Newf(perrors.Validation, "hag_min (%f) must be less than hag_max (%f)", p.HagMin, p.HagMax)
	}
	if p.MinAreaCells >= p.MaxAreaCells {
		return perrors.Newf(perrors.Validation, "min_area_cells (%d) must be less than max_area_cells (%d)", p.MinAreaCells, p.MaxAreaCells)
	}
	if p.GroundMethod != GroundMin && p.GroundMethod != GroundP05 {
		return perrors.Newf(perrors.Validation, "unknown ground_method %q", p.GroundMethod)
	}
	if p.TopMethod != TopMax && p.TopMethod != TopP95 {
		return perrors.Newf(perrors.Validation, "unknown top_method %q", p.TopMethod)
	}
	if p.Connectivity != Connectivity4 && p.Connectivity != Connectivity8 {
		return perrors.Newf(perrors.Validation, "connectivity must be 1 or 2, got %d", p.Connectivity)
	}
	if p.RefineGridPct != nil && (*p.RefineGridPct <= 0 || *p.RefineGridPct >= 100) {
		return perrors.Newf(perrors.Validation, "refine_grid_pct must be in (0,100), got %f", *p.RefineGridPct)
	}
	if p.MaxGridMB <= 0 {
		return perrors.Newf(perrors.Validation, "max_grid_mb must be positive, got %f", p.MaxGridMB)
	}
	return nil
}

// LoadOverrides reads a JSON overrides file, enforcing the same
// .json-extension and max-file-size guard as the teacher's LoadTuningConfig.
func LoadOverrides(path string) (Overrides, error) {
	clean := filepath.Clean(path)
	if ext := filepath.Ext(clean); ext != ".json" {
		return Overrides{}, perrors.Newf(perrors.Input, "config file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(clean)
	if err != nil {
		return Overrides{}, perrors.Wrap(perrors.Input, err, "failed to stat config file %q", clean)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return Overrides{}, perrors.Newf(perrors.Input, "config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return Overrides{}, perrors.Wrap(perrors.Input, err, "failed to read config file %q", clean)
	}
	var o Overrides
	if err := json.Unmarshal(data, &o); err != nil {
		return Overrides{}, perrors.Wrap(perrors.Input, err, "failed to parse config JSON %q", clean)
	}
	return o, nil
}

// AsMap renders the fully-resolved params into the exact "params" block the
// spec requires every summary JSON to carry — only options actually used
// (never the raw pointer-shaped override struct).
func (p Params) AsMap() map[string]interface{} {
	m := map[string]interface{}{
		"cell_res":         p.CellRes,
		"hag_min":          p.HagMin,
		"hag_max":          p.HagMax,
		"ground_method":    string(p.GroundMethod),
		"top_method":       string(p.TopMethod),
		"top_quantile_lr":  p.TopQuantileLR,
		"connectivity":     int(p.Connectivity),
		"min_area_cells":   p.MinAreaCells,
		"max_area_cells":   p.MaxAreaCells,
		"refine_size":      p.RefineSize,
		"se_radius_m":      p.SeRadiusM,
		"circularity_min":  p.CircularityMin,
		"solidity_min":     p.SolidityMin,
		"watershed":        p.Watershed,
		"h_maxima":         p.HMaxima,
		"min_split_area_cells": p.MinSplitAreaCells,
		"border_trim_px":   p.BorderTrimPx,
		"max_grid_mb":      p.MaxGridMB,
		"skip_oversized_tiles": p.SkipOversizedTiles,
	}
	if p.TopZscoreCap != nil {
		m["top_zscore_cap"] = *p.TopZscoreCap
	}
	if p.RefineGridPct != nil {
		m["refine_grid_pct"] = *p.RefineGridPct
	}
	if p.SlopeMaxDeg != nil {
		m["slope_max_deg"] = *p.SlopeMaxDeg
	}
	if p.DedupeRadiusM != nil {
		m["dedupe_radius_m"] = *p.DedupeRadiusM
	}
	return m
}
