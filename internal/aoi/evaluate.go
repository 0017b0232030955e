package aoi

import (
	"sort"

	"github.com/rgdonohue/penguin-detection-pipeline/internal/monitoring"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/perrors"
)

// AreaOfInterest is one named area-of-interest polygon plus its declared CRS. Props
// is the arbitrary attribute bag carried through from the AOI source
// document and preserved unchanged in the evaluation result.
type AreaOfInterest struct {
	Name    string
	CRS     string
	Polygon Polygon
	Props   map[string]interface{}
}

// DetectionPoint is the minimal shape a detection needs for AOI evaluation.
type DetectionPoint struct {
	ID   string
	X, Y float64
}

// Membership records which AOIs (by name) a detection falls inside.
type Membership struct {
	DetectionID string
	AOINames    []string
}

// Evaluate reports, for every detection, which AOIs it falls inside. All
// AOIs must share the detections' CRS (detectionCRS); a mismatched AOI CRS
// is a hard perrors.Crs failure rather than a silent skip, per spec.md's
// CRS-mismatch failure mode.
func Evaluate(detections []DetectionPoint, areas []AreaOfInterest, detectionCRS string) ([]Membership, error) {
	if len(areas) == 0 {
		return nil, perrors.New(perrors.Validation, "no AOIs provided")
	}
	canonDetCRS, err := CanonicalCRS(detectionCRS)
	if err != nil {
		return nil, err
	}
	for _, a := range areas {
		canonAOICRS, err := CanonicalCRS(a.CRS)
		if err != nil {
			return nil, perrors.Wrap(perrors.Crs, err, "AOI %q has invalid CRS", a.Name)
		}
		if canonAOICRS != canonDetCRS {
			return nil, perrors.Newf(perrors.Crs, "AOI %q CRS %s does not match detection CRS %s", a.Name, canonAOICRS, canonDetCRS)
		}
		if len(a.Polygon.Outer.X) < 3 {
			return nil, perrors.Newf(perrors.Validation, "AOI %q outer ring has fewer than 3 points", a.Name)
		}
		for _, h := range a.Polygon.Holes {
			if len(h.X) < 3 {
				return nil, perrors.Newf(perrors.Validation, "AOI %q hole ring has fewer than 3 points", a.Name)
			}
		}
	}

	out := make([]Membership, 0, len(detections))
	for _, d := range detections {
		var names []string
		for _, a := range areas {
			if a.Polygon.ContainsPoint(d.X, d.Y) {
				names = append(names, a.Name)
			}
		}
		sort.Strings(names)
		out = append(out, Membership{DetectionID: d.ID, AOINames: names})
	}
	monitoring.Logf("aoi: evaluated %d detections against %d areas of interest", len(detections), len(areas))
	return out, nil
}

// DensityPerHectare computes detections-per-hectare for one AOI, refusing
// to compute on a geographic CRS unless allowGeographic is set, since raw
// coordinate-unit area there is not square meters (spec.md's geographic-CRS
// guard).
func DensityPerHectare(count int, a AreaOfInterest, allowGeographic bool) (float64, error) {
	canon, err := CanonicalCRS(a.CRS)
	if err != nil {
		return 0, err
	}
	if IsGeographic(canon) && !allowGeographic {
		return 0, perrors.Newf(perrors.Crs, "AOI %q uses a geographic CRS (%s); density requires an explicit override", a.Name, canon)
	}
	areaM2 := a.Polygon.Area()
	if areaM2 <= 0 {
		return 0, perrors.Newf(perrors.Validation, "AOI %q has non-positive area", a.Name)
	}
	hectares := areaM2 / 10000
	return float64(count) / hectares, nil
}
