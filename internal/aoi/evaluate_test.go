package aoi

import (
	"testing"

	"github.com/rgdonohue/penguin-detection-pipeline/internal/perrors"
)

func TestEvaluateReportsMembership(t *testing.T) {
	areas := []AreaOfInterest{
		{Name: "north", CRS: "EPSG:32611", Polygon: Polygon{Outer: box(0, 0, 10, 10)}},
		{Name: "south", CRS: "EPSG:32611", Polygon: Polygon{Outer: box(20, 20, 30, 30)}},
	}
	dets := []DetectionPoint{
		{ID: "a", X: 5, Y: 5},
		{ID: "b", X: 25, Y: 25},
		{ID: "c", X: 100, Y: 100},
	}
	got, err := Evaluate(dets, areas, "EPSG:32611")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string][]string{"a": {"north"}, "b": {"south"}, "c": nil}
	for _, m := range got {
		if len(m.AOINames) != len(want[m.DetectionID]) {
			t.Errorf("detection %s AOIs = %v, want %v", m.DetectionID, m.AOINames, want[m.DetectionID])
		}
	}
}

func TestEvaluateRejectsCRSMismatch(t *testing.T) {
	areas := []AreaOfInterest{
		{Name: "north", CRS: "EPSG:4326", Polygon: Polygon{Outer: box(0, 0, 10, 10)}},
	}
	dets := []DetectionPoint{{ID: "a", X: 5, Y: 5}}
	_, err := Evaluate(dets, areas, "EPSG:32611")
	if err == nil {
		t.Fatal("expected a CRS mismatch error")
	}
	if !perrors.Is(err, perrors.Crs) {
		t.Errorf("expected a Crs-kind error, got %v", err)
	}
}

func TestDensityPerHectareComputesFromPolygonArea(t *testing.T) {
	a := AreaOfInterest{Name: "block", CRS: "EPSG:32611", Polygon: Polygon{Outer: box(0, 0, 100, 100)}}
	// 100x100m = 1 hectare, so 5 detections -> 5/hectare.
	got, err := DensityPerHectare(5, a, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 5.0 {
		t.Errorf("density = %v, want 5.0", got)
	}
}

func TestEvaluateRejectsNoAOIs(t *testing.T) {
	dets := []DetectionPoint{{ID: "a", X: 5, Y: 5}}
	_, err := Evaluate(dets, nil, "EPSG:32611")
	if err == nil {
		t.Fatal("expected an error for an empty AOI list")
	}
	if !perrors.Is(err, perrors.Validation) {
		t.Errorf("expected a Validation-kind error, got %v", err)
	}
}

func TestEvaluateRejectsDegenerateRing(t *testing.T) {
	areas := []AreaOfInterest{
		{Name: "bad", CRS: "EPSG:32611", Polygon: Polygon{Outer: Ring{X: []float64{0, 1}, Y: []float64{0, 1}}}},
	}
	dets := []DetectionPoint{{ID: "a", X: 5, Y: 5}}
	_, err := Evaluate(dets, areas, "EPSG:32611")
	if err == nil {
		t.Fatal("expected an error for a ring with fewer than 3 points")
	}
	if !perrors.Is(err, perrors.Validation) {
		t.Errorf("expected a Validation-kind error, got %v", err)
	}
}

func TestDensityPerHectareRejectsGeographicCRSByDefault(t *testing.T) {
	a := AreaOfInterest{Name: "block", CRS: "EPSG:4326", Polygon: Polygon{Outer: box(0, 0, 1, 1)}}
	if _, err := DensityPerHectare(5, a, false); err == nil {
		t.Fatal("expected an error for geographic CRS without override")
	}
	if _, err := DensityPerHectare(5, a, true); err != nil {
		t.Errorf("expected override to allow geographic CRS, got %v", err)
	}
}
