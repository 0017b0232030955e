package pointsource

import (
	"context"
	"testing"
)

func TestSliceHeaderEmpty(t *testing.T) {
	s := Slice{}
	h, err := s.Header(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Count != 0 {
		t.Errorf("count = %d, want 0", h.Count)
	}
}

func TestSliceHeaderBounds(t *testing.T) {
	s := Slice{X: []float64{1, 3, 2}, Y: []float64{5, 1, 9}, Z: []float64{0, 2, -1}}
	h, err := s.Header(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Bounds.MinX != 1 || h.Bounds.MaxX != 3 {
		t.Errorf("x bounds = [%v,%v], want [1,3]", h.Bounds.MinX, h.Bounds.MaxX)
	}
	if h.Bounds.MinY != 1 || h.Bounds.MaxY != 9 {
		t.Errorf("y bounds = [%v,%v], want [1,9]", h.Bounds.MinY, h.Bounds.MaxY)
	}
	if h.Count != 3 {
		t.Errorf("count = %d, want 3", h.Count)
	}
}

func TestSliceStreamChunking(t *testing.T) {
	s := Slice{X: []float64{1, 2, 3, 4, 5}, Y: []float64{1, 2, 3, 4, 5}, Z: []float64{1, 2, 3, 4, 5}}
	var total int
	var chunks int
	for c := range s.Stream(context.Background(), 2) {
		chunks++
		total += len(c.X)
	}
	if total != 5 {
		t.Errorf("total points streamed = %d, want 5", total)
	}
	if chunks != 3 {
		t.Errorf("chunks = %d, want 3 (2,2,1)", chunks)
	}
}

func TestSliceStreamRespectsCancellation(t *testing.T) {
	s := Slice{X: make([]float64, 100), Y: make([]float64, 100), Z: make([]float64, 100)}
	ctx, cancel := context.WithCancel(context.Background())
	seen := 0
	for range s.Stream(ctx, 1) {
		seen++
		if seen == 5 {
			cancel()
		}
	}
	if seen > 100 {
		t.Errorf("saw %d points, more than exist", seen)
	}
}

func TestPreferNonSamplePrefersFullResolution(t *testing.T) {
	files := []File{
		{Path: "tile_001_sample.las", IsSample: true, SizeBytes: 10},
		{Path: "tile_001.las", IsSample: false, SizeBytes: 1000},
	}
	got, ok := PreferNonSample(files)
	if !ok {
		t.Fatal("expected a file to be chosen")
	}
	if got.Path != "tile_001.las" {
		t.Errorf("chose %q, want the non-sample file", got.Path)
	}
}

func TestPreferNonSampleFallsBackToSmallestSample(t *testing.T) {
	files := []File{
		{Path: "a_sample.las", IsSample: true, SizeBytes: 500},
		{Path: "b_sample.las", IsSample: true, SizeBytes: 100},
	}
	got, ok := PreferNonSample(files)
	if !ok {
		t.Fatal("expected a file to be chosen")
	}
	if got.Path != "b_sample.las" {
		t.Errorf("chose %q, want the smaller sample file", got.Path)
	}
}

func TestPreferNonSampleEmpty(t *testing.T) {
	if _, ok := PreferNonSample(nil); ok {
		t.Error("expected ok=false for empty file list")
	}
}
