package pointsource

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rgdonohue/penguin-detection-pipeline/internal/geogrid"
)

func TestBinaryStreamRoundTripsHeaderAndPoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tile.bin")
	bounds := geogrid.Bounds{MinX: 0, MinY: 0, MinZ: -1, MaxX: 10, MaxY: 10, MaxZ: 5}
	x := []float64{1, 2, 3}
	y := []float64{4, 5, 6}
	z := []float64{0.1, 0.2, 0.3}
	if err := WriteBinaryStream(path, bounds, x, y, z); err != nil {
		t.Fatalf("WriteBinaryStream: %v", err)
	}

	bs := NewBinaryStream(path)
	h, err := bs.Header(context.Background())
	if err != nil {
		t.Fatalf("Header: %v", err)
	}
	if h.Bounds != bounds {
		t.Errorf("bounds = %+v, want %+v", h.Bounds, bounds)
	}
	if h.Count != 3 {
		t.Errorf("count = %d, want 3", h.Count)
	}

	var gotX, gotY, gotZ []float64
	for chunk := range bs.Stream(context.Background(), 2) {
		gotX = append(gotX, chunk.X...)
		gotY = append(gotY, chunk.Y...)
		gotZ = append(gotZ, chunk.Z...)
	}
	if len(gotX) != 3 || gotX[1] != 2 || gotY[2] != 6 || gotZ[0] != 0.1 {
		t.Errorf("round-tripped points = x:%v y:%v z:%v", gotX, gotY, gotZ)
	}
}

func TestBinaryStreamHeaderMissingFile(t *testing.T) {
	bs := NewBinaryStream(filepath.Join(t.TempDir(), "does-not-exist.bin"))
	if _, err := bs.Header(context.Background()); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
