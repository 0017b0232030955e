// Package pointsource provides the streaming point-cloud abstraction used by
// the ground DEM and HAG passes (spec.md §4.1): a Source yields Chunks of
// aligned X/Y/Z (and optional intensity/classification) slices without ever
// materializing the whole tile in memory.
package pointsource

import (
	"context"
	"sort"

	"github.com/rgdonohue/penguin-detection-pipeline/internal/geogrid"
)

// Chunk is one batch of points read from a Source. All slices share the same
// length and index alignment.
type Chunk struct {
	X, Y, Z []float64
}

// Header carries the bounds and point count a Source can report up front
// (from a file header) or after a bounds-resolution prepass.
type Header struct {
	Bounds geogrid.Bounds
	Count  int64
}

// Source streams Chunks of up to chunkSize points. The returned channel is
// closed when the source is exhausted or ctx is canceled; a cancellation
// does not produce a partial-chunk send.
type Source interface {
	Header(ctx context.Context) (Header, error)
	Stream(ctx context.Context, chunkSize int) <-chan Chunk
}

// Slice is an in-memory Source, primarily used in tests and for tiles small
// enough to fit comfortably in RAM.
type Slice struct {
	X, Y, Z []float64
}

// Header computes bounds by scanning the in-memory slice once.
func (s Slice) Header(ctx context.Context) (Header, error) {
	h := Header{Count: int64(len(s.X))}
	if len(s.X) == 0 {
		return h, nil
	}
	h.Bounds = geogrid.Bounds{MinX: s.X[0], MaxX: s.X[0], MinY: s.Y[0], MaxY: s.Y[0], MinZ: s.Z[0], MaxZ: s.Z[0]}
	for i := 1; i < len(s.X); i++ {
		h.Bounds.MinX = min(h.Bounds.MinX, s.X[i])
		h.Bounds.MaxX = max(h.Bounds.MaxX, s.X[i])
		h.Bounds.MinY = min(h.Bounds.MinY, s.Y[i])
		h.Bounds.MaxY = max(h.Bounds.MaxY, s.Y[i])
		h.Bounds.MinZ = min(h.Bounds.MinZ, s.Z[i])
		h.Bounds.MaxZ = max(h.Bounds.MaxZ, s.Z[i])
	}
	return h, nil
}

// Stream yields the slice in chunkSize-sized pieces, in original order.
func (s Slice) Stream(ctx context.Context, chunkSize int) <-chan Chunk {
	out := make(chan Chunk)
	if chunkSize <= 0 {
		chunkSize = len(s.X)
		if chunkSize == 0 {
			chunkSize = 1
		}
	}
	go func() {
		defer close(out)
		for i := 0; i < len(s.X); i += chunkSize {
			end := i + chunkSize
			if end > len(s.X) {
				end = len(s.X)
			}
			c := Chunk{X: s.X[i:end], Y: s.Y[i:end], Z: s.Z[i:end]}
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// File describes one discovered candidate file for a tile: its path and
// whether it is a thinned "sample" decimation (spec.md's supplemented
// file-discovery precedence rule).
type File struct {
	Path       string
	IsSample   bool
	SizeBytes  int64
}

// PreferNonSample implements the supplemented file-discovery rule from the
// original pipeline: among files matching a tile stem, a full-resolution
// (non-sample) file is always preferred over a "_sample" decimation,
// regardless of discovery order. When only sample files exist, the smallest
// is chosen (cheapest to stream). Returns false if files is empty.
func PreferNonSample(files []File) (File, bool) {
	if len(files) == 0 {
		return File{}, false
	}
	sorted := append([]File(nil), files...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsSample != sorted[j].IsSample {
			return !sorted[i].IsSample // non-sample first
		}
		return sorted[i].SizeBytes < sorted[j].SizeBytes
	})
	return sorted[0], true
}
