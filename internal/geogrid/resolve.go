package geogrid

import "context"

// BoundsSource is the minimal contract ResolveBounds needs: a header that
// may be present/degenerate, and a re-streamable point source to fall back
// to. Satisfied by pointsource.Source without an import cycle.
type BoundsSource interface {
	Stream(ctx context.Context, chunkSize int) <-chan PointChunk
}

// PointChunk mirrors pointsource.Chunk's shape locally, avoiding a
// geogrid->pointsource dependency (pointsource already depends on geogrid
// for Bounds).
type PointChunk struct {
	X, Y, Z []float64
}

// ResolveBounds triggers the §4.1 streaming prepass exactly once when the
// caller-supplied header bounds are degenerate or the count is zero: it
// streams the whole source once to compute true bounds, so later stages
// never have to repeat the scan.
func ResolveBounds(ctx context.Context, headerBounds Bounds, headerCount int64, chunkSize int, src BoundsSource) (Bounds, error) {
	if !headerBounds.Degenerate() && headerCount > 0 {
		return headerBounds, nil
	}
	var b Bounds
	first := true
	for chunk := range src.Stream(ctx, chunkSize) {
		for i := range chunk.X {
			if first {
				b = Bounds{MinX: chunk.X[i], MaxX: chunk.X[i], MinY: chunk.Y[i], MaxY: chunk.Y[i], MinZ: chunk.Z[i], MaxZ: chunk.Z[i]}
				first = false
				continue
			}
			if chunk.X[i] < b.MinX {
				b.MinX = chunk.X[i]
			}
			if chunk.X[i] > b.MaxX {
				b.MaxX = chunk.X[i]
			}
			if chunk.Y[i] < b.MinY {
				b.MinY = chunk.Y[i]
			}
			if chunk.Y[i] > b.MaxY {
				b.MaxY = chunk.Y[i]
			}
			if chunk.Z[i] < b.MinZ {
				b.MinZ = chunk.Z[i]
			}
			if chunk.Z[i] > b.MaxZ {
				b.MaxZ = chunk.Z[i]
			}
		}
	}
	return b, nil
}
