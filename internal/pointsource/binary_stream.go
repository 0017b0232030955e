package pointsource

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/rgdonohue/penguin-detection-pipeline/internal/geogrid"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/perrors"
)

// binaryHeaderSize is 7 float64 fields: min_x, min_y, min_z, max_x, max_y,
// max_z, count (count stored as its float64 bit pattern).
const binaryHeaderSize = 7 * 8

// BinaryStream reads the minimal self-describing binary point format
// described in spec.md §6's "Input point file" contract: a fixed 56-byte
// header of bounds+count, followed by repeating 3×float64 (x,y,z) records.
// This stands in for the external LAS/LAZ decoder the spec places out of
// scope, while giving the rest of the pipeline something concrete to
// stream end to end in tests and golden replays.
type BinaryStream struct {
	path string
}

// NewBinaryStream opens a path for streaming without reading it yet.
func NewBinaryStream(path string) BinaryStream {
	return BinaryStream{path: path}
}

// Header reads just the fixed-size header from the file.
func (b BinaryStream) Header(ctx context.Context) (Header, error) {
	f, err := os.Open(b.path)
	if err != nil {
		return Header{}, perrors.Wrap(perrors.Input, err, "failed to open point file %q", b.path)
	}
	defer f.Close()

	buf := make([]byte, binaryHeaderSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return Header{}, perrors.Wrap(perrors.Input, err, "failed to read header from %q", b.path)
	}
	vals := make([]float64, 7)
	for i := range vals {
		bits := binary.LittleEndian.Uint64(buf[i*8 : i*8+8])
		vals[i] = math.Float64frombits(bits)
	}
	h := Header{
		Bounds: geogrid.Bounds{MinX: vals[0], MinY: vals[1], MinZ: vals[2], MaxX: vals[3], MaxY: vals[4], MaxZ: vals[5]},
		Count:  int64(vals[6]),
	}
	return h, nil
}

// WriteBinaryStream writes x/y/z to path in the BinaryStream wire format:
// a 56-byte header (bounds + count) followed by 3×float64 point records.
// Used by tests and by any caller producing synthetic fixtures; the
// production point-file decoder itself remains out of scope.
func WriteBinaryStream(path string, bounds geogrid.Bounds, x, y, z []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return perrors.Wrap(perrors.Input, err, "failed to create point file %q", path)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	header := []float64{bounds.MinX, bounds.MinY, bounds.MinZ, bounds.MaxX, bounds.MaxY, bounds.MaxZ, float64(len(x))}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return perrors.Wrap(perrors.Input, err, "failed to write header to %q", path)
		}
	}
	for i := range x {
		if err := binary.Write(w, binary.LittleEndian, x[i]); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, y[i]); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, z[i]); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Stream reads point records from the file (after its header) in
// chunkSize-sized batches.
func (b BinaryStream) Stream(ctx context.Context, chunkSize int) <-chan Chunk {
	out := make(chan Chunk)
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	go func() {
		defer close(out)
		f, err := os.Open(b.path)
		if err != nil {
			return
		}
		defer f.Close()
		r := bufio.NewReaderSize(f, 1<<20)
		if _, err := r.Discard(binaryHeaderSize); err != nil {
			return
		}

		const recordSize = 3 * 8
		buf := make([]byte, recordSize*chunkSize)
		for {
			n, err := io.ReadFull(r, buf)
			if n > 0 {
				numPts := n / recordSize
				chunk := Chunk{X: make([]float64, numPts), Y: make([]float64, numPts), Z: make([]float64, numPts)}
				for i := 0; i < numPts; i++ {
					off := i * recordSize
					chunk.X[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[off : off+8]))
					chunk.Y[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[off+8 : off+16]))
					chunk.Z[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[off+16 : off+24]))
				}
				select {
				case out <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}
