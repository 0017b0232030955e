package lidarsummary

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteCSVIncludesHeaderAndRows(t *testing.T) {
	dets := []Detection{
		{Tile: "t", ID: "t:00001", File: "t.las", X: 1.5, Y: 2.5, AreaCells: 4, AreaM2: 0.25, HagMean: 0.3, HagMax: 0.5, Circularity: 0.8, Solidity: 0.9},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, dets); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (header + 1 row)", len(lines))
	}
	if !strings.HasPrefix(lines[0], "tile,id,file") {
		t.Errorf("header = %q, want to start with tile,id,file", lines[0])
	}
	if !strings.Contains(lines[1], "t:00001") {
		t.Errorf("row missing detection ID: %q", lines[1])
	}
}

func TestWriteCSVEmptyDetections(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Errorf("expected only the header line for zero detections, got %d lines", len(lines))
	}
}
