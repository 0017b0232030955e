package lidarsummary

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestWriteGeoJSONProducesPointFeatureCollection(t *testing.T) {
	dets := []Detection{
		{Tile: "tileA", ID: "tileA:00001", X: 1.5, Y: 2.5, AreaCells: 4, AreaM2: 0.25},
	}
	var buf bytes.Buffer
	if err := WriteGeoJSON(&buf, dets); err != nil {
		t.Fatalf("WriteGeoJSON: %v", err)
	}
	var doc geoJSONDoc
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Type != "FeatureCollection" {
		t.Errorf("type = %q, want FeatureCollection", doc.Type)
	}
	if len(doc.Features) != 1 {
		t.Fatalf("got %d features, want 1", len(doc.Features))
	}
	f := doc.Features[0]
	if f.Geometry.Type != "Point" {
		t.Errorf("geometry type = %q, want Point", f.Geometry.Type)
	}
	if f.Geometry.Coordinates[0] != 1.5 || f.Geometry.Coordinates[1] != 2.5 {
		t.Errorf("coordinates = %v, want [1.5 2.5]", f.Geometry.Coordinates)
	}
	if f.Properties["id"] != "tileA:00001" {
		t.Errorf("properties[id] = %v, want tileA:00001", f.Properties["id"])
	}
}

func TestWriteGeoJSONEmptyDetections(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGeoJSON(&buf, nil); err != nil {
		t.Fatalf("WriteGeoJSON: %v", err)
	}
	var doc geoJSONDoc
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Features) != 0 {
		t.Errorf("got %d features, want 0", len(doc.Features))
	}
}
