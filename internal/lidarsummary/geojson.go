package lidarsummary

import (
	"encoding/json"
	"io"
)

// geoJSONDoc is a minimal FeatureCollection of Point features, one per
// detection. This is the "thin detections sink" supplemented from the
// original pipeline's GeoJSON export, deliberately not a general geometry
// writer (no polygons, no CRS transform) since the rest of the GeoJSON
// surface (GeoPackage, full geometry round-tripping) is out of scope.
type geoJSONDoc struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

type geoJSONFeature struct {
	Type       string                 `json:"type"`
	Geometry   geoJSONPoint           `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type geoJSONPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// WriteGeoJSON writes detections as a Point FeatureCollection. Coordinates
// are emitted as-is in the detection's native CRS; no reprojection is
// performed.
func WriteGeoJSON(w io.Writer, detections []Detection) error {
	doc := geoJSONDoc{Type: "FeatureCollection"}
	for _, d := range detections {
		doc.Features = append(doc.Features, geoJSONFeature{
			Type:     "Feature",
			Geometry: geoJSONPoint{Type: "Point", Coordinates: []float64{d.X, d.Y}},
			Properties: map[string]interface{}{
				"tile":                d.Tile,
				"id":                  d.ID,
				"file":                d.File,
				"area_cells":          d.AreaCells,
				"area_m2":             d.AreaM2,
				"hag_mean":            d.HagMean,
				"hag_max":             d.HagMax,
				"circularity":         d.Circularity,
				"solidity":            d.Solidity,
				"dedupe_cluster_id":   d.DedupeClusterID,
				"dedupe_cluster_size": d.DedupeClusterSize,
			},
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
