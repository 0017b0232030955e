package lidarsummary

// Contract declares the semantic guarantees (and explicit non-guarantees)
// every summary document carries, per spec.md §6.
type Contract struct {
	Unit       string `json:"unit"`
	Represents string `json:"represents"`
	NotA       string `json:"not_a"`
	Note       string `json:"note"`
}

// DefaultContract is the standard "candidate blob, not a confirmed animal"
// disclaimer every LiDAR-derived output document carries.
func DefaultContract() Contract {
	return Contract{
		Unit:       "candidate",
		Represents: "blob_centroid",
		NotA:       "individual_penguin",
		Note:       "A candidate is a morphological blob passing shape/area filters; it is not a confirmed animal count.",
	}
}

// FileResult is one tile's entry in the files list of the LiDAR summary.
// Skipped/Error record the per-tile InputError/ResourceError downgrade
// policy (spec.md §7): a skipped tile carries no grid/detection data.
type FileResult struct {
	Path       string      `json:"path"`
	Count      int         `json:"count"`
	TimeS      float64     `json:"time_s"`
	GridShape  [2]int      `json:"grid_shape"`
	CellRes    float64     `json:"cell_res"`
	HagMin     float64     `json:"hag_min"`
	HagMax     float64     `json:"hag_max"`
	Detections []Detection `json:"detections"`
	Skipped    bool        `json:"skipped,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// DedupeIndexEntry maps one original detection ID to its cluster outcome.
type DedupeIndexEntry struct {
	KeepID    string `json:"keep_id"`
	ClusterID string `json:"cluster_id"`
	Dropped   bool   `json:"dropped"`
}

// Summary is the LiDAR summary JSON document (spec.md §6).
type Summary struct {
	SchemaVersion string                 `json:"schema_version"`
	Purpose       string                 `json:"purpose"`
	Contract      Contract               `json:"contract"`
	CRS           *string                `json:"crs"`
	CoordUnits    string                 `json:"coord_units"`
	Params        map[string]interface{} `json:"params"`
	Files         []FileResult           `json:"files"`
	TotalCount    int                    `json:"total_count"`

	DedupeRadiusM      *float64                    `json:"dedupe_radius_m,omitempty"`
	TotalCountDeduped  *int                        `json:"total_count_deduped,omitempty"`
	DedupeOutputs      []string                    `json:"dedupe_outputs,omitempty"`
	DedupeIndex        map[string]DedupeIndexEntry `json:"dedupe_index,omitempty"`
}

// NewSummary builds a Summary with schema_version/purpose/contract fixed
// per the spec's contract, leaving caller-supplied fields to be filled in.
func NewSummary(crs *string, coordUnits string, params map[string]interface{}, files []FileResult) Summary {
	total := 0
	for _, f := range files {
		total += f.Count
	}
	return Summary{
		SchemaVersion: "1",
		Purpose:       "lidar_candidates",
		Contract:      DefaultContract(),
		CRS:           crs,
		CoordUnits:    coordUnits,
		Params:        params,
		Files:         files,
		TotalCount:    total,
	}
}

// DedupedSummary is the deduped LiDAR summary JSON document (spec.md §6).
type DedupedSummary struct {
	SchemaVersion     string                      `json:"schema_version"`
	Purpose           string                      `json:"purpose"`
	Contract          Contract                    `json:"contract"`
	CRS               *string                     `json:"crs"`
	CoordUnits        string                      `json:"coord_units"`
	Params            map[string]interface{}      `json:"params"`
	DedupeRadiusM     float64                     `json:"dedupe_radius_m"`
	TotalCountDeduped int                         `json:"total_count_deduped"`
	Detections        []Detection                 `json:"detections"`
	DedupeIndex       map[string]DedupeIndexEntry `json:"dedupe_index"`
}

// AOIResult is one AOI's membership result in the AOI output document.
type AOIResult struct {
	AOIID          string                 `json:"aoi_id"`
	Properties     map[string]interface{} `json:"properties,omitempty"`
	DetectionCount int                    `json:"detection_count"`
	DetectionIDs   []string               `json:"detection_ids"`
	AreaM2         *float64               `json:"area_m2,omitempty"`
	DensityPerHa   *float64               `json:"density_per_ha,omitempty"`
}

// AOIOutput is the AOI output JSON document (spec.md §6).
type AOIOutput struct {
	SchemaVersion    string      `json:"schema_version"`
	Purpose          string      `json:"purpose"`
	CRS              string      `json:"crs"`
	LidarCRS         string      `json:"lidar_crs"`
	AOICRS           string      `json:"aoi_crs"`
	TotalDetections  int         `json:"total_detections"`
	AOICount         int         `json:"aoi_count"`
	Results          []AOIResult `json:"results"`
}

// FusionDetection is one side's per-detection entry in the fusion output.
type FusionDetection struct {
	ID                 string   `json:"id"`
	X                  float64  `json:"x"`
	Y                  float64  `json:"y"`
	MatchThermalIndex  *int     `json:"match_thermal_index,omitempty"`
	MatchDistM         *float64 `json:"match_dist_m,omitempty"`
	MatchedByLidar     *bool    `json:"matched_by_lidar,omitempty"`
	Label              string   `json:"label"`
}

// FusionOutput is the fusion output JSON document (spec.md §6).
type FusionOutput struct {
	SchemaVersion       string            `json:"schema_version"`
	Purpose             string            `json:"purpose"`
	MatchRadiusM        float64           `json:"match_radius_m"`
	LidarCount          int               `json:"lidar_count"`
	ThermalCount        int               `json:"thermal_count"`
	LidarMatchedCount   int               `json:"lidar_matched_count"`
	ThermalMatchedCount int               `json:"thermal_matched_count"`
	LidarOnlyCount      int               `json:"lidar_only_count"`
	ThermalOnlyCount    int               `json:"thermal_only_count"`
	Lidar               []FusionDetection `json:"lidar"`
	Thermal              []FusionDetection `json:"thermal"`
}
