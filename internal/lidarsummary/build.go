package lidarsummary

import (
	"sort"

	"github.com/rgdonohue/penguin-detection-pipeline/internal/aoi"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/dedupe"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/fusion"
)

// BuildDedupedSummary merges clusters from the dedupe package with the
// full detection list into the spec.md §6 deduped document shape: one
// representative Detection per cluster, plus an index from every original
// ID to its cluster outcome.
func BuildDedupedSummary(all []Detection, clusters []dedupe.Cluster, radiusM float64, crs *string, coordUnits string, params map[string]interface{}) DedupedSummary {
	byID := make(map[string]Detection, len(all))
	for _, d := range all {
		byID[d.ID] = d
	}

	index := make(map[string]DedupeIndexEntry, len(all))
	var reps []Detection
	for _, c := range clusters {
		for _, memberID := range c.MemberIDs {
			index[memberID] = DedupeIndexEntry{
				KeepID:    c.RepresentativeID,
				ClusterID: c.RepresentativeID,
				Dropped:   memberID != c.RepresentativeID,
			}
		}
		rep := byID[c.RepresentativeID]
		rep.DedupeClusterID = c.RepresentativeID
		rep.DedupeClusterSize = len(c.MemberIDs)
		reps = append(reps, rep)
	}
	sort.Slice(reps, func(i, j int) bool { return reps[i].ID < reps[j].ID })

	return DedupedSummary{
		SchemaVersion:     "1",
		Purpose:           "lidar_candidates_deduped",
		Contract:          DefaultContract(),
		CRS:               crs,
		CoordUnits:        coordUnits,
		Params:            params,
		DedupeRadiusM:     radiusM,
		TotalCountDeduped: len(reps),
		Detections:        reps,
		DedupeIndex:       index,
	}
}

// BuildAOIOutput assembles the AOI output document from per-AOI membership
// results, sorted by AOI id per spec.md §6. areaM2 and density are keyed by
// AOI name and are both optional: density is omitted for geographic CRS
// unless the caller already computed it under explicit permission, and
// areaM2 is omitted entirely under a geographic CRS (spec.md §4.7).
func BuildAOIOutput(memberships []aoi.Membership, areas []aoi.AreaOfInterest, lidarCRS, aoiCRS string, areaM2, density map[string]float64) AOIOutput {
	byArea := make(map[string][]string, len(areas))
	props := make(map[string]map[string]interface{}, len(areas))
	for _, a := range areas {
		byArea[a.Name] = nil
		props[a.Name] = a.Props
	}
	for _, m := range memberships {
		for _, name := range m.AOINames {
			byArea[name] = append(byArea[name], m.DetectionID)
		}
	}

	names := make([]string, 0, len(byArea))
	for name := range byArea {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]AOIResult, 0, len(names))
	for _, name := range names {
		ids := byArea[name]
		sort.Strings(ids)
		r := AOIResult{AOIID: name, Properties: props[name], DetectionCount: len(ids), DetectionIDs: ids}
		if a, ok := areaM2[name]; ok {
			r.AreaM2 = &a
		}
		if d, ok := density[name]; ok {
			r.DensityPerHa = &d
		}
		results = append(results, r)
	}

	canonLidar := lidarCRS
	canonAOI := aoiCRS

	return AOIOutput{
		SchemaVersion:   "1",
		Purpose:         "lidar_aoi_eval",
		CRS:             canonLidar,
		LidarCRS:        canonLidar,
		AOICRS:          canonAOI,
		TotalDetections: len(memberships),
		AOICount:        len(areas),
		Results:         results,
	}
}

// BuildFusionOutput assembles the fusion output document from a Join result
// and the original detection sets, per spec.md §6.
func BuildFusionOutput(lidar, thermal []fusion.Detection, matches []fusion.Match, unmatchedThermalIDs []string, radiusM float64) FusionOutput {
	thermalIdx := make(map[string]int, len(thermal))
	for i, th := range thermal {
		thermalIdx[th.ID] = i
	}
	unmatchedThermal := make(map[string]bool, len(unmatchedThermalIDs))
	for _, id := range unmatchedThermalIDs {
		unmatchedThermal[id] = true
	}

	matchByLidarID := make(map[string]fusion.Match, len(matches))
	for _, m := range matches {
		matchByLidarID[m.LidarID] = m
	}

	lidarOut := make([]FusionDetection, 0, len(lidar))
	lidarMatched := 0
	for _, l := range lidar {
		fd := FusionDetection{ID: l.ID, X: l.X, Y: l.Y, Label: "lidar_only"}
		if m, ok := matchByLidarID[l.ID]; ok && m.Matched {
			idx := thermalIdx[m.ThermalID]
			dist := m.DistanceM
			fd.MatchThermalIndex = &idx
			fd.MatchDistM = &dist
			fd.Label = "fused"
			lidarMatched++
		}
		lidarOut = append(lidarOut, fd)
	}

	thermalOut := make([]FusionDetection, 0, len(thermal))
	for _, th := range thermal {
		matched := !unmatchedThermal[th.ID]
		fd := FusionDetection{ID: th.ID, X: th.X, Y: th.Y, MatchedByLidar: &matched, Label: "thermal_only"}
		if matched {
			fd.Label = "fused"
		}
		thermalOut = append(thermalOut, fd)
	}

	return FusionOutput{
		SchemaVersion:       "1",
		Purpose:             "lidar_thermal_fusion",
		MatchRadiusM:        radiusM,
		LidarCount:          len(lidar),
		ThermalCount:        len(thermal),
		LidarMatchedCount:   lidarMatched,
		ThermalMatchedCount: len(thermal) - len(unmatchedThermalIDs),
		LidarOnlyCount:      len(lidar) - lidarMatched,
		ThermalOnlyCount:    len(unmatchedThermalIDs),
		Lidar:               lidarOut,
		Thermal:             thermalOut,
	}
}
