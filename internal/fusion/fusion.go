// Package fusion joins LiDAR candidate detections against an independent
// thermal detection set by nearest-neighbor proximity within a fixed
// radius, per spec.md §4.8.
package fusion

import (
	"math"
	"sort"

	"github.com/rgdonohue/penguin-detection-pipeline/internal/monitoring"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/spatialindex"
)

// Detection is the minimal shape either side of a fusion join needs.
type Detection struct {
	ID   string
	X, Y float64
}

// Match pairs one LiDAR detection with its nearest thermal detection within
// the join radius, or marks it unmatched.
type Match struct {
	LidarID    string
	ThermalID  string // empty if Matched is false
	DistanceM  float64
	Matched    bool
}

// Join performs a greedy nearest-neighbor join: each LiDAR detection claims
// its closest available thermal detection within radiusM, processed in
// ascending LiDAR-ID order so the result is deterministic and a thermal
// detection is never double-claimed. Unmatched LiDAR detections are still
// reported (Matched=false), and unmatched thermal detections are reported
// separately so neither side's unmatched counts are silently dropped.
func Join(lidar, thermal []Detection, radiusM float64) (matches []Match, unmatchedThermalIDs []string) {
	sortedLidar := append([]Detection(nil), lidar...)
	sort.Slice(sortedLidar, func(i, j int) bool { return sortedLidar[i].ID < sortedLidar[j].ID })

	thermalPts := make([]spatialindex.Point, len(thermal))
	for i, th := range thermal {
		thermalPts[i] = spatialindex.Point{X: th.X, Y: th.Y, ID: i}
	}
	idx := spatialindex.NewRadiusIndex(thermalPts, maxRadiusOrOne(radiusM))

	claimed := make([]bool, len(thermal))
	out := make([]Match, 0, len(sortedLidar))

	for _, l := range sortedLidar {
		candidates := idx.Query(l.X, l.Y, radiusM)
		sort.Slice(candidates, func(i, j int) bool {
			di := distanceTo(l, thermal[candidates[i].ID])
			dj := distanceTo(l, thermal[candidates[j].ID])
			if di != dj {
				return di < dj
			}
			return candidates[i].ID < candidates[j].ID
		})
		matched := false
		for _, c := range candidates {
			if claimed[c.ID] {
				continue
			}
			claimed[c.ID] = true
			out = append(out, Match{
				LidarID:   l.ID,
				ThermalID: thermal[c.ID].ID,
				DistanceM: distanceTo(l, thermal[c.ID]),
				Matched:   true,
			})
			matched = true
			break
		}
		if !matched {
			out = append(out, Match{LidarID: l.ID, Matched: false})
		}
	}

	for i, claimedFlag := range claimed {
		if !claimedFlag {
			unmatchedThermalIDs = append(unmatchedThermalIDs, thermal[i].ID)
		}
	}
	sort.Strings(unmatchedThermalIDs)

	monitoring.Logf("fusion: joined %d lidar detections against %d thermal detections, radius=%.2fm", len(lidar), len(thermal), radiusM)
	return out, unmatchedThermalIDs
}

func distanceTo(a Detection, b Detection) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func maxRadiusOrOne(r float64) float64 {
	if r <= 0 {
		return 1
	}
	return r
}
