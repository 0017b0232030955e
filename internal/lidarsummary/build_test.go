package lidarsummary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgdonohue/penguin-detection-pipeline/internal/aoi"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/dedupe"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/fusion"
)

func TestBuildDedupedSummaryKeepsOneRepresentativePerCluster(t *testing.T) {
	all := []Detection{
		{ID: "a:00001", X: 0, Y: 0},
		{ID: "b:00001", X: 0.01, Y: 0.01},
		{ID: "c:00001", X: 50, Y: 50},
	}
	clusters := []dedupe.Cluster{
		{RepresentativeID: "a:00001", MemberIDs: []string{"a:00001", "b:00001"}},
		{RepresentativeID: "c:00001", MemberIDs: []string{"c:00001"}},
	}
	summary := BuildDedupedSummary(all, clusters, 1.0, nil, "meters", nil)
	assert.Equal(t, 2, summary.TotalCountDeduped)
	require.Len(t, summary.DedupeIndex, 3)
	assert.True(t, summary.DedupeIndex["b:00001"].Dropped, "non-representative member should be marked dropped")
	assert.False(t, summary.DedupeIndex["a:00001"].Dropped, "representative should not be marked dropped")
}

func TestBuildAOIOutputSortsResultsByName(t *testing.T) {
	areas := []aoi.AreaOfInterest{{Name: "zzz"}, {Name: "aaa"}}
	memberships := []aoi.Membership{
		{DetectionID: "d1", AOINames: []string{"zzz"}},
		{DetectionID: "d2", AOINames: []string{"aaa"}},
	}
	out := BuildAOIOutput(memberships, areas, "EPSG:32611", "EPSG:32611", nil, nil)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "aaa", out.Results[0].AOIID)
	assert.Equal(t, "zzz", out.Results[1].AOIID)
}

func TestBuildFusionOutputCountsMatchesAndMisses(t *testing.T) {
	lidar := []fusion.Detection{{ID: "l1", X: 0, Y: 0}, {ID: "l2", X: 10, Y: 10}}
	thermal := []fusion.Detection{{ID: "t1", X: 0.1, Y: 0}}
	matches, unmatched := fusion.Join(lidar, thermal, 1.0)
	out := BuildFusionOutput(lidar, thermal, matches, unmatched, 1.0)
	assert.Equal(t, 1, out.LidarMatchedCount)
	assert.Equal(t, 1, out.LidarOnlyCount)
	assert.Equal(t, 0, out.ThermalOnlyCount)
}
