// Command lidar-candidates runs the full LiDAR candidate-detection pipeline
// over one or more tiles: streaming ground DEM + HAG construction, blob
// extraction, cross-tile dedupe, AOI evaluation, and thermal fusion, per
// spec.md §6's CLI contract.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rgdonohue/penguin-detection-pipeline/internal/aoi"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/candidates"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/config"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/dedupe"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/demhag"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/fusion"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/geogrid"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/lidarsummary"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/monitoring"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/perrors"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/pointsource"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/store"
)

var (
	inputDir        = flag.String("input-dir", "", "directory of *.bin point tiles (required)")
	configFile      = flag.String("config", "", "path to a JSON parameter-overrides file")
	outDir          = flag.String("out-dir", ".", "directory to write output documents to")
	crs             = flag.String("crs", "", "CRS of the input tiles, e.g. EPSG:32611")
	chunkSize       = flag.Int("chunk-size", 200000, "points streamed per chunk")
	dbFile          = flag.String("db", "", "optional sqlite cache path; empty disables caching")
	dedupeTiles     = flag.Bool("dedupe", false, "merge near-duplicate detections across tiles")
	aoiFile         = flag.String("aoi-file", "", "path to a JSON file of areas of interest")
	thermalFile     = flag.String("thermal-file", "", "path to a JSON file of thermal detections to fuse against")
	fusionRadius    = flag.Float64("fusion-radius-m", 1.0, "match radius in meters for thermal fusion")
	thermalCRS      = flag.String("thermal-crs", "", "CRS of the thermal detections; defaults to -crs when unset")
	emitGeoJSON     = flag.Bool("emit-geojson", false, "also write detections as a GeoJSON point FeatureCollection")
	allowGeoDensity = flag.Bool("allow-geographic-density", false, "permit area/density computation for AOIs in a geographic CRS")
	quiet           = flag.Bool("quiet", false, "suppress progress logging")
)

func main() {
	flag.Parse()
	if *quiet {
		monitoring.SetLogger(nil)
	}
	if *inputDir == "" {
		log.Fatal("-input-dir is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("lidar-candidates: %v", err)
	}
}

func run(ctx context.Context) error {
	params := config.Default()
	if *configFile != "" {
		overrides, err := config.LoadOverrides(*configFile)
		if err != nil {
			return err
		}
		params, err = overrides.Apply(params)
		if err != nil {
			return err
		}
	}

	var cache *store.Store
	var runID string
	if *dbFile != "" {
		s, err := store.Open(*dbFile)
		if err != nil {
			return err
		}
		defer s.Close()
		cache = s
		runID, err = cache.NewRunID(asJSON(params.AsMap()))
		if err != nil {
			return err
		}
		monitoring.Logf("run_id=%s", runID)
	}

	tilePaths, err := discoverTiles(*inputDir)
	if err != nil {
		return err
	}
	if len(tilePaths) == 0 {
		return perrors.Newf(perrors.Input, "no .bin tiles found under %q", *inputDir)
	}

	var files []lidarsummary.FileResult
	var allDetections []lidarsummary.Detection
	for _, path := range tilePaths {
		fr, dets, err := processTile(ctx, path, params, cache, runID)
		if err != nil {
			// GridTooLarge (ResourceError) is handled inside processTile under
			// the -skip-oversized-tiles caller choice; any ResourceError that
			// still reaches here means that choice was "hard fail", so only
			// InputError is downgraded to a per-tile skip at this level.
			if perrors.Is(err, perrors.Input) {
				stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				monitoring.Logf("tile %s: skipped (%v)", stem, err)
				files = append(files, lidarsummary.FileResult{Path: path, Skipped: true, Error: err.Error()})
				continue
			}
			return err
		}
		files = append(files, fr)
		allDetections = append(allDetections, dets...)
	}

	var crsPtr *string
	if *crs != "" {
		crsPtr = crs
	}
	summary := lidarsummary.NewSummary(crsPtr, "meters", params.AsMap(), files)
	if err := writeJSON(filepath.Join(*outDir, "lidar_candidates.json"), summary); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(*outDir, "lidar_candidates.csv"), allDetections); err != nil {
		return err
	}
	if *emitGeoJSON {
		if err := writeGeoJSON(filepath.Join(*outDir, "lidar_candidates.geojson"), allDetections); err != nil {
			return err
		}
	}
	monitoring.Logf("wrote %d candidates across %d tiles", len(allDetections), len(files))

	if *dedupeTiles {
		radius := params.CellRes * 2
		if params.DedupeRadiusM != nil {
			radius = *params.DedupeRadiusM
		}
		inputs := make([]dedupe.Input, len(allDetections))
		for i, d := range allDetections {
			inputs[i] = dedupe.Input{File: d.File, ID: d.ID, X: d.X, Y: d.Y}
		}
		clusters := dedupe.Dedupe(inputs, radius)
		deduped := lidarsummary.BuildDedupedSummary(allDetections, clusters, radius, crsPtr, "meters", params.AsMap())
		if err := writeJSON(filepath.Join(*outDir, "lidar_candidates_deduped.json"), deduped); err != nil {
			return err
		}
		allDetections = deduped.Detections
		monitoring.Logf("deduped to %d clusters within %.2fm", len(deduped.Detections), radius)
	}

	if *aoiFile != "" {
		if err := runAOIEvaluation(allDetections); err != nil {
			return err
		}
	}

	if *thermalFile != "" {
		if err := runFusion(allDetections); err != nil {
			return err
		}
	}

	return nil
}

func discoverTiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, perrors.Wrap(perrors.Input, err, "failed to list input directory %q", dir)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".bin" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func processTile(ctx context.Context, path string, p config.Params, cache *store.Store, runID string) (lidarsummary.FileResult, []lidarsummary.Detection, error) {
	start := time.Now()
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	src := pointsource.NewBinaryStream(path)
	header, err := src.Header(ctx)
	if err != nil {
		return lidarsummary.FileResult{}, nil, err
	}

	bounds, err := geogrid.ResolveBounds(ctx, header.Bounds, header.Count, *chunkSize, binaryBoundsAdapter{src})
	if err != nil {
		return lidarsummary.FileResult{}, nil, err
	}

	grid, err := geogrid.NewGrid(bounds, p.CellRes)
	if err != nil {
		return lidarsummary.FileResult{}, nil, perrors.Wrap(perrors.Validation, err, "tile %q", stem).WithTile(stem)
	}

	activeQuantiles := 0
	if p.GroundMethod == config.GroundP05 {
		activeQuantiles++
	}
	if p.TopMethod == config.TopP95 {
		activeQuantiles++
	}
	if err := grid.CheckBudget(activeQuantiles, p.MaxGridMB); err != nil {
		if p.SkipOversizedTiles {
			monitoring.Logf("tile %s: skipped (%v)", stem, err)
			return lidarsummary.FileResult{
				Path: path, GridShape: [2]int{grid.Rows, grid.Cols}, CellRes: p.CellRes,
				HagMin: p.HagMin, HagMax: p.HagMax, Skipped: true, Error: err.Error(),
			}, nil, nil
		}
		return lidarsummary.FileResult{}, nil, err
	}

	var contentHash string
	if cache != nil {
		contentHash = store.ContentHash(path, asJSON(p.AsMap()), header.Count)
		if cached, found, err := cache.Lookup(stem, contentHash); err == nil && found {
			var fr lidarsummary.FileResult
			if err := json.Unmarshal([]byte(cached), &fr); err == nil {
				monitoring.Logf("tile %s: cache hit", stem)
				return fr, fr.Detections, nil
			}
		}
	}

	ground, err := demhag.BuildGroundDEM(ctx, src, grid, *chunkSize, p.GroundMethod, p.TopQuantileLR)
	if err != nil {
		return lidarsummary.FileResult{}, nil, err
	}
	hag, err := demhag.BuildHAG(ctx, src, ground, *chunkSize, p.TopMethod, p.TopQuantileLR, p.TopZscoreCap)
	if err != nil {
		return lidarsummary.FileResult{}, nil, err
	}

	cands := candidates.Extract(hag.Values, hag.SlopeDeg, grid.Rows, grid.Cols, p)
	raw := make([]lidarsummary.RawBlob, len(cands))
	for i, c := range cands {
		x, y := grid.CellCenterXY(c.CentroidRow, c.CentroidCol)
		raw[i] = lidarsummary.RawBlob{
			X:           x,
			Y:           y,
			AreaCells:   c.AreaCells,
			AreaM2:      float64(c.AreaCells) * p.CellRes * p.CellRes,
			HagMean:     c.MeanHAG,
			HagMax:      c.MaxHAG,
			Circularity: c.Circularity,
			Solidity:    c.Solidity,
		}
	}
	dets := lidarsummary.AssignIDs(stem, path, raw)

	fr := lidarsummary.FileResult{
		Path:       path,
		Count:      len(dets),
		TimeS:      time.Since(start).Seconds(),
		GridShape:  [2]int{grid.Rows, grid.Cols},
		CellRes:    p.CellRes,
		HagMin:     p.HagMin,
		HagMax:     p.HagMax,
		Detections: dets,
	}

	if cache != nil {
		if err := cache.Put(runID, stem, contentHash, len(dets), asJSON(fr)); err != nil {
			monitoring.Logf("tile %s: cache write failed: %v", stem, err)
		}
	}

	monitoring.Logf("tile %s: %d candidates in %.2fs", stem, len(dets), fr.TimeS)
	return fr, dets, nil
}

// binaryBoundsAdapter satisfies geogrid.BoundsSource by re-exposing a
// pointsource.Source's Stream in geogrid's local Chunk shape.
type binaryBoundsAdapter struct {
	src pointsource.Source
}

func (a binaryBoundsAdapter) Stream(ctx context.Context, chunkSize int) <-chan geogrid.PointChunk {
	out := make(chan geogrid.PointChunk)
	go func() {
		defer close(out)
		for c := range a.src.Stream(ctx, chunkSize) {
			select {
			case out <- geogrid.PointChunk{X: c.X, Y: c.Y, Z: c.Z}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

type aoiDTO struct {
	Name       string                 `json:"name"`
	CRS        string                 `json:"crs"`
	Outer      [][2]float64           `json:"outer"`
	Holes      [][][2]float64         `json:"holes,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

func runAOIEvaluation(detections []lidarsummary.Detection) error {
	data, err := os.ReadFile(*aoiFile)
	if err != nil {
		return perrors.Wrap(perrors.Input, err, "failed to read AOI file %q", *aoiFile)
	}
	var dtos []aoiDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return perrors.Wrap(perrors.Input, err, "failed to parse AOI file %q", *aoiFile)
	}

	areas := make([]aoi.AreaOfInterest, len(dtos))
	for i, d := range dtos {
		areas[i] = aoi.AreaOfInterest{Name: d.Name, CRS: d.CRS, Polygon: ringsToPolygon(d.Outer, d.Holes), Props: d.Properties}
	}

	points := make([]aoi.DetectionPoint, len(detections))
	for i, d := range detections {
		points[i] = aoi.DetectionPoint{ID: d.ID, X: d.X, Y: d.Y}
	}

	memberships, err := aoi.Evaluate(points, areas, *crs)
	if err != nil {
		return err
	}

	density := make(map[string]float64)
	areaM2 := make(map[string]float64)
	counts := make(map[string]int)
	for _, m := range memberships {
		for _, name := range m.AOINames {
			counts[name]++
		}
	}
	canonCRS, err := aoi.CanonicalCRS(*crs)
	if err != nil {
		return err
	}
	for _, a := range areas {
		if d, err := aoi.DensityPerHectare(counts[a.Name], a, *allowGeoDensity); err == nil {
			density[a.Name] = d
		}
		if !aoi.IsGeographic(canonCRS) {
			areaM2[a.Name] = a.Polygon.Area()
		}
	}

	out := lidarsummary.BuildAOIOutput(memberships, areas, *crs, *crs, areaM2, density)
	return writeJSON(filepath.Join(*outDir, "lidar_aoi_eval.json"), out)
}

func ringsToPolygon(outer [][2]float64, holes [][][2]float64) aoi.Polygon {
	p := aoi.Polygon{Outer: toRing(outer)}
	for _, h := range holes {
		p.Holes = append(p.Holes, toRing(h))
	}
	return p
}

func toRing(pts [][2]float64) aoi.Ring {
	r := aoi.Ring{X: make([]float64, len(pts)), Y: make([]float64, len(pts))}
	for i, pt := range pts {
		r.X[i], r.Y[i] = pt[0], pt[1]
	}
	return r
}

type thermalDTO struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

func runFusion(detections []lidarsummary.Detection) error {
	thermalCRSVal := *thermalCRS
	if thermalCRSVal == "" {
		thermalCRSVal = *crs
	}
	same, err := aoi.SameCRS(*crs, thermalCRSVal)
	if err != nil {
		return err
	}
	if !same {
		return perrors.Newf(perrors.Crs, "thermal CRS %s does not match lidar CRS %s", thermalCRSVal, *crs)
	}

	data, err := os.ReadFile(*thermalFile)
	if err != nil {
		return perrors.Wrap(perrors.Input, err, "failed to read thermal file %q", *thermalFile)
	}
	var dtos []thermalDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return perrors.Wrap(perrors.Input, err, "failed to parse thermal file %q", *thermalFile)
	}

	thermal := make([]fusion.Detection, len(dtos))
	for i, d := range dtos {
		thermal[i] = fusion.Detection{ID: d.ID, X: d.X, Y: d.Y}
	}
	lidar := make([]fusion.Detection, len(detections))
	for i, d := range detections {
		lidar[i] = fusion.Detection{ID: d.ID, X: d.X, Y: d.Y}
	}

	matches, unmatched := fusion.Join(lidar, thermal, *fusionRadius)
	out := lidarsummary.BuildFusionOutput(lidar, thermal, matches, unmatched, *fusionRadius)
	return writeJSON(filepath.Join(*outDir, "lidar_thermal_fusion.json"), out)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return perrors.Wrap(perrors.Downstream, err, "failed to marshal %q", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return perrors.Wrap(perrors.Downstream, err, "failed to write %q", path)
	}
	return nil
}

func writeCSV(path string, detections []lidarsummary.Detection) error {
	f, err := os.Create(path)
	if err != nil {
		return perrors.Wrap(perrors.Downstream, err, "failed to create %q", path)
	}
	defer f.Close()
	return lidarsummary.WriteCSV(f, detections)
}

func writeGeoJSON(path string, detections []lidarsummary.Detection) error {
	f, err := os.Create(path)
	if err != nil {
		return perrors.Wrap(perrors.Downstream, err, "failed to create %q", path)
	}
	defer f.Close()
	return lidarsummary.WriteGeoJSON(f, detections)
}

func asJSON(v interface{}) string {
	data, _ := json.Marshal(v)
	return string(data)
}
