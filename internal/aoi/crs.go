// Package aoi evaluates detections against area-of-interest polygons:
// CRS canonicalization, ray-casting point-in-polygon, Shoelace area with
// hole subtraction, and the evaluation orchestration (spec.md §4.7).
package aoi

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rgdonohue/penguin-detection-pipeline/internal/perrors"
)

var epsgFromURN = regexp.MustCompile(`(?i)urn:ogc:def:crs:epsg::?(\d+)`)
var epsgLoose = regexp.MustCompile(`(?i)epsg:?(\d+)`)

// CanonicalCRS normalizes a CRS identifier string to "EPSG:####", or to the
// literal "CRS84" for WGS84 lon/lat expressed without an EPSG code, matching
// the original pipeline's crs normalization helper.
func CanonicalCRS(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", perrors.Newf(perrors.Crs, "empty CRS string")
	}
	upper := strings.ToUpper(trimmed)

	switch upper {
	case "CRS84", "URN:OGC:DEF:CRS:OGC:1.3:CRS84", "OGC:CRS84":
		return "CRS84", nil
	case "WGS84", "WGS 84", "EPSG:4326":
		return "EPSG:4326", nil
	}

	if m := epsgFromURN.FindStringSubmatch(trimmed); m != nil {
		return "EPSG:" + m[1], nil
	}
	if m := epsgLoose.FindStringSubmatch(upper); m != nil {
		if _, err := strconv.Atoi(m[1]); err == nil {
			return "EPSG:" + m[1], nil
		}
	}
	if _, err := strconv.Atoi(trimmed); err == nil {
		return "EPSG:" + trimmed, nil
	}
	return "", perrors.Newf(perrors.Crs, "unrecognized CRS string %q", raw)
}

// SameCRS reports whether two raw CRS strings canonicalize to the same
// identifier. Returns an error if either fails to canonicalize.
func SameCRS(a, b string) (bool, error) {
	ca, err := CanonicalCRS(a)
	if err != nil {
		return false, err
	}
	cb, err := CanonicalCRS(b)
	if err != nil {
		return false, err
	}
	return ca == cb, nil
}

// IsGeographic reports whether a canonical CRS is a geographic (lon/lat)
// system, where polygon "area" in raw coordinate units is not actually
// square meters and needs explicit caller permission to use for density.
func IsGeographic(canonical string) bool {
	return canonical == "CRS84" || canonical == "EPSG:4326"
}
