package aoi

import "testing"

func TestCanonicalCRSRecognizesForms(t *testing.T) {
	cases := map[string]string{
		"EPSG:4326":                      "EPSG:4326",
		"epsg:4326":                      "EPSG:4326",
		"4326":                           "EPSG:4326",
		"urn:ogc:def:crs:EPSG::32611":    "EPSG:32611",
		"CRS84":                          "CRS84",
		"urn:ogc:def:crs:OGC:1.3:CRS84":  "CRS84",
		"WGS84":                          "EPSG:4326",
	}
	for in, want := range cases {
		got, err := CanonicalCRS(in)
		if want == "" {
			if err == nil {
				t.Errorf("CanonicalCRS(%q) = %q, want an error", in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("CanonicalCRS(%q) unexpected error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("CanonicalCRS(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalCRSRejectsEmpty(t *testing.T) {
	if _, err := CanonicalCRS(""); err == nil {
		t.Error("expected error for empty CRS string")
	}
}

func TestSameCRSTrueForEquivalentForms(t *testing.T) {
	same, err := SameCRS("EPSG:32611", "urn:ogc:def:crs:EPSG::32611")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !same {
		t.Error("expected EPSG:32611 and its URN form to be the same CRS")
	}
}

func TestSameCRSFalseForDifferentCodes(t *testing.T) {
	same, err := SameCRS("EPSG:4326", "EPSG:32611")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if same {
		t.Error("expected different EPSG codes to compare unequal")
	}
}

func TestIsGeographic(t *testing.T) {
	if !IsGeographic("EPSG:4326") {
		t.Error("EPSG:4326 should be geographic")
	}
	if IsGeographic("EPSG:32611") {
		t.Error("EPSG:32611 (a UTM projection) should not be geographic")
	}
}
