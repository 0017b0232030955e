package perrors

import (
	"errors"
	"testing"
)

func TestErrorMessageIncludesTile(t *testing.T) {
	base := New(Input, "missing point file")
	tagged := base.WithTile("/data/tile_003.bin")
	if got := tagged.Error(); got == "" {
		t.Fatal("expected non-empty error message")
	}
	if tagged.Tile != "/data/tile_003.bin" {
		t.Errorf("tile = %q, want /data/tile_003.bin", tagged.Tile)
	}
	if base.Tile != "" {
		t.Error("WithTile must not mutate the receiver")
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(Resource, cause, "grid too large")
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestIs(t *testing.T) {
	err := Newf(Crs, "mismatch: %s vs %s", "EPSG:32720", "EPSG:4326")
	if !Is(err, Crs) {
		t.Error("expected Is(err, Crs) to be true")
	}
	if Is(err, Validation) {
		t.Error("expected Is(err, Validation) to be false")
	}
	if Is(errors.New("plain"), Input) {
		t.Error("plain errors must never match a Kind")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		Input:       "InputError",
		Validation:  "ValidationError",
		Resource:    "ResourceError",
		Crs:         "CrsError",
		Consistency: "ConsistencyError",
		Downstream:  "DownstreamError",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
