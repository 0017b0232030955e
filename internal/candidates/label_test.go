package candidates

import "testing"

func TestLabelSeparatesDisjointBlobs(t *testing.T) {
	// Two separate single cells, far apart, 4-connectivity.
	m := NewMask(5, 5)
	m.set(0, 0, true)
	m.set(4, 4, true)
	labels := Label(m, false)
	if labels.NumLabels != 2 {
		t.Fatalf("NumLabels = %d, want 2", labels.NumLabels)
	}
	if labels.Values[0] == labels.Values[24] {
		t.Error("expected disjoint cells to get different labels")
	}
}

func TestLabelMergesDiagonalOnlyWith8Connectivity(t *testing.T) {
	m := NewMask(3, 3)
	m.set(0, 0, true)
	m.set(1, 1, true)

	labels4 := Label(m, false)
	if labels4.NumLabels != 2 {
		t.Errorf("4-connectivity: NumLabels = %d, want 2 (diagonal cells not connected)", labels4.NumLabels)
	}

	labels8 := Label(m, true)
	if labels8.NumLabels != 1 {
		t.Errorf("8-connectivity: NumLabels = %d, want 1 (diagonal cells merged)", labels8.NumLabels)
	}
}

func TestLabelUnionResolvesUShape(t *testing.T) {
	// A U-shape forces two provisional labels in one row to merge via a
	// later row, exercising the union-find merge path.
	//  X . X
	//  X X X
	m := NewMask(2, 3)
	m.set(0, 0, true)
	m.set(0, 2, true)
	m.set(1, 0, true)
	m.set(1, 1, true)
	m.set(1, 2, true)
	labels := Label(m, false)
	if labels.NumLabels != 1 {
		t.Fatalf("NumLabels = %d, want 1 (U-shape is one component)", labels.NumLabels)
	}
	l := labels.Values[0*3+0]
	for _, idx := range []int{2, 3, 4, 5} {
		if labels.Values[idx] != l {
			t.Errorf("cell %d label = %d, want %d (all part of the U)", idx, labels.Values[idx], l)
		}
	}
}

func TestLabelEmptyMaskHasNoLabels(t *testing.T) {
	m := NewMask(3, 3)
	labels := Label(m, true)
	if labels.NumLabels != 0 {
		t.Errorf("NumLabels = %d, want 0 for empty mask", labels.NumLabels)
	}
}

func TestLabelDeterministicAcrossRuns(t *testing.T) {
	m := NewMask(4, 4)
	m.set(0, 0, true)
	m.set(3, 3, true)
	m.set(1, 2, true)
	a := Label(m, true)
	b := Label(m, true)
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			t.Fatalf("label assignment differs between runs at cell %d: %d vs %d", i, a.Values[i], b.Values[i])
		}
	}
}
