package candidates

import "testing"

func TestDiskSEContainsCenter(t *testing.T) {
	se := DiskSE(1)
	found := false
	for _, off := range se.Offsets {
		if off == [2]int{0, 0} {
			found = true
		}
	}
	if !found {
		t.Error("expected disk SE to include the center offset")
	}
}

func TestOpenRemovesIsolatedSpeck(t *testing.T) {
	m := NewMask(5, 5)
	m.set(2, 2, true) // single isolated cell
	se := DiskSE(1)
	out := Open(m, se)
	if out.at(2, 2) {
		t.Error("expected opening to erase an isolated single-cell speck")
	}
}

func TestOpenPreservesSolidBlock(t *testing.T) {
	m := NewMask(5, 5)
	for r := 1; r <= 3; r++ {
		for c := 1; c <= 3; c++ {
			m.set(r, c, true)
		}
	}
	se := DiskSE(1)
	out := Open(m, se)
	if !out.at(2, 2) {
		t.Error("expected opening to preserve the core of a solid 3x3 block")
	}
}

func TestCloseFillsSmallHole(t *testing.T) {
	m := NewMask(5, 5)
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			if r == 2 && c == 2 {
				continue // hole
			}
			m.set(r, c, true)
		}
	}
	se := DiskSE(1)
	out := Close(m, se)
	if !out.at(2, 2) {
		t.Error("expected closing to fill the single-cell hole")
	}
}

func TestSeRadiusCellsAtLeastOne(t *testing.T) {
	if r := seRadiusCells(0.01, 1.0); r != 1 {
		t.Errorf("seRadiusCells = %d, want 1 (minimum)", r)
	}
}
