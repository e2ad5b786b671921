package hit

import "testing"

func TestLengths(t *testing.T) {
	h := New("q", "s", 0, 14, 100, 114, 15, 0)
	if got := h.LengthQ(); got != 15 {
		t.Errorf("LengthQ() = %d, want 15", got)
	}
	if got := h.LengthS(); got != 15 {
		t.Errorf("LengthS() = %d, want 15", got)
	}
	if !h.IsPlusStrand() {
		t.Errorf("IsPlusStrand() = false, want true")
	}
}

func TestMinusStrand(t *testing.T) {
	h := New("q", "s", 0, 14, 114, 100, 15, 0)
	if h.IsPlusStrand() {
		t.Errorf("IsPlusStrand() = true, want false")
	}
	if got := h.LengthS(); got != 15 {
		t.Errorf("LengthS() = %d, want 15", got)
	}
}

func TestIsConsistent(t *testing.T) {
	h := New("q", "s", 0, 14, 100, 114, 15, 0)
	if !h.IsConsistent() {
		t.Errorf("freshly constructed hit should be consistent")
	}
	h.MoveBoundary(QLo, 5)
	if !h.IsConsistent() {
		t.Errorf("trim within original bounds should remain consistent")
	}
	h.MoveBoundary(QLo, -1)
	if h.IsConsistent() {
		t.Errorf("moving past the original bound should be inconsistent")
	}
}

func TestMoveBoundaryEmptiesHit(t *testing.T) {
	h := New("q", "s", 0, 14, 100, 114, 15, 0)
	h.MoveBoundary(QLo, 20)
	if h.IsConsistent() {
		t.Errorf("QLo past QHi should be inconsistent")
	}
}

func TestTranslate(t *testing.T) {
	h := New("q", "s", 10, 20, 110, 120, 11, 0)
	h.Translate(-10, -110)
	if h.QLo != 0 || h.QHi != 10 || h.SLo != 0 || h.SHi != 10 {
		t.Errorf("Translate did not shift current endpoints: %+v", h)
	}
	if h.OrigQLo != 0 || h.OrigSLo != 0 {
		t.Errorf("Translate did not shift original endpoints: %+v", h)
	}
}

func TestChecksumAndEqual(t *testing.T) {
	a := New("q", "s", 0, 14, 100, 114, 15, 0)
	b := New("q2", "s2", 0, 14, 100, 114, 99, 7)
	if a.Checksum() != b.Checksum() {
		t.Errorf("checksum should only depend on the four endpoints")
	}
	if !a.Equal(&b) {
		t.Errorf("Equal should only depend on the four endpoints")
	}
	c := New("q", "s", 1, 14, 100, 114, 15, 0)
	if a.Equal(&c) {
		t.Errorf("Equal should distinguish differing endpoints")
	}
}

func TestComparators(t *testing.T) {
	a := New("q", "s", 0, 10, 100, 110, 5, 0)
	b := New("q", "s", 5, 15, 90, 100, 9, 0)
	if !ByQueryStart(a, b) {
		t.Errorf("ByQueryStart: expected a before b")
	}
	if !ByScoreDescending(b, a) {
		t.Errorf("ByScoreDescending: expected b before a")
	}
	if !BySubjectStart(b, a) {
		t.Errorf("BySubjectStart: expected b before a")
	}
}
