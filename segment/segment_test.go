package segment

import "testing"

func TestNewExonIdentity(t *testing.T) {
	e := NewExon(Box{0, 14}, Box{100, 114}, "MMMMMMMMMMMMMMM", "", 15)
	if e.Identity != 1.0 {
		t.Errorf("Identity = %v, want 1.0", e.Identity)
	}
	if e.Length != 15 {
		t.Errorf("Length = %d, want 15", e.Length)
	}
}

func TestDenormalizeMinusQuery(t *testing.T) {
	e := NewExon(Box{0, 14}, Box{100, 114}, "MMMMMMMMMMMMMMM", "", 15)
	out := Denormalize(e, true, false, 15, 100, 114)
	if out.QBox.Lo != 0 || out.QBox.Hi != 14 {
		t.Errorf("QBox after denormalization = %+v, want [0,14]", out.QBox)
	}
}

func TestDenormalizeMinusSubject(t *testing.T) {
	e := NewExon(Box{0, 14}, Box{100, 104}, "MMMMM", "", 5)
	out := Denormalize(e, false, true, 15, 100, 114)
	// mirror over [100,114]: s=100 -> 114, s=104 -> 110
	if out.SBox.Lo != 110 || out.SBox.Hi != 114 {
		t.Errorf("SBox after subject mirroring = %+v, want [110,114]", out.SBox)
	}
}

func TestPolyAStart(t *testing.T) {
	query := []byte("ATGAAACCCTAGAAAAAAAA")
	start, ok := PolyAStart(query)
	if !ok {
		t.Fatalf("expected poly-A detected")
	}
	want := int32(len("ATGAAACCCTAG"))
	if start != want {
		t.Errorf("PolyAStart = %d, want %d", start, want)
	}
}

func TestPolyAStartTooShort(t *testing.T) {
	query := []byte("ATGAAACCCTAGAA")
	_, ok := PolyAStart(query)
	if ok {
		t.Errorf("expected no poly-A detected for a 2-base trailing run")
	}
}

func TestCoalesceGaps(t *testing.T) {
	segs := []Segment{
		NewExon(Box{0, 9}, Box{0, 9}, "MMMMMMMMMM", "", 10),
		NewGap(Box{10, 19}, Box{}),
		NewGap(Box{20, 29}, Box{}),
		NewExon(Box{30, 39}, Box{30, 39}, "MMMMMMMMMM", "", 10),
	}
	out := coalesceGaps(segs)
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
	if out[1].QBox.Lo != 10 || out[1].QBox.Hi != 29 {
		t.Errorf("merged gap QBox = %+v, want [10,29]", out[1].QBox)
	}
}

func TestDemoteLowIdentity(t *testing.T) {
	segs := []Segment{
		NewExon(Box{0, 9}, Box{0, 9}, "MMMMRRRRRR", "", 4), // identity 0.4
	}
	out := demoteLowIdentity(segs, Config{MinIdentity: 0.9})
	if out[0].Kind != GapKind {
		t.Errorf("expected low-identity exon to be demoted to a gap")
	}
}

func TestNoAdjacentGapsInvariant(t *testing.T) {
	segs := []Segment{
		NewGap(Box{0, 9}, Box{}),
		NewGap(Box{10, 19}, Box{}),
	}
	out := coalesceGaps(segs)
	for i := 1; i < len(out); i++ {
		if out[i-1].Kind == GapKind && out[i].Kind == GapKind {
			t.Fatalf("adjacent gaps survived coalescing")
		}
	}
}
