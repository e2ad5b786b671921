package nw

import "testing"

func TestPerfectMatch(t *testing.T) {
	a := New(DefaultConfig)
	seq := []byte("ATGAAACCCGGGTTT")
	if err := a.SetSequences(seq, seq, false); err != nil {
		t.Fatalf("SetSequences: %v", err)
	}
	a.SetEndSpaceFree(true, true, true, true)
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	exons := a.EmitExons()
	if len(exons) != 1 {
		t.Fatalf("len(exons) = %d, want 1", len(exons))
	}
	e := exons[0]
	if e.Identity != 1.0 {
		t.Errorf("Identity = %v, want 1.0", e.Identity)
	}
	if e.QLo != 0 || e.QHi != int32(len(seq)-1) {
		t.Errorf("QBox = [%d,%d], want [0,%d]", e.QLo, e.QHi, len(seq)-1)
	}
	for _, c := range e.Details {
		if c != 'M' {
			t.Errorf("details contains non-match symbol %q", c)
		}
	}
}

func TestEndSpaceFreeTrimsFlank(t *testing.T) {
	a := New(DefaultConfig)
	query := []byte("ATGAAACCC")
	subject := []byte("NNNNNATGAAACCCNNNNN")
	if err := a.SetSequences(query, subject, false); err != nil {
		t.Fatalf("SetSequences: %v", err)
	}
	a.SetEndSpaceFree(true, true, true, true)
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	exons := a.EmitExons()
	if len(exons) == 0 {
		t.Fatalf("expected at least one exon")
	}
	best := exons[0]
	for _, e := range exons[1:] {
		if e.Identity > best.Identity {
			best = e
		}
	}
	if best.Identity < 0.5 {
		t.Errorf("Identity = %v, want a reasonably high-identity core exon", best.Identity)
	}
}

// TestRunSplitsOnIntronRun confirms emitSplit segments a transcript on a
// long subject-only ('I') run, not the query-only ('D') symbol: an intron
// is bases present in the subject with no query counterpart.
func TestRunSplitsOnIntronRun(t *testing.T) {
	a := New(DefaultConfig)
	query := []byte("ATGCCC")
	subject := make([]byte, 26)
	copy(subject, "ATG")
	for i := 3; i < 23; i++ {
		subject[i] = 'N'
	}
	copy(subject[23:], "CCC")
	if err := a.SetSequences(query, subject, false); err != nil {
		t.Fatalf("SetSequences: %v", err)
	}
	a.SetEndSpaceFree(true, true, true, true)
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	exons := a.EmitExons()
	if len(exons) != 2 {
		t.Fatalf("len(exons) = %d, want 2 (split on the intron)", len(exons))
	}
	if exons[0].Identity != 1.0 || exons[1].Identity != 1.0 {
		t.Errorf("exon identities = %v, %v, want 1.0, 1.0", exons[0].Identity, exons[1].Identity)
	}
	if exons[0].QHi != 2 || exons[1].QLo != 3 {
		t.Errorf("exons = %+v, %+v, want a split between q=2 and q=3", exons[0], exons[1])
	}
}

func TestScoreFromTranscript(t *testing.T) {
	a := New(DefaultConfig)
	got := a.ScoreFromTranscript("MMMRIID")
	want := int32(3*1 + 1*(-1) + 3*(-2))
	if got != want {
		t.Errorf("ScoreFromTranscript = %d, want %d", got, want)
	}
}

// TestRunBandedByPattern confirms a pattern anchor restricts the DP without
// losing the alignment it actually describes.
func TestRunBandedByPattern(t *testing.T) {
	a := New(DefaultConfig)
	seq := []byte("ATGAAACCCGGGTTT")
	if err := a.SetSequences(seq, seq, false); err != nil {
		t.Fatalf("SetSequences: %v", err)
	}
	if err := a.SetPattern([]int32{0, int32(len(seq) - 1), 0, int32(len(seq) - 1)}); err != nil {
		t.Fatalf("SetPattern: %v", err)
	}
	a.SetEndSpaceFree(true, true, true, true)
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	exons := a.EmitExons()
	if len(exons) != 1 {
		t.Fatalf("len(exons) = %d, want 1", len(exons))
	}
	if exons[0].Identity != 1.0 {
		t.Errorf("Identity = %v, want 1.0", exons[0].Identity)
	}
}

func TestValidDetails(t *testing.T) {
	if !ValidDetails("MMRID") {
		t.Errorf("ValidDetails(MMRID) = false, want true")
	}
	if ValidDetails("MMXID") {
		t.Errorf("ValidDetails(MMXID) = true, want false")
	}
}
