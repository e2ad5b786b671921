package pattern

import (
	"math"
	"testing"

	"github.com/grailbio/splign/hit"
)

func TestBuildSingleAnchor(t *testing.T) {
	query := []byte("ATGAAACCCGGGTTT")
	subject := make([]byte, 200)
	for i := range subject {
		subject[i] = 'N'
	}
	copy(subject[100:115], query)

	hits := []hit.Hit{hit.New("q", "s", 0, 14, 100, 114, 15, 0)}
	anchors, elem, err := Build(query, subject, hits, DefaultConfig, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(anchors) != 1 {
		t.Fatalf("len(anchors) = %d, want 1", len(anchors))
	}
	if anchors[0].QLo != 0 || anchors[0].QHi != 14 {
		t.Errorf("anchor QBox = [%d,%d], want [0,14]", anchors[0].QLo, anchors[0].QHi)
	}
	if elem.PatternStart != 0 || elem.PatternEnd != 0 {
		t.Errorf("PatternStart/End = %d/%d, want 0/0", elem.PatternStart, elem.PatternEnd)
	}
	if elem.QBox.Lo != 0 || elem.QBox.Hi != int32(len(query))-1 {
		t.Errorf("QBox = %+v", elem.QBox)
	}
}

func TestBuildDropsShortHits(t *testing.T) {
	query := make([]byte, 50)
	subject := make([]byte, 50)
	hits := []hit.Hit{hit.New("q", "s", 0, 4, 0, 4, 5, 0)} // length 5 < MinHitQueryLen
	anchors, elem, err := Build(query, subject, hits, DefaultConfig, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(anchors) != 0 {
		t.Fatalf("len(anchors) = %d, want 0", len(anchors))
	}
	if elem.PatternStart != -1 || elem.PatternEnd != -1 {
		t.Errorf("expected sentinel pattern range, got %d/%d", elem.PatternStart, elem.PatternEnd)
	}
}

func TestBuildRejectsOutOfBoundsAnchor(t *testing.T) {
	query := make([]byte, 20)
	subject := make([]byte, 20)
	hits := []hit.Hit{hit.New("q", "s", 0, 14, 0, 25, 15, 0)} // subject hi beyond len
	_, _, err := Build(query, subject, hits, DefaultConfig, nil)
	if err == nil {
		t.Fatalf("expected InvalidRange error")
	}
}

func TestSubdivideLongAnchor(t *testing.T) {
	anchors := []Anchor{{QLo: 0, QHi: 99, SLo: 0, SHi: 99}}
	out := subdivideAll(anchors, 50)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0].QHi >= out[1].QLo {
		t.Errorf("subdivided anchors not strictly ascending: %+v", out)
	}
}

func TestDefaultConfigDisablesSubdivision(t *testing.T) {
	if DefaultConfig.MaxAnchorLen != math.MaxInt32 {
		t.Errorf("DefaultConfig.MaxAnchorLen = %d, want MaxInt32", DefaultConfig.MaxAnchorLen)
	}
}
