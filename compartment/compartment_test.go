package compartment

import (
	"testing"

	"github.com/grailbio/splign/hit"
)

func TestFindSingleCompartment(t *testing.T) {
	hits := []hit.Hit{
		hit.New("q", "s", 0, 9, 100, 109, 10, 0),
		hit.New("q", "s", 10, 19, 110, 119, 10, 0),
	}
	cs := Find(hits, Config{MinCoverage: 15, CompartmentPenalty: 0.01})
	if len(cs) != 1 {
		t.Fatalf("len(cs) = %d, want 1", len(cs))
	}
	if cs[0].QueryCoverage != 20 {
		t.Errorf("QueryCoverage = %d, want 20", cs[0].QueryCoverage)
	}
}

func TestFindRejectsLowCoverage(t *testing.T) {
	hits := []hit.Hit{
		hit.New("q", "s", 0, 4, 100, 104, 5, 0),
	}
	cs := Find(hits, Config{MinCoverage: 100, CompartmentPenalty: 0.01})
	if len(cs) != 0 {
		t.Fatalf("len(cs) = %d, want 0 (coverage too low)", len(cs))
	}
}

func TestFindSplitsOnIntronLimit(t *testing.T) {
	hits := []hit.Hit{
		hit.New("q", "s", 0, 9, 100, 109, 10, 0),
		hit.New("q", "s", 10, 19, 100000, 100009, 10, 0),
	}
	cs := Find(hits, Config{MinCoverage: 5, CompartmentPenalty: 0.0, IntronLimit: 1000})
	if len(cs) != 2 {
		t.Fatalf("len(cs) = %d, want 2 (subject gap exceeds intron limit)", len(cs))
	}
}

func TestFindSeparatesStrands(t *testing.T) {
	hits := []hit.Hit{
		hit.New("q", "s", 0, 9, 100, 109, 10, 0),
		hit.New("q", "s", 0, 9, 209, 200, 10, 0),
	}
	cs := Find(hits, Config{MinCoverage: 5, CompartmentPenalty: 0.0})
	if len(cs) != 2 {
		t.Fatalf("len(cs) = %d, want 2 (one per strand)", len(cs))
	}
}
