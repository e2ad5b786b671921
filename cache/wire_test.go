package cache

import (
	"reflect"
	"testing"

	"github.com/grailbio/splign/segment"
)

func TestRoundTrip(t *testing.T) {
	a := AlignedCompartment{
		ID:          7,
		Error:       false,
		Message:     "",
		QueryStrand: true,
		SubjStrand:  true,
		Segments: []segment.Segment{
			segment.NewExon(segment.Box{0, 9}, segment.Box{100, 109}, "MMMMMMMMMM", "GTAAAG", 10),
			segment.NewGap(segment.Box{10, 19}, segment.Box{110, 200}),
			segment.NewExon(segment.Box{20, 29}, segment.Box{201, 210}, "MMMMMRRMMM", "", 8),
		},
	}
	encoded := Encode(a)
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(a, decoded) {
		t.Fatalf("round-trip mismatch:\n got: %+v\nwant: %+v", decoded, a)
	}
}

func TestDecodeTruncatedBuffer(t *testing.T) {
	a := AlignedCompartment{ID: 1, Message: "boom"}
	encoded := Encode(a)
	_, err := Decode(encoded[:len(encoded)-2])
	if err == nil {
		t.Fatalf("expected ErrSerializationIncomplete on truncated buffer")
	}
}

func TestEncodeErrorCompartment(t *testing.T) {
	a := AlignedCompartment{ID: 3, Error: true, Message: "no alignment"}
	encoded := Encode(a)
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !decoded.Error || decoded.Message != "no alignment" {
		t.Errorf("decoded = %+v, want Error=true Message=%q", decoded, "no alignment")
	}
}
