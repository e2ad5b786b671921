// Package segment implements the Segment model and the Segment
// Post-Processor: the stage that trims terminal exons, demotes low-identity
// or tiny exons to gaps, coalesces adjacent gaps, extends poly-A, and
// denormalizes coordinates back to the original strand.
package segment

import "github.com/grailbio/bio/biosimd"

// Kind distinguishes the two Segment variants.
type Kind int

const (
	ExonKind Kind = iota
	GapKind
)

// GapAnnotation is the Gap variant's fixed annotation tag.
const GapAnnotation = "<GAP>"

// Box is an inclusive 0-based coordinate range.
type Box struct{ Lo, Hi int32 }

// Len returns the number of positions the box covers.
func (b Box) Len() int32 {
	if b.Hi < b.Lo {
		return 0
	}
	return b.Hi - b.Lo + 1
}

// Segment is one aligned (Exon) or unaligned (Gap) span along the query.
type Segment struct {
	Kind       Kind
	QBox, SBox Box
	// Details is the per-column transcript (Exon only): M/R/I/D.
	Details string
	// Annotation is the 4-char splice context, 2 donor chars then 2 acceptor
	// chars ("NN" for a side with no neighbouring intron) (Exon), or
	// GapAnnotation (Gap). No flanking text beyond these 4 chars is stored.
	Annotation string
	Identity   float64
	Length     int32
	Score      float64
}

// NewExon builds an Exon segment and derives Length/Identity from details.
func NewExon(qBox, sBox Box, details, annotation string, score float64) Segment {
	length, matches := 0, 0
	for _, c := range details {
		length++
		if c == 'M' {
			matches++
		}
	}
	identity := 0.0
	if length > 0 {
		identity = float64(matches) / float64(length)
	}
	return Segment{
		Kind: ExonKind, QBox: qBox, SBox: sBox,
		Details: details, Annotation: annotation,
		Identity: identity, Length: int32(length), Score: score,
	}
}

// NewGap builds a Gap segment spanning qBox/sBox.
func NewGap(qBox, sBox Box) Segment {
	return Segment{Kind: GapKind, QBox: qBox, SBox: sBox, Annotation: GapAnnotation}
}

// ConsumesQuery/ConsumesSubject report whether a details symbol advances
// the query/subject coordinate, per spec.md §3's Segment invariant.
func ConsumesQuery(c byte) bool   { return c == 'M' || c == 'R' || c == 'D' }
func ConsumesSubject(c byte) bool { return c == 'M' || c == 'R' || c == 'I' }

// Denormalize converts a plus/plus-strand segment's coordinates back to the
// original query/subject strands (spec.md §4.F.9). queryLen/subjMin/subjMax
// describe the original frame; a Gap with no subject anchor (SBox zero
// value) keeps its zeroed SBox.
func Denormalize(s Segment, queryMinus, subjMinus bool, queryLen int32, subjMin, subjMax int32) Segment {
	out := s
	if queryMinus {
		out.QBox = Box{Lo: queryLen - 1 - s.QBox.Hi, Hi: queryLen - 1 - s.QBox.Lo}
		if s.Kind == ExonKind {
			out.Details = reverseDetails(s.Details)
			out.Annotation = reverseAnnotation(s.Annotation)
		}
	}
	if subjMinus && s.SBox != (Box{}) {
		out.SBox = Box{Lo: subjMin + subjMax - s.SBox.Hi, Hi: subjMin + subjMax - s.SBox.Lo}
	}
	return out
}

func reverseDetails(d string) string {
	b := []byte(d)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

func reverseAnnotation(a string) string {
	b := []byte(a)
	biosimd.ReverseComp8Inplace(b)
	return string(b)
}
