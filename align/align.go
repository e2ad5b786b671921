// Package align defines the Spliced Aligner capability interface the Engine
// consumes as an external collaborator, and the Spliced Aligner Driver that
// invokes it per alignment-map zone.
package align

import (
	"github.com/grailbio/splign/splerr"
)

// ExonRecord is one exon the Aligner emits: a contiguous aligned segment
// with its per-column transcript.
type ExonRecord struct {
	ID1, ID2 string
	Identity float64
	Length   int32
	QLo, QHi int32
	SLo, SHi int32
	// Annotation is the 2-char donor and acceptor context plus 4-char
	// flanking splice-site text, or empty when not applicable.
	Annotation string
	// Details is the per-column transcript: M (match), R (mismatch),
	// I (insertion on subject), D (deletion on subject).
	Details string
}

// Aligner is the capability interface the Engine consumes for the pairwise
// dynamic-programming kernel. Implementations are supplied by the caller;
// the Engine performs no runtime downcasts on it.
type Aligner interface {
	// SetSequences provides the two sequences to align, in a single upper-case
	// IUPAC alphabet. If copy is true the Aligner must not retain references
	// into seq1/seq2 beyond the call.
	SetSequences(seq1, seq2 []byte, copy bool) error
	// SetPattern supplies a flat vector of anchors, four int32s per anchor:
	// (q_lo, q_hi, s_lo, s_hi), coordinates zone-local and 0-based.
	SetPattern(anchors []int32) error
	// SetEndSpaceFree toggles end-space-free alignment independently on all
	// four ends (left/right of each sequence).
	SetEndSpaceFree(l1, r1, l2, r2 bool)
	// Run executes the alignment.
	Run() error
	// EmitExons returns the resulting exon table.
	EmitExons() []ExonRecord
	// ScoreFromTranscript scores a details string without performing a full
	// alignment; used by the engine to score each emitted exon.
	ScoreFromTranscript(details string) int32
}

// ValidatePattern checks the §3 Pattern Anchor ordering invariant: anchors
// strictly ascending on both axes, and a well-formed flat vector.
func ValidatePattern(anchors []int32) error {
	if len(anchors)%4 != 0 {
		return splerr.ErrInvalidPatternCoordinates
	}
	n := len(anchors) / 4
	for i := 1; i < n; i++ {
		prevQHi, prevSHi := anchors[(i-1)*4+1], anchors[(i-1)*4+3]
		curQLo, curSLo := anchors[i*4+0], anchors[i*4+2]
		if !(prevQHi < curQLo && prevSHi < curSLo) {
			return splerr.ErrInvalidPatternCoordinates
		}
	}
	return nil
}
