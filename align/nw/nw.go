// Package nw implements align.Aligner with a Needleman-Wunsch-style dynamic
// program, adapted from a biogo-derived nucleotide aligner: the row-major
// score matrix and diagonal/up/left traceback are the same shape, retargeted
// from a protein substitution matrix to nucleotide match/mismatch/gap
// scoring, end-space-free on all four ends, and restricted to the single
// window the Spliced Aligner Driver hands it per zone.
package nw

import (
	"strings"

	"github.com/grailbio/splign/align"
	"github.com/grailbio/splign/splerr"
)

// Config holds the linear scoring scheme.
type Config struct {
	Match, Mismatch, Gap int32
	// SplitGapRun is the length of a consecutive run of subject-only
	// consumption ('I': bases present in the subject but not the query, i.e.
	// an intron) at or above which the Aligner reports two separate exons instead
	// of one continuous exon spanning the intron. 0 disables splitting (a
	// single exon is always emitted).
	SplitGapRun int32
	// BandWidth restricts the DP to cells within BandWidth columns of the
	// diagonal interpolated from the anchors set via SetPattern, the way
	// splign_util.cpp restricts its DP band around the pattern it is handed.
	// Rows outside the anchors' query span (the unanchored flanks) are left
	// unbanded. 0 (or no pattern set) disables banding: the full matrix is
	// computed.
	BandWidth int32
}

// DefaultConfig is a simple +1/-1/-2 scheme without a dedicated gap-open
// penalty, adequate for the short, already-anchored windows this Aligner
// is invoked on.
var DefaultConfig = Config{Match: 1, Mismatch: -1, Gap: -2, SplitGapRun: 15, BandWidth: 50}

// negInf marks a DP cell left out of the band: never the traceback-maximal
// choice next to a real score, but distinguishable from a genuine (small)
// negative alignment score.
const negInf = int32(-1 << 30)

// Aligner is a concrete align.Aligner.
type Aligner struct {
	cfg Config

	seq1, seq2 []byte
	pattern    []int32

	freeL1, freeR1, freeL2, freeR2 bool

	exons []align.ExonRecord
}

// New returns an Aligner using cfg.
func New(cfg Config) *Aligner {
	return &Aligner{cfg: cfg}
}

func (a *Aligner) SetSequences(seq1, seq2 []byte, copy bool) error {
	if len(seq1) == 0 || len(seq2) == 0 {
		return splerr.ErrInvalidRange
	}
	if copy {
		s1 := make([]byte, len(seq1))
		c(s1, seq1)
		s2 := make([]byte, len(seq2))
		c(s2, seq2)
		a.seq1, a.seq2 = s1, s2
	} else {
		a.seq1, a.seq2 = seq1, seq2
	}
	return nil
}

func c(dst, src []byte) { copy(dst, src) }

func (a *Aligner) SetPattern(anchors []int32) error {
	if len(anchors) == 0 {
		a.pattern = nil
		return nil
	}
	if err := align.ValidatePattern(anchors); err != nil {
		return err
	}
	a.pattern = anchors
	return nil
}

func (a *Aligner) SetEndSpaceFree(l1, r1, l2, r2 bool) {
	a.freeL1, a.freeR1, a.freeL2, a.freeR2 = l1, r1, l2, r2
}

// Run performs the alignment. When a pattern was supplied via SetPattern and
// cfg.BandWidth > 0, the DP is banded: only columns within BandWidth of the
// diagonal interpolated from the anchors are computed for rows that fall
// inside the anchors' query span, the way splign_util.cpp restricts its DP
// band around the pattern it is handed. Rows outside that span (the
// unanchored flanks) are computed in full.
func (a *Aligner) Run() error {
	if a.seq1 == nil || a.seq2 == nil {
		return splerr.ErrInvalidRange
	}
	rows, cols := len(a.seq1)+1, len(a.seq2)+1
	band := newBand(a.pattern, a.cfg.BandWidth, rows, cols)

	dp := make([][]int32, rows)
	for i := range dp {
		dp[i] = make([]int32, cols)
		if i > 0 {
			for j := range dp[i] {
				dp[i][j] = negInf
			}
		}
	}
	for j := 1; j < cols; j++ {
		if a.freeL1 {
			dp[0][j] = 0
		} else {
			dp[0][j] = dp[0][j-1] + a.cfg.Gap
		}
	}
	for i := 1; i < rows; i++ {
		if a.freeL2 {
			dp[i][0] = 0
		} else {
			dp[i][0] = dp[i-1][0] + a.cfg.Gap
		}
	}
	for i := 1; i < rows; i++ {
		loJ, hiJ := band.columns(i)
		if loJ < 1 {
			loJ = 1
		}
		for j := loJ; j <= hiJ; j++ {
			sdiag := dp[i-1][j-1] + a.score(a.seq1[i-1], a.seq2[j-1])
			sup := dp[i-1][j] + a.cfg.Gap
			sleft := dp[i][j-1] + a.cfg.Gap
			switch {
			case sdiag >= sup && sdiag >= sleft:
				dp[i][j] = sdiag
			case sup >= sleft:
				dp[i][j] = sup
			default:
				dp[i][j] = sleft
			}
		}
	}

	endI, endJ := rows-1, cols-1
	if a.freeR1 || a.freeR2 {
		best := dp[endI][endJ]
		bi, bj := endI, endJ
		if a.freeR1 {
			for j := 0; j < cols; j++ {
				if dp[endI][j] > best {
					best, bi, bj = dp[endI][j], endI, j
				}
			}
		}
		if a.freeR2 {
			for i := 0; i < rows; i++ {
				if dp[i][endJ] > best {
					best, bi, bj = dp[i][endJ], i, endJ
				}
			}
		}
		endI, endJ = bi, bj
	}

	var details []byte
	i, j := endI, endJ
	for i > 0 && j > 0 {
		sdiag := dp[i-1][j-1] + a.score(a.seq1[i-1], a.seq2[j-1])
		switch {
		case dp[i][j] == sdiag:
			if a.seq1[i-1] == a.seq2[j-1] {
				details = append(details, 'M')
			} else {
				details = append(details, 'R')
			}
			i--
			j--
		case dp[i][j] == dp[i-1][j]+a.cfg.Gap:
			details = append(details, 'D')
			i--
		default:
			details = append(details, 'I')
			j--
		}
	}
	qLo, sLo := i, j
	for k, l := 0, len(details)-1; k < l; k, l = k+1, l-1 {
		details[k], details[l] = details[l], details[k]
	}

	a.exons = a.exons[:0]
	a.emitSplit(qLo, sLo, string(details))
	return nil
}

// band interpolates the expected subject column for each query row from the
// anchors supplied via SetPattern, so Run can skip DP cells far from the
// pattern's diagonal.
type band struct {
	width    int32
	rows     int32
	cols     int32
	pivotQ   []int32
	pivotS   []int32
}

// newBand builds a band from a flat (QLo,QHi,SLo,SHi)* anchor vector given in
// 0-based sequence coordinates, shifted by one into the DP row/col frame. An
// empty pattern or width <= 0
// disables banding entirely.
func newBand(pattern []int32, width int32, rows, cols int) *band {
	b := &band{width: width, rows: int32(rows), cols: int32(cols)}
	if width <= 0 || len(pattern) == 0 {
		return b
	}
	for k := 0; k+3 < len(pattern); k += 4 {
		qLo, qHi, sLo, sHi := pattern[k], pattern[k+1], pattern[k+2], pattern[k+3]
		b.pivotQ = append(b.pivotQ, qLo+1, qHi+1)
		b.pivotS = append(b.pivotS, sLo+1, sHi+1)
	}
	return b
}

// columns returns the inclusive column range to compute for DP row i (the
// query base at sequence index i-1). Rows outside the anchors' query span
// are left unbanded (the full [1, cols-1] range).
func (b *band) columns(i int) (lo, hi int) {
	if b.width <= 0 || len(b.pivotQ) == 0 {
		return 1, int(b.cols) - 1
	}
	q := int32(i)
	if q < b.pivotQ[0] || q > b.pivotQ[len(b.pivotQ)-1] {
		return 1, int(b.cols) - 1
	}
	expected := b.interpolate(q)
	lo64 := int64(expected) - int64(b.width)
	hi64 := int64(expected) + int64(b.width)
	if lo64 < 1 {
		lo64 = 1
	}
	if hi64 > int64(b.cols)-1 {
		hi64 = int64(b.cols) - 1
	}
	return int(lo64), int(hi64)
}

// interpolate linearly interpolates the expected subject column for query
// position q between the two bracketing pivots.
func (b *band) interpolate(q int32) int32 {
	for k := 0; k+1 < len(b.pivotQ); k++ {
		q0, q1 := b.pivotQ[k], b.pivotQ[k+1]
		if q < q0 || q > q1 {
			continue
		}
		s0, s1 := b.pivotS[k], b.pivotS[k+1]
		if q1 == q0 {
			return s0
		}
		return s0 + (s1-s0)*(q-q0)/(q1-q0)
	}
	return b.pivotS[len(b.pivotS)-1]
}

// emitSplit appends one ExonRecord per run of details separated by an
// intron — a subject-only ('I') run at least SplitGapRun long — translating
// coordinates back from the aligned-column frame to sequence coordinates.
func (a *Aligner) emitSplit(qStart, sStart int, details string) {
	if a.cfg.SplitGapRun <= 0 {
		a.appendExon(qStart, sStart, details)
		return
	}
	q, s := qStart, sStart
	runStart := 0
	i := 0
	for i < len(details) {
		if details[i] != 'I' {
			i++
			continue
		}
		intronEnd := i
		for intronEnd < len(details) && details[intronEnd] == 'I' {
			intronEnd++
		}
		intronRun := intronEnd - i
		if intronRun < int(a.cfg.SplitGapRun) {
			i = intronEnd
			continue
		}
		seg := details[runStart:i]
		a.appendExon(q, s, seg)
		q, s = advance(q, s, seg)
		q, s = advance(q, s, details[i:intronEnd])
		runStart = intronEnd
		i = intronEnd
	}
	if runStart < len(details) {
		a.appendExon(q, s, details[runStart:])
	}
}

func advance(q, s int, seg string) (int, int) {
	for _, c := range seg {
		switch c {
		case 'M', 'R':
			q++
			s++
		case 'D':
			q++
		case 'I':
			s++
		}
	}
	return q, s
}

func (a *Aligner) appendExon(qStart, sStart int, details string) {
	if len(details) == 0 {
		return
	}
	qLen, sLen := 0, 0
	match := 0
	for _, c := range details {
		switch c {
		case 'M':
			qLen++
			sLen++
			match++
		case 'R':
			qLen++
			sLen++
		case 'D':
			qLen++
		case 'I':
			sLen++
		}
	}
	if qLen == 0 && sLen == 0 {
		return
	}
	identity := 0.0
	if total := len(details); total > 0 {
		identity = float64(match) / float64(total)
	}
	a.exons = append(a.exons, align.ExonRecord{
		Identity: identity,
		Length:   int32(len(details)),
		QLo:      int32(qStart),
		QHi:      int32(qStart + qLen - 1),
		SLo:      int32(sStart),
		SHi:      int32(sStart + sLen - 1),
		Details:  details,
	})
}

func (a *Aligner) EmitExons() []align.ExonRecord { return a.exons }

func (a *Aligner) ScoreFromTranscript(details string) int32 {
	var score int32
	for _, c := range details {
		switch c {
		case 'M':
			score += a.cfg.Match
		case 'R':
			score += a.cfg.Mismatch
		case 'I', 'D':
			score += a.cfg.Gap
		}
	}
	return score
}

func (a *Aligner) score(x, y byte) int32 {
	if x == y {
		return a.cfg.Match
	}
	return a.cfg.Mismatch
}

// DetailsAlphabet is the set of valid per-column transcript symbols.
const DetailsAlphabet = "MRID"

// ValidDetails reports whether every symbol in details is in {M,R,I,D}.
func ValidDetails(details string) bool {
	return strings.TrimLeft(details, DetailsAlphabet) == ""
}
