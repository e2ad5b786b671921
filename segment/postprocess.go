package segment

// Config parameterizes the Post-Processor.
type Config struct {
	// MinIdentity is the exon identity threshold below which an exon is
	// demoted to a gap; the effective threshold is max(MinIdentity, 0.90)
	// per spec.md §4.F step 1.
	MinIdentity float64
	// EndGapDetection forces terminal-exon improvement even when identity
	// already passes threshold.
	EndGapDetection bool
	// PolyADetection enables poly-A trimming/extension (steps 7-8).
	PolyADetection bool
}

const (
	minTermExonSize    = 20
	kMinTermExonIdty    = 0.90
	tinyExonMaxLen      = 5
	intronToExonRatio   = 300
	shrinkWeightMatch   = 1
	shrinkWeightOther   = -1
)

func effectiveMinIdentity(cfg Config) float64 {
	if cfg.MinIdentity > 0.90 {
		return cfg.MinIdentity
	}
	return 0.90
}

// Process runs the full Segment Post-Processor pipeline (spec.md §4.F steps
// 1-9) over the raw segment list the Spliced Aligner Driver produced for one
// compartment, and returns the final segment list in original-strand
// coordinates.
func Process(raw []Segment, query, subject []byte, queryMinus, subjMinus bool, subjMin, subjMax int32, cfg Config) []Segment {
	segs := append([]Segment(nil), raw...)

	segs = terminalImprovement(segs, cfg)
	segs = insertBoundaryGaps(segs, int32(len(query)), subjMin, subjMax)
	segs = demoteLowIdentity(segs, cfg)
	segs = demoteWeakTerminals(segs, cfg)
	segs = demoteTinyExons(segs)
	segs = coalesceGaps(segs)
	if cfg.PolyADetection {
		segs = extendPolyA(segs, query, subject)
		segs = reclassifyPolyA(segs, query)
	}

	out := make([]Segment, len(segs))
	for i, s := range segs {
		out[i] = Denormalize(s, queryMinus, subjMinus, int32(len(query)), subjMin, subjMax)
	}
	return out
}

// terminalImprovement implements step 1: trims the first/last exon from the
// outside in while its identity is below threshold (or end-gap detection
// forces it), choosing the trim point that maximizes a running match score.
// spec.md §4.F.1: "Repeat until the exon passes threshold or is exhausted" —
// a single trimTerminal pass can leave identity still under threshold (the
// best cut found this pass only improves it, doesn't guarantee it clears the
// bar), so each terminal exon is re-trimmed until it either passes or a pass
// makes no further progress.
func terminalImprovement(segs []Segment, cfg Config) []Segment {
	minIdty := effectiveMinIdentity(cfg)
	if len(segs) == 0 {
		return segs
	}
	for i := 0; i < len(segs); i++ {
		if segs[i].Kind != ExonKind {
			continue
		}
		for _, fromLeft := range []bool{true, false} {
			if (fromLeft && i != firstExonIndex(segs)) || (!fromLeft && i != lastExonIndex(segs)) {
				continue
			}
			for {
				if !cfg.EndGapDetection && segs[i].Identity >= minIdty {
					break
				}
				trimmed := trimTerminal(segs[i], fromLeft, minIdty)
				if trimmed.QBox == segs[i].QBox && trimmed.SBox == segs[i].SBox {
					break
				}
				segs[i] = trimmed
			}
		}
	}
	return segs
}

func firstExonIndex(segs []Segment) int {
	for i, s := range segs {
		if s.Kind == ExonKind {
			return i
		}
	}
	return -1
}

func lastExonIndex(segs []Segment) int {
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i].Kind == ExonKind {
			return i
		}
	}
	return -1
}

// trimTerminal walks the details string from the far end inward, tracking a
// running match score (M:+1, R/I/D:-1), records the prefix/suffix offering
// the best score, extends it through any immediately-following matches
// (tie-breaker), and applies the trim if the remainder still has query
// length >= 4.
func trimTerminal(s Segment, fromLeft bool, minIdty float64) Segment {
	details := s.Details
	if len(details) == 0 {
		return s
	}
	n := len(details)
	// Walk from the far end (right end when trimming from the left, per
	// spec.md: "walk the exon's per-column details from right to left").
	bestScore, score := 0, 0
	bestCut := 0
	for i := 0; i < n; i++ {
		var c byte
		if fromLeft {
			c = details[n-1-i]
		} else {
			c = details[i]
		}
		if c == 'M' {
			score += shrinkWeightMatch
		} else {
			score += shrinkWeightOther
		}
		if score >= bestScore {
			bestScore = score
			bestCut = i + 1
		}
	}
	// Extend through any additional matching residues beyond bestCut.
	for bestCut < n {
		var c byte
		if fromLeft {
			c = details[n-1-bestCut]
		} else {
			c = details[bestCut]
		}
		if c != 'M' {
			break
		}
		bestCut++
	}
	if bestCut == 0 {
		return s
	}
	var newDetails string
	var qTrim, sTrim int32
	if fromLeft {
		newDetails = details[n-bestCut:]
		qTrim, sTrim = consumed(details[:n-bestCut])
	} else {
		newDetails = details[:bestCut]
		qTrim, sTrim = consumed(details[bestCut:])
	}
	remainingQLen := s.QBox.Len() - qTrim
	if remainingQLen < 4 {
		return s
	}
	qBox, sBox := s.QBox, s.SBox
	if fromLeft {
		qBox.Lo += qTrim
		sBox.Lo += sTrim
	} else {
		qBox.Hi -= qTrim
		sBox.Hi -= sTrim
	}
	return NewExon(qBox, sBox, newDetails, s.Annotation, s.Score)
}

func consumed(details string) (q, s int32) {
	for _, c := range details {
		if ConsumesQuery(byte(c)) {
			q++
		}
		if ConsumesSubject(byte(c)) {
			s++
		}
	}
	return q, s
}

// insertBoundaryGaps implements step 2.
func insertBoundaryGaps(segs []Segment, queryLen int32, subjMin, subjMax int32) []Segment {
	if len(segs) == 0 {
		return segs
	}
	first := segs[0]
	if first.QBox.Lo > 0 {
		gap := NewGap(Box{0, first.QBox.Lo - 1}, Box{})
		segs = append([]Segment{gap}, segs...)
	}
	last := segs[len(segs)-1]
	if last.QBox.Hi < queryLen-1 {
		gap := NewGap(Box{last.QBox.Hi + 1, queryLen - 1}, Box{})
		segs = append(segs, gap)
	}
	return segs
}

// demoteLowIdentity implements step 3.
func demoteLowIdentity(segs []Segment, cfg Config) []Segment {
	minIdty := effectiveMinIdentity(cfg)
	for i, s := range segs {
		if s.Kind == ExonKind && s.Identity < minIdty {
			segs[i] = NewGap(s.QBox, s.SBox)
		}
	}
	return segs
}

// demoteWeakTerminals implements step 4.
func demoteWeakTerminals(segs []Segment, cfg Config) []Segment {
	for _, idx := range []int{firstExonIndex(segs), lastExonIndex(segs)} {
		if idx < 0 {
			continue
		}
		s := segs[idx]
		if s.Kind != ExonKind || s.Length >= minTermExonSize {
			continue
		}
		weak := s.Identity < kMinTermExonIdty
		if !weak {
			if neighborIntron, ok := adjacentIntronLen(segs, idx); ok {
				weak = float64(neighborIntron) > float64(s.Length)*intronToExonRatio
			}
		}
		if weak {
			segs[idx] = NewGap(s.QBox, s.SBox)
		}
	}
	return segs
}

func adjacentIntronLen(segs []Segment, idx int) (int32, bool) {
	if idx > 0 && segs[idx-1].Kind == GapKind {
		return segs[idx-1].QBox.Len(), true
	}
	if idx+1 < len(segs) && segs[idx+1].Kind == GapKind {
		return segs[idx+1].QBox.Len(), true
	}
	return 0, false
}

// demoteTinyExons implements step 5.
func demoteTinyExons(segs []Segment) []Segment {
	for i, s := range segs {
		if s.Kind != ExonKind || s.Length > tinyExonMaxLen {
			continue
		}
		adjacentGap := (i > 0 && segs[i-1].Kind == GapKind) || (i+1 < len(segs) && segs[i+1].Kind == GapKind)
		if adjacentGap {
			segs[i] = NewGap(s.QBox, s.SBox)
		}
	}
	return segs
}

// coalesceGaps implements step 6.
func coalesceGaps(segs []Segment) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		if s.Kind == GapKind && len(out) > 0 && out[len(out)-1].Kind == GapKind {
			prev := out[len(out)-1]
			merged := NewGap(Box{prev.QBox.Lo, s.QBox.Hi}, unionBox(prev.SBox, s.SBox))
			out[len(out)-1] = merged
			continue
		}
		out = append(out, s)
	}
	return out
}

func unionBox(a, b Box) Box {
	if a == (Box{}) {
		return b
	}
	if b == (Box{}) {
		return a
	}
	lo, hi := a.Lo, a.Hi
	if b.Lo < lo {
		lo = b.Lo
	}
	if b.Hi > hi {
		hi = b.Hi
	}
	return Box{lo, hi}
}

// extendPolyA implements step 7: extend the last exon's boxes while
// query==subject=='A'.
func extendPolyA(segs []Segment, query, subject []byte) []Segment {
	idx := lastExonIndex(segs)
	if idx < 0 || idx != len(segs)-1 {
		return segs
	}
	s := segs[idx]
	q := s.QBox.Hi + 1
	sp := s.SBox.Hi + 1
	extendedQ, extendedS := int32(0), int32(0)
	for int(q) < len(query) && query[q] == 'A' && int(sp) < len(subject) && subject[sp] == 'A' {
		q++
		sp++
		extendedQ++
		extendedS++
	}
	if extendedQ == 0 {
		return segs
	}
	newDetails := s.Details
	for i := int32(0); i < extendedQ; i++ {
		newDetails += "M"
	}
	qBox := Box{s.QBox.Lo, s.QBox.Hi + extendedQ}
	sBox := s.SBox
	if sBox != (Box{}) {
		sBox.Hi += extendedS
	}
	segs[idx] = NewExon(qBox, sBox, newDetails, s.Annotation, s.Score)
	return segs
}

// reclassifyPolyA implements step 8: walking back from the end, convert
// trailing segments to plain gaps while their query content is mostly 'A'.
func reclassifyPolyA(segs []Segment, query []byte) []Segment {
	for i := len(segs) - 1; i >= 0; i-- {
		s := segs[i]
		threshold := 0.60
		if hasConsensusSplice(s.Annotation) {
			threshold = 0.80
		}
		if s.Kind == GapKind && s.QBox.Len() <= 4 {
			threshold = 0.60
		}
		frac := fractionA(query, s.QBox)
		if frac < threshold {
			break
		}
		segs[i] = NewGap(s.QBox, s.SBox)
	}
	return segs
}

func fractionA(query []byte, box Box) float64 {
	n := box.Len()
	if n <= 0 {
		return 0
	}
	count := 0
	for i := box.Lo; i <= box.Hi; i++ {
		if int(i) >= 0 && int(i) < len(query) && query[i] == 'A' {
			count++
		}
	}
	return float64(count) / float64(n)
}

// hasConsensusSplice reports whether annotation encodes a GT/GC...AG splice
// pair, per spec.md §4.F's "Splice consensus" note.
func hasConsensusSplice(annotation string) bool {
	if len(annotation) < 4 {
		return false
	}
	donor := annotation[0:2]
	acceptor := annotation[2:4]
	return (donor == "GT" || donor == "GC") && acceptor == "AG"
}

// PolyAStart scans the query from the 3' end and returns the index just
// after the last non-'A' base, or (0, false) if the trailing run of 'A's is
// not longer than 3 (spec.md §4.F "Poly-A detection").
func PolyAStart(query []byte) (int32, bool) {
	n := len(query)
	i := n
	for i > 0 && query[i-1] == 'A' {
		i--
	}
	if n-i > 3 {
		return int32(i), true
	}
	return 0, false
}
