// Package pattern implements the Pattern Builder: from a compartment's
// strand-normalized hits, it constructs anchor quadruples and the (single,
// per the Engine's usage) alignment-map zone the Spliced Aligner Driver
// invokes per compartment.
package pattern

import (
	"math"
	"sort"

	"github.com/grailbio/splign/align"
	"github.com/grailbio/splign/hit"
	"github.com/grailbio/splign/splerr"
)

// MinHitQueryLen is the minimum query length (spec.md §4.D step 2) a hit
// must have to contribute an anchor.
const MinHitQueryLen = 10

// Config parameterizes anchor construction.
type Config struct {
	// MaxAnchorLen subdivides any anchor whose query span exceeds it into
	// equal parts, preserving endpoint alignment. math.MaxInt32 disables
	// subdivision (the Open-Question resolution recorded in DESIGN.md).
	MaxAnchorLen int32
	// Realign enables the step-5 core-shrink-then-extend anchor refinement
	// via the supplied Aligner. When false (or Aligner is nil), raw anchors
	// are used unchanged.
	Realign bool
}

// DefaultConfig leaves subdivision disabled, matching the source's
// kMax_UInt default.
var DefaultConfig = Config{MaxAnchorLen: math.MaxInt32}

// Anchor is the Pattern Anchor of spec.md §3.
type Anchor struct {
	QLo, QHi int32
	SLo, SHi int32
}

// Box is a half-open-on-neither-end 0-based coordinate range, inclusive on
// both ends (consistent with the rest of this module's coordinate style).
type Box struct{ Lo, Hi int32 }

// MapElement is the Alignment Map Element of spec.md §3. PatternStart/End
// are inclusive indices into the anchor vector, or -1/-1 for "no anchors".
type MapElement struct {
	QBox, SBox               Box
	PatternStart, PatternEnd int
}

// Build constructs the anchor vector and the single alignment-map zone for
// one compartment's hits. query/subject are already strand-normalized
// (both plus) full sequences; aligner, when cfg.Realign is true, is used to
// refine each raw anchor to its longest perfectly-matched core.
func Build(query, subject []byte, hits []hit.Hit, cfg Config, aligner align.Aligner) ([]Anchor, MapElement, error) {
	ordered := append([]hit.Hit(nil), hits...)
	sort.Slice(ordered, func(i, j int) bool { return hit.ByQueryStart(ordered[i], ordered[j]) })

	var raw []Anchor
	for _, h := range ordered {
		if h.LengthQ() < MinHitQueryLen {
			continue
		}
		raw = append(raw, Anchor{QLo: h.QLo, QHi: h.QHi, SLo: h.SLo, SHi: h.SHi})
	}

	raw = subdivideAll(raw, cfg.MaxAnchorLen)

	for _, a := range raw {
		if a.QLo < 0 || a.QHi >= int32(len(query)) || a.SLo < 0 || a.SHi >= int32(len(subject)) {
			return nil, MapElement{}, splerr.ErrInvalidRange
		}
	}
	if err := validateAscending(raw); err != nil {
		return nil, MapElement{}, err
	}

	if cfg.Realign && aligner != nil {
		for i := range raw {
			raw[i] = refine(query, subject, raw[i], aligner)
		}
		if err := validateAscending(raw); err != nil {
			return nil, MapElement{}, err
		}
	}

	elem := MapElement{
		QBox:         Box{0, int32(len(query)) - 1},
		SBox:         Box{0, int32(len(subject)) - 1},
		PatternStart: 0,
		PatternEnd:   len(raw) - 1,
	}
	if len(raw) == 0 {
		elem.PatternStart, elem.PatternEnd = -1, -1
	}
	return raw, elem, nil
}

func validateAscending(anchors []Anchor) error {
	for i := 1; i < len(anchors); i++ {
		if !(anchors[i-1].QHi < anchors[i].QLo && anchors[i-1].SHi < anchors[i].SLo) {
			return splerr.ErrInvalidPatternCoordinates
		}
	}
	return nil
}

// subdivideAll splits any anchor whose query span exceeds maxLen into equal
// parts, preserving endpoint alignment (the last part absorbs any
// remainder).
func subdivideAll(anchors []Anchor, maxLen int32) []Anchor {
	if maxLen <= 0 {
		maxLen = math.MaxInt32
	}
	var out []Anchor
	for _, a := range anchors {
		qLen := a.QHi - a.QLo + 1
		if qLen <= maxLen {
			out = append(out, a)
			continue
		}
		parts := int((qLen + maxLen - 1) / maxLen)
		sLen := a.SHi - a.SLo + 1
		for p := 0; p < parts; p++ {
			qLo := a.QLo + int32(p)*qLen/int32(parts)
			qHi := a.QLo + int32(p+1)*qLen/int32(parts) - 1
			sLo := a.SLo + int32(p)*sLen/int32(parts)
			sHi := a.SLo + int32(p+1)*sLen/int32(parts) - 1
			out = append(out, Anchor{QLo: qLo, QHi: qHi, SLo: sLo, SHi: sHi})
		}
	}
	return out
}

// refine realigns a small window around the raw anchor to find the longest
// perfectly-matched core, shrinks it by 20% on each side, then extends
// outward by 25% of the hit length if room remains. If the realignment
// yields an empty core, the original anchor is kept unchanged.
func refine(query, subject []byte, a Anchor, aligner align.Aligner) Anchor {
	qWin := query[a.QLo : a.QHi+1]
	sWin := subject[a.SLo : a.SHi+1]
	if err := aligner.SetSequences(qWin, sWin, false); err != nil {
		return a
	}
	if err := aligner.SetPattern(nil); err != nil {
		return a
	}
	aligner.SetEndSpaceFree(true, true, true, true)
	if err := aligner.Run(); err != nil {
		return a
	}
	exons := aligner.EmitExons()
	if len(exons) == 0 {
		return a
	}

	coreQLo, coreQHi, coreSLo, coreSHi, found := longestMatchRun(exons)
	if !found {
		return a
	}

	coreLen := coreQHi - coreQLo + 1
	shrink := coreLen * 20 / 100
	coreQLo += shrink
	coreQHi -= shrink
	coreSLo += shrink
	coreSHi -= shrink
	if coreQHi < coreQLo {
		return a
	}

	hitLen := a.QHi - a.QLo + 1
	ext := hitLen * 25 / 100
	coreQLo -= ext
	coreSLo -= ext
	coreQHi += ext
	coreSHi += ext

	if coreQLo < 0 {
		coreQLo = 0
	}
	if coreSLo < 0 {
		coreSLo = 0
	}
	if coreQHi >= int32(len(qWin)) {
		coreQHi = int32(len(qWin)) - 1
	}
	if coreSHi >= int32(len(sWin)) {
		coreSHi = int32(len(sWin)) - 1
	}
	return Anchor{
		QLo: a.QLo + coreQLo, QHi: a.QLo + coreQHi,
		SLo: a.SLo + coreSLo, SHi: a.SLo + coreSHi,
	}
}

// longestMatchRun scans every exon's details string for the longest
// all-'M' run and returns its coordinates in the exon's local frame. q/s
// offsets are tracked column-by-column since I/D columns advance only one
// of the two sequences.
func longestMatchRun(exons []align.ExonRecord) (qLo, qHi, sLo, sHi int32, ok bool) {
	var bestLen int32 = -1
	for _, e := range exons {
		q, s := e.QLo, e.SLo
		runStartQ, runStartS, runLen := int32(0), int32(0), 0
		for _, c := range e.Details {
			if c == 'M' {
				if runLen == 0 {
					runStartQ, runStartS = q, s
				}
				runLen++
			} else if runLen > int(bestLen) {
				bestLen = int32(runLen)
				qLo, sLo = runStartQ, runStartS
				qHi, sHi = q-1, s-1
				ok = true
				runLen = 0
			} else {
				runLen = 0
			}
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
		if runLen > int(bestLen) {
			bestLen = int32(runLen)
			qLo, sLo = runStartQ, runStartS
			qHi, sHi = q-1, s-1
			ok = true
		}
	}
	return qLo, qHi, sLo, sHi, ok
}
