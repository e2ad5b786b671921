// Package engine orchestrates the full pipeline: Hit Filter, Compartment
// Finder, Pattern Builder, Spliced Aligner Driver, and Segment
// Post-Processor, wiring an external Sequence Accessor and Aligner
// together to produce AlignedCompartment values for one query/subject pair.
package engine

import (
	"context"

	"github.com/grailbio/base/log"
	"github.com/grailbio/splign/accessor"
	"github.com/grailbio/splign/align"
	"github.com/grailbio/bio/biosimd"
	"github.com/grailbio/splign/cache"
	"github.com/grailbio/splign/compartment"
	"github.com/grailbio/splign/hit"
	"github.com/grailbio/splign/hitfilter"
	"github.com/grailbio/splign/pattern"
	"github.com/grailbio/splign/segment"
	"github.com/grailbio/splign/splerr"
)

// Engine ties the external collaborators (spec.md §6) to the internal
// pipeline stages. Not safe for concurrent use by multiple goroutines; run
// one Engine per worker (spec.md §5).
type Engine struct {
	Accessor accessor.Accessor
	Aligner  align.Aligner
	Config   Config
}

// New constructs an Engine, validating its configuration and required
// collaborators. Configuration or missing-collaborator errors abort the
// whole invocation (spec.md §7), so New fails fast rather than at the
// first Run.
func New(acc accessor.Accessor, aligner align.Aligner, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, splerr.ErrSequenceAccessorNotSpecified
	}
	if aligner == nil {
		return nil, splerr.ErrAlignerNotSpecified
	}
	return &Engine{Accessor: acc, Aligner: aligner, Config: cfg}, nil
}

// Run filters, compartmentalizes, aligns, and post-processes hits (all
// sharing queryID/subjID) into an ordered slice of AlignedCompartment
// values. Per-compartment failures are captured into the returned
// compartment's Error/Message fields rather than aborting the run. Errors
// raised before any compartment exists (EmptyHitVector, Hit Filter errors
// such as NoHitsAfterFiltering, and Accessor Len errors) are returned directly.
func (e *Engine) Run(ctx context.Context, queryID, subjID string, hits []hit.Hit) ([]cache.AlignedCompartment, error) {
	if len(hits) == 0 {
		return nil, splerr.ErrEmptyHitVector
	}

	filtered, err := hitfilter.Filter(hits, e.Config.Filter)
	if err != nil {
		return nil, err
	}

	queryLen, err := e.Accessor.Len(ctx, queryID)
	if err != nil {
		return nil, err
	}
	subjLen, err := e.Accessor.Len(ctx, subjID)
	if err != nil {
		return nil, err
	}

	compCfg := compartment.Config{
		MinCoverage:        int32(e.Config.MinQueryCoverage * float64(queryLen)),
		CompartmentPenalty: e.Config.CompartmentPenalty,
		IntronLimit:        e.Config.IntronLimit,
		SubjectLen:         int32(subjLen),
	}
	compartments := compartment.Find(filtered, compCfg)

	query, err := e.Accessor.Load(ctx, queryID, 0, accessor.ToEnd)
	if err != nil {
		return nil, err
	}
	if !e.Config.QueryStrand {
		query = append([]byte(nil), query...)
		biosimd.ReverseComp8Inplace(query)
	}

	var polyaStart int32
	var hasPolyA bool
	if e.Config.PolyADetection {
		polyaStart, hasPolyA = segment.PolyAStart(query)
	}

	out := make([]cache.AlignedCompartment, 0, len(compartments))
	id := e.Config.ModelIDSeed
	for _, cpt := range compartments {
		ac, err := e.processCompartment(ctx, subjID, query, int32(queryLen), subjLen, cpt, id, polyaStart, hasPolyA)
		if err != nil {
			log.Error.Printf("splign: compartment %d (%s/%s): %v", id, queryID, subjID, err)
			ac = cache.AlignedCompartment{ID: id, Error: true, Message: err.Error()}
		}
		out = append(out, ac)
		id++
	}
	return out, nil
}

// processCompartment runs the poly-A-drop / pattern-build / align /
// post-process chain for one compartment, returning its AlignedCompartment
// in original-strand coordinates.
func (e *Engine) processCompartment(ctx context.Context, subjID string, query []byte, queryLen int32, subjLen int64, cpt compartment.Compartment, id uint32, polyaStart int32, hasPolyA bool) (cache.AlignedCompartment, error) {
	subjMinus := !cpt.Plus

	winLo, winHi := e.genomicWindow(cpt, subjLen)
	subjRaw, err := e.Accessor.Load(ctx, subjID, int64(winLo), int64(winHi))
	if err != nil {
		return cache.AlignedCompartment{}, err
	}
	subjWindow := append([]byte(nil), subjRaw...)
	if subjMinus {
		biosimd.ReverseComp8Inplace(subjWindow)
	}

	queryMinus := !e.Config.QueryStrand
	localHits := normalizeHits(cpt.Hits, queryMinus, subjMinus, queryLen, winLo, winHi)

	// Poly-A detection (spec.md §4 data flow: "strand normalization →
	// poly-A detection → D"): hits wholly inside the poly-A tail carry no
	// exon evidence and only confuse the Pattern Builder, so they are
	// dropped before anchoring.
	if hasPolyA {
		localHits = dropHitsInPolyA(localHits, polyaStart)
		if len(localHits) == 0 {
			return cache.AlignedCompartment{}, splerr.ErrNoHitsBeyondPolyA
		}
	}

	anchors, mapElem, err := pattern.Build(query, subjWindow, localHits, e.Config.Pattern, e.Aligner)
	if err != nil {
		return cache.AlignedCompartment{}, err
	}

	rawSegments, err := e.runZone(query, subjWindow, anchors, mapElem)
	if err != nil {
		return cache.AlignedCompartment{}, err
	}
	if len(rawSegments) == 0 {
		return cache.AlignedCompartment{}, splerr.ErrNoAlignment
	}

	final := segment.Process(rawSegments, query, subjWindow, queryMinus, subjMinus, 0, int32(len(subjWindow))-1, e.Config.segmentConfig())
	for i := range final {
		if final[i].SBox != (segment.Box{}) {
			final[i].SBox.Lo += winLo
			final[i].SBox.Hi += winLo
		}
	}
	if !hasExon(final) {
		return cache.AlignedCompartment{}, splerr.ErrNoExonsAboveIdtyLimit
	}

	return cache.AlignedCompartment{
		ID:          id,
		QueryStrand: e.Config.QueryStrand,
		SubjStrand:  cpt.Plus,
		Segments:    final,
	}, nil
}

// genomicWindow computes the subject flank to load around a compartment,
// bounded by its partition (so neighboring compartments never overlap) and
// by max_genomic_extension.
func (e *Engine) genomicWindow(cpt compartment.Compartment, subjLen int64) (lo, hi int32) {
	ext := e.Config.MaxGenomicExtension
	lo = cpt.SubjMin - ext
	hi = cpt.SubjMax + ext
	if lo < cpt.PartitionMin {
		lo = cpt.PartitionMin
	}
	if hi > cpt.PartitionMax {
		hi = cpt.PartitionMax
	}
	if lo < 0 {
		lo = 0
	}
	if hi >= int32(subjLen) {
		hi = int32(subjLen) - 1
	}
	return lo, hi
}

// runZone invokes the Aligner for the Pattern Builder's single zone
// (spec.md §4.E): the Engine always produces exactly one alignment-map
// element per compartment, so there are no inter-zone gaps to interleave.
func (e *Engine) runZone(query, subject []byte, anchors []pattern.Anchor, zone pattern.MapElement) ([]segment.Segment, error) {
	zq := query[zone.QBox.Lo : zone.QBox.Hi+1]
	zs := subject[zone.SBox.Lo : zone.SBox.Hi+1]

	if err := e.Aligner.SetSequences(zq, zs, false); err != nil {
		return nil, err
	}
	flat := flattenAnchors(anchors)
	if err := e.Aligner.SetPattern(flat); err != nil {
		return nil, err
	}
	e.Aligner.SetEndSpaceFree(true, true, true, true)
	if err := e.Aligner.Run(); err != nil {
		return nil, err
	}

	exons := e.Aligner.EmitExons()
	segs := make([]segment.Segment, 0, len(exons))
	for _, ex := range exons {
		if !validTranscript(ex.Details) {
			return nil, splerr.ErrUnknownTranscriptSymbol
		}
		qBox := segment.Box{Lo: ex.QLo + zone.QBox.Lo, Hi: ex.QHi + zone.QBox.Lo}
		sBox := segment.Box{Lo: ex.SLo + zone.SBox.Lo, Hi: ex.SHi + zone.SBox.Lo}
		segs = append(segs, segment.NewExon(qBox, sBox, ex.Details, "", float64(e.Aligner.ScoreFromTranscript(ex.Details))))
	}
	annotateSpliceSites(segs, subject)
	return segs, nil
}

// annotateSpliceSites fills each exon's donor+acceptor annotation from the
// two subject bases immediately flanking its intron-facing ends (spec.md
// §3's "2-char donor and acceptor context"; the further 4-char flanking
// context the source packs alongside it is not reproduced — see DESIGN.md).
// An exon at a sequence boundary, with no neighboring intron on that side,
// gets "NN" for the missing half.
func annotateSpliceSites(segs []segment.Segment, subject []byte) {
	for i := range segs {
		donor, acceptor := "NN", "NN"
		if i+1 < len(segs) {
			donor = spliceBases(subject, segs[i].SBox.Hi+1, 2)
		}
		if i > 0 {
			acceptor = spliceBases(subject, segs[i].SBox.Lo-2, 2)
		}
		segs[i].Annotation = donor + acceptor
	}
}

func spliceBases(subject []byte, from int32, n int32) string {
	if from < 0 || from+n > int32(len(subject)) {
		return "NN"
	}
	return string(subject[from : from+n])
}

func flattenAnchors(anchors []pattern.Anchor) []int32 {
	if len(anchors) == 0 {
		return nil
	}
	flat := make([]int32, 0, len(anchors)*4)
	for _, a := range anchors {
		flat = append(flat, a.QLo, a.QHi, a.SLo, a.SHi)
	}
	return flat
}

// validTranscript reports whether every column of an Aligner-emitted
// details string is one of the supported symbols (spec.md §7
// UnknownTranscriptSymbol).
func validTranscript(details string) bool {
	for _, c := range details {
		switch c {
		case 'M', 'R', 'I', 'D':
		default:
			return false
		}
	}
	return true
}

func hasExon(segs []segment.Segment) bool {
	for _, s := range segs {
		if s.Kind == segment.ExonKind {
			return true
		}
	}
	return false
}

// normalizeHits translates a compartment's hits (given in the original
// query/subject frame) into the plus/plus, window-local frame the Pattern
// Builder requires (spec.md §4.D: "already strand-normalized").
func normalizeHits(hits []hit.Hit, queryMinus, subjMinus bool, queryLen, winLo, winHi int32) []hit.Hit {
	out := make([]hit.Hit, len(hits))
	for i, h := range hits {
		nh := h
		if queryMinus {
			nh.QLo, nh.QHi = queryLen-1-h.QHi, queryLen-1-h.QLo
		}
		sLo, sHi := subjAscending(h)
		if subjMinus {
			nh.SLo, nh.SHi = winHi-sHi, winHi-sLo
		} else {
			nh.SLo, nh.SHi = sLo-winLo, sHi-winLo
		}
		out[i] = nh
	}
	return out
}

// dropHitsInPolyA removes hits whose query span lies entirely at or beyond
// polyaStart (spec.md §7 NoHitsBeyondPolyA: "all surviving hits fell inside
// the poly-A tail"). A hit that only partially overlaps the tail is kept,
// since it still carries evidence for the non-A portion of the query.
func dropHitsInPolyA(hits []hit.Hit, polyaStart int32) []hit.Hit {
	out := hits[:0:0]
	for _, h := range hits {
		if h.QLo >= polyaStart {
			continue
		}
		out = append(out, h)
	}
	return out
}

func subjAscending(h hit.Hit) (lo, hi int32) {
	if h.IsPlusStrand() {
		return h.SLo, h.SHi
	}
	return h.SHi, h.SLo
}
