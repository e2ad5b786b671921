// Package compartment implements the Compartment Finder: it groups
// co-linear, same-strand hits on one query/subject pair into compartments —
// candidate gene models — subject to coverage and penalty thresholds.
package compartment

import (
	"sort"

	"github.com/grailbio/splign/hit"
	"github.com/grailbio/splign/interval"
)

// Config parameterizes compartment acceptance and subject partitioning.
type Config struct {
	// MinCoverage is the minimum bp of query that must be covered by a
	// compartment's hits.
	MinCoverage int32
	// CompartmentPenalty is subtracted, scaled by the compartment's spanned
	// subject length, from the hit score sum; the compartment is rejected
	// unless the remainder is positive.
	CompartmentPenalty float64
	// IntronLimit is the maximum subject gap between consecutive co-linear
	// hits before a run is closed.
	IntronLimit int32
	// SubjectLen bounds subject-space partitioning between compartments; 0
	// means unknown (partitioning is skipped).
	SubjectLen int32
}

// Compartment is a co-linear group of hits corresponding to one candidate
// gene model.
type Compartment struct {
	Plus             bool // strand
	SubjMin, SubjMax int32
	Hits             []hit.Hit
	QueryCoverage    int
	Score            float64

	// PartitionMin/PartitionMax bound how far this compartment may extend on
	// the subject (e.g. for genomic flank loading) without colliding with a
	// neighboring compartment on the same strand.
	PartitionMin, PartitionMax int32
}

func subjLo(h hit.Hit) int32 {
	if h.IsPlusStrand() {
		return h.SLo
	}
	return h.SHi
}

func subjHi(h hit.Hit) int32 {
	if h.IsPlusStrand() {
		return h.SHi
	}
	return h.SLo
}

// Find groups hits (all sharing one query/subject pair) into accepted
// compartments, ordered subject-ascending on the plus strand (matching the
// Engine's output ordering guarantee).
func Find(hits []hit.Hit, cfg Config) []Compartment {
	if len(hits) == 0 {
		return nil
	}
	var out []Compartment
	out = append(out, findStrand(hits, true, cfg)...)
	out = append(out, findStrand(hits, false, cfg)...)

	sort.Slice(out, func(i, j int) bool { return out[i].SubjMin < out[j].SubjMin })
	partition(out, cfg.SubjectLen)
	return out
}

func findStrand(hits []hit.Hit, plus bool, cfg Config) []Compartment {
	var strandHits []hit.Hit
	for _, h := range hits {
		if h.IsPlusStrand() == plus {
			strandHits = append(strandHits, h)
		}
	}
	if len(strandHits) == 0 {
		return nil
	}
	sort.Slice(strandHits, func(i, j int) bool { return subjLo(strandHits[i]) < subjLo(strandHits[j]) })

	var runs [][]hit.Hit
	cur := []hit.Hit{strandHits[0]}
	for _, h := range strandHits[1:] {
		prev := cur[len(cur)-1]
		gap := subjLo(h) - subjHi(prev) - 1
		colinear := h.QLo >= prev.QLo && subjLo(h) >= subjLo(prev)
		if colinear && gap <= cfg.IntronLimit {
			cur = append(cur, h)
			continue
		}
		runs = append(runs, cur)
		cur = []hit.Hit{h}
	}
	runs = append(runs, cur)

	var out []Compartment
	for _, run := range runs {
		c, ok := accept(run, plus, cfg)
		if ok {
			out = append(out, c)
		}
	}
	return out
}

func accept(run []hit.Hit, plus bool, cfg Config) (Compartment, bool) {
	cov := coverage(run)
	if int32(cov) < cfg.MinCoverage {
		return Compartment{}, false
	}
	var score float64
	subjMin, subjMax := subjLo(run[0]), subjHi(run[0])
	for _, h := range run {
		score += h.Score
		if lo := subjLo(h); lo < subjMin {
			subjMin = lo
		}
		if hi := subjHi(h); hi > subjMax {
			subjMax = hi
		}
	}
	span := float64(subjMax - subjMin + 1)
	if score-cfg.CompartmentPenalty*span <= 0 {
		return Compartment{}, false
	}
	sort.Slice(run, func(i, j int) bool { return hit.ByQueryStart(run[i], run[j]) })
	return Compartment{
		Plus:          plus,
		SubjMin:       subjMin,
		SubjMax:       subjMax,
		Hits:          run,
		QueryCoverage: cov,
		Score:         score,
	}, true
}

func coverage(hits []hit.Hit) int {
	ranges := make([]interval.Range, len(hits))
	for i, h := range hits {
		ranges[i] = interval.Range{Start: interval.PosType(h.QLo), End: interval.PosType(h.QHi) + 1}
	}
	return interval.CoverageLen(ranges)
}

// partition assigns PartitionMin/PartitionMax: consecutive compartments on
// the same strand split the gap between them at its midpoint; on a strand
// change, or at either end of the subject, the full remaining subject is
// available.
func partition(compartments []Compartment, subjectLen int32) {
	if len(compartments) == 0 {
		return
	}
	for i := range compartments {
		compartments[i].PartitionMin = 0
		if subjectLen > 0 {
			compartments[i].PartitionMax = subjectLen - 1
		} else {
			compartments[i].PartitionMax = compartments[i].SubjMax
		}
	}
	for i := 0; i+1 < len(compartments); i++ {
		a, b := &compartments[i], &compartments[i+1]
		if a.Plus != b.Plus {
			continue
		}
		if b.SubjMin <= a.SubjMax {
			continue
		}
		mid := a.SubjMax + (b.SubjMin-a.SubjMax)/2
		a.PartitionMax = mid
		b.PartitionMin = mid + 1
	}
}
