// Package hitfilter implements the Hit Filter: greedy conflict resolution
// over a bag of local alignments on one query/subject pair, producing a
// pairwise non-conflicting subset that maximizes preserved score under the
// configured mode.
package hitfilter

import (
	"sort"

	"github.com/grailbio/splign/hit"
	"github.com/grailbio/splign/interval"
	"github.com/grailbio/splign/splerr"
)

// Mode selects the top-level filtering strategy.
type Mode int

const (
	// MaxScore is the default: a single greedy pass ordered by descending score.
	MaxScore Mode = iota
	// MSGS is Maximum-Score Group-Select: partition by coverage-driven splits
	// first, run MaxScore within each group, then keep the winning group(s).
	MSGS
)

// SplitPolicy selects how an overlap on one axis is resolved.
type SplitPolicy int

const (
	// Clear drops a hit outright on containment, else trims the offending side.
	Clear SplitPolicy = iota
	// MaxScoreSplit trims partial overlaps and splits a hit that embraces the
	// kept hit into two fragments.
	MaxScoreSplit
)

// StrandPolicy selects which strand(s) of hits participate.
type StrandPolicy int

const (
	Plus StrandPolicy = iota
	Minus
	Both
	Auto
)

// Config is the Hit Filter's configuration record.
type Config struct {
	Mode Mode

	QueryPolicy   SplitPolicy
	SubjectPolicy SplitPolicy

	StrandPolicy StrandPolicy
	// MergeAutoStrands, when StrandPolicy == Auto, keeps both strands' results
	// instead of only the higher-scoring strand.
	MergeAutoStrands bool

	Colinearity bool

	// CoalesceProximity is the preprocessing proximity threshold at or below which
	// two close hits are collapsed into one; 0 disables coalescing.
	CoalesceProximity float64

	// CoverageStep is the MSGS split-acceptance threshold.
	CoverageStep float64

	// FrameSize, when > 0, rounds Clear-policy trims up to codon boundaries
	// (protein-to-nucleotide mode).
	FrameSize int32

	// KeepAllGroups, in MSGS mode, retains every group instead of only the
	// top-scoring one.
	KeepAllGroups bool
}

// Filter resolves overlaps among hits (all sharing one query/subject pair)
// and returns the surviving, non-conflicting subset. Filter works on a
// deduplicated copy, so the caller's hits slice is left unchanged.
func Filter(hits []hit.Hit, cfg Config) ([]hit.Hit, error) {
	if len(hits) == 0 {
		return nil, splerr.ErrNoHits
	}

	work := dedup(hits)
	dq, ds := envelopeOrigin(work)
	for i := range work {
		work[i].Translate(-dq, -ds)
	}
	if cfg.CoalesceProximity > 0 {
		work = coalesce(work, cfg.CoalesceProximity)
	}

	kept, err := filterByStrand(work, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Colinearity {
		kept = colinearFilter(kept)
	}

	if len(kept) == 0 {
		return nil, splerr.ErrNoHitsAfterFiltering
	}

	resyncGroups(kept)
	for i := range kept {
		kept[i].Translate(dq, ds)
	}
	return kept, nil
}

func dedup(hits []hit.Hit) []hit.Hit {
	seen := make(map[uint64][]hit.Hit, len(hits))
	out := make([]hit.Hit, 0, len(hits))
	for _, h := range hits {
		sum := h.Checksum()
		dupe := false
		for _, prior := range seen[sum] {
			if prior.Equal(&h) {
				dupe = true
				break
			}
		}
		if dupe {
			continue
		}
		seen[sum] = append(seen[sum], h)
		out = append(out, h)
	}
	return out
}

func envelopeOrigin(hits []hit.Hit) (dq, ds int32) {
	dq, ds = hits[0].QLo, subjLo(hits[0])
	for _, h := range hits[1:] {
		if h.QLo < dq {
			dq = h.QLo
		}
		if s := subjLo(h); s < ds {
			ds = s
		}
	}
	return dq, ds
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

// coalesce collapses pairs of same-strand hits whose normalized gap on both
// axes is within proximity of each other into a single spanning hit.
func coalesce(hits []hit.Hit, proximity float64) []hit.Hit {
	sort.Slice(hits, func(i, j int) bool { return hit.ByQueryThenSubjectStart(hits[i], hits[j]) })
	out := make([]hit.Hit, 0, len(hits))
	i := 0
	for i < len(hits) {
		cur := hits[i]
		j := i + 1
		for j < len(hits) {
			cand := hits[j]
			if cand.IsPlusStrand() != cur.IsPlusStrand() {
				break
			}
			qGap := cand.QLo - cur.QHi
			sGap := subjLo(cand) - subjHi(cur)
			if qGap < 0 || sGap < 0 {
				break
			}
			span := float64(cur.LengthQ())
			if span <= 0 {
				span = 1
			}
			if float64(qGap)/span > proximity || float64(sGap)/span > proximity {
				break
			}
			cur = mergeHits(cur, cand)
			j++
		}
		out = append(out, cur)
		i = j
	}
	return out
}

func mergeHits(a, b hit.Hit) hit.Hit {
	m := a
	if b.QHi > m.QHi {
		m.QHi = b.QHi
		m.OrigQHi = b.OrigQHi
	}
	if b.QLo < m.QLo {
		m.QLo = b.QLo
		m.OrigQLo = b.OrigQLo
	}
	if a.IsPlusStrand() {
		if b.SHi > m.SHi {
			m.SHi = b.SHi
			m.OrigSHi = b.OrigSHi
		}
		if b.SLo < m.SLo {
			m.SLo = b.SLo
			m.OrigSLo = b.OrigSLo
		}
	} else {
		if b.SLo > m.SLo {
			m.SLo = b.SLo
			m.OrigSLo = b.OrigSLo
		}
		if b.SHi < m.SHi {
			m.SHi = b.SHi
			m.OrigSHi = b.OrigSHi
		}
	}
	if b.Score > m.Score {
		m.Score = b.Score
	}
	return m
}

func filterByStrand(hits []hit.Hit, cfg Config) ([]hit.Hit, error) {
	switch cfg.StrandPolicy {
	case Plus:
		return runMode(onlyStrand(hits, true), cfg), nil
	case Minus:
		return runMode(onlyStrand(hits, false), cfg), nil
	case Both:
		return runMode(hits, cfg), nil
	case Auto:
		plus := runMode(onlyStrand(hits, true), cfg)
		minus := runMode(onlyStrand(hits, false), cfg)
		if cfg.MergeAutoStrands {
			return append(plus, minus...), nil
		}
		if scoreSum(plus) >= scoreSum(minus) {
			return plus, nil
		}
		return minus, nil
	default:
		return runMode(hits, cfg), nil
	}
}

func onlyStrand(hits []hit.Hit, plus bool) []hit.Hit {
	out := make([]hit.Hit, 0, len(hits))
	for _, h := range hits {
		if h.IsPlusStrand() == plus {
			out = append(out, h)
		}
	}
	return out
}

func scoreSum(hits []hit.Hit) float64 {
	var s float64
	for _, h := range hits {
		s += h.Score
	}
	return s
}

func runMode(hits []hit.Hit, cfg Config) []hit.Hit {
	if len(hits) == 0 {
		return nil
	}
	switch cfg.Mode {
	case MSGS:
		return runMSGS(hits, cfg)
	default:
		return runMaxScore(hits, cfg)
	}
}

// runMaxScore is the greedy conflict-resolution loop: sort descending by
// score, grow a kept set, resolving each later candidate against every
// already-kept hit. Splits re-enter the candidate queue and the loop resumes
// until the queue is exhausted ("re-run the whole outer loop if any splits
// occurred").
func runMaxScore(hits []hit.Hit, cfg Config) []hit.Hit {
	queue := append([]hit.Hit(nil), hits...)
	sort.Slice(queue, func(i, j int) bool { return hit.ByScoreDescending(queue[i], queue[j]) })

	var kept []hit.Hit
	for len(queue) > 0 {
		cand := queue[0]
		queue = queue[1:]

		survivors, fragments := resolveAgainstKept(cand, kept, cfg)
		if len(fragments) > 0 {
			queue = append(queue, fragments...)
			sort.Slice(queue, func(i, j int) bool { return hit.ByScoreDescending(queue[i], queue[j]) })
		}
		for _, s := range survivors {
			if s.IsConsistent() && s.LengthQ() > 0 {
				kept = append(kept, s)
			}
		}
	}
	return kept
}

// resolveAgainstKept checks cand against every hit already kept. It returns
// zero or one surviving (possibly trimmed) copy of cand, plus any fragments
// produced by an embracing split (which must be re-queued rather than kept
// directly, since they themselves may still conflict with other kept hits).
func resolveAgainstKept(cand hit.Hit, kept []hit.Hit, cfg Config) (survivors, fragments []hit.Hit) {
	cur := cand
	alive := true
	for _, h := range kept {
		if !alive {
			break
		}
		action, frags := resolveOne(h, cur, cfg)
		switch action {
		case actionDrop:
			alive = false
		case actionSplit:
			fragments = append(fragments, frags...)
			alive = false
		case actionKeep:
			cur = frags[0]
		}
	}
	if alive {
		survivors = append(survivors, cur)
	}
	return survivors, fragments
}

type resolution int

const (
	actionKeep resolution = iota
	actionDrop
	actionSplit
)

// relation describes how j's interval sits relative to h's on one axis.
type relation int

const (
	relDisjoint relation = iota
	relContained          // j fully inside h
	relEmbraces           // h fully inside j
	relOverlapLeft        // j hangs off the left of h (j's right end is inside h)
	relOverlapRight       // j hangs off the right of h (j's left end is inside h)
)

func axisRelation(hLo, hHi, jLo, jHi int32) relation {
	if jHi < hLo || jLo > hHi {
		return relDisjoint
	}
	switch {
	case jLo >= hLo && jHi <= hHi:
		return relContained
	case jLo <= hLo && jHi >= hHi:
		return relEmbraces
	case jLo < hLo && jHi >= hLo:
		return relOverlapLeft
	default:
		return relOverlapRight
	}
}

// resolveOne applies the configured split policy (per axis) of h against
// candidate j, returning either actionDrop, actionSplit (with fragments to
// re-queue), or actionKeep (with the single, possibly-trimmed survivor).
func resolveOne(h, j hit.Hit, cfg Config) (resolution, []hit.Hit) {
	qRel := axisRelation(h.QLo, h.QHi, j.QLo, j.QHi)
	sRel := axisRelation(subjLo(h), subjHi(h), subjLo(j), subjHi(j))

	if qRel == relDisjoint && sRel == relDisjoint {
		return actionKeep, []hit.Hit{j}
	}

	if cfg.QueryPolicy == MaxScoreSplit && cfg.SubjectPolicy == MaxScoreSplit &&
		qRel == relEmbraces && sRel == relEmbraces {
		return actionSplit, splitEmbracing(h, j)
	}

	if qRel == relContained || sRel == relContained {
		return actionDrop, nil
	}

	cur := j
	ok := true
	cur, ok = trimAxis(cur, h, qRel, true, cfg.QueryPolicy, cfg.FrameSize)
	if !ok || !cur.IsConsistent() {
		return actionDrop, nil
	}
	qRel2 := axisRelation(h.QLo, h.QHi, cur.QLo, cur.QHi)
	sRel2 := sRel
	if qRel2 == relContained {
		return actionDrop, nil
	}
	cur, ok = trimAxis(cur, h, sRel2, false, cfg.SubjectPolicy, cfg.FrameSize)
	if !ok || !cur.IsConsistent() {
		return actionDrop, nil
	}
	return actionKeep, []hit.Hit{cur}
}

// trimAxis resolves one axis' overlap (already known non-disjoint,
// non-contained, non-embracing-as-a-whole) by moving j's offending boundary
// just past h's edge, under the Clear or MaxScoreSplit policy.
func trimAxis(j, h hit.Hit, rel relation, isQuery bool, policy SplitPolicy, frame int32) (hit.Hit, bool) {
	if rel == relDisjoint {
		return j, true
	}
	if rel == relEmbraces {
		// One axis embraces but the other didn't (no full split); move j's
		// low end just past h's high end rather than fragmenting.
		if isQuery {
			j.MoveBoundary(hit.QLo, roundFrame(h.QHi+1, frame, true))
		} else {
			moveSubjLo(&j, h)
		}
		return j, j.LengthQ() > 0
	}
	switch rel {
	case relOverlapLeft: // j's right end is inside h; pull it back.
		newHi := h.QLo - 1
		if isQuery {
			j.MoveBoundary(hit.QHi, roundFrame(newHi, frame, false))
		} else {
			moveSubjHiBefore(&j, h)
		}
	case relOverlapRight: // j's left end is inside h; push it forward.
		if isQuery {
			j.MoveBoundary(hit.QLo, roundFrame(h.QHi+1, frame, true))
		} else {
			moveSubjLo(&j, h)
		}
	}
	_ = policy // Clear and MaxScoreSplit trim identically on a single partial overlap; they differ only on containment/embracing, handled by the caller.
	return j, j.LengthQ() > 0
}

func moveSubjLo(j *hit.Hit, h hit.Hit) {
	bound := subjHi(h) + 1
	if j.IsPlusStrand() {
		j.MoveBoundary(hit.SLo, bound)
	} else {
		j.MoveBoundary(hit.SHi, bound)
	}
}

func moveSubjHiBefore(j *hit.Hit, h hit.Hit) {
	bound := subjLo(h) - 1
	if j.IsPlusStrand() {
		j.MoveBoundary(hit.SHi, bound)
	} else {
		j.MoveBoundary(hit.SLo, bound)
	}
}

func roundFrame(pos int32, frame int32, roundUp bool) int32 {
	if frame <= 0 {
		return pos
	}
	if roundUp {
		return ((pos + frame - 1) / frame) * frame
	}
	return (pos / frame) * frame
}

// splitEmbracing splits j, which embraces h on both axes, into two fragments
// cut at h's boundaries on both the query and the subject axis, so neither
// fragment overlaps h. On the minus strand the left (lower-query) fragment
// keeps the subject range above h and the right fragment the range below.
func splitEmbracing(h, j hit.Hit) []hit.Hit {
	left := j
	left.QHi = h.QLo - 1
	right := j
	right.QLo = h.QHi + 1
	if j.IsPlusStrand() {
		left.SHi = subjLo(h) - 1
		right.SLo = subjHi(h) + 1
	} else {
		left.SHi = subjHi(h) + 1
		right.SLo = subjLo(h) - 1
	}
	var out []hit.Hit
	if left.LengthQ() > 0 {
		out = append(out, left)
	}
	if right.LengthQ() > 0 {
		out = append(out, right)
	}
	return out
}

// colinearFilter keeps the subsequence of hits, sorted by query start, whose
// subject order is monotonic with query order (same direction as the first
// accepted hit's strand).
func colinearFilter(hits []hit.Hit) []hit.Hit {
	sort.Slice(hits, func(i, j int) bool { return hit.ByQueryStart(hits[i], hits[j]) })
	out := make([]hit.Hit, 0, len(hits))
	var lastLo, lastHi int32
	plus, have := true, false
	for _, h := range hits {
		switch {
		case !have:
			plus = h.IsPlusStrand()
		case plus && subjLo(h) <= lastHi, !plus && subjHi(h) >= lastLo:
			continue
		}
		out = append(out, h)
		lastLo, lastHi = subjLo(h), subjHi(h)
		have = true
	}
	return out
}

// resyncGroups reassigns dense group ids 0..n-1, preserving the relative
// order groups appeared in.
func resyncGroups(hits []hit.Hit) {
	remap := make(map[int]int)
	next := 0
	for i := range hits {
		old := hits[i].GroupID
		id, ok := remap[old]
		if !ok {
			id = next
			remap[old] = id
			next++
		}
		hits[i].GroupID = id
	}
}

// runMSGS partitions hits by coverage-driven splits, runs the MaxScore loop
// within each group, then keeps the winning group (or all groups, per
// Config.KeepAllGroups).
func runMSGS(hits []hit.Hit, cfg Config) []hit.Hit {
	groups := groupByCoverage(hits, cfg.CoverageStep)
	type scored struct {
		hits  []hit.Hit
		score float64
	}
	var results []scored
	for gid, g := range groups {
		for i := range g {
			g[i].GroupID = gid
		}
		filtered := runMaxScore(g, cfg)
		results = append(results, scored{hits: filtered, score: scoreSum(filtered)})
	}
	if len(results) == 0 {
		return nil
	}
	if cfg.KeepAllGroups {
		var out []hit.Hit
		for _, r := range results {
			out = append(out, r.hits...)
		}
		return out
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.score > best.score {
			best = r
		}
	}
	return best.hits
}

// groupByCoverage sorts by query start and recursively splits at the
// largest coverage-increasing gap, per spec.md's MSGS grouping rule.
func groupByCoverage(hits []hit.Hit, step float64) [][]hit.Hit {
	sorted := append([]hit.Hit(nil), hits...)
	sort.Slice(sorted, func(i, j int) bool { return hit.ByQueryStart(sorted[i], sorted[j]) })
	return splitRecursive(sorted, step)
}

func splitRecursive(hits []hit.Hit, step float64) [][]hit.Hit {
	if len(hits) <= 1 {
		return [][]hit.Hit{hits}
	}
	total := coverageOf(hits)
	if total == 0 {
		return [][]hit.Hit{hits}
	}
	bestIdx := -1
	bestGain := 0.0
	for i := 1; i < len(hits); i++ {
		left := coverageOf(hits[:i])
		right := coverageOf(hits[i:])
		gain := (float64(left+right) - float64(total)) / float64(total)
		if gain > bestGain {
			bestGain = gain
			bestIdx = i
		}
	}
	if bestIdx < 0 || bestGain < step {
		return [][]hit.Hit{hits}
	}
	left := splitRecursive(hits[:bestIdx], step)
	right := splitRecursive(hits[bestIdx:], step)
	return append(left, right...)
}

func coverageOf(hits []hit.Hit) int {
	ranges := make([]interval.Range, len(hits))
	for i, h := range hits {
		ranges[i] = interval.Range{Start: interval.PosType(h.QLo), End: interval.PosType(h.QHi) + 1}
	}
	return interval.CoverageLen(ranges)
}
