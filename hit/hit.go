// Package hit implements the Hit model: a local ungapped/gapped match
// between a query and a subject sequence, with the boundary-editing and
// ordering operations the Hit Filter and Compartment Finder build on.
package hit

import "github.com/minio/highwayhash"

// Boundary names an editable endpoint of a Hit, for MoveBoundary.
type Boundary int

const (
	QLo Boundary = iota
	QHi
	SLo
	SHi
)

var checksumKey [32]byte // fixed zero key: dedup only needs a stable, cheap hash, not a MAC.

// Hit is an immutable-by-convention tuple describing one local alignment.
// QueryID/SubjID are fixed at construction; QLo/QHi/SLo/SHi are mutated in
// place by the Hit Filter (clipping, splitting, translation), which also
// reassigns GroupID and, when merging hits, Score. OrigQLo.. is retained
// alongside the current endpoints for that reason.
type Hit struct {
	QueryID string
	SubjID  string
	GroupID int

	QLo, QHi int32
	SLo, SHi int32

	OrigQLo, OrigQHi int32
	OrigSLo, OrigSHi int32

	Score float64
}

// New builds a Hit with its "original" interval pair set to the current one.
func New(queryID, subjID string, qLo, qHi, sLo, sHi int32, score float64, groupID int) Hit {
	return Hit{
		QueryID: queryID, SubjID: subjID, GroupID: groupID,
		QLo: qLo, QHi: qHi, SLo: sLo, SHi: sHi,
		OrigQLo: qLo, OrigQHi: qHi, OrigSLo: sLo, OrigSHi: sHi,
		Score: score,
	}
}

// LengthQ returns the query span's length; positive for a consistent hit.
func (h *Hit) LengthQ() int32 { return h.QHi - h.QLo + 1 }

// LengthS returns the subject span's length; positive for a consistent hit on
// either strand (SHi >= SLo on plus strand, SLo > SHi on minus strand).
func (h *Hit) LengthS() int32 {
	if h.IsPlusStrand() {
		return h.SHi - h.SLo + 1
	}
	return h.SLo - h.SHi + 1
}

// IsPlusStrand reports whether the subject interval ascends (SLo <= SHi).
func (h *Hit) IsPlusStrand() bool { return h.SLo <= h.SHi }

// IsConsistent reports whether both ranges have positive extent and the
// current endpoints lie within the original endpoints.
func (h *Hit) IsConsistent() bool {
	if h.QHi < h.QLo {
		return false
	}
	sLo, sHi := h.SLo, h.SHi
	if !h.IsPlusStrand() {
		sLo, sHi = h.SHi, h.SLo
	}
	if sHi < sLo {
		return false
	}
	origSLo, origSHi := h.OrigSLo, h.OrigSHi
	if origSHi < origSLo {
		origSLo, origSHi = origSHi, origSLo
	}
	if h.QLo < h.OrigQLo || h.QHi > h.OrigQHi {
		return false
	}
	if sLo < origSLo || sHi > origSHi {
		return false
	}
	return true
}

// MoveBoundary updates a single endpoint in place.
func (h *Hit) MoveBoundary(which Boundary, newValue int32) {
	switch which {
	case QLo:
		h.QLo = newValue
	case QHi:
		h.QHi = newValue
	case SLo:
		h.SLo = newValue
	case SHi:
		h.SHi = newValue
	}
}

// Translate shifts every coordinate (current and original) by the given
// deltas, used by the Hit Filter's preprocessing step to move the global
// envelope to (0,0) and to restore it on output.
func (h *Hit) Translate(dq, ds int32) {
	h.QLo += dq
	h.QHi += dq
	h.SLo += ds
	h.SHi += ds
	h.OrigQLo += dq
	h.OrigQHi += dq
	h.OrigSLo += ds
	h.OrigSHi += ds
}

// Checksum hashes the four current endpoints, used by the Hit Filter to
// cheaply pre-group hits before an exact-equality comparison.
func (h *Hit) Checksum() uint64 {
	var buf [16]byte
	putI32(buf[0:4], h.QLo)
	putI32(buf[4:8], h.QHi)
	putI32(buf[8:12], h.SLo)
	putI32(buf[12:16], h.SHi)
	sum, err := highwayhash.New64(checksumKey[:])
	if err != nil {
		panic(err) // fixed-size key; cannot fail
	}
	_, _ = sum.Write(buf[:])
	return sum.Sum64()
}

func putI32(b []byte, v int32) {
	u := uint32(v)
	b[0] = byte(u >> 24)
	b[1] = byte(u >> 16)
	b[2] = byte(u >> 8)
	b[3] = byte(u)
}

// Equal reports whether two hits share the same four endpoints, the
// "equality" half of the Hit Filter's checksum-then-equality dedup test.
func (h *Hit) Equal(o *Hit) bool {
	return h.QLo == o.QLo && h.QHi == o.QHi && h.SLo == o.SLo && h.SHi == o.SHi
}

// ByQueryStart orders two hits by ascending query start.
func ByQueryStart(a, b Hit) bool { return a.QLo < b.QLo }

// BySubjectStart orders two hits by ascending subject start (strand-aware:
// the subject "start" of a minus-strand hit is its SHi).
func BySubjectStart(a, b Hit) bool {
	return subjectStart(a) < subjectStart(b)
}

func subjectStart(h Hit) int32 {
	if h.IsPlusStrand() {
		return h.SLo
	}
	return h.SHi
}

// ByStrand orders plus-strand hits before minus-strand hits.
func ByStrand(a, b Hit) bool {
	ap, bp := a.IsPlusStrand(), b.IsPlusStrand()
	return ap && !bp
}

// ByScoreDescending orders two hits by descending score.
func ByScoreDescending(a, b Hit) bool { return a.Score > b.Score }

// ByQueryThenSubjectStart orders by (query_start, subject_start), the
// compound key used when grouping hits into co-linear runs.
func ByQueryThenSubjectStart(a, b Hit) bool {
	if a.QLo != b.QLo {
		return a.QLo < b.QLo
	}
	return subjectStart(a) < subjectStart(b)
}
