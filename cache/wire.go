// Package cache implements the Compartment Serializer: packing and
// unpacking AlignedCompartment values to and from a compact, explicit
// byte frame (spec.md §4.G), plus a modernc.org/kv-backed store for actual
// cache persistence.
package cache

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/grailbio/splign/segment"
	"github.com/grailbio/splign/splerr"
)

// order is the single endianness this module's wire format commits to
// (spec.md §4.G: "pick a single endianness... and stick to it").
var order = binary.BigEndian

// AlignedCompartment mirrors spec.md §3's AlignedCompartment: the Engine's
// unit of output, and the unit the Serializer frames.
type AlignedCompartment struct {
	ID           uint32
	Error        bool
	Message      string
	QueryStrand  bool // true = plus
	SubjStrand   bool
	Segments     []segment.Segment
}

// Encode packs a into the §4.G wire format. The serializer is side-effect
// free.
func Encode(a AlignedCompartment) []byte {
	var buf bytes.Buffer
	putU32(&buf, a.ID)
	putBool(&buf, a.Error)
	putCStr(&buf, a.Message)
	putBool(&buf, a.QueryStrand)
	putBool(&buf, a.SubjStrand)
	for _, s := range a.Segments {
		body := encodeSegment(s)
		putU32(&buf, uint32(len(body)))
		buf.Write(body)
	}
	return buf.Bytes()
}

func encodeSegment(s segment.Segment) []byte {
	var buf bytes.Buffer
	putBool(&buf, s.Kind == segment.ExonKind)
	putF64(&buf, s.Identity)
	putU32(&buf, uint32(s.Length))
	putI32(&buf, s.QBox.Lo)
	putI32(&buf, s.QBox.Hi)
	putI32(&buf, s.SBox.Lo)
	putI32(&buf, s.SBox.Hi)
	putCStr(&buf, s.Annotation)
	putCStr(&buf, s.Details)
	putI32(&buf, int32(s.Score))
	return buf.Bytes()
}

// Decode unpacks the §4.G wire format. It fails with
// splerr.ErrSerializationIncomplete when any frame is truncated.
func Decode(data []byte) (AlignedCompartment, error) {
	r := &reader{buf: data}
	var a AlignedCompartment
	var err error
	if a.ID, err = r.u32(); err != nil {
		return a, err
	}
	if a.Error, err = r.boolean(); err != nil {
		return a, err
	}
	if a.Message, err = r.cstr(); err != nil {
		return a, err
	}
	if a.QueryStrand, err = r.boolean(); err != nil {
		return a, err
	}
	if a.SubjStrand, err = r.boolean(); err != nil {
		return a, err
	}
	for !r.empty() {
		segLen, err := r.u32()
		if err != nil {
			return a, err
		}
		body, err := r.bytes(int(segLen))
		if err != nil {
			return a, err
		}
		s, err := decodeSegment(body)
		if err != nil {
			return a, err
		}
		a.Segments = append(a.Segments, s)
	}
	return a, nil
}

func decodeSegment(data []byte) (segment.Segment, error) {
	r := &reader{buf: data}
	var s segment.Segment
	isExon, err := r.boolean()
	if err != nil {
		return s, err
	}
	if isExon {
		s.Kind = segment.ExonKind
	} else {
		s.Kind = segment.GapKind
	}
	if s.Identity, err = r.f64(); err != nil {
		return s, err
	}
	length, err := r.u32()
	if err != nil {
		return s, err
	}
	s.Length = int32(length)
	if s.QBox.Lo, err = r.i32(); err != nil {
		return s, err
	}
	if s.QBox.Hi, err = r.i32(); err != nil {
		return s, err
	}
	if s.SBox.Lo, err = r.i32(); err != nil {
		return s, err
	}
	if s.SBox.Hi, err = r.i32(); err != nil {
		return s, err
	}
	if s.Annotation, err = r.cstr(); err != nil {
		return s, err
	}
	if s.Details, err = r.cstr(); err != nil {
		return s, err
	}
	score, err := r.i32()
	if err != nil {
		return s, err
	}
	s.Score = float64(score)
	return s, nil
}

// reader sequentially consumes a byte frame, reporting
// ErrSerializationIncomplete on any short read.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) empty() bool { return r.pos >= len(r.buf) }

func (r *reader) need(n int) error {
	if len(r.buf)-r.pos < n {
		return splerr.ErrSerializationIncomplete
	}
	return nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

func (r *reader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *reader) f64() (float64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(order.Uint64(b)), nil
}

func (r *reader) boolean() (bool, error) {
	b, err := r.bytes(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (r *reader) cstr() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	order.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putI32(buf *bytes.Buffer, v int32) { putU32(buf, uint32(v)) }

func putF64(buf *bytes.Buffer, v float64) {
	var b [8]byte
	order.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
}

func putBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

// putCStr writes a length-prefixed string: u32 length | raw bytes, the
// Open-Question resolution for spec.md §4.G's "cstr" notation (see
// DESIGN.md).
func putCStr(buf *bytes.Buffer, s string) {
	putU32(buf, uint32(len(s)))
	buf.WriteString(s)
}
