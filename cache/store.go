package cache

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"modernc.org/kv"
)

// Key identifies one cached AlignedCompartment by the query/subject pair and
// compartment id it came from.
type Key struct {
	QueryID       string
	SubjID        string
	CompartmentID uint32
}

// compare orders keys by query id, then subject id, then compartment id,
// in the style of kortschak-ins/internal/store's kv.Options.Compare
// functions.
func compare(x, y []byte) int {
	if bytes.Equal(x, y) {
		return 0
	}
	kx, ky := decodeKey(x), decodeKey(y)
	switch {
	case kx.QueryID != ky.QueryID:
		if kx.QueryID < ky.QueryID {
			return -1
		}
		return 1
	case kx.SubjID != ky.SubjID:
		if kx.SubjID < ky.SubjID {
			return -1
		}
		return 1
	case kx.CompartmentID != ky.CompartmentID:
		if kx.CompartmentID < ky.CompartmentID {
			return -1
		}
		return 1
	}
	return 0
}

func encodeKey(k Key) []byte {
	var buf bytes.Buffer
	putCStr(&buf, k.QueryID)
	putCStr(&buf, k.SubjID)
	putU32(&buf, k.CompartmentID)
	return buf.Bytes()
}

func decodeKey(data []byte) Key {
	r := &reader{buf: data}
	queryID, _ := r.cstr()
	subjID, _ := r.cstr()
	id, _ := r.u32()
	return Key{QueryID: queryID, SubjID: subjID, CompartmentID: id}
}

// Store is a modernc.org/kv-backed cache of encoded AlignedCompartments,
// the concrete "cache storage" spec.md §4.G names but leaves external.
type Store struct {
	db *kv.DB
}

// Open opens a Store at path, creating it if it does not already exist.
func Open(path string) (*Store, error) {
	opts := &kv.Options{Compare: compare}
	db, err := kv.Open(path, opts)
	if err != nil {
		db, err = kv.Create(path, opts)
	}
	if err != nil {
		return nil, errors.Wrap(err, "cache: opening store")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Put encodes and stores one AlignedCompartment under key.
func (s *Store) Put(key Key, a AlignedCompartment) error {
	if err := s.db.Set(encodeKey(key), Encode(a)); err != nil {
		return errors.Wrap(err, "cache: put")
	}
	return nil
}

// Get decodes the AlignedCompartment stored under key, if any.
func (s *Store) Get(key Key) (AlignedCompartment, bool, error) {
	v, err := s.db.Get(nil, encodeKey(key))
	if err != nil {
		return AlignedCompartment{}, false, errors.Wrap(err, "cache: get")
	}
	if v == nil {
		return AlignedCompartment{}, false, nil
	}
	a, err := Decode(v)
	if err != nil {
		return AlignedCompartment{}, false, fmt.Errorf("cache: decoding %v: %w", key, err)
	}
	return a, true, nil
}
