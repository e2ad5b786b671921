// Package accessor implements the Sequence Accessor external collaborator
// (spec.md §6): loading a named sequence's range in upper-case IUPAC,
// adapted from a FASTA reader/indexer kept from the teacher.
package accessor

import (
	"bytes"
	"context"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/unsafe"
	"github.com/grailbio/bio/biosimd"
	"github.com/grailbio/splign/encoding/fasta"
	"github.com/grailbio/splign/splerr"
	"github.com/pkg/errors"
)

// ToEnd is the end sentinel meaning "to end of sequence" (spec.md §6).
const ToEnd = -1

// Accessor is the Sequence Accessor capability interface the Engine
// consumes.
type Accessor interface {
	// Load returns the inclusive range [start, end] of seqID in upper-case
	// IUPAC. end == ToEnd means "to end of sequence".
	Load(ctx context.Context, seqID string, start, end int64) ([]byte, error)
	// Len returns the length of seqID.
	Len(ctx context.Context, seqID string) (int64, error)
}

// FastaAccessor implements Accessor over a fasta.Fasta, supporting both the
// eager in-memory form and the indexed/random-access (faidx-style) form for
// large genomic subjects.
type FastaAccessor struct {
	f fasta.Fasta
}

// Open loads a FASTA file from path. If indexPath is non-empty, the
// sequence is accessed via the indexed/faidx-style random-access reader
// (fasta.NewIndexed) rather than read eagerly into memory — the path a real
// Splign-like tool takes for whole-chromosome subjects, where only a
// compartment's flanking window is ever touched.
func Open(ctx context.Context, path string, indexPath string) (*FastaAccessor, error) {
	if indexPath != "" {
		seqFile, err := file.Open(ctx, path)
		if err != nil {
			return nil, errors.Wrapf(err, "accessor: opening %s", path)
		}
		idxFile, err := file.Open(ctx, indexPath)
		if err != nil {
			return nil, errors.Wrapf(err, "accessor: opening index %s", indexPath)
		}
		f, err := fasta.NewIndexed(seqFile.Reader(ctx), idxFile.Reader(ctx))
		if err != nil {
			return nil, errors.Wrapf(err, "accessor: indexing %s", path)
		}
		return &FastaAccessor{f: f}, nil
	}

	r, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "accessor: opening %s", path)
	}
	defer r.Close(ctx)
	f, err := fasta.New(r.Reader(ctx), OptCleanSeq)
	if err != nil {
		return nil, errors.Wrapf(err, "accessor: parsing %s", path)
	}
	return &FastaAccessor{f: f}, nil
}

// OptCleanSeq is applied by Open when no index is given, so sequences read
// eagerly only contain bytes in the module's supported alphabet (see
// CleanASCIISeq* in biosimd). The indexed path applies no cleaning; its Load
// only upper-cases.
var OptCleanSeq = fasta.OptClean

func (a *FastaAccessor) Load(ctx context.Context, seqID string, start, end int64) ([]byte, error) {
	length, err := a.f.Len(seqID)
	if err != nil {
		return nil, wrapSeqErr(splerr.ErrSequenceNotFound, seqID, err)
	}
	if end == ToEnd {
		end = int64(length) - 1
	}
	if start < 0 || end < start || uint64(end) >= length {
		return nil, splerr.ErrInvalidRange
	}
	s, err := a.f.Get(seqID, uint64(start), uint64(end)+1)
	if err != nil {
		return nil, wrapSeqErr(splerr.ErrSequenceNotFound, seqID, err)
	}
	return unsafe.StringToBytes(strings.ToUpper(s)), nil
}

func (a *FastaAccessor) Len(ctx context.Context, seqID string) (int64, error) {
	length, err := a.f.Len(seqID)
	if err != nil {
		return 0, wrapSeqErr(splerr.ErrSequenceNotFound, seqID, err)
	}
	return int64(length), nil
}

func wrapSeqErr(sentinel error, seqID string, cause error) error {
	return errors.Wrapf(sentinel, "%s: %v", seqID, cause)
}

// InMemoryAccessor is a trivial Accessor over a fixed set of sequences,
// used by tests and by callers with small, already-resident sequences
// (e.g. a single transcript and a pre-extracted genomic window).
type InMemoryAccessor struct {
	seqs map[string][]byte
}

// NewInMemory builds an InMemoryAccessor from a name->sequence map. Values
// are upper-cased and cleaned with biosimd.CleanASCIISeqInplace.
func NewInMemory(seqs map[string][]byte) *InMemoryAccessor {
	m := make(map[string][]byte, len(seqs))
	for k, v := range seqs {
		cp := bytes.ToUpper(v)
		biosimd.CleanASCIISeqInplace(cp)
		m[k] = cp
	}
	return &InMemoryAccessor{seqs: m}
}

func (a *InMemoryAccessor) Load(ctx context.Context, seqID string, start, end int64) ([]byte, error) {
	seq, ok := a.seqs[seqID]
	if !ok {
		return nil, errors.Wrap(splerr.ErrSequenceNotFound, seqID)
	}
	if end == ToEnd {
		end = int64(len(seq)) - 1
	}
	if start < 0 || end < start || end >= int64(len(seq)) {
		return nil, splerr.ErrInvalidRange
	}
	return seq[start : end+1], nil
}

func (a *InMemoryAccessor) Len(ctx context.Context, seqID string) (int64, error) {
	seq, ok := a.seqs[seqID]
	if !ok {
		return 0, errors.Wrap(splerr.ErrSequenceNotFound, seqID)
	}
	return int64(len(seq)), nil
}
