package main

import (
	"context"
	"fmt"

	"github.com/grailbio/splign/accessor"
)

// pairAccessor dispatches Load/Len to whichever of two single-FASTA
// accessors owns the requested sequence id. The Engine's Accessor contract
// (spec.md §6) addresses sequences by id across both the query and subject
// namespace; the CLI opens query and subject FASTA files separately, so
// this is the glue that presents them as the single Accessor the Engine
// expects.
type pairAccessor struct {
	queryID string
	query   accessor.Accessor
	subjID  string
	subj    accessor.Accessor
}

func newPairAccessor(queryID string, query accessor.Accessor, subjID string, subj accessor.Accessor) *pairAccessor {
	return &pairAccessor{queryID: queryID, query: query, subjID: subjID, subj: subj}
}

func (p *pairAccessor) resolve(seqID string) (accessor.Accessor, error) {
	switch seqID {
	case p.queryID:
		return p.query, nil
	case p.subjID:
		return p.subj, nil
	default:
		return nil, fmt.Errorf("splign: sequence id %q is neither the query (%q) nor the subject (%q)", seqID, p.queryID, p.subjID)
	}
}

func (p *pairAccessor) Load(ctx context.Context, seqID string, start, end int64) ([]byte, error) {
	a, err := p.resolve(seqID)
	if err != nil {
		return nil, err
	}
	return a.Load(ctx, seqID, start, end)
}

func (p *pairAccessor) Len(ctx context.Context, seqID string) (int64, error) {
	a, err := p.resolve(seqID)
	if err != nil {
		return 0, err
	}
	return a.Len(ctx, seqID)
}
