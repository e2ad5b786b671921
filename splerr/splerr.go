// Package splerr defines the sentinel errors shared across the alignment
// pipeline, named by meaning rather than by the stage that raises them, per
// the propagation policy they support: configuration errors, missing
// collaborators and errors raised before any compartment exists (empty or
// fully filtered hits, failed sequence lookups) abort the whole invocation;
// errors inside a compartment are caught at the compartment boundary and
// recorded on the offending AlignedCompartment.
package splerr

import "errors"

var (
	// ErrBadIdentityThreshold: configured identity outside [0,1].
	ErrBadIdentityThreshold = errors.New("splign: identity threshold out of [0,1]")
	// ErrQueryCoverageOutOfRange: configured coverage or penalty outside [0,1].
	ErrQueryCoverageOutOfRange = errors.New("splign: query coverage or penalty out of [0,1]")
	// ErrSequenceAccessorNotSpecified: engine invoked without a Sequence Accessor.
	ErrSequenceAccessorNotSpecified = errors.New("splign: sequence accessor not specified")
	// ErrAlignerNotSpecified: engine invoked without an Aligner.
	ErrAlignerNotSpecified = errors.New("splign: aligner not specified")
	// ErrEmptyHitVector: caller passed no hits.
	ErrEmptyHitVector = errors.New("splign: empty hit vector")
	// ErrNoHits is the Hit Filter's name for an empty input (spec: NoHits).
	ErrNoHits = ErrEmptyHitVector
	// ErrNoHitsAfterFiltering: filter removed all hits.
	ErrNoHitsAfterFiltering = errors.New("splign: no hits survived filtering")
	// ErrNoHitsBeyondPolyA: all surviving hits fell inside the poly-A tail.
	ErrNoHitsBeyondPolyA = errors.New("splign: no hits beyond poly-A tail")
	// ErrNoAlignment: aligner returned no exons.
	ErrNoAlignment = errors.New("splign: aligner produced no exons")
	// ErrNoExonsAboveIdtyLimit: all produced exons were demoted.
	ErrNoExonsAboveIdtyLimit = errors.New("splign: no exons above identity limit")
	// ErrInvalidRange: anchor outside sequence bounds.
	ErrInvalidRange = errors.New("splign: invalid range")
	// ErrInvalidPatternCoordinates: anchors unordered, or anchor count not a multiple of 4.
	ErrInvalidPatternCoordinates = errors.New("splign: invalid pattern coordinates")
	// ErrUnknownTranscriptSymbol: aligner emitted a per-column symbol outside {M,R,I,D}.
	ErrUnknownTranscriptSymbol = errors.New("splign: unknown transcript symbol")
	// ErrUnsupportedSymbol: accessor loaded a sequence byte outside the IUPAC alphabet this module supports.
	ErrUnsupportedSymbol = errors.New("splign: unsupported sequence symbol")
	// ErrSequenceNotFound: accessor failed for a named sequence.
	ErrSequenceNotFound = errors.New("splign: sequence not found")
	// ErrSerializationIncomplete: serialized buffer too short to decode (spec: NetCacheBufferIncomplete).
	ErrSerializationIncomplete = errors.New("splign: serialization buffer incomplete")
)
