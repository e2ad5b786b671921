package engine

import (
	"github.com/grailbio/splign/hitfilter"
	"github.com/grailbio/splign/pattern"
	"github.com/grailbio/splign/segment"
	"github.com/grailbio/splign/splerr"
)

// Config is the Engine's immutable configuration record (spec.md §6),
// threaded through every call rather than kept as mutable instance state
// (spec.md §9 "Global mutable state"), in the shape of fusion.Opts.
type Config struct {
	// MinExonIdentity is the threshold below which an exon is demoted to a
	// gap; must be in [0,1]. The threshold applied is max(MinExonIdentity,
	// 0.90).
	MinExonIdentity float64
	// MinQueryCoverage is the minimum fraction of the query a compartment's
	// hits must cover; must be in [0,1].
	MinQueryCoverage float64
	// CompartmentPenalty is the per-bp penalty fraction subtracted from a
	// compartment's score sum; must be in [0,1].
	CompartmentPenalty float64
	// MaxGenomicExtension is the subject flank (bp) loaded around a
	// compartment's hit envelope.
	MaxGenomicExtension int32
	// IntronLimit bounds the subject gap the Compartment Finder tolerates
	// between consecutive co-linear hits before closing a run.
	IntronLimit int32
	// EndGapDetection forces terminal-exon improvement even when identity
	// already passes threshold.
	EndGapDetection bool
	// PolyADetection enables poly-A trimming/extension.
	PolyADetection bool
	// QueryStrand is true when the query sequence, as loaded, is on the plus
	// strand; false means reverse-complement before processing.
	QueryStrand bool
	// ModelIDSeed is the first id assigned to an output AlignedCompartment.
	ModelIDSeed uint32

	// Filter parameterizes the Hit Filter stage.
	Filter hitfilter.Config
	// Pattern parameterizes the Pattern Builder stage.
	Pattern pattern.Config
}

// DefaultConfig mirrors fusion.DefaultOpts: permissive thresholds, no
// grouping, end-space-free anchoring via the pattern builder's realignment.
var DefaultConfig = Config{
	MinExonIdentity:     0.70,
	MinQueryCoverage:    0.50,
	CompartmentPenalty:  0.4,
	MaxGenomicExtension: 10000,
	IntronLimit:         1200000,
	EndGapDetection:      false,
	PolyADetection:       true,
	QueryStrand:          true,
	ModelIDSeed:          0,
	Filter: hitfilter.Config{
		Mode:              hitfilter.MaxScore,
		QueryPolicy:       hitfilter.MaxScoreSplit,
		SubjectPolicy:     hitfilter.MaxScoreSplit,
		StrandPolicy:      hitfilter.Auto,
		Colinearity:       true,
		CoalesceProximity: 5,
		CoverageStep:      0.2,
	},
	Pattern: pattern.Config{
		MaxAnchorLen: 0, // 0 -> DefaultConfig.MaxAnchorLen (disabled) at call site
		Realign:      true,
	},
}

// Validate reports a configuration error (spec.md §7) when any field is
// out of its documented range. Configuration errors abort the whole
// invocation rather than a single compartment.
func (c Config) Validate() error {
	if c.MinExonIdentity < 0 || c.MinExonIdentity > 1 {
		return splerr.ErrBadIdentityThreshold
	}
	if c.MinQueryCoverage < 0 || c.MinQueryCoverage > 1 {
		return splerr.ErrQueryCoverageOutOfRange
	}
	if c.CompartmentPenalty < 0 || c.CompartmentPenalty > 1 {
		return splerr.ErrQueryCoverageOutOfRange
	}
	return nil
}

func (c Config) segmentConfig() segment.Config {
	return segment.Config{
		MinIdentity:     c.MinExonIdentity,
		EndGapDetection: c.EndGapDetection,
		PolyADetection:  c.PolyADetection,
	}
}
