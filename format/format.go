// Package format renders AlignedCompartment values for the CLI (spec.md
// §6's "downstream code renders text rows ... and/or typed alignment
// records"; the Engine itself carries no formatting concerns).
package format

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/grailbio/splign/cache"
	"github.com/grailbio/splign/segment"
)

// Style selects one of the two renderings the CLI supports.
type Style int

const (
	// Text renders one row per segment, tab-separated.
	Text Style = iota
	// Records renders one JSON object per compartment, one per line.
	Records
)

// Parse maps a --format flag value to a Style.
func Parse(s string) (Style, error) {
	switch s {
	case "text", "":
		return Text, nil
	case "records":
		return Records, nil
	default:
		return 0, fmt.Errorf("format: unknown style %q (want \"text\" or \"records\")", s)
	}
}

// Write renders acs to out in the given style.
func Write(out io.Writer, queryID, subjID string, acs []cache.AlignedCompartment, style Style) error {
	switch style {
	case Records:
		return writeRecords(out, queryID, subjID, acs)
	default:
		return writeText(out, queryID, subjID, acs)
	}
}

// writeText emits one tab-separated row per segment:
//
//	query subject compartment_id kind q_lo q_hi s_lo s_hi identity details annotation
//
// A failed compartment emits a single row carrying its error message in
// place of coordinates.
func writeText(out io.Writer, queryID, subjID string, acs []cache.AlignedCompartment) error {
	for _, ac := range acs {
		if ac.Error {
			if _, err := fmt.Fprintf(out, "%s\t%s\t%d\tERROR\t%s\n", queryID, subjID, ac.ID, ac.Message); err != nil {
				return err
			}
			continue
		}
		for _, s := range ac.Segments {
			kind := "exon"
			if s.Kind != segment.ExonKind {
				kind = "gap"
			}
			_, err := fmt.Fprintf(out, "%s\t%s\t%d\t%s\t%d\t%d\t%d\t%d\t%.4f\t%s\t%s\n",
				queryID, subjID, ac.ID, kind, s.QBox.Lo, s.QBox.Hi, s.SBox.Lo, s.SBox.Hi,
				s.Identity, s.Details, s.Annotation)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// record is the typed, one-line-per-compartment JSON rendering.
type record struct {
	QueryID     string           `json:"query_id"`
	SubjID      string           `json:"subj_id"`
	ID          uint32           `json:"id"`
	Error       bool             `json:"error,omitempty"`
	Message     string           `json:"message,omitempty"`
	QueryStrand bool             `json:"query_strand"`
	SubjStrand  bool             `json:"subj_strand"`
	Segments    []segmentRecord  `json:"segments,omitempty"`
}

type segmentRecord struct {
	Kind       string  `json:"kind"`
	QLo        int32   `json:"q_lo"`
	QHi        int32   `json:"q_hi"`
	SLo        int32   `json:"s_lo"`
	SHi        int32   `json:"s_hi"`
	Identity   float64 `json:"identity"`
	Details    string  `json:"details,omitempty"`
	Annotation string  `json:"annotation,omitempty"`
}

func writeRecords(out io.Writer, queryID, subjID string, acs []cache.AlignedCompartment) error {
	enc := json.NewEncoder(out)
	for _, ac := range acs {
		r := record{
			QueryID:     queryID,
			SubjID:      subjID,
			ID:          ac.ID,
			Error:       ac.Error,
			Message:     ac.Message,
			QueryStrand: ac.QueryStrand,
			SubjStrand:  ac.SubjStrand,
		}
		for _, s := range ac.Segments {
			kind := "exon"
			if s.Kind != segment.ExonKind {
				kind = "gap"
			}
			r.Segments = append(r.Segments, segmentRecord{
				Kind: kind, QLo: s.QBox.Lo, QHi: s.QBox.Hi, SLo: s.SBox.Lo, SHi: s.SBox.Hi,
				Identity: s.Identity, Details: s.Details, Annotation: s.Annotation,
			})
		}
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
