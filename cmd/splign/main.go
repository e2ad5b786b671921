// splign aligns one cDNA query against one genomic subject and writes the
// resulting aligned compartments to stdout: a thin CLI wrapper (spec.md §6)
// around the engine package, in the shape of cmd/bio-pileup/main.go and
// cmd/bio-fusion/main.go.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/klauspost/compress/gzip"

	"github.com/grailbio/splign/accessor"
	"github.com/grailbio/splign/align/nw"
	"github.com/grailbio/splign/engine"
	"github.com/grailbio/splign/format"
	"github.com/grailbio/splign/hit"
)

var (
	queryPath  = flag.String("query", "", "Path to the query (cDNA/transcript) FASTA file")
	subjPath   = flag.String("subject", "", "Path to the subject (genomic) FASTA file")
	subjIndex  = flag.String("subject-index", "", "Path to a faidx-style index for -subject; enables indexed random access instead of loading the whole subject into memory")
	hitsPath   = flag.String("hits", "-", "Path to a hit file (query_id,subj_id,q_lo,q_hi,s_lo,s_hi,score,group_id per line); '-' reads stdin. A .gz suffix is decompressed")
	formatFlag = flag.String("format", "text", "Output style: \"text\" (one row per segment) or \"records\" (one JSON object per compartment)")
	strict     = flag.Bool("strict", false, "Exit non-zero if any compartment fails to align")

	minExonIdentity     = flag.Float64("min_exon_identity", engine.DefaultConfig.MinExonIdentity, "Identity threshold below which an exon is demoted to a gap, in [0,1]; values below 0.90 act as 0.90")
	minQueryCoverage    = flag.Float64("min_query_coverage", engine.DefaultConfig.MinQueryCoverage, "Minimum fraction of the query a compartment's hits must cover, in [0,1]")
	compartmentPenalty  = flag.Float64("compartment_penalty", engine.DefaultConfig.CompartmentPenalty, "Per-bp penalty fraction subtracted from a compartment's score sum, in [0,1]")
	maxGenomicExtension = flag.Int("max_genomic_extension", int(engine.DefaultConfig.MaxGenomicExtension), "Subject flank (bp) loaded around a compartment's hit envelope")
	endGapDetection     = flag.Bool("end_gap_detection", engine.DefaultConfig.EndGapDetection, "Force terminal-exon improvement even when identity already passes threshold")
	polyADetection      = flag.Bool("poly_a_detection", engine.DefaultConfig.PolyADetection, "Enable poly-A trimming/extension")
	queryStrand         = flag.Bool("query_strand", engine.DefaultConfig.QueryStrand, "true = query is stored plus-strand; false = reverse-complement before aligning")
	modelIDSeed         = flag.Uint("model_id_seed", uint(engine.DefaultConfig.ModelIDSeed), "First id assigned to an output aligned compartment")

	matchScore    = flag.Int("match", int(nw.DefaultConfig.Match), "Aligner match score")
	mismatchScore = flag.Int("mismatch", int(nw.DefaultConfig.Mismatch), "Aligner mismatch penalty")
	gapScore      = flag.Int("gap", int(nw.DefaultConfig.Gap), "Aligner gap penalty")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s -query FASTA -subject FASTA [-hits FILE] <query_id> <subject_id>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 2 {
		log.Fatalf("exactly two positional arguments (<query_id> <subject_id>) are required; got %d: %s",
			flag.NArg(), strings.Join(flag.Args(), " "))
	}
	queryID, subjID := flag.Arg(0), flag.Arg(1)

	if *queryPath == "" || *subjPath == "" {
		log.Fatal("-query and -subject are required")
	}
	style, err := format.Parse(*formatFlag)
	if err != nil {
		log.Fatal(err)
	}

	ctx := vcontext.Background()
	if err := run(ctx, queryID, subjID, style); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, queryID, subjID string, style format.Style) error {
	queryAcc, err := accessor.Open(ctx, *queryPath, "")
	if err != nil {
		return fmt.Errorf("opening query %s: %w", *queryPath, err)
	}
	subjAcc, err := accessor.Open(ctx, *subjPath, *subjIndex)
	if err != nil {
		return fmt.Errorf("opening subject %s: %w", *subjPath, err)
	}

	hits, err := loadHits(*hitsPath, queryID, subjID)
	if err != nil {
		return err
	}

	cfg := engine.DefaultConfig
	cfg.MinExonIdentity = *minExonIdentity
	cfg.MinQueryCoverage = *minQueryCoverage
	cfg.CompartmentPenalty = *compartmentPenalty
	cfg.MaxGenomicExtension = int32(*maxGenomicExtension)
	cfg.EndGapDetection = *endGapDetection
	cfg.PolyADetection = *polyADetection
	cfg.QueryStrand = *queryStrand
	cfg.ModelIDSeed = uint32(*modelIDSeed)

	nwCfg := nw.DefaultConfig
	nwCfg.Match = int32(*matchScore)
	nwCfg.Mismatch = int32(*mismatchScore)
	nwCfg.Gap = int32(*gapScore)

	acc := newPairAccessor(queryID, queryAcc, subjID, subjAcc)
	e, err := engine.New(acc, nw.New(nwCfg), cfg)
	if err != nil {
		return fmt.Errorf("configuring engine: %w", err)
	}

	acs, err := e.Run(ctx, queryID, subjID, hits)
	if err != nil {
		return fmt.Errorf("aligning %s/%s: %w", queryID, subjID, err)
	}

	if err := format.Write(os.Stdout, queryID, subjID, acs, style); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if *strict {
		for _, ac := range acs {
			if ac.Error {
				os.Exit(1)
			}
		}
	}
	return nil
}

// loadHits opens path ('-' for stdin, transparently gunzipping a .gz
// suffix) and parses it with readHits.
func loadHits(path, queryID, subjID string) ([]hit.Hit, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening hits file %s: %w", path, err)
		}
		defer f.Close()
		r = f
		if strings.HasSuffix(path, ".gz") {
			gz, err := gzip.NewReader(f)
			if err != nil {
				return nil, fmt.Errorf("opening gzip hits file %s: %w", path, err)
			}
			defer gz.Close()
			r = gz
		}
	}
	hits, err := readHits(r, queryID, subjID)
	if err != nil {
		return nil, fmt.Errorf("reading hits from %s: %w", path, err)
	}
	return hits, nil
}
