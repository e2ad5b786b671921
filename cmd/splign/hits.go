package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/splign/hit"
)

// readHits parses the --hits stream (SPEC_FULL.md §3.I): one hit per line,
// comma-separated `query_id,subj_id,q_lo,q_hi,s_lo,s_hi,score,group_id`.
// Only rows whose query_id/subj_id match the invocation's pair are kept,
// since a single splign run aligns exactly one query against one subject
// but a hit file may be a shared, multi-pair corpus. Blank lines and lines
// starting with '#' are skipped.
func readHits(r io.Reader, queryID, subjID string) ([]hit.Hit, error) {
	var hits []hit.Hit
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if len(fields) != 8 {
			return nil, fmt.Errorf("hits:%d: want 8 comma-separated fields "+
				"(query_id,subj_id,q_lo,q_hi,s_lo,s_hi,score,group_id), got %d", lineNo, len(fields))
		}
		hQueryID, hSubjID := fields[0], fields[1]
		qLo, err := strconv.ParseInt(fields[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("hits:%d: q_lo: %v", lineNo, err)
		}
		qHi, err := strconv.ParseInt(fields[3], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("hits:%d: q_hi: %v", lineNo, err)
		}
		sLo, err := strconv.ParseInt(fields[4], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("hits:%d: s_lo: %v", lineNo, err)
		}
		sHi, err := strconv.ParseInt(fields[5], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("hits:%d: s_hi: %v", lineNo, err)
		}
		score, err := strconv.ParseFloat(fields[6], 64)
		if err != nil {
			return nil, fmt.Errorf("hits:%d: score: %v", lineNo, err)
		}
		groupID, err := strconv.Atoi(fields[7])
		if err != nil {
			return nil, fmt.Errorf("hits:%d: group_id: %v", lineNo, err)
		}

		if hQueryID != queryID || hSubjID != subjID {
			continue
		}
		hits = append(hits, hit.New(queryID, subjID, int32(qLo), int32(qHi), int32(sLo), int32(sHi), score, groupID))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("hits: %v", err)
	}
	return hits, nil
}
