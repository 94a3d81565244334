// Package cid reads word cluster assignments ("word<TAB>cluster-id" lines,
// as written by Brown clustering tools) and expands them into one-hot
// vectors.
package cid

import (
	"bufio"
	"fmt"
	"math"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hupe1980/wvgo/internal/errs"
	"github.com/hupe1980/wvgo/matrix"
)

// Read parses r into words and one-hot vectors of dimension max(id)+1.
//
// Lines are split on a tab; the first line that does not split into two
// fields switches to whitespace splitting. Likewise the first id that is
// not base 10 switches to base 2 (bit-string cluster paths). Both switches
// are logged and persist for the remaining lines. When maxRank > 0 at most
// maxRank lines are read.
func Read(r io.Reader, maxRank int, logger *slog.Logger) ([]string, *matrix.Matrix, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sc := bufio.NewScanner(r)

	var (
		words []string
		ids   []int
		maxID = -1
		split = func(s string) []string { return strings.Split(s, "\t") }
		base  = 10
		line  int
	)
	for sc.Scan() {
		if maxRank > 0 && len(words) >= maxRank {
			break
		}
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		fields := split(text)
		if len(fields) != 2 {
			if fields = strings.Fields(text); len(fields) == 2 {
				logger.Warn("cluster file is not tab-separated, splitting on whitespace", "line", line)
				split = strings.Fields
			} else {
				return nil, nil, &errs.FormatError{Line: line, Text: text, Msg: fmt.Sprintf("expected 2 fields, got %d", len(fields))}
			}
		}
		id, err := strconv.ParseInt(fields[1], base, 64)
		if err != nil && base == 10 {
			if id, err = strconv.ParseInt(fields[1], 2, 64); err == nil {
				logger.Warn("cluster ids are not base 10, parsing as binary", "line", line)
				base = 2
			}
		}
		if err != nil || id < 0 {
			return nil, nil, &errs.FormatError{Line: line, Text: text, Msg: "expected non-negative cluster id", Err: err}
		}
		words = append(words, fields[0])
		ids = append(ids, int(id))
		maxID = max(maxID, int(id))
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read clusters: %w", err)
	}
	if len(words) == 0 {
		return nil, nil, errs.Formatf("no cluster assignments")
	}

	dim := maxID + 1
	if len(ids) > math.MaxInt/dim {
		return nil, nil, errs.Formatf("%d words with cluster ids up to %d overflow a one-hot matrix", len(ids), maxID)
	}
	data := make([]float32, len(ids)*dim)
	for i, id := range ids {
		data[i*dim+id] = 1
	}
	m, err := matrix.FromData(dim, data)
	if err != nil {
		return nil, nil, err
	}
	return words, m, nil
}
