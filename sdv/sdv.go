// Package sdv reads and writes space-delimited values: one
// "word f1 ... fd" line per word with no header.
package sdv

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/wvgo/internal/errs"
	"github.com/hupe1980/wvgo/matrix"
)

// Read parses r. The dimension is taken from the first line; rows of a
// different length or with non-numeric values fail with *errs.FormatError.
// When maxRank > 0 at most maxRank rows are read.
func Read(r io.Reader, maxRank int) ([]string, *matrix.Matrix, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var (
		words []string
		m     *matrix.Matrix
		line  int
	)
	for sc.Scan() {
		if maxRank > 0 && len(words) >= maxRank {
			break
		}
		line++
		text := strings.TrimRight(sc.Text(), " \r")
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		v, err := matrix.ParseFloats(fields[1:])
		if err != nil {
			return nil, nil, &errs.FormatError{Line: line, Text: text, Msg: "expected word and floats", Err: err}
		}
		if m == nil {
			m = matrix.New(len(v), 0)
		}
		if len(v) != m.Dim() {
			return nil, nil, &errs.FormatError{Line: line, Text: text, Msg: fmt.Sprintf("expected %d values, got %d", m.Dim(), len(v))}
		}
		if err := m.Append(v); err != nil {
			return nil, nil, &errs.FormatError{Line: line, Text: text, Msg: "vector shape mismatch", Err: err}
		}
		words = append(words, fields[0])
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read sdv: %w", err)
	}
	if m == nil {
		return nil, nil, errs.Formatf("no sdv rows")
	}
	return words, m, nil
}

// Write writes one line per word with values in shortest float32 form.
func Write(w io.Writer, words []string, m *matrix.Matrix) error {
	if len(words) != m.Len() {
		return errs.Invalid("words", "%d words for %d vectors", len(words), m.Len())
	}
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 32)
	for i, row := range m.Rows() {
		bw.WriteString(words[i])
		for _, x := range row {
			buf = append(buf[:0], ' ')
			buf = strconv.AppendFloat(buf, float64(x), 'g', -1, 32)
			bw.Write(buf)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
