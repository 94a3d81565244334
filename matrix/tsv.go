package matrix

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/wvgo/internal/errs"
)

// ReadTSV parses one row per line with tab or space separated values.
// dim fixes the expected row length; 0 infers it from the first row.
// When maxRank > 0 at most maxRank rows are read.
func ReadTSV(r io.Reader, dim, maxRank int) (*Matrix, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 256*1024), 64*1024*1024)

	var m *Matrix
	if dim > 0 {
		m = New(dim, 0)
	}
	line := 0
	for sc.Scan() {
		if maxRank > 0 && m != nil && m.Len() >= maxRank {
			break
		}
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if m == nil {
			m = New(len(fields), 0)
		}
		if len(fields) != m.dim {
			return nil, &errs.FormatError{Line: line, Text: sc.Text(), Msg: fmt.Sprintf("expected %d values, got %d", m.dim, len(fields))}
		}
		row, err := ParseFloats(fields)
		if err != nil {
			return nil, &errs.FormatError{Line: line, Text: sc.Text(), Msg: "expected floats", Err: err}
		}
		m.data = append(m.data, row...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tsv vectors: %w", err)
	}
	if m == nil {
		m = New(dim, 0)
	}
	return m, nil
}

// WriteTSV writes one tab-separated line per row using the shortest
// representation that round-trips through float32.
func (m *Matrix) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 32)
	for _, row := range m.Rows() {
		for j, x := range row {
			if j > 0 {
				if err := bw.WriteByte('\t'); err != nil {
					return err
				}
			}
			buf = strconv.AppendFloat(buf[:0], float64(x), 'g', -1, 32)
			if _, err := bw.Write(buf); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ParseFloats parses decimal fields as float32 values.
func ParseFloats(fields []string) ([]float32, error) {
	out := make([]float32, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(x)
	}
	return out, nil
}
