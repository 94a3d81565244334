package matrix

import (
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"math"
	"slices"

	"github.com/hupe1980/wvgo/distance"
	"github.com/hupe1980/wvgo/internal/errs"
)

// Matrix is an ordered sequence of fixed-dimension vectors.
type Matrix struct {
	dim        int
	data       []float32
	normalized bool
}

// maxPrealloc caps the values New reserves up front; further rows grow
// the backing slice on Append.
const maxPrealloc = 1 << 22

// New returns an empty matrix for dim-dimensional rows with room for
// capacity rows. Capacity is a hint and is capped, so a count taken from
// an untrusted header cannot exhaust memory before any row is read.
func New(dim, capacity int) *Matrix {
	if dim <= 0 || capacity < 0 {
		capacity = 0
	} else if capacity > maxPrealloc/dim {
		capacity = maxPrealloc / dim
	}
	return &Matrix{dim: dim, data: make([]float32, 0, dim*capacity)}
}

// FromRows copies rows into a new matrix. All rows must share a length.
func FromRows(rows [][]float32) (*Matrix, error) {
	if len(rows) == 0 {
		return New(0, 0), nil
	}
	m := New(len(rows[0]), len(rows))
	for _, r := range rows {
		if err := m.Append(r); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// FromData wraps a row-major slice holding len(data)/dim rows.
func FromData(dim int, data []float32) (*Matrix, error) {
	if dim < 0 || (dim == 0 && len(data) > 0) || (dim > 0 && len(data)%dim != 0) {
		return nil, errs.Invalid("dim", "%d does not divide %d values", dim, len(data))
	}
	return &Matrix{dim: dim, data: data}, nil
}

// Append copies v as a new row.
func (m *Matrix) Append(v []float32) error {
	if len(v) != m.dim {
		return errs.Formatf("expected %d values, got %d", m.dim, len(v))
	}
	m.data = append(m.data, v...)
	m.normalized = false
	return nil
}

// RowBuffer returns scratch space for ReadRow holding up to 4096 values
// of itemSize bytes.
func RowBuffer(dim, itemSize int) []byte {
	return make([]byte, min(dim, 4096)*itemSize)
}

// ReadRow decodes one row of fixed-width floats (itemSize 4 or 8, in the
// given byte order) from r and appends it. The row is read through buf in
// chunks. On a short read the matrix is left unchanged and the io error is
// returned.
func (m *Matrix) ReadRow(r io.Reader, order binary.ByteOrder, itemSize int, buf []byte) error {
	if itemSize != 4 && itemSize != 8 {
		return errs.Invalid("item_size", "must be 4 or 8, got %d", itemSize)
	}
	chunk := len(buf) / itemSize
	if chunk == 0 && m.dim > 0 {
		return errs.Invalid("buf", "holds no %d-byte value", itemSize)
	}
	n := len(m.data)
	for left := m.dim; left > 0; {
		k := min(left, chunk)
		b := buf[:k*itemSize]
		if _, err := io.ReadFull(r, b); err != nil {
			m.data = m.data[:n]
			return err
		}
		for off := 0; off < len(b); off += itemSize {
			if itemSize == 4 {
				m.data = append(m.data, math.Float32frombits(order.Uint32(b[off:])))
			} else {
				m.data = append(m.data, float32(math.Float64frombits(order.Uint64(b[off:]))))
			}
		}
		left -= k
	}
	m.normalized = false
	return nil
}

// Dim returns the row dimensionality.
func (m *Matrix) Dim() int { return m.dim }

// Len returns the number of rows.
func (m *Matrix) Len() int {
	if m.dim == 0 {
		return 0
	}
	return len(m.data) / m.dim
}

// Row returns row i. The slice aliases the matrix storage.
func (m *Matrix) Row(i int) []float32 {
	start := i * m.dim
	return m.data[start : start+m.dim : start+m.dim]
}

// Rows iterates over (index, row) pairs. Rows alias the matrix storage.
func (m *Matrix) Rows() iter.Seq2[int, []float32] {
	return func(yield func(int, []float32) bool) {
		for i := range m.Len() {
			if !yield(i, m.Row(i)) {
				return
			}
		}
	}
}

// Data returns the row-major backing slice.
func (m *Matrix) Data() []float32 { return m.data }

// ToRows returns a copy of the matrix as a slice of rows.
func (m *Matrix) ToRows() [][]float32 {
	out := make([][]float32, m.Len())
	for i := range out {
		out[i] = slices.Clone(m.Row(i))
	}
	return out
}

// Normalized reports whether Normalize has completed on this matrix.
func (m *Matrix) Normalized() bool { return m.normalized }

// Normalize scales every row to unit L2 norm. It is idempotent.
//
// All norms are checked before any row is written: a zero row fails with a
// *errs.NumericError and leaves the matrix unchanged.
func (m *Matrix) Normalize() error {
	if m.normalized {
		return nil
	}
	for i, row := range m.Rows() {
		if distance.Norm(row) == 0 {
			return &errs.NumericError{Index: i, Msg: "cannot normalize zero vector"}
		}
	}
	for _, row := range m.Rows() {
		distance.NormalizeL2InPlace(row)
	}
	m.normalized = true
	return nil
}

// Shrink keeps the first n rows. The backing array is reused.
func (m *Matrix) Shrink(n int) error {
	if n < 0 || n > m.Len() {
		return errs.Invalid("size", "shrink to %d outside [0, %d]", n, m.Len())
	}
	m.data = m.data[: n*m.dim : n*m.dim]
	return nil
}

func (m *Matrix) String() string {
	return fmt.Sprintf("Matrix(%dx%d)", m.Len(), m.dim)
}
