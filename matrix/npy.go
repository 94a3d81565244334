package matrix

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hupe1980/wvgo/internal/errs"
)

// NPY format constants (https://numpy.org/doc/stable/reference/generated/numpy.lib.format.html).
const (
	npyMagic     = "\x93NUMPY"
	npyAlignment = 64
)

var (
	npyDescrRe   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	npyFortranRe = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	npyShapeRe   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

type npyHeader struct {
	order    binary.ByteOrder
	itemSize int
	rows     int
	cols     int
}

// ReadNPY reads a 2-D C-order float array in NPY format. Accepted dtypes
// are <f4, >f4, <f8 and >f8; values are converted to float32.
// When maxRank > 0 only the first maxRank rows are read.
func ReadNPY(r io.Reader, maxRank int) (*Matrix, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	h, err := readNPYHeader(br)
	if err != nil {
		return nil, err
	}

	rows := h.rows
	if maxRank > 0 && rows > maxRank {
		rows = maxRank
	}
	m := New(h.cols, rows)
	if h.cols == 0 {
		return m, nil
	}
	buf := RowBuffer(h.cols, h.itemSize)
	for i := range rows {
		if err := m.ReadRow(br, h.order, h.itemSize, buf); err != nil {
			return nil, &errs.FormatError{Msg: fmt.Sprintf("npy data truncated at row %d of %d", i, h.rows), Err: err}
		}
	}
	return m, nil
}

func readNPYHeader(r io.Reader) (npyHeader, error) {
	var h npyHeader
	pre := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(r, pre); err != nil {
		return h, &errs.FormatError{Msg: "npy preamble truncated", Err: err}
	}
	if string(pre[:len(npyMagic)]) != npyMagic {
		return h, errs.Formatf("input is not an NPY file (magic string does not match)")
	}
	major := pre[len(npyMagic)]

	var headerLen int
	switch major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return h, &errs.FormatError{Msg: "npy header length truncated", Err: err}
		}
		headerLen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return h, &errs.FormatError{Msg: "npy header length truncated", Err: err}
		}
		headerLen = int(n)
	default:
		return h, errs.Formatf("unsupported npy version %d", major)
	}

	raw := make([]byte, headerLen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return h, &errs.FormatError{Msg: "npy header truncated", Err: err}
	}
	dict := string(raw)

	descr := npyDescrRe.FindStringSubmatch(dict)
	if descr == nil {
		return h, &errs.FormatError{Text: dict, Msg: "npy header has no descr"}
	}
	switch descr[1] {
	case "<f4":
		h.order, h.itemSize = binary.LittleEndian, 4
	case ">f4":
		h.order, h.itemSize = binary.BigEndian, 4
	case "<f8":
		h.order, h.itemSize = binary.LittleEndian, 8
	case ">f8":
		h.order, h.itemSize = binary.BigEndian, 8
	default:
		return h, &errs.NotImplementedError{What: "npy dtype " + descr[1]}
	}

	if f := npyFortranRe.FindStringSubmatch(dict); f != nil && f[1] == "True" {
		return h, &errs.NotImplementedError{What: "fortran-ordered npy arrays"}
	}

	shape := npyShapeRe.FindStringSubmatch(dict)
	if shape == nil {
		return h, &errs.FormatError{Text: dict, Msg: "npy header has no shape"}
	}
	var dims []int
	for _, s := range strings.Split(shape[1], ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		d, err := strconv.Atoi(strings.TrimSuffix(s, "L"))
		if err != nil || d < 0 {
			return h, &errs.FormatError{Text: dict, Msg: "invalid npy shape"}
		}
		dims = append(dims, d)
	}
	switch {
	case len(dims) == 2:
		h.rows, h.cols = dims[0], dims[1]
		if h.cols > 0 && h.rows > math.MaxInt/h.cols/h.itemSize {
			return h, &errs.FormatError{Text: dict, Msg: "npy shape overflows"}
		}
	case len(dims) == 1 && dims[0] == 0:
		// empty array saved from an empty list
	default:
		return h, &errs.FormatError{Text: dict, Msg: fmt.Sprintf("expected 2-D array, got %d dimensions", len(dims))}
	}
	return h, nil
}

// WriteNPY writes the matrix as a version 1.0 NPY file with dtype <f4.
func (m *Matrix) WriteNPY(w io.Writer) error {
	dict, pad := m.npyDict()

	var hdr bytes.Buffer
	hdr.WriteString(npyMagic)
	hdr.Write([]byte{1, 0})
	if err := binary.Write(&hdr, binary.LittleEndian, uint16(len(dict)+pad+1)); err != nil {
		return err
	}
	hdr.WriteString(dict)
	hdr.Write(bytes.Repeat([]byte{' '}, pad))
	hdr.WriteByte('\n')

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(hdr.Bytes()); err != nil {
		return err
	}
	var b [4]byte
	for _, x := range m.data {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(x))
		if _, err := bw.Write(b[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// NPYSize returns the number of bytes WriteNPY produces.
func (m *Matrix) NPYSize() int64 {
	dict, pad := m.npyDict()
	return int64(len(npyMagic)+2+2+len(dict)+pad+1) + int64(len(m.data))*4
}

// npyDict returns the header dictionary and the padding that aligns the
// data section.
func (m *Matrix) npyDict() (string, int) {
	dict := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", m.Len(), m.dim)
	total := len(npyMagic) + 2 + 2 + len(dict) + 1
	return dict, (npyAlignment - total%npyAlignment) % npyAlignment
}
