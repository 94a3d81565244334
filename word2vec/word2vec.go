// Package word2vec reads and writes the text and binary formats produced by
// the original word2vec tool.
//
// Both formats start with a "<word_count> <vector_dim>" header line. The text
// format continues with one "word f1 ... fd" line per word; the binary format
// stores the word followed by a single space and dim little-endian float32
// values. Neither format carries word frequencies.
package word2vec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/hupe1980/wvgo/internal/errs"
	"github.com/hupe1980/wvgo/matrix"
)

// DetectWindow bounds how many bytes Detect inspects.
const DetectWindow = 1 << 20

// maxPrealloc caps the words reserved from a header count.
const maxPrealloc = 1 << 16

// Data is a word list with one vector per word.
type Data struct {
	Words   []string
	Vectors *matrix.Matrix
}

// Read detects the encoding of r and reads it. See Detect.
func Read(r io.Reader, maxRank int) (*Data, error) {
	br := bufio.NewReaderSize(r, DetectWindow)
	text, err := Detect(br)
	if err != nil {
		return nil, err
	}
	if text {
		return ReadText(br, maxRank)
	}
	return ReadBinary(br, maxRank)
}

// Detect reports whether br holds the text format by parsing the header and
// the first record from buffered bytes. Nothing is consumed.
//
// Detection is a heuristic: a binary file whose first record happens to
// parse as text is misclassified.
func Detect(br *bufio.Reader) (bool, error) {
	peek, err := br.Peek(DetectWindow)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return false, fmt.Errorf("detect word2vec format: %w", err)
	}
	return IsText(peek), nil
}

// IsText reports whether prefix starts with a valid text header and record.
// When the header announces zero words, the header alone decides.
func IsText(prefix []byte) bool {
	header, rest, ok := bytes.Cut(prefix, []byte{'\n'})
	if !ok {
		return false
	}
	count, dim, err := parseHeader(strings.TrimRight(string(header), "\r"))
	if err != nil {
		return false
	}
	if count == 0 {
		return true
	}
	// a missing newline means the record runs to the end of prefix
	line, _, _ := bytes.Cut(rest, []byte{'\n'})
	_, _, err = parseTextRecord(strings.TrimRight(string(line), " \r"), dim)
	return err == nil
}

func parseHeader(line string) (count, dim int, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, &errs.FormatError{Line: 1, Text: line, Msg: "expected two ints"}
	}
	count, err1 := strconv.Atoi(fields[0])
	dim, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil || count < 0 || dim < 0 {
		return 0, 0, &errs.FormatError{Line: 1, Text: line, Msg: "expected two ints"}
	}
	return count, dim, nil
}

func readHeader(br *bufio.Reader) (count, dim int, err error) {
	line, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return 0, 0, &errs.FormatError{Line: 1, Msg: "missing header"}
		}
		return 0, 0, fmt.Errorf("read word2vec header: %w", err)
	}
	return parseHeader(strings.TrimRight(line, "\r\n"))
}

func parseTextRecord(line string, dim int) (string, []float32, error) {
	fields := strings.Fields(line)
	if len(fields) != dim+1 {
		return "", nil, fmt.Errorf("expected word and %d floats, got %d fields", dim, len(fields))
	}
	v, err := matrix.ParseFloats(fields[1:])
	if err != nil {
		return "", nil, fmt.Errorf("expected word and floats: %w", err)
	}
	return fields[0], v, nil
}

func limit(count, maxRank int) int {
	if maxRank > 0 && count > maxRank {
		return maxRank
	}
	return count
}

// ReadText reads the text format. When maxRank > 0 reading stops after
// maxRank records. A malformed record fails with an *errs.FormatError
// carrying its line number and text.
func ReadText(r io.Reader, maxRank int) (*Data, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 1<<20)
	}
	count, dim, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	count = limit(count, maxRank)

	d := &Data{Words: make([]string, 0, min(count, maxPrealloc)), Vectors: matrix.New(dim, count)}
	for i := range count {
		lineNo := i + 2
		line, err := br.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, &errs.FormatError{Line: lineNo, Msg: fmt.Sprintf("expected %d words, got %d", count, i)}
			}
			return nil, fmt.Errorf("read word2vec text line %d: %w", lineNo, err)
		}
		line = strings.TrimRight(line, " \r\n")
		word, v, perr := parseTextRecord(line, dim)
		if perr != nil {
			return nil, &errs.FormatError{Line: lineNo, Text: line, Msg: perr.Error()}
		}
		if err := d.Vectors.Append(v); err != nil {
			return nil, &errs.FormatError{Line: lineNo, Text: line, Msg: "vector shape mismatch", Err: err}
		}
		d.Words = append(d.Words, word)
	}
	return d, nil
}

// ReadBinary reads the binary format. When maxRank > 0 reading stops after
// maxRank records.
//
// Some producers terminate each vector with a newline, which then appears
// as the first byte of the following word; exactly one leading newline is
// stripped from every word.
func ReadBinary(r io.Reader, maxRank int) (*Data, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 1<<20)
	}
	count, dim, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	count = limit(count, maxRank)

	d := &Data{Words: make([]string, 0, min(count, maxPrealloc)), Vectors: matrix.New(dim, count)}
	buf := matrix.RowBuffer(dim, 4)
	for i := range count {
		word, err := br.ReadString(' ')
		if err != nil {
			if err == io.EOF {
				return nil, &errs.FormatError{Msg: fmt.Sprintf("premature end of file after %d of %d words", i, count)}
			}
			return nil, fmt.Errorf("read word2vec word %d: %w", i, err)
		}
		word = strings.TrimSuffix(word, " ")
		word = strings.TrimPrefix(word, "\n")
		if err := d.Vectors.ReadRow(br, binary.LittleEndian, 4, buf); err != nil {
			return nil, &errs.FormatError{Text: word, Msg: fmt.Sprintf("vector %d truncated", i), Err: err}
		}
		d.Words = append(d.Words, word)
	}
	return d, nil
}

func checkShape(words []string, m *matrix.Matrix) error {
	if len(words) != m.Len() {
		return errs.Invalid("words", "%d words for %d vectors", len(words), m.Len())
	}
	for _, w := range words {
		if strings.ContainsAny(w, " \n") {
			return errs.Invalid("words", "word %q contains a separator", w)
		}
	}
	return nil
}

// WriteText writes words and vectors in the text format with "%f" values.
func WriteText(w io.Writer, words []string, m *matrix.Matrix) error {
	if err := checkShape(words, m); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", m.Len(), m.Dim())
	buf := make([]byte, 0, 32)
	for i, row := range m.Rows() {
		bw.WriteString(words[i])
		for _, x := range row {
			buf = append(buf[:0], ' ')
			buf = strconv.AppendFloat(buf, float64(x), 'f', 6, 32)
			bw.Write(buf)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteBinary writes words and vectors in the binary format without
// newlines between records.
func WriteBinary(w io.Writer, words []string, m *matrix.Matrix) error {
	if err := checkShape(words, m); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", m.Len(), m.Dim())
	buf := make([]byte, 4*m.Dim())
	for i, row := range m.Rows() {
		bw.WriteString(words[i])
		bw.WriteByte(' ')
		for j, x := range row {
			binary.LittleEndian.PutUint32(buf[4*j:], math.Float32bits(x))
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}
