// Package vocab provides the ordered word→frequency table of a word vector
// set. Insertion order is rank order: the most frequent word has rank 0.
package vocab

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/hupe1980/wvgo/internal/errs"
)

// Entry is a vocabulary row.
type Entry struct {
	Word  string
	Count int64
}

// Vocabulary maps words to frequencies in descending-frequency order.
//
// A Vocabulary is immutable except for Shrink. It is not safe for
// concurrent use while Shrink or the first Rank call runs.
type Vocabulary struct {
	entries []Entry
	rank    map[string]int // lazily rebuilt after Shrink
}

// New builds a Vocabulary from entries sorted by non-increasing count.
// Unsorted input or duplicate words fail with a *errs.FormatError.
func New(entries []Entry) (*Vocabulary, error) {
	return build(entries, nil)
}

// build validates entries. lines holds the source line of each entry; when
// nil, the entry position stands in for it.
func build(entries []Entry, lines []int) (*Vocabulary, error) {
	lineOf := func(i int) int {
		if lines == nil {
			return i + 1
		}
		return lines[i]
	}
	rank := make(map[string]int, len(entries))
	var dups []string
	for i, e := range entries {
		if i > 0 && entries[i-1].Count < e.Count {
			return nil, &errs.FormatError{
				Line: lineOf(i),
				Text: e.Word,
				Msg:  fmt.Sprintf("words not ordered by descending frequency (%d after %d)", e.Count, entries[i-1].Count),
			}
		}
		if e.Count < 0 {
			return nil, &errs.FormatError{Line: lineOf(i), Text: e.Word, Msg: "negative frequency"}
		}
		if _, ok := rank[e.Word]; ok {
			dups = append(dups, e.Word)
			continue
		}
		rank[e.Word] = i
	}
	if len(dups) > 0 {
		return nil, errs.Formatf("vocabulary has duplicates: %s", strings.Join(dups, " "))
	}
	return &Vocabulary{entries: entries, rank: rank}, nil
}

// FromWords builds a Vocabulary with zero frequencies, for formats that
// carry no counts.
func FromWords(words []string) (*Vocabulary, error) {
	entries := make([]Entry, len(words))
	for i, w := range words {
		entries[i] = Entry{Word: w}
	}
	return New(entries)
}

// Len returns the number of words.
func (v *Vocabulary) Len() int { return len(v.entries) }

// Words returns the words in rank order. The slice is freshly allocated.
func (v *Vocabulary) Words() []string {
	out := make([]string, len(v.entries))
	for i, e := range v.entries {
		out[i] = e.Word
	}
	return out
}

// Word returns the word at rank i.
func (v *Vocabulary) Word(i int) string { return v.entries[i].Word }

// Entries returns the rows in rank order. Callers must not modify the slice.
func (v *Vocabulary) Entries() []Entry { return v.entries }

// All iterates over (rank, entry) pairs.
func (v *Vocabulary) All() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		for i, e := range v.entries {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Rank returns the 0-based rank of w, or a *errs.LookupError.
func (v *Vocabulary) Rank(w string) (int, error) {
	if v.rank == nil {
		v.rank = make(map[string]int, len(v.entries))
		for i, e := range v.entries {
			v.rank[e.Word] = i
		}
	}
	i, ok := v.rank[w]
	if !ok {
		return 0, &errs.LookupError{Word: w}
	}
	return i, nil
}

// Contains reports whether w is in the vocabulary.
func (v *Vocabulary) Contains(w string) bool {
	_, err := v.Rank(w)
	return err == nil
}

// Count returns the frequency of w.
func (v *Vocabulary) Count(w string) (int64, error) {
	i, err := v.Rank(w)
	if err != nil {
		return 0, err
	}
	return v.entries[i].Count, nil
}

// Shrink keeps the first n words and drops the rank cache.
func (v *Vocabulary) Shrink(n int) error {
	if n < 0 || n > len(v.entries) {
		return errs.Invalid("size", "shrink to %d outside [0, %d]", n, len(v.entries))
	}
	v.entries = v.entries[:n:n]
	v.rank = nil
	return nil
}

// Read parses TSV rows of "word<TAB>count". When maxRank > 0 reading stops
// after maxRank rows without consuming the rest of r.
func Read(r io.Reader, maxRank int) (*Vocabulary, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var (
		entries []Entry
		lines   []int
	)
	line := 0
	for sc.Scan() {
		if maxRank > 0 && len(entries) >= maxRank {
			break
		}
		line++
		l := strings.TrimRight(sc.Text(), " \t\r")
		if l == "" {
			continue
		}
		fields := strings.Split(l, "\t")
		if len(fields) != 2 {
			return nil, &errs.FormatError{Line: line, Text: l, Msg: fmt.Sprintf("expected 2 fields, got %d", len(fields))}
		}
		count, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, &errs.FormatError{Line: line, Text: l, Msg: "expected integer frequency", Err: err}
		}
		entries = append(entries, Entry{Word: fields[0], Count: count})
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return build(entries, lines)
}

// WriteTo writes the vocabulary as "word<TAB>count" lines.
func (v *Vocabulary) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for _, e := range v.entries {
		n, err := fmt.Fprintf(bw, "%s\t%d\n", e.Word, e.Count)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}
