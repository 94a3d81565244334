package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/wvgo"
)

// addQueryFlags registers the flags shared by the interactive commands.
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("approximate", "a", false, "Search by approximate similarity")
	cmd.Flags().BoolP("echo", "e", false, "Echo query words")
	cmd.Flags().BoolP("multiword", "m", false, "Read one phrase per line, ended by an empty line")
	cmd.Flags().IntP("number", "n", 40, "Number of nearest words to retrieve")
	cmd.Flags().BoolP("quiet", "q", false, "Minimal output")
	cmd.Flags().StringP("exit-word", "x", "EXIT", "Exit on this word")
	cmd.Flags().Int64("seed", 0, "Seed for approximate search hyperplanes")
}

// querySession reads phrases from in and hands complete queries of count
// phrases to a handler.
type querySession struct {
	in        *bufio.Scanner
	out       io.Writer
	errOut    io.Writer
	store     *wvgo.Store
	count     int
	prompt    string
	exitWord  string
	multiword bool
	echo      bool
	quiet     bool
}

func (a *app) newQuerySession(cmd *cobra.Command, s *wvgo.Store, count int, prompt string) *querySession {
	q := &querySession{
		in:        bufio.NewScanner(cmd.InOrStdin()),
		out:       cmd.OutOrStdout(),
		errOut:    cmd.ErrOrStderr(),
		store:     s,
		count:     count,
		exitWord:  a.v.GetString("exit-word"),
		multiword: a.v.GetBool("multiword"),
		echo:      a.v.GetBool("echo"),
		quiet:     a.v.GetBool("quiet"),
	}
	switch {
	case q.quiet:
	case q.exitWord == "":
		q.prompt = prompt + " (CTRL-D to break):\n"
	default:
		q.prompt = fmt.Sprintf("%s (%s or CTRL-D to break):\n", prompt, q.exitWord)
	}
	return q
}

// line returns the next input line, or false at end of input or on the
// exit word.
func (q *querySession) line(prompt string) (string, bool) {
	fmt.Fprint(q.out, prompt)
	if !q.in.Scan() {
		return "", false
	}
	s := q.in.Text()
	if q.exitWord != "" && strings.TrimSpace(s) == q.exitWord {
		return "", false
	}
	return s, true
}

// next reads one query. Without multiword input every word of a single
// line is its own phrase.
func (q *querySession) next() ([][]string, bool) {
	first, ok := q.line(q.prompt)
	if !ok {
		return nil, false
	}
	if !q.multiword {
		var phrases [][]string
		for _, w := range strings.Fields(first) {
			phrases = append(phrases, []string{w})
		}
		return phrases, true
	}

	phrases := [][]string{strings.Fields(first)}
	for len(phrases) < q.count {
		s, ok := q.line("")
		if !ok || strings.TrimSpace(s) == "" {
			break
		}
		phrases = append(phrases, strings.Fields(s))
	}
	return phrases, true
}

// run loops until end of input. Errors from handle are reported and the
// loop continues.
func (q *querySession) run(handle func(phrases [][]string, words []string) error) error {
	for {
		phrases, ok := q.next()
		if !ok {
			return q.in.Err()
		}
		words := flatten(phrases)
		if len(words) == 0 {
			continue
		}
		if q.echo {
			fmt.Fprintln(q.out, phrases)
		}
		if len(phrases) < q.count {
			fmt.Fprintf(q.errOut, "Enter %d words/phrases\n", q.count)
			continue
		}
		if len(phrases) > q.count {
			fmt.Fprintln(q.errOut, "Ignoring extra words/phrases")
			phrases = phrases[:q.count]
			words = flatten(phrases)
		}

		missing := false
		for _, w := range uniq(words) {
			r, err := q.store.Rank(w)
			if err != nil {
				fmt.Fprintf(q.errOut, "Out of dictionary word: %s\n", w)
				missing = true
				continue
			}
			if !q.quiet {
				fmt.Fprintf(q.out, "Word: %s  Position in vocabulary: %d\n", w, r)
			}
		}
		if missing {
			continue
		}
		if err := handle(phrases, words); err != nil {
			fmt.Fprintf(q.errOut, "Error: %v\n", err)
		}
	}
}

// writeNearest prints results in the layout of the word2vec distance tool.
func (q *querySession) writeNearest(res []wvgo.Result) {
	format := "%s\t%f\n"
	if !q.quiet {
		fmt.Fprintf(q.out, "\n%sWord       Cosine distance\n%s\n", strings.Repeat(" ", 46), strings.Repeat("-", 72))
		format = "%50s\t\t%f\n"
	}
	for _, r := range res {
		fmt.Fprintf(q.out, format, r.Word, r.Similarity)
	}
	fmt.Fprintln(q.out)
}

// search runs an exact or approximate nearest query for v, excluding the
// query words.
func (a *app) search(s *wvgo.Store, v []float32, exclude []string) ([]wvgo.Result, error) {
	n := a.v.GetInt("number")
	if a.v.GetBool("approximate") {
		return s.ApproximateNearest(wvgo.VectorQuery(v), n, wvgo.WithExclude(exclude...))
	}
	return s.Nearest(wvgo.VectorQuery(v), n, wvgo.WithExclude(exclude...))
}

// phraseVectors returns the mean vector of each phrase.
func phraseVectors(s *wvgo.Store, phrases [][]string) ([][]float32, error) {
	vs := make([][]float32, len(phrases))
	for i, p := range phrases {
		v, err := s.WordsToVector(p...)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}

func flatten(phrases [][]string) []string {
	var words []string
	for _, p := range phrases {
		words = append(words, p...)
	}
	return words
}

func uniq(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := words[:0:0]
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
