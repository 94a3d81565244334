package wvgo

import (
	"bufio"
	"os"
	"strings"

	"github.com/hupe1980/wvgo/container"
	"github.com/hupe1980/wvgo/internal/errs"
	"github.com/hupe1980/wvgo/word2vec"
)

// Format names a word vector file format.
type Format string

const (
	// FormatWVLib is the container format: a directory or tar archive
	// holding config.json, vocab.tsv and vectors.npy or vectors.tsv.
	FormatWVLib Format = "wvlib"
	// FormatW2V is word2vec text or binary, detected from the contents.
	FormatW2V Format = "w2v"
	// FormatW2VText is the word2vec text format.
	FormatW2VText Format = "w2vtxt"
	// FormatW2VBin is the word2vec binary format.
	FormatW2VBin Format = "w2vbin"
	// FormatSDV is space-delimited "word f1 ... fd" lines without header.
	FormatSDV Format = "sdv"
	// FormatCID is "word<TAB>cluster-id" lines, loaded as one-hot vectors.
	FormatCID Format = "cid"
)

// Formats lists the formats Load accepts.
var Formats = []Format{FormatCID, FormatSDV, FormatW2V, FormatW2VBin, FormatW2VText, FormatWVLib}

// OutputFormats lists the formats Save accepts.
var OutputFormats = []Format{FormatSDV, FormatW2VBin, FormatW2VText, FormatWVLib}

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", &errs.NotImplementedError{What: "format " + s}
}

var extensionFormats = []struct {
	ext    string
	format Format
}{
	{".tsv", FormatSDV},
	{".sdv", FormatSDV},
	{".bin", FormatW2VBin},
	{".classes", FormatCID},
}

// GuessFormat picks a load format from the name of path, inspecting the
// contents of .txt files to tell word2vec text from sdv.
func GuessFormat(path string) (Format, error) {
	if strings.HasSuffix(path, ".txt") {
		return detectTextFormat(path)
	}
	if _, ok := container.TarCompression(path); ok {
		return FormatWVLib, nil
	}
	for _, e := range extensionFormats {
		if strings.HasSuffix(path, e.ext) {
			return e.format, nil
		}
	}
	if isDir(path) {
		return FormatWVLib, nil
	}
	return "", &errs.FormatError{Source: path, Msg: "failed to guess format"}
}

func detectTextFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	text, err := word2vec.Detect(bufio.NewReaderSize(f, word2vec.DetectWindow))
	if err != nil {
		return "", err
	}
	if text {
		return FormatW2VText, nil
	}
	return FormatSDV, nil
}

// guessOutputFormat picks a save format from the name of path.
func guessOutputFormat(path string) (Format, error) {
	if isDir(path) {
		return FormatWVLib, nil
	}
	if _, ok := container.TarCompression(path); ok {
		return FormatWVLib, nil
	}
	switch {
	case strings.HasSuffix(path, ".bin"):
		return FormatW2VBin, nil
	case strings.HasSuffix(path, ".txt"):
		return FormatW2VText, nil
	case strings.HasSuffix(path, ".sdv"), strings.HasSuffix(path, ".tsv"):
		return FormatSDV, nil
	}
	return "", &errs.FormatError{Source: path, Msg: "failed to guess format"}
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
