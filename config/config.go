// Package config holds the metadata record stored as config.json in a
// container.
package config

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hupe1980/wvgo/codec"
	"github.com/hupe1980/wvgo/internal/errs"
)

// FormatVersion is the container format version written by this package.
const FormatVersion = 1

// FileName is the container member holding the config.
const FileName = "config.json"

// VectorFormat names the serialization of the vectors member.
type VectorFormat string

const (
	// NPY stores vectors as a dense little-endian float32 .npy array.
	NPY VectorFormat = "npy"
	// TSV stores vectors one tab-separated row per line.
	TSV VectorFormat = "tsv"
)

// Valid reports whether f is a known vector format.
func (f VectorFormat) Valid() bool { return f == NPY || f == TSV }

// MemberName returns the container member name for vectors in format f.
func (f VectorFormat) MemberName() string { return "vectors." + string(f) }

// Config describes a set of word vectors.
//
// Fields are declared in key order so encoded documents have sorted keys.
type Config struct {
	Format    VectorFormat `json:"format"`
	VectorDim int          `json:"vector_dim"`
	Version   int          `json:"version"`
	WordCount int          `json:"word_count"`
}

// Default returns a config for wordCount vectors of dimension dim stored as npy.
func Default(wordCount, dim int) Config {
	return Config{
		Format:    NPY,
		VectorDim: dim,
		Version:   FormatVersion,
		WordCount: wordCount,
	}
}

// Validate checks the field ranges.
func (c Config) Validate() error {
	if c.WordCount < 0 {
		return errs.Formatf("config: negative word_count %d", c.WordCount)
	}
	if c.VectorDim < 0 {
		return errs.Formatf("config: negative vector_dim %d", c.VectorDim)
	}
	if !c.Format.Valid() {
		return &errs.NotImplementedError{What: fmt.Sprintf("vector format %q", c.Format)}
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("{version: %d, word_count: %d, vector_dim: %d, format: %s}",
		c.Version, c.WordCount, c.VectorDim, c.Format)
}

// wire mirrors Config with pointer fields so missing keys are detectable.
type wire struct {
	Format    *string `json:"format"`
	VectorDim *int    `json:"vector_dim"`
	Version   *int    `json:"version"`
	WordCount *int    `json:"word_count"`
}

// Read decodes a config document. A nil codec selects codec.Default.
// Malformed JSON and missing keys are reported as *errs.FormatError.
func Read(r io.Reader, c codec.Codec) (Config, error) {
	if c == nil {
		c = codec.Default
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var w wire
	if err := c.Unmarshal(data, &w); err != nil {
		return Config{}, &errs.FormatError{Source: FileName, Msg: "invalid JSON", Err: err}
	}
	switch {
	case w.Version == nil:
		return Config{}, missing("version")
	case w.WordCount == nil:
		return Config{}, missing("word_count")
	case w.VectorDim == nil:
		return Config{}, missing("vector_dim")
	case w.Format == nil:
		return Config{}, missing("format")
	}
	cfg := Config{
		Format:    VectorFormat(*w.Format),
		VectorDim: *w.VectorDim,
		Version:   *w.Version,
		WordCount: *w.WordCount,
	}
	return cfg, nil
}

func missing(key string) error {
	return &errs.FormatError{Source: FileName, Msg: "missing " + key}
}

// Encode returns the document as indented JSON with sorted keys.
func (c Config) Encode(cd codec.Codec) ([]byte, error) {
	data, err := codec.MarshalIndent(cd, c, "    ")
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// WriteTo writes the encoded document to w using codec.Default.
func (c Config) WriteTo(w io.Writer) (int64, error) {
	data, err := c.Encode(nil)
	if err != nil {
		return 0, err
	}
	return bytes.NewReader(data).WriteTo(w)
}
