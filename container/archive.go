package container

import (
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/hupe1980/wvgo/config"
	"github.com/hupe1980/wvgo/internal/errs"
)

// Member names.
const (
	ConfigName = config.FileName
	VocabName  = "vocab.tsv"
	VectorBase = "vectors"
)

// Archive is a read-only collection of named members.
type Archive interface {
	// Members lists the regular members.
	Members() ([]string, error)
	// Open returns a reader for the named member.
	Open(name string) (io.ReadCloser, error)
	// Close releases the archive.
	Close() error
}

// Layout names the members holding each part of a container.
type Layout struct {
	Config string
	Vocab  string
	// Vectors holds every "vectors.*" member; the config selects one.
	Vectors []string
}

// VectorMember returns the vectors member stored in format f.
func (l Layout) VectorMember(f config.VectorFormat) (string, error) {
	for _, name := range l.Vectors {
		if path.Base(name) == f.MemberName() {
			return name, nil
		}
	}
	return "", errs.Formatf("missing %s", f.MemberName())
}

// Resolve locates the container members of a by base name. Unexpected
// members are logged and ignored; a missing member fails with
// *errs.FormatError naming it.
func Resolve(a Archive, logger *slog.Logger) (Layout, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	names, err := a.Members()
	if err != nil {
		return Layout{}, err
	}

	var l Layout
	for _, name := range names {
		base := path.Base(name)
		switch {
		case base == ConfigName:
			l.Config = name
		case base == VocabName:
			l.Vocab = name
		case strings.TrimSuffix(base, path.Ext(base)) == VectorBase:
			l.Vectors = append(l.Vectors, name)
		default:
			logger.Warn("unexpected container member", "name", name)
		}
	}

	switch {
	case l.Config == "":
		return Layout{}, errs.Formatf("missing %s", ConfigName)
	case l.Vocab == "":
		return Layout{}, errs.Formatf("missing %s", VocabName)
	case len(l.Vectors) == 0:
		return Layout{}, errs.Formatf("missing %s.*", VectorBase)
	}
	return l, nil
}
