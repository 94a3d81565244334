package container

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

type dirArchive struct {
	path   string
	logger *slog.Logger
}

// OpenDir opens a directory holding container members.
func OpenDir(path string, logger *slog.Logger) (Archive, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrInvalid}
	}
	return &dirArchive{path: path, logger: logger}, nil
}

func (d *dirArchive) Members() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		switch {
		case e.IsDir():
		case e.Type().IsRegular():
			names = append(names, e.Name())
		default:
			d.logger.Warn("unexpected directory item", "name", e.Name())
		}
	}
	return names, nil
}

func (d *dirArchive) Open(name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(d.path, name))
}

func (d *dirArchive) Close() error { return nil }
