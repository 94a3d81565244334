package container

import (
	"archive/tar"
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/wvgo/internal/errs"
)

type tarArchive struct {
	path    string
	logger  *slog.Logger
	members []string
}

// OpenTar opens a tar archive. Compression is detected from the leading
// magic bytes, so a misnamed archive still opens. The archive is scanned
// once per opened member; no file handle is held between calls.
func OpenTar(path string, logger *slog.Logger) (Archive, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return &tarArchive{path: path, logger: logger}, nil
}

type tarStream struct {
	*tar.Reader
	closers []io.Closer
}

func (s *tarStream) Close() error {
	var err error
	for i := len(s.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, s.closers[i].Close())
	}
	return err
}

func (t *tarArchive) stream() (*tarStream, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReaderSize(f, 1<<20)
	dr, err := Decompress(br, Sniff(br))
	if err != nil {
		_ = f.Close()
		return nil, &errs.FormatError{Source: t.path, Msg: "invalid compressed stream", Err: err}
	}
	return &tarStream{Reader: tar.NewReader(dr), closers: []io.Closer{f, dr}}, nil
}

func (t *tarArchive) next(s *tarStream) (*tar.Header, error) {
	hdr, err := s.Next()
	if err == io.EOF {
		return nil, err
	}
	if err != nil {
		return nil, &errs.FormatError{Source: t.path, Msg: "invalid tar archive", Err: err}
	}
	return hdr, nil
}

func (t *tarArchive) Members() ([]string, error) {
	if t.members != nil {
		return t.members, nil
	}
	s, err := t.stream()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	members := []string{}
	for {
		hdr, err := t.next(s)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
		case tar.TypeReg:
			members = append(members, hdr.Name)
		default:
			t.logger.Warn("unexpected tar item", "name", hdr.Name, "type", string(hdr.Typeflag))
		}
	}
	t.members = members
	return members, nil
}

func (t *tarArchive) Open(name string) (io.ReadCloser, error) {
	s, err := t.stream()
	if err != nil {
		return nil, err
	}
	for {
		hdr, err := t.next(s)
		if err == io.EOF {
			_ = s.Close()
			return nil, &errs.FormatError{Source: t.path, Msg: fmt.Sprintf("missing %s", name)}
		}
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		if hdr.Typeflag == tar.TypeReg && hdr.Name == name {
			return s, nil
		}
	}
}

func (t *tarArchive) Close() error { return nil }
