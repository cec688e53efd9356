package container

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"

	"bundlecore/internal/model"
	"bundlecore/pkg/errors"
)

// Cursor is the streaming façade over one open container (spec §4.3).
// Streams appear in storage order and each is consumed exactly once.
type Cursor interface {
	// NextStream advances to the next entry, returning its name. ok is
	// false once the container is exhausted.
	NextStream() (name string, ok bool, err error)
	StreamToFile(dst string) error
	StreamToBuffer() ([]byte, error)
	// SkipStream is an explicit alternative to reading the current
	// entry; formats that cannot seek past an entry read-and-discard.
	SkipStream() error
	Close() error
}

// Open returns a Cursor over the container of the given type occupying
// [offset, offset+size) of the file at path.
func Open(path string, offset, size int64, ctype model.ContainerType) (Cursor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch ctype {
	case model.ContainerGenericArchive:
		return newZipCursor(f, offset, size)
	case model.ContainerCabinetLike:
		return newTarCursor(f, offset, size)
	default:
		f.Close()
		return nil, errors.New(errors.KindInvalidManifest, "unknown container type %v", ctype)
	}
}

// zipCursor backs generic-archive containers with archive/zip, which is
// naturally random-access so skip is free.
type zipCursor struct {
	f       *os.File
	zr      *zip.Reader
	entries []*zip.File
	idx     int
	current io.ReadCloser
}

func newZipCursor(f *os.File, offset, size int64) (*zipCursor, error) {
	sr := io.NewSectionReader(f, offset, size)
	zr, err := zip.NewReader(sr, size)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(errors.KindExtractFailed, err, "opening generic-archive container")
	}
	return &zipCursor{f: f, zr: zr, entries: zr.File, idx: -1}, nil
}

func (z *zipCursor) closeCurrent() error {
	if z.current == nil {
		return nil
	}
	err := z.current.Close()
	z.current = nil
	return err
}

func (z *zipCursor) NextStream() (string, bool, error) {
	if err := z.closeCurrent(); err != nil {
		return "", false, err
	}
	z.idx++
	if z.idx >= len(z.entries) {
		return "", false, nil
	}
	rc, err := z.entries[z.idx].Open()
	if err != nil {
		return "", false, errors.Wrap(errors.KindExtractFailed, err, "opening entry %s", z.entries[z.idx].Name)
	}
	z.current = rc
	return z.entries[z.idx].Name, true, nil
}

func (z *zipCursor) StreamToFile(dst string) error {
	if z.current == nil {
		return errors.New(errors.KindExtractFailed, "no active stream")
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, z.current)
	return err
}

func (z *zipCursor) StreamToBuffer() ([]byte, error) {
	if z.current == nil {
		return nil, errors.New(errors.KindExtractFailed, "no active stream")
	}
	return io.ReadAll(z.current)
}

func (z *zipCursor) SkipStream() error {
	if z.current == nil {
		return nil
	}
	_, err := io.Copy(io.Discard, z.current)
	if err != nil {
		return err
	}
	return z.closeCurrent()
}

func (z *zipCursor) Close() error {
	_ = z.closeCurrent()
	return z.f.Close()
}

// tarCursor backs cabinet-like containers with a sequential tar.gz
// stream, the closest stdlib analogue to a cabinet's forward-only
// record layout: skip must read-and-discard (spec §4.3).
type tarCursor struct {
	f       *os.File
	gz      *gzip.Reader
	tr      *tar.Reader
	current *tar.Header
}

func newTarCursor(f *os.File, offset, size int64) (*tarCursor, error) {
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	lr := io.LimitReader(f, size)
	gz, err := gzip.NewReader(lr)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(errors.KindExtractFailed, err, "opening cabinet-like container")
	}
	return &tarCursor{f: f, gz: gz, tr: tar.NewReader(gz)}, nil
}

func (t *tarCursor) NextStream() (string, bool, error) {
	hdr, err := t.tr.Next()
	if err == io.EOF {
		t.current = nil
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(errors.KindExtractFailed, err, "reading next stream")
	}
	t.current = hdr
	return hdr.Name, true, nil
}

func (t *tarCursor) StreamToFile(dst string) error {
	if t.current == nil {
		return errors.New(errors.KindExtractFailed, "no active stream")
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, t.tr)
	return err
}

func (t *tarCursor) StreamToBuffer() ([]byte, error) {
	if t.current == nil {
		return nil, errors.New(errors.KindExtractFailed, "no active stream")
	}
	return io.ReadAll(t.tr)
}

func (t *tarCursor) SkipStream() error {
	if t.current == nil {
		return nil
	}
	_, err := io.Copy(io.Discard, t.tr)
	return err
}

func (t *tarCursor) Close() error {
	_ = t.gz.Close()
	return t.f.Close()
}
