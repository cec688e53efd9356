package container

import (
	"encoding/binary"
	"io"
	"os"

	"bundlecore/pkg/errors"
)

// footerMagic tags the trailer appended to the bundle executable, the Go
// analogue of the original's signed section header (section.h).
var footerMagic = [8]byte{'B', 'N', 'D', 'L', 'C', 'O', 'R', 'E'}

const footerFixedSize = 8 + 4 + 4 + 8 + 8 // magic + version + count + cbStub + cbEngineSize

// Section is the parsed trailer: stub size, engine size (stub + UX
// container + certificate), and the sizes of containers attached after
// the engine section, in storage order (spec §4.3).
type Section struct {
	StubSize       int64
	EngineSize     int64
	ContainerSizes []int64
	TotalSize      int64
}

// ReadSection parses the trailer appended to the bundle executable at path.
func ReadSection(path string) (*Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	total := info.Size()
	if total < footerFixedSize {
		return nil, errors.New(errors.KindInvalidManifest, "bundle %s too small to carry a section footer", path)
	}

	footerBuf := make([]byte, footerFixedSize)
	if _, err := f.ReadAt(footerBuf, total-footerFixedSize); err != nil {
		return nil, err
	}

	var magic [8]byte
	copy(magic[:], footerBuf[0:8])
	if magic != footerMagic {
		return nil, errors.New(errors.KindInvalidManifest, "bundle %s has no recognizable section footer", path)
	}
	_ = binary.LittleEndian.Uint32(footerBuf[8:12]) // version, reserved for future layout changes
	count := binary.LittleEndian.Uint32(footerBuf[12:16])
	stubSize := int64(binary.LittleEndian.Uint64(footerBuf[16:24]))
	engineSize := int64(binary.LittleEndian.Uint64(footerBuf[24:32]))

	sizesLen := int64(count) * 8
	sizesOffset := total - footerFixedSize - sizesLen
	if sizesOffset < 0 {
		return nil, errors.New(errors.KindInvalidManifest, "bundle %s section footer declares more containers than fit", path)
	}
	sizesBuf := make([]byte, sizesLen)
	if sizesLen > 0 {
		if _, err := f.ReadAt(sizesBuf, sizesOffset); err != nil && err != io.EOF {
			return nil, err
		}
	}
	sizes := make([]int64, count)
	for i := range sizes {
		sizes[i] = int64(binary.LittleEndian.Uint64(sizesBuf[i*8 : i*8+8]))
	}

	return &Section{
		StubSize:       stubSize,
		EngineSize:     engineSize,
		ContainerSizes: sizes,
		TotalSize:      total,
	}, nil
}

// GetAttachedContainer returns the byte offset and size of the container
// at index by accumulating sizes from the end of the engine section
// (spec §4.3). present is false when index is out of range. Checking
// expectedType against the container's declared type is the caller's
// responsibility, using the manifest-derived model.Container list;
// hash verification is likewise left to the caller.
func (s *Section) GetAttachedContainer(index int) (offset, size int64, present bool) {
	if index < 0 || index >= len(s.ContainerSizes) {
		return 0, 0, false
	}
	offset = s.EngineSize
	for i := 0; i < index; i++ {
		offset += s.ContainerSizes[i]
	}
	return offset, s.ContainerSizes[index], true
}

// WriteSection serializes the footer this reads, used by layout/build
// tooling and by tests that construct synthetic bundles.
func WriteSection(w io.Writer, s *Section) error {
	buf := make([]byte, footerFixedSize+len(s.ContainerSizes)*8)
	off := 0
	for _, sz := range s.ContainerSizes {
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(sz))
		off += 8
	}
	copy(buf[off:off+8], footerMagic[:])
	off += 8
	binary.LittleEndian.PutUint32(buf[off:off+4], 1)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(s.ContainerSizes)))
	off += 4
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(s.StubSize))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(s.EngineSize))
	_, err := w.Write(buf)
	return err
}
