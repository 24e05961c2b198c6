package vsfs

import (
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
)

// Session is the in-memory state associated with a mounted image: the stream
// backing the image, the superblock read at mount, and the open-descriptor
// table. Every façade operation in operations.go takes a *Session as its
// receiver -- there is no process-wide singleton here, just one value per
// mounted image.
type Session struct {
	stream      io.ReadWriteSeeker
	closer      io.Closer
	superblock  Superblock
	layout      Layout
	descriptors [MaxFilesOpened]int32
	dirCursor   int32
	mounted     bool
}

func newUnmountedDescriptors() [MaxFilesOpened]int32 {
	var d [MaxFilesOpened]int32
	for i := range d {
		d[i] = vacantID
	}
	return d
}

// Format derives n_blocks and max_files from imageSize, writes every on-disk
// region to stream, and returns a mounted Session over it. stream must
// already be able to accept imageSize bytes of sequential
// writes from its current position (callers using a fixed-size in-memory
// buffer, e.g. via bytesextra, must size it to at least imageSize up front).
func Format(stream io.ReadWriteSeeker, imageSize int64) (*Session, error) {
	sb, err := deriveSuperblock(imageSize)
	if err != nil {
		return nil, err
	}

	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		return nil, NewDriverError(EIO)
	}
	if err := writeMarkerAndSuperblock(stream, sb); err != nil {
		return nil, NewDriverError(EIO)
	}

	// Zeroed free-block bitmap: every block starts unoccupied.
	if _, err := stream.Write(make([]byte, sb.NBlocks)); err != nil {
		return nil, NewDriverError(EIO)
	}

	// Every metadata slot starts vacant.
	vacantRec := vacantFileRecord()
	vacantRecBuf, err := encodeFileRecord(vacantRec)
	if err != nil {
		return nil, NewDriverError(EIO)
	}
	for i := int32(0); i < sb.MaxFiles; i++ {
		if _, err := stream.Write(vacantRecBuf); err != nil {
			return nil, NewDriverError(EIO)
		}
	}

	// Every non-terminator directory slot starts vacant; the final slot is
	// the END_ID terminator.
	vacantDirBuf, err := encodeDirRecord(DirRecord{ID: vacantID})
	if err != nil {
		return nil, NewDriverError(EIO)
	}
	for i := int32(0); i < sb.MaxFiles; i++ {
		if _, err := stream.Write(vacantDirBuf); err != nil {
			return nil, NewDriverError(EIO)
		}
	}
	terminatorBuf, err := encodeDirRecord(DirRecord{ID: EndID})
	if err != nil {
		return nil, NewDriverError(EIO)
	}
	if _, err := stream.Write(terminatorBuf); err != nil {
		return nil, NewDriverError(EIO)
	}

	// Zeroed data-block pool.
	zeroBlock := make([]byte, BlockSize)
	for i := int32(0); i < sb.NBlocks; i++ {
		if _, err := stream.Write(zeroBlock); err != nil {
			return nil, NewDriverError(EIO)
		}
	}

	return &Session{
		stream:      stream,
		superblock:  sb,
		layout:      computeLayout(sb),
		descriptors: newUnmountedDescriptors(),
		mounted:     true,
	}, nil
}

// deriveSuperblock computes the largest block count that fits in imageSize
// once the bitmap, metadata table, and directory table are accounted for,
// using a max-files budget of half the block count and a halved per-slot
// size for the metadata and directory tables.
func deriveSuperblock(imageSize int64) (Superblock, error) {
	numerator := imageSize - int64(len(marker)) - superblockSize - int64(dirRecordSize)
	denominator := int64(BlockSize) + 1 + int64(fstatRecordSize)/2 + int64(dirRecordSize)/2

	nBlocks := numerator / denominator
	if nBlocks < 2 {
		return Superblock{}, NewDriverErrorWithMessage(
			E2BIG, "image is too small to hold a minimum-size file system")
	}

	return Superblock{
		ImageSize: int32(imageSize),
		BlockSize: BlockSize,
		NBlocks:   int32(nBlocks),
		MaxFiles:  int32(nBlocks / 2),
	}, nil
}

// Mount opens an existing image over stream: it validates the start marker,
// reads the superblock, and initializes an empty open-descriptor table.
func Mount(stream io.ReadWriteSeeker) (*Session, error) {
	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		return nil, NewDriverError(EIO)
	}

	ok, err := readMarker(stream)
	if err != nil {
		return nil, NewDriverError(EIO)
	}
	if !ok {
		return nil, NewDriverErrorWithMessage(EUCLEAN, "image does not start with the VSFS marker")
	}

	sb, err := readSuperblock(stream)
	if err != nil {
		return nil, NewDriverError(EIO)
	}

	return &Session{
		stream:      stream,
		superblock:  sb,
		layout:      computeLayout(sb),
		descriptors: newUnmountedDescriptors(),
		mounted:     true,
	}, nil
}

// FormatFile creates (or truncates) the host file at path and formats it.
func FormatFile(path string, imageSize int64) (*Session, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, NewDriverErrorWithMessage(EIO, "could not create image file: "+err.Error())
	}

	session, err := Format(f, imageSize)
	if err != nil {
		f.Close()
		return nil, err
	}
	session.closer = f
	return session, nil
}

// MountFile opens the host file at path read-write and mounts it.
func MountFile(path string) (*Session, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, NewDriverErrorWithMessage(EIO, "could not open image file: "+err.Error())
	}

	session, err := Mount(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	session.closer = f
	return session, nil
}

// requireMounted is called at the top of every façade operation except
// Format/Mount.
func (s *Session) requireMounted() error {
	if !s.mounted {
		return NewDriverErrorWithMessage(ENODEV, "no image is mounted")
	}
	return nil
}

// Unmount closes any still-open descriptors and the host file. Every failure
// encountered along the way is collected into one *multierror.Error instead
// of stopping at the first, since none of the individual close attempts
// depend on each other succeeding.
func (s *Session) Unmount() error {
	if err := s.requireMounted(); err != nil {
		return err
	}

	var result *multierror.Error
	for i := range s.descriptors {
		if s.descriptors[i] != vacantID {
			s.descriptors[i] = vacantID
		}
	}

	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			result = multierror.Append(result, NewDriverErrorWithMessage(EIO, err.Error()))
		}
	}

	s.mounted = false
	s.superblock = Superblock{}

	return result.ErrorOrNil()
}

// Superblock returns a copy of the superblock read at mount/written at
// format. It's never mutated while mounted.
func (s *Session) Superblock() Superblock {
	return s.superblock
}
