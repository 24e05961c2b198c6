package vsfs

import (
	"errors"
	"io"
)

// Stat reads a file-metadata record by id.
func (s *Session) Stat(id int32) (FileRecord, error) {
	if err := s.requireMounted(); err != nil {
		return FileRecord{}, err
	}
	if id < 0 || id >= s.superblock.MaxFiles {
		return FileRecord{}, NewDriverErrorWithMessage(EINVAL, "file id out of range")
	}
	return s.fileIndexManager().ReadMetadataRecord(id)
}

// Readdir returns the next directory record: advance == false rewinds to
// the first slot before reading; advance == true continues from wherever
// the last call (on this Session) left off.
func (s *Session) Readdir(advance bool) (DirRecord, error) {
	if err := s.requireMounted(); err != nil {
		return DirRecord{}, err
	}
	if !advance {
		s.dirCursor = 0
	}

	rec, err := s.fileIndexManager().ReadDirectoryRecord(s.dirCursor)
	if err != nil {
		return DirRecord{}, err
	}
	s.dirCursor++
	return rec, nil
}

// Create adds a new, empty, zero-size regular file with the given name.
func (s *Session) Create(name string) error {
	if err := s.requireMounted(); err != nil {
		return err
	}
	fim := s.fileIndexManager()

	if _, _, found := fim.FindByName(name); found {
		return NewDriverErrorWithMessage(EEXIST, "file already exists: "+name)
	}

	dirSlot, err := fim.FindVacantDirectorySlot()
	if err != nil {
		return err
	}
	if dirSlot == NoSpace {
		return NewDriverErrorWithMessage(ENFILE, "directory table is full")
	}

	id, err := fim.FindVacantMetadataSlot()
	if err != nil {
		return err
	}
	if id == NoSpace {
		return NewDriverErrorWithMessage(ENFILE, "metadata table is full")
	}

	rec := FileRecord{Ftype: 0, Nlinks: 1, Size: 0}
	for i := range rec.BlocksMap {
		rec.BlocksMap[i] = vacantID
	}
	if err := fim.WriteMetadataRecord(id, rec); err != nil {
		return err
	}

	return fim.WriteDirectoryRecord(dirSlot, DirRecord{ID: id, Name: makeName(name)})
}

// Open looks up name and assigns it the first free descriptor slot.
func (s *Session) Open(name string) (int32, error) {
	if err := s.requireMounted(); err != nil {
		return 0, err
	}

	_, id, found := s.fileIndexManager().FindByName(name)
	if !found {
		return 0, NewDriverErrorWithMessage(ENOENT, "no such file: "+name)
	}

	for i := range s.descriptors {
		if s.descriptors[i] == vacantID {
			s.descriptors[i] = id
			return int32(i), nil
		}
	}
	return 0, NewDriverErrorWithMessage(EMFILE, "too many open files")
}

// Close frees a descriptor slot.
func (s *Session) Close(fd int32) error {
	if err := s.requireMounted(); err != nil {
		return err
	}
	if _, err := s.resolveDescriptor(fd); err != nil {
		return err
	}
	s.descriptors[fd] = vacantID
	return nil
}

// resolveDescriptor validates fd and returns the file id it currently
// refers to, failing with BAD_DESCRIPTOR if fd is out of range or vacant.
func (s *Session) resolveDescriptor(fd int32) (int32, error) {
	if fd < 0 || int(fd) >= MaxFilesOpened || s.descriptors[fd] == vacantID {
		return 0, NewDriverErrorWithMessage(EBADF, "bad descriptor")
	}
	return s.descriptors[fd], nil
}

// Read reads up to size bytes starting at offset into buffer through an
// open descriptor. It returns the number of bytes actually read: fewer than
// requested is not an error. An offset at or past the file's size reads
// nothing; otherwise the read is not clamped to the size, and it stops short
// only at the first block in its range that was never allocated, or at the
// end of the addressable block range.
func (s *Session) Read(fd int32, offset int32, size int32, buffer []byte) (int32, error) {
	if err := s.requireMounted(); err != nil {
		return 0, err
	}
	id, err := s.resolveDescriptor(fd)
	if err != nil {
		return 0, err
	}
	return s.readByID(id, offset, size, buffer)
}

func (s *Session) readByID(id int32, offset int32, size int32, buffer []byte) (int32, error) {
	fim := s.fileIndexManager()
	rec, err := fim.ReadMetadataRecord(id)
	if err != nil {
		return 0, err
	}

	if offset >= rec.Size {
		return 0, nil
	}

	fsm := s.freeSpaceManager()
	remaining := size
	blockIndex := offset / BlockSize
	byteOffset := offset % BlockSize
	var read int32
	bufPos := 0

	for remaining > 0 {
		blockID, err := resolveBlock(s.stream, s.layout, fsm, &rec, blockIndex, false)
		if err != nil {
			if errors.Is(err, ErrBlockNotPresent) || errors.Is(err, ErrBlockOutOfRange) {
				break
			}
			return read, err
		}

		toRead := BlockSize - byteOffset
		if toRead > remaining {
			toRead = remaining
		}

		if _, err := s.stream.Seek(s.layout.BlockOffset(blockID)+int64(byteOffset), io.SeekStart); err != nil {
			return read, NewDriverError(EIO)
		}
		n, err := io.ReadFull(s.stream, buffer[bufPos:bufPos+int(toRead)])
		if err != nil {
			return read + int32(n), NewDriverError(EIO)
		}

		read += int32(n)
		bufPos += n
		remaining -= int32(n)
		byteOffset = 0
		blockIndex++
	}

	return read, nil
}

// Write writes size bytes from buffer at offset through an open descriptor.
// Writing past the current end of file fills the gap with zero bytes (a
// "hole") rather than leaving it undefined. It returns the number of bytes
// actually written: fewer than requested means the addressable block range
// or free space ran out partway through.
func (s *Session) Write(fd int32, offset int32, size int32, buffer []byte) (int32, error) {
	if err := s.requireMounted(); err != nil {
		return 0, err
	}
	id, err := s.resolveDescriptor(fd)
	if err != nil {
		return 0, err
	}
	return s.writeByID(id, offset, size, buffer)
}

func (s *Session) writeByID(id int32, offset int32, size int32, buffer []byte) (int32, error) {
	fim := s.fileIndexManager()
	rec, err := fim.ReadMetadataRecord(id)
	if err != nil {
		return 0, err
	}

	effectiveOffset := offset
	var payload []byte
	if offset > rec.Size {
		holeLen := offset - rec.Size
		payload = make([]byte, holeLen+size)
		copy(payload[holeLen:], buffer[:size])
		effectiveOffset = rec.Size
	} else {
		payload = buffer[:size]
	}

	fsm := s.freeSpaceManager()
	remaining := int32(len(payload))
	blockIndex := effectiveOffset / BlockSize
	byteOffset := effectiveOffset % BlockSize
	curOffset := effectiveOffset
	var written int32
	bufPos := 0

	for remaining > 0 {
		blockID, err := resolveBlock(s.stream, s.layout, fsm, &rec, blockIndex, true)
		if err != nil {
			if errors.Is(err, ErrBlockOutOfRange) || isNoSpace(err) {
				break
			}
			return written, err
		}

		toWrite := BlockSize - byteOffset
		if toWrite > remaining {
			toWrite = remaining
		}

		if _, err := s.stream.Seek(s.layout.BlockOffset(blockID)+int64(byteOffset), io.SeekStart); err != nil {
			return written, NewDriverError(EIO)
		}
		if _, err := s.stream.Write(payload[bufPos : bufPos+int(toWrite)]); err != nil {
			return written, NewDriverError(EIO)
		}

		written += toWrite
		bufPos += int(toWrite)
		remaining -= toWrite
		curOffset += toWrite
		byteOffset = 0
		blockIndex++

		if curOffset > rec.Size {
			rec.Size = curOffset
			if err := fim.WriteMetadataRecord(id, rec); err != nil {
				return written, err
			}
		}
	}

	// written counts bytes of the payload, which may include a synthesized
	// leading hole; translate back to how much of the caller's own buffer
	// was actually consumed.
	return callerWritten(offset, effectiveOffset, written), nil
}

// callerWritten converts a count of payload bytes written (which may include
// a synthesized leading hole) back into a count of the caller's own buffer
// bytes written.
func callerWritten(offset, effectiveOffset, written int32) int32 {
	holeLen := offset - effectiveOffset
	n := written - holeLen
	if n < 0 {
		return 0
	}
	return n
}

func isNoSpace(err error) bool {
	de, ok := err.(*DriverError)
	return ok && de.ErrnoCode == ENOSPC
}

// Link adds a second directory entry, dest, pointing at the file currently
// named src, and increments its link count.
func (s *Session) Link(src, dest string) error {
	if err := s.requireMounted(); err != nil {
		return err
	}
	fim := s.fileIndexManager()

	_, srcID, found := fim.FindByName(src)
	if !found {
		return NewDriverErrorWithMessage(ENOENT, "no such file: "+src)
	}
	if _, _, found := fim.FindByName(dest); found {
		return NewDriverErrorWithMessage(EEXIST, "file already exists: "+dest)
	}

	dirSlot, err := fim.FindVacantDirectorySlot()
	if err != nil {
		return err
	}
	if dirSlot == NoSpace {
		return NewDriverErrorWithMessage(ENFILE, "directory table is full")
	}

	rec, err := fim.ReadMetadataRecord(srcID)
	if err != nil {
		return err
	}
	rec.Nlinks++
	if err := fim.WriteMetadataRecord(srcID, rec); err != nil {
		return err
	}

	return fim.WriteDirectoryRecord(dirSlot, DirRecord{ID: srcID, Name: makeName(dest)})
}

// Unlink removes name's directory entry and decrements its link count. When
// the count reaches zero, every block the file owns -- direct, indirect, and
// the indirect block itself -- is released.
func (s *Session) Unlink(name string) error {
	if err := s.requireMounted(); err != nil {
		return err
	}
	fim := s.fileIndexManager()

	slot, id, found := fim.FindByName(name)
	if !found {
		return NewDriverErrorWithMessage(ENOENT, "no such file: "+name)
	}

	rec, err := fim.ReadMetadataRecord(id)
	if err != nil {
		return err
	}

	if err := fim.WriteDirectoryRecord(slot, DirRecord{ID: vacantID}); err != nil {
		return err
	}

	rec.Nlinks--
	if rec.Nlinks <= 0 {
		fsm := s.freeSpaceManager()
		for i := 0; i < FileBlocks-1; i++ {
			if rec.BlocksMap[i] == vacantID {
				continue
			}
			if err := fsm.Release(rec.BlocksMap[i]); err != nil {
				return err
			}
			rec.BlocksMap[i] = vacantID
		}
		if rec.BlocksMap[FileBlocks-1] != vacantID {
			if err := releaseIndirectChain(s.stream, s.layout, fsm, rec.BlocksMap[FileBlocks-1]); err != nil {
				return err
			}
			rec.BlocksMap[FileBlocks-1] = vacantID
		}
		rec.Size = 0
		rec.Nlinks = 0
		rec.Ftype = -1
	}

	return fim.WriteMetadataRecord(id, rec)
}

// Truncate changes a file's size. Shrinking releases every block beyond the
// new size; growing zero-fills the gap the same way a hole-write does.
func (s *Session) Truncate(name string, newSize int32) error {
	if err := s.requireMounted(); err != nil {
		return err
	}
	fim := s.fileIndexManager()

	_, id, found := fim.FindByName(name)
	if !found {
		return NewDriverErrorWithMessage(ENOENT, "no such file: "+name)
	}
	if newSize < 0 {
		return NewDriverErrorWithMessage(EINVAL, "negative size")
	}

	rec, err := fim.ReadMetadataRecord(id)
	if err != nil {
		return err
	}

	switch {
	case newSize == rec.Size:
		return nil
	case newSize < rec.Size:
		return s.truncateShrink(fim, id, rec, newSize)
	default:
		_, err := s.writeByID(id, newSize, 0, nil)
		return err
	}
}

// truncateShrink walks the direct slots and, when the file previously
// reached the indirect region, either frees indirect entries from a
// computed starting index (new size still in the indirect region) or frees
// the whole indirect block and its referenced blocks (new size back in the
// direct region).
func (s *Session) truncateShrink(fim *FileIndexManager, id int32, rec FileRecord, newSize int32) error {
	fsm := s.freeSpaceManager()

	newBlockCount := newSize / BlockSize
	oldBlockCount := rec.Size / BlockSize

	if oldBlockCount < FileBlocks-1 {
		for i := newBlockCount + 1; i < FileBlocks-1; i++ {
			if rec.BlocksMap[i] == vacantID {
				break
			}
			if err := fsm.Release(rec.BlocksMap[i]); err != nil {
				return err
			}
			rec.BlocksMap[i] = vacantID
		}
	} else if newBlockCount < FileBlocks-1 {
		for i := newBlockCount + 1; i < FileBlocks-1; i++ {
			if rec.BlocksMap[i] == vacantID {
				continue
			}
			if err := fsm.Release(rec.BlocksMap[i]); err != nil {
				return err
			}
			rec.BlocksMap[i] = vacantID
		}
		if rec.BlocksMap[FileBlocks-1] != vacantID {
			if err := releaseIndirectChain(s.stream, s.layout, fsm, rec.BlocksMap[FileBlocks-1]); err != nil {
				return err
			}
			rec.BlocksMap[FileBlocks-1] = vacantID
		}
	} else {
		start := newBlockCount - (FileBlocks - 1) + 1
		if rec.BlocksMap[FileBlocks-1] != vacantID {
			if err := releaseIndirectEntriesFrom(s.stream, s.layout, fsm, rec.BlocksMap[FileBlocks-1], start); err != nil {
				return err
			}
		}
	}

	rec.Size = newSize
	return fim.WriteMetadataRecord(id, rec)
}

func (s *Session) freeSpaceManager() *FreeSpaceManager {
	return newFreeSpaceManager(s.stream, s.layout, s.superblock.NBlocks)
}

func (s *Session) fileIndexManager() *FileIndexManager {
	return newFileIndexManager(s.stream, s.layout, s.superblock.MaxFiles)
}
