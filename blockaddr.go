package vsfs

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrBlockNotPresent is returned by resolveBlock when a block hasn't been
// allocated yet and create was false. Read turns this into a short read;
// operations.go never surfaces it to a caller directly.
var ErrBlockNotPresent = errors.New("vsfs: block not present")

// ErrBlockOutOfRange is returned by resolveBlock when the requested logical
// block offset is MaxFileBlocks or more. Read and Write turn this into a short
// read or write.
var ErrBlockOutOfRange = errors.New("vsfs: block offset out of range")

// resolveBlock maps a (file-metadata-record, logical block offset) pair to
// an absolute data-block id. It mutates rec.BlocksMap in place for
// newly-allocated direct slots or the indirect-block pointer, but never
// writes rec back to the metadata table itself -- the caller in operations.go
// does that once, after every block touched by the operation has been
// resolved.
func resolveBlock(
	stream io.ReadWriteSeeker,
	layout Layout,
	fsm *FreeSpaceManager,
	rec *FileRecord,
	b int32,
	create bool,
) (int32, error) {
	if b < FileBlocks-1 {
		id := rec.BlocksMap[b]
		if id >= 0 {
			return id, nil
		}
		if !create {
			return NoBlock, ErrBlockNotPresent
		}

		newID, err := fsm.AllocateOne()
		if err != nil {
			return NoBlock, err
		}
		if newID == NoBlock {
			return NoBlock, NewDriverError(ENOSPC)
		}
		rec.BlocksMap[b] = newID
		return newID, nil
	}

	k := b - (FileBlocks - 1)
	if k >= indirectEntries {
		return NoBlock, ErrBlockOutOfRange
	}

	if rec.BlocksMap[FileBlocks-1] == vacantID {
		if !create {
			return NoBlock, ErrBlockNotPresent
		}

		indirectID, err := fsm.AllocateOne()
		if err != nil {
			return NoBlock, err
		}
		if indirectID == NoBlock {
			return NoBlock, NewDriverError(ENOSPC)
		}

		k0ID, err := fsm.AllocateOne()
		if err != nil {
			_ = fsm.Release(indirectID)
			return NoBlock, err
		}
		if k0ID == NoBlock {
			_ = fsm.Release(indirectID)
			return NoBlock, NewDriverError(ENOSPC)
		}

		indirectBlock := make([]int32, indirectEntries)
		indirectBlock[0] = k0ID
		for i := 1; i < indirectEntries; i++ {
			indirectBlock[i] = vacantID
		}

		if err := writeIndirectBlock(stream, layout, indirectID, indirectBlock); err != nil {
			return NoBlock, err
		}

		rec.BlocksMap[FileBlocks-1] = indirectID
		return k0ID, nil
	}

	indirectBlock, err := readIndirectBlock(stream, layout, rec.BlocksMap[FileBlocks-1])
	if err != nil {
		return NoBlock, err
	}

	id := indirectBlock[k]
	if id >= 0 {
		return id, nil
	}
	if !create {
		return NoBlock, ErrBlockNotPresent
	}

	newID, err := fsm.AllocateOne()
	if err != nil {
		return NoBlock, err
	}
	if newID == NoBlock {
		return NoBlock, NewDriverError(ENOSPC)
	}

	indirectBlock[k] = newID
	if err := writeIndirectBlock(stream, layout, rec.BlocksMap[FileBlocks-1], indirectBlock); err != nil {
		return NoBlock, err
	}
	return newID, nil
}

func readIndirectBlock(stream io.ReadWriteSeeker, layout Layout, blockID int32) ([]int32, error) {
	if _, err := stream.Seek(layout.BlockOffset(blockID), io.SeekStart); err != nil {
		return nil, NewDriverError(EIO)
	}
	buf := make([]byte, BlockSize)
	if _, err := io.ReadFull(stream, buf); err != nil {
		return nil, NewDriverError(EIO)
	}

	entries := make([]int32, indirectEntries)
	for i := range entries {
		entries[i] = int32(binary.LittleEndian.Uint32(buf[i*intSize : (i+1)*intSize]))
	}
	return entries, nil
}

func writeIndirectBlock(stream io.ReadWriteSeeker, layout Layout, blockID int32, entries []int32) error {
	buf := make([]byte, BlockSize)
	for i, id := range entries {
		binary.LittleEndian.PutUint32(buf[i*intSize:(i+1)*intSize], uint32(id))
	}

	if _, err := stream.Seek(layout.BlockOffset(blockID), io.SeekStart); err != nil {
		return NewDriverError(EIO)
	}
	if _, err := stream.Write(buf); err != nil {
		return NewDriverError(EIO)
	}
	return nil
}
