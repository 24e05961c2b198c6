package vsfs

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/hashicorp/go-multierror"
)

// Fsck walks the mounted image and reports every structural inconsistency it
// finds between the metadata table, the directory table, and the on-disk
// free-space bitmap. It never repairs anything; it only reports. A nil
// return means the image is internally consistent.
//
// Unlike the on-disk allocation bitmap (one byte per block), the
// reachability bitmap built here is an in-memory scratch structure, so it
// uses boljen/go-bitmap's packed representation rather than matching the
// wire format.
func (s *Session) Fsck() error {
	if err := s.requireMounted(); err != nil {
		return err
	}

	var result *multierror.Error

	fim := s.fileIndexManager()
	metadata, err := fim.ReadMetadataTable()
	if err != nil {
		return err
	}
	directory, err := fim.ReadDirectoryTable()
	if err != nil {
		return err
	}

	reachable := bitmap.New(int(s.superblock.NBlocks))
	linkCounts := make([]int32, len(metadata))

	for id, rec := range metadata {
		if !rec.InUse() {
			continue
		}
		if err := s.markReachable(reachable, rec); err != nil {
			result = multierror.Append(result, fmt.Errorf("file %d: %w", id, err))
		}
	}

	terminated := false
	for slot, rec := range directory {
		if rec.ID == EndID {
			terminated = true
			break
		}
		if rec.ID == vacantID {
			continue
		}
		if rec.ID < 0 || int(rec.ID) >= len(metadata) {
			result = multierror.Append(result, fmt.Errorf(
				"directory slot %d: entry %q references out-of-range file id %d", slot, rec.NameString(), rec.ID))
			continue
		}
		if !metadata[rec.ID].InUse() {
			result = multierror.Append(result, fmt.Errorf(
				"directory slot %d: entry %q references vacant file id %d", slot, rec.NameString(), rec.ID))
			continue
		}
		linkCounts[rec.ID]++
	}
	if !terminated {
		result = multierror.Append(result, fmt.Errorf("directory table is missing its END_ID terminator"))
	}

	for id, rec := range metadata {
		if !rec.InUse() {
			continue
		}
		if linkCounts[id] != rec.Nlinks {
			result = multierror.Append(result, fmt.Errorf(
				"file %d: nlinks is %d but %d directory entries reference it", id, rec.Nlinks, linkCounts[id]))
		}
	}

	fsm := s.freeSpaceManager()
	for blockID := int32(0); blockID < s.superblock.NBlocks; blockID++ {
		occupied, err := fsm.occupiedByte(blockID)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		onDisk := occupied != 0
		inUse := reachable.Get(int(blockID))
		if onDisk != inUse {
			result = multierror.Append(result, fmt.Errorf(
				"block %d: bitmap marks it %s but it is %s from the metadata table",
				blockID, occupiedWord(onDisk), occupiedWord(inUse)))
		}
	}

	return result.ErrorOrNil()
}

func occupiedWord(b bool) string {
	if b {
		return "occupied"
	}
	return "free"
}

// markReachable sets every block rec references, directly or through its
// indirect block, in the reachability bitmap. A block that is already set
// (referenced earlier by this or another record) is reported as an error.
func (s *Session) markReachable(reachable bitmap.Bitmap, rec FileRecord) error {
	var result *multierror.Error
	mark := func(id int32) {
		if reachable.Get(int(id)) {
			result = multierror.Append(result, fmt.Errorf("block %d is referenced more than once", id))
		}
		reachable.Set(int(id), true)
	}

	for i := 0; i < FileBlocks-1; i++ {
		if rec.BlocksMap[i] >= 0 {
			mark(rec.BlocksMap[i])
		}
	}

	indirectID := rec.BlocksMap[FileBlocks-1]
	if indirectID < 0 {
		return result.ErrorOrNil()
	}
	mark(indirectID)

	entries, err := readIndirectBlock(s.stream, s.layout, indirectID)
	if err != nil {
		return multierror.Append(result, err).ErrorOrNil()
	}
	for _, id := range entries {
		if id < 0 {
			break
		}
		mark(id)
	}
	return result.ErrorOrNil()
}
