package vsfs

import "io"

// releaseIndirectChain frees every block the indirect block at indirectID
// references (stopping at the first vacant entry) and then frees the
// indirect block itself. Used when a file's last link is removed, or when a
// truncate shrinks a file below the indirect region entirely.
func releaseIndirectChain(stream io.ReadWriteSeeker, layout Layout, fsm *FreeSpaceManager, indirectID int32) error {
	entries, err := readIndirectBlock(stream, layout, indirectID)
	if err != nil {
		return err
	}
	for _, id := range entries {
		if id < 0 {
			break
		}
		if err := fsm.Release(id); err != nil {
			return err
		}
	}
	return fsm.Release(indirectID)
}

// releaseIndirectEntriesFrom frees every referenced block at index >= start in
// the indirect block at indirectID (stopping at the first vacant entry among
// those), writes the updated (vacated) entries back, but leaves the indirect
// block itself allocated since entries before start may still be in use. Used
// by Truncate when the new size still falls within the indirect region.
func releaseIndirectEntriesFrom(stream io.ReadWriteSeeker, layout Layout, fsm *FreeSpaceManager, indirectID int32, start int32) error {
	entries, err := readIndirectBlock(stream, layout, indirectID)
	if err != nil {
		return err
	}

	changed := false
	for i := int(start); i < len(entries); i++ {
		if entries[i] < 0 {
			break
		}
		if err := fsm.Release(entries[i]); err != nil {
			return err
		}
		entries[i] = vacantID
		changed = true
	}

	if !changed {
		return nil
	}
	return writeIndirectBlock(stream, layout, indirectID, entries)
}
