package vsfs

import "io"

// NoBlock is returned by the free-space manager when no block is available.
const NoBlock int32 = -1

// FreeSpaceManager reads and writes the one-byte-per-block allocation
// bitmap. It never caches the bitmap in memory across calls: every method
// re-reads exactly the bytes it needs from the image and flushes every byte
// it changes before returning.
type FreeSpaceManager struct {
	stream  io.ReadWriteSeeker
	layout  Layout
	nBlocks int32
}

func newFreeSpaceManager(stream io.ReadWriteSeeker, layout Layout, nBlocks int32) *FreeSpaceManager {
	return &FreeSpaceManager{stream: stream, layout: layout, nBlocks: nBlocks}
}

// FindFree scans the bitmap from index 0 and returns the first free block
// id, or NoBlock if the device is full. O(n_blocks).
func (m *FreeSpaceManager) FindFree() (int32, error) {
	if _, err := m.stream.Seek(m.layout.BitmapOffset, io.SeekStart); err != nil {
		return NoBlock, NewDriverError(EIO)
	}

	buf := make([]byte, m.nBlocks)
	if _, err := io.ReadFull(m.stream, buf); err != nil {
		return NoBlock, NewDriverError(EIO)
	}

	for i, b := range buf {
		if b == 0 {
			return int32(i), nil
		}
	}
	return NoBlock, nil
}

// occupiedByte reads the single allocation byte for block id.
func (m *FreeSpaceManager) occupiedByte(id int32) (byte, error) {
	if _, err := m.stream.Seek(m.layout.BitmapByteOffset(id), io.SeekStart); err != nil {
		return 0, NewDriverError(EIO)
	}
	var b [1]byte
	if _, err := io.ReadFull(m.stream, b[:]); err != nil {
		return 0, NewDriverError(EIO)
	}
	return b[0], nil
}

func (m *FreeSpaceManager) writeByte(id int32, value byte) error {
	if _, err := m.stream.Seek(m.layout.BitmapByteOffset(id), io.SeekStart); err != nil {
		return NewDriverError(EIO)
	}
	if _, err := m.stream.Write([]byte{value}); err != nil {
		return NewDriverError(EIO)
	}
	return nil
}

// Occupy marks block id as used. It fails with EALREADY-flavored EUCLEAN if
// the block was already occupied, guarding against double allocation.
func (m *FreeSpaceManager) Occupy(id int32) error {
	current, err := m.occupiedByte(id)
	if err != nil {
		return err
	}
	if current != 0 {
		return NewDriverErrorWithMessage(EUCLEAN, "block already occupied")
	}
	return m.writeByte(id, 1)
}

// Release marks block id as free. id < 0 is a no-op, representing "no such
// block" (e.g. an unset blocks_map slot).
func (m *FreeSpaceManager) Release(id int32) error {
	if id < 0 {
		return nil
	}
	return m.writeByte(id, 0)
}

// AllocateOne finds the first free block, marks it occupied, and returns its
// id. It returns NoBlock with no error when the device is full; callers use
// that to produce a short read/write rather than a hard error.
func (m *FreeSpaceManager) AllocateOne() (int32, error) {
	id, err := m.FindFree()
	if err != nil {
		return NoBlock, err
	}
	if id == NoBlock {
		return NoBlock, nil
	}
	if err := m.Occupy(id); err != nil {
		return NoBlock, err
	}
	return id, nil
}
