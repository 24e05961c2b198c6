package vsfs

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

func newTestBlockStream(t *testing.T, nBlocks int32) (*FreeSpaceManager, Layout, io.ReadWriteSeeker) {
	t.Helper()
	sb := Superblock{NBlocks: nBlocks, BlockSize: BlockSize}
	layout := computeLayout(sb)
	size := layout.DataOffset + int64(nBlocks)*int64(BlockSize)
	buf := make([]byte, size)
	stream := bytesextra.NewReadWriteSeeker(buf)
	fsm := newFreeSpaceManager(stream, layout, nBlocks)
	return fsm, layout, stream
}

func TestResolveBlock_DirectSlot_AllocatesOnFirstWrite(t *testing.T) {
	fsm, layout, stream := newTestBlockStream(t, 4)
	rec := vacantFileRecord()

	id, err := resolveBlock(stream, layout, fsm, &rec, 0, true)
	require.NoError(t, err)
	assert.EqualValues(t, 0, id)
	assert.EqualValues(t, 0, rec.BlocksMap[0])

	// Resolving the same logical block again returns the same id without
	// allocating a second one.
	id2, err := resolveBlock(stream, layout, fsm, &rec, 0, true)
	require.NoError(t, err)
	assert.Equal(t, id, id2)
}

func TestResolveBlock_NotPresent_WithoutCreate(t *testing.T) {
	fsm, layout, stream := newTestBlockStream(t, 4)
	rec := vacantFileRecord()

	_, err := resolveBlock(stream, layout, fsm, &rec, 0, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBlockNotPresent))
}

func TestResolveBlock_OutOfRange(t *testing.T) {
	fsm, layout, stream := newTestBlockStream(t, 4)
	rec := vacantFileRecord()

	_, err := resolveBlock(stream, layout, fsm, &rec, MaxFileBlocks, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBlockOutOfRange))
}

func TestResolveBlock_IndirectRegion_AllocatesIndirectBlockOnce(t *testing.T) {
	fsm, layout, stream := newTestBlockStream(t, 10)
	rec := vacantFileRecord()

	// The first logical block past the direct region (index FileBlocks-1)
	// forces allocation of both the indirect block and its first referenced
	// block.
	firstID, err := resolveBlock(stream, layout, fsm, &rec, FileBlocks-1, true)
	require.NoError(t, err)
	assert.NotEqual(t, int32(vacantID), rec.BlocksMap[FileBlocks-1])

	secondID, err := resolveBlock(stream, layout, fsm, &rec, FileBlocks, true)
	require.NoError(t, err)
	assert.NotEqual(t, firstID, secondID)

	// Re-resolving the first indirect entry returns the same id; it doesn't
	// allocate again.
	again, err := resolveBlock(stream, layout, fsm, &rec, FileBlocks-1, true)
	require.NoError(t, err)
	assert.Equal(t, firstID, again)
}

func TestResolveBlock_SpaceExhausted(t *testing.T) {
	fsm, layout, stream := newTestBlockStream(t, 1)
	rec := vacantFileRecord()

	// The single block gets consumed by the first direct slot; a second,
	// distinct slot has nothing left to allocate.
	_, err := resolveBlock(stream, layout, fsm, &rec, 0, true)
	require.NoError(t, err)

	_, err = resolveBlock(stream, layout, fsm, &rec, 1, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ENOSPC)
}
