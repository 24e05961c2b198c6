package vsfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

func newTestFreeSpaceManager(t *testing.T, nBlocks int32) *FreeSpaceManager {
	t.Helper()
	sb := Superblock{NBlocks: nBlocks, BlockSize: BlockSize}
	layout := computeLayout(sb)
	size := layout.DataOffset + int64(nBlocks)*int64(BlockSize)
	buf := make([]byte, size)
	stream := bytesextra.NewReadWriteSeeker(buf)
	return newFreeSpaceManager(stream, layout, nBlocks)
}

func TestFreeSpaceManager_AllocateOne_FindsFirstFree(t *testing.T) {
	fsm := newTestFreeSpaceManager(t, 4)

	id, err := fsm.AllocateOne()
	require.NoError(t, err)
	assert.EqualValues(t, 0, id)

	id, err = fsm.AllocateOne()
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)
}

func TestFreeSpaceManager_Release_MakesBlockReusable(t *testing.T) {
	fsm := newTestFreeSpaceManager(t, 2)

	first, err := fsm.AllocateOne()
	require.NoError(t, err)
	_, err = fsm.AllocateOne()
	require.NoError(t, err)

	require.NoError(t, fsm.Release(first))

	id, err := fsm.AllocateOne()
	require.NoError(t, err)
	assert.Equal(t, first, id)
}

func TestFreeSpaceManager_AllocateOne_ReturnsNoBlockWhenFull(t *testing.T) {
	fsm := newTestFreeSpaceManager(t, 2)

	_, err := fsm.AllocateOne()
	require.NoError(t, err)
	_, err = fsm.AllocateOne()
	require.NoError(t, err)

	id, err := fsm.AllocateOne()
	require.NoError(t, err, "exhaustion is reported via NoBlock, not an error")
	assert.Equal(t, NoBlock, id)
}

func TestFreeSpaceManager_Occupy_RejectsDoubleAllocation(t *testing.T) {
	fsm := newTestFreeSpaceManager(t, 2)

	require.NoError(t, fsm.Occupy(0))
	err := fsm.Occupy(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, EUCLEAN)
}

func TestFreeSpaceManager_Release_NegativeIDIsNoOp(t *testing.T) {
	fsm := newTestFreeSpaceManager(t, 2)
	assert.NoError(t, fsm.Release(-1))
}
