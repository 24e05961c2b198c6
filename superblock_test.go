package vsfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

func TestWriteMarkerAndSuperblock_ThenReadBack(t *testing.T) {
	buf := make([]byte, 64)
	stream := bytesextra.NewReadWriteSeeker(buf)

	sb := Superblock{ImageSize: 4096, BlockSize: 256, NBlocks: 13, MaxFiles: 6}
	require.NoError(t, writeMarkerAndSuperblock(stream, sb))

	_, err := stream.Seek(0, 0)
	require.NoError(t, err)

	ok, err := readMarker(stream)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := readSuperblock(stream)
	require.NoError(t, err)
	assert.Equal(t, sb, got)
}

func TestReadMarker_RejectsGarbage(t *testing.T) {
	buf := []byte("not a vsfs image at all!!")
	stream := bytesextra.NewReadWriteSeeker(buf)

	ok, err := readMarker(stream)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeriveSuperblock_TooSmallFails(t *testing.T) {
	_, err := deriveSuperblock(8)
	require.Error(t, err)
	assert.ErrorIs(t, err, E2BIG)
}

func TestDeriveSuperblock_HalvesMaxFiles(t *testing.T) {
	sb, err := deriveSuperblock(4096)
	require.NoError(t, err)
	assert.Equal(t, sb.NBlocks/2, sb.MaxFiles)
}
