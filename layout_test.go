package vsfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeLayout_RegionsAreSequentialAndNonOverlapping(t *testing.T) {
	sb := Superblock{ImageSize: 4096, BlockSize: BlockSize, NBlocks: 13, MaxFiles: 6}
	l := computeLayout(sb)

	assert.EqualValues(t, 0, l.MarkerOffset)
	assert.EqualValues(t, len(marker), l.SuperblockOffset)
	assert.EqualValues(t, l.SuperblockOffset+superblockSize, l.BitmapOffset)
	assert.EqualValues(t, l.BitmapOffset+int64(sb.NBlocks), l.MetadataOffset)
	assert.EqualValues(t, l.MetadataOffset+int64(sb.MaxFiles)*fstatRecordSize, l.DirectoryOffset)
	assert.EqualValues(t, l.DirectoryOffset+(int64(sb.MaxFiles)+1)*dirRecordSize, l.DataOffset)
}

func TestLayout_BlockOffset_Spacing(t *testing.T) {
	sb := Superblock{ImageSize: 4096, BlockSize: BlockSize, NBlocks: 13, MaxFiles: 6}
	l := computeLayout(sb)

	assert.Equal(t, l.DataOffset, l.BlockOffset(0))
	assert.Equal(t, l.DataOffset+int64(BlockSize), l.BlockOffset(1))
}

func TestLayout_MetadataAndDirectoryRecordOffset_Spacing(t *testing.T) {
	sb := Superblock{ImageSize: 4096, BlockSize: BlockSize, NBlocks: 13, MaxFiles: 6}
	l := computeLayout(sb)

	assert.Equal(t, l.MetadataOffset, l.MetadataRecordOffset(0))
	assert.Equal(t, l.MetadataOffset+fstatRecordSize, l.MetadataRecordOffset(1))
	assert.Equal(t, l.DirectoryOffset, l.DirectoryRecordOffset(0))
	assert.Equal(t, l.DirectoryOffset+dirRecordSize, l.DirectoryRecordOffset(1))
}
