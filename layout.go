package vsfs

// Layout gives the byte offsets of every on-disk region, computed from the
// mounted Superblock. A Session computes its Layout once, at Format or Mount,
// and keeps it while mounted, since the superblock never changes in that
// time; a remount builds a new Session and with it a fresh Layout.
type Layout struct {
	MarkerOffset    int64
	SuperblockOffset int64
	BitmapOffset    int64
	MetadataOffset  int64
	DirectoryOffset int64
	DataOffset      int64
}

// recordSize values used to derive the table sizes below.
const fstatRecordSize = 3*intSize + FileBlocks*intSize
const dirRecordSize = intSize + MaxNameSize

func computeLayout(sb Superblock) Layout {
	markerOffset := int64(0)
	superblockOffset := markerOffset + int64(len(marker))
	bitmapOffset := superblockOffset + superblockSize
	metadataOffset := bitmapOffset + int64(sb.NBlocks)
	directoryOffset := metadataOffset + int64(sb.MaxFiles)*int64(fstatRecordSize)
	dataOffset := directoryOffset + (int64(sb.MaxFiles)+1)*int64(dirRecordSize)

	return Layout{
		MarkerOffset:     markerOffset,
		SuperblockOffset: superblockOffset,
		BitmapOffset:     bitmapOffset,
		MetadataOffset:   metadataOffset,
		DirectoryOffset:  directoryOffset,
		DataOffset:       dataOffset,
	}
}

// BlockOffset returns the absolute byte offset of the id-th data block.
func (l Layout) BlockOffset(id int32) int64 {
	return l.DataOffset + int64(id)*int64(BlockSize)
}

// MetadataRecordOffset returns the absolute byte offset of the id-th
// file-metadata record.
func (l Layout) MetadataRecordOffset(id int32) int64 {
	return l.MetadataOffset + int64(id)*int64(fstatRecordSize)
}

// DirectoryRecordOffset returns the absolute byte offset of the slot-th
// directory record.
func (l Layout) DirectoryRecordOffset(slot int32) int64 {
	return l.DirectoryOffset + int64(slot)*int64(dirRecordSize)
}

// BitmapByteOffset returns the absolute byte offset of the allocation byte for
// block id.
func (l Layout) BitmapByteOffset(id int32) int64 {
	return l.BitmapOffset + int64(id)
}
