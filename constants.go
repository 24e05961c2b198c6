package vsfs

// On-disk layout constants. Changing any of these changes the wire format of
// every image this package writes.
const (
	// FileBlocks is the number of entries in a file-metadata record's
	// blocks_map. The first FileBlocks-1 are direct block pointers; the last
	// holds the id of the indirect block.
	FileBlocks = 5
	// MaxNameSize is the fixed width, in bytes, of a directory record's name
	// field, NUL-padded.
	MaxNameSize = 28
	// BlockSize is the size, in bytes, of a single data block.
	BlockSize = 256
	// MaxFilesOpened is the size of the open-descriptor table.
	MaxFilesOpened = 256
)

// marker is the 8-byte identifier present at offset 0 of every valid image.
var marker = [8]byte{'V', 'S', 'F', 'S', 'I', 'M', 'G', 0}

// EndID is the sentinel id value for the directory table's terminator
// record. It's distinct from -1 (vacant) and from any valid file id (>= 0).
const EndID = -2

// vacantID marks an unused metadata slot's blocks_map entries and a free
// directory slot.
const vacantID = -1

// intSize is sizeof(int32) as used throughout the on-disk format.
const intSize = 4

// indirectEntries is the number of block ids that fit in one indirect block:
// floor(BlockSize / sizeof(int32)).
const indirectEntries = BlockSize / intSize

// MaxFileBlocks is the maximum number of data blocks addressable by one file:
// (FileBlocks - 1) direct blocks plus indirectEntries blocks via the indirect
// block.
const MaxFileBlocks = (FileBlocks - 1) + indirectEntries

// MaxFileBytes is the largest size, in bytes, a single file can reach.
const MaxFileBytes = MaxFileBlocks * BlockSize
