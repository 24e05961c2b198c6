package vsfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

func newTestFileIndexManager(t *testing.T, maxFiles int32) *FileIndexManager {
	t.Helper()
	sb := Superblock{NBlocks: 4, MaxFiles: maxFiles, BlockSize: BlockSize}
	layout := computeLayout(sb)
	size := layout.DataOffset + 4*int64(BlockSize)
	buf := make([]byte, size)
	stream := bytesextra.NewReadWriteSeeker(buf)
	fim := newFileIndexManager(stream, layout, maxFiles)

	vacantRec := vacantFileRecord()
	for i := int32(0); i < maxFiles; i++ {
		require.NoError(t, fim.WriteMetadataRecord(i, vacantRec))
		require.NoError(t, fim.WriteDirectoryRecord(i, DirRecord{ID: vacantID}))
	}
	require.NoError(t, fim.WriteDirectoryRecord(maxFiles, DirRecord{ID: EndID}))

	return fim
}

func TestMakeName_TruncatesLongNames(t *testing.T) {
	long := "this-name-is-definitely-longer-than-the-field"
	name := makeName(long)

	rec := DirRecord{ID: 1, Name: name}
	assert.LessOrEqual(t, len(rec.NameString()), MaxNameSize-1)
	assert.Equal(t, long[:MaxNameSize-1], rec.NameString())
}

func TestDirRecord_NameString_StopsAtNUL(t *testing.T) {
	rec := DirRecord{ID: 1, Name: makeName("short")}
	assert.Equal(t, "short", rec.NameString())
}

func TestFileIndexManager_FindByName(t *testing.T) {
	fim := newTestFileIndexManager(t, 4)

	require.NoError(t, fim.WriteDirectoryRecord(0, DirRecord{ID: 2, Name: makeName("hello.txt")}))

	slot, id, found := fim.FindByName("hello.txt")
	require.True(t, found)
	assert.EqualValues(t, 0, slot)
	assert.EqualValues(t, 2, id)

	_, _, found = fim.FindByName("nope.txt")
	assert.False(t, found)
}

func TestFileIndexManager_FindByName_StopsAtTerminator(t *testing.T) {
	fim := newTestFileIndexManager(t, 2)
	// Both slots vacant; terminator sits right after them.
	_, _, found := fim.FindByName("anything")
	assert.False(t, found)
}

func TestFileIndexManager_FindVacantMetadataSlot(t *testing.T) {
	fim := newTestFileIndexManager(t, 2)

	rec := FileRecord{Ftype: 0, Nlinks: 1}
	require.NoError(t, fim.WriteMetadataRecord(0, rec))

	slot, err := fim.FindVacantMetadataSlot()
	require.NoError(t, err)
	assert.EqualValues(t, 1, slot)

	require.NoError(t, fim.WriteMetadataRecord(1, rec))
	slot, err = fim.FindVacantMetadataSlot()
	require.NoError(t, err)
	assert.Equal(t, NoSpace, slot)
}

func TestFileIndexManager_FindVacantDirectorySlot(t *testing.T) {
	fim := newTestFileIndexManager(t, 2)

	require.NoError(t, fim.WriteDirectoryRecord(0, DirRecord{ID: 0, Name: makeName("a")}))

	slot, err := fim.FindVacantDirectorySlot()
	require.NoError(t, err)
	assert.EqualValues(t, 1, slot)

	require.NoError(t, fim.WriteDirectoryRecord(1, DirRecord{ID: 1, Name: makeName("b")}))
	slot, err = fim.FindVacantDirectorySlot()
	require.NoError(t, err)
	assert.Equal(t, NoSpace, slot)
}

func TestEncodeDecodeFileRecord_RoundTrips(t *testing.T) {
	rec := FileRecord{Ftype: 0, Nlinks: 3, Size: 900, BlocksMap: [FileBlocks]int32{1, 2, 3, -1, 7}}
	buf, err := encodeFileRecord(rec)
	require.NoError(t, err)
	assert.Len(t, buf, fstatRecordSize)

	got, err := decodeFileRecord(buf)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestEncodeDecodeDirRecord_RoundTrips(t *testing.T) {
	rec := DirRecord{ID: 5, Name: makeName("roundtrip.bin")}
	buf, err := encodeDirRecord(rec)
	require.NoError(t, err)
	assert.Len(t, buf, dirRecordSize)

	got, err := decodeDirRecord(buf)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}
