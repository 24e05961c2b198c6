package vsfs

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/noxer/bytewriter"
)

// NoSpace is returned by FindVacantMetadataSlot and FindVacantDirectorySlot when
// their respective table is full.
const NoSpace int32 = -1

// FileRecord is the in-memory form of a file-metadata ("fstat") record.
// Ftype is 0 for a regular file and -1 ("vacant") for an unused slot;
// directories are reserved in the on-disk layout but unused by this core.
type FileRecord struct {
	Ftype     int32
	Nlinks    int32
	Size      int32
	BlocksMap [FileBlocks]int32
}

// InUse reports whether this record refers to a live file: a record is in
// use iff its link count is greater than zero.
func (r FileRecord) InUse() bool {
	return r.Nlinks > 0
}

// vacantFileRecord is the value written for every slot at format time.
func vacantFileRecord() FileRecord {
	rec := FileRecord{Ftype: -1}
	for i := range rec.BlocksMap {
		rec.BlocksMap[i] = vacantID
	}
	return rec
}

// DirRecord is the in-memory form of a directory record. ID is -1 for a
// vacant slot, EndID for the fixed terminator, or a valid file id otherwise.
// Name is matched and stored as a fixed-width NUL-padded field.
type DirRecord struct {
	ID   int32
	Name [MaxNameSize]byte
}

// NameString returns Name as a Go string, stopping at the first NUL byte.
func (d DirRecord) NameString() string {
	n := bytes.IndexByte(d.Name[:], 0)
	if n < 0 {
		n = len(d.Name)
	}
	return string(d.Name[:n])
}

// makeName converts a Go string into a fixed-width, NUL-padded name field. It
// truncates names longer than MaxNameSize-1 bytes so a NUL terminator always
// fits.
func makeName(name string) [MaxNameSize]byte {
	var out [MaxNameSize]byte
	n := len(name)
	if n > MaxNameSize-1 {
		n = MaxNameSize - 1
	}
	copy(out[:n], name[:n])
	return out
}

// FileIndexManager reads and writes the file-metadata table and the
// directory table. Like FreeSpaceManager, it holds no cached state between
// calls: every method performs its own stream I/O.
type FileIndexManager struct {
	stream   io.ReadWriteSeeker
	layout   Layout
	maxFiles int32
}

func newFileIndexManager(stream io.ReadWriteSeeker, layout Layout, maxFiles int32) *FileIndexManager {
	return &FileIndexManager{stream: stream, layout: layout, maxFiles: maxFiles}
}

func encodeFileRecord(rec FileRecord) ([]byte, error) {
	buf := make([]byte, fstatRecordSize)
	bw := bytewriter.New(buf)
	if err := binary.Write(bw, binary.LittleEndian, &rec); err != nil {
		return nil, err
	}
	return buf, nil
}

func decodeFileRecord(buf []byte) (FileRecord, error) {
	var rec FileRecord
	err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &rec)
	return rec, err
}

func encodeDirRecord(rec DirRecord) ([]byte, error) {
	buf := make([]byte, dirRecordSize)
	bw := bytewriter.New(buf)
	if err := binary.Write(bw, binary.LittleEndian, &rec); err != nil {
		return nil, err
	}
	return buf, nil
}

func decodeDirRecord(buf []byte) (DirRecord, error) {
	var rec DirRecord
	err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &rec)
	return rec, err
}

// ReadMetadataRecord reads the id-th file-metadata record directly.
func (m *FileIndexManager) ReadMetadataRecord(id int32) (FileRecord, error) {
	if _, err := m.stream.Seek(m.layout.MetadataRecordOffset(id), io.SeekStart); err != nil {
		return FileRecord{}, NewDriverError(EIO)
	}
	buf := make([]byte, fstatRecordSize)
	if _, err := io.ReadFull(m.stream, buf); err != nil {
		return FileRecord{}, NewDriverError(EIO)
	}
	rec, err := decodeFileRecord(buf)
	if err != nil {
		return FileRecord{}, NewDriverError(EIO)
	}
	return rec, nil
}

// WriteMetadataRecord persists a single file-metadata record by id.
func (m *FileIndexManager) WriteMetadataRecord(id int32, rec FileRecord) error {
	buf, err := encodeFileRecord(rec)
	if err != nil {
		return NewDriverError(EIO)
	}
	if _, err := m.stream.Seek(m.layout.MetadataRecordOffset(id), io.SeekStart); err != nil {
		return NewDriverError(EIO)
	}
	if _, err := m.stream.Write(buf); err != nil {
		return NewDriverError(EIO)
	}
	return nil
}

// ReadMetadataTable bulk-reads every record in the file-metadata table.
func (m *FileIndexManager) ReadMetadataTable() ([]FileRecord, error) {
	if _, err := m.stream.Seek(m.layout.MetadataOffset, io.SeekStart); err != nil {
		return nil, NewDriverError(EIO)
	}
	buf := make([]byte, int(m.maxFiles)*fstatRecordSize)
	if _, err := io.ReadFull(m.stream, buf); err != nil {
		return nil, NewDriverError(EIO)
	}

	records := make([]FileRecord, m.maxFiles)
	for i := range records {
		rec, err := decodeFileRecord(buf[i*fstatRecordSize : (i+1)*fstatRecordSize])
		if err != nil {
			return nil, NewDriverError(EIO)
		}
		records[i] = rec
	}
	return records, nil
}

// ReadDirectoryRecord reads the slot-th directory record directly.
func (m *FileIndexManager) ReadDirectoryRecord(slot int32) (DirRecord, error) {
	if _, err := m.stream.Seek(m.layout.DirectoryRecordOffset(slot), io.SeekStart); err != nil {
		return DirRecord{}, NewDriverError(EIO)
	}
	buf := make([]byte, dirRecordSize)
	if _, err := io.ReadFull(m.stream, buf); err != nil {
		return DirRecord{}, NewDriverError(EIO)
	}
	rec, err := decodeDirRecord(buf)
	if err != nil {
		return DirRecord{}, NewDriverError(EIO)
	}
	return rec, nil
}

// WriteDirectoryRecord persists a single directory record by slot.
func (m *FileIndexManager) WriteDirectoryRecord(slot int32, rec DirRecord) error {
	buf, err := encodeDirRecord(rec)
	if err != nil {
		return NewDriverError(EIO)
	}
	if _, err := m.stream.Seek(m.layout.DirectoryRecordOffset(slot), io.SeekStart); err != nil {
		return NewDriverError(EIO)
	}
	if _, err := m.stream.Write(buf); err != nil {
		return NewDriverError(EIO)
	}
	return nil
}

// ReadDirectoryTable bulk-reads every record in the directory table, including
// the terminator.
func (m *FileIndexManager) ReadDirectoryTable() ([]DirRecord, error) {
	if _, err := m.stream.Seek(m.layout.DirectoryOffset, io.SeekStart); err != nil {
		return nil, NewDriverError(EIO)
	}
	total := int(m.maxFiles) + 1
	buf := make([]byte, total*dirRecordSize)
	if _, err := io.ReadFull(m.stream, buf); err != nil {
		return nil, NewDriverError(EIO)
	}

	records := make([]DirRecord, total)
	for i := range records {
		rec, err := decodeDirRecord(buf[i*dirRecordSize : (i+1)*dirRecordSize])
		if err != nil {
			return nil, NewDriverError(EIO)
		}
		records[i] = rec
	}
	return records, nil
}

// FindByName performs a linear scan over the non-terminator directory slots,
// comparing full NUL-terminated names.
func (m *FileIndexManager) FindByName(name string) (slot int32, id int32, found bool) {
	records, err := m.ReadDirectoryTable()
	if err != nil {
		return 0, 0, false
	}
	for i, rec := range records {
		if rec.ID == EndID {
			break
		}
		if rec.ID >= 0 && rec.NameString() == name {
			return int32(i), rec.ID, true
		}
	}
	return 0, 0, false
}

// FindVacantMetadataSlot returns the first metadata id with Nlinks == 0, or
// NoSpace if the table is full.
func (m *FileIndexManager) FindVacantMetadataSlot() (int32, error) {
	records, err := m.ReadMetadataTable()
	if err != nil {
		return NoSpace, err
	}
	for i, rec := range records {
		if !rec.InUse() {
			return int32(i), nil
		}
	}
	return NoSpace, nil
}

// FindVacantDirectorySlot returns the first non-terminator slot with ID == -1,
// or NoSpace if every non-terminator slot is occupied.
func (m *FileIndexManager) FindVacantDirectorySlot() (int32, error) {
	records, err := m.ReadDirectoryTable()
	if err != nil {
		return NoSpace, err
	}
	for i, rec := range records {
		if rec.ID == EndID {
			break
		}
		if rec.ID == vacantID {
			return int32(i), nil
		}
	}
	return NoSpace, nil
}
