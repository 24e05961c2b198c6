package vsfs

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/noxer/bytewriter"
)

// Superblock is the fixed, four-integer on-disk header. It's read once at
// mount and never mutated while a Session is mounted.
type Superblock struct {
	ImageSize int32
	BlockSize int32
	NBlocks   int32
	MaxFiles  int32
}

// superblockSize is sizeof(Superblock) on disk: four little-endian int32s.
const superblockSize = 4 * intSize

// writeMarkerAndSuperblock serializes the marker and superblock into one
// scratch buffer and writes it to w starting at the current position.
func writeMarkerAndSuperblock(w io.Writer, sb Superblock) error {
	buf := make([]byte, len(marker)+superblockSize)
	bw := bytewriter.New(buf)

	if _, err := bw.Write(marker[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, &sb); err != nil {
		return err
	}
	_, err := w.Write(buf)
	return err
}

// readMarker reads the first 8 bytes of r and reports whether they match the
// expected start marker.
func readMarker(r io.Reader) (bool, error) {
	var got [8]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return false, err
	}
	return bytes.Equal(got[:], marker[:]), nil
}

// readSuperblock reads a serialized Superblock from r.
func readSuperblock(r io.Reader) (Superblock, error) {
	var sb Superblock
	err := binary.Read(r, binary.LittleEndian, &sb)
	return sb, err
}
