// Package testing provides helpers shared by this module's own test files; it
// has nothing to do with the standard "testing" package's test runner.
package testing

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/onelevelvsfs/vsfs"
)

// NewMemoryImage allocates a fixed-size in-memory buffer, formats a new VSFS
// image over it, and returns both the mounted session and the raw backing
// stream so a test can inspect bytes directly after an operation.
func NewMemoryImage(t *testing.T, imageSize int64) (*vsfs.Session, io.ReadWriteSeeker) {
	t.Helper()

	buf := make([]byte, imageSize)
	stream := bytesextra.NewReadWriteSeeker(buf)

	session, err := vsfs.Format(stream, imageSize)
	require.NoError(t, err, "format failed")

	return session, stream
}
