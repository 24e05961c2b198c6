package vsfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onelevelvsfs/vsfs"
)

func TestFsck_FreshlyFormattedImageIsClean(t *testing.T) {
	session := newTestSession(t, 4096)
	assert.NoError(t, session.Fsck())
}

func TestFsck_AfterNormalUse_StillClean(t *testing.T) {
	session := newTestSession(t, 4096)
	require.NoError(t, session.Create("a.txt"))
	require.NoError(t, session.Create("b.txt"))

	fd, err := session.Open("a.txt")
	require.NoError(t, err)
	_, err = session.Write(fd, 0, 5, []byte("hello"))
	require.NoError(t, err)
	require.NoError(t, session.Close(fd))

	require.NoError(t, session.Link("a.txt", "c.txt"))
	require.NoError(t, session.Unlink("b.txt"))

	assert.NoError(t, session.Fsck())
}

func TestFsck_RequiresMount(t *testing.T) {
	session := newTestSession(t, 4096)
	require.NoError(t, session.Unmount())

	err := session.Fsck()
	require.Error(t, err)
	assert.ErrorIs(t, err, vsfs.ENODEV)
}
