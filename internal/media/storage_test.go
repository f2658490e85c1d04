package media

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 gif
var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

func TestLocalStorage_SavePostImage(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStorage(root, 1024)

	rel, err := s.SavePostImage(bytes.NewReader(smallGIF))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "posts/"))
	assert.True(t, strings.HasSuffix(rel, ".gif"))

	got, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, smallGIF, got)
}

func TestLocalStorage_Rejects(t *testing.T) {
	s := NewLocalStorage(t.TempDir(), 16)

	_, err := s.SavePostImage(strings.NewReader("plain text"))
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = s.SavePostImage(bytes.NewReader(smallGIF))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestLocalStorage_Remove(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStorage(root, 1024)

	rel, err := s.SavePostImage(bytes.NewReader(smallGIF))
	require.NoError(t, err)
	require.NoError(t, s.Remove(rel))

	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	assert.ErrorIs(t, err, os.ErrNotExist)

	// 已删除或为空都不报错
	assert.NoError(t, s.Remove(rel))
	assert.NoError(t, s.Remove(""))

	assert.Error(t, s.Remove("../secret.txt"))
	assert.Error(t, s.Remove("posts/../../secret.txt"))
}

func TestLocalStorage_FailedSaveLeavesNothing(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStorage(root, 1024)
	// posts 是普通文件，无法在其下建目录
	require.NoError(t, os.WriteFile(filepath.Join(root, "posts"), []byte("x"), 0o644))

	_, err := s.SavePostImage(bytes.NewReader(smallGIF))
	assert.Error(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
