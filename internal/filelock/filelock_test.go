package filelock

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryLockContended(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nirbhaya_contacts.json")

	first := New(path)
	ok, err := first.TryLock()
	require.NoError(t, err)
	require.True(t, ok)

	second := New(path)
	ok, err = second.TryLock()
	require.NoError(t, err)
	assert.False(t, ok, "second holder must not acquire a held lock")

	require.NoError(t, first.Unlock())

	ok, err = second.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.Unlock())
}

func TestLockWithTimeout(t *testing.T) {
	dir := t.TempDir()
	holder := NewForDir(dir)
	require.NoError(t, holder.Lock())
	defer holder.Unlock()

	waiter := NewForDir(dir)
	err := waiter.LockWithTimeout(30 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestWithLock(t *testing.T) {
	lock := New(filepath.Join(t.TempDir(), "record"))
	ran := false
	require.NoError(t, lock.WithLock(func() error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
	assert.NoError(t, lock.Unlock(), "unlock after release is a no-op")
}
