package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	token, expiresAt, err := signer.Sign("draft-1", "drafts/draft-1.xlsx")
	require.NoError(t, err)

	grant, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "draft-1", grant.Ref)
	assert.Equal(t, "drafts/draft-1.xlsx", grant.Path)
	assert.Equal(t, expiresAt, grant.ExpiresAt)
}

func TestSignerRejectsTamperingAndExpiry(t *testing.T) {
	signer := NewSigner("secret", time.Minute)
	token, _, err := signer.Sign("draft-1", "drafts/a.csv")
	require.NoError(t, err)

	_, err = NewSigner("other", time.Minute).Verify(token)
	assert.ErrorIs(t, err, ErrTokenSignature)

	_, err = signer.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	grant, err := signer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, "drafts/a.csv", grant.Path)
}

func TestDiskStorePutOpenRemove(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	name, err := store.Put("drafts/d1.csv", []byte("a,b\n"))
	require.NoError(t, err)

	rc, size, err := store.Open(name)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "a,b\n", string(data))
	assert.Equal(t, int64(4), size)

	require.NoError(t, store.Remove(name))
	require.NoError(t, store.Remove(name))
	_, _, err = store.Open(name)
	assert.Error(t, err)
}

func TestDiskStoreRejectsEscapingPaths(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put("../outside.csv", []byte("x"))
	assert.Error(t, err)
	_, _, err = store.Open("/etc/passwd")
	assert.Error(t, err)
}

func TestDiskStoreSweep(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	require.NoError(t, err)

	_, err = store.Put("old.csv", []byte("old"))
	require.NoError(t, err)
	_, err = store.Put("new.csv", []byte("new"))
	require.NoError(t, err)
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.csv"), past, past))

	removed, err := store.Sweep(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.csv"}, removed)
}
