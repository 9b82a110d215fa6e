package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/campushub/campushub-api/pkg/errors"
)

func TestCacheRepositoryNamespacesKeys(t *testing.T) {
	assert.Equal(t, "campushub:schedule:draft:1", NewCacheRepository(nil, "campushub:", nil).key("schedule:draft:1"))
	assert.Equal(t, "draft", NewCacheRepository(nil, " ", nil).key("draft"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "campushub", nil)
	var out map[string]string

	assert.ErrorIs(t, repo.Load(context.Background(), "k", &out), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Store(context.Background(), "k", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.Close())
}
