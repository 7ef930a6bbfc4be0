package onam_test

import (
	"sync"
	"testing"

	"github.com/basilgregory/onam"
	"github.com/basilgregory/onam/internal/blog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationCache(t *testing.T) {
	cache := onam.NewRelationCache(0)
	items := []onam.Entity{&blog.User{Name: "a"}}

	_, ok := cache.Load("Post", 1, "Followers")
	assert.False(t, ok)

	cache.Store("Post", 1, "Followers", items)
	cache.Store("Post", 1, "Comments", []onam.Entity{})
	cache.Store("Post", 2, "Followers", nil)
	cache.Store("User", 1, "FollowedPosts", nil)
	assert.Equal(t, 4, cache.Len())

	got, ok := cache.Load("Post", 1, "Followers")
	require.True(t, ok)
	assert.Same(t, items[0], got[0])

	cache.Delete("Post", 1, "Followers")
	_, ok = cache.Load("Post", 1, "Followers")
	assert.False(t, ok)
	_, ok = cache.Load("Post", 1, "Comments")
	assert.True(t, ok)

	cache.SetStale("Post", 2, true)
	cache.Forget("Post", 2)
	assert.False(t, cache.IsStale("Post", 2))
	_, ok = cache.Load("Post", 2, "Followers")
	assert.False(t, ok)

	cache.ForgetEntity("Post")
	assert.Equal(t, 1, cache.Len())
	_, ok = cache.Load("User", 1, "FollowedPosts")
	assert.True(t, ok)
}

func TestRelationCacheStale(t *testing.T) {
	cache := onam.NewRelationCache(0)

	assert.False(t, cache.IsStale("Post", 1))
	cache.SetStale("Post", 1, true)
	assert.True(t, cache.IsStale("Post", 1))
	assert.False(t, cache.IsStale("Post", 2))
	assert.False(t, cache.IsStale("User", 1))

	cache.SetStale("User", 1, true)
	cache.ForgetEntity("Post")
	assert.False(t, cache.IsStale("Post", 1))
	assert.True(t, cache.IsStale("User", 1))

	cache.SetStale("User", 1, false)
	assert.False(t, cache.IsStale("User", 1))
}

func TestRelationCacheBounded(t *testing.T) {
	cache := onam.NewRelationCache(2)

	cache.Store("Post", 1, "Followers", nil)
	cache.Store("Post", 2, "Followers", nil)
	_, ok := cache.Load("Post", 1, "Followers")
	require.True(t, ok)

	cache.Store("Post", 3, "Followers", nil)
	assert.Equal(t, 2, cache.Len())
	_, ok = cache.Load("Post", 2, "Followers")
	assert.False(t, ok, "least recently used collection should be dropped")
	_, ok = cache.Load("Post", 1, "Followers")
	assert.True(t, ok)
}

func TestRelationCacheConcurrent(t *testing.T) {
	cache := onam.NewRelationCache(16)

	var wg sync.WaitGroup
	for i := int64(0); i < 8; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Store("Post", id, "Comments", nil)
				cache.Load("Post", id, "Comments")
				cache.SetStale("Post", id, j%2 == 0)
				cache.Forget("Post", id)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, cache.Len())
}

func TestDeleteForgetsCachedCollections(t *testing.T) {
	db := newDB(t)
	users := seedUsers(t, db)
	post := publish(t, db, users[0], nil, users[1])

	_, err := db.Resolve(post, "Followers", false)
	require.NoError(t, err)
	require.NoError(t, db.Refresh(post, true))
	assert.Equal(t, 1, db.Cache().Len())

	require.NoError(t, db.Delete(post))
	assert.Equal(t, 0, db.Cache().Len())
	assert.False(t, db.Cache().IsStale("Post", post.ID))
}

func TestOpenWithCacheSize(t *testing.T) {
	db := newDB(t, func(cfg *onam.Config) { cfg.RelationCacheSize = 1 })
	users := seedUsers(t, db)

	_, err := db.Resolve(users[0], "FollowedPosts", false)
	require.NoError(t, err)
	_, err = db.Resolve(users[1], "FollowedPosts", false)
	require.NoError(t, err)
	assert.Equal(t, 1, db.Cache().Len())
}
