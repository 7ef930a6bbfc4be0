package onam_test

import (
	"context"
	"testing"
	"time"

	"github.com/basilgregory/onam"
	"github.com/basilgregory/onam/internal/blog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publish(t *testing.T, db *onam.DB, author *blog.User, comments []string, followers ...*blog.User) *blog.Post {
	t.Helper()
	post, err := blog.Publish(db, author, "Hello", "World", comments, followers...)
	require.NoError(t, err)
	return post
}

func userIDs(users []*blog.User) []int64 {
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func TestResolveHasMany(t *testing.T) {
	db := newDB(t)
	users := seedUsers(t, db)
	post := publish(t, db, users[0], []string{"first", "second"})

	// a comment of another post
	other := publish(t, db, users[0], []string{"elsewhere"})
	require.NotEqual(t, post.ID, other.ID)

	loaded, err := onam.Get[*blog.Post](db, post.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.Comments)

	items, err := db.Resolve(loaded, "Comments", false)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Len(t, loaded.Comments, 2)

	texts := []string{loaded.Comments[0].Comment, loaded.Comments[1].Comment}
	assert.ElementsMatch(t, []string{"first", "second"}, texts)
	for _, c := range loaded.Comments {
		assert.Equal(t, post.ID, c.PostID)
		assert.Equal(t, users[0].ID, c.UserID)
	}
}

func TestResolveEmpty(t *testing.T) {
	db := newDB(t)
	users := seedUsers(t, db)
	post := publish(t, db, users[0], nil)

	comments, err := db.Resolve(post, "Comments", false)
	require.NoError(t, err)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)

	followers, err := db.Resolve(post, "Followers", false)
	require.NoError(t, err)
	assert.NotNil(t, followers)
	assert.Empty(t, followers)
	assert.NotNil(t, post.Followers)
}

func TestResolveUsesCache(t *testing.T) {
	db := newDB(t)
	users := seedUsers(t, db)
	post := publish(t, db, users[0], []string{"first"}, users[1])

	first, err := db.Resolve(post, "Comments", false)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// a comment added behind the cache is not seen until forced
	_, err = db.Conn().Exec(context.Background(), "UPDATE comments SET comment = 'edited'")
	require.NoError(t, err)

	second, err := db.Resolve(post, "Comments", false)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Same(t, first[0], second[0])
	assert.Equal(t, "first", post.Comments[0].Comment)

	forced, err := db.Resolve(post, "Comments", true)
	require.NoError(t, err)
	require.Len(t, forced, 1)
	assert.NotSame(t, first[0], forced[0])
	assert.Equal(t, "edited", post.Comments[0].Comment)

	// the forced result replaces the cached one
	again, err := db.Resolve(post, "Comments", false)
	require.NoError(t, err)
	assert.Same(t, forced[0], again[0])
}

func TestRefreshIsSticky(t *testing.T) {
	db := newDB(t)
	users := seedUsers(t, db)
	post := publish(t, db, users[0], nil, users[1])

	first, err := db.Resolve(post, "Followers", false)
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, db.Refresh(post, true))
	for i := 0; i < 2; i++ {
		items, err := db.Resolve(post, "Followers", false)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.NotSame(t, first[0], items[0])
		first = items
	}

	require.NoError(t, db.Refresh(post, false))
	cached, err := db.Resolve(post, "Followers", false)
	require.NoError(t, err)
	assert.Same(t, first[0], cached[0])
}

func TestFollowersAfterDelete(t *testing.T) {
	db := newDB(t)
	users := seedUsers(t, db)
	post := publish(t, db, users[0], nil, users[1], users[2])

	followers, err := db.Resolve(post, "Followers", false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{2, 3}, userIDs(post.Followers))
	require.Len(t, followers, 2)

	require.NoError(t, db.Delete(users[1]))

	_, err = db.Resolve(post, "Followers", true)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, userIDs(post.Followers))
	assert.Equal(t, "Follower B", post.Followers[0].Name)
}

func TestRemoveTwoFollowers(t *testing.T) {
	db := newDB(t)

	left, err := blog.RemoveTwoFollowers(db)
	require.NoError(t, err)
	assert.Nil(t, left)

	users := seedUsers(t, db)
	publish(t, db, users[0], []string{"nice"}, users[1:]...)

	left, err = blog.RemoveTwoFollowers(db)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{4, 5}, userIDs(left))

	post, err := onam.Get[*blog.Post](db, 1)
	require.NoError(t, err)
	assert.False(t, db.Cache().IsStale("Post", post.ID))
}

func TestManyToManySymmetry(t *testing.T) {
	db := newDB(t)
	users := seedUsers(t, db)
	first := publish(t, db, users[0], nil, users[1])
	second := publish(t, db, users[0], nil)

	require.NoError(t, db.Associate(users[1], "FollowedPosts", second))

	posts, err := db.Resolve(users[1], "FollowedPosts", false)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	ids := []int64{users[1].FollowedPosts[0].ID, users[1].FollowedPosts[1].ID}
	assert.ElementsMatch(t, []int64{first.ID, second.ID}, ids)

	_, err = db.Resolve(second, "Followers", false)
	require.NoError(t, err)
	assert.Equal(t, []int64{users[1].ID}, userIDs(second.Followers))
}

func TestAssociateManyToMany(t *testing.T) {
	db := newDB(t)
	users := seedUsers(t, db)
	post := publish(t, db, users[0], nil)

	stranger := &blog.User{Name: "New Follower"}
	require.NoError(t, db.Associate(post, "Followers", users[1], stranger))
	assert.NotZero(t, stranger.ID, "unsaved related entities are saved first")

	// linking twice is a no-op
	require.NoError(t, db.Associate(post, "Followers", users[1]))

	followers, err := db.Resolve(post, "Followers", false)
	require.NoError(t, err)
	assert.Len(t, followers, 2)
	assert.ElementsMatch(t, []int64{users[1].ID, stranger.ID}, userIDs(post.Followers))
}

func TestAssociateInvalidatesCache(t *testing.T) {
	db := newDB(t)
	users := seedUsers(t, db)
	post := publish(t, db, users[0], nil, users[1])

	_, err := db.Resolve(post, "Followers", false)
	require.NoError(t, err)
	require.Len(t, post.Followers, 1)

	require.NoError(t, db.Associate(post, "Followers", users[2]))
	_, err = db.Resolve(post, "Followers", false)
	require.NoError(t, err)
	assert.Len(t, post.Followers, 2)

	require.NoError(t, db.Dissociate(post, "Followers", users[1]))
	_, err = db.Resolve(post, "Followers", false)
	require.NoError(t, err)
	assert.Equal(t, []int64{users[2].ID}, userIDs(post.Followers))

	// the user row is kept
	_, err = db.Find("User", users[1].ID)
	require.NoError(t, err)
}

func TestAssociateHasMany(t *testing.T) {
	db := newDB(t)
	users := seedUsers(t, db)
	post := publish(t, db, users[0], nil)
	other := publish(t, db, users[0], nil)

	comment := &blog.Comment{Comment: "moved", UserID: users[1].ID}
	require.NoError(t, db.Associate(post, "Comments", comment))
	assert.NotZero(t, comment.ID)
	assert.Equal(t, post.ID, comment.PostID)

	// associating with another owner moves the comment
	require.NoError(t, db.Associate(other, "Comments", comment))
	assert.Equal(t, other.ID, comment.PostID)

	items, err := db.Resolve(post, "Comments", true)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = db.Resolve(other, "Comments", true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, comment.ID, items[0].GetID())
}

func TestDissociateHasMany(t *testing.T) {
	db := newDB(t)
	users := seedUsers(t, db)
	post := publish(t, db, users[0], []string{"keep", "drop"})

	_, err := db.Resolve(post, "Comments", false)
	require.NoError(t, err)
	require.Len(t, post.Comments, 2)

	var dropped *blog.Comment
	for _, c := range post.Comments {
		if c.Comment == "drop" {
			dropped = c
		}
	}
	require.NotNil(t, dropped)
	require.NoError(t, db.Dissociate(post, "Comments", dropped))
	assert.Zero(t, dropped.PostID)

	_, err = db.Resolve(post, "Comments", false)
	require.NoError(t, err)
	require.Len(t, post.Comments, 1)
	assert.Equal(t, "keep", post.Comments[0].Comment)

	// the comment itself is not deleted
	found, err := onam.Get[*blog.Comment](db, dropped.ID)
	require.NoError(t, err)
	assert.Zero(t, found.PostID)
	assert.Equal(t, "drop", found.Comment)
}

func TestAssociationErrors(t *testing.T) {
	db := newDB(t)
	users := seedUsers(t, db)
	post := publish(t, db, users[0], nil)

	_, err := db.Resolve(post, "Tags", false)
	assert.ErrorIs(t, err, onam.ErrUnknownRelation)

	// Title is a scalar, not a collection
	_, err = db.Resolve(post, "Title", false)
	assert.ErrorIs(t, err, onam.ErrUnknownRelation)

	_, err = db.Resolve(&blog.Post{Title: "unsaved", CreatedAt: time.Now()}, "Comments", false)
	assert.ErrorIs(t, err, onam.ErrMissingPrimaryKey)

	assert.ErrorIs(t, db.Associate(&blog.Post{}, "Followers", users[1]), onam.ErrMissingPrimaryKey)
	assert.ErrorIs(t, db.Associate(post, "Followers", &blog.Comment{}), onam.ErrUnknownRelation)
	assert.ErrorIs(t, db.Dissociate(post, "Nope", users[1]), onam.ErrUnknownRelation)

	_, err = db.Resolve(&stranger{}, "Comments", false)
	assert.ErrorIs(t, err, onam.ErrUnknownEntity)
}
