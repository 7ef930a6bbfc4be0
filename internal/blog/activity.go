package blog

import (
	"errors"
	"fmt"
	"time"

	"github.com/basilgregory/onam"
)

// RegisterUser saves John Doe and four users to follow when there is no
// user 1 yet. It reports whether anything was created.
func RegisterUser(db *onam.DB) (bool, error) {
	_, err := onam.Get[*User](db, 1)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, onam.ErrRecordNotFound) {
		return false, err
	}

	users := []*User{
		{Name: "John Doe", Bio: "Developer"},
		{Name: "Follower A", Bio: "Developer"},
		{Name: "Follower B", Bio: "Designer"},
		{Name: "Follower C", Bio: "Doctor"},
		{Name: "Follower D", Bio: "Entrepreneur"},
	}
	for _, u := range users {
		if err := db.Save(u); err != nil {
			return false, fmt.Errorf("register %s: %w", u.Name, err)
		}
	}
	return true, nil
}

// Publish saves a post by author with its comments, followed by followers.
func Publish(db *onam.DB, author *User, title, body string, comments []string, followers ...*User) (*Post, error) {
	post := &Post{Title: title, Body: body, CreatedAt: time.Now(), UserID: author.ID}
	if err := db.Save(post); err != nil {
		return nil, err
	}

	related := make([]onam.Entity, 0, len(comments))
	for _, text := range comments {
		related = append(related, &Comment{Comment: text, UserID: author.ID})
	}
	if err := db.Associate(post, "Comments", related...); err != nil {
		return nil, err
	}

	related = related[:0]
	for _, u := range followers {
		related = append(related, u)
	}
	if err := db.Associate(post, "Followers", related...); err != nil {
		return nil, err
	}
	return post, nil
}

// RemoveTwoFollowers deletes users 2 and 3, then reloads the followers of
// post 1 bypassing the cache. It returns the followers left, nil when post 1
// does not exist.
func RemoveTwoFollowers(db *onam.DB) ([]*User, error) {
	post, err := onam.Get[*Post](db, 1)
	if errors.Is(err, onam.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := db.Resolve(post, "Followers", false); err != nil {
		return nil, err
	}

	for _, id := range []int64{2, 3} {
		user, err := onam.Get[*User](db, id)
		if errors.Is(err, onam.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := db.Delete(user); err != nil {
			return nil, err
		}
	}

	if err := db.Refresh(post, true); err != nil {
		return nil, err
	}
	_, err = db.Resolve(post, "Followers", false)
	if clearErr := db.Refresh(post, false); err == nil {
		err = clearErr
	}
	if err != nil {
		return nil, err
	}
	return post.Followers, nil
}
