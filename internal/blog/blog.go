// Package blog is the sample model used by the onam command and the
// integration tests: users write posts, posts collect comments and
// followers.
package blog

import (
	"time"

	"github.com/basilgregory/onam"
	"github.com/basilgregory/onam/schema"
)

type User struct {
	onam.Model
	Name          string
	Bio           string
	FollowedPosts []*Post
}

type Post struct {
	onam.Model
	Title     string
	Body      string
	CreatedAt time.Time
	UserID    int64
	Comments  []*Comment
	Followers []*User
}

type Comment struct {
	onam.Model
	Comment string
	PostID  int64
	UserID  int64
}

// Entities declarations of the blog model.
func Entities() []schema.Declaration {
	return []schema.Declaration{
		schema.Declare("User", func() *User { return &User{} },
			schema.String("Name",
				func(u *User) string { return u.Name },
				func(u *User, v string) { u.Name = v }),
			schema.String("Bio",
				func(u *User) string { return u.Bio },
				func(u *User, v string) { u.Bio = v }),
			// posts hold the id of their author, follows live in a junction
			schema.Many("FollowedPosts",
				func(u *User) []*Post { return u.FollowedPosts },
				func(u *User, v []*Post) { u.FollowedPosts = v }).ManyToMany(),
		),
		schema.Declare("Post", func() *Post { return &Post{} },
			schema.String("Title",
				func(p *Post) string { return p.Title },
				func(p *Post, v string) { p.Title = v }),
			schema.String("Body",
				func(p *Post) string { return p.Body },
				func(p *Post, v string) { p.Body = v }),
			schema.Time("CreatedAt",
				func(p *Post) time.Time { return p.CreatedAt },
				func(p *Post, v time.Time) { p.CreatedAt = v }),
			schema.Ref[*Post, *User]("UserID",
				func(p *Post) int64 { return p.UserID },
				func(p *Post, v int64) { p.UserID = v }),
			schema.Many("Comments",
				func(p *Post) []*Comment { return p.Comments },
				func(p *Post, v []*Comment) { p.Comments = v }),
			schema.Many("Followers",
				func(p *Post) []*User { return p.Followers },
				func(p *Post, v []*User) { p.Followers = v }),
		),
		schema.Declare("Comment", func() *Comment { return &Comment{} },
			schema.String("Comment",
				func(c *Comment) string { return c.Comment },
				func(c *Comment, v string) { c.Comment = v }),
			schema.Ref[*Comment, *Post]("PostID",
				func(c *Comment) int64 { return c.PostID },
				func(c *Comment, v int64) { c.PostID = v }),
			schema.Ref[*Comment, *User]("UserID",
				func(c *Comment) int64 { return c.UserID },
				func(c *Comment, v int64) { c.UserID = v }),
		),
	}
}
