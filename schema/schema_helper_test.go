package schema_test

import (
	"time"

	"github.com/basilgregory/onam/schema"
)

type model struct {
	ID int64
}

func (m *model) GetID() int64   { return m.ID }
func (m *model) SetID(id int64) { m.ID = id }

type User struct {
	model
	Name     string
	Age      int32
	Score    float64
	Active   bool
	Avatar   []byte
	Birthday time.Time
	Posts    []*Post
	Friends  []*User
}

type Post struct {
	model
	Title     string
	UserID    int64
	Followers []*User
	Comments  []*Comment
}

type Comment struct {
	model
	Body         string
	PostID       int64
	QuotedPostID int64
}

func userDecl() schema.Declaration {
	return schema.Declare("User", func() *User { return &User{} },
		schema.String("Name",
			func(u *User) string { return u.Name },
			func(u *User, v string) { u.Name = v }).Required(),
		schema.Int32("Age",
			func(u *User) int32 { return u.Age },
			func(u *User, v int32) { u.Age = v }),
		schema.Float64("Score",
			func(u *User) float64 { return u.Score },
			func(u *User, v float64) { u.Score = v }),
		schema.Bool("Active",
			func(u *User) bool { return u.Active },
			func(u *User, v bool) { u.Active = v }),
		schema.Bytes("Avatar",
			func(u *User) []byte { return u.Avatar },
			func(u *User, v []byte) { u.Avatar = v }),
		schema.Time("Birthday",
			func(u *User) time.Time { return u.Birthday },
			func(u *User, v time.Time) { u.Birthday = v }),
		schema.Many("Posts",
			func(u *User) []*Post { return u.Posts },
			func(u *User, v []*Post) { u.Posts = v }),
		schema.Many("Friends",
			func(u *User) []*User { return u.Friends },
			func(u *User, v []*User) { u.Friends = v }),
		// write only, skipped
		schema.String[*User]("Password", nil, func(u *User, v string) {}),
	)
}

func postDecl() schema.Declaration {
	return schema.Declare("Post", func() *Post { return &Post{} },
		schema.String("Title",
			func(p *Post) string { return p.Title },
			func(p *Post, v string) { p.Title = v }),
		schema.Ref[*Post, *User]("UserID",
			func(p *Post) int64 { return p.UserID },
			func(p *Post, v int64) { p.UserID = v }),
		schema.Many("Followers",
			func(p *Post) []*User { return p.Followers },
			func(p *Post, v []*User) { p.Followers = v }).Through("post_followers"),
		schema.Many("Comments",
			func(p *Post) []*Comment { return p.Comments },
			func(p *Post, v []*Comment) { p.Comments = v }),
	)
}

func commentDecl() schema.Declaration {
	return schema.Declare("Comment", func() *Comment { return &Comment{} },
		schema.String("Body",
			func(c *Comment) string { return c.Body },
			func(c *Comment, v string) { c.Body = v }),
		schema.Ref[*Comment, *Post]("PostID",
			func(c *Comment) int64 { return c.PostID },
			func(c *Comment, v int64) { c.PostID = v }),
	)
}

func newRegistry() (*schema.Registry, error) {
	return schema.NewRegistry(schema.NamingStrategy{}, userDecl(), postDecl(), commentDecl())
}
