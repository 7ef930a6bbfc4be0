package migrator_test

import (
	"context"
	"strings"
	"testing"

	"github.com/basilgregory/onam/logger"
	"github.com/basilgregory/onam/migrator"
	"github.com/basilgregory/onam/schema"
	"github.com/basilgregory/onam/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type model struct{ ID int64 }

func (m *model) GetID() int64   { return m.ID }
func (m *model) SetID(id int64) { m.ID = id }

type Author struct {
	model
	Name  string
	Books []*Book
}

type Book struct {
	model
	Title    string
	AuthorID int64
	Readers  []*Author
}

func newRegistry(t *testing.T) *schema.Registry {
	registry, err := schema.NewRegistry(schema.NamingStrategy{},
		schema.Declare("Author", func() *Author { return &Author{} },
			schema.String("Name", func(a *Author) string { return a.Name }, func(a *Author, v string) { a.Name = v }),
			schema.Many("Books", func(a *Author) []*Book { return a.Books }, func(a *Author, v []*Book) { a.Books = v }),
		),
		schema.Declare("Book", func() *Book { return &Book{} },
			schema.String("Title", func(b *Book) string { return b.Title }, func(b *Book, v string) { b.Title = v }),
			schema.Ref[*Book, *Author]("AuthorID", func(b *Book) int64 { return b.AuthorID }, func(b *Book, v int64) { b.AuthorID = v }),
			schema.Many("Readers", func(b *Book) []*Author { return b.Readers }, func(b *Book, v []*Author) { b.Readers = v }),
		),
	)
	require.NoError(t, err)
	return registry
}

// recorder keeps every statement sent to the wrapped connection.
type recorder struct {
	storage.Conn
	statements []string
}

func (r *recorder) Exec(ctx context.Context, query string, args ...any) (storage.Result, error) {
	r.statements = append(r.statements, query)
	return r.Conn.Exec(ctx, query, args...)
}

func openSQLite(t *testing.T) *recorder {
	conn, err := storage.Open(storage.SQLite{}, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &recorder{Conn: conn}
}

func TestCreateTables(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	registry := newRegistry(t)
	m := migrator.New(conn, logger.Discard)

	require.NoError(t, m.CreateTables(ctx, registry))
	assert.Equal(t, []string{
		`CREATE TABLE IF NOT EXISTS "authors" ("id" INTEGER PRIMARY KEY AUTOINCREMENT,"name" TEXT)`,
		`CREATE TABLE IF NOT EXISTS "books" ("id" INTEGER PRIMARY KEY AUTOINCREMENT,"title" TEXT,"author_id" INTEGER)`,
		`CREATE TABLE IF NOT EXISTS "author_books" ("author_id" INTEGER NOT NULL,"book_id" INTEGER NOT NULL)`,
	}, conn.statements)

	for _, table := range []string{"authors", "books", "author_books"} {
		ok, err := m.HasTable(ctx, table)
		require.NoError(t, err)
		assert.True(t, ok, table)
	}

	ok, err := m.HasTable(ctx, "comments")
	require.NoError(t, err)
	assert.False(t, ok)

	columns, err := m.ColumnNames(ctx, "books")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title", "author_id"}, columns)
}

func TestCreateTablesTwice(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	registry := newRegistry(t)
	m := migrator.New(conn, nil)

	require.NoError(t, m.CreateTables(ctx, registry))
	_, err := conn.Exec(ctx, `INSERT INTO "authors" ("name") VALUES (?)`, "kept")
	require.NoError(t, err)

	require.NoError(t, m.CreateTables(ctx, registry))

	cursor, err := conn.Query(ctx, `SELECT count(*) FROM "authors"`)
	require.NoError(t, err)
	require.True(t, cursor.Next())
	count, err := cursor.Int64(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDropTables(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	registry := newRegistry(t)
	m := migrator.New(conn, logger.Discard)

	require.NoError(t, m.CreateTables(ctx, registry))
	conn.statements = nil
	require.NoError(t, m.DropTables(ctx, registry))

	assert.Len(t, conn.statements, 3)
	assert.True(t, strings.HasSuffix(conn.statements[0], `"author_books"`))

	ok, err := m.HasTable(ctx, "authors")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateTableError(t *testing.T) {
	conn := openSQLite(t)
	require.NoError(t, conn.Close())

	err := migrator.New(conn, logger.Discard).CreateTables(context.Background(), newRegistry(t))
	assert.ErrorContains(t, err, "create table authors for Author")
}
