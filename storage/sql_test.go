package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLConnSQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := Open(SQLite{}, ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(ctx, SQLite{}.CreateTableSQL("users", []ColumnDef{
		{Name: "id", Affinity: Integer, PrimaryKey: true},
		{Name: "name", Affinity: Text},
		{Name: "avatar", Affinity: Blob},
	}))
	require.NoError(t, err)

	res, err := conn.Exec(ctx, SQLite{}.InsertSQL("users", "id", []string{"name", "avatar"}), "John Doe", []byte{0x89, 0x50})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.LastInsertID)
	assert.Equal(t, int64(1), res.RowsAffected)

	res, err = conn.Exec(ctx, SQLite{}.InsertSQL("users", "id", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.LastInsertID)

	cursor, err := conn.Query(ctx, `SELECT * FROM "users"`)
	require.NoError(t, err)
	assert.Equal(t, 2, cursor.Count())
	assert.Equal(t, []string{"id", "name", "avatar"}, cursor.Columns())

	require.True(t, cursor.Next())
	name, err := cursor.String(cursor.ColumnIndex("name"))
	require.NoError(t, err)
	assert.Equal(t, "John Doe", name)
	avatar, err := cursor.Bytes(cursor.ColumnIndex("avatar"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50}, avatar)

	require.True(t, cursor.Next())
	assert.True(t, cursor.IsNull(cursor.ColumnIndex("name")))

	query, args := SQLite{}.HasTableSQL("users")
	cursor, err = conn.Query(ctx, query, args...)
	require.NoError(t, err)
	require.True(t, cursor.Next())
	count, err := cursor.Int64(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = conn.Query(ctx, "SELECT * FROM missing")
	assert.Error(t, err)
}

func TestSQLConnPreparedStatements(t *testing.T) {
	ctx := context.Background()
	conn, err := Open(SQLite{}, ":memory:", WithPreparedStatements(8))
	require.NoError(t, err)

	_, err = conn.Exec(ctx, SQLite{}.CreateTableSQL("tags", []ColumnDef{
		{Name: "id", Affinity: Integer, PrimaryKey: true},
		{Name: "label", Affinity: Text, NotNull: true},
	}))
	require.NoError(t, err)

	insert := SQLite{}.InsertSQL("tags", "id", []string{"label"})
	for i, label := range []string{"go", "sql", "orm"} {
		res, err := conn.Exec(ctx, insert, label)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), res.LastInsertID)
	}
	assert.Contains(t, conn.stmts.Keys(), insert)

	cursor, err := conn.Query(ctx, `SELECT "label" FROM "tags" WHERE "id" > ?`, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, cursor.Count())

	_, err = conn.Exec(ctx, insert, nil)
	assert.Error(t, err)

	require.NoError(t, conn.Close())
}
