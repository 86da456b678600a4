package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stencil/internal/model"
)

func TestParseOrder(t *testing.T) {
	assert.Equal(t, []OrderTerm{{Field: "city"}, {Field: "name", Desc: true}}, ParseOrder("city,-name"))
	assert.Equal(t, []OrderTerm{{Field: "a"}}, ParseOrder(" a , ,-"))
	assert.Nil(t, ParseOrder(""))
}

func TestCompile_DefaultOrder(t *testing.T) {
	q := ForSection(7, model.Params{}, 0)

	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)

	assert.Equal(t, "SELECT "+RecordColumns+" FROM records WHERE section_id = ? ORDER BY position ASC, created_at DESC, id ASC LIMIT ? OFFSET ?", sql)
	assert.Equal(t, []any{int64(7), DefaultLimit, DefaultOffset}, params)
}

func TestCompile_OrderDSL(t *testing.T) {
	q := ForSection(3, model.Params{"order": "city,-name", "limit": "5", "offset": "10"}, 0)

	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)

	assert.Contains(t, sql, "ORDER BY json_extract(content, ?) ASC, json_extract(content, ?) DESC, id ASC")
	assert.NotContains(t, sql, "city") // field paths are bound, never interpolated
	assert.Equal(t, []any{int64(3), "$.city", "$.name", 5, 10}, params)
}

func TestCompile_SingleRecord(t *testing.T) {
	q := ForSection(3, model.Params{"order": "city", "limit": "5"}, 42)

	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE section_id = ? AND id = ?")
	assert.Contains(t, sql, "ORDER BY id ASC")
	assert.NotContains(t, sql, "json_extract")
	assert.Equal(t, []any{int64(3), int64(42), 1, 0}, params)
}

func TestCompile_BadPagination(t *testing.T) {
	q := ForSection(1, model.Params{"limit": "-3", "offset": "x"}, 0)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Equal(t, DefaultOffset, q.Offset)
}

func TestCompile_Errors(t *testing.T) {
	c := NewSQLCompiler()

	_, _, err := c.Compile(RecordQuery{Order: []OrderTerm{{Field: "name; DROP TABLE records"}}})
	assert.Error(t, err)

	_, _, err = c.Compile(RecordQuery{Filter: Equals{Field: "content", Value: "x"}})
	assert.Error(t, err)
}
