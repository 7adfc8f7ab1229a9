package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = map[string]string{"name": "name", "quantity": "quantity"}

func TestParse(t *testing.T) {
	f, err := Parse(`{"where":{"quantity":{"gte":3}},"fields":["id","name"],"order":"name DESC","limit":2,"skip":1}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, f.Fields)
	assert.Equal(t, "name DESC", f.Order)
	assert.Equal(t, 2, f.Limit)
	assert.Equal(t, 1, f.Skip)
	assert.Contains(t, f.Where, "quantity")
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse("")
	require.NoError(t, err)
	assert.Empty(t, f.Where)
	assert.Zero(t, f.Limit)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse(`{"where":`)
	assert.ErrorIs(t, err, ErrBad)

	_, err = Parse(`{"limit":-1}`)
	assert.ErrorIs(t, err, ErrBad)
}

func TestWhereSQL(t *testing.T) {
	w := Where{
		"name":     "milk",
		"quantity": map[string]any{"gte": float64(3)},
	}
	clause, args, err := w.SQL(cols, 0)
	require.NoError(t, err)
	assert.Equal(t, "name = $1 AND quantity >= $2", clause)
	assert.Equal(t, []any{"milk", float64(3)}, args)
}

func TestWhereSQL_ArgOffset(t *testing.T) {
	w := Where{"quantity": float64(7)}
	clause, args, err := w.SQL(cols, 2)
	require.NoError(t, err)
	assert.Equal(t, "quantity = $3", clause)
	assert.Equal(t, []any{float64(7)}, args)
}

func TestWhereSQL_UnknownField(t *testing.T) {
	_, _, err := Where{"password": 1}.SQL(cols, 0)
	assert.ErrorIs(t, err, ErrBad)
}

func TestWhereSQL_UnknownOperator(t *testing.T) {
	_, _, err := Where{"quantity": map[string]any{"like": "x"}}.SQL(cols, 0)
	assert.ErrorIs(t, err, ErrBad)
}

func TestOrderSQL(t *testing.T) {
	s, err := OrderSQL("quantity DESC", cols)
	require.NoError(t, err)
	assert.Equal(t, "quantity DESC", s)

	s, err = OrderSQL("name", cols)
	require.NoError(t, err)
	assert.Equal(t, "name ASC", s)

	_, err = OrderSQL("quantity sideways", cols)
	assert.ErrorIs(t, err, ErrBad)

	_, err = OrderSQL("password ASC", cols)
	assert.ErrorIs(t, err, ErrBad)
}

func TestMatch(t *testing.T) {
	rec := map[string]any{"name": "milk", "quantity": 6, "finished": false}
	get := func(f string) (any, bool) { v, ok := rec[f]; return v, ok }

	assert.True(t, Where{}.Match(get))
	assert.True(t, Where{"name": "milk"}.Match(get))
	assert.False(t, Where{"name": "bread"}.Match(get))
	assert.True(t, Where{"quantity": float64(6)}.Match(get))
	assert.True(t, Where{"quantity": map[string]any{"gte": float64(6)}}.Match(get))
	assert.False(t, Where{"quantity": map[string]any{"gt": float64(6)}}.Match(get))
	assert.True(t, Where{"quantity": map[string]any{"lt": float64(10), "gt": float64(1)}}.Match(get))
	assert.True(t, Where{"quantity": map[string]any{"neq": float64(7)}}.Match(get))
	assert.True(t, Where{"finished": false}.Match(get))
	assert.False(t, Where{"unknown": 1}.Match(get))
}
