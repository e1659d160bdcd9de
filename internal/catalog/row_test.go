package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRow_Bool(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want bool
	}{
		{"absent", nil, false},
		{"true", true, true},
		{"false", false, false},
		{"int64 one", int64(1), true},
		{"int64 zero", int64(0), false},
		{"int", 2, true},
		{"bytes one", []byte("1"), true},
		{"bytes YES", []byte("YES"), true},
		{"string t", "t", true},
		{"string false", "false", false},
		{"garbage", "maybe", false},
		{"float", 1.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := Row{}
			if tt.val != nil {
				row[FieldUnique] = tt.val
			}
			assert.Equal(t, tt.want, row.Bool(FieldUnique))
		})
	}
}

func TestRow_BoolExplicitNil(t *testing.T) {
	assert.False(t, Row{FieldPrimaryKey: nil}.Bool(FieldPrimaryKey))
}

func TestRow_String(t *testing.T) {
	row := Row{
		"nil":   nil,
		"str":   "orders",
		"bytes": []byte("customers"),
		"int":   int64(42),
		"bool":  true,
		"float": 1.5,
	}

	assert.Equal(t, "", row.String("nil"))
	assert.Equal(t, "", row.String("missing"))
	assert.Equal(t, "orders", row.String("str"))
	assert.Equal(t, "customers", row.String("bytes"))
	assert.Equal(t, "42", row.String("int"))
	assert.Equal(t, "true", row.String("bool"))
	assert.Equal(t, "1.5", row.String("float"))
}

func TestRow_Int(t *testing.T) {
	row := Row{"a": int64(3), "b": []byte("7"), "c": "x", "d": int32(5)}

	assert.Equal(t, int64(3), row.Int("a"))
	assert.Equal(t, int64(7), row.Int("b"))
	assert.Equal(t, int64(0), row.Int("c"))
	assert.Equal(t, int64(5), row.Int("d"))
	assert.Equal(t, int64(0), row.Int("missing"))
}

func TestRestriction(t *testing.T) {
	rs := []string{"main", "", " orders "}

	assert.Equal(t, "main", restriction(rs, 0))
	assert.Equal(t, "", restriction(rs, 1))
	assert.Equal(t, "orders", restriction(rs, 2))
	assert.Equal(t, "", restriction(rs, 7))
	assert.Equal(t, "", restriction(nil, 0))
}

func TestField_IgnoresCase(t *testing.T) {
	src := map[string]any{"TABLE_NAME": []byte("orders"), "non_unique": int64(0)}

	assert.Equal(t, "orders", text(src, "table_name"))
	assert.Equal(t, int64(0), field(src, "NON_UNIQUE"))
	assert.Nil(t, field(src, "index_name"))
}
