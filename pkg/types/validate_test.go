package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsWord(t *testing.T) {
	assert.True(t, IsWord("monkey"))
	assert.True(t, IsWord("a"))
	assert.True(t, IsWord("blet-monkey_2"))
	assert.False(t, IsWord(""))
	assert.False(t, IsWord("2fast"))
	assert.False(t, IsWord("-lead"))
	assert.False(t, IsWord("has space"))
	assert.False(t, IsWord("semi;colon"))
}

func TestIsNameReserved(t *testing.T) {
	for _, name := range []string{
		"select", "from", "where", "order", "limit",
		"value", "id", "count", "created", "lastmodified", "rank",
	} {
		assert.True(t, IsNameReserved(name), name)
	}
	assert.True(t, IsNameReserved("VALUE"))
	assert.True(t, IsNameReserved("Select"))
	assert.False(t, IsNameReserved("values"))
	assert.False(t, IsNameReserved("monkey"))
}

func TestIsValidOp(t *testing.T) {
	for _, op := range []string{
		"=", "==", "!=", "<>", ">", ">=", "!>", "<", "<=", "!<",
		"matches", "MATCHES", "like", "LIKE",
	} {
		assert.True(t, IsValidOp(op), op)
	}
	assert.False(t, IsValidOp("==="))
	assert.False(t, IsValidOp("in"))
	assert.False(t, IsValidOp(""))
}

func TestCleanseName(t *testing.T) {
	assert.Equal(t, "monkey", CleanseName("monkey"))
	assert.Equal(t, "bletmonkey", CleanseName("blet-monkey"))
	assert.Equal(t, "ab2", CleanseName("a_b%2"))
	assert.Equal(t, "a", CleanseName("---"))
	assert.Equal(t, "a", CleanseName(""))
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateTableName("cars"))
	assert.EqualError(t, ValidateTableName("no good"), "Invalid table name: no good")

	assert.NoError(t, ValidateColumnName("make"))
	// Pseudo-columns are legal column names in queries.
	assert.NoError(t, ValidateColumnName("value"))
	assert.EqualError(t, ValidateColumnName("1bad"), "Invalid column name: 1bad")

	assert.NoError(t, ValidateOperator(">="))
	assert.EqualError(t, ValidateOperator("between"), "Invalid query operator: between")

	assert.NoError(t, ValidateParameterName("@min"))
	assert.EqualError(t, ValidateParameterName("min"), "Invalid parameter name: min")
	assert.EqualError(t, ValidateParameterName("@"), "Invalid parameter name: @")
	assert.EqualError(t, ValidateParameterName("@2x"), "Invalid parameter name: @2x")
}
