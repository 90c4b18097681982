package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Arithmetic(t *testing.T) {
	a := NewMoneyVND(decimal.NewFromInt(5000000))
	b := NewMoneyVND(decimal.NewFromInt(2000000))

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(decimal.NewFromInt(7000000)))

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.True(t, diff.Amount().Equal(decimal.NewFromInt(3000000)))

	usd, err := NewMoney(decimal.NewFromInt(1), USD)
	require.NoError(t, err)
	_, err = a.Add(usd)
	assert.Error(t, err)
}

func TestMoney_Comparison(t *testing.T) {
	a := NewMoneyVND(decimal.NewFromInt(100))
	b := NewMoneyVND(decimal.NewFromInt(200))

	less, err := a.LessThan(b)
	require.NoError(t, err)
	assert.True(t, less)

	assert.True(t, a.Equals(NewMoneyVND(decimal.NewFromInt(100))))
	assert.False(t, a.Equals(b))
}

func TestMoney_JSON(t *testing.T) {
	m := NewMoneyVND(decimal.NewFromInt(5000000))

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))
}

func TestMoney_Scan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("5000000"))
	assert.True(t, m.Amount().Equal(decimal.NewFromInt(5000000)))
	assert.Equal(t, VND, m.Currency())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan(42))
}
