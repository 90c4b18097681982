package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaymentSplit(t *testing.T) {
	total := decimal.NewFromInt(5000000)

	t.Run("cash covers total", func(t *testing.T) {
		split, err := NewPaymentSplit(PaymentMethodCash, total, decimal.Zero, total)
		require.NoError(t, err)
		assert.True(t, split.Total().Equal(total))
		assert.True(t, split.Bank().IsZero())
	})

	t.Run("bank covers total", func(t *testing.T) {
		split, err := NewPaymentSplit(PaymentMethodBank, decimal.Zero, total, total)
		require.NoError(t, err)
		assert.True(t, split.Cash().IsZero())
	})

	t.Run("mixed must sum exactly", func(t *testing.T) {
		_, err := NewPaymentSplit(PaymentMethodMixed,
			decimal.NewFromInt(2000000), decimal.NewFromInt(3000000), total)
		assert.NoError(t, err)

		_, err = NewPaymentSplit(PaymentMethodMixed,
			decimal.NewFromInt(2000000), decimal.NewFromInt(2000000), total)
		assert.Error(t, err)
	})

	t.Run("cash method rejects bank amount", func(t *testing.T) {
		_, err := NewPaymentSplit(PaymentMethodCash, total, decimal.NewFromInt(1), total)
		assert.Error(t, err)
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		_, err := NewPaymentSplit(PaymentMethodMixed,
			decimal.NewFromInt(-1), total.Add(decimal.NewFromInt(1)), total)
		assert.Error(t, err)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		_, err := NewPaymentSplit(PaymentMethod("credit"), total, decimal.Zero, total)
		assert.Error(t, err)
	})
}
