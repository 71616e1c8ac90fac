package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNetAmount(t *testing.T) {
	items := []selectedItem{
		{quantity: 2, price: decimal.RequireFromString("19.99")},
		{quantity: 1, price: decimal.RequireFromString("5.50")},
		{quantity: 3, price: decimal.RequireFromString("0.10")},
	}

	total := netAmount(items)
	require.True(t, total.Equal(decimal.RequireFromString("45.78")), "got %s", total)
}

func TestNetAmountEmpty(t *testing.T) {
	require.True(t, netAmount(nil).IsZero())
}

func TestNetAmountNoFloatDrift(t *testing.T) {
	// 0.1 added ten times must be exactly 1, not 0.9999999999999999.
	items := make([]selectedItem, 10)
	for i := range items {
		items[i] = selectedItem{quantity: 1, price: decimal.RequireFromString("0.1")}
	}
	require.True(t, netAmount(items).Equal(decimal.NewFromInt(1)))
}
