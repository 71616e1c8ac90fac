package orders

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"PENDING", "ACCEPTED", "OUT_FOR_DELIVERY", "DELIVERED", "CANCELLED"} {
		status, err := ParseStatus(raw)
		require.NoError(t, err)
		require.Equal(t, raw, status.String())
	}
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "pending", "SHIPPED", "DELIVERED "} {
		_, err := ParseStatus(raw)
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrInvalidStatus))
	}
}

func TestCanCancel(t *testing.T) {
	require.True(t, StatusPending.CanCancel())
	require.True(t, StatusAccepted.CanCancel())
	require.False(t, StatusOutForDelivery.CanCancel())
	require.False(t, StatusDelivered.CanCancel())
	require.False(t, StatusCancelled.CanCancel())
}

func TestTerminal(t *testing.T) {
	require.False(t, StatusPending.Terminal())
	require.False(t, StatusAccepted.Terminal())
	require.False(t, StatusOutForDelivery.Terminal())
	require.True(t, StatusDelivered.Terminal())
	require.True(t, StatusCancelled.Terminal())
}
