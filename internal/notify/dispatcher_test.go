package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkhub/internal/models"
)

func TestNotifyUnicastsToRecipientOnly(t *testing.T) {
	hub := NewHub()
	d := NewDispatcher(hub, nil)

	alice := dialClient(t, hub, 1)
	bob := dialClient(t, hub, 2)
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 2 },
		time.Second, 10*time.Millisecond)

	recipient := int64(1)
	d.Notify(context.Background(), &recipient, models.Event{
		Kind:    models.EventPaymentFailed,
		Message: "Payment for reservation #9 failed: insufficient balance",
	})

	// Only the addressed user sees their payment failure.
	assert.Contains(t, readMessage(t, alice), models.EventPaymentFailed)
	assertNoMessage(t, bob)
}

func TestNotifyBroadcastsWithoutRecipient(t *testing.T) {
	hub := NewHub()
	d := NewDispatcher(hub, nil)

	alice := dialClient(t, hub, 1)
	bob := dialClient(t, hub, 2)
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 2 },
		time.Second, 10*time.Millisecond)

	d.Notify(context.Background(), nil, models.Event{
		Kind:    "system.announcement",
		Message: "Lot closing early today",
	})

	assert.Contains(t, readMessage(t, alice), "system.announcement")
	assert.Contains(t, readMessage(t, bob), "system.announcement")
}
