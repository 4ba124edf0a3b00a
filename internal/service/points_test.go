package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkhub/internal/models"
)

func TestPointsBalance(t *testing.T) {
	store := newMemStore()
	svc := NewPointsService(pointsStore{store}, nil)
	user := models.Principal{UserID: 7}

	// First touch creates an empty account.
	balance, err := svc.Balance(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Balance)

	store.balances[7] = 150
	balance, err = svc.Balance(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 150, balance.Balance)
}

func TestPointsHistory(t *testing.T) {
	store := newMemStore()
	svc := NewPointsService(pointsStore{store}, nil)
	user := models.Principal{UserID: 7}

	for i := 1; i <= 25; i++ {
		store.creditLocked(7, i, fmt.Sprintf("credit %d", i))
	}
	store.creditLocked(8, 999, "someone else")

	history, err := svc.History(context.Background(), user, 1, 10)
	require.NoError(t, err)
	assert.Len(t, history.Transactions, 10)
	assert.Equal(t, 25, history.TotalItems)
	assert.Equal(t, 3, history.TotalPages)
	// Newest first.
	assert.Equal(t, 25, history.Transactions[0].Amount)

	history, err = svc.History(context.Background(), user, 3, 10)
	require.NoError(t, err)
	assert.Len(t, history.Transactions, 5)
	assert.Equal(t, 5, history.Transactions[0].Amount)

	// Out-of-range pages are empty, not errors.
	history, err = svc.History(context.Background(), user, 99, 10)
	require.NoError(t, err)
	assert.Empty(t, history.Transactions)

	// Bad paging inputs fall back to defaults.
	history, err = svc.History(context.Background(), user, 0, -5)
	require.NoError(t, err)
	assert.Len(t, history.Transactions, 20)
	assert.Equal(t, 2, history.TotalPages)
}

func TestTopUp(t *testing.T) {
	store := newMemStore()
	rec := &recorder{}
	svc := NewPointsService(pointsStore{store}, rec)

	entry, err := svc.TopUp(context.Background(), &models.TopUpRequest{UserID: 7, Amount: 50})
	require.NoError(t, err)

	assert.Equal(t, 50, entry.Amount)
	assert.Equal(t, "Points top-up", entry.Description)
	assert.Equal(t, models.TransactionEarn, entry.TransactionType)
	assert.Equal(t, 50, store.balances[7])
	assert.Equal(t, []string{"points.credited"}, rec.kinds())

	entry, err = svc.TopUp(context.Background(), &models.TopUpRequest{UserID: 7, Amount: 25, Description: "Loyalty bonus"})
	require.NoError(t, err)
	assert.Equal(t, "Loyalty bonus", entry.Description)
	assert.Equal(t, 75, store.balances[7])
}
