package service

import (
	"context"
	"fmt"

	"parkhub/internal/models"
)

// PointsService exposes the points ledger: balance, history and admin
// top-ups. Spends only happen through the payment flow.
type PointsService struct {
	points   PointsStore
	notifier Notifier
}

func NewPointsService(points PointsStore, notifier Notifier) *PointsService {
	return &PointsService{points: points, notifier: notifier}
}

// Balance returns the principal's balance, creating the account on first
// touch.
func (s *PointsService) Balance(ctx context.Context, principal models.Principal) (*models.PointsBalanceResponse, error) {
	acct, err := s.points.GetOrCreate(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	return &models.PointsBalanceResponse{
		UserID:  acct.UserID,
		Balance: acct.Balance,
	}, nil
}

// History returns the principal's ledger entries, newest first.
func (s *PointsService) History(ctx context.Context, principal models.Principal, page, pageSize int) (*models.TransactionHistoryResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	entries, total, err := s.points.History(ctx, principal.UserID, page, pageSize)
	if err != nil {
		return nil, err
	}

	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}
	return &models.TransactionHistoryResponse{
		Transactions: entries,
		TotalItems:   total,
		TotalPages:   totalPages,
	}, nil
}

// TopUp is the admin grant path: credit the user and tell them.
func (s *PointsService) TopUp(ctx context.Context, req *models.TopUpRequest) (*models.PointsTransaction, error) {
	description := req.Description
	if description == "" {
		description = "Points top-up"
	}

	entry, err := s.points.Credit(ctx, req.UserID, req.Amount, description)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		userID := req.UserID
		s.notifier.Notify(ctx, &userID, models.Event{
			Kind:    "points.credited",
			Message: fmt.Sprintf("%d points added to your account", req.Amount),
			Payload: map[string]any{
				"amount":         req.Amount,
				"transaction_id": entry.ID,
			},
		})
	}
	return entry, nil
}
