package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"parkhub/internal/apperrors"
	"parkhub/internal/models"
)

// memStore is an in-memory stand-in for the SQL repositories. It mirrors
// their semantics closely enough to exercise the services: the half-open
// overlap rule, the available_spaces counter, the reservation and payment
// state machines and the append-only ledger.
type memStore struct {
	mu sync.Mutex

	lots         map[int64]*models.ParkingLot
	spaces       map[int64]*models.ParkingSpace
	reservations map[int64]*models.Reservation
	balances     map[int64]int
	ledger       []models.PointsTransaction
	payments     map[int64]*models.Payment

	nextID int64
}

func newMemStore() *memStore {
	return &memStore{
		lots:         make(map[int64]*models.ParkingLot),
		spaces:       make(map[int64]*models.ParkingSpace),
		reservations: make(map[int64]*models.Reservation),
		balances:     make(map[int64]int),
		payments:     make(map[int64]*models.Payment),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

// addLot seeds a lot with numbered spaces, all available.
func (m *memStore) addLot(rate float64, spaces int) *models.ParkingLot {
	m.mu.Lock()
	defer m.mu.Unlock()

	lot := &models.ParkingLot{
		ID:              m.id(),
		Name:            "Lot",
		TotalSpaces:     spaces,
		AvailableSpaces: spaces,
		Status:          models.LotActive,
		HourlyRate:      rate,
	}
	m.lots[lot.ID] = lot
	for i := 0; i < spaces; i++ {
		sp := &models.ParkingSpace{
			ID:          m.id(),
			LotID:       lot.ID,
			SpaceNumber: fmt.Sprintf("%d", i+1),
			Status:      models.SpaceAvailable,
		}
		m.spaces[sp.ID] = sp
	}
	return lot
}

func (m *memStore) spaceOf(lotID int64, n int) *models.ParkingSpace {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for id := lotID + 1; ; id++ {
		sp, ok := m.spaces[id]
		if !ok {
			return nil
		}
		if sp.LotID == lotID {
			count++
			if count == n {
				return sp
			}
		}
	}
}

// LotStore

func (m *memStore) Create(ctx context.Context, lot *models.ParkingLot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lot.ID = m.id()
	m.lots[lot.ID] = lot
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*models.ParkingLot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lot, ok := m.lots[id]
	if !ok {
		return nil, nil
	}
	copied := *lot
	return &copied, nil
}

func (m *memStore) List(ctx context.Context, status, search string) ([]models.ParkingLot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ParkingLot
	for _, lot := range m.lots {
		if status != "" && string(lot.Status) != status {
			continue
		}
		out = append(out, *lot)
	}
	return out, nil
}

func (m *memStore) Update(ctx context.Context, id int64, req *models.UpdateLotRequest) (*models.ParkingLot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lot, ok := m.lots[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if req.Status != nil {
		lot.Status = *req.Status
	}
	if req.HourlyRate != nil {
		lot.HourlyRate = *req.HourlyRate
	}
	copied := *lot
	return &copied, nil
}

func (m *memStore) Resize(ctx context.Context, id int64, newTotal int) (*models.ParkingLot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lot, ok := m.lots[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	delta := newTotal - lot.TotalSpaces
	lot.TotalSpaces = newTotal
	lot.AvailableSpaces += delta
	copied := *lot
	return &copied, nil
}

func (m *memStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lots[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.lots, id)
	return nil
}

// reservationStore adapts memStore to ReservationStore; the method set
// clashes with LotStore's Create/GetByID, so each store interface gets its
// own thin view over the shared state.
type reservationStore struct{ m *memStore }

func (s reservationStore) Create(ctx context.Context, res *models.Reservation) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	space, ok := m.spaces[res.SpaceID]
	if !ok || space.LotID != res.LotID {
		return apperrors.ErrNotFound
	}
	if space.Status == models.SpaceMaintenance {
		return fmt.Errorf("space %d is under maintenance: %w", res.SpaceID, apperrors.ErrInvalidState)
	}

	for _, other := range m.reservations {
		if other.SpaceID == res.SpaceID && other.Status == models.ReservationActive &&
			models.Overlaps(other.StartTime, other.EndTime, res.StartTime, res.EndTime) {
			return apperrors.ErrSlotConflict
		}
	}

	res.ID = m.id()
	res.Status = models.ReservationActive
	res.HourlyRate = m.lots[res.LotID].HourlyRate
	m.reservations[res.ID] = res

	if space.Status == models.SpaceAvailable {
		m.lots[res.LotID].AvailableSpaces--
	}
	space.Status = models.SpaceReserved
	space.CurrentUserID = &res.UserID
	return nil
}

func (s reservationStore) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	res, ok := s.m.reservations[id]
	if !ok {
		return nil, nil
	}
	copied := *res
	return &copied, nil
}

func (s reservationStore) ListByUser(ctx context.Context, userID int64, status string) ([]models.Reservation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []models.Reservation
	for _, res := range s.m.reservations {
		if res.UserID != userID {
			continue
		}
		if status != "" && string(res.Status) != status {
			continue
		}
		out = append(out, *res)
	}
	return out, nil
}

func (s reservationStore) Finish(ctx context.Context, id int64, to models.ReservationStatus, restore bool) (*models.Reservation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.finishLocked(id, to, restore)
}

func (s reservationStore) finishLocked(id int64, to models.ReservationStatus, restore bool) (*models.Reservation, error) {
	res, ok := s.m.reservations[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if !res.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("reservation is %s: %w", res.Status, apperrors.ErrInvalidTransition)
	}
	res.Status = to

	if restore {
		space := s.m.spaces[res.SpaceID]
		if space.Status != models.SpaceAvailable {
			space.Status = models.SpaceAvailable
			space.CurrentUserID = nil
			s.m.lots[res.LotID].AvailableSpaces++
		}
	}
	copied := *res
	return &copied, nil
}

func (s reservationStore) ListActiveEndedBefore(ctx context.Context, t time.Time) ([]models.Reservation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []models.Reservation
	for _, res := range s.m.reservations {
		if res.Status == models.ReservationActive && res.EndTime.Before(t) {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (s reservationStore) ListActiveStartingBetween(ctx context.Context, from, to time.Time) ([]models.Reservation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []models.Reservation
	for _, res := range s.m.reservations {
		if res.Status == models.ReservationActive && res.RemindedAt == nil &&
			res.StartTime.After(from) && !res.StartTime.After(to) {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (s reservationStore) MarkReminded(ctx context.Context, id int64, at time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	res, ok := s.m.reservations[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	res.RemindedAt = &at
	return nil
}

func (s reservationStore) ListStartedBetween(ctx context.Context, from, to time.Time, lotID *int64) ([]models.Reservation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []models.Reservation
	for _, res := range s.m.reservations {
		if res.StartTime.Before(from) || !res.StartTime.Before(to) {
			continue
		}
		if res.Status != models.ReservationActive && res.Status != models.ReservationCompleted {
			continue
		}
		if lotID != nil && res.LotID != *lotID {
			continue
		}
		out = append(out, *res)
	}
	return out, nil
}

// spaceStore adapts memStore to SpaceStore.
type spaceStore struct{ m *memStore }

func (s spaceStore) GetByID(ctx context.Context, id int64) (*models.ParkingSpace, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sp, ok := s.m.spaces[id]
	if !ok {
		return nil, nil
	}
	copied := *sp
	return &copied, nil
}

func (s spaceStore) ListByLot(ctx context.Context, lotID int64, status string) ([]models.ParkingSpace, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []models.ParkingSpace
	for _, sp := range s.m.spaces {
		if sp.LotID != lotID {
			continue
		}
		if status != "" && string(sp.Status) != status {
			continue
		}
		out = append(out, *sp)
	}
	return out, nil
}

func (s spaceStore) Reserve(ctx context.Context, spaceID, userID int64) (*models.ParkingSpace, error) {
	return s.transition(spaceID, &userID, models.SpaceReserved, models.SpaceAvailable)
}

func (s spaceStore) Occupy(ctx context.Context, spaceID, userID int64) (*models.ParkingSpace, error) {
	return s.transition(spaceID, &userID, models.SpaceOccupied, models.SpaceAvailable, models.SpaceReserved)
}

func (s spaceStore) Vacate(ctx context.Context, spaceID int64) (*models.ParkingSpace, error) {
	return s.transition(spaceID, nil, models.SpaceAvailable, models.SpaceOccupied)
}

func (s spaceStore) SetStatus(ctx context.Context, spaceID int64, status models.SpaceStatus) (*models.ParkingSpace, error) {
	return s.transition(spaceID, nil, status,
		models.SpaceAvailable, models.SpaceOccupied, models.SpaceReserved, models.SpaceMaintenance)
}

func (s spaceStore) transition(spaceID int64, userID *int64, to models.SpaceStatus, from ...models.SpaceStatus) (*models.ParkingSpace, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	sp, ok := s.m.spaces[spaceID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	allowed := false
	for _, f := range from {
		if sp.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("space is %s: %w", sp.Status, apperrors.ErrInvalidState)
	}

	wasAvailable := sp.Status == models.SpaceAvailable
	sp.Status = to
	sp.CurrentUserID = userID
	if wasAvailable && to != models.SpaceAvailable {
		s.m.lots[sp.LotID].AvailableSpaces--
	}
	if !wasAvailable && to == models.SpaceAvailable {
		s.m.lots[sp.LotID].AvailableSpaces++
	}
	copied := *sp
	return &copied, nil
}

// pointsStore adapts memStore to PointsStore.
type pointsStore struct{ m *memStore }

func (s pointsStore) GetOrCreate(ctx context.Context, userID int64) (*models.ParkPoints, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return &models.ParkPoints{ID: userID, UserID: userID, Balance: s.m.balances[userID]}, nil
}

func (s pointsStore) Credit(ctx context.Context, userID int64, amount int, description string) (*models.PointsTransaction, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.creditLocked(userID, amount, description), nil
}

func (m *memStore) creditLocked(userID int64, amount int, description string) *models.PointsTransaction {
	m.balances[userID] += amount
	entry := models.PointsTransaction{
		ID:              m.id(),
		PointsID:        userID,
		Amount:          amount,
		TransactionType: models.TransactionEarn,
		Description:     description,
	}
	m.ledger = append(m.ledger, entry)
	return &entry
}

func (s pointsStore) History(ctx context.Context, userID int64, page, pageSize int) ([]models.PointsTransaction, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var all []models.PointsTransaction
	for i := len(s.m.ledger) - 1; i >= 0; i-- {
		if s.m.ledger[i].PointsID == userID {
			all = append(all, s.m.ledger[i])
		}
	}
	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

// paymentStore adapts memStore to PaymentStore.
type paymentStore struct{ m *memStore }

func (s paymentStore) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.payments[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (s paymentStore) GetByReservation(ctx context.Context, reservationID int64) (*models.Payment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, p := range s.m.payments {
		if p.ReservationID == reservationID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (s paymentStore) Create(ctx context.Context, p *models.Payment) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.payments {
		if existing.ReservationID == p.ReservationID {
			return fmt.Errorf("payment already exists: %w", apperrors.ErrConflict)
		}
	}
	p.ID = s.m.id()
	p.Status = models.PaymentPending
	copied := *p
	s.m.payments[p.ID] = &copied
	return nil
}

func (s paymentStore) MarkFailed(ctx context.Context, id int64, message string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.payments[id]
	if !ok || p.Status != models.PaymentPending {
		return apperrors.ErrInvalidState
	}
	p.Status = models.PaymentFailed
	p.ErrorMessage = &message
	return nil
}

func (s paymentStore) CompleteWithDebit(ctx context.Context, paymentID, userID int64, amount int, description string) (*models.Payment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	p, ok := s.m.payments[paymentID]
	if !ok || p.Status != models.PaymentPending {
		return nil, apperrors.ErrInvalidState
	}
	if s.m.balances[userID] < amount {
		return nil, fmt.Errorf("balance %d < %d: %w", s.m.balances[userID], amount, apperrors.ErrInsufficientBalance)
	}

	s.m.balances[userID] -= amount
	entry := models.PointsTransaction{
		ID:              s.m.id(),
		PointsID:        userID,
		Amount:          amount,
		TransactionType: models.TransactionSpend,
		Description:     description,
	}
	s.m.ledger = append(s.m.ledger, entry)

	p.Status = models.PaymentCompleted
	p.TransactionID = &entry.ID
	copied := *p
	return &copied, nil
}

func (s paymentStore) RefundWithCredit(ctx context.Context, paymentID, userID int64, description string) (*models.Payment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	p, ok := s.m.payments[paymentID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if p.Status != models.PaymentCompleted {
		return nil, fmt.Errorf("payment is %s: %w", p.Status, apperrors.ErrInvalidState)
	}

	s.m.creditLocked(userID, p.PointsAmount, description)
	p.Status = models.PaymentRefunded

	if _, err := (reservationStore{s.m}).finishLocked(p.ReservationID, models.ReservationCancelled, true); err != nil {
		if !apperrors.IsRecoverable(err) {
			return nil, err
		}
	}
	copied := *p
	return &copied, nil
}

// recorder captures fan-out side effects.
type recorder struct {
	mu        sync.Mutex
	notified  []models.Event
	published []string
}

func (r *recorder) Notify(ctx context.Context, userID *int64, event models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified = append(r.notified, event)
}

func (r *recorder) Publish(subject string, data interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, subject)
	return nil
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.notified))
	for i, e := range r.notified {
		out[i] = e.Kind
	}
	return out
}
