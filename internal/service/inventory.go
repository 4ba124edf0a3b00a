package service

import (
	"context"
	"fmt"

	"parkhub/internal/apperrors"
	"parkhub/internal/logger"
	"parkhub/internal/models"
)

// InventoryService owns the lot and space inventory: lot CRUD and resize,
// space state transitions, occupancy and search. Every capacity-affecting
// operation runs as one atomic repository call so the available_spaces
// counter can never drift from the space rows.
type InventoryService struct {
	lots     LotStore
	spaces   SpaceStore
	searcher Searcher
	cache    LotCache
}

func NewInventoryService(lots LotStore, spaces SpaceStore, searcher Searcher, cache LotCache) *InventoryService {
	return &InventoryService{
		lots:     lots,
		spaces:   spaces,
		searcher: searcher,
		cache:    cache,
	}
}

// CreateLot creates the lot with its numbered spaces, all available.
func (s *InventoryService) CreateLot(ctx context.Context, req *models.CreateLotRequest) (*models.ParkingLot, error) {
	lot := &models.ParkingLot{
		Name:            req.Name,
		Address:         req.Address,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		TotalSpaces:     req.TotalSpaces,
		AvailableSpaces: req.TotalSpaces,
		Status:          models.LotActive,
		HourlyRate:      req.HourlyRate,
	}
	if err := s.lots.Create(ctx, lot); err != nil {
		return nil, err
	}

	s.afterLotChange(ctx, lot)
	return lot, nil
}

func (s *InventoryService) GetLot(ctx context.Context, id int64) (*models.ParkingLot, error) {
	lot, err := s.lots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, apperrors.ErrNotFound
	}
	return lot, nil
}

// ListLots returns lots filtered by status and a name/address search term.
// Plain listings are served from the cache when one is wired.
func (s *InventoryService) ListLots(ctx context.Context, status, search string) ([]models.ParkingLot, error) {
	cacheKey := status + "|" + search
	if s.cache != nil {
		if lots, err := s.cache.GetLotList(ctx, cacheKey); err == nil && lots != nil {
			return lots, nil
		}
	}

	lots, err := s.lots.List(ctx, status, search)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetLotList(ctx, cacheKey, lots); err != nil {
			logger.WithContext(ctx).Warn("Failed to cache lot list", "error", err.Error())
		}
	}
	return lots, nil
}

// SearchLots answers a free-text query from the search index, resolving the
// hits against the database for fresh counters. Without an index it falls
// back to the SQL search.
func (s *InventoryService) SearchLots(ctx context.Context, query, status string) ([]models.ParkingLot, error) {
	if s.searcher == nil {
		return s.lots.List(ctx, status, query)
	}

	ids, err := s.searcher.SearchLots(ctx, query, status, 20)
	if err != nil {
		logger.WithContext(ctx).Warn("Search index query failed, falling back to SQL",
			"error", err.Error())
		return s.lots.List(ctx, status, query)
	}

	lots := make([]models.ParkingLot, 0, len(ids))
	for _, id := range ids {
		lot, err := s.lots.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if lot != nil {
			lots = append(lots, *lot)
		}
	}
	return lots, nil
}

// UpdateLot applies a partial update to lot metadata.
func (s *InventoryService) UpdateLot(ctx context.Context, id int64, req *models.UpdateLotRequest) (*models.ParkingLot, error) {
	lot, err := s.lots.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.afterLotChange(ctx, lot)
	return lot, nil
}

// ResizeLot grows or shrinks the lot's capacity. Shrinking removes the
// highest-numbered spaces and refuses unless all of them are available.
func (s *InventoryService) ResizeLot(ctx context.Context, id int64, newTotal int) (*models.ParkingLot, error) {
	if newTotal < 0 {
		return nil, fmt.Errorf("total_spaces must be non-negative: %w", apperrors.ErrInvalidState)
	}

	lot, err := s.lots.Resize(ctx, id, newTotal)
	if err != nil {
		return nil, err
	}

	s.afterLotChange(ctx, lot)
	return lot, nil
}

// DeleteLot removes a lot that has no active reservations.
func (s *InventoryService) DeleteLot(ctx context.Context, id int64) error {
	if err := s.lots.Delete(ctx, id); err != nil {
		return err
	}

	if s.searcher != nil {
		if err := s.searcher.DeleteLot(ctx, id); err != nil {
			logger.WithContext(ctx).Warn("Failed to remove lot from search index",
				"lot_id", id,
				"error", err.Error())
		}
	}
	s.invalidateListings(ctx)
	return nil
}

// Occupancy summarizes a lot's capacity usage.
func (s *InventoryService) Occupancy(ctx context.Context, id int64) (*models.OccupancyResponse, error) {
	lot, err := s.GetLot(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.OccupancyResponse{
		OccupancyRate:   lot.OccupancyRate(),
		TotalSpaces:     lot.TotalSpaces,
		AvailableSpaces: lot.AvailableSpaces,
		OccupiedSpaces:  lot.TotalSpaces - lot.AvailableSpaces,
	}, nil
}

// ListSpaces returns a lot's spaces, optionally filtered by status.
func (s *InventoryService) ListSpaces(ctx context.Context, lotID int64, status string) ([]models.ParkingSpace, error) {
	if _, err := s.GetLot(ctx, lotID); err != nil {
		return nil, err
	}
	return s.spaces.ListByLot(ctx, lotID, status)
}

// ReserveSpace holds an available space for the user, taking it out of the
// available pool.
func (s *InventoryService) ReserveSpace(ctx context.Context, spaceID, userID int64) (*models.ParkingSpace, error) {
	space, err := s.spaces.Reserve(ctx, spaceID, userID)
	if err != nil {
		return nil, err
	}
	s.invalidateListings(ctx)
	return space, nil
}

// OccupySpace marks a space as physically taken. Valid from available and
// from reserved; the counter only moves when the space leaves the
// available pool.
func (s *InventoryService) OccupySpace(ctx context.Context, spaceID, userID int64) (*models.ParkingSpace, error) {
	space, err := s.spaces.Occupy(ctx, spaceID, userID)
	if err != nil {
		return nil, err
	}
	s.invalidateListings(ctx)
	return space, nil
}

// VacateSpace returns an occupied space to the available pool.
func (s *InventoryService) VacateSpace(ctx context.Context, spaceID int64) (*models.ParkingSpace, error) {
	space, err := s.spaces.Vacate(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	s.invalidateListings(ctx)
	return space, nil
}

// SetSpaceStatus is the admin override for stuck or maintenance spaces.
func (s *InventoryService) SetSpaceStatus(ctx context.Context, spaceID int64, status models.SpaceStatus) (*models.ParkingSpace, error) {
	switch status {
	case models.SpaceAvailable, models.SpaceOccupied, models.SpaceReserved, models.SpaceMaintenance:
	default:
		return nil, fmt.Errorf("unknown space status %q: %w", status, apperrors.ErrInvalidState)
	}

	space, err := s.spaces.SetStatus(ctx, spaceID, status)
	if err != nil {
		return nil, err
	}
	s.invalidateListings(ctx)
	return space, nil
}

// afterLotChange refreshes the read-side projections of a lot mutation.
func (s *InventoryService) afterLotChange(ctx context.Context, lot *models.ParkingLot) {
	if s.searcher != nil {
		if err := s.searcher.IndexLot(ctx, lot); err != nil {
			logger.WithContext(ctx).Warn("Failed to index lot",
				"lot_id", lot.ID,
				"error", err.Error())
		}
	}
	s.invalidateListings(ctx)
}

func (s *InventoryService) invalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateLotLists(ctx); err != nil {
		logger.WithContext(ctx).Warn("Failed to invalidate lot list cache", "error", err.Error())
	}
}
