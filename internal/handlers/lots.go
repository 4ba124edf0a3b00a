package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"parkhub/internal/models"
)

// Parking lot handlers

// CreateLot - POST /api/lots (admin)
func (h *Handlers) CreateLot(c *gin.Context) {
	var req models.CreateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.services.Inventory.CreateLot(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lot)
}

// ListLots - GET /api/lots
func (h *Handlers) ListLots(c *gin.Context) {
	status := c.Query("status")
	search := c.Query("search")

	lots, err := h.services.Inventory.ListLots(c.Request.Context(), status, search)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lots": lots, "count": len(lots)})
}

// SearchLots - GET /api/lots/search
func (h *Handlers) SearchLots(c *gin.Context) {
	query := c.Query("q")
	status := c.Query("status")

	lots, err := h.services.Inventory.SearchLots(c.Request.Context(), query, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lots": lots, "count": len(lots)})
}

// GetLot - GET /api/lots/:id
func (h *Handlers) GetLot(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	lot, err := h.services.Inventory.GetLot(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, lot)
}

// UpdateLot - PATCH /api/lots/:id (admin)
func (h *Handlers) UpdateLot(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	var req models.UpdateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.services.Inventory.UpdateLot(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, lot)
}

// ResizeLot - POST /api/lots/:id/resize (admin)
func (h *Handlers) ResizeLot(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	var req models.ResizeLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot, err := h.services.Inventory.ResizeLot(c.Request.Context(), id, req.TotalSpaces)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, lot)
}

// DeleteLot - DELETE /api/lots/:id (admin)
func (h *Handlers) DeleteLot(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	if err := h.services.Inventory.DeleteLot(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// LotOccupancy - GET /api/lots/:id/occupancy
func (h *Handlers) LotOccupancy(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	occupancy, err := h.services.Inventory.Occupancy(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, occupancy)
}

// ListSpaces - GET /api/lots/:id/spaces
func (h *Handlers) ListSpaces(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	spaces, err := h.services.Inventory.ListSpaces(c.Request.Context(), id, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"spaces": spaces, "count": len(spaces)})
}

// ReserveSpace - POST /api/spaces/:id/reserve
func (h *Handlers) ReserveSpace(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	space, err := h.services.Inventory.ReserveSpace(c.Request.Context(), id, p.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, space)
}

// OccupySpace - POST /api/spaces/:id/occupy
func (h *Handlers) OccupySpace(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	space, err := h.services.Inventory.OccupySpace(c.Request.Context(), id, p.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, space)
}

// VacateSpace - POST /api/spaces/:id/vacate
func (h *Handlers) VacateSpace(c *gin.Context) {
	if _, ok := principal(c); !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	space, err := h.services.Inventory.VacateSpace(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, space)
}

// SetSpaceStatus - PATCH /api/spaces/:id/status (admin)
func (h *Handlers) SetSpaceStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	var req struct {
		Status models.SpaceStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	space, err := h.services.Inventory.SetSpaceStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, space)
}

// pathID parses a numeric path parameter, answering 400 on garbage.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, err
	}
	return id, nil
}
