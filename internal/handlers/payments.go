package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"parkhub/internal/models"
)

// Payment and points handlers

// CreatePayment - POST /api/payments
func (h *Handlers) CreatePayment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := h.services.Payments.Pay(c.Request.Context(), p, req.ReservationID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// GetPayment - GET /api/payments/:id
func (h *Handlers) GetPayment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	payment, err := h.services.Payments.Get(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// GetReservationPayment - GET /api/reservations/:id/payment
func (h *Handlers) GetReservationPayment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	payment, err := h.services.Payments.GetForReservation(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// RefundPayment - POST /api/payments/:id/refund
func (h *Handlers) RefundPayment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	payment, err := h.services.Payments.Refund(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// PointsBalance - GET /api/points/balance
func (h *Handlers) PointsBalance(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	balance, err := h.services.Points.Balance(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

// PointsHistory - GET /api/points/history
func (h *Handlers) PointsHistory(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	history, err := h.services.Points.History(c.Request.Context(), p, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// TopUpPoints - POST /api/points/topup (admin)
func (h *Handlers) TopUpPoints(c *gin.Context) {
	var req models.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.services.Points.TopUp(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}
