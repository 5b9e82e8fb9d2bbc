package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reservio/reservio/internal/repository"
	"github.com/reservio/reservio/internal/reservations"
	"github.com/reservio/reservio/pkg/logger"
	"github.com/reservio/reservio/pkg/middleware"
)

type createReservationRequest struct {
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
	PlaceID   string    `json:"placeId" binding:"required"`
	InvoiceID string    `json:"invoiceId"`
}

// ReservationsHandler exposes guard-protected CRUD over reservations. Every
// operation is scoped to the identity the guard attached.
type ReservationsHandler struct {
	svc *reservations.Service
}

func NewReservationsHandler(svc *reservations.Service) *ReservationsHandler {
	return &ReservationsHandler{svc: svc}
}

// Register routes under /api/reservations behind the given guard.
func (h *ReservationsHandler) Register(rg *gin.RouterGroup, guard gin.HandlerFunc) {
	r := rg.Group("/api/reservations", guard)
	r.POST("", h.Create)
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.PATCH("/:id", h.Update)
	r.DELETE("/:id", h.Delete)
}

func (h *ReservationsHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.svc.Create(c.Request.Context(), user.ID, &reservations.Reservation{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		PlaceID:   req.PlaceID,
		InvoiceID: req.InvoiceID,
	})
	if err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *ReservationsHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	list, err := h.svc.List(c.Request.Context(), user.ID)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ReservationsHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	got, err := h.svc.Get(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, got)
}

func (h *ReservationsHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var upd reservations.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	got, err := h.svc.Apply(c.Request.Context(), user.ID, c.Param("id"), upd)
	if err != nil {
		respondReservationError(c, err)
		return
	}
	c.JSON(http.StatusOK, got)
}

func (h *ReservationsHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if _, err := h.svc.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		respondReservationError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func respondReservationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, repository.ErrUnavailable):
		logger.Errorf("reservations: store unavailable: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	default:
		logger.Errorf("reservations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
