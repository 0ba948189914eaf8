package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sw3-barbershop/service-reservation/internal/application"
	"github.com/sw3-barbershop/service-reservation/internal/domain/reservation"
	"github.com/sw3-barbershop/service-reservation/pkg/response"
)

// ReservationHandler handles HTTP requests for reservation operations.
type ReservationHandler struct {
	service *application.ReservationService
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(service *application.ReservationService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

// RegisterRoutes registers all reservation routes on the given router group.
// Identity is asserted upstream by the gateway, which forwards the caller's
// client id in the X-Client-ID header.
func (h *ReservationHandler) RegisterRoutes(r *gin.RouterGroup) {
	reservations := r.Group("/api/v1/reservations")
	{
		reservations.POST("", h.CreateReservation)
		reservations.GET("", h.ListReservations)
		reservations.GET("/:id", h.GetReservation)
		reservations.PUT("/:id/cancel", h.CancelReservation)
		reservations.PUT("/:id/start", h.StartReservation)
		reservations.PUT("/:id/finish", h.FinishReservation)
		reservations.PUT("/:id/status", h.ChangeStatus)
		reservations.PUT("/:id/reschedule", h.RescheduleReservation)
		reservations.DELETE("/:id", h.DeleteReservation)

		reservations.GET("/client/:clientId/active", h.ClientActive)
		reservations.GET("/client/:clientId/history", h.ClientHistory)
		reservations.GET("/barber/:barberId/day", h.BarberDay)
		reservations.GET("/barber/:barberId/can-deactivate", h.CanDeactivateBarber)
		reservations.GET("/service/:serviceId/can-deactivate", h.CanDeactivateService)
	}
}

// CreateReservation handles POST /api/v1/reservations.
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req application.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListReservations handles GET /api/v1/reservations.
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	page, limit := parsePagination(c)

	items, total, err := h.service.ListAll(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, items, total, page, limit)
}

// GetReservation handles GET /api/v1/reservations/:id.
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	id, ok := parseReservationID(c)
	if !ok {
		return
	}

	result, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelReservation handles PUT /api/v1/reservations/:id/cancel.
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	id, ok := parseReservationID(c)
	if !ok {
		return
	}
	clientID, ok := requireClientID(c)
	if !ok {
		return
	}

	result, err := h.service.Cancel(c.Request.Context(), id, clientID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// StartReservation handles PUT /api/v1/reservations/:id/start.
func (h *ReservationHandler) StartReservation(c *gin.Context) {
	id, ok := parseReservationID(c)
	if !ok {
		return
	}

	result, err := h.service.Start(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// FinishReservation handles PUT /api/v1/reservations/:id/finish.
func (h *ReservationHandler) FinishReservation(c *gin.Context) {
	id, ok := parseReservationID(c)
	if !ok {
		return
	}

	result, err := h.service.Finish(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ChangeStatus handles PUT /api/v1/reservations/:id/status.
func (h *ReservationHandler) ChangeStatus(c *gin.Context) {
	id, ok := parseReservationID(c)
	if !ok {
		return
	}

	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	target, err := reservation.ParseStatus(req.Status)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ChangeStatus(c.Request.Context(), id, target)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RescheduleReservation handles PUT /api/v1/reservations/:id/reschedule.
func (h *ReservationHandler) RescheduleReservation(c *gin.Context) {
	id, ok := parseReservationID(c)
	if !ok {
		return
	}
	clientID, ok := requireClientID(c)
	if !ok {
		return
	}

	var req application.RescheduleReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Reschedule(c.Request.Context(), id, clientID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteReservation handles DELETE /api/v1/reservations/:id.
func (h *ReservationHandler) DeleteReservation(c *gin.Context) {
	id, ok := parseReservationID(c)
	if !ok {
		return
	}
	clientID, ok := requireClientID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, clientID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// ClientActive handles GET /api/v1/reservations/client/:clientId/active.
func (h *ReservationHandler) ClientActive(c *gin.Context) {
	items, err := h.service.GetClientActive(c.Request.Context(), c.Param("clientId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, items)
}

// ClientHistory handles GET /api/v1/reservations/client/:clientId/history.
func (h *ReservationHandler) ClientHistory(c *gin.Context) {
	items, err := h.service.GetClientHistory(c.Request.Context(), c.Param("clientId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, items)
}

// BarberDay handles GET /api/v1/reservations/barber/:barberId/day?date=YYYY-MM-DD.
func (h *ReservationHandler) BarberDay(c *gin.Context) {
	day, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.BadRequest(c, "invalid or missing date, expected YYYY-MM-DD")
		return
	}

	items, err := h.service.GetBarberDay(c.Request.Context(), c.Param("barberId"), day)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, items)
}

// CanDeactivateBarber handles GET /api/v1/reservations/barber/:barberId/can-deactivate.
func (h *ReservationHandler) CanDeactivateBarber(c *gin.Context) {
	allowed, err := h.service.CanDeactivateBarber(c.Request.Context(), c.Param("barberId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"can_deactivate": allowed})
}

// CanDeactivateService handles GET /api/v1/reservations/service/:serviceId/can-deactivate.
func (h *ReservationHandler) CanDeactivateService(c *gin.Context) {
	allowed, err := h.service.CanDeactivateService(c.Request.Context(), c.Param("serviceId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"can_deactivate": allowed})
}

func parseReservationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid reservation ID")
		return uuid.Nil, false
	}
	return id, true
}

func requireClientID(c *gin.Context) (string, bool) {
	clientID := c.GetHeader("X-Client-ID")
	if clientID == "" {
		response.BadRequest(c, "missing X-Client-ID header")
		return "", false
	}
	return clientID, true
}

func parsePagination(c *gin.Context) (page, limit int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
