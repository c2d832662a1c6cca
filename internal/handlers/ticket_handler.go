package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/berth-allocator/internal/middleware"
	"github.com/smarttransit/berth-allocator/internal/models"
	"github.com/smarttransit/berth-allocator/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// TicketHandler handles booking, cancellation and registry endpoints
type TicketHandler struct {
	ticketService *services.TicketService
	logger        *logrus.Logger
}

// NewTicketHandler creates a new TicketHandler
func NewTicketHandler(ticketService *services.TicketService, logger *logrus.Logger) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		logger:        logger,
	}
}

// RegisterRoutes mounts the ticket endpoints on rg
func (h *TicketHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tickets := rg.Group("/tickets")
	{
		tickets.POST("/book", h.Book)
		tickets.POST("/cancel/:ticketId", h.Cancel)
		tickets.GET("/booked", h.ListBooked)
		tickets.GET("/available", h.GetAvailability)
		tickets.GET("/:ticketId", h.GetTicket)
	}
}

// ============================================================================
// BOOK - POST /api/v1/tickets/book
// ============================================================================

// Book allocates berths for a passenger group
func (h *TicketHandler) Book(c *gin.Context) {
	var req models.BookTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	for i := range req.Passengers {
		req.Passengers[i].Name = strings.TrimSpace(req.Passengers[i].Name)
		if req.Passengers[i].Name == "" {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "passenger name must not be blank",
			})
			return
		}
	}

	response, err := h.ticketService.Book(c.Request.Context(), req.Passengers)
	if err != nil {
		var capErr *services.CapacityExceededError
		if errors.As(err, &capErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "capacity_exceeded",
				"message":   capErr.Error(),
				"requested": capErr.Requested,
				"available": gin.H{
					"total":     capErr.Available(),
					"confirmed": capErr.Confirmed,
					"rac":       capErr.RAC,
					"waiting":   capErr.Waiting,
				},
			})
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ============================================================================
// CANCEL - POST /api/v1/tickets/cancel/:ticketId
// ============================================================================

// Cancel removes a ticket and promotes waiting passengers into the freed berths
func (h *TicketHandler) Cancel(c *gin.Context) {
	ticketID, ok := h.parseTicketID(c)
	if !ok {
		return
	}

	response, err := h.ticketService.Cancel(c.Request.Context(), ticketID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ============================================================================
// REGISTRY - GET /api/v1/tickets/...
// ============================================================================

// ListBooked returns every booked ticket, oldest first
func (h *TicketHandler) ListBooked(c *gin.Context) {
	response, err := h.ticketService.ListBooked(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetAvailability returns free counts per class
func (h *TicketHandler) GetAvailability(c *gin.Context) {
	availability, err := h.ticketService.GetAvailability(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}

// GetTicket returns a single ticket with its passengers
func (h *TicketHandler) GetTicket(c *gin.Context) {
	ticketID, ok := h.parseTicketID(c)
	if !ok {
		return
	}

	ticket, err := h.ticketService.GetTicket(c.Request.Context(), ticketID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) parseTicketID(c *gin.Context) (uuid.UUID, bool) {
	ticketID, err := uuid.Parse(c.Param("ticketId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_ticket_id",
			Message: "ticket id must be a UUID",
		})
		return uuid.Nil, false
	}
	return ticketID, true
}

// respondError maps service errors to HTTP responses
func (h *TicketHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "ticket_not_found",
			Message: "Ticket not found",
		})
	case errors.Is(err, services.ErrNoPassengers), errors.Is(err, services.ErrTooManyPassengers):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "booking_conflict",
			Message: "The booking could not be completed due to concurrent updates, please retry",
		})
	default:
		h.logger.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(c),
			"path":       c.FullPath(),
		}).Error("Ticket request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}
