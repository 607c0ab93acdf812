package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/ticketline/internal/domain"
	"github.com/Domenick1991/ticketline/internal/service/booking"
	"github.com/Domenick1991/ticketline/internal/service/query"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
	query   query.QueryUseCase
}

func NewBookingHandler(service booking.BookingUseCase, q query.QueryUseCase) *BookingHandler {
	return &BookingHandler{service: service, query: q}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.POST("", h.create)
	router.PATCH("/:id", h.updateStatus)
	router.DELETE("/:id", h.cancel)
}

type createBookingRequest struct {
	TicketID int64 `json:"ticket_id" binding:"required"`
	Quantity int   `json:"quantity" binding:"required,min=1"`
}

type updateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *BookingHandler) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))

	result, err := h.query.ListBookings(c.Request.Context(), PrincipalFrom(c), query.BookingQuery{
		UserEmail:   c.Query("userEmail"),
		VendorEmail: c.Query("vendorEmail"),
		Status:      domain.BookingStatus(c.Query("status")),
		Query:       c.Query("q"),
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), PrincipalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), PrincipalFrom(c), booking.CreateBookingInput{
		TicketID: req.TicketID,
		Quantity: req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"inserted_id": b.ID, "booking": b})
}

func (h *BookingHandler) updateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req updateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.service.UpdateBookingStatus(c.Request.Context(), PrincipalFrom(c), id, domain.BookingStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modified_count": 1, "booking": b})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	b, err := h.service.CancelBooking(c.Request.Context(), PrincipalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modified_count": 1, "booking": b})
}
