package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/ticketline/internal/domain"
	"github.com/Domenick1991/ticketline/internal/repository"
	"github.com/Domenick1991/ticketline/internal/service/ads"
	"github.com/Domenick1991/ticketline/internal/service/catalog"
	"github.com/Domenick1991/ticketline/internal/service/query"
	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	catalog catalog.CatalogUseCase
	ads     ads.AdsUseCase
	query   query.QueryUseCase
}

func NewTicketHandler(c catalog.CatalogUseCase, a ads.AdsUseCase, q query.QueryUseCase) *TicketHandler {
	return &TicketHandler{catalog: c, ads: a, query: q}
}

// RegisterPublic mounts the read-only routes reachable without a session.
func (h *TicketHandler) RegisterPublic(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
}

func (h *TicketHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.PATCH("/:id", h.patch)
	router.DELETE("/:id", h.delete)
}

type createTicketRequest struct {
	Title         string    `json:"title" binding:"required,min=5"`
	TransportType string    `json:"transport_type" binding:"required,transporttype"`
	Origin        string    `json:"origin" binding:"required"`
	Destination   string    `json:"destination" binding:"required"`
	PriceCents    int64     `json:"price_cents" binding:"required,min=100"`
	Quantity      int       `json:"quantity" binding:"required,min=1,max=1000"`
	DepartureTime time.Time `json:"departure_time" binding:"required,futuredate"`
	Perks         []string  `json:"perks"`
	ImageURL      string    `json:"image_url" binding:"omitempty,url"`
}

type ticketPatch struct {
	Title         *string    `json:"title" binding:"omitempty,min=5"`
	TransportType *string    `json:"transport_type" binding:"omitempty,transporttype"`
	Origin        *string    `json:"origin"`
	Destination   *string    `json:"destination"`
	PriceCents    *int64     `json:"price_cents" binding:"omitempty,min=100"`
	Quantity      *int       `json:"quantity" binding:"omitempty,min=1,max=1000"`
	DepartureTime *time.Time `json:"departure_time" binding:"omitempty,futuredate"`
	Perks         []string   `json:"perks"`
	ImageURL      *string    `json:"image_url" binding:"omitempty,url"`
}

type advertisementRequest struct {
	Action       string `json:"action" binding:"required,oneof=promote demote"`
	DurationDays int    `json:"duration_days"`
	Priority     int    `json:"priority"`
}

// patchTicketRequest carries exactly one of the three mutation kinds the
// PATCH endpoint multiplexes: a vendor field edit, an admin verification
// decision, or an advertisement action.
type patchTicketRequest struct {
	Patch              *ticketPatch          `json:"patch"`
	VerificationStatus *string               `json:"verification_status"`
	Advertisement      *advertisementRequest `json:"advertisement"`
}

func (h *TicketHandler) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	advertised, _ := strconv.ParseBool(c.DefaultQuery("advertised", "false"))

	result, err := h.query.ListTickets(c.Request.Context(), PrincipalFrom(c), query.TicketQuery{
		From:          c.Query("from"),
		To:            c.Query("to"),
		TransportType: domain.TransportType(c.Query("transportType")),
		Status:        domain.VerificationStatus(c.Query("status")),
		VendorEmail:   c.Query("vendorEmail"),
		Advertised:    advertised,
		Sort:          repository.TicketSort(c.Query("sort")),
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TicketHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	ticket, err := h.catalog.GetTicket(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.catalog.CreateTicket(c.Request.Context(), PrincipalFrom(c), catalog.CreateTicketInput{
		Title:         req.Title,
		TransportType: domain.TransportType(req.TransportType),
		Origin:        req.Origin,
		Destination:   req.Destination,
		PriceCents:    req.PriceCents,
		Quantity:      req.Quantity,
		DepartureTime: req.DepartureTime,
		Perks:         req.Perks,
		ImageURL:      req.ImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"inserted_id": ticket.ID, "ticket": ticket})
}

func (h *TicketHandler) patch(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req patchTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := PrincipalFrom(c)
	ctx := c.Request.Context()

	var ticket *domain.Ticket
	switch {
	case req.Patch != nil:
		var tt *domain.TransportType
		if req.Patch.TransportType != nil {
			v := domain.TransportType(*req.Patch.TransportType)
			tt = &v
		}
		ticket, err = h.catalog.UpdateTicket(ctx, p, id, catalog.UpdateTicketInput{
			Title:         req.Patch.Title,
			TransportType: tt,
			Origin:        req.Patch.Origin,
			Destination:   req.Patch.Destination,
			PriceCents:    req.Patch.PriceCents,
			Quantity:      req.Patch.Quantity,
			DepartureTime: req.Patch.DepartureTime,
			Perks:         req.Patch.Perks,
			ImageURL:      req.Patch.ImageURL,
		})
	case req.VerificationStatus != nil:
		ticket, err = h.catalog.SetVerificationStatus(ctx, p, id, domain.VerificationStatus(*req.VerificationStatus))
	case req.Advertisement != nil:
		if req.Advertisement.Action == "demote" {
			if err := h.ads.Demote(ctx, p, id); err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"modified_count": 1})
			return
		}
		ticket, err = h.ads.Promote(ctx, p, id, req.Advertisement.DurationDays, req.Advertisement.Priority)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty patch"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modified_count": 1, "ticket": ticket})
}

func (h *TicketHandler) delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.catalog.DeleteTicket(c.Request.Context(), PrincipalFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted_count": 1})
}
