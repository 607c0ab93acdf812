package query

import (
	"context"
	"fmt"

	"github.com/Domenick1991/ticketline/internal/cache"
	"github.com/Domenick1991/ticketline/internal/domain"
	"github.com/Domenick1991/ticketline/internal/repository"
	"github.com/rs/zerolog"
)

// QueryUseCase is the read-side façade over the catalog and booking stores.
// It has no side effects and every call is safely retryable.
type QueryUseCase interface {
	ListTickets(ctx context.Context, p domain.Principal, q TicketQuery) (*TicketPage, error)
	ListBookings(ctx context.Context, p domain.Principal, q BookingQuery) (*BookingPage, error)
}

type Cache interface {
	GetCatalogPage(ctx context.Context, key string) (*cache.CachedPage, error)
	SetCatalogPage(ctx context.Context, key string, page *cache.CachedPage) error
}

type TicketQuery struct {
	From          string
	To            string
	TransportType domain.TransportType
	Status        domain.VerificationStatus
	VendorEmail   string
	Advertised    bool
	Sort          repository.TicketSort
	Page          int
	PageSize      int
}

type TicketPage struct {
	Tickets  []domain.Ticket `json:"tickets"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

type BookingQuery struct {
	UserEmail   string
	VendorEmail string
	Status      domain.BookingStatus
	Query       string
	Page        int
	PageSize    int
}

type BookingPage struct {
	Bookings []domain.Booking `json:"bookings"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

type QueryService struct {
	tickets         repository.TicketRepository
	bookings        repository.BookingRepository
	cache           Cache
	defaultPageSize int
	maxPageSize     int
	log             zerolog.Logger
}

func NewQueryService(tickets repository.TicketRepository, bookings repository.BookingRepository, c Cache, defaultPageSize, maxPageSize int, log zerolog.Logger) *QueryService {
	return &QueryService{
		tickets:         tickets,
		bookings:        bookings,
		cache:           c,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		log:             log,
	}
}

// ListTickets serves the catalog view. Tickets of fraud-flagged vendors are
// excluded unless the caller is an admin or the vendor browsing their own
// inventory. Only fraud-excluded (public) results are cached.
func (s *QueryService) ListTickets(ctx context.Context, p domain.Principal, q TicketQuery) (*TicketPage, error) {
	page, pageSize := s.clamp(q.Page, q.PageSize)

	includeFraud := p.IsAdmin() || (q.VendorEmail != "" && q.VendorEmail == p.Email)
	filter := repository.TicketFilter{
		Origin:         q.From,
		Destination:    q.To,
		TransportType:  q.TransportType,
		Status:         q.Status,
		VendorEmail:    q.VendorEmail,
		OnlyAdvertised: q.Advertised,
		IncludeFraud:   includeFraud,
		Sort:           q.Sort,
		Limit:          pageSize,
		Offset:         (page - 1) * pageSize,
	}

	key := ""
	if s.cache != nil && !includeFraud {
		key = fmt.Sprintf("%s|%s|%s|%s|%s|%t|%s|%d|%d",
			q.From, q.To, q.TransportType, q.Status, q.VendorEmail, q.Advertised, q.Sort, page, pageSize)
		if cached, err := s.cache.GetCatalogPage(ctx, key); err == nil && cached != nil {
			return &TicketPage{Tickets: cached.Tickets, Total: cached.Total, Page: page, PageSize: pageSize}, nil
		}
	}

	tickets, total, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := s.cache.SetCatalogPage(ctx, key, &cache.CachedPage{Tickets: tickets, Total: total}); err != nil {
			s.log.Warn().Err(err).Msg("catalog cache write failed")
		}
	}
	return &TicketPage{Tickets: tickets, Total: total, Page: page, PageSize: pageSize}, nil
}

// ListBookings serves booking history. Non-admin callers only ever see their
// own side of the ledger: users their purchases, vendors their sales.
func (s *QueryService) ListBookings(ctx context.Context, p domain.Principal, q BookingQuery) (*BookingPage, error) {
	page, pageSize := s.clamp(q.Page, q.PageSize)

	if !p.IsAdmin() {
		if p.IsVendor() {
			q.VendorEmail = p.Email
			q.UserEmail = ""
		} else {
			q.UserEmail = p.Email
			q.VendorEmail = ""
		}
	}

	bookings, total, err := s.bookings.List(ctx, repository.BookingFilter{
		UserEmail:   q.UserEmail,
		VendorEmail: q.VendorEmail,
		Status:      q.Status,
		Query:       q.Query,
		Limit:       pageSize,
		Offset:      (page - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &BookingPage{Bookings: bookings, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *QueryService) clamp(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}
	return page, pageSize
}

var _ QueryUseCase = (*QueryService)(nil)
