package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/ticketline/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrConditionFailed reports that a guarded conditional update matched no
// rows. The service layer diagnoses the cause and maps it to a domain error.
var ErrConditionFailed = errors.New("conditional update matched no rows")

// TicketSort selects the catalog ordering. Price sorts are stable with ties
// broken by creation time descending.
type TicketSort string

const (
	SortNewest    TicketSort = "newest"
	SortPriceAsc  TicketSort = "price_asc"
	SortPriceDesc TicketSort = "price_desc"
)

type TicketFilter struct {
	Origin         string
	Destination    string
	TransportType  domain.TransportType
	Status         domain.VerificationStatus
	VendorEmail    string
	OnlyAdvertised bool
	// IncludeFraud keeps tickets of fraud-flagged vendors in the result.
	// Public catalog reads leave it false.
	IncludeFraud bool
	Sort         TicketSort
	Limit        int
	Offset       int
}

type TicketRepository interface {
	Create(ctx context.Context, t *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	Update(ctx context.Context, t *domain.Ticket) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f TicketFilter) ([]domain.Ticket, int, error)
	SetVerificationStatus(ctx context.Context, id int64, status domain.VerificationStatus) error
	Promote(ctx context.Context, id int64, priority int, expiresAt time.Time, maxActive int) error
	Demote(ctx context.Context, id int64) error
	DemoteExpired(ctx context.Context) ([]int64, error)
	CountActiveAds(ctx context.Context) (int, error)
}

type PGTicketRepository struct {
	db *pgxpool.Pool
}

func NewTicketRepository(db *pgxpool.Pool) TicketRepository {
	return &PGTicketRepository{db: db}
}

const ticketColumns = `id, title, transport_type, origin, destination, price_cents, total_quantity, available_quantity, departure_time, perks, image_url, vendor_email, verification_status, ad_active, ad_priority, ad_advertised_at, ad_expires_at, created_at, updated_at`

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	var adAt, adExp *time.Time
	if err := row.Scan(&t.ID, &t.Title, &t.TransportType, &t.Origin, &t.Destination,
		&t.PriceCents, &t.TotalQuantity, &t.AvailableQuantity, &t.DepartureTime,
		&t.Perks, &t.ImageURL, &t.VendorEmail, &t.VerificationStatus,
		&t.Advertisement.Active, &t.Advertisement.Priority, &adAt, &adExp,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if adAt != nil {
		t.Advertisement.AdvertisedAt = *adAt
	}
	if adExp != nil {
		t.Advertisement.ExpiresAt = *adExp
	}
	return &t, nil
}

func (r *PGTicketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	return r.db.QueryRow(ctx, `INSERT INTO tickets (title, transport_type, origin, destination, price_cents, total_quantity, available_quantity, departure_time, perks, image_url, vendor_email, verification_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		t.Title, t.TransportType, t.Origin, t.Destination, t.PriceCents,
		t.TotalQuantity, t.AvailableQuantity, t.DepartureTime, t.Perks,
		t.ImageURL, t.VendorEmail, t.VerificationStatus).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *PGTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
	return scanTicket(row)
}

func (r *PGTicketRepository) Update(ctx context.Context, t *domain.Ticket) error {
	res, err := r.db.Exec(ctx, `UPDATE tickets SET title=$2, transport_type=$3, origin=$4, destination=$5, price_cents=$6, total_quantity=$7, available_quantity=$8, departure_time=$9, perks=$10, image_url=$11, verification_status=$12, updated_at=now() WHERE id=$1`,
		t.ID, t.Title, t.TransportType, t.Origin, t.Destination, t.PriceCents,
		t.TotalQuantity, t.AvailableQuantity, t.DepartureTime, t.Perks,
		t.ImageURL, t.VerificationStatus)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PGTicketRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PGTicketRepository) List(ctx context.Context, f TicketFilter) ([]domain.Ticket, int, error) {
	where := make([]string, 0, 6)
	args := make([]any, 0, 6)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Origin != "" {
		where = append(where, "origin ILIKE "+arg("%"+f.Origin+"%"))
	}
	if f.Destination != "" {
		where = append(where, "destination ILIKE "+arg("%"+f.Destination+"%"))
	}
	if f.TransportType != "" {
		where = append(where, "transport_type = "+arg(f.TransportType))
	}
	if f.Status != "" {
		where = append(where, "verification_status = "+arg(f.Status))
	}
	if f.VendorEmail != "" {
		where = append(where, "vendor_email = "+arg(f.VendorEmail))
	}
	if f.OnlyAdvertised {
		where = append(where, "ad_active AND ad_expires_at > now()")
	}
	if !f.IncludeFraud {
		where = append(where, "vendor_email NOT IN (SELECT email FROM users WHERE role = 'fraud')")
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM tickets`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := " ORDER BY created_at DESC"
	switch f.Sort {
	case SortPriceAsc:
		order = " ORDER BY price_cents ASC, created_at DESC"
	case SortPriceDesc:
		order = " ORDER BY price_cents DESC, created_at DESC"
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets` + clause + order
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit) + " OFFSET " + arg(f.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, total, rows.Err()
}

func (r *PGTicketRepository) SetVerificationStatus(ctx context.Context, id int64, status domain.VerificationStatus) error {
	res, err := r.db.Exec(ctx, `UPDATE tickets SET verification_status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Promote admits a ticket into the advertised pool. The capacity check and
// the flag set are a single statement so concurrent promotions cannot exceed
// maxActive. Expired ads do not count against capacity.
func (r *PGTicketRepository) Promote(ctx context.Context, id int64, priority int, expiresAt time.Time, maxActive int) error {
	res, err := r.db.Exec(ctx, `UPDATE tickets SET ad_active=TRUE, ad_priority=$2, ad_advertised_at=now(), ad_expires_at=$3, updated_at=now()
		WHERE id=$1 AND verification_status='APPROVED' AND NOT (ad_active AND ad_expires_at > now())
		AND (SELECT count(*) FROM tickets WHERE ad_active AND ad_expires_at > now()) < $4`,
		id, priority, expiresAt, maxActive)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrConditionFailed
	}
	return nil
}

func (r *PGTicketRepository) Demote(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE tickets SET ad_active=FALSE, ad_priority=0, ad_advertised_at=NULL, ad_expires_at=NULL, updated_at=now() WHERE id=$1`, id)
	return err
}

func (r *PGTicketRepository) DemoteExpired(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `UPDATE tickets SET ad_active=FALSE, ad_priority=0, ad_advertised_at=NULL, ad_expires_at=NULL, updated_at=now()
		WHERE ad_active AND ad_expires_at <= now() RETURNING id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PGTicketRepository) CountActiveAds(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM tickets WHERE ad_active AND ad_expires_at > now()`).Scan(&n)
	return n, err
}

var _ TicketRepository = (*PGTicketRepository)(nil)
