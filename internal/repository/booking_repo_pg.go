package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/ticketline/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingFilter struct {
	UserEmail   string
	VendorEmail string
	Status      domain.BookingStatus
	// Query matches reference, route and ticket title, case-insensitive.
	Query  string
	Limit  int
	Offset int
}

type BookingRepository interface {
	// CreatePending atomically decrements the ticket's available quantity
	// and inserts the booking in one transaction. Returns ErrConditionFailed
	// when the ticket has insufficient stock, is not approved, or has
	// already departed.
	CreatePending(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error)
	// ReleaseAndSetStatus transitions the booking and restores its quantity
	// to the ticket in one transaction. Used for cancel and reject.
	ReleaseAndSetStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error)
	List(ctx context.Context, f BookingFilter) ([]domain.Booking, int, error)
	CountActiveByTicket(ctx context.Context, ticketID int64) (int, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, reference, ticket_id, ticket_title, transport_type, origin, destination, departure_time, unit_price_cents, quantity, total_cents, user_email, user_name, vendor_email, status, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.Reference, &b.TicketID, &b.TicketTitle,
		&b.TransportType, &b.Origin, &b.Destination, &b.DepartureTime,
		&b.UnitPriceCents, &b.Quantity, &b.TotalCents, &b.UserEmail,
		&b.UserName, &b.VendorEmail, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) CreatePending(ctx context.Context, b *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `UPDATE tickets SET available_quantity = available_quantity - $2, updated_at = now()
		WHERE id=$1 AND available_quantity >= $2 AND verification_status='APPROVED' AND departure_time > now()`,
		b.TicketID, b.Quantity)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrConditionFailed
	}

	b.Status = domain.BookingStatusPending
	if err := tx.QueryRow(ctx, `INSERT INTO bookings (reference, ticket_id, ticket_title, transport_type, origin, destination, departure_time, unit_price_cents, quantity, total_cents, user_email, user_name, vendor_email, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`,
		b.Reference, b.TicketID, b.TicketTitle, b.TransportType, b.Origin,
		b.Destination, b.DepartureTime, b.UnitPriceCents, b.Quantity,
		b.TotalCents, b.UserEmail, b.UserName, b.VendorEmail, b.Status).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	return scanBooking(row)
}

// UpdateStatus is guarded on the expected current status so a concurrent
// transition cannot be overwritten.
func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$3, updated_at=now() WHERE id=$1 AND status=$2 RETURNING `+bookingColumns,
		id, from, to)
	b, err := scanBooking(row)
	if err == pgx.ErrNoRows {
		return nil, ErrConditionFailed
	}
	return b, err
}

func (r *PGBookingRepository) ReleaseAndSetStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `UPDATE bookings SET status=$3, updated_at=now() WHERE id=$1 AND status=$2 RETURNING `+bookingColumns,
		id, from, to)
	b, err := scanBooking(row)
	if err == pgx.ErrNoRows {
		return nil, ErrConditionFailed
	}
	if err != nil {
		return nil, err
	}

	// LEAST guards the quantity_bounds constraint when the vendor shrank
	// total_quantity after this booking was taken.
	if _, err := tx.Exec(ctx, `UPDATE tickets SET available_quantity = LEAST(total_quantity, available_quantity + $2), updated_at = now() WHERE id=$1`,
		b.TicketID, b.Quantity); err != nil {
		return nil, err
	}

	return b, tx.Commit(ctx)
}

func (r *PGBookingRepository) List(ctx context.Context, f BookingFilter) ([]domain.Booking, int, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 4)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.UserEmail != "" {
		where = append(where, "user_email = "+arg(f.UserEmail))
	}
	if f.VendorEmail != "" {
		where = append(where, "vendor_email = "+arg(f.VendorEmail))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(f.Status))
	}
	if f.Query != "" {
		p := arg("%" + f.Query + "%")
		where = append(where, fmt.Sprintf("(reference ILIKE %[1]s OR origin ILIKE %[1]s OR destination ILIKE %[1]s OR ticket_title ILIKE %[1]s)", p))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM bookings`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings` + clause + ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit) + " OFFSET " + arg(f.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, total, rows.Err()
}

func (r *PGBookingRepository) CountActiveByTicket(ctx context.Context, ticketID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE ticket_id=$1 AND status NOT IN ('CANCELLED', 'REJECTED')`, ticketID).Scan(&n)
	return n, err
}

var _ BookingRepository = (*PGBookingRepository)(nil)
