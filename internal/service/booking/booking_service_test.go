package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/ticketline/internal/domain"
	"github.com/Domenick1991/ticketline/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) CreatePending(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ReleaseAndSetStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) List(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, int, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Booking), args.Int(1), args.Error(2)
}

func (m *MockBookingRepository) CountActiveByTicket(ctx context.Context, ticketID int64) (int, error) {
	args := m.Called(ctx, ticketID)
	return args.Int(0), args.Error(1)
}

type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Update(ctx context.Context, t *domain.Ticket) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTicketRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTicketRepository) List(ctx context.Context, f repository.TicketFilter) ([]domain.Ticket, int, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Ticket), args.Int(1), args.Error(2)
}

func (m *MockTicketRepository) SetVerificationStatus(ctx context.Context, id int64, status domain.VerificationStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockTicketRepository) Promote(ctx context.Context, id int64, priority int, expiresAt time.Time, maxActive int) error {
	args := m.Called(ctx, id, priority, expiresAt, maxActive)
	return args.Error(0)
}

func (m *MockTicketRepository) Demote(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTicketRepository) DemoteExpired(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockTicketRepository) CountActiveAds(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func approvedTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:                 7,
		Title:              "Night train to Lisbon",
		TransportType:      domain.TransportTrain,
		Origin:             "Madrid",
		Destination:        "Lisbon",
		PriceCents:         4500,
		TotalQuantity:      10,
		AvailableQuantity:  10,
		DepartureTime:      time.Now().Add(48 * time.Hour),
		VendorEmail:        "vendor@example.com",
		VerificationStatus: domain.VerificationApproved,
	}
}

func userPrincipal() domain.Principal {
	return domain.Principal{Email: "alice@example.com", Name: "Alice", Role: domain.RoleUser}
}

func newTestService(bookings repository.BookingRepository, tickets repository.TicketRepository, producer Producer) *BookingService {
	return NewBookingService(bookings, tickets, producer, "bookings", zerolog.Nop())
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTickets := &MockTicketRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockBookings, mockTickets, mockProducer)

	ctx := context.Background()
	ticket := approvedTicket()

	mockTickets.On("GetByID", ctx, int64(7)).Return(ticket, nil).Once()
	mockBookings.On("CreatePending", ctx, mock.AnythingOfType("*domain.Booking")).
		Run(func(args mock.Arguments) {
			b := args.Get(1).(*domain.Booking)
			b.ID = 1
			b.Status = domain.BookingStatusPending
		}).Return(nil).Once()
	mockProducer.On("Publish", ctx, "bookings", mock.AnythingOfType("string"), mock.Anything).Return(nil).Once()

	b, err := service.CreateBooking(ctx, userPrincipal(), CreateBookingInput{TicketID: 7, Quantity: 3})

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, b.Status)
	assert.Equal(t, 3, b.Quantity)
	assert.Equal(t, int64(3*4500), b.TotalCents)
	assert.Equal(t, "Night train to Lisbon", b.TicketTitle)
	assert.Equal(t, "vendor@example.com", b.VendorEmail)
	assert.Equal(t, "alice@example.com", b.UserEmail)
	assert.NotEmpty(t, b.Reference)

	mockBookings.AssertExpectations(t)
	mockTickets.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_InvalidQuantity(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTickets := &MockTicketRepository{}
	service := newTestService(mockBookings, mockTickets, nil)

	_, err := service.CreateBooking(context.Background(), userPrincipal(), CreateBookingInput{TicketID: 7, Quantity: 0})

	assert.Error(t, err)
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
	mockBookings.AssertNotCalled(t, "CreatePending")
	mockTickets.AssertNotCalled(t, "GetByID")
}

func TestBookingService_CreateBooking_TicketNotFound(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTickets := &MockTicketRepository{}
	service := newTestService(mockBookings, mockTickets, nil)

	ctx := context.Background()
	mockTickets.On("GetByID", ctx, int64(99)).Return(nil, pgx.ErrNoRows).Once()

	_, err := service.CreateBooking(ctx, userPrincipal(), CreateBookingInput{TicketID: 99, Quantity: 1})

	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
	mockBookings.AssertNotCalled(t, "CreatePending")
}

func TestBookingService_CreateBooking_InsufficientStock_RetriesOnce(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTickets := &MockTicketRepository{}
	service := newTestService(mockBookings, mockTickets, nil)

	ctx := context.Background()
	ticket := approvedTicket()
	ticket.AvailableQuantity = 7

	mockTickets.On("GetByID", ctx, int64(7)).Return(ticket, nil)
	mockBookings.On("CreatePending", ctx, mock.AnythingOfType("*domain.Booking")).
		Return(repository.ErrConditionFailed).Twice()

	_, err := service.CreateBooking(ctx, userPrincipal(), CreateBookingInput{TicketID: 7, Quantity: 8})

	assert.Equal(t, domain.CodeInsufficientStock, domain.CodeOf(err))
	mockBookings.AssertNumberOfCalls(t, "CreatePending", 2)
}

func TestBookingService_CreateBooking_RejectedTicket(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTickets := &MockTicketRepository{}
	service := newTestService(mockBookings, mockTickets, nil)

	ctx := context.Background()
	ticket := approvedTicket()
	ticket.VerificationStatus = domain.VerificationRejected

	mockTickets.On("GetByID", ctx, int64(7)).Return(ticket, nil)
	mockBookings.On("CreatePending", ctx, mock.AnythingOfType("*domain.Booking")).
		Return(repository.ErrConditionFailed).Twice()

	_, err := service.CreateBooking(ctx, userPrincipal(), CreateBookingInput{TicketID: 7, Quantity: 1})

	assert.Equal(t, domain.CodeTicketUnavailable, domain.CodeOf(err))
}

func TestBookingService_CreateBooking_DepartedTicket(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTickets := &MockTicketRepository{}
	service := newTestService(mockBookings, mockTickets, nil)

	ctx := context.Background()
	ticket := approvedTicket()
	ticket.DepartureTime = time.Now().Add(-time.Hour)

	mockTickets.On("GetByID", ctx, int64(7)).Return(ticket, nil)
	mockBookings.On("CreatePending", ctx, mock.AnythingOfType("*domain.Booking")).
		Return(repository.ErrConditionFailed).Twice()

	_, err := service.CreateBooking(ctx, userPrincipal(), CreateBookingInput{TicketID: 7, Quantity: 1})

	assert.Equal(t, domain.CodeTicketUnavailable, domain.CodeOf(err))
}

func pendingBooking() *domain.Booking {
	return &domain.Booking{
		ID:          1,
		Reference:   "TL-20260801-120000-ABCD1234",
		TicketID:    7,
		Quantity:    3,
		UserEmail:   "alice@example.com",
		VendorEmail: "vendor@example.com",
		Status:      domain.BookingStatusPending,
	}
}

func TestBookingService_CancelBooking_Pending(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTickets := &MockTicketRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockBookings, mockTickets, mockProducer)

	ctx := context.Background()
	b := pendingBooking()
	cancelled := *b
	cancelled.Status = domain.BookingStatusCancelled

	mockBookings.On("GetByID", ctx, int64(1)).Return(b, nil).Once()
	mockBookings.On("ReleaseAndSetStatus", ctx, int64(1), domain.BookingStatusPending, domain.BookingStatusCancelled).
		Return(&cancelled, nil).Once()
	mockProducer.On("Publish", ctx, "bookings", b.Reference, mock.Anything).Return(nil).Once()

	result, err := service.CancelBooking(ctx, userPrincipal(), 1)

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, result.Status)
	mockBookings.AssertExpectations(t)
}

func TestBookingService_CancelBooking_PaidIsConflict(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTickets := &MockTicketRepository{}
	service := newTestService(mockBookings, mockTickets, nil)

	ctx := context.Background()
	b := pendingBooking()
	b.Status = domain.BookingStatusPaid

	mockBookings.On("GetByID", ctx, int64(1)).Return(b, nil).Once()

	_, err := service.CancelBooking(ctx, userPrincipal(), 1)

	assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
	mockBookings.AssertNotCalled(t, "ReleaseAndSetStatus")
}

func TestBookingService_CancelBooking_AlreadyCancelledIsIdempotent(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTickets := &MockTicketRepository{}
	service := newTestService(mockBookings, mockTickets, nil)

	ctx := context.Background()
	b := pendingBooking()
	b.Status = domain.BookingStatusCancelled

	mockBookings.On("GetByID", ctx, int64(1)).Return(b, nil).Once()

	result, err := service.CancelBooking(ctx, userPrincipal(), 1)

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, result.Status)
	mockBookings.AssertNotCalled(t, "ReleaseAndSetStatus")
}

func TestBookingService_CancelBooking_RejectedIsInvalid(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTickets := &MockTicketRepository{}
	service := newTestService(mockBookings, mockTickets, nil)

	ctx := context.Background()
	b := pendingBooking()
	b.Status = domain.BookingStatusRejected

	mockBookings.On("GetByID", ctx, int64(1)).Return(b, nil).Once()

	_, err := service.CancelBooking(ctx, userPrincipal(), 1)

	assert.Equal(t, domain.CodeInvalidTransition, domain.CodeOf(err))
}

func TestBookingService_CancelBooking_StrangerMayNotView(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTickets := &MockTicketRepository{}
	service := newTestService(mockBookings, mockTickets, nil)

	ctx := context.Background()
	mockBookings.On("GetByID", ctx, int64(1)).Return(pendingBooking(), nil).Once()

	stranger := domain.Principal{Email: "mallory@example.com", Role: domain.RoleUser}
	_, err := service.CancelBooking(ctx, stranger, 1)

	assert.Equal(t, domain.CodeAuthorization, domain.CodeOf(err))
}

func TestBookingService_UpdateStatus_AcceptByVendor(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTickets := &MockTicketRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockBookings, mockTickets, mockProducer)

	ctx := context.Background()
	b := pendingBooking()
	accepted := *b
	accepted.Status = domain.BookingStatusAccepted

	mockBookings.On("GetByID", ctx, int64(1)).Return(b, nil).Once()
	mockTickets.On("GetByID", ctx, int64(7)).Return(approvedTicket(), nil).Once()
	mockBookings.On("UpdateStatus", ctx, int64(1), domain.BookingStatusPending, domain.BookingStatusAccepted).
		Return(&accepted, nil).Once()
	mockProducer.On("Publish", ctx, "bookings", b.Reference, mock.Anything).Return(nil).Once()

	vendor := domain.Principal{Email: "vendor@example.com", Role: domain.RoleVendor}
	result, err := service.UpdateBookingStatus(ctx, vendor, 1, domain.BookingStatusAccepted)

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusAccepted, result.Status)
	mockBookings.AssertExpectations(t)
	mockTickets.AssertExpectations(t)
}

func TestBookingService_UpdateStatus_AcceptRevalidatesTicket(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTickets := &MockTicketRepository{}
	service := newTestService(mockBookings, mockTickets, nil)

	ctx := context.Background()
	b := pendingBooking()
	ticket := approvedTicket()
	ticket.VerificationStatus = domain.VerificationRejected

	mockBookings.On("GetByID", ctx, int64(1)).Return(b, nil).Once()
	mockTickets.On("GetByID", ctx, int64(7)).Return(ticket, nil).Once()

	vendor := domain.Principal{Email: "vendor@example.com", Role: domain.RoleVendor}
	_, err := service.UpdateBookingStatus(ctx, vendor, 1, domain.BookingStatusAccepted)

	assert.Equal(t, domain.CodeTicketUnavailable, domain.CodeOf(err))
	mockBookings.AssertNotCalled(t, "UpdateStatus")
}

func TestBookingService_UpdateStatus_AcceptByUserIsForbidden(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTickets := &MockTicketRepository{}
	service := newTestService(mockBookings, mockTickets, nil)

	ctx := context.Background()
	mockBookings.On("GetByID", ctx, int64(1)).Return(pendingBooking(), nil).Once()

	_, err := service.UpdateBookingStatus(ctx, userPrincipal(), 1, domain.BookingStatusAccepted)

	assert.Equal(t, domain.CodeAuthorization, domain.CodeOf(err))
}

func TestBookingService_UpdateStatus_RejectReleasesStock(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTickets := &MockTicketRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockBookings, mockTickets, mockProducer)

	ctx := context.Background()
	b := pendingBooking()
	rejected := *b
	rejected.Status = domain.BookingStatusRejected

	mockBookings.On("GetByID", ctx, int64(1)).Return(b, nil).Once()
	mockBookings.On("ReleaseAndSetStatus", ctx, int64(1), domain.BookingStatusPending, domain.BookingStatusRejected).
		Return(&rejected, nil).Once()
	mockProducer.On("Publish", ctx, "bookings", b.Reference, mock.Anything).Return(nil).Once()

	admin := domain.Principal{Email: "admin@example.com", Role: domain.RoleAdmin}
	result, err := service.UpdateBookingStatus(ctx, admin, 1, domain.BookingStatusRejected)

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusRejected, result.Status)
	mockBookings.AssertNotCalled(t, "UpdateStatus")
}

func TestBookingService_UpdateStatus_PayByOwner(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTickets := &MockTicketRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockBookings, mockTickets, mockProducer)

	ctx := context.Background()
	b := pendingBooking()
	b.Status = domain.BookingStatusAccepted
	paid := *b
	paid.Status = domain.BookingStatusPaid

	mockBookings.On("GetByID", ctx, int64(1)).Return(b, nil).Once()
	mockBookings.On("UpdateStatus", ctx, int64(1), domain.BookingStatusAccepted, domain.BookingStatusPaid).
		Return(&paid, nil).Once()
	mockProducer.On("Publish", ctx, "bookings", b.Reference, mock.Anything).Return(nil).Once()

	result, err := service.UpdateBookingStatus(ctx, userPrincipal(), 1, domain.BookingStatusPaid)

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPaid, result.Status)
}

func TestBookingService_UpdateStatus_PayByVendorIsForbidden(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockTickets := &MockTicketRepository{}
	service := newTestService(mockBookings, mockTickets, nil)

	ctx := context.Background()
	b := pendingBooking()
	b.Status = domain.BookingStatusAccepted

	mockBookings.On("GetByID", ctx, int64(1)).Return(b, nil).Once()

	vendor := domain.Principal{Email: "vendor@example.com", Role: domain.RoleVendor}
	_, err := service.UpdateBookingStatus(ctx, vendor, 1, domain.BookingStatusPaid)

	assert.Equal(t, domain.CodeAuthorization, domain.CodeOf(err))
}

func TestBookingService_UpdateStatus_InvalidTransitions(t *testing.T) {
	cases := []struct {
		name string
		from domain.BookingStatus
		to   domain.BookingStatus
	}{
		{"pending to paid", domain.BookingStatusPending, domain.BookingStatusPaid},
		{"paid to pending", domain.BookingStatusPaid, domain.BookingStatusPending},
		{"paid to cancelled", domain.BookingStatusPaid, domain.BookingStatusCancelled},
		{"rejected to accepted", domain.BookingStatusRejected, domain.BookingStatusAccepted},
		{"cancelled to accepted", domain.BookingStatusCancelled, domain.BookingStatusAccepted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockBookings := &MockBookingRepository{}
			mockTickets := &MockTicketRepository{}
			service := newTestService(mockBookings, mockTickets, nil)

			ctx := context.Background()
			b := pendingBooking()
			b.Status = tc.from
			mockBookings.On("GetByID", ctx, int64(1)).Return(b, nil).Once()

			admin := domain.Principal{Email: "admin@example.com", Role: domain.RoleAdmin}
			_, err := service.UpdateBookingStatus(ctx, admin, 1, tc.to)

			assert.Equal(t, domain.CodeInvalidTransition, domain.CodeOf(err))
		})
	}
}

// fakeStore is a stateful in-memory stand-in for both repositories. Its
// conditional decrement mirrors the SQL guard, so the stock invariants can
// be exercised end to end, including under concurrency.
type fakeStore struct {
	mu       sync.Mutex
	ticket   domain.Ticket
	bookings map[int64]*domain.Booking
	nextID   int64
}

func newFakeStore(t domain.Ticket) *fakeStore {
	return &fakeStore{ticket: t, bookings: map[int64]*domain.Booking{}}
}

func (f *fakeStore) CreatePending(ctx context.Context, b *domain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ticket.AvailableQuantity < b.Quantity ||
		f.ticket.VerificationStatus != domain.VerificationApproved ||
		!f.ticket.DepartureTime.After(time.Now()) {
		return repository.ErrConditionFailed
	}
	f.ticket.AvailableQuantity -= b.Quantity
	f.nextID++
	b.ID = f.nextID
	b.Status = domain.BookingStatusPending
	copied := *b
	f.bookings[b.ID] = &copied
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *b
	return &copied, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.Status != from {
		return nil, repository.ErrConditionFailed
	}
	b.Status = to
	copied := *b
	return &copied, nil
}

func (f *fakeStore) ReleaseAndSetStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.Status != from {
		return nil, repository.ErrConditionFailed
	}
	b.Status = to
	f.ticket.AvailableQuantity += b.Quantity
	if f.ticket.AvailableQuantity > f.ticket.TotalQuantity {
		f.ticket.AvailableQuantity = f.ticket.TotalQuantity
	}
	copied := *b
	return &copied, nil
}

func (f *fakeStore) List(ctx context.Context, _ repository.BookingFilter) ([]domain.Booking, int, error) {
	return nil, 0, nil
}

func (f *fakeStore) CountActiveByTicket(ctx context.Context, ticketID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.bookings {
		if !b.Status.Releasing() {
			n++
		}
	}
	return n, nil
}

// ticketSide adapts fakeStore to the ticket repository interface.
type ticketSide struct{ store *fakeStore }

func (t ticketSide) Create(ctx context.Context, _ *domain.Ticket) error { return nil }
func (t ticketSide) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if id != t.store.ticket.ID {
		return nil, pgx.ErrNoRows
	}
	copied := t.store.ticket
	return &copied, nil
}
func (t ticketSide) Update(ctx context.Context, _ *domain.Ticket) error { return nil }
func (t ticketSide) Delete(ctx context.Context, _ int64) error          { return nil }
func (t ticketSide) List(ctx context.Context, _ repository.TicketFilter) ([]domain.Ticket, int, error) {
	return nil, 0, nil
}
func (t ticketSide) SetVerificationStatus(ctx context.Context, _ int64, _ domain.VerificationStatus) error {
	return nil
}
func (t ticketSide) Promote(ctx context.Context, _ int64, _ int, _ time.Time, _ int) error {
	return nil
}
func (t ticketSide) Demote(ctx context.Context, _ int64) error        { return nil }
func (t ticketSide) DemoteExpired(ctx context.Context) ([]int64, error) { return nil, nil }
func (t ticketSide) CountActiveAds(ctx context.Context) (int, error)    { return 0, nil }

func TestBookingService_StockScenario(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(*approvedTicket())
	service := newTestService(store, ticketSide{store}, nil)

	first, err := service.CreateBooking(ctx, userPrincipal(), CreateBookingInput{TicketID: 7, Quantity: 3})
	assert.NoError(t, err)
	assert.Equal(t, 7, store.ticket.AvailableQuantity)

	_, err = service.CreateBooking(ctx, userPrincipal(), CreateBookingInput{TicketID: 7, Quantity: 8})
	assert.Equal(t, domain.CodeInsufficientStock, domain.CodeOf(err))
	assert.Equal(t, 7, store.ticket.AvailableQuantity)

	_, err = service.CancelBooking(ctx, userPrincipal(), first.ID)
	assert.NoError(t, err)
	assert.Equal(t, 10, store.ticket.AvailableQuantity)
}

func TestBookingService_ConcurrentBookings_NoOversell(t *testing.T) {
	ctx := context.Background()
	ticket := approvedTicket()
	ticket.AvailableQuantity = 5
	store := newFakeStore(*ticket)
	service := newTestService(store, ticketSide{store}, nil)

	const workers = 20
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.CreateBooking(ctx, userPrincipal(), CreateBookingInput{TicketID: 7, Quantity: 1})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, domain.CodeInsufficientStock, domain.CodeOf(err))
		}
	}
	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, store.ticket.AvailableQuantity)
}
