package sample

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/api"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/audit"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/booking"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/user"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) EnsureForBooking(ctx context.Context, bookingID string) error {
	return m.Called(ctx, bookingID).Error(0)
}

func (m *mockStore) ListByBooking(ctx context.Context, bookingID string) ([]Tracking, error) {
	args := m.Called(ctx, bookingID)
	ts, _ := args.Get(0).([]Tracking)
	return ts, args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, id string) (*Tracking, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*Tracking)
	return t, args.Error(1)
}

func (m *mockStore) Advance(ctx context.Context, id string, to Status, updatedBy, notes string) (*Tracking, error) {
	args := m.Called(ctx, id, to, updatedBy, notes)
	t, _ := args.Get(0).(*Tracking)
	return t, args.Error(1)
}

type mockBookings struct {
	mock.Mock
}

func (m *mockBookings) Get(ctx context.Context, id string) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*booking.Booking)
	return b, args.Error(1)
}

type noopAudit struct{ entries []audit.Entry }

func (a *noopAudit) Record(_ context.Context, e audit.Entry) { a.entries = append(a.entries, e) }

type noopNotify struct{ events []string }

func (n *noopNotify) BookingEvent(_ context.Context, _, _, event, _ string, _ any) {
	n.events = append(n.events, event)
}

func staffUser() *user.User {
	return &user.User{ID: "staff1", Role: user.RoleStaff}
}

func customer(id string) *user.User {
	return &user.User{ID: id, Role: user.RoleCustomer}
}

func TestAdvance_CustomerForbidden(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store, &mockBookings{}, &noopAudit{}, &noopNotify{})

	_, err := svc.Advance(context.Background(), customer("u1"), "s1", StatusReceived, "")
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindForbidden))
	store.AssertNotCalled(t, "Advance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdvance_StepErrorMapped(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store, &mockBookings{}, &noopAudit{}, &noopNotify{})

	store.On("Advance", mock.Anything, "s1", StatusReturned, "staff1", "").
		Return(nil, &StepError{Current: StatusPending, Target: StatusReturned})

	_, err := svc.Advance(context.Background(), staffUser(), "s1", StatusReturned, "")
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindInvalidState))
}

func TestAdvance_NotifiesOwner(t *testing.T) {
	store := &mockStore{}
	bookings := &mockBookings{}
	auditLog := &noopAudit{}
	notifier := &noopNotify{}
	svc := NewService(store, bookings, auditLog, notifier)

	store.On("Advance", mock.Anything, "s1", StatusReceived, "staff1", "arrived intact").
		Return(&Tracking{ID: "s1", BookingID: "b1", Status: StatusReceived}, nil)
	bookings.On("Get", mock.Anything, "b1").
		Return(&booking.Booking{ID: "b1", UserID: "u1", ReferenceNumber: "LAB-202609-AABBCC"}, nil)

	got, err := svc.Advance(context.Background(), staffUser(), "s1", StatusReceived, "arrived intact")
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, got.Status)
	assert.Contains(t, notifier.events, "sample_status_changed")
	require.Len(t, auditLog.entries, 1)
	assert.Equal(t, "SAMPLE_ADVANCED", auditLog.entries[0].Action)
}

func TestListForBooking_OwnerAllowedAndMaterialized(t *testing.T) {
	store := &mockStore{}
	bookings := &mockBookings{}
	svc := NewService(store, bookings, &noopAudit{}, &noopNotify{})

	bookings.On("Get", mock.Anything, "b1").
		Return(&booking.Booking{ID: "b1", UserID: "u1", Status: booking.StatusInProgress}, nil)
	store.On("EnsureForBooking", mock.Anything, "b1").Return(nil)
	store.On("ListByBooking", mock.Anything, "b1").
		Return([]Tracking{{ID: "s1", Status: StatusPending}}, nil)

	out, err := svc.ListForBooking(context.Background(), customer("u1"), "b1")
	require.NoError(t, err)
	require.Len(t, out, 1)
	store.AssertExpectations(t)
}

func TestListForBooking_StrangerForbidden(t *testing.T) {
	store := &mockStore{}
	bookings := &mockBookings{}
	svc := NewService(store, bookings, &noopAudit{}, &noopNotify{})

	bookings.On("Get", mock.Anything, "b1").
		Return(&booking.Booking{ID: "b1", UserID: "u1", Status: booking.StatusInProgress}, nil)

	_, err := svc.ListForBooking(context.Background(), customer("u2"), "b1")
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindForbidden))
}
