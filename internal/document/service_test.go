package document

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/api"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/audit"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/booking"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/gatekeeper"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/user"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Insert(ctx context.Context, d *Document) (*Document, error) {
	args := m.Called(ctx, d)
	doc, _ := args.Get(0).(*Document)
	return doc, args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, id string) (*Document, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(*Document)
	return doc, args.Error(1)
}

func (m *mockStore) ListByBooking(ctx context.Context, bookingID string) ([]Document, error) {
	args := m.Called(ctx, bookingID)
	docs, _ := args.Get(0).([]Document)
	return docs, args.Error(1)
}

func (m *mockStore) SetVerification(ctx context.Context, id string, to VerificationStatus, reviewedBy, reason string, at time.Time) (*Document, error) {
	args := m.Called(ctx, id, to, reviewedBy, reason, at)
	doc, _ := args.Get(0).(*Document)
	return doc, args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) CreateForm(ctx context.Context, bookingID, storageKey string) (*ServiceForm, error) {
	args := m.Called(ctx, bookingID, storageKey)
	f, _ := args.Get(0).(*ServiceForm)
	return f, args.Error(1)
}

func (m *mockStore) GetForm(ctx context.Context, bookingID string) (*ServiceForm, error) {
	args := m.Called(ctx, bookingID)
	f, _ := args.Get(0).(*ServiceForm)
	return f, args.Error(1)
}

func (m *mockStore) MarkFormSigned(ctx context.Context, bookingID string, at time.Time) (*ServiceForm, error) {
	args := m.Called(ctx, bookingID, at)
	f, _ := args.Get(0).(*ServiceForm)
	return f, args.Error(1)
}

type memStorage struct {
	blobs map[string][]byte
}

func newMemStorage() *memStorage { return &memStorage{blobs: make(map[string][]byte)} }

func (s *memStorage) Save(_ context.Context, key string, r io.Reader) (int64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.blobs[key] = b
	return int64(len(b)), nil
}

func (s *memStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	b, ok := s.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	delete(s.blobs, key)
	return nil
}

type mockBookings struct {
	mock.Mock
}

func (m *mockBookings) Get(ctx context.Context, id string) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*booking.Booking)
	return b, args.Error(1)
}

func (m *mockBookings) Items(ctx context.Context, bookingID string) ([]booking.ServiceItem, error) {
	args := m.Called(ctx, bookingID)
	items, _ := args.Get(0).([]booking.ServiceItem)
	return items, args.Error(1)
}

type stubGate struct {
	decision gatekeeper.Decision
}

func (g *stubGate) Check(_ context.Context, _ string) (gatekeeper.Decision, error) {
	return g.decision, nil
}

type noopAudit struct{ entries []audit.Entry }

func (a *noopAudit) Record(_ context.Context, e audit.Entry) { a.entries = append(a.entries, e) }

type noopNotify struct{ events []string }

func (n *noopNotify) BookingEvent(_ context.Context, _, _, event, _ string, _ any) {
	n.events = append(n.events, event)
}

func admin() *user.User    { return &user.User{ID: "admin1", Role: user.RoleAdmin} }
func owner() *user.User    { return &user.User{ID: "u1", Role: user.RoleCustomer} }
func stranger() *user.User { return &user.User{ID: "u2", Role: user.RoleCustomer} }

func ownedBooking() *booking.Booking {
	return &booking.Booking{ID: "b1", UserID: "u1", Status: booking.StatusApproved}
}

func newTestService(store Store, storage Storage, bookings BookingSource, gate Gate) (*Service, *noopNotify) {
	n := &noopNotify{}
	svc := NewService(store, storage, bookings, gate, &noopAudit{}, n)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }
	return svc, n
}

func TestDownload_GatedBlockedUntilEligible(t *testing.T) {
	store := &mockStore{}
	bookings := &mockBookings{}
	storage := newMemStorage()
	gate := &stubGate{decision: gatekeeper.Decision{
		Eligible: false, Reason: "outstanding balance: 200.00",
		Outstanding: decimal.NewFromInt(200),
	}}
	svc, _ := newTestService(store, storage, bookings, gate)

	_, _ = storage.Save(context.Background(), "k1", strings.NewReader("report"))
	store.On("Get", mock.Anything, "d1").Return(&Document{
		ID: "d1", BookingID: "b1", UploadedBy: "u1", Type: TypeResultReport, StorageKey: "k1",
	}, nil)
	bookings.On("Get", mock.Anything, "b1").Return(ownedBooking(), nil)

	_, _, err := svc.Download(context.Background(), owner(), "d1")
	require.Error(t, err)
	var ae *api.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "PAYMENT_REQUIRED", ae.Code)
	assert.Equal(t, api.KindForbidden, ae.Kind)

	gate.decision = gatekeeper.Decision{Eligible: true}
	rc, d, err := svc.Download(context.Background(), owner(), "d1")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "d1", d.ID)
}

func TestDownload_UngatedTypeSkipsGate(t *testing.T) {
	store := &mockStore{}
	bookings := &mockBookings{}
	storage := newMemStorage()
	gate := &stubGate{decision: gatekeeper.Decision{Eligible: false, Reason: "unpaid"}}
	svc, _ := newTestService(store, storage, bookings, gate)

	_, _ = storage.Save(context.Background(), "k1", strings.NewReader("form"))
	store.On("Get", mock.Anything, "d1").Return(&Document{
		ID: "d1", BookingID: "b1", UploadedBy: "u1", Type: TypePaymentProof, StorageKey: "k1",
	}, nil)
	bookings.On("Get", mock.Anything, "b1").Return(ownedBooking(), nil)

	rc, _, err := svc.Download(context.Background(), owner(), "d1")
	require.NoError(t, err)
	rc.Close()
}

func TestDownload_StrangerForbidden(t *testing.T) {
	store := &mockStore{}
	bookings := &mockBookings{}
	svc, _ := newTestService(store, newMemStorage(), bookings, &stubGate{})

	store.On("Get", mock.Anything, "d1").Return(&Document{
		ID: "d1", BookingID: "b1", Type: TypePaymentProof, StorageKey: "k1",
	}, nil)
	bookings.On("Get", mock.Anything, "b1").Return(ownedBooking(), nil)

	_, _, err := svc.Download(context.Background(), stranger(), "d1")
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindForbidden))
}

func TestReject_RequiresReason(t *testing.T) {
	store := &mockStore{}
	svc, _ := newTestService(store, newMemStorage(), &mockBookings{}, &stubGate{})

	_, err := svc.Reject(context.Background(), admin(), "d1", "   ")
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindValidation))
	store.AssertNotCalled(t, "SetVerification", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReview_AlreadyDecidedFails(t *testing.T) {
	store := &mockStore{}
	svc, _ := newTestService(store, newMemStorage(), &mockBookings{}, &stubGate{})

	store.On("SetVerification", mock.Anything, "d1", StatusVerified, "admin1", "", mock.Anything).
		Return(nil, &ReviewConflictError{Current: StatusRejected})

	_, err := svc.Verify(context.Background(), admin(), "d1")
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindInvalidState))
}

func TestVerify_NotifiesUploader(t *testing.T) {
	store := &mockStore{}
	svc, notifier := newTestService(store, newMemStorage(), &mockBookings{}, &stubGate{})

	store.On("SetVerification", mock.Anything, "d1", StatusVerified, "admin1", "", mock.Anything).
		Return(&Document{ID: "d1", BookingID: "b1", UploadedBy: "u1", Type: TypeSafetyDeclaration, Status: StatusVerified}, nil)

	d, err := svc.Verify(context.Background(), admin(), "d1")
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, d.Status)
	assert.Contains(t, notifier.events, "document_verified")
}

func TestUpload_CleansBlobOnInsertFailure(t *testing.T) {
	store := &mockStore{}
	bookings := &mockBookings{}
	storage := newMemStorage()
	svc, _ := newTestService(store, storage, bookings, &stubGate{})

	bookings.On("Get", mock.Anything, "b1").Return(ownedBooking(), nil)
	store.On("Insert", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := svc.Upload(context.Background(), owner(), "b1", TypePaymentProof,
		"receipt.pdf", "application/pdf", strings.NewReader("pdf bytes"))
	require.Error(t, err)
	assert.Empty(t, storage.blobs)
}

func TestDelete_OwnerOnlyWhilePending(t *testing.T) {
	store := &mockStore{}
	svc, _ := newTestService(store, newMemStorage(), &mockBookings{}, &stubGate{})

	store.On("Get", mock.Anything, "d1").Return(&Document{
		ID: "d1", BookingID: "b1", UploadedBy: "u1", Status: StatusVerified, StorageKey: "k1",
	}, nil)

	err := svc.Delete(context.Background(), owner(), "d1")
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindInvalidState))
	store.AssertNotCalled(t, "Delete", mock.Anything, "d1")
}
