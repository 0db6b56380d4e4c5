package booking

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/api"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/audit"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/user"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, userID string, in DraftInput) (*Booking, error) {
	args := m.Called(ctx, userID, in)
	b, _ := args.Get(0).(*Booking)
	return b, args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, id string) (*Booking, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*Booking)
	return b, args.Error(1)
}

func (m *mockStore) Items(ctx context.Context, bookingID string) ([]ServiceItem, error) {
	args := m.Called(ctx, bookingID)
	items, _ := args.Get(0).([]ServiceItem)
	return items, args.Error(1)
}

func (m *mockStore) UpdateDraft(ctx context.Context, id string, editable []Status, in DraftInput) (*Booking, error) {
	args := m.Called(ctx, id, editable, in)
	b, _ := args.Get(0).(*Booking)
	return b, args.Error(1)
}

func (m *mockStore) Transition(ctx context.Context, id string, from []Status, to Status, review *Review) (*Booking, error) {
	args := m.Called(ctx, id, from, to, review)
	b, _ := args.Get(0).(*Booking)
	return b, args.Error(1)
}

func (m *mockStore) SubmitDraft(ctx context.Context, id string, from []Status, to Status, ref string, total decimal.Decimal, items []ServiceItem) (*Booking, error) {
	args := m.Called(ctx, id, from, to, ref, total, items)
	b, _ := args.Get(0).(*Booking)
	return b, args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id string, allowed []Status) error {
	return m.Called(ctx, id, allowed).Error(0)
}

func (m *mockStore) DeleteMany(ctx context.Context, ids []string, allowed []Status) (int64, error) {
	args := m.Called(ctx, ids, allowed)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) PurgeDrafts(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) List(ctx context.Context, f ListFilter) ([]ListItem, int, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]ListItem)
	return items, args.Int(1), args.Error(2)
}

func (m *mockStore) CountsByStatus(ctx context.Context, userID string, excludeDraft bool) (map[Status]int, error) {
	args := m.Called(ctx, userID, excludeDraft)
	counts, _ := args.Get(0).(map[Status]int)
	return counts, args.Error(1)
}

type noopAudit struct{ entries []audit.Entry }

func (a *noopAudit) Record(_ context.Context, e audit.Entry) { a.entries = append(a.entries, e) }

type noopNotify struct{ events []string }

func (n *noopNotify) BookingEvent(_ context.Context, _, _, event, _ string, _ any) {
	n.events = append(n.events, event)
}

func newTestService(store Store) (*Service, *noopAudit, *noopNotify) {
	a := &noopAudit{}
	n := &noopNotify{}
	svc := NewService(store, a, n)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }
	return svc, a, n
}

func owned(id, userID string, status Status) *Booking {
	return &Booking{ID: id, UserID: userID, Status: status}
}

func validItems() []ServiceItem {
	return []ServiceItem{{
		ServiceCode: "XRD-01", Name: "X-ray diffraction",
		Quantity: 2, UnitPrice: decimal.NewFromInt(150),
	}}
}

func TestSubmit_FromApprovedFailsWithoutWrite(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newTestService(store)

	store.On("Get", mock.Anything, "b1").Return(owned("b1", "u1", StatusApproved), nil)

	_, err := svc.Submit(context.Background(), Actor{ID: "u1", Role: user.RoleCustomer}, "b1", user.AccountActive)
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindInvalidState))
	store.AssertNotCalled(t, "SubmitDraft", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_NonOwnerForbidden(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newTestService(store)

	store.On("Get", mock.Anything, "b1").Return(owned("b1", "u1", StatusDraft), nil)

	_, err := svc.Submit(context.Background(), Actor{ID: "u2", Role: user.RoleCustomer}, "b1", user.AccountActive)
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindForbidden))
}

func TestSubmit_ActiveAccountGoesToPendingApproval(t *testing.T) {
	store := &mockStore{}
	svc, auditLog, notifier := newTestService(store)

	items := validItems()
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)
	draft := owned("b1", "u1", StatusDraft)
	draft.PreferredStart, draft.PreferredEnd = &start, &end

	store.On("Get", mock.Anything, "b1").Return(draft, nil)
	store.On("Items", mock.Anything, "b1").Return(items, nil)
	store.On("SubmitDraft", mock.Anything, "b1", []Status{StatusDraft}, StatusPendingApproval,
		mock.MatchedBy(func(ref string) bool { return ref != "" }),
		mock.MatchedBy(func(total decimal.Decimal) bool { return total.Equal(decimal.NewFromInt(300)) }),
		items,
	).Return(owned("b1", "u1", StatusPendingApproval), nil)

	got, err := svc.Submit(context.Background(), Actor{ID: "u1", Role: user.RoleCustomer}, "b1", user.AccountActive)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingApproval, got.Status)
	assert.Contains(t, notifier.events, "booking_submitted")
	require.NotEmpty(t, auditLog.entries)
	assert.Equal(t, "BOOKING_SUBMITTED", auditLog.entries[0].Action)
}

func TestSubmit_PendingAccountGoesToUserVerification(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newTestService(store)

	items := validItems()
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	draft := owned("b1", "u1", StatusDraft)
	draft.PreferredStart, draft.PreferredEnd = &start, &end

	store.On("Get", mock.Anything, "b1").Return(draft, nil)
	store.On("Items", mock.Anything, "b1").Return(items, nil)
	store.On("SubmitDraft", mock.Anything, "b1", []Status{StatusDraft}, StatusPendingUserVerification,
		mock.Anything, mock.Anything, items,
	).Return(owned("b1", "u1", StatusPendingUserVerification), nil)

	got, err := svc.Submit(context.Background(), Actor{ID: "u1", Role: user.RoleCustomer}, "b1", user.AccountPending)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingUserVerification, got.Status)
}

func TestSubmit_RevisionGoesToRevisionSubmitted(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newTestService(store)

	items := validItems()
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	b := owned("b1", "u1", StatusRevisionRequested)
	b.ReferenceNumber = "LAB-202608-AABBCC"
	b.PreferredStart, b.PreferredEnd = &start, &end

	store.On("Get", mock.Anything, "b1").Return(b, nil)
	store.On("Items", mock.Anything, "b1").Return(items, nil)
	store.On("SubmitDraft", mock.Anything, "b1", []Status{StatusRevisionRequested}, StatusRevisionSubmitted,
		"LAB-202608-AABBCC", mock.Anything, items,
	).Return(owned("b1", "u1", StatusRevisionSubmitted), nil)

	_, err := svc.Submit(context.Background(), Actor{ID: "u1", Role: user.RoleCustomer}, "b1", user.AccountActive)
	require.NoError(t, err)
}

func TestSubmit_RequiresItemsAndDates(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newTestService(store)

	store.On("Get", mock.Anything, "empty").Return(owned("empty", "u1", StatusDraft), nil)
	store.On("Items", mock.Anything, "empty").Return([]ServiceItem{}, nil)

	_, err := svc.Submit(context.Background(), Actor{ID: "u1", Role: user.RoleCustomer}, "empty", user.AccountActive)
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindValidation))

	store.On("Get", mock.Anything, "nodates").Return(owned("nodates", "u1", StatusDraft), nil)
	store.On("Items", mock.Anything, "nodates").Return(validItems(), nil)

	_, err = svc.Submit(context.Background(), Actor{ID: "u1", Role: user.RoleCustomer}, "nodates", user.AccountActive)
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindValidation))
}

func TestSaveDraft_NotEditableAfterSubmission(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newTestService(store)

	store.On("Get", mock.Anything, "b1").Return(owned("b1", "u1", StatusPendingApproval), nil)

	_, err := svc.SaveDraft(context.Background(), Actor{ID: "u1", Role: user.RoleCustomer}, "b1", DraftInput{})
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindNotEditable))
	store.AssertNotCalled(t, "UpdateDraft", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSaveDraft_RejectsNegativePrices(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newTestService(store)

	store.On("Get", mock.Anything, "b1").Return(owned("b1", "u1", StatusDraft), nil)

	in := DraftInput{Items: []ItemInput{{
		ServiceCode: "XRD-01", Name: "X-ray diffraction",
		Quantity: 1, UnitPrice: decimal.NewFromInt(-5),
	}}}
	_, err := svc.SaveDraft(context.Background(), Actor{ID: "u1", Role: user.RoleCustomer}, "b1", in)
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindValidation))
}

func TestAdminReview_SecondApproveFails(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newTestService(store)

	conflict := &StatusConflictError{Current: StatusApproved, Allowed: ReviewableStatuses}
	store.On("Transition", mock.Anything, "b1", ReviewableStatuses, StatusApproved, mock.Anything).
		Return(nil, conflict)

	_, err := svc.AdminReview(context.Background(), Actor{ID: "admin", Role: user.RoleAdmin}, "b1", ReviewApprove, "")
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindInvalidState))
}

func TestAdminReview_NonAdminForbidden(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newTestService(store)

	_, err := svc.AdminReview(context.Background(), Actor{ID: "u1", Role: user.RoleCustomer}, "b1", ReviewApprove, "")
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindForbidden))
	store.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminReview_RecordsReviewer(t *testing.T) {
	store := &mockStore{}
	svc, _, notifier := newTestService(store)

	store.On("Transition", mock.Anything, "b1", ReviewableStatuses, StatusRevisionRequested,
		mock.MatchedBy(func(r *Review) bool {
			return r != nil && r.By == "admin" && r.Notes == "attach the safety form"
		}),
	).Return(owned("b1", "u1", StatusRevisionRequested), nil)

	_, err := svc.AdminReview(context.Background(), Actor{ID: "admin", Role: user.RoleAdmin}, "b1", ReviewReturn, "attach the safety form")
	require.NoError(t, err)
	assert.Contains(t, notifier.events, "booking_revision_requested")
}

func TestBulkReview_PartialFailure(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newTestService(store)

	conflict := &StatusConflictError{Current: StatusDraft, Allowed: ReviewableStatuses}
	store.On("Transition", mock.Anything, "a", ReviewableStatuses, StatusApproved, mock.Anything).
		Return(owned("a", "u1", StatusApproved), nil)
	store.On("Transition", mock.Anything, "b", ReviewableStatuses, StatusApproved, mock.Anything).
		Return(nil, conflict)
	store.On("Transition", mock.Anything, "c", ReviewableStatuses, StatusApproved, mock.Anything).
		Return(owned("c", "u2", StatusApproved), nil)

	results, err := svc.BulkReview(context.Background(), Actor{ID: "admin", Role: user.RoleAdmin}, ReviewApprove, []string{"a", "b", "c"}, "")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Contains(t, results[1].Error, "requires one of")
	assert.True(t, results[2].OK)
}

func TestBulkDelete_FiltersToSafeStatuses(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newTestService(store)

	store.On("DeleteMany", mock.Anything, []string{"a", "b"}, BulkDeletableStatuses).
		Return(int64(1), nil)

	n, err := svc.BulkDelete(context.Background(), Actor{ID: "admin", Role: user.RoleAdmin}, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCancel_OwnerFromAnyNonTerminal(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newTestService(store)

	store.On("Get", mock.Anything, "b1").Return(owned("b1", "u1", StatusInProgress), nil)
	store.On("Transition", mock.Anything, "b1", mock.MatchedBy(func(from []Status) bool {
		return len(from) == 7 // every non-terminal status
	}), StatusCancelled, (*Review)(nil)).Return(owned("b1", "u1", StatusCancelled), nil)

	got, err := svc.Cancel(context.Background(), Actor{ID: "u1", Role: user.RoleCustomer}, "b1", "schedule change")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestCancel_AdminCarriesReviewTrail(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newTestService(store)

	store.On("Get", mock.Anything, "b1").Return(owned("b1", "u1", StatusPendingApproval), nil)
	store.On("Transition", mock.Anything, "b1", mock.Anything, StatusCancelled,
		mock.MatchedBy(func(r *Review) bool { return r != nil && r.By == "admin" }),
	).Return(owned("b1", "u1", StatusCancelled), nil)

	_, err := svc.Cancel(context.Background(), Actor{ID: "admin", Role: user.RoleAdmin}, "b1", "duplicate request")
	require.NoError(t, err)
}

func TestList_NonAdminScopedToOwnBookings(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newTestService(store)

	store.On("List", mock.Anything, mock.MatchedBy(func(f ListFilter) bool {
		return f.UserID == "u1" && !f.ExcludeDraft
	})).Return([]ListItem{}, 0, nil)

	_, _, err := svc.List(context.Background(), Actor{ID: "u1", Role: user.RoleCustomer}, ListFilter{UserID: "someone-else"})
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestList_AdminHidesDraftsByDefault(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newTestService(store)

	store.On("List", mock.Anything, mock.MatchedBy(func(f ListFilter) bool {
		return f.ExcludeDraft
	})).Return([]ListItem{}, 0, nil)

	_, _, err := svc.List(context.Background(), Actor{ID: "admin", Role: user.RoleAdmin}, ListFilter{})
	require.NoError(t, err)

	store.On("List", mock.Anything, mock.MatchedBy(func(f ListFilter) bool {
		return !f.ExcludeDraft && len(f.Statuses) == 1
	})).Return([]ListItem{}, 0, nil)

	_, _, err = svc.List(context.Background(), Actor{ID: "admin", Role: user.RoleAdmin}, ListFilter{Statuses: []Status{StatusDraft}})
	require.NoError(t, err)
}

func TestGet_NotFoundMapped(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newTestService(store)

	store.On("Get", mock.Anything, "missing").Return(nil, ErrNotFound)

	_, _, err := svc.Get(context.Background(), Actor{ID: "u1", Role: user.RoleCustomer}, "missing")
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindNotFound))
}

func TestPurgeExpiredDrafts(t *testing.T) {
	store := &mockStore{}
	svc, auditLog, _ := newTestService(store)

	cutoff := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	store.On("PurgeDrafts", mock.Anything, cutoff).Return(int64(3), nil)

	n, err := svc.PurgeExpiredDrafts(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.Len(t, auditLog.entries, 1)
	assert.Equal(t, "DRAFTS_PURGED", auditLog.entries[0].Action)
}

func TestAllowPageSize(t *testing.T) {
	allowed := []int{10, 25, 50}
	assert.Equal(t, 25, AllowPageSize(25, allowed))
	assert.Equal(t, 10, AllowPageSize(37, allowed))
	assert.Equal(t, 10, AllowPageSize(0, allowed))
}
