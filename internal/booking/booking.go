package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

type Booking struct {
	ID              string          `json:"id"`
	ReferenceNumber string          `json:"referenceNumber,omitempty"`
	UserID          string          `json:"userId"`
	Status          Status          `json:"status"`
	PreferredStart  *time.Time      `json:"preferredStart,omitempty"`
	PreferredEnd    *time.Time      `json:"preferredEnd,omitempty"`
	RequiresWorkArea bool           `json:"requiresWorkArea"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ReviewedBy      *string         `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewedAt,omitempty"`
	ReviewNotes     string          `json:"reviewNotes,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ServiceItem is one selected lab service within a booking. Items are
// replaced wholesale while the booking is editable and frozen at approval;
// only their sample tracking keeps moving afterwards.
type ServiceItem struct {
	ID          string          `json:"id"`
	BookingID   string          `json:"bookingId"`
	ServiceCode string          `json:"serviceCode"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	AddOns      []AddOn         `json:"addOns,omitempty"`
}

type AddOn struct {
	ID     string          `json:"id"`
	ItemID string          `json:"itemId"`
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

// Review is the admin decision trail written on admin-initiated transitions.
type Review struct {
	By    string
	At    time.Time
	Notes string
}

type DraftInput struct {
	PreferredStart   *time.Time  `json:"preferredStart"`
	PreferredEnd     *time.Time  `json:"preferredEnd"`
	RequiresWorkArea bool        `json:"requiresWorkArea"`
	Items            []ItemInput `json:"items" validate:"dive"`
}

type ItemInput struct {
	ServiceCode string          `json:"serviceCode" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Quantity    int             `json:"quantity" validate:"min=1"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	AddOns      []AddOnInput    `json:"addOns" validate:"dive"`
}

type AddOnInput struct {
	Code  string          `json:"code" validate:"required"`
	Name  string          `json:"name" validate:"required"`
	Price decimal.Decimal `json:"price"`
}

// Total computes the booking amount: Σ quantity × unit price, plus add-ons
// (priced per item line, not per unit).
func (in DraftInput) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range in.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		for _, a := range it.AddOns {
			total = total.Add(a.Price)
		}
	}
	return total
}

func (in DraftInput) items(bookingID string) []ServiceItem {
	out := make([]ServiceItem, 0, len(in.Items))
	for _, it := range in.Items {
		item := ServiceItem{
			BookingID:   bookingID,
			ServiceCode: it.ServiceCode,
			Name:        it.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
		for _, a := range it.AddOns {
			item.AddOns = append(item.AddOns, AddOn{Code: a.Code, Name: a.Name, Price: a.Price})
		}
		out = append(out, item)
	}
	return out
}

type ListFilter struct {
	UserID       string     // scope to one owner (user-facing lists)
	Statuses     []Status   // explicit status filter
	Query        string     // reference number / user name / email / organization
	From         *time.Time // createdAt lower bound
	To           *time.Time // createdAt upper bound
	Page         int
	PageSize     int
	SortField    string
	SortDir      string
	ExcludeDraft bool // admin lists hide drafts unless explicitly asked
}

type ListItem struct {
	ID              string    `json:"id"`
	ReferenceNumber string    `json:"referenceNumber,omitempty"`
	UserID          string    `json:"userId"`
	UserName        string    `json:"userName"`
	UserEmail       string    `json:"userEmail"`
	Organization    string    `json:"organization,omitempty"`
	Status          Status    `json:"status"`
	TotalAmount     string    `json:"totalAmount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// BulkResult is the per-id outcome of a bulk admin action. Partial failure is
// expected; the batch itself still succeeds.
type BulkResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// sortColumns is the sort allow-list; anything else falls back to
// updated_at desc.
var sortColumns = map[string]string{
	"updatedAt":   "b.updated_at",
	"createdAt":   "b.created_at",
	"totalAmount": "b.total_amount",
}

func sortClause(field, dir string) string {
	col, ok := sortColumns[field]
	if !ok {
		return "b.updated_at DESC"
	}
	if dir == "asc" {
		return col + " ASC"
	}
	return col + " DESC"
}

// AllowPageSize clamps a requested page size to the view's allow-list,
// falling back to the list's first entry.
func AllowPageSize(requested int, allowed []int) int {
	for _, n := range allowed {
		if requested == n {
			return requested
		}
	}
	return allowed[0]
}

func statusList(ss []Status) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += string(s)
	}
	return out
}
