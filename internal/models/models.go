package models

import "time"

// User represents an account in the admin backend
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentUser is the user reference embedded in a payment record.
// It is nil when the upstream record has no resolvable user.
type PaymentUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Payment represents a payment transaction
type Payment struct {
	ID           string       `json:"id"`
	UserID       *PaymentUser `json:"user,omitempty"`
	InvoiceID    string       `json:"invoice_id"`
	ProductTitle string       `json:"product_title"`
	Amount       float64      `json:"amount"`
	Status       string       `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Order represents a delivery task
type Order struct {
	ID        string    `json:"id"`
	Product   string    `json:"product"`
	Address   string    `json:"address"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportSummary holds period totals and period-over-period change
// percentages. Changes are computed upstream and treated here as opaque
// signed numbers.
type ReportSummary struct {
	TotalRevenue  float64   `json:"total_revenue"`
	RevenueChange float64   `json:"revenue_change"`
	TotalOrders   int       `json:"total_orders"`
	OrderChange   float64   `json:"order_change"`
	NewUsers      int       `json:"new_users"`
	UserChange    float64   `json:"user_change"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
}

// ReportModel is the consolidated snapshot for one date range. It is
// replaced wholesale on every successful fetch and never merged with a
// previous snapshot.
type ReportModel struct {
	Summary   ReportSummary `json:"summary"`
	Users     []User        `json:"users"`
	Orders    []Order       `json:"orders"`
	Payments  []Payment     `json:"payments"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// CustomerPurchase is a payment joined to its customer. Derived, never
// persisted.
type CustomerPurchase struct {
	PaymentID     string    `json:"payment_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	Product       string    `json:"product"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	Date          time.Time `json:"date"`
}

// DateRange is the inclusive reporting period
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RasterSnapshot is a PNG capture of the rendered report tables, the sole
// source material for PDF content pages.
type RasterSnapshot struct {
	PNG    []byte
	Width  int
	Height int
}

// Export is one row of the export history
type Export struct {
	ID         int64     `db:"id" json:"id"`
	Filename   string    `db:"filename" json:"filename"`
	Path       string    `db:"path" json:"path"`
	RangeStart time.Time `db:"range_start" json:"range_start"`
	RangeEnd   time.Time `db:"range_end" json:"range_end"`
	Pages      int       `db:"pages" json:"pages"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// User roles recognized by the role partition; anything else lands in the
// "other" bucket of the derived views.
const (
	RoleCustomer       = "Customer"
	RoleVendor         = "Vendor"
	RoleDeliveryPerson = "DeliveryPerson"
	RoleAdmin          = "Admin"
)

// User statuses
const (
	UserStatusActive    = "Active"
	UserStatusSuspended = "Suspended"
)

// Payment statuses
const (
	PaymentStatusSuccess = "success"
	PaymentStatusPending = "pending"
	PaymentStatusFailed  = "failed"
)

// Export statuses
const (
	ExportStatusCompleted = "COMPLETED"
	ExportStatusFailed    = "FAILED"
)

// Defaults for optional upstream fields, applied once at the aggregation
// boundary so consumers see a total model.
const (
	DefaultUserName     = "Unknown"
	DefaultEmail        = "—"
	DefaultProductTitle = "—"
	DefaultUserStatus   = UserStatusActive
)
