package service

import (
	"math"
	"strconv"

	"report-service/internal/models"
)

// Views are the role partitions and joins derived from one snapshot. They
// are recomputed on demand and never cached or mutated in place.
type Views struct {
	Customers         []models.User             `json:"customers"`
	Vendors           []models.User             `json:"vendors"`
	DeliveryPersons   []models.User             `json:"delivery_persons"`
	Other             []models.User             `json:"other"`
	CustomerPurchases []models.CustomerPurchase `json:"customer_purchases"`
}

// ChangeChip is a period-over-period change formatted for display. Zero is
// treated as non-negative and renders as an increase.
type ChangeChip struct {
	Direction string `json:"direction"`
	Display   string `json:"display"`
}

// Chip directions
const (
	DirectionIncrease = "increase"
	DirectionDecrease = "decrease"
)

// TrendPoint is one synthetic point of the revenue trend chart
type TrendPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// PiePoint is one slice of the orders-vs-users chart
type PiePoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// DeriveViews partitions users by exact role match and joins payments to
// their customers. Every user lands in exactly one bucket; unrecognized
// roles go to Other and appear only in the full user listing. Purchases
// keep the insertion order of the source payments list, with no
// de-duplication.
func DeriveViews(m *models.ReportModel) Views {
	v := Views{
		Customers:         []models.User{},
		Vendors:           []models.User{},
		DeliveryPersons:   []models.User{},
		Other:             []models.User{},
		CustomerPurchases: []models.CustomerPurchase{},
	}
	if m == nil {
		return v
	}

	for _, u := range m.Users {
		switch u.Role {
		case models.RoleCustomer:
			v.Customers = append(v.Customers, u)
		case models.RoleVendor:
			v.Vendors = append(v.Vendors, u)
		case models.RoleDeliveryPerson:
			v.DeliveryPersons = append(v.DeliveryPersons, u)
		default:
			v.Other = append(v.Other, u)
		}
	}

	for _, p := range m.Payments {
		if p.UserID == nil {
			continue
		}
		v.CustomerPurchases = append(v.CustomerPurchases, models.CustomerPurchase{
			PaymentID:     p.ID,
			CustomerName:  p.UserID.Name,
			CustomerEmail: p.UserID.Email,
			Product:       p.ProductTitle,
			Amount:        p.Amount,
			Status:        p.Status,
			Date:          p.CreatedAt,
		})
	}

	return v
}

// FormatChange renders a signed change percentage as a direction plus the
// absolute value
func FormatChange(v float64) ChangeChip {
	direction := DirectionIncrease
	if v < 0 {
		direction = DirectionDecrease
	}
	return ChangeChip{
		Direction: direction,
		Display:   strconv.FormatFloat(math.Abs(v), 'f', -1, 64) + "%",
	}
}

// RevenueTrend builds the synthetic four-point trend shown on the revenue
// chart, backing out the previous period total from the change percentage
func RevenueTrend(s models.ReportSummary) []TrendPoint {
	prev := 0.0
	if denom := 1 + s.RevenueChange/100; denom > 0 {
		prev = math.Max(0, s.TotalRevenue/denom)
	}
	return []TrendPoint{
		{Name: "Prev", Value: prev * 0.6},
		{Name: "Prev+", Value: prev * 0.8},
		{Name: "Now", Value: s.TotalRevenue * 0.9},
		{Name: "Now+", Value: s.TotalRevenue},
	}
}

// OrdersVsUsers builds the order/new-user pie slices
func OrdersVsUsers(s models.ReportSummary) []PiePoint {
	return []PiePoint{
		{Name: "Orders", Value: s.TotalOrders},
		{Name: "New Users", Value: s.NewUsers},
	}
}
