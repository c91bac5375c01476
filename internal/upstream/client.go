package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"report-service/internal/models"
)

// TokenSource supplies the bearer token attached to every upstream read.
// Injected so the client never reads ambient session state.
type TokenSource func() string

// StaticToken wraps a fixed token as a TokenSource
func StaticToken(token string) TokenSource {
	return func() string { return token }
}

// Client reads report data from the admin backend
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a new admin API client
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.tokens())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s from %s", resp.Status, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

type summaryResponse struct {
	TotalRevenue  float64 `json:"totalRevenue"`
	RevenueChange float64 `json:"revenueChange"`
	TotalOrders   int     `json:"totalOrders"`
	OrderChange   float64 `json:"orderChange"`
	NewUsers      int     `json:"newUsers"`
	UserChange    float64 `json:"userChange"`
}

type userRecord struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type usersResponse struct {
	Users []userRecord `json:"users"`
}

type orderRecord struct {
	ID        string    `json:"_id"`
	Product   string    `json:"product"`
	Address   string    `json:"address"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type ordersResponse struct {
	Data []orderRecord `json:"data"`
}

type paymentUserRecord struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type paymentRecord struct {
	ID           string             `json:"_id"`
	UserID       *paymentUserRecord `json:"userId"`
	InvoiceID    string             `json:"invoiceId"`
	ProductTitle string             `json:"productTitle"`
	Amount       float64            `json:"amount"`
	Status       string             `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
}

type paymentsResponse struct {
	Transactions []paymentRecord `json:"transactions"`
}

// GetSummary fetches period totals and change percentages for a date range
func (c *Client) GetSummary(ctx context.Context, rng models.DateRange) (*models.ReportSummary, error) {
	query := url.Values{}
	query.Set("startDate", rng.Start.Format("2006-01-02"))
	query.Set("endDate", rng.End.Format("2006-01-02"))

	var resp summaryResponse
	if err := c.get(ctx, "/admin/report", query, &resp); err != nil {
		return nil, err
	}

	return &models.ReportSummary{
		TotalRevenue:  resp.TotalRevenue,
		RevenueChange: resp.RevenueChange,
		TotalOrders:   resp.TotalOrders,
		OrderChange:   resp.OrderChange,
		NewUsers:      resp.NewUsers,
		UserChange:    resp.UserChange,
		PeriodStart:   rng.Start,
		PeriodEnd:     rng.End,
	}, nil
}

// GetUsers fetches all users
func (c *Client) GetUsers(ctx context.Context) ([]models.User, error) {
	var resp usersResponse
	if err := c.get(ctx, "/admin/users", nil, &resp); err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(resp.Users))
	for _, u := range resp.Users {
		users = append(users, models.User{
			ID:        u.ID,
			Name:      defaultStr(u.Name, models.DefaultUserName),
			Email:     defaultStr(u.Email, models.DefaultEmail),
			Role:      u.Role,
			Status:    defaultStr(u.Status, models.DefaultUserStatus),
			CreatedAt: u.CreatedAt,
		})
	}
	return users, nil
}

// GetOrders fetches all orders
func (c *Client) GetOrders(ctx context.Context) ([]models.Order, error) {
	var resp ordersResponse
	if err := c.get(ctx, "/tasks/all", nil, &resp); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(resp.Data))
	for _, o := range resp.Data {
		orders = append(orders, models.Order{
			ID:        o.ID,
			Product:   defaultStr(o.Product, models.DefaultProductTitle),
			Address:   o.Address,
			Status:    o.Status,
			CreatedAt: o.CreatedAt,
		})
	}
	return orders, nil
}

// GetPayments fetches all payment transactions
func (c *Client) GetPayments(ctx context.Context) ([]models.Payment, error) {
	var resp paymentsResponse
	if err := c.get(ctx, "/payment/admin-all", nil, &resp); err != nil {
		return nil, err
	}

	payments := make([]models.Payment, 0, len(resp.Transactions))
	for _, p := range resp.Transactions {
		payment := models.Payment{
			ID:           p.ID,
			InvoiceID:    p.InvoiceID,
			ProductTitle: defaultStr(p.ProductTitle, models.DefaultProductTitle),
			Amount:       p.Amount,
			Status:       p.Status,
			CreatedAt:    p.CreatedAt,
		}
		if p.UserID != nil {
			payment.UserID = &models.PaymentUser{
				Name:  defaultStr(p.UserID.Name, models.DefaultUserName),
				Email: defaultStr(p.UserID.Email, models.DefaultEmail),
			}
		}
		payments = append(payments, payment)
	}
	return payments, nil
}

// defaultStr applies the documented default for an optional upstream field
func defaultStr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
