package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gestly/internal/models"

	"github.com/google/uuid"
)

type RegisterInput struct {
	BusinessName string `json:"business_name"`
	FullName     string `json:"full_name,omitempty"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Phone        string `json:"phone,omitempty"`
	Timezone     string `json:"timezone,omitempty"`
}

type Registration struct {
	ID       uuid.UUID             `json:"id"`
	Business *models.Business      `json:"business"`
	User     *models.Profile       `json:"user"`
	Tokens   *models.TokenResponse `json:"tokens"`
}

type CustomerInput struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Birthday string `json:"birthday,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type AppointmentInput struct {
	CustomerID     uuid.UUID  `json:"customer_id"`
	ServiceID      uuid.UUID  `json:"service_id"`
	ProfessionalID *uuid.UUID `json:"professional_id,omitempty"`
	StartsAt       time.Time  `json:"starts_at"`
	Notes          string     `json:"notes,omitempty"`
}

// AppointmentQuery mirrors the list filters. Zero values are omitted.
type AppointmentQuery struct {
	From           *time.Time
	To             *time.Time
	Status         string
	CustomerID     *uuid.UUID
	ProfessionalID *uuid.UUID
}

func (q AppointmentQuery) values() url.Values {
	v := url.Values{}
	if q.From != nil {
		v.Set("from", q.From.Format(time.RFC3339))
	}
	if q.To != nil {
		v.Set("to", q.To.Format(time.RFC3339))
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.CustomerID != nil {
		v.Set("customer_id", q.CustomerID.String())
	}
	if q.ProfessionalID != nil {
		v.Set("professional_id", q.ProfessionalID.String())
	}
	return v
}

// Register creates a business with its owner and starts using the
// returned access token.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	var out Registration
	if err := c.Post(ctx, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	if out.Tokens != nil {
		c.SetToken(out.Tokens.AccessToken)
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	var out models.TokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.Post(ctx, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	var out models.TokenResponse
	if err := c.Post(ctx, "/auth/refresh", map[string]string{"refresh_token": refreshToken}, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

// Customers iterates customers matching search.
func (c *Client) Customers(search string, pageSize int) *Pager[models.Customer] {
	q := url.Values{}
	if s := strings.TrimSpace(search); s != "" {
		q.Set("q", s)
	}
	return NewPager[models.Customer](c, "/customers", q, pageSize)
}

func (c *Client) CreateCustomer(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	var out models.Customer
	if err := c.Post(ctx, "/customers", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Appointments(q AppointmentQuery, pageSize int) *Pager[models.Appointment] {
	return NewPager[models.Appointment](c, "/appointments", q.values(), pageSize)
}

func (c *Client) CreateAppointment(ctx context.Context, in AppointmentInput) (*models.Appointment, error) {
	var out models.Appointment
	if err := c.Post(ctx, "/appointments", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChangeAppointmentStatus(ctx context.Context, id uuid.UUID, status string) (*models.Appointment, error) {
	var out models.Appointment
	if err := c.Patch(ctx, "/appointments/"+id.String()+"/status", map[string]string{"status": status}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Dashboard(ctx context.Context, from, to *time.Time) (*models.DashboardMetrics, error) {
	q := url.Values{}
	if from != nil {
		q.Set("from", from.Format(time.RFC3339))
	}
	if to != nil {
		q.Set("to", to.Format(time.RFC3339))
	}
	var out models.DashboardMetrics
	if err := c.Get(ctx, "/metrics/dashboard", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FinancialReport is either a download link or, when the server has no
// object storage, the PDF itself.
type FinancialReport struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	PDF       []byte    `json:"-"`
}

func (c *Client) ExportFinancialReport(ctx context.Context, from, to *time.Time) (*FinancialReport, error) {
	req := c.http.R().SetContext(ctx)
	if from != nil {
		req.SetQueryParam("from", from.Format(time.RFC3339))
	}
	if to != nil {
		req.SetQueryParam("to", to.Format(time.RFC3339))
	}
	resp, err := req.Post("/reports/financial")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusOK && strings.HasPrefix(resp.Header().Get("Content-Type"), "application/pdf") {
		return &FinancialReport{PDF: resp.Body()}, nil
	}

	var out FinancialReport
	if err := c.decode(resp.StatusCode(), resp.IsError(), resp.Body(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
