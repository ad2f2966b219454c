// Package client talks to the dashboard API over HTTP. It keeps the session
// cookie and CSRF token of one logged-in user and implements activity.Backend
// so the logging flow can run against a remote server.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/xavierca1/pipeline-dashboard/internal/activity"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/kpi"
	"github.com/xavierca1/pipeline-dashboard/internal/views"
)

const csrfHeader = "X-CSRF-Token"

type Client struct {
	http *resty.Client

	mu   sync.RWMutex
	csrf string
}

var (
	_ activity.Backend        = (*Client)(nil)
	_ activity.CalendarSource = (*Client)(nil)
)

// New returns a client for the API at baseURL, e.g. "https://host". Failed
// requests are never retried.
func New(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{}
	c.http = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetCookieJar(jar).
		SetHeader("Accept", "application/json").
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			if token := c.CSRFToken(); token != "" {
				r.SetHeader(csrfHeader, token)
			}
			return nil
		})
	return c
}

func (c *Client) CSRFToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.csrf
}

func (c *Client) setCSRF(token string) {
	c.mu.Lock()
	c.csrf = token
	c.mu.Unlock()
}

// do sends the request and decodes a 2xx body into out. Other statuses come
// back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return newAPIError(resp.StatusCode(), resp.Body())
	}
	return nil
}

type sessionResponse struct {
	User      *entity.User `json:"user"`
	CSRFToken string       `json:"csrfToken"`
}

// Login opens a session. The cookie lives in the client's jar; the CSRF
// token is sent on every following request.
func (c *Client) Login(ctx context.Context, email, password string) (*entity.User, error) {
	var out sessionResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	c.setCSRF(out.CSRFToken)
	return out.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return err
	}
	c.setCSRF("")
	return nil
}

// Me returns the current user and refreshes the CSRF token.
func (c *Client) Me(ctx context.Context) (*entity.User, error) {
	var out sessionResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	c.setCSRF(out.CSRFToken)
	return out.User, nil
}

func (c *Client) CreateLead(ctx context.Context, in activity.LeadInput) (*entity.Lead, error) {
	var out entity.Lead
	if err := c.do(ctx, http.MethodPost, "/api/leads", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCall(ctx context.Context, in activity.CallInput) (*entity.CallEvent, error) {
	var out entity.CallEvent
	if err := c.do(ctx, http.MethodPost, "/api/events/call", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateAppointment(ctx context.Context, in activity.AppointmentInput) (*entity.AppointmentEvent, error) {
	var out entity.AppointmentEvent
	if err := c.do(ctx, http.MethodPost, "/api/events/appointment", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateClosing(ctx context.Context, in activity.ClosingInput) (*entity.ClosingEvent, error) {
	var out entity.ClosingEvent
	if err := c.do(ctx, http.MethodPost, "/api/events/closing", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateLeadStatus(ctx context.Context, leadID int64, in activity.StatusInput) (*entity.Lead, error) {
	var out entity.Lead
	if err := c.do(ctx, http.MethodPatch, "/api/leads/"+strconv.FormatInt(leadID, 10)+"/status", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LeadCalendar(ctx context.Context, leadID int64) ([]entity.CalendarEntry, error) {
	var out []entity.CalendarEntry
	req := c.http.R().SetContext(ctx).
		SetQueryParam("leadId", strconv.FormatInt(leadID, 10)).
		SetResult(&out)
	resp, err := req.Get("/api/leads/calendar")
	if err != nil {
		return nil, fmt.Errorf("GET /api/leads/calendar: %w", err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp.StatusCode(), resp.Body())
	}
	return out, nil
}

// Leads lists the caller's leads with the given view applied server side.
func (c *Client) Leads(ctx context.Context, q views.LeadQuery) ([]*entity.Lead, error) {
	params := map[string]string{}
	if q.Search != "" {
		params["search"] = q.Search
	}
	if q.Status != "" {
		params["status"] = string(q.Status)
	}
	if q.View != "" {
		params["view"] = string(q.View)
	}
	if q.SortKey != "" {
		params["sortKey"] = string(q.SortKey)
	}
	if q.Desc {
		params["desc"] = "true"
	}

	var out []*entity.Lead
	resp, err := c.http.R().SetContext(ctx).SetQueryParams(params).SetResult(&out).Get("/api/leads")
	if err != nil {
		return nil, fmt.Errorf("GET /api/leads: %w", err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp.StatusCode(), resp.Body())
	}
	return out, nil
}

func (c *Client) RecentEvents(ctx context.Context, limit int) ([]entity.RecentEvent, error) {
	var out []entity.RecentEvent
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&out).
		Get("/api/events/recent")
	if err != nil {
		return nil, fmt.Errorf("GET /api/events/recent: %w", err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp.StatusCode(), resp.Body())
	}
	return out, nil
}

func (c *Client) MyKPIs(ctx context.Context, period kpi.Period) (kpi.UserKPIs, error) {
	var out kpi.UserKPIs
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParam("period", string(period)).
		SetResult(&out).
		Get("/api/kpis/me")
	if err != nil {
		return out, fmt.Errorf("GET /api/kpis/me: %w", err)
	}
	if resp.IsError() {
		return out, newAPIError(resp.StatusCode(), resp.Body())
	}
	return out, nil
}

// RecordActivity hands a complete draft to the server, which runs the
// logging flow itself.
func (c *Client) RecordActivity(ctx context.Context, d activity.Draft) (*activity.Result, error) {
	var out activity.Result
	if err := c.do(ctx, http.MethodPost, "/api/activities", d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
