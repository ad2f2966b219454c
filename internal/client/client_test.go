package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/pipeline-dashboard/internal/activity"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/lifecycle"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
	"github.com/xavierca1/pipeline-dashboard/internal/views"
)

// fakeAPI mimics the parts of the server the client relies on: a session
// cookie from login and a CSRF header on writes.
type fakeAPI struct {
	calls    []activity.CallInput
	statuses []activity.StatusInput
}

func (f *fakeAPI) routes() http.Handler {
	r := chi.NewRouter()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie("session"); err != nil || c.Value != "s3cr3t" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Nicht authentifiziert", "code": "UNAUTHORIZED"})
				return
			}
			if r.Method != http.MethodGet && r.Header.Get(csrfHeader) != "csrf-1" {
				writeJSON(w, http.StatusForbidden, map[string]string{"detail": "CSRF-Token ungültig oder abgelaufen", "code": "FORBIDDEN"})
				return
			}
			next(w, r)
		}
	}

	r.Post("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		if in["password"] != "geheim123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Ungültige E-Mail oder Passwort", "code": "UNAUTHORIZED"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s3cr3t", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{
			"user":      entity.User{ID: 3, Email: in["email"], Role: entity.RoleStarter},
			"csrfToken": "csrf-1",
		})
	})
	r.Post("/api/events/call", authed(func(w http.ResponseWriter, r *http.Request) {
		var in activity.CallInput
		json.NewDecoder(r.Body).Decode(&in)
		f.calls = append(f.calls, in)
		writeJSON(w, http.StatusCreated, entity.CallEvent{ID: 11, UserID: 3, LeadID: in.LeadID, Outcome: in.Outcome})
	}))
	r.Patch("/api/leads/{id}/status", authed(func(w http.ResponseWriter, r *http.Request) {
		var in activity.StatusInput
		json.NewDecoder(r.Body).Decode(&in)
		f.statuses = append(f.statuses, in)
		writeJSON(w, http.StatusOK, entity.Lead{ID: 7, CurrentStatus: in.ToStatus})
	}))
	r.Get("/api/leads", authed(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		writeJSON(w, http.StatusOK, []entity.Lead{{ID: 1, FullName: q.Get("search") + "|" + q.Get("sortKey") + "|" + q.Get("desc")}})
	}))
	r.Get("/api/leads/calendar", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []entity.CalendarEntry{})
	}))
	r.Post("/api/leads", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"detail": []map[string]string{{"msg": "fullName ist erforderlich"}, {"msg": "phone ist erforderlich"}},
			"code":   "VALIDATION_ERROR",
		})
	}))
	return r
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api.routes())
	t.Cleanup(srv.Close)
	return New(srv.URL), api
}

func TestLoginStoresSessionAndCSRF(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.CreateCall(ctx, activity.CallInput{Outcome: entity.CallAnswered})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Nicht authentifiziert", apiErr.Detail)

	_, err = c.Login(ctx, "anna@example.com", "falsch")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Ungültige E-Mail oder Passwort", apiErr.Detail)

	u, err := c.Login(ctx, "anna@example.com", "geheim123")
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.ID)
	assert.Equal(t, "csrf-1", c.CSRFToken())

	ev, err := c.CreateCall(ctx, activity.CallInput{Outcome: entity.CallAnswered})
	require.NoError(t, err)
	assert.Equal(t, int64(11), ev.ID)
}

func TestValidationDetailListIsJoined(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	_, err := c.Login(ctx, "anna@example.com", "geheim123")
	require.NoError(t, err)

	_, err = c.CreateLead(ctx, activity.LeadInput{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.Equal(t, "fullName ist erforderlich, phone ist erforderlich", apiErr.Detail)
}

func TestLeadsSendsViewQuery(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	_, err := c.Login(ctx, "anna@example.com", "geheim123")
	require.NoError(t, err)

	leads, err := c.Leads(ctx, views.LeadQuery{Search: "huber", SortKey: views.SortByName, Desc: true})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "huber|name|true", leads[0].FullName)
}

func TestRecorderRunsAgainstClient(t *testing.T) {
	c, api := newTestClient(t)
	ctx := context.Background()
	_, err := c.Login(ctx, "anna@example.com", "geheim123")
	require.NoError(t, err)

	d := activity.NewDraft(lifecycle.ActionCall)
	d.Lead = &activity.LeadRef{ID: 7, Status: entity.StatusCallScheduled}
	d.Call.Outcome = activity.CallOutcome(entity.CallDeclined)

	res, err := activity.NewRecorder(c, logger.Nop()).Submit(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.LeadID)
	require.Len(t, api.calls, 1)
	assert.Equal(t, entity.CallDeclined, api.calls[0].Outcome)
	require.Len(t, api.statuses, 1)
	assert.Equal(t, entity.StatusClosedLost, api.statuses[0].ToStatus)
}

func TestDetailMessage(t *testing.T) {
	cases := map[string]string{
		`"Lead nicht gefunden"`:            "Lead nicht gefunden",
		`[{"msg":"a"},{"msg":"b"}]`:        "a, b",
		`["x",{"msg":"y"}]`:                "x, y",
		`{"field":"email","reason":"dup"}`: `{"field":"email","reason":"dup"}`,
		`null`:                             "",
	}
	for raw, want := range cases {
		assert.Equal(t, want, DetailMessage(json.RawMessage(raw)), raw)
	}
}

func TestNewAPIErrorFallsBackToStatusText(t *testing.T) {
	e := newAPIError(http.StatusBadGateway, []byte("<html>bad gateway</html>"))
	assert.Equal(t, "<html>bad gateway</html>", e.Detail)

	e = newAPIError(http.StatusInternalServerError, []byte(`{"code":"INTERNAL_ERROR"}`))
	assert.Equal(t, "Internal Server Error", e.Detail)
}
