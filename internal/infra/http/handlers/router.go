package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/pipeline-dashboard/internal/auth"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/http/middleware"
)

type RouterConfig struct {
	CORSOrigins       []string
	CookieName        string
	HSTS              bool
	LoginPerMinute    int
	RegisterPerMinute int
	// TrustProxy takes the client address from X-Forwarded-For or
	// X-Real-IP. Only enable it behind a proxy that sets those headers.
	TrustProxy bool
	// RequestLog is off in tests.
	RequestLog bool
}

type Router struct {
	Config     RouterConfig
	Sessions   *auth.SessionManager
	Authn      middleware.Authenticator
	Health     *HealthHandler
	Auth       *AuthHandler
	Leads      *LeadHandler
	Events     *EventHandler
	Activities *ActivityHandler
	KPIs       *KPIHandler
	KPIConfig  *KPIConfigHandler
	Admin      *AdminHandler
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	if rt.Config.TrustProxy {
		r.Use(chimw.RealIP)
	}
	if rt.Config.RequestLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders(rt.Config.HSTS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.CSRFHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", rt.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	loginLimiter := middleware.NewRateLimiter(rt.Config.LoginPerMinute)
	registerLimiter := middleware.NewRateLimiter(rt.Config.RegisterPerMinute)
	session := middleware.Session(rt.Authn, rt.Config.CookieName)
	csrf := middleware.CSRF(rt.Sessions)
	adminOnly := middleware.RequireRoles(entity.RoleAdmin)
	starterOnly := middleware.RequireRoles(entity.RoleStarter)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimiter.Handler).Post("/login", rt.Auth.Login)
			r.With(registerLimiter.Handler).Post("/register", rt.Auth.Register)
			r.Post("/logout", rt.Auth.Logout)
			r.With(session).Get("/me", rt.Auth.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(session, csrf)

			r.Route("/leads", func(r chi.Router) {
				r.Post("/", rt.Leads.Create)
				r.Get("/", rt.Leads.List)
				r.Get("/calendar", rt.Leads.Calendar)
				r.Get("/{id}", rt.Leads.Get)
				r.Patch("/{id}", rt.Leads.UpdateNote)
				r.Patch("/{id}/status", rt.Leads.UpdateStatus)
				r.Delete("/{id}", rt.Leads.Delete)
			})

			r.Route("/events", func(r chi.Router) {
				r.With(starterOnly).Post("/call", rt.Events.CreateCall)
				r.With(starterOnly).Post("/appointment", rt.Events.CreateAppointment)
				r.With(starterOnly).Post("/closing", rt.Events.CreateClosing)
				r.Get("/recent", rt.Events.Recent)
				r.With(adminOnly).Delete("/{type}/{id}", rt.Events.Delete)
			})

			r.With(starterOnly).Post("/activities", rt.Activities.Record)

			r.Route("/kpis", func(r chi.Router) {
				r.Get("/me", rt.KPIs.Me)
				r.Get("/me/cards", rt.KPIs.MeCards)
				r.Get("/team", rt.KPIs.Team)
				r.Get("/team/export", rt.KPIs.ExportTeam)
				r.With(adminOnly).Get("/team/{id}", rt.KPIs.TeamByID)
				r.Get("/user/{id}", rt.KPIs.User)
				r.Get("/journey", rt.KPIs.Journey)
				r.With(adminOnly).Get("/overview", rt.KPIs.Overview)
			})

			r.Get("/kpi-config", rt.KPIConfig.Visible)

			r.Route("/admin", func(r chi.Router) {
				r.Use(adminOnly)

				r.Get("/users", rt.Admin.ListUsers)
				r.Get("/users/pending", rt.Admin.PendingUsers)
				r.Post("/users", rt.Admin.CreateUser)
				r.Patch("/users/{id}", rt.Admin.UpdateUser)
				r.Delete("/users/{id}", rt.Admin.DeleteUser)
				r.Post("/users/{id}/approve", rt.Admin.Approve)
				r.Post("/users/{id}/reject", rt.Admin.Reject)

				r.Get("/teams", rt.Admin.ListTeams)
				r.Post("/teams", rt.Admin.CreateTeam)
				r.Patch("/teams/{id}", rt.Admin.UpdateTeam)
				r.Delete("/teams/{id}", rt.Admin.DeleteTeam)

				r.Get("/audit-logs", rt.Admin.AuditLogs)

				r.Get("/kpi-config", rt.KPIConfig.All)
				r.Put("/kpi-config/{name}", rt.KPIConfig.Update)
			})
		})
	})
	return r
}
