package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/auth"
	"github.com/frahmantamala/digital-notary/internal/company"
	"github.com/frahmantamala/digital-notary/internal/contract"
	"github.com/frahmantamala/digital-notary/internal/mandate"
	"github.com/frahmantamala/digital-notary/internal/office"
	"github.com/frahmantamala/digital-notary/internal/seed"
	"github.com/frahmantamala/digital-notary/internal/transport/middleware"
	"github.com/frahmantamala/digital-notary/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers are the domain handlers mounted under /api.
type Handlers struct {
	Auth     *auth.Handler
	Company  *company.Handler
	Mandate  *mandate.Handler
	Contract *contract.Handler
	Office   *office.Handler
	Seed     *seed.Handler
}

// Options carries the cross-cutting pieces of the router.
type Options struct {
	DB          *sql.DB
	Driver      string
	Origins     []string
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.Metrics
	MetricsPath string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options, logger *slog.Logger) {
	healthHandler := NewHealthHandler(opts.DB, opts.Driver)

	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware)
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Instrument)
	}
	router.Use(middleware.CORS(opts.Origins))
	if opts.RateLimiter != nil {
		router.Use(opts.RateLimiter.Handler)
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, internal.NewNotFoundError("Route not found", internal.ErrorCode("ROUTE_NOT_FOUND")))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		appErr := internal.NewValidationError("Method not allowed", internal.ErrorCode("METHOD_NOT_ALLOWED"))
		appErr.StatusCode = http.StatusMethodNotAllowed
		writeError(w, appErr)
	})

	router.Get("/health", healthHandler.healthCheckHandler)
	router.Get("/ping", healthHandler.pingHandler)
	if opts.Metrics != nil {
		router.Handle(opts.MetricsPath, opts.Metrics.Handler())
	}
	router.Handle(swagger.SpecPath, swagger.SpecHandler())
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/mock-login", h.Auth.MockLogin)
			ar.Post("/logout", h.Auth.Logout)
		})
		r.Get("/contract-types", h.Contract.Types)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.SessionMiddleware)

			pr.Get("/current-user", h.Auth.CurrentUser)
			pr.Post("/set-context", h.Auth.SetContext)

			pr.Route("/contracts", func(cr chi.Router) {
				cr.Post("/", h.Contract.Create)
				cr.Get("/", h.Contract.List)
				cr.Get("/{id}", h.Contract.Get)
				cr.Patch("/{id}", h.Contract.Rename)
			})

			pr.Route("/virtual-offices", func(or chi.Router) {
				or.Post("/", h.Office.Create)
				or.Get("/", h.Office.List)
				or.Get("/invitations", h.Office.Invitations)
				or.Get("/{id}", h.Office.Get)
				or.Patch("/{id}", h.Office.Update)
				or.Get("/{id}/participants", h.Office.Participants)
				or.Post("/{id}/participants", h.Office.Invite)
				or.Patch("/{id}/participants/{participantId}", h.Office.Respond)
				or.Get("/{id}/documents", h.Office.Documents)
				or.Post("/{id}/documents/{documentId}/sign", h.Office.Sign)
			})

			pr.Route("/companies", func(cr chi.Router) {
				cr.Post("/connect", h.Company.Connect)
				cr.Get("/{ico}", h.Company.Profile)
				cr.Get("/{ico}/audit-log", h.Company.AuditLog)
				cr.Post("/{ico}/security-settings", h.Company.UpdateSecuritySettings)
				cr.Get("/{ico}/mandates", h.Mandate.ListForCompany)
				cr.Post("/{ico}/mandates", h.Mandate.Invite)
			})

			pr.Get("/mandates", h.Mandate.ListMine)
			pr.Patch("/mandates/{id}", h.Mandate.Respond)

			pr.Post("/reset-data", h.Seed.ResetData)
		})
	})
}

func writeError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	writeHealthJSON(w, status, body)
}
