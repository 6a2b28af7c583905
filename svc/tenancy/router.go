package tenancy

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tenantcore/core"
	tenantpkg "github.com/dmitrymomot/tenantcore/pkg/tenancy"
)

// Routes mounts the tenancy HTTP surface. The provisioning status endpoint
// stays outside the tenant pipeline because the tenant store may not exist
// yet. Tenant-scoped application routes are attached through app, already
// wrapped in the session and tenancy middleware.
func (s *Service) Routes(webhook WebhookProcessor, app func(r chi.Router)) chi.Router {
	r := chi.NewRouter()

	r.Get("/tenants/{"+s.cfg.RouteParam+"}/status", s.handleProvisioningStatus)

	r.Post("/webhooks/{provider}", s.WebhookHandler(webhook))

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)
		r.Use(s.Middleware())

		r.Route("/tenants/{"+s.cfg.RouteParam+"}", func(r chi.Router) {
			r.Use(tenantpkg.RequireTenant(s.errorHandler))

			r.Get("/structures", s.handleListStructures)
			r.Put("/structures/current", s.handleSelectStructure)

			if app != nil {
				app(r)
			}
		})
	})

	return r
}

func (s *Service) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	core.JSONError(w, core.NewHTTPError(http.StatusNotFound, "tenant_not_found"))
}
