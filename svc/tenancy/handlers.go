package tenancy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantcore/core"
	"github.com/dmitrymomot/tenantcore/pkg/crossref"
	"github.com/dmitrymomot/tenantcore/pkg/logger"
	"github.com/dmitrymomot/tenantcore/pkg/structure"
	tenantpkg "github.com/dmitrymomot/tenantcore/pkg/tenancy"
)

type provisioningStatusResponse struct {
	TenantID string `json:"tenant_id"`
	Status   string `json:"status"`
	IsReady  bool   `json:"is_ready"`
	Error    string `json:"error,omitempty"`
}

// handleProvisioningStatus reports whether a tenant store is ready to serve.
// It reads only the central provisioning table, so it works while the tenant
// store itself is still being created.
func (s *Service) handleProvisioningStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, s.cfg.RouteParam))
	if err != nil {
		core.JSONError(w, core.ErrBadRequest)
		return
	}

	rec, err := s.provisioning.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrProvisioningNotFound) {
			core.JSONError(w, core.ErrNotFound)
			return
		}
		s.log.ErrorContext(r.Context(), "failed to read provisioning status", logger.Error(err))
		core.JSONError(w, core.ErrInternalServerError)
		return
	}

	core.JSON(w, http.StatusOK, provisioningStatusResponse{
		TenantID: rec.TenantID.String(),
		Status:   string(rec.Status),
		IsReady:  rec.Ready(),
		Error:    rec.Error,
	})
}

// WebhookProcessor handles a webhook payload inside the resolved tenant's
// store context.
type WebhookProcessor func(ctx context.Context, externalID string, payload []byte) error

type webhookEnvelope struct {
	ExternalID string `json:"external_id"`
}

// WebhookHandler serves callbacks from external systems that arrive without
// any tenant context. The external identifier in the payload is resolved to
// a tenant through the central cross-reference index, the tenant store is
// entered, and the processor runs inside that scope.
func (s *Service) WebhookHandler(process WebhookProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			core.JSONError(w, core.ErrBadRequest)
			return
		}

		var envelope webhookEnvelope
		if err := json.Unmarshal(payload, &envelope); err != nil || envelope.ExternalID == "" {
			core.JSONError(w, core.ErrBadRequest)
			return
		}

		tenantID, err := s.refs.Resolve(r.Context(), envelope.ExternalID)
		if err != nil {
			if errors.Is(err, crossref.ErrNotFound) {
				core.JSONError(w, core.ErrNotFound)
				return
			}
			s.log.ErrorContext(r.Context(), "cross-reference lookup failed", logger.Error(err))
			core.JSONError(w, core.ErrInternalServerError)
			return
		}

		tenant, err := s.provider.GetByID(r.Context(), tenantID)
		if err != nil {
			core.JSONError(w, core.ErrNotFound)
			return
		}

		tc := tenantpkg.NewContext(s.central, s.stores)
		ctx := tenantpkg.WithContext(r.Context(), tc)
		if err := tc.Enter(ctx, tenant); err != nil {
			s.log.ErrorContext(ctx, "failed to enter tenant store for webhook",
				logger.TenantID(tenant.ID), logger.Error(err))
			core.JSONError(w, core.ErrServiceUnavailable)
			return
		}
		defer tc.Exit()

		if err := process(ctx, envelope.ExternalID, payload); err != nil {
			s.log.ErrorContext(ctx, "webhook processing failed",
				logger.TenantID(tenant.ID), logger.Error(err))
			core.JSONError(w, core.ErrInternalServerError)
			return
		}

		core.JSON(w, http.StatusAccepted, map[string]string{"tenant_id": tenantID.String()})
	}
}

type structureResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	Active  bool   `json:"active"`
}

// handleListStructures lists the structures of the active tenant.
func (s *Service) handleListStructures(w http.ResponseWriter, r *http.Request) {
	items, err := s.structures.List(r.Context())
	if err != nil {
		s.log.ErrorContext(r.Context(), "failed to list structures", logger.Error(err))
		core.JSONError(w, core.ErrInternalServerError)
		return
	}

	activeID, _ := structure.ID(r.Context())

	out := make([]structureResponse, 0, len(items))
	for _, item := range items {
		out = append(out, structureResponse{
			ID:      item.ID.String(),
			Name:    item.Name,
			City:    item.City,
			Country: item.Country,
			Active:  item.ID == activeID,
		})
	}
	core.JSON(w, http.StatusOK, out)
}

type selectStructureRequest struct {
	StructureID string `json:"structure_id"`
}

// handleSelectStructure switches the active structure and persists the
// choice to the session and the long-lived cookie.
func (s *Service) handleSelectStructure(w http.ResponseWriter, r *http.Request) {
	var req selectStructureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.JSONError(w, core.ErrBadRequest)
		return
	}

	id, err := uuid.Parse(req.StructureID)
	if err != nil {
		core.JSONError(w, core.ErrBadRequest)
		return
	}

	if _, err := s.structures.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, structure.ErrStructureNotFound) {
			core.JSONError(w, core.ErrNotFound)
			return
		}
		s.log.ErrorContext(r.Context(), "failed to load structure", logger.Error(err))
		core.JSONError(w, core.ErrInternalServerError)
		return
	}

	s.persistStructure(r.Context(), w, r, id)
	core.JSON(w, http.StatusOK, map[string]string{"structure_id": id.String()})
}
