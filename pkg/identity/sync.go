package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantcore/pkg/tenancy"
)

// Synchronizer keeps global-ID-keyed identities consistent between the
// central store and the tenant mirrors, and substitutes the in-memory
// principal once a tenant context has been entered.
type Synchronizer struct {
	central      CentralStore
	associations AssociationStore
	mirrors      MirrorOpener
	log          *slog.Logger
}

// NewSynchronizer wires the synchronizer to its stores.
func NewSynchronizer(central CentralStore, associations AssociationStore, mirrors MirrorOpener, log *slog.Logger) *Synchronizer {
	if log == nil {
		log = slog.Default()
	}
	return &Synchronizer{
		central:      central,
		associations: associations,
		mirrors:      mirrors,
		log:          log,
	}
}

// SyncFailure records one tenant mirror that did not receive a sync write.
type SyncFailure struct {
	TenantID uuid.UUID
	Err      error
}

// SyncReport is the outcome of one outgoing fan-out. The central write it
// follows is already committed; failed mirrors are divergent until retried.
type SyncReport struct {
	GlobalID uuid.UUID
	Synced   []uuid.UUID
	Failed   []SyncFailure
}

// Divergent reports whether any tenant mirror missed the sync write.
func (r *SyncReport) Divergent() bool {
	return r != nil && len(r.Failed) > 0
}

// Err returns ErrSyncDivergence joined with the per-tenant causes, or nil.
func (r *SyncReport) Err() error {
	if !r.Divergent() {
		return nil
	}
	errs := make([]error, 0, len(r.Failed)+1)
	errs = append(errs, ErrSyncDivergence)
	for _, f := range r.Failed {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// UpdateCentral writes the synced attribute set on the central identity and
// fans the change out to every associated tenant mirror.
//
// The central write is authoritative and returns an error only if it fails.
// Mirror writes are independent per-tenant operations: one slow or failed
// tenant store neither blocks nor rolls back the central write. Failures are
// logged for retry/alerting and reported in the SyncReport.
func (s *Synchronizer) UpdateCentral(ctx context.Context, globalID uuid.UUID, attrs SyncedAttributes) (*SyncReport, error) {
	if err := s.central.UpdateSynced(ctx, globalID, attrs); err != nil {
		return nil, err
	}

	return s.fanOut(ctx, globalID, attrs, nil), nil
}

// Propagate re-pushes the current central attribute set to every associated
// tenant mirror. Used to heal divergence and to backfill mirrors after a new
// association is created.
func (s *Synchronizer) Propagate(ctx context.Context, globalID uuid.UUID) (*SyncReport, error) {
	ci, err := s.central.GetByGlobalID(ctx, globalID)
	if err != nil {
		return nil, err
	}

	return s.fanOut(ctx, globalID, ci.Synced(), nil), nil
}

// RetryFailed re-syncs only the tenants that failed in a previous report.
func (s *Synchronizer) RetryFailed(ctx context.Context, report *SyncReport) (*SyncReport, error) {
	if !report.Divergent() {
		return &SyncReport{GlobalID: report.GlobalID}, nil
	}

	ci, err := s.central.GetByGlobalID(ctx, report.GlobalID)
	if err != nil {
		return nil, err
	}

	only := make(map[uuid.UUID]struct{}, len(report.Failed))
	for _, f := range report.Failed {
		only[f.TenantID] = struct{}{}
	}

	return s.fanOut(ctx, report.GlobalID, ci.Synced(), only), nil
}

// fanOut writes attrs to each associated tenant mirror, one independent
// per-store operation at a time, isolating failures per tenant.
func (s *Synchronizer) fanOut(ctx context.Context, globalID uuid.UUID, attrs SyncedAttributes, only map[uuid.UUID]struct{}) *SyncReport {
	report := &SyncReport{GlobalID: globalID}

	tenantIDs, err := s.associations.ListTenants(ctx, globalID)
	if err != nil {
		s.log.ErrorContext(ctx, "identity sync: listing associations failed",
			"global_id", globalID.String(), "error", err)
		report.Failed = append(report.Failed, SyncFailure{Err: err})
		return report
	}

	for _, tenantID := range tenantIDs {
		if only != nil {
			if _, ok := only[tenantID]; !ok {
				continue
			}
		}

		if err := s.syncOne(ctx, tenantID, globalID, attrs); err != nil {
			s.log.ErrorContext(ctx, "identity sync: tenant mirror write failed",
				"global_id", globalID.String(), "tenant_id", tenantID.String(), "error", err)
			report.Failed = append(report.Failed, SyncFailure{TenantID: tenantID, Err: err})
			continue
		}

		report.Synced = append(report.Synced, tenantID)
	}

	return report
}

func (s *Synchronizer) syncOne(ctx context.Context, tenantID, globalID uuid.UUID, attrs SyncedAttributes) error {
	mirror, err := s.mirrors(ctx, tenantID)
	if err != nil {
		return err
	}
	return mirror.UpsertSynced(ctx, globalID, attrs)
}

// Substitute replaces the in-memory principal with the tenant mirror sharing
// the same global ID, so subsequent authorization checks use tenant-scoped
// roles. Called after a successful tenant context switch.
//
// Super-admin principals are exempt and keep presenting the central identity
// inside every tenant. A missing mirror for an authorized identity is a hard
// error: the association exists, so sync was supposed to produce the row.
func (s *Synchronizer) Substitute(ctx context.Context) (context.Context, error) {
	p, ok := FromContext(ctx)
	if !ok || p.SuperAdmin {
		return ctx, nil
	}

	tenant, ok := tenancy.CurrentTenant(ctx)
	if !ok {
		return ctx, nil
	}

	mirror, err := s.mirrors(ctx, tenant.ID)
	if err != nil {
		return ctx, err
	}

	ti, err := mirror.GetByGlobalID(ctx, p.GlobalID)
	if err != nil {
		return ctx, err
	}

	tenantID := tenant.ID
	return WithPrincipal(ctx, &Principal{
		GlobalID:  ti.GlobalID,
		FirstName: ti.FirstName,
		LastName:  ti.LastName,
		Email:     ti.Email,
		Roles:     ti.Roles,
		TenantID:  &tenantID,
	}), nil
}

// EnterHook adapts Substitute to the tenancy middleware hook shape.
func (s *Synchronizer) EnterHook() tenancy.EnterHook {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) (context.Context, error) {
		return s.Substitute(ctx)
	}
}
