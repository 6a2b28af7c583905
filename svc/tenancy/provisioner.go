package tenancy

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/tenantcore/pkg/logger"
	"github.com/dmitrymomot/tenantcore/pkg/pg"
	tenantpkg "github.com/dmitrymomot/tenantcore/pkg/tenancy"
)

// Provisioner prepares a tenant's dedicated store: it connects to the
// tenant DSN, applies the tenant schema migrations, and tracks progress in
// the central provisioning table that the status endpoint reads.
type Provisioner struct {
	pgCfg  pg.Config
	status ProvisioningStore
	log    *slog.Logger
}

func NewProvisioner(pgCfg pg.Config, status ProvisioningStore, log *slog.Logger) *Provisioner {
	if log == nil {
		log = slog.Default()
	}
	return &Provisioner{pgCfg: pgCfg, status: status, log: log}
}

// Provision brings the tenant store up to the current schema. The status
// record moves pending -> migrating -> ready, or to failed with the error
// recorded for the status endpoint.
func (p *Provisioner) Provision(ctx context.Context, tenant *tenantpkg.Tenant) error {
	if tenant.StoreDSN == "" {
		err := tenantpkg.ErrStoreUnresolvable
		_ = p.status.Set(ctx, tenant.ID, StatusFailed, err.Error())
		return err
	}

	if err := p.status.Set(ctx, tenant.ID, StatusMigrating, ""); err != nil {
		return err
	}

	pool, err := pg.Connect(ctx, tenant.StoreDSN, p.pgCfg)
	if err != nil {
		p.fail(ctx, tenant, err)
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, p.pgCfg.TenantMigrationsPath, p.pgCfg.MigrationsTable, p.log); err != nil {
		p.fail(ctx, tenant, err)
		return err
	}

	if err := p.status.Set(ctx, tenant.ID, StatusReady, ""); err != nil {
		return err
	}

	p.log.InfoContext(ctx, "tenant store provisioned", logger.TenantID(tenant.ID))
	return nil
}

func (p *Provisioner) fail(ctx context.Context, tenant *tenantpkg.Tenant, cause error) {
	if err := p.status.Set(ctx, tenant.ID, StatusFailed, cause.Error()); err != nil {
		p.log.ErrorContext(ctx, "failed to record provisioning failure",
			logger.TenantID(tenant.ID), logger.Errors(cause, err))
	}
}

// Ensure verifies the tenant store is ready, provisioning it when the
// status record is missing or not yet ready.
func (p *Provisioner) Ensure(ctx context.Context, tenant *tenantpkg.Tenant) error {
	rec, err := p.status.Get(ctx, tenant.ID)
	if err != nil && !errors.Is(err, ErrProvisioningNotFound) {
		return err
	}
	if rec.Ready() {
		return nil
	}
	return p.Provision(ctx, tenant)
}
