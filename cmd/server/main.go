package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenantcore/pkg/config"
	"github.com/dmitrymomot/tenantcore/pkg/cookie"
	"github.com/dmitrymomot/tenantcore/pkg/crossref"
	"github.com/dmitrymomot/tenantcore/pkg/httpserver"
	"github.com/dmitrymomot/tenantcore/pkg/identity"
	"github.com/dmitrymomot/tenantcore/pkg/logger"
	"github.com/dmitrymomot/tenantcore/pkg/pg"
	"github.com/dmitrymomot/tenantcore/pkg/redis"
	"github.com/dmitrymomot/tenantcore/pkg/session"
	"github.com/dmitrymomot/tenantcore/pkg/structure"
	"github.com/dmitrymomot/tenantcore/pkg/tenancy"
	tenancysvc "github.com/dmitrymomot/tenantcore/svc/tenancy"
)

type appConfig struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"APP_NAME" envDefault:"tenantcore"`

	HTTP    httpserver.Config
	PG      pg.Config
	Redis   redis.Config
	Cookie  cookie.Config
	Session session.Config
	Tenancy tenancysvc.Config
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Service),
		logger.WithContextExtractors(
			tenancy.LoggerExtractor(),
			identity.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	central, err := pg.ConnectCentral(ctx, cfg.PG)
	if err != nil {
		log.ErrorContext(ctx, "central store connection failed", logger.Error(err))
		os.Exit(1)
	}
	defer central.Close()

	if err := pg.Migrate(ctx, central, cfg.PG.CentralMigrationsPath, cfg.PG.MigrationsTable, log); err != nil {
		log.ErrorContext(ctx, "central migrations failed", logger.Error(err))
		os.Exit(1)
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		log.ErrorContext(ctx, "redis connection failed", logger.Error(err))
		os.Exit(1)
	}
	defer redisClient.Close()

	cookieMgr, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		log.ErrorContext(ctx, "cookie manager init failed", logger.Error(err))
		os.Exit(1)
	}

	sessions := session.New(
		session.NewRedisStore(redisClient),
		session.NewCookieTransport(cookieMgr, cfg.Session.CookieName, cfg.Session.SecureCookies),
		cfg.Session,
	)

	stores := tenancy.NewPoolRegistry(func(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
		return pg.Connect(ctx, dsn, cfg.PG)
	})
	defer stores.Close()

	associations := identity.NewPGAssociationStore(central)
	provider := tenancy.NewPGProvider(central)

	// The mirror opener resolves each tenant's own store, so identity fan-out
	// reaches every associated tenant regardless of the request's active one.
	mirrors := func(ctx context.Context, tenantID uuid.UUID) (identity.MirrorStore, error) {
		t, err := provider.GetByID(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		store, err := stores.Resolve(ctx, t)
		if err != nil {
			return nil, err
		}
		return identity.NewPGMirrorStore(store), nil
	}

	synchronizer := identity.NewSynchronizer(
		identity.NewPGCentralStore(central),
		associations,
		mirrors,
		log,
	)

	svc := tenancysvc.New(cfg.Tenancy, tenancysvc.Deps{
		Sessions:     sessions,
		Cookies:      cookieMgr,
		Provider:     provider,
		Central:      central,
		Stores:       stores,
		Associations: associations,
		Synchronizer: synchronizer,
		Structures:   structure.NewPGStore(),
		Refs:         crossref.NewPGStore(central),
		Provisioning: tenancysvc.NewPGProvisioningStore(central),
		Logger:       log,
	})

	router := svc.Routes(func(ctx context.Context, externalID string, payload []byte) error {
		log.InfoContext(ctx, "webhook received", "external_id", externalID, "size", len(payload))
		return nil
	}, nil)
	router.Get("/health", httpserver.HealthCheckHandler(ctx, log,
		pg.Healthcheck(central),
		redis.Healthcheck(redisClient),
	))

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	if err := srv.Run(ctx, router); err != nil {
		log.ErrorContext(ctx, "server exited with error", logger.Error(err))
		os.Exit(1)
	}
}
