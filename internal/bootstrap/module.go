package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"faultline/internal/bootstrap/config"
	"faultline/internal/bootstrap/database"
	"faultline/internal/bootstrap/logging"
	"faultline/internal/bootstrap/roles"
	"faultline/internal/domain/defect"
	cacheinfra "faultline/internal/infrastructure/cache"
	sqliterepo "faultline/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "faultline/internal/infrastructure/persistence/sqlite/uow"
	"faultline/internal/infrastructure/remote"
	"faultline/internal/ports"
	httptransport "faultline/internal/transport/http"
	defectuc "faultline/internal/usecase/defect"
	syncuc "faultline/internal/usecase/sync"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewDefectRepository,
			fx.As(new(ports.DefectRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewSettingsRepository,
			fx.As(new(ports.SettingsRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewSequenceRepository,
			fx.As(new(ports.SequenceRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewOutboxRepository,
			fx.As(new(ports.OutboxRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(provideRoleTable),
	fx.Provide(provideGateway),
	fx.Provide(defectuc.NewCodeGenerator),
	fx.Provide(defectuc.NewService),
	fx.Provide(provideProcessor),
	fx.Provide(httptransport.NewHandler),
	fx.Provide(provideHTTPServer),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideRoleTable(ctx context.Context, cfg config.Config) (defect.RoleTable, error) {
	return roles.Load(ctx, cfg.Roles.File)
}

func provideGateway(lc fx.Lifecycle, cfg config.Config) ports.RemoteGateway {
	gateway := remote.NewNATSGateway(remote.Config{
		URL:           cfg.Remote.URL,
		SubjectPrefix: cfg.Remote.SubjectPrefix,
		Timeout:       cfg.Remote.Timeout(),
	})

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			gateway.Close()
			return nil
		},
	})

	return gateway
}

func provideProcessor(outbox ports.OutboxRepository, gateway ports.RemoteGateway, cfg config.Config) *syncuc.Processor {
	return syncuc.NewProcessor(outbox, gateway, cfg.Remote.Timeout())
}

func provideHTTPServer(cfg config.Config, handler *httptransport.Handler) *httptransport.Server {
	return httptransport.NewServer(cfg.HTTP.Addr, handler)
}
