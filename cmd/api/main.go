package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"

	"github.com/jhoicas/retail-api/docs"
	"github.com/jhoicas/retail-api/internal/application/audit"
	"github.com/jhoicas/retail-api/internal/application/notification"
	"github.com/jhoicas/retail-api/internal/application/proposal"
	"github.com/jhoicas/retail-api/internal/application/sideeffect"
	"github.com/jhoicas/retail-api/internal/domain/repository"
	"github.com/jhoicas/retail-api/internal/infrastructure/memory"
	"github.com/jhoicas/retail-api/internal/infrastructure/metrics"
	"github.com/jhoicas/retail-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/retail-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/retail-api/internal/interfaces/http"
	"github.com/jhoicas/retail-api/pkg/config"
	"github.com/jhoicas/retail-api/pkg/logger"
)

// storage repos del driver elegido.
type storage struct {
	proposals     repository.ProposalRepository
	products      repository.ProductRepository
	stores        repository.StoreRepository
	companies     repository.CompanyRepository
	auditLogs     repository.AuditLogRepository
	notifications repository.NotificationRepository
	tx            proposal.TxRunner
	close         func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	// Difusión en tiempo real opcional: sin REDIS_URL solo se persisten las notificaciones.
	var publisher notification.Publisher
	if cfg.Redis.URL != "" {
		client, err := infraredis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer client.Close()
		publisher = infraredis.NewPublisher(client, cfg.Redis.ChannelPrefix)
	}

	appMetrics := metrics.New(nil)
	effects := sideeffect.NewEmitter(log, cfg.Proposal.SideEffectTimeout, appMetrics)

	proposalUC := proposal.NewProposalUseCase(proposal.Deps{
		Proposals: store.proposals,
		Products:  store.products,
		Stores:    store.stores,
		Tx:        store.tx,
		Audit:     audit.NewRecorder(store.auditLogs, effects),
		Notifier:  notification.NewNotifier(store.notifications, publisher, effects),
		Effects:   effects,
		Metrics:   appMetrics,
		Log:       log,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	docs.SwaggerInfo.Title = cfg.App.Name
	if _, err := os.Stat(cfg.App.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.App.SwaggerFile,
			Path:     "docs",
			Title:    cfg.App.Name,
		}))
	} else {
		log.Warn().Str("file", cfg.App.SwaggerFile).Msg("swagger.json no encontrado, UI deshabilitada")
	}
	app.Get("/swagger/doc.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		}
		c.Type("json")
		return c.SendString(doc)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProposalUC:    proposalUC,
		Companies:     store.companies,
		RequireModule: cfg.Proposal.RequireModule,
		JWTSecret:     cfg.JWT.Secret,
		Log:           log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.DB.Driver == config.StorageMemory {
		// Sin catálogo de módulos en memoria: la verificación de módulo queda deshabilitada.
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		db := memory.NewDB()
		return &storage{
			proposals:     memory.NewProposalRepository(db),
			products:      memory.NewProductRepository(db),
			stores:        memory.NewStoreRepository(db),
			auditLogs:     memory.NewAuditLogRepository(db),
			notifications: memory.NewNotificationRepository(db),
			close:         func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema aplicado")
	}
	return &storage{
		proposals:     postgres.NewProposalRepository(pool),
		products:      postgres.NewProductRepository(pool),
		stores:        postgres.NewStoreRepository(pool),
		companies:     postgres.NewCompanyRepository(pool),
		auditLogs:     postgres.NewAuditLogRepository(pool),
		notifications: postgres.NewNotificationRepository(pool),
		tx:            postgres.NewTxRunner(pool),
		close:         pool.Close,
	}, nil
}
