// Точка входа Видеотеки — портал клиентского выбора видео.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// создаёт репозитории и сервисный слой, запускает фоновую чистку
// просроченных отложенных изменений и HTTP-сервер с JWT middleware
// и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/bigkaa/videoteka/internal/api/handlers"
	"github.com/bigkaa/videoteka/internal/api/middleware"
	"github.com/bigkaa/videoteka/internal/config"
	"github.com/bigkaa/videoteka/internal/database"
	"github.com/bigkaa/videoteka/internal/repository"
	"github.com/bigkaa/videoteka/internal/selection"
	"github.com/bigkaa/videoteka/internal/server"
	"github.com/bigkaa/videoteka/internal/service"
	"github.com/bigkaa/videoteka/internal/storage"
	"github.com/bigkaa/videoteka/internal/xlsx"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Видеотека запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Repositories
	runner := repository.NewTxRunner(pool)
	batchRepo := repository.NewBatchRepository(pool)
	videoRepo := repository.NewVideoRepository(pool)
	ownedRepo := repository.NewOwnedListRepository(pool)
	snapshotRepo := repository.NewSnapshotRepository(pool)
	stagingRepo := repository.NewStagingRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	listUpdater := repository.NewListUpdater(runner)

	// 6. Хранилище миниатюр на диске
	thumbStore, err := storage.NewThumbnailStore(cfg.ThumbnailDir, cfg.ThumbnailBaseURL())
	if err != nil {
		logger.Error("Ошибка создания хранилища миниатюр",
			slog.String("dir", cfg.ThumbnailDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// 7. Трекер отложенных изменений
	tracker := selection.NewTracker(stagingRepo, cfg.PendingTTL, logger)

	// 8. Почтовые уведомления (NoopNotifier, если SMTP не настроен)
	var notifier service.NotificationGateway
	if cfg.MailEnabled() {
		notifier = service.NewEmailNotifier(service.SMTPConfig{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			From:       cfg.MailFrom,
			Recipients: cfg.NotifyEmails,
		}, logger)
		logger.Info("Почтовые уведомления включены",
			slog.String("smtp_host", cfg.SMTPHost),
			slog.Int("recipients", len(cfg.NotifyEmails)),
		)
	} else {
		notifier = service.NewNoopNotifier(logger)
		logger.Warn("VT_SMTP_HOST не задан, уведомления о заявках отключены")
	}

	// 9. Services
	catalogSvc := service.NewCatalogService(
		batchRepo, videoRepo, runner,
		xlsx.NewParser(), thumbStore,
		cfg.CatalogCacheSize, cfg.CatalogCacheTTL,
		logger,
	)
	selectionSvc := service.NewSelectionService(
		ownedRepo, videoRepo, snapshotRepo,
		catalogSvc, tracker,
		logger,
	)
	submissionSvc := service.NewSubmissionService(
		listUpdater, ownedRepo, videoRepo, snapshotRepo, customerRepo,
		tracker, notifier,
		logger,
	)
	dashboardSvc := service.NewDashboardService(
		batchRepo, videoRepo, ownedRepo, snapshotRepo,
		logger,
	)
	customerSvc := service.NewCustomerService(customerRepo, logger)

	// 10. Фоновая чистка просроченного staging
	janitor := service.NewJanitorService(stagingRepo, cfg.PendingTTL, cfg.PendingPurgeInterval, logger)
	janitor.Start(ctx)

	// 11. Readiness checkers (PostgreSQL + Supabase Auth)
	pgChecker := database.NewReadinessChecker(pool)
	authChecker := middleware.NewAuthReadinessChecker(cfg.JWTJWKSURL, cfg.JWKSClientTimeout)
	healthHandler := handlers.NewHealthHandler(pgChecker, authChecker)

	// 12. API handler
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		catalogSvc,
		selectionSvc,
		submissionSvc,
		dashboardSvc,
		customerSvc,
		logger,
	)

	// 13. JWT middleware
	jwtAuth, err := middleware.NewJWTAuth(
		cfg.JWTJWKSURL,
		cfg.JWTIssuer,
		cfg.JWKSClientTimeout,
		cfg.JWKSRefreshInterval,
		cfg.JWTLeeway,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer jwtAuth.Close()
	logger.Info("JWT middleware инициализирован",
		slog.String("jwks_url", cfg.JWTJWKSURL),
		slog.String("issuer", cfg.JWTIssuer),
	)

	// 14. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 15. Graceful shutdown фоновых задач
	logger.Info("Останавливаем фоновые задачи...")
	janitor.Stop()

	logger.Info("Видеотека остановлена")
}
