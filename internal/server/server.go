// Пакет server — HTTP-сервер Видеотеки с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на reverse proxy.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/videoteka/internal/api/handlers"
	"github.com/bigkaa/videoteka/internal/api/middleware"
	"github.com/bigkaa/videoteka/internal/config"
	"github.com/bigkaa/videoteka/internal/domain/rbac"
)

// Server — HTTP-сервер Видеотеки.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// jwtAuth — JWT middleware (может быть nil для тестирования без auth).
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, jwtAuth *middleware.JWTAuth) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Публичные endpoints: health для Kubernetes, metrics для Prometheus,
	// миниатюры раздаются без auth (URL не содержат персональных данных).
	router.Get("/health/live", handler.HealthLive)
	router.Get("/health/ready", handler.HealthReady)
	router.Get("/metrics", handler.GetMetrics)
	router.Handle("/thumbnails/*", http.StripPrefix("/thumbnails/",
		http.FileServer(http.Dir(cfg.ThumbnailDir))))

	// API — всё за JWT. Права выше customer проверяются per-route.
	router.Route("/api/v1", func(r chi.Router) {
		if jwtAuth != nil {
			r.Use(jwtAuth.Middleware())
		}

		// Каталог: чтение доступно любому авторизованному клиенту.
		r.Get("/months", handler.ListMonths)
		r.Get("/catalogs/{month}", handler.GetCatalog)

		// Список клиента.
		r.Post("/videos/{id}/toggle", handler.ToggleVideo)
		r.Get("/selection", handler.GetSelection)
		r.Delete("/selection", handler.ClearSelection)
		r.Get("/selection/pending", handler.GetPending)
		r.Delete("/selection/pending", handler.DiscardPending)
		r.Post("/selection/submit", handler.SubmitSelection)
		r.Get("/selection/history", handler.GetHistory)

		// Загрузка каталога и правка метаданных — uploader и выше.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(rbac.RoleUploader))
			r.Post("/catalogs", handler.UploadCatalog)
			r.Patch("/videos/{id}", handler.UpdateVideo)
		})

		// Сводка — только admin.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(rbac.RoleAdmin))
			r.Get("/dashboard", handler.GetDashboard)
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
