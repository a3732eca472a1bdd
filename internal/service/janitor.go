// janitor.go — фоновая очистка протухших staging-наборов.
// Tracker отбрасывает протухший набор лениво при чтении; janitor
// периодически удаляет из БД строки, до которых клиент так и не дошёл.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/videoteka/internal/repository"
)

var stagingPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vt_staging_purged_total",
	Help: "Общее количество удалённых протухших staging-наборов.",
})

// JanitorService — периодическая очистка протухших staging-наборов.
type JanitorService struct {
	stagingRepo repository.StagingRepository
	ttl         time.Duration
	interval    time.Duration
	logger      *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewJanitorService создаёт сервис очистки.
// ttl — окно валидности staging-набора, interval — период обхода.
func NewJanitorService(stagingRepo repository.StagingRepository, ttl, interval time.Duration, logger *slog.Logger) *JanitorService {
	return &JanitorService{
		stagingRepo: stagingRepo,
		ttl:         ttl,
		interval:    interval,
		logger:      logger.With(slog.String("component", "janitor")),
	}
}

// Start запускает фоновую горутину очистки.
func (s *JanitorService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		s.logger.Info("Фоновая очистка staging запущена",
			slog.String("ttl", s.ttl.String()),
			slog.String("interval", s.interval.String()),
		)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Фоновая очистка staging остановлена")
				return
			case <-ticker.C:
				s.purge(ctx)
			}
		}
	}()
}

// Stop останавливает фоновую горутину и дожидается её завершения.
func (s *JanitorService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
}

// purge удаляет staging-наборы старше TTL.
func (s *JanitorService) purge(ctx context.Context) {
	olderThan := time.Now().UTC().Add(-s.ttl)

	n, err := s.stagingRepo.PurgeExpired(ctx, olderThan)
	if err != nil {
		s.logger.Error("Ошибка очистки протухших staging-наборов",
			slog.String("error", err.Error()),
		)
		return
	}

	if n > 0 {
		stagingPurgedTotal.Add(float64(n))
		s.logger.Info("Протухшие staging-наборы удалены",
			slog.Int("count", n),
		)
	}
}
