// catalog.go — сервис месячных каталогов.
// Загрузка xlsx-партии, просмотр каталога с LRU-кэшем,
// административная правка метаданных видео.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/videoteka/internal/domain/model"
	"github.com/bigkaa/videoteka/internal/repository"
	"github.com/bigkaa/videoteka/internal/xlsx"
)

// Prometheus-метрики кэша каталога.
var (
	catalogCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vt_catalog_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш каталогов.",
	})
	catalogCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vt_catalog_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша каталогов.",
	})
)

// CatalogParser — разбор xlsx-файла каталога.
type CatalogParser interface {
	Parse(r io.Reader) (*xlsx.ParseResult, error)
}

// ThumbnailSaver — сохранение миниатюр на диск.
type ThumbnailSaver interface {
	Save(month, videoID, ext string, data []byte) (string, error)
	RemoveMonth(month string) error
}

// CatalogService — сервис месячных каталогов.
// Каталог после публикации неизменен (кроме правок метаданных),
// поэтому месяц целиком кэшируется в expirable LRU.
type CatalogService struct {
	batchRepo repository.BatchRepository
	videoRepo repository.VideoRepository
	runner    *repository.TxRunner
	parser    CatalogParser
	thumbs    ThumbnailSaver
	cache     *expirable.LRU[string, *model.Catalog]
	logger    *slog.Logger
}

// NewCatalogService создаёт сервис каталогов.
// cacheSize — максимальное число месяцев в кэше, cacheTTL — время жизни записи.
func NewCatalogService(
	batchRepo repository.BatchRepository,
	videoRepo repository.VideoRepository,
	runner *repository.TxRunner,
	parser CatalogParser,
	thumbs ThumbnailSaver,
	cacheSize int,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		batchRepo: batchRepo,
		videoRepo: videoRepo,
		runner:    runner,
		parser:    parser,
		thumbs:    thumbs,
		cache:     expirable.NewLRU[string, *model.Catalog](cacheSize, nil, cacheTTL),
		logger:    logger.With(slog.String("component", "catalog_service")),
	}
}

// Upload публикует месячную партию из xlsx-файла.
// Партия и все её видео создаются одной транзакцией; миниатюры
// сохраняются на диск best-effort (ошибка миниатюры не отменяет партию).
func (s *CatalogService) Upload(ctx context.Context, month, name, uploadedBy string, r io.Reader) (*model.Catalog, error) {
	if err := xlsx.ValidateMonth(month); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err) //nolint:errorlint // намеренный двойной wrap
	}

	// Месяц уникален — проверяем до разбора файла
	if _, err := s.batchRepo.GetByMonth(ctx, month); err == nil {
		return nil, fmt.Errorf("%w: каталог за месяц %s уже опубликован", ErrConflict, month)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("проверка существующего месяца: %w", err)
	}

	parsed, err := s.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err) //nolint:errorlint // намеренный двойной wrap
	}

	now := time.Now().UTC()
	batch := &model.Batch{
		ID:        uuid.New().String(),
		Name:      name,
		Month:     month,
		CreatedBy: uploadedBy,
		CreatedAt: now,
	}
	if batch.Name == "" {
		batch.Name = "Каталог " + month
	}

	videos := make([]*model.Video, 0, len(parsed.Videos))
	for _, pv := range parsed.Videos {
		v := &model.Video{
			ID:        uuid.New().String(),
			BatchID:   batch.ID,
			Title:     pv.Title,
			TitleEn:   pv.TitleEn,
			Director:  pv.Director,
			Cast:      pv.Cast,
			Duration:  pv.Duration,
			Rating:    pv.Rating,
			Language:  pv.Language,
			Subtitle:  pv.Subtitle,
			Position:  pv.Position,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if len(pv.Thumbnail) > 0 {
			url, thumbErr := s.thumbs.Save(month, v.ID, pv.ThumbnailExt, pv.Thumbnail)
			if thumbErr != nil {
				s.logger.Warn("Не удалось сохранить миниатюру",
					slog.String("month", month),
					slog.String("title", pv.Title),
					slog.String("error", thumbErr.Error()),
				)
			} else {
				v.ThumbnailURL = url
			}
		}

		videos = append(videos, v)
	}

	err = s.runner.RunInTx(ctx, func(tx pgx.Tx) error {
		batchRepo := repository.NewBatchRepository(tx)
		videoRepo := repository.NewVideoRepository(tx)

		if err := batchRepo.Create(ctx, batch); err != nil {
			return fmt.Errorf("создание партии: %w", err)
		}
		for _, v := range videos {
			if err := videoRepo.Insert(ctx, v); err != nil {
				return fmt.Errorf("вставка видео '%s': %w", v.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		// Откатываем сохранённые миниатюры, БД уже откатилась сама
		if rmErr := s.thumbs.RemoveMonth(month); rmErr != nil {
			s.logger.Warn("Не удалось удалить миниатюры после отката",
				slog.String("month", month),
				slog.String("error", rmErr.Error()),
			)
		}
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: каталог за месяц %s уже опубликован", ErrConflict, month)
		}
		return nil, fmt.Errorf("публикация партии: %w", err)
	}

	catalog := &model.Catalog{Batch: batch, Videos: videos}
	s.cache.Add(month, catalog)

	s.logger.Info("Партия каталога опубликована",
		slog.String("batch_id", batch.ID),
		slog.String("month", month),
		slog.Int("videos", len(videos)),
		slog.Int("skipped_rows", parsed.SkippedRows),
		slog.String("uploaded_by", uploadedBy),
	)

	return catalog, nil
}

// Catalog возвращает каталог месяца (партия + видео).
// Сначала проверяется LRU-кэш, при промахе — чтение из БД.
func (s *CatalogService) Catalog(ctx context.Context, month string) (*model.Catalog, error) {
	if c, ok := s.cache.Get(month); ok {
		catalogCacheHitsTotal.Inc()
		return c, nil
	}
	catalogCacheMissesTotal.Inc()

	batch, err := s.batchRepo.GetByMonth(ctx, month)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение партии месяца %s: %w", month, err)
	}

	videos, err := s.videoRepo.ListByBatch(ctx, batch.ID)
	if err != nil {
		return nil, fmt.Errorf("получение видео партии %s: %w", batch.ID, err)
	}

	catalog := &model.Catalog{Batch: batch, Videos: videos}
	s.cache.Add(month, catalog)
	return catalog, nil
}

// ListMonths возвращает список опубликованных месяцев (новые первыми).
func (s *CatalogService) ListMonths(ctx context.Context) ([]*model.MonthInfo, error) {
	months, err := s.batchRepo.ListMonths(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение списка месяцев: %w", err)
	}
	return months, nil
}

// VideoUpdate — административная правка метаданных видео.
// nil-поля не изменяются.
type VideoUpdate struct {
	Title    *string
	TitleEn  *string
	Director *string
	Cast     *string
	Duration *string
	Rating   *string
	Language *string
	Subtitle *string
}

// UpdateVideo применяет правку метаданных и инвалидирует кэш месяца.
// Правка названия меняет межмесячную идентичность видео — уже
// накопленные списки клиентов при этом не пересчитываются.
func (s *CatalogService) UpdateVideo(ctx context.Context, videoID string, upd VideoUpdate) (*model.Video, error) {
	v, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение видео для правки: %w", err)
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&v.Title, upd.Title)
	apply(&v.TitleEn, upd.TitleEn)
	apply(&v.Director, upd.Director)
	apply(&v.Cast, upd.Cast)
	apply(&v.Duration, upd.Duration)
	apply(&v.Rating, upd.Rating)
	apply(&v.Language, upd.Language)
	apply(&v.Subtitle, upd.Subtitle)

	if upd.Title != nil && v.Title == "" {
		return nil, fmt.Errorf("%w: название видео не может быть пустым", ErrValidation)
	}

	if err := s.videoRepo.UpdateMetadata(ctx, v); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление метаданных видео: %w", err)
	}

	// Инвалидация кэша месяца, которому принадлежит видео
	month, err := s.videoRepo.BatchMonth(ctx, videoID)
	if err == nil {
		s.cache.Remove(month)
	}

	s.logger.Info("Метаданные видео обновлены",
		slog.String("video_id", videoID),
		slog.String("title", v.Title),
	)

	return v, nil
}

// Video возвращает видео по ID.
func (s *CatalogService) Video(ctx context.Context, videoID string) (*model.Video, error) {
	v, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение видео: %w", err)
	}
	return v, nil
}
