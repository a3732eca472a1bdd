package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/videoteka/internal/domain/model"
)

// videoColumns — список столбцов таблицы videos для SELECT-запросов.
const videoColumns = `id, batch_id, title, title_en, thumbnail_url, director,
	casting, duration, rating, language, subtitle, position, created_at, updated_at`

// VideoRepository — интерфейс доступа к таблице videos.
type VideoRepository interface {
	// Insert добавляет видео в партию.
	Insert(ctx context.Context, v *model.Video) error
	// GetByID возвращает видео по UUID.
	GetByID(ctx context.Context, videoID string) (*model.Video, error)
	// ListByBatch возвращает видео партии в порядке строк исходного файла.
	ListByBatch(ctx context.Context, batchID string) ([]*model.Video, error)
	// UpdateMetadata обновляет описательные метаданные видео.
	UpdateMetadata(ctx context.Context, v *model.Video) error
	// SummariesByIDs возвращает сводки видео (с месяцем партии) по списку ID.
	SummariesByIDs(ctx context.Context, videoIDs []string) ([]model.VideoSummary, error)
	// BatchMonth возвращает месяц партии, владеющей видео.
	BatchMonth(ctx context.Context, videoID string) (string, error)
	// Count возвращает количество видео во всех партиях.
	Count(ctx context.Context) (int, error)
}

// videoRepo — реализация VideoRepository.
type videoRepo struct {
	db DBTX
}

// NewVideoRepository создаёт репозиторий видео.
func NewVideoRepository(db DBTX) VideoRepository {
	return &videoRepo{db: db}
}

func (r *videoRepo) Insert(ctx context.Context, v *model.Video) error {
	query := `
		INSERT INTO videos (id, batch_id, title, title_en, thumbnail_url, director,
			casting, duration, rating, language, subtitle, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		v.ID, v.BatchID, v.Title, v.TitleEn, v.ThumbnailURL, v.Director,
		v.Cast, v.Duration, v.Rating, v.Language, v.Subtitle, v.Position,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: видео с ID %s уже существует", ErrConflict, v.ID)
		}
		return fmt.Errorf("ошибка добавления видео: %w", err)
	}
	return nil
}

func (r *videoRepo) GetByID(ctx context.Context, videoID string) (*model.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	v := &model.Video{}
	err := r.db.QueryRow(ctx, query, videoID).Scan(
		&v.ID, &v.BatchID, &v.Title, &v.TitleEn, &v.ThumbnailURL, &v.Director,
		&v.Cast, &v.Duration, &v.Rating, &v.Language, &v.Subtitle, &v.Position,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения видео: %w", err)
	}
	return v, nil
}

func (r *videoRepo) ListByBatch(ctx context.Context, batchID string) ([]*model.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE batch_id = $1 ORDER BY position`

	rows, err := r.db.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения видео партии: %w", err)
	}
	defer rows.Close()

	var result []*model.Video
	for rows.Next() {
		v := &model.Video{}
		if err := rows.Scan(
			&v.ID, &v.BatchID, &v.Title, &v.TitleEn, &v.ThumbnailURL, &v.Director,
			&v.Cast, &v.Duration, &v.Rating, &v.Language, &v.Subtitle, &v.Position,
			&v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования видео: %w", err)
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *videoRepo) UpdateMetadata(ctx context.Context, v *model.Video) error {
	query := `
		UPDATE videos
		SET title = $2, title_en = $3, director = $4, casting = $5,
			duration = $6, rating = $7, language = $8, subtitle = $9,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		v.ID, v.Title, v.TitleEn, v.Director, v.Cast,
		v.Duration, v.Rating, v.Language, v.Subtitle,
	).Scan(&v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления видео: %w", err)
	}
	return nil
}

func (r *videoRepo) SummariesByIDs(ctx context.Context, videoIDs []string) ([]model.VideoSummary, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT v.id, v.title, v.title_en, v.thumbnail_url, b.month
		FROM videos v
		JOIN batches b ON b.id = v.batch_id
		WHERE v.id = ANY($1)
		ORDER BY v.title`

	rows, err := r.db.Query(ctx, query, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения сводок видео: %w", err)
	}
	defer rows.Close()

	var result []model.VideoSummary
	for rows.Next() {
		var s model.VideoSummary
		if err := rows.Scan(&s.VideoID, &s.Title, &s.TitleEn, &s.ThumbnailURL, &s.Month); err != nil {
			return nil, fmt.Errorf("ошибка сканирования сводки: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *videoRepo) BatchMonth(ctx context.Context, videoID string) (string, error) {
	query := `
		SELECT b.month
		FROM videos v
		JOIN batches b ON b.id = v.batch_id
		WHERE v.id = $1`

	var month string
	err := r.db.QueryRow(ctx, query, videoID).Scan(&month)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("ошибка получения месяца партии: %w", err)
	}
	return month, nil
}

func (r *videoRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM videos`).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта видео: %w", err)
	}
	return count, nil
}
