package repository

import (
	"context"
	"fmt"

	"github.com/bigkaa/videoteka/internal/domain/model"
)

// OwnedListRepository — интерфейс доступа к таблице owned_entries:
// кумулятивный список клиента, по одной строке на удерживаемое видео.
type OwnedListRepository interface {
	// ListByCustomer возвращает записи списка клиента (для индекса идентичности).
	ListByCustomer(ctx context.Context, customerID string) ([]*model.OwnedEntry, error)
	// ListVideos возвращает список клиента, обогащённый метаданными видео.
	ListVideos(ctx context.Context, customerID string) ([]*model.OwnedVideo, error)
	// ListIDs возвращает ID всех видео списка клиента.
	ListIDs(ctx context.Context, customerID string) ([]string, error)
	// Remove удаляет указанные видео из списка. Возвращает количество удалённых.
	Remove(ctx context.Context, customerID string, videoIDs []string) (int, error)
	// Upsert добавляет запись; повторное добавление той же пары
	// (customer_id, video_id) идемпотентно обновляет существующую строку.
	Upsert(ctx context.Context, e *model.OwnedEntry) error
	// DeleteAll удаляет весь список клиента. Возвращает количество удалённых.
	DeleteAll(ctx context.Context, customerID string) (int, error)
	// Count возвращает размер списка клиента.
	Count(ctx context.Context, customerID string) (int, error)
	// CountCustomers возвращает количество клиентов с непустым списком.
	CountCustomers(ctx context.Context) (int, error)
}

// ownedRepo — реализация OwnedListRepository.
type ownedRepo struct {
	db DBTX
}

// NewOwnedListRepository создаёт репозиторий кумулятивных списков.
func NewOwnedListRepository(db DBTX) OwnedListRepository {
	return &ownedRepo{db: db}
}

func (r *ownedRepo) ListByCustomer(ctx context.Context, customerID string) ([]*model.OwnedEntry, error) {
	query := `
		SELECT customer_id, video_id, title, added_from_month, added_at
		FROM owned_entries
		WHERE customer_id = $1
		ORDER BY added_at DESC, video_id`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка клиента: %w", err)
	}
	defer rows.Close()

	var result []*model.OwnedEntry
	for rows.Next() {
		e := &model.OwnedEntry{}
		if err := rows.Scan(&e.CustomerID, &e.VideoID, &e.Title, &e.AddedFromMonth, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи списка: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *ownedRepo) ListVideos(ctx context.Context, customerID string) ([]*model.OwnedVideo, error) {
	// LEFT JOIN: запись списка переживает удаление партии, метаданные
	// деградируют до денормализованного названия.
	query := `
		SELECT o.video_id, o.title,
			COALESCE(v.title_en, ''), COALESCE(v.thumbnail_url, ''),
			o.added_from_month, o.added_at
		FROM owned_entries o
		LEFT JOIN videos v ON v.id = o.video_id
		WHERE o.customer_id = $1
		ORDER BY o.added_at DESC, o.video_id`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка клиента: %w", err)
	}
	defer rows.Close()

	var result []*model.OwnedVideo
	for rows.Next() {
		v := &model.OwnedVideo{}
		if err := rows.Scan(&v.VideoID, &v.Title, &v.TitleEn, &v.ThumbnailURL, &v.AddedFromMonth, &v.AddedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи списка: %w", err)
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *ownedRepo) ListIDs(ctx context.Context, customerID string) ([]string, error) {
	query := `SELECT video_id FROM owned_entries WHERE customer_id = $1 ORDER BY video_id`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения ID списка: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования ID: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ownedRepo) Remove(ctx context.Context, customerID string, videoIDs []string) (int, error) {
	if len(videoIDs) == 0 {
		return 0, nil
	}

	query := `
		DELETE FROM owned_entries
		WHERE customer_id = $1 AND video_id = ANY($2)`

	tag, err := r.db.Exec(ctx, query, customerID, videoIDs)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления из списка: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *ownedRepo) Upsert(ctx context.Context, e *model.OwnedEntry) error {
	query := `
		INSERT INTO owned_entries (customer_id, video_id, title, added_from_month, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (customer_id, video_id) DO UPDATE SET
			title = EXCLUDED.title,
			added_from_month = EXCLUDED.added_from_month,
			added_at = EXCLUDED.added_at`

	_, err := r.db.Exec(ctx, query,
		e.CustomerID, e.VideoID, e.Title, e.AddedFromMonth, e.AddedAt)
	if err != nil {
		return fmt.Errorf("ошибка добавления в список: %w", err)
	}
	return nil
}

func (r *ownedRepo) DeleteAll(ctx context.Context, customerID string) (int, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM owned_entries WHERE customer_id = $1`, customerID)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки списка: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *ownedRepo) Count(ctx context.Context, customerID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM owned_entries WHERE customer_id = $1`, customerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта списка: %w", err)
	}
	return count, nil
}

func (r *ownedRepo) CountCustomers(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(DISTINCT customer_id) FROM owned_entries`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта клиентов: %w", err)
	}
	return count, nil
}
