package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bigkaa/videoteka/internal/domain/model"
)

// SnapshotRepository — интерфейс доступа к таблице selection_snapshots.
// Таблица append-only: снимки записываются при финализации заявки
// и никогда не изменяются.
type SnapshotRepository interface {
	// Insert записывает снимок финализированной заявки.
	Insert(ctx context.Context, s *model.SelectionSnapshot) error
	// ListByCustomer возвращает снимки клиента, от новых к старым.
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*model.SelectionSnapshot, error)
	// CountByCustomer возвращает количество снимков клиента.
	CountByCustomer(ctx context.Context, customerID string) (int, error)
	// Recent возвращает последние снимки всех клиентов (для дашборда).
	Recent(ctx context.Context, limit int) ([]*model.SelectionSnapshot, error)
}

// snapshotRepo — реализация SnapshotRepository.
type snapshotRepo struct {
	db DBTX
}

// NewSnapshotRepository создаёт репозиторий снимков истории.
func NewSnapshotRepository(db DBTX) SnapshotRepository {
	return &snapshotRepo{db: db}
}

func (r *snapshotRepo) Insert(ctx context.Context, s *model.SelectionSnapshot) error {
	added, err := json.Marshal(s.AddedVideos)
	if err != nil {
		return fmt.Errorf("ошибка сериализации добавленных видео: %w", err)
	}
	removed, err := json.Marshal(s.RemovedVideos)
	if err != nil {
		return fmt.Errorf("ошибка сериализации удалённых видео: %w", err)
	}

	query := `
		INSERT INTO selection_snapshots
			(id, customer_id, video_ids, added_videos, removed_videos,
			 total_count, added_count, removed_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING snapshot_date`

	err = r.db.QueryRow(ctx, query,
		s.ID, s.CustomerID, s.VideoIDs, added, removed,
		s.TotalCount, s.AddedCount, s.RemovedCount,
	).Scan(&s.SnapshotDate)
	if err != nil {
		return fmt.Errorf("ошибка записи снимка: %w", err)
	}
	return nil
}

// snapshotColumns — столбцы selection_snapshots для SELECT-запросов.
const snapshotColumns = `id, customer_id, video_ids, added_videos, removed_videos,
	total_count, added_count, removed_count, snapshot_date`

func (r *snapshotRepo) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*model.SelectionSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM selection_snapshots
		WHERE customer_id = $1
		ORDER BY snapshot_date DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения снимков: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

func (r *snapshotRepo) CountByCustomer(ctx context.Context, customerID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM selection_snapshots WHERE customer_id = $1`, customerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта снимков: %w", err)
	}
	return count, nil
}

func (r *snapshotRepo) Recent(ctx context.Context, limit int) ([]*model.SelectionSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM selection_snapshots
		ORDER BY snapshot_date DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения последних снимков: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

// scanSnapshots сканирует строки снимков, разворачивая jsonb-сводки.
func scanSnapshots(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*model.SelectionSnapshot, error) {
	var result []*model.SelectionSnapshot
	for rows.Next() {
		s := &model.SelectionSnapshot{}
		var added, removed []byte
		if err := rows.Scan(
			&s.ID, &s.CustomerID, &s.VideoIDs, &added, &removed,
			&s.TotalCount, &s.AddedCount, &s.RemovedCount, &s.SnapshotDate,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования снимка: %w", err)
		}
		if err := json.Unmarshal(added, &s.AddedVideos); err != nil {
			return nil, fmt.Errorf("ошибка декодирования добавленных видео: %w", err)
		}
		if err := json.Unmarshal(removed, &s.RemovedVideos); err != nil {
			return nil, fmt.Errorf("ошибка декодирования удалённых видео: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
