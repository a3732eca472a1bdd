package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/videoteka/internal/domain/model"
)

// BatchRepository — интерфейс доступа к таблице batches.
type BatchRepository interface {
	// Create создаёт партию. Месяц уникален — повтор даёт ErrConflict.
	Create(ctx context.Context, b *model.Batch) error
	// GetByID возвращает партию по UUID.
	GetByID(ctx context.Context, batchID string) (*model.Batch, error)
	// GetByMonth возвращает партию месяца YYYY-MM.
	GetByMonth(ctx context.Context, month string) (*model.Batch, error)
	// ListMonths возвращает опубликованные месяцы с количеством видео,
	// от новых к старым.
	ListMonths(ctx context.Context) ([]*model.MonthInfo, error)
	// Count возвращает количество партий.
	Count(ctx context.Context) (int, error)
}

// batchRepo — реализация BatchRepository.
type batchRepo struct {
	db DBTX
}

// NewBatchRepository создаёт репозиторий партий.
func NewBatchRepository(db DBTX) BatchRepository {
	return &batchRepo{db: db}
}

func (r *batchRepo) Create(ctx context.Context, b *model.Batch) error {
	query := `
		INSERT INTO batches (id, name, month, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query, b.ID, b.Name, b.Month, b.CreatedBy).
		Scan(&b.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: партия за месяц %s уже опубликована", ErrConflict, b.Month)
		}
		return fmt.Errorf("ошибка создания партии: %w", err)
	}
	return nil
}

func (r *batchRepo) GetByID(ctx context.Context, batchID string) (*model.Batch, error) {
	return r.getOne(ctx, `
		SELECT id, name, month, created_by, created_at
		FROM batches WHERE id = $1`, batchID)
}

func (r *batchRepo) GetByMonth(ctx context.Context, month string) (*model.Batch, error) {
	return r.getOne(ctx, `
		SELECT id, name, month, created_by, created_at
		FROM batches WHERE month = $1`, month)
}

func (r *batchRepo) getOne(ctx context.Context, query string, arg any) (*model.Batch, error) {
	b := &model.Batch{}
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&b.ID, &b.Name, &b.Month, &b.CreatedBy, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения партии: %w", err)
	}
	return b, nil
}

func (r *batchRepo) ListMonths(ctx context.Context) ([]*model.MonthInfo, error) {
	query := `
		SELECT b.month, b.name, COUNT(v.id)
		FROM batches b
		LEFT JOIN videos v ON v.batch_id = b.id
		GROUP BY b.id, b.month, b.name
		ORDER BY b.month DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка месяцев: %w", err)
	}
	defer rows.Close()

	var result []*model.MonthInfo
	for rows.Next() {
		m := &model.MonthInfo{}
		if err := rows.Scan(&m.Month, &m.Name, &m.VideoCount); err != nil {
			return nil, fmt.Errorf("ошибка сканирования месяца: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *batchRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM batches`).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта партий: %w", err)
	}
	return count, nil
}
