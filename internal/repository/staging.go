package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// StagingRepository — серверная реализация staging-хранилища
// незакоммиченных изменений (selection.StagingStore) поверх таблицы
// pending_changes: одна строка на клиента, payload непрозрачен.
type StagingRepository interface {
	// Load возвращает сохранённый payload клиента.
	Load(ctx context.Context, customerID string) ([]byte, bool, error)
	// Save сохраняет payload клиента, замещая предыдущий.
	Save(ctx context.Context, customerID string, payload []byte) error
	// Clear удаляет сохранённое состояние клиента.
	Clear(ctx context.Context, customerID string) error
	// PurgeExpired удаляет состояния, сохранённые раньше olderThan.
	// Возвращает количество удалённых строк.
	PurgeExpired(ctx context.Context, olderThan time.Time) (int, error)
}

// stagingRepo — реализация StagingRepository.
type stagingRepo struct {
	db DBTX
}

// NewStagingRepository создаёт репозиторий staging-состояний.
func NewStagingRepository(db DBTX) StagingRepository {
	return &stagingRepo{db: db}
}

func (r *stagingRepo) Load(ctx context.Context, customerID string) ([]byte, bool, error) {
	var payload []byte
	err := r.db.QueryRow(ctx,
		`SELECT payload FROM pending_changes WHERE customer_id = $1`, customerID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("ошибка чтения staging-состояния: %w", err)
	}
	return payload, true, nil
}

func (r *stagingRepo) Save(ctx context.Context, customerID string, payload []byte) error {
	query := `
		INSERT INTO pending_changes (customer_id, payload, saved_at)
		VALUES ($1, $2, now())
		ON CONFLICT (customer_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			saved_at = EXCLUDED.saved_at`

	if _, err := r.db.Exec(ctx, query, customerID, payload); err != nil {
		return fmt.Errorf("ошибка записи staging-состояния: %w", err)
	}
	return nil
}

func (r *stagingRepo) Clear(ctx context.Context, customerID string) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM pending_changes WHERE customer_id = $1`, customerID); err != nil {
		return fmt.Errorf("ошибка очистки staging-состояния: %w", err)
	}
	return nil
}

func (r *stagingRepo) PurgeExpired(ctx context.Context, olderThan time.Time) (int, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM pending_changes WHERE saved_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления протухших staging-состояний: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
