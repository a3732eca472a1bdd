package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/videoteka/internal/domain/model"
)

// CustomerRepository — интерфейс доступа к таблице customers:
// локальное отражение клиентов из Auth-провайдера.
type CustomerRepository interface {
	// Upsert создаёт или обновляет отражение клиента по subject из JWT.
	Upsert(ctx context.Context, c *model.Customer) error
	// GetByID возвращает клиента по UUID.
	GetByID(ctx context.Context, customerID string) (*model.Customer, error)
}

// customerRepo — реализация CustomerRepository.
type customerRepo struct {
	db DBTX
}

// NewCustomerRepository создаёт репозиторий клиентов.
func NewCustomerRepository(db DBTX) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) Upsert(ctx context.Context, c *model.Customer) error {
	query := `
		INSERT INTO customers (id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE customers.name END
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query, c.ID, c.Email, c.Name).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения клиента: %w", err)
	}
	return nil
}

func (r *customerRepo) GetByID(ctx context.Context, customerID string) (*model.Customer, error) {
	c := &model.Customer{}
	err := r.db.QueryRow(ctx,
		`SELECT id, email, name, created_at FROM customers WHERE id = $1`, customerID).
		Scan(&c.ID, &c.Email, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения клиента: %w", err)
	}
	return c, nil
}
