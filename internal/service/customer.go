// customer.go — локальное отражение клиентов Auth-провайдера.
// Профиль обновляется из claims токена при обращениях клиента,
// чтобы история и уведомления несли человекочитаемую идентичность.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bigkaa/videoteka/internal/domain/model"
	"github.com/bigkaa/videoteka/internal/repository"
)

// CustomerService — профили клиентов.
type CustomerService struct {
	repo   repository.CustomerRepository
	logger *slog.Logger
}

// NewCustomerService создаёт сервис профилей клиентов.
func NewCustomerService(repo repository.CustomerRepository, logger *slog.Logger) *CustomerService {
	return &CustomerService{
		repo:   repo,
		logger: logger.With(slog.String("component", "customer_service")),
	}
}

// Ensure создаёт или обновляет профиль клиента из claims токена.
// Ошибка не фатальна для вызывающего: профиль нужен только истории
// и уведомлениям, поэтому сбой логируется и глотается.
func (s *CustomerService) Ensure(ctx context.Context, id, email, name string) {
	c := &model.Customer{
		ID:        id,
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, c); err != nil {
		s.logger.Warn("Не удалось обновить профиль клиента",
			slog.String("customer_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// Get возвращает профиль клиента.
func (s *CustomerService) Get(ctx context.Context, id string) (*model.Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение профиля клиента: %w", err)
	}
	return c, nil
}
