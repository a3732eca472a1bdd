package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/videoteka/internal/domain/model"
)

// ListUpdater применяет финализированную заявку к кумулятивному списку
// одной транзакцией: сначала удаления, затем добавления. Порядок
// фиксирован — при рассинхронизации staging удаление не должно стереть
// только что добавленную строку.
type ListUpdater struct {
	runner *TxRunner
}

// NewListUpdater создаёт транзакционный апдейтер списков.
func NewListUpdater(runner *TxRunner) *ListUpdater {
	return &ListUpdater{runner: runner}
}

// ApplyListUpdate удаляет removeIDs и добавляет additions в списке
// клиента. Всё или ничего: любая ошибка откатывает транзакцию целиком.
// Возвращает количество добавленных и удалённых записей.
func (u *ListUpdater) ApplyListUpdate(
	ctx context.Context,
	customerID string,
	removeIDs []string,
	additions []*model.OwnedEntry,
) (added, removed int, err error) {
	err = u.runner.RunInTx(ctx, func(tx pgx.Tx) error {
		repo := NewOwnedListRepository(tx)

		n, err := repo.Remove(ctx, customerID, removeIDs)
		if err != nil {
			return fmt.Errorf("применение удалений: %w", err)
		}
		removed = n

		for _, e := range additions {
			if err := repo.Upsert(ctx, e); err != nil {
				return fmt.Errorf("применение добавления %s: %w", e.VideoID, err)
			}
			added++
		}
		return nil
	})
	if err != nil {
		added, removed = 0, 0
	}
	return added, removed, err
}
