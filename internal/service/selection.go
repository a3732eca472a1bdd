// selection.go — сервис просмотра каталога глазами клиента.
// Отдаёт каталог месяца с вычисленным состоянием каждого видео,
// переключает отложенные изменения и показывает накопленный список.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bigkaa/videoteka/internal/domain/model"
	"github.com/bigkaa/videoteka/internal/repository"
	"github.com/bigkaa/videoteka/internal/selection"
)

// CatalogProvider — доступ к каталогам месяцев (реализуется CatalogService).
type CatalogProvider interface {
	Catalog(ctx context.Context, month string) (*model.Catalog, error)
}

// VideoView — видео каталога вместе с состоянием для конкретного клиента.
type VideoView struct {
	*model.Video
	// State — owned | pending_remove | pending_add | available
	State selection.DisplayState `json:"state"`
}

// MonthView — каталог месяца глазами клиента.
type MonthView struct {
	Batch        *model.Batch `json:"batch"`
	Videos       []*VideoView `json:"videos"`
	PendingCount int          `json:"pendingCount"`
}

// ToggleResult — результат переключения видео.
type ToggleResult struct {
	VideoID      string                 `json:"videoId"`
	Title        string                 `json:"title"`
	Change       selection.ChangeKind   `json:"change"`
	State        selection.DisplayState `json:"state"`
	PendingCount int                    `json:"pendingCount"`
}

// PendingView — текущие отложенные изменения клиента.
type PendingView struct {
	Added   []model.VideoSummary `json:"added"`
	Removed []model.VideoSummary `json:"removed"`
	Count   int                  `json:"count"`
}

// SelectionService — просмотр и разметка каталога для клиента.
type SelectionService struct {
	ownedRepo    repository.OwnedListRepository
	videoRepo    repository.VideoRepository
	snapshotRepo repository.SnapshotRepository
	catalogs     CatalogProvider
	tracker      *selection.Tracker
	logger       *slog.Logger
}

// NewSelectionService создаёт сервис просмотра каталога.
func NewSelectionService(
	ownedRepo repository.OwnedListRepository,
	videoRepo repository.VideoRepository,
	snapshotRepo repository.SnapshotRepository,
	catalogs CatalogProvider,
	tracker *selection.Tracker,
	logger *slog.Logger,
) *SelectionService {
	return &SelectionService{
		ownedRepo:    ownedRepo,
		videoRepo:    videoRepo,
		snapshotRepo: snapshotRepo,
		catalogs:     catalogs,
		tracker:      tracker,
		logger:       logger.With(slog.String("component", "selection_service")),
	}
}

// ownedIndex строит индекс накопленного списка клиента.
// Ошибка чтения деградирует к пустому индексу: осторожное «клиент пока
// ничего не выбирал» безопаснее, чем блокировка просмотра каталога.
func (s *SelectionService) ownedIndex(ctx context.Context, customerID string) *selection.OwnedIndex {
	entries, err := s.ownedRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		s.logger.Warn("Ошибка чтения накопленного списка, используется пустой",
			slog.String("customer_id", customerID),
			slog.String("error", err.Error()),
		)
		return selection.NewOwnedIndex(nil)
	}
	return selection.NewOwnedIndex(entries)
}

// MonthView возвращает каталог месяца с состоянием каждого видео
// для клиента. Состояние учитывает накопленный список (по названию
// или ID) и отложенные изменения.
func (s *SelectionService) MonthView(ctx context.Context, customerID, month string) (*MonthView, error) {
	catalog, err := s.catalogs.Catalog(ctx, month)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение каталога месяца %s: %w", month, err)
	}

	owned := s.ownedIndex(ctx, customerID)
	pending := s.tracker.Restore(ctx, customerID)
	rec := selection.NewReconciler(owned, pending)

	views := make([]*VideoView, 0, len(catalog.Videos))
	for _, v := range catalog.Videos {
		views = append(views, &VideoView{
			Video: v,
			State: rec.StateFor(v.ID, v.Title),
		})
	}

	return &MonthView{
		Batch:        catalog.Batch,
		Videos:       views,
		PendingCount: pending.Len(),
	}, nil
}

// Toggle переключает видео в отложенных изменениях клиента.
// Принадлежность списку вычисляется на сервере по накопленному списку,
// клиентскому флагу не доверяем. Результат сохраняется в staging.
func (s *SelectionService) Toggle(ctx context.Context, customerID, videoID string) (*ToggleResult, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение видео для переключения: %w", err)
	}

	owned := s.ownedIndex(ctx, customerID)
	pending := s.tracker.Restore(ctx, customerID)

	kind := pending.Toggle(video.ID, video.Title, owned.IsOwned(video.ID, video.Title))
	s.tracker.Persist(ctx, customerID, pending)

	rec := selection.NewReconciler(owned, pending)

	s.logger.Debug("Переключение видео",
		slog.String("customer_id", customerID),
		slog.String("video_id", videoID),
		slog.String("change", string(kind)),
	)

	return &ToggleResult{
		VideoID:      video.ID,
		Title:        video.Title,
		Change:       kind,
		State:        rec.StateFor(video.ID, video.Title),
		PendingCount: pending.Len(),
	}, nil
}

// Pending возвращает текущие отложенные изменения клиента со сводками видео.
func (s *SelectionService) Pending(ctx context.Context, customerID string) (*PendingView, error) {
	pending := s.tracker.Restore(ctx, customerID)

	view := &PendingView{
		Added:   []model.VideoSummary{},
		Removed: []model.VideoSummary{},
		Count:   pending.Len(),
	}
	if pending.Empty() {
		return view, nil
	}

	added, err := s.videoRepo.SummariesByIDs(ctx, pending.AddIDs())
	if err != nil {
		return nil, fmt.Errorf("получение сводок добавляемых видео: %w", err)
	}
	removed, err := s.videoRepo.SummariesByIDs(ctx, pending.RemoveIDs())
	if err != nil {
		return nil, fmt.Errorf("получение сводок удаляемых видео: %w", err)
	}

	view.Added = added
	view.Removed = removed
	return view, nil
}

// DiscardPending отбрасывает все отложенные изменения клиента.
// Накопленный список не затрагивается.
func (s *SelectionService) DiscardPending(ctx context.Context, customerID string) {
	s.tracker.Clear(ctx, customerID)
	s.logger.Info("Отложенные изменения отброшены",
		slog.String("customer_id", customerID),
	)
}

// OwnedList возвращает накопленный список клиента с данными видео.
// Ошибка чтения деградирует к пустому списку.
func (s *SelectionService) OwnedList(ctx context.Context, customerID string) []*model.OwnedVideo {
	videos, err := s.ownedRepo.ListVideos(ctx, customerID)
	if err != nil {
		s.logger.Warn("Ошибка чтения накопленного списка, используется пустой",
			slog.String("customer_id", customerID),
			slog.String("error", err.Error()),
		)
		return []*model.OwnedVideo{}
	}
	if videos == nil {
		videos = []*model.OwnedVideo{}
	}
	return videos
}

// History возвращает снимки отправок клиента (новые первыми) и общее количество.
func (s *SelectionService) History(ctx context.Context, customerID string, limit, offset int) ([]*model.SelectionSnapshot, int, error) {
	snapshots, err := s.snapshotRepo.ListByCustomer(ctx, customerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("получение истории отправок: %w", err)
	}

	total, err := s.snapshotRepo.CountByCustomer(ctx, customerID)
	if err != nil {
		return nil, 0, fmt.Errorf("подсчёт истории отправок: %w", err)
	}

	return snapshots, total, nil
}
