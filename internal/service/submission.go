// submission.go — финализация заявки клиента.
// Единственная точка, изменяющая долговременный список: применяет
// отложенные изменения, пишет снимок истории, уведомляет персонал
// и очищает staging. Шаги выполняются конвейером с явным признаком
// критичности: сбой критического шага прерывает заявку целиком,
// сбой некритического логируется и глотается.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/videoteka/internal/domain/model"
	"github.com/bigkaa/videoteka/internal/repository"
	"github.com/bigkaa/videoteka/internal/selection"
)

// ListUpdater — транзакционное применение заявки к долговременному списку.
type ListUpdater interface {
	ApplyListUpdate(ctx context.Context, customerID string, removeIDs []string, additions []*model.OwnedEntry) (added, removed int, err error)
}

// SubmissionResult — итог финализированной заявки.
type SubmissionResult struct {
	// AddedCount — количество добавленных видео
	AddedCount int `json:"addedCount"`
	// RemovedCount — количество удалённых видео
	RemovedCount int `json:"removedCount"`
	// TotalCount — итоговый размер списка
	TotalCount int `json:"totalCount"`
	// Added — сводки добавленных видео
	Added []model.VideoSummary `json:"added"`
	// Removed — сводки удалённых видео
	Removed []model.VideoSummary `json:"removed"`
	// SubmittedAt — время фиксации заявки
	SubmittedAt time.Time `json:"submittedAt"`
}

// SubmissionService — координатор финализации заявок.
type SubmissionService struct {
	updater      ListUpdater
	ownedRepo    repository.OwnedListRepository
	videoRepo    repository.VideoRepository
	snapshotRepo repository.SnapshotRepository
	customerRepo repository.CustomerRepository
	tracker      *selection.Tracker
	notifier     NotificationGateway
	logger       *slog.Logger
	now          func() time.Time
}

// NewSubmissionService создаёт координатор заявок.
func NewSubmissionService(
	updater ListUpdater,
	ownedRepo repository.OwnedListRepository,
	videoRepo repository.VideoRepository,
	snapshotRepo repository.SnapshotRepository,
	customerRepo repository.CustomerRepository,
	tracker *selection.Tracker,
	notifier NotificationGateway,
	logger *slog.Logger,
) *SubmissionService {
	return &SubmissionService{
		updater:      updater,
		ownedRepo:    ownedRepo,
		videoRepo:    videoRepo,
		snapshotRepo: snapshotRepo,
		customerRepo: customerRepo,
		tracker:      tracker,
		notifier:     notifier,
		logger:       logger.With(slog.String("component", "submission_service")),
		now:          time.Now,
	}
}

// WithClock заменяет источник времени (для тестов).
func (s *SubmissionService) WithClock(now func() time.Time) *SubmissionService {
	s.now = now
	return s
}

// submissionState — накапливаемое состояние конвейера одной заявки.
type submissionState struct {
	customerID string
	pending    *selection.PendingChangeSet
	added      []model.VideoSummary
	removed    []model.VideoSummary
	additions  []*model.OwnedEntry
	removeIDs  []string
	finalIDs   []string
	result     *SubmissionResult
}

// submissionStep — один шаг конвейера. Сбой критического шага прерывает
// заявку (staging не очищается, клиент может повторить); сбой
// некритического логируется и не влияет на результат.
type submissionStep struct {
	name     string
	critical bool
	run      func(ctx context.Context, st *submissionState) error
}

// Submit финализирует отложенные изменения клиента.
// Возвращает ErrNothingToSubmit, если staging пуст, и ErrPersistence,
// если критический шаг применения списка не выполнен.
func (s *SubmissionService) Submit(ctx context.Context, customerID string) (*SubmissionResult, error) {
	pending := s.tracker.Restore(ctx, customerID)
	if pending.Empty() {
		return nil, ErrNothingToSubmit
	}

	st, err := s.prepare(ctx, customerID, pending)
	if err != nil {
		return nil, err
	}

	steps := []submissionStep{
		{name: "apply_list_update", critical: true, run: s.stepApply},
		{name: "write_snapshot", critical: false, run: s.stepSnapshot},
		{name: "notify_staff", critical: false, run: s.stepNotify},
		{name: "clear_staging", critical: false, run: s.stepClearStaging},
	}

	for _, step := range steps {
		if err := step.run(ctx, st); err != nil {
			if step.critical {
				s.logger.Error("Критический шаг заявки не выполнен, заявка прервана",
					slog.String("customer_id", customerID),
					slog.String("step", step.name),
					slog.String("error", err.Error()),
				)
				return nil, fmt.Errorf("%w: %w", ErrPersistence, err) //nolint:errorlint // намеренный двойной wrap
			}
			s.logger.Warn("Некритический шаг заявки не выполнен",
				slog.String("customer_id", customerID),
				slog.String("step", step.name),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("Заявка финализирована",
		slog.String("customer_id", customerID),
		slog.Int("added", st.result.AddedCount),
		slog.Int("removed", st.result.RemovedCount),
		slog.Int("total", st.result.TotalCount),
	)

	return st.result, nil
}

// prepare собирает состояние конвейера: сводки добавлений и удалений
// (дедуплицированы по нормализованному названию) и записи для вставки.
func (s *SubmissionService) prepare(ctx context.Context, customerID string, pending *selection.PendingChangeSet) (*submissionState, error) {
	added, err := s.videoRepo.SummariesByIDs(ctx, pending.AddIDs())
	if err != nil {
		return nil, fmt.Errorf("получение сводок добавляемых видео: %w", err)
	}
	removed, err := s.videoRepo.SummariesByIDs(ctx, pending.RemoveIDs())
	if err != nil {
		return nil, fmt.Errorf("получение сводок удаляемых видео: %w", err)
	}

	// Видео, исчезнувшие из каталога между переключением и отправкой,
	// выпадают из сводок; их ID не применяем
	added = dedupeByTitle(added)
	removed = dedupeByTitle(removed)

	if len(added) == 0 && len(removed) == 0 {
		return nil, ErrNothingToSubmit
	}

	now := s.now().UTC()

	additions := make([]*model.OwnedEntry, 0, len(added))
	for _, v := range added {
		additions = append(additions, &model.OwnedEntry{
			CustomerID:     customerID,
			VideoID:        v.VideoID,
			Title:          v.Title,
			AddedFromMonth: v.Month,
			AddedAt:        now,
		})
	}

	removeIDs, err := s.resolveRemovals(ctx, customerID, removed)
	if err != nil {
		return nil, err
	}

	return &submissionState{
		customerID: customerID,
		pending:    pending,
		added:      added,
		removed:    removed,
		additions:  additions,
		removeIDs:  removeIDs,
	}, nil
}

// resolveRemovals переводит удаляемые сводки в ID реальных записей
// долговременного списка. Удаление переключалось через строку текущего
// месяца, а владение могло быть зафиксировано строкой прошлой партии
// с тем же названием — сопоставляем по нормализованному названию ИЛИ ID.
func (s *SubmissionService) resolveRemovals(ctx context.Context, customerID string, removed []model.VideoSummary) ([]string, error) {
	if len(removed) == 0 {
		return nil, nil
	}

	entries, err := s.ownedRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("чтение списка для применения удалений: %w", err)
	}

	ids := make(map[string]struct{}, len(removed))
	titles := make(map[string]struct{}, len(removed))
	for _, v := range removed {
		ids[v.VideoID] = struct{}{}
		if t := selection.NormalizeTitle(v.Title); t != "" {
			titles[t] = struct{}{}
		}
	}

	removeIDs := make([]string, 0, len(removed))
	for _, e := range entries {
		if _, ok := ids[e.VideoID]; ok {
			removeIDs = append(removeIDs, e.VideoID)
			continue
		}
		if _, ok := titles[selection.NormalizeTitle(e.Title)]; ok {
			removeIDs = append(removeIDs, e.VideoID)
		}
	}

	return removeIDs, nil
}

// stepApply — критический шаг: применение заявки одной транзакцией.
func (s *SubmissionService) stepApply(ctx context.Context, st *submissionState) error {
	addedN, removedN, err := s.updater.ApplyListUpdate(ctx, st.customerID, st.removeIDs, st.additions)
	if err != nil {
		return err
	}

	finalIDs, err := s.ownedRepo.ListIDs(ctx, st.customerID)
	if err != nil {
		// Список уже применён; итоговые ID нужны только снимку
		s.logger.Warn("Не удалось прочитать итоговый список после применения",
			slog.String("customer_id", st.customerID),
			slog.String("error", err.Error()),
		)
		finalIDs = nil
	}

	st.finalIDs = finalIDs
	st.result = &SubmissionResult{
		AddedCount:   addedN,
		RemovedCount: removedN,
		TotalCount:   len(finalIDs),
		Added:        st.added,
		Removed:      st.removed,
		SubmittedAt:  s.now().UTC(),
	}
	return nil
}

// stepSnapshot — best-effort запись снимка истории.
func (s *SubmissionService) stepSnapshot(ctx context.Context, st *submissionState) error {
	snapshot := &model.SelectionSnapshot{
		ID:            uuid.New().String(),
		CustomerID:    st.customerID,
		VideoIDs:      st.finalIDs,
		AddedVideos:   st.added,
		RemovedVideos: st.removed,
		TotalCount:    len(st.finalIDs),
		AddedCount:    st.result.AddedCount,
		RemovedCount:  st.result.RemovedCount,
		SnapshotDate:  st.result.SubmittedAt,
	}
	return s.snapshotRepo.Insert(ctx, snapshot)
}

// stepNotify — best-effort email персоналу.
func (s *SubmissionService) stepNotify(ctx context.Context, st *submissionState) error {
	diff := &model.SelectionDiff{
		CustomerID:    st.customerID,
		TotalCount:    st.result.TotalCount,
		AddedVideos:   st.added,
		RemovedVideos: st.removed,
	}

	customer, err := s.customerRepo.GetByID(ctx, st.customerID)
	if err != nil {
		// Уведомление уходит и без профиля, с одним ID
		s.logger.Warn("Профиль клиента для уведомления не найден",
			slog.String("customer_id", st.customerID),
			slog.String("error", err.Error()),
		)
	} else {
		diff.CustomerName = customer.Name
		diff.CustomerEmail = customer.Email
	}

	return s.notifier.NotifySubmission(diff)
}

// stepClearStaging — очистка staging после успешного применения.
// При сбое протухший набор удалит janitor по TTL.
func (s *SubmissionService) stepClearStaging(ctx context.Context, st *submissionState) error {
	s.tracker.Clear(ctx, st.customerID)
	return nil
}

// ClearAll очищает долговременный список клиента целиком вместе со
// staging. Снимок истории фиксирует опустошение списка.
func (s *SubmissionService) ClearAll(ctx context.Context, customerID string) (*SubmissionResult, error) {
	current, err := s.ownedRepo.ListVideos(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("чтение списка перед очисткой: %w", err)
	}

	removed, err := s.ownedRepo.DeleteAll(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err) //nolint:errorlint // намеренный двойной wrap
	}

	s.tracker.Clear(ctx, customerID)

	removedSummaries := make([]model.VideoSummary, 0, len(current))
	for _, v := range current {
		removedSummaries = append(removedSummaries, model.VideoSummary{
			VideoID:      v.VideoID,
			Title:        v.Title,
			TitleEn:      v.TitleEn,
			ThumbnailURL: v.ThumbnailURL,
			Month:        v.AddedFromMonth,
		})
	}

	now := s.now().UTC()
	snapshot := &model.SelectionSnapshot{
		ID:            uuid.New().String(),
		CustomerID:    customerID,
		VideoIDs:      []string{},
		RemovedVideos: removedSummaries,
		RemovedCount:  removed,
		SnapshotDate:  now,
	}
	if err := s.snapshotRepo.Insert(ctx, snapshot); err != nil {
		s.logger.Warn("Не удалось записать снимок очистки списка",
			slog.String("customer_id", customerID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("Список клиента очищен",
		slog.String("customer_id", customerID),
		slog.Int("removed", removed),
	)

	return &SubmissionResult{
		RemovedCount: removed,
		Removed:      removedSummaries,
		SubmittedAt:  now,
	}, nil
}

// dedupeByTitle удаляет дубликаты сводок по нормализованному названию.
// Одно видео, переключённое через строки разных месяцев, попадает в
// заявку один раз. Сводка с пустым названием сравнивается по ID.
func dedupeByTitle(items []model.VideoSummary) []model.VideoSummary {
	seen := make(map[string]struct{}, len(items))
	out := make([]model.VideoSummary, 0, len(items))
	for _, v := range items {
		key := selection.NormalizeTitle(v.Title)
		if key == "" {
			key = "id:" + v.VideoID
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
