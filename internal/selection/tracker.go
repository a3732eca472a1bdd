// tracker.go — жизненный цикл staging-состояния одного клиента.
//
// Tracker сохраняет PendingChangeSet в staging-хранилище после каждого
// перехода и восстанавливает его при возврате клиента. Сохранённый набор
// старше TTL отбрасывается при загрузке. Ошибки хранилища не фатальны:
// деградация — «без восстановления», долговременный список не затрагивается.
package selection

import (
	"context"
	"log/slog"
	"time"
)

// StagingStore — порт staging-хранилища незакоммиченных изменений.
// Ключ — ID клиента; payload непрозрачен для хранилища.
type StagingStore interface {
	// Load возвращает сохранённый payload клиента.
	// Второй результат false — сохранённого состояния нет.
	Load(ctx context.Context, customerID string) ([]byte, bool, error)
	// Save сохраняет payload клиента, замещая предыдущий.
	Save(ctx context.Context, customerID string, payload []byte) error
	// Clear удаляет сохранённое состояние клиента.
	Clear(ctx context.Context, customerID string) error
}

// Tracker управляет восстановлением и сохранением staging-состояния.
type Tracker struct {
	store  StagingStore
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewTracker создаёт Tracker с TTL отбрасывания протухших наборов.
func NewTracker(store StagingStore, ttl time.Duration, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:  store,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With(slog.String("component", "pending_tracker")),
	}
}

// WithClock заменяет источник времени (для тестов).
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Restore возвращает сохранённый набор клиента.
// Протухший, повреждённый или отсутствующий набор — пустой набор;
// ошибка чтения хранилища также деградирует к пустому набору.
func (t *Tracker) Restore(ctx context.Context, customerID string) *PendingChangeSet {
	payload, ok, err := t.store.Load(ctx, customerID)
	if err != nil {
		t.logger.Warn("Ошибка чтения staging-хранилища, восстановление пропущено",
			slog.String("customer_id", customerID),
			slog.String("error", err.Error()),
		)
		return NewPendingChangeSet()
	}
	if !ok {
		return NewPendingChangeSet()
	}

	p, savedAt, err := Decode(payload)
	if err != nil {
		t.logger.Warn("Повреждённое staging-состояние отброшено",
			slog.String("customer_id", customerID),
			slog.String("error", err.Error()),
		)
		return NewPendingChangeSet()
	}

	if IsExpired(t.now(), savedAt, t.ttl) {
		t.logger.Info("Протухшее staging-состояние отброшено",
			slog.String("customer_id", customerID),
			slog.Time("saved_at", savedAt),
			slog.String("ttl", t.ttl.String()),
		)
		return NewPendingChangeSet()
	}

	return p
}

// Persist сохраняет набор с текущей меткой времени.
// Ошибка записи логируется и не возвращается: потеря staging не
// затрагивает долговременный список.
func (t *Tracker) Persist(ctx context.Context, customerID string, p *PendingChangeSet) {
	payload, err := Encode(p, t.now())
	if err != nil {
		t.logger.Warn("Ошибка сериализации staging-состояния",
			slog.String("customer_id", customerID),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := t.store.Save(ctx, customerID, payload); err != nil {
		t.logger.Warn("Ошибка записи staging-хранилища",
			slog.String("customer_id", customerID),
			slog.String("error", err.Error()),
		)
	}
}

// Clear удаляет staging-состояние клиента.
func (t *Tracker) Clear(ctx context.Context, customerID string) {
	if err := t.store.Clear(ctx, customerID); err != nil {
		t.logger.Warn("Ошибка очистки staging-хранилища",
			slog.String("customer_id", customerID),
			slog.String("error", err.Error()),
		)
	}
}

// TTL возвращает настроенное окно валидности staging-состояния.
func (t *Tracker) TTL() time.Duration {
	return t.ttl
}
