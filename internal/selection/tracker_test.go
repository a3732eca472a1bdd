package selection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

// memStagingStore — in-memory реализация StagingStore для тестов.
type memStagingStore struct {
	data    map[string][]byte
	failAll bool
}

func newMemStagingStore() *memStagingStore {
	return &memStagingStore{data: make(map[string][]byte)}
}

func (m *memStagingStore) Load(_ context.Context, customerID string) ([]byte, bool, error) {
	if m.failAll {
		return nil, false, errors.New("хранилище недоступно")
	}
	payload, ok := m.data[customerID]
	return payload, ok, nil
}

func (m *memStagingStore) Save(_ context.Context, customerID string, payload []byte) error {
	if m.failAll {
		return errors.New("хранилище недоступно")
	}
	m.data[customerID] = payload
	return nil
}

func (m *memStagingStore) Clear(_ context.Context, customerID string) error {
	if m.failAll {
		return errors.New("хранилище недоступно")
	}
	delete(m.data, customerID)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestTracker_PersistRestore проверяет сохранение и восстановление
// staging-состояния в пределах окна валидности.
func TestTracker_PersistRestore(t *testing.T) {
	ctx := context.Background()
	store := newMemStagingStore()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tr := NewTracker(store, 24*time.Hour, testLogger()).
		WithClock(func() time.Time { return now })

	p := NewPendingChangeSet()
	p.Toggle("v1", "Драма X", false)
	tr.Persist(ctx, "c1", p)

	// Через час — восстанавливается полностью
	now = now.Add(time.Hour)
	got := tr.Restore(ctx, "c1")
	if !got.HasAdd("v1") {
		t.Error("набор должен восстановиться через час после сохранения")
	}

	// Чужой клиент — пустой набор
	if !tr.Restore(ctx, "c2").Empty() {
		t.Error("у другого клиента не должно быть staging-состояния")
	}
}

// TestTracker_Expiry проверяет отбрасывание набора старше TTL.
func TestTracker_Expiry(t *testing.T) {
	ctx := context.Background()
	store := newMemStagingStore()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tr := NewTracker(store, 24*time.Hour, testLogger()).
		WithClock(func() time.Time { return now })

	p := NewPendingChangeSet()
	p.Toggle("v1", "Драма X", false)
	tr.Persist(ctx, "c1", p)

	// Через 25 часов — набор считается пустым
	now = now.Add(25 * time.Hour)
	if !tr.Restore(ctx, "c1").Empty() {
		t.Error("набор старше 24 часов должен быть отброшен")
	}
}

// TestTracker_StoreFailure проверяет деградацию при недоступном хранилище:
// восстановление возвращает пустой набор, Persist и Clear не паникуют.
func TestTracker_StoreFailure(t *testing.T) {
	ctx := context.Background()
	store := newMemStagingStore()
	store.failAll = true

	tr := NewTracker(store, 24*time.Hour, testLogger())

	got := tr.Restore(ctx, "c1")
	if got == nil || !got.Empty() {
		t.Error("при ошибке чтения Restore должен вернуть пустой набор")
	}

	p := NewPendingChangeSet()
	p.Toggle("v1", "Драма X", false)
	tr.Persist(ctx, "c1", p) // не должно паниковать и возвращать ошибку
	tr.Clear(ctx, "c1")
}

// TestTracker_CorruptedPayload проверяет отбрасывание повреждённого payload.
func TestTracker_CorruptedPayload(t *testing.T) {
	ctx := context.Background()
	store := newMemStagingStore()
	store.data["c1"] = []byte("мусор")

	tr := NewTracker(store, 24*time.Hour, testLogger())
	if !tr.Restore(ctx, "c1").Empty() {
		t.Error("повреждённый payload должен быть отброшен")
	}
}
