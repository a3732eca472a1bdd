// fakes_test.go — in-memory реализации портов для тестов сервисного слоя.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/bigkaa/videoteka/internal/domain/model"
	"github.com/bigkaa/videoteka/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore — in-memory staging-хранилище.
type memStore struct {
	data    map[string][]byte
	failAll bool
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Load(_ context.Context, customerID string) ([]byte, bool, error) {
	if m.failAll {
		return nil, false, errors.New("хранилище недоступно")
	}
	payload, ok := m.data[customerID]
	return payload, ok, nil
}

func (m *memStore) Save(_ context.Context, customerID string, payload []byte) error {
	if m.failAll {
		return errors.New("хранилище недоступно")
	}
	m.data[customerID] = payload
	return nil
}

func (m *memStore) Clear(_ context.Context, customerID string) error {
	if m.failAll {
		return errors.New("хранилище недоступно")
	}
	delete(m.data, customerID)
	return nil
}

// fakeVideoRepo — видео по ID с месяцем партии.
type fakeVideoRepo struct {
	videos map[string]*model.Video
	months map[string]string // videoID → месяц партии
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{
		videos: make(map[string]*model.Video),
		months: make(map[string]string),
	}
}

func (f *fakeVideoRepo) add(id, title, month string) {
	f.videos[id] = &model.Video{ID: id, Title: title}
	f.months[id] = month
}

func (f *fakeVideoRepo) Insert(_ context.Context, v *model.Video) error {
	f.videos[v.ID] = v
	return nil
}

func (f *fakeVideoRepo) GetByID(_ context.Context, videoID string) (*model.Video, error) {
	v, ok := f.videos[videoID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeVideoRepo) ListByBatch(_ context.Context, _ string) ([]*model.Video, error) {
	return nil, nil
}

func (f *fakeVideoRepo) UpdateMetadata(_ context.Context, _ *model.Video) error {
	return nil
}

func (f *fakeVideoRepo) SummariesByIDs(_ context.Context, videoIDs []string) ([]model.VideoSummary, error) {
	out := make([]model.VideoSummary, 0, len(videoIDs))
	for _, id := range videoIDs {
		v, ok := f.videos[id]
		if !ok {
			continue
		}
		out = append(out, model.VideoSummary{
			VideoID: v.ID,
			Title:   v.Title,
			Month:   f.months[id],
		})
	}
	return out, nil
}

func (f *fakeVideoRepo) BatchMonth(_ context.Context, videoID string) (string, error) {
	month, ok := f.months[videoID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return month, nil
}

func (f *fakeVideoRepo) Count(_ context.Context) (int, error) {
	return len(f.videos), nil
}

// fakeOwnedRepo — кумулятивные списки клиентов в памяти.
type fakeOwnedRepo struct {
	entries  map[string][]*model.OwnedEntry // customerID → записи
	failList bool
}

func newFakeOwnedRepo() *fakeOwnedRepo {
	return &fakeOwnedRepo{entries: make(map[string][]*model.OwnedEntry)}
}

func (f *fakeOwnedRepo) ListByCustomer(_ context.Context, customerID string) ([]*model.OwnedEntry, error) {
	if f.failList {
		return nil, errors.New("БД недоступна")
	}
	return f.entries[customerID], nil
}

func (f *fakeOwnedRepo) ListVideos(_ context.Context, customerID string) ([]*model.OwnedVideo, error) {
	if f.failList {
		return nil, errors.New("БД недоступна")
	}
	out := make([]*model.OwnedVideo, 0, len(f.entries[customerID]))
	for _, e := range f.entries[customerID] {
		out = append(out, &model.OwnedVideo{
			VideoID:        e.VideoID,
			Title:          e.Title,
			AddedFromMonth: e.AddedFromMonth,
			AddedAt:        e.AddedAt,
		})
	}
	return out, nil
}

func (f *fakeOwnedRepo) ListIDs(_ context.Context, customerID string) ([]string, error) {
	ids := make([]string, 0, len(f.entries[customerID]))
	for _, e := range f.entries[customerID] {
		ids = append(ids, e.VideoID)
	}
	return ids, nil
}

func (f *fakeOwnedRepo) Remove(_ context.Context, customerID string, videoIDs []string) (int, error) {
	drop := make(map[string]struct{}, len(videoIDs))
	for _, id := range videoIDs {
		drop[id] = struct{}{}
	}

	kept := f.entries[customerID][:0]
	removed := 0
	for _, e := range f.entries[customerID] {
		if _, ok := drop[e.VideoID]; ok {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	f.entries[customerID] = kept
	return removed, nil
}

func (f *fakeOwnedRepo) Upsert(_ context.Context, e *model.OwnedEntry) error {
	for i, old := range f.entries[e.CustomerID] {
		if old.VideoID == e.VideoID {
			f.entries[e.CustomerID][i] = e
			return nil
		}
	}
	f.entries[e.CustomerID] = append(f.entries[e.CustomerID], e)
	return nil
}

func (f *fakeOwnedRepo) DeleteAll(_ context.Context, customerID string) (int, error) {
	n := len(f.entries[customerID])
	delete(f.entries, customerID)
	return n, nil
}

func (f *fakeOwnedRepo) Count(_ context.Context, customerID string) (int, error) {
	return len(f.entries[customerID]), nil
}

func (f *fakeOwnedRepo) CountCustomers(_ context.Context) (int, error) {
	return len(f.entries), nil
}

// fakeUpdater — применение заявки поверх fakeOwnedRepo.
type fakeUpdater struct {
	owned *fakeOwnedRepo
	fail  bool
	calls int
}

func (f *fakeUpdater) ApplyListUpdate(ctx context.Context, customerID string, removeIDs []string, additions []*model.OwnedEntry) (int, int, error) {
	f.calls++
	if f.fail {
		return 0, 0, errors.New("транзакция отклонена")
	}

	removed, _ := f.owned.Remove(ctx, customerID, removeIDs)
	for _, e := range additions {
		_ = f.owned.Upsert(ctx, e)
	}
	return len(additions), removed, nil
}

// fakeSnapshotRepo — append-only снимки в памяти.
type fakeSnapshotRepo struct {
	snapshots []*model.SelectionSnapshot
	fail      bool
}

func (f *fakeSnapshotRepo) Insert(_ context.Context, s *model.SelectionSnapshot) error {
	if f.fail {
		return errors.New("БД недоступна")
	}
	f.snapshots = append(f.snapshots, s)
	return nil
}

func (f *fakeSnapshotRepo) ListByCustomer(_ context.Context, customerID string, limit, offset int) ([]*model.SelectionSnapshot, error) {
	var out []*model.SelectionSnapshot
	for i := len(f.snapshots) - 1; i >= 0; i-- {
		if f.snapshots[i].CustomerID == customerID {
			out = append(out, f.snapshots[i])
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSnapshotRepo) CountByCustomer(_ context.Context, customerID string) (int, error) {
	n := 0
	for _, s := range f.snapshots {
		if s.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (f *fakeSnapshotRepo) Recent(_ context.Context, limit int) ([]*model.SelectionSnapshot, error) {
	out := make([]*model.SelectionSnapshot, 0, limit)
	for i := len(f.snapshots) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.snapshots[i])
	}
	return out, nil
}

// fakeCustomerRepo — профили клиентов в памяти.
type fakeCustomerRepo struct {
	customers map[string]*model.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[string]*model.Customer)}
}

func (f *fakeCustomerRepo) Upsert(_ context.Context, c *model.Customer) error {
	f.customers[c.ID] = c
	return nil
}

func (f *fakeCustomerRepo) GetByID(_ context.Context, customerID string) (*model.Customer, error) {
	c, ok := f.customers[customerID]
	if !ok {
		return nil, errors.New("клиент не найден")
	}
	return c, nil
}

// fakeNotifier — захват diff-уведомлений.
type fakeNotifier struct {
	diffs []*model.SelectionDiff
	fail  bool
}

func (f *fakeNotifier) NotifySubmission(diff *model.SelectionDiff) error {
	if f.fail {
		return errors.New("SMTP недоступен")
	}
	f.diffs = append(f.diffs, diff)
	return nil
}

// fixedClock — детерминированный источник времени.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
