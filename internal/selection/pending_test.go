package selection

import (
	"testing"
	"time"
)

// TestToggle_Transitions проверяет все четыре перехода конечного автомата.
func TestToggle_Transitions(t *testing.T) {
	tests := []struct {
		name       string
		owned      bool
		prepare    func(p *PendingChangeSet)
		want       ChangeKind
		wantAdd    bool
		wantRemove bool
	}{
		{
			name:  "available → pending_add",
			owned: false,
			want:  ChangeMarkedAdd, wantAdd: true,
		},
		{
			name:  "pending_add → available",
			owned: false,
			prepare: func(p *PendingChangeSet) {
				p.Toggle("v1", "Фильм", false)
			},
			want: ChangeUnmarkedAdd,
		},
		{
			name:  "owned → pending_remove",
			owned: true,
			want:  ChangeMarkedRemove, wantRemove: true,
		},
		{
			name:  "pending_remove → owned",
			owned: true,
			prepare: func(p *PendingChangeSet) {
				p.Toggle("v1", "Фильм", true)
			},
			want: ChangeUnmarkedRemove,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPendingChangeSet()
			if tt.prepare != nil {
				tt.prepare(p)
			}

			got := p.Toggle("v1", "Фильм", tt.owned)
			if got != tt.want {
				t.Errorf("Toggle(): ожидалось %q, получено %q", tt.want, got)
			}
			if p.HasAdd("v1") != tt.wantAdd {
				t.Errorf("HasAdd: ожидалось %v", tt.wantAdd)
			}
			if p.HasRemove("v1") != tt.wantRemove {
				t.Errorf("HasRemove: ожидалось %v", tt.wantRemove)
			}
		})
	}
}

// TestToggle_Idempotent проверяет, что двойное переключение возвращает
// набор в исходное состояние для любого стартового состояния.
func TestToggle_Idempotent(t *testing.T) {
	for _, owned := range []bool{true, false} {
		p := NewPendingChangeSet()
		p.Toggle("other", "Другой фильм", false)

		before, _ := Encode(p, time.Time{})

		p.Toggle("v1", "Фильм", owned)
		p.Toggle("v1", "Фильм", owned)

		after, _ := Encode(p, time.Time{})
		if string(before) != string(after) {
			t.Errorf("owned=%v: двойное переключение изменило набор:\nдо:    %s\nпосле: %s",
				owned, before, after)
		}
	}
}

// TestToggle_MutualExclusivity проверяет, что ID никогда не находится
// в обоих множествах одновременно, как бы ни чередовались переключения.
func TestToggle_MutualExclusivity(t *testing.T) {
	p := NewPendingChangeSet()

	// Чередуем owned-флаг, имитируя рассинхронизацию клиента
	sequence := []bool{false, true, false, false, true, true, false}
	for i, owned := range sequence {
		p.Toggle("v1", "Фильм", owned)
		if p.HasAdd("v1") && p.HasRemove("v1") {
			t.Fatalf("шаг %d: v1 одновременно в toAdd и toRemove", i)
		}
	}
}

// TestEncodeDecode проверяет сохранение ID, названий и метки времени.
func TestEncodeDecode(t *testing.T) {
	p := NewPendingChangeSet()
	p.Toggle("a1", "Драма X", false)
	p.Toggle("b2", "Комедия Y", false)
	p.Toggle("c3", "Боевик Z", true)

	savedAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	data, err := Encode(p, savedAt)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, gotSavedAt, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !gotSavedAt.Equal(savedAt) {
		t.Errorf("savedAt: ожидалось %v, получено %v", savedAt, gotSavedAt)
	}

	if !got.HasAdd("a1") || !got.HasAdd("b2") || !got.HasRemove("c3") {
		t.Errorf("после round-trip потеряны элементы: add=%v remove=%v",
			got.AddIDs(), got.RemoveIDs())
	}
	if title, _ := got.TitleOf("a1"); title != "Драма X" {
		t.Errorf("TitleOf(a1): ожидалось %q, получено %q", "Драма X", title)
	}
	if !got.HasRemoveTitle("боевик  z") {
		t.Error("название должно сравниваться в нормализованной форме")
	}
}

// TestDecode_Corrupted проверяет приоритет remove при повреждённых данных.
func TestDecode_Corrupted(t *testing.T) {
	if _, _, err := Decode([]byte("не json")); err == nil {
		t.Error("Decode повреждённого payload должен вернуть ошибку")
	}

	// ID в обоих множествах — остаётся только в remove
	data := []byte(`{"add":["v1"],"remove":["v1"],"addTitles":["X"],"removeTitles":["X"],"savedAt":"2025-01-01T00:00:00Z"}`)
	p, _, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.HasAdd("v1") {
		t.Error("v1 не должен остаться в toAdd")
	}
	if !p.HasRemove("v1") {
		t.Error("v1 должен остаться в toRemove")
	}
}

// TestIsExpired проверяет окно валидности сохранённого набора.
func TestIsExpired(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ttl := 24 * time.Hour

	tests := []struct {
		name    string
		savedAt time.Time
		want    bool
	}{
		{"сохранён час назад", now.Add(-time.Hour), false},
		{"сохранён 25 часов назад", now.Add(-25 * time.Hour), true},
		{"ровно на границе TTL", now.Add(-24 * time.Hour), false},
		{"нулевая метка времени", time.Time{}, true},
	}

	for _, tt := range tests {
		if got := IsExpired(now, tt.savedAt, ttl); got != tt.want {
			t.Errorf("%s: IsExpired = %v, ожидалось %v", tt.name, got, tt.want)
		}
	}
}
