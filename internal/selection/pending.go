// Пакет selection — ядро сверки кумулятивного списка клиента.
//
// PendingChangeSet — незакоммиченный диф (добавления/удаления) одной
// сессии редактирования. Не является источником истины: это staging
// поверх долговременного списка owned_entries. Конечный автомат
// состояний видео в сессии:
//
//	owned          — в списке, удаление не помечено
//	pending_remove — в списке, помечено к удалению
//	pending_add    — не в списке, помечено к добавлению
//	available      — не в списке, добавление не помечено
//
// Единственный внешний переход — Toggle; повторное применение
// возвращает исходное состояние (идемпотентность по чётности).
package selection

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// ChangeKind — результат переключения видео.
type ChangeKind string

const (
	// ChangeMarkedAdd — видео помечено к добавлению (available → pending_add)
	ChangeMarkedAdd ChangeKind = "marked_add"
	// ChangeUnmarkedAdd — отмена добавления (pending_add → available)
	ChangeUnmarkedAdd ChangeKind = "unmarked_add"
	// ChangeMarkedRemove — видео помечено к удалению (owned → pending_remove)
	ChangeMarkedRemove ChangeKind = "marked_remove"
	// ChangeUnmarkedRemove — отмена удаления (pending_remove → owned)
	ChangeUnmarkedRemove ChangeKind = "unmarked_remove"
)

// PendingChangeSet — два непересекающихся множества видео: к добавлению
// и к удалению. Для каждого ID хранится название, поскольку межмесячная
// идентичность устанавливается по названию, а не по ID.
// Инвариант: один ID никогда не состоит в обоих множествах одновременно.
type PendingChangeSet struct {
	toAdd    map[string]string // videoID → title
	toRemove map[string]string // videoID → title
}

// NewPendingChangeSet создаёт пустой набор изменений.
func NewPendingChangeSet() *PendingChangeSet {
	return &PendingChangeSet{
		toAdd:    make(map[string]string),
		toRemove: make(map[string]string),
	}
}

// Toggle применяет единственный допустимый внешний переход автомата.
// owned — текущее durable-состояние видео (из owned_entries, не из staging).
func (p *PendingChangeSet) Toggle(videoID, title string, owned bool) ChangeKind {
	if owned {
		if _, ok := p.toRemove[videoID]; ok {
			delete(p.toRemove, videoID)
			return ChangeUnmarkedRemove
		}
		delete(p.toAdd, videoID)
		p.toRemove[videoID] = title
		return ChangeMarkedRemove
	}

	if _, ok := p.toAdd[videoID]; ok {
		delete(p.toAdd, videoID)
		return ChangeUnmarkedAdd
	}
	delete(p.toRemove, videoID)
	p.toAdd[videoID] = title
	return ChangeMarkedAdd
}

// Empty сообщает, пуст ли набор изменений.
func (p *PendingChangeSet) Empty() bool {
	return len(p.toAdd) == 0 && len(p.toRemove) == 0
}

// Len возвращает суммарное количество незакоммиченных изменений.
func (p *PendingChangeSet) Len() int {
	return len(p.toAdd) + len(p.toRemove)
}

// HasAdd сообщает, помечено ли видео к добавлению по ID.
func (p *PendingChangeSet) HasAdd(videoID string) bool {
	_, ok := p.toAdd[videoID]
	return ok
}

// HasRemove сообщает, помечено ли видео к удалению по ID.
func (p *PendingChangeSet) HasRemove(videoID string) bool {
	_, ok := p.toRemove[videoID]
	return ok
}

// HasAddTitle сообщает, помечено ли к добавлению видео с таким названием.
// Сравнение — по нормализованному названию; пустое название не совпадает никогда.
func (p *PendingChangeSet) HasAddTitle(title string) bool {
	return hasTitle(p.toAdd, title)
}

// HasRemoveTitle сообщает, помечено ли к удалению видео с таким названием.
func (p *PendingChangeSet) HasRemoveTitle(title string) bool {
	return hasTitle(p.toRemove, title)
}

func hasTitle(m map[string]string, title string) bool {
	key := NormalizeTitle(title)
	if key == "" {
		return false
	}
	for _, t := range m {
		if NormalizeTitle(t) == key {
			return true
		}
	}
	return false
}

// AddIDs возвращает отсортированный список ID, помеченных к добавлению.
func (p *PendingChangeSet) AddIDs() []string {
	return sortedKeys(p.toAdd)
}

// RemoveIDs возвращает отсортированный список ID, помеченных к удалению.
func (p *PendingChangeSet) RemoveIDs() []string {
	return sortedKeys(p.toRemove)
}

// TitleOf возвращает название, сохранённое для видео в любом из множеств.
func (p *PendingChangeSet) TitleOf(videoID string) (string, bool) {
	if t, ok := p.toAdd[videoID]; ok {
		return t, true
	}
	if t, ok := p.toRemove[videoID]; ok {
		return t, true
	}
	return "", false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- Сериализация ---

// envelope — формат хранения набора в staging-хранилище.
// Массивы addTitles/removeTitles выровнены с add/remove по индексам.
type envelope struct {
	Add          []string  `json:"add"`
	Remove       []string  `json:"remove"`
	AddTitles    []string  `json:"addTitles"`
	RemoveTitles []string  `json:"removeTitles"`
	SavedAt      time.Time `json:"savedAt"`
}

// Encode сериализует набор вместе с меткой времени сохранения.
// Чистая функция: не изменяет набор и не обращается к часам.
func Encode(p *PendingChangeSet, savedAt time.Time) ([]byte, error) {
	env := envelope{
		Add:     p.AddIDs(),
		Remove:  p.RemoveIDs(),
		SavedAt: savedAt,
	}
	env.AddTitles = make([]string, len(env.Add))
	for i, id := range env.Add {
		env.AddTitles[i] = p.toAdd[id]
	}
	env.RemoveTitles = make([]string, len(env.Remove))
	for i, id := range env.Remove {
		env.RemoveTitles[i] = p.toRemove[id]
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("сериализация набора изменений: %w", err)
	}
	return data, nil
}

// Decode восстанавливает набор и метку времени сохранения.
// ID, попавший в оба множества (повреждённые данные), остаётся только
// в remove — удаления имеют приоритет.
func Decode(data []byte) (*PendingChangeSet, time.Time, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, time.Time{}, fmt.Errorf("декодирование набора изменений: %w", err)
	}

	p := NewPendingChangeSet()
	for i, id := range env.Add {
		if id == "" {
			continue
		}
		title := ""
		if i < len(env.AddTitles) {
			title = env.AddTitles[i]
		}
		p.toAdd[id] = title
	}
	for i, id := range env.Remove {
		if id == "" {
			continue
		}
		title := ""
		if i < len(env.RemoveTitles) {
			title = env.RemoveTitles[i]
		}
		delete(p.toAdd, id)
		p.toRemove[id] = title
	}

	return p, env.SavedAt, nil
}

// IsExpired сообщает, протух ли сохранённый набор.
// Чистый предикат: часы передаются явно.
func IsExpired(now, savedAt time.Time, ttl time.Duration) bool {
	if savedAt.IsZero() {
		return true
	}
	return now.Sub(savedAt) > ttl
}
