// reconcile.go — вывод эффективного состояния выбора.
//
// Reconciler сводит долговременный список (OwnedIndex) и staging
// (PendingChangeSet) в отображаемое состояние каждого видео и в
// эффективное множество выбранных ID. Чистые вычисления без побочных
// эффектов — безопасно пересчитывать на каждый запрос.
package selection

import "sort"

// DisplayState — отображаемое состояние видео в сессии клиента.
type DisplayState string

const (
	// StateOwned — в списке, удаление не помечено
	StateOwned DisplayState = "owned"
	// StatePendingRemove — в списке, помечено к удалению
	StatePendingRemove DisplayState = "pending_remove"
	// StatePendingAdd — не в списке, помечено к добавлению
	StatePendingAdd DisplayState = "pending_add"
	// StateAvailable — не в списке, добавление не помечено
	StateAvailable DisplayState = "available"
)

// Reconciler совмещает индекс списка с набором незакоммиченных изменений.
type Reconciler struct {
	owned   *OwnedIndex
	pending *PendingChangeSet
}

// NewReconciler создаёт reconciler над индексом и staging-набором.
func NewReconciler(owned *OwnedIndex, pending *PendingChangeSet) *Reconciler {
	return &Reconciler{owned: owned, pending: pending}
}

// StateFor вычисляет отображаемое состояние видео.
// Принадлежность и к списку, и к staging проверяется по правилу
// межмесячной идентичности (название ИЛИ ID).
func (r *Reconciler) StateFor(videoID, title string) DisplayState {
	if r.owned.IsOwned(videoID, title) {
		if r.pending.HasRemove(videoID) || r.pending.HasRemoveTitle(title) {
			return StatePendingRemove
		}
		return StateOwned
	}
	if r.pending.HasAdd(videoID) || r.pending.HasAddTitle(title) {
		return StatePendingAdd
	}
	return StateAvailable
}

// HasPendingChanges сообщает, есть ли незакоммиченные изменения.
func (r *Reconciler) HasPendingChanges() bool {
	return !r.pending.Empty()
}

// EffectiveSelectedIDs возвращает (owned ∪ toAdd) − toRemove.
// Детерминированная чистая функция от своих аргументов; результат
// отсортирован для стабильности.
func EffectiveSelectedIDs(ownedIDs []string, pending *PendingChangeSet) []string {
	effective := make(map[string]bool, len(ownedIDs)+pending.Len())
	for _, id := range ownedIDs {
		effective[id] = true
	}
	for _, id := range pending.AddIDs() {
		effective[id] = true
	}
	for _, id := range pending.RemoveIDs() {
		delete(effective, id)
	}

	ids := make([]string, 0, len(effective))
	for id := range effective {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
