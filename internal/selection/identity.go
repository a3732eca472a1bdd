// identity.go — межмесячная идентичность видео.
//
// Одно и то же видео, переизданное в партии другого месяца, получает
// новый ID, но сохраняет название. Правило эквивалентности определено
// здесь один раз и используется всеми вызывающими сторонами:
// «в списке» = совпало нормализованное название ИЛИ совпал ID.
package selection

import (
	"strings"

	"github.com/bigkaa/videoteka/internal/domain/model"
)

// NormalizeTitle приводит название к канонической форме для сравнения:
// обрезка краёв, схлопывание внутренних пробелов, нижний регистр.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// OwnedIndex — индекс долговременного списка клиента для быстрых
// проверок принадлежности по ID и по названию.
type OwnedIndex struct {
	ids    map[string]bool
	titles map[string]bool
}

// NewOwnedIndex строит индекс по записям owned_entries.
// Записи с пустым названием индексируются только по ID (деградация
// без ошибки; вызывающая сторона логирует как проблему качества данных).
func NewOwnedIndex(entries []*model.OwnedEntry) *OwnedIndex {
	ix := &OwnedIndex{
		ids:    make(map[string]bool, len(entries)),
		titles: make(map[string]bool, len(entries)),
	}
	for _, e := range entries {
		ix.ids[e.VideoID] = true
		if key := NormalizeTitle(e.Title); key != "" {
			ix.titles[key] = true
		}
	}
	return ix
}

// IsOwned сообщает, держит ли клиент эквивалентное видео.
// Совпадение по названию — основной межмесячный случай; совпадение
// по ID подстраховывает записи, у которых сравнение названий не сработало.
func (ix *OwnedIndex) IsOwned(videoID, title string) bool {
	if key := NormalizeTitle(title); key != "" && ix.titles[key] {
		return true
	}
	return ix.ids[videoID]
}

// ContainsID сообщает, есть ли в списке запись с точно таким ID.
func (ix *OwnedIndex) ContainsID(videoID string) bool {
	return ix.ids[videoID]
}
