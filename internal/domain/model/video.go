package model

import "time"

// Batch — месячная партия каталога видео.
// Создаётся один раз при загрузке xlsx-файла; после создания неизменна,
// за исключением административных правок метаданных отдельных видео.
type Batch struct {
	// ID — UUID партии
	ID string `json:"id"`
	// Name — название партии (например, «Каталог за январь»)
	Name string `json:"name"`
	// Month — месяц публикации в формате YYYY-MM, уникален
	Month string `json:"month"`
	// CreatedBy — идентификатор загрузившего (subject из JWT)
	CreatedBy string `json:"createdBy"`
	// CreatedAt — время создания партии
	CreatedAt time.Time `json:"createdAt"`
}

// Video — одна позиция каталога внутри партии.
// ID уникален внутри партии; одно и то же видео в разных партиях
// получает разные ID, но сохраняет одинаковый Title.
type Video struct {
	// ID — UUID видео (уникален в пределах партии)
	ID string `json:"id"`
	// BatchID — UUID партии-владельца
	BatchID string `json:"batchId"`
	// Title — название, ключ межмесячной идентичности
	Title string `json:"title"`
	// TitleEn — название на английском (опционально)
	TitleEn string `json:"titleEn,omitempty"`
	// ThumbnailURL — URL миниатюры
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	// Director — режиссёр
	Director string `json:"director,omitempty"`
	// Cast — актёрский состав
	Cast string `json:"cast,omitempty"`
	// Duration — длительность (как указана в каталоге, например «1:45»)
	Duration string `json:"duration,omitempty"`
	// Rating — возрастной рейтинг
	Rating string `json:"rating,omitempty"`
	// Language — язык аудиодорожки
	Language string `json:"language,omitempty"`
	// Subtitle — язык субтитров
	Subtitle string `json:"subtitle,omitempty"`
	// Position — порядковый номер строки в исходном xlsx
	Position int `json:"position"`
	// CreatedAt — время создания записи
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time `json:"updatedAt"`
}

// Catalog — партия вместе со всеми её видео, как отдаётся клиенту.
type Catalog struct {
	Batch  *Batch   `json:"batch"`
	Videos []*Video `json:"videos"`
}

// MonthInfo — краткая информация об опубликованном месяце.
type MonthInfo struct {
	// Month — месяц в формате YYYY-MM
	Month string `json:"month"`
	// Name — название партии
	Name string `json:"name"`
	// VideoCount — количество видео в партии
	VideoCount int `json:"videoCount"`
}

// VideoSummary — денормализованная сводка видео для снимков истории
// и email-уведомлений. Дедуплицируется по названию: одно и то же видео,
// переключённое через строки разных месяцев, попадает в сводку один раз.
type VideoSummary struct {
	// VideoID — UUID видео
	VideoID string `json:"videoId"`
	// Title — название
	Title string `json:"title"`
	// TitleEn — название на английском
	TitleEn string `json:"titleEn,omitempty"`
	// ThumbnailURL — URL миниатюры
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	// Month — месяц партии-владельца
	Month string `json:"month,omitempty"`
}
