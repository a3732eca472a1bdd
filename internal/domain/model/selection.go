package model

import "time"

// OwnedEntry — долговременная запись «клиент держит видео в своём списке».
// Единственный источник истины; изменяется только при финализации заявки
// (submission) или явной очистке списка.
type OwnedEntry struct {
	// CustomerID — UUID клиента
	CustomerID string `json:"customerId"`
	// VideoID — UUID видео (из партии, откуда оно было добавлено)
	VideoID string `json:"videoId"`
	// Title — название на момент добавления (ключ межмесячной идентичности)
	Title string `json:"title"`
	// AddedFromMonth — месяц партии, из которой видео добавлено
	AddedFromMonth string `json:"addedFromMonth"`
	// AddedAt — время добавления
	AddedAt time.Time `json:"addedAt"`
}

// OwnedVideo — запись списка клиента, обогащённая метаданными видео
// для отдачи клиенту (JOIN с таблицей videos).
type OwnedVideo struct {
	// VideoID — UUID видео
	VideoID string `json:"videoId"`
	// Title — название
	Title string `json:"title"`
	// TitleEn — название на английском
	TitleEn string `json:"titleEn,omitempty"`
	// ThumbnailURL — URL миниатюры
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	// AddedFromMonth — месяц партии, из которой видео добавлено
	AddedFromMonth string `json:"addedFromMonth"`
	// AddedAt — время добавления
	AddedAt time.Time `json:"addedAt"`
}

// SelectionSnapshot — неизменяемый снимок финализированной заявки.
// Append-only: записывается один раз при submission, никогда не обновляется.
type SelectionSnapshot struct {
	// ID — UUID снимка
	ID string `json:"id"`
	// CustomerID — UUID клиента
	CustomerID string `json:"customerId"`
	// VideoIDs — полный итоговый список видео после применения заявки
	VideoIDs []string `json:"videoIds"`
	// AddedVideos — сводки добавленных видео (дедуплицированы по названию)
	AddedVideos []VideoSummary `json:"addedVideos"`
	// RemovedVideos — сводки удалённых видео (дедуплицированы по названию)
	RemovedVideos []VideoSummary `json:"removedVideos"`
	// TotalCount — итоговый размер списка
	TotalCount int `json:"totalCount"`
	// AddedCount — количество добавленных
	AddedCount int `json:"addedCount"`
	// RemovedCount — количество удалённых
	RemovedCount int `json:"removedCount"`
	// SnapshotDate — время фиксации
	SnapshotDate time.Time `json:"snapshotDate"`
}

// SelectionDiff — payload для email-уведомления о финализированной заявке.
type SelectionDiff struct {
	// CustomerID — UUID клиента
	CustomerID string `json:"customerId"`
	// CustomerName — имя клиента
	CustomerName string `json:"customerName"`
	// CustomerEmail — email клиента
	CustomerEmail string `json:"customerEmail"`
	// TotalCount — итоговый размер списка
	TotalCount int `json:"totalCount"`
	// AddedVideos — добавленные видео
	AddedVideos []VideoSummary `json:"addedVideos"`
	// RemovedVideos — удалённые видео
	RemovedVideos []VideoSummary `json:"removedVideos"`
}
