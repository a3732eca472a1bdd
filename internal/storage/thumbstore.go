// Пакет storage — хранение миниатюр каталога на диске.
// Миниатюры извлекаются из xlsx при загрузке партии и раздаются
// как статические файлы по /thumbnails/{month}/{file}.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ThumbnailStore — файловое хранилище миниатюр.
// Структура на диске: {baseDir}/{month}/{videoID}{ext}.
type ThumbnailStore struct {
	// baseDir — корневая директория миниатюр (VT_THUMBNAIL_DIR)
	baseDir string
	// baseURL — префикс публичного URL (например, /thumbnails)
	baseURL string
}

// NewThumbnailStore создаёт хранилище миниатюр. Проверяет и создаёт
// корневую директорию, если она не существует.
func NewThumbnailStore(baseDir, baseURL string) (*ThumbnailStore, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию миниатюр %s: %w", baseDir, err)
	}

	return &ThumbnailStore{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// BaseDir возвращает корневую директорию хранилища.
func (s *ThumbnailStore) BaseDir() string {
	return s.baseDir
}

// Save записывает миниатюру видео и возвращает её публичный URL.
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется.
func (s *ThumbnailStore) Save(month, videoID, ext string, data []byte) (string, error) {
	if ext == "" {
		ext = ".png"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	dir := filepath.Join(s.baseDir, month)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("создание директории месяца %s: %w", month, err)
	}

	name := videoID + ext
	fullPath := filepath.Join(dir, name)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка записи миниатюры: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return s.baseURL + "/" + month + "/" + name, nil
}

// RemoveMonth удаляет все миниатюры месяца. Используется при
// откате неудачной загрузки партии.
func (s *ThumbnailStore) RemoveMonth(month string) error {
	dir := filepath.Join(s.baseDir, month)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("удаление миниатюр месяца %s: %w", month, err)
	}
	return nil
}
