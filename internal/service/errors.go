// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrNothingToSubmit — нет отложенных изменений для отправки.
	ErrNothingToSubmit = errors.New("нет изменений для отправки")
	// ErrPersistence — критический шаг отправки не выполнен, список не изменён.
	ErrPersistence = errors.New("не удалось сохранить изменения списка")
)
