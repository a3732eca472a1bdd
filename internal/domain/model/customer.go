package model

import "time"

// Customer — локальное отражение клиента из Auth-провайдера.
// Идентификация и сессии принадлежат провайдеру (Supabase Auth),
// здесь хранится только то, что нужно для списков и уведомлений.
type Customer struct {
	// ID — subject из JWT (UUID пользователя в Auth-провайдере)
	ID string `json:"id"`
	// Email — электронная почта
	Email string `json:"email"`
	// Name — отображаемое имя
	Name string `json:"name,omitempty"`
	// CreatedAt — время первого появления в системе
	CreatedAt time.Time `json:"createdAt"`
}
