// selection.go — обработчики списка клиента: переключение видео,
// отложенные изменения, отправка заявки, история.
package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/videoteka/internal/api/errors"
	"github.com/bigkaa/videoteka/internal/api/middleware"
	"github.com/bigkaa/videoteka/internal/service"
)

// ensureCustomer обновляет локальный профиль клиента из claims.
func (h *APIHandler) ensureCustomer(r *http.Request) string {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return ""
	}
	h.customers.Ensure(r.Context(), claims.Subject, claims.Email, claims.Name)
	return claims.Subject
}

// ToggleVideo — POST /api/v1/videos/{id}/toggle.
// Переключает видео в отложенных изменениях клиента.
// Доступ: customer.
func (h *APIHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")
	customerID := h.ensureCustomer(r)

	result, err := h.selections.Toggle(r.Context(), customerID, videoID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Видео не найдено")
			return
		}
		h.logger.Error("Ошибка переключения видео", "video_id", videoID, "error", err)
		apierrors.InternalError(w, "Ошибка переключения видео")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetSelection — GET /api/v1/selection.
// Накопленный список клиента с метаданными видео.
// Доступ: customer.
func (h *APIHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.SubjectFromContext(r.Context())

	videos := h.selections.OwnedList(r.Context(), customerID)
	writeJSON(w, http.StatusOK, map[string]any{
		"videos": videos,
		"total":  len(videos),
	})
}

// GetPending — GET /api/v1/selection/pending.
// Текущие отложенные изменения клиента со сводками видео.
// Доступ: customer.
func (h *APIHandler) GetPending(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.SubjectFromContext(r.Context())

	view, err := h.selections.Pending(r.Context(), customerID)
	if err != nil {
		h.logger.Error("Ошибка получения отложенных изменений", "error", err)
		apierrors.InternalError(w, "Ошибка получения отложенных изменений")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// DiscardPending — DELETE /api/v1/selection/pending.
// Отбрасывает отложенные изменения; накопленный список не затрагивается.
// Доступ: customer.
func (h *APIHandler) DiscardPending(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.SubjectFromContext(r.Context())

	h.selections.DiscardPending(r.Context(), customerID)
	w.WriteHeader(http.StatusNoContent)
}

// SubmitSelection — POST /api/v1/selection/submit.
// Финализирует отложенные изменения клиента.
// Доступ: customer.
func (h *APIHandler) SubmitSelection(w http.ResponseWriter, r *http.Request) {
	customerID := h.ensureCustomer(r)

	result, err := h.submission.Submit(r.Context(), customerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNothingToSubmit):
			apierrors.NothingToSubmit(w, "Нет изменений для отправки")
		case errors.Is(err, service.ErrPersistence):
			// staging сохранён, клиент может повторить отправку
			h.logger.Error("Заявка не применена", "customer_id", customerID, "error", err)
			apierrors.InternalError(w, "Не удалось применить заявку, изменения сохранены — повторите позже")
		default:
			h.logger.Error("Ошибка отправки заявки", "customer_id", customerID, "error", err)
			apierrors.InternalError(w, "Ошибка отправки заявки")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ClearSelection — DELETE /api/v1/selection.
// Полная очистка накопленного списка клиента вместе со staging.
// Доступ: customer.
func (h *APIHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.SubjectFromContext(r.Context())

	result, err := h.submission.ClearAll(r.Context(), customerID)
	if err != nil {
		h.logger.Error("Ошибка очистки списка", "customer_id", customerID, "error", err)
		apierrors.InternalError(w, "Ошибка очистки списка")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetHistory — GET /api/v1/selection/history.
// Снимки отправленных заявок клиента (новые первыми), с пагинацией.
// Доступ: customer.
func (h *APIHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.SubjectFromContext(r.Context())
	limit, offset := paginationParams(r)

	snapshots, total, err := h.selections.History(r.Context(), customerID, limit, offset)
	if err != nil {
		h.logger.Error("Ошибка получения истории", "customer_id", customerID, "error", err)
		apierrors.InternalError(w, "Ошибка получения истории заявок")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"snapshots": snapshots,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}
