package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/videoteka/internal/api/errors"
)

const dashboardRecentLimit = 10

// GetDashboard — GET /api/v1/dashboard.
// Сводка для администратора: счётчики и последние заявки.
// Доступ: admin.
func (h *APIHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboard.Summary(r.Context(), dashboardRecentLimit)
	if err != nil {
		h.logger.Error("Ошибка получения сводки", "error", err)
		apierrors.InternalError(w, "Ошибка получения сводки")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
