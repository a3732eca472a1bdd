// catalog.go — обработчики каталога: месяцы, просмотр, загрузка xlsx,
// правка метаданных видео.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/videoteka/internal/api/errors"
	"github.com/bigkaa/videoteka/internal/api/middleware"
	"github.com/bigkaa/videoteka/internal/service"
)

// maxUploadBytes — предел размера xlsx-файла каталога (64 MiB:
// книги с сотнями встроенных миниатюр бывают крупными).
const maxUploadBytes = 64 << 20

// ListMonths — GET /api/v1/months.
// Список опубликованных месяцев, новые первыми.
// Доступ: любой аутентифицированный.
func (h *APIHandler) ListMonths(w http.ResponseWriter, r *http.Request) {
	months, err := h.catalogs.ListMonths(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения списка месяцев", "error", err)
		apierrors.InternalError(w, "Ошибка получения списка месяцев")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"months": months})
}

// GetCatalog — GET /api/v1/catalogs/{month}.
// Каталог месяца глазами клиента: каждое видео с вычисленным состоянием.
// Доступ: любой аутентифицированный.
func (h *APIHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	month := chi.URLParam(r, "month")
	customerID := middleware.SubjectFromContext(r.Context())

	view, err := h.selections.MonthView(r.Context(), customerID, month)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Каталог за месяц "+month+" не найден")
			return
		}
		h.logger.Error("Ошибка получения каталога", "month", month, "error", err)
		apierrors.InternalError(w, "Ошибка получения каталога")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// UploadCatalog — POST /api/v1/catalogs.
// Публикация месячной партии из xlsx-файла (multipart/form-data:
// поля month, name и файл file).
// Доступ: uploader.
func (h *APIHandler) UploadCatalog(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		apierrors.ValidationError(w, "Некорректная multipart-форма: "+err.Error())
		return
	}

	month := r.FormValue("month")
	if month == "" {
		apierrors.ValidationError(w, "Поле month обязательно (формат YYYY-MM)")
		return
	}
	name := r.FormValue("name")

	file, _, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Файл каталога обязателен (поле file)")
		return
	}
	defer file.Close()

	catalog, err := h.catalogs.Upload(r.Context(), month, name, claims.Subject, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		case errors.Is(err, service.ErrConflict):
			apierrors.Conflict(w, err.Error())
		default:
			h.logger.Error("Ошибка публикации партии", "month", month, "error", err)
			apierrors.InternalError(w, "Ошибка публикации партии каталога")
		}
		return
	}

	writeJSON(w, http.StatusCreated, catalog)
}

// videoUpdateRequest — тело PATCH /api/v1/videos/{id}.
// Отсутствующие поля не изменяются.
type videoUpdateRequest struct {
	Title    *string `json:"title,omitempty"`
	TitleEn  *string `json:"titleEn,omitempty"`
	Director *string `json:"director,omitempty"`
	Cast     *string `json:"cast,omitempty"`
	Duration *string `json:"duration,omitempty"`
	Rating   *string `json:"rating,omitempty"`
	Language *string `json:"language,omitempty"`
	Subtitle *string `json:"subtitle,omitempty"`
}

// UpdateVideo — PATCH /api/v1/videos/{id}.
// Административная правка метаданных видео.
// Доступ: uploader.
func (h *APIHandler) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	var req videoUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	video, err := h.catalogs.UpdateVideo(r.Context(), videoID, service.VideoUpdate{
		Title:    req.Title,
		TitleEn:  req.TitleEn,
		Director: req.Director,
		Cast:     req.Cast,
		Duration: req.Duration,
		Rating:   req.Rating,
		Language: req.Language,
		Subtitle: req.Subtitle,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Видео не найдено")
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		default:
			h.logger.Error("Ошибка правки видео", "video_id", videoID, "error", err)
			apierrors.InternalError(w, "Ошибка правки метаданных видео")
		}
		return
	}

	writeJSON(w, http.StatusOK, video)
}
