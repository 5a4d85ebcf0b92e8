package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Totarae/golinks/internal/model"
	"github.com/Totarae/golinks/internal/service"
)

// DeletedMessage тело успешного ответа на DELETE.
const DeletedMessage = "Golink deleted successfully"

const internalErrorMessage = "Internal server error"

// GolinkService операции реестра, которые использует обработчик.
type GolinkService interface {
	Create(ctx context.Context, in service.CreateInput) (model.Golink, error)
	Get(ctx context.Context, shortLink string) (model.Golink, error)
	Exists(ctx context.Context, shortLink string) (bool, error)
	List(ctx context.Context, q service.ListQuery) (service.ListResult, error)
	Update(ctx context.Context, shortLink string, in service.UpdateInput) (model.Golink, error)
	Delete(ctx context.Context, shortLink string) error
	Ping(ctx context.Context) error
}

// Handler HTTP-обработчики реестра ссылок.
type Handler struct {
	Service GolinkService
	Logger  *zap.Logger
}

// NewHandler создаёт обработчики поверх сервиса.
func NewHandler(svc GolinkService, logger *zap.Logger) *Handler {
	return &Handler{Service: svc, Logger: logger}
}

// shortLinkParam собирает ключ из двух сегментов пути: /golinks/{prefix}/{name}.
func shortLinkParam(r *http.Request) string {
	return chi.URLParam(r, "prefix") + "/" + chi.URLParam(r, "name")
}

// CreateGolink POST /golinks
func (h *Handler) CreateGolink(w http.ResponseWriter, r *http.Request) {
	var req model.CreateGolinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	golink, err := h.Service.Create(r.Context(), service.CreateInput{
		ShortLink: req.ShortLink,
		URL:       req.URL,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, golink)
}

// ListGolinks GET /golinks[?page=&page_size=]
func (h *Handler) ListGolinks(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.List(r.Context(), parseListQuery(r))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if res.Pagination == nil {
		h.writeJSON(w, http.StatusOK, res.Items)
		return
	}
	h.writeJSON(w, http.StatusOK, model.PaginatedResponse{
		Data:       res.Items,
		Pagination: *res.Pagination,
	})
}

// parseListQuery выбирает постраничный режим, если передан page или page_size.
// Нечисловое или отрицательное значение заменяется значением по умолчанию.
func parseListQuery(r *http.Request) service.ListQuery {
	var q service.ListQuery
	values := r.URL.Query()
	if values.Has("page") {
		q.Page = parseIntOr(values.Get("page"), service.DefaultPage)
	}
	if values.Has("page_size") {
		q.PageSize = parseIntOr(values.Get("page_size"), service.DefaultPageSize)
	}
	return q
}

func parseIntOr(raw string, def int) *int {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		v = def
	}
	return &v
}

// GetGolink GET /golinks/{prefix}/{name}
func (h *Handler) GetGolink(w http.ResponseWriter, r *http.Request) {
	golink, err := h.Service.Get(r.Context(), shortLinkParam(r))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, golink)
}

// HeadGolink HEAD /golinks/{prefix}/{name}
func (h *Handler) HeadGolink(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Service.Exists(r.Context(), shortLinkParam(r))
	switch {
	case err != nil:
		w.WriteHeader(http.StatusInternalServerError)
	case !ok:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

// UpdateGolink PUT /golinks/{prefix}/{name}
func (h *Handler) UpdateGolink(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateGolinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	golink, err := h.Service.Update(r.Context(), shortLinkParam(r), service.UpdateInput{URL: req.URL})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, golink)
}

// DeleteGolink DELETE /golinks/{prefix}/{name}
func (h *Handler) DeleteGolink(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), shortLinkParam(r)); err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, model.MessageResponse{Message: DeletedMessage})
}

// Ping GET /ping
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Ping(r.Context()); err != nil {
		h.writeError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		h.writeError(w, http.StatusBadRequest, vErr.Reason)
	case errors.Is(err, service.ErrConflict):
		h.writeError(w, http.StatusConflict, "Golink already exists")
	case errors.Is(err, service.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "Golink not found")
	default:
		// подробности уже в логе сервиса
		h.writeError(w, http.StatusInternalServerError, internalErrorMessage)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Warn("Failed to encode response", zap.Error(err))
	}
}
