package catalog

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hotwind-erp/hotwind/internal/platform/httpx"
)

// Handler serves heater model endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/models", h.List)
	r.Get("/models/in-stock", h.ListInStock)
	r.Get("/models/{sku}", h.Show)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	term := r.URL.Query().Get("search")

	result, err := h.service.Search(r.Context(), term, limit)
	if err != nil {
		h.logger.Error("list models", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) ListInStock(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListInStock(r.Context())
	if err != nil {
		h.logger.Error("list in-stock models", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetDetail(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}
