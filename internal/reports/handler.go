package reports

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hotwind-erp/hotwind/internal/platform/httpx"
	"github.com/hotwind-erp/hotwind/internal/shared"
)

const dateLayout = "2006-01-02"

// Handler serves report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/stock", h.Stock)
	r.Get("/reports/price-list", h.PriceList)
	r.Get("/reports/currency-translation", h.CurrencyTranslation)
}

func (h *Handler) Stock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.StockReport(r.Context())
	if err != nil {
		h.logger.Error("stock report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) PriceList(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.PriceListReport(r.Context())
	if err != nil {
		h.logger.Error("price list report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) CurrencyTranslation(w http.ResponseWriter, r *http.Request) {
	start, err := parseDateParam(r, "start_date")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	end, err := parseDateParam(r, "end_date")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	items, err := h.service.CurrencyTranslationReport(r.Context(), start, end)
	if err != nil {
		h.logger.Error("currency translation report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", shared.ErrInvalidInput, name)
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q", shared.ErrInvalidInput, name, raw)
	}
	return parsed, nil
}
