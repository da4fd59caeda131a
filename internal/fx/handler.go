package fx

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hotwind-erp/hotwind/internal/platform/httpx"
	"github.com/hotwind-erp/hotwind/internal/shared"
)

const dateLayout = "2006-01-02"

// GenerateRatesRequest is the JSON body for rate generation.
type GenerateRatesRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// GenerateRatesResponse reports how many rows were inserted.
type GenerateRatesResponse struct {
	Inserted int `json:"inserted"`
}

// RateResponse is the JSON shape of a resolved rate.
type RateResponse struct {
	FromCurrency string `json:"from_currency"`
	ToCurrency   string `json:"to_currency"`
	RateDate     string `json:"rate_date"`
	Rate         string `json:"rate"`
}

// Handler serves exchange-rate endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers rate routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/exchange-rates/generate", h.Generate)
	r.Get("/exchange-rates/{from}/{to}", h.Show)
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRatesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)

	inserted, err := h.service.Generate(r.Context(), start, end)
	if err != nil {
		h.logger.Error("generate rates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	h.logger.Info("generated exchange rates",
		slog.String("start", req.StartDate),
		slog.String("end", req.EndDate),
		slog.Int("inserted", inserted))
	httpx.JSON(w, http.StatusOK, GenerateRatesResponse{Inserted: inserted})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	from := chi.URLParam(r, "from")
	to := chi.URLParam(r, "to")

	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: date %q", shared.ErrInvalidInput, raw))
			return
		}
		date = parsed
	}

	rate, err := h.service.Rate(r.Context(), from, to, date)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, RateResponse{
		FromCurrency: from,
		ToCurrency:   to,
		RateDate:     date.Format(dateLayout),
		Rate:         rate.String(),
	})
}
