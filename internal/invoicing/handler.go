package invoicing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/hotwind-erp/hotwind/internal/platform/httpx"
	"github.com/hotwind-erp/hotwind/internal/shared"
)

const dateLayout = "2006-01-02"

// idempotencyModule scopes idempotency keys stored for invoice creation.
const idempotencyModule = "invoicing"

// CreateInvoiceRequest is the JSON body for invoice creation.
type CreateInvoiceRequest struct {
	CustomerID  int64                      `json:"customer_id" validate:"required,gt=0"`
	InvoiceDate string                     `json:"invoice_date" validate:"required,datetime=2006-01-02"`
	Notes       *string                    `json:"notes"`
	Lines       []CreateInvoiceLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// CreateInvoiceLineRequest is one requested position.
type CreateInvoiceLineRequest struct {
	SKU          string          `json:"sku" validate:"required"`
	Quantity     int             `json:"quantity" validate:"required,gt=0"`
	UnitPriceUAH decimal.Decimal `json:"unit_price_uah" validate:"required"`
}

// CacheInvalidator drops derived caches once an invoice has mutated stock.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Handler serves invoice endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	idem      *shared.IdempotencyStore
	caches    CacheInvalidator
	validator *validator.Validate
}

// NewHandler constructs Handler. idem and caches may be nil; creation then
// skips duplicate-request detection and cache invalidation respectively.
func NewHandler(logger *slog.Logger, service *Service, idem *shared.IdempotencyStore, caches CacheInvalidator) *Handler {
	return &Handler{logger: logger, service: service, idem: idem, caches: caches, validator: validator.New()}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/invoices", h.Create)
	r.Get("/invoices", h.List)
	r.Get("/invoices/{id}", h.Show)
	r.Get("/invoices/{id}/pdf", h.ShowPDF)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if key != "" && h.idem != nil {
		if err := h.idem.CheckAndInsert(r.Context(), key, idempotencyModule); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}

	invoiceDate, _ := time.Parse(dateLayout, req.InvoiceDate)
	params := CreateInvoiceParams{
		CustomerID:  req.CustomerID,
		InvoiceDate: invoiceDate,
		Notes:       req.Notes,
	}
	for _, line := range req.Lines {
		params.Lines = append(params.Lines, CreateInvoiceLineParams{
			SKU:          line.SKU,
			Quantity:     line.Quantity,
			UnitPriceUAH: line.UnitPriceUAH,
		})
	}

	inv, err := h.service.CreateInvoice(r.Context(), params)
	if err != nil {
		// free the key so the caller can retry after fixing the request
		if key != "" && h.idem != nil {
			if delErr := h.idem.Delete(r.Context(), key); delErr != nil {
				h.logger.Error("release idempotency key", slog.Any("error", delErr))
			}
		}
		h.logger.Error("create invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	if h.caches != nil {
		if err := h.caches.Bump(r.Context()); err != nil {
			h.logger.Warn("invalidate report caches", slog.Any("error", err))
		}
	}

	h.logger.Info("invoice created",
		slog.Int64("invoice_id", inv.InvoiceID),
		slog.Int64("customer_id", inv.CustomerID),
		slog.String("total", inv.TotalAmount.String()))
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	summaries, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summaries)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrInvalidInput)
		return
	}

	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) ShowPDF(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrInvalidInput)
		return
	}

	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-%d.pdf"`, inv.InvoiceID))
	if err := RenderPDF(w, inv); err != nil {
		h.logger.Error("render invoice pdf", slog.Int64("invoice_id", id), slog.Any("error", err))
	}
}
