package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"coverbase/internal/quote/service"
	dErrors "coverbase/pkg/domain-errors"
	"coverbase/pkg/platform/httputil"
	"coverbase/pkg/requestcontext"
)

type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(service *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Create handles POST /v1/quotes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateQuoteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Create(ctx, req.CustomerID, req.quoteType)
	if err != nil {
		h.logger.WarnContext(ctx, "quote creation failed",
			"error", err,
			"customer_id", req.CustomerID,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, result.Quote.Serialize(result.Customer))
}

// UpdateStatus handles PUT /v1/quotes/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	quoteID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "quote not found"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateQuoteStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.UpdateStatus(ctx, quoteID, req.status)
	if err != nil {
		h.logger.WarnContext(ctx, "quote status update failed",
			"error", err,
			"quote_id", quoteID,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result.Quote.Serialize(result.Customer))
}
