package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"coverbase/internal/pagination"
	"coverbase/internal/policy/models"
	"coverbase/internal/policy/service"
	dErrors "coverbase/pkg/domain-errors"
	"coverbase/pkg/platform/httputil"
	"coverbase/pkg/requestcontext"
)

type Handler struct {
	service       *service.Service
	strictCursors bool
	logger        *slog.Logger
}

func New(service *service.Service, strictCursors bool, logger *slog.Logger) *Handler {
	return &Handler{service: service, strictCursors: strictCursors, logger: logger}
}

func policyID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeNotFound, "policy not found")
	}
	return id, nil
}

// Get handles GET /v1/policies/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := policyID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	aggregate, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, aggregate.Serialize())
}

type listResponse struct {
	Policies   []models.Serialized `json:"policies"`
	NextCursor *int64              `json:"next_cursor"`
}

// List handles GET /v1/policies. The customer_id query parameter is required;
// listing is always scoped to one customer.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	customerID, err := strconv.ParseInt(query.Get("customer_id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "customer not found"))
		return
	}

	cursor, perPage, ok := h.parseCursorQuery(w, query.Get("next_cursor"), query.Get("per_page"))
	if !ok {
		return
	}

	page, err := h.service.List(ctx, customerID, cursor, perPage)
	if err != nil {
		h.logger.WarnContext(ctx, "policy listing failed",
			"error", err,
			"customer_id", customerID,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	response := listResponse{
		Policies:   make([]models.Serialized, 0, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for _, aggregate := range page.Items {
		response.Policies = append(response.Policies, aggregate.Serialize())
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

// UpdateStateRequest is the PUT /v1/policies/{id}/state body.
type UpdateStateRequest struct {
	State string `json:"state"`

	state models.State
}

func (r *UpdateStateRequest) Normalize() {
	r.State = strings.TrimSpace(r.State)
}

func (r *UpdateStateRequest) Validate() error {
	state, err := models.ParseState(r.State)
	if err != nil {
		return err
	}
	r.state = state
	return nil
}

// UpdateState handles PUT /v1/policies/{id}/state.
func (h *Handler) UpdateState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := policyID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateStateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	aggregate, err := h.service.ChangeState(ctx, id, req.state)
	if err != nil {
		h.logger.WarnContext(ctx, "policy state change failed",
			"error", err,
			"policy_id", id,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, aggregate.Serialize())
}

type historyResponse struct {
	History    []models.SerializedHistory `json:"history"`
	NextCursor *int64                     `json:"next_cursor"`
}

// History handles GET /v1/policies/{id}/history, newest entries first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	id, err := policyID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cursor, perPage, ok := h.parseCursorQuery(w, query.Get("next_cursor"), query.Get("per_page"))
	if !ok {
		return
	}

	page, aggregate, err := h.service.History(ctx, id, cursor, perPage)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	response := historyResponse{
		History:    make([]models.SerializedHistory, 0, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for _, entry := range page.Items {
		response.History = append(response.History, entry.Serialize(aggregate))
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

func (h *Handler) parseCursorQuery(w http.ResponseWriter, rawCursor, rawPerPage string) (int64, int, bool) {
	cursor, _, err := pagination.ParseCursor(rawCursor, h.strictCursors)
	if err != nil {
		httputil.WriteError(w, err)
		return 0, 0, false
	}
	perPage, err := pagination.ParsePerPage(rawPerPage)
	if err != nil {
		httputil.WriteError(w, err)
		return 0, 0, false
	}
	return cursor, perPage, true
}
