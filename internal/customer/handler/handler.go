package handler

import (
	"log/slog"
	"net/http"

	"coverbase/internal/customer/models"
	"coverbase/internal/customer/service"
	"coverbase/internal/pagination"
	quotemodels "coverbase/internal/quote/models"
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

// Create handles POST /v1/create-customer.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateCustomerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	customer, err := h.service.Create(ctx, req.FirstName, req.LastName, req.dateOfBirth)
	if err != nil {
		h.logger.WarnContext(ctx, "customer creation failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, customer.Serialize())
}

type searchResponse struct {
	Customers    []models.Serialized `json:"customers"`
	TotalPages   int                 `json:"total_pages"`
	PreviousPage *int                `json:"previous_page"`
	NextPage     *int                `json:"next_page"`
}

// Search handles GET /v1/customers.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	query := r.URL.Query()

	filter, err := parseFilter(query.Get("first_name"), query.Get("last_name"), query.Get("dob"), query.Get("policy_type"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	page, err := pagination.ParsePage(query.Get("page"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	perPage, err := pagination.ParsePerPage(query.Get("per_page"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Search(ctx, filter, page, perPage)
	if err != nil {
		h.logger.WarnContext(ctx, "customer search failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	response := searchResponse{
		Customers:    make([]models.Serialized, 0, len(result.Customers)),
		TotalPages:   result.TotalPages,
		PreviousPage: result.PreviousPage,
		NextPage:     result.NextPage,
	}
	for _, customer := range result.Customers {
		response.Customers = append(response.Customers, customer.Serialize())
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

func parseFilter(firstName, lastName, dob, policyType string) (models.Filter, error) {
	filter := models.Filter{FirstName: firstName, LastName: lastName}
	if dob != "" {
		parsed, err := models.ParseDOB("dob", dob)
		if err != nil {
			return models.Filter{}, err
		}
		filter.DateOfBirth = &parsed
	}
	if policyType != "" {
		if _, err := quotemodels.ParseType(policyType); err != nil {
			return models.Filter{}, dErrors.NewField(dErrors.CodeValidation, "policy_type", "invalid type specified")
		}
		filter.PolicyType = policyType
	}
	return filter, nil
}
