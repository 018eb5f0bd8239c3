package settlement

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitledger/internal/expense"
	"github.com/fkhayef/splitledger/pkg/middleware"
	"github.com/fkhayef/splitledger/pkg/response"
	"github.com/fkhayef/splitledger/pkg/validation"
)

// Handler handles HTTP requests for balances and settlements
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for settlement endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/summary", h.Summary)
	r.Get("/group/{groupId}/balances", h.GroupBalances)
	r.Post("/group/{groupId}", h.Create)
	r.Put("/{id}", h.Update)

	return r
}

func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrCannotSettleSelf), errors.Is(err, ErrNotSettlement):
		response.BadRequest(w, err.Error())
	default:
		expense.WriteError(w, err, fallback)
	}
}

// GroupBalances handles GET /settlements/group/{groupId}/balances
// @Summary      Group balances
// @Description  Net balance of every member and the transfers that settle the group
// @Tags         settlements
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Success      200 {object} response.APIResponse{data=GroupOverviewResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/group/{groupId}/balances [get]
func (h *Handler) GroupBalances(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	overview, err := h.service.GroupBalances(r.Context(), callerID, chi.URLParam(r, "groupId"))
	if err != nil {
		writeError(w, err, "Failed to get balances")
		return
	}

	response.JSON(w, http.StatusOK, overview.ToResponse())
}

// Create handles POST /settlements/group/{groupId}
// @Summary      Record a settlement
// @Description  Record that one member paid another outside the app
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Param        request body CreateSettlementRequest true "Settlement"
// @Success      201 {object} response.APIResponse{data=expense.ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /settlements/group/{groupId} [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	var req CreateSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validation.Struct(&req); err != nil {
		response.ValidationFailed(w, validation.Details(err))
		return
	}

	settlement, err := h.service.Record(r.Context(), callerID, chi.URLParam(r, "groupId"), &req)
	if err != nil {
		writeError(w, err, "Failed to record settlement")
		return
	}

	response.JSON(w, http.StatusCreated, settlement.ToResponse())
}

// Update handles PUT /settlements/{id}
// @Summary      Edit a settlement
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        id path string true "Settlement expense ID"
// @Param        request body UpdateSettlementRequest true "New amount and date"
// @Success      200 {object} response.APIResponse{data=expense.ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	var req UpdateSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validation.Struct(&req); err != nil {
		response.ValidationFailed(w, validation.Details(err))
		return
	}

	settlement, err := h.service.Update(r.Context(), callerID, chi.URLParam(r, "id"), &req)
	if err != nil {
		writeError(w, err, "Failed to update settlement")
		return
	}

	response.JSON(w, http.StatusOK, settlement.ToResponse())
}

// Summary handles GET /settlements/summary
// @Summary      My balance summary
// @Description  The caller's net position across every expense they are part of
// @Tags         settlements
// @Produce      json
// @Success      200 {object} response.APIResponse{data=SummaryResponse}
// @Router       /settlements/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	summary, err := h.service.Summary(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to get summary")
		return
	}

	response.JSON(w, http.StatusOK, summaryResponse(summary))
}
