package expense

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/pkg/middleware"
	"github.com/fkhayef/splitledger/pkg/response"
	"github.com/fkhayef/splitledger/pkg/validation"
)

// Handler handles HTTP requests for expense operations
type Handler struct {
	service *Service
}

// NewHandler creates a new expense handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for expense endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	// Group-based listing
	r.Get("/group/{groupId}", h.ListByGroup)

	return r
}

// WriteError maps expense, group and allocator errors onto the response envelope
func WriteError(w http.ResponseWriter, err error, fallback string) {
	var mismatch *split.MismatchError
	switch {
	case errors.As(err, &mismatch):
		response.Mismatch(w, mismatch.Error())
	case split.IsInputError(err),
		errors.Is(err, ErrReservedCategory),
		errors.Is(err, ErrPayerNotMember),
		errors.Is(err, ErrParticipantNotMember),
		errors.Is(err, ErrIsSettlement):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrExpenseNotFound), errors.Is(err, group.ErrGroupNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, group.ErrNotMember):
		response.Forbidden(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

// Create handles POST /expenses
// @Summary      Create a new expense
// @Description  Create an expense and allocate it with the EQUAL, EXACT, PERCENT or SHARES strategy
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        request body CreateExpenseRequest true "Expense creation request"
// @Success      201 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /expenses [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validation.Struct(&req); err != nil {
		response.ValidationFailed(w, validation.Details(err))
		return
	}

	expense, err := h.service.Create(r.Context(), callerID, &req)
	if err != nil {
		WriteError(w, err, "Failed to create expense")
		return
	}

	response.JSON(w, http.StatusCreated, expense.ToResponse())
}

// GetByID handles GET /expenses/{id}
// @Summary      Get expense by ID
// @Description  Get an expense with its splits and the original split inputs
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	expense, err := h.service.Get(r.Context(), callerID, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err, "Failed to get expense")
		return
	}

	response.JSON(w, http.StatusOK, expense.ToResponse())
}

// Update handles PUT /expenses/{id}
// @Summary      Replace an expense
// @Description  Replace every field of an expense; splits are recomputed
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID"
// @Param        request body UpdateExpenseRequest true "Expense replacement"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	var req UpdateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validation.Struct(&req); err != nil {
		response.ValidationFailed(w, validation.Details(err))
		return
	}

	expense, err := h.service.Update(r.Context(), callerID, chi.URLParam(r, "id"), &req)
	if err != nil {
		WriteError(w, err, "Failed to update expense")
		return
	}

	response.JSON(w, http.StatusOK, expense.ToResponse())
}

// ListByGroup handles GET /expenses/group/{groupId}
// @Summary      List group expenses
// @Description  Group history with optional filters; meta carries total_spend and net_total over every match
// @Tags         expenses
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Param        category query string false "Only this category"
// @Param        paid_by query string false "Only expenses paid by this user"
// @Param        order query string false "asc or desc by date" default(desc)
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]ExpenseResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /expenses/group/{groupId} [get]
func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	switch q.Get("order") {
	case "", "asc", "desc":
	default:
		response.BadRequest(w, "order must be asc or desc")
		return
	}

	filter := Filter{
		GroupID:   chi.URLParam(r, "groupId"),
		Category:  q.Get("category"),
		PaidByID:  q.Get("paid_by"),
		Ascending: q.Get("order") == "asc",
		Limit:     perPage,
		Offset:    (page - 1) * perPage,
	}

	expenses, totals, err := h.service.ListByGroup(r.Context(), callerID, filter)
	if err != nil {
		WriteError(w, err, "Failed to list expenses")
		return
	}

	expenseResponses := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		expenseResponses[i] = e.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, expenseResponses, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      totals.Count,
		TotalPages: (totals.Count + perPage - 1) / perPage,
		TotalSpend: totals.Spend.StringFixed(2),
		NetTotal:   totals.Net().StringFixed(2),
	})
}

// Delete handles DELETE /expenses/{id}
// @Summary      Delete expense
// @Tags         expenses
// @Param        id path string true "Expense ID"
// @Success      204
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	if err := h.service.Delete(r.Context(), callerID, chi.URLParam(r, "id")); err != nil {
		WriteError(w, err, "Failed to delete expense")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
