package group

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitledger/pkg/middleware"
	"github.com/fkhayef/splitledger/pkg/response"
	"github.com/fkhayef/splitledger/pkg/validation"
)

// Handler handles HTTP requests for group operations
type Handler struct {
	service *Service
}

// NewHandler creates a new group handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for group endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	// Member management
	r.Get("/{id}/members", h.GetMembers)
	r.Post("/{id}/members", h.AddMember)
	r.Delete("/{id}/members/{userId}", h.RemoveMember)

	return r
}

// writeError maps service errors onto the response envelope
func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrGroupNotFound), errors.Is(err, ErrMemberNotFound), errors.Is(err, ErrUnknownUser):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotMember), errors.Is(err, ErrNotAuthorized):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrMemberAlreadyExists):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

// Create handles POST /groups
// @Summary      Create a new group
// @Description  Create a new group and add creator as admin
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        request body CreateGroupRequest true "Group creation request"
// @Success      201 {object} response.APIResponse{data=GroupResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /groups [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	creatorID, _ := middleware.GetUserID(r.Context())

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validation.Struct(&req); err != nil {
		response.ValidationFailed(w, validation.Details(err))
		return
	}

	group, err := h.service.Create(r.Context(), creatorID, &req)
	if err != nil {
		response.InternalError(w, "Failed to create group")
		return
	}

	response.JSON(w, http.StatusCreated, group.ToResponse())
}

// GetByID handles GET /groups/{id}
// @Summary      Get group by ID
// @Description  Get a group with all its members
// @Tags         groups
// @Produce      json
// @Param        id path string true "Group ID"
// @Success      200 {object} response.APIResponse{data=GroupResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	group, members, err := h.service.GetByIDWithMembers(r.Context(), callerID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to get group")
		return
	}

	groupResp := group.ToResponse()
	groupResp.Members = make([]*MemberResponse, len(members))
	for i, m := range members {
		groupResp.Members[i] = m.ToResponse()
	}

	response.JSON(w, http.StatusOK, groupResp)
}

// List handles GET /groups
// @Summary      List my groups
// @Description  Get a paginated list of groups for the current user
// @Tags         groups
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]GroupResponse}
// @Router       /groups [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	groups, total, err := h.service.ListByUserID(r.Context(), userID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list groups")
		return
	}

	groupResponses := make([]*GroupResponse, len(groups))
	for i, g := range groups {
		groupResponses[i] = g.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, groupResponses, &response.Meta{
		Page:    page,
		PerPage: perPage,
		Total:   total,
	})
}

// Update handles PATCH /groups/{id}
// @Summary      Update group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path string true "Group ID"
// @Param        request body UpdateGroupRequest true "Group update request"
// @Success      200 {object} response.APIResponse{data=GroupResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	var req UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validation.Struct(&req); err != nil {
		response.ValidationFailed(w, validation.Details(err))
		return
	}

	group, err := h.service.Update(r.Context(), callerID, chi.URLParam(r, "id"), &req)
	if err != nil {
		writeError(w, err, "Failed to update group")
		return
	}

	response.JSON(w, http.StatusOK, group.ToResponse())
}

// Delete handles DELETE /groups/{id}
// @Summary      Delete group
// @Tags         groups
// @Param        id path string true "Group ID"
// @Success      204
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	if err := h.service.Delete(r.Context(), callerID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "Failed to delete group")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetMembers handles GET /groups/{id}/members
// @Summary      List group members
// @Tags         groups
// @Produce      json
// @Param        id path string true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]MemberResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /groups/{id}/members [get]
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	_, members, err := h.service.GetByIDWithMembers(r.Context(), callerID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to get members")
		return
	}

	memberResponses := make([]*MemberResponse, len(members))
	for i, m := range members {
		memberResponses[i] = m.ToResponse()
	}

	response.JSON(w, http.StatusOK, memberResponses)
}

// AddMember handles POST /groups/{id}/members
// @Summary      Add member to group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path string true "Group ID"
// @Param        request body AddMemberRequest true "Add member request"
// @Success      201 {object} response.APIResponse{data=MemberResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /groups/{id}/members [post]
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validation.Struct(&req); err != nil {
		response.ValidationFailed(w, validation.Details(err))
		return
	}

	member, err := h.service.AddMember(r.Context(), callerID, chi.URLParam(r, "id"), &req)
	if err != nil {
		writeError(w, err, "Failed to add member")
		return
	}

	response.JSON(w, http.StatusCreated, member.ToResponse())
}

// RemoveMember handles DELETE /groups/{id}/members/{userId}
// @Summary      Remove member from group
// @Tags         groups
// @Param        id path string true "Group ID"
// @Param        userId path string true "User ID"
// @Success      204
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/members/{userId} [delete]
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	err := h.service.RemoveMember(r.Context(), callerID, chi.URLParam(r, "id"), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err, "Failed to remove member")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
