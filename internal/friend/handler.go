package friend

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

// Handler handles HTTP requests for friend operations
type Handler struct {
	service *Service
}

// NewHandler creates a new friend handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for friend endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Add)
	r.Get("/", h.List)
	r.Get("/{userId}/status", h.Status)
	r.Delete("/{userId}", h.Remove)

	return r
}

// Add handles POST /friends
// @Summary      Add a friend
// @Description  Adding someone who is already a friend returns them with 200
// @Tags         friends
// @Accept       json
// @Produce      json
// @Param        request body AddFriendRequest true "Add friend request"
// @Success      201 {object} response.APIResponse{data=FriendResponse}
// @Success      200 {object} response.APIResponse{data=FriendResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /friends [post]
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req AddFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validation.Struct(&req); err != nil {
		response.ValidationFailed(w, validation.Details(err))
		return
	}

	friend, created, err := h.service.Add(r.Context(), userID, req.FriendID)
	if err != nil {
		switch {
		case errors.Is(err, ErrCannotFriendSelf):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrUnknownUser):
			response.NotFound(w, err.Error())
		default:
			response.InternalError(w, "Failed to add friend")
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.JSON(w, status, friend.ToResponse())
}

// List handles GET /friends
// @Summary      List my friends
// @Tags         friends
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]FriendResponse}
// @Router       /friends [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	friends, total, err := h.service.List(r.Context(), userID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list friends")
		return
	}

	friendResponses := make([]*FriendResponse, len(friends))
	for i, f := range friends {
		friendResponses[i] = f.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, friendResponses, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// Status handles GET /friends/{userId}/status
// @Summary      Check a friendship
// @Tags         friends
// @Produce      json
// @Param        userId path string true "Other user ID"
// @Success      200 {object} response.APIResponse{data=StatusResponse}
// @Router       /friends/{userId}/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	otherID := chi.URLParam(r, "userId")

	ok, err := h.service.AreFriends(r.Context(), userID, otherID)
	if err != nil {
		response.InternalError(w, "Failed to check friendship")
		return
	}

	response.JSON(w, http.StatusOK, &StatusResponse{UserID: otherID, AreFriends: ok})
}

// Remove handles DELETE /friends/{userId}
// @Summary      Remove a friend
// @Tags         friends
// @Param        userId path string true "Friend's user ID"
// @Success      204
// @Router       /friends/{userId} [delete]
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	if err := h.service.Remove(r.Context(), userID, chi.URLParam(r, "userId")); err != nil {
		response.InternalError(w, "Failed to remove friend")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
