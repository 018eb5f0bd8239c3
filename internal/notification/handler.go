package notification

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitledger/pkg/middleware"
	"github.com/fkhayef/splitledger/pkg/response"
)

// Handler serves a user's activity feed
type Handler struct {
	service *Service
}

// NewHandler creates a new notification handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for notification endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/unread-count", h.GetUnreadCount)
	r.Post("/{id}/read", h.MarkAsRead)
	r.Post("/read-all", h.MarkAllAsRead)

	return r
}

// feedFilter reads unread_only, group_id and a comma separated type list
func feedFilter(r *http.Request, recipientID string) Filter {
	q := r.URL.Query()
	f := Filter{
		RecipientID: recipientID,
		UnreadOnly:  q.Get("unread_only") == "true",
		GroupID:     q.Get("group_id"),
	}
	for _, raw := range q["type"] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Types = append(f.Types, Type(strings.ToUpper(t)))
			}
		}
	}
	return f
}

// List handles GET /notifications
// @Summary      List my notifications
// @Tags         notifications
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Param        unread_only query bool false "Only unread"
// @Param        type query string false "Comma separated activity types, e.g. EXPENSE_ADDED,SETTLEMENT_ADDED"
// @Param        group_id query string false "Only activity in this group"
// @Success      200 {object} response.APIResponse{data=[]NotificationResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /notifications [get]
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

	notifications, total, err := h.service.List(r.Context(), feedFilter(r, userID), page, perPage)
	if err != nil {
		if errors.Is(err, ErrUnknownType) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list notifications")
		return
	}

	feed := make([]*NotificationResponse, len(notifications))
	for i, n := range notifications {
		feed[i] = n.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, feed, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// GetUnreadCount handles GET /notifications/unread-count
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Success      200 {object} response.APIResponse{data=UnreadCountResponse}
// @Router       /notifications/unread-count [get]
func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	count, err := h.service.GetUnreadCount(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to get unread count")
		return
	}

	response.JSON(w, http.StatusOK, &UnreadCountResponse{UnreadCount: count})
}

// MarkAsRead handles POST /notifications/{id}/read
// @Summary      Mark a notification as read
// @Tags         notifications
// @Param        id path int true "Notification ID"
// @Success      204
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /notifications/{id}/read [post]
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid notification ID")
		return
	}
	userID, _ := middleware.GetUserID(r.Context())

	switch err := h.service.MarkAsRead(r.Context(), id, userID); {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, ErrNotificationNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotRecipient):
		response.Forbidden(w, err.Error())
	default:
		response.InternalError(w, "Failed to mark notification as read")
	}
}

// MarkAllAsRead handles POST /notifications/read-all
// @Summary      Mark every notification as read
// @Tags         notifications
// @Success      204
// @Router       /notifications/read-all [post]
func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	if err := h.service.MarkAllAsRead(r.Context(), userID); err != nil {
		response.InternalError(w, "Failed to mark all notifications as read")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
