package group

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitledger/pkg/middleware"
	"github.com/fkhayef/splitledger/pkg/response"
)

func TestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		userID     string
		setup      func(mock sqlmock.Sqlmock)
		wantStatus int
		wantCode   string
	}{
		{
			name: "outsider reads a group", method: http.MethodGet, target: "/g1", userID: "mallory",
			setup: func(mock sqlmock.Sqlmock) {
				expectGroup(mock, "g1")
				expectMember(mock, "g1", "mallory", "")
			},
			wantStatus: http.StatusForbidden, wantCode: "FORBIDDEN",
		},
		{
			name: "unknown group", method: http.MethodGet, target: "/nope/members", userID: "alice",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM groups g WHERE g.id = \$1`).
					WithArgs("nope").
					WillReturnRows(sqlmock.NewRows(groupCols))
			},
			wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND",
		},
		{
			name: "member deletes the group", method: http.MethodDelete, target: "/g1", userID: "bob",
			setup: func(mock sqlmock.Sqlmock) {
				expectGroup(mock, "g1")
				expectMember(mock, "g1", "bob", MemberRoleMember)
			},
			wantStatus: http.StatusForbidden, wantCode: "FORBIDDEN",
		},
		{
			name: "member removes someone else", method: http.MethodDelete, target: "/g1/members/carol", userID: "bob",
			setup: func(mock sqlmock.Sqlmock) {
				expectGroup(mock, "g1")
				expectMember(mock, "g1", "bob", MemberRoleMember)
			},
			wantStatus: http.StatusForbidden, wantCode: "FORBIDDEN",
		},
		{
			name: "adding an existing member", method: http.MethodPost, target: "/g1/members", body: `{"user_id":"bob"}`, userID: "alice",
			setup: func(mock sqlmock.Sqlmock) {
				expectGroup(mock, "g1")
				expectMember(mock, "g1", "alice", MemberRoleAdmin)
				expectMember(mock, "g1", "bob", MemberRoleMember)
			},
			wantStatus: http.StatusConflict, wantCode: "CONFLICT",
		},
		{
			name: "unknown role", method: http.MethodPost, target: "/g1/members", body: `{"user_id":"bob","role":"OWNER"}`, userID: "alice",
			setup:      func(sqlmock.Sqlmock) {},
			wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newTestService(t)
			tt.setup(mock)

			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			req = req.WithContext(middleware.WithUserID(req.Context(), tt.userID))
			rec := httptest.NewRecorder()

			NewHandler(svc).Routes().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body response.APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
