package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cuberooms/internal/service"
	"cuberooms/internal/transport/rest/middleware"
)

func TestRequireUser(t *testing.T) {
	authSvc := service.NewAuthService("test-secret")
	mw := middleware.NewAuthMiddleware(authSvc)

	var gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = middleware.GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := mw.RequireUser(next)

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/rooms", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/rooms", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		resp, err := authSvc.IssueToken("cuber")
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/rooms", nil)
		req.Header.Set("Authorization", "Bearer "+resp.Token)
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, resp.UserID, gotUserID)
	})
}
