package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	token, err := ts.Generate("user-42")
	require.NoError(t, err)

	tests := []struct {
		name     string
		prepare  func(r *http.Request)
		wantCode int
		wantUser string
	}{
		{
			name:     "bearer header",
			prepare:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantCode: http.StatusOK,
			wantUser: "user-42",
		},
		{
			name:     "lowercase scheme",
			prepare:  func(r *http.Request) { r.Header.Set("Authorization", "bearer "+token) },
			wantCode: http.StatusOK,
			wantUser: "user-42",
		},
		{
			name:     "cookie",
			prepare:  func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: token}) },
			wantCode: http.StatusOK,
			wantUser: "user-42",
		},
		{
			name:     "nothing",
			prepare:  func(*http.Request) {},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "basic auth",
			prepare:  func(r *http.Request) { r.SetBasicAuth("user", "pass") },
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "bad header wins over good cookie",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer nope")
				r.AddCookie(&http.Cookie{Name: CookieName, Value: token})
			},
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/exercises", nil)
			tt.prepare(req)
			rr := httptest.NewRecorder()

			RequireAuth(ts)(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, tt.wantUser, gotUser)
			if tt.wantCode == http.StatusUnauthorized {
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
				assert.Contains(t, rr.Body.String(), `"unauthorized"`)
			}
		})
	}
}

func TestUserIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := UserIDFromContext(req.Context())
	assert.False(t, ok)

	_, ok = UserIDFromContext(WithUserID(req.Context(), ""))
	assert.False(t, ok)
}
