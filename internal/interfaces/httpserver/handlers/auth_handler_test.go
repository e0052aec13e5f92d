package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OctavianTocan/ai-nexus/internal/domain/user"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/middlewares"
	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/responses"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

func TestRegister(t *testing.T) {
	env := newTestEnv()
	env.users.RegisterFunc = func(ctx context.Context, email, _ string) (*user.User, error) {
		if email == "taken@example.com" {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, user.ErrCodeUserAlreadyExists, nil, "")
		}
		return &user.User{ID: "u-new", Email: email, IsActive: true, HashedPassword: "secret-hash"}, nil
	}
	router := env.router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newRequest(http.MethodPost, "/auth/register", `{"email":"new@example.com","password":"correct-horse"}`, nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-hash")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, newRequest(http.MethodPost, "/auth/register", `{"email":"taken@example.com","password":"correct-horse"}`, nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody responses.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, user.ErrCodeUserAlreadyExists, errBody.Error)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, newRequest(http.MethodPost, "/auth/register", `{"email":"not-an-email","password":"x"}`, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	env := newTestEnv()
	env.cookie.Secure = true
	env.users.AuthenticateFunc = func(ctx context.Context, email, password string) (*user.User, error) {
		if email == alice.Email && password == "correct-horse" {
			return alice, nil
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, user.ErrCodeBadCredentials, nil, "")
	}
	router := env.router()

	form := url.Values{"username": {alice.Email}, "password": {"correct-horse"}}
	req, _ := http.NewRequest(http.MethodPost, "/auth/jwt/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middlewares.SessionCookieName, cookies[0].Name)
	assert.Equal(t, "token-"+alice.ID, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, newRequest(http.MethodPost, "/auth/jwt/login", `{"username":"alice@example.com","password":"nope"}`, nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), user.ErrCodeBadCredentials)
	assert.Empty(t, rec.Result().Cookies())
}

func TestSessionCookieAuthenticates(t *testing.T) {
	env := newTestEnv()
	router := env.router()

	req := newRequest(http.MethodGet, "/users/me", "", nil)
	req.AddCookie(&http.Cookie{Name: middlewares.SessionCookieName, Value: alice.ID})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body responses.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, alice.Email, body.Email)

	req = newRequest(http.MethodGet, "/users/me", "", nil)
	req.AddCookie(&http.Cookie{Name: middlewares.SessionCookieName, Value: "forged"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	env := newTestEnv()
	router := env.router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newRequest(http.MethodPost, "/auth/jwt/logout", "", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, newRequest(http.MethodPost, "/auth/jwt/logout", "", alice))
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}
