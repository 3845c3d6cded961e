package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

type sessionTable map[string]bool

func (s sessionTable) HasSession(_ context.Context, accessID string) (bool, error) {
	return s[accessID], nil
}

type brokenSessions struct{}

func (brokenSessions) HasSession(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func issue(t *testing.T, userID uuid.UUID, role string) (token, jti string) {
	t.Helper()
	jti = session.NewAccessID()
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{UserID: userID, Role: role, JTI: jti})
	require.NoError(t, err)
	return token, jti
}

func authorized(header string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	return req
}

func TestAuthRejections(t *testing.T) {
	valid, _ := issue(t, uuid.New(), enums.RoleBuyer)
	revoked := sessionTable{}

	cases := []struct {
		name     string
		header   string
		sessions session.AccessSessionChecker
		want     int
	}{
		{"missing header", "", revoked, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", revoked, http.StatusUnauthorized},
		{"revoked session", "Bearer " + valid, revoked, http.StatusUnauthorized},
		{"session store down", "Bearer " + valid, brokenSessions{}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := Auth(testJWT, tc.sessions, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("handler must not run")
			}))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, authorized(tc.header))
			require.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestAuthSeedsPrincipal(t *testing.T) {
	userID := uuid.New()
	token, jti := issue(t, userID, enums.RoleSeller)

	var gotUser uuid.UUID
	var gotRole string
	handler := Auth(testJWT, sessionTable{jti: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		gotUser, err = UserUUIDFromContext(r.Context())
		require.NoError(t, err)
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authorized("bearer "+token))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, userID, gotUser)
	require.Equal(t, enums.RoleSeller, gotRole)
}

func TestRequireRole(t *testing.T) {
	cases := map[string]int{
		enums.RoleAdmin:  http.StatusOK,
		enums.RoleSeller: http.StatusOK,
		enums.RoleBuyer:  http.StatusForbidden,
		"":               http.StatusForbidden,
	}
	handler := RequireRole(nil, enums.RoleSeller, enums.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for role, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithRole(req.Context(), role))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, want, rec.Code, "role %q", role)
	}
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken(authorized("Bearer  abc.def "))
	require.NoError(t, err)
	require.Equal(t, "abc.def", token)

	token, err = BearerToken(authorized("raw.token"))
	require.NoError(t, err)
	require.Equal(t, "raw.token", token)

	for _, header := range []string{"", "Bearer ", "bearer"} {
		_, err := BearerToken(authorized(header))
		require.Error(t, err, "header %q", header)
	}
}

func TestPrincipalSettersCompose(t *testing.T) {
	ctx := WithRole(WithUserID(context.Background(), "u-1"), enums.RoleAdmin)
	require.Equal(t, "u-1", UserIDFromContext(ctx))
	require.Equal(t, enums.RoleAdmin, RoleFromContext(ctx))

	_, err := UserUUIDFromContext(ctx)
	require.Error(t, err)
	require.Empty(t, UserIDFromContext(context.Background()))
}
