// auth_test.go

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenFor(t *testing.T, email string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func TestSignUserToken_RoundTrip(t *testing.T) {
	signed, err := signUserToken(testSecret, map[string]interface{}{"email": "amy@example.com"})
	require.NoError(t, err)

	claims := &AuthClaims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(token *jwt.Token) (interface{}, error) {
		return testSecret, nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	assert.Equal(t, "amy@example.com", claims.Email)
	// expiry sits one hour out
	assert.InDelta(t, time.Now().Add(time.Hour).Unix(), claims.ExpiresAt, 5)
}

func TestJWTSignEndpoint(t *testing.T) {
	r := newTestRouter(&fakeStore{}, &fakeGateway{})
	rr := doJSON(t, r, http.MethodPost, "/jwt-sing", `{"email":"amy@example.com"}`, "")

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotEmpty(t, resp["token"])

	claims := &AuthClaims{}
	_, err := jwt.ParseWithClaims(resp["token"], claims, func(token *jwt.Token) (interface{}, error) {
		return testSecret, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "amy@example.com", claims.Email)
}

func TestAdminRoute_NoToken(t *testing.T) {
	rr := doJSON(t, newTestRouter(&fakeStore{}, &fakeGateway{}), http.MethodGet, "/users", "", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "unauthorized access", rr.Body.String())
}

func TestAdminRoute_GarbageToken(t *testing.T) {
	rr := doJSON(t, newTestRouter(&fakeStore{}, &fakeGateway{}), http.MethodGet, "/users", "", "not.a.token")
	require.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "forbidden access", rr.Body.String())
}

func TestAdminRoute_ExpiredToken(t *testing.T) {
	token := tokenFor(t, "amy@example.com", -time.Hour)
	rr := doJSON(t, newTestRouter(&fakeStore{}, &fakeGateway{}), http.MethodGet, "/users", "", token)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdminRoute_NonAdminUser(t *testing.T) {
	store := &fakeStore{
		findUserFunc: func(ctx context.Context, email string) (*User, error) {
			return &User{Email: email}, nil
		},
	}
	token := tokenFor(t, "amy@example.com", time.Hour)
	rr := doJSON(t, newTestRouter(store, &fakeGateway{}), http.MethodGet, "/users", "", token)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdminRoute_AdminUser(t *testing.T) {
	store := &fakeStore{
		findUserFunc: func(ctx context.Context, email string) (*User, error) {
			return &User{Email: email, Role: "admin"}, nil
		},
		listUsersFunc: func(ctx context.Context) ([]User, error) {
			return []User{{Email: "amy@example.com", Role: "admin", Password: "hashed"}}, nil
		},
	}
	token := tokenFor(t, "amy@example.com", time.Hour)
	rr := doJSON(t, newTestRouter(store, &fakeGateway{}), http.MethodGet, "/users", "", token)

	require.Equal(t, http.StatusOK, rr.Code)
	var users []User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&users))
	require.Len(t, users, 1)
	assert.Empty(t, users[0].Password, "password hash must not be serialized")
}

func TestCheckAdmin_SelfOnly(t *testing.T) {
	token := tokenFor(t, "amy@example.com", time.Hour)
	rr := doJSON(t, newTestRouter(&fakeStore{}, &fakeGateway{}), http.MethodGet, "/user/admin/bob@example.com", "", token)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCheckAdmin_ReportsRole(t *testing.T) {
	store := &fakeStore{
		findUserFunc: func(ctx context.Context, email string) (*User, error) {
			return &User{Email: email, Role: "admin"}, nil
		},
	}
	token := tokenFor(t, "amy@example.com", time.Hour)
	rr := doJSON(t, newTestRouter(store, &fakeGateway{}), http.MethodGet, "/user/admin/amy@example.com", "", token)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]bool
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp["admin"])
}
