//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"fitsync/internal/model"
)

func TestUnauthenticatedRequestsRedirectToLogin(t *testing.T) {
	env := newTestServer(t)

	resp := env.do(t, http.MethodGet, "/api/v1/user/all", nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	envlp := decodeEnvelope(t, resp)
	require.False(t, envlp.Success)
	require.Equal(t, "/login", envlp.Error.RedirectTo)
	require.Equal(t, "/api/v1/user/all", envlp.Error.ReturnTo)
}

func TestGarbageTokenIsUnauthorized(t *testing.T) {
	env := newTestServer(t)

	resp := env.do(t, http.MethodGet, "/api/v1/equipment", nil, "not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	envlp := decodeEnvelope(t, resp)
	require.Equal(t, "/login", envlp.Error.RedirectTo)
}

func TestMemberDeniedAdminRoutes(t *testing.T) {
	env := newTestServer(t)
	env.seedAccount(t, "Mia", "member@fitsync.test", "member-pass-1", model.RoleUser, true)
	pair := env.login(t, "member@fitsync.test", "member-pass-1")

	// Denied with the member's default landing, never the data.
	resp := env.do(t, http.MethodGet, "/api/v1/user/all", nil, pair.AccessToken)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	envlp := decodeEnvelope(t, resp)
	require.Equal(t, "FORBIDDEN", envlp.Error.Code)
	require.Equal(t, "/profile", envlp.Error.RedirectTo)
	require.Nil(t, envlp.Data)

	// The trainer roster declares an explicit fallback.
	resp = env.do(t, http.MethodGet, "/api/v1/trainer", nil, pair.AccessToken)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	envlp = decodeEnvelope(t, resp)
	require.Equal(t, "/dashboard", envlp.Error.RedirectTo)
}

func TestTrainerCanViewButNotManage(t *testing.T) {
	env := newTestServer(t)
	env.seedAccount(t, "Tess", "trainer@fitsync.test", "trainer-pass-1", model.RoleTrainer, true)
	pair := env.login(t, "trainer@fitsync.test", "trainer-pass-1")

	resp := env.do(t, http.MethodGet, "/api/v1/trainer", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/v1/trainer", model.CreateTrainerRequest{
		Name:  "New",
		Email: "new-trainer@fitsync.test",
	}, pair.AccessToken)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/v1/equipment", model.CreateEquipmentRequest{
		Name: "Kettlebell",
	}, pair.AccessToken)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestMemberCanViewEquipment(t *testing.T) {
	env := newTestServer(t)
	env.seedAccount(t, "Mia", "member@fitsync.test", "member-pass-1", model.RoleUser, true)
	pair := env.login(t, "member@fitsync.test", "member-pass-1")

	resp := env.do(t, http.MethodGet, "/api/v1/equipment", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	envlp := decodeEnvelope(t, resp)
	require.True(t, envlp.Success)
}
