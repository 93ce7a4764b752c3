//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"fitsync/internal/model"
)

func TestAdminListsAndSearchesMembers(t *testing.T) {
	env := newTestServer(t)
	env.seedAccount(t, "Mia", "member@fitsync.test", "member-pass-1", model.RoleUser, true)
	env.seedAccount(t, "Noah", "noah@fitsync.test", "noah-pass-1", model.RoleUser, true)
	adminPair := env.login(t, adminEmail, adminPassword)

	resp := env.do(t, http.MethodGet, "/api/v1/user/all", nil, adminPair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var all []model.User
	decodeData(t, decodeEnvelope(t, resp), &all)
	require.Len(t, all, 3) // seeded admin plus two members

	// Case-insensitive substring match on name and email.
	resp = env.do(t, http.MethodGet, "/api/v1/user/all?search=NOAH", nil, adminPair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var filtered []model.User
	decodeData(t, decodeEnvelope(t, resp), &filtered)
	require.Len(t, filtered, 1)
	require.Equal(t, "Noah", filtered[0].Name)

	// An empty search restores the full list.
	resp = env.do(t, http.MethodGet, "/api/v1/user/all", nil, adminPair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeData(t, decodeEnvelope(t, resp), &all)
	require.Len(t, all, 3)
}

func TestToggleMemberStatusLocksThemOut(t *testing.T) {
	env := newTestServer(t)
	memberID := env.seedAccount(t, "Mia", "member@fitsync.test", "member-pass-1", model.RoleUser, true)
	adminPair := env.login(t, adminEmail, adminPassword)

	resp := env.do(t, http.MethodPut, "/api/v1/user/"+memberID+"/toggle-status", nil, adminPair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var toggled model.User
	decodeData(t, decodeEnvelope(t, resp), &toggled)
	require.False(t, toggled.IsActive)

	// A deactivated account cannot authenticate.
	loginResp := env.do(t, http.MethodPost, "/api/v1/auth/login",
		model.LoginRequest{Email: "member@fitsync.test", Password: "member-pass-1"}, "")
	require.Equal(t, http.StatusForbidden, loginResp.StatusCode)
	loginResp.Body.Close()

	// Toggling again restores access.
	resp = env.do(t, http.MethodPut, "/api/v1/user/"+memberID+"/toggle-status", nil, adminPair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeData(t, decodeEnvelope(t, resp), &toggled)
	require.True(t, toggled.IsActive)

	env.login(t, "member@fitsync.test", "member-pass-1")
}

func TestTrainerCRUD(t *testing.T) {
	env := newTestServer(t)
	adminPair := env.login(t, adminEmail, adminPassword)

	resp := env.do(t, http.MethodPost, "/api/v1/trainer", model.CreateTrainerRequest{
		Name:     "Carla",
		LastName: "Reyes",
		Email:    "carla@fitsync.test",
	}, adminPair.AccessToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created model.Trainer
	decodeData(t, decodeEnvelope(t, resp), &created)
	require.True(t, created.IsActive)
	require.NotEmpty(t, created.ID)

	resp = env.do(t, http.MethodPut, "/api/v1/trainer", model.UpdateTrainerRequest{
		ID:       created.ID,
		Name:     "Carla",
		LastName: "Reyes-Lopez",
		Email:    "carla@fitsync.test",
	}, adminPair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated model.Trainer
	decodeData(t, decodeEnvelope(t, resp), &updated)
	require.Equal(t, "Reyes-Lopez", updated.LastName)

	resp = env.do(t, http.MethodPut, "/api/v1/trainer/"+created.ID+"/toggle-status", nil, adminPair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeData(t, decodeEnvelope(t, resp), &updated)
	require.False(t, updated.IsActive)

	resp = env.do(t, http.MethodGet, "/api/v1/trainer?search=reyes-lopez", nil, adminPair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var filtered []model.Trainer
	decodeData(t, decodeEnvelope(t, resp), &filtered)
	require.Len(t, filtered, 1)

	resp = env.do(t, http.MethodPut, "/api/v1/trainer", model.UpdateTrainerRequest{
		ID:    "missing-id",
		Name:  "Nobody",
		Email: "nobody@fitsync.test",
	}, adminPair.AccessToken)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestEquipmentUpdate(t *testing.T) {
	env := newTestServer(t)
	adminPair := env.login(t, adminEmail, adminPassword)

	rower := createEquipment(t, env, adminPair.AccessToken, "Rower", 2)

	resp := env.do(t, http.MethodPut, "/api/v1/equipment", model.UpdateEquipmentRequest{
		ID:          rower.ID,
		Name:        "Concept Rower",
		Description: "Row machine",
		TotalCount:  4,
	}, adminPair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated model.Equipment
	decodeData(t, decodeEnvelope(t, resp), &updated)
	require.Equal(t, "Concept Rower", updated.Name)
	require.Equal(t, 4, updated.TotalCount)
	require.Equal(t, 4, updated.AvailableCount)
}
