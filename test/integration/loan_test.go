//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fitsync/internal/model"
)

func createEquipment(t *testing.T, env *testEnv, token string, name string, total int) model.Equipment {
	t.Helper()

	resp := env.do(t, http.MethodPost, "/api/v1/equipment", model.CreateEquipmentRequest{
		Name:       name,
		TotalCount: total,
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created model.Equipment
	decodeData(t, decodeEnvelope(t, resp), &created)
	require.Equal(t, total, created.AvailableCount)
	return created
}

func equipmentByID(t *testing.T, env *testEnv, token string, id string) (model.Equipment, bool) {
	t.Helper()

	resp := env.do(t, http.MethodGet, "/api/v1/equipment", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []model.Equipment
	decodeData(t, decodeEnvelope(t, resp), &items)
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return model.Equipment{}, false
}

func TestLoanLifecycleUpdatesAvailability(t *testing.T) {
	env := newTestServer(t)
	env.seedAccount(t, "Mia", "member@fitsync.test", "member-pass-1", model.RoleUser, true)

	adminPair := env.login(t, adminEmail, adminPassword)
	memberPair := env.login(t, "member@fitsync.test", "member-pass-1")

	barbell := createEquipment(t, env, adminPair.AccessToken, "Barbell", 2)

	// Member borrows for themself; user_id in the body is ignored for USER.
	resp := env.do(t, http.MethodPost, "/api/v1/loans", model.CreateLoanRequest{
		UserID:      "someone-else",
		EquipmentID: barbell.ID,
	}, memberPair.AccessToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var loan model.Loan
	decodeData(t, decodeEnvelope(t, resp), &loan)
	require.Equal(t, memberPair.User.ID, loan.UserID)
	require.Equal(t, model.LoanPending, loan.Status)
	require.Equal(t, "Barbell", loan.EquipmentName)

	// The loan event invalidates the equipment cache; the next read shows
	// one unit gone.
	require.Eventually(t, func() bool {
		item, ok := equipmentByID(t, env, memberPair.AccessToken, barbell.ID)
		return ok && item.AvailableCount == 1
	}, 2*time.Second, 20*time.Millisecond)

	// Staff completes the loan and the unit comes back.
	resp = env.do(t, http.MethodPost, "/api/v1/loans/"+loan.ID+"/complete", nil, adminPair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var completed model.Loan
	decodeData(t, decodeEnvelope(t, resp), &completed)
	require.Equal(t, model.LoanReturned, completed.Status)
	require.NotNil(t, completed.ReturnedAt)

	require.Eventually(t, func() bool {
		item, ok := equipmentByID(t, env, memberPair.AccessToken, barbell.ID)
		return ok && item.AvailableCount == 2
	}, 2*time.Second, 20*time.Millisecond)

	// Completing twice is a conflict.
	resp = env.do(t, http.MethodPost, "/api/v1/loans/"+loan.ID+"/complete", nil, adminPair.AccessToken)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestLoanRejectedWhenNoUnitsLeft(t *testing.T) {
	env := newTestServer(t)
	env.seedAccount(t, "Mia", "member@fitsync.test", "member-pass-1", model.RoleUser, true)

	adminPair := env.login(t, adminEmail, adminPassword)
	memberPair := env.login(t, "member@fitsync.test", "member-pass-1")

	rope := createEquipment(t, env, adminPair.AccessToken, "Jump Rope", 1)

	resp := env.do(t, http.MethodPost, "/api/v1/loans",
		model.CreateLoanRequest{EquipmentID: rope.ID}, memberPair.AccessToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/v1/loans",
		model.CreateLoanRequest{EquipmentID: rope.ID}, adminPair.AccessToken)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	envlp := decodeEnvelope(t, resp)
	require.Equal(t, "CONFLICT", envlp.Error.Code)
}

func TestStaffBorrowsOnBehalfOfMember(t *testing.T) {
	env := newTestServer(t)
	memberID := env.seedAccount(t, "Mia", "member@fitsync.test", "member-pass-1", model.RoleUser, true)
	env.seedAccount(t, "Tess", "trainer@fitsync.test", "trainer-pass-1", model.RoleTrainer, true)

	adminPair := env.login(t, adminEmail, adminPassword)
	trainerPair := env.login(t, "trainer@fitsync.test", "trainer-pass-1")

	mat := createEquipment(t, env, adminPair.AccessToken, "Yoga Mat", 3)

	resp := env.do(t, http.MethodPost, "/api/v1/loans", model.CreateLoanRequest{
		UserID:      memberID,
		EquipmentID: mat.ID,
	}, trainerPair.AccessToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var loan model.Loan
	decodeData(t, decodeEnvelope(t, resp), &loan)
	require.Equal(t, memberID, loan.UserID)

	// The trainer sees the roster-wide list.
	resp = env.do(t, http.MethodGet, "/api/v1/loans", nil, trainerPair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loans []model.Loan
	decodeData(t, decodeEnvelope(t, resp), &loans)
	require.Len(t, loans, 1)
}

func TestLoanSearchFiltersByName(t *testing.T) {
	env := newTestServer(t)
	memberID := env.seedAccount(t, "Mia", "member@fitsync.test", "member-pass-1", model.RoleUser, true)
	adminPair := env.login(t, adminEmail, adminPassword)

	bike := createEquipment(t, env, adminPair.AccessToken, "Spin Bike", 2)
	bench := createEquipment(t, env, adminPair.AccessToken, "Bench", 2)

	for _, eq := range []model.Equipment{bike, bench} {
		resp := env.do(t, http.MethodPost, "/api/v1/loans", model.CreateLoanRequest{
			UserID:      memberID,
			EquipmentID: eq.ID,
		}, adminPair.AccessToken)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := env.do(t, http.MethodGet, "/api/v1/loans?search=bike", nil, adminPair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var filtered []model.Loan
	decodeData(t, decodeEnvelope(t, resp), &filtered)
	require.Len(t, filtered, 1)
	require.Equal(t, "Spin Bike", filtered[0].EquipmentName)
}
