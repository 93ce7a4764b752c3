//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fitsync/internal/config"
	"fitsync/internal/event"
	"fitsync/internal/handler"
	"fitsync/internal/middleware"
	"fitsync/internal/model"
	"fitsync/internal/router"
	"fitsync/internal/service"
)

const (
	adminEmail    = "admin@fitsync.test"
	adminPassword = "admin-secret-1"
)

// ---- in-memory fakes ----

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]model.User)}
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return model.ErrEmailTaken
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) ToggleActive(ctx context.Context, id string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	u.IsActive = !u.IsActive
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return u, nil
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, in model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[in.ID]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	u.Name = in.Name
	u.LastName = in.LastName
	if in.WeightKg != nil {
		u.WeightKg = in.WeightKg
	}
	if in.HeightM != nil {
		u.HeightM = in.HeightM
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[in.ID] = u
	return u, nil
}

type tokenRecord struct {
	userID    string
	expiresAt time.Time
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]tokenRecord
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]tokenRecord)}
}

func (r *fakeTokenRepo) Store(ctx context.Context, token string, userID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = tokenRecord{userID: userID, expiresAt: expiresAt}
	return nil
}

func (r *fakeTokenRepo) Validate(ctx context.Context, token string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.tokens[token]
	if !ok {
		return "", model.ErrTokenNotFound
	}
	if time.Now().UTC().After(rec.expiresAt) {
		return "", model.ErrTokenExpired
	}
	return rec.userID, nil
}

func (r *fakeTokenRepo) Revoke(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

type fakeTrainerRepo struct {
	mu       sync.Mutex
	trainers map[string]model.Trainer
}

func newFakeTrainerRepo() *fakeTrainerRepo {
	return &fakeTrainerRepo{trainers: make(map[string]model.Trainer)}
}

func (r *fakeTrainerRepo) List(ctx context.Context) ([]model.Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Trainer, 0, len(r.trainers))
	for _, t := range r.trainers {
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTrainerRepo) Create(ctx context.Context, t model.Trainer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trainers[t.ID] = t
	return nil
}

func (r *fakeTrainerRepo) Update(ctx context.Context, in model.Trainer) (model.Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trainers[in.ID]
	if !ok {
		return model.Trainer{}, model.ErrTrainerNotFound
	}
	t.Name = in.Name
	t.LastName = in.LastName
	t.Email = in.Email
	t.UpdatedAt = time.Now().UTC()
	r.trainers[in.ID] = t
	return t, nil
}

func (r *fakeTrainerRepo) ToggleActive(ctx context.Context, id string) (model.Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trainers[id]
	if !ok {
		return model.Trainer{}, model.ErrTrainerNotFound
	}
	t.IsActive = !t.IsActive
	t.UpdatedAt = time.Now().UTC()
	r.trainers[id] = t
	return t, nil
}

// gymState is shared between the equipment and loan fakes so availability is
// always derived from the pending loans, the same way the SQL repos do it.
type gymState struct {
	mu        sync.Mutex
	equipment map[string]model.Equipment
	loans     map[string]model.Loan
}

func newGymState() *gymState {
	return &gymState{
		equipment: make(map[string]model.Equipment),
		loans:     make(map[string]model.Loan),
	}
}

func (s *gymState) pendingLocked(equipmentID string) int {
	n := 0
	for _, l := range s.loans {
		if l.EquipmentID == equipmentID && l.Status == model.LoanPending {
			n++
		}
	}
	return n
}

type fakeEquipmentRepo struct {
	state *gymState
}

func (r *fakeEquipmentRepo) List(ctx context.Context) ([]model.Equipment, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	out := make([]model.Equipment, 0, len(r.state.equipment))
	for _, e := range r.state.equipment {
		e.AvailableCount = e.TotalCount - r.state.pendingLocked(e.ID)
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeEquipmentRepo) Create(ctx context.Context, e model.Equipment) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.equipment[e.ID] = e
	return nil
}

func (r *fakeEquipmentRepo) Update(ctx context.Context, in model.Equipment) (model.Equipment, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	e, ok := r.state.equipment[in.ID]
	if !ok {
		return model.Equipment{}, model.ErrEquipmentNotFound
	}
	if in.Name != "" {
		e.Name = in.Name
	}
	e.Description = in.Description
	if in.TotalCount > 0 {
		e.TotalCount = in.TotalCount
	}
	e.UpdatedAt = time.Now().UTC()
	r.state.equipment[e.ID] = e
	e.AvailableCount = e.TotalCount - r.state.pendingLocked(e.ID)
	return e, nil
}

type fakeLoanRepo struct {
	state *gymState
	users *fakeUserRepo
}

func (r *fakeLoanRepo) List(ctx context.Context) ([]model.Loan, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	out := make([]model.Loan, 0, len(r.state.loans))
	for _, l := range r.state.loans {
		out = append(out, l)
	}
	return out, nil
}

func (r *fakeLoanRepo) ListByUser(ctx context.Context, userID string) ([]model.Loan, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	var out []model.Loan
	for _, l := range r.state.loans {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLoanRepo) Create(ctx context.Context, id string, userID string, equipmentID string) (model.Loan, error) {
	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		return model.Loan{}, err
	}

	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	eq, ok := r.state.equipment[equipmentID]
	if !ok {
		return model.Loan{}, model.ErrEquipmentNotFound
	}
	if r.state.pendingLocked(equipmentID) >= eq.TotalCount {
		return model.Loan{}, model.ErrEquipmentUnavailable
	}

	loan := model.Loan{
		ID:            id,
		UserID:        userID,
		UserName:      user.FullName(),
		EquipmentID:   equipmentID,
		EquipmentName: eq.Name,
		Status:        model.LoanPending,
		CreatedAt:     time.Now().UTC(),
	}
	r.state.loans[id] = loan
	return loan, nil
}

func (r *fakeLoanRepo) Complete(ctx context.Context, id string) (model.Loan, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	l, ok := r.state.loans[id]
	if !ok {
		return model.Loan{}, model.ErrLoanNotFound
	}
	if l.Status != model.LoanPending {
		return model.Loan{}, model.ErrLoanAlreadyReturned
	}
	now := time.Now().UTC()
	l.Status = model.LoanReturned
	l.ReturnedAt = &now
	r.state.loans[id] = l
	return l, nil
}

type fakeEntryLogRepo struct {
	mu      sync.Mutex
	entries []model.EntryLog
}

func (r *fakeEntryLogRepo) Insert(ctx context.Context, entry model.EntryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeEntryLogRepo) ListAll(ctx context.Context) ([]model.EntryLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.EntryLog(nil), r.entries...), nil
}

func (r *fakeEntryLogRepo) ListByUser(ctx context.Context, userID string) ([]model.EntryLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.EntryLog
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ---- server fixture ----

type testEnv struct {
	server   *httptest.Server
	users    *fakeUserRepo
	trainers *fakeTrainerRepo
	state    *gymState
	entries  *fakeEntryLogRepo
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	users := newFakeUserRepo()
	tokens := newFakeTokenRepo()
	trainers := newFakeTrainerRepo()
	state := newGymState()
	equipmentRepo := &fakeEquipmentRepo{state: state}
	loanRepo := &fakeLoanRepo{state: state, users: users}
	entries := &fakeEntryLogRepo{}

	authService, err := service.NewAuthService("test-secret", 15*time.Minute, 24*time.Hour, users, tokens)
	require.NoError(t, err)
	require.NoError(t, authService.EnsureAdmin(context.Background(), adminEmail, adminPassword))

	bus := event.NewBus()
	ttl := 5 * time.Minute

	userService := service.NewUserService(users, ttl, bus)
	profileService := service.NewProfileService(users, ttl)
	trainerService := service.NewTrainerService(trainers, ttl)
	equipmentService := service.NewEquipmentService(equipmentRepo, ttl, bus)
	loanService := service.NewLoanService(loanRepo, ttl, bus)
	entryLogService := service.NewEntryLogService(entries, users, nil, 2*time.Minute, ttl, bus)

	listenCtx, listenCancel := context.WithCancel(context.Background())
	t.Cleanup(listenCancel)
	go equipmentService.Listen(listenCtx, bus)
	go loanService.Listen(listenCtx, bus)

	cfg := &config.Config{
		ServerPort:       "8080",
		RequestTimeout:   30 * time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     10000,
		AuthRateLimitRPM: 10000,
	}

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(authService), nil, router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		User:      handler.NewUserHandler(userService),
		Profile:   handler.NewProfileHandler(profileService),
		Trainer:   handler.NewTrainerHandler(trainerService),
		Equipment: handler.NewEquipmentHandler(equipmentService),
		Loan:      handler.NewLoanHandler(loanService),
		EntryLog:  handler.NewEntryLogHandler(entryLogService),
	})

	server := httptest.NewServer(appRouter)
	t.Cleanup(server.Close)

	return &testEnv{
		server:   server,
		users:    users,
		trainers: trainers,
		state:    state,
		entries:  entries,
	}
}

// seedAccount registers an account directly in the fake repo, bypassing the
// public registration path so tests can create staff roles.
func (e *testEnv) seedAccount(t *testing.T, name string, email string, password string, role model.Role, active bool) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user.ID
}

// ---- HTTP helpers ----

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func decodeData(t *testing.T, env envelope, out any) {
	t.Helper()
	require.NotNil(t, env.Data)
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func (e *testEnv) login(t *testing.T, email string, password string) model.TokenPair {
	t.Helper()

	payload, err := json.Marshal(model.LoginRequest{Email: email, Password: password})
	require.NoError(t, err)

	resp, err := http.Post(e.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	require.True(t, env.Success)

	var pair model.TokenPair
	decodeData(t, env, &pair)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	return pair
}

func (e *testEnv) do(t *testing.T, method string, path string, body any, accessToken string) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}
