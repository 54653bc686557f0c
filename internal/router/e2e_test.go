//go:build integration

package router_test

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"platepos/internal/config"
	"platepos/internal/infra"
	"platepos/internal/router"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, headers map[string]string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// envelope mirrors the uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func decodeData(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	env := decodeEnvelope(t, resp)
	require.True(t, env.Success, "expected success envelope, got error: %+v", env.Error)
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	env := decodeEnvelope(t, resp)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	return env.Error.Code
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server       *httptest.Server
	restaurantID string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("platepos_test"),
		tcPostgres.WithUsername("platepos"),
		tcPostgres.WithPassword("platepos"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		StepUpWindowSecs:   300,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		RestaurantName:     "E2E Bistro",
		ExportStoragePath:  t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	r := router.New(cfg, db, rdb, infra.NewMailer(cfg))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, restaurantID: uuid.NewString()}
}

// register creates a user through the public endpoint and returns its id.
func (e *testEnv) register(t *testing.T, username, role string) string {
	t.Helper()
	body := map[string]any{
		"email":    username + "@e2e.test",
		"username": username,
		"password": "e2e-password",
		"role":     role,
	}
	if role != "admin" {
		body["restaurant_id"] = e.restaurantID
	}
	resp := do(t, e.server, "POST", "/v1/auth/register", jsonBody(t, body), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var user struct {
		ID string `json:"id"`
	}
	decodeData(t, resp, &user)
	return user.ID
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	resp := do(t, e.server, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": username, "password": "e2e-password"}), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session struct {
		AccessToken string `json:"access_token"`
	}
	decodeData(t, resp, &session)
	require.NotEmpty(t, session.AccessToken)
	return session.AccessToken
}

type orderData struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	Total       string `json:"total"`
}

func (e *testEnv) createOrder(t *testing.T, token string) orderData {
	t.Helper()
	resp := do(t, e.server, "POST", "/v1/orders", jsonBody(t, map[string]any{
		"items": []map[string]any{
			{"menu_item_id": uuid.NewString(), "name": "Burger", "unit_price": "40.00", "quantity": 2},
			{"menu_item_id": uuid.NewString(), "name": "Fries", "unit_price": "20.00", "quantity": 1},
		},
		"tax":      "10.00",
		"discount": "5.00",
	}), bearer(token))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order orderData
	decodeData(t, resp, &order)
	return order
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_FullOrderLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "waiter1", "waiter")
	token := env.login(t, "waiter1")

	order := env.createOrder(t, token)
	assert.Equal(t, time.Now().Format("060102")+"-0001", order.OrderNumber)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "105.00", order.Total)

	// walk the happy path to served
	for _, next := range []string{"confirmed", "preparing", "ready", "served"} {
		resp := do(t, env.server, "PATCH", "/v1/orders/"+order.ID+"/status",
			jsonBody(t, map[string]string{"status": next}), bearer(token))
		require.Equal(t, http.StatusOK, resp.StatusCode, "transition to %s", next)
		var updated orderData
		decodeData(t, resp, &updated)
		assert.Equal(t, next, updated.Status)
	}

	// served orders reject further transitions and content updates
	resp := do(t, env.server, "PATCH", "/v1/orders/"+order.ID+"/status",
		jsonBody(t, map[string]string{"status": "preparing"}), bearer(token))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", errorCode(t, resp))

	resp = do(t, env.server, "PUT", "/v1/orders/"+order.ID,
		jsonBody(t, map[string]any{"notes": "too late"}), bearer(token))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "ORDER_IMMUTABLE_STATE", errorCode(t, resp))

	// receipt renders as PDF
	resp = do(t, env.server, "GET", "/v1/orders/"+order.ID+"/receipt", nil, bearer(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	resp.Body.Close()
}

func TestE2E_ConcurrentOrderNumbersUnique(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "waiter1", "waiter")
	token := env.login(t, "waiter1")

	const n = 10
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order := env.createOrder(t, token)
			numbers <- order.OrderNumber
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for num := range numbers {
		assert.False(t, seen[num], "duplicate order number %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestE2E_CrossTenantIsolation(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "waiter1", "waiter")
	tokenA := env.login(t, "waiter1")
	order := env.createOrder(t, tokenA)

	// second waiter in a different restaurant
	otherTenant := &testEnv{server: env.server, restaurantID: uuid.NewString()}
	otherTenant.register(t, "waiter2", "waiter")
	tokenB := env.login(t, "waiter2")

	resp := do(t, env.server, "GET", "/v1/orders/"+order.ID, nil, bearer(tokenB))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "ORDER_NOT_FOUND", errorCode(t, resp))

	// and their listing sees nothing
	resp = do(t, env.server, "GET", "/v1/orders", nil, bearer(tokenB))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []orderData
	decodeData(t, resp, &list)
	assert.Empty(t, list)
}

func TestE2E_PermissionGates(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "waiter1", "waiter")
	env.register(t, "cook1", "kitchen")
	waiterTok := env.login(t, "waiter1")
	cookTok := env.login(t, "cook1")

	// kitchen cannot place orders
	resp := do(t, env.server, "POST", "/v1/orders", jsonBody(t, map[string]any{
		"items": []map[string]any{{"menu_item_id": uuid.NewString(), "name": "X", "unit_price": "1.00", "quantity": 1}},
	}), bearer(cookTok))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_PERMISSIONS", errorCode(t, resp))

	// but kitchen can move status
	order := env.createOrder(t, waiterTok)
	resp = do(t, env.server, "PATCH", "/v1/orders/"+order.ID+"/status",
		jsonBody(t, map[string]string{"status": "confirmed"}), bearer(cookTok))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// waiter cannot list users
	resp = do(t, env.server, "GET", "/v1/users", nil, bearer(waiterTok))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestE2E_StepUpGuardsUserDeactivation(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "mgr", "manager")
	victimID := env.register(t, "waiter1", "waiter")
	mgrTok := env.login(t, "mgr")

	// without step-up header
	resp := do(t, env.server, "DELETE", "/v1/users/"+victimID, nil, bearer(mgrTok))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "ADDITIONAL_AUTH_REQUIRED", errorCode(t, resp))

	// mint a step-up credential bound to user:delete
	resp = do(t, env.server, "POST", "/v1/auth/step-up",
		jsonBody(t, map[string]string{"password": "e2e-password", "operation": "user:delete"}), bearer(mgrTok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stepUp struct {
		StepUpToken string `json:"step_up_token"`
	}
	decodeData(t, resp, &stepUp)
	require.NotEmpty(t, stepUp.StepUpToken)

	// a token bound to another operation is rejected
	resp = do(t, env.server, "POST", "/v1/auth/step-up",
		jsonBody(t, map[string]string{"password": "e2e-password", "operation": "data:export"}), bearer(mgrTok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var wrongOp struct {
		StepUpToken string `json:"step_up_token"`
	}
	decodeData(t, resp, &wrongOp)

	headers := bearer(mgrTok)
	headers["X-Step-Up-Token"] = wrongOp.StepUpToken
	resp = do(t, env.server, "DELETE", "/v1/users/"+victimID, nil, headers)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "INVALID_ADDITIONAL_AUTH", errorCode(t, resp))

	// the correctly bound token passes and the account is deactivated
	headers["X-Step-Up-Token"] = stepUp.StepUpToken
	resp = do(t, env.server, "DELETE", "/v1/users/"+victimID, nil, headers)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "waiter1", "password": "e2e-password"}), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "USER_INACTIVE", errorCode(t, resp))
}

func TestE2E_MissingUserReadIs404(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "mgr", "manager")
	mgrTok := env.login(t, "mgr")

	resp := do(t, env.server, "GET", "/v1/users/"+uuid.NewString(), nil, bearer(mgrTok))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "USER_NOT_FOUND", errorCode(t, resp))
}

func TestE2E_DataExportRequiresStepUp(t *testing.T) {
	env := setupTestEnv(t)
	env.register(t, "mgr", "manager")
	mgrTok := env.login(t, "mgr")

	resp := do(t, env.server, "POST", "/v1/admin/export", jsonBody(t, map[string]any{}), bearer(mgrTok))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "ADDITIONAL_AUTH_REQUIRED", errorCode(t, resp))

	resp = do(t, env.server, "POST", "/v1/auth/step-up",
		jsonBody(t, map[string]string{"password": "e2e-password", "operation": "data:export"}), bearer(mgrTok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stepUp struct {
		StepUpToken string `json:"step_up_token"`
	}
	decodeData(t, resp, &stepUp)

	headers := bearer(mgrTok)
	headers["X-Step-Up-Token"] = stepUp.StepUpToken
	resp = do(t, env.server, "POST", "/v1/admin/export", jsonBody(t, map[string]any{}), headers)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()
}

func TestE2E_Health(t *testing.T) {
	env := setupTestEnv(t)
	resp := do(t, env.server, "GET", "/health", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	var health struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Redis    string `json:"redis"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.Database)
	assert.Equal(t, "ok", health.Redis)
}
