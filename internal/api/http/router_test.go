package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wardline-health/staff-access-service/internal/api/http/handlers"
	"github.com/wardline-health/staff-access-service/internal/auth"
	"github.com/wardline-health/staff-access-service/internal/domain"
	"github.com/wardline-health/staff-access-service/internal/events"
	"github.com/wardline-health/staff-access-service/internal/observability"
	"github.com/wardline-health/staff-access-service/internal/persistence"
	"github.com/wardline-health/staff-access-service/internal/repository"
	"github.com/wardline-health/staff-access-service/internal/service"
)

const testJWTSecret = "router-test-secret"

type testServer struct {
	app     *fiber.App
	metrics *observability.Metrics
}

func bearerToken(t *testing.T, identity domain.Identity) string {
	t.Helper()
	now := time.Now()
	claims := &auth.Claims{
		Email: string(identity.Email),
		Role:  string(identity.Role),
		Name:  identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(identity.Email),
			ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return "Bearer " + token
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	overrideRepo := repository.NewMemoryOverrideRepository()
	managerRepo := repository.NewMemoryManagerRepository()

	settings := service.NewSettingsService(service.SettingsDependencies{OverrideRepo: overrideRepo, ManagerRepo: managerRepo, Logger: logger})
	access := service.NewAccessService(settings, metrics, logger)
	overrides := service.NewOverrideService(service.OverrideDependencies{
		OverrideRepo: overrideRepo,
		ManagerRepo:  managerRepo,
		Settings:     settings,
		Access:       access,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	requests := service.NewAccessRequestService(service.AccessRequestDependencies{
		RequestRepo: repository.NewMemoryAccessRequestRepository(),
		Access:      access,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	personal := service.NewPersonalPermissionService(repository.NewMemoryPersonalPermissionRepository(), dispatcher, logger)

	tokens := auth.NewTokenManager(testJWTSecret)
	app := fiber.New(fiber.Config{UnescapePath: true})
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:              handlers.NewHealthHandler("staff-access-service", "test", nil, &persistence.Redis{}),
		Metrics:             handlers.NewMetricsHandler(metrics),
		Permissions:         handlers.NewPermissionsHandler(access),
		Overrides:           handlers.NewOverridesHandler(overrides),
		AccessRequests:      handlers.NewAccessRequestsHandler(requests),
		PersonalPermissions: handlers.NewPersonalPermissionsHandler(personal),
		AuthMiddleware:      auth.NewAuthMiddleware(tokens),
	})
	return &testServer{app: app, metrics: metrics}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, identity *domain.Identity, method, path, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if identity != nil {
		req.Header.Set("Authorization", bearerToken(t, *identity))
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode %s: %v", string(raw), err)
		}
	}
	return resp.StatusCode, env
}

func expectError(t *testing.T, status int, env envelope, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("expected status %d, got %d", wantStatus, status)
	}
	if env.Error == nil || env.Error.Code != wantCode {
		t.Fatalf("expected error code %s, got %+v", wantCode, env.Error)
	}
}

var (
	rootID  = domain.Identity{Email: "root@h.org", Role: domain.RoleSuperAdmin}
	nurseID = domain.Identity{Email: "nurse@h.org", Role: domain.RoleNurse, Name: "Nina"}
)

func TestHealthAndAuthBoundary(t *testing.T) {
	srv := newTestServer(t)

	status, _ := srv.do(t, nil, fiber.MethodGet, "/health/ready", "")
	if status != fiber.StatusOK {
		t.Fatalf("in-memory mode should be ready, got %d", status)
	}

	status, env := srv.do(t, nil, fiber.MethodGet, "/api/v1/permissions/me", "")
	expectError(t, status, env, fiber.StatusUnauthorized, "UNAUTHORIZED")
}

func TestPermissionsForNurseBilling(t *testing.T) {
	srv := newTestServer(t)

	status, env := srv.do(t, &nurseID, fiber.MethodGet, "/api/v1/permissions/billing/features/view", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var decision struct {
		Allowed    bool `json:"allowed"`
		Restricted bool `json:"restricted"`
	}
	if err := json.Unmarshal(env.Data, &decision); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decision.Allowed || decision.Restricted {
		t.Fatalf("nurse must not use billing view: %+v", decision)
	}

	status, env = srv.do(t, &nurseID, fiber.MethodGet, "/api/v1/permissions/kitchen", "")
	expectError(t, status, env, fiber.StatusBadRequest, "VALIDATION_FAILED")

	status, env = srv.do(t, &nurseID, fiber.MethodGet, "/api/v1/permissions/me", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var me struct {
		Modules []struct {
			Module string `json:"module"`
		} `json:"modules"`
		IsManager bool `json:"is_manager"`
	}
	if err := json.Unmarshal(env.Data, &me); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(me.Modules) != len(domain.AllModules) || me.IsManager {
		t.Fatalf("unexpected me response %+v", me)
	}
}

func TestAccessRequestFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	status, env := srv.do(t, &nurseID, fiber.MethodPut, "/api/v1/overrides/nurse@h.org/modules/patients", `{"flags":{"can_view":true}}`)
	expectError(t, status, env, fiber.StatusForbidden, "FORBIDDEN")

	status, _ = srv.do(t, &rootID, fiber.MethodPut, "/api/v1/overrides/Nurse@H.org/modules/patients",
		`{"flags":{"can_view":true,"can_edit":true},"restricted_features":["edit"]}`)
	if status != fiber.StatusOK {
		t.Fatalf("set override: %d", status)
	}

	status, env = srv.do(t, &nurseID, fiber.MethodPost, "/api/v1/access-requests", `{"module":"patients","feature":"view","reason":"x"}`)
	expectError(t, status, env, fiber.StatusBadRequest, "VALIDATION_FAILED")

	status, env = srv.do(t, &nurseID, fiber.MethodPost, "/api/v1/access-requests", `{"module":"patients","feature":"edit","reason":" night shift "}`)
	if status != fiber.StatusCreated {
		t.Fatalf("create: %d %+v", status, env.Error)
	}
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Status != "pending" || created.Reason != "night shift" {
		t.Fatalf("unexpected request %+v", created)
	}

	status, env = srv.do(t, &nurseID, fiber.MethodPost, "/api/v1/access-requests", `{"module":"patients","feature":"edit"}`)
	expectError(t, status, env, fiber.StatusConflict, "CONFLICT")

	status, env = srv.do(t, &nurseID, fiber.MethodPost, "/api/v1/access-requests/"+created.ID+"/review", `{"decision":"approve"}`)
	expectError(t, status, env, fiber.StatusForbidden, "FORBIDDEN")

	status, env = srv.do(t, &rootID, fiber.MethodPost, "/api/v1/access-requests/"+created.ID+"/review", `{"decision":"later"}`)
	expectError(t, status, env, fiber.StatusBadRequest, "VALIDATION_FAILED")

	status, _ = srv.do(t, &rootID, fiber.MethodPost, "/api/v1/access-requests/"+created.ID+"/review", `{"decision":"approve","comment":"ok"}`)
	if status != fiber.StatusOK {
		t.Fatalf("review: %d", status)
	}

	status, env = srv.do(t, &rootID, fiber.MethodPost, "/api/v1/access-requests/"+created.ID+"/review", `{"decision":"reject"}`)
	expectError(t, status, env, fiber.StatusConflict, "INVALID_STATE")

	status, env = srv.do(t, &rootID, fiber.MethodGet, "/api/v1/access-requests/00000000-0000-0000-0000-000000000000", "")
	expectError(t, status, env, fiber.StatusNotFound, "NOT_FOUND")

	status, env = srv.do(t, &nurseID, fiber.MethodGet, "/api/v1/access-requests?status=approved", "")
	if status != fiber.StatusOK {
		t.Fatalf("list: %d", status)
	}
	var listed []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("unexpected list %+v", listed)
	}
}

func TestManagerAndPersonalRoutes(t *testing.T) {
	srv := newTestServer(t)

	status, env := srv.do(t, &nurseID, fiber.MethodPost, "/api/v1/managers/roles/head_nurse", "")
	expectError(t, status, env, fiber.StatusForbidden, "FORBIDDEN")

	status, _ = srv.do(t, &rootID, fiber.MethodPost, "/api/v1/managers/roles/head_nurse", "")
	if status != fiber.StatusOK {
		t.Fatalf("add manager role: %d", status)
	}

	status, env = srv.do(t, &nurseID, fiber.MethodPut, "/api/v1/personal-permissions/me", `{"permissions":{"prescriptions":{"create":true}}}`)
	expectError(t, status, env, fiber.StatusBadRequest, "VALIDATION_FAILED")

	status, _ = srv.do(t, &nurseID, fiber.MethodPut, "/api/v1/personal-permissions/me", `{"permissions":{"vitals":{"record":true}}}`)
	if status != fiber.StatusOK {
		t.Fatalf("set personal: %d", status)
	}

	head := domain.Identity{Email: "head@h.org", Role: domain.RoleHeadNurse}
	status, env = srv.do(t, &head, fiber.MethodGet, "/api/v1/personal-permissions/nurse@h.org", "")
	if status != fiber.StatusOK {
		t.Fatalf("peer lookup: %d", status)
	}
	var profile struct {
		Permissions map[string]map[string]bool `json:"permissions"`
	}
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !profile.Permissions["vitals"]["record"] {
		t.Fatalf("expected vitals.record to be delegated: %+v", profile)
	}

	status, _ = srv.do(t, nil, fiber.MethodGet, "/metrics", "")
	if status != fiber.StatusOK {
		t.Fatalf("metrics: %d", status)
	}
	if len(srv.metrics.Snapshot().Errors) == 0 {
		t.Fatalf("expected error counters to be populated")
	}
}

func TestErrorMetricsKeyedByRoutePattern(t *testing.T) {
	srv := newTestServer(t)

	for i := 0; i < 50; i++ {
		status, env := srv.do(t, nil, fiber.MethodGet, "/nope/"+strconv.Itoa(i), "")
		expectError(t, status, env, fiber.StatusNotFound, "NOT_FOUND")
	}
	for i := 0; i < 5; i++ {
		status, env := srv.do(t, &rootID, fiber.MethodGet, "/api/v1/access-requests/"+uuid.NewString(), "")
		expectError(t, status, env, fiber.StatusNotFound, "NOT_FOUND")
	}

	snapshot := srv.metrics.Snapshot()
	if len(snapshot.Errors) > 2 {
		t.Fatalf("error keys should not grow per path, got %d: %v", len(snapshot.Errors), snapshot.Errors)
	}
	if got := snapshot.Errors["/api/v1/access-requests/:id|GET|NOT_FOUND"]; got != 5 {
		t.Fatalf("expected 5 errors under the route pattern, got %d: %v", got, snapshot.Errors)
	}
	if len(snapshot.Requests) > 2 {
		t.Fatalf("request keys should not grow per path, got %d", len(snapshot.Requests))
	}
}

func TestManagerRegistryRoutesRequireSuperAdmin(t *testing.T) {
	srv := newTestServer(t)
	admin := domain.Identity{Email: "admin@h.org", Role: domain.RoleHospitalAdmin}

	status, _ := srv.do(t, &rootID, fiber.MethodPost, "/api/v1/managers/emails/admin@h.org", "")
	if status != fiber.StatusOK {
		t.Fatalf("add manager email: %d", status)
	}

	status, env := srv.do(t, &admin, fiber.MethodDelete, "/api/v1/managers/emails/admin@h.org", "")
	expectError(t, status, env, fiber.StatusForbidden, "FORBIDDEN")

	status, _ = srv.do(t, &admin, fiber.MethodGet, "/api/v1/managers", "")
	if status != fiber.StatusOK {
		t.Fatalf("managers may list the registry, got %d", status)
	}
}

func TestAccessRequestListReportsAppliedPage(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/access-requests?limit=500&offset=-3", nil)
	req.Header.Set("Authorization", bearerToken(t, rootID))
	resp, err := srv.app.Test(req, -1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Meta struct {
			Limit  int `json:"limit"`
			Offset int `json:"offset"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Meta.Limit != 200 || body.Meta.Offset != 0 {
		t.Fatalf("expected clamped page 200/0, got %+v", body.Meta)
	}
}
