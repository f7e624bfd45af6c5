package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"projecthub/internal/auth"
	"projecthub/internal/board"
	"projecthub/internal/changerequest"
	"projecthub/internal/handler"
	"projecthub/internal/health"
	"projecthub/internal/model"
	"projecthub/internal/project"
	"projecthub/internal/register"
	"projecthub/internal/repository/memory"
	"projecthub/internal/sequence"
	"projecthub/pkg/trace"
	"projecthub/pkg/util"
)

const testSecret = "router-test-secret-0123456789"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, checks ...ReadyCheck) *gin.Engine {
	t.Helper()
	log := zap.NewNop()
	repos := memory.NewStore().Repositories()

	healthSvc := health.NewService(repos, health.NopCache{}, log)
	h := Handlers{
		Auth: handler.NewAuthHandler(auth.NewService(repos.Users, testSecret, time.Hour,
			map[string]model.Role{"boss@example.com": model.RoleApprover}, log), log),
		Projects: handler.NewProjectHandler(project.NewService(repos, healthSvc, log), healthSvc, log),
		Board:    handler.NewBoardHandler(board.NewService(repos, healthSvc, nil, log), log),
		Register: handler.NewRegisterHandler(register.NewService(repos, sequence.CountAllocator{}, healthSvc, nil, log), log),
		ChangeRequests: handler.NewChangeRequestHandler(
			changerequest.NewService(repos, sequence.CountAllocator{}, nil, nil, log), log),
	}
	return NewRouter(h, testSecret, log, checks...)
}

func token(t *testing.T, userID int, role string) string {
	t.Helper()
	tok, err := util.GenerateJWT(userID, role, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(r *gin.Engine, method, path, tok string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createProject(t *testing.T, r *gin.Engine, tok string, body map[string]any) int {
	t.Helper()
	w := do(r, http.MethodPost, "/projects", tok, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode(t, w)["project"].(map[string]any)
	return int(p["id"].(float64))
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(t, ReadyCheck{Name: "db", Check: func(context.Context) error { return nil }})

	w := do(r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", decode(t, w)["status"])
}

func TestReadyzReportsFailingDependency(t *testing.T) {
	r := newTestRouter(t,
		ReadyCheck{Name: "db", Check: func(context.Context) error { return nil }},
		ReadyCheck{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: connection refused") }},
	)

	w := do(r, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "redis_not_ready", decode(t, w)["status"])
}

func TestTraceHeaderIsEchoed(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(trace.HeaderName(), "abc123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc123", w.Header().Get(trace.HeaderName()))

	w = do(r, http.MethodGet, "/healthz", "", nil)
	assert.Len(t, w.Header().Get(trace.HeaderName()), 32)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/projects", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	r := newTestRouter(t)
	creds := map[string]any{"email": "boss@example.com", "password": "correct horse"}

	w := do(r, http.MethodPost, "/register", "", creds)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "approver", user["role"])
	assert.NotContains(t, w.Body.String(), "password")

	w = do(r, http.MethodPost, "/register", "", creds)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/login", "", map[string]any{"email": "boss@example.com", "password": "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decode(t, w)["error"].(map[string]any)["code"])

	w = do(r, http.MethodPost, "/login", "", creds)
	require.Equal(t, http.StatusOK, w.Code)
	tok := decode(t, w)["token"].(string)

	claims, err := util.ParseJWT(tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "approver", claims.Role)
}

func TestErrorBodyShape(t *testing.T) {
	r := newTestRouter(t)
	tok := token(t, 1, "member")

	w := do(r, http.MethodPost, "/projects", tok, map[string]any{"name": "  "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	e := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, "validation", e["code"])
	assert.Equal(t, "project", e["entity"])
	assert.Equal(t, "create", e["op"])
	assert.Equal(t, "name is required", e["message"])

	w = do(r, http.MethodGet, "/projects/999", tok, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w)["error"].(map[string]any)["code"])

	w = do(r, http.MethodGet, "/projects/abc", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBoardFlow(t *testing.T) {
	r := newTestRouter(t)
	tok := token(t, 1, "member")
	pid := createProject(t, r, tok, map[string]any{"name": "Apollo", "end_date": "2030-01-31"})

	ids := make([]int, 0, 3)
	for _, title := range []string{"A", "B", "C"} {
		w := do(r, http.MethodPost, fmt.Sprintf("/projects/%d/tasks", pid), tok, map[string]any{"title": title})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		body := decode(t, w)
		assert.Equal(t, "skipped", body["notification"].(map[string]any)["status"])
		ids = append(ids, int(body["task"].(map[string]any)["id"].(float64)))
	}

	w := do(r, http.MethodPost, fmt.Sprintf("/tasks/%d/move", ids[0]), tok, map[string]any{
		"from_status": "backlog", "from_index": 0, "to_status": "done", "to_index": 0,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	moved := decode(t, w)
	assert.Equal(t, "done", moved["task"].(map[string]any)["status"])
	assert.Len(t, moved["source"].(map[string]any)["tasks"], 2)

	w = do(r, http.MethodPost, fmt.Sprintf("/tasks/%d/move", ids[1]), tok, map[string]any{"to_status": "finished"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, fmt.Sprintf("/projects/%d/board", pid), tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cols := decode(t, w)["columns"].([]any)
	require.Len(t, cols, 5)
	assert.Equal(t, "backlog", cols[0].(map[string]any)["status"])

	w = do(r, http.MethodGet, fmt.Sprintf("/projects/%d/health", pid), tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode(t, w)["health"].(map[string]any)
	assert.Equal(t, float64(33), report["completion_percentage"])
	assert.Equal(t, "green", report["rag_status"])

	w = do(r, http.MethodDelete, fmt.Sprintf("/tasks/%d", ids[1]), tok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodGet, fmt.Sprintf("/tasks/%d", ids[2]), tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["task"].(map[string]any)["position"])
}

func TestRegisterFlow(t *testing.T) {
	r := newTestRouter(t)
	tok := token(t, 1, "member")
	pid := createProject(t, r, tok, map[string]any{"name": "Apollo"})

	w := do(r, http.MethodPost, fmt.Sprintf("/projects/%d/risks", pid), tok, map[string]any{
		"type": "risk", "title": "Vendor slip", "rag_status": "red",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entry := decode(t, w)["entry"].(map[string]any)
	assert.Equal(t, "RISK-001", entry["reference"])
	rid := int(entry["id"].(float64))

	w = do(r, http.MethodPost, fmt.Sprintf("/projects/%d/risks", pid), tok, map[string]any{"type": "issue", "title": "Outage"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "ISSUE-001", decode(t, w)["entry"].(map[string]any)["reference"])

	w = do(r, http.MethodPatch, fmt.Sprintf("/risks/%d", rid), tok, map[string]any{"type": "issue"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, fmt.Sprintf("/projects/%d/risks/summary", pid), tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	counts := decode(t, w)["counts"].(map[string]any)
	assert.Equal(t, float64(1), counts["red"])
	assert.Equal(t, float64(1), counts["green"])

	w = do(r, http.MethodGet, fmt.Sprintf("/projects/%d/risks?type=issue", pid), tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["entries"], 1)
}

func TestChangeRequestApprovalNeedsPermission(t *testing.T) {
	r := newTestRouter(t)
	member := token(t, 1, "member")
	approver := token(t, 2, "approver")
	pid := createProject(t, r, member, map[string]any{"name": "Apollo", "end_date": "2025-06-01"})

	w := do(r, http.MethodPost, fmt.Sprintf("/projects/%d/change-requests", pid), member, map[string]any{
		"reason": "Supplier slipped", "proposed_end_date": "2025-07-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cr := decode(t, w)["change_request"].(map[string]any)
	assert.Equal(t, "PCR-001", cr["reference"])
	assert.Equal(t, "pending", cr["status"])
	path := fmt.Sprintf("/change-requests/%d/resolve", int(cr["id"].(float64)))

	w = do(r, http.MethodPost, path, member, map[string]any{"outcome": "approved"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, path, approver, map[string]any{"outcome": "approved", "notes": "ok"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resolved := decode(t, w)["change_request"].(map[string]any)
	assert.Equal(t, "approved", resolved["status"])
	assert.Equal(t, float64(2), resolved["approved_by"])

	w = do(r, http.MethodGet, fmt.Sprintf("/projects/%d", pid), member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["project"].(map[string]any)["end_date"], "2025-07-01")

	w = do(r, http.MethodPost, path, approver, map[string]any{"outcome": "rejected"})
	assert.Equal(t, http.StatusConflict, w.Code)
}
