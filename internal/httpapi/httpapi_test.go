// SPDX-License-Identifier: Apache-2.0

package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathkitproj/mathsolver-mcp/internal/history"
	"github.com/mathkitproj/mathsolver-mcp/internal/httpapi"
	"github.com/mathkitproj/mathsolver-mcp/internal/service"
	"github.com/mathkitproj/mathsolver-mcp/internal/solver"
	"github.com/mathkitproj/mathsolver-mcp/internal/solver/solvers"
)

func newServer(t *testing.T, withHistory bool, maxBody int64) *httptest.Server {
	t.Helper()
	r := solver.NewRegistry()
	solvers.Register(r)
	var opts []service.Option
	if withHistory {
		store, err := history.Open(context.Background(), history.DriverSQLite, ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		opts = append(opts, service.WithHistory(store))
	}
	srv := httptest.NewServer(httpapi.New(service.New(r, opts...), httpapi.Options{MaxBodyBytes: maxBody}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// ---------------------------------------------------------------------------
// Solve endpoints
// ---------------------------------------------------------------------------

func TestSolve(t *testing.T) {
	srv := newServer(t, false, 0)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		validate   func(t *testing.T, body map[string]any)
	}{
		{
			name:       "solves equation",
			path:       "/solve",
			body:       `{"problem_text": "2x + 5 = 13"}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, body map[string]any) {
				assert.Equal(t, true, body["success"])
				assert.Equal(t, "4", body["solution"].(map[string]any)["answer"])
				assert.Equal(t, "algebra", body["classification"].(map[string]any)["subject"])
				assert.NotEmpty(t, body["request_id"])
				assert.NotContains(t, body, "explanation")
			},
		},
		{
			name:       "validation failure",
			path:       "/solve",
			body:       `{"problem_text": ""}`,
			wantStatus: http.StatusBadRequest,
			validate: func(t *testing.T, body map[string]any) {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, "validation: empty problem text", body["error"])
			},
		},
		{
			name:       "malformed body",
			path:       "/solve",
			body:       `{"problem_text": `,
			wantStatus: http.StatusBadRequest,
			validate: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "validation_error", body["error"].(map[string]any)["type"])
			},
		},
		{
			name:       "explain includes explanation by default",
			path:       "/explain",
			body:       `{"problem_text": "2x + 5 = 13", "difficulty_level": "beginner"}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, body map[string]any) {
				exp := body["explanation"].(map[string]any)
				assert.Equal(t, true, exp["success"])
				assert.Contains(t, exp["content"], "**Answer**")
			},
		},
		{
			name:       "explain can be switched off",
			path:       "/explain",
			body:       `{"problem_text": "2x + 5 = 13", "include_explanation": false}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, body map[string]any) {
				assert.NotContains(t, body, "explanation")
			},
		},
		{
			name:       "batch preserves order",
			path:       "/solve/batch",
			body:       `{"problems": [{"problem_text": "2 + 3 * 4"}, {"problem_text": "2x + 5 = 13"}], "parallel": true}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, body map[string]any) {
				results := body["results"].([]any)
				require.Len(t, results, 2)
				assert.Equal(t, "14", results[0].(map[string]any)["solution"].(map[string]any)["answer"])
				assert.Equal(t, "4", results[1].(map[string]any)["solution"].(map[string]any)["answer"])
				assert.Equal(t, float64(2), body["summary"].(map[string]any)["successful"])
			},
		},
		{
			name:       "empty batch",
			path:       "/solve/batch",
			body:       `{"problems": []}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, http.MethodPost, srv.URL+tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			if tt.validate != nil {
				tt.validate(t, body)
			}
		})
	}
}

func TestSolve_BodyLimit(t *testing.T) {
	srv := newServer(t, false, 64)
	body := `{"problem_text": "` + strings.Repeat("1+", 100) + `1"}`
	status, out := do(t, http.MethodPost, srv.URL+"/solve", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Equal(t, false, out["success"])
}

// ---------------------------------------------------------------------------
// Introspection endpoints
// ---------------------------------------------------------------------------

func TestIntrospection(t *testing.T) {
	srv := newServer(t, true, 0)

	status, root := do(t, http.MethodGet, srv.URL+"/", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Math Solver Microservice", root["service"])
	assert.Equal(t, "running", root["status"])

	status, health := do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", health["status"])

	status, list := do(t, http.MethodGet, srv.URL+"/solvers", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, list["available_solvers"], 5)

	do(t, http.MethodPost, srv.URL+"/solve", `{"problem_text": "2 + 3 * 4"}`)
	status, stats := do(t, http.MethodGet, srv.URL+"/stats?recent=5", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), stats["stats"].(map[string]any)["total_requests"])
	assert.Len(t, stats["recent"], 1)

	status, _ = do(t, http.MethodGet, srv.URL+"/stats?recent=x", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStats_Disabled(t *testing.T) {
	srv := newServer(t, false, 0)
	status, body := do(t, http.MethodGet, srv.URL+"/stats", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "history is disabled", body["error"].(map[string]any)["message"])
}
