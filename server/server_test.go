// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolbox/connectors/base"
	"toolbox/connectors/config"
	"toolbox/connectors/mongodb"
	"toolbox/connectors/registry"
)

type fakeExecutor struct {
	mu     sync.Mutex
	result mongodb.Result
	err    error
	got    []mongodb.Request
}

func (f *fakeExecutor) Execute(ctx context.Context, req mongodb.Request) (mongodb.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, req)
	return f.result, f.err
}

type fakeCache struct {
	mu      sync.Mutex
	reasons []string
	stats   registry.Stats
}

func (f *fakeCache) Refresh(ctx context.Context, reason string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons = append(f.reasons, reason)
	evicted := f.stats.CachedHandles
	f.stats.CachedHandles = 0
	f.stats.Evictions += int64(evicted)
	f.stats.Refreshes++
	return evicted
}

func (f *fakeCache) Stats() registry.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *fakeCache) refreshReasons() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reasons...)
}

type fakeHealth struct {
	status base.HealthStatus
	target base.Target
}

func (f *fakeHealth) Health(ctx context.Context) (base.HealthStatus, base.Target) {
	return f.status, f.target
}

type testEnv struct {
	server    *Server
	handler   http.Handler
	store     *config.Store
	documents *fakeExecutor
	cache     *fakeCache
	health    *fakeHealth
}

func newTestEnv(t *testing.T, mutate ...func(*Options)) *testEnv {
	t.Helper()
	store := config.NewStore(config.StoreOptions{
		Paths:    []string{filepath.Join(t.TempDir(), config.ConfigFilename)},
		LockPath: "-",
	})
	env := &testEnv{
		store:     store,
		documents: &fakeExecutor{},
		cache:     &fakeCache{},
		health:    &fakeHealth{},
	}
	opts := Options{
		Documents: env.documents,
		Configs:   store,
		Cache:     env.cache,
		Health:    env.health,
		Version:   "test",
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	env.server = New(opts)
	env.handler = env.server.Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	}
	return w, resp
}

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind base.Kind
		want int
	}{
		{base.KindValidation, http.StatusBadRequest},
		{base.KindUnknownAction, http.StatusBadRequest},
		{base.KindInvalidIdentifier, http.StatusBadRequest},
		{base.KindQuery, http.StatusBadRequest},
		{base.KindNotFound, http.StatusNotFound},
		{base.KindConfigurationMissing, http.StatusServiceUnavailable},
		{base.KindConnectionFailed, http.StatusBadGateway},
		{base.KindStorageUnavailable, http.StatusInternalServerError},
		{base.KindWrite, http.StatusInternalServerError},
		{base.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, statusForKind(tt.kind))
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.cache.stats = registry.Stats{CachedHandles: 1, TargetSource: base.SourceEnv}

	w, resp := env.do(t, "GET", "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, ServiceName, resp["service"])
	assert.Equal(t, "test", resp["version"])

	components := resp["components"].(map[string]interface{})
	assert.Equal(t, "not_created", components["config_store"])
	cache := components["connection_cache"].(map[string]interface{})
	assert.Equal(t, float64(1), cache["cached_handles"])
	assert.Equal(t, "env", cache["target_source"])
}

func TestPrometheusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "GET", "/health", "")

	req := httptest.NewRequest("GET", "/prometheus", nil)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "toolbox_http_requests_total")
}

func TestUnknownRouteAndMethod(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, "GET", "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, resp["success"])

	w, resp = env.do(t, "GET", "/api/documents", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, false, resp["success"])
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.CORSOrigins = []string{"http://localhost:3001"} })

	req := httptest.NewRequest("OPTIONS", "/api/documents", nil)
	req.Header.Set("Origin", "http://localhost:3001")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3001", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestSendError_UsesPublicMessage(t *testing.T) {
	env := newTestEnv(t)
	env.documents.err = base.NewError(base.KindWrite, "Insert", "insert failed", errors.New("E11000 duplicate key"))

	w, resp := env.do(t, "POST", "/api/documents", `{"action":"insert","collection":"users","document":{"a":1}}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "insert failed: E11000 duplicate key", resp["error"])
}

func TestNew_Defaults(t *testing.T) {
	s := New(Options{})
	assert.Equal(t, "dev", s.version)
	assert.Equal(t, []string{"*"}, s.corsOrigins)
	assert.Nil(t, s.limiter)
	assert.WithinDuration(t, time.Now(), s.started, time.Second)
}
