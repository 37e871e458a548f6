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
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addProfile(t *testing.T, env *testEnv, name string) map[string]interface{} {
	t.Helper()
	w, resp := env.do(t, "POST", "/api/mongodb-configs",
		fmt.Sprintf(`{"action":"add","name":%q,"uri":"mongodb://localhost:27017","database":"test"}`, name))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return resp["connection"].(map[string]interface{})
}

func TestConfigsHandler_EmptyStore(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, "GET", "/api/mongodb-configs?action=list", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, resp["connections"])

	_, resp = env.do(t, "GET", "/api/mongodb-configs?action=active", "")
	assert.Contains(t, resp, "connection")
	assert.Nil(t, resp["connection"])

	_, resp = env.do(t, "GET", "/api/mongodb-configs?action=location", "")
	assert.Contains(t, resp, "location")
	assert.Nil(t, resp["location"])
}

func TestConfigsHandler_AddBecomesActive(t *testing.T) {
	env := newTestEnv(t)

	added := addProfile(t, env, "dev")
	assert.Regexp(t, `^conn_\d+_[0-9a-f]{9}$`, added["id"])
	assert.Equal(t, "dev", added["name"])

	_, resp := env.do(t, "GET", "/api/mongodb-configs?action=active", "")
	active := resp["connection"].(map[string]interface{})
	assert.Equal(t, added["id"], active["id"])

	_, resp = env.do(t, "GET", "/api/mongodb-configs?action=location", "")
	assert.NotNil(t, resp["location"])

	assert.Equal(t, []string{"config add"}, env.cache.refreshReasons())
}

func TestConfigsHandler_DeleteReassignsActive(t *testing.T) {
	env := newTestEnv(t)
	first := addProfile(t, env, "first")
	second := addProfile(t, env, "second")

	w, resp := env.do(t, "POST", "/api/mongodb-configs", fmt.Sprintf(`{"action":"setActive","id":%q}`, second["id"]))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"success": true}, resp)

	w, _ = env.do(t, "POST", "/api/mongodb-configs", fmt.Sprintf(`{"action":"delete","id":%q}`, first["id"]))
	require.Equal(t, http.StatusOK, w.Code)
	_, resp = env.do(t, "GET", "/api/mongodb-configs?action=active", "")
	assert.Equal(t, second["id"], resp["connection"].(map[string]interface{})["id"])

	w, _ = env.do(t, "POST", "/api/mongodb-configs", fmt.Sprintf(`{"action":"delete","id":%q}`, second["id"]))
	require.Equal(t, http.StatusOK, w.Code)
	_, resp = env.do(t, "GET", "/api/mongodb-configs?action=active", "")
	assert.Nil(t, resp["connection"])

	assert.Len(t, env.cache.refreshReasons(), 5)
}

func TestConfigsHandler_Update(t *testing.T) {
	env := newTestEnv(t)
	added := addProfile(t, env, "dev")

	w, resp := env.do(t, "POST", "/api/mongodb-configs",
		fmt.Sprintf(`{"action":"update","id":%q,"updates":{"database":"analytics","description":"reporting"}}`, added["id"]))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := resp["connection"].(map[string]interface{})
	assert.Equal(t, "dev", updated["name"])
	assert.Equal(t, "analytics", updated["database"])
	assert.Equal(t, "reporting", updated["description"])
	assert.Equal(t, added["createdAt"], updated["createdAt"])
}

func TestConfigsHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "unknown read action", method: "GET", path: "/api/mongodb-configs?action=export", wantStatus: http.StatusBadRequest},
		{name: "missing read action", method: "GET", path: "/api/mongodb-configs", wantStatus: http.StatusBadRequest},
		{name: "unknown write action", method: "POST", path: "/api/mongodb-configs", body: `{"action":"rename"}`, wantStatus: http.StatusBadRequest},
		{name: "invalid json", method: "POST", path: "/api/mongodb-configs", body: `{"action":`, wantStatus: http.StatusBadRequest},
		{name: "add without uri", method: "POST", path: "/api/mongodb-configs", body: `{"action":"add","name":"dev","database":"test"}`, wantStatus: http.StatusBadRequest},
		{name: "update without id", method: "POST", path: "/api/mongodb-configs", body: `{"action":"update","updates":{"name":"x"}}`, wantStatus: http.StatusBadRequest},
		{name: "delete without id", method: "POST", path: "/api/mongodb-configs", body: `{"action":"delete"}`, wantStatus: http.StatusBadRequest},
		{name: "setActive without id", method: "POST", path: "/api/mongodb-configs", body: `{"action":"setActive"}`, wantStatus: http.StatusBadRequest},
		{name: "update missing", method: "POST", path: "/api/mongodb-configs", body: `{"action":"update","id":"conn_1_abc","updates":{"name":"x"}}`, wantStatus: http.StatusNotFound},
		{name: "delete missing", method: "POST", path: "/api/mongodb-configs", body: `{"action":"delete","id":"conn_1_abc"}`, wantStatus: http.StatusNotFound},
		{name: "setActive missing", method: "POST", path: "/api/mongodb-configs", body: `{"action":"setActive","id":"conn_1_abc"}`, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			w, resp := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, false, resp["success"])
			assert.NotEmpty(t, resp["error"])
			assert.Empty(t, env.cache.refreshReasons(), "failed mutations must not refresh the cache")
		})
	}
}
