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
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolbox/connectors/base"
	"toolbox/connectors/mongodb"
)

func TestDocumentsHandler_Success(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		result mongodb.Result
		check  func(t *testing.T, resp map[string]interface{})
	}{
		{
			name:   "find",
			body:   `{"action":"find","collection":"users","query":{"age":{"$gt":20}},"sort":{"age":-1},"limit":2}`,
			result: mongodb.FindResult{Documents: []mongodb.Document{{{Key: "_id", Value: "507f1f77bcf86cd799439011"}, {Key: "name", Value: "cat"}}}},
			check: func(t *testing.T, resp map[string]interface{}) {
				docs := resp["documents"].([]interface{})
				require.Len(t, docs, 1)
				assert.Equal(t, "507f1f77bcf86cd799439011", docs[0].(map[string]interface{})["_id"])
			},
		},
		{
			name:   "find with no matches returns an empty list",
			body:   `{"action":"find","collection":"users"}`,
			result: mongodb.FindResult{Documents: []mongodb.Document{}},
			check: func(t *testing.T, resp map[string]interface{}) {
				assert.Equal(t, []interface{}{}, resp["documents"])
			},
		},
		{
			name:   "insert",
			body:   `{"action":"insert","collection":"users","document":{"name":"zed"}}`,
			result: mongodb.InsertResult{InsertedID: "65a000000000000000000001"},
			check: func(t *testing.T, resp map[string]interface{}) {
				assert.Equal(t, "65a000000000000000000001", resp["insertedId"])
			},
		},
		{
			name:   "update",
			body:   `{"action":"update","collection":"users","query":{},"update":{"$set":{"x":1}}}`,
			result: mongodb.UpdateResult{MatchedCount: 4, ModifiedCount: 2},
			check: func(t *testing.T, resp map[string]interface{}) {
				assert.Equal(t, float64(4), resp["matchedCount"])
				assert.Equal(t, float64(2), resp["modifiedCount"])
			},
		},
		{
			name:   "delete",
			body:   `{"action":"delete","collection":"users","id":"507f1f77bcf86cd799439011"}`,
			result: mongodb.DeleteResult{DeletedCount: 1},
			check: func(t *testing.T, resp map[string]interface{}) {
				assert.Equal(t, float64(1), resp["deletedCount"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.documents.result = tt.result

			w, resp := env.do(t, "POST", "/api/documents", tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, true, resp["success"])
			tt.check(t, resp)
			require.Len(t, env.documents.got, 1)
		})
	}
}

func TestDocumentsHandler_FindKeepsFieldOrder(t *testing.T) {
	env := newTestEnv(t)
	env.documents.result = mongodb.FindResult{Documents: []mongodb.Document{{
		{Key: "_id", Value: "u1"},
		{Key: "zeta", Value: 1},
		{Key: "alpha", Value: mongodb.Document{{Key: "y", Value: "a"}, {Key: "b", Value: "c"}}},
	}}}

	w, _ := env.do(t, "POST", "/api/documents", `{"action":"find","collection":"users"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `[{"_id":"u1","zeta":1,"alpha":{"y":"a","b":"c"}}]`)
}

func TestDocumentsHandler_DecodeErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "invalid json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "unknown action", body: `{"action":"drop","collection":"users"}`, wantStatus: http.StatusBadRequest},
		{name: "missing collection", body: `{"action":"find"}`, wantStatus: http.StatusBadRequest},
		{name: "invalid identifier", body: `{"action":"delete","collection":"users","id":"nope"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			w, resp := env.do(t, "POST", "/api/documents", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, false, resp["success"])
			assert.NotEmpty(t, resp["error"])
			assert.Empty(t, env.documents.got, "decode failures must not reach the proxy")
		})
	}
}

func TestDocumentsHandler_ExecuteErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "not configured",
			err:        base.NewError(base.KindConfigurationMissing, "Resolve", "MongoDB connection not configured", nil),
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "MongoDB connection not configured",
		},
		{
			name:       "connection failed",
			err:        base.NewError(base.KindConnectionFailed, "Acquire", "failed to connect to MongoDB", nil),
			wantStatus: http.StatusBadGateway,
			wantError:  "failed to connect to MongoDB",
		},
		{
			name:       "query rejected",
			err:        base.NewError(base.KindQuery, "Find", "find failed", assert.AnError),
			wantStatus: http.StatusBadRequest,
			wantError:  "find failed: " + assert.AnError.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.documents.err = tt.err

			w, resp := env.do(t, "POST", "/api/documents", `{"action":"find","collection":"users"}`)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, false, resp["success"])
			assert.Equal(t, tt.wantError, resp["error"])
		})
	}
}
