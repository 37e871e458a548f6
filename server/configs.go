// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
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
	"encoding/json"
	"net/http"
	"strings"

	"toolbox/connectors/base"
	"toolbox/connectors/config"
)

// configRequest is the POST body of the configuration API. Add reads the
// profile fields, the other actions read id and, for update, updates.
type configRequest struct {
	Action string `json:"action"`
	ID     string `json:"id"`
	config.ProfileInput
	Updates *config.ProfilePatch `json:"updates"`
}

// configsGetHandler serves the read actions.
// GET /api/mongodb-configs?action=list|active|location
func (s *Server) configsGetHandler(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")

	switch action {
	case "list":
		connections := s.configs.List()
		if connections == nil {
			connections = []config.ConnectionProfile{}
		}
		writeJSON(w, http.StatusOK, success(map[string]interface{}{"connections": connections}))

	case "active":
		writeJSON(w, http.StatusOK, success(map[string]interface{}{"connection": s.configs.Active()}))

	case "location":
		var location interface{}
		if path, ok := s.configs.Location(); ok {
			location = path
		}
		writeJSON(w, http.StatusOK, success(map[string]interface{}{"location": location}))

	default:
		s.sendError(w, r, unknownConfigAction(action))
	}
}

// configsPostHandler serves the mutating actions. Every successful mutation
// refreshes the connection cache.
// POST /api/mongodb-configs
func (s *Server) configsPostHandler(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, "Configs")
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	var req configRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.sendError(w, r, base.NewError(base.KindValidation, "Configs", "invalid JSON body", err))
		return
	}

	var resp map[string]interface{}
	switch req.Action {
	case "add":
		var added config.ConnectionProfile
		added, err = s.configs.Add(req.ProfileInput)
		resp = map[string]interface{}{"connection": added}

	case "update":
		if err = requireID("Update", req.ID); err == nil {
			patch := config.ProfilePatch{}
			if req.Updates != nil {
				patch = *req.Updates
			}
			var updated config.ConnectionProfile
			updated, err = s.configs.Update(req.ID, patch)
			resp = map[string]interface{}{"connection": updated}
		}

	case "delete":
		if err = requireID("Delete", req.ID); err == nil {
			err = s.configs.Delete(req.ID)
		}

	case "setActive":
		if err = requireID("SetActive", req.ID); err == nil {
			err = s.configs.SetActive(req.ID)
		}

	default:
		s.sendError(w, r, unknownConfigAction(req.Action))
		return
	}

	configMutationsTotal.WithLabelValues(req.Action, statusLabel(err)).Inc()
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	evicted := s.cache.Refresh(r.Context(), "config "+req.Action)
	connectionRefreshTotal.WithLabelValues("config").Inc()
	s.logger.Info(requestIDFrom(r.Context()), "Connection profiles changed", map[string]interface{}{
		"action":  req.Action,
		"id":      req.ID,
		"evicted": evicted,
	})

	writeJSON(w, http.StatusOK, success(resp))
}

func requireID(op, id string) error {
	if strings.TrimSpace(id) == "" {
		return base.NewError(base.KindValidation, op, "missing connection id", nil)
	}
	return nil
}

func unknownConfigAction(action string) error {
	return base.NewError(base.KindUnknownAction, "Configs", "unknown action: "+action, nil)
}
