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

	"toolbox/connectors/base"
	"toolbox/shared/logger"
)

var responseLogger = logger.New("server")

// statusForKind maps an error kind to the HTTP status of the error envelope.
func statusForKind(kind base.Kind) int {
	switch kind {
	case base.KindValidation, base.KindUnknownAction, base.KindInvalidIdentifier, base.KindQuery:
		return http.StatusBadRequest
	case base.KindNotFound:
		return http.StatusNotFound
	case base.KindConfigurationMissing:
		return http.StatusServiceUnavailable
	case base.KindConnectionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// sendError converts err into the error envelope and logs server-side failures.
func (s *Server) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForKind(base.KindOf(err))
	if status >= http.StatusInternalServerError {
		s.logger.ErrorWithCode(requestIDFrom(r.Context()), "Request failed", status, err, map[string]interface{}{
			"path": r.URL.Path,
		})
	}
	sendErrorResponse(w, base.PublicMessage(err), status)
}

func sendErrorResponse(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		responseLogger.Error("", "Error encoding response", map[string]interface{}{"error": err.Error()})
	}
}

// success merges fields into a success envelope.
func success(fields map[string]interface{}) map[string]interface{} {
	resp := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		resp[k] = v
	}
	resp["success"] = true
	return resp
}
