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
	"io"
	"net/http"
	"time"

	"toolbox/connectors/base"
	"toolbox/connectors/mongodb"
)

// maxBodyBytes caps request bodies on the JSON endpoints.
const maxBodyBytes = 10 << 20

func readBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, base.NewError(base.KindValidation, op, "failed to read request body", err)
	}
	return body, nil
}

// documentsHandler runs one document operation.
// POST /api/documents
func (s *Server) documentsHandler(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, "Documents")
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	req, err := mongodb.DecodeRequest(body)
	if err != nil {
		documentOperationsTotal.WithLabelValues("invalid", "error").Inc()
		s.sendError(w, r, err)
		return
	}

	action := string(req.Action())
	start := time.Now()
	result, err := s.documents.Execute(r.Context(), req)
	documentOperationsTotal.WithLabelValues(action, statusLabel(err)).Inc()
	documentOperationDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, success(result.Envelope()))
}
