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

/*
Package server is the HTTP boundary of the toolbox.

Routes:
  - POST /api/documents: document proxy (find, insert, update, delete)
  - GET  /api/mongodb-configs?action=list|active|location
  - POST /api/mongodb-configs: add, update, delete, setActive
  - POST /api/connections/refresh: clear the connection cache
  - GET  /api/connections/cache/stats
  - GET  /api/connections/health
  - GET  /health, GET /prometheus

Every failure is answered with {"success": false, "error": "..."} and a
status derived from the error kind.
*/
package server
