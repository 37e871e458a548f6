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
Command toolbox runs the MongoDB toolbox API and manages connection profiles.

# Usage

	toolbox serve [--addr :3000]
	toolbox config list [-o table|json|yaml]
	toolbox config add --name dev --uri mongodb://localhost:27017 --database test
	toolbox config use <id>
	toolbox config test [id]

# Environment Variables

Optional:
  - TOOLBOX_ADDR or PORT: HTTP listen address (default: :3000)
  - MONGODB_URI, MONGODB_DB: fallback target when no profile exists
  - MONGODB_URI_SECRET_ARN, AWS_REGION: fallback URI from AWS Secrets Manager
  - TOOLBOX_CONFIG_PATHS: comma separated profile file candidates
  - TOOLBOX_REDIS_URL: share cache refreshes between processes
  - TOOLBOX_LOG_LEVEL, TOOLBOX_LOG_FILE: logging

.env.local and .env in the working directory are loaded first.
*/
package main
