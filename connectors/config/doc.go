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
Package config owns the persisted connection profiles and the runtime
settings of the toolbox.

# Connection Profiles

Profiles live in a JSON file named .mongodb-configs.json. Two candidate
locations are checked in order: the working directory, then the user's
home directory. Reads use the first candidate that exists and parses;
writes go to the first candidate that accepts them.

	{
	  "connections": [
	    {
	      "id": "conn_1718000000000_a1b2c3d4e",
	      "name": "Local",
	      "uri": "mongodb://localhost:27017",
	      "database": "test_db",
	      "createdAt": "2025-06-10T08:00:00Z",
	      "updatedAt": "2025-06-10T08:00:00Z"
	    }
	  ],
	  "activeConnectionId": "conn_1718000000000_a1b2c3d4e"
	}

The Store applies mutations as a locked read-modify-write cycle:

	store := config.NewStore(config.StoreOptions{})
	profile, err := store.Add(config.ProfileInput{
	    Name: "Local", URI: "mongodb://localhost:27017", Database: "test_db",
	})

The first profile added to an empty store becomes active. Deleting the
active profile makes the new first profile active.

# Runtime Settings

LoadSettings merges .env.local, .env, an optional toolbox.yaml and the
environment. The settings file may reference environment variables with
${VAR} or ${VAR:-default}.

Environment variables:
  - TOOLBOX_ADDR / PORT: listen address (default :3000)
  - MONGODB_URI, MONGODB_DB: fallback target when no profile exists
  - MONGODB_URI_SECRET_ARN, AWS_REGION: fallback target read from AWS Secrets Manager
  - TOOLBOX_CONFIG_PATHS: comma separated candidate paths
  - TOOLBOX_REDIS_URL: cross-process cache invalidation
  - TOOLBOX_LOG_LEVEL, TOOLBOX_LOG_FILE: logging

# Watching

Watcher notices external edits of the profile file and calls back after a
short debounce, so connection caches can be refreshed.
*/
package config
