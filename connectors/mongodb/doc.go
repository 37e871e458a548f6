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
Package mongodb provides the live MongoDB handle and the document proxy.

# Client

Dial connects, pings the primary and returns a Client that the registry
caches per URI:

	client, err := mongodb.Dial(ctx, "mongodb://localhost:27017", 10*time.Second)

# Document Proxy

A request body names an action and a collection:

	{"action": "find", "collection": "users",
	 "query": {"age": {"$gt": 20}}, "sort": {"age": -1}, "limit": 2}

Supported actions:
  - find: query (default {}), sort, limit (default 100)
  - insert: document
  - update: query and update; applies to every matching document
  - delete: id, a 24 character hex ObjectID

DecodeRequest turns the body into a FindRequest, InsertRequest,
UpdateRequest or DeleteRequest. Payload objects are relaxed Extended JSON.
Proxy.Execute runs the request against the provider's current target.

Returned identifiers are always strings.
*/
package mongodb
