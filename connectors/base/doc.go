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
Package base provides the types shared by the configuration store, the
connection resolver and the document proxy.

# Targets and Handles

Resolution turns configuration into a Target, the effective connection
string and database name plus where they came from:

	target := base.Target{
	    URI:      "mongodb://localhost:27017",
	    Database: "test",
	    Source:   base.SourceProfile,
	}

A Handle is a live connection for one URI. Handles are cached by URI and
shared across requests, so implementations must be safe for concurrent use.
A Dialer creates them:

	var dial base.Dialer[*mongodb.Client] = mongodb.Dial

# Error Handling

Every failure is an *Error carrying a Kind:

	if _, err := store.Update(id, patch); errors.Is(err, base.ErrNotFound) {
	    // 404
	}

	switch base.KindOf(err) {
	case base.KindValidation, base.KindUnknownAction:
	    // client error
	case base.KindConnectionFailed:
	    // the next request resolves again from scratch
	}

PublicMessage returns the text safe to put in an API response.
*/
package base
