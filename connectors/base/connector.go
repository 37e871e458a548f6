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

package base

import (
	"context"
	"net/url"
	"time"
)

// Handle is a live, reusable connection to one target URI.
// Implementations must be safe for concurrent use.
type Handle interface {
	URI() string
	Ping(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// Dialer establishes a new Handle for a connection URI.
type Dialer[H Handle] func(ctx context.Context, uri string) (H, error)

// Source indicates where a resolved target came from
type Source string

const (
	SourceProfile Source = "profile"
	SourceEnv     Source = "env"
	SourceSecret  Source = "secret"
)

// Target is the effective (uri, database) pair computed by resolution.
type Target struct {
	URI         string `json:"-"`
	Database    string `json:"database"`
	Source      Source `json:"source"`
	ProfileID   string `json:"profileId,omitempty"`
	ProfileName string `json:"profileName,omitempty"`
}

// Redacted returns the target URI with any password masked, for logs and API output.
func (t Target) Redacted() string {
	return RedactURI(t.URI)
}

// RedactURI masks the password component of a connection string.
func RedactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		return uri
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

// HealthStatus represents the health of a live handle
type HealthStatus struct {
	Healthy   bool              `json:"healthy"`
	Latency   time.Duration     `json:"latency"`
	Details   map[string]string `json:"details"`
	Timestamp time.Time         `json:"timestamp"`
	Error     string            `json:"error,omitempty"`
}
