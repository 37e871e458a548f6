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

package config

import (
	"fmt"
	"strings"
	"time"

	"toolbox/connectors/base"
)

// ConnectionProfile is a named, persisted description of one MongoDB target.
type ConnectionProfile struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	URI         string    `json:"uri" yaml:"uri"`
	Database    string    `json:"database" yaml:"database"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Target converts the profile into a resolution target.
func (p ConnectionProfile) Target() base.Target {
	return base.Target{
		URI:         p.URI,
		Database:    p.Database,
		Source:      base.SourceProfile,
		ProfileID:   p.ID,
		ProfileName: p.Name,
	}
}

// ConfigData is the persisted unit written to the configuration file.
// Insertion order of Connections is list order.
type ConfigData struct {
	Connections        []ConnectionProfile `json:"connections"`
	ActiveConnectionID string              `json:"activeConnectionId,omitempty"`
}

func newConfigData() *ConfigData {
	return &ConfigData{Connections: []ConnectionProfile{}}
}

func (d *ConfigData) indexOf(id string) int {
	for i := range d.Connections {
		if d.Connections[i].ID == id {
			return i
		}
	}
	return -1
}

// Active returns the active profile. An unset or dangling active id falls
// back to the first profile in list order; nil means there are no profiles.
func (d *ConfigData) Active() *ConnectionProfile {
	if d.ActiveConnectionID != "" {
		if i := d.indexOf(d.ActiveConnectionID); i >= 0 {
			p := d.Connections[i]
			return &p
		}
	}
	if len(d.Connections) > 0 {
		p := d.Connections[0]
		return &p
	}
	return nil
}

// normalize drops a dangling active id so the persisted file always satisfies Validate.
func (d *ConfigData) normalize() {
	if d.Connections == nil {
		d.Connections = []ConnectionProfile{}
	}
	if d.ActiveConnectionID != "" && d.indexOf(d.ActiveConnectionID) < 0 {
		d.ActiveConnectionID = ""
	}
}

// Validate checks id uniqueness and that the active id, when set, exists.
func (d *ConfigData) Validate() error {
	seen := make(map[string]struct{}, len(d.Connections))
	for _, c := range d.Connections {
		if c.ID == "" {
			return fmt.Errorf("connection %q has an empty id", c.Name)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("duplicate connection id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	if d.ActiveConnectionID != "" {
		if _, ok := seen[d.ActiveConnectionID]; !ok {
			return fmt.Errorf("active connection %q does not exist", d.ActiveConnectionID)
		}
	}
	return nil
}

// ProfileInput carries the fields accepted when adding a profile.
type ProfileInput struct {
	Name        string `json:"name"`
	URI         string `json:"uri"`
	Database    string `json:"database"`
	Description string `json:"description,omitempty"`
}

// Validate requires name, uri and database.
func (in ProfileInput) Validate() error {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.URI) == "" {
		missing = append(missing, "uri")
	}
	if strings.TrimSpace(in.Database) == "" {
		missing = append(missing, "database")
	}
	if len(missing) > 0 {
		return base.NewError(base.KindValidation, "Add",
			"missing required fields: "+strings.Join(missing, ", "), nil)
	}
	return nil
}

// ProfilePatch is a partial update; nil fields are left untouched.
type ProfilePatch struct {
	Name        *string `json:"name,omitempty"`
	URI         *string `json:"uri,omitempty"`
	Database    *string `json:"database,omitempty"`
	Description *string `json:"description,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.Name == nil && p.URI == nil && p.Database == nil && p.Description == nil
}

// Validate rejects blanking out a required field.
func (p ProfilePatch) Validate() error {
	for field, v := range map[string]*string{"name": p.Name, "uri": p.URI, "database": p.Database} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return base.NewError(base.KindValidation, "Update", field+" cannot be empty", nil)
		}
	}
	return nil
}

func (p ProfilePatch) apply(profile *ConnectionProfile) {
	if p.Name != nil {
		profile.Name = *p.Name
	}
	if p.URI != nil {
		profile.URI = *p.URI
	}
	if p.Database != nil {
		profile.Database = *p.Database
	}
	if p.Description != nil {
		profile.Description = *p.Description
	}
}
