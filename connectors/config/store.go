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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	"toolbox/connectors/base"
	"toolbox/shared/logger"
)

// ConfigFilename is the fixed name of the configuration file in every candidate directory.
const ConfigFilename = ".mongodb-configs.json"

// DefaultLockFile is the name of the advisory lock file placed in the temp directory.
const DefaultLockFile = "toolbox-mongodb-configs.lock"

// DefaultPaths returns the candidate configuration paths in priority order:
// the working directory first, then the user's home directory.
func DefaultPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ConfigFilename))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ConfigFilename))
	}
	return paths
}

// Store persists ConfigData as pretty-printed JSON at the first usable
// candidate path. Every mutation is a full read-modify-write cycle,
// serialized in-process by a mutex and across processes by a file lock.
type Store struct {
	paths    []string
	lockPath string
	now      func() time.Time
	newID    func(time.Time) string
	logger   *logger.Logger
	mu       sync.Mutex
}

// StoreOptions holds options for creating a Store
type StoreOptions struct {
	Paths    []string // candidate paths, highest priority first
	LockPath string   // advisory lock file; "-" disables cross-process locking
	Clock    func() time.Time
	Logger   *logger.Logger
}

// NewStore creates a new Store
func NewStore(opts StoreOptions) *Store {
	paths := opts.Paths
	if len(paths) == 0 {
		paths = DefaultPaths()
	}

	lockPath := opts.LockPath
	if lockPath == "" {
		lockPath = filepath.Join(os.TempDir(), DefaultLockFile)
	}
	if lockPath == "-" {
		lockPath = ""
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	log := opts.Logger
	if log == nil {
		log = logger.New("store")
	}

	return &Store{
		paths:    paths,
		lockPath: lockPath,
		now:      clock,
		newID:    newProfileID,
		logger:   log,
	}
}

// newProfileID mirrors the conn_<millis>_<random> shape of hand-written files.
func newProfileID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("conn_%d_%s", now.UnixMilli(), suffix)
}

// Paths returns the candidate paths in priority order.
func (s *Store) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Load returns the first candidate that exists and parses, along with its
// path. When none does, it returns an empty ConfigData and an empty path.
func (s *Store) Load() (*ConfigData, string) {
	for _, path := range s.paths {
		content, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				s.logger.Warn("", "Failed to read config file", map[string]interface{}{
					"path": path, "error": err.Error(),
				})
			}
			continue
		}

		data := newConfigData()
		if err := json.Unmarshal(content, data); err != nil {
			s.logger.Warn("", "Ignoring config file that is not valid JSON", map[string]interface{}{
				"path": path, "error": err.Error(),
			})
			continue
		}
		if data.Connections == nil {
			data.Connections = []ConnectionProfile{}
		}

		s.logger.Debug("", "Read config file", map[string]interface{}{"path": path})
		return data, path
	}

	return newConfigData(), ""
}

// Save writes data to the first candidate path that accepts it and returns
// that path. The write goes through a temp file and rename, so a reader never
// observes a partial file.
func (s *Store) Save(data *ConfigData) (string, error) {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", base.NewError(base.KindInternal, "Save", "failed to encode configuration", err)
	}
	content = append(content, '\n')

	var lastErr error
	for _, path := range s.paths {
		if err := renameio.WriteFile(path, content, 0o600); err != nil {
			s.logger.Warn("", "Failed to save config file", map[string]interface{}{
				"path": path, "error": err.Error(),
			})
			lastErr = err
			continue
		}
		s.logger.Info("", "Configuration saved", map[string]interface{}{"path": path})
		return path, nil
	}

	return "", base.NewError(base.KindStorageUnavailable, "Save",
		"unable to save configuration to any location", lastErr)
}

// Location reports which candidate currently backs the store.
func (s *Store) Location() (string, bool) {
	for _, path := range s.paths {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// mutate runs one serialized read-modify-write cycle. If fn or validation
// fails nothing is written.
func (s *Store) mutate(op string, fn func(*ConfigData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lockPath != "" {
		fileLock := flock.New(s.lockPath)
		if err := fileLock.Lock(); err != nil {
			s.logger.Warn("", "Config file lock unavailable, continuing with in-process lock only", map[string]interface{}{
				"lock_path": s.lockPath, "error": err.Error(),
			})
		} else {
			defer func() { _ = fileLock.Unlock() }()
		}
	}

	data, _ := s.Load()
	if err := fn(data); err != nil {
		return err
	}

	data.normalize()
	if err := data.Validate(); err != nil {
		return base.NewError(base.KindInternal, op, "configuration invariant violated", err)
	}

	_, err := s.Save(data)
	return err
}

// List returns all profiles in list order.
func (s *Store) List() []ConnectionProfile {
	data, _ := s.Load()
	return data.Connections
}

// Active returns the active profile, or nil when there are no profiles.
func (s *Store) Active() *ConnectionProfile {
	data, _ := s.Load()
	return data.Active()
}

// ActiveTarget resolves the active profile into a connection target.
func (s *Store) ActiveTarget(ctx context.Context) (base.Target, bool) {
	if p := s.Active(); p != nil {
		return p.Target(), true
	}
	return base.Target{}, false
}

// Get returns one profile by id.
func (s *Store) Get(id string) (*ConnectionProfile, error) {
	data, _ := s.Load()
	if i := data.indexOf(id); i >= 0 {
		p := data.Connections[i]
		return &p, nil
	}
	return nil, base.NewError(base.KindNotFound, "Get", "connection not found", nil)
}

// Add appends a new profile. The first profile in an empty store becomes active.
func (s *Store) Add(in ProfileInput) (ConnectionProfile, error) {
	if err := in.Validate(); err != nil {
		return ConnectionProfile{}, err
	}

	var added ConnectionProfile
	err := s.mutate("Add", func(data *ConfigData) error {
		now := s.now().UTC()
		id := s.newID(now)
		for data.indexOf(id) >= 0 {
			id = s.newID(now)
		}

		added = ConnectionProfile{
			ID:          id,
			Name:        strings.TrimSpace(in.Name),
			URI:         strings.TrimSpace(in.URI),
			Database:    strings.TrimSpace(in.Database),
			Description: in.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		data.Connections = append(data.Connections, added)

		if len(data.Connections) == 1 {
			data.ActiveConnectionID = added.ID
		}
		return nil
	})
	if err != nil {
		return ConnectionProfile{}, err
	}

	s.logger.Info("", "Connection profile added", map[string]interface{}{"id": added.ID, "name": added.Name})
	return added, nil
}

// Update merges patch into the profile with the given id and refreshes UpdatedAt.
func (s *Store) Update(id string, patch ProfilePatch) (ConnectionProfile, error) {
	if err := patch.Validate(); err != nil {
		return ConnectionProfile{}, err
	}

	var updated ConnectionProfile
	err := s.mutate("Update", func(data *ConfigData) error {
		i := data.indexOf(id)
		if i < 0 {
			return base.NewError(base.KindNotFound, "Update", "connection not found", nil)
		}
		patch.apply(&data.Connections[i])
		data.Connections[i].UpdatedAt = s.now().UTC()
		updated = data.Connections[i]
		return nil
	})
	if err != nil {
		return ConnectionProfile{}, err
	}

	s.logger.Info("", "Connection profile updated", map[string]interface{}{"id": id})
	return updated, nil
}

// Delete removes a profile. Deleting the active profile reassigns the active
// id to the new first profile, or clears it when none remain.
func (s *Store) Delete(id string) error {
	err := s.mutate("Delete", func(data *ConfigData) error {
		i := data.indexOf(id)
		if i < 0 {
			return base.NewError(base.KindNotFound, "Delete", "connection not found", nil)
		}
		data.Connections = append(data.Connections[:i], data.Connections[i+1:]...)

		if data.ActiveConnectionID == id {
			data.ActiveConnectionID = ""
			if len(data.Connections) > 0 {
				data.ActiveConnectionID = data.Connections[0].ID
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("", "Connection profile deleted", map[string]interface{}{"id": id})
	return nil
}

// SetActive points the active id at an existing profile.
func (s *Store) SetActive(id string) error {
	err := s.mutate("SetActive", func(data *ConfigData) error {
		if data.indexOf(id) < 0 {
			return base.NewError(base.KindNotFound, "SetActive", "connection not found", nil)
		}
		data.ActiveConnectionID = id
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("", "Active connection changed", map[string]interface{}{"id": id})
	return nil
}
