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
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"toolbox/shared/logger"
)

// DefaultDebounce coalesces the burst of events a single save produces.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reports external edits of the configuration file. It watches the
// candidate directories rather than the files, so it also sees a file being
// created or replaced by rename.
type Watcher struct {
	paths    map[string]struct{}
	dirs     []string
	debounce time.Duration
	onChange func()
	logger   *logger.Logger
}

// NewWatcher creates a watcher over the given candidate paths.
func NewWatcher(paths []string, debounce time.Duration, onChange func()) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		paths:    make(map[string]struct{}, len(paths)),
		debounce: debounce,
		onChange: onChange,
		logger:   logger.New("watcher"),
	}

	seenDirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		w.paths[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if _, ok := seenDirs[dir]; !ok {
			seenDirs[dir] = struct{}{}
			w.dirs = append(w.dirs, dir)
		}
	}
	return w
}

// Run blocks until ctx is cancelled. Directories that cannot be watched are
// skipped with a warning.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	watched := 0
	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			w.logger.Warn("", "Cannot watch config directory", map[string]interface{}{
				"dir": dir, "error": err.Error(),
			})
			continue
		}
		watched++
	}
	w.logger.Info("", "Watching configuration files", map[string]interface{}{"directories": watched})

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				w.logger.Info("", "Configuration file changed", map[string]interface{}{"path": event.Name})
				w.onChange()
			})
			mu.Unlock()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("", "Watcher error", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	_, ok := w.paths[filepath.Clean(event.Name)]
	return ok
}
