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

package registry

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"toolbox/connectors/base"
	"toolbox/shared/logger"
)

// Notifier is told about every locally initiated refresh so other
// processes can drop their caches too.
type Notifier interface {
	Publish(ctx context.Context, reason string) error
}

// Stats tracks cache performance metrics
type Stats struct {
	Hits          int64       `json:"hits"`
	Misses        int64       `json:"misses"`
	Dials         int64       `json:"dials"`
	DialFailures  int64       `json:"dialFailures"`
	Evictions     int64       `json:"evictions"`
	Refreshes     int64       `json:"refreshes"`
	CachedHandles int         `json:"cachedHandles"`
	LastRefresh   time.Time   `json:"lastRefresh,omitempty"`
	TargetSource  base.Source `json:"targetSource,omitempty"`
}

// HitRate returns the cache hit rate as a percentage (0-100)
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Options holds options for creating a Manager
type Options[H base.Handle] struct {
	Resolver *Resolver
	Dialer   base.Dialer[H]

	// CloseGrace delays disconnecting evicted handles so in-flight
	// operations can finish.
	CloseGrace time.Duration
	Logger     *logger.Logger
}

// Manager is the process-wide connection cache. It resolves the target once
// and keeps one live handle per URI until Refresh clears everything.
type Manager[H base.Handle] struct {
	resolver   *Resolver
	dial       base.Dialer[H]
	closeGrace time.Duration
	logger     *logger.Logger
	group      singleflight.Group

	mu         sync.RWMutex
	target     *base.Target
	handles    map[string]H
	generation uint64
	notifier   Notifier
	stats      Stats
}

// NewManager creates a new connection manager
func NewManager[H base.Handle](opts Options[H]) *Manager[H] {
	log := opts.Logger
	if log == nil {
		log = logger.New("registry")
	}
	return &Manager[H]{
		resolver:   opts.Resolver,
		dial:       opts.Dialer,
		closeGrace: opts.CloseGrace,
		logger:     log,
		handles:    make(map[string]H),
	}
}

// SetNotifier installs the cross-process refresh notifier.
func (m *Manager[H]) SetNotifier(n Notifier) {
	m.mu.Lock()
	m.notifier = n
	m.mu.Unlock()
}

// Target returns the resolved target, resolving it on first need.
func (m *Manager[H]) Target(ctx context.Context) (base.Target, error) {
	target, _, err := m.resolve(ctx)
	return target, err
}

// resolve returns the target together with the cache generation it belongs
// to, so later steps can tell whether a refresh ran in between.
func (m *Manager[H]) resolve(ctx context.Context) (base.Target, uint64, error) {
	m.mu.RLock()
	gen := m.generation
	if m.target != nil {
		t := *m.target
		m.mu.RUnlock()
		return t, gen, nil
	}
	m.mu.RUnlock()

	target, err := m.resolver.Resolve(ctx)
	if err != nil {
		return base.Target{}, gen, err
	}

	m.mu.Lock()
	if m.generation == gen && m.target == nil {
		m.target = &target
		m.stats.TargetSource = target.Source
	}
	m.mu.Unlock()

	m.logger.Info("", "Resolved connection target", map[string]interface{}{
		"source":   string(target.Source),
		"uri":      target.Redacted(),
		"database": target.Database,
		"profile":  target.ProfileID,
	})
	return target, gen, nil
}

// Acquire returns a live handle for the current target.
func (m *Manager[H]) Acquire(ctx context.Context) (H, base.Target, error) {
	var zero H

	target, gen, err := m.resolve(ctx)
	if err != nil {
		return zero, base.Target{}, err
	}

	m.mu.Lock()
	if h, ok := m.handles[target.URI]; ok && m.generation == gen {
		m.stats.Hits++
		m.mu.Unlock()
		return h, target, nil
	}
	m.stats.Misses++
	m.mu.Unlock()

	key := strconv.FormatUint(gen, 10) + "|" + target.URI
	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		return m.establish(ctx, target, gen)
	})
	if err != nil {
		return zero, base.Target{}, err
	}
	return v.(H), target, nil
}

// establish dials a handle for a target resolved in generation gen and
// inserts it if absent. A handle that loses the insert race is closed and
// the cached one returned instead. A failed dial drops the resolved target
// so the next call resolves from scratch.
func (m *Manager[H]) establish(ctx context.Context, target base.Target, gen uint64) (H, error) {
	var zero H

	m.mu.Lock()
	if h, ok := m.handles[target.URI]; ok && m.generation == gen {
		m.mu.Unlock()
		return h, nil
	}
	m.stats.Dials++
	m.mu.Unlock()

	start := time.Now()
	h, err := m.dial(ctx, target.URI)
	if err != nil {
		m.mu.Lock()
		m.stats.DialFailures++
		if m.generation == gen && m.target != nil && m.target.URI == target.URI {
			m.target = nil
			m.stats.TargetSource = ""
		}
		m.mu.Unlock()

		m.logger.Error("", "Failed to establish connection", map[string]interface{}{
			"uri": target.Redacted(), "error": err.Error(),
		})
		var be *base.Error
		if errors.As(err, &be) {
			return zero, err
		}
		return zero, base.NewError(base.KindConnectionFailed, "Acquire", "failed to connect to MongoDB", err)
	}

	m.mu.Lock()
	if m.generation != gen {
		// A refresh ran since the target was resolved; serve this caller but do not cache.
		m.mu.Unlock()
		m.closeLater([]H{h})
		return h, nil
	}
	if existing, ok := m.handles[target.URI]; ok {
		m.mu.Unlock()
		m.closeLater([]H{h})
		return existing, nil
	}
	m.handles[target.URI] = h
	m.mu.Unlock()

	m.logger.InfoWithDuration("", "Connection established", float64(time.Since(start).Milliseconds()), map[string]interface{}{
		"uri": target.Redacted(),
	})
	return h, nil
}

// Refresh clears the resolved target and every cached handle, then tells
// the notifier, if any.
func (m *Manager[H]) Refresh(ctx context.Context, reason string) int {
	evicted := m.Invalidate(reason)

	m.mu.RLock()
	n := m.notifier
	m.mu.RUnlock()
	if n != nil {
		if err := n.Publish(ctx, reason); err != nil {
			m.logger.Warn("", "Failed to publish refresh", map[string]interface{}{"error": err.Error()})
		}
	}
	return evicted
}

// Invalidate clears the cache without notifying other processes. It returns
// the number of evicted handles.
func (m *Manager[H]) Invalidate(reason string) int {
	m.mu.Lock()
	evicted := make([]H, 0, len(m.handles))
	for _, h := range m.handles {
		evicted = append(evicted, h)
	}
	m.handles = make(map[string]H)
	m.target = nil
	m.generation++
	m.stats.Evictions += int64(len(evicted))
	m.stats.Refreshes++
	m.stats.LastRefresh = time.Now()
	m.stats.TargetSource = ""
	m.mu.Unlock()

	m.resolver.Invalidate()

	m.logger.Info("", "Connection cache cleared", map[string]interface{}{
		"reason":  reason,
		"evicted": len(evicted),
	})
	m.closeLater(evicted)
	return len(evicted)
}

func (m *Manager[H]) closeLater(handles []H) {
	if len(handles) == 0 {
		return
	}
	closeAll := func() {
		for _, h := range handles {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := h.Disconnect(ctx); err != nil {
				m.logger.Warn("", "Failed to disconnect evicted handle", map[string]interface{}{
					"uri": base.RedactURI(h.URI()), "error": err.Error(),
				})
			}
			cancel()
		}
	}
	if m.closeGrace <= 0 {
		closeAll()
		return
	}
	time.AfterFunc(m.closeGrace, closeAll)
}

// Stats returns a snapshot of the cache counters.
func (m *Manager[H]) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.stats
	s.CachedHandles = len(m.handles)
	return s
}

// Close disconnects every cached handle immediately. Used at shutdown.
func (m *Manager[H]) Close(ctx context.Context) error {
	m.mu.Lock()
	handles := m.handles
	m.handles = make(map[string]H)
	m.target = nil
	m.generation++
	m.mu.Unlock()

	var errs []error
	for _, h := range handles {
		if err := h.Disconnect(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
