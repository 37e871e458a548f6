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

package server

import (
	"net/http"
	"time"

	"toolbox/connectors/registry"
)

// refreshHandler clears the resolved target and every cached handle.
// POST /api/connections/refresh
func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	evicted := s.cache.Refresh(r.Context(), "api")
	connectionRefreshTotal.WithLabelValues("api").Inc()

	duration := time.Since(start)
	stats := s.cache.Stats()
	s.recordCacheStats(stats)

	s.logger.InfoWithDuration(requestIDFrom(r.Context()), "Connection cache refreshed", float64(duration.Milliseconds()), map[string]interface{}{
		"evicted": evicted,
	})

	writeJSON(w, http.StatusOK, success(map[string]interface{}{
		"message":  "Connection cache refreshed",
		"evicted":  evicted,
		"duration": duration.String(),
		"stats":    stats,
	}))
}

// cacheStatsHandler returns cache statistics.
// GET /api/connections/cache/stats
func (s *Server) cacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats := s.cache.Stats()
	s.recordCacheStats(stats)

	writeJSON(w, http.StatusOK, success(map[string]interface{}{
		"stats":          stats,
		"hitRatePercent": stats.HitRate(),
		"timestamp":      time.Now().UTC(),
	}))
}

// connectionHealthHandler pings the handle for the current target.
// GET /api/connections/health
func (s *Server) connectionHealthHandler(w http.ResponseWriter, r *http.Request) {
	status, target := s.health.Health(r.Context())

	body := map[string]interface{}{
		"success": status.Healthy,
		"health":  status,
		"latency": status.Latency.String(),
	}
	if target.URI != "" {
		body["target"] = map[string]interface{}{
			"uri":         target.Redacted(),
			"database":    target.Database,
			"source":      target.Source,
			"profileId":   target.ProfileID,
			"profileName": target.ProfileName,
		}
	}

	code := http.StatusOK
	if !status.Healthy {
		body["error"] = status.Error
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, body)
}

func (s *Server) recordCacheStats(stats registry.Stats) {
	connectionCacheStats.WithLabelValues("cached_handles").Set(float64(stats.CachedHandles))
	connectionCacheStats.WithLabelValues("hits").Set(float64(stats.Hits))
	connectionCacheStats.WithLabelValues("misses").Set(float64(stats.Misses))
	connectionCacheStats.WithLabelValues("dials").Set(float64(stats.Dials))
	connectionCacheStats.WithLabelValues("dial_failures").Set(float64(stats.DialFailures))
	connectionCacheStats.WithLabelValues("evictions").Set(float64(stats.Evictions))
	connectionCacheStats.WithLabelValues("hit_rate").Set(stats.HitRate())
}
