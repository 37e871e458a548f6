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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolbox_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toolbox_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "toolbox_http_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
	)

	documentOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolbox_document_operations_total",
			Help: "Total number of document proxy operations",
		},
		[]string{"action", "status"},
	)

	documentOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toolbox_document_operation_duration_seconds",
			Help:    "Duration of document proxy operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	configMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolbox_config_mutations_total",
			Help: "Total number of connection profile mutations",
		},
		[]string{"action", "status"},
	)

	connectionRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolbox_connection_refresh_total",
			Help: "Total number of connection cache refreshes",
		},
		[]string{"trigger"},
	)

	connectionCacheStats = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "toolbox_connection_cache_stats",
			Help: "Connection cache statistics",
		},
		[]string{"stat"},
	)
)

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
