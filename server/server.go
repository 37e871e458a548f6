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
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"toolbox/connectors/base"
	"toolbox/connectors/config"
	"toolbox/connectors/mongodb"
	"toolbox/connectors/registry"
	"toolbox/shared/logger"
)

// ServiceName is reported by /health.
const ServiceName = "mongodb-toolbox"

// DocumentExecutor runs decoded document requests.
type DocumentExecutor interface {
	Execute(ctx context.Context, req mongodb.Request) (mongodb.Result, error)
}

// ConfigStore is the profile CRUD surface behind the configuration API.
type ConfigStore interface {
	List() []config.ConnectionProfile
	Active() *config.ConnectionProfile
	Location() (string, bool)
	Add(in config.ProfileInput) (config.ConnectionProfile, error)
	Update(id string, patch config.ProfilePatch) (config.ConnectionProfile, error)
	Delete(id string) error
	SetActive(id string) error
}

// ConnectionCache is the process-wide handle cache.
type ConnectionCache interface {
	Refresh(ctx context.Context, reason string) int
	Stats() registry.Stats
}

// HealthChecker reports the health of the current connection target.
type HealthChecker interface {
	Health(ctx context.Context) (base.HealthStatus, base.Target)
}

// Options holds the dependencies and HTTP settings of a Server
type Options struct {
	Documents DocumentExecutor
	Configs   ConfigStore
	Cache     ConnectionCache
	Health    HealthChecker

	Version        string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	Logger         *logger.Logger

	// TrustForwardedFor keys rate limiting on the first X-Forwarded-For
	// hop. Enable only behind a proxy that overwrites the header.
	TrustForwardedFor bool
}

// Server is the HTTP boundary of the toolbox.
type Server struct {
	documents DocumentExecutor
	configs   ConfigStore
	cache     ConnectionCache
	health    HealthChecker

	version     string
	corsOrigins []string
	limiter     *clientLimiter
	logger      *logger.Logger
	started     time.Time

	trustForwardedFor bool
}

// New creates a Server from opts.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.New("server")
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		documents:   opts.Documents,
		configs:     opts.Configs,
		cache:       opts.Cache,
		health:      opts.Health,
		version:     version,
		corsOrigins: origins,
		limiter:     newClientLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		logger:      log,
		started:     time.Now(),

		trustForwardedFor: opts.TrustForwardedFor,
	}
}

// Router builds the route table with the middleware chain applied.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware, s.recoverMiddleware, s.accessLogMiddleware, s.rateLimitMiddleware)

	r.HandleFunc("/health", s.healthHandler).Methods("GET")
	r.Handle("/prometheus", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/api/documents", s.documentsHandler).Methods("POST")
	r.HandleFunc("/api/mongodb-configs", s.configsGetHandler).Methods("GET")
	r.HandleFunc("/api/mongodb-configs", s.configsPostHandler).Methods("POST")
	r.HandleFunc("/api/connections/refresh", s.refreshHandler).Methods("POST")
	r.HandleFunc("/api/connections/cache/stats", s.cacheStatsHandler).Methods("GET")
	r.HandleFunc("/api/connections/health", s.connectionHealthHandler).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendErrorResponse(w, "route not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendErrorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}

// Handler returns the router wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	allowCredentials := true
	for _, o := range s.corsOrigins {
		if o == "*" {
			allowCredentials = false
		}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: allowCredentials,
	})
	return c.Handler(s.Router())
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	components := map[string]interface{}{}

	if location, ok := s.configs.Location(); ok {
		components["config_store"] = location
	} else {
		components["config_store"] = "not_created"
	}
	stats := s.cache.Stats()
	components["connection_cache"] = map[string]interface{}{
		"cached_handles": stats.CachedHandles,
		"target_source":  stats.TargetSource,
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"service":    ServiceName,
		"version":    s.version,
		"timestamp":  time.Now().UTC(),
		"uptime":     time.Since(s.started).Round(time.Second).String(),
		"components": components,
	})
}
