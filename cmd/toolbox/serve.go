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

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"toolbox/connectors/config"
	"toolbox/connectors/mongodb"
	"toolbox/connectors/registry"
	"toolbox/server"
	"toolbox/shared/logger"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the document and configuration HTTP API.

The connection target is the active profile, then the first profile, then
MONGODB_URI (or the secret named by MONGODB_URI_SECRET_ARN).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.loadSettings()
			if err != nil {
				return err
			}
			if addr != "" {
				s.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, s)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides TOOLBOX_ADDR)")
	return cmd
}

// newResolver wires the store and the configured fallbacks.
func newResolver(ctx context.Context, s *config.Settings, store *config.Store) (*registry.Resolver, error) {
	fallbacks := []registry.FallbackSource{config.NewEnvFallback(s)}

	if s.MongoURI == "" && s.MongoURISecretARN != "" {
		secret, err := config.NewSecretFallback(ctx, config.SecretFallbackOptions{
			ARN:      s.MongoURISecretARN,
			Region:   s.AWSRegion,
			Database: s.MongoDatabase,
			Logger:   logger.New("secrets"),
		})
		if err != nil {
			return nil, err
		}
		fallbacks = append(fallbacks, secret)
	}

	return registry.NewResolver(store, fallbacks...), nil
}

func runServe(ctx context.Context, s *config.Settings) error {
	closeLog := logger.Configure(s.Log)
	defer func() { _ = closeLog() }()

	log := logger.New("toolbox")
	log.Info("", "Starting toolbox", map[string]interface{}{
		"version":       version,
		"addr":          s.Addr,
		"config_paths":  s.ConfigPaths,
		"settings_file": s.SettingsFile,
	})

	store := newStore(s)
	resolver, err := newResolver(ctx, s, store)
	if err != nil {
		return err
	}

	manager := registry.NewManager(registry.Options[*mongodb.Client]{
		Resolver:   resolver,
		Dialer:     mongodb.Dialer(s.ConnectTimeout),
		CloseGrace: s.CloseGrace,
		Logger:     logger.New("registry"),
	})
	proxy := mongodb.NewProxy(manager, mongodb.ProxyOptions{
		OperationTimeout: s.OperationTimeout,
		Logger:           logger.New("proxy"),
	})

	srv := server.New(server.Options{
		Documents:         proxy,
		Configs:           store,
		Cache:             manager,
		Health:            mongodb.ProviderHealth{Provider: manager},
		Version:           version,
		CORSOrigins:       s.CORSOrigins,
		RateLimitRPS:      s.RateLimitRPS,
		RateLimitBurst:    s.RateLimitBurst,
		TrustForwardedFor: s.TrustForwardedFor,
		Logger:            logger.New("server"),
	})

	httpServer := &http.Server{
		Addr:              s.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if s.RedisURL != "" {
		bus, err := registry.NewRedisBus(ctx, s.RedisURL)
		if err != nil {
			return err
		}
		defer func() { _ = bus.Close() }()
		manager.SetNotifier(bus)

		g.Go(func() error {
			err := bus.Subscribe(gctx, func(event registry.RefreshEvent) {
				manager.Invalidate("remote: " + event.Reason)
			})
			if err != nil {
				log.Warn("", "Refresh subscription stopped", map[string]interface{}{"error": err.Error()})
			}
			return nil
		})
	}

	if s.Watch {
		watcher := config.NewWatcher(store.Paths(), config.DefaultDebounce, func() {
			manager.Refresh(gctx, "config file changed")
		})
		g.Go(func() error {
			if err := watcher.Run(gctx); err != nil {
				log.Warn("", "Config watcher stopped", map[string]interface{}{"error": err.Error()})
			}
			return nil
		})
	}

	g.Go(func() error {
		log.Info("", "HTTP server listening", map[string]interface{}{"addr": s.Addr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("", "Shutting down", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		if closeErr := manager.Close(shutdownCtx); closeErr != nil {
			log.Warn("", "Failed to close cached connections", map[string]interface{}{"error": closeErr.Error()})
		}
		return err
	})

	return g.Wait()
}
