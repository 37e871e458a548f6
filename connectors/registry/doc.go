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
Package registry resolves which MongoDB deployment a request should talk to
and caches the live handle for reuse.

# Resolution

A Resolver consults, in order:

  - the active profile (or the first profile when none is marked active)
  - each fallback source (environment, then AWS Secrets Manager)

and fails with a configuration_missing error when nothing applies.

	resolver := registry.NewResolver(store, config.NewEnvFallback(settings))

# Caching

A Manager owns the process-wide cache. The resolved target is kept until
the next refresh, and one handle is kept per URI:

	manager := registry.NewManager(registry.Options[*mongodb.Client]{
	    Resolver:   resolver,
	    Dialer:     mongodb.Dialer(settings.ConnectTimeout),
	    CloseGrace: 30 * time.Second,
	})

	client, target, err := manager.Acquire(ctx)

Concurrent misses for the same URI share one dial. Failed dials are not
cached. Refresh is the only eviction path; evicted handles are disconnected
after the close grace period.

# Cross-Process Refresh

With a RedisBus installed as the notifier, every Refresh is published on
toolbox:connections:refresh and other processes clear their caches:

	bus, err := registry.NewRedisBus(ctx, "redis://localhost:6379/0")
	manager.SetNotifier(bus)
	go bus.Subscribe(ctx, func(e registry.RefreshEvent) {
	    manager.Invalidate("remote: " + e.Reason)
	})

# Thread Safety

Resolver, Manager and RedisBus are safe for concurrent use.
*/
package registry
