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

	"toolbox/connectors/base"
)

// ProfileSource yields the active profile's target. Implementations fall
// back to the first profile themselves when no active id is set.
type ProfileSource interface {
	ActiveTarget(ctx context.Context) (base.Target, bool)
}

// FallbackSource yields a target used only when no profile exists.
type FallbackSource interface {
	FallbackTarget(ctx context.Context) (base.Target, bool, error)
}

// Resolver computes the effective connection target: the active profile,
// then each fallback in order, else ConfigurationMissing.
type Resolver struct {
	profiles  ProfileSource
	fallbacks []FallbackSource
}

// NewResolver creates a Resolver. nil fallbacks are ignored.
func NewResolver(profiles ProfileSource, fallbacks ...FallbackSource) *Resolver {
	r := &Resolver{profiles: profiles}
	for _, fb := range fallbacks {
		if fb != nil {
			r.fallbacks = append(r.fallbacks, fb)
		}
	}
	return r
}

// Resolve returns the target for the next operation.
func (r *Resolver) Resolve(ctx context.Context) (base.Target, error) {
	if r.profiles != nil {
		if target, ok := r.profiles.ActiveTarget(ctx); ok {
			return target, nil
		}
	}

	for _, fb := range r.fallbacks {
		target, ok, err := fb.FallbackTarget(ctx)
		if err != nil {
			return base.Target{}, err
		}
		if ok {
			return target, nil
		}
	}

	return base.Target{}, base.NewError(base.KindConfigurationMissing, "Resolve",
		"MongoDB connection not configured: add a connection profile or set MONGODB_URI", nil)
}

// invalidator is implemented by fallbacks that cache what they read.
type invalidator interface {
	Invalidate()
}

// Invalidate drops whatever the fallbacks have cached so the next Resolve
// reads them again.
func (r *Resolver) Invalidate() {
	if r == nil {
		return
	}
	for _, fb := range r.fallbacks {
		if inv, ok := fb.(invalidator); ok {
			inv.Invalidate()
		}
	}
}
