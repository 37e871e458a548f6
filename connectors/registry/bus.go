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
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"toolbox/shared/logger"
)

// RefreshChannel is the Redis channel carrying refresh events.
const RefreshChannel = "toolbox:connections:refresh"

// RefreshEvent is published whenever a process clears its connection cache.
type RefreshEvent struct {
	InstanceID string    `json:"instanceId"`
	Reason     string    `json:"reason"`
	At         time.Time `json:"at"`
}

// RedisBus fans refresh events out to every toolbox process sharing a
// Redis instance, so a profile change made through one process is seen by all.
type RedisBus struct {
	client     *redis.Client
	channel    string
	instanceID string
	logger     *logger.Logger
}

// NewRedisBus connects to redisURL and verifies the server is reachable.
func NewRedisBus(ctx context.Context, redisURL string) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisBusWithClient(client), nil
}

// NewRedisBusWithClient wraps an existing client.
func NewRedisBusWithClient(client *redis.Client) *RedisBus {
	return &RedisBus{
		client:     client,
		channel:    RefreshChannel,
		instanceID: uuid.NewString(),
		logger:     logger.New("bus"),
	}
}

// InstanceID identifies this process on the bus.
func (b *RedisBus) InstanceID() string {
	return b.instanceID
}

// Publish announces a local refresh.
func (b *RedisBus) Publish(ctx context.Context, reason string) error {
	payload, err := json.Marshal(RefreshEvent{InstanceID: b.instanceID, Reason: reason, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Subscribe calls onRefresh for every event published by another process
// until ctx is cancelled.
func (b *RedisBus) Subscribe(ctx context.Context, onRefresh func(RefreshEvent)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before reporting readiness.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}
	b.logger.Info("", "Subscribed to refresh events", map[string]interface{}{
		"channel": b.channel, "instance_id": b.instanceID,
	})

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event RefreshEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("", "Ignoring malformed refresh event", map[string]interface{}{"error": err.Error()})
				continue
			}
			if event.InstanceID == b.instanceID {
				continue
			}
			onRefresh(event)
		}
	}
}

// Close releases the Redis client.
func (b *RedisBus) Close() error {
	return b.client.Close()
}
