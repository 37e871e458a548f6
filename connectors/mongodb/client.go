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

package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"toolbox/connectors/base"
	"toolbox/shared/logger"
)

const (
	// DefaultTimeout is the default operation timeout
	DefaultTimeout = 30 * time.Second
	// DefaultConnectTimeout is the default connection timeout
	DefaultConnectTimeout = 10 * time.Second
	// AppName is reported to the server for monitoring
	AppName = "mongodb-toolbox"
)

// Client is a live, pooled connection to one MongoDB deployment.
type Client struct {
	client *mongo.Client
	uri    string
	logger *logger.Logger
}

// Dial connects to uri and verifies the primary is reachable.
func Dial(ctx context.Context, uri string, connectTimeout time.Duration) (*Client, error) {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}

	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout).
		SetAppName(AppName).
		SetRetryWrites(true).
		SetRetryReads(true)

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, base.NewError(base.KindConnectionFailed, "Connect", "failed to connect to MongoDB", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, base.NewError(base.KindConnectionFailed, "Connect", "failed to ping MongoDB", err)
	}

	c := &Client{client: client, uri: uri, logger: logger.New("mongodb")}
	c.logger.Info("", "Connected to MongoDB", map[string]interface{}{"uri": base.RedactURI(uri)})
	return c, nil
}

// Dialer adapts Dial to the registry's dialer signature.
func Dialer(connectTimeout time.Duration) base.Dialer[*Client] {
	return func(ctx context.Context, uri string) (*Client, error) {
		return Dial(ctx, uri, connectTimeout)
	}
}

// URI returns the connection string this client was dialed with.
func (c *Client) URI() string {
	return c.uri
}

// Ping checks the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Database returns a handle to the named database.
func (c *Client) Database(name string) *mongo.Database {
	return c.client.Database(name)
}

// Disconnect closes the MongoDB client connection
func (c *Client) Disconnect(ctx context.Context) error {
	disconnectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := c.client.Disconnect(disconnectCtx); err != nil {
		return base.NewError(base.KindConnectionFailed, "Disconnect", "failed to disconnect", err)
	}

	c.logger.Info("", "Disconnected from MongoDB", map[string]interface{}{"uri": base.RedactURI(c.uri)})
	return nil
}

// HealthCheck pings the deployment and reports the server version and
// collection count of database when available.
func (c *Client) HealthCheck(ctx context.Context, database string) base.HealthStatus {
	start := time.Now()
	err := c.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return base.HealthStatus{
			Healthy:   false,
			Latency:   latency,
			Timestamp: time.Now(),
			Error:     err.Error(),
		}
	}

	details := map[string]string{
		"database": database,
		"uri":      base.RedactURI(c.uri),
	}

	var buildInfo bson.M
	if err := c.client.Database("admin").RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&buildInfo); err == nil {
		if version, ok := buildInfo["version"].(string); ok {
			details["mongodb_version"] = version
		}
	}

	if names, err := c.client.Database(database).ListCollectionNames(ctx, bson.D{}); err == nil {
		details["collections"] = fmt.Sprintf("%d", len(names))
	}

	return base.HealthStatus{
		Healthy:   true,
		Latency:   latency,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// ProviderHealth runs HealthCheck against whatever client the provider
// currently hands out.
type ProviderHealth struct {
	Provider Provider
}

// Health acquires the current client and checks the target database.
func (h ProviderHealth) Health(ctx context.Context) (base.HealthStatus, base.Target) {
	client, target, err := h.Provider.Acquire(ctx)
	if err != nil {
		return base.HealthStatus{
			Details:   map[string]string{},
			Timestamp: time.Now(),
			Error:     base.PublicMessage(err),
		}, target
	}

	status := client.HealthCheck(ctx, target.Database)
	if status.Details == nil {
		status.Details = map[string]string{}
	}
	status.Details["source"] = string(target.Source)
	return status, target
}
