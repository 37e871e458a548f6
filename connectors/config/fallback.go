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
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"toolbox/connectors/base"
	"toolbox/shared/logger"
)

// EnvFallback is the environment-supplied target, consulted only when no
// profile exists.
type EnvFallback struct {
	URI      string
	Database string
}

// NewEnvFallback builds the fallback from loaded settings.
func NewEnvFallback(s *Settings) *EnvFallback {
	return &EnvFallback{URI: s.MongoURI, Database: s.MongoDatabase}
}

// FallbackTarget returns the environment target, if a URI is configured.
func (f *EnvFallback) FallbackTarget(ctx context.Context) (base.Target, bool, error) {
	if f == nil || f.URI == "" {
		return base.Target{}, false, nil
	}
	db := f.Database
	if db == "" {
		db = DefaultDatabase
	}
	return base.Target{URI: f.URI, Database: db, Source: base.SourceEnv}, true, nil
}

// secretsAPI is the subset of the Secrets Manager client used here.
type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretFallback reads the fallback target from an AWS Secrets Manager
// secret. The secret is either a JSON object with "uri" and optional
// "database" keys, or the bare connection string.
type SecretFallback struct {
	client   secretsAPI
	arn      string
	database string
	ttl      time.Duration
	now      func() time.Time
	logger   *logger.Logger

	mu        sync.Mutex
	cached    base.Target
	expiresAt time.Time
}

// SecretFallbackOptions holds options for creating a SecretFallback
type SecretFallbackOptions struct {
	ARN      string
	Region   string
	Database string // used when the secret does not name one
	CacheTTL time.Duration
	Logger   *logger.Logger
}

// NewSecretFallback creates a fallback backed by AWS Secrets Manager using
// the default AWS credential chain.
func NewSecretFallback(ctx context.Context, opts SecretFallbackOptions) (*SecretFallback, error) {
	cfgOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		cfgOpts = append(cfgOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, base.NewError(base.KindInternal, "NewSecretFallback", "failed to load AWS config", err)
	}

	return newSecretFallback(secretsmanager.NewFromConfig(cfg), opts), nil
}

func newSecretFallback(client secretsAPI, opts SecretFallbackOptions) *SecretFallback {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	log := opts.Logger
	if log == nil {
		log = logger.New("secrets")
	}
	return &SecretFallback{
		client:   client,
		arn:      opts.ARN,
		database: opts.Database,
		ttl:      ttl,
		now:      time.Now,
		logger:   log,
	}
}

// FallbackTarget returns the target stored in the secret, cached for the TTL.
func (f *SecretFallback) FallbackTarget(ctx context.Context) (base.Target, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cached.URI != "" && f.now().Before(f.expiresAt) {
		return f.cached, true, nil
	}

	f.logger.Info("", "Fetching fallback connection secret", map[string]interface{}{"secret": maskARN(f.arn)})

	out, err := f.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(f.arn),
	})
	if err != nil {
		return base.Target{}, false, base.NewError(base.KindConnectionFailed, "FallbackTarget",
			"failed to read secret "+maskARN(f.arn), err)
	}
	if out.SecretString == nil || strings.TrimSpace(*out.SecretString) == "" {
		return base.Target{}, false, base.NewError(base.KindConfigurationMissing, "FallbackTarget",
			"secret "+maskARN(f.arn)+" has no string value", nil)
	}

	target := parseSecretTarget(*out.SecretString)
	if target.Database == "" {
		target.Database = f.database
	}
	if target.Database == "" {
		target.Database = DefaultDatabase
	}
	if target.URI == "" {
		return base.Target{}, false, base.NewError(base.KindConfigurationMissing, "FallbackTarget",
			"secret "+maskARN(f.arn)+" does not contain a uri", nil)
	}

	f.cached = target
	f.expiresAt = f.now().Add(f.ttl)
	return target, true, nil
}

// Invalidate drops the cached secret so the next call fetches it again.
func (f *SecretFallback) Invalidate() {
	f.mu.Lock()
	f.cached = base.Target{}
	f.expiresAt = time.Time{}
	f.mu.Unlock()
}

// parseSecretTarget accepts either a JSON object with uri/database keys or
// a bare connection string. Unknown keys of any type are ignored.
func parseSecretTarget(secret string) base.Target {
	target := base.Target{Source: base.SourceSecret}

	trimmed := strings.TrimSpace(secret)
	if !strings.HasPrefix(trimmed, "{") {
		target.URI = trimmed
		return target
	}

	var fields struct {
		URI      string `json:"uri"`
		Database string `json:"database"`
	}
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return target
	}
	target.URI = strings.TrimSpace(fields.URI)
	target.Database = strings.TrimSpace(fields.Database)
	return target
}

// maskARN masks the secret ARN for logging (shows only last 8 characters)
func maskARN(arn string) string {
	if len(arn) <= 12 {
		return "***"
	}
	return "..." + arn[len(arn)-8:]
}
