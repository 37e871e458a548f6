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
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"toolbox/shared/logger"
)

// DefaultDatabase is used when the environment supplies a URI but no database name.
const DefaultDatabase = "test_db"

// SettingsFilename is the optional runtime settings file.
const SettingsFilename = "toolbox.yaml"

// Settings holds the runtime settings of the toolbox process.
type Settings struct {
	Addr string

	MongoURI          string
	MongoDatabase     string
	MongoURISecretARN string
	AWSRegion         string

	ConfigPaths []string
	LockPath    string
	Watch       bool

	RedisURL string

	Log logger.Options

	RateLimitRPS      float64
	RateLimitBurst    int
	CORSOrigins       []string
	TrustForwardedFor bool

	ConnectTimeout   time.Duration
	OperationTimeout time.Duration
	CloseGrace       time.Duration

	// SettingsFile is the toolbox.yaml that was read, if any.
	SettingsFile string
}

// SettingsOptions controls where LoadSettings looks.
type SettingsOptions struct {
	ConfigFile string   // explicit toolbox.yaml; overrides SearchDirs
	SearchDirs []string // defaults to "." and $HOME/.config/toolbox
	EnvFiles   []string // defaults to .env.local then .env
}

// LoadSettings reads dotenv files, the optional settings file and the
// environment, in increasing order of precedence over the built-in defaults.
func LoadSettings(opts SettingsOptions) (*Settings, error) {
	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = []string{".env.local", ".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables that are already set,
		// so earlier files win over later ones.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	settingsFile, err := findSettingsFile(opts)
	if err != nil {
		return nil, err
	}
	if settingsFile != "" {
		content, err := os.ReadFile(settingsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings file %s: %w", settingsFile, err)
		}
		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewReader([]byte(expandEnvVars(string(content))))); err != nil {
			return nil, fmt.Errorf("failed to parse settings file %s: %w", settingsFile, err)
		}
	}

	s := &Settings{
		Addr:              v.GetString("addr"),
		MongoURI:          strings.TrimSpace(v.GetString("mongodb.uri")),
		MongoDatabase:     strings.TrimSpace(v.GetString("mongodb.database")),
		MongoURISecretARN: v.GetString("mongodb.uri_secret_arn"),
		AWSRegion:         v.GetString("aws.region"),
		ConfigPaths:       stringList(v.Get("config.paths")),
		LockPath:          v.GetString("config.lock_path"),
		Watch:             v.GetBool("config.watch"),
		RedisURL:          v.GetString("redis.url"),
		Log: logger.Options{
			Level:      v.GetString("log.level"),
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
		RateLimitRPS:      v.GetFloat64("http.rate_limit_rps"),
		RateLimitBurst:    v.GetInt("http.rate_limit_burst"),
		CORSOrigins:       stringList(v.Get("http.cors_origins")),
		TrustForwardedFor: v.GetBool("http.trust_forwarded_for"),
		ConnectTimeout:    v.GetDuration("mongodb.connect_timeout"),
		OperationTimeout:  v.GetDuration("mongodb.operation_timeout"),
		CloseGrace:        v.GetDuration("mongodb.close_grace"),
		SettingsFile:      settingsFile,
	}

	// PORT is the platform convention; an explicit TOOLBOX_ADDR still wins.
	if port := os.Getenv("PORT"); port != "" && os.Getenv("TOOLBOX_ADDR") == "" {
		s.Addr = ":" + port
	}
	if s.MongoDatabase == "" {
		s.MongoDatabase = DefaultDatabase
	}
	if len(s.ConfigPaths) == 0 {
		s.ConfigPaths = DefaultPaths()
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the settings for values the process cannot run with.
func (s *Settings) Validate() error {
	if s.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if s.RateLimitRPS < 0 || s.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}
	if s.ConnectTimeout <= 0 || s.OperationTimeout <= 0 {
		return fmt.Errorf("mongodb timeouts must be positive")
	}
	if s.CloseGrace < 0 {
		return fmt.Errorf("mongodb.close_grace must not be negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":3000")
	v.SetDefault("mongodb.database", DefaultDatabase)
	v.SetDefault("mongodb.connect_timeout", 10*time.Second)
	v.SetDefault("mongodb.operation_timeout", 30*time.Second)
	v.SetDefault("mongodb.close_grace", 30*time.Second)
	v.SetDefault("config.lock_path", filepath.Join(os.TempDir(), DefaultLockFile))
	v.SetDefault("config.watch", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("http.rate_limit_rps", 20)
	v.SetDefault("http.rate_limit_burst", 50)
	v.SetDefault("http.cors_origins", "*")
	v.SetDefault("http.trust_forwarded_for", false)
}

var envBindings = map[string]string{
	"addr":                     "TOOLBOX_ADDR",
	"mongodb.uri":              "MONGODB_URI",
	"mongodb.database":         "MONGODB_DB",
	"mongodb.uri_secret_arn":   "MONGODB_URI_SECRET_ARN",
	"aws.region":               "AWS_REGION",
	"config.paths":             "TOOLBOX_CONFIG_PATHS",
	"config.lock_path":         "TOOLBOX_CONFIG_LOCK",
	"config.watch":             "TOOLBOX_CONFIG_WATCH",
	"redis.url":                "TOOLBOX_REDIS_URL",
	"log.level":                "TOOLBOX_LOG_LEVEL",
	"log.file":                 "TOOLBOX_LOG_FILE",
	"http.rate_limit_rps":      "TOOLBOX_RATE_LIMIT_RPS",
	"http.rate_limit_burst":    "TOOLBOX_RATE_LIMIT_BURST",
	"http.cors_origins":        "TOOLBOX_CORS_ORIGINS",
	"http.trust_forwarded_for": "TOOLBOX_TRUST_FORWARDED_FOR",
}

func bindEnv(v *viper.Viper) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

func findSettingsFile(opts SettingsOptions) (string, error) {
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return "", fmt.Errorf("settings file %s: %w", opts.ConfigFile, err)
		}
		return opts.ConfigFile, nil
	}

	dirs := opts.SearchDirs
	if dirs == nil {
		dirs = []string{"."}
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, filepath.Join(home, ".config", "toolbox"))
		}
	}
	for _, dir := range dirs {
		path := filepath.Join(dir, SettingsFilename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// stringList accepts either a YAML list or a comma separated string.
func stringList(raw interface{}) []string {
	var parts []string
	switch val := raw.(type) {
	case string:
		parts = strings.Split(val, ",")
	case []string:
		parts = val
	case []interface{}:
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envVarRegex matches ${VAR_NAME} or $VAR_NAME patterns
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands environment variable references in the string.
// Supports ${VAR_NAME}, $VAR_NAME and ${VAR_NAME:-default}; undefined
// variables without a default expand to the empty string.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		defaultVal := ""
		if idx := strings.Index(varName, ":-"); idx != -1 {
			defaultVal = varName[idx+2:]
			varName = varName[:idx]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultVal
	})
}
