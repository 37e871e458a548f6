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

package logger

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the severity of a log entry
type LogLevel string

const (
	DEBUG LogLevel = "DEBUG"
	INFO  LogLevel = "INFO"
	WARN  LogLevel = "WARN"
	ERROR LogLevel = "ERROR"
)

var levelRank = map[LogLevel]int{
	DEBUG: 0,
	INFO:  1,
	WARN:  2,
	ERROR: 3,
}

// ParseLevel converts a level name to a LogLevel. Unknown names map to INFO.
func ParseLevel(s string) LogLevel {
	switch LogLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case DEBUG:
		return DEBUG
	case WARN, "WARNING":
		return WARN
	case ERROR:
		return ERROR
	default:
		return INFO
	}
}

// Options configures the shared log sink used by every Logger.
type Options struct {
	Level      string
	File       string // when set, logs go to a rotating file instead of stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// sink is the process-wide destination shared by all component loggers.
type sink struct {
	mu     sync.RWMutex
	out    *log.Logger
	level  LogLevel
	closer io.Closer
}

var defaultSink = &sink{
	out:   log.New(os.Stdout, "", 0),
	level: INFO,
}

// Configure replaces the shared sink. It returns a function that releases the
// rotating file, if one was opened.
func Configure(opts Options) func() error {
	var w io.Writer = os.Stdout
	var closer io.Closer
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		w = lj
		closer = lj
	}

	defaultSink.mu.Lock()
	previous := defaultSink.closer
	defaultSink.out = log.New(w, "", 0)
	defaultSink.level = ParseLevel(opts.Level)
	defaultSink.closer = closer
	defaultSink.mu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}

	return func() error {
		if closer == nil {
			return nil
		}
		return closer.Close()
	}
}

// SetOutput redirects the shared sink to w. Mostly useful in tests.
func SetOutput(w io.Writer) {
	defaultSink.mu.Lock()
	defaultSink.out = log.New(w, "", 0)
	defaultSink.mu.Unlock()
}

// SetLevel changes the minimum level written by the shared sink.
func SetLevel(level LogLevel) {
	defaultSink.mu.Lock()
	defaultSink.level = level
	defaultSink.mu.Unlock()
}

// Logger provides structured logging for one component of the toolbox
type Logger struct {
	Component  string
	InstanceID string
	Container  string
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp  string                 `json:"timestamp"`
	Level      LogLevel               `json:"level"`
	Component  string                 `json:"component"`
	InstanceID string                 `json:"instance_id"`
	Container  string                 `json:"container"`
	RequestID  string                 `json:"request_id,omitempty"`
	Message    string                 `json:"message"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// New creates a new Logger for the specified component
func New(component string) *Logger {
	instanceID := os.Getenv("INSTANCE_ID")
	if instanceID == "" {
		instanceID = "unknown"
	}

	container, err := os.Hostname()
	if err != nil {
		container = "unknown"
	}

	return &Logger{
		Component:  component,
		InstanceID: instanceID,
		Container:  container,
	}
}

// With returns a logger for another component that shares identity fields.
func (l *Logger) With(component string) *Logger {
	child := *l
	child.Component = component
	return &child
}

// Log creates a structured log entry and writes it to the shared sink
func (l *Logger) Log(level LogLevel, requestID, message string, fields map[string]interface{}) {
	defaultSink.mu.RLock()
	out := defaultSink.out
	minLevel := defaultSink.level
	defaultSink.mu.RUnlock()

	if levelRank[level] < levelRank[minLevel] {
		return
	}

	entry := LogEntry{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Level:      level,
		Component:  l.Component,
		InstanceID: l.InstanceID,
		Container:  l.Container,
		RequestID:  requestID,
		Message:    message,
		Fields:     fields,
	}

	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		out.Printf(`{"level":"ERROR","component":%q,"message":"failed to marshal log entry: %v"}`, l.Component, err)
		return
	}

	out.Println(string(jsonBytes))
}

// Info logs an informational message
func (l *Logger) Info(requestID, message string, fields map[string]interface{}) {
	l.Log(INFO, requestID, message, fields)
}

// Error logs an error message
func (l *Logger) Error(requestID, message string, fields map[string]interface{}) {
	l.Log(ERROR, requestID, message, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(requestID, message string, fields map[string]interface{}) {
	l.Log(WARN, requestID, message, fields)
}

// Debug logs a debug message
func (l *Logger) Debug(requestID, message string, fields map[string]interface{}) {
	l.Log(DEBUG, requestID, message, fields)
}

// InfoWithDuration logs an info message with duration field
func (l *Logger) InfoWithDuration(requestID, message string, durationMS float64, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["duration_ms"] = durationMS
	l.Info(requestID, message, fields)
}

// ErrorWithCode logs an error with status code
func (l *Logger) ErrorWithCode(requestID, message string, statusCode int, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["status_code"] = statusCode
	if err != nil {
		fields["error"] = err.Error()
	}
	l.Error(requestID, message, fields)
}
