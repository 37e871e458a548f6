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

package base

import "errors"

// Kind classifies an Error for status mapping and retry decisions.
type Kind string

const (
	KindValidation           Kind = "validation"
	KindNotFound             Kind = "not_found"
	KindConfigurationMissing Kind = "configuration_missing"
	KindConnectionFailed     Kind = "connection_failed"
	KindStorageUnavailable   Kind = "storage_unavailable"
	KindQuery                Kind = "query"
	KindWrite                Kind = "write"
	KindInvalidIdentifier    Kind = "invalid_identifier"
	KindUnknownAction        Kind = "unknown_action"
	KindInternal             Kind = "internal"
)

// Error is the single error type returned by the store, the resolver and the proxy.
type Error struct {
	Kind      Kind
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Operation + ": " + e.Message + " (cause: " + e.Cause.Error() + ")"
	}
	return e.Operation + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind with no operation set,
// so that the Err* sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Operation == "" && t.Kind == e.Kind
}

// NewError creates a new Error
func NewError(kind Kind, operation, message string, cause error) *Error {
	return &Error{
		Kind:      kind,
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// Sentinels for errors.Is checks.
var (
	ErrValidation           = &Error{Kind: KindValidation}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrConfigurationMissing = &Error{Kind: KindConfigurationMissing}
	ErrConnectionFailed     = &Error{Kind: KindConnectionFailed}
	ErrStorageUnavailable   = &Error{Kind: KindStorageUnavailable}
	ErrQuery                = &Error{Kind: KindQuery}
	ErrWrite                = &Error{Kind: KindWrite}
	ErrInvalidIdentifier    = &Error{Kind: KindInvalidIdentifier}
	ErrUnknownAction        = &Error{Kind: KindUnknownAction}
)

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage is the text placed in the API error envelope. Engine failures
// carry the driver message verbatim.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Kind {
	case KindQuery, KindWrite, KindConnectionFailed, KindStorageUnavailable:
		if e.Cause != nil {
			return e.Message + ": " + e.Cause.Error()
		}
	}
	return e.Message
}
