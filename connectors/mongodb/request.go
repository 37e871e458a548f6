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
	"bytes"
	"encoding/json"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"toolbox/connectors/base"
)

// DefaultLimit caps find results when the caller gives no limit.
const DefaultLimit int64 = 100

// Action names a document operation.
type Action string

const (
	ActionFind   Action = "find"
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Request is one decoded document operation. The concrete types are
// FindRequest, InsertRequest, UpdateRequest and DeleteRequest.
type Request interface {
	Action() Action
	Collection() string
}

// FindRequest retrieves documents matching Filter, sorted and capped.
type FindRequest struct {
	CollectionName string
	Filter         bson.D
	Sort           bson.D
	Limit          int64
}

// InsertRequest persists one new document.
type InsertRequest struct {
	CollectionName string
	Document       bson.D
}

// UpdateRequest applies Update to every document matching Filter. Update is
// either an operator document (bson.D) or an aggregation pipeline (bson.A).
type UpdateRequest struct {
	CollectionName string
	Filter         bson.D
	Update         interface{}
}

// DeleteRequest removes the single document with the given id.
type DeleteRequest struct {
	CollectionName string
	ID             primitive.ObjectID
}

func (r FindRequest) Action() Action       { return ActionFind }
func (r FindRequest) Collection() string   { return r.CollectionName }
func (r InsertRequest) Action() Action     { return ActionInsert }
func (r InsertRequest) Collection() string { return r.CollectionName }
func (r UpdateRequest) Action() Action     { return ActionUpdate }
func (r UpdateRequest) Collection() string { return r.CollectionName }
func (r DeleteRequest) Action() Action     { return ActionDelete }
func (r DeleteRequest) Collection() string { return r.CollectionName }

// rawRequest is the wire shape shared by every action.
type rawRequest struct {
	Action     string          `json:"action"`
	Collection string          `json:"collection"`
	Query      json.RawMessage `json:"query"`
	Document   json.RawMessage `json:"document"`
	Update     json.RawMessage `json:"update"`
	Sort       json.RawMessage `json:"sort"`
	ID         string          `json:"id"`
	Limit      *int64          `json:"limit"`
}

// DecodeRequest parses a JSON request body into a typed Request. query,
// document, update and sort are read as relaxed Extended JSON, so values
// like {"$oid": "..."} and {"$date": "..."} arrive as native BSON types.
func DecodeRequest(body []byte) (Request, error) {
	var raw rawRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, base.NewError(base.KindValidation, "DecodeRequest", "request body must be a JSON object", err)
	}

	action := Action(strings.TrimSpace(raw.Action))
	switch action {
	case ActionFind, ActionInsert, ActionUpdate, ActionDelete:
	default:
		return nil, base.NewError(base.KindUnknownAction, "DecodeRequest", "unknown action: "+raw.Action, nil)
	}

	collection := strings.TrimSpace(raw.Collection)
	if collection == "" {
		return nil, base.NewError(base.KindValidation, "DecodeRequest", "collection is required", nil)
	}

	switch action {
	case ActionFind:
		filter, err := decodeDocument(raw.Query, "query", base.KindQuery)
		if err != nil {
			return nil, err
		}
		if filter == nil {
			filter = bson.D{}
		}
		sort, err := decodeDocument(raw.Sort, "sort", base.KindQuery)
		if err != nil {
			return nil, err
		}
		limit := DefaultLimit
		if raw.Limit != nil {
			if *raw.Limit < 0 {
				return nil, base.NewError(base.KindValidation, "DecodeRequest", "limit must not be negative", nil)
			}
			if *raw.Limit > 0 {
				limit = *raw.Limit
			}
		}
		return FindRequest{CollectionName: collection, Filter: filter, Sort: sort, Limit: limit}, nil

	case ActionInsert:
		doc, err := decodeDocument(raw.Document, "document", base.KindWrite)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, base.NewError(base.KindValidation, "DecodeRequest", "document is required for insert", nil)
		}
		return InsertRequest{CollectionName: collection, Document: doc}, nil

	case ActionUpdate:
		filter, err := decodeDocument(raw.Query, "query", base.KindWrite)
		if err != nil {
			return nil, err
		}
		if filter == nil {
			return nil, base.NewError(base.KindValidation, "DecodeRequest", "query is required for update", nil)
		}
		update, err := decodeUpdate(raw.Update)
		if err != nil {
			return nil, err
		}
		return UpdateRequest{CollectionName: collection, Filter: filter, Update: update}, nil

	default:
		if strings.TrimSpace(raw.ID) == "" {
			return nil, base.NewError(base.KindValidation, "DecodeRequest", "id is required for delete", nil)
		}
		oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw.ID))
		if err != nil {
			return nil, base.NewError(base.KindInvalidIdentifier, "DecodeRequest",
				"invalid document id: "+raw.ID, err)
		}
		return DeleteRequest{CollectionName: collection, ID: oid}, nil
	}
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodeDocument reads an Extended JSON object, keeping key order. An absent
// or null field yields nil.
func decodeDocument(raw json.RawMessage, field string, kind base.Kind) (bson.D, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		return nil, base.NewError(kind, "DecodeRequest", field+" must be a JSON object", err)
	}
	return doc, nil
}

func decodeUpdate(raw json.RawMessage) (interface{}, error) {
	if isAbsent(raw) {
		return nil, base.NewError(base.KindValidation, "DecodeRequest", "update is required for update", nil)
	}

	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		// Wrap the pipeline so it can be read as a document.
		wrapped := append(append([]byte(`{"pipeline":`), raw...), '}')
		var holder struct {
			Pipeline bson.A `bson:"pipeline"`
		}
		if err := bson.UnmarshalExtJSON(wrapped, false, &holder); err != nil {
			return nil, base.NewError(base.KindWrite, "DecodeRequest", "update pipeline must be an array of objects", err)
		}
		if len(holder.Pipeline) == 0 {
			return nil, base.NewError(base.KindValidation, "DecodeRequest", "update pipeline must not be empty", nil)
		}
		return holder.Pipeline, nil
	}

	doc, err := decodeDocument(raw, "update", base.KindWrite)
	if err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, base.NewError(base.KindValidation, "DecodeRequest", "update must not be empty", nil)
	}
	return doc, nil
}
