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
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field is one key/value pair of a Document.
type Field struct {
	Key   string
	Value interface{}
}

// Document is a JSON-serializable document that keeps the field order it
// was stored with.
type Document []Field

// Get returns the value stored under key.
func (d Document) Get(key string) (interface{}, bool) {
	for _, f := range d {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON encodes the document as a JSON object in field order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// displayID renders a document identifier as an opaque string.
func displayID(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(convertFromBSON(id))
	}
}

// toDocument converts a decoded BSON document into a Document whose
// top-level _id is a display string.
func toDocument(doc bson.D) Document {
	result := make(Document, len(doc))
	for i, elem := range doc {
		if elem.Key == "_id" {
			result[i] = Field{Key: elem.Key, Value: displayID(elem.Value)}
			continue
		}
		result[i] = Field{Key: elem.Key, Value: convertFromBSON(elem.Value)}
	}
	return result
}

// bsonToMap converts BSON document to Go map with proper type handling
func bsonToMap(doc bson.M) map[string]interface{} {
	result := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		result[k] = convertFromBSON(v)
	}
	return result
}

// convertFromBSON converts BSON types to JSON-serializable Go types
func convertFromBSON(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.Timestamp:
		return map[string]interface{}{
			"t": val.T,
			"i": val.I,
		}
	case primitive.Decimal128:
		return val.String()
	case primitive.Regex:
		return map[string]interface{}{
			"pattern": val.Pattern,
			"options": val.Options,
		}
	case primitive.Binary:
		return val.Data
	case bson.M:
		return bsonToMap(val)
	case bson.A:
		result := make([]interface{}, len(val))
		for i, item := range val {
			result[i] = convertFromBSON(item)
		}
		return result
	case primitive.D:
		result := make(Document, len(val))
		for i, elem := range val {
			result[i] = Field{Key: elem.Key, Value: convertFromBSON(elem.Value)}
		}
		return result
	default:
		return val
	}
}
