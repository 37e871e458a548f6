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
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"toolbox/connectors/base"
	"toolbox/shared/logger"
)

// Provider hands out the live client for the current target.
type Provider interface {
	Acquire(ctx context.Context) (*Client, base.Target, error)
}

// Result is the outcome of one document operation.
type Result interface {
	// Envelope returns the action-specific response fields.
	Envelope() map[string]interface{}
}

// FindResult holds the matched documents in cursor order.
type FindResult struct {
	Documents []Document
}

// InsertResult holds the new document's id.
type InsertResult struct {
	InsertedID string
}

// UpdateResult holds the multi-document update counts.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
}

// DeleteResult holds the number of removed documents (0 or 1).
type DeleteResult struct {
	DeletedCount int64
}

func (r FindResult) Envelope() map[string]interface{} {
	return map[string]interface{}{"documents": r.Documents}
}

func (r InsertResult) Envelope() map[string]interface{} {
	return map[string]interface{}{"insertedId": r.InsertedID}
}

func (r UpdateResult) Envelope() map[string]interface{} {
	return map[string]interface{}{"matchedCount": r.MatchedCount, "modifiedCount": r.ModifiedCount}
}

func (r DeleteResult) Envelope() map[string]interface{} {
	return map[string]interface{}{"deletedCount": r.DeletedCount}
}

// Proxy executes generic document operations against whatever database the
// provider currently resolves to.
type Proxy struct {
	provider  Provider
	opTimeout time.Duration
	logger    *logger.Logger
}

// ProxyOptions holds options for creating a Proxy
type ProxyOptions struct {
	OperationTimeout time.Duration
	Logger           *logger.Logger
}

// NewProxy creates a new document proxy
func NewProxy(provider Provider, opts ProxyOptions) *Proxy {
	timeout := opts.OperationTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logger.New("proxy")
	}
	return &Proxy{provider: provider, opTimeout: timeout, logger: log}
}

// Execute runs req and returns its result.
func (p *Proxy) Execute(ctx context.Context, req Request) (Result, error) {
	client, target, err := p.provider.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, p.opTimeout)
	defer cancel()

	coll := client.Database(target.Database).Collection(req.Collection())

	start := time.Now()
	var result Result
	switch r := req.(type) {
	case FindRequest:
		result, err = p.find(opCtx, coll, r)
	case InsertRequest:
		result, err = p.insert(opCtx, coll, r)
	case UpdateRequest:
		result, err = p.update(opCtx, coll, r)
	case DeleteRequest:
		result, err = p.delete(opCtx, coll, r)
	default:
		err = base.NewError(base.KindUnknownAction, "Execute", "unknown action: "+string(req.Action()), nil)
	}

	fields := map[string]interface{}{
		"action":     string(req.Action()),
		"database":   target.Database,
		"collection": req.Collection(),
	}
	if err != nil {
		fields["error"] = err.Error()
		p.logger.Warn("", "Document operation failed", fields)
		return nil, err
	}
	p.logger.InfoWithDuration("", "Document operation completed", float64(time.Since(start).Milliseconds()), fields)
	return result, nil
}

func (p *Proxy) find(ctx context.Context, coll *mongo.Collection, r FindRequest) (Result, error) {
	opts := options.Find().SetLimit(r.Limit)
	if len(r.Sort) > 0 {
		opts.SetSort(r.Sort)
	}

	cursor, err := coll.Find(ctx, r.Filter, opts)
	if err != nil {
		return nil, base.NewError(base.KindQuery, "Find", "find failed", err)
	}
	defer cursor.Close(ctx)

	docs := make([]Document, 0)
	for cursor.Next(ctx) {
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return nil, base.NewError(base.KindQuery, "Find", "failed to decode document", err)
		}
		docs = append(docs, toDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, base.NewError(base.KindQuery, "Find", "cursor error", err)
	}

	return FindResult{Documents: docs}, nil
}

func (p *Proxy) insert(ctx context.Context, coll *mongo.Collection, r InsertRequest) (Result, error) {
	res, err := coll.InsertOne(ctx, r.Document)
	if err != nil {
		return nil, base.NewError(base.KindWrite, "Insert", "insert failed", err)
	}
	return InsertResult{InsertedID: displayID(res.InsertedID)}, nil
}

func (p *Proxy) update(ctx context.Context, coll *mongo.Collection, r UpdateRequest) (Result, error) {
	res, err := coll.UpdateMany(ctx, r.Filter, r.Update)
	if err != nil {
		return nil, base.NewError(base.KindWrite, "Update", "update failed", err)
	}
	return UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (p *Proxy) delete(ctx context.Context, coll *mongo.Collection, r DeleteRequest) (Result, error) {
	res, err := coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: r.ID}})
	if err != nil {
		return nil, base.NewError(base.KindWrite, "Delete", "delete failed", err)
	}
	return DeleteResult{DeletedCount: res.DeletedCount}, nil
}
