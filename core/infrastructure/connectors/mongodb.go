package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongoOptions "go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/hyperterse/hyperbench/core/domain"
)

// mongoBackend runs statements written as JSON database commands, for
// example {"find": "orders", "filter": {"status": "open"}}. A "database"
// key in the command overrides the connector's default database.
type mongoBackend struct {
	uri      string
	database string
	client   *mongo.Client
}

// NewMongoDBConnector creates a MongoDB connector
func NewMongoDBConnector(creds domain.Credentials) *Session {
	return newSession(VendorMongoDB, "", &mongoBackend{
		uri:      creds.String("uri"),
		database: creds.String("database"),
	})
}

func (b *mongoBackend) open(context.Context) error {
	opts := mongoOptions.Client().ApplyURI(b.uri).SetMaxPoolSize(1)
	client, err := mongo.Connect(opts)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	b.client = client
	return nil
}

func (b *mongoBackend) ping(ctx context.Context) error {
	return b.client.Ping(ctx, readpref.Primary())
}

func (b *mongoBackend) disableCache(context.Context) error {
	return nil
}

func (b *mongoBackend) cleanup(context.Context) error {
	return nil
}

func (b *mongoBackend) close() error {
	if b.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := b.client.Disconnect(ctx)
	b.client = nil
	return err
}

func (b *mongoBackend) query(ctx context.Context, statement string, params map[string]any) ([]map[string]any, error) {
	if b.client == nil {
		return nil, fmt.Errorf("mongodb connection is closed")
	}

	for key, value := range params {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("param %q is not JSON encodable: %w", key, err)
		}
		statement = strings.ReplaceAll(statement, `"{{ params.`+key+` }}"`, string(raw))
	}

	dbName, command, err := parseCommand(statement, b.database)
	if err != nil {
		return nil, err
	}
	db := b.client.Database(dbName)

	if returnsCursor(command) {
		cursor, err := db.RunCommandCursor(ctx, command)
		if err != nil {
			return nil, fmt.Errorf("mongodb command failed: %w", err)
		}
		defer cursor.Close(ctx)

		results := make([]map[string]any, 0)
		for cursor.Next(ctx) {
			var doc bson.M
			if err := cursor.Decode(&doc); err != nil {
				return nil, fmt.Errorf("mongodb decode failed: %w", err)
			}
			results = append(results, bsonMToMap(doc))
		}
		if err := cursor.Err(); err != nil {
			return nil, fmt.Errorf("mongodb cursor error: %w", err)
		}
		return results, nil
	}

	var result bson.M
	if err := db.RunCommand(ctx, command).Decode(&result); err != nil {
		return nil, fmt.Errorf("mongodb command failed: %w", err)
	}

	cleanResult := make(map[string]any)
	for k, v := range result {
		if k != "ok" && k != "operationTime" && k != "$clusterTime" && k != "$db" {
			cleanResult[k] = bsonValueToAny(v)
		}
	}
	return []map[string]any{cleanResult}, nil
}

// parseCommand decodes an Extended JSON command, keeping key order so
// that the command name stays first, and strips the "database" key
func parseCommand(statement, defaultDB string) (string, bson.D, error) {
	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(statement), false, &doc); err != nil {
		return "", nil, fmt.Errorf("mongodb statement must be valid JSON: %w", err)
	}

	dbName := defaultDB
	command := make(bson.D, 0, len(doc))
	for _, elem := range doc {
		if elem.Key == "database" {
			if name, ok := elem.Value.(string); ok {
				dbName = name
				continue
			}
		}
		command = append(command, elem)
	}

	if dbName == "" {
		return "", nil, fmt.Errorf("mongodb command must include 'database' field")
	}
	if len(command) == 0 {
		return "", nil, fmt.Errorf("mongodb command is empty")
	}
	return dbName, command, nil
}

// returnsCursor reports commands answered with a cursor batch
func returnsCursor(command bson.D) bool {
	switch command[0].Key {
	case "find", "aggregate", "listCollections", "listIndexes":
		return true
	}
	return false
}

func bsonMToMap(doc bson.M) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = bsonValueToAny(v)
	}
	return out
}

func bsonValueToAny(v any) any {
	switch val := v.(type) {
	case bson.M:
		return bsonMToMap(val)
	case bson.D:
		return bsonDToMap(val)
	case bson.A:
		arr := make([]any, len(val))
		for i, item := range val {
			arr[i] = bsonValueToAny(item)
		}
		return arr
	case bson.ObjectID:
		return val.Hex()
	case bson.DateTime:
		return val.Time()
	case bson.Decimal128:
		return val.String()
	default:
		return v
	}
}

func bsonDToMap(doc bson.D) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for _, elem := range doc {
		out[elem.Key] = bsonValueToAny(elem.Value)
	}
	return out
}
