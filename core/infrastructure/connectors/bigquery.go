package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/hyperterse/hyperbench/core/domain"
)

// bigQueryBackend runs every statement as a query job with the result
// cache disabled on the job itself.
type bigQueryBackend struct {
	projectID string
	dataset   string
	keyJSON   []byte
	keyFile   string

	client *bigquery.Client
}

// NewBigQueryConnector creates a Google BigQuery connector. The key may be
// a service account JSON object, its JSON text, or a path to a key file.
func NewBigQueryConnector(creds domain.Credentials) *Session {
	b := &bigQueryBackend{
		projectID: creds.String("project_id"),
		dataset:   creds.String("dataset"),
		keyFile:   creds.String("key_file"),
	}

	if key, ok := creds.Map("key"); ok {
		b.keyJSON, _ = json.Marshal(key)
	} else if raw := strings.TrimSpace(creds.String("key")); raw != "" {
		if strings.HasPrefix(raw, "{") {
			b.keyJSON = []byte(raw)
		} else {
			b.keyFile = raw
		}
	}

	return newSession(VendorBigQuery, "", b)
}

func (b *bigQueryBackend) open(ctx context.Context) error {
	var opts []option.ClientOption
	switch {
	case len(b.keyJSON) > 0:
		opts = append(opts, option.WithCredentialsJSON(b.keyJSON))
	case b.keyFile != "":
		opts = append(opts, option.WithCredentialsFile(b.keyFile))
	}

	client, err := bigquery.NewClient(ctx, b.projectID, opts...)
	if err != nil {
		return err
	}
	b.client = client
	return nil
}

func (b *bigQueryBackend) ping(ctx context.Context) error {
	_, err := b.query(ctx, "SELECT 1 AS connection_test", nil)
	return err
}

// disableCache is a no-op: caching is disabled per query job
func (b *bigQueryBackend) disableCache(context.Context) error {
	return nil
}

func (b *bigQueryBackend) query(ctx context.Context, statement string, params map[string]any) ([]map[string]any, error) {
	if b.client == nil {
		return nil, errors.New("bigquery client is closed")
	}

	q := b.client.Query(statement)
	q.DisableQueryCache = true
	q.DefaultProjectID = b.projectID
	q.DefaultDatasetID = b.dataset
	for name, value := range params {
		q.Parameters = append(q.Parameters, bigquery.QueryParameter{Name: name, Value: value})
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]map[string]any, 0)
	for {
		var row map[string]bigquery.Value
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating rows: %w", err)
		}
		rowMap := make(map[string]any, len(row))
		for col, v := range row {
			rowMap[col] = v
		}
		results = append(results, rowMap)
	}
	return results, nil
}

func (b *bigQueryBackend) cleanup(context.Context) error {
	return nil
}

func (b *bigQueryBackend) close() error {
	if b.client == nil {
		return nil
	}
	err := b.client.Close()
	b.client = nil
	return err
}
