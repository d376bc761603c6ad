// File: internal/platform/elasticsearch/index.go
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const StylistsIndexName = "stylists"

// defineStylistsMapping returns the JSON string for the stylists index mapping.
func defineStylistsMapping() (string, error) {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"business_name": map[string]interface{}{
					"type":   "text",
					"fields": map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256}},
				},
				"slug":         map[string]interface{}{"type": "keyword"},
				"description":  map[string]interface{}{"type": "text"},
				"services":     map[string]interface{}{"type": "keyword"},
				"city":         map[string]interface{}{"type": "keyword"},
				"state":        map[string]interface{}{"type": "keyword"},
				"stylist_id":   map[string]interface{}{"type": "keyword"},
				"status":       map[string]interface{}{"type": "keyword"},
				"is_approved":  map[string]interface{}{"type": "boolean"},
				"published_at": map[string]interface{}{"type": "date"},
				"created_at":   map[string]interface{}{"type": "date"},
				"updated_at":   map[string]interface{}{"type": "date"},
			},
		},
	}
	mappingBytes, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("error marshalling stylists mapping to JSON: %w", err)
	}
	return string(mappingBytes), nil
}

// CreateStylistsIndexIfNotExists creates the stylists index with the defined
// mapping when it is missing. Safe to call on every startup.
func CreateStylistsIndexIfNotExists(client *ESClientWrapper, logger *zap.Logger) error {
	if client == nil {
		return nil
	}

	existsRes, err := esapi.IndicesExistsRequest{Index: []string{StylistsIndexName}}.
		Do(context.Background(), client.Client)
	if err != nil {
		return fmt.Errorf("checking stylists index existence: %w", err)
	}
	defer existsRes.Body.Close()

	if existsRes.StatusCode == 200 {
		logger.Debug("Stylists index already exists", zap.String("index", StylistsIndexName))
		return nil
	}
	if existsRes.StatusCode != 404 {
		return fmt.Errorf("unexpected status checking stylists index: %s", existsRes.Status())
	}

	mapping, err := defineStylistsMapping()
	if err != nil {
		return err
	}

	createRes, err := esapi.IndicesCreateRequest{
		Index: StylistsIndexName,
		Body:  strings.NewReader(mapping),
	}.Do(context.Background(), client.Client)
	if err != nil {
		return fmt.Errorf("creating stylists index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("error creating stylists index: %s", createRes.Status())
	}

	logger.Info("Stylists index created", zap.String("index", StylistsIndexName))
	return nil
}

// IndexDocument indexes (or replaces) a single document.
func IndexDocument(ctx context.Context, client *ESClientWrapper, index, id string, doc interface{}) error {
	if client == nil {
		return nil
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshalling document %s: %w", id, err)
	}
	res, err := esapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
	}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("indexing document %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("indexing document %s: %s", id, res.Status())
	}
	return nil
}

// Search runs a query body against an index and returns the raw response.
func (w *ESClientWrapper) Search(ctx context.Context, index, body string) ([]byte, error) {
	res, err := esapi.SearchRequest{
		Index: []string{index},
		Body:  strings.NewReader(body),
	}.Do(ctx, w.Client)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("searching %s: %s", index, res.Status())
	}
	return io.ReadAll(res.Body)
}

// DeleteDocument removes a single document, ignoring 404s.
func DeleteDocument(ctx context.Context, client *ESClientWrapper, index, id string) error {
	if client == nil {
		return nil
	}
	res, err := esapi.DeleteRequest{Index: index, DocumentID: id}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("deleting document %s: %s", id, res.Status())
	}
	return nil
}
