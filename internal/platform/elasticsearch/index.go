package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const CleaningRequestsIndexName = "cleaning_requests"

// defineCleaningRequestsMapping returns the JSON string for the cleaning
// requests index mapping.
func defineCleaningRequestsMapping() (string, error) {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"location":         map[string]interface{}{"type": "text", "fields": map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256}}},
				"additional_notes": map[string]interface{}{"type": "text"},
				"date":             map[string]interface{}{"type": "keyword"},
				"time":             map[string]interface{}{"type": "keyword"},
				"status":           map[string]interface{}{"type": "keyword"},
				"user_id":          map[string]interface{}{"type": "keyword"},
				"user_email":       map[string]interface{}{"type": "keyword"},
				"cleaner_id":       map[string]interface{}{"type": "keyword"},
				"created_at":       map[string]interface{}{"type": "date"},
				"updated_at":       map[string]interface{}{"type": "date"},
			},
		},
	}
	mappingBytes, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("error marshalling cleaning requests mapping to JSON: %w", err)
	}
	return string(mappingBytes), nil
}

// CreateCleaningRequestsIndexIfNotExists creates the cleaning requests index
// with the defined mapping if it does not already exist. A nil client is a
// no-op (search disabled).
func CreateCleaningRequestsIndexIfNotExists(client *ESClientWrapper, logger *zap.Logger) error {
	if client == nil {
		return nil
	}

	ctx := context.Background()
	log := logger.Named("elasticsearch_index_setup")

	req := esapi.IndicesExistsRequest{
		Index: []string{CleaningRequestsIndexName},
	}
	res, err := req.Do(ctx, client.Client)
	if err != nil {
		log.Error("Error checking if cleaning requests index exists", zap.Error(err))
		return fmt.Errorf("error checking if cleaning requests index exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		log.Info("Cleaning requests index already exists", zap.String("index_name", CleaningRequestsIndexName))
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Error("Unexpected status checking if cleaning requests index exists",
			zap.String("status", res.Status()),
			zap.String("index_name", CleaningRequestsIndexName),
		)
		return fmt.Errorf("error checking if cleaning requests index exists: status %s", res.Status())
	}

	mappingJSON, err := defineCleaningRequestsMapping()
	if err != nil {
		log.Error("Failed to define cleaning requests mapping", zap.Error(err))
		return err
	}

	createReq := esapi.IndicesCreateRequest{
		Index: CleaningRequestsIndexName,
		Body:  strings.NewReader(mappingJSON),
	}
	createRes, err := createReq.Do(ctx, client.Client)
	if err != nil {
		log.Error("Error creating cleaning requests index", zap.Error(err), zap.String("index_name", CleaningRequestsIndexName))
		return fmt.Errorf("error creating cleaning requests index %s: %w", CleaningRequestsIndexName, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		var errorBody map[string]interface{}
		if err := json.NewDecoder(createRes.Body).Decode(&errorBody); err != nil {
			log.Error("Failed to parse index creation error response body", zap.Error(err), zap.String("status", createRes.Status()))
		} else {
			log.Error("Failed to create cleaning requests index",
				zap.String("status", createRes.Status()),
				zap.Any("error_details", errorBody),
				zap.String("index_name", CleaningRequestsIndexName),
			)
		}
		return fmt.Errorf("failed to create cleaning requests index %s: status %s", CleaningRequestsIndexName, createRes.Status())
	}

	log.Info("Cleaning requests index created successfully", zap.String("index_name", CleaningRequestsIndexName))
	return nil
}
