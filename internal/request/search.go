// File: internal/request/search.go
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"magic_broom_backend/internal/platform/elasticsearch"
)

// SearchService mirrors cleaning requests into Elasticsearch and serves the
// cleaner-side location search. All methods are safe on a nil client:
// indexing becomes a no-op and Search reports the feature as unavailable.
type SearchService struct {
	es     *elasticsearch.ESClientWrapper
	logger *zap.Logger
}

// NewSearchService creates a search service. es may be nil.
func NewSearchService(es *elasticsearch.ESClientWrapper, logger *zap.Logger) *SearchService {
	return &SearchService{es: es, logger: logger}
}

// Enabled reports whether search is configured.
func (s *SearchService) Enabled() bool {
	return s != nil && s.es != nil
}

func toSearchDoc(req *CleaningRequest) map[string]interface{} {
	doc := map[string]interface{}{
		"location":         req.Location,
		"additional_notes": req.AdditionalNotes,
		"date":             req.Date,
		"time":             req.Time,
		"status":           string(req.Status),
		"user_id":          req.UserID.String(),
		"user_email":       req.UserEmail,
		"created_at":       req.CreatedAt,
		"updated_at":       req.UpdatedAt,
	}
	if req.CleanerID != nil {
		doc["cleaner_id"] = req.CleanerID.String()
	}
	return doc
}

// SearchDocJSON renders the request's search document as JSON. Used by the
// index rebuild command to assemble bulk request bodies.
func SearchDocJSON(req *CleaningRequest) (string, error) {
	body, err := json.Marshal(toSearchDoc(req))
	if err != nil {
		return "", fmt.Errorf("marshalling search document: %w", err)
	}
	return string(body), nil
}

// Index upserts the request document. Best effort: failures are logged.
func (s *SearchService) Index(ctx context.Context, req *CleaningRequest) {
	if !s.Enabled() {
		return
	}

	body, err := json.Marshal(toSearchDoc(req))
	if err != nil {
		s.logger.Warn("Failed to marshal request for indexing", zap.Error(err), zap.String("requestID", req.ID.String()))
		return
	}

	indexReq := esapi.IndexRequest{
		Index:      elasticsearch.CleaningRequestsIndexName,
		DocumentID: req.ID.String(),
		Body:       bytes.NewReader(body),
	}
	res, err := indexReq.Do(ctx, s.es.Client)
	if err != nil {
		s.logger.Warn("Failed to index cleaning request", zap.Error(err), zap.String("requestID", req.ID.String()))
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		s.logger.Warn("Indexing cleaning request returned error status",
			zap.String("status", res.Status()), zap.String("requestID", req.ID.String()))
	}
}

// Delete removes the request document. Best effort.
func (s *SearchService) Delete(ctx context.Context, id uuid.UUID) {
	if !s.Enabled() {
		return
	}

	delReq := esapi.DeleteRequest{
		Index:      elasticsearch.CleaningRequestsIndexName,
		DocumentID: id.String(),
	}
	res, err := delReq.Do(ctx, s.es.Client)
	if err != nil {
		s.logger.Warn("Failed to delete cleaning request from index", zap.Error(err), zap.String("requestID", id.String()))
		return
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		s.logger.Warn("Deleting cleaning request from index returned error status",
			zap.String("status", res.Status()), zap.String("requestID", id.String()))
	}
}

// SearchPendingIDs runs a match query over location and notes, filtered to
// pending requests, and returns the matching document IDs in rank order.
func (s *SearchService) SearchPendingIDs(ctx context.Context, query string, size int) ([]uuid.UUID, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("search is not configured")
	}
	if size <= 0 {
		size = 50
	}

	searchBody := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  query,
						"fields": []string{"location^2", "additional_notes"},
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"status": string(StatusPending)},
				},
			},
		},
	}
	body, err := json.Marshal(searchBody)
	if err != nil {
		return nil, fmt.Errorf("marshalling search query: %w", err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(elasticsearch.CleaningRequestsIndexName),
		s.es.Search.WithBody(strings.NewReader(string(body))),
	)
	if err != nil {
		return nil, fmt.Errorf("executing search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search returned status %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			s.logger.Warn("Search hit with non-UUID document ID", zap.String("docID", hit.ID))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
