package search

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"example.com/campus/services/events/config"
	"example.com/campus/services/events/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ElasticClient provides integration with Elasticsearch
type ElasticClient struct {
	client  *elasticsearch.Client
	config  config.ElasticConfig
	enabled bool
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	if !cfg.Enabled {
		return &ElasticClient{enabled: false}, nil
	}

	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client:  client,
		config:  cfg,
		enabled: true,
	}, nil
}

// Enabled reports whether the search index is live. When false, callers fall
// back to database-side filtering.
func (c *ElasticClient) Enabled() bool {
	return c.enabled
}

// IndexEvent indexes an event in Elasticsearch
func (c *ElasticClient) IndexEvent(ctx context.Context, event *models.Event) error {
	if !c.enabled {
		return nil
	}

	log.Info().Str("event_id", event.ID.String()).Msg("indexing event")

	tagNames := make([]string, 0, len(event.Tags))
	for _, tag := range event.Tags {
		tagNames = append(tagNames, tag.Name)
	}

	// Build the document to be indexed
	eventDoc := map[string]interface{}{
		"id":          event.ID.String(),
		"title":       event.Title,
		"description": event.Description,
		"location":    event.Location,
		"room":        event.Room,
		"date":        event.Date,
		"start_time":  event.StartTime,
		"end_time":    event.EndTime,
		"tags":        tagNames,
		"created_by":  event.CreatedBy.String(),
	}

	docJson, err := json.Marshal(eventDoc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event document")
	}

	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: event.ID.String(),
		Body:       bytes.NewReader(docJson),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return errors.Errorf("Elasticsearch index error: %v", e)
	}

	log.Info().Str("event_id", event.ID.String()).Msg("event indexed successfully")
	return nil
}

// DeleteEvent removes an event from the index
func (c *ElasticClient) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if !c.enabled {
		return nil
	}

	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.DeleteRequest{
		Index:      indexName,
		DocumentID: id.String(),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch delete request")
	}
	defer res.Body.Close()

	// 404 means the document was never indexed, which is fine
	if res.IsError() && res.StatusCode != 404 {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return errors.Errorf("Elasticsearch delete error: %v", e)
	}

	return nil
}

// SearchEvents runs a free-text query over title, description, location and
// tags and returns the matching event ids.
func (c *ElasticClient) SearchEvents(ctx context.Context, query string) ([]uuid.UUID, error) {
	if !c.enabled {
		return nil, errors.New("search is disabled")
	}

	body := map[string]interface{}{
		"size":    500,
		"_source": []string{"id"},
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^3", "tags^2", "description", "location", "room"},
			},
		},
	}

	queryJSON, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return nil, errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return nil, errors.Errorf("Elasticsearch search error: %v", e)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	hits, ok := result["hits"].(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected search result format")
	}

	hitsArray, ok := hits["hits"].([]interface{})
	if !ok {
		return nil, errors.New("unexpected hits format")
	}

	// Always return a non-nil slice so callers can distinguish "no matches"
	// from "search unavailable".
	ids := make([]uuid.UUID, 0, len(hitsArray))
	for _, hit := range hitsArray {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}

		rawID, ok := hitMap["_id"].(string)
		if !ok {
			continue
		}

		id, err := uuid.Parse(strings.TrimSpace(rawID))
		if err != nil {
			log.Warn().Str("doc_id", rawID).Msg("skipping non-uuid document id in search results")
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}
