package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a collection or point does not exist.
var ErrNotFound = errors.New("not found")

// ErrNotConnected is returned when a call is made before Connect succeeds.
var ErrNotConnected = errors.New("not connected to Qdrant")

// Cursor is the opaque pagination token returned by Scroll. Qdrant emits
// either a string or an integer offset depending on the point ID type, so it
// is kept as raw JSON. A nil cursor means "start from the beginning" on input
// and "no more pages" on output.
type Cursor = json.RawMessage

// Client talks to the Qdrant REST API.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *logrus.Logger
	mu         sync.RWMutex
	connected  bool
}

// NewClient creates a Qdrant client from the given configuration.
func NewClient(config *Config, logger *logrus.Logger) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}, nil
}

// Connect verifies connectivity to Qdrant.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.healthCheckLocked(ctx); err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	c.connected = true
	c.logger.WithField("url", c.config.GetHTTPURL()).Info("Connected to Qdrant")
	return nil
}

// Close releases the connection state.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return nil
}

// IsConnected reports whether Connect has succeeded.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// HealthCheck probes the Qdrant instance.
func (c *Client) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthCheckLocked(ctx)
}

func (c *Client) healthCheckLocked(ctx context.Context) error {
	// The root endpoint works across Qdrant versions; 1.16+ dropped /health.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.GetHTTPURL(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.config.APIKey != "" {
		req.Header.Set("api-key", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy status: %d", resp.StatusCode)
	}

	return nil
}

// doRequest issues one API call, retrying transient failures (network
// errors and 5xx responses) up to MaxRetries additional attempts with
// RetryDelay between them. 4xx responses are never retried.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	url := fmt.Sprintf("%s%s", c.config.GetHTTPURL(), path)

	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
			c.logger.WithFields(logrus.Fields{
				"path":    path,
				"attempt": attempt,
			}).Debug("Retrying request")
		}

		respBody, retryable, err := c.attemptRequest(ctx, method, url, path, jsonBody)
		if err == nil {
			return respBody, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

func (c *Client) attemptRequest(ctx context.Context, method, url, path string, jsonBody []byte) (respBody []byte, retryable bool, err error) {
	var reqBody io.Reader
	if jsonBody != nil {
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("api-key", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}
	if resp.StatusCode >= 400 {
		return nil, false, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, false, nil
}

// CollectionInfo describes a collection's status and size.
type CollectionInfo struct {
	Name          string `json:"name"`
	Status        string `json:"status"`
	VectorCount   int64  `json:"vectors_count"`
	PointsCount   int64  `json:"points_count"`
	SegmentsCount int    `json:"segments_count"`
}

// Point is a payload-bearing record in a collection.
type Point struct {
	ID      string                 `json:"id"`
	Vector  []float32              `json:"vector,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ScoredPoint is a search result with its similarity score.
type ScoredPoint struct {
	ID      string                 `json:"id"`
	Version int                    `json:"version"`
	Score   float32                `json:"score"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Vector  []float32              `json:"vector,omitempty"`
}

// CreateCollection creates a new vector collection.
func (c *Client) CreateCollection(ctx context.Context, config *CollectionConfig) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return ErrNotConnected
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid collection config: %w", err)
	}

	reqBody := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     config.VectorSize,
			"distance": string(config.Distance),
		},
	}

	if config.OnDiskPayload {
		reqBody["on_disk_payload"] = true
	}

	if config.IndexingThreshold > 0 {
		reqBody["optimizers_config"] = map[string]interface{}{
			"indexing_threshold": config.IndexingThreshold,
		}
	}

	if config.ShardNumber > 1 {
		reqBody["shard_number"] = config.ShardNumber
	}

	if config.ReplicationFactor > 1 {
		reqBody["replication_factor"] = config.ReplicationFactor
	}

	path := fmt.Sprintf("/collections/%s", config.Name)
	if _, err := c.doRequest(ctx, http.MethodPut, path, reqBody); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	c.logger.WithField("collection", config.Name).Info("Collection created")
	return nil
}

// DeleteCollection deletes a collection.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return ErrNotConnected
	}

	path := fmt.Sprintf("/collections/%s", name)
	if _, err := c.doRequest(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	c.logger.WithField("collection", name).Info("Collection deleted")
	return nil
}

// CollectionExists checks whether a collection exists.
func (c *Client) CollectionExists(ctx context.Context, name string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return false, ErrNotConnected
	}

	path := fmt.Sprintf("/collections/%s", name)
	_, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListCollections returns the names of all collections.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return nil, ErrNotConnected
	}

	respBody, err := c.doRequest(ctx, http.MethodGet, "/collections", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	var response struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}

	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	names := make([]string, len(response.Result.Collections))
	for i, col := range response.Result.Collections {
		names[i] = col.Name
	}

	return names, nil
}

// GetCollectionInfo returns size and status information for a collection.
func (c *Client) GetCollectionInfo(ctx context.Context, name string) (*CollectionInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return nil, ErrNotConnected
	}

	path := fmt.Sprintf("/collections/%s", name)
	respBody, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection info: %w", err)
	}

	var response struct {
		Result struct {
			Status        string `json:"status"`
			VectorsCount  int64  `json:"vectors_count"`
			PointsCount   int64  `json:"points_count"`
			SegmentsCount int    `json:"segments_count"`
		} `json:"result"`
	}

	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &CollectionInfo{
		Name:          name,
		Status:        response.Result.Status,
		VectorCount:   response.Result.VectorsCount,
		PointsCount:   response.Result.PointsCount,
		SegmentsCount: response.Result.SegmentsCount,
	}, nil
}

// UpsertPoints inserts or updates points in a collection.
func (c *Client) UpsertPoints(ctx context.Context, collection string, points []Point) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return ErrNotConnected
	}

	if len(points) == 0 {
		return nil
	}

	for i := range points {
		if points[i].ID == "" {
			points[i].ID = uuid.New().String()
		}
	}

	reqBody := map[string]interface{}{
		"points": points,
	}

	path := fmt.Sprintf("/collections/%s/points", collection)
	if _, err := c.doRequest(ctx, http.MethodPut, path, reqBody); err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"collection": collection,
		"count":      len(points),
	}).Debug("Points upserted")

	return nil
}

// Search performs a vector similarity search.
func (c *Client) Search(ctx context.Context, collection string, vector []float32, opts *SearchOptions) ([]ScoredPoint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return nil, ErrNotConnected
	}

	if opts == nil {
		opts = DefaultSearchOptions()
	}

	reqBody := map[string]interface{}{
		"vector":       vector,
		"limit":        opts.Limit,
		"offset":       opts.Offset,
		"with_payload": opts.WithPayload,
		"with_vector":  opts.WithVectors,
	}

	if opts.ScoreThreshold > 0 {
		reqBody["score_threshold"] = opts.ScoreThreshold
	}

	if opts.Filter != nil {
		reqBody["filter"] = opts.Filter
	}

	path := fmt.Sprintf("/collections/%s/points/search", collection)
	respBody, err := c.doRequest(ctx, http.MethodPost, path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var response struct {
		Result []ScoredPoint `json:"result"`
	}

	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return response.Result, nil
}

// Scroll retrieves one page of points. Pass a nil cursor to start from the
// beginning; a nil returned cursor means the collection is exhausted.
// Vectors are never requested, only payloads.
func (c *Client) Scroll(ctx context.Context, collection string, limit int, offset Cursor, filter map[string]interface{}) ([]Point, Cursor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return nil, nil, ErrNotConnected
	}

	if limit <= 0 {
		limit = c.config.DefaultLimit
	}

	reqBody := map[string]interface{}{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}

	if len(offset) > 0 {
		reqBody["offset"] = offset
	}

	if filter != nil {
		reqBody["filter"] = filter
	}

	path := fmt.Sprintf("/collections/%s/points/scroll", collection)
	respBody, err := c.doRequest(ctx, http.MethodPost, path, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scroll points: %w", err)
	}

	var response struct {
		Result struct {
			NextPageOffset json.RawMessage `json:"next_page_offset"`
			Points         []struct {
				ID      json.RawMessage        `json:"id"`
				Payload map[string]interface{} `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}

	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, nil, fmt.Errorf("failed to parse response: %w", err)
	}

	points := make([]Point, len(response.Result.Points))
	for i, r := range response.Result.Points {
		points[i] = Point{
			ID:      rawIDToString(r.ID),
			Payload: r.Payload,
		}
	}

	next := response.Result.NextPageOffset
	if string(next) == "null" {
		next = nil
	}

	return points, Cursor(next), nil
}

// CountPoints returns the exact number of points matching the filter.
func (c *Client) CountPoints(ctx context.Context, collection string, filter map[string]interface{}) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return 0, ErrNotConnected
	}

	reqBody := map[string]interface{}{
		"exact": true,
	}

	if filter != nil {
		reqBody["filter"] = filter
	}

	path := fmt.Sprintf("/collections/%s/points/count", collection)
	respBody, err := c.doRequest(ctx, http.MethodPost, path, reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}

	var response struct {
		Result struct {
			Count int64 `json:"count"`
		} `json:"result"`
	}

	if err := json.Unmarshal(respBody, &response); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	return response.Result.Count, nil
}

// WaitForCollection polls until the collection reports green status.
func (c *Client) WaitForCollection(ctx context.Context, collection string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if time.Now().After(deadline) {
				return fmt.Errorf("timeout waiting for collection %s to be ready", collection)
			}

			info, err := c.GetCollectionInfo(ctx, collection)
			if err != nil {
				c.logger.WithError(err).Debug("Collection not ready yet")
				continue
			}

			if info.Status == "green" {
				return nil
			}
		}
	}
}

// rawIDToString normalizes a point ID, which Qdrant serves as either a JSON
// string or a number.
func rawIDToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
