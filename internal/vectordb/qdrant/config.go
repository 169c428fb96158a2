package qdrant

import (
	"fmt"
	"time"
)

// Config holds connection settings for a Qdrant instance. MaxRetries
// counts additional attempts after the first; transient failures (network
// errors and 5xx responses) are retried with RetryDelay between attempts.
type Config struct {
	Host         string        `yaml:"host"`
	HTTPPort     int           `yaml:"http_port"`
	APIKey       string        `yaml:"api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	DefaultLimit int           `yaml:"default_limit"`
}

// DefaultConfig returns a configuration for a local Qdrant instance.
func DefaultConfig() *Config {
	return &Config{
		Host:         "localhost",
		HTTPPort:     6333,
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		RetryDelay:   1 * time.Second,
		DefaultLimit: 10,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be between 1 and 65535")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if c.DefaultLimit < 1 {
		return fmt.Errorf("default_limit must be at least 1")
	}
	return nil
}

// GetHTTPURL returns the base URL for the REST API.
func (c *Config) GetHTTPURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.HTTPPort)
}

// Distance is a vector distance metric.
type Distance string

const (
	DistanceCosine    Distance = "Cosine"
	DistanceEuclid    Distance = "Euclid"
	DistanceDot       Distance = "Dot"
	DistanceManhattan Distance = "Manhattan"
)

// CollectionConfig describes a collection to create.
type CollectionConfig struct {
	Name              string
	VectorSize        int
	Distance          Distance
	OnDiskPayload     bool
	IndexingThreshold int
	ShardNumber       int
	ReplicationFactor int
}

// DefaultCollectionConfig returns a collection config with cosine distance.
func DefaultCollectionConfig(name string, vectorSize int) *CollectionConfig {
	return &CollectionConfig{
		Name:              name,
		VectorSize:        vectorSize,
		Distance:          DistanceCosine,
		IndexingThreshold: 20000,
		ShardNumber:       1,
		ReplicationFactor: 1,
	}
}

// WithDistance sets the distance metric.
func (c *CollectionConfig) WithDistance(d Distance) *CollectionConfig {
	c.Distance = d
	return c
}

// WithOnDiskPayload stores payloads on disk instead of RAM.
func (c *CollectionConfig) WithOnDiskPayload() *CollectionConfig {
	c.OnDiskPayload = true
	return c
}

// WithIndexingThreshold sets the optimizer indexing threshold.
func (c *CollectionConfig) WithIndexingThreshold(n int) *CollectionConfig {
	c.IndexingThreshold = n
	return c
}

// WithShards sets the shard number.
func (c *CollectionConfig) WithShards(n int) *CollectionConfig {
	c.ShardNumber = n
	return c
}

// WithReplication sets the replication factor.
func (c *CollectionConfig) WithReplication(n int) *CollectionConfig {
	c.ReplicationFactor = n
	return c
}

// Validate checks the collection configuration.
func (c *CollectionConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("collection name is required")
	}
	if c.VectorSize < 1 {
		return fmt.Errorf("vector_size must be at least 1")
	}
	switch c.Distance {
	case DistanceCosine, DistanceEuclid, DistanceDot, DistanceManhattan:
	default:
		return fmt.Errorf("invalid distance metric: %s", c.Distance)
	}
	return nil
}

// SearchOptions controls a similarity search.
type SearchOptions struct {
	Limit          int
	Offset         int
	ScoreThreshold float32
	WithPayload    bool
	WithVectors    bool
	Filter         map[string]interface{}
}

// DefaultSearchOptions returns search options with payloads enabled.
func DefaultSearchOptions() *SearchOptions {
	return &SearchOptions{
		Limit:       10,
		WithPayload: true,
	}
}

// WithLimit sets the maximum number of results.
func (o *SearchOptions) WithLimit(n int) *SearchOptions {
	o.Limit = n
	return o
}

// WithOffset sets the result offset.
func (o *SearchOptions) WithOffset(n int) *SearchOptions {
	o.Offset = n
	return o
}

// WithScoreThreshold sets the minimum similarity score.
func (o *SearchOptions) WithScoreThreshold(s float32) *SearchOptions {
	o.ScoreThreshold = s
	return o
}

// WithVectorsEnabled includes vectors in results.
func (o *SearchOptions) WithVectorsEnabled() *SearchOptions {
	o.WithVectors = true
	return o
}

// WithFilter attaches a native Qdrant filter.
func (o *SearchOptions) WithFilter(filter map[string]interface{}) *SearchOptions {
	o.Filter = filter
	return o
}
