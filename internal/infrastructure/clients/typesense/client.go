package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/geosight/dashboard/pkg/config"
	"github.com/geosight/dashboard/pkg/retry"
	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

// PlacesCollection holds the searchable copy of the gazetteer
const PlacesCollection = "places"

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	err := retry.DoWithLog(
		context.Background(),
		retry.DefaultConfig(),
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", nextDelay).Msg("Typesense connection attempt failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("Connected to Typesense")
	return &Client{client: client}, nil
}

// NewFromTypesense wraps an already configured Typesense client
func NewFromTypesense(client *typesense.Client) *Client {
	return &Client{client: client}
}

// Ping reports an error unless the node says it is healthy
func (c *Client) Ping(ctx context.Context) error {
	healthy, err := c.client.Health(ctx, 2*time.Second)
	if err != nil {
		return err
	}
	if !healthy {
		return fmt.Errorf("typesense reports unhealthy")
	}
	return nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// PlacesSchema describes the places collection
func PlacesSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: PlacesCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "alt_names", Type: "string[]", Optional: pointer.True()},
			{Name: "type", Type: "string", Facet: pointer.True()},
			{Name: "code", Type: "string", Optional: pointer.True()},
			{Name: "population", Type: "int64"},
			{Name: "location", Type: "geopoint"},
		},
		DefaultSortingField: pointer.String("population"),
	}
}

// InitSchema ensures the places collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == PlacesCollection {
			return nil
		}
	}

	if _, err := c.client.Collections().Create(ctx, PlacesSchema()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", PlacesCollection).Msg("Created Typesense collection")
	return nil
}

// ResetSchema drops and recreates the places collection
func (c *Client) ResetSchema(ctx context.Context) error {
	if _, err := c.client.Collection(PlacesCollection).Delete(ctx); err != nil {
		log.Warn().Err(err).Msg("Could not drop places collection, creating anyway")
	}
	return c.InitSchema(ctx)
}
