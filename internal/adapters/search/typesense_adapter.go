package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/repositories"
	tsclient "github.com/geosight/dashboard/internal/infrastructure/clients/typesense"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

// PlaceIndexAdapter implements PlaceIndex on Typesense
type PlaceIndexAdapter struct {
	client *tsclient.Client
}

// Ensure PlaceIndexAdapter implements PlaceIndex
var _ repositories.PlaceIndex = (*PlaceIndexAdapter)(nil)

// NewPlaceIndexAdapter creates a new Typesense place index
func NewPlaceIndexAdapter(client *tsclient.Client) *PlaceIndexAdapter {
	return &PlaceIndexAdapter{client: client}
}

// Upsert writes places into the index one document at a time
func (a *PlaceIndexAdapter) Upsert(ctx context.Context, places []entities.GazetteerPlace) error {
	for _, p := range places {
		document := map[string]interface{}{
			"id":         p.ID,
			"name":       p.Name,
			"type":       p.Type,
			"population": p.Population,
			"location":   []float64{p.Location.Latitude, p.Location.Longitude},
		}
		if len(p.AltNames) > 0 {
			document["alt_names"] = p.AltNames
		}
		if p.Code != "" {
			document["code"] = p.Code
		}

		if _, err := a.client.Client().Collection(tsclient.PlacesCollection).Documents().Upsert(ctx, document); err != nil {
			return fmt.Errorf("failed to index place %s: %w", p.ID, err)
		}
	}
	return nil
}

// Search returns the hit whose name is closest to term, scored by trigram
// similarity. Ties keep the index order, most populous first.
func (a *PlaceIndexAdapter) Search(ctx context.Context, term string) (*entities.GazetteerMatch, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperrors.NewValidationError("term is required")
	}
	if strings.Contains(term, ",") {
		return nil, apperrors.NewNotFoundError("qualified place names are not in the index")
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(term),
		QueryBy: pointer.String("name,alt_names,code"),
		SortBy:  pointer.String("_text_match:desc,population:desc"),
		PerPage: pointer.Int(5),
	}

	result, err := a.client.Client().Collection(tsclient.PlacesCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, apperrors.NewExternalError("place index search failed", err)
	}
	if result.Hits == nil {
		return nil, apperrors.NewNotFoundError("no index match for " + term)
	}

	var best *entities.GazetteerMatch
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		place := placeFromDocument(*hit.Document)
		score := bestSimilarity(term, place)
		if best == nil || score > best.Score {
			best = &entities.GazetteerMatch{Place: place, Score: score}
		}
	}
	if best == nil || best.Score <= MinSimilarity {
		return nil, apperrors.NewNotFoundError("no index match for " + term)
	}
	return best, nil
}

func placeFromDocument(doc map[string]interface{}) entities.GazetteerPlace {
	place := entities.GazetteerPlace{}
	place.ID, _ = doc["id"].(string)
	place.Name, _ = doc["name"].(string)
	place.Type, _ = doc["type"].(string)
	place.Code, _ = doc["code"].(string)
	if v, ok := doc["population"].(float64); ok {
		place.Population = int64(v)
	}
	if loc, ok := doc["location"].([]interface{}); ok && len(loc) == 2 {
		place.Location.Latitude, _ = loc[0].(float64)
		place.Location.Longitude, _ = loc[1].(float64)
	}
	if names, ok := doc["alt_names"].([]interface{}); ok {
		for _, n := range names {
			if s, ok := n.(string); ok {
				place.AltNames = append(place.AltNames, s)
			}
		}
	}
	return place
}

// bestSimilarity scores term against the place name and its alternates. An
// exact alternate or code match scores 1.
func bestSimilarity(term string, place entities.GazetteerPlace) float64 {
	if place.Code != "" && strings.EqualFold(term, place.Code) {
		return 1
	}
	for _, alt := range place.AltNames {
		if strings.EqualFold(term, alt) {
			return 1
		}
	}
	return Similarity(term, place.Name)
}
