package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"trackmatch-go-srv/internal/models"
)

// CatalogTrack is the raw catalog API response item.
type CatalogTrack struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	AlbumTitle string `json:"albumTitle"`
}

// Search queries the catalog for tracks matching the free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]models.Track, error) {
	searchURL := fmt.Sprintf("%s/search?q=%s&type=track", c.BaseURL, url.QueryEscape(query))

	var result struct {
		Tracks []CatalogTrack `json:"tracks"`
	}
	if err := c.getJSON(ctx, searchURL, &result); err != nil {
		return nil, err
	}

	return toTracks(result.Tracks), nil
}

// LookupByIDs fetches full track data for previously returned catalog IDs.
func (c *Client) LookupByIDs(ctx context.Context, ids []string) ([]models.Track, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	lookupURL := fmt.Sprintf("%s/tracks?ids=%s", c.BaseURL, url.QueryEscape(strings.Join(ids, ",")))

	var result struct {
		Tracks []CatalogTrack `json:"tracks"`
	}
	if err := c.getJSON(ctx, lookupURL, &result); err != nil {
		return nil, err
	}

	return toTracks(result.Tracks), nil
}

func (c *Client) getJSON(ctx context.Context, url string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func toTracks(items []CatalogTrack) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, models.Track{
			ID:     item.ID,
			Title:  item.Title,
			Artist: item.Artist,
			Album:  item.AlbumTitle,
		})
	}
	return tracks
}
