package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"

	"trackmatch-go-srv/internal/models"
)

type SpotifyParser struct {
	client *spotify.Client
}

func NewSpotifyParser(client *spotify.Client) *SpotifyParser {
	return &SpotifyParser{client: client}
}

// Parse resolves a Spotify playlist, album or track URL into target tracks.
func (p *SpotifyParser) Parse(ctx context.Context, url string) ([]models.Track, string, error) {
	id, mediaType, err := p.parseURL(url)
	if err != nil {
		return nil, "", fmt.Errorf("spotify parse url: %w", err)
	}

	switch mediaType {
	case "playlist":
		return p.handlePlaylist(ctx, id)
	case "album":
		return p.handleAlbum(ctx, id)
	case "track":
		return p.handleTrack(ctx, id)
	default:
		return nil, "", fmt.Errorf("unsupported spotify type: %s", mediaType)
	}
}

func (p *SpotifyParser) handlePlaylist(ctx context.Context, id spotify.ID) ([]models.Track, string, error) {
	res, err := p.client.GetPlaylist(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("get playlist: %w", err)
	}

	var tracks []models.Track
	trackPage := res.Tracks
	for {
		for _, item := range trackPage.Tracks {
			if item.Track.ID != "" && !item.IsLocal {
				tracks = append(tracks, p.transform(item.Track))
			}
		}

		err = p.client.NextPage(ctx, &trackPage)
		if err == spotify.ErrNoMorePages {
			break
		}
		if err != nil {
			return tracks, res.Name, fmt.Errorf("playlist pagination error: %w", err)
		}
	}

	return tracks, res.Name, nil
}

func (p *SpotifyParser) handleAlbum(ctx context.Context, id spotify.ID) ([]models.Track, string, error) {
	res, err := p.client.GetAlbum(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("get album: %w", err)
	}

	var ids []spotify.ID
	for _, t := range res.Tracks.Tracks {
		ids = append(ids, t.ID)
	}

	var tracks []models.Track
	for i := 0; i < len(ids); i += 50 {
		end := i + 50
		if end > len(ids) {
			end = len(ids)
		}

		fullTracks, err := p.client.GetTracks(ctx, ids[i:end])
		if err != nil {
			return nil, "", fmt.Errorf("get full tracks for album: %w", err)
		}

		for _, ft := range fullTracks {
			tracks = append(tracks, p.transform(*ft))
		}
	}

	return tracks, res.Name, nil
}

func (p *SpotifyParser) handleTrack(ctx context.Context, id spotify.ID) ([]models.Track, string, error) {
	res, err := p.client.GetTrack(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("get track: %w", err)
	}
	return []models.Track{p.transform(*res)}, res.Name, nil
}

func (p *SpotifyParser) parseURL(urlStr string) (spotify.ID, string, error) {
	for _, mediaType := range []string{"playlist", "album", "track"} {
		if strings.Contains(urlStr, "/"+mediaType+"/") {
			return p.extractID(urlStr), mediaType, nil
		}
	}
	return "", "", fmt.Errorf("could not identify media type from URL")
}

func (p *SpotifyParser) extractID(urlStr string) spotify.ID {
	parts := strings.Split(urlStr, "/")
	lastPart := parts[len(parts)-1]
	id := strings.Split(lastPart, "?")[0]
	return spotify.ID(id)
}

// transform keeps every artist spelling: the orchestrator falls back across
// them when the combined spelling finds nothing.
func (p *SpotifyParser) transform(st spotify.FullTrack) models.Track {
	artists := make([]string, len(st.Artists))
	for i, a := range st.Artists {
		artists[i] = a.Name
	}

	return models.Track{
		ID:       string(st.ID),
		Title:    st.Name,
		Artist:   strings.Join(artists, ", "),
		Artists:  artists,
		Album:    st.Album.Name,
		Type:     "spotify",
		SourceID: string(st.ID),
	}
}
