package parser

import (
	"fmt"

	"github.com/kkdai/youtube/v2"

	"trackmatch-go-srv/internal/models"
)

// ParseYouTube resolves a YouTube playlist or video URL into target tracks,
// splitting artist and title out of the video title heuristically.
func ParseYouTube(url string) ([]models.Track, string, error) {
	client := youtube.Client{}

	playlist, err := client.GetPlaylist(url)
	if err == nil {
		var tracks []models.Track
		for _, entry := range playlist.Videos {
			artist, title := SplitVideoTitle(entry.Title, entry.Author)
			tracks = append(tracks, models.Track{
				ID:       entry.ID,
				Title:    title,
				Artist:   artist,
				SourceID: entry.ID,
				Type:     "youtube",
			})
		}
		return tracks, playlist.Title, nil
	}

	// Not a playlist; fall back to a single video.
	video, err := client.GetVideo(url)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse YouTube URL: %w", err)
	}

	artist, title := SplitVideoTitle(video.Title, video.Author)
	tracks := []models.Track{{
		ID:       video.ID,
		Title:    title,
		Artist:   artist,
		SourceID: video.ID,
		Type:     "youtube",
	}}

	return tracks, video.Title, nil
}
