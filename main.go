package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"trackmatch-go-srv/internal/catalog"
	"trackmatch-go-srv/internal/config"
	"trackmatch-go-srv/internal/database"
	"trackmatch-go-srv/internal/matcher"
	"trackmatch-go-srv/internal/models"
	"trackmatch-go-srv/internal/parser"
	"trackmatch-go-srv/internal/search"
)

/* =========================
   Recovery Middleware
   ========================= */

func RecoveryMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC: %v\n%s", err, debug.Stack())
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}

/* =========================
   Types
   ========================= */

type MatchRequest struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

type AnalyzeRequest struct {
	Track models.Track `json:"track"`
}

type TrackResult struct {
	Target     models.Track       `json:"target"`
	Status     string             `json:"status"`
	Candidates []models.Candidate `json:"candidates,omitempty"`
}

/* =========================
   SSE Helpers
   ========================= */

func setupSSE(w http.ResponseWriter) (http.Flusher, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming unsupported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	return flusher, nil
}

func sendEvent(w http.ResponseWriter, flusher http.Flusher, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		log.Println("SSE marshal error:", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", b)
	flusher.Flush()
}

/* =========================
   App
   ========================= */

type App struct {
	db      *sql.DB
	store   *config.Store
	spotify *parser.SpotifyParser
}

// newSession builds a single-request search session: compiled rules, word
// lists and a fresh per-session cache around the caller's catalog client.
func (a *App) newSession(client *catalog.Client) (*search.Session, []models.SearchApproach, error) {
	filters, err := a.store.MatchFilters()
	if err != nil {
		return nil, nil, fmt.Errorf("load match filters: %w", err)
	}
	if len(filters) == 0 {
		return nil, nil, fmt.Errorf("no match filters configured")
	}

	approaches, err := a.store.SearchApproaches()
	if err != nil {
		return nil, nil, fmt.Errorf("load search approaches: %w", err)
	}

	proc, err := a.store.TextProcessing()
	if err != nil {
		return nil, nil, fmt.Errorf("load text processing config: %w", err)
	}

	rules := matcher.CompileRules(filters)
	return search.NewSession(client, rules, proc), approaches, nil
}

func (a *App) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Catalog-Token")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ctx := r.Context()

	token := r.Header.Get("X-Catalog-Token")
	if token == "" {
		http.Error(w, "Missing X-Catalog-Token", http.StatusUnauthorized)
		return
	}
	client := catalog.NewClient(os.Getenv("CATALOG_API_BASE"), token)

	var (
		tracks     []models.Track
		sourceName string
		err        error
	)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		tracks, sourceName, err = parser.ParseCSV(r)
		if err != nil {
			http.Error(w, "CSV parse failed: "+err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		var req MatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}

		parsedURL, err := url.Parse(req.URL)
		if err != nil || parsedURL.Host == "" {
			http.Error(w, "Invalid URL", http.StatusBadRequest)
			return
		}

		switch req.Type {
		case "spotify":
			if !strings.Contains(parsedURL.Host, "spotify.com") {
				http.Error(w, "Invalid Spotify URL", http.StatusBadRequest)
				return
			}
			tracks, sourceName, err = a.spotify.Parse(ctx, req.URL)
		case "youtube":
			if !strings.Contains(parsedURL.Host, "youtube.com") && !strings.Contains(parsedURL.Host, "youtu.be") {
				http.Error(w, "Invalid YouTube URL", http.StatusBadRequest)
				return
			}
			tracks, sourceName, err = parser.ParseYouTube(req.URL)
		default:
			http.Error(w, "Unsupported source type", http.StatusBadRequest)
			return
		}

		if err != nil {
			http.Error(w, "Extraction failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	if len(tracks) == 0 {
		http.Error(w, "No tracks found", http.StatusBadRequest)
		return
	}

	session, approaches, err := a.newSession(client)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	/* =========================
	   SSE Setup (SAFE POINT)
	   ========================= */

	flusher, err := setupSSE(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	send := func(v any) { sendEvent(w, flusher, v) }

	send(map[string]string{"status": "extracting", "source": sourceName})

	results := make([]TrackResult, 0, len(tracks))

	for i, t := range tracks {
		select {
		case <-ctx.Done():
			log.Println("Client disconnected")
			return
		default:
		}

		res := a.matchOne(ctx, client, session, approaches, t)
		results = append(results, res)

		send(map[string]any{
			"status": "processing",
			"index":  i + 1,
			"total":  len(tracks),
			"result": res,
		})
	}

	send(map[string]any{
		"status": "complete",
		"meta": map[string]any{
			"source_name": sourceName,
			"timestamp":   time.Now().Format(time.RFC3339),
		},
		"tracks": results,
	})
}

// matchOne checks the registry first, then runs the full approach/artist
// search. A confident match is written back to the registry.
func (a *App) matchOne(ctx context.Context, client *catalog.Client, session *search.Session, approaches []models.SearchApproach, t models.Track) TrackResult {
	if t.SourceID != "" {
		if catalogID, err := database.GetCatalogIDFromSource(a.db, t.Type, t.SourceID); err == nil && catalogID != "" {
			if found, err := client.LookupByIDs(ctx, []string{catalogID}); err == nil && len(found) > 0 {
				return TrackResult{
					Target: t,
					Status: "FOUND",
					Candidates: []models.Candidate{{
						Track:   found[0],
						Reason:  "Previously matched",
						Matched: true,
					}},
				}
			}
		}
	}

	candidates, err := session.Search(ctx, approaches, t)
	if err != nil {
		log.Printf("match %q - %q: %v", t.Artist, t.Title, err)
		return TrackResult{Target: t, Status: "ERROR"}
	}
	if len(candidates) == 0 {
		return TrackResult{Target: t, Status: "NOT_FOUND"}
	}

	best := candidates[0]
	mapping := database.MatchMapping{CatalogID: best.ID, Reason: best.Reason}
	switch t.Type {
	case "spotify":
		mapping.SpotifyID = t.SourceID
	case "youtube":
		mapping.YoutubeID = t.SourceID
	}
	if err := database.UpsertMapping(a.db, mapping); err != nil {
		log.Printf("registry upsert failed for %s: %v", best.ID, err)
	}

	return TrackResult{Target: t, Status: "FOUND", Candidates: candidates}
}

// handleAnalyze exposes the diagnostic ranking for a single track: every
// approach runs, nothing short-circuits, and the top candidates come back
// with full attribute detail for rule tuning.
func (a *App) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Catalog-Token")
	if token == "" {
		http.Error(w, "Missing X-Catalog-Token", http.StatusUnauthorized)
		return
	}
	client := catalog.NewClient(os.Getenv("CATALOG_API_BASE"), token)

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Track.Title == "" || req.Track.Artist == "" {
		http.Error(w, "track requires artist and title", http.StatusBadRequest)
		return
	}

	session, approaches, err := a.newSession(client)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	candidates, err := session.Analyze(r.Context(), approaches, req.Track)
	if err != nil {
		http.Error(w, "Analyze failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"target":     req.Track,
		"candidates": candidates,
	})
}

/* =========================
   Main
   ========================= */

func main() {
	_ = godotenv.Load()

	spotifyID := os.Getenv("SPOTIFY_ID")
	spotifySecret := os.Getenv("SPOTIFY_SECRET")
	if spotifyID == "" || spotifySecret == "" {
		log.Fatal("CRITICAL: SPOTIFY_ID and SPOTIFY_SECRET must be set in environment")
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	_ = os.MkdirAll(dataDir, 0755)

	dbPath := filepath.Join(dataDir, "registry.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.Close()

	if err := database.InitDatabase(db); err != nil {
		log.Fatalf("Failed to init DB schema: %v", err)
	}

	ctx := context.Background()
	creds := &clientcredentials.Config{
		ClientID:     spotifyID,
		ClientSecret: spotifySecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	spotifyClient := spotify.New(creds.Client(ctx))

	app := &App{
		db:      db,
		store:   config.NewStore(dataDir),
		spotify: parser.NewSpotifyParser(spotifyClient),
	}

	http.HandleFunc("/api/v1/match", RecoveryMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodOptions {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		app.handleMatch(w, r)
	}))

	http.HandleFunc("/api/v1/analyze", RecoveryMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		app.handleAnalyze(w, r)
	}))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Trackmatch engine listening on :%s", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}
