package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const DefaultBaseURL = "https://lrclib.net"

var ErrNoLyrics = errors.New("no lyrics found")

var timestampPattern = regexp.MustCompile(`\[\d+:\d+\.\d+\]`)

type SearchResult struct {
	ID           int    `json:"id"`
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	AlbumName    string `json:"albumName"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

// Client looks up lyrics on lrclib.
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

func New() *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Search returns plain lyrics for the first match of title and artist, with
// timestamps stripped when only synced lyrics exist.
func (c *Client) Search(ctx context.Context, title, artist string) (string, error) {
	query := strings.TrimSpace(strings.TrimSpace(title) + " " + strings.TrimSpace(artist))
	if query == "" {
		return "", ErrNoLyrics
	}

	u := fmt.Sprintf("%s/api/search?q=%s", strings.TrimRight(c.BaseURL, "/"), url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "cubecubic")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lrclib API returned status %d", resp.StatusCode)
	}

	var results []SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", err
	}

	for _, res := range results {
		if res.PlainLyrics != "" {
			return strings.TrimSpace(res.PlainLyrics), nil
		}
		if res.SyncedLyrics != "" {
			if lyrics := stripTimestamps(res.SyncedLyrics); lyrics != "" {
				return lyrics, nil
			}
		}
	}
	return "", ErrNoLyrics
}

func stripTimestamps(synced string) string {
	lines := strings.Split(synced, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(timestampPattern.ReplaceAllString(line, ""))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
