package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PokeAPIClient pages through the public pokemon index
type PokeAPIClient struct {
	firstPage  string
	httpClient *http.Client
}

// NewPokeAPIClient creates a client starting at firstPage, e.g.
// https://pokeapi.co/api/v2/pokemon?limit=100
func NewPokeAPIClient(firstPage string) *PokeAPIClient {
	return &PokeAPIClient{
		firstPage: firstPage,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// PokemonEntry is one item of an index page
type PokemonEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SourceID extracts the numeric id from .../api/v2/pokemon/25/
func (e PokemonEntry) SourceID() string {
	parts := strings.Split(strings.TrimSuffix(e.URL, "/"), "/")
	return parts[len(parts)-1]
}

// PokemonPage is one page of the index. Next is empty on the last page.
type PokemonPage struct {
	Count   int            `json:"count"`
	Next    string         `json:"next"`
	Results []PokemonEntry `json:"results"`
}

// FirstPage returns the URL the walk starts from
func (pc *PokeAPIClient) FirstPage() string {
	return pc.firstPage
}

// FetchPage loads a single index page
func (pc *PokeAPIClient) FetchPage(ctx context.Context, url string) (*PokemonPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("pokeapi returned status: %d", resp.StatusCode)
	}

	var page PokemonPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}
	return &page, nil
}
