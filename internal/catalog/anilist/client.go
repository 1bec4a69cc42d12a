package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"animedb/internal/catalog"
)

// DefaultBaseURL is the public AniList GraphQL endpoint.
const DefaultBaseURL = "https://graphql.anilist.co"

// Media is an AniList anime entry.
type Media struct {
	ID      int   `json:"id"`
	IDMal   *int  `json:"idMal"`
	IsAdult *bool `json:"isAdult"`
	Title   struct {
		Romaji  string  `json:"romaji"`
		English *string `json:"english"`
	} `json:"title"`
	StartDate struct {
		Year *int `json:"year"`
	} `json:"startDate"`
	Genres       []string `json:"genres"`
	Episodes     *int     `json:"episodes"`
	Duration     *int     `json:"duration"`
	AverageScore *int     `json:"averageScore"`
	Description  *string  `json:"description"`
	CoverImage   struct {
		Large string `json:"large"`
	} `json:"coverImage"`
	Studios struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"studios"`
}

// Years lists the start year when known.
func (m Media) Years() []int {
	if m.StartDate.Year != nil && *m.StartDate.Year > 0 {
		return []int{*m.StartDate.Year}
	}
	return nil
}

// StudioNames returns the main studio names.
func (m Media) StudioNames() []string {
	names := make([]string, 0, len(m.Studios.Nodes))
	for _, node := range m.Studios.Nodes {
		if name := strings.TrimSpace(node.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Searcher is the subset of the client used by the resolver.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Media, error)
	ByMALID(ctx context.Context, malID int) (*Media, error)
}

// Client talks to the AniList GraphQL endpoint.
type Client struct {
	baseURL   string
	perPage   int
	transport *catalog.Transport
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the default catalog transport.
func WithTransport(t *catalog.Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithPerPage sets the page size for searches.
func WithPerPage(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.perPage = n
		}
	}
}

// New creates an AniList client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("anilist base url required")
	}
	client := &Client{baseURL: strings.TrimRight(baseURL, "/"), perPage: 10}
	for _, opt := range opts {
		opt(client)
	}
	if client.transport == nil {
		client.transport = catalog.NewTransport()
	}
	return client, nil
}

type variables struct {
	IDMal   *int    `json:"idMal,omitempty"`
	Search  *string `json:"search,omitempty"`
	Page    int     `json:"page"`
	PerPage int     `json:"perPage"`
}

type graphQLRequest struct {
	Query     string    `json:"query"`
	Variables variables `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type pageResponse struct {
	Data struct {
		Page struct {
			Media []Media `json:"media"`
		} `json:"Page"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// Search returns media matching query, best match first.
func (c *Client) Search(ctx context.Context, query string) ([]Media, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	vars := variables{Search: &query, Page: 1, PerPage: c.perPage}
	key := fmt.Sprintf("anilist:search:%d:%s", c.perPage, strings.ToLower(query))
	media, err := c.page(ctx, key, vars)
	if err != nil {
		return nil, fmt.Errorf("anilist search %q: %w", query, err)
	}
	return media, nil
}

// ByMALID returns the entry cross referenced to a MyAnimeList id. An id
// AniList does not know returns an error matching catalog.ErrNotFound.
func (c *Client) ByMALID(ctx context.Context, malID int) (*Media, error) {
	if malID <= 0 {
		return nil, fmt.Errorf("invalid mal id %d", malID)
	}
	vars := variables{IDMal: &malID, Page: 1, PerPage: 1}
	media, err := c.page(ctx, fmt.Sprintf("anilist:idmal:%d", malID), vars)
	if err != nil {
		return nil, fmt.Errorf("anilist idMal %d: %w", malID, err)
	}
	if len(media) == 0 {
		return nil, fmt.Errorf("anilist idMal %d: %w", malID, catalog.ErrNotFound)
	}
	return &media[0], nil
}

func (c *Client) page(ctx context.Context, cacheKey string, vars variables) ([]Media, error) {
	payload, err := json.Marshal(graphQLRequest{Query: mediaQuery, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("encode graphql request: %w", err)
	}
	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	body, err := c.transport.Do(ctx, cacheKey, build)
	if err != nil {
		return nil, err
	}

	var resp pageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode anilist response: %w", err)
	}
	if len(resp.Errors) > 0 {
		first := resp.Errors[0]
		if first.Status == http.StatusNotFound {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("anilist graphql error (status %d): %s", first.Status, first.Message)
	}
	return resp.Data.Page.Media, nil
}
