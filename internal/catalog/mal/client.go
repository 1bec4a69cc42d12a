package mal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"animedb/internal/catalog"
)

// DefaultBaseURL is the public Jikan v4 endpoint.
const DefaultBaseURL = "https://api.jikan.moe/v4"

// Named is a {"name": ...} entry such as a genre or studio.
type Named struct {
	MalID int    `json:"mal_id"`
	Name  string `json:"name"`
}

// DateParts is the broken down form of an air date.
type DateParts struct {
	Day   *int `json:"day"`
	Month *int `json:"month"`
	Year  *int `json:"year"`
}

// Aired describes the airing period of an entry.
type Aired struct {
	From *string `json:"from"`
	To   *string `json:"to"`
	Prop struct {
		From DateParts `json:"from"`
		To   DateParts `json:"to"`
	} `json:"prop"`
}

// ImageSet lists the available sizes of one image format.
type ImageSet struct {
	ImageURL      string `json:"image_url"`
	SmallImageURL string `json:"small_image_url"`
	LargeImageURL string `json:"large_image_url"`
}

// Anime is a Jikan anime entry.
type Anime struct {
	MalID    int      `json:"mal_id"`
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Type     *string  `json:"type"`
	Episodes *int     `json:"episodes"`
	Score    *float64 `json:"score"`
	Rating   *string  `json:"rating"`
	Year     *int     `json:"year"`
	Aired    Aired    `json:"aired"`
	Genres   []Named  `json:"genres"`
	Studios  []Named  `json:"studios"`
	Images   struct {
		JPG ImageSet `json:"jpg"`
	} `json:"images"`
}

// AiredYear returns the start year from the broken down air date.
func (a Anime) AiredYear() *int {
	return a.Aired.Prop.From.Year
}

// Years lists the distinct known release years, primary field first.
func (a Anime) Years() []int {
	var years []int
	if a.Year != nil && *a.Year > 0 {
		years = append(years, *a.Year)
	}
	if y := a.AiredYear(); y != nil && *y > 0 && (len(years) == 0 || years[0] != *y) {
		years = append(years, *y)
	}
	return years
}

// CoverURL returns the largest JPG cover available.
func (a Anime) CoverURL() string {
	if a.Images.JPG.LargeImageURL != "" {
		return a.Images.JPG.LargeImageURL
	}
	return a.Images.JPG.ImageURL
}

// Searcher is the subset of the client used by the resolver.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Anime, error)
	GetAnime(ctx context.Context, id int) (*Anime, error)
}

// Client talks to a Jikan-compatible API.
type Client struct {
	baseURL     string
	searchLimit int
	transport   *catalog.Transport
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

// WithSearchLimit caps the number of search results requested.
func WithSearchLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.searchLimit = limit
		}
	}
}

// New creates a Jikan client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("mal base url required")
	}
	client := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		searchLimit: 10,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.transport == nil {
		client.transport = catalog.NewTransport()
	}
	return client, nil
}

type listResponse struct {
	Data []Anime `json:"data"`
}

type itemResponse struct {
	Data *Anime `json:"data"`
}

// Search returns anime entries matching query in the catalog's order.
func (c *Client) Search(ctx context.Context, query string) ([]Anime, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + "/anime")
	if err != nil {
		return nil, fmt.Errorf("parse mal url: %w", err)
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(c.searchLimit))
	endpoint.RawQuery = params.Encode()

	key := fmt.Sprintf("mal:search:%d:%s", c.searchLimit, strings.ToLower(query))
	body, err := c.transport.Do(ctx, key, getRequest(endpoint.String()))
	if err != nil {
		return nil, fmt.Errorf("mal search %q: %w", query, err)
	}

	var payload listResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode mal search response: %w", err)
	}
	return payload.Data, nil
}

// GetAnime fetches one entry by MyAnimeList id. Unknown ids return an error
// matching catalog.ErrNotFound.
func (c *Client) GetAnime(ctx context.Context, id int) (*Anime, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid mal id %d", id)
	}
	endpoint := fmt.Sprintf("%s/anime/%d", c.baseURL, id)
	body, err := c.transport.Do(ctx, fmt.Sprintf("mal:anime:%d", id), getRequest(endpoint))
	if err != nil {
		return nil, fmt.Errorf("mal anime %d: %w", id, err)
	}

	var payload itemResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode mal anime response: %w", err)
	}
	if payload.Data == nil || payload.Data.MalID == 0 {
		return nil, fmt.Errorf("mal anime %d: %w", id, catalog.ErrNotFound)
	}
	return payload.Data, nil
}

func getRequest(endpoint string) catalog.RequestBuilder {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}
}
