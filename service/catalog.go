package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"moviebook-cli/model"
)

// ShowQuery filters GET /shows.
type ShowQuery struct {
	MovieID   string
	TheatreID string
}

func (q ShowQuery) encode() string {
	values := url.Values{}
	if id := strings.TrimSpace(q.MovieID); id != "" {
		values.Set("movieId", id)
	}
	if id := strings.TrimSpace(q.TheatreID); id != "" {
		values.Set("theatreId", id)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// GetMovies returns every movie. Paged responses ({"movies": [...]}) are flattened.
func (c *Client) GetMovies(ctx context.Context) ([]model.Movie, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, c.baseURL+"/movies", "", "Failed to fetch movies", &raw); err != nil {
		return nil, err
	}
	return decodeMovies(raw)
}

func decodeMovies(raw json.RawMessage) ([]model.Movie, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var movies []model.Movie
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &movies); err != nil {
			return nil, fmt.Errorf("decode movies: %w", err)
		}
		return movies, nil
	}
	var page struct {
		Movies []model.Movie `json:"movies"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode movies: %w", err)
	}
	return page.Movies, nil
}

// GetMovie fetches one movie by id.
func (c *Client) GetMovie(ctx context.Context, id string) (model.Movie, error) {
	if strings.TrimSpace(id) == "" {
		return model.Movie{}, errors.New("movie id is required")
	}
	var movie model.Movie
	endpoint := fmt.Sprintf("%s/movies/%s", c.baseURL, url.PathEscape(id))
	if err := c.getJSON(ctx, endpoint, "", "Failed to fetch movie", &movie); err != nil {
		return model.Movie{}, err
	}
	return movie, nil
}

// GetTheatres returns every theatre.
func (c *Client) GetTheatres(ctx context.Context) ([]model.Theatre, error) {
	var theatres []model.Theatre
	if err := c.getJSON(ctx, c.baseURL+"/theatres", "", "Failed to fetch theatres", &theatres); err != nil {
		return nil, err
	}
	return theatres, nil
}

// GetTheatre fetches one theatre by id.
func (c *Client) GetTheatre(ctx context.Context, id string) (model.Theatre, error) {
	if strings.TrimSpace(id) == "" {
		return model.Theatre{}, errors.New("theatre id is required")
	}
	var theatre model.Theatre
	endpoint := fmt.Sprintf("%s/theatres/%s", c.baseURL, url.PathEscape(id))
	if err := c.getJSON(ctx, endpoint, "", "Failed to fetch theatre", &theatre); err != nil {
		return model.Theatre{}, err
	}
	return theatre, nil
}

// GetShows lists shows. Shows whose movie or theatre no longer exists are dropped.
func (c *Client) GetShows(ctx context.Context, query ShowQuery) ([]model.Show, error) {
	var shows []model.Show
	if err := c.getJSON(ctx, c.baseURL+"/shows"+query.encode(), "", "Failed to fetch shows", &shows); err != nil {
		return nil, err
	}
	kept := shows[:0]
	for _, s := range shows {
		if s.IsOrphan() {
			continue
		}
		kept = append(kept, s)
	}
	return kept, nil
}

// GetShow fetches a single show, including its booked seats and price table.
func (c *Client) GetShow(ctx context.Context, id string) (model.Show, error) {
	if strings.TrimSpace(id) == "" {
		return model.Show{}, errors.New("show id is required")
	}
	var show model.Show
	endpoint := fmt.Sprintf("%s/shows/%s", c.baseURL, url.PathEscape(id))
	if err := c.getJSON(ctx, endpoint, "", "Failed to fetch show", &show); err != nil {
		return model.Show{}, err
	}
	if show.Id == "" {
		return model.Show{}, errors.New("show not found")
	}
	return show, nil
}

// Search looks up movies and theatres by free text.
func (c *Client) Search(ctx context.Context, query string) (model.SearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return model.SearchResult{}, nil
	}
	var result model.SearchResult
	endpoint := c.baseURL + "/search?q=" + url.QueryEscape(q)
	if err := c.getJSON(ctx, endpoint, "", "Search failed", &result); err != nil {
		return model.SearchResult{}, err
	}
	return result, nil
}
