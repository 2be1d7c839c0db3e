package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"moviebook-cli/logging"
	"moviebook-cli/model"
)

const cityErrorSnippetN = 120

// cityProvider is an IP geolocation endpoint that can name the caller's city.
type cityProvider struct {
	name     string
	endpoint string
	parse    func([]byte) (string, error)
}

var defaultCityProviders = []cityProvider{
	{name: "ipapi", endpoint: "https://ipapi.co/json/", parse: parseIPAPICity},
	{name: "ipwhois", endpoint: "https://ipwho.is/", parse: parseIPWhoIsCity},
}

// DetectCity guesses the user's city from their public IP, trying each
// provider in turn.
func DetectCity(ctx context.Context, httpClient *http.Client) (string, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	return detectCityWithProviders(ctx, httpClient, defaultCityProviders)
}

func detectCityWithProviders(ctx context.Context, httpClient *http.Client, providers []cityProvider) (string, error) {
	if len(providers) == 0 {
		return "", errors.New("no city providers configured")
	}

	var failures []string
	for _, p := range providers {
		city, err := detectCityFromProvider(ctx, httpClient, p)
		if err == nil {
			return city, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		logging.Debug().Str("component", "city").Str("provider", p.name).Err(err).Msg("city lookup failed")
		failures = append(failures, fmt.Sprintf("%s: %s", p.name, err.Error()))
	}
	return "", fmt.Errorf("all city providers failed (%s)", strings.Join(failures, " | "))
}

func detectCityFromProvider(ctx context.Context, httpClient *http.Client, p cityProvider) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create city request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)

	res, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("city request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		if msg := compactSnippet(string(snippet)); msg != "" {
			return "", fmt.Errorf("%s: %s", res.Status, msg)
		}
		return "", errors.New(res.Status)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read city response: %w", err)
	}
	city, err := p.parse(body)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(city) == "" {
		return "", errors.New("provider returned no city")
	}
	return strings.TrimSpace(city), nil
}

func parseIPAPICity(body []byte) (string, error) {
	var payload struct {
		City   string `json:"city"`
		Error  bool   `json:"error"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode city response: %w", err)
	}
	if payload.Error {
		if payload.Reason == "" {
			payload.Reason = "unknown error"
		}
		return "", errors.New(payload.Reason)
	}
	return payload.City, nil
}

func parseIPWhoIsCity(body []byte) (string, error) {
	var payload struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		City    string `json:"city"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode city response: %w", err)
	}
	if !payload.Success {
		if strings.TrimSpace(payload.Message) == "" {
			payload.Message = "provider returned unsuccessful response"
		}
		return "", errors.New(payload.Message)
	}
	return payload.City, nil
}

func compactSnippet(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype") {
		return ""
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > cityErrorSnippetN {
		text = text[:cityErrorSnippetN]
	}
	return text
}

// SortTheatresByCity moves theatres in city to the front, keeping the
// relative order otherwise.
func SortTheatresByCity(theatres []model.Theatre, city string) {
	city = strings.TrimSpace(city)
	if city == "" {
		return
	}
	sort.SliceStable(theatres, func(i, j int) bool {
		return strings.EqualFold(theatres[i].City, city) && !strings.EqualFold(theatres[j].City, city)
	})
}
