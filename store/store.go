package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"moviebook-cli/model"
)

const (
	appDirName       = "moviebook-cli"
	movieCacheTTL    = time.Hour
	theatreCacheTTL  = 24 * time.Hour
	showCacheTTL     = 2 * time.Minute
	maxRecentTheatre = 8
)

type cacheEnvelope[T any] struct {
	UpdatedAt time.Time `json:"updated_at"`
	Data      T         `json:"data"`
}

// Session is the signed-in user and the token the backend issued.
type Session struct {
	Token   string     `json:"token"`
	User    model.User `json:"user"`
	SavedAt time.Time  `json:"saved_at"`
}

type RecentTheatre struct {
	TheatreID string `json:"theatre_id"`
	Name      string `json:"name"`
	City      string `json:"city"`
}

type theatreHistory struct {
	Theatres []RecentTheatre `json:"theatres"`
}

type theatreVisibility struct {
	Hidden []string `json:"hidden"`
}

func LoadMovieCache() ([]model.Movie, bool, error) {
	path, err := cachePath("movies.json")
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Movie](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, fresh(cache.UpdatedAt, movieCacheTTL), nil
}

func SaveMovieCache(movies []model.Movie) error {
	path, err := cachePath("movies.json")
	if err != nil {
		return err
	}
	return saveCache(path, movies)
}

func LoadTheatreCache() ([]model.Theatre, bool, error) {
	path, err := cachePath("theatres.json")
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Theatre](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, fresh(cache.UpdatedAt, theatreCacheTTL), nil
}

func SaveTheatreCache(theatres []model.Theatre) error {
	path, err := cachePath("theatres.json")
	if err != nil {
		return err
	}
	return saveCache(path, theatres)
}

// LoadShowCache returns cached shows for a movie. Booked seats go stale
// quickly, so the seat map always refetches the single show.
func LoadShowCache(movieID string) ([]model.Show, bool, error) {
	path, err := cachePath(fmt.Sprintf("shows_%s.json", safeName(movieID)))
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Show](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, fresh(cache.UpdatedAt, showCacheTTL), nil
}

func SaveShowCache(movieID string, shows []model.Show) error {
	path, err := cachePath(fmt.Sprintf("shows_%s.json", safeName(movieID)))
	if err != nil {
		return err
	}
	return saveCache(path, shows)
}

// LoadSession returns the stored session, or nil when nobody is signed in.
func LoadSession() (*Session, error) {
	path, err := configPath("session.json")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errors.New("invalid session format")
	}
	if session.Token == "" {
		return nil, nil
	}
	return &session, nil
}

// SaveSession writes the session readable only by the current user.
func SaveSession(session Session) error {
	if strings.TrimSpace(session.Token) == "" {
		return errors.New("session token is required")
	}
	path, err := configPath("session.json")
	if err != nil {
		return err
	}
	if session.SavedAt.IsZero() {
		session.SavedAt = time.Now()
	}
	return writeJSON(path, session, 0o600)
}

func ClearSession() error {
	path, err := configPath("session.json")
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func LoadRecentTheatres() ([]RecentTheatre, error) {
	path, err := configPath("recent_theatres.json")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var history theatreHistory
	if err := json.Unmarshal(data, &history); err == nil {
		return history.Theatres, nil
	}
	return nil, errors.New("invalid theatre history format")
}

// RememberTheatre moves theatre to the front of the recent list.
func RememberTheatre(theatre model.Ref) error {
	if theatre.IsZero() {
		return errors.New("theatre id is required")
	}
	history, _ := LoadRecentTheatres()
	next := []RecentTheatre{{
		TheatreID: theatre.ID,
		Name:      theatre.Name,
		City:      theatre.City,
	}}

	for _, existing := range history {
		if existing.TheatreID == theatre.ID {
			continue
		}
		if stringsEqualFold(existing.Name, theatre.Name) && stringsEqualFold(existing.City, theatre.City) {
			continue
		}
		next = append(next, existing)
		if len(next) >= maxRecentTheatre {
			break
		}
	}

	path, err := configPath("recent_theatres.json")
	if err != nil {
		return err
	}
	return writeJSON(path, theatreHistory{Theatres: next}, 0o644)
}

func LoadHiddenTheatres() (map[string]bool, error) {
	visibility, err := loadTheatreVisibility()
	if err != nil {
		return nil, err
	}
	result := make(map[string]bool, len(visibility.Hidden))
	for _, id := range visibility.Hidden {
		if id != "" {
			result[id] = true
		}
	}
	return result, nil
}

func SetTheatreHidden(theatreID string, hidden bool) error {
	theatreID = strings.TrimSpace(theatreID)
	if theatreID == "" {
		return errors.New("theatre id is required")
	}

	visibility, err := loadTheatreVisibility()
	if err != nil {
		return err
	}

	current := visibility.Hidden
	index := -1
	for i, id := range current {
		if id == theatreID {
			index = i
			break
		}
	}

	if hidden {
		if index < 0 {
			current = append(current, theatreID)
		}
	} else if index >= 0 {
		current = append(current[:index], current[index+1:]...)
	}
	sort.Strings(current)
	visibility.Hidden = current

	path, err := configPath("theatre_visibility.json")
	if err != nil {
		return err
	}
	return writeJSON(path, visibility, 0o644)
}

func loadTheatreVisibility() (theatreVisibility, error) {
	path, err := configPath("theatre_visibility.json")
	if err != nil {
		return theatreVisibility{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return theatreVisibility{}, nil
		}
		return theatreVisibility{}, err
	}

	var visibility theatreVisibility
	if err := json.Unmarshal(data, &visibility); err != nil {
		return theatreVisibility{}, errors.New("invalid theatre visibility format")
	}
	return visibility, nil
}

func loadCache[T any](path string) (cacheEnvelope[T], error) {
	var cache cacheEnvelope[T]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return cache, err
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return cache, err
	}
	return cache, nil
}

func saveCache[T any](path string, data T) error {
	cache := cacheEnvelope[T]{
		UpdatedAt: time.Now(),
		Data:      data,
	}
	return writeJSON(path, cache, 0o644)
}

func writeJSON(path string, v any, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, perm)
}

func fresh(updatedAt time.Time, ttl time.Duration) bool {
	return !updatedAt.IsZero() && time.Since(updatedAt) <= ttl
}

func configPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName, name), nil
}

func cachePath(name string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName, name), nil
}

// safeName keeps ids usable as file name parts.
func safeName(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return "all"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}

func stringsEqualFold(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
