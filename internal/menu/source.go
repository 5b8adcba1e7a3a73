package menu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"maitred/internal/models"

	"github.com/pkg/errors"
)

// ErrMenuUnavailable is returned when the menu server answers success:false
var ErrMenuUnavailable = errors.New("menu unavailable")

// RepositorySource reads the menu from the local database
type RepositorySource struct {
	repo Repository
}

func NewRepositorySource(repo Repository) *RepositorySource {
	return &RepositorySource{repo: repo}
}

func (s *RepositorySource) Fetch(ctx context.Context) ([]models.Dish, error) {
	return s.repo.List(ctx, models.CategoryAll)
}

// RemoteSource reads the menu from another menu server's /api/menu
type RemoteSource struct {
	baseURL string
	client  *http.Client
}

// NewRemoteSource creates a source for the menu server at baseURL
func NewRemoteSource(baseURL string, timeout time.Duration) *RemoteSource {
	return &RemoteSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type menuEnvelope struct {
	Success bool          `json:"success"`
	Count   int           `json:"count"`
	Dishes  []models.Dish `json:"dishes"`
	Error   string        `json:"error"`
}

func (s *RemoteSource) Fetch(ctx context.Context) ([]models.Dish, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/menu", nil)
	if err != nil {
		return nil, errors.Wrap(err, "build menu request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch menu")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("menu server returned status %d", resp.StatusCode)
	}

	var env menuEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, errors.Wrap(err, "decode menu")
	}
	if !env.Success {
		if env.Error != "" {
			return nil, errors.Wrap(ErrMenuUnavailable, env.Error)
		}
		return nil, ErrMenuUnavailable
	}
	return env.Dishes, nil
}
