// Package social implements the follow-graph and feed-assembly core:
// profile registration, follow and like toggles, owner-scoped post CRUD,
// and the paginated pull feed. Every operation takes the caller's resolved
// profile id as an explicit argument; nothing here reads ambient state.
package social

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"example.com/minitwitter/internal/models"
	"example.com/minitwitter/internal/store"
)

const (
	maxUsernameLength = 50
	maxTitleLength    = 255
	maxBodyLength     = 1000
)

// Service exposes the core operations over a persistence backend.
type Service struct {
	store store.StoreInterface
	pages PageConfig
	clock func() time.Time
}

// New creates a Service backed by the given store.
func New(st store.StoreInterface, pages PageConfig) *Service {
	return &Service{
		store: st,
		pages: pages,
		clock: time.Now,
	}
}

// RegisterProfile creates a profile for a previously unseen identity.
func (s *Service) RegisterProfile(username string) (models.Profile, error) {
	username = strings.TrimSpace(username)
	if len(username) == 0 || len(username) > maxUsernameLength {
		return models.Profile{}, fmt.Errorf("%w: username must be 1-%d characters", ErrValidation, maxUsernameLength)
	}

	profile, err := s.store.CreateProfile(username)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return models.Profile{}, ErrDuplicateRegistration
		}
		return models.Profile{}, err
	}
	return profile, nil
}

// GetProfile fetches one profile record.
func (s *Service) GetProfile(profileID string) (models.Profile, error) {
	profile, err := s.store.GetProfile(profileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Profile{}, ErrNotFound
		}
		return models.Profile{}, err
	}
	return profile, nil
}
