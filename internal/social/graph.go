package social

import (
	"errors"

	"example.com/minitwitter/internal/models"
	"example.com/minitwitter/internal/store"
)

// ToggleFollow flips the (actor -> target) follow edge and reports which
// way it went. The edge flip and both graph views change in one atomic
// store scope; a half-applied edge is never observable.
func (s *Service) ToggleFollow(actorID, targetID string) (models.FollowOutcome, error) {
	if actorID == targetID {
		return "", ErrSelfFollow
	}
	if _, err := s.store.GetProfile(targetID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	followed, err := s.store.ToggleFollow(actorID, targetID)
	if err != nil {
		return "", err
	}
	if followed {
		return models.Followed, nil
	}
	return models.Unfollowed, nil
}

// ListFollowees returns the ids of profiles the given profile follows.
func (s *Service) ListFollowees(profileID string) ([]string, error) {
	return s.store.ListFollowees(profileID)
}
