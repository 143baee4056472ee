package social

import (
	"errors"

	"example.com/minitwitter/internal/models"
	"example.com/minitwitter/internal/store"
)

// ToggleLike flips the actor's membership in the post's liking set and
// moves the denormalized counter in the same atomic store scope, so the
// counter always equals the set size. An INACTIVE post is reported as not
// found, matching the visibility rules everywhere else.
func (s *Service) ToggleLike(actorID, postID string) (models.LikeOutcome, error) {
	post, err := s.store.GetPost(postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	switch post.Status {
	case models.StatusActive:
	case models.StatusInactive:
		return "", ErrNotFound
	default:
		return "", ErrNotFound
	}

	liked, err := s.store.ToggleLike(actorID, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	if liked {
		return models.Liked, nil
	}
	return models.Unliked, nil
}
