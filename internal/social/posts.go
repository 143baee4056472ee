package social

import (
	"errors"
	"fmt"
	"strings"

	"example.com/minitwitter/internal/models"
	"example.com/minitwitter/internal/store"

	"github.com/google/uuid"
)

// PostInput carries the client-settable fields for creating a post.
// Status is server-controlled and always starts ACTIVE.
type PostInput struct {
	Title    string
	Body     string
	MediaRef string
}

func validateTitle(title string) error {
	if len(title) == 0 || len(title) > maxTitleLength {
		return fmt.Errorf("%w: title must be 1-%d characters", ErrValidation, maxTitleLength)
	}
	return nil
}

func validateBody(body string) error {
	if len(body) == 0 || len(body) > maxBodyLength {
		return fmt.Errorf("%w: body must be 1-%d characters", ErrValidation, maxBodyLength)
	}
	return nil
}

// CreatePost stores a new ACTIVE post owned by the caller.
func (s *Service) CreatePost(ownerID string, in PostInput) (models.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateTitle(in.Title); err != nil {
		return models.Post{}, err
	}
	if err := validateBody(in.Body); err != nil {
		return models.Post{}, err
	}

	post := models.Post{
		ID:       uuid.NewString(),
		AuthorID: ownerID,
		Title:    in.Title,
		Body:     in.Body,
		MediaRef: in.MediaRef,
		Status:   models.StatusActive,
		Created:  s.clock(),
	}
	if err := s.store.AddPost(post); err != nil {
		return models.Post{}, err
	}
	return post, nil
}

// UpdatePost partially updates a post. The lookup is scoped to the
// caller's own posts, so a post owned by someone else reports not found.
func (s *Service) UpdatePost(ownerID, postID string, fields store.PostUpdate) (models.Post, error) {
	if fields.Title != nil {
		trimmed := strings.TrimSpace(*fields.Title)
		if err := validateTitle(trimmed); err != nil {
			return models.Post{}, err
		}
		fields.Title = &trimmed
	}
	if fields.Body != nil {
		if err := validateBody(*fields.Body); err != nil {
			return models.Post{}, err
		}
	}

	post, err := s.store.UpdatePost(ownerID, postID, fields)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, err
	}
	return post, nil
}

// DeletePost removes a post within the caller's own scope.
func (s *Service) DeletePost(ownerID, postID string) error {
	if err := s.store.DeletePost(ownerID, postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ListPosts returns the caller's ACTIVE posts, newest first.
func (s *Service) ListPosts(ownerID string) ([]models.Post, error) {
	posts, err := s.store.ListPostsByAuthor(ownerID)
	if err != nil {
		return nil, err
	}
	active := filterActive(posts)
	sortNewestFirst(active)
	return s.decorateLikes(active)
}

// filterActive keeps only posts visible to reads. The status switch is
// exhaustive over the closed enum.
func filterActive(posts []models.Post) []models.Post {
	visible := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		switch p.Status {
		case models.StatusActive:
			visible = append(visible, p)
		case models.StatusInactive:
		default:
		}
	}
	return visible
}

// decorateLikes fills the like counter on each post from the like state.
func (s *Service) decorateLikes(posts []models.Post) ([]models.Post, error) {
	for i := range posts {
		counter, _, err := s.store.LikeState(posts[i].ID)
		if err != nil {
			return nil, err
		}
		posts[i].Likes = counter
	}
	return posts, nil
}
