package social

import (
	"sort"

	"example.com/minitwitter/internal/models"
)

// GetFeed assembles one page of the caller's feed: ACTIVE posts authored
// by followed profiles, newest first. The caller's own posts never appear
// because a self-edge is impossible. Page numbers are 1-indexed and an
// out-of-range page is an empty page, not an error.
func (s *Service) GetFeed(profileID string, page, pageSize int) ([]models.Post, error) {
	if page < 1 {
		page = 1
	}
	pageSize = ClampPageSize(pageSize, s.pages)

	followees, err := s.store.ListFollowees(profileID)
	if err != nil {
		return nil, err
	}
	if len(followees) == 0 {
		return []models.Post{}, nil
	}

	var collected []models.Post
	for _, authorID := range followees {
		posts, err := s.store.ListPostsByAuthor(authorID)
		if err != nil {
			return nil, err
		}
		collected = append(collected, filterActive(posts)...)
	}
	sortNewestFirst(collected)

	start := (page - 1) * pageSize
	if start >= len(collected) {
		return []models.Post{}, nil
	}
	end := start + pageSize
	if end > len(collected) {
		end = len(collected)
	}
	return s.decorateLikes(collected[start:end])
}

// sortNewestFirst orders posts by creation time descending. Creation-time
// ties keep insertion order via the store-assigned sequence.
func sortNewestFirst(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].Created.Equal(posts[j].Created) {
			return posts[i].Created.After(posts[j].Created)
		}
		return posts[i].Seq < posts[j].Seq
	})
}
