package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"example.com/minitwitter/internal/models"
)

// MockStore simulates Cassandra operations for testing. A single mutex
// stands in for the per-row CAS scopes, so toggles stay atomic under
// concurrent callers.
type MockStore struct {
	mu sync.Mutex

	Profiles  map[string]models.Profile
	Usernames map[string]string // username -> profile id
	Followees map[string]map[string]bool
	Followers map[string]map[string]bool
	Posts     map[string]models.Post
	Likers    map[string]map[string]bool
	LikeCount map[string]int

	profileCounter int
	postSeq        int64

	ShouldFail bool // flag to simulate failures
}

// NewMock initializes a new mock store
func NewMock() *MockStore {
	return &MockStore{
		Profiles:  make(map[string]models.Profile),
		Usernames: make(map[string]string),
		Followees: make(map[string]map[string]bool),
		Followers: make(map[string]map[string]bool),
		Posts:     make(map[string]models.Post),
		Likers:    make(map[string]map[string]bool),
		LikeCount: make(map[string]int),
	}
}

func (m *MockStore) Close() {}

// CreateProfile simulates CAS registration of a new profile.
func (m *MockStore) CreateProfile(username string) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return models.Profile{}, errors.New("mock: create profile failed")
	}
	if _, taken := m.Usernames[username]; taken {
		return models.Profile{}, ErrAlreadyExists
	}
	m.profileCounter++
	p := models.Profile{
		ID:       fmt.Sprintf("profile_%d", m.profileCounter),
		Username: username,
		Created:  time.Now(),
	}
	m.Profiles[p.ID] = p
	m.Usernames[username] = p.ID
	return p, nil
}

// GetProfile returns a stored profile by id.
func (m *MockStore) GetProfile(profileID string) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return models.Profile{}, errors.New("mock: get profile failed")
	}
	p, ok := m.Profiles[profileID]
	if !ok {
		return models.Profile{}, ErrNotFound
	}
	return p, nil
}

// ToggleFollow flips the edge in both direction maps under one lock.
func (m *MockStore) ToggleFollow(actorID, targetID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return false, errors.New("mock: toggle follow failed")
	}
	if m.Followees[actorID] == nil {
		m.Followees[actorID] = make(map[string]bool)
	}
	if m.Followers[targetID] == nil {
		m.Followers[targetID] = make(map[string]bool)
	}
	if m.Followees[actorID][targetID] {
		delete(m.Followees[actorID], targetID)
		delete(m.Followers[targetID], actorID)
		return false, nil
	}
	m.Followees[actorID][targetID] = true
	m.Followers[targetID][actorID] = true
	return true, nil
}

// ListFollowees returns the ids the given profile follows.
func (m *MockStore) ListFollowees(profileID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errors.New("mock: list followees failed")
	}
	return sortedKeys(m.Followees[profileID]), nil
}

// ListFollowers returns the ids following the given profile.
func (m *MockStore) ListFollowers(profileID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errors.New("mock: list followers failed")
	}
	return sortedKeys(m.Followers[profileID]), nil
}

// FollowEdgeState reports both directions of one edge.
func (m *MockStore) FollowEdgeState(actorID, targetID string) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return false, false, errors.New("mock: follow edge state failed")
	}
	return m.Followees[actorID][targetID], m.Followers[targetID][actorID], nil
}

// AddPost stores a post and assigns its insertion sequence.
func (m *MockStore) AddPost(post models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New("mock: add post failed")
	}
	m.postSeq++
	post.Seq = m.postSeq
	m.Posts[post.ID] = post
	return nil
}

// GetPost returns a stored post regardless of status.
func (m *MockStore) GetPost(postID string) (models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return models.Post{}, errors.New("mock: get post failed")
	}
	p, ok := m.Posts[postID]
	if !ok {
		return models.Post{}, ErrNotFound
	}
	return p, nil
}

// UpdatePost applies a partial owner-scoped update.
func (m *MockStore) UpdatePost(ownerID, postID string, fields PostUpdate) (models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return models.Post{}, errors.New("mock: update post failed")
	}
	p, ok := m.Posts[postID]
	if !ok || p.AuthorID != ownerID {
		return models.Post{}, ErrNotFound
	}
	if fields.Title != nil {
		p.Title = *fields.Title
	}
	if fields.Body != nil {
		p.Body = *fields.Body
	}
	if fields.MediaRef != nil {
		p.MediaRef = *fields.MediaRef
	}
	m.Posts[postID] = p
	return p, nil
}

// DeletePost removes an owner-scoped post and its like state.
func (m *MockStore) DeletePost(ownerID, postID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New("mock: delete post failed")
	}
	p, ok := m.Posts[postID]
	if !ok || p.AuthorID != ownerID {
		return ErrNotFound
	}
	delete(m.Posts, postID)
	delete(m.Likers, postID)
	delete(m.LikeCount, postID)
	return nil
}

// ListPostsByAuthor returns the author's posts in insertion order.
func (m *MockStore) ListPostsByAuthor(authorID string) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errors.New("mock: list posts failed")
	}
	var res []models.Post
	for _, p := range m.Posts {
		if p.AuthorID == authorID {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Seq < res[j].Seq })
	return res, nil
}

// ToggleLike flips membership and counter together under one lock.
func (m *MockStore) ToggleLike(actorID, postID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return false, errors.New("mock: toggle like failed")
	}
	if _, ok := m.Posts[postID]; !ok {
		return false, ErrNotFound
	}
	if m.Likers[postID] == nil {
		m.Likers[postID] = make(map[string]bool)
	}
	if m.Likers[postID][actorID] {
		delete(m.Likers[postID], actorID)
		m.LikeCount[postID]--
		return false, nil
	}
	m.Likers[postID][actorID] = true
	m.LikeCount[postID]++
	return true, nil
}

// LikeState returns the counter and the membership size.
func (m *MockStore) LikeState(postID string) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return 0, 0, errors.New("mock: like state failed")
	}
	return m.LikeCount[postID], len(m.Likers[postID]), nil
}

// SetPostStatus flips a post's status directly, bypassing the public
// surface. Status is server-controlled, so tests need a back door.
func (m *MockStore) SetPostStatus(postID string, status models.PostStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.Posts[postID]; ok {
		p.Status = status
		m.Posts[postID] = p
	}
}

func sortedKeys(set map[string]bool) []string {
	var res []string
	for id := range set {
		res = append(res, id)
	}
	sort.Strings(res)
	return res
}

// ---------------------------------------------
// MockStoreFail always returns errors for negative tests
type MockStoreFail struct{}

func (m *MockStoreFail) Close() {}

func (m *MockStoreFail) CreateProfile(username string) (models.Profile, error) {
	return models.Profile{}, errors.New("mock store create profile failed")
}

func (m *MockStoreFail) GetProfile(profileID string) (models.Profile, error) {
	return models.Profile{}, errors.New("mock store get profile failed")
}

func (m *MockStoreFail) ToggleFollow(actorID, targetID string) (bool, error) {
	return false, errors.New("mock store toggle follow failed")
}

func (m *MockStoreFail) ListFollowees(profileID string) ([]string, error) {
	return nil, errors.New("mock store list followees failed")
}

func (m *MockStoreFail) ListFollowers(profileID string) ([]string, error) {
	return nil, errors.New("mock store list followers failed")
}

func (m *MockStoreFail) FollowEdgeState(actorID, targetID string) (bool, bool, error) {
	return false, false, errors.New("mock store follow edge state failed")
}

func (m *MockStoreFail) AddPost(post models.Post) error {
	return errors.New("mock store add post failed")
}

func (m *MockStoreFail) GetPost(postID string) (models.Post, error) {
	return models.Post{}, errors.New("mock store get post failed")
}

func (m *MockStoreFail) UpdatePost(ownerID, postID string, fields PostUpdate) (models.Post, error) {
	return models.Post{}, errors.New("mock store update post failed")
}

func (m *MockStoreFail) DeletePost(ownerID, postID string) error {
	return errors.New("mock store delete post failed")
}

func (m *MockStoreFail) ListPostsByAuthor(authorID string) ([]models.Post, error) {
	return nil, errors.New("mock store list posts failed")
}

func (m *MockStoreFail) ToggleLike(actorID, postID string) (bool, error) {
	return false, errors.New("mock store toggle like failed")
}

func (m *MockStoreFail) LikeState(postID string) (int, int, error) {
	return 0, 0, errors.New("mock store like state failed")
}
