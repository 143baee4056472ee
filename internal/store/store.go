package store

import (
	"errors"

	"example.com/minitwitter/internal/models"
)

// ErrNotFound indicates a requested record is missing or outside the
// caller's scope.
var ErrNotFound = errors.New("store: record not found")

// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
var ErrAlreadyExists = errors.New("store: record already exists")

// PostUpdate carries the client-settable post fields for a partial update.
// Nil means "leave unchanged".
type PostUpdate struct {
	Title    *string
	Body     *string
	MediaRef *string
}

// StoreInterface is the persistence contract the core operates against.
// Toggle methods execute as a single atomic read-modify-write scope.
type StoreInterface interface {
	// Profiles
	CreateProfile(username string) (models.Profile, error)
	GetProfile(profileID string) (models.Profile, error)

	// Follow graph
	ToggleFollow(actorID, targetID string) (followed bool, err error)
	ListFollowees(profileID string) ([]string, error)
	ListFollowers(profileID string) ([]string, error)
	// FollowEdgeState reports both directions of one edge, for audits.
	FollowEdgeState(actorID, targetID string) (inFollowees, inFollowers bool, err error)

	// Posts
	AddPost(post models.Post) error
	GetPost(postID string) (models.Post, error)
	UpdatePost(ownerID, postID string, fields PostUpdate) (models.Post, error)
	DeletePost(ownerID, postID string) error
	ListPostsByAuthor(authorID string) ([]models.Post, error)

	// Likes
	ToggleLike(actorID, postID string) (liked bool, err error)
	// LikeState returns the denormalized counter and the membership size,
	// for read decoration and for the reconciliation audit.
	LikeState(postID string) (counter int, setSize int, err error)

	Close()
}
