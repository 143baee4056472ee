package models

import "time"

// PostStatus is a closed enum. Read sites must switch over both values.
type PostStatus int

const (
	StatusActive PostStatus = iota
	StatusInactive
)

func (s PostStatus) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusInactive:
		return "INACTIVE"
	}
	return "UNKNOWN"
}

// FollowOutcome reports which way a follow toggle flipped.
type FollowOutcome string

const (
	Followed   FollowOutcome = "FOLLOWED"
	Unfollowed FollowOutcome = "UNFOLLOWED"
)

// LikeOutcome reports which way a like toggle flipped.
type LikeOutcome string

const (
	Liked   LikeOutcome = "LIKED"
	Unliked LikeOutcome = "UNLIKED"
)

type Profile struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Created  time.Time `json:"created"`
}

type Post struct {
	ID       string     `json:"id"`
	AuthorID string     `json:"author_id"`
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	MediaRef string     `json:"media_ref,omitempty"`
	Status   PostStatus `json:"status"`
	Created  time.Time  `json:"created"`
	// Seq is the store-assigned insertion sequence, used only to keep
	// created-at ties in a stable order.
	Seq   int64 `json:"-"`
	Likes int   `json:"likes"`
}

// Event kinds published to the broker by the server and consumed by the
// audit worker.
const (
	EventPostCreated   = "post_created"
	EventFollowToggled = "follow_toggled"
	EventLikeToggled   = "like_toggled"
)

// FollowEvent records one applied follow toggle.
type FollowEvent struct {
	ActorID  string        `json:"actor_id"`
	TargetID string        `json:"target_id"`
	Outcome  FollowOutcome `json:"outcome"`
}

// LikeEvent records one applied like toggle.
type LikeEvent struct {
	ActorID string      `json:"actor_id"`
	PostID  string      `json:"post_id"`
	Outcome LikeOutcome `json:"outcome"`
}
