package server

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"example.com/minitwitter/internal/middleware"
	"example.com/minitwitter/internal/models"
	"example.com/minitwitter/internal/social"
	"example.com/minitwitter/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/segmentio/kafka-go"
)

// --- HTTP Handlers ---

// publishEvent sends a domain event to Kafka for the audit worker. Event
// delivery never fails the request; the toggle or write already committed.
func (s *Server) publishEvent(key string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logg.Error("http/events", "Failed to marshal event payload", err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}
	if err := s.kafkaWriter.WriteMessages(msg); err != nil {
		logg.Error("http/events", "Failed to write Kafka event", err)
	}
}

// registerHandler handles POST /users.
// Expects JSON body: {"username": "example"}
// Returns the created profile and a signed token in the envelope.
func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	type req struct {
		Username string `json:"username"`
	}
	var body req

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logg.Error("http/users", "Invalid request body", err)
		writeErrorCode(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()

	profile, err := s.svc.RegisterProfile(body.Username)
	if err != nil {
		logg.Error("http/users", "Failed to register profile", err)
		writeDomainError(w, err)
		return
	}
	logg.Info("http/users", "Profile registered with profile_id="+profile.ID)

	secret := []byte(os.Getenv("JWT_SECRET"))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"profile_id": profile.ID,
		"exp":        time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenStr, err := token.SignedString(secret)
	if err != nil {
		writeErrorCode(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	writeSuccess(w, http.StatusCreated, "profile registered", map[string]any{
		"profile": profile,
		"token":   tokenStr,
	})
}

// followHandler handles POST /users/follow/{id}: a single toggle endpoint
// that follows or unfollows depending on the current edge.
func (s *Server) followHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ProfileIDFromContext(r.Context())
	if !ok {
		logg.Info("http/follow", "Unauthorized follow attempt")
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	targetID := r.PathValue("id")

	outcome, err := s.svc.ToggleFollow(actorID, targetID)
	if err != nil {
		logg.Error("http/follow", "Failed to toggle follow", err)
		writeDomainError(w, err)
		return
	}

	s.publishEvent(models.EventFollowToggled, models.FollowEvent{
		ActorID:  actorID,
		TargetID: targetID,
		Outcome:  outcome,
	})

	logg.Info("http/follow", "Follow toggled to "+string(outcome))
	writeSuccess(w, http.StatusOK, "follow toggled", map[string]any{
		"outcome": outcome,
	})
}

// likeHandler handles POST /posts/{id}/like: the like/unlike toggle.
func (s *Server) likeHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ProfileIDFromContext(r.Context())
	if !ok {
		logg.Info("http/like", "Unauthorized like attempt")
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	postID := r.PathValue("id")

	outcome, err := s.svc.ToggleLike(actorID, postID)
	if err != nil {
		logg.Error("http/like", "Failed to toggle like", err)
		writeDomainError(w, err)
		return
	}

	s.publishEvent(models.EventLikeToggled, models.LikeEvent{
		ActorID: actorID,
		PostID:  postID,
		Outcome: outcome,
	})

	logg.Info("http/like", "Like toggled to "+string(outcome))
	writeSuccess(w, http.StatusOK, "like toggled", map[string]any{
		"outcome": outcome,
	})
}

// createPostHandler handles POST /posts.
// Expects JSON body: {"title": "...", "body": "...", "media_ref": "..."}
func (s *Server) createPostHandler(w http.ResponseWriter, r *http.Request) {
	type req struct {
		Title    string `json:"title"`
		Body     string `json:"body"`
		MediaRef string `json:"media_ref"`
	}
	var body req

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logg.Error("http/posts", "Invalid request body", err)
		writeErrorCode(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()

	ownerID, ok := middleware.ProfileIDFromContext(r.Context())
	if !ok {
		logg.Info("http/posts", "Unauthorized post creation attempt")
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	post, err := s.svc.CreatePost(ownerID, social.PostInput{
		Title:    body.Title,
		Body:     body.Body,
		MediaRef: body.MediaRef,
	})
	if err != nil {
		logg.Error("http/posts", "Failed to create post", err)
		writeDomainError(w, err)
		return
	}

	s.publishEvent(models.EventPostCreated, post)

	logg.Info("http/posts", "Post created by profile_id="+ownerID)
	writeSuccess(w, http.StatusCreated, "post created", post)
}

// listPostsHandler handles GET /posts: the caller's own posts, newest first.
func (s *Server) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.ProfileIDFromContext(r.Context())
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	posts, err := s.svc.ListPosts(ownerID)
	if err != nil {
		logg.Error("http/posts", "Failed to list posts", err)
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "posts listed", posts)
}

// updatePostHandler handles PATCH /posts/{id}. Absent fields stay
// unchanged; a post owned by someone else reports not found.
func (s *Server) updatePostHandler(w http.ResponseWriter, r *http.Request) {
	type req struct {
		Title    *string `json:"title"`
		Body     *string `json:"body"`
		MediaRef *string `json:"media_ref"`
	}
	var body req

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logg.Error("http/posts", "Invalid request body", err)
		writeErrorCode(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()

	ownerID, ok := middleware.ProfileIDFromContext(r.Context())
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	post, err := s.svc.UpdatePost(ownerID, r.PathValue("id"), store.PostUpdate{
		Title:    body.Title,
		Body:     body.Body,
		MediaRef: body.MediaRef,
	})
	if err != nil {
		logg.Error("http/posts", "Failed to update post", err)
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "post updated", post)
}

// deletePostHandler handles DELETE /posts/{id}.
func (s *Server) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.ProfileIDFromContext(r.Context())
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := s.svc.DeletePost(ownerID, r.PathValue("id")); err != nil {
		logg.Error("http/posts", "Failed to delete post", err)
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "post deleted", nil)
}

// getFeedHandler handles GET /feed?page=&page_size=.
// Page is 1-indexed; page_size above the configured max is clamped.
func (s *Server) getFeedHandler(w http.ResponseWriter, r *http.Request) {
	profileID, ok := middleware.ProfileIDFromContext(r.Context())
	if !ok {
		logg.Info("http/feed", "Unauthorized feed access attempt")
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	pageSize := 0
	if v := r.URL.Query().Get("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 {
			pageSize = ps
		}
	}

	feed, err := s.svc.GetFeed(profileID, page, pageSize)
	if err != nil {
		logg.Error("http/feed", "Failed to get feed for profile_id="+profileID, err)
		writeDomainError(w, err)
		return
	}

	logg.Info("http/feed", "Feed retrieved for profile_id="+profileID+" page="+strconv.Itoa(page))
	writeSuccess(w, http.StatusOK, "feed retrieved", feed)
}
