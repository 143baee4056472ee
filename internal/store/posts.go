package store

import (
	"time"

	"example.com/minitwitter/internal/models"
	"github.com/gocql/gocql"
)

// AddPost writes a post to the by-id table and the by-author listing table
// in one logged batch.
func (s *Store) AddPost(post models.Post) error {
	if post.Seq == 0 {
		post.Seq = post.Created.UnixNano()
	}

	batch := s.Session.NewBatch(gocql.LoggedBatch)
	batch.Query(`
		INSERT INTO posts (post_id, author_id, title, body, media_ref, status, created_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.AuthorID, post.Title, post.Body, post.MediaRef, int(post.Status), post.Created, post.Seq,
	)
	batch.Query(`
		INSERT INTO posts_by_author (author_id, created_at, post_id, title, body, media_ref, status, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		post.AuthorID, post.Created, post.ID, post.Title, post.Body, post.MediaRef, int(post.Status), post.Seq,
	)

	if err := s.Session.ExecuteBatch(batch); err != nil {
		logg.Error("store", "Failed to add post", err)
		return err
	}
	logg.Info("store", "Post added (post content anonymized)")
	return nil
}

// GetPost returns one post by id, regardless of status.
func (s *Store) GetPost(postID string) (models.Post, error) {
	var p models.Post
	var status int
	err := s.Session.Query(`
		SELECT author_id, title, body, media_ref, status, created_at, seq
		FROM posts WHERE post_id = ?`,
		postID,
	).Scan(&p.AuthorID, &p.Title, &p.Body, &p.MediaRef, &status, &p.Created, &p.Seq)
	if err != nil {
		if err == gocql.ErrNotFound {
			return models.Post{}, ErrNotFound
		}
		logg.Error("store", "Failed to query post by id", err)
		return models.Post{}, err
	}
	p.ID = postID
	p.Status = models.PostStatus(status)
	return p, nil
}

// UpdatePost applies a partial update scoped to the owner. The write is
// conditional on author_id, so a foreign post is indistinguishable from a
// missing one.
func (s *Store) UpdatePost(ownerID, postID string, fields PostUpdate) (models.Post, error) {
	current, err := s.GetPost(postID)
	if err != nil {
		return models.Post{}, err
	}

	if fields.Title != nil {
		current.Title = *fields.Title
	}
	if fields.Body != nil {
		current.Body = *fields.Body
	}
	if fields.MediaRef != nil {
		current.MediaRef = *fields.MediaRef
	}

	result := make(map[string]interface{})
	applied, err := s.Session.Query(`
		UPDATE posts SET title = ?, body = ?, media_ref = ?
		WHERE post_id = ? IF author_id = ?`,
		current.Title, current.Body, current.MediaRef, postID, ownerID,
	).MapScanCAS(result)
	if err != nil {
		logg.Error("store", "Failed to update post", err)
		return models.Post{}, err
	}
	if !applied {
		return models.Post{}, ErrNotFound
	}

	if err := s.Session.Query(`
		UPDATE posts_by_author SET title = ?, body = ?, media_ref = ?
		WHERE author_id = ? AND created_at = ? AND post_id = ?`,
		current.Title, current.Body, current.MediaRef, current.AuthorID, current.Created, postID,
	).Exec(); err != nil {
		logg.Error("store", "Failed to update post listing row", err)
		return models.Post{}, err
	}

	logg.Info("store", "Post updated (post content anonymized)")
	return current, nil
}

// DeletePost removes a post scoped to the owner, then clears its listing
// row and its like partition.
func (s *Store) DeletePost(ownerID, postID string) error {
	current, err := s.GetPost(postID)
	if err != nil {
		return err
	}

	result := make(map[string]interface{})
	applied, err := s.Session.Query(`
		DELETE FROM posts WHERE post_id = ? IF author_id = ?`,
		postID, ownerID,
	).MapScanCAS(result)
	if err != nil {
		logg.Error("store", "Failed to delete post", err)
		return err
	}
	if !applied {
		return ErrNotFound
	}

	batch := s.Session.NewBatch(gocql.LoggedBatch)
	batch.Query(`
		DELETE FROM posts_by_author
		WHERE author_id = ? AND created_at = ? AND post_id = ?`,
		current.AuthorID, current.Created, postID,
	)
	batch.Query(`DELETE FROM likes_by_post WHERE post_id = ?`, postID)
	if err := s.Session.ExecuteBatch(batch); err != nil {
		logg.Error("store", "Failed to clean up deleted post rows", err)
		return err
	}

	logg.Info("store", "Post deleted (post id anonymized)")
	return nil
}

// ListPostsByAuthor returns the author's posts, newest first per the
// clustering order. Status filtering is left to the caller.
func (s *Store) ListPostsByAuthor(authorID string) ([]models.Post, error) {
	iter := s.Session.Query(`
		SELECT post_id, created_at, title, body, media_ref, status, seq
		FROM posts_by_author WHERE author_id = ?`,
		authorID,
	).Iter()

	var res []models.Post
	var pid, title, body, mediaRef string
	var status int
	var created time.Time
	var seq int64

	for iter.Scan(&pid, &created, &title, &body, &mediaRef, &status, &seq) {
		res = append(res, models.Post{
			ID:       pid,
			AuthorID: authorID,
			Title:    title,
			Body:     body,
			MediaRef: mediaRef,
			Status:   models.PostStatus(status),
			Created:  created,
			Seq:      seq,
		})
	}
	if err := iter.Close(); err != nil {
		logg.Error("store", "Failed to list posts by author", err)
		return nil, err
	}
	return res, nil
}
