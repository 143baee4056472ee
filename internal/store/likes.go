package store

import (
	"github.com/gocql/gocql"
)

// ToggleLike flips the actor's membership in the post's like partition and
// moves the static like_count column in the same single-partition
// conditional batch. Membership and counter therefore change together or
// not at all; lost updates are rejected by the CAS condition and retried.
func (s *Store) ToggleLike(actorID, postID string) (bool, error) {
	for attempt := 0; attempt < toggleRetryLimit; attempt++ {
		count, member, err := s.readLikeRow(postID, actorID)
		if err != nil {
			return false, err
		}

		batch := s.Session.NewBatch(gocql.LoggedBatch)
		if member {
			batch.Query(`
				DELETE FROM likes_by_post
				WHERE post_id = ? AND liker_id = ? IF EXISTS`,
				postID, actorID,
			)
			batch.Query(`
				UPDATE likes_by_post SET like_count = ?
				WHERE post_id = ? IF like_count = ?`,
				count-1, postID, count,
			)
		} else {
			batch.Query(`
				INSERT INTO likes_by_post (post_id, liker_id)
				VALUES (?, ?) IF NOT EXISTS`,
				postID, actorID,
			)
			batch.Query(`
				UPDATE likes_by_post SET like_count = ?
				WHERE post_id = ? IF like_count = ?`,
				count+1, postID, likeCountCondition(count),
			)
		}

		result := make(map[string]interface{})
		applied, _, err := s.Session.MapExecuteBatchCAS(batch, result)
		if err != nil {
			logg.Error("store", "Failed to apply like toggle batch", err)
			return false, err
		}
		if applied {
			logg.Info("store", "Like toggle applied (ids anonymized)")
			return !member, nil
		}
		// A concurrent toggle won; re-read and retry.
	}
	return false, errToggleContention
}

// likeCountCondition maps a zero count to NULL so the CAS condition matches
// a partition whose static column has never been written.
func likeCountCondition(count int) interface{} {
	if count == 0 {
		return nil
	}
	return count
}

// readLikeRow reads the static counter and the actor's membership in one
// partition read.
func (s *Store) readLikeRow(postID, actorID string) (int, bool, error) {
	var count int
	err := s.Session.Query(
		`SELECT like_count FROM likes_by_post WHERE post_id = ? LIMIT 1`,
		postID,
	).Scan(&count)
	if err != nil && err != gocql.ErrNotFound {
		logg.Error("store", "Failed to read like counter", err)
		return 0, false, err
	}

	var dummy string
	member := true
	err = s.Session.Query(
		`SELECT liker_id FROM likes_by_post WHERE post_id = ? AND liker_id = ?`,
		postID, actorID,
	).Scan(&dummy)
	if err == gocql.ErrNotFound {
		member = false
	} else if err != nil {
		logg.Error("store", "Failed to read like membership", err)
		return 0, false, err
	}

	return count, member, nil
}

// LikeState returns the denormalized counter and the actual membership
// size. The full partition scan is for audits, never the request path.
func (s *Store) LikeState(postID string) (int, int, error) {
	var count int
	err := s.Session.Query(
		`SELECT like_count FROM likes_by_post WHERE post_id = ? LIMIT 1`,
		postID,
	).Scan(&count)
	if err != nil && err != gocql.ErrNotFound {
		logg.Error("store", "Failed to read like counter", err)
		return 0, 0, err
	}

	iter := s.Session.Query(
		`SELECT liker_id FROM likes_by_post WHERE post_id = ?`,
		postID,
	).Iter()
	var id string
	setSize := 0
	for iter.Scan(&id) {
		if id != "" {
			setSize++
		}
	}
	if err := iter.Close(); err != nil {
		logg.Error("store", "Failed to scan like membership", err)
		return 0, 0, err
	}

	return count, setSize, nil
}
