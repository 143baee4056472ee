package store

import (
	"errors"

	"github.com/gocql/gocql"
)

// toggleRetryLimit bounds the CAS loop when concurrent toggles on the same
// edge keep invalidating each other's expected state.
const toggleRetryLimit = 5

var errToggleContention = errors.New("store: toggle contention, retry limit reached")

// ToggleFollow flips the (actor -> target) edge with per-row lightweight
// transactions on the canonical follows table. The followers view is a
// materialized view over the same table, so both directions change as one
// base-row write and symmetry cannot be half-applied.
func (s *Store) ToggleFollow(actorID, targetID string) (bool, error) {
	for attempt := 0; attempt < toggleRetryLimit; attempt++ {
		result := make(map[string]interface{})
		applied, err := s.Session.Query(`
			INSERT INTO follows (follower_id, followee_id)
			VALUES (?, ?) IF NOT EXISTS`,
			actorID, targetID,
		).MapScanCAS(result)
		if err != nil {
			logg.Error("store", "Failed to apply follow edge insert", err)
			return false, err
		}
		if applied {
			logg.Info("store", "Follow edge created (profile ids anonymized)")
			return true, nil
		}

		result = make(map[string]interface{})
		applied, err = s.Session.Query(`
			DELETE FROM follows
			WHERE follower_id = ? AND followee_id = ? IF EXISTS`,
			actorID, targetID,
		).MapScanCAS(result)
		if err != nil {
			logg.Error("store", "Failed to apply follow edge delete", err)
			return false, err
		}
		if applied {
			logg.Info("store", "Follow edge removed (profile ids anonymized)")
			return false, nil
		}
		// Both CAS branches lost to a concurrent toggle; re-read and retry.
	}
	return false, errToggleContention
}

// ListFollowees returns ids of profiles the given profile follows.
func (s *Store) ListFollowees(profileID string) ([]string, error) {
	iter := s.Session.Query(
		`SELECT followee_id FROM follows WHERE follower_id = ?`,
		profileID,
	).Iter()

	var id string
	var res []string
	for iter.Scan(&id) {
		res = append(res, id)
	}
	if err := iter.Close(); err != nil {
		logg.Error("store", "Failed to list followees", err)
		return nil, err
	}
	return res, nil
}

// ListFollowers returns ids of profiles following the given profile.
func (s *Store) ListFollowers(profileID string) ([]string, error) {
	iter := s.Session.Query(
		`SELECT follower_id FROM followers_by_followee WHERE followee_id = ?`,
		profileID,
	).Iter()

	var id string
	var res []string
	for iter.Scan(&id) {
		res = append(res, id)
	}
	if err := iter.Close(); err != nil {
		logg.Error("store", "Failed to list followers", err)
		return nil, err
	}
	return res, nil
}

// FollowEdgeState reports both directions of one edge for symmetry audits.
func (s *Store) FollowEdgeState(actorID, targetID string) (bool, bool, error) {
	var dummy string
	inFollowees := true
	err := s.Session.Query(
		`SELECT followee_id FROM follows WHERE follower_id = ? AND followee_id = ?`,
		actorID, targetID,
	).Scan(&dummy)
	if err == gocql.ErrNotFound {
		inFollowees = false
	} else if err != nil {
		return false, false, err
	}

	inFollowers := true
	err = s.Session.Query(
		`SELECT follower_id FROM followers_by_followee WHERE followee_id = ? AND follower_id = ?`,
		targetID, actorID,
	).Scan(&dummy)
	if err == gocql.ErrNotFound {
		inFollowers = false
	} else if err != nil {
		return false, false, err
	}

	return inFollowees, inFollowers, nil
}
