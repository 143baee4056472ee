package store

import (
	"time"

	"example.com/minitwitter/internal/models"
	"github.com/gocql/gocql"
)

// CreateProfile registers a new profile. The username row is claimed with
// a CAS insert, so a second registration of the same identity fails with
// ErrAlreadyExists instead of silently reusing the first profile.
func (s *Store) CreateProfile(username string) (models.Profile, error) {
	id := gocql.TimeUUID().String()
	created := time.Now().UTC()

	result := make(map[string]interface{})
	applied, err := s.Session.Query(`
		INSERT INTO profiles_by_username (username, profile_id)
		VALUES (?, ?) IF NOT EXISTS`,
		username, id,
	).MapScanCAS(result)
	if err != nil {
		logg.Error("store", "Failed to claim username entry", err)
		return models.Profile{}, err
	}
	if !applied {
		return models.Profile{}, ErrAlreadyExists
	}

	if err := s.Session.Query(`
		INSERT INTO profiles (profile_id, username, created_at)
		VALUES (?, ?, ?)`,
		id, username, created,
	).Exec(); err != nil {
		logg.Error("store", "Failed to create profile in main table", err)
		return models.Profile{}, err
	}

	logg.Info("store", "Profile created successfully (username anonymized)")
	return models.Profile{ID: id, Username: username, Created: created}, nil
}

// GetProfile returns one profile by id.
func (s *Store) GetProfile(profileID string) (models.Profile, error) {
	var username string
	var created time.Time
	err := s.Session.Query(
		`SELECT username, created_at FROM profiles WHERE profile_id = ?`,
		profileID,
	).Scan(&username, &created)
	if err != nil {
		if err == gocql.ErrNotFound {
			return models.Profile{}, ErrNotFound
		}
		logg.Error("store", "Failed to query profile by id", err)
		return models.Profile{}, err
	}
	return models.Profile{ID: profileID, Username: username, Created: created}, nil
}
