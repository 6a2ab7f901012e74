package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"snapfeed/pkg/logger"
	"snapfeed/pkg/models"
)

// ErrUserExists is returned by CreateUser when the username is taken.
var ErrUserExists = errors.New("username already taken")

// ErrUserNotFound is returned when no registry record matches a lookup.
var ErrUserNotFound = errors.New("user not found")

const userKeyPrefix = "user:"

func userKey(username string) []byte {
	return []byte(userKeyPrefix + username)
}

// CreateUser stores a registry record mapping the username to its session
// id. The caller must pass an already-lowercased username; uniqueness is
// enforced against the stored key.
func CreateUser(u models.User) error {
	if db == nil {
		return errNotOpen
	}
	key := userKey(u.Username)
	if _, found, err := getRaw(key); err != nil {
		return err
	} else if found {
		return ErrUserExists
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := db.Set(key, data, pebble.Sync); err != nil {
		logger.Error("save_user_failed", "username", u.Username, "error", err)
		return err
	}
	logger.Info("user_saved", "username", u.Username)
	return nil
}

// GetUser returns the registry record for an exact (lowercased) username.
func GetUser(username string) (models.User, error) {
	var u models.User
	v, found, err := getRaw(userKey(username))
	if err != nil {
		return u, err
	}
	if !found {
		return u, ErrUserNotFound
	}
	if err := json.Unmarshal(v, &u); err != nil {
		return u, fmt.Errorf("invalid user record: %w", err)
	}
	return u, nil
}

// FindUserBySession resolves a session id back to its user record. Session
// ids are not unique by schema; the first record in key order wins.
func FindUserBySession(sessionID string) (models.User, error) {
	var u models.User
	if db == nil {
		return u, errNotOpen
	}
	prefix := []byte(userKeyPrefix)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return u, err
	}
	defer iter.Close()
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var cand models.User
		if err := json.Unmarshal(iter.Value(), &cand); err != nil {
			logger.Warn("skip_invalid_user_record", "key", string(iter.Key()), "error", err)
			continue
		}
		if cand.SessionID == sessionID {
			return cand, nil
		}
	}
	if err := iter.Error(); err != nil {
		return u, err
	}
	return u, ErrUserNotFound
}

// ListUsers returns all registry records in key order.
func ListUsers() ([]models.User, error) {
	if db == nil {
		return nil, errNotOpen
	}
	prefix := []byte(userKeyPrefix)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.User
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var u models.User
		if err := json.Unmarshal(iter.Value(), &u); err != nil {
			logger.Warn("skip_invalid_user_record", "key", string(iter.Key()), "error", err)
			continue
		}
		out = append(out, u)
	}
	return out, iter.Error()
}
