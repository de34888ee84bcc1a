package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"checklistd/internal/logging"
	"checklistd/internal/types"
)

// =============================================================================
// USER RECORD DOCUMENTS (identity, role, assigned bundles)
// =============================================================================

// CreateUserRecord persists a new user record. Uses INSERT OR IGNORE so that
// duplicate first-sign-in events converge: the first write wins and the
// retry is a silent no-op, matching the read-modify-write convergence policy
// of the synchronization layer.
func (s *LocalStore) CreateUserRecord(u types.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.AssignedBundles == nil {
		u.AssignedBundles = []types.Bundle{}
	}
	doc, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user record: %w", err)
	}

	logging.StoreDebug("Creating user record: id=%s role=%s", u.ID, u.Role)

	_, err = s.db.Exec(
		"INSERT OR IGNORE INTO users (id, role, doc) VALUES (?, ?, ?)",
		u.ID, string(u.Role), string(doc),
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to insert user %s: %v", u.ID, err)
		return err
	}
	return nil
}

// GetUserRecord loads one user record, returning ErrNotFound when absent.
func (s *LocalStore) GetUserRecord(id string) (types.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getUserRecordLocked(id)
}

func (s *LocalStore) getUserRecordLocked(id string) (types.UserRecord, error) {
	var doc string
	err := s.db.QueryRow("SELECT doc FROM users WHERE id = ?", id).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.UserRecord{}, ErrNotFound
		}
		return types.UserRecord{}, err
	}

	var u types.UserRecord
	if err := json.Unmarshal([]byte(doc), &u); err != nil {
		return types.UserRecord{}, fmt.Errorf("failed to parse user record %s: %w", id, err)
	}
	return u, nil
}

// ListUserRecords returns every user record. The cascade-delete coordinator
// iterates this snapshot; order carries no meaning.
func (s *LocalStore) ListUserRecords() ([]types.UserRecord, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ListUserRecords")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listUsersWhere("")
}

// ListUsersByRole returns user records holding the given role, e.g. the
// instructor list shown when an admin picks a template audience.
func (s *LocalStore) ListUsersByRole(role types.Role) ([]types.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listUsersWhere(string(role))
}

func (s *LocalStore) listUsersWhere(role string) ([]types.UserRecord, error) {
	var rows *sql.Rows
	var err error
	if role == "" {
		rows, err = s.db.Query("SELECT doc FROM users ORDER BY created_at, id")
	} else {
		rows, err = s.db.Query("SELECT doc FROM users WHERE role = ? ORDER BY created_at, id", role)
	}
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to query users: %v", err)
		return nil, err
	}
	defer rows.Close()

	var users []types.UserRecord
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			continue
		}
		var u types.UserRecord
		if err := json.Unmarshal([]byte(doc), &u); err != nil {
			logging.Get(logging.CategoryStore).Warn("Skipping unparseable user doc: %v", err)
			continue
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateAssignedBundles replaces one user's bundle list. The write is a
// single-document atomic update; last write wins between concurrent callers,
// which is safe because both the resolver and the cascade removal converge
// under re-application.
func (s *LocalStore) UpdateAssignedBundles(userID string, bundles []types.Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.getUserRecordLocked(userID)
	if err != nil {
		return err
	}
	if bundles == nil {
		bundles = []types.Bundle{}
	}
	u.AssignedBundles = bundles

	logging.StoreDebug("Updating assigned bundles: user=%s bundles=%d", userID, len(bundles))
	return s.writeUserLocked(u)
}

// UpdateUserRole changes a user's role, e.g. an admin approving a pending
// registration.
func (s *LocalStore) UpdateUserRole(userID string, role types.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}

	u, err := s.getUserRecordLocked(userID)
	if err != nil {
		return err
	}
	u.Role = role

	logging.Store("User role updated: user=%s role=%s", userID, role)
	return s.writeUserLocked(u)
}

func (s *LocalStore) writeUserLocked(u types.UserRecord) error {
	doc, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user record: %w", err)
	}

	res, err := s.db.Exec(
		"UPDATE users SET doc = ?, role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		string(doc), string(u.Role), u.ID,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to write user %s: %v", u.ID, err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
