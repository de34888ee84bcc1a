// Package session binds the pure assignment core to the document store: the
// per-user resolver pass on sign-in or refresh, toggle persistence, and the
// cascade-delete coordinator. All blocking happens here or below in store
// I/O; the core functions it calls never block.
package session

import (
	"context"
	"errors"
	"fmt"

	"checklistd/internal/assign"
	"checklistd/internal/logging"
	"checklistd/internal/store"
	"checklistd/internal/types"
)

// Store is the document-store surface the service needs. *store.LocalStore
// satisfies it; tests substitute fakes.
type Store interface {
	ListTemplates() ([]types.Template, error)
	DeleteTemplate(id string) error
	GetUserRecord(id string) (types.UserRecord, error)
	CreateUserRecord(u types.UserRecord) error
	ListUserRecords() ([]types.UserRecord, error)
	UpdateAssignedBundles(userID string, bundles []types.Bundle) error
}

const defaultCascadeWorkers = 8

// Service coordinates synchronization between templates and user records.
// It holds no state of its own beyond configuration; every method re-reads
// the store, so concurrent or repeated calls converge instead of conflicting
// (last write wins, resolver and removal are idempotent).
type Service struct {
	store          Store
	cascadeWorkers int
}

// NewService creates a synchronization service. cascadeWorkers bounds the
// fan-out across user records during a cascade-delete; values < 1 fall back
// to the default.
func NewService(st Store, cascadeWorkers int) *Service {
	if cascadeWorkers < 1 {
		cascadeWorkers = defaultCascadeWorkers
	}
	return &Service{store: st, cascadeWorkers: cascadeWorkers}
}

// SignIn handles an authentication event: creates the user record once with
// role pending and no bundles (first sign-in), then runs one resolver pass
// and returns the record as persisted. Duplicate sign-in events for the same
// user converge; the create is first-write-wins and the resolver pass is
// idempotent.
func (s *Service) SignIn(ctx context.Context, userID, email, name string) (types.UserRecord, error) {
	logging.Sync("Sign-in: user=%s", userID)

	_, err := s.store.GetUserRecord(userID)
	if errors.Is(err, store.ErrNotFound) {
		rec := types.UserRecord{
			ID:              userID,
			Email:           email,
			Name:            name,
			Role:            types.RolePending,
			AssignedBundles: []types.Bundle{},
		}
		if err := s.store.CreateUserRecord(rec); err != nil {
			return types.UserRecord{}, fmt.Errorf("failed to create user record %s: %w", userID, err)
		}
		logging.Sync("Created pending user record: user=%s", userID)
	} else if err != nil {
		return types.UserRecord{}, err
	}

	if _, err := s.SyncUser(ctx, userID); err != nil {
		return types.UserRecord{}, err
	}
	return s.store.GetUserRecord(userID)
}

// SyncUser runs one resolver pass for a user: fetch the record, validate the
// uniqueness invariant, filter the template catalog down to the templates
// eligible for this user, resolve, and write back only when something was
// appended. Returns whether a write happened.
//
// A missing record is reported as store.ErrNotFound: nothing to synchronize
// yet, the caller must create the record first (SignIn does).
func (s *Service) SyncUser(ctx context.Context, userID string) (bool, error) {
	timer := logging.StartTimer(logging.CategorySync, "SyncUser")
	defer timer.Stop()

	rec, err := s.store.GetUserRecord(userID)
	if err != nil {
		return false, err
	}

	templates, err := s.store.ListTemplates()
	if err != nil {
		return false, fmt.Errorf("failed to list templates: %w", err)
	}

	return s.syncRecord(rec, templates)
}

// SyncAll runs a resolver pass over every user record, e.g. after an admin
// broadens a template's audience. Records fail independently; failures come
// back as a *PartialSyncError and the rest of the pass completes.
func (s *Service) SyncAll(ctx context.Context) (updated int, err error) {
	timer := logging.StartTimer(logging.CategorySync, "SyncAll")
	defer timer.Stop()

	records, err := s.store.ListUserRecords()
	if err != nil {
		return 0, fmt.Errorf("failed to list user records: %w", err)
	}
	templates, err := s.store.ListTemplates()
	if err != nil {
		return 0, fmt.Errorf("failed to list templates: %w", err)
	}

	var failed []RecordFailure
	for _, rec := range records {
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}
		changed, err := s.syncRecord(rec, templates)
		if err != nil {
			failed = append(failed, RecordFailure{UserID: rec.ID, Err: err})
			continue
		}
		if changed {
			updated++
		}
	}

	logging.Sync("SyncAll complete: records=%d updated=%d failed=%d", len(records), updated, len(failed))
	if len(failed) > 0 {
		return updated, &PartialSyncError{Failed: failed}
	}
	return updated, nil
}

func (s *Service) syncRecord(rec types.UserRecord, templates []types.Template) (bool, error) {
	if err := assign.ValidateBundles(rec.ID, rec.AssignedBundles); err != nil {
		return false, err
	}

	eligible := assign.EligibleTemplates(templates, rec.ID)
	resolved := assign.Resolve(rec.AssignedBundles, eligible)

	// Resolve only ever appends, so an unchanged length means an unchanged
	// value and no write is owed.
	if len(resolved) == len(rec.AssignedBundles) {
		logging.SyncDebug("Resolver pass no-op: user=%s bundles=%d", rec.ID, len(resolved))
		return false, nil
	}

	if err := s.store.UpdateAssignedBundles(rec.ID, resolved); err != nil {
		return false, fmt.Errorf("failed to persist bundles for %s: %w", rec.ID, err)
	}
	logging.Sync("Resolver appended bundles: user=%s before=%d after=%d",
		rec.ID, len(rec.AssignedBundles), len(resolved))
	return true, nil
}

// ToggleTask flips one task's completion flag on a user's bundle and
// persists the result. Missing bundle or task ids are a silent no-op with no
// write: the bundle may have been cascade-deleted since the caller last read
// it.
func (s *Service) ToggleTask(ctx context.Context, userID, originID, taskID string) error {
	rec, err := s.store.GetUserRecord(userID)
	if err != nil {
		return err
	}

	bundles, changed := assign.ToggleTask(rec.AssignedBundles, originID, taskID)
	if !changed {
		logging.SyncDebug("Toggle no-op: user=%s origin=%s task=%s", userID, originID, taskID)
		return nil
	}
	return s.store.UpdateAssignedBundles(userID, bundles)
}

// ToggleSubTask is ToggleTask one level down. The parent task's flag is
// never touched.
func (s *Service) ToggleSubTask(ctx context.Context, userID, originID, taskID, subTaskID string) error {
	rec, err := s.store.GetUserRecord(userID)
	if err != nil {
		return err
	}

	bundles, changed := assign.ToggleSubTask(rec.AssignedBundles, originID, taskID, subTaskID)
	if !changed {
		logging.SyncDebug("Subtask toggle no-op: user=%s origin=%s task=%s sub=%s",
			userID, originID, taskID, subTaskID)
		return nil
	}
	return s.store.UpdateAssignedBundles(userID, bundles)
}
