package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"checklistd/internal/assign"
	"checklistd/internal/logging"
	"checklistd/internal/store"
	"checklistd/internal/types"
)

// DeleteTemplate deletes a template document and cascades the removal of its
// bundle through every user record. The two steps form one logical operation
// without a cross-document transaction, so either side can fail
// independently; a partially applied cascade is surfaced as a
// *PartialCascadeError listing the records still holding the bundle.
//
// A template row that is already gone is not an error here: a retry after a
// previous partial failure must still be able to finish the cascade.
func (s *Service) DeleteTemplate(ctx context.Context, templateID string) error {
	timer := logging.StartTimer(logging.CategoryCascade, "DeleteTemplate")
	defer timer.Stop()

	if err := s.store.DeleteTemplate(templateID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("failed to delete template %s: %w", templateID, err)
		}
		logging.Cascade("Template %s already deleted; resuming cascade", templateID)
	}

	records, err := s.store.ListUserRecords()
	if err != nil {
		return fmt.Errorf("failed to list user records: %w", err)
	}

	failed := s.cascade(ctx, templateID, records)
	if len(failed) > 0 {
		return &PartialCascadeError{TemplateID: templateID, Failed: failed}
	}
	return nil
}

// RetryCascade re-runs the bundle removal for a specific set of user ids,
// typically PartialCascadeError.FailedUserIDs() from an earlier attempt.
// Removal is idempotent, so records that were fixed in the meantime are
// skipped without a write.
func (s *Service) RetryCascade(ctx context.Context, templateID string, userIDs []string) error {
	var records []types.UserRecord
	var failed []RecordFailure
	for _, id := range userIDs {
		rec, err := s.store.GetUserRecord(id)
		if errors.Is(err, store.ErrNotFound) {
			// Record deleted since the first attempt; nothing left to clean.
			continue
		}
		if err != nil {
			failed = append(failed, RecordFailure{UserID: id, Err: err})
			continue
		}
		records = append(records, rec)
	}

	failed = append(failed, s.cascade(ctx, templateID, records)...)
	if len(failed) > 0 {
		return &PartialCascadeError{TemplateID: templateID, Failed: failed}
	}
	return nil
}

// cascade applies RemoveBundle across the given records with bounded
// concurrency. Each record is independent: order of completion carries no
// meaning, a failure on one record never blocks another, and only records
// that actually held the bundle are written.
func (s *Service) cascade(ctx context.Context, templateID string, records []types.UserRecord) []RecordFailure {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cascadeWorkers)

	var mu sync.Mutex
	var failed []RecordFailure
	removed := 0

	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				failed = append(failed, RecordFailure{UserID: rec.ID, Err: err})
				mu.Unlock()
				return nil
			}

			bundles, changed := assign.RemoveBundle(rec.AssignedBundles, templateID)
			if !changed {
				return nil
			}
			if err := s.store.UpdateAssignedBundles(rec.ID, bundles); err != nil {
				logging.Get(logging.CategoryCascade).Error("Failed to update user %s: %v", rec.ID, err)
				mu.Lock()
				failed = append(failed, RecordFailure{UserID: rec.ID, Err: err})
				mu.Unlock()
				return nil
			}
			mu.Lock()
			removed++
			mu.Unlock()
			return nil
		})
	}
	// Goroutines report failures through the shared slice, never as errors,
	// so one bad record cannot cancel the rest of the fan-out.
	_ = g.Wait()

	sort.Slice(failed, func(i, j int) bool { return failed[i].UserID < failed[j].UserID })
	logging.Cascade("Cascade for template %s: records=%d removed=%d failed=%d",
		templateID, len(records), removed, len(failed))
	return failed
}
