package session

import (
	"fmt"
	"strings"
)

// RecordFailure ties one failed user record update to its cause.
type RecordFailure struct {
	UserID string
	Err    error
}

// PartialCascadeError reports a cascade-delete that updated some user
// records but not others. The template document may already be gone; the
// listed records still hold (or could not be checked for) the stale bundle.
// Retrying via RetryCascade with FailedUserIDs is safe because removal is
// idempotent.
type PartialCascadeError struct {
	TemplateID string
	Failed     []RecordFailure
}

func (e *PartialCascadeError) Error() string {
	return fmt.Sprintf("cascade-delete of template %s incomplete: %d record(s) failed (%s)",
		e.TemplateID, len(e.Failed), strings.Join(e.FailedUserIDs(), ", "))
}

// FailedUserIDs returns the ids of the records still needing the removal.
func (e *PartialCascadeError) FailedUserIDs() []string {
	ids := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		ids = append(ids, f.UserID)
	}
	return ids
}

// PartialSyncError reports a SyncAll pass in which some records could not be
// resolved or written. Re-running SyncAll is safe; resolution is idempotent.
type PartialSyncError struct {
	Failed []RecordFailure
}

func (e *PartialSyncError) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		ids = append(ids, f.UserID)
	}
	return fmt.Sprintf("sync incomplete: %d record(s) failed (%s)",
		len(e.Failed), strings.Join(ids, ", "))
}
