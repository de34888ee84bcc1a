package assign

import (
	"fmt"

	"checklistd/internal/types"
)

// InvariantError reports a user record holding more than one bundle with the
// same origin id. This should never happen with correct callers; it indicates
// an upstream bug in the eligibility/merge step, so it is surfaced instead of
// silently picking one of the duplicates.
type InvariantError struct {
	UserID   string
	OriginID string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("user %s holds duplicate bundles for template %s", e.UserID, e.OriginID)
}

// ValidateBundles checks the OriginID uniqueness invariant over one user's
// bundle list. userID is only used for error reporting.
func ValidateBundles(userID string, bundles []types.Bundle) error {
	seen := make(map[string]bool, len(bundles))
	for _, b := range bundles {
		if seen[b.OriginID] {
			return &InvariantError{UserID: userID, OriginID: b.OriginID}
		}
		seen[b.OriginID] = true
	}
	return nil
}
