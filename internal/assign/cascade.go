package assign

import "checklistd/internal/types"

// RemoveBundle drops the bundle instantiated from templateID, if present.
// At most one bundle is removed (OriginID uniqueness guarantees at most one
// match) and the whole bundle goes, never a partial task set. When nothing
// matches the input is returned unchanged with changed=false, so applying
// the removal twice converges: removing an already-removed bundle is a no-op.
//
// The cascade-delete coordinator in internal/session applies this across
// every user record and persists only the records that changed.
func RemoveBundle(bundles []types.Bundle, templateID string) (out []types.Bundle, changed bool) {
	bi := bundleIndex(bundles, templateID)
	if bi < 0 {
		return bundles, false
	}

	out = make([]types.Bundle, 0, len(bundles)-1)
	out = append(out, bundles[:bi]...)
	out = append(out, bundles[bi+1:]...)
	return out, true
}
