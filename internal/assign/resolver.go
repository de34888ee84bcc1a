// Package assign implements the pure assignment core: the resolver that turns
// shared checklist templates into per-user bundles, the completion-state
// mutators, and the per-record cascade removal primitive.
//
// Every function in this package is a synchronous value transform: no I/O, no
// logging, no storage. Persistence of the returned values is the caller's
// responsibility (see internal/session). This keeps the resolver the single
// translation point between Template and Bundle; nothing else in the system
// is allowed to merge the two ad hoc.
package assign

import "checklistd/internal/types"

// EligibleTemplates filters templates down to those whose audience covers the
// given instructor id: the audience contains the "everyone" sentinel or the
// id itself. Resolve performs no audience checks of its own, so callers must
// pre-filter with this function (or an equivalent) before resolving.
func EligibleTemplates(templates []types.Template, instructorID string) []types.Template {
	var eligible []types.Template
	for _, t := range templates {
		if t.AudienceContains(instructorID) {
			eligible = append(eligible, t)
		}
	}
	return eligible
}

// Resolve computes the bundle list a user should hold given their existing
// bundles and the templates currently eligible for them.
//
// Existing bundles are returned unmodified and in their original relative
// order; completion state is untouched. Each eligible template whose id is
// not already present (matched by OriginID) is instantiated with every flag
// false and appended, in the iteration order of eligible. When nothing is
// missing the input slice is returned as-is, which makes Resolve idempotent:
// resolving twice with the same inputs yields the same value with no
// duplicate bundles.
func Resolve(existing []types.Bundle, eligible []types.Template) []types.Bundle {
	assigned := make(map[string]bool, len(existing))
	for _, b := range existing {
		assigned[b.OriginID] = true
	}

	var missing []types.Template
	for _, t := range eligible {
		if !assigned[t.ID] {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return existing
	}

	merged := make([]types.Bundle, len(existing), len(existing)+len(missing))
	copy(merged, existing)
	for _, t := range missing {
		merged = append(merged, Instantiate(t))
	}
	return merged
}

// Instantiate produces a fresh Bundle from a Template: name copied, ids
// carried over task by task, every completion flag false. Templates are
// versioned only at instantiation time; later template edits never propagate
// into bundles created here.
func Instantiate(t types.Template) types.Bundle {
	tasks := make([]types.TaskInstance, 0, len(t.Tasks))
	for _, tt := range t.Tasks {
		subs := make([]types.SubTaskInstance, 0, len(tt.SubTasks))
		for _, st := range tt.SubTasks {
			subs = append(subs, types.SubTaskInstance{
				ID:    st.ID,
				Label: st.Label,
			})
		}
		tasks = append(tasks, types.TaskInstance{
			ID:       tt.ID,
			Label:    tt.Label,
			SubTasks: subs,
		})
	}
	return types.Bundle{
		OriginID: t.ID,
		Name:     t.Name,
		Tasks:    tasks,
	}
}
