// Package types provides shared type definitions used across checklistd packages.
// This package exists to break import cycles between assign, store, and session.
// Types in this package should be foundational data structures with no complex dependencies.
//
// The JSON tags mirror the persisted document format: a Template document and a
// UserRecord document are independent top-level documents keyed by opaque ids,
// and a Bundle is an embedded sub-document inside the UserRecord (field name
// "assignedTasks" in the stored document).
package types

// Role gates what a user may do. New users always start as RolePending and
// must be promoted by an administrator.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RolePending    Role = "pending"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RolePending:
		return true
	}
	return false
}

// AudienceEveryone is the sentinel audience member meaning "every user".
const AudienceEveryone = "everyone"

// =============================================================================
// TEMPLATE SIDE (admin-authored, shared)
// =============================================================================

// SubTaskTemplate is one subtask line inside a TaskTemplate.
type SubTaskTemplate struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// TaskTemplate is one ordered task inside a Template.
type TaskTemplate struct {
	ID       string            `json:"id"`
	Label    string            `json:"label"`
	SubTasks []SubTaskTemplate `json:"subTasks,omitempty"`
}

// Template is an administrator-authored, reusable checklist definition with a
// target audience. Templates are read by the resolver and never carry
// completion state.
type Template struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Tasks               []TaskTemplate `json:"tasks"`
	AssignedInstructors []string       `json:"assignedInstructors"`
}

// AudienceContains reports whether the template's audience covers the given
// instructor id, either via the AudienceEveryone sentinel or by explicit
// membership.
func (t Template) AudienceContains(instructorID string) bool {
	for _, a := range t.AssignedInstructors {
		if a == AudienceEveryone || a == instructorID {
			return true
		}
	}
	return false
}

// =============================================================================
// BUNDLE SIDE (per-user, mutable)
// =============================================================================

// SubTaskInstance is a user's copy of a subtask with its own completion flag.
type SubTaskInstance struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
}

// TaskInstance is a user's copy of a task. Completed is owned exclusively by
// the user and is never reset by synchronization. Task and subtask flags are
// independent; there is no roll-up in either direction.
type TaskInstance struct {
	ID        string            `json:"id"`
	Label     string            `json:"label"`
	Completed bool              `json:"completed"`
	SubTasks  []SubTaskInstance `json:"subTasks"`
}

// Bundle is one user's private instantiation of a Template. OriginID equals
// the originating Template's id and is unique within a user's bundles for all
// time: a template is instantiated at most once per user, even across many
// synchronization passes.
type Bundle struct {
	OriginID string         `json:"originId"`
	Name     string         `json:"name"`
	Tasks    []TaskInstance `json:"tasks"`
}

// UserRecord is one user's document: identity, role, and the ordered sequence
// of assigned bundles.
type UserRecord struct {
	ID              string   `json:"id"`
	Email           string   `json:"email"`
	Name            string   `json:"name"`
	Role            Role     `json:"role"`
	AssignedBundles []Bundle `json:"assignedTasks"`
}
