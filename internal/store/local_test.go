package store

import (
	"errors"
	"testing"

	"checklistd/internal/types"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create local store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewLocalStore(t *testing.T) {
	s := newTestStore(t)

	if s.GetDB() == nil {
		t.Error("GetDB returned nil")
	}

	stats, err := s.GetStats()
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	for _, table := range []string{"templates", "users"} {
		if _, ok := stats[table]; !ok {
			t.Errorf("Stats missing table: %s", table)
		}
	}
}

func TestTemplateCRUD(t *testing.T) {
	s := newTestStore(t)

	tpl := types.Template{
		Name:                "Onboarding",
		AssignedInstructors: []string{types.AudienceEveryone},
		Tasks: []types.TaskTemplate{
			{Label: "Read handbook", SubTasks: []types.SubTaskTemplate{{Label: "Chapter 1"}}},
			{Label: "Set up badge"},
		},
	}
	if err := s.CreateTemplate(&tpl); err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}

	// Ids are minted for template, tasks and subtasks.
	if tpl.ID == "" {
		t.Error("template id not minted")
	}
	if tpl.Tasks[0].ID == "" || tpl.Tasks[1].ID == "" {
		t.Error("task ids not minted")
	}
	if tpl.Tasks[0].SubTasks[0].ID == "" {
		t.Error("subtask id not minted")
	}

	got, err := s.GetTemplate(tpl.ID)
	if err != nil {
		t.Fatalf("GetTemplate failed: %v", err)
	}
	if got.Name != "Onboarding" || len(got.Tasks) != 2 {
		t.Errorf("unexpected template: %+v", got)
	}

	got.Name = "Onboarding v2"
	if err := s.UpdateTemplate(got); err != nil {
		t.Fatalf("UpdateTemplate failed: %v", err)
	}
	reloaded, err := s.GetTemplate(tpl.ID)
	if err != nil {
		t.Fatalf("GetTemplate after update failed: %v", err)
	}
	if reloaded.Name != "Onboarding v2" {
		t.Errorf("update not persisted: %+v", reloaded)
	}

	all, err := s.ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("ListTemplates returned %d templates, want 1", len(all))
	}

	if err := s.DeleteTemplate(tpl.ID); err != nil {
		t.Fatalf("DeleteTemplate failed: %v", err)
	}
	if _, err := s.GetTemplate(tpl.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTemplate after delete: err=%v, want ErrNotFound", err)
	}
	if err := s.DeleteTemplate(tpl.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err=%v, want ErrNotFound", err)
	}
}

func TestTemplateNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetTemplate("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTemplate: err=%v, want ErrNotFound", err)
	}
	if err := s.UpdateTemplate(types.Template{ID: "missing", Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateTemplate: err=%v, want ErrNotFound", err)
	}
}

func TestUserRecordLifecycle(t *testing.T) {
	s := newTestStore(t)

	u := types.UserRecord{
		ID:    "u1",
		Email: "kim@example.com",
		Name:  "Kim",
		Role:  types.RolePending,
	}
	if err := s.CreateUserRecord(u); err != nil {
		t.Fatalf("CreateUserRecord failed: %v", err)
	}

	got, err := s.GetUserRecord("u1")
	if err != nil {
		t.Fatalf("GetUserRecord failed: %v", err)
	}
	if got.Role != types.RolePending {
		t.Errorf("role = %s, want pending", got.Role)
	}
	if got.AssignedBundles == nil || len(got.AssignedBundles) != 0 {
		t.Errorf("assigned bundles = %v, want empty", got.AssignedBundles)
	}

	// Duplicate sign-in events converge: first write wins.
	dup := u
	dup.Name = "Someone Else"
	if err := s.CreateUserRecord(dup); err != nil {
		t.Fatalf("duplicate CreateUserRecord failed: %v", err)
	}
	got, _ = s.GetUserRecord("u1")
	if got.Name != "Kim" {
		t.Errorf("duplicate create overwrote record: %+v", got)
	}
}

func TestUpdateAssignedBundles(t *testing.T) {
	s := newTestStore(t)

	if err := s.CreateUserRecord(types.UserRecord{ID: "u1", Role: types.RoleInstructor}); err != nil {
		t.Fatalf("CreateUserRecord failed: %v", err)
	}

	bundles := []types.Bundle{{
		OriginID: "t1",
		Name:     "Setup",
		Tasks:    []types.TaskInstance{{ID: "k1", Label: "Read", SubTasks: []types.SubTaskInstance{}}},
	}}
	if err := s.UpdateAssignedBundles("u1", bundles); err != nil {
		t.Fatalf("UpdateAssignedBundles failed: %v", err)
	}

	got, err := s.GetUserRecord("u1")
	if err != nil {
		t.Fatalf("GetUserRecord failed: %v", err)
	}
	if len(got.AssignedBundles) != 1 || got.AssignedBundles[0].OriginID != "t1" {
		t.Errorf("bundles not persisted: %+v", got.AssignedBundles)
	}
	// The other fields survive a bundle write untouched.
	if got.Role != types.RoleInstructor {
		t.Errorf("role changed by bundle write: %s", got.Role)
	}

	if err := s.UpdateAssignedBundles("missing", bundles); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateAssignedBundles on missing user: err=%v, want ErrNotFound", err)
	}
}

func TestRolesAndListing(t *testing.T) {
	s := newTestStore(t)

	for _, u := range []types.UserRecord{
		{ID: "a", Role: types.RolePending},
		{ID: "b", Role: types.RolePending},
		{ID: "c", Role: types.RoleAdmin},
	} {
		if err := s.CreateUserRecord(u); err != nil {
			t.Fatalf("CreateUserRecord failed: %v", err)
		}
	}

	if err := s.UpdateUserRole("b", types.RoleInstructor); err != nil {
		t.Fatalf("UpdateUserRole failed: %v", err)
	}
	if err := s.UpdateUserRole("b", "superuser"); err == nil {
		t.Error("invalid role accepted")
	}
	if err := s.UpdateUserRole("missing", types.RoleInstructor); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateUserRole on missing user: err=%v, want ErrNotFound", err)
	}

	instructors, err := s.ListUsersByRole(types.RoleInstructor)
	if err != nil {
		t.Fatalf("ListUsersByRole failed: %v", err)
	}
	if len(instructors) != 1 || instructors[0].ID != "b" {
		t.Errorf("instructors = %+v, want just b", instructors)
	}

	all, err := s.ListUserRecords()
	if err != nil {
		t.Fatalf("ListUserRecords failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListUserRecords returned %d users, want 3", len(all))
	}
}
