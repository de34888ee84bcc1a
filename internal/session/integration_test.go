package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"checklistd/internal/store"
	"checklistd/internal/types"
)

// TestEndToEndScenario walks the full lifecycle against a real SQLite store:
// admin authors a template, a new user signs in and receives it, completes a
// task, and the admin deletes the template out from under them.
func TestEndToEndScenario(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()

	st, err := store.NewLocalStore(":memory:")
	require.NoError(t, err)
	defer st.Close()

	svc := NewService(st, 4)

	tpl := types.Template{
		ID:                  "t1",
		Name:                "Setup",
		AssignedInstructors: []string{types.AudienceEveryone},
		Tasks:               []types.TaskTemplate{{ID: "k1", Label: "Read"}},
	}
	require.NoError(t, st.CreateTemplate(&tpl))

	// New user signs in and the resolver instantiates their copy.
	rec, err := svc.SignIn(ctx, "u1", "kim@example.com", "Kim")
	require.NoError(t, err)
	require.Len(t, rec.AssignedBundles, 1)
	b := rec.AssignedBundles[0]
	assert.Equal(t, "t1", b.OriginID)
	assert.Equal(t, "Setup", b.Name)
	require.Len(t, b.Tasks, 1)
	assert.Equal(t, "k1", b.Tasks[0].ID)
	assert.Equal(t, "Read", b.Tasks[0].Label)
	assert.False(t, b.Tasks[0].Completed)
	assert.Empty(t, b.Tasks[0].SubTasks)

	// User completes the task.
	require.NoError(t, svc.ToggleTask(ctx, "u1", "t1", "k1"))
	rec, err = st.GetUserRecord("u1")
	require.NoError(t, err)
	assert.True(t, rec.AssignedBundles[0].Tasks[0].Completed)

	// A refresh does not reset completion or duplicate the bundle.
	changed, err := svc.SyncUser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, changed)
	rec, _ = st.GetUserRecord("u1")
	require.Len(t, rec.AssignedBundles, 1)
	assert.True(t, rec.AssignedBundles[0].Tasks[0].Completed)

	// Admin deletes the template; the bundle cascades away.
	require.NoError(t, svc.DeleteTemplate(ctx, "t1"))
	rec, err = st.GetUserRecord("u1")
	require.NoError(t, err)
	assert.Empty(t, rec.AssignedBundles)

	_, err = st.GetTemplate("t1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// A later sign-in finds nothing to assign.
	rec, err = svc.SignIn(ctx, "u1", "kim@example.com", "Kim")
	require.NoError(t, err)
	assert.Empty(t, rec.AssignedBundles)
}

// TestConcurrentSyncConverges fires duplicate session-refresh events; the
// read-modify-write races are accepted (last write wins) and every outcome
// holds exactly one bundle per template.
func TestConcurrentSyncConverges(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()

	st, err := store.NewLocalStore(":memory:")
	require.NoError(t, err)
	defer st.Close()

	svc := NewService(st, 4)

	tpl := setupTemplate("t1", "Setup", types.AudienceEveryone)
	require.NoError(t, st.CreateTemplate(&tpl))
	require.NoError(t, st.CreateUserRecord(types.UserRecord{ID: "u1", Role: types.RolePending}))

	done := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			_, err := svc.SyncUser(ctx, "u1")
			done <- err
		}()
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, <-done)
	}

	rec, err := st.GetUserRecord("u1")
	require.NoError(t, err)
	require.Len(t, rec.AssignedBundles, 1)
	assert.Equal(t, "t1", rec.AssignedBundles[0].OriginID)
}
