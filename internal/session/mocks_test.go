package session

import (
	"sync"

	"checklistd/internal/store"
	"checklistd/internal/types"
)

// fakeStore is an in-memory Store with per-user failure injection, enough to
// drive the service without SQLite.
type fakeStore struct {
	mu        sync.Mutex
	templates []types.Template
	users     map[string]types.UserRecord
	userOrder []string

	failUpdate map[string]error // userID -> error returned by UpdateAssignedBundles
	updates    map[string]int   // userID -> write count
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      make(map[string]types.UserRecord),
		failUpdate: make(map[string]error),
		updates:    make(map[string]int),
	}
}

func (f *fakeStore) addTemplate(t types.Template) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates = append(f.templates, t)
}

func (f *fakeStore) addUser(u types.UserRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		f.userOrder = append(f.userOrder, u.ID)
	}
	f.users[u.ID] = u
}

func (f *fakeStore) ListTemplates() ([]types.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.Template, len(f.templates))
	copy(out, f.templates)
	return out, nil
}

func (f *fakeStore) DeleteTemplate(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.templates {
		if t.ID == id {
			f.templates = append(f.templates[:i], f.templates[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) GetUserRecord(id string) (types.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return types.UserRecord{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) CreateUserRecord(u types.UserRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; ok {
		return nil // first write wins
	}
	f.users[u.ID] = u
	f.userOrder = append(f.userOrder, u.ID)
	return nil
}

func (f *fakeStore) ListUserRecords() ([]types.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.UserRecord, 0, len(f.userOrder))
	for _, id := range f.userOrder {
		out = append(out, f.users[id])
	}
	return out, nil
}

func (f *fakeStore) UpdateAssignedBundles(userID string, bundles []types.Bundle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failUpdate[userID]; ok {
		return err
	}
	u, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.AssignedBundles = bundles
	f.users[userID] = u
	f.updates[userID]++
	return nil
}

func (f *fakeStore) writeCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates[userID]
}
