package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"checklistd/internal/logging"
	"checklistd/internal/types"
)

// =============================================================================
// TEMPLATE DOCUMENTS (admin-authored checklist definitions)
// =============================================================================

// CreateTemplate persists a new template document. Missing ids on the
// template and its tasks/subtasks are minted here so authored definitions
// (e.g. from a yaml file) don't need to carry them.
func (s *LocalStore) CreateTemplate(t *types.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ensureTemplateIDs(t)

	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}

	logging.StoreDebug("Creating template: id=%s name=%q tasks=%d", t.ID, t.Name, len(t.Tasks))

	_, err = s.db.Exec("INSERT INTO templates (id, doc) VALUES (?, ?)", t.ID, string(doc))
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to insert template %s: %v", t.ID, err)
		return err
	}

	logging.Store("Template created: id=%s name=%q", t.ID, t.Name)
	return nil
}

// UpdateTemplate overwrites an existing template document. Existing bundles
// instantiated from it are NOT rewritten; templates are versioned only at
// instantiation time.
func (s *LocalStore) UpdateTemplate(t types.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ensureTemplateIDs(&t)

	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}

	res, err := s.db.Exec(
		"UPDATE templates SET doc = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		string(doc), t.ID,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to update template %s: %v", t.ID, err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	logging.Store("Template updated: id=%s name=%q", t.ID, t.Name)
	return nil
}

// GetTemplate loads one template document.
func (s *LocalStore) GetTemplate(id string) (types.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRow("SELECT doc FROM templates WHERE id = ?", id).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.Template{}, ErrNotFound
		}
		return types.Template{}, err
	}

	var t types.Template
	if err := json.Unmarshal([]byte(doc), &t); err != nil {
		return types.Template{}, fmt.Errorf("failed to parse template %s: %w", id, err)
	}
	return t, nil
}

// ListTemplates returns every template document in creation order.
func (s *LocalStore) ListTemplates() ([]types.Template, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ListTemplates")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT doc FROM templates ORDER BY created_at, id")
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to query templates: %v", err)
		return nil, err
	}
	defer rows.Close()

	var templates []types.Template
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			continue
		}
		var t types.Template
		if err := json.Unmarshal([]byte(doc), &t); err != nil {
			logging.Get(logging.CategoryStore).Warn("Skipping unparseable template doc: %v", err)
			continue
		}
		templates = append(templates, t)
	}

	logging.StoreDebug("Listed %d templates", len(templates))
	return templates, rows.Err()
}

// DeleteTemplate removes the template document itself. The cascade across
// user records is the session layer's job; the two steps together form one
// logical operation without a cross-document transaction.
func (s *LocalStore) DeleteTemplate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM templates WHERE id = ?", id)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to delete template %s: %v", id, err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	logging.Store("Template deleted: id=%s", id)
	return nil
}

func ensureTemplateIDs(t *types.Template) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	for i := range t.Tasks {
		if t.Tasks[i].ID == "" {
			t.Tasks[i].ID = uuid.New().String()
		}
		for j := range t.Tasks[i].SubTasks {
			if t.Tasks[i].SubTasks[j].ID == "" {
				t.Tasks[i].SubTasks[j].ID = uuid.New().String()
			}
		}
	}
}
