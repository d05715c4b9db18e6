package viewmodel

import (
	"folio/internal/models"
	"folio/internal/view"
)

// Select makes id the task shown in the detail view.
func (m *Model) Select(id string) bool {
	task, ok := m.store.Get(id)
	if !ok {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setSelectedLocked(&task)
	m.detailsOpen = true
	return true
}

// ClearSelection closes the detail view.
func (m *Model) ClearSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = nil
	m.detailsOpen = false
}

// SetDetailsOpen toggles the detail view without changing the selection.
func (m *Model) SetDetailsOpen(open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailsOpen = open
}

// Selected returns the selected task, if any.
func (m *Model) Selected() (models.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected == nil {
		return models.Task{}, false
	}
	return m.selected.Clone(), true
}

// Detail returns the detail view buffers.
func (m *Model) Detail() DetailBuffers {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detail
}

// syncSelection runs after every store mutation so the detail view never
// shows a stale record. A selected task that was deleted is deselected.
func (m *Model) syncSelection(tasks []models.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected == nil {
		return
	}
	for i := range tasks {
		if tasks[i].ID == m.selected.ID {
			fresh := tasks[i].Clone()
			m.setSelectedLocked(&fresh)
			return
		}
	}
	m.selected = nil
	m.detailsOpen = false
}

func (m *Model) setSelectedLocked(task *models.Task) {
	m.selected = task
	m.detail.Status = task.Status
	m.detail.DueDate = FormatDateForInput(task.DueDate)

	doc := models.EmptyDocument(m.clock.Now())
	if task.Notes != nil {
		c := task.Notes.Content
		if c.Time != 0 {
			doc.Time = c.Time
		}
		if c.Blocks != nil {
			doc.Blocks = append([]models.Block(nil), c.Blocks...)
		}
		doc.Version = c.Version
	}
	m.detail.Editor = doc
}

// SetSearch changes the search term and returns to page 1.
func (m *Model) SetSearch(term string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params = m.params.WithSearch(term)
}

// SetFilter changes the status filter and returns to page 1.
func (m *Model) SetFilter(filter string) error {
	f, err := view.ParseFilter(filter)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params = m.params.WithFilter(f)
	return nil
}

// SetSort changes ordering and keeps the current page.
func (m *Model) SetSort(key view.SortKey, dir view.SortDir) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params = m.params.WithSort(key, dir)
}

// SetPage moves to page n; values below 1 are clamped.
func (m *Model) SetPage(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params.Page = max(n, 1)
}

// Params returns the current list parameters.
func (m *Model) Params() view.Params {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.params
}

// Tasks returns the full collection in store order.
func (m *Model) Tasks() []models.Task {
	return m.store.List()
}

// Page computes the derived list for the current parameters.
func (m *Model) Page() view.Result {
	return view.Compute(m.store.List(), m.Params())
}

// Snapshot captures all UI state, including the current page.
func (m *Model) Snapshot() State {
	tasks := m.store.List()

	m.mu.Lock()
	defer m.mu.Unlock()
	st := State{
		DialogOpen:  m.dialogOpen,
		Form:        m.form,
		EditingID:   m.editingID,
		Params:      m.params,
		Page:        view.Compute(tasks, m.params),
		DetailsOpen: m.detailsOpen,
		Detail:      m.detail,
		Save:        m.saveStatusLocked(),
		Error:       m.lastError,
	}
	if m.selected != nil {
		sel := m.selected.Clone()
		st.Selected = &sel
	}
	return st
}
