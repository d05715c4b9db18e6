package viewmodel

import (
	"fmt"
)

// The save indicator is cosmetic: nothing is awaited. Each trigger holds the
// flag for the configured latency and overlapping triggers are never
// cancelled, so IsSaving means at least one cycle is still running.
func (m *Model) triggerSave() {
	m.mu.Lock()
	m.inFlight++
	m.mu.Unlock()
	m.metrics.SimulatedSave()

	m.clock.AfterFunc(m.latency, func() {
		now := m.clock.Now()
		m.mu.Lock()
		defer m.mu.Unlock()
		m.inFlight--
		m.lastSaved = &now
	})
}

// TriggerManualSave starts a save cycle unless one is already running.
func (m *Model) TriggerManualSave() bool {
	m.mu.Lock()
	busy := m.inFlight > 0
	m.mu.Unlock()
	if busy {
		return false
	}
	m.triggerSave()
	return true
}

// SaveStatus returns the indicator state and its text.
func (m *Model) SaveStatus() SaveStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveStatusLocked()
}

func (m *Model) saveStatusLocked() SaveStatus {
	st := SaveStatus{IsSaving: m.inFlight > 0, Text: "All changes saved"}
	if m.lastSaved != nil {
		last := *m.lastSaved
		st.LastSaved = &last
		seconds := int(m.clock.Now().Sub(last).Seconds())
		st.Text = fmt.Sprintf("Saved %ds ago", seconds)
	}
	return st
}
