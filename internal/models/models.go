package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// FilterAll bypasses status filtering in the task list.
const FilterAll = "All"

// ValidTaskStatuses enumerates the statuses a task may hold.
var ValidTaskStatuses = map[Status]struct{}{
	StatusNotStarted: {},
	StatusInProgress: {},
	StatusCompleted:  {},
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := ValidTaskStatuses[s]; !ok {
		return "", fmt.Errorf("invalid status %q", raw)
	}
	return s, nil
}

// NoteType describes the dominant block kind of a note.
type NoteType string

const (
	NoteParagraph NoteType = "paragraph"
	NoteChecklist NoteType = "checklist"
	NoteHeader    NoteType = "header"
)

// ParseNoteType validates a note type, defaulting to paragraph when empty.
func ParseNoteType(raw string) (NoteType, error) {
	switch NoteType(raw) {
	case "":
		return NoteParagraph, nil
	case NoteParagraph, NoteChecklist, NoteHeader:
		return NoteType(raw), nil
	}
	return "", fmt.Errorf("invalid note type %q", raw)
}

// Block is a single typed content block of a rich-text document.
// Data is kept raw; only the editor interprets it.
type Block struct {
	ID   string          `json:"id,omitempty"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Document is the structured value produced by the note editor.
type Document struct {
	Time    int64   `json:"time,omitempty"`
	Blocks  []Block `json:"blocks"`
	Version string  `json:"version,omitempty"`
}

// EmptyDocument returns a document with no blocks stamped at now.
func EmptyDocument(now time.Time) Document {
	return Document{Time: now.UnixMilli(), Blocks: []Block{}}
}

// Note is the single rich-text note attached to a task.
type Note struct {
	ID        string    `json:"id"`
	Content   Document  `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	IsPinned  bool      `json:"isPinned"`
	Type      NoteType  `json:"type"`
}

// Task is a to-do item.
type Task struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Notes       *Note      `json:"notes,omitempty"`
}

// SetStatus moves the task to status, stamping or clearing CompletedAt.
func (t *Task) SetStatus(status Status, now time.Time) {
	t.Status = status
	if status == StatusCompleted {
		ts := now
		t.CompletedAt = &ts
		return
	}
	t.CompletedAt = nil
}

// Validate reports whether the task satisfies the model invariants.
func (t Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task id must not be empty")
	}
	if _, ok := ValidTaskStatuses[t.Status]; !ok {
		return fmt.Errorf("task %s: invalid status %q", t.ID, t.Status)
	}
	if (t.Status == StatusCompleted) != (t.CompletedAt != nil) {
		return fmt.Errorf("task %s: completedAt must be set only when completed", t.ID)
	}
	return nil
}

// Clone returns a deep copy so callers cannot alias stored pointers.
func (t Task) Clone() Task {
	out := t
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		out.CompletedAt = &c
	}
	if t.Notes != nil {
		n := *t.Notes
		if t.Notes.Content.Blocks != nil {
			n.Content.Blocks = make([]Block, len(t.Notes.Content.Blocks))
			for i, b := range t.Notes.Content.Blocks {
				if b.Data != nil {
					b.Data = append(json.RawMessage(nil), b.Data...)
				}
				n.Content.Blocks[i] = b
			}
		}
		out.Notes = &n
	}
	return out
}
