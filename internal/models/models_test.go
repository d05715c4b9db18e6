package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskSetStatus_CompletedAtFollowsStatus(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	task := Task{ID: "a", Text: "Buy milk", Status: StatusNotStarted, CreatedAt: now}

	task.SetStatus(StatusCompleted, now)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, now, *task.CompletedAt)
	assert.NoError(t, task.Validate())

	task.SetStatus(StatusInProgress, now.Add(time.Minute))
	assert.Nil(t, task.CompletedAt)
	assert.NoError(t, task.Validate())
}

func TestTaskValidate(t *testing.T) {
	now := time.Now()
	assert.Error(t, Task{Status: StatusNotStarted}.Validate())
	assert.Error(t, Task{ID: "x", Status: "Blocked"}.Validate())
	assert.Error(t, Task{ID: "x", Status: StatusCompleted}.Validate())
	assert.Error(t, Task{ID: "x", Status: StatusNotStarted, CompletedAt: &now}.Validate())
	assert.NoError(t, Task{ID: "x", Status: StatusCompleted, CompletedAt: &now}.Validate())
}

func TestParseStatusAndNoteType(t *testing.T) {
	s, err := ParseStatus("In Progress")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, s)
	_, err = ParseStatus("in_progress")
	assert.Error(t, err)

	nt, err := ParseNoteType("")
	require.NoError(t, err)
	assert.Equal(t, NoteParagraph, nt)
	_, err = ParseNoteType("table")
	assert.Error(t, err)
}

func TestTaskClone_DoesNotAlias(t *testing.T) {
	due := time.Now()
	orig := Task{ID: "a", DueDate: &due, Notes: &Note{ID: "n", Content: Document{Blocks: []Block{{Type: "paragraph"}}}}}
	cp := orig.Clone()
	*cp.DueDate = due.Add(time.Hour)
	cp.Notes.Content.Blocks[0].Type = "header"
	assert.Equal(t, due, *orig.DueDate)
	assert.Equal(t, "paragraph", orig.Notes.Content.Blocks[0].Type)
}

func TestTaskClone_CopiesBlockData(t *testing.T) {
	orig := Task{ID: "a", Notes: &Note{ID: "n", Content: Document{Blocks: []Block{
		{Type: "paragraph", Data: json.RawMessage(`{"text":"hi"}`)},
		{Type: "list"},
	}}}}
	cp := orig.Clone()
	cp.Notes.Content.Blocks[0].Data[2] = 'X'

	assert.JSONEq(t, `{"text":"hi"}`, string(orig.Notes.Content.Blocks[0].Data))
	assert.Nil(t, cp.Notes.Content.Blocks[1].Data)

	empty := Task{ID: "b", Notes: &Note{ID: "m"}}
	assert.Nil(t, empty.Clone().Notes.Content.Blocks)
}
