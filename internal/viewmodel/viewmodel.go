// Package viewmodel orchestrates task mutations, the derived task list, the
// save indicator and the selected task shown in the detail view.
package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"folio/internal/metrics"
	"folio/internal/models"
	"folio/internal/taskstore"
	"folio/internal/timer"
	"folio/internal/view"
)

// DefaultSaveLatency is how long the save indicator stays on.
const DefaultSaveLatency = time.Second

var (
	ErrBlankText      = errors.New("task text must not be blank")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrInvalidDueDate = errors.New("invalid due date")
	ErrSaveFailed     = errors.New("failed to save changes")
)

// FormState holds the add/edit dialog fields.
type FormState struct {
	Text    string `json:"text"`
	DueDate string `json:"dueDate"`
}

// DetailBuffers mirror the selected task for the detail view.
type DetailBuffers struct {
	Status  models.Status   `json:"status"`
	DueDate string          `json:"dueDate"`
	Editor  models.Document `json:"editor"`
}

// SaveStatus is the save indicator.
type SaveStatus struct {
	IsSaving  bool       `json:"isSaving"`
	LastSaved *time.Time `json:"lastSaved,omitempty"`
	Text      string     `json:"text"`
}

// State is a point-in-time copy of all UI state.
type State struct {
	DialogOpen  bool          `json:"dialogOpen"`
	Form        FormState     `json:"form"`
	EditingID   string        `json:"editingId,omitempty"`
	Params      view.Params   `json:"params"`
	Page        view.Result   `json:"page"`
	DetailsOpen bool          `json:"detailsOpen"`
	Selected    *models.Task  `json:"selected,omitempty"`
	Detail      DetailBuffers `json:"detail"`
	Save        SaveStatus    `json:"save"`
	Error       string        `json:"error,omitempty"`
}

// Model is the single-session view model. It never holds its own lock while
// calling into the store, because store change notifications re-enter it.
type Model struct {
	store   *taskstore.Store
	clock   timer.Clock
	latency time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	newID   func() string

	mu          sync.Mutex
	dialogOpen  bool
	form        FormState
	editingID   string
	params      view.Params
	detailsOpen bool
	selected    *models.Task
	detail      DetailBuffers
	inFlight    int
	lastSaved   *time.Time
	lastError   string
}

// Option configures a Model.
type Option func(*Model)

func WithClock(c timer.Clock) Option { return func(m *Model) { m.clock = c } }

func WithSaveLatency(d time.Duration) Option { return func(m *Model) { m.latency = d } }

func WithLogger(l *slog.Logger) Option { return func(m *Model) { m.logger = l } }

func WithMetrics(mt *metrics.Metrics) Option { return func(m *Model) { m.metrics = mt } }

// WithIDGenerator overrides UUID identifiers.
func WithIDGenerator(fn func() string) Option { return func(m *Model) { m.newID = fn } }

// New wires a Model to store and subscribes to its changes.
func New(store *taskstore.Store, opts ...Option) *Model {
	m := &Model{
		store:   store,
		clock:   timer.RealClock{},
		latency: DefaultSaveLatency,
		logger:  slog.Default(),
		newID:   uuid.NewString,
		params:  view.DefaultParams(),
		detail:  DetailBuffers{Status: models.StatusNotStarted},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.detail.Editor = models.EmptyDocument(m.clock.Now())
	store.OnChange(m.syncSelection)
	return m
}

// Now returns the model's current time.
func (m *Model) Now() time.Time { return m.clock.Now() }

// AddOrUpdateTask creates a task from form, or edits the task being edited,
// and returns the record written. Blank text is rejected without touching the
// store. An edited task that has since been deleted yields a zero Task.
func (m *Model) AddOrUpdateTask(ctx context.Context, form FormState) (models.Task, error) {
	due, err := parseForm(form)
	if err != nil {
		return models.Task{}, err
	}

	m.mu.Lock()
	editingID := m.editingID
	m.mu.Unlock()

	var written models.Task
	if editingID != "" {
		written, err = m.edit(ctx, editingID, form.Text, due)
	} else {
		written, err = m.create(ctx, form.Text, due)
	}
	if err != nil {
		return models.Task{}, err
	}
	m.ResetForm()
	return written, nil
}

// EditTask replaces the text and due date of task id. Unlike
// AddOrUpdateTask it leaves the dialog buffers alone.
func (m *Model) EditTask(ctx context.Context, id string, form FormState) (models.Task, error) {
	due, err := parseForm(form)
	if err != nil {
		return models.Task{}, err
	}
	return m.edit(ctx, id, form.Text, due)
}

func parseForm(form FormState) (*time.Time, error) {
	if strings.TrimSpace(form.Text) == "" {
		return nil, ErrBlankText
	}
	return ParseInputDate(form.DueDate)
}

func (m *Model) create(ctx context.Context, text string, due *time.Time) (models.Task, error) {
	task := models.Task{
		ID:        m.newID(),
		Text:      text,
		Status:    models.StatusNotStarted,
		CreatedAt: m.clock.Now(),
		DueDate:   due,
	}
	if err := m.apply("add", m.store.Add(ctx, task)); err != nil {
		return models.Task{}, err
	}
	m.triggerSave()
	return task, nil
}

// edit saves even when the task has gone, matching a submitted dialog.
func (m *Model) edit(ctx context.Context, id, text string, due *time.Time) (models.Task, error) {
	written, err := m.store.Modify(ctx, id, func(t *models.Task) error {
		t.Text = text
		t.DueDate = due
		return nil
	})
	if errors.Is(err, taskstore.ErrNotFound) {
		m.logger.Debug("edited task no longer exists", slog.String("id", id))
	}
	if err := m.apply("update", err); err != nil {
		return models.Task{}, err
	}
	m.triggerSave()
	return written, nil
}

// Task returns the stored task with the given id.
func (m *Model) Task(id string) (models.Task, bool) {
	return m.store.Get(id)
}

// StartEditing loads a task into the form and opens the dialog.
func (m *Model) StartEditing(id string) bool {
	task, ok := m.store.Get(id)
	if !ok {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editingID = task.ID
	m.form = FormState{Text: task.Text, DueDate: FormatDateForInput(task.DueDate)}
	m.dialogOpen = true
	return true
}

// SetForm replaces the form buffers.
func (m *Model) SetForm(form FormState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.form = form
}

// SetDialogOpen opens or closes the add/edit dialog.
func (m *Model) SetDialogOpen(open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialogOpen = open
}

// ResetForm clears the form, the editing task and closes the dialog.
func (m *Model) ResetForm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.form = FormState{}
	m.editingID = ""
	m.dialogOpen = false
}

// UpdateStatus moves a task to status; a missing task is ignored.
func (m *Model) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	if _, ok := models.ValidTaskStatuses[status]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	now := m.clock.Now()
	return m.modify(ctx, "status", id, func(t *models.Task) error {
		t.SetStatus(status, now)
		return nil
	})
}

// UpdateDueDate replaces a task's due date; nil clears it.
func (m *Model) UpdateDueDate(ctx context.Context, id string, due *time.Time) error {
	if due != nil {
		d := due.UTC()
		due = &d
	}
	return m.modify(ctx, "due_date", id, func(t *models.Task) error {
		t.DueDate = due
		return nil
	})
}

// DeleteTask removes a task.
func (m *Model) DeleteTask(ctx context.Context, id string) error {
	if err := m.apply("delete", m.store.Delete(ctx, id)); err != nil {
		return err
	}
	m.triggerSave()
	return nil
}

// AddNote replaces the task's note with a fresh one holding content.
func (m *Model) AddNote(ctx context.Context, id string, content models.Document, noteType models.NoteType) error {
	if noteType == "" {
		noteType = models.NoteParagraph
	}
	note := models.Note{
		ID:        m.newID(),
		Content:   content,
		CreatedAt: m.clock.Now(),
		IsPinned:  false,
		Type:      noteType,
	}
	return m.modify(ctx, "note", id, func(t *models.Task) error {
		n := note
		t.Notes = &n
		return nil
	})
}

// modify runs fn atomically against the stored task. A missing task is
// ignored and does not start a save cycle.
func (m *Model) modify(ctx context.Context, op, id string, fn func(*models.Task) error) error {
	_, err := m.store.Modify(ctx, id, fn)
	if errors.Is(err, taskstore.ErrNotFound) {
		m.logger.Debug("update for missing task", slog.String("op", op), slog.String("id", id))
		return nil
	}
	if err := m.apply(op, err); err != nil {
		return err
	}
	m.triggerSave()
	return nil
}

// HandleDetailStatusChange mirrors status into the detail buffer first.
func (m *Model) HandleDetailStatusChange(ctx context.Context, id string, status models.Status) error {
	if _, ok := models.ValidTaskStatuses[status]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	m.mu.Lock()
	m.detail.Status = status
	m.mu.Unlock()
	return m.UpdateStatus(ctx, id, status)
}

// HandleDetailDueDateChange mirrors the due date into the detail buffer first.
func (m *Model) HandleDetailDueDateChange(ctx context.Context, id string, due *time.Time) error {
	m.mu.Lock()
	m.detail.DueDate = FormatDateForInput(due)
	m.mu.Unlock()
	return m.UpdateDueDate(ctx, id, due)
}

// apply records a store error for display. Not-found is not an error here.
func (m *Model) apply(op string, err error) error {
	switch {
	case errors.Is(err, taskstore.ErrNotFound):
		m.logger.Debug("mutation target missing", slog.String("op", op), slog.String("error", err.Error()))
		err = nil
	case errors.Is(err, taskstore.ErrDuplicateID):
		m.logger.Warn("task id collision ignored", slog.String("op", op), slog.String("error", err.Error()))
		err = nil
	}
	m.metrics.Mutation(op, err)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.logger.Error("task mutation failed", slog.String("op", op), slog.String("error", err.Error()))
		m.lastError = ErrSaveFailed.Error()
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	m.lastError = ""
	return nil
}
