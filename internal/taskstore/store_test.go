package taskstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/models"
	"folio/internal/storage/sqlite"
)

type memPersister struct {
	mu      sync.Mutex
	slots   map[string][]byte
	failing bool
}

func newMemPersister() *memPersister {
	return &memPersister{slots: map[string][]byte{}}
}

func (m *memPersister) LoadSlot(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.slots[key]
	if !ok {
		return nil, sqlite.ErrSlotNotFound
	}
	return b, nil
}

func (m *memPersister) SaveSlot(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("disk full")
	}
	m.slots[key] = append([]byte(nil), payload...)
	return nil
}

func newTask(id, text string, created time.Time) models.Task {
	return models.Task{ID: id, Text: text, Status: models.StatusNotStarted, CreatedAt: created}
}

func ids(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestStore_AddPrependsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, newMemPersister())
	require.NoError(t, err)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Add(ctx, newTask("A", "a", base)))
	require.NoError(t, s.Add(ctx, newTask("B", "b", base.Add(time.Second))))
	require.NoError(t, s.Add(ctx, newTask("C", "c", base.Add(2*time.Second))))

	assert.Equal(t, []string{"C", "B", "A"}, ids(s.List()))
}

func TestStore_DuplicateIDRejected(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, newMemPersister())
	require.NoError(t, err)

	require.NoError(t, s.Add(ctx, newTask("A", "a", time.Now())))
	err = s.Add(ctx, newTask("A", "again", time.Now()))
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Len(t, s.List(), 1)
}

func TestStore_UpdateDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, newMemPersister())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Update(ctx, newTask("X", "x", time.Now())), ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "X"), ErrNotFound)

	require.NoError(t, s.Add(ctx, newTask("A", "a", time.Now())))
	updated := newTask("A", "renamed", time.Now())
	require.NoError(t, s.Update(ctx, updated))
	got, ok := s.Get("A")
	require.True(t, ok)
	assert.Equal(t, "renamed", got.Text)

	require.NoError(t, s.Delete(ctx, "A"))
	assert.Empty(t, s.List())
}

func TestStore_RejectsInvalidTask(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, newMemPersister())
	require.NoError(t, err)

	bad := newTask("A", "a", time.Now())
	bad.Status = models.StatusCompleted
	assert.Error(t, s.Add(ctx, bad))
	assert.Empty(t, s.List())
}

func TestStore_PersistFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	s, err := Open(ctx, p)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, newTask("A", "a", time.Now())))

	p.failing = true
	assert.Error(t, s.Add(ctx, newTask("B", "b", time.Now())))
	assert.Error(t, s.Delete(ctx, "A"))
	assert.Equal(t, []string{"A"}, ids(s.List()))
}

func TestStore_RehydratesFromSlot(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	s, err := Open(ctx, p)
	require.NoError(t, err)
	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	task := newTask("A", "a", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	task.DueDate = &due
	require.NoError(t, s.Add(ctx, task))
	require.NoError(t, s.Add(ctx, newTask("B", "b", time.Now())))

	reopened, err := Open(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, ids(reopened.List()))
	got, _ := reopened.Get("A")
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))
}

func TestStore_MigratesLegacyArray(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	p.slots[DefaultSlot] = []byte(`[{"id":"1","text":"legacy","status":"Not Started","createdAt":"2024-01-01T00:00:00Z"}]`)

	s, err := Open(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(s.List()))
	assert.Contains(t, string(p.slots[DefaultSlot]), `"version":1`)
}

func TestStore_QuarantinesUnreadableBlob(t *testing.T) {
	cases := map[string]string{
		"malformed":        `{"version":1,"tasks":[`,
		"future version":   `{"version":9,"tasks":[]}`,
		"broken invariant": `{"version":1,"tasks":[{"id":"1","text":"x","status":"Completed","createdAt":"2024-01-01T00:00:00Z"}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := newMemPersister()
			p.slots[DefaultSlot] = []byte(raw)

			s, err := Open(ctx, p)
			require.NoError(t, err)
			assert.Empty(t, s.List())
			assert.Equal(t, raw, string(p.slots[DefaultSlot+".corrupt"]))
		})
	}
}

func TestStore_OnChangeReceivesSnapshot(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, newMemPersister())
	require.NoError(t, err)

	var seen [][]string
	s.OnChange(func(tasks []models.Task) { seen = append(seen, ids(tasks)) })

	require.NoError(t, s.Add(ctx, newTask("A", "a", time.Now())))
	require.NoError(t, s.Delete(ctx, "A"))
	_ = s.Delete(ctx, "A")

	assert.Equal(t, [][]string{{"A"}, {}}, seen)
}

func TestStore_UniqueIDsUnderMixedMutations(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, newMemPersister())
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("t%d", i%7)
		switch i % 3 {
		case 0:
			_ = s.Add(ctx, newTask(id, "x", time.Now()))
		case 1:
			_ = s.Update(ctx, newTask(id, "y", time.Now()))
		case 2:
			_ = s.Delete(ctx, fmt.Sprintf("t%d", (i+3)%7))
		}
		seen := map[string]bool{}
		for _, task := range s.List() {
			require.False(t, seen[task.ID], "duplicate id %s", task.ID)
			seen[task.ID] = true
		}
	}
}

func TestStore_WithSQLiteSlots(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "folio.db"), nil)
	require.NoError(t, err)
	defer db.Close()

	s, err := Open(ctx, db, WithSlot("tasks"))
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, newTask("A", "a", time.Now())))

	reopened, err := Open(ctx, db, WithSlot("tasks"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ids(reopened.List()))
}

func TestStore_ListenersRunInRegistrationOrder(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, newMemPersister())
	require.NoError(t, err)

	var order []string
	var first Listener = func([]models.Task) { order = append(order, "first") }
	s.OnChange(first)
	s.OnChange(func([]models.Task) { order = append(order, "second") })

	require.NoError(t, s.Add(ctx, newTask("A", "a", time.Now())))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestStore_ModifyConcurrentEditsAllLand(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, newMemPersister())
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, newTask("A", "", time.Now())))

	const writers = 40
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Modify(ctx, "A", func(task *models.Task) error {
				task.Text += "x"
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, ok := s.Get("A")
	require.True(t, ok)
	assert.Len(t, got.Text, writers)
}

func TestStore_ModifyKeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, newMemPersister())
	require.NoError(t, err)
	task := newTask("A", "a", time.Now())
	task.Notes = &models.Note{ID: "n1", Type: models.NoteParagraph}
	require.NoError(t, s.Add(ctx, task))

	now := time.Now()
	written, err := s.Modify(ctx, "A", func(task *models.Task) error {
		task.SetStatus(models.StatusCompleted, now)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, written.Status)
	require.NotNil(t, written.Notes)
	assert.Equal(t, "n1", written.Notes.ID)
}

func TestStore_ModifyRejections(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	s, err := Open(ctx, p)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, newTask("A", "a", time.Now())))

	_, err = s.Modify(ctx, "ghost", func(*models.Task) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)

	boom := errors.New("boom")
	_, err = s.Modify(ctx, "A", func(*models.Task) error { return boom })
	assert.ErrorIs(t, err, boom)

	_, err = s.Modify(ctx, "A", func(task *models.Task) error { task.ID = "B"; return nil })
	assert.Error(t, err)

	_, err = s.Modify(ctx, "A", func(task *models.Task) error { task.Status = models.StatusCompleted; return nil })
	assert.Error(t, err, "completedAt must accompany Completed")

	p.failing = true
	_, err = s.Modify(ctx, "A", func(task *models.Task) error { task.Text = "lost"; return nil })
	assert.Error(t, err)

	got, _ := s.Get("A")
	assert.Equal(t, "a", got.Text)
	assert.Equal(t, models.StatusNotStarted, got.Status)
}
