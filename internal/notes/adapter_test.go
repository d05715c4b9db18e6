package notes

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/models"
	"folio/internal/timer/timertest"
)

type delivery struct {
	taskID   string
	doc      models.Document
	noteType models.NoteType
}

type recorder struct {
	mu   sync.Mutex
	got  []delivery
	fail error
}

func (r *recorder) sink(_ context.Context, taskID string, doc models.Document, nt models.NoteType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.got = append(r.got, delivery{taskID, doc, nt})
	return nil
}

func (r *recorder) deliveries() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery(nil), r.got...)
}

func para(text string) models.Document {
	data, _ := json.Marshal(map[string]string{"text": text})
	return models.Document{Blocks: []models.Block{{Type: "paragraph", Data: data}}}
}

func newTestAdapter() (*Adapter, *recorder, *timertest.FakeClock) {
	rec := &recorder{}
	clock := timertest.NewFakeClock(time.Unix(0, 0))
	return NewAdapter(rec.sink, WithClock(clock)), rec, clock
}

func TestAdapter_BurstCollapsesToFinalValue(t *testing.T) {
	a, rec, clock := newTestAdapter()

	require.NoError(t, a.Edit("t1", para("h"), ""))
	clock.Advance(100 * time.Millisecond)
	require.NoError(t, a.Edit("t1", para("he"), ""))
	clock.Advance(499 * time.Millisecond)
	require.NoError(t, a.Edit("t1", para("hello"), ""))
	assert.Empty(t, rec.deliveries())
	assert.True(t, a.Pending("t1"))

	clock.Advance(500 * time.Millisecond)
	got := rec.deliveries()
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].taskID)
	assert.Equal(t, para("hello"), got[0].doc)
	assert.Equal(t, models.NoteParagraph, got[0].noteType)
	assert.False(t, a.Pending("t1"))
}

func TestAdapter_TasksDebounceIndependently(t *testing.T) {
	a, rec, clock := newTestAdapter()

	require.NoError(t, a.Edit("t1", para("one"), ""))
	clock.Advance(300 * time.Millisecond)
	require.NoError(t, a.Edit("t2", para("two"), models.NoteChecklist))
	clock.Advance(200 * time.Millisecond)

	got := rec.deliveries()
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].taskID)

	clock.Advance(300 * time.Millisecond)
	got = rec.deliveries()
	require.Len(t, got, 2)
	assert.Equal(t, "t2", got[1].taskID)
	assert.Equal(t, models.NoteChecklist, got[1].noteType)
}

func TestAdapter_FlushAndClose(t *testing.T) {
	a, rec, clock := newTestAdapter()

	assert.False(t, a.Flush("t1"))
	require.NoError(t, a.Edit("t1", para("x"), ""))
	assert.True(t, a.Flush("t1"))
	assert.Len(t, rec.deliveries(), 1)

	require.NoError(t, a.Edit("t2", para("y"), ""))
	a.Close()
	assert.Len(t, rec.deliveries(), 2)
	clock.Advance(time.Second)
	assert.Len(t, rec.deliveries(), 2)

	assert.Error(t, a.Edit("t3", para("z"), ""))
}

func TestAdapter_RejectsUnknownBlocks(t *testing.T) {
	a, rec, clock := newTestAdapter()
	doc := models.Document{Blocks: []models.Block{{Type: "paragraph"}, {Type: "table"}}}

	assert.Error(t, a.Edit("t1", doc, ""))
	clock.Advance(time.Second)
	assert.Empty(t, rec.deliveries())
}

func TestAdapter_SinkErrorIsLogged(t *testing.T) {
	a, rec, clock := newTestAdapter()
	rec.fail = errors.New("store down")

	require.NoError(t, a.Edit("t1", para("x"), ""))
	assert.NotPanics(t, func() { clock.Advance(time.Second) })
	assert.Empty(t, rec.deliveries())
	assert.False(t, a.Pending("t1"))
}

func TestAdapter_SurfaceLoad(t *testing.T) {
	a, _, _ := newTestAdapter()

	assert.Equal(t, SurfaceLoading, a.Surface("t1"))
	assert.Equal(t, SurfaceReady, a.Load("t1", func() error { return nil }))
	assert.Equal(t, "", Placeholder(a.Surface("t1")))

	calls := 0
	state := a.Load("t2", func() error { calls++; return errors.New("tool import failed") })
	assert.Equal(t, SurfaceFailed, state)
	assert.Equal(t, SurfaceFailed, a.Surface("t2"))
	assert.Equal(t, "Loading editor...", Placeholder(a.Surface("t2")))
	assert.Equal(t, 1, calls)
}
