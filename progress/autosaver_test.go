package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formtide/survey-runtime/model"
)

func TestSaveImmediateRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	saver := NewAutoSaver(store, "tok-1", "survey-1")

	answers := model.AnswerMap{
		"q1": model.Text("hello"),
		"q2": model.Selection("a", "b"),
		"q3": model.Matrix(map[string]string{"price": "ok"}),
	}
	saver.SaveImmediate(context.Background(), answers, 2)

	record, ok := saver.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, "survey-1", record.SurveyID)
	assert.Equal(t, "tok-1", record.ShareToken)
	assert.Equal(t, 2, record.CurrentQuestionIndex)
	assert.Equal(t, answers, record.Answers)
	assert.NotZero(t, record.SavedAt)
}

func TestSaveDebounces(t *testing.T) {
	store := NewMemoryStore()
	saver := NewAutoSaver(store, "tok-1", "survey-1", WithDebounce(30*time.Millisecond))

	saver.Save(model.AnswerMap{"q1": model.Text("first")}, 0)
	saver.Save(model.AnswerMap{"q1": model.Text("second")}, 1)

	// inside the window nothing is written yet
	_, ok, err := store.Get(context.Background(), storageKey("tok-1"))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Eventually(t, func() bool {
		_, ok, _ := store.Get(context.Background(), storageKey("tok-1"))
		return ok
	}, time.Second, 5*time.Millisecond)

	// only the superseding snapshot landed
	record, ok := saver.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, model.AnswerMap{"q1": model.Text("second")}, record.Answers)
	assert.Equal(t, 1, record.CurrentQuestionIndex)
}

func TestCancelDropsPendingWrite(t *testing.T) {
	store := NewMemoryStore()
	saver := NewAutoSaver(store, "tok-1", "survey-1", WithDebounce(20*time.Millisecond))

	saver.Save(model.AnswerMap{"q1": model.Text("pending")}, 0)
	saver.Cancel()

	time.Sleep(60 * time.Millisecond)
	_, ok := saver.Load(context.Background())
	assert.False(t, ok)
}

func TestCancelAfterTimerFires(t *testing.T) {
	store := NewMemoryStore()

	// race the debounce callback against teardown: whichever side wins,
	// no record may survive Cancel+Clear
	for i := 0; i < 100; i++ {
		saver := NewAutoSaver(store, "tok-1", "survey-1", WithDebounce(100*time.Microsecond))
		saver.Save(model.AnswerMap{"q1": model.Text("stale")}, 0)

		time.Sleep(100 * time.Microsecond)
		saver.Cancel()
		saver.Clear(context.Background())

		time.Sleep(2 * time.Millisecond)
		_, ok, err := store.Get(context.Background(), storageKey("tok-1"))
		require.NoError(t, err)
		require.False(t, ok, "stale write landed after Cancel+Clear (iteration %d)", i)
	}
}

func TestSaveSnapshotsAnswers(t *testing.T) {
	store := NewMemoryStore()
	saver := NewAutoSaver(store, "tok-1", "survey-1")

	answers := model.AnswerMap{"q1": model.Text("before")}
	saver.SaveImmediate(context.Background(), answers, 0)

	// mutating the caller's map must not leak into the stored record
	answers["q1"] = model.Text("after")

	record, ok := saver.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, model.Text("before"), record.Answers["q1"])
}

func TestLoadExpiredRecordIsEvicted(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now

	writer := NewAutoSaver(store, "tok-1", "survey-1", WithClock(func() time.Time {
		return now().Add(-8 * 24 * time.Hour)
	}))
	writer.SaveImmediate(context.Background(), model.AnswerMap{"q1": model.Text("old")}, 0)

	reader := NewAutoSaver(store, "tok-1", "survey-1")
	_, ok := reader.Load(context.Background())
	assert.False(t, ok)

	// eviction deleted the record, not just skipped it
	_, ok, err := store.Get(context.Background(), storageKey("tok-1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadJustInsideRetention(t *testing.T) {
	store := NewMemoryStore()

	writer := NewAutoSaver(store, "tok-1", "survey-1", WithClock(func() time.Time {
		return time.Now().Add(-6 * 24 * time.Hour)
	}))
	writer.SaveImmediate(context.Background(), model.AnswerMap{"q1": model.Text("recent")}, 3)

	reader := NewAutoSaver(store, "tok-1", "survey-1")
	record, ok := reader.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, 3, record.CurrentQuestionIndex)
}

func TestLoadForeignTokenIsDiscarded(t *testing.T) {
	store := NewMemoryStore()
	key := storageKey("tok-1")

	foreign := Record{
		SurveyID:   "survey-1",
		ShareToken: "someone-else",
		SavedAt:    time.Now().UnixMilli(),
	}
	value, err := foreign.encode()
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), key, value))

	saver := NewAutoSaver(store, "tok-1", "survey-1")
	_, ok := saver.Load(context.Background())
	assert.False(t, ok)

	_, ok, err = store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadUnparseableRecordIsDiscarded(t *testing.T) {
	store := NewMemoryStore()
	key := storageKey("tok-1")
	require.NoError(t, store.Set(context.Background(), key, "{not json"))

	saver := NewAutoSaver(store, "tok-1", "survey-1")
	_, ok := saver.Load(context.Background())
	assert.False(t, ok)

	_, ok, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	store := NewMemoryStore()
	saver := NewAutoSaver(store, "tok-1", "survey-1")

	saver.SaveImmediate(context.Background(), model.AnswerMap{"q1": model.Text("x")}, 0)
	saver.Clear(context.Background())

	_, ok := saver.Load(context.Background())
	assert.False(t, ok)
}
