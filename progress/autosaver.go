package progress

import (
	"context"
	"sync"
	"time"

	"github.com/formtide/survey-runtime/log"
	"github.com/formtide/survey-runtime/model"
)

// AutoSaver debounces progress writes for one share token. Every Save call
// resets the debounce window; only the last call within it is written.
// Cancel must be called when the session ends so a pending write cannot
// land after completion.
type AutoSaver struct {
	store      Store
	shareToken string
	surveyID   string
	debounce   time.Duration
	retention  time.Duration
	now        func() time.Time

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

type Option func(*AutoSaver)

func WithDebounce(d time.Duration) Option {
	return func(s *AutoSaver) { s.debounce = d }
}

func WithRetention(d time.Duration) Option {
	return func(s *AutoSaver) { s.retention = d }
}

// WithClock overrides the time source, for retention tests.
func WithClock(now func() time.Time) Option {
	return func(s *AutoSaver) { s.now = now }
}

func NewAutoSaver(store Store, shareToken, surveyID string, opts ...Option) *AutoSaver {
	s := &AutoSaver{
		store:      store,
		shareToken: shareToken,
		surveyID:   surveyID,
		debounce:   DefaultDebounce,
		retention:  DefaultRetention,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save schedules a debounced write of the given snapshot, superseding any
// previously scheduled one.
func (s *AutoSaver) Save(answers model.AnswerMap, currentIndex int) {
	snapshot := answers.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.debounce, func() {
		s.write(context.Background(), snapshot, currentIndex, gen)
	})
}

// SaveImmediate writes right away, dropping any pending debounced write.
func (s *AutoSaver) SaveImmediate(ctx context.Context, answers model.AnswerMap, currentIndex int) {
	snapshot := answers.Clone()

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.write(ctx, snapshot, currentIndex, gen)
}

// Cancel drops any pending debounced write, including one whose timer has
// already fired but has not reached the store yet.
func (s *AutoSaver) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// write persists the snapshot unless a later Save, SaveImmediate or Cancel
// superseded it. Stop cannot retract a callback that already fired, so the
// generation check under the mutex is what keeps a stale write from landing
// after teardown.
func (s *AutoSaver) write(ctx context.Context, answers model.AnswerMap, currentIndex int, gen uint64) {
	record := Record{
		SurveyID:             s.surveyID,
		ShareToken:           s.shareToken,
		Answers:              answers,
		CurrentQuestionIndex: currentIndex,
		SavedAt:              s.now().UnixMilli(),
	}

	value, err := record.encode()
	if err != nil {
		log.Warnf("progress.save.encode: %s", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	if err := s.store.Set(ctx, storageKey(s.shareToken), value); err != nil {
		log.Warnf("progress.save: %s", err)
	}
}

// Load reads the saved record for this share token. Unparseable records,
// records for another token and records older than the retention window are
// deleted and reported as missing.
func (s *AutoSaver) Load(ctx context.Context) (Record, bool) {
	key := storageKey(s.shareToken)

	value, ok, err := s.store.Get(ctx, key)
	if err != nil {
		log.Warnf("progress.load: %s", err)
		return Record{}, false
	}
	if !ok {
		return Record{}, false
	}

	record, err := decodeRecord(value)
	if err != nil || record.ShareToken != s.shareToken {
		s.discard(ctx, key)
		return Record{}, false
	}
	if s.now().Sub(time.UnixMilli(record.SavedAt)) > s.retention {
		s.discard(ctx, key)
		return Record{}, false
	}
	return record, true
}

// Clear removes the saved record, typically on submission or "start fresh".
func (s *AutoSaver) Clear(ctx context.Context) {
	s.discard(ctx, storageKey(s.shareToken))
}

func (s *AutoSaver) discard(ctx context.Context, key string) {
	if err := s.store.Remove(ctx, key); err != nil {
		log.Warnf("progress.discard: %s", err)
	}
}
