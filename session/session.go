// Package session drives one respondent's pass through a survey: the answer
// map, validation errors, visible-question projection, navigation bounds,
// completion percentage and progress auto-save. All decision logic lives in
// the pure logic and validate packages; this is the stateful shell around
// them. A Session is not safe for concurrent use; each respondent owns one.
package session

import (
	"context"
	"errors"
	"math"

	"github.com/formtide/survey-runtime/logic"
	"github.com/formtide/survey-runtime/model"
	"github.com/formtide/survey-runtime/progress"
	"github.com/formtide/survey-runtime/validate"
)

type ViewMode string

const (
	ViewWelcome   ViewMode = "welcome"
	ViewQuestions ViewMode = "questions"
	ViewThankYou  ViewMode = "thank-you"
	ViewError     ViewMode = "error"
)

type DisplayMode string

const (
	OneByOne  DisplayMode = "one-by-one"
	AllAtOnce DisplayMode = "all-at-once"
)

// ErrInvalidAnswers is returned by Submit when validation over the visible
// questions fails; the error map is available through Errors.
var ErrInvalidAnswers = errors.New("one or more answers are invalid")

// SubmitFunc hands the encoded answer set to the external submission
// collaborator.
type SubmitFunc func(ctx context.Context, answers []model.SubmissionAnswer) error

type Session struct {
	survey     *model.Survey
	shareToken string
	saver      *progress.AutoSaver
	submit     SubmitFunc

	viewMode    ViewMode
	displayMode DisplayMode
	answers     model.AnswerMap
	errors      map[string]string
	visible     []model.Question
	index       int
	progress    int
	restored    bool
	fatal       error
}

type Option func(*Session)

// WithStore enables progress persistence through the given key-value store.
func WithStore(store progress.Store, opts ...progress.Option) Option {
	return func(s *Session) {
		s.saver = progress.NewAutoSaver(store, s.shareToken, s.survey.ID, opts...)
	}
}

func WithDisplayMode(mode DisplayMode) Option {
	return func(s *Session) { s.displayMode = mode }
}

// WithSubmitter sets the submission sink invoked on Submit.
func WithSubmitter(submit SubmitFunc) Option {
	return func(s *Session) { s.submit = submit }
}

func New(survey *model.Survey, shareToken string, opts ...Option) *Session {
	s := &Session{
		survey:      survey,
		shareToken:  shareToken,
		viewMode:    ViewWelcome,
		displayMode: OneByOne,
		answers:     model.AnswerMap{},
		errors:      map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.visible = logic.VisibleQuestions(survey.Questions, s.answers)
	return s
}

// Fail moves the session to the error state after a fatal load failure.
// Recovery is up to the surrounding collaborator.
func (s *Session) Fail(err error) {
	s.fatal = err
	s.viewMode = ViewError
}

// Start moves from welcome to questions. If a persisted record exists for
// this share token and survey, its answers and index are adopted and the
// session is marked restored so the caller can surface a resume notice.
func (s *Session) Start(ctx context.Context) {
	if s.viewMode == ViewError {
		return
	}

	if s.saver != nil {
		if record, ok := s.saver.Load(ctx); ok && record.SurveyID == s.survey.ID {
			s.answers = record.Answers.Clone()
			s.refresh()
			s.index = clamp(record.CurrentQuestionIndex, len(s.visible))
			s.restored = true
			s.viewMode = ViewQuestions
			return
		}
	}

	s.index = 0
	s.refresh()
	s.viewMode = ViewQuestions
}

// HasSavedProgress reports whether a resumable record exists, without
// adopting it. Expired records are evicted as a side effect of the lookup.
func (s *Session) HasSavedProgress(ctx context.Context) bool {
	if s.saver == nil {
		return false
	}
	record, ok := s.saver.Load(ctx)
	return ok && record.SurveyID == s.survey.ID
}

// StartFresh discards any saved record and begins at the first question.
func (s *Session) StartFresh(ctx context.Context) {
	if s.saver != nil {
		s.saver.Cancel()
		s.saver.Clear(ctx)
	}
	s.answers = model.AnswerMap{}
	s.errors = map[string]string{}
	s.index = 0
	s.restored = false
	s.refresh()
	s.viewMode = ViewQuestions
}

// SetAnswer records a new value for a question, revalidates it, reprojects
// visibility (which may clamp the current index), recomputes progress and
// schedules a debounced save.
func (s *Session) SetAnswer(questionID string, value model.AnswerValue) {
	delete(s.errors, questionID)

	if value.IsAnswered() {
		s.answers[questionID] = value
	} else {
		delete(s.answers, questionID)
	}

	if q, ok := s.question(questionID); ok {
		if result := validate.Answer(q, value); !result.Valid {
			s.errors[questionID] = result.Message
		}
	}

	s.refresh()
	s.scheduleSave()
}

// ClearAnswer removes a recorded value and its error.
func (s *Session) ClearAnswer(questionID string) {
	delete(s.answers, questionID)
	delete(s.errors, questionID)
	s.refresh()
	s.scheduleSave()
}

// GoToNext validates the current question; when invalid the error is
// surfaced and navigation aborts. When an end-survey rule now holds the
// session finishes immediately. Otherwise the index advances and the new
// position is persisted right away.
func (s *Session) GoToNext(ctx context.Context) bool {
	if s.displayMode != OneByOne || s.viewMode != ViewQuestions {
		return false
	}

	if q, ok := s.current(); ok {
		if result := validate.Answer(q, s.answers[q.ID]); !result.Valid {
			s.errors[q.ID] = result.Message
			return false
		}
	}

	if logic.ShouldEndSurvey(s.survey.Questions, s.answers) {
		s.finish(ctx)
		return true
	}

	if s.index < len(s.visible)-1 {
		s.index++
		if s.saver != nil {
			s.saver.SaveImmediate(ctx, s.answers, s.index)
		}
	}
	return true
}

// GoToPrevious steps back without any validation gate.
func (s *Session) GoToPrevious() {
	if s.index > 0 {
		s.index--
	}
}

// Submit validates every visible question; on failure the full error map is
// surfaced and the session stays in questions. On success the encoded
// answers go to the submission sink, the saved record is cleared and the
// session moves to thank-you.
func (s *Session) Submit(ctx context.Context) error {
	if s.viewMode != ViewQuestions {
		return nil
	}

	ok, errs := validate.All(s.visible, s.answers)
	if !ok {
		s.errors = errs
		return ErrInvalidAnswers
	}

	if s.submit != nil {
		encoded := model.EncodeAnswers(s.visible, s.answers)
		if err := s.submit(ctx, encoded); err != nil {
			return err
		}
	}

	s.finish(ctx)
	return nil
}

// Reset cancels any pending save and restores all fields to their initial
// values.
func (s *Session) Reset() {
	if s.saver != nil {
		s.saver.Cancel()
	}
	s.answers = model.AnswerMap{}
	s.errors = map[string]string{}
	s.index = 0
	s.restored = false
	s.fatal = nil
	s.viewMode = ViewWelcome
	s.refresh()
}

func (s *Session) finish(ctx context.Context) {
	if s.saver != nil {
		s.saver.Cancel()
		s.saver.Clear(ctx)
	}
	s.viewMode = ViewThankYou
}

// refresh recomputes the derived state after any answer mutation: the
// visible projection, the clamped index and the completion percentage.
func (s *Session) refresh() {
	s.visible = logic.VisibleQuestions(s.survey.Questions, s.answers)
	s.index = clamp(s.index, len(s.visible))

	if len(s.visible) == 0 {
		s.progress = 0
		return
	}
	answered := 0
	for _, q := range s.visible {
		if s.answers[q.ID].IsAnswered() {
			answered++
		}
	}
	s.progress = int(math.Round(float64(answered) / float64(len(s.visible)) * 100))
}

func (s *Session) scheduleSave() {
	if s.saver != nil {
		s.saver.Save(s.answers, s.index)
	}
}

func (s *Session) question(id string) (model.Question, bool) {
	for _, q := range s.survey.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return model.Question{}, false
}

func (s *Session) current() (model.Question, bool) {
	if s.index >= 0 && s.index < len(s.visible) {
		return s.visible[s.index], true
	}
	return model.Question{}, false
}

func clamp(index, visibleCount int) int {
	if index >= visibleCount {
		index = visibleCount - 1
	}
	if index < 0 {
		index = 0
	}
	return index
}
