package session

import "github.com/formtide/survey-runtime/model"

// Read-only surface consumed by the display layer.

func (s *Session) Survey() *model.Survey     { return s.survey }
func (s *Session) ViewMode() ViewMode        { return s.viewMode }
func (s *Session) DisplayMode() DisplayMode  { return s.displayMode }
func (s *Session) CurrentQuestionIndex() int { return s.index }
func (s *Session) Progress() int             { return s.progress }
func (s *Session) Restored() bool            { return s.restored }
func (s *Session) Err() error                { return s.fatal }

func (s *Session) SetDisplayMode(mode DisplayMode) { s.displayMode = mode }

func (s *Session) VisibleQuestions() []model.Question {
	visible := make([]model.Question, len(s.visible))
	copy(visible, s.visible)
	return visible
}

func (s *Session) CurrentQuestion() (model.Question, bool) {
	return s.current()
}

func (s *Session) Answer(questionID string) model.AnswerValue {
	return s.answers[questionID]
}

func (s *Session) Answers() model.AnswerMap {
	return s.answers.Clone()
}

func (s *Session) Errors() map[string]string {
	errs := make(map[string]string, len(s.errors))
	for id, msg := range s.errors {
		errs[id] = msg
	}
	return errs
}

func (s *Session) CanGoNext() bool {
	return s.index < len(s.visible)-1
}

func (s *Session) CanGoPrevious() bool {
	return s.index > 0
}
