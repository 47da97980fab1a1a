// Package progress persists in-progress survey answers so a respondent can
// resume after a page reload. Persistence is best effort: storage failures
// are logged and swallowed, and stale or foreign records are discarded,
// never repaired.
package progress

import (
	"context"
	"encoding/json"
	"time"

	"github.com/formtide/survey-runtime/model"
)

const (
	KeyPrefix        = "survey_progress_"
	DefaultRetention = 7 * 24 * time.Hour
	DefaultDebounce  = time.Second
)

// Store is the key-value port the adapter writes through. Implementations
// must overwrite in place; exactly one record exists per key.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Record is one saved snapshot of a response session. SavedAt is unix
// milliseconds so records stay readable across runtimes.
type Record struct {
	SurveyID             string          `json:"surveyId"`
	ShareToken           string          `json:"shareToken"`
	Answers              model.AnswerMap `json:"answers"`
	CurrentQuestionIndex int             `json:"currentQuestionIndex"`
	SavedAt              int64           `json:"savedAt"`
}

func storageKey(shareToken string) string {
	return KeyPrefix + shareToken
}

func (r Record) encode() (string, error) {
	b, err := json.Marshal(r)
	return string(b), err
}

func decodeRecord(value string) (Record, error) {
	var r Record
	err := json.Unmarshal([]byte(value), &r)
	return r, err
}
