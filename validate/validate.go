// Package validate holds the per-question answer validation used by both
// the respondent session and the submission endpoint. Validation never
// fails hard: malformed question settings count as no constraint.
package validate

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/formtide/survey-runtime/logic"
	"github.com/formtide/survey-runtime/model"
)

type Result struct {
	Valid   bool
	Message string
}

func ok() Result {
	return Result{Valid: true}
}

func fail(message string) Result {
	return Result{Valid: false, Message: message}
}

// failPattern prefers the question's custom error message, when the author
// configured one, over the built-in text.
func failPattern(q model.Question, message string) Result {
	if q.Settings != nil && q.Settings.ValidationMessage != "" {
		message = q.Settings.ValidationMessage
	}
	return fail(message)
}

// Answer validates a single recorded answer against its question: required
// check first, then a type-specific structural check when an answer is
// present. Short-circuits on the first failure.
func Answer(q model.Question, v model.AnswerValue) Result {
	switch q.Type {
	case model.ShortText, model.LongText:
		return validateText(q, v)
	case model.Email:
		return validatePattern(q, v, "Please enter a valid email address")
	case model.Phone:
		return validatePattern(q, v, "Please enter a valid phone number")
	case model.Url:
		return validatePattern(q, v, "Please enter a valid URL")
	case model.Number, model.Rating, model.Scale, model.NPS:
		return validateNumeric(q, v)
	case model.SingleChoice, model.Dropdown, model.YesNo, model.Date:
		return validateRequired(q, v, "Please select an option")
	case model.MultipleChoice, model.Checkbox:
		return validateMultipleChoice(q, v)
	case model.MatrixType:
		return validateMatrix(q, v)
	case model.Ranking:
		return validateRanking(q, v)
	case model.FileUpload:
		// upload constraints are enforced by the upload collaborator
		return ok()
	default:
		return ok()
	}
}

// All runs Answer over every currently visible question and aggregates the
// failures. This is the gate before final submission.
func All(questions []model.Question, answers model.AnswerMap) (bool, map[string]string) {
	errors := map[string]string{}
	for _, q := range questions {
		result := Answer(q, answers[q.ID])
		if !result.Valid {
			errors[q.ID] = result.Message
		}
	}
	return len(errors) == 0, errors
}

// Visible projects the visible questions for the current answers and
// validates only those, mirroring what the respondent was actually shown.
func Visible(questions []model.Question, answers model.AnswerMap) (bool, map[string]string) {
	return All(logic.VisibleQuestions(questions, answers), answers)
}

func validateRequired(q model.Question, v model.AnswerValue, message string) Result {
	if q.IsRequired && !v.IsAnswered() {
		return fail(message)
	}
	return ok()
}

func validateText(q model.Question, v model.AnswerValue) Result {
	text := ""
	if v.Kind() == model.KindText {
		text = v.Text()
	}

	if q.IsRequired && strings.TrimSpace(text) == "" {
		return fail("This field is required")
	}
	if q.Settings == nil || text == "" {
		return ok()
	}

	length := utf8.RuneCountInString(text)
	if min := q.Settings.MinLength; min != nil && length < *min {
		return fail(fmt.Sprintf("Please enter at least %d characters", *min))
	}
	if max := q.Settings.MaxLength; max != nil && length > *max {
		return fail(fmt.Sprintf("Please enter at most %d characters", *max))
	}
	if !matchPattern(q.Settings.ValidationPattern, text) {
		return failPattern(q, "Invalid format")
	}
	return ok()
}

func validatePattern(q model.Question, v model.AnswerValue, message string) Result {
	text := ""
	if v.Kind() == model.KindText {
		text = v.Text()
	}

	if q.IsRequired && strings.TrimSpace(text) == "" {
		return fail("This field is required")
	}
	if text == "" {
		return ok()
	}

	if !matchPattern(patternFor(q), text) {
		return failPattern(q, message)
	}
	return ok()
}

func validateNumeric(q model.Question, v model.AnswerValue) Result {
	if !v.IsAnswered() {
		if q.IsRequired {
			return fail("This field is required")
		}
		return ok()
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(v.Comparison()), 64)
	if err != nil {
		return fail("Please enter a valid number")
	}
	if q.Settings == nil {
		return ok()
	}

	if min := q.Settings.MinValue; min != nil && n < *min {
		return fail(fmt.Sprintf("Value must be at least %v", *min))
	}
	if max := q.Settings.MaxValue; max != nil && n > *max {
		return fail(fmt.Sprintf("Value must be at most %v", *max))
	}
	return ok()
}

func validateMultipleChoice(q model.Question, v model.AnswerValue) Result {
	selected := v.Selection()

	if q.IsRequired && len(selected) == 0 {
		return fail("Please select at least one option")
	}
	if q.Settings != nil {
		if max := q.Settings.MaxSelections; max != nil && len(selected) > *max {
			return fail(fmt.Sprintf("Please select at most %d options", *max))
		}
	}
	return ok()
}

// validateMatrix requires one answered column per declared row: a non-empty
// matrix answer missing rows still fails the required check.
func validateMatrix(q model.Question, v model.AnswerValue) Result {
	if !q.IsRequired {
		return ok()
	}

	var declared []string
	if q.Settings != nil {
		declared = q.Settings.MatrixRows
	}

	answered := 0
	for _, column := range v.Matrix() {
		if column != "" {
			answered++
		}
	}
	if v.Kind() != model.KindMatrix || answered < len(declared) {
		return fail("Please answer all rows")
	}
	return ok()
}

func validateRanking(q model.Question, v model.AnswerValue) Result {
	if !q.IsRequired {
		return ok()
	}

	var options []model.QuestionOption
	if q.Settings != nil {
		options = q.Settings.Options
	}
	if len(v.Selection()) != len(options) {
		return fail("Please rank all options")
	}
	return ok()
}
