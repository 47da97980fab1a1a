// Package logic evaluates the conditional rule language attached to survey
// questions: per-rule conditions, per-question visibility and the survey
// level end-of-survey check. Every function is pure; callers own the answer
// map and may re-run any of them after each mutation.
package logic

import (
	"sort"
	"strconv"
	"strings"

	"github.com/formtide/survey-runtime/model"
)

// Result is the outcome of evaluating every rule targeting one question.
// SkipTo, JumpTo and EndSurvey are orthogonal to Visible: a hidden question
// can still carry a navigation side effect.
type Result struct {
	Visible   bool
	SkipTo    string
	JumpTo    string
	EndSurvey bool
}

// Evaluate tests one atomic condition against a recorded answer. It never
// fails: unparseable or incomparable inputs degrade to false.
func Evaluate(answer model.AnswerValue, op model.Operator, value string) bool {
	switch op {
	case model.IsAnswered:
		return answer.IsAnswered()
	case model.IsNotAnswered:
		return !answer.IsAnswered()

	case model.Equals:
		return equals(answer, value)
	case model.NotEquals:
		return !equals(answer, value)

	case model.Contains:
		return contains(answer, value)
	case model.NotContains:
		return !contains(answer, value)

	case model.GreaterThan:
		return compareNumeric(answer, value, func(d float64) bool { return d > 0 })
	case model.LessThan:
		return compareNumeric(answer, value, func(d float64) bool { return d < 0 })
	case model.GreaterThanOrEquals:
		return compareNumeric(answer, value, func(d float64) bool { return d >= 0 })
	case model.LessThanOrEquals:
		return compareNumeric(answer, value, func(d float64) bool { return d <= 0 })

	default:
		return false
	}
}

// equals is a membership test for selection answers (does the set contain
// this option) and a case-insensitive string comparison for everything else.
func equals(answer model.AnswerValue, value string) bool {
	if answer.Kind() == model.KindSelection {
		for _, option := range answer.Selection() {
			if strings.EqualFold(option, value) {
				return true
			}
		}
		return false
	}
	return strings.EqualFold(answer.Comparison(), value)
}

func contains(answer model.AnswerValue, value string) bool {
	return strings.Contains(
		strings.ToLower(answer.Comparison()),
		strings.ToLower(value),
	)
}

func compareNumeric(answer model.AnswerValue, value string, cmp func(float64) bool) bool {
	a, err := strconv.ParseFloat(strings.TrimSpace(answer.Comparison()), 64)
	if err != nil {
		return false
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false
	}
	return cmp(a - b)
}

// QuestionVisibility derives the visibility of one question from every rule,
// on any question, that targets it. With no targeting rules the question is
// visible with no side effects. Matching Show/Hide rules apply in collection
// order, last write wins.
//
// TODO decide whether matching rules should apply sorted by their Order field
// instead of collection order; needs confirming against recorded responses
// before changing.
func QuestionVisibility(questionID string, questions []model.Question, answers model.AnswerMap) Result {
	result := Result{Visible: true}

	matched := false
	for _, q := range questions {
		for _, rule := range q.LogicRules {
			if rule.TargetQuestionID != questionID {
				continue
			}
			matched = true

			if !Evaluate(answers[q.ID], rule.Operator, rule.Value) {
				continue
			}
			switch rule.Action {
			case model.Show:
				result.Visible = true
			case model.Hide:
				result.Visible = false
			case model.Skip:
				result.SkipTo = rule.TargetQuestionID
			case model.JumpTo:
				result.JumpTo = rule.TargetQuestionID
			case model.EndSurvey:
				result.EndSurvey = true
			}
		}
	}

	if !matched {
		return Result{Visible: true}
	}
	return result
}

// VisibleQuestions projects the live visible-question sequence: questions
// sorted by their declared order, filtered through QuestionVisibility, cut
// short at the first question whose rules end the survey. Pure and
// idempotent, safe to re-run after every answer mutation.
func VisibleQuestions(questions []model.Question, answers model.AnswerMap) []model.Question {
	ordered := make([]model.Question, len(questions))
	copy(ordered, questions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	visible := make([]model.Question, 0, len(ordered))
	for _, q := range ordered {
		result := QuestionVisibility(q.ID, questions, answers)
		if result.Visible {
			visible = append(visible, q)
		}
		if result.EndSurvey {
			break
		}
	}
	return visible
}

// ShouldEndSurvey re-scans every EndSurvey rule directly, independent of
// question ordering and of the projection's short-circuit. Used as the final
// gate before navigating past the current question.
func ShouldEndSurvey(questions []model.Question, answers model.AnswerMap) bool {
	for _, q := range questions {
		for _, rule := range q.LogicRules {
			if rule.Action != model.EndSurvey {
				continue
			}
			if Evaluate(answers[q.ID], rule.Operator, rule.Value) {
				return true
			}
		}
	}
	return false
}
