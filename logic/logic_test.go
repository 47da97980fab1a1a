package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formtide/survey-runtime/model"
)

func TestEvaluateOperators(t *testing.T) {
	tests := []struct {
		name     string
		answer   model.AnswerValue
		operator model.Operator
		value    string
		expected bool
	}{
		{"absent is not answered", model.Absent, model.IsAnswered, "", false},
		{"blank text is not answered", model.Text(""), model.IsAnswered, "", false},
		{"whitespace text is not answered", model.Text("   "), model.IsAnswered, "", false},
		{"selection is answered", model.Selection("a"), model.IsAnswered, "", true},
		{"matrix is answered", model.Matrix(map[string]string{"row": "col"}), model.IsAnswered, "", true},
		{"absent is not answered inverse", model.Absent, model.IsNotAnswered, "", true},

		{"equals is case insensitive", model.Text("Yes"), model.Equals, "yes", true},
		{"equals mismatch", model.Text("no"), model.Equals, "yes", false},
		{"not equals", model.Text("no"), model.NotEquals, "yes", true},
		{"absent never equals", model.Absent, model.Equals, "yes", false},

		{"contains substring", model.Text("hello world"), model.Contains, "WORLD", true},
		{"contains miss", model.Text("hello"), model.Contains, "bye", false},
		{"not contains", model.Text("hello"), model.NotContains, "bye", true},

		{"greater than", model.Text("5"), model.GreaterThan, "3", true},
		{"greater than equal values", model.Text("3"), model.GreaterThan, "3", false},
		{"greater than non-numeric answer", model.Text("abc"), model.GreaterThan, "3", false},
		{"greater than non-numeric literal", model.Text("5"), model.GreaterThan, "x", false},
		{"less than", model.Text("2"), model.LessThan, "3", true},
		{"greater than or equals", model.Text("3"), model.GreaterThanOrEquals, "3", true},
		{"less than or equals", model.Text("4"), model.LessThanOrEquals, "3", false},
		{"numeric against absent", model.Absent, model.GreaterThan, "3", false},

		{"files never satisfy value operators", model.Files(model.FileRef{Name: "a.pdf"}), model.Equals, "a.pdf", false},
		{"unknown operator", model.Text("x"), model.Operator("bogus"), "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Evaluate(tt.answer, tt.operator, tt.value))
		})
	}
}

func TestEvaluateMultiSelectEquals(t *testing.T) {
	answer := model.Selection("red", "blue")

	// membership, not whole-string comparison
	assert.True(t, Evaluate(answer, model.Equals, "blue"))
	assert.True(t, Evaluate(answer, model.Equals, "Red"))
	assert.False(t, Evaluate(answer, model.Equals, "green"))
	assert.False(t, Evaluate(answer, model.Equals, "red,blue"))
}

func threeQuestions(rules ...model.LogicRule) []model.Question {
	q1 := model.Question{ID: "q1", Type: model.ShortText, Order: 1}
	for _, r := range rules {
		if r.SourceQuestionID == "q1" || r.SourceQuestionID == "" {
			q1.LogicRules = append(q1.LogicRules, r)
		}
	}
	return []model.Question{
		q1,
		{ID: "q2", Type: model.ShortText, Order: 2},
		{ID: "q3", Type: model.ShortText, Order: 3},
	}
}

func visibleIDs(questions []model.Question, answers model.AnswerMap) []string {
	visible := VisibleQuestions(questions, answers)
	ids := make([]string, len(visible))
	for i, q := range visible {
		ids[i] = q.ID
	}
	return ids
}

func TestVisibleQuestionsHideRule(t *testing.T) {
	questions := threeQuestions(model.LogicRule{
		Operator:         model.Equals,
		Value:            "yes",
		Action:           model.Hide,
		TargetQuestionID: "q2",
	})

	assert.Equal(t, []string{"q1", "q3"},
		visibleIDs(questions, model.AnswerMap{"q1": model.Text("yes")}))
	assert.Equal(t, []string{"q1", "q2", "q3"},
		visibleIDs(questions, model.AnswerMap{"q1": model.Text("no")}))
	assert.Equal(t, []string{"q1", "q2", "q3"},
		visibleIDs(questions, model.AnswerMap{}))
}

func TestVisibleQuestionsIdempotent(t *testing.T) {
	questions := threeQuestions(model.LogicRule{
		Operator:         model.Equals,
		Value:            "yes",
		Action:           model.Hide,
		TargetQuestionID: "q2",
	})
	answers := model.AnswerMap{"q1": model.Text("yes")}

	first := VisibleQuestions(questions, answers)
	second := VisibleQuestions(questions, answers)
	assert.Equal(t, first, second)
}

func TestVisibleQuestionsSortsByOrder(t *testing.T) {
	questions := []model.Question{
		{ID: "b", Order: 20},
		{ID: "a", Order: 10},
		{ID: "c", Order: 30},
	}
	assert.Equal(t, []string{"a", "b", "c"}, visibleIDs(questions, nil))
}

func TestQuestionVisibilityLastWriteWins(t *testing.T) {
	// matching rules apply in collection order, later writes overwrite
	// earlier ones regardless of the declared Order field
	hideThenShow := threeQuestions(
		model.LogicRule{Operator: model.Equals, Value: "yes", Action: model.Hide, TargetQuestionID: "q2", Order: 2},
		model.LogicRule{Operator: model.Equals, Value: "yes", Action: model.Show, TargetQuestionID: "q2", Order: 1},
	)
	answers := model.AnswerMap{"q1": model.Text("yes")}

	result := QuestionVisibility("q2", hideThenShow, answers)
	assert.True(t, result.Visible)

	showThenHide := threeQuestions(
		model.LogicRule{Operator: model.Equals, Value: "yes", Action: model.Show, TargetQuestionID: "q2", Order: 2},
		model.LogicRule{Operator: model.Equals, Value: "yes", Action: model.Hide, TargetQuestionID: "q2", Order: 1},
	)
	result = QuestionVisibility("q2", showThenHide, answers)
	assert.False(t, result.Visible)
}

func TestQuestionVisibilityNoRules(t *testing.T) {
	questions := threeQuestions()
	result := QuestionVisibility("q2", questions, model.AnswerMap{})
	assert.Equal(t, Result{Visible: true}, result)
}

func TestQuestionVisibilitySkipAndEndAreOrthogonal(t *testing.T) {
	questions := threeQuestions(
		model.LogicRule{Operator: model.Equals, Value: "yes", Action: model.Hide, TargetQuestionID: "q2"},
		model.LogicRule{Operator: model.Equals, Value: "yes", Action: model.Skip, TargetQuestionID: "q2"},
	)
	answers := model.AnswerMap{"q1": model.Text("yes")}

	result := QuestionVisibility("q2", questions, answers)
	assert.False(t, result.Visible)
	assert.Equal(t, "q2", result.SkipTo)
}

func TestQuestionVisibilityJumpTo(t *testing.T) {
	questions := threeQuestions(model.LogicRule{
		Operator:         model.Equals,
		Value:            "yes",
		Action:           model.JumpTo,
		TargetQuestionID: "q3",
	})

	result := QuestionVisibility("q3", questions, model.AnswerMap{"q1": model.Text("yes")})
	assert.True(t, result.Visible)
	assert.Equal(t, "q3", result.JumpTo)

	result = QuestionVisibility("q3", questions, model.AnswerMap{"q1": model.Text("no")})
	assert.Empty(t, result.JumpTo)
}

func TestVisibleQuestionsEndSurveyShortCircuit(t *testing.T) {
	questions := threeQuestions(model.LogicRule{
		Operator:         model.Equals,
		Value:            "quit",
		Action:           model.EndSurvey,
		TargetQuestionID: "q2",
	})

	ids := visibleIDs(questions, model.AnswerMap{"q1": model.Text("quit")})
	// the walk stops at the triggering question; q3 is excluded
	require.Equal(t, []string{"q1", "q2"}, ids)
}

func TestShouldEndSurvey(t *testing.T) {
	questions := threeQuestions(model.LogicRule{
		Operator: model.Equals,
		Value:    "quit",
		Action:   model.EndSurvey,
	})

	assert.False(t, ShouldEndSurvey(questions, model.AnswerMap{}))
	assert.False(t, ShouldEndSurvey(questions, model.AnswerMap{"q1": model.Text("continue")}))
	assert.True(t, ShouldEndSurvey(questions, model.AnswerMap{"q1": model.Text("quit")}))
}
