package model

import "encoding/json"

// SubmissionAnswer is the submission-friendly form of one recorded answer:
// scalars pass through as strings, selections and matrices are JSON-encoded
// text. File answers travel through a separate upload path and are excluded.
type SubmissionAnswer struct {
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}

// EncodeAnswers flattens an answer map for the submission sink, in question
// order. Unanswered questions and file answers are skipped.
func EncodeAnswers(questions []Question, answers AnswerMap) []SubmissionAnswer {
	encoded := make([]SubmissionAnswer, 0, len(answers))
	for _, q := range questions {
		v, ok := answers[q.ID]
		if !ok || !v.IsAnswered() || v.Kind() == KindFiles {
			continue
		}

		var value string
		switch v.Kind() {
		case KindText:
			value = v.Text()
		case KindSelection:
			b, err := json.Marshal(v.Selection())
			if err != nil {
				continue
			}
			value = string(b)
		case KindMatrix:
			b, err := json.Marshal(v.Matrix())
			if err != nil {
				continue
			}
			value = string(b)
		}

		encoded = append(encoded, SubmissionAnswer{QuestionID: q.ID, Value: value})
	}
	return encoded
}

// DecodeAnswer reverses EncodeAnswers for one question, sniffing the value
// shape expected for the question type. Malformed values degrade to plain
// text rather than failing the submission.
func DecodeAnswer(q Question, value string) AnswerValue {
	if value == "" {
		return Absent
	}

	switch q.Type {
	case MultipleChoice, Checkbox, Ranking, SingleChoice, Dropdown:
		var options []string
		if err := json.Unmarshal([]byte(value), &options); err == nil {
			return Selection(options...)
		}
	case MatrixType:
		var rows map[string]string
		if err := json.Unmarshal([]byte(value), &rows); err == nil {
			return Matrix(rows)
		}
	}
	return Text(value)
}
