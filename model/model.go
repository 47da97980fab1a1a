package model

import "time"

type QuestionType string

const (
	ShortText      QuestionType = "short_text"
	LongText       QuestionType = "long_text"
	Email          QuestionType = "email"
	Phone          QuestionType = "phone"
	Url            QuestionType = "url"
	Number         QuestionType = "number"
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	Checkbox       QuestionType = "checkbox"
	Dropdown       QuestionType = "dropdown"
	YesNo          QuestionType = "yes_no"
	Rating         QuestionType = "rating"
	Scale          QuestionType = "scale"
	NPS            QuestionType = "nps"
	MatrixType     QuestionType = "matrix"
	Ranking        QuestionType = "ranking"
	Date           QuestionType = "date"
	FileUpload     QuestionType = "file_upload"
)

type Operator string

const (
	Equals              Operator = "equals"
	NotEquals           Operator = "not_equals"
	Contains            Operator = "contains"
	NotContains         Operator = "not_contains"
	GreaterThan         Operator = "greater_than"
	LessThan            Operator = "less_than"
	GreaterThanOrEquals Operator = "greater_than_or_equals"
	LessThanOrEquals    Operator = "less_than_or_equals"
	IsAnswered          Operator = "is_answered"
	IsNotAnswered       Operator = "is_not_answered"
)

type Action string

const (
	Show      Action = "show"
	Hide      Action = "hide"
	Skip      Action = "skip"
	JumpTo    Action = "jump_to"
	EndSurvey Action = "end_survey"
)

type Survey struct {
	ID              string     `json:"id,omitempty"`
	Version         int        `json:"version,omitempty"`
	ShareToken      string     `json:"shareToken,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	WelcomeMessage  string     `json:"welcomeMessage,omitempty"`
	ThankYouMessage string     `json:"thankYouMessage,omitempty"`
	Questions       []Question `json:"questions"`
}

type Question struct {
	ID          string            `json:"id,omitempty"`
	Text        string            `json:"text"`
	Description string            `json:"description,omitempty"`
	Type        QuestionType      `json:"type"`
	Order       int               `json:"order"`
	IsRequired  bool              `json:"isRequired"`
	Settings    *QuestionSettings `json:"settings,omitempty"`
	LogicRules  []LogicRule       `json:"logicRules,omitempty"`
}

type QuestionOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

type QuestionSettings struct {
	MinValue          *float64         `json:"minValue,omitempty"`
	MaxValue          *float64         `json:"maxValue,omitempty"`
	MinLength         *int             `json:"minLength,omitempty"`
	MaxLength         *int             `json:"maxLength,omitempty"`
	MaxSelections     *int             `json:"maxSelections,omitempty"`
	Options           []QuestionOption `json:"options,omitempty"`
	MatrixRows        []string         `json:"matrixRows,omitempty"`
	MatrixColumns     []string         `json:"matrixColumns,omitempty"`
	ValidationPattern string           `json:"validationPattern,omitempty"`
	ValidationMessage string           `json:"validationMessage,omitempty"`
	ValidationPreset  string           `json:"validationPreset,omitempty"`
}

// LogicRule is declared on its source question and tested against that
// question's recorded answer. Target is required for Show/Hide/Skip/JumpTo
// and absent for EndSurvey.
type LogicRule struct {
	ID               string   `json:"id,omitempty"`
	SourceQuestionID string   `json:"sourceQuestionId,omitempty"`
	Operator         Operator `json:"operator"`
	Value            string   `json:"value,omitempty"`
	Action           Action   `json:"action"`
	TargetQuestionID string   `json:"targetQuestionId,omitempty"`
	Order            int      `json:"order"`
}

// NeedsValue reports whether the operator compares against a literal.
// The presence operators only inspect the answer itself.
func (op Operator) NeedsValue() bool {
	return op != IsAnswered && op != IsNotAnswered
}

type Response struct {
	ID      string            `json:"id"`
	Time    time.Time         `json:"time"`
	IP      string            `json:"ip,omitempty"`
	Answers map[string]string `json:"answers"`
}
