package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

type AnswerKind int

const (
	KindAbsent AnswerKind = iota
	KindText
	KindSelection
	KindMatrix
	KindFiles
)

type FileRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Size int64  `json:"size,omitempty"`
}

// AnswerValue is a closed union over the shapes a recorded answer can take:
// absent, scalar text, a set of selected options, a matrix (row -> column),
// or a set of uploaded files. The zero value is absent.
type AnswerValue struct {
	kind      AnswerKind
	text      string
	selection []string
	matrix    map[string]string
	files     []FileRef
}

var Absent = AnswerValue{}

func Text(s string) AnswerValue {
	return AnswerValue{kind: KindText, text: s}
}

func Selection(options ...string) AnswerValue {
	return AnswerValue{kind: KindSelection, selection: options}
}

func Matrix(rows map[string]string) AnswerValue {
	return AnswerValue{kind: KindMatrix, matrix: rows}
}

func Files(files ...FileRef) AnswerValue {
	return AnswerValue{kind: KindFiles, files: files}
}

func (v AnswerValue) Kind() AnswerKind          { return v.kind }
func (v AnswerValue) Text() string              { return v.text }
func (v AnswerValue) Selection() []string       { return v.selection }
func (v AnswerValue) Matrix() map[string]string { return v.matrix }
func (v AnswerValue) Files() []FileRef          { return v.files }

// IsAnswered reports whether the value counts as a recorded answer.
// Blank or whitespace-only text and empty collections count as absent.
func (v AnswerValue) IsAnswered() bool {
	switch v.kind {
	case KindText:
		return strings.TrimSpace(v.text) != ""
	case KindSelection:
		return len(v.selection) > 0
	case KindMatrix:
		return len(v.matrix) > 0
	case KindFiles:
		return len(v.files) > 0
	default:
		return false
	}
}

// Comparison returns the value normalized to a string for rule evaluation:
// text passes through, selections join their members, matrices serialize to
// a structural JSON string (keys sorted), files never compare.
func (v AnswerValue) Comparison() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindSelection:
		return strings.Join(v.selection, ",")
	case KindMatrix:
		if len(v.matrix) == 0 {
			return ""
		}
		b, err := json.Marshal(v.matrix)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return ""
	}
}

// MarshalJSON keeps the original versionless wire shape: null for absent,
// a bare string for text, a string array for selections, an object for
// matrices, an object array for files.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindSelection:
		if v.selection == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.selection)
	case KindMatrix:
		if v.matrix == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.matrix)
	case KindFiles:
		return json.Marshal(v.files)
	default:
		return []byte("null"), nil
	}
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*v = Absent
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil

	case '[':
		var options []string
		if err := json.Unmarshal(data, &options); err == nil {
			*v = Selection(options...)
			return nil
		}
		var files []FileRef
		if err := json.Unmarshal(data, &files); err != nil {
			return err
		}
		*v = Files(files...)
		return nil

	case '{':
		var rows map[string]string
		if err := json.Unmarshal(data, &rows); err != nil {
			return err
		}
		*v = Matrix(rows)
		return nil
	}

	// bare numbers come back from storage as number tokens
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = Text(n.String())
	return nil
}

// AnswerMap is the only mutable state of a response session, keyed by
// question id. Entries come and go as the respondent answers and clears
// fields.
type AnswerMap map[string]AnswerValue

func (m AnswerMap) Clone() AnswerMap {
	if m == nil {
		return nil
	}
	clone := make(AnswerMap, len(m))
	for id, v := range m {
		clone[id] = v
	}
	return clone
}
